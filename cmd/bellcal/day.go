package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bellcal/internal/conflict"
	"bellcal/internal/render"
	"bellcal/internal/snapshot"
)

func newDayCmd() *cobra.Command {
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Print the schedule for a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			d, now, err := parseDate(date, a.eng.Location)
			if err != nil {
				return err
			}
			snap, err := a.eng.Day(context.Background(), d, now)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			printDay(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func newConflictsCmd() *cobra.Command {
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List event conflicts for a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			d, now, err := parseDate(date, a.eng.Location)
			if err != nil {
				return err
			}
			snap, err := a.eng.Day(context.Background(), d, now)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), snap.Conflicts)
			}
			printConflicts(cmd.OutOrStdout(), snap.Conflicts)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print conflicts as JSON")
	return cmd
}

func parseDate(s string, loc *time.Location) (date, now time.Time, err error) {
	now = time.Now().In(loc)
	if s == "" {
		return now, now, nil
	}
	date, err = time.ParseInLocation(snapshot.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", s)
	}
	return date, now, nil
}

func printDay(w io.Writer, snap snapshot.Snapshot) {
	header := snap.Date
	if snap.DayName != "" {
		header += "  " + snap.DayName
	}
	if snap.Code != "" {
		header += " (" + snap.Code + ")"
	}
	fmt.Fprintln(w, header)
	if snap.Note != "" {
		fmt.Fprintln(w, "  "+snap.Note)
	}
	if snap.Status != render.StatusOK {
		fmt.Fprintln(w, snap.Message)
		return
	}

	for _, l := range snap.Lines {
		if l.IsText() {
			fmt.Fprintln(w, l.Text)
			continue
		}
		marker := " "
		if l.Current {
			marker = ">"
		}
		parts := []string{fmt.Sprintf("%s %-15s %s", marker, l.TimeRange, l.Title)}
		if l.Instructor != "" {
			parts = append(parts, l.Instructor)
		}
		if l.Room != "" {
			parts = append(parts, l.Room)
		}
		if l.Current && l.Progress != nil {
			parts = append(parts, fmt.Sprintf("%d%%", int(*l.Progress*100)))
		}
		fmt.Fprintln(w, strings.Join(parts, "  "))
	}

	if len(snap.Conflicts) > 0 {
		fmt.Fprintln(w)
		printConflicts(w, snap.Conflicts)
	}
}

func printConflicts(w io.Writer, reports []conflict.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No conflicts")
		return
	}
	for _, r := range reports {
		fmt.Fprintf(w, "%-8s %s (%s) overlaps %s (%s) by %d min\n",
			r.Severity, r.Event.Title, r.Event.Start.Format(false)+"-"+r.Event.End.Format(false),
			r.Line.Title, r.Line.TimeRange, r.Overlap/60)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
