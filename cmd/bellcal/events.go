package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bellcal/internal/clock"
	"bellcal/internal/events"
	appLog "bellcal/internal/log"
	"bellcal/internal/store"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage personal events",
	}
	cmd.AddCommand(newEventsListCmd())
	cmd.AddCommand(newEventsAddCmd())
	cmd.AddCommand(newEventsToggleCmd())
	cmd.AddCommand(newEventsRmCmd())
	cmd.AddCommand(newEventsNextCmd())
	return cmd
}

func newEventsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			list, err := a.eng.Events.List(context.Background())
			if err != nil {
				return err
			}
			printEvents(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func newEventsAddCmd() *cobra.Command {
	var (
		title, start, end string
		repeat, date      string
		location, note    string
		days              []string
		check             bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			rule, err := events.ParseRule(repeat)
			if err != nil {
				return err
			}
			s, err := clock.Parse(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			e, err := clock.Parse(end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			d, now, err := parseDate(date, a.eng.Location)
			if err != nil {
				return err
			}

			ev := events.New(title, s, e, rule, events.ApplicableDaysFor(rule, d, days))
			ev.Location, ev.Note = location, note
			if err := ev.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			if check {
				reports, err := a.eng.Check(ctx, ev, d, now)
				if err != nil {
					return err
				}
				printConflicts(cmd.OutOrStdout(), reports)
			}
			if err := a.eng.Events.Put(ctx, ev); err != nil {
				return err
			}
			appLog.Info("event added", "id", ev.ID, "title", ev.Title)
			fmt.Fprintln(cmd.OutOrStdout(), ev.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "event title")
	cmd.Flags().StringVar(&start, "start", "", "start time (e.g. 15:00 or 3:00 PM)")
	cmd.Flags().StringVar(&end, "end", "", "end time")
	cmd.Flags().StringVar(&repeat, "repeat", string(events.RepeatNone), "none|daily|weeklyByDayType|weeklyByWeekday|biweekly|monthly")
	cmd.Flags().StringSliceVar(&days, "days", nil, "day codes or weekday numbers (1=Sunday) for weekly rules")
	cmd.Flags().StringVar(&date, "date", "", "anchor date as YYYY-MM-DD for none/monthly (default: today)")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.Flags().StringVar(&note, "note", "", "note")
	cmd.Flags().BoolVar(&check, "check", true, "print conflicts on the anchor date before saving")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newEventsToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Enable or disable an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			ev, err := store.Toggle(context.Background(), a.eng.Events, args[0])
			if err != nil {
				return err
			}
			printEvents(cmd.OutOrStdout(), []events.Event{ev})
			return nil
		},
	}
}

func newEventsRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.eng.Events.Delete(context.Background(), args[0])
		},
	}
}

func newEventsNextCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "next <id>",
		Short: "List the upcoming dates of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			_, now, _ := parseDate("", a.eng.Location)
			occ, err := a.eng.Upcoming(context.Background(), args[0], now, days)
			if err != nil {
				return err
			}
			for _, o := range occ {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-4s %s\n", o.Date.Format("Mon 2006-01-02"), o.Code, o.Start.Format("15:04"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 14, "how many days ahead to look")
	return cmd
}

func printEvents(w io.Writer, list []events.Event) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}
	for _, e := range list {
		state := "on"
		if !e.Enabled {
			state = "off"
		}
		fmt.Fprintf(w, "%s  %-3s %-11s %s  %s [%s]\n",
			e.ID, state, e.Start.Format(false)+"-"+e.End.Format(false), e.Title,
			e.Repeat, strings.Join(e.ApplicableDays, ","))
	}
}
