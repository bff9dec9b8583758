package timetable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"bellcal/internal/clock"
	appLog "bellcal/internal/log"
)

const endMarker = "$end"

// ParseError reports a malformed source line. Parsing continues past it.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("timetable: line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseDays reads day-type definitions. Each day is a name line followed by
// "label-start-end" slot lines and closed by "$end". A slot whose times do not
// parse keeps its label with a midnight time and the error is collected; lines
// that cannot be read at all are skipped.
func ParseDays(r io.Reader) ([]DayType, []error) {
	var (
		days    []DayType
		errs    []error
		current DayType
		open    bool
		lineNo  int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if line == endMarker {
			days = append(days, current)
			current = DayType{}
			open = false
			continue
		}

		if !strings.Contains(line, "-") {
			if open && current.Name != "" {
				errs = append(errs, &ParseError{Line: lineNo, Text: line, Err: errors.New("day name repeated before $end")})
			}
			current.Name = line
			open = true
			continue
		}

		open = true
		slot, err := parseSlot(line)
		if err != nil {
			errs = append(errs, &ParseError{Line: lineNo, Text: line, Err: err})
			if slot.Label == "" {
				continue
			}
		}
		current.Slots = append(current.Slots, slot)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	if open {
		errs = append(errs, &ParseError{Line: lineNo, Text: current.Name, Err: errors.New("missing $end")})
		days = append(days, current)
	}
	return days, errs
}

func parseSlot(line string) (Slot, error) {
	fields := strings.Split(line, "-")
	if len(fields) < 3 {
		return Slot{}, errors.New("expected label-start-end")
	}

	n := len(fields)
	label := strings.TrimSpace(strings.Join(fields[:n-2], "-"))
	if label == "" {
		return Slot{}, errors.New("empty slot label")
	}

	var firstErr error
	start, err := clock.Parse(fields[n-2])
	if err != nil {
		firstErr = err
	}
	end, err := clock.Parse(fields[n-1])
	if err != nil && firstErr == nil {
		firstErr = err
	}
	return NewSlot(label, start, end), firstErr
}

// ParseRoster reads one class per line as "name-teacher-room". The legacy
// four-field form "code-teacher-room-name" uses its last field as the name.
func ParseRoster(r io.Reader) ([]RosterEntry, []error) {
	var (
		roster []RosterEntry
		errs   []error
		lineNo int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "-")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		switch len(fields) {
		case 3:
			roster = append(roster, RosterEntry{Name: fields[0], Instructor: fields[1], Room: fields[2]})
		case 4:
			roster = append(roster, RosterEntry{Name: fields[3], Instructor: fields[1], Room: fields[2]})
		default:
			// Keep positions stable for $N references.
			errs = append(errs, &ParseError{Line: lineNo, Text: line, Err: errors.New("expected name-teacher-room")})
			roster = append(roster, RosterEntry{Name: NotSet, Instructor: NotSet, Room: NotSet})
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}
	return roster, errs
}

// Load reads the day and roster files. Parse problems are logged and
// skipped; only file access errors are returned.
func Load(daysPath, rosterPath string, cohorts Cohorts) (Data, error) {
	data := Data{SecondLunch: cohorts}

	df, err := os.Open(daysPath)
	if err != nil {
		return Data{}, fmt.Errorf("open timetable %s: %w", daysPath, err)
	}
	defer df.Close()

	days, errs := ParseDays(df)
	for _, e := range errs {
		appLog.Error("timetable line skipped", e, "path", daysPath)
	}
	for _, d := range days {
		if verr := d.Validate(); verr != nil {
			appLog.Warn("timetable day has inverted slot", "day", d.Name, "detail", verr.Error())
		}
	}
	data.Days = days

	if rosterPath != "" {
		rf, err := os.Open(rosterPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Data{}, fmt.Errorf("open roster %s: %w", rosterPath, err)
			}
			appLog.Warn("roster file missing; period references stay unresolved", "path", rosterPath)
		} else {
			defer rf.Close()
			roster, rerrs := ParseRoster(rf)
			for _, e := range rerrs {
				appLog.Error("roster line skipped", e, "path", rosterPath)
			}
			data.Roster = roster
		}
	}

	appLog.Info("timetable loaded", "days", len(data.Days), "roster", len(data.Roster))
	return data, nil
}
