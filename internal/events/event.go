// Package events models the user's personal recurring or one-off events
// and decides which calendar days they apply to.
package events

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"bellcal/internal/calendar"
	"bellcal/internal/clock"
	"bellcal/internal/timetable"
)

// RepeatRule is the closed set of recurrence patterns.
type RepeatRule string

const (
	RepeatNone            RepeatRule = "none"
	RepeatDaily           RepeatRule = "daily"
	RepeatWeeklyByDayType RepeatRule = "weeklyByDayType"
	RepeatWeeklyByWeekday RepeatRule = "weeklyByWeekday"
	RepeatBiweekly        RepeatRule = "biweekly"
	RepeatMonthly         RepeatRule = "monthly"
)

// Rules lists every RepeatRule.
var Rules = []RepeatRule{
	RepeatNone, RepeatDaily, RepeatWeeklyByDayType,
	RepeatWeeklyByWeekday, RepeatBiweekly, RepeatMonthly,
}

// Valid reports whether r is one of Rules.
func (r RepeatRule) Valid() bool {
	return slices.Contains(Rules, r)
}

// ParseRule accepts a rule name case-insensitively.
func ParseRule(s string) (RepeatRule, error) {
	for _, r := range Rules {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("events: unknown repeat rule %q", s)
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("events: invalid event")

// WeekParity decides whether a biweekly event is on for the week of date.
// The default treats every week as on, which makes biweekly behave like
// weekly.
// TODO: track an anchor week per event so biweekly events alternate.
var WeekParity = func(e Event, date time.Time) bool { return true }

// Event is one personal event. ApplicableDays is interpreted per Repeat:
// date keys for none, day codes for weekly/biweekly, weekday numbers
// (1=Sunday) for weeklyByWeekday, day-of-month numbers for monthly.
type Event struct {
	ID             string     `json:"id" yaml:"id"`
	Title          string     `json:"title" yaml:"title"`
	Start          clock.Time `json:"start" yaml:"start"`
	End            clock.Time `json:"end" yaml:"end"`
	Location       string     `json:"location,omitempty" yaml:"location,omitempty"`
	Note           string     `json:"note,omitempty" yaml:"note,omitempty"`
	Color          string     `json:"color,omitempty" yaml:"color,omitempty"`
	Repeat         RepeatRule `json:"repeat" yaml:"repeat"`
	Enabled        bool       `json:"enabled" yaml:"enabled"`
	ApplicableDays []string   `json:"applicable_days" yaml:"applicable_days"`
}

// New creates an enabled event with a fresh id.
func New(title string, start, end clock.Time, repeat RepeatRule, days []string) Event {
	return Event{
		ID:             uuid.NewString(),
		Title:          title,
		Start:          start,
		End:            end,
		Repeat:         repeat,
		Enabled:        true,
		ApplicableDays: normalizeDays(days),
	}
}

// Validate enforces the editor rules: an id, a title, a known rule and an
// end strictly after the start.
func (e Event) Validate() error {
	var errs []error
	if strings.TrimSpace(e.ID) == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, errors.New("missing title"))
	}
	if !e.Repeat.Valid() {
		errs = append(errs, fmt.Errorf("unknown repeat rule %q", e.Repeat))
	}
	if !e.End.After(e.Start) {
		errs = append(errs, fmt.Errorf("end %v is not after start %v", e.End, e.Start))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalid, e.Title, errors.Join(errs...))
	}
	return nil
}

// Duration is End-Start in seconds.
func (e Event) Duration() int {
	return e.End.Sub(e.Start)
}

// AppliesTo reports whether e occurs on date, whose day code is code.
func (e Event) AppliesTo(code string, date time.Time) bool {
	if !e.Enabled {
		return false
	}

	switch e.Repeat {
	case RepeatNone:
		return e.has(calendar.Key(date))
	case RepeatDaily:
		return timetable.IsSchoolDay(code)
	case RepeatWeeklyByDayType:
		return e.has(code)
	case RepeatBiweekly:
		return e.has(code) && WeekParity(e, date)
	case RepeatWeeklyByWeekday:
		return e.has(strconv.Itoa(int(date.Weekday()) + 1))
	case RepeatMonthly:
		return e.has(strconv.Itoa(date.Day()))
	default:
		return false
	}
}

func (e Event) has(v string) bool {
	return slices.Contains(e.ApplicableDays, v)
}

// ApplicableDaysFor builds ApplicableDays from an editor selection: the
// date for none, nothing for daily, the selected day codes or weekday
// numbers for the weekly rules, and the day of month for monthly.
func ApplicableDaysFor(rule RepeatRule, date time.Time, selected []string) []string {
	switch rule {
	case RepeatNone:
		return []string{calendar.Key(date)}
	case RepeatDaily:
		return []string{}
	case RepeatWeeklyByDayType, RepeatBiweekly, RepeatWeeklyByWeekday:
		return normalizeDays(selected)
	case RepeatMonthly:
		return []string{strconv.Itoa(date.Day())}
	default:
		return []string{}
	}
}

// normalizeDays trims, drops blanks and duplicates, and sorts. Day codes
// keep their case.
func normalizeDays(days []string) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		d = strings.TrimSpace(d)
		if d == "" || slices.Contains(out, d) {
			continue
		}
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}
