// Package timetable holds the static definition of a school's day types,
// the user's roster of enrolled classes, and the per-cohort second-lunch
// flags.
package timetable

import (
	"fmt"
	"strconv"
	"strings"

	"bellcal/internal/clock"
)

// SlotKind tags a slot when the timetable is authored so that later passes
// never have to guess from rendered text.
type SlotKind string

const (
	KindRegular   SlotKind = "regular"
	KindLunch     SlotKind = "lunch"
	KindBrunch    SlotKind = "brunch"
	KindPeriodRef SlotKind = "period"
)

// NotSet is the roster sentinel for an unset field.
const NotSet = "N"

// Slot is one labelled block of a day type. For KindPeriodRef, Ref is the
// 1-based roster position taken from a "$N" label.
type Slot struct {
	Label string     `json:"label" yaml:"label"`
	Kind  SlotKind   `json:"kind" yaml:"kind"`
	Ref   int        `json:"ref,omitempty" yaml:"ref,omitempty"`
	Start clock.Time `json:"start" yaml:"start"`
	End   clock.Time `json:"end" yaml:"end"`
}

// DayType is a named rotation pattern with slots in authored order.
type DayType struct {
	Name  string `json:"name" yaml:"name"`
	Slots []Slot `json:"slots" yaml:"slots"`
}

// RosterEntry is one enrolled class.
type RosterEntry struct {
	Name       string `json:"name" yaml:"name"`
	Instructor string `json:"instructor" yaml:"instructor"`
	Room       string `json:"room" yaml:"room"`
}

// Cohorts carries the independent second-lunch flags.
type Cohorts struct {
	Gold  bool `json:"gold" yaml:"gold"`
	Brown bool `json:"brown" yaml:"brown"`
}

// Data is a complete timetable snapshot handed to the renderer.
type Data struct {
	Roster      []RosterEntry `json:"roster" yaml:"roster"`
	Days        []DayType     `json:"days" yaml:"days"`
	SecondLunch Cohorts       `json:"second_lunch" yaml:"second_lunch"`
}

// NewSlot classifies label and builds a slot.
func NewSlot(label string, start, end clock.Time) Slot {
	kind, ref := Classify(label)
	return Slot{Label: label, Kind: kind, Ref: ref, Start: start, End: end}
}

// Classify derives the slot kind from an authored label: "$N" references
// roster entry N, "Lunch" and "Brunch" are the swappable meal blocks.
func Classify(label string) (SlotKind, int) {
	l := strings.TrimSpace(label)
	if strings.HasPrefix(l, "$") {
		if n, err := strconv.Atoi(l[1:]); err == nil && n > 0 {
			return KindPeriodRef, n
		}
	}
	switch {
	case strings.EqualFold(l, "Lunch"):
		return KindLunch, 0
	case strings.EqualFold(l, "Brunch"):
		return KindBrunch, 0
	default:
		return KindRegular, 0
	}
}

// Validate checks that no slot ends before it starts.
func (d DayType) Validate() error {
	for i, s := range d.Slots {
		if s.End.Before(s.Start) {
			return fmt.Errorf("timetable: day %q slot %d (%s) ends at %v before start %v",
				d.Name, i, s.Label, s.End, s.Start)
		}
	}
	return nil
}

// IsSet reports whether a roster field carries a real value.
func IsSet(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NotSet
}

// Entry returns roster entry n (1-based).
func (d Data) Entry(n int) (RosterEntry, bool) {
	if n < 1 || n > len(d.Roster) {
		return RosterEntry{}, false
	}
	return d.Roster[n-1], true
}

// Day returns the day type at idx.
func (d Data) Day(idx int) (DayType, bool) {
	if idx < 0 || idx >= len(d.Days) {
		return DayType{}, false
	}
	return d.Days[idx], true
}

// Clone deep-copies the slices so stores can hand out snapshots.
func (d Data) Clone() Data {
	out := Data{SecondLunch: d.SecondLunch}
	out.Roster = append([]RosterEntry(nil), d.Roster...)
	out.Days = make([]DayType, len(d.Days))
	for i, day := range d.Days {
		out.Days[i] = DayType{Name: day.Name, Slots: append([]Slot(nil), day.Slots...)}
	}
	return out
}
