// Package render expands a day type into the ordered schedule lines shown
// for one date.
package render

import (
	"fmt"
	"strconv"
	"time"

	"bellcal/internal/clock"
	"bellcal/internal/timetable"
)

// Status tells the caller why a result has no lines, if it has none.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNoSchool    Status = "no_school"
	StatusLoading     Status = "loading"
	StatusInvalidCode Status = "invalid_code"
)

// Passing periods are only synthesized inside the school day and for
// short gaps.
var (
	passingEarliest = clock.MustParse("8:00")
	passingLatest   = clock.MustParse("14:30")
)

const (
	passingMaxGap = 600
	passingTitle  = "Passing Period"
)

// Request is one render call. MappingLoaded distinguishes "no school" from
// "calendar still loading" when Code is empty or "None".
type Request struct {
	Code          string
	Date          time.Time
	Now           time.Time
	MappingLoaded bool
}

// Options select the override profile and the optional clock banner.
type Options struct {
	Profile   Profile
	ShowClock bool
}

// Result is the rendered day. Lines is never nil.
type Result struct {
	DayName string `json:"day_name,omitempty"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Lines   []Line `json:"lines"`
}

// Render expands req.Code against data. It never fails: unresolvable
// input yields an empty line list with a status.
func Render(data timetable.Data, req Request, opts Options) Result {
	if !timetable.IsSchoolDay(req.Code) {
		if !req.MappingLoaded {
			return Result{Status: StatusLoading, Message: "Loading schedule…", Lines: []Line{}}
		}
		return Result{Status: StatusNoSchool, Message: "No school", Lines: []Line{}}
	}

	idx, ok := timetable.CodeIndex(req.Code)
	if !ok {
		return invalid(req.Code)
	}
	day, ok := data.Day(idx)
	if !ok {
		return invalid(req.Code)
	}

	today := sameDay(req.Date, req.Now)
	nowSec := effectiveNow(req.Date, req.Now)

	lines := make([]Line, 0, len(day.Slots)*2+1)
	if opts.ShowClock && today {
		lines = append(lines, TextLine("It is now "+clock.FromTime(req.Now).Format(true)))
	}

	for i, slot := range day.Slots {
		if today && i > 0 {
			if pp, ok := passingPeriod(day.Slots[i-1].End, slot.Start, nowSec); ok {
				lines = append(lines, pp)
			}
		}
		lines = append(lines, slotLine(data, slot, nowSec, today))
	}

	if opts.Profile.Applies(data.SecondLunch, idx) {
		opts.Profile.apply(lines, nowSec, today)
	}

	return Result{DayName: day.Name, Status: StatusOK, Lines: lines}
}

func invalid(code string) Result {
	return Result{
		Status:  StatusInvalidCode,
		Message: fmt.Sprintf("Invalid day code: %q", code),
		Lines:   []Line{},
	}
}

// passingPeriod synthesizes the gap filler when now falls inside a short
// gap between prevEnd and nextStart during the school day.
func passingPeriod(prevEnd, nextStart clock.Time, nowSec int) (Line, bool) {
	gs, ge := prevEnd.TotalSeconds(), nextStart.TotalSeconds()
	if nowSec < gs || nowSec >= ge {
		return Line{}, false
	}
	if !prevEnd.After(passingEarliest) || !nextStart.Before(passingLatest) {
		return Line{}, false
	}
	if ge-gs > passingMaxGap {
		return Line{}, false
	}
	return BlockLine(passingTitle, prevEnd, nextStart, nowSec, true), true
}

func slotLine(data timetable.Data, slot timetable.Slot, nowSec int, today bool) Line {
	var l Line
	if entry, ok := rosterEntry(data, slot); ok {
		title := entry.Name
		if !timetable.IsSet(title) {
			title = "Period " + strconv.Itoa(slot.Ref)
		}
		l = BlockLine(title, slot.Start, slot.End, nowSec, today)
		if timetable.IsSet(entry.Instructor) {
			l.Instructor = entry.Instructor
		}
		if timetable.IsSet(entry.Room) {
			l.Room = entry.Room
		}
	} else {
		l = BlockLine(slot.Label, slot.Start, slot.End, nowSec, today)
	}
	l.Kind = slot.Kind
	l.Ref = slot.Ref
	return l
}

func rosterEntry(data timetable.Data, slot timetable.Slot) (timetable.RosterEntry, bool) {
	if slot.Kind != timetable.KindPeriodRef {
		return timetable.RosterEntry{}, false
	}
	return data.Entry(slot.Ref)
}

func sameDay(date, now time.Time) bool {
	y1, m1, d1 := date.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// effectiveNow places now relative to the rendered date: past dates see
// every block as finished, future dates see none started.
func effectiveNow(date, now time.Time) int {
	if sameDay(date, now) {
		return clock.FromTime(now).TotalSeconds()
	}
	d := date.In(now.Location())
	dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	if dayStart.Before(now) {
		return 24 * 3600
	}
	return -1
}
