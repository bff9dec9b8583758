package render

import (
	"bellcal/internal/clock"
	"bellcal/internal/timetable"
)

// Line is one rendered display unit. Text lines carry only Text; block
// lines carry a time span in seconds since midnight and a progress
// fraction.
type Line struct {
	Text       string             `json:"text,omitempty"`
	Current    bool               `json:"current"`
	TimeRange  string             `json:"time_range,omitempty"`
	Title      string             `json:"title,omitempty"`
	Instructor string             `json:"instructor,omitempty"`
	Room       string             `json:"room,omitempty"`
	Start      *int               `json:"start,omitempty"`
	End        *int               `json:"end,omitempty"`
	Progress   *float64           `json:"progress,omitempty"`
	Kind       timetable.SlotKind `json:"kind,omitempty"`
	Ref        int                `json:"ref,omitempty"`
}

// TextLine builds a free-text line.
func TextLine(s string) Line {
	return Line{Text: s}
}

// BlockLine builds a block spanning start..end, evaluated against nowSec.
// today gates the Current flag.
func BlockLine(title string, start, end clock.Time, nowSec int, today bool) Line {
	l := Line{Title: title}
	l.setSpan(start, end, nowSec, today)
	return l
}

// Span returns the concrete start/end seconds, if the line has them.
func (l Line) Span() (start, end int, ok bool) {
	if l.Start == nil || l.End == nil {
		return 0, 0, false
	}
	return *l.Start, *l.End, true
}

// IsText reports whether l is a free-text line.
func (l Line) IsText() bool {
	return l.Start == nil && l.Title == ""
}

func (l *Line) setSpan(start, end clock.Time, nowSec int, today bool) {
	s, e := start.TotalSeconds(), end.TotalSeconds()
	p := Progress(nowSec, s, e)
	l.Start = &s
	l.End = &e
	l.Progress = &p
	l.TimeRange = TimeRange(start, end)
	l.Current = today && s <= nowSec && nowSec < e
}

// TimeRange is the display form "8:45 - 9:35".
func TimeRange(start, end clock.Time) string {
	return start.Format(false) + " - " + end.Format(false)
}

// Progress is 0 before start, 1 at or after end, and the linear fraction
// in between. A zero-length block is complete once reached.
func Progress(now, start, end int) float64 {
	if now >= end {
		return 1
	}
	if now <= start {
		return 0
	}
	return float64(now-start) / float64(end-start)
}
