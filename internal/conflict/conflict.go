// Package conflict finds time overlaps between personal events and the
// rendered schedule, and grades how much of a block each overlap eats.
package conflict

import (
	"fmt"
	"strings"
	"time"

	"bellcal/internal/events"
	"bellcal/internal/render"
)

// Severity grades an overlap. Higher is worse.
type Severity int

const (
	Minor Severity = iota + 1
	Major
	Complete
)

// An overlap covering at least 4/5 of the denominator is complete,
// otherwise majorSeconds or more is major.
const (
	completeNum  = 4
	completeDen  = 5
	majorSeconds = 900
)

func (s Severity) String() string {
	switch s {
	case Minor:
		return "minor"
	case Major:
		return "major"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "minor":
		*s = Minor
	case "major":
		*s = Major
	case "complete":
		*s = Complete
	default:
		return fmt.Errorf("conflict: unknown severity %q", b)
	}
	return nil
}

// Source tells which data set the conflicting line came from.
type Source string

const (
	SourceSchedule Source = "schedule"
	SourceEvent    Source = "event"
)

// Report is one detected conflict. For SourceEvent, Line is synthesized
// from the other event and OtherID carries its id.
type Report struct {
	Event    events.Event `json:"event"`
	Line     render.Line  `json:"line"`
	OtherID  string       `json:"other_id,omitempty"`
	Source   Source       `json:"source"`
	Severity Severity     `json:"severity"`
	Overlap  int          `json:"overlap_seconds"`
}

// Overlaps is the half-open interval test.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return !(aEnd <= bStart || aStart >= bEnd)
}

// OverlapSeconds is the length of the intersection, or 0.
func OverlapSeconds(aStart, aEnd, bStart, bEnd int) int {
	d := min(aEnd, bEnd) - max(aStart, bStart)
	if d < 0 {
		return 0
	}
	return d
}

// Classify grades overlap against denominator.
func Classify(overlap, denominator int) Severity {
	if overlap*completeDen >= denominator*completeNum {
		return Complete
	}
	if overlap >= majorSeconds {
		return Major
	}
	return Minor
}

// WithLine checks e against a schedule line. Lines without a concrete span,
// or with an empty one, never conflict. The line's own duration is the
// denominator.
func WithLine(e events.Event, l render.Line) (Report, bool) {
	ls, le, ok := l.Span()
	if !ok || le <= ls {
		return Report{}, false
	}
	es, ee := e.Start.TotalSeconds(), e.End.TotalSeconds()
	if !Overlaps(es, ee, ls, le) {
		return Report{}, false
	}
	d := OverlapSeconds(es, ee, ls, le)
	return Report{
		Event:    e,
		Line:     l,
		Source:   SourceSchedule,
		Severity: Classify(d, le-ls),
		Overlap:  d,
	}, true
}

// WithEvent checks a against b. The shorter of the two durations is the
// denominator.
func WithEvent(a, b events.Event) (Report, bool) {
	as, ae := a.Start.TotalSeconds(), a.End.TotalSeconds()
	bs, be := b.Start.TotalSeconds(), b.End.TotalSeconds()
	if !Overlaps(as, ae, bs, be) {
		return Report{}, false
	}
	d := OverlapSeconds(as, ae, bs, be)
	return Report{
		Event:    a,
		Line:     LineFor(b),
		OtherID:  b.ID,
		Source:   SourceEvent,
		Severity: Classify(d, min(ae-as, be-bs)),
		Overlap:  d,
	}, true
}

// LineFor presents an event as a schedule line.
func LineFor(e events.Event) render.Line {
	l := render.BlockLine(e.Title, e.Start, e.End, -1, false)
	l.Room = e.Location
	l.Progress = nil
	return l
}

// Detect runs both passes for e on (code, date): against every schedule
// line, then against every other enabled event that applies that day.
// Reports are not deduplicated across passes.
func Detect(e events.Event, lines []render.Line, others []events.Event, code string, date time.Time) []Report {
	var out []Report
	for _, l := range lines {
		if r, ok := WithLine(e, l); ok {
			out = append(out, r)
		}
	}
	for _, o := range others {
		if o.ID == e.ID || !o.AppliesTo(code, date) {
			continue
		}
		if r, ok := WithEvent(e, o); ok {
			out = append(out, r)
		}
	}
	return out
}

// DetectAll runs Detect for every event that applies on (code, date).
func DetectAll(all []events.Event, lines []render.Line, code string, date time.Time) []Report {
	var out []Report
	for _, e := range all {
		if !e.AppliesTo(code, date) {
			continue
		}
		out = append(out, Detect(e, lines, all, code, date)...)
	}
	return out
}
