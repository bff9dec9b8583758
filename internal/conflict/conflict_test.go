package conflict

import (
	"encoding/json"
	"testing"
	"time"

	"bellcal/internal/clock"
	"bellcal/internal/events"
	"bellcal/internal/render"
)

func event(id, start, end string) events.Event {
	return events.Event{
		ID:      id,
		Title:   id,
		Start:   clock.MustParse(start),
		End:     clock.MustParse(end),
		Repeat:  events.RepeatDaily,
		Enabled: true,
	}
}

func classLine(title, start, end string) render.Line {
	return render.BlockLine(title, clock.MustParse(start), clock.MustParse(end), 0, false)
}

func TestOverlapsSymmetric(t *testing.T) {
	t.Parallel()

	points := []int{0, 100, 200, 300, 400}
	for _, as := range points {
		for _, ae := range points {
			for _, bs := range points {
				for _, be := range points {
					if as > ae || bs > be {
						continue
					}
					if Overlaps(as, ae, bs, be) != Overlaps(bs, be, as, ae) {
						t.Fatalf("asymmetric for [%d,%d) [%d,%d)", as, ae, bs, be)
					}
				}
			}
		}
	}
	if Overlaps(0, 100, 100, 200) {
		t.Fatalf("touching intervals must not overlap")
	}
	if !Overlaps(0, 101, 100, 200) {
		t.Fatalf("one-second overlap missed")
	}
}

func TestClassifyMonotonic(t *testing.T) {
	t.Parallel()

	for _, denom := range []int{600, 1800, 3600, 7200} {
		prev := Severity(0)
		for d := 0; d <= denom; d += 30 {
			s := Classify(d, denom)
			if s < prev {
				t.Fatalf("severity dropped from %s to %s at overlap %d/%d", prev, s, d, denom)
			}
			prev = s
		}
	}
}

func TestWithEvent_MajorOverlap(t *testing.T) {
	t.Parallel()

	a := event("a", "9:00", "10:00")
	b := event("b", "9:45", "10:15")
	r, ok := WithEvent(a, b)
	if !ok {
		t.Fatalf("expected conflict")
	}
	if r.Overlap != 900 || r.Severity != Major {
		t.Fatalf("overlap %d severity %s, want 900 major", r.Overlap, r.Severity)
	}
	if r.OtherID != "b" || r.Source != SourceEvent || r.Line.Title != "b" {
		t.Fatalf("unexpected report: %+v", r)
	}

	back, ok := WithEvent(b, a)
	if !ok || back.Severity != Major {
		t.Fatalf("reverse check = %+v, %v", back, ok)
	}
}

func TestWithLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ev     events.Event
		line   render.Line
		ok     bool
		sev    Severity
		amount int
	}{
		{name: "short_event_minor", ev: event("e", "9:00", "9:10"), line: classLine("Algebra", "9:00", "10:00"), ok: true, sev: Minor, amount: 600},
		{name: "covers_class_complete", ev: event("e", "8:30", "10:30"), line: classLine("Algebra", "9:00", "10:00"), ok: true, sev: Complete, amount: 3600},
		{name: "eighty_percent_complete", ev: event("e", "9:00", "9:48"), line: classLine("Algebra", "9:00", "10:00"), ok: true, sev: Complete, amount: 2880},
		{name: "twenty_minutes_major", ev: event("e", "9:40", "11:00"), line: classLine("Algebra", "9:00", "10:00"), ok: true, sev: Major, amount: 1200},
		{name: "adjacent", ev: event("e", "10:00", "10:30"), line: classLine("Algebra", "9:00", "10:00"), ok: false},
		{name: "text_line", ev: event("e", "9:00", "10:00"), line: render.TextLine("It is now"), ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, ok := WithLine(tc.ev, tc.line)
			if ok != tc.ok {
				t.Fatalf("WithLine() ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if r.Severity != tc.sev || r.Overlap != tc.amount {
				t.Fatalf("WithLine() = %s/%d, want %s/%d", r.Severity, r.Overlap, tc.sev, tc.amount)
			}
			if r.Source != SourceSchedule {
				t.Fatalf("source = %s", r.Source)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	lines := []render.Line{
		render.TextLine("banner"),
		classLine("Algebra", "8:45", "9:35"),
		classLine("Biology", "9:40", "10:30"),
	}

	me := event("me", "9:30", "10:00")
	overlapping := event("other", "9:50", "10:20")
	disabled := event("off", "9:30", "10:00")
	disabled.Enabled = false
	elsewhere := event("weekly", "9:30", "10:00")
	elsewhere.Repeat = events.RepeatWeeklyByDayType
	elsewhere.ApplicableDays = []string{"b1"}

	all := []events.Event{me, overlapping, disabled, elsewhere}
	reports := Detect(me, lines, all, "g1", day)
	if len(reports) != 3 {
		t.Fatalf("expected Algebra, Biology and other, got %d: %+v", len(reports), reports)
	}

	var schedule, other int
	for _, r := range reports {
		switch r.Source {
		case SourceSchedule:
			schedule++
		case SourceEvent:
			other++
			if r.OtherID != "other" {
				t.Fatalf("unexpected other event %q", r.OtherID)
			}
		}
		if r.Event.ID != "me" {
			t.Fatalf("report for wrong event %q", r.Event.ID)
		}
	}
	if schedule != 2 || other != 1 {
		t.Fatalf("schedule=%d other=%d", schedule, other)
	}

	everyone := DetectAll(all, lines, "g1", day)
	// me: 3, other: Biology + me.
	if len(everyone) != 5 {
		t.Fatalf("DetectAll() = %d reports", len(everyone))
	}
}

func TestSeverityJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(map[string]Severity{"s": Complete})
	if err != nil || string(raw) != `{"s":"complete"}` {
		t.Fatalf("marshal = %s, %v", raw, err)
	}
	var s Severity
	if err := s.UnmarshalText([]byte("Major")); err != nil || s != Major {
		t.Fatalf("unmarshal = %v, %v", s, err)
	}
	if !(Minor < Major && Major < Complete) {
		t.Fatalf("severity order broken")
	}
}

func TestWithLine_EmptySpan(t *testing.T) {
	t.Parallel()

	if r, ok := WithLine(event("e", "9:00", "10:00"), classLine("Bell", "9:30", "9:30")); ok {
		t.Fatalf("WithLine() reported an empty slot: %+v", r)
	}
	if _, ok := WithLine(event("e", "9:00", "10:00"), classLine("Bell", "9:30", "9:31")); !ok {
		t.Fatalf("WithLine() missed a one-minute slot")
	}
}
