package timetable

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bellcal/internal/clock"
)

const sampleDays = `
Gold 1
$1-8:45-9:35
Advisory-9:40-9:55
Lunch-11:50-12:20
$4-12:25-13:15
$end
Brown 1
$2-8:45-9:35
Brunch-9:40-10:05
Pep-Rally-10:10-10:40
$end
`

func TestParseDays(t *testing.T) {
	t.Parallel()

	days, errs := ParseDays(strings.NewReader(sampleDays))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}

	gold := days[0]
	if gold.Name != "Gold 1" || len(gold.Slots) != 4 {
		t.Fatalf("unexpected first day: %+v", gold)
	}
	first := gold.Slots[0]
	if first.Kind != KindPeriodRef || first.Ref != 1 {
		t.Fatalf("first slot kind = %s ref %d, want period ref 1", first.Kind, first.Ref)
	}
	if first.Start.String() != "08:45:00" || first.End.String() != "09:35:00" {
		t.Fatalf("first slot times %v-%v", first.Start, first.End)
	}
	if gold.Slots[2].Kind != KindLunch {
		t.Fatalf("lunch slot kind = %s", gold.Slots[2].Kind)
	}

	brown := days[1]
	if brown.Slots[1].Kind != KindBrunch {
		t.Fatalf("brunch slot kind = %s", brown.Slots[1].Kind)
	}
	if brown.Slots[2].Label != "Pep-Rally" || brown.Slots[2].Kind != KindRegular {
		t.Fatalf("hyphenated label parsed as %+v", brown.Slots[2])
	}
}

func TestParseDays_RecoversFromBadLines(t *testing.T) {
	t.Parallel()

	src := "Gold 1\n$1-8:4x-9:35\nnonsense-line\n$2-10:00-10:50\n$end\nLate Start\n$3-10:00-10:50\n"
	days, errs := ParseDays(strings.NewReader(src))
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if len(days[0].Slots) != 2 {
		t.Fatalf("expected bad-time slot kept with sentinel and bad line skipped, got %+v", days[0].Slots)
	}
	if !days[0].Slots[0].Start.Equal(clock.Time{}) {
		t.Fatalf("bad start should fall back to midnight, got %v", days[0].Slots[0].Start)
	}
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors (bad time, bad line, missing $end), got %d: %v", len(errs), errs)
	}
	var pe *ParseError
	if !errors.As(errs[0], &pe) || pe.Line != 2 {
		t.Fatalf("first error = %v, want ParseError on line 2", errs[0])
	}
	var ce *clock.ParseError
	if !errors.As(errs[0], &ce) {
		t.Fatalf("first error should wrap clock.ParseError: %v", errs[0])
	}
}

func TestParseRoster(t *testing.T) {
	t.Parallel()

	src := "Algebra-Smith-204\nHIS101-Jones-110-World History\nbroken\nStudy Hall-N-N\n"
	roster, errs := ParseRoster(strings.NewReader(src))
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if len(roster) != 4 {
		t.Fatalf("positions must be stable, got %d entries", len(roster))
	}
	if roster[0] != (RosterEntry{Name: "Algebra", Instructor: "Smith", Room: "204"}) {
		t.Fatalf("unexpected entry 1: %+v", roster[0])
	}
	if roster[1].Name != "World History" || roster[1].Instructor != "Jones" {
		t.Fatalf("legacy entry parsed as %+v", roster[1])
	}
	if IsSet(roster[3].Instructor) || IsSet("") || !IsSet("Smith") {
		t.Fatalf("IsSet sentinel handling wrong")
	}
}

func TestCodeIndex(t *testing.T) {
	t.Parallel()

	for i, code := range Codes {
		got, ok := CodeIndex(strings.ToUpper(code))
		if !ok || got != i {
			t.Fatalf("CodeIndex(%q) = %d,%v want %d", code, got, ok, i)
		}
	}
	if _, ok := CodeIndex("x9"); ok {
		t.Fatalf("x9 should not resolve")
	}
	if IsSchoolDay("None") || IsSchoolDay(" ") || !IsSchoolDay("g1") {
		t.Fatalf("IsSchoolDay sentinel handling wrong")
	}
}

func TestDayTypeValidate(t *testing.T) {
	t.Parallel()

	ok := DayType{Name: "ok", Slots: []Slot{NewSlot("A", clock.MustParse("8:00"), clock.MustParse("8:00"))}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("zero-length slot should validate: %v", err)
	}
	bad := DayType{Name: "bad", Slots: []Slot{NewSlot("A", clock.MustParse("9:00"), clock.MustParse("8:00"))}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected inverted slot error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	daysPath := filepath.Join(dir, "days.txt")
	rosterPath := filepath.Join(dir, "roster.txt")
	if err := os.WriteFile(daysPath, []byte(sampleDays), 0o644); err != nil {
		t.Fatalf("write days: %v", err)
	}
	if err := os.WriteFile(rosterPath, []byte("Algebra-Smith-204\nBiology-Lee-12\n"), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}

	data, err := Load(daysPath, rosterPath, Cohorts{Gold: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(data.Days) != 2 || len(data.Roster) != 2 || !data.SecondLunch.Gold {
		t.Fatalf("unexpected data: %+v", data)
	}
	if e, ok := data.Entry(2); !ok || e.Name != "Biology" {
		t.Fatalf("Entry(2) = %+v,%v", e, ok)
	}
	if _, ok := data.Entry(3); ok {
		t.Fatalf("Entry(3) should be out of range")
	}

	clone := data.Clone()
	clone.Days[0].Slots[0].Label = "changed"
	if data.Days[0].Slots[0].Label == "changed" {
		t.Fatalf("Clone shares slot storage")
	}

	if _, err := Load(filepath.Join(dir, "missing.txt"), "", Cohorts{}); err == nil {
		t.Fatalf("expected error for missing days file")
	}
}
