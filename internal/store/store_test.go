package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"bellcal/internal/calendar"
	"bellcal/internal/clock"
	"bellcal/internal/events"
	"bellcal/internal/timetable"
)

func sampleEvent(title string) events.Event {
	return events.New(title, clock.MustParse("15:00"), clock.MustParse("16:00"),
		events.RepeatWeeklyByDayType, []string{"g1"})
}

func exerciseEventStore(t *testing.T, s EventStore) {
	t.Helper()
	ctx := context.Background()

	var notified atomic.Int32
	cancel := s.Subscribe(func() { notified.Add(1) })

	a := sampleEvent("Robotics")
	b := sampleEvent("Chess")
	for _, e := range []events.Event{a, b} {
		if err := s.Put(ctx, e); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	list, err := s.List(ctx)
	if err != nil || len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("List() = %+v, %v", list, err)
	}

	edited, err := Edit(ctx, s, a.ID, func(e *events.Event) {
		e.Title = "Robotics Club"
		e.ID = "forged"
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.ID != a.ID {
		t.Fatalf("Edit changed the id to %q", edited.ID)
	}
	if _, err := Edit(ctx, s, a.ID, func(e *events.Event) { e.End = e.Start }); err == nil {
		t.Fatalf("Edit must validate")
	}

	toggled, err := Toggle(ctx, s, a.ID)
	if err != nil || toggled.Enabled {
		t.Fatalf("Toggle() = %+v, %v", toggled, err)
	}

	got, err := s.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Robotics Club" || got.Enabled || len(got.ApplicableDays) != 1 || got.ApplicableDays[0] != "g1" {
		t.Fatalf("Get() = %+v", got)
	}
	if !got.Start.Equal(a.Start) || !got.End.Equal(a.End) || got.Repeat != a.Repeat {
		t.Fatalf("times or rule changed: %+v", got)
	}

	list, _ = s.List(ctx)
	if list[0].ID != a.ID {
		t.Fatalf("replaced event must keep its position: %+v", list)
	}

	if err := s.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v", err)
	}
	if _, err := s.Get(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get deleted err = %v", err)
	}

	// 2 puts, edit, toggle, delete.
	if n := notified.Load(); n != 5 {
		t.Fatalf("notified %d times, want 5", n)
	}
	cancel()
	_ = s.Put(ctx, sampleEvent("after cancel"))
	if n := notified.Load(); n != 5 {
		t.Fatalf("cancelled subscriber still notified")
	}
}

func TestMemoryEvents(t *testing.T) {
	t.Parallel()
	exerciseEventStore(t, NewMemoryEvents())
}

func TestMemoryEvents_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := sampleEvent("Band")
	s := NewMemoryEvents(e)

	got, _ := s.Get(ctx, e.ID)
	got.ApplicableDays[0] = "zz"
	again, _ := s.Get(ctx, e.ID)
	if again.ApplicableDays[0] != "g1" {
		t.Fatalf("store leaked its slice")
	}
}

func TestSQLiteEvents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "db", "events.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	exerciseEventStore(t, s)

	// Reopen and read back.
	ctx := context.Background()
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	list2, err := s2.List(ctx)
	if err != nil || len(list2) != len(list) || list2[0].ID != list[0].ID {
		t.Fatalf("reopened list = %+v, %v", list2, err)
	}
}

func TestValueStores(t *testing.T) {
	t.Parallel()

	tt := NewTimetable()
	if _, ok := tt.Get(); ok {
		t.Fatalf("new timetable store should be unset")
	}

	var calls atomic.Int32
	tt.Subscribe(func() { calls.Add(1) })

	data := timetable.Data{Days: []timetable.DayType{{Name: "Gold 1", Slots: []timetable.Slot{
		timetable.NewSlot("$1", clock.MustParse("8:45"), clock.MustParse("9:35")),
	}}}}
	tt.Set(data)
	data.Days[0].Slots[0].Label = "mutated"

	got, ok := tt.Get()
	if !ok || got.Days[0].Slots[0].Label != "$1" {
		t.Fatalf("timetable store did not copy on Set: %+v", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("subscriber calls = %d", calls.Load())
	}

	ms := NewMapping()
	if m, ok := ms.Get(); ok || m != nil {
		t.Fatalf("new mapping store should be unset")
	}
	ms.Set(calendar.Mapping{"09-08-26": {Code: "g1"}})
	m, ok := ms.Get()
	if !ok || m["09-08-26"].Code != "g1" {
		t.Fatalf("mapping = %+v, %v", m, ok)
	}

	var _ TimetableStore = tt
	var _ MappingStore = ms
}
