package store

import (
	"context"
	"slices"
	"sync"

	"bellcal/internal/calendar"
	"bellcal/internal/events"
	"bellcal/internal/timetable"
)

// MemoryEvents is an in-process EventStore. List keeps insertion order.
type MemoryEvents struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]events.Event
	subs  subscribers
}

func NewMemoryEvents(initial ...events.Event) *MemoryEvents {
	m := &MemoryEvents{byID: make(map[string]events.Event)}
	for _, e := range initial {
		m.put(e)
	}
	return m
}

func (m *MemoryEvents) List(_ context.Context) ([]events.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]events.Event, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, cloneEvent(m.byID[id]))
	}
	return out, nil
}

func (m *MemoryEvents) Get(_ context.Context, id string) (events.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byID[id]
	if !ok {
		return events.Event{}, ErrNotFound
	}
	return cloneEvent(e), nil
}

func (m *MemoryEvents) Put(_ context.Context, e events.Event) error {
	m.mu.Lock()
	m.put(e)
	m.mu.Unlock()
	m.subs.notify()
	return nil
}

func (m *MemoryEvents) put(e events.Event) {
	if _, ok := m.byID[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.byID[e.ID] = cloneEvent(e)
}

func (m *MemoryEvents) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.byID[id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.byID, id)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })
	m.mu.Unlock()
	m.subs.notify()
	return nil
}

func (m *MemoryEvents) Subscribe(fn func()) func() {
	return m.subs.add(fn)
}

func cloneEvent(e events.Event) events.Event {
	e.ApplicableDays = slices.Clone(e.ApplicableDays)
	return e
}

// Value is an in-process holder for one snapshot value. It satisfies
// TimetableStore for timetable.Data and MappingStore for calendar.Mapping.
type Value[T any] struct {
	mu    sync.RWMutex
	v     T
	set   bool
	clone func(T) T
	subs  subscribers
}

func (s *Value[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.clone != nil {
		return s.clone(s.v), s.set
	}
	return s.v, s.set
}

func (s *Value[T]) Set(v T) {
	s.mu.Lock()
	if s.clone != nil {
		v = s.clone(v)
	}
	s.v = v
	s.set = true
	s.mu.Unlock()
	s.subs.notify()
}

func (s *Value[T]) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

// NewTimetable returns an empty TimetableStore that hands out deep copies.
func NewTimetable() *Value[timetable.Data] {
	return &Value[timetable.Data]{clone: timetable.Data.Clone}
}

// NewMapping returns an empty MappingStore.
func NewMapping() *Value[calendar.Mapping] {
	return &Value[calendar.Mapping]{clone: cloneMapping}
}

func cloneMapping(m calendar.Mapping) calendar.Mapping {
	if m == nil {
		return nil
	}
	out := make(calendar.Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
