// Package store owns the mutable state the engine reads: the user's
// events, the timetable and the calendar mapping. Callers take snapshots
// from a store and pass them to the pure engine packages.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bellcal/internal/calendar"
	"bellcal/internal/events"
	"bellcal/internal/timetable"
)

// ErrNotFound is returned for an unknown event id.
var ErrNotFound = errors.New("store: event not found")

// EventStore keeps events keyed by id. Put inserts or replaces; it never
// changes an event's id.
type EventStore interface {
	List(ctx context.Context) ([]events.Event, error)
	Get(ctx context.Context, id string) (events.Event, error)
	Put(ctx context.Context, e events.Event) error
	Delete(ctx context.Context, id string) error
	Subscribe(fn func()) (cancel func())
}

// TimetableStore holds the current timetable snapshot.
type TimetableStore interface {
	Get() (timetable.Data, bool)
	Set(timetable.Data)
	Subscribe(fn func()) (cancel func())
}

// MappingStore holds the calendar mapping. Get reports false until a
// mapping has been set, which the renderer shows as "loading".
type MappingStore interface {
	Get() (calendar.Mapping, bool)
	Set(calendar.Mapping)
	Subscribe(fn func()) (cancel func())
}

// Toggle flips an event's Enabled flag and stores it.
func Toggle(ctx context.Context, s EventStore, id string) (events.Event, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return events.Event{}, err
	}
	e.Enabled = !e.Enabled
	if err := s.Put(ctx, e); err != nil {
		return events.Event{}, err
	}
	return e, nil
}

// Edit replaces the editable fields of the stored event id, keeping its
// id, and validates the result before saving.
func Edit(ctx context.Context, s EventStore, id string, fn func(*events.Event)) (events.Event, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return events.Event{}, err
	}
	fn(&e)
	e.ID = id
	if err := e.Validate(); err != nil {
		return events.Event{}, err
	}
	if err := s.Put(ctx, e); err != nil {
		return events.Event{}, fmt.Errorf("store: save %s: %w", id, err)
	}
	return e, nil
}

// subscribers is the change-notification list shared by the stores.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

func (s *subscribers) add(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func())
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
