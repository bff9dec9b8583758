// Package engine ties the stores to the pure schedule packages: it reads
// one consistent set of inputs, renders a date and runs conflict
// detection over it.
package engine

import (
	"context"
	"fmt"
	"time"

	"bellcal/internal/calendar"
	"bellcal/internal/conflict"
	"bellcal/internal/events"
	appLog "bellcal/internal/log"
	"bellcal/internal/render"
	"bellcal/internal/snapshot"
	"bellcal/internal/store"
	"bellcal/internal/timetable"
)

// Engine is safe for concurrent use as long as its stores are.
type Engine struct {
	Timetable store.TimetableStore
	Mapping   store.MappingStore
	Events    store.EventStore
	Options   render.Options
	Location  *time.Location
}

// New wires an engine over the given stores. A nil loc means time.Local.
func New(tt store.TimetableStore, m store.MappingStore, ev store.EventStore, opts render.Options, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{Timetable: tt, Mapping: m, Events: ev, Options: opts, Location: loc}
}

// Sources names the files LoadSources reads.
type Sources struct {
	DaysPath     string
	RosterPath   string
	CalendarPath string
	SecondLunch  timetable.Cohorts
}

// LoadSources parses the timetable and calendar files into the stores.
// An empty CalendarPath leaves the mapping unset.
func (e *Engine) LoadSources(src Sources) error {
	data, err := timetable.Load(src.DaysPath, src.RosterPath, src.SecondLunch)
	if err != nil {
		return fmt.Errorf("engine: load timetable: %w", err)
	}
	e.Timetable.Set(data)

	if src.CalendarPath == "" {
		appLog.Warn("no calendar mapping configured; days render as loading")
		return nil
	}
	m, err := calendar.LoadFile(src.CalendarPath)
	if err != nil {
		return fmt.Errorf("engine: load calendar: %w", err)
	}
	e.Mapping.Set(m)
	appLog.Info("sources loaded", "day_types", len(data.Days), "roster", len(data.Roster), "dates", len(m))
	return nil
}

// day is the render for one date plus the inputs it was made from.
type day struct {
	date   time.Time
	entry  calendar.Entry
	result render.Result
}

func (e *Engine) renderDay(date, now time.Time) day {
	date = date.In(e.Location)
	now = now.In(e.Location)

	data, ttOK := e.Timetable.Get()
	mapping, _ := e.Mapping.Get()
	resolver := calendar.NewResolver(mapping)

	entry, lookup := resolver.Resolve(date)
	req := render.Request{
		Code:          entry.Code,
		Date:          date,
		Now:           now,
		MappingLoaded: resolver.Loaded() && ttOK,
	}
	if !ttOK {
		// No timetable yet is the same as a calendar that is still loading.
		req.Code = ""
	}

	res := render.Render(data, req, e.Options)
	appLog.Debug("day rendered",
		"date", date.Format(snapshot.DateLayout),
		"code", entry.Code,
		"lookup", lookup.String(),
		"status", string(res.Status),
		"lines", len(res.Lines),
	)
	return day{date: date, entry: entry, result: res}
}

// Day renders date as seen at now and attaches the events and conflicts
// for that date.
func (e *Engine) Day(ctx context.Context, date, now time.Time) (snapshot.Snapshot, error) {
	d := e.renderDay(date, now)

	all, err := e.Events.List(ctx)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("engine: list events: %w", err)
	}

	todays := make([]events.Event, 0)
	for _, ev := range all {
		if ev.AppliesTo(d.entry.Code, d.date) {
			todays = append(todays, ev)
		}
	}

	// Days without a schedule have no lines, but events can still clash.
	reports := make([]conflict.Report, 0)
	reports = append(reports, conflict.DetectAll(all, d.result.Lines, d.entry.Code, d.date)...)

	return snapshot.Snapshot{
		Date:        d.date.Format(snapshot.DateLayout),
		GeneratedAt: now.In(e.Location),
		Code:        d.entry.Code,
		Note:        d.entry.Note,
		DayName:     d.result.DayName,
		Status:      d.result.Status,
		Message:     d.result.Message,
		Lines:       d.result.Lines,
		Events:      todays,
		Conflicts:   reports,
	}, nil
}

// Check reports the conflicts a draft event would have on date without
// saving it. The draft is treated as enabled and need not apply on date.
// A draft carrying a stored event's id is not checked against that event.
func (e *Engine) Check(ctx context.Context, draft events.Event, date, now time.Time) ([]conflict.Report, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	d := e.renderDay(date, now)

	others, err := e.Events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: list events: %w", err)
	}
	draft.Enabled = true
	out := conflict.Detect(draft, d.result.Lines, others, d.entry.Code, d.date)
	if out == nil {
		out = []conflict.Report{}
	}
	return out, nil
}

// Upcoming lists the dates in the next days on which event id applies.
func (e *Engine) Upcoming(ctx context.Context, id string, from time.Time, days int) ([]events.Occurrence, error) {
	ev, err := e.Events.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	mapping, _ := e.Mapping.Get()
	return events.Occurrences(ev, calendar.NewResolver(mapping), from.In(e.Location), days)
}

// Subscribe calls fn whenever any of the engine's stores changes. The
// returned func cancels all three subscriptions.
func (e *Engine) Subscribe(fn func()) func() {
	cancels := []func(){
		e.Timetable.Subscribe(fn),
		e.Mapping.Subscribe(fn),
		e.Events.Subscribe(fn),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
