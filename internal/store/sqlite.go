package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bellcal/internal/clock"
	"bellcal/internal/events"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLiteEvents is a durable EventStore. Change notifications only reach
// subscribers in the same process.
type SQLiteEvents struct {
	db   *sql.DB
	subs subscribers
}

var _ EventStore = (*SQLiteEvents)(nil)

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(path string) (*SQLiteEvents, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteEvents{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate %s: %w", path, err)
	}
	return s, nil
}

func (s *SQLiteEvents) Close() error {
	return s.db.Close()
}

func (s *SQLiteEvents) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			title TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			repeat TEXT NOT NULL,
			enabled INTEGER NOT NULL,
			applicable_days TEXT NOT NULL DEFAULT '[]'
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_seq ON events(seq);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const selectEvent = `SELECT id, title, start_time, end_time, location, note, color, repeat, enabled, applicable_days FROM events`

func (s *SQLiteEvents) List(ctx context.Context) ([]events.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvent+` ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteEvents) Get(ctx context.Context, id string) (events.Event, error) {
	row := s.db.QueryRowContext(ctx, selectEvent+` WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return events.Event{}, ErrNotFound
	}
	return e, err
}

// Put upserts e. A replaced event keeps its original list position.
func (s *SQLiteEvents) Put(ctx context.Context, e events.Event) error {
	days, err := json.Marshal(nonNil(e.ApplicableDays))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, seq, title, start_time, end_time, location, note, color, repeat, enabled, applicable_days)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM events), ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			location = excluded.location,
			note = excluded.note,
			color = excluded.color,
			repeat = excluded.repeat,
			enabled = excluded.enabled,
			applicable_days = excluded.applicable_days`,
		e.ID, e.Title, e.Start.String(), e.End.String(), e.Location, e.Note, e.Color,
		string(e.Repeat), boolToInt(e.Enabled), string(days),
	)
	if err != nil {
		return err
	}
	s.subs.notify()
	return nil
}

func (s *SQLiteEvents) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.subs.notify()
	return nil
}

func (s *SQLiteEvents) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (events.Event, error) {
	var (
		e          events.Event
		start, end string
		repeat     string
		enabled    int
		days       string
	)
	if err := row.Scan(&e.ID, &e.Title, &start, &end, &e.Location, &e.Note, &e.Color, &repeat, &enabled, &days); err != nil {
		return events.Event{}, err
	}

	var err error
	if e.Start, err = clock.Parse(start); err != nil {
		return events.Event{}, fmt.Errorf("store: event %s start: %w", e.ID, err)
	}
	if e.End, err = clock.Parse(end); err != nil {
		return events.Event{}, fmt.Errorf("store: event %s end: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(days), &e.ApplicableDays); err != nil {
		return events.Event{}, fmt.Errorf("store: event %s days: %w", e.ID, err)
	}
	e.Repeat = events.RepeatRule(repeat)
	e.Enabled = enabled != 0
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
