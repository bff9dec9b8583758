// Package refresh keeps a snapshot file of today's schedule current. It
// rewrites the file on a cron cadence and whenever a store changes.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bellcal/internal/engine"
	appLog "bellcal/internal/log"
	"bellcal/internal/snapshot"
)

// Scheduler owns the cron runner and the snapshot path.
type Scheduler struct {
	eng  *engine.Engine
	path string
	now  func() time.Time

	cron   *cron.Cron
	mu     sync.Mutex
	last   snapshot.Snapshot
	cancel func()
}

// New prepares a scheduler that writes to path on expr, a standard
// five-field cron expression.
func New(eng *engine.Engine, expr, path string) (*Scheduler, error) {
	s := &Scheduler{
		eng:  eng,
		path: path,
		now:  time.Now,
		cron: cron.New(cron.WithLocation(eng.Location)),
	}
	if _, err := s.cron.AddFunc(expr, s.tick); err != nil {
		return nil, fmt.Errorf("refresh: bad schedule %q: %w", expr, err)
	}
	return s, nil
}

// Start writes one snapshot immediately, then runs on schedule until ctx
// is done. It returns after the first write.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Run(ctx); err != nil {
		return err
	}
	s.cancel = s.eng.Subscribe(s.tick)
	s.cron.Start()
	appLog.Info("refresh scheduler started", "path", s.path)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the cron runner and drops the store subscriptions. It waits
// for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
}

// Run recomputes today's snapshot and writes it.
func (s *Scheduler) Run(ctx context.Context) error {
	now := s.now()
	snap, err := s.eng.Day(ctx, now, now)
	if err != nil {
		return err
	}
	if err := snapshot.Write(s.path, snap); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()

	appLog.Debug("snapshot written",
		"path", s.path,
		"status", string(snap.Status),
		"lines", len(snap.Lines),
		"conflicts", len(snap.Conflicts),
	)
	return nil
}

// Last returns the most recently written snapshot.
func (s *Scheduler) Last() snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) tick() {
	if err := s.Run(context.Background()); err != nil {
		appLog.Error("snapshot refresh failed", err, "path", s.path)
	}
}
