// Package snapshot defines the rendered-day document shared by the HTTP
// API, the CLI and the periodic refresh file.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bellcal/internal/conflict"
	"bellcal/internal/events"
	"bellcal/internal/render"
)

// DateLayout is the date format used in snapshots and query strings.
const DateLayout = "2006-01-02"

// Snapshot is everything a display needs for one date.
type Snapshot struct {
	Date        string            `json:"date"`
	GeneratedAt time.Time         `json:"generated_at"`
	Code        string            `json:"code"`
	Note        string            `json:"note,omitempty"`
	DayName     string            `json:"day_name,omitempty"`
	Status      render.Status     `json:"status"`
	Message     string            `json:"message,omitempty"`
	Lines       []render.Line     `json:"lines"`
	Events      []events.Event    `json:"events"`
	Conflicts   []conflict.Report `json:"conflicts"`
}

// Write saves snap as indented JSON at path, replacing any previous file
// in one rename.
func Write(path string, snap Snapshot) error {
	content, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	content = append(content, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	return writeFileAtomically(path, content)
}

// Read loads a snapshot previously saved by Write.
func Read(path string) (Snapshot, error) {
	var snap Snapshot
	content, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(content, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}

func writeFileAtomically(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
