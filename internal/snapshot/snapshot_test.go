package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"bellcal/internal/conflict"
	"bellcal/internal/render"
)

func TestWriteRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "today.json")
	snap := Snapshot{
		Date:        "2026-09-08",
		GeneratedAt: time.Date(2026, 9, 8, 9, 0, 0, 0, time.UTC),
		Code:        "g1",
		Status:      render.StatusOK,
		Lines:       []render.Line{render.TextLine("Assembly")},
		Conflicts:   []conflict.Report{{Severity: conflict.Major, Source: conflict.SourceSchedule, Overlap: 900}},
	}
	if err := Write(path, snap); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Code != "g1" || got.Status != render.StatusOK || len(got.Lines) != 1 || got.Lines[0].Text != "Assembly" {
		t.Fatalf("Read() = %+v", got)
	}
	if len(got.Conflicts) != 1 || got.Conflicts[0].Severity != conflict.Major {
		t.Fatalf("conflicts = %+v", got.Conflicts)
	}
	if !got.GeneratedAt.Equal(snap.GeneratedAt) {
		t.Fatalf("GeneratedAt = %v, want %v", got.GeneratedAt, snap.GeneratedAt)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWrite_Replaces(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "today.json")
	if err := Write(path, Snapshot{Code: "g1"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Write(path, Snapshot{Code: "b2"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil || got.Code != "b2" {
		t.Fatalf("Read() = %+v, %v", got, err)
	}
}
