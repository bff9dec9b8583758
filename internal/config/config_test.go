package config

import (
	"os"
	"path/filepath"
	"testing"

	"bellcal/internal/render"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "etc", "bellcal.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != defaultListen || cfg.OverrideProfile != "lunch" {
		t.Fatalf("Load() = %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm = %o, want 600", perm)
	}
}

func TestLoad_NormalizesPartialFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bellcal.yaml")
	content := `timetable: days.txt
override_profile: BRUNCH
log_level: loud
second_lunch:
  gold: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OverrideProfile != "brunch" || cfg.Profile().Name != render.BrunchProfile.Name {
		t.Fatalf("profile = %q", cfg.OverrideProfile)
	}
	if cfg.LogLevel != "info" || cfg.RefreshCron != defaultRefresh || cfg.Listen != defaultListen {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if c := cfg.Cohorts(); !c.Gold || c.Brown {
		t.Fatalf("Cohorts() = %+v", c)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cfg.Resolve(path)
	if cfg.TimetablePath != filepath.Join(filepath.Dir(path), "days.txt") {
		t.Fatalf("TimetablePath = %q", cfg.TimetablePath)
	}
}

func TestNormalize_UnknownProfile(t *testing.T) {
	t.Parallel()

	cfg := &Config{OverrideProfile: "dinner"}
	cfg.Normalize()
	if cfg.OverrideProfile != "lunch" {
		t.Fatalf("OverrideProfile = %q, want lunch", cfg.OverrideProfile)
	}

	none := &Config{OverrideProfile: "none"}
	none.Normalize()
	if none.Profile().Name != "none" {
		t.Fatalf("Profile() = %q, want none", none.Profile().Name)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	cfg.RefreshCron = "every minute"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() accepted bad timezone and cron")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bellcal.yaml")
	cfg := DefaultConfig()
	cfg.ShowClock = true
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "pw"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.ShowClock || got.BasicAuth == nil || got.BasicAuth.Username != "admin" {
		t.Fatalf("Load() = %+v", got)
	}
}
