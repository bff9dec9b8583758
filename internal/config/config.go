package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	appLog "bellcal/internal/log"
	"bellcal/internal/render"
	"bellcal/internal/timetable"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// SecondLunchConfig carries the per-cohort second-lunch flags.
type SecondLunchConfig struct {
	Gold  bool `yaml:"gold" json:"gold"`
	Brown bool `yaml:"brown" json:"brown"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone dates and "now" are evaluated in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// TimetablePath is the day-type definition file.
	TimetablePath string `yaml:"timetable" json:"timetable"`

	// RosterPath is the class roster referenced by $N slots. Optional.
	RosterPath string `yaml:"roster" json:"roster"`

	// CalendarPath maps dates to day codes (.csv or .ics).
	CalendarPath string `yaml:"calendar" json:"calendar"`

	// EventsDB is the SQLite file holding personal events. Empty keeps
	// events in memory only.
	EventsDB string `yaml:"events_db" json:"events_db"`

	// OverrideProfile selects the second-lunch rule set:
	//   - "lunch" (default)
	//   - "brunch"
	//   - "none"
	OverrideProfile string `yaml:"override_profile" json:"override_profile"`

	SecondLunch SecondLunchConfig `yaml:"second_lunch" json:"second_lunch"`

	// ShowClock prepends the "It is now" banner to today's schedule.
	ShowClock bool `yaml:"show_clock" json:"show_clock"`

	// RefreshCron is a cron-style schedule string (e.g. "* * * * *") for
	// rewriting the snapshot file.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// SnapshotPath is where the refresh job writes today's snapshot.
	// Empty disables the refresh job.
	SnapshotPath string `yaml:"snapshot" json:"snapshot"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen  = "127.0.0.1:8080"
	defaultProfile = "lunch"
	defaultRefresh = "* * * * *"
	defaultLevel   = "info"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		Timezone:        "Local",
		TimetablePath:   "schedule.txt",
		RosterPath:      "classes.txt",
		CalendarPath:    "calendar.csv",
		EventsDB:        "events.db",
		OverrideProfile: defaultProfile,
		RefreshCron:     defaultRefresh,
		LogLevel:        defaultLevel,
		BasicAuth:       nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}

	c.OverrideProfile = strings.ToLower(strings.TrimSpace(c.OverrideProfile))
	if _, ok := render.ProfileByName(c.OverrideProfile); !ok || c.OverrideProfile == "" {
		if c.OverrideProfile != "" {
			appLog.Warn("unknown override profile; using default", "profile", c.OverrideProfile)
		}
		c.OverrideProfile = defaultProfile
	}

	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = defaultLevel
	}
}

// Validate reports settings that cannot be defaulted away.
func (c *Config) Validate() error {
	var errs []error
	if c.TimetablePath == "" {
		errs = append(errs, errors.New("timetable path is empty"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("refresh %q: %w", c.RefreshCron, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Profile returns the configured override profile.
func (c *Config) Profile() render.Profile {
	p, ok := render.ProfileByName(c.OverrideProfile)
	if !ok {
		return render.LunchProfile
	}
	return p
}

// Cohorts converts the second-lunch flags for the timetable.
func (c *Config) Cohorts() timetable.Cohorts {
	return timetable.Cohorts{Gold: c.SecondLunch.Gold, Brown: c.SecondLunch.Brown}
}

// Resolve makes relative data paths relative to the config file's
// directory.
func (c *Config) Resolve(configPath string) {
	base := filepath.Dir(configPath)
	for _, p := range []*string{&c.TimetablePath, &c.RosterPath, &c.CalendarPath, &c.EventsDB, &c.SnapshotPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".bellcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
