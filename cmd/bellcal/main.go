package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bellcal/internal/config"
	"bellcal/internal/engine"
	appLog "bellcal/internal/log"
	"bellcal/internal/refresh"
	"bellcal/internal/render"
	"bellcal/internal/store"
	"bellcal/internal/web"
)

const version = "0.1.0"

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bellcal",
		Short:         "School bell schedule renderer and event conflict checker",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/bellcal/config.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config if set)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDayCmd())
	rootCmd.AddCommand(newConflictsCmd())
	rootCmd.AddCommand(newEventsCmd())

	return rootCmd
}

// app is the loaded config plus the engine built from it.
type app struct {
	cfg   *config.Config
	eng   *engine.Engine
	close func()
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	cfg.Resolve(configPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		evStore store.EventStore
		closeFn = func() {}
	)
	if cfg.EventsDB == "" {
		appLog.Warn("events_db not set; events are kept in memory only")
		evStore = store.NewMemoryEvents()
	} else {
		db, err := store.OpenSQLite(cfg.EventsDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open events db: %w", err)
		}
		evStore = db
		closeFn = func() {
			if cerr := db.Close(); cerr != nil {
				appLog.Error("failed to close events db", cerr)
			}
		}
	}

	opts := render.Options{Profile: cfg.Profile(), ShowClock: cfg.ShowClock}
	eng := engine.New(store.NewTimetable(), store.NewMapping(), evStore, opts, cfg.Location())
	err = eng.LoadSources(engine.Sources{
		DaysPath:     cfg.TimetablePath,
		RosterPath:   cfg.RosterPath,
		CalendarPath: cfg.CalendarPath,
		SecondLunch:  cfg.Cohorts(),
	})
	if err != nil {
		closeFn()
		return nil, err
	}

	appLog.Debug("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"timetable", cfg.TimetablePath,
		"calendar", cfg.CalendarPath,
		"events_db", cfg.EventsDB,
		"profile", cfg.OverrideProfile,
		"refresh", cfg.RefreshCron,
	)
	return &app{cfg: cfg, eng: eng, close: closeFn}, nil
}

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the snapshot refresh job",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			// CLI --listen overrides config file listen if provided.
			if listen != "" {
				a.cfg.Listen = listen
			}
			return runServe(a)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func runServe(a *app) error {
	appLog.Info("bellcal starting", "version", version)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if a.cfg.SnapshotPath != "" {
		sched, err := refresh.New(a.eng, a.cfg.RefreshCron, a.cfg.SnapshotPath)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("initial snapshot: %w", err)
		}
		// Stop before the caller closes the events db.
		defer sched.Stop()
	}

	srv := web.NewServer(a.cfg, a.eng)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}

	appLog.Info("bellcal exiting")
	return nil
}
