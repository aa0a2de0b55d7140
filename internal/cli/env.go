package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/dayplanner/internal/autoplan"
	"github.com/nhle/dayplanner/internal/logging"
	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/planner"
	"github.com/nhle/dayplanner/internal/recurrence"
	"github.com/nhle/dayplanner/internal/store"
	"github.com/nhle/dayplanner/internal/tasks"
)

// env carries the flags and the services every command shares. It is
// filled by open before a command runs.
type env struct {
	configPath string
	dbPath     string
	logLevel   string

	cfg     *model.AppConfig
	log     *slog.Logger
	store   *store.SQLiteStore
	engine  *recurrence.Engine
	planner *planner.Planner
	tasks   *tasks.Service
}

// open loads config and wires the store and services.
func (e *env) open(cmd *cobra.Command, _ []string) error {
	cfg, err := model.LoadConfig(e.configPath)
	if err != nil {
		return err
	}
	if e.dbPath != "" {
		cfg.Database.Path = e.dbPath
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
	}
	e.cfg = cfg
	e.log = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	e.store = s
	e.engine = recurrence.NewEngine(s, e.log)
	e.planner = planner.New(s, e.log)
	e.tasks = tasks.NewService(s, e.engine, e.log)

	e.log.Debug("environment ready", "config", e.configPath, "database", cfg.Database.Path, "command", cmd.Name())
	return nil
}

func (e *env) close() {
	if e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		e.log.Warn("closing database", "error", err)
	}
	e.store = nil
}

// newRunner builds the auto-plan runner from config.
func (e *env) newRunner() (*autoplan.Runner, error) {
	return autoplan.New(e.planner, e.store, e.cfg.Preferences, e.cfg.AutoPlan.At, e.log)
}

// savePreferences writes prefs back to the config file.
func (e *env) savePreferences(prefs model.Preferences) error {
	e.cfg.Preferences = prefs
	return model.SaveConfig(e.configPath, e.cfg)
}
