package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// WorkingHours bounds the part of the day the planner may fill.
type WorkingHours struct {
	StartTime string `mapstructure:"start_time" yaml:"start_time"`
	EndTime   string `mapstructure:"end_time" yaml:"end_time"`
}

// Preferences are the user's planning settings.
type Preferences struct {
	WorkingHours WorkingHours `mapstructure:"working_hours" yaml:"working_hours"`

	// BufferTime is the idle gap, in minutes, kept before every planned task.
	BufferTime int `mapstructure:"buffer_time" yaml:"buffer_time"`

	// DefaultDuration is used for tasks without a duration, in minutes.
	DefaultDuration int `mapstructure:"default_duration" yaml:"default_duration"`
}

// Validate checks that working hours are well-formed HH:MM values with the
// start before the end and that the buffer is not negative.
func (p Preferences) Validate() error {
	fe := &fieldErrors{entity: "preferences"}

	sh, sm, startErr := ParseClock(p.WorkingHours.StartTime)
	if startErr != nil {
		fe.add("working_hours.start_time", "%v", startErr)
	}
	eh, em, endErr := ParseClock(p.WorkingHours.EndTime)
	if endErr != nil {
		fe.add("working_hours.end_time", "%v", endErr)
	}
	if startErr == nil && endErr == nil && sh*60+sm >= eh*60+em {
		fe.add("working_hours", "start %s must be before end %s",
			p.WorkingHours.StartTime, p.WorkingHours.EndTime)
	}
	if p.BufferTime < 0 {
		fe.add("buffer_time", "must not be negative, got %d", p.BufferTime)
	}
	if p.DefaultDuration < 0 {
		fe.add("default_duration", "must not be negative, got %d", p.DefaultDuration)
	}
	return fe.err()
}

// ParseClock parses an "HH:MM" wall-clock time.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AutoPlanConfig controls the daily background planning job.
type AutoPlanConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	At      string `mapstructure:"at" yaml:"at"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database    DatabaseConfig `mapstructure:"database" yaml:"database"`
	Preferences Preferences    `mapstructure:"preferences" yaml:"preferences"`
	Log         LogConfig      `mapstructure:"log" yaml:"log"`
	AutoPlan    AutoPlanConfig `mapstructure:"autoplan" yaml:"autoplan"`
}

// envPrefix namespaces environment overrides, e.g. DAYPLANNER_LOG_LEVEL.
const envPrefix = "DAYPLANNER"

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/dayplanner/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "dayplanner", "config.yaml")
}

// DefaultDatabasePath returns ~/.local/share/dayplanner/dayplanner.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "dayplanner.db")
	}
	return filepath.Join(home, ".local", "share", "dayplanner", "dayplanner.db")
}

// DefaultPreferences returns the planning settings used when none are
// configured.
func DefaultPreferences() Preferences {
	return Preferences{
		WorkingHours: WorkingHours{
			StartTime: "09:00",
			EndTime:   "17:00",
		},
		BufferTime:      15,
		DefaultDuration: DefaultDuration,
	}
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database:    DatabaseConfig{Path: DefaultDatabasePath()},
		Preferences: DefaultPreferences(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		AutoPlan: AutoPlanConfig{
			Enabled: false,
			At:      "08:30",
		},
	}
}

// setDefaults registers every key with viper so that missing keys resolve
// to defaults and environment overrides are picked up on Unmarshal.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("preferences.working_hours.start_time", d.Preferences.WorkingHours.StartTime)
	v.SetDefault("preferences.working_hours.end_time", d.Preferences.WorkingHours.EndTime)
	v.SetDefault("preferences.buffer_time", d.Preferences.BufferTime)
	v.SetDefault("preferences.default_duration", d.Preferences.DefaultDuration)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("autoplan.enabled", d.AutoPlan.Enabled)
	v.SetDefault("autoplan.at", d.AutoPlan.At)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) are
// returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Preferences.DefaultDuration == 0 {
		cfg.Preferences.DefaultDuration = DefaultDuration
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database.path", cfg.Database.Path)
	v.Set("preferences.working_hours.start_time", cfg.Preferences.WorkingHours.StartTime)
	v.Set("preferences.working_hours.end_time", cfg.Preferences.WorkingHours.EndTime)
	v.Set("preferences.buffer_time", cfg.Preferences.BufferTime)
	v.Set("preferences.default_duration", cfg.Preferences.DefaultDuration)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("autoplan.enabled", cfg.AutoPlan.Enabled)
	v.Set("autoplan.at", cfg.AutoPlan.At)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
