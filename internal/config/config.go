// Package config loads the application-level YAML configuration: file
// locations and timing knobs. Runtime state (picked names, filters, window
// geometry) lives in internal/state, not here.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/namepick/internal/foundation"
)

// Config is the parsed application configuration.
type Config struct {
	// DataDir is where runtime state, history and backups live.
	DataDir string `yaml:"data_dir,omitempty"`

	Roster  RosterConfig  `yaml:"roster,omitempty"`
	Save    SaveConfig    `yaml:"save,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Backup  BackupConfig  `yaml:"backup,omitempty"`
	Speech  SpeechConfig  `yaml:"speech,omitempty"`
}

// RosterConfig locates the population files.
type RosterConfig struct {
	File       string `yaml:"file,omitempty"`        // full roster, one name per line
	FemaleFile string `yaml:"female_file,omitempty"` // female subset
}

// SaveConfig tunes the save coalescer. Durations are strings ("300ms", "1s")
// parsed on access; invalid or empty values fall back to defaults.
type SaveConfig struct {
	QuietWindow string `yaml:"quiet_window,omitempty"` // debounce delay (default 300ms)
	MinInterval string `yaml:"min_interval,omitempty"` // min spacing between writes (default 1s)
	RetryDelay  string `yaml:"retry_delay,omitempty"`  // delay before retrying a failed write (default 1s)
}

// MetricsConfig controls the Prometheus endpoint in daemon mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty"` // default 127.0.0.1:9327
}

// BackupConfig controls the scheduled state backup job in daemon mode.
type BackupConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	Interval string `yaml:"interval,omitempty"` // default 24h
}

// SpeechConfig names the local text-to-speech tool. Leaving the binary empty
// disables announcements regardless of the persisted speak_name flag.
type SpeechConfig struct {
	Binary string `yaml:"binary,omitempty"` // e.g. espeak or say
}

// Defaults for the timing knobs.
const (
	DefaultQuietWindow    = 300 * time.Millisecond
	DefaultMinInterval    = time.Second
	DefaultRetryDelay     = time.Second
	DefaultBackupInterval = 24 * time.Hour
	DefaultMetricsListen  = "127.0.0.1:9327"
)

// Load reads and normalizes a config file. A missing file yields the
// default configuration rather than an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, foundation.ConfigurationError("read config file").
			WithCause(err).
			WithContext(foundation.Fields{"path": path}).
			Build()
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, foundation.ConfigurationError("parse config file").
			WithCause(err).
			WithContext(foundation.Fields{"path": path}).
			Build()
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "namepick-data"
	}
	if c.Roster.File == "" {
		c.Roster.File = filepath.Join(c.DataDir, "names.txt")
	}
	if c.Roster.FemaleFile == "" {
		c.Roster.FemaleFile = filepath.Join(c.DataDir, "g_names.txt")
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
}

func (c *Config) validate() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"save.quiet_window", c.Save.QuietWindow},
		{"save.min_interval", c.Save.MinInterval},
		{"save.retry_delay", c.Save.RetryDelay},
		{"backup.interval", c.Backup.Interval},
	} {
		if field.value == "" {
			continue
		}
		if _, err := time.ParseDuration(field.value); err != nil {
			return foundation.ConfigurationError("invalid duration").
				WithCause(err).
				WithContext(foundation.Fields{"field": field.name, "value": field.value}).
				Build()
		}
	}
	return nil
}

// StatePath returns the runtime state file location.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "config.json")
}

// HistoryPath returns the pick history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// BackupDir returns where roster and state backups are written.
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}

// QuietWindow returns the parsed debounce delay.
func (c *Config) QuietWindow() time.Duration {
	return parseDuration(c.Save.QuietWindow, DefaultQuietWindow)
}

// MinInterval returns the parsed minimum inter-write spacing.
func (c *Config) MinInterval() time.Duration {
	return parseDuration(c.Save.MinInterval, DefaultMinInterval)
}

// RetryDelay returns the parsed failed-write retry delay.
func (c *Config) RetryDelay() time.Duration {
	return parseDuration(c.Save.RetryDelay, DefaultRetryDelay)
}

// BackupInterval returns the parsed scheduled-backup spacing.
func (c *Config) BackupInterval() time.Duration {
	return parseDuration(c.Backup.Interval, DefaultBackupInterval)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
