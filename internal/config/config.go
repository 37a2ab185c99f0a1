// Package config loads the user's YAML settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DeusData/antigravity-autopilot/internal/fragment"
	"github.com/DeusData/antigravity-autopilot/internal/logging"
	"github.com/DeusData/antigravity-autopilot/internal/shape"
)

// AppName names the config and data directories.
const AppName = "antigravity-autopilot"

// Config holds user-overridable settings. Unset pointer fields fall back to
// the defaults returned by the Effective* accessors.
type Config struct {
	// InstallPath skips installation discovery.
	InstallPath string `yaml:"install_path"`
	// Kinds lists enabled fragment kinds. Empty means all.
	Kinds []string `yaml:"kinds"`
	// Isolated runs the engine in a worker subprocess.
	Isolated *bool `yaml:"isolated"`

	ContextRadius *int `yaml:"context_radius"`
	AliasRadius   *int `yaml:"alias_radius"`

	History HistoryConfig `yaml:"history"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`
}

// HistoryConfig controls the SQLite run history.
type HistoryConfig struct {
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled"`
	// Path defaults to history.db under the user data directory.
	Path string `yaml:"path"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Interval     *time.Duration `yaml:"interval"`
	MaxInterval  *time.Duration `yaml:"max_interval"`
	ApplyOnStart *bool          `yaml:"apply_on_start"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// DefaultPath returns $XDG_CONFIG_HOME/antigravity-autopilot/config.yaml,
// falling back to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName, "config.yaml")
}

// Load reads the config file at path (DefaultPath when empty). A missing file
// yields defaults; an invalid one yields defaults and a warning.
func Load(path string) *Config {
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("config.read.err", "path", path, "err", err)
		}
		return DefaultConfig()
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("config.parse.err", "path", path, "err", err)
		return DefaultConfig()
	}
	if _, err := cfg.EffectiveKinds(); err != nil {
		slog.Warn("config.kinds.err", "path", path, "err", err)
		cfg.Kinds = nil
	}
	return cfg
}

// EffectiveKinds parses Kinds. Nil means every kind.
func (c *Config) EffectiveKinds() ([]shape.Kind, error) {
	if len(c.Kinds) == 0 {
		return nil, nil
	}
	out := make([]shape.Kind, 0, len(c.Kinds))
	for _, s := range c.Kinds {
		k, err := shape.ParseKind(s)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// EffectiveIsolated returns the configured isolation setting, or false.
func (c *Config) EffectiveIsolated() bool {
	if c.Isolated != nil {
		return *c.Isolated
	}
	return false
}

// EffectiveContextRadius returns the backward context window radius.
func (c *Config) EffectiveContextRadius() int {
	if c.ContextRadius != nil && *c.ContextRadius > 0 {
		return *c.ContextRadius
	}
	return fragment.DefaultContextRadius
}

// EffectiveAliasRadius returns the alias scoring window radius.
func (c *Config) EffectiveAliasRadius() int {
	if c.AliasRadius != nil && *c.AliasRadius > 0 {
		return *c.AliasRadius
	}
	return fragment.DefaultAliasRadius
}

// EffectiveHistoryEnabled returns whether runs are recorded, default true.
func (c *Config) EffectiveHistoryEnabled() bool {
	if c.History.Enabled != nil {
		return *c.History.Enabled
	}
	return true
}

// EffectiveHistoryPath returns the history database path.
func (c *Config) EffectiveHistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home dir: %w", err)
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, AppName, "history.db"), nil
}

// EffectiveWatchInterval returns the base polling interval, default 1s.
func (c *Config) EffectiveWatchInterval() time.Duration {
	if c.Watch.Interval != nil && *c.Watch.Interval > 0 {
		return *c.Watch.Interval
	}
	return time.Second
}

// EffectiveWatchMaxInterval returns the polling ceiling, default 60s.
func (c *Config) EffectiveWatchMaxInterval() time.Duration {
	if c.Watch.MaxInterval != nil && *c.Watch.MaxInterval > 0 {
		return *c.Watch.MaxInterval
	}
	return time.Minute
}

// EffectiveApplyOnStart returns whether watch applies once at start, default true.
func (c *Config) EffectiveApplyOnStart() bool {
	if c.Watch.ApplyOnStart != nil {
		return *c.Watch.ApplyOnStart
	}
	return true
}

// EffectiveLogLevel maps Log.Level to a slog level, default info.
func (c *Config) EffectiveLogLevel() slog.Level {
	return logging.ParseLevel(c.Log.Level, slog.LevelInfo)
}

// EffectiveLogFormat returns "text" or "json", default text.
func (c *Config) EffectiveLogFormat() string {
	if c.Log.Format == "json" {
		return "json"
	}
	return "text"
}
