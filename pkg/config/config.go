// Package config handles loading and saving bdui configuration.
//
// Application config follows the XDG Base Directory specification:
//   - Config: ~/.config/bdui/config.yaml
//
// Per-project UI settings live next to the data in <beads-dir>/ui-settings.json.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
	"github.com/elmateo487/bdui-compact-kanban/pkg/watcher"
	"github.com/elmateo487/bdui-compact-kanban/pkg/writer"
)

const appName = "bdui"

// Config is the top-level configuration for bdui.
type Config struct {
	PollInterval  time.Duration `yaml:"poll_interval,omitempty"`
	Debounce      time.Duration `yaml:"debounce,omitempty"`
	ToastDuration time.Duration `yaml:"toast_duration,omitempty"`
	UndoCapacity  int           `yaml:"undo_capacity,omitempty"`
	// PageSize fixes the cards per column page; 0 derives it from the
	// terminal height.
	PageSize      int          `yaml:"page_size,omitempty"`
	DefaultFilter state.Filter `yaml:"default_filter,omitempty"`
	Theme         string       `yaml:"theme,omitempty"`
	Notifications bool         `yaml:"notifications,omitempty"`
	BDCommand     string       `yaml:"bd_command,omitempty"`
	// Hints enables filesystem notifications on top of polling.
	Hints *bool `yaml:"hints,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:  watcher.DefaultPollInterval,
		Debounce:      watcher.DefaultDebounceDuration,
		ToastDuration: state.DefaultToastDuration,
		UndoCapacity:  state.DefaultUndoCapacity,
		Theme:         DefaultTheme,
		BDCommand:     writer.DefaultCommand,
	}
}

// HintsEnabled reports whether filesystem hints are on. They default to on.
func (c Config) HintsEnabled() bool {
	return c.Hints == nil || *c.Hints
}

// Validate rejects values that cannot work.
func (c Config) Validate() error {
	var problems []string
	if c.PollInterval < 0 {
		problems = append(problems, "poll_interval must not be negative")
	}
	if c.Debounce < 0 {
		problems = append(problems, "debounce must not be negative")
	}
	if c.ToastDuration < 0 {
		problems = append(problems, "toast_duration must not be negative")
	}
	if c.UndoCapacity < 0 {
		problems = append(problems, "undo_capacity must not be negative")
	}
	if c.PageSize < 0 {
		problems = append(problems, "page_size must not be negative")
	}
	if p := c.DefaultFilter.Priority; p != nil && (*p < 0 || *p > 4) {
		problems = append(problems, fmt.Sprintf("default_filter.priority %d out of range [0,4]", *p))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ConfigDir returns the XDG config directory for bdui.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Fields missing from the file
// keep their defaults. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}
	if cfg.BDCommand == "" {
		cfg.BDCommand = writer.DefaultCommand
	}
	cfg.BDCommand = expandHome(cfg.BDCommand)
	return cfg, nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
