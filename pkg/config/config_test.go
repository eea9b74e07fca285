package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("expected poll interval 500ms, got %v", cfg.PollInterval)
	}
	if cfg.Debounce != 50*time.Millisecond {
		t.Errorf("expected debounce 50ms, got %v", cfg.Debounce)
	}
	if cfg.ToastDuration != 3*time.Second {
		t.Errorf("expected toast duration 3s, got %v", cfg.ToastDuration)
	}
	if cfg.UndoCapacity != 10 {
		t.Errorf("expected undo capacity 10, got %d", cfg.UndoCapacity)
	}
	if cfg.BDCommand != "bd" {
		t.Errorf("expected bd command 'bd', got %q", cfg.BDCommand)
	}
	if !cfg.DefaultFilter.IsZero() {
		t.Errorf("expected empty default filter, got %+v", cfg.DefaultFilter)
	}
	if !cfg.HintsEnabled() {
		t.Error("expected hints enabled by default")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.PollInterval != DefaultConfig().PollInterval {
		t.Errorf("expected default config, got poll interval %v", cfg.PollInterval)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
poll_interval: 1s
debounce: 100ms
page_size: 7
theme: ocean
notifications: true
hints: false
bd_command: ~/bin/bd
default_filter:
  assignee: alice
  labels: [ui, backend]
  status: in_progress
  priority: 1
  type: bug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.PollInterval != time.Second || cfg.Debounce != 100*time.Millisecond {
		t.Errorf("durations = %v / %v", cfg.PollInterval, cfg.Debounce)
	}
	if cfg.PageSize != 7 || cfg.Theme != "ocean" || !cfg.Notifications {
		t.Errorf("ui fields = %+v", cfg)
	}
	if cfg.HintsEnabled() {
		t.Error("expected hints disabled")
	}
	// Unset fields keep their defaults.
	if cfg.ToastDuration != 3*time.Second || cfg.UndoCapacity != 10 {
		t.Errorf("defaults lost: toast=%v undo=%d", cfg.ToastDuration, cfg.UndoCapacity)
	}

	home, _ := os.UserHomeDir()
	if cfg.BDCommand != filepath.Join(home, "bin/bd") {
		t.Errorf("expected expanded bd command, got %q", cfg.BDCommand)
	}

	want := state.Filter{
		Assignee: "alice",
		Labels:   []string{"ui", "backend"},
		Status:   model.StatusInProgress,
		Priority: state.Priority(1),
		Type:     model.TypeBug,
	}
	if !cfg.DefaultFilter.Equal(want) {
		t.Errorf("default filter = %+v, want %+v", cfg.DefaultFilter, want)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("poll_interval: [not"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg.PollInterval != DefaultConfig().PollInterval {
		t.Error("expected defaults on error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
		want string
	}{
		{"negative poll", func(c *Config) { c.PollInterval = -time.Second }, "poll_interval"},
		{"negative page", func(c *Config) { c.PageSize = -1 }, "page_size"},
		{"bad priority", func(c *Config) { c.DefaultFilter.Priority = state.Priority(9) }, "priority 9"},
		{"ok", func(*Config) {}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.PollInterval = 2 * time.Second
	cfg.DefaultFilter = state.Filter{Type: model.TypeTask}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.PollInterval != 2*time.Second || !got.DefaultFilter.Equal(cfg.DefaultFilter) {
		t.Errorf("round trip = %+v", got)
	}
}

func TestConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := ConfigPath(); got != "/tmp/xdg/bdui/config.yaml" {
		t.Errorf("config path = %q", got)
	}
}

func TestUISettings_DefaultsWithoutFile(t *testing.T) {
	s := LoadUISettings(t.TempDir())
	if s != DefaultUISettings() {
		t.Errorf("settings = %+v", s)
	}
	if !s.ShowBlockedColumn || !s.ShowRecentColumn || s.ShowDetails || s.CurrentTheme != "dark" {
		t.Errorf("unexpected defaults %+v", s)
	}
	if LoadUISettings("") != DefaultUISettings() {
		t.Error("empty beads dir should yield defaults")
	}
}

func TestUISettings_MergeWithDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(SettingsPath(dir), []byte(`{"showBlockedColumn": false}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := LoadUISettings(dir)
	if s.ShowBlockedColumn {
		t.Error("saved value ignored")
	}
	if !s.ShowRecentColumn || s.CurrentTheme != "dark" {
		t.Errorf("missing keys not defaulted: %+v", s)
	}
}

func TestUISettings_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(SettingsPath(dir), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if s := LoadUISettings(dir); s != DefaultUISettings() {
		t.Errorf("corrupt file produced %+v", s)
	}
}

func TestUISettings_UpdatePersists(t *testing.T) {
	dir := t.TempDir()
	UpdateUISettings(dir, func(s *UISettings) { s.CurrentTheme = "light" })
	UpdateUISettings(dir, func(s *UISettings) { s.ShowDetails = true })

	s := LoadUISettings(dir)
	if s.CurrentTheme != "light" || !s.ShowDetails || !s.ShowBlockedColumn {
		t.Errorf("settings = %+v", s)
	}
	data, err := os.ReadFile(SettingsPath(dir))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"currentTheme": "light"`) {
		t.Errorf("file = %s", data)
	}
}

func TestUISettings_SaveFailureIsSilent(t *testing.T) {
	SaveUISettings(filepath.Join(t.TempDir(), "missing", "dir"), DefaultUISettings())
}
