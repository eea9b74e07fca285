package config

import (
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/elmateo487/bdui-compact-kanban/pkg/debug"
)

// SettingsFile is the per-project UI settings file inside the beads
// directory.
const SettingsFile = "ui-settings.json"

// DefaultTheme is used when neither config nor settings name one.
const DefaultTheme = "dark"

// UISettings are toggles remembered per project between runs.
type UISettings struct {
	ShowBlockedColumn bool   `json:"showBlockedColumn"`
	ShowRecentColumn  bool   `json:"showRecentColumn"`
	ShowDetails       bool   `json:"showDetails"`
	CurrentTheme      string `json:"currentTheme"`
}

// DefaultUISettings returns the settings used for a project without a file.
func DefaultUISettings() UISettings {
	return UISettings{
		ShowBlockedColumn: true,
		ShowRecentColumn:  true,
		ShowDetails:       false,
		CurrentTheme:      DefaultTheme,
	}
}

// SettingsPath returns the settings file for beadsDir, or "" without one.
func SettingsPath(beadsDir string) string {
	if beadsDir == "" {
		return ""
	}
	return filepath.Join(beadsDir, SettingsFile)
}

// LoadUISettings reads the settings for beadsDir merged over the defaults.
// Keys missing from the file keep their default; an unreadable or corrupt
// file yields the defaults.
func LoadUISettings(beadsDir string) UISettings {
	s := DefaultUISettings()
	path := SettingsPath(beadsDir)
	if path == "" {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	merged := s
	if err := json.Unmarshal(data, &merged); err != nil {
		debug.Log("config: ignoring corrupt %s: %v", path, err)
		return s
	}
	if merged.CurrentTheme == "" {
		merged.CurrentTheme = DefaultTheme
	}
	return merged
}

// SaveUISettings writes s for beadsDir. Settings are not critical, so
// failures are logged and otherwise ignored.
func SaveUISettings(beadsDir string, s UISettings) {
	path := SettingsPath(beadsDir)
	if path == "" {
		return
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		debug.Log("config: encoding settings: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		debug.Log("config: writing %s: %v", path, err)
	}
}

// UpdateUISettings loads the current settings, applies fn and saves the
// result.
func UpdateUISettings(beadsDir string, fn func(*UISettings)) UISettings {
	s := LoadUISettings(beadsDir)
	fn(&s)
	SaveUISettings(beadsDir, s)
	return s
}
