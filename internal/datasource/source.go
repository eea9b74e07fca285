// Package datasource locates a project's beads data and reads it into raw
// record sets. It prefers the SQLite database maintained by bd and falls
// back to the JSONL export when no database exists.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BeadsDirEnvVar overrides beads directory discovery.
const BeadsDirEnvVar = "BEADS_DIR"

const (
	beadsDirName = ".beads"
	dbFileName   = "beads.db"
	walSuffix    = "-wal"
)

// PreferredJSONLNames defines the lookup order for the JSONL export.
var PreferredJSONLNames = []string{"issues.jsonl", "beads.jsonl"}

var (
	// ErrStorageUnavailable means the snapshot is missing or unreadable.
	// Callers show a blocking error and must not render a partial graph.
	ErrStorageUnavailable = errors.New("beads storage unavailable")
	// ErrNoBeadsDir means no .beads directory was found up to the root.
	ErrNoBeadsDir = errors.New("no .beads directory found")
)

// SourceType identifies the kind of snapshot.
type SourceType string

const (
	SourceTypeSQLite SourceType = "sqlite"
	SourceTypeJSONL  SourceType = "jsonl"
)

// DataSource is one readable snapshot of a beads project.
type DataSource struct {
	Type     SourceType `json:"type"`
	Path     string     `json:"path"`
	BeadsDir string     `json:"beads_dir"`
	ModTime  time.Time  `json:"mod_time"`
	Size     int64      `json:"size"`
}

func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, mod=%s)", s.Path, s.Type, s.ModTime.Format(time.RFC3339))
}

// SignalPaths returns the files whose stat changes signal an external write.
// For SQLite the WAL grows on every write and the main file is touched on
// checkpoint, so both are watched.
func (s DataSource) SignalPaths() []string {
	switch s.Type {
	case SourceTypeSQLite:
		return []string{s.Path + walSuffix, s.Path}
	default:
		return []string{s.Path}
	}
}

// FindBeadsDir walks up from start looking for a .beads directory.
// BEADS_DIR, when set, is returned without walking.
func FindBeadsDir(start string) (string, error) {
	if envDir := os.Getenv(BeadsDirEnvVar); envDir != "" {
		return filepath.Abs(envDir)
	}
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		start = wd
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, beadsDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched from %s)", ErrNoBeadsDir, start)
		}
		dir = parent
	}
}

// Discover picks the snapshot to read from beadsDir: beads.db when present,
// otherwise the first non-empty preferred JSONL export.
func Discover(beadsDir string) (DataSource, error) {
	dbPath := filepath.Join(beadsDir, dbFileName)
	if info, err := os.Stat(dbPath); err == nil && !info.IsDir() {
		return DataSource{
			Type:     SourceTypeSQLite,
			Path:     dbPath,
			BeadsDir: beadsDir,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		}, nil
	}

	for _, name := range PreferredJSONLNames {
		path := filepath.Join(beadsDir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Size() == 0 {
			continue
		}
		return DataSource{
			Type:     SourceTypeJSONL,
			Path:     path,
			BeadsDir: beadsDir,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		}, nil
	}

	return DataSource{}, fmt.Errorf("%w: no %s or JSONL export in %s", ErrStorageUnavailable, dbFileName, beadsDir)
}
