package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/elmateo487/bdui-compact-kanban/pkg/metrics"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// Snapshot holds the three raw record sets read from storage. Issue records
// carry no labels or derived fields; the loader attaches those.
type Snapshot struct {
	Issues       []model.Issue
	Labels       []model.Label
	Dependencies []model.Dependency
	Source       DataSource
	ReadAt       time.Time
}

// Load reads a snapshot from source. Every failure wraps
// ErrStorageUnavailable.
func Load(ctx context.Context, source DataSource) (*Snapshot, error) {
	defer metrics.Timer(metrics.SnapshotRead)()

	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return reader.ReadSnapshot(ctx)

	case SourceTypeJSONL:
		return ReadJSONL(source, nil)

	default:
		return nil, fmt.Errorf("%w: unknown source type %q", ErrStorageUnavailable, source.Type)
	}
}

func unavailable(what string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrStorageUnavailable, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, what, cause)
}
