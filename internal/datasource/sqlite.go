package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/elmateo487/bdui-compact-kanban/pkg/debug"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

const (
	issuesQuery = `
		SELECT id, title, description, status, priority, issue_type,
		       assignee, created_at, updated_at, closed_at, close_reason
		FROM issues`
	// issuesQueryLegacy serves databases created before close tracking.
	issuesQueryLegacy = `
		SELECT id, title, description, status, priority, issue_type,
		       assignee, created_at, updated_at, NULL, NULL
		FROM issues`
	labelsQuery           = `SELECT issue_id, label FROM labels`
	dependenciesQuery     = `SELECT issue_id, depends_on_id, type FROM dependencies`
	dependenciesQueryPrev = `SELECT issue_id, depends_on_id, dependency_type FROM dependencies`
)

// SQLiteReader provides read access to a beads SQLite database.
type SQLiteReader struct {
	db     *sql.DB
	source DataSource
}

// NewSQLiteReader opens the database behind source read-only.
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}
	info, err := os.Stat(source.Path)
	if err != nil {
		return nil, unavailable("database not found at "+source.Path, err)
	}
	if info.Size() == 0 {
		return nil, unavailable("database is empty at "+source.Path, nil)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, unavailable("cannot open database", err)
	}
	// bd writes concurrently; keep the pool small so readers do not pile up
	// behind its write lock.
	db.SetMaxOpenConns(3)

	return &SQLiteReader{db: db, source: source}, nil
}

// NewSQLiteReaderFromDB wraps an existing handle. Tests use it with sqlmock.
func NewSQLiteReaderFromDB(db *sql.DB, source DataSource) *SQLiteReader {
	return &SQLiteReader{db: db, source: source}
}

// Close closes the database connection.
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadSnapshot reads issues, labels, and dependency edges. The three queries
// run concurrently; any failure fails the whole snapshot.
func (r *SQLiteReader) ReadSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Source: r.source, ReadAt: time.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		issues, err := r.readIssues(gctx)
		snap.Issues = issues
		return err
	})
	g.Go(func() error {
		labels, err := r.readLabels(gctx)
		snap.Labels = labels
		return err
	})
	g.Go(func() error {
		deps, err := r.readDependencies(gctx)
		snap.Dependencies = deps
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *SQLiteReader) readIssues(ctx context.Context) ([]model.Issue, error) {
	rows, err := r.db.QueryContext(ctx, issuesQuery)
	if err != nil && isMissingColumn(err) {
		rows, err = r.db.QueryContext(ctx, issuesQueryLegacy)
	}
	if err != nil {
		return nil, unavailable("query issues", err)
	}
	defer rows.Close()

	var issues []model.Issue
	for rows.Next() {
		var (
			issue                         model.Issue
			title, description, status    sql.NullString
			issueType, assignee, reason   sql.NullString
			priority                      sql.NullInt64
			createdAt, updatedAt, closedAt any
		)
		if err := rows.Scan(
			&issue.ID, &title, &description, &status, &priority, &issueType,
			&assignee, &createdAt, &updatedAt, &closedAt, &reason,
		); err != nil {
			return nil, unavailable("scan issue row", err)
		}

		issue.Title = title.String
		issue.Description = description.String
		issue.Status = normalizeStatus(status.String)
		if issue.Status == model.StatusTombstone {
			continue
		}
		issue.Priority = clampPriority(priority)
		issue.IssueType = model.IssueType(strings.TrimSpace(issueType.String))
		issue.Assignee = assignee.String
		issue.CloseReason = reason.String
		if t, ok := parseTimestamp(createdAt); ok {
			issue.CreatedAt = t
		}
		if t, ok := parseTimestamp(updatedAt); ok {
			issue.UpdatedAt = t
		}
		if t, ok := parseTimestamp(closedAt); ok {
			issue.ClosedAt = &t
		}

		if err := issue.Validate(); err != nil {
			debug.Log("datasource: skipping invalid issue row: %v", err)
			continue
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate issues", err)
	}
	return issues, nil
}

func (r *SQLiteReader) readLabels(ctx context.Context) ([]model.Label, error) {
	rows, err := r.db.QueryContext(ctx, labelsQuery)
	if err != nil {
		return nil, unavailable("query labels", err)
	}
	defer rows.Close()

	var labels []model.Label
	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.IssueID, &l.Label); err != nil {
			return nil, unavailable("scan label row", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate labels", err)
	}
	return labels, nil
}

func (r *SQLiteReader) readDependencies(ctx context.Context) ([]model.Dependency, error) {
	rows, err := r.db.QueryContext(ctx, dependenciesQuery)
	if err != nil && isMissingColumn(err) {
		rows, err = r.db.QueryContext(ctx, dependenciesQueryPrev)
	}
	if err != nil {
		return nil, unavailable("query dependencies", err)
	}
	defer rows.Close()

	var deps []model.Dependency
	for rows.Next() {
		var d model.Dependency
		var depType string
		if err := rows.Scan(&d.IssueID, &d.DependsOnID, &depType); err != nil {
			return nil, unavailable("scan dependency row", err)
		}
		d.Type = model.DependencyType(strings.TrimSpace(depType))
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate dependencies", err)
	}
	return deps, nil
}

func isMissingColumn(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such column")
}

func normalizeStatus(s string) model.Status {
	return model.Status(strings.ToLower(strings.TrimSpace(s)))
}

func clampPriority(p sql.NullInt64) int {
	if !p.Valid {
		return 2
	}
	switch {
	case p.Int64 < model.MinPriority:
		return model.MinPriority
	case p.Int64 > model.MaxPriority:
		return model.MaxPriority
	}
	return int(p.Int64)
}

// timestampLayouts are the text formats bd has written over time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the driver's time.Time, text, or unix seconds.
func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case int64:
		return time.Unix(t, 0).UTC(), true
	case []byte:
		return parseTimestamp(string(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC(), true
		}
	}
	return time.Time{}, false
}
