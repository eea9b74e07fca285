package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/elmateo487/bdui-compact-kanban/internal/datasource"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// schema mirrors the subset of bd's tables the reader touches.
const schema = `
CREATE TABLE issues (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'open',
	priority INTEGER NOT NULL DEFAULT 2,
	issue_type TEXT NOT NULL DEFAULT 'task',
	assignee TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	closed_at DATETIME,
	close_reason TEXT
);
CREATE TABLE labels (
	issue_id TEXT NOT NULL,
	label TEXT NOT NULL
);
CREATE TABLE dependencies (
	issue_id TEXT NOT NULL,
	depends_on_id TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'blocks'
);`

// TempBeadsDir creates a temporary project with a .beads subdirectory and
// returns the .beads path.
func TempBeadsDir(t *testing.T) string {
	t.Helper()

	beadsDir := filepath.Join(t.TempDir(), ".beads")
	if err := os.MkdirAll(beadsDir, 0o755); err != nil {
		t.Fatalf("failed to create .beads dir: %v", err)
	}
	return beadsDir
}

// WriteSQLite writes snap into beadsDir/beads.db and returns the path.
func WriteSQLite(t *testing.T, beadsDir string, snap *datasource.Snapshot) string {
	t.Helper()

	path := filepath.Join(beadsDir, "beads.db")
	db := openFixtureDB(t, path)
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, is := range snap.Issues {
		var closedAt any
		if is.ClosedAt != nil {
			closedAt = formatTime(*is.ClosedAt)
		}
		var assignee any
		if is.Assignee != "" {
			assignee = is.Assignee
		}
		_, err := tx.Exec(`INSERT INTO issues
			(id, title, description, status, priority, issue_type, assignee, created_at, updated_at, closed_at, close_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			is.ID, is.Title, is.Description, string(is.Status), is.Priority, string(is.IssueType),
			assignee, formatTime(is.CreatedAt), formatTime(is.UpdatedAt), closedAt, is.CloseReason)
		if err != nil {
			t.Fatalf("insert issue %s: %v", is.ID, err)
		}
	}
	for _, l := range snap.Labels {
		if _, err := tx.Exec(`INSERT INTO labels (issue_id, label) VALUES (?, ?)`, l.IssueID, l.Label); err != nil {
			t.Fatalf("insert label: %v", err)
		}
	}
	for _, d := range snap.Dependencies {
		if _, err := tx.Exec(`INSERT INTO dependencies (issue_id, depends_on_id, type) VALUES (?, ?, ?)`,
			d.IssueID, d.DependsOnID, string(d.Type)); err != nil {
			t.Fatalf("insert dependency: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return path
}

// ExecSQLite runs one statement against a fixture database, the way bd
// would write to it from another process.
func ExecSQLite(t *testing.T, path, stmt string, args ...any) {
	t.Helper()

	db := openFixtureDB(t, path)
	defer db.Close()
	if _, err := db.Exec(stmt, args...); err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}

func openFixtureDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	return db
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

// WriteJSONL writes snap as a bd JSONL export (labels and edges inlined) to
// beadsDir/issues.jsonl and returns the path.
func WriteJSONL(t *testing.T, beadsDir string, snap *datasource.Snapshot) string {
	t.Helper()

	path := filepath.Join(beadsDir, "issues.jsonl")
	if err := os.WriteFile(path, []byte(ToJSONL(snap)), 0o644); err != nil {
		t.Fatalf("write jsonl: %v", err)
	}
	return path
}

// ToJSONL renders a snapshot in the bd export format.
func ToJSONL(snap *datasource.Snapshot) string {
	labels := map[string][]string{}
	for _, l := range snap.Labels {
		labels[l.IssueID] = append(labels[l.IssueID], l.Label)
	}
	deps := map[string][]model.Dependency{}
	for _, d := range snap.Dependencies {
		deps[d.IssueID] = append(deps[d.IssueID], d)
	}

	type record struct {
		model.Issue
		Dependencies []model.Dependency `json:"dependencies,omitempty"`
	}

	var sb strings.Builder
	for _, is := range snap.Issues {
		rec := record{Issue: is, Dependencies: deps[is.ID]}
		rec.Labels = labels[is.ID]
		b, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	return sb.String()
}
