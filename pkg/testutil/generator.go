// Package testutil provides snapshot fixtures for tests. All generators
// produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/elmateo487/bdui-compact-kanban/internal/datasource"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// BaseTime is the default creation time of generated issues.
var BaseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// SnapshotBuilder assembles a raw snapshot by hand.
//
//	snap := testutil.NewSnapshot().
//	    Issue("A", model.StatusOpen, 0).
//	    Issue("B", model.StatusOpen, 0).
//	    Blocks("A", "B").
//	    Build()
type SnapshotBuilder struct {
	snap datasource.Snapshot
	next int
}

// NewSnapshot starts an empty builder.
func NewSnapshot() *SnapshotBuilder {
	return &SnapshotBuilder{snap: datasource.Snapshot{ReadAt: BaseTime}}
}

// Issue adds an issue. Each call gets a creation time one minute later than
// the previous one, so later issues sort first on ties.
func (b *SnapshotBuilder) Issue(id string, status model.Status, priority int) *SnapshotBuilder {
	created := BaseTime.Add(time.Duration(b.next) * time.Minute)
	b.next++
	return b.Add(model.Issue{
		ID:        id,
		Title:     "Issue " + id,
		Status:    status,
		Priority:  priority,
		IssueType: model.TypeTask,
		CreatedAt: created,
		UpdatedAt: created,
	})
}

// Add appends a fully specified issue record.
func (b *SnapshotBuilder) Add(issue model.Issue) *SnapshotBuilder {
	b.snap.Issues = append(b.snap.Issues, issue)
	return b
}

// With edits the most recently added issue.
func (b *SnapshotBuilder) With(fn func(*model.Issue)) *SnapshotBuilder {
	if n := len(b.snap.Issues); n > 0 {
		fn(&b.snap.Issues[n-1])
	}
	return b
}

// Label attaches labels to an issue.
func (b *SnapshotBuilder) Label(issueID string, labels ...string) *SnapshotBuilder {
	for _, l := range labels {
		b.snap.Labels = append(b.snap.Labels, model.Label{IssueID: issueID, Label: l})
	}
	return b
}

// Parent records a parent-child edge.
func (b *SnapshotBuilder) Parent(parentID, childID string) *SnapshotBuilder {
	b.snap.Dependencies = append(b.snap.Dependencies, model.Dependency{
		IssueID: childID, DependsOnID: parentID, Type: model.DepParentChild,
	})
	return b
}

// Blocks records that blocker blocks blocked.
func (b *SnapshotBuilder) Blocks(blockerID, blockedID string) *SnapshotBuilder {
	b.snap.Dependencies = append(b.snap.Dependencies, model.Dependency{
		IssueID: blockedID, DependsOnID: blockerID, Type: model.DepBlocks,
	})
	return b
}

// Build returns the snapshot. The builder must not be reused afterwards.
func (b *SnapshotBuilder) Build() *datasource.Snapshot {
	s := b.snap
	return &s
}

// GeneratorConfig controls random snapshot generation.
type GeneratorConfig struct {
	Seed      int64             // Random seed for determinism (0 = use current time)
	IDPrefix  string            // Prefix for issue IDs (default: "bd")
	BaseTime  time.Time         // Base time for timestamps
	StatusMix []model.Status    // Status distribution (nil = all four statuses)
	TypeMix   []model.IssueType // Type distribution (nil = task)
	Assignees []string          // Assignee pool; "" entries mean unassigned
	LabelPool []string          // Labels drawn from this pool
	EdgeRate  float64           // Probability that an issue gets a blocker
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		IDPrefix:  "bd",
		BaseTime:  BaseTime,
		StatusMix: []model.Status{model.StatusOpen, model.StatusInProgress, model.StatusBlocked, model.StatusClosed},
		TypeMix:   []model.IssueType{model.TypeTask, model.TypeBug, model.TypeFeature, model.TypeEpic},
		Assignees: []string{"", "alice", "bob"},
		LabelPool: []string{"ui", "backend", "docs", "urgent"},
		EdgeRate:  0.3,
	}
}

// Generator creates random but reproducible snapshots.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = BaseTime
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "bd"
	}
	if len(cfg.StatusMix) == 0 {
		cfg.StatusMix = DefaultConfig().StatusMix
	}
	if len(cfg.TypeMix) == 0 {
		cfg.TypeMix = []model.IssueType{model.TypeTask}
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// IssueID returns the id the generator assigns to index i.
func (g *Generator) IssueID(i int) string {
	return fmt.Sprintf("%s-%d", g.cfg.IDPrefix, i+1)
}

// Snapshot generates n issues with random labels, a random hierarchy, and
// random blocks edges. Creation times collide on purpose so tie-breaks get
// exercised.
func (g *Generator) Snapshot(n int) *datasource.Snapshot {
	snap := &datasource.Snapshot{ReadAt: g.cfg.BaseTime}
	for i := 0; i < n; i++ {
		created := g.cfg.BaseTime.Add(time.Duration(g.rng.Intn(5)) * time.Hour)
		issue := model.Issue{
			ID:        g.IssueID(i),
			Title:     fmt.Sprintf("Generated issue %d", i+1),
			Status:    g.cfg.StatusMix[g.rng.Intn(len(g.cfg.StatusMix))],
			Priority:  g.rng.Intn(model.MaxPriority + 1),
			IssueType: g.cfg.TypeMix[g.rng.Intn(len(g.cfg.TypeMix))],
			CreatedAt: created,
			UpdatedAt: created,
		}
		if len(g.cfg.Assignees) > 0 {
			issue.Assignee = g.cfg.Assignees[g.rng.Intn(len(g.cfg.Assignees))]
		}
		snap.Issues = append(snap.Issues, issue)

		for _, l := range g.cfg.LabelPool {
			if g.rng.Intn(4) == 0 {
				snap.Labels = append(snap.Labels, model.Label{IssueID: issue.ID, Label: l})
			}
		}
	}

	for i := 1; i < n; i++ {
		if g.rng.Intn(3) == 0 {
			parent := g.rng.Intn(i)
			snap.Dependencies = append(snap.Dependencies, model.Dependency{
				IssueID: g.IssueID(i), DependsOnID: g.IssueID(parent), Type: model.DepParentChild,
			})
		}
		if g.rng.Float64() < g.cfg.EdgeRate {
			blocker := g.rng.Intn(n)
			if blocker != i {
				snap.Dependencies = append(snap.Dependencies, model.Dependency{
					IssueID: g.IssueID(i), DependsOnID: g.IssueID(blocker), Type: model.DepBlocks,
				})
			}
		}
	}
	return snap
}

// Chain generates n open issues where issue i+1 is blocked by issue i.
func (g *Generator) Chain(n int) *datasource.Snapshot {
	b := NewSnapshot()
	for i := 0; i < n; i++ {
		b.Issue(g.IssueID(i), model.StatusOpen, 2)
		if i > 0 {
			b.Blocks(g.IssueID(i-1), g.IssueID(i))
		}
	}
	return b.Build()
}
