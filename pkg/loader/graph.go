// Package loader turns a raw snapshot into the enriched issue graph: labels
// attached, hierarchy and blocking edges resolved, effective status computed,
// and every bucket sorted by the canonical comparator.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/elmateo487/bdui-compact-kanban/internal/datasource"
	"github.com/elmateo487/bdui-compact-kanban/pkg/debug"
	"github.com/elmateo487/bdui-compact-kanban/pkg/metrics"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

type edgeKey struct {
	issueID, dependsOnID string
	typ                  model.DependencyType
}

// Build derives a Graph from snap. The snapshot is not modified. A nil
// snapshot is reported as datasource.ErrStorageUnavailable; Build never
// returns a partial graph.
func Build(snap *datasource.Snapshot) (*model.Graph, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: no snapshot", datasource.ErrStorageUnavailable)
	}
	defer metrics.Timer(metrics.GraphBuild)()

	g := &model.Graph{
		Issues:   make([]*model.Issue, 0, len(snap.Issues)),
		ByID:     make(map[string]*model.Issue, len(snap.Issues)),
		Source:   snap.Source.Path,
		LoadedAt: time.Now(),
	}

	for i := range snap.Issues {
		rec := &snap.Issues[i]
		if _, dup := g.ByID[rec.ID]; dup {
			debug.Log("loader: duplicate issue id %s ignored", rec.ID)
			continue
		}
		is := rec.Clone()
		is.Labels = nil
		is.Parent, is.Children, is.BlockedBy, is.Blocks = "", nil, nil, nil
		g.Issues = append(g.Issues, is)
		g.ByID[is.ID] = is
	}

	for _, l := range snap.Labels {
		if is := g.ByID[l.IssueID]; is != nil {
			is.Labels = append(is.Labels, l.Label)
		}
	}

	seen := make(map[edgeKey]struct{}, len(snap.Dependencies))
	for _, d := range snap.Dependencies {
		key := edgeKey{d.IssueID, d.DependsOnID, d.Type}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		applyEdge(g, d)
	}

	for _, is := range g.Issues {
		is.BlockedBy = pruneBlockers(g, is.BlockedBy)
		is.Bucket = effectiveBucket(is)
		is.ClosedChildren = countClosed(g, is.Children)
	}

	for _, is := range g.Issues {
		g.Buckets[is.Bucket] = append(g.Buckets[is.Bucket], is)
	}
	for b := range g.Buckets {
		SortIssues(g.Buckets[b])
	}

	g.Stats = model.Stats{
		Total:      len(g.Issues),
		Open:       len(g.Buckets[model.BucketOpen]),
		InProgress: len(g.Buckets[model.BucketInProgress]),
		Blocked:    len(g.Buckets[model.BucketBlocked]),
		Closed:     len(g.Buckets[model.BucketClosed]),
	}
	return g, nil
}

func applyEdge(g *model.Graph, d model.Dependency) {
	is := g.ByID[d.IssueID]
	if is == nil || d.IssueID == d.DependsOnID {
		return
	}
	switch d.Type {
	case model.DepParentChild:
		// The first parent edge wins; an issue has at most one parent.
		if is.Parent != "" {
			debug.Log("loader: %s already has parent %s, ignoring %s", is.ID, is.Parent, d.DependsOnID)
			return
		}
		is.Parent = d.DependsOnID
		if parent := g.ByID[d.DependsOnID]; parent != nil {
			parent.Children = append(parent.Children, is.ID)
		}
	case model.DepBlocks:
		is.BlockedBy = append(is.BlockedBy, d.DependsOnID)
		if blocker := g.ByID[d.DependsOnID]; blocker != nil {
			blocker.Blocks = append(blocker.Blocks, is.ID)
		}
	}
}

// pruneBlockers keeps blockers that exist and are not closed.
func pruneBlockers(g *model.Graph, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := ids[:0]
	for _, id := range ids {
		if b := g.ByID[id]; b != nil && b.Status != model.StatusClosed {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func effectiveBucket(is *model.Issue) model.Bucket {
	if is.Status == model.StatusOpen && len(is.BlockedBy) > 0 {
		return model.BucketBlocked
	}
	return model.BucketForStatus(is.Status)
}

func countClosed(g *model.Graph, ids []string) int {
	n := 0
	for _, id := range ids {
		if c := g.ByID[id]; c != nil && c.Status == model.StatusClosed {
			n++
		}
	}
	return n
}

// Load reads a snapshot from source and builds the graph from it.
func Load(ctx context.Context, source datasource.DataSource) (*model.Graph, error) {
	snap, err := datasource.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	return Build(snap)
}
