package testutil

import (
	"testing"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// AssertPartition fails unless every issue appears in exactly one bucket,
// in the bucket its Bucket field names, and stats match bucket sizes.
func AssertPartition(t *testing.T, g *model.Graph) {
	t.Helper()

	seen := make(map[string]model.Bucket, len(g.Issues))
	total := 0
	for _, b := range model.Buckets {
		for _, is := range g.Buckets[b] {
			if prev, dup := seen[is.ID]; dup {
				t.Errorf("issue %s in buckets %v and %v", is.ID, prev, b)
			}
			seen[is.ID] = b
			if is.Bucket != b {
				t.Errorf("issue %s listed in %v but Bucket=%v", is.ID, b, is.Bucket)
			}
		}
		if got := g.Stats.Count(b); got != len(g.Buckets[b]) {
			t.Errorf("stats %v = %d, bucket size %d", b, got, len(g.Buckets[b]))
		}
		total += len(g.Buckets[b])
	}
	if total != len(g.Issues) || g.Stats.Total != len(g.Issues) {
		t.Errorf("bucket total %d, stats total %d, issues %d", total, g.Stats.Total, len(g.Issues))
	}
	for _, is := range g.Issues {
		if _, ok := seen[is.ID]; !ok {
			t.Errorf("issue %s in no bucket", is.ID)
		}
	}
}

// AssertInverseEdges fails unless parent/children and blocks/blockedBy are
// mutual inverses. BlockedBy is pruned, so it is checked as a subset.
func AssertInverseEdges(t *testing.T, g *model.Graph) {
	t.Helper()

	for _, is := range g.Issues {
		for _, child := range is.Children {
			c := g.ByID[child]
			if c == nil || c.Parent != is.ID {
				t.Errorf("%s lists child %s which does not point back", is.ID, child)
			}
		}
		if is.Parent != "" {
			if p := g.ByID[is.Parent]; p != nil && !contains(p.Children, is.ID) {
				t.Errorf("%s has parent %s which does not list it", is.ID, is.Parent)
			}
		}
		for _, blocker := range is.BlockedBy {
			b := g.ByID[blocker]
			if b == nil || !contains(b.Blocks, is.ID) {
				t.Errorf("%s blocked by %s which does not list it in blocks", is.ID, blocker)
			}
		}
	}
}

// BucketIDs returns the ids of one bucket in order.
func BucketIDs(g *model.Graph, b model.Bucket) []string {
	return IDs(g.Buckets[b])
}

// IDs returns the ids of issues in order.
func IDs(issues []*model.Issue) []string {
	ids := make([]string, len(issues))
	for i, is := range issues {
		ids[i] = is.ID
	}
	return ids
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
