package analysis

import (
	"sort"
	"time"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// TypeCount is the number of issues of one type.
type TypeCount struct {
	Type  string
	Count int
}

// Summary is what the stats view shows.
type Summary struct {
	Stats      model.Stats
	ByPriority [model.MaxPriority + 1]int
	ByType     []TypeCount
	// Unassigned counts issues that are not closed and have no assignee.
	Unassigned int
	// ClosedLastWeek counts issues closed within 7 days of the graph load.
	ClosedLastWeek int
	Cycles         [][]string
}

// CompletionRate returns the share of closed issues in [0,1].
func (s Summary) CompletionRate() float64 {
	if s.Stats.Total == 0 {
		return 0
	}
	return float64(s.Stats.Closed) / float64(s.Stats.Total)
}

// Summarize counts g by priority and type and finds blocking cycles. Types
// are ordered by count, then name; issues without a structured type count
// as "unknown".
func Summarize(g *model.Graph) Summary {
	var s Summary
	if g == nil {
		return s
	}
	s.Stats = g.Stats

	weekAgo := g.LoadedAt.Add(-7 * 24 * time.Hour)
	types := map[string]int{}
	for _, is := range g.Issues {
		if is.Priority >= model.MinPriority && is.Priority <= model.MaxPriority {
			s.ByPriority[is.Priority]++
		}
		t := string(is.IssueType)
		if t == "" {
			t = "unknown"
		}
		types[t]++
		if is.Status != model.StatusClosed && is.Assignee == "" {
			s.Unassigned++
		}
		if is.ClosedAt != nil && is.ClosedAt.After(weekAgo) {
			s.ClosedLastWeek++
		}
	}

	for t, n := range types {
		s.ByType = append(s.ByType, TypeCount{Type: t, Count: n})
	}
	sort.Slice(s.ByType, func(i, j int) bool {
		if s.ByType[i].Count != s.ByType[j].Count {
			return s.ByType[i].Count > s.ByType[j].Count
		}
		return s.ByType[i].Type < s.ByType[j].Type
	})

	s.Cycles = BlockingCycles(g)
	return s
}
