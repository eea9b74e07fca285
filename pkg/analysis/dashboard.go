// Package analysis derives read-only summaries from a loaded graph: the
// dashboard grouping, blocking cycles, and per-priority and per-type counts.
package analysis

import (
	"fmt"
	"sort"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// ProblemKind classifies a data problem shown on the dashboard.
type ProblemKind int

const (
	ProblemOrphanedAC ProblemKind = iota
	ProblemMissingParent
	ProblemNoType
)

func (k ProblemKind) String() string {
	switch k {
	case ProblemOrphanedAC:
		return "orphaned AC"
	case ProblemMissingParent:
		return "missing parent"
	case ProblemNoType:
		return "no type"
	}
	return "unknown"
}

// Problem is one issue flagged on the dashboard.
type Problem struct {
	Issue  *model.Issue
	Kind   ProblemKind
	Detail string
}

// Dashboard groups a graph for the dashboard view.
type Dashboard struct {
	ActiveEpics      []*model.Issue
	CompletedEpics   []*model.Issue
	ActiveTickets    []*model.Issue
	CompletedTickets []*model.Issue
	Blocked          []*model.Issue

	OrphanedACs   []Problem
	MissingParent []Problem
	NoType        []Problem
}

// ProblemCount returns the number of flagged problems.
func (d Dashboard) ProblemCount() int {
	return len(d.OrphanedACs) + len(d.MissingParent) + len(d.NoType)
}

// StandaloneTickets returns tickets without a parent, which the dashboard
// lists on their own rather than under an epic.
func StandaloneTickets(tickets []*model.Issue) []*model.Issue {
	var out []*model.Issue
	for _, t := range tickets {
		if t.Parent == "" {
			out = append(out, t)
		}
	}
	return out
}

// Categorize buckets every issue of g for the dashboard. Grouping uses the
// structured type; a type label only counts towards "has a type".
func Categorize(g *model.Graph) Dashboard {
	var d Dashboard
	if g == nil {
		return d
	}

	var epics, tickets []*model.Issue
	for _, is := range g.Issues {
		switch is.IssueType {
		case model.TypeEpic:
			epics = append(epics, is)
		case model.TypeAC:
		default:
			if is.IssueType != "" {
				tickets = append(tickets, is)
			}
		}

		if is.IssueType == model.TypeAC && is.Parent == "" {
			d.OrphanedACs = append(d.OrphanedACs, Problem{is, ProblemOrphanedAC, "AC without parent epic/ticket"})
		}
		if is.Parent != "" && g.Issue(is.Parent) == nil {
			d.MissingParent = append(d.MissingParent, Problem{is, ProblemMissingParent, fmt.Sprintf("Parent %s not found", is.Parent)})
		}
		if is.IssueType == "" && !is.HasTypeLabel() {
			d.NoType = append(d.NoType, Problem{is, ProblemNoType, "No type defined"})
		}
		if is.Bucket == model.BucketBlocked {
			d.Blocked = append(d.Blocked, is)
		}
	}

	newestFirst(epics)
	newestFirst(tickets)
	d.ActiveEpics, d.CompletedEpics = splitClosed(epics)
	d.ActiveTickets, d.CompletedTickets = splitClosed(tickets)
	return d
}

func newestFirst(issues []*model.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
}

func splitClosed(issues []*model.Issue) (active, closed []*model.Issue) {
	for _, is := range issues {
		if is.Status == model.StatusClosed {
			closed = append(closed, is)
		} else {
			active = append(active, is)
		}
	}
	return active, closed
}
