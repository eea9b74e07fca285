package ui

import (
	"fmt"

	"github.com/elmateo487/bdui-compact-kanban/pkg/analysis"
	"github.com/elmateo487/bdui-compact-kanban/pkg/loader"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
)

// listRow is one line of the tree, graph or dashboard view. Header rows
// carry no issue and are skipped by the cursor.
type listRow struct {
	Issue  *model.Issue
	Header string
	Depth  int
	Detail string
}

func (r listRow) selectable() bool { return r.Issue != nil }

var dashSections = [...]string{"Active", "Completed", "Problems"}

func (m Model) isListView() bool {
	switch m.store.ViewMode() {
	case state.ViewTree, state.ViewGraph, state.ViewDashboard:
		return true
	}
	return false
}

func (m Model) listRows() []listRow {
	switch m.store.ViewMode() {
	case state.ViewTree:
		return treeRows(m.store.FilteredIssues())
	case state.ViewGraph:
		return graphRows(m.store.Graph(), m.store.FilteredIssues())
	case state.ViewDashboard:
		return dashboardRows(analysis.Categorize(m.store.Graph()), m.dashSection)
	}
	return nil
}

// listSelection returns the id under the list cursor, or "".
func (m Model) listSelection() string {
	rows := m.listRows()
	i := m.cursors[m.store.ViewMode()]
	if i < 0 || i >= len(rows) || !rows[i].selectable() {
		return ""
	}
	return rows[i].Issue.ID
}

// moveList moves the cursor of the current view by delta rows. On the
// board a large delta jumps to the first or last issue.
func (m *Model) moveList(delta int) {
	v := m.store.ViewMode()
	if v == state.ViewKanban {
		switch {
		case delta == -1:
			m.store.MoveUp()
		case delta == 1:
			m.store.MoveDown()
		case delta < 0:
			m.store.JumpToFirst()
		default:
			m.store.JumpToLast()
		}
		return
	}
	if !m.isListView() {
		return
	}
	rows := m.listRows()
	m.cursors[v] = stepCursor(rows, m.cursors[v], delta)
}

// stepCursor moves cur by delta selectable rows, clamped to the list.
func stepCursor(rows []listRow, cur, delta int) int {
	var idx []int
	for i, r := range rows {
		if r.selectable() {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return 0
	}
	pos := 0
	for i, ri := range idx {
		if ri <= cur {
			pos = i
		}
	}
	pos = clampInt(pos+delta, 0, len(idx)-1)
	return idx[pos]
}

// clampListCursors keeps list cursors on a selectable row after the data
// or the filter changed.
func (m *Model) clampListCursors() {
	if m.store.Graph() == nil {
		return
	}
	v := m.store.ViewMode()
	if !m.isListView() {
		return
	}
	rows := m.listRows()
	cur := min(m.cursors[v], max(0, len(rows)-1))
	m.cursors[v] = stepCursor(rows, cur, 0)
}

// treeRows flattens the parent/child hierarchy of issues depth first.
// Issues whose parent is filtered out become roots.
func treeRows(issues []*model.Issue) []listRow {
	in := make(map[string]*model.Issue, len(issues))
	for _, is := range issues {
		in[is.ID] = is
	}
	var roots []*model.Issue
	for _, is := range issues {
		if _, ok := in[is.Parent]; !ok {
			roots = append(roots, is)
		}
	}
	loader.SortIssues(roots)

	rows := make([]listRow, 0, len(issues))
	seen := make(map[string]bool, len(issues))
	var walk func(is *model.Issue, depth int)
	walk = func(is *model.Issue, depth int) {
		if seen[is.ID] {
			return
		}
		seen[is.ID] = true
		detail := ""
		if len(is.Children) > 0 {
			detail = fmt.Sprintf("%d/%d", is.ClosedChildren, len(is.Children))
		}
		rows = append(rows, listRow{Issue: is, Depth: depth, Detail: detail})

		var kids []*model.Issue
		for _, id := range is.Children {
			if c, ok := in[id]; ok {
				kids = append(kids, c)
			}
		}
		loader.SortIssues(kids)
		for _, c := range kids {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
	return rows
}

// graphRows lists issues that take part in a blocking edge, each followed
// by the issues it is blocked by. Cycles come first.
func graphRows(g *model.Graph, issues []*model.Issue) []listRow {
	var rows []listRow
	for _, cycle := range analysis.BlockingCycles(g) {
		rows = append(rows, listRow{Header: fmt.Sprintf("Cycle: %v", cycle)})
	}
	var linked []*model.Issue
	for _, is := range issues {
		if len(is.BlockedBy) > 0 || len(is.Blocks) > 0 {
			linked = append(linked, is)
		}
	}
	loader.SortIssues(linked)
	for _, is := range linked {
		detail := ""
		if n := len(is.Blocks); n > 0 {
			detail = fmt.Sprintf("blocks %d", n)
		}
		rows = append(rows, listRow{Issue: is, Detail: detail})
		for _, id := range is.BlockedBy {
			if b := g.Issue(id); b != nil {
				rows = append(rows, listRow{Issue: b, Depth: 1, Detail: "blocks " + is.ID})
			}
		}
	}
	return rows
}

// dashboardRows renders one section of the dashboard.
func dashboardRows(d analysis.Dashboard, section int) []listRow {
	var rows []listRow
	group := func(title string, issues []*model.Issue) {
		rows = append(rows, listRow{Header: fmt.Sprintf("%s (%d)", title, len(issues))})
		for _, is := range issues {
			detail := ""
			if len(is.Children) > 0 {
				detail = fmt.Sprintf("%d/%d", is.ClosedChildren, len(is.Children))
			}
			rows = append(rows, listRow{Issue: is, Depth: 1, Detail: detail})
		}
	}
	problems := func(title string, ps []analysis.Problem) {
		rows = append(rows, listRow{Header: fmt.Sprintf("%s (%d)", title, len(ps))})
		for _, p := range ps {
			detail := p.Detail
			if detail == "" {
				detail = p.Kind.String()
			}
			rows = append(rows, listRow{Issue: p.Issue, Depth: 1, Detail: detail})
		}
	}

	switch section {
	case 0:
		group("Active epics", d.ActiveEpics)
		group("Standalone tickets", analysis.StandaloneTickets(d.ActiveTickets))
		group("Blocked", d.Blocked)
	case 1:
		group("Completed epics", d.CompletedEpics)
		group("Completed tickets", d.CompletedTickets)
	default:
		problems("Orphaned ACs", d.OrphanedACs)
		problems("Missing parent", d.MissingParent)
		problems("No type", d.NoType)
	}
	return rows
}
