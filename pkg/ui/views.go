package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elmateo487/bdui-compact-kanban/pkg/analysis"
	"github.com/elmateo487/bdui-compact-kanban/pkg/metrics"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
)

// renderList draws rows in a window that keeps the cursor visible.
func (m Model) renderList(rows []listRow, height int, empty string) string {
	t := m.theme
	if len(rows) == 0 {
		return t.Dim.Render("  " + empty)
	}
	cur := m.cursors[m.store.ViewMode()]
	start := 0
	if cur >= height {
		start = cur - height + 1
	}
	end := min(len(rows), start+height)

	width := max(20, m.width-2)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		r := rows[i]
		if !r.selectable() {
			lines = append(lines, t.Title.Render(truncate(r.Header, width)))
			continue
		}
		lines = append(lines, m.renderListRow(r, i == cur, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderListRow(r listRow, selected bool, width int) string {
	t := m.theme
	is := r.Issue
	marker := "  "
	if selected {
		marker = "▸ "
	}
	indent := strings.Repeat("  ", r.Depth)
	dot := t.Fg(t.BucketColor(is.Bucket)).Render("●")
	prio := t.Fg(t.PriorityColor(is.Priority)).Render(fmt.Sprintf("P%d", is.Priority))

	detail := ""
	if r.Detail != "" {
		detail = "  " + r.Detail
	}
	room := width - lipgloss.Width(marker+indent) - len(is.ID) - 8 - lipgloss.Width(detail)
	title := truncate(is.Title, max(8, room))

	textStyle := t.Base
	if selected {
		textStyle = t.Fg(t.Selected).Bold(true)
	}
	return marker + indent + dot + " " + t.Dim.Render(is.ID) + " " + prio + " " +
		textStyle.Render(title) + t.Dim.Render(detail)
}

func (m Model) renderTree(height int) string {
	return m.renderList(m.listRows(), height, "No issues match the current filters")
}

func (m Model) renderGraph(height int) string {
	return m.renderList(m.listRows(), height, "No blocking dependencies")
}

func (m Model) renderDashboard(height int) string {
	t := m.theme
	d := analysis.Categorize(m.store.Graph())
	tabs := make([]string, len(dashSections))
	for i, name := range dashSections {
		if i == 2 {
			name = fmt.Sprintf("%s (%d)", name, d.ProblemCount())
		}
		if i == m.dashSection {
			tabs[i] = t.Fg(t.Selected).Bold(true).Render("[" + name + "]")
		} else {
			tabs[i] = t.Dim.Render(" " + name + " ")
		}
	}
	head := strings.Join(tabs, " ") + t.Dim.Render("   ←/→ switch")
	return head + "\n\n" + m.renderList(dashboardRows(d, m.dashSection), max(1, height-2), "Nothing here")
}

func (m Model) renderStats(height int) string {
	t := m.theme
	sum := analysis.Summarize(m.store.Graph())
	var b strings.Builder

	b.WriteString(t.Title.Render(fmt.Sprintf("%d issues · %.0f%% complete", sum.Stats.Total, sum.CompletionRate()*100)))
	b.WriteString("\n\n")

	barWidth := clampInt(m.width-30, 10, 50)
	bar := func(label string, n, total int, c lipgloss.Color) {
		fill := 0
		if total > 0 {
			fill = n * barWidth / total
		}
		b.WriteString(t.Dim.Render(padRight(label, 14)))
		b.WriteString(t.Fg(c).Render(strings.Repeat("█", fill)))
		b.WriteString(t.Dim.Render(strings.Repeat("░", barWidth-fill)))
		b.WriteString(fmt.Sprintf(" %d\n", n))
	}

	b.WriteString(t.Bold.Render("Status"))
	b.WriteString("\n")
	for _, bk := range model.Buckets {
		bar(bucketTitles[bk], sum.Stats.Count(bk), sum.Stats.Total, t.BucketColor(bk))
	}

	b.WriteString("\n")
	b.WriteString(t.Bold.Render("Priority"))
	b.WriteString("\n")
	for p, n := range sum.ByPriority {
		bar(fmt.Sprintf("P%d %s", p, model.PriorityLabel(p)), n, sum.Stats.Total, t.PriorityColor(p))
	}

	b.WriteString("\n")
	b.WriteString(t.Bold.Render("Type"))
	b.WriteString("\n")
	for _, tc := range sum.ByType {
		bar(tc.Type, tc.Count, sum.Stats.Total, t.TypeColor(tc.Type))
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Unassigned: %d   Closed in the last 7 days: %d\n", sum.Unassigned, sum.ClosedLastWeek))
	if len(sum.Cycles) == 0 {
		b.WriteString(t.Dim.Render("No blocking cycles"))
		b.WriteString("\n")
	} else {
		for _, c := range sum.Cycles {
			b.WriteString(t.Fg(t.Error).Render("Cycle: " + strings.Join(c, " → ")))
			b.WriteString("\n")
		}
	}

	if metrics.Enabled() {
		b.WriteString("\n")
		b.WriteString(t.Bold.Render("Timing"))
		b.WriteString("\n")
		for _, st := range metrics.AllStats() {
			if st.Count == 0 {
				continue
			}
			b.WriteString(t.Dim.Render(fmt.Sprintf("%-16s n=%d avg=%.1fms max=%.1fms last=%.1fms\n",
				st.Name, st.Count, st.AvgMs, st.MaxMs, st.LastMs)))
		}
	}
	return t.Renderer.NewStyle().MaxHeight(height).Render(b.String())
}

// viewBody renders the main area for the current view mode.
func (m Model) viewBody(height int) string {
	switch m.store.ViewMode() {
	case state.ViewTree:
		return m.renderTree(height)
	case state.ViewGraph:
		return m.renderGraph(height)
	case state.ViewStats:
		return m.renderStats(height)
	case state.ViewDashboard:
		return m.renderDashboard(height)
	}
	return m.renderBoard(height)
}
