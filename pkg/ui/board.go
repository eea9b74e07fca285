package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// Card geometry. A card is two title lines plus one meta line inside a
// rounded border, which the store's page size assumes.
const (
	cardTitleLines = 2
	detailPanelMin = 30
)

var bucketTitles = [model.BucketCount]string{"Open", "In Progress", "Blocked", "Closed"}

// renderBoard draws the visible columns and, when enabled, the detail
// panel on the right.
func (m Model) renderBoard(height int) string {
	t := m.theme
	s := m.store
	cols := s.VisibleBuckets()

	boardWidth := m.width
	detailWidth := 0
	if s.Overlays().Details && m.width >= 80 {
		detailWidth = clampInt(m.width*30/100, detailPanelMin, 60)
		boardWidth = m.width - detailWidth - 1
	}
	colWidth := max(16, (boardWidth-(len(cols)-1))/len(cols))

	rendered := make([]string, 0, len(cols))
	for _, b := range cols {
		rendered = append(rendered, m.renderColumn(b, colWidth, height))
	}
	board := lipgloss.JoinHorizontal(lipgloss.Top, joinWithGap(rendered)...)

	if detailWidth > 0 {
		panel := m.renderDetailPanel(detailWidth, height)
		board = lipgloss.JoinHorizontal(lipgloss.Top, board, " ", panel)
	}
	return t.Renderer.NewStyle().MaxHeight(height).Render(board)
}

func joinWithGap(cols []string) []string {
	out := make([]string, 0, 2*len(cols))
	for i, c := range cols {
		if i > 0 {
			out = append(out, " ")
		}
		out = append(out, c)
	}
	return out
}

func (m Model) renderColumn(b model.Bucket, width, height int) string {
	t := m.theme
	s := m.store
	focused := s.ActiveBucket() == b
	all := s.FilteredBucket(b)
	cur := s.Cursor(b)

	headerStyle := t.Renderer.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Bold(true)
	if focused {
		headerStyle = headerStyle.Background(t.BucketColor(b)).Foreground(lipgloss.Color("#1A1A1A"))
	} else {
		headerStyle = headerStyle.Foreground(t.BucketColor(b))
	}
	lines := []string{headerStyle.Render(fmt.Sprintf("%s (%d)", bucketTitles[b], len(all)))}

	visible := s.VisibleIssues(b)
	if len(visible) == 0 {
		empty := t.Renderer.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(t.TextDim).
			Italic(true)
		lines = append(lines, "", empty.Render("(empty)"))
	}
	for i, is := range visible {
		selected := focused && cur.Offset+i == cur.Selected
		lines = append(lines, m.renderCard(is, width, selected))
	}

	if more := len(all) - cur.Offset - len(visible); more > 0 {
		lines = append(lines, t.Dim.Render(fmt.Sprintf(" ↓ %d more", more)))
	}
	if pages := (len(all) + s.PageSize() - 1) / s.PageSize(); pages > 1 {
		page := cur.Offset/s.PageSize() + 1
		lines = append(lines, t.Dim.Render(fmt.Sprintf(" page %d/%d", page, pages)))
	}
	return t.Renderer.NewStyle().Width(width).MaxHeight(height).Render(strings.Join(lines, "\n"))
}

// renderCard draws one issue: title on two lines, then id, priority,
// subtask progress and markers.
func (m Model) renderCard(is *model.Issue, width int, selected bool) string {
	t := m.theme
	inner := max(8, width-2)

	title := wrapLines(is.Title, inner, cardTitleLines)
	for len(title) < cardTitleLines {
		title = append(title, "")
	}
	titleStyle := t.Base
	if selected {
		titleStyle = t.Fg(t.Selected).Bold(true)
	}
	for i := range title {
		title[i] = titleStyle.Render(padRight(title[i], inner))
	}

	meta := []string{
		t.Dim.Render(is.ID),
		t.Fg(t.PriorityColor(is.Priority)).Render(fmt.Sprintf("P%d", is.Priority)),
	}
	if n := len(is.Children); n > 0 {
		meta = append(meta, t.Dim.Render(fmt.Sprintf("%d/%d", is.ClosedChildren, n)))
	}
	if len(is.BlockedBy) > 0 {
		meta = append(meta, t.Fg(t.Blocked).Render("[!]"))
	}
	if is.IssueType == model.TypeAC && is.Parent == "" {
		meta = append(meta, t.Fg(t.Warning).Render("[ORPHAN]"))
	}
	// Drop trailing markers that do not fit rather than cutting styled text.
	var metaLine string
	used := 0
	for i, part := range meta {
		w := lipgloss.Width(part)
		if i > 0 {
			w++
		}
		if used+w > inner {
			break
		}
		if i > 0 {
			metaLine += " "
		}
		metaLine += part
		used += w
	}

	style := t.Card
	if selected {
		style = t.CardActive
	}
	return style.Width(inner).Render(strings.Join(append(title, metaLine), "\n"))
}

// renderDetailPanel shows the selected issue beside the board.
func (m Model) renderDetailPanel(width, height int) string {
	t := m.theme
	is := m.store.SelectedIssue()
	inner := max(10, width-4)
	if is == nil {
		return t.Panel.Width(inner).Render(t.Dim.Render("No issue selected"))
	}

	var b strings.Builder
	for _, l := range wrapLines(is.Title, inner, 3) {
		b.WriteString(t.Title.Render(l))
		b.WriteString("\n")
	}
	b.WriteString(t.Dim.Render(is.ID))
	b.WriteString("\n\n")

	row := func(label, value string, c lipgloss.Color) {
		b.WriteString(t.Dim.Render(padRight(label, 11)))
		b.WriteString(t.Fg(c).Render(truncate(value, inner-11)))
		b.WriteString("\n")
	}
	row("Status", is.Status.Label(), t.StatusColor(is.Status))
	row("Priority", fmt.Sprintf("P%d %s", is.Priority, model.PriorityLabel(is.Priority)), t.PriorityColor(is.Priority))
	row("Type", is.DisplayType(), t.TypeColor(is.DisplayType()))
	if is.Assignee != "" {
		row("Assignee", is.Assignee, t.Text)
	}
	if len(is.Labels) > 0 {
		row("Labels", strings.Join(is.Labels, ", "), t.TextDim)
	}
	row("Created", FormatTimeRel(is.CreatedAt, m.now()), t.TextDim)
	if is.ClosedAt != nil {
		row("Closed", FormatTimeRel(*is.ClosedAt, m.now()), t.TextDim)
	}
	if n := len(is.Children); n > 0 {
		row("Subtasks", fmt.Sprintf("%d/%d done", is.ClosedChildren, n), t.Text)
	}
	if len(is.BlockedBy) > 0 {
		row("Blocked by", strings.Join(is.BlockedBy, ", "), t.Blocked)
	}
	if len(is.Blocks) > 0 {
		row("Blocks", strings.Join(is.Blocks, ", "), t.Text)
	}
	if d := strings.TrimSpace(is.Description); d != "" {
		b.WriteString("\n")
		for _, l := range wrapLines(d, inner, max(1, height-16)) {
			b.WriteString(t.Base.Render(l))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(t.Dim.Render("enter: open"))
	return t.Panel.Width(inner).MaxHeight(height).Render(b.String())
}
