package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/elmateo487/bdui-compact-kanban/pkg/debug"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
)

// descriptionCache keeps the last rendered description. Glamour rendering
// is slow enough that redoing it on every frame shows.
type descriptionCache struct {
	id     string
	source string
	width  int
	style  string
	lines  []string
}

func (c *descriptionCache) invalidate() { *c = descriptionCache{} }

func (c *descriptionCache) render(is *model.Issue, width int, style string) []string {
	if c.id == is.ID && c.source == is.Description && c.width == width && c.style == style {
		return c.lines
	}
	*c = descriptionCache{id: is.ID, source: is.Description, width: width, style: style}
	if strings.TrimSpace(is.Description) == "" {
		return nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	var out string
	if err == nil {
		out, err = r.Render(is.Description)
	}
	if err != nil {
		debug.Log("ui: markdown render failed for %s: %v", is.ID, err)
		for _, para := range strings.Split(is.Description, "\n") {
			c.lines = append(c.lines, wrapLines(para, width, 1<<10)...)
		}
		return c.lines
	}
	c.lines = strings.Split(strings.Trim(out, "\n"), "\n")
	return c.lines
}

func (m Model) descWidth() int { return max(20, m.width-6) }

// descPageSize is the number of description lines the drill-down shows.
func (m Model) descPageSize() int {
	is := m.store.DrillDownIssue()
	if is == nil {
		return 1
	}
	listRows := len(is.BlockedBy) + len(is.Blocks) + len(is.Children)
	return max(3, m.height-14-listRows)
}

// syncDescription renders the top frame's description and reports its
// geometry to the store.
func (m *Model) syncDescription() {
	is := m.store.DrillDownIssue()
	if is == nil {
		return
	}
	lines := m.desc.render(is, m.descWidth(), m.theme.Markdown)
	page := m.descPageSize()
	m.store.SetDescriptionViewport(page, max(0, len(lines)-page))
}

func (m Model) renderDrillDown() string {
	t := m.theme
	s := m.store
	is := s.DrillDownIssue()
	if is == nil {
		return ""
	}
	focus := s.DrillDownFocus()
	width := max(20, m.width-2)

	var b strings.Builder
	b.WriteString(t.Dim.Render(truncate(strings.Join(s.DrillDownStack(), " › "), width)))
	b.WriteString("\n")
	b.WriteString(t.Title.Render(truncate(is.ID+"  "+is.Title, width)))
	b.WriteString("\n")
	b.WriteString(m.issueMeta(is))
	b.WriteString("\n\n")

	list := func(sec state.Section, title string, ids []string) {
		head := fmt.Sprintf("%s (%d)", title, len(ids))
		if sec == state.SectionSubtasks && len(ids) > 0 {
			head = fmt.Sprintf("%s (%d/%d done)", title, is.ClosedChildren, len(ids))
		}
		m.writeSectionHeader(&b, head, focus.Section == sec)
		if len(ids) == 0 {
			b.WriteString(t.Dim.Render("  none"))
			b.WriteString("\n")
			return
		}
		for i, id := range ids {
			focused := focus.Section == sec && focus.Index == i
			b.WriteString(m.issueLine(s.Issue(id), id, focused, width))
			b.WriteString("\n")
		}
	}

	list(state.SectionBlockedBy, "Blocked by", is.BlockedBy)
	list(state.SectionBlocks, "Blocks", is.Blocks)

	m.writeSectionHeader(&b, "Description", focus.Section == state.SectionDescription)
	lines := m.desc.render(is, m.descWidth(), t.Markdown)
	if len(lines) == 0 {
		b.WriteString(t.Dim.Render("  no description"))
		b.WriteString("\n")
	} else {
		off, maxScroll := s.DescriptionScroll()
		off = min(off, len(lines))
		end := min(len(lines), off+m.descPageSize())
		for _, l := range lines[off:end] {
			b.WriteString(l)
			b.WriteString("\n")
		}
		if off < maxScroll {
			b.WriteString(t.Dim.Render(fmt.Sprintf("  ↓ %d more lines", len(lines)-end)))
			b.WriteString("\n")
		}
	}

	list(state.SectionSubtasks, "Subtasks", is.Children)
	return b.String()
}

func (m Model) writeSectionHeader(b *strings.Builder, title string, focused bool) {
	style := m.theme.Bold
	marker := "  "
	if focused {
		style = m.theme.Fg(m.theme.Selected).Bold(true)
		marker = "▸ "
	}
	b.WriteString(style.Render(marker + title))
	b.WriteString("\n")
}

// issueLine renders one related issue inside a list. Ids missing from the
// graph still show so dangling edges are visible.
func (m Model) issueLine(is *model.Issue, id string, focused bool, width int) string {
	t := m.theme
	prefix := "    "
	if focused {
		prefix = "  ▸ "
	}
	if is == nil {
		return t.Dim.Render(prefix + id + " (not found)")
	}
	status := t.Fg(t.StatusColor(is.Status)).Render(fmt.Sprintf("[%s]", is.Status))
	text := truncate(fmt.Sprintf("%s%s %s", prefix, is.ID, is.Title), max(10, width-16))
	if focused {
		text = t.Fg(t.Selected).Bold(true).Render(text)
	} else {
		text = t.Base.Render(text)
	}
	return text + " " + status
}

// issueMeta is the one-line status, priority, type and owner summary.
func (m Model) issueMeta(is *model.Issue) string {
	t := m.theme
	parts := []string{
		t.Fg(t.StatusColor(is.Status)).Render(is.Status.Label()),
		t.Fg(t.PriorityColor(is.Priority)).Render(fmt.Sprintf("P%d %s", is.Priority, model.PriorityLabel(is.Priority))),
		t.Fg(t.TypeColor(is.DisplayType())).Render(is.DisplayType()),
	}
	if is.Assignee != "" {
		parts = append(parts, t.Base.Render("@"+is.Assignee))
	}
	if len(is.Labels) > 0 {
		parts = append(parts, t.Dim.Render(strings.Join(is.Labels, ", ")))
	}
	if is.Parent != "" {
		parts = append(parts, t.Dim.Render("parent "+is.Parent))
	}
	return strings.Join(parts, t.Dim.Render(" · "))
}
