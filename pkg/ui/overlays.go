package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
)

// Fixed rows of the filter panel; label rows follow.
const (
	filterRowAssignee = iota
	filterRowStatus
	filterRowPriority
	filterRowType
	filterFixedRows
)

var filterStatuses = []model.Status{"", model.StatusOpen, model.StatusInProgress, model.StatusBlocked, model.StatusClosed}

// cycle returns the option dir steps from cur, wrapping. A value not in
// opts starts from the first option.
func cycle[T comparable](opts []T, cur T, dir int) T {
	i := slices.Index(opts, cur)
	if i < 0 {
		return opts[0]
	}
	return opts[(i+dir+len(opts))%len(opts)]
}

func (m Model) filterLabels() []string {
	labels := slices.Concat(m.store.KnownLabels(), m.knownLabels)
	slices.Sort(labels)
	return slices.Compact(labels)
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.store
	labels := m.filterLabels()
	rows := filterFixedRows + len(labels)

	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Filter):
		s.ToggleFilter()
		return m, nil
	case key.Matches(msg, m.keys.ClearFilters):
		s.ClearFilters()
		m.clampListCursors()
		return m, m.toast("Filters cleared", state.SeverityInfo)
	case key.Matches(msg, m.keys.Up):
		m.filterRow = max(0, m.filterRow-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.filterRow = min(rows-1, m.filterRow+1)
		return m, nil
	}

	dir := 0
	switch {
	case key.Matches(msg, m.keys.Left):
		dir = -1
	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Details):
		dir = 1
	default:
		return m, nil
	}

	f := s.Filter()
	switch m.filterRow {
	case filterRowAssignee:
		s.SetAssignee(cycle(append([]string{""}, m.assigneeSuggestions()...), f.Assignee, dir))
	case filterRowStatus:
		s.SetStatus(cycle(filterStatuses, f.Status, dir))
	case filterRowPriority:
		cur := -1
		if f.Priority != nil {
			cur = *f.Priority
		}
		next := cycle([]int{-1, 0, 1, 2, 3, 4}, cur, dir)
		if next < 0 {
			s.SetPriority(nil)
		} else {
			s.SetPriority(state.Priority(next))
		}
	case filterRowType:
		types := append([]model.IssueType{""}, model.KnownTypes...)
		s.SetType(cycle(types, f.Type, dir))
	default:
		if i := m.filterRow - filterFixedRows; i < len(labels) {
			s.ToggleLabel(labels[i])
		}
	}
	m.clampListCursors()
	return m, nil
}

func (m Model) renderFilterPanel() string {
	t := m.theme
	f := m.store.Filter()
	orAny := func(v string) string {
		if v == "" {
			return "any"
		}
		return v
	}
	prio := "any"
	if f.Priority != nil {
		prio = fmt.Sprintf("P%d", *f.Priority)
	}

	lines := []string{t.Title.Render("Filters"), ""}
	row := func(i int, label, value string) {
		marker := "  "
		style := t.Base
		if i == m.filterRow {
			marker = "▸ "
			style = t.Fg(t.Selected).Bold(true)
		}
		lines = append(lines, style.Render(marker+padRight(label, 10)+value))
	}
	row(filterRowAssignee, "Assignee", "‹ "+orAny(f.Assignee)+" ›")
	row(filterRowStatus, "Status", "‹ "+orAny(string(f.Status))+" ›")
	row(filterRowPriority, "Priority", "‹ "+prio+" ›")
	row(filterRowType, "Type", "‹ "+orAny(string(f.Type))+" ›")
	for i, l := range m.filterLabels() {
		box := "[ ]"
		if slices.Contains(f.Labels, l) {
			box = "[x]"
		}
		label := ""
		if i == 0 {
			label = "Labels"
		}
		row(filterFixedRows+i, label, box+" "+l)
	}
	lines = append(lines, "", t.Dim.Render("←/→ change · space toggle · c clear · esc close"))
	return t.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) renderThemeSelector() string {
	t := m.theme
	lines := []string{t.Title.Render("Theme"), ""}
	for i, name := range ThemeNames() {
		p := PaletteByName(name)
		swatch := t.Fg(p.Primary).Render("██") + t.Fg(p.Open).Render("██") + t.Fg(p.Blocked).Render("██")
		marker := "  "
		style := t.Base
		if i == m.themeIndex {
			marker = "▸ "
			style = t.Fg(t.Selected).Bold(true)
		}
		lines = append(lines, marker+swatch+" "+style.Render(name))
	}
	lines = append(lines, "", t.Dim.Render("enter apply · esc close"))
	return t.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) renderHelp() string {
	t := m.theme
	h := m.help
	h.ShowAll = true
	body := t.Title.Render("Keyboard shortcuts") + "\n\n" + h.View(m.keys) +
		"\n\n" + t.Dim.Render("drill-down: ↑/↓ move · enter open · esc back") +
		"\n" + t.Dim.Render("press ? or esc to close")
	return t.Panel.Render(body)
}

func (m Model) renderConfirm(c state.Confirm) string {
	t := m.theme
	body := t.Fg(t.Error).Bold(true).Render(c.Title) + "\n\n" +
		t.Base.Render(c.Message) + "\n\n" +
		t.Key.Render("y") + t.Dim.Render(" confirm  ") + t.Key.Render("n") + t.Dim.Render(" cancel")
	return t.Panel.BorderForeground(t.Error).Render(body)
}

func (m Model) renderToast() string {
	toast, ok := m.store.Toast()
	if !ok {
		return ""
	}
	t := m.theme
	c, icon := t.Info, "ℹ"
	switch toast.Severity {
	case state.SeveritySuccess:
		c, icon = t.Success, "✓"
	case state.SeverityError:
		c, icon = t.Error, "✗"
	}
	return t.Fg(c).Bold(true).Render(truncate(icon+" "+toast.Message, max(10, m.width-2)))
}

// renderPrompt is the search or jump input line, if one is open.
func (m Model) renderPrompt() string {
	ov := m.store.Overlays()
	switch {
	case ov.Search:
		return m.search.View()
	case ov.JumpToPage:
		return m.jump.View() + m.theme.Dim.Render(fmt.Sprintf("  (1-%d or an issue id)", m.store.TotalPages()))
	}
	return ""
}

// renderFilterSummary lists the active filters in one line.
func (m Model) renderFilterSummary() string {
	s := m.store
	if !s.HasActiveFilters() {
		return ""
	}
	f := s.Filter()
	var parts []string
	if q := s.Search(); q != "" {
		parts = append(parts, fmt.Sprintf("search %q", q))
	}
	if f.Assignee != "" {
		parts = append(parts, "@"+f.Assignee)
	}
	if f.Status != "" {
		parts = append(parts, "status:"+string(f.Status))
	}
	if f.Priority != nil {
		parts = append(parts, fmt.Sprintf("P%d", *f.Priority))
	}
	if f.Type != "" {
		parts = append(parts, "type:"+string(f.Type))
	}
	for _, l := range f.Labels {
		parts = append(parts, "#"+l)
	}
	n := len(s.FilteredIssues())
	return m.theme.Fg(m.theme.Warning).Render(truncate(
		fmt.Sprintf("Filtered (%d): %s · %d shown · c clear", s.ActiveFilterCount(), strings.Join(parts, " "), n),
		max(10, m.width-2)))
}

func (m Model) renderFooter() string {
	t := m.theme
	s := m.store
	mode := s.ViewMode()
	parts := []string{t.Key.Render("[" + mode.Title() + "]")}
	if s.InDrillDown() {
		parts = append(parts, t.Dim.Render("drill-down"))
	}
	if mode == state.ViewKanban && !s.InDrillDown() {
		parts = append(parts, t.Dim.Render(fmt.Sprintf("%s page %d/%d",
			bucketTitles[s.ActiveBucket()], s.CurrentPage(), s.TotalPages())))
	}
	parts = append(parts, t.Dim.Render(fmt.Sprintf("%d issues", s.Graph().Len())))
	if s.Overlays().Notifications {
		parts = append(parts, t.Dim.Render("🔔"))
	}
	if n := s.UndoLen(); n > 0 {
		parts = append(parts, t.Dim.Render(fmt.Sprintf("undo %d", n)))
	}
	left := strings.Join(parts, t.Dim.Render(" · "))
	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}
