package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elmateo487/bdui-compact-kanban/pkg/metrics"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	defer metrics.Timer(metrics.UIRender)()

	s := m.store
	if s.Graph() == nil {
		if err := s.LoadError(); err != nil {
			return m.renderLoadError(err)
		}
		return m.center(m.theme.Dim.Render("Loading beads…"))
	}

	if c, ok := s.PendingConfirm(); ok {
		return m.center(m.renderConfirm(c))
	}
	if s.Overlays().Help {
		return m.center(m.renderHelp())
	}
	if s.ViewMode().IsForm() && m.form != nil {
		return m.renderForm()
	}

	var sections []string
	if p := m.renderPrompt(); p != "" {
		sections = append(sections, p)
	}
	if f := m.renderFilterSummary(); f != "" {
		sections = append(sections, f)
	}

	height := m.bodyHeight()
	var body string
	switch ov := s.Overlays(); {
	case ov.Filter:
		body = m.center(m.renderFilterPanel())
	case ov.ThemeSelector:
		body = m.center(m.renderThemeSelector())
	case s.InDrillDown():
		body = m.renderDrillDown()
	default:
		body = m.viewBody(height)
	}
	sections = append(sections, m.theme.Renderer.NewStyle().Height(height).MaxHeight(height).Render(body))

	if t := m.renderToast(); t != "" {
		sections = append(sections, t)
	}
	sections = append(sections, m.renderFooter())
	return strings.Join(sections, "\n")
}

func (m Model) renderForm() string {
	body := m.form.view(m.theme)
	return m.theme.Renderer.NewStyle().Padding(1, 2).Render(body) + "\n" + m.renderToast()
}

// renderLoadError blocks the UI until a reload succeeds.
func (m Model) renderLoadError(err error) string {
	t := m.theme
	body := t.Fg(t.Error).Bold(true).Render("Could not load beads") + "\n\n" +
		t.Base.Render(wrapBlock(err.Error(), max(20, m.width-10))) + "\n\n" +
		t.Dim.Render("Retrying when the database changes. ") +
		t.Key.Render("r") + t.Dim.Render(" retry  ") + t.Key.Render("q") + t.Dim.Render(" quit")
	return m.center(t.Panel.BorderForeground(t.Error).Render(body))
}

func (m Model) center(s string) string {
	return lipgloss.Place(m.width, max(1, m.height-1), lipgloss.Center, lipgloss.Center, s)
}

func wrapBlock(s string, width int) string {
	var out []string
	for _, para := range strings.Split(s, "\n") {
		out = append(out, wrapLines(para, width, 20)...)
	}
	return strings.Join(out, "\n")
}
