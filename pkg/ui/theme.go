package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// Palette is the set of colors a theme is built from.
type Palette struct {
	Name string

	Text      lipgloss.Color
	TextDim   lipgloss.Color
	Primary   lipgloss.Color
	Border    lipgloss.Color
	Selected  lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Info      lipgloss.Color
	Highlight lipgloss.Color

	Open       lipgloss.Color
	InProgress lipgloss.Color
	Blocked    lipgloss.Color
	Closed     lipgloss.Color

	// Priority colors from P0 to P4.
	Priority [5]lipgloss.Color

	Epic    lipgloss.Color
	Feature lipgloss.Color
	Bug     lipgloss.Color
	Task    lipgloss.Color
	Chore   lipgloss.Color

	// Markdown is the glamour standard style used for descriptions.
	Markdown string
}

var palettes = []Palette{
	{
		Name: "dark", Text: "#F8F8F2", TextDim: "#6272A4", Primary: "#BD93F9", Border: "#44475A",
		Selected: "#FFA500", Success: "#50FA7B", Warning: "#FFB86C", Error: "#FF5555", Info: "#8BE9FD",
		Highlight: "#44475A",
		Open:      "#50FA7B", InProgress: "#8BE9FD", Blocked: "#FF5555", Closed: "#6272A4",
		Priority: [5]lipgloss.Color{"#FF5555", "#FFB86C", "#F1FA8C", "#8BE9FD", "#6272A4"},
		Epic:     "#BD93F9", Feature: "#57D9A3", Bug: "#FF5555", Task: "#4C9AFF", Chore: "#8BE9FD",
		Markdown: "dark",
	},
	{
		Name: "light", Text: "#1A1A1A", TextDim: "#666666", Primary: "#6B47D9", Border: "#AAAAAA",
		Selected: "#D35400", Success: "#007700", Warning: "#B06800", Error: "#CC0000", Info: "#006080",
		Highlight: "#E0E0E0",
		Open:      "#007700", InProgress: "#006080", Blocked: "#CC0000", Closed: "#555555",
		Priority: [5]lipgloss.Color{"#CC0000", "#B06800", "#8A7A00", "#006080", "#666666"},
		Epic:     "#6B47D9", Feature: "#36B37E", Bug: "#CC0000", Task: "#2684FF", Chore: "#006080",
		Markdown: "light",
	},
	{
		Name: "ocean", Text: "#D8DEE9", TextDim: "#4C566A", Primary: "#88C0D0", Border: "#3B4252",
		Selected: "#EBCB8B", Success: "#A3BE8C", Warning: "#EBCB8B", Error: "#BF616A", Info: "#81A1C1",
		Highlight: "#434C5E",
		Open:      "#A3BE8C", InProgress: "#88C0D0", Blocked: "#BF616A", Closed: "#4C566A",
		Priority: [5]lipgloss.Color{"#BF616A", "#D08770", "#EBCB8B", "#81A1C1", "#4C566A"},
		Epic:     "#B48EAD", Feature: "#A3BE8C", Bug: "#BF616A", Task: "#81A1C1", Chore: "#8FBCBB",
		Markdown: "dark",
	},
	{
		Name: "forest", Text: "#E0E6D6", TextDim: "#6B7A5E", Primary: "#A7C080", Border: "#3D4A3A",
		Selected: "#DBBC7F", Success: "#A7C080", Warning: "#DBBC7F", Error: "#E67E80", Info: "#7FBBB3",
		Highlight: "#3D4A3A",
		Open:      "#A7C080", InProgress: "#7FBBB3", Blocked: "#E67E80", Closed: "#6B7A5E",
		Priority: [5]lipgloss.Color{"#E67E80", "#E69875", "#DBBC7F", "#7FBBB3", "#6B7A5E"},
		Epic:     "#D699B6", Feature: "#A7C080", Bug: "#E67E80", Task: "#7FBBB3", Chore: "#83C092",
		Markdown: "dark",
	},
}

// ThemeNames lists the built-in themes in selector order.
func ThemeNames() []string {
	names := make([]string, len(palettes))
	for i, p := range palettes {
		names[i] = p.Name
	}
	return names
}

// PaletteByName returns the named palette, falling back to the first one.
func PaletteByName(name string) Palette {
	for _, p := range palettes {
		if p.Name == name {
			return p
		}
	}
	return palettes[0]
}

// Theme holds the styles derived from a palette.
type Theme struct {
	Palette
	Renderer *lipgloss.Renderer

	Base       lipgloss.Style
	Dim        lipgloss.Style
	Bold       lipgloss.Style
	Title      lipgloss.Style
	Card       lipgloss.Style
	CardActive lipgloss.Style
	Panel      lipgloss.Style
	Footer     lipgloss.Style
	Key        lipgloss.Style
}

// NewTheme builds the styles for the named theme.
func NewTheme(r *lipgloss.Renderer, name string) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	p := PaletteByName(name)
	return Theme{
		Palette:  p,
		Renderer: r,

		Base:  r.NewStyle().Foreground(p.Text),
		Dim:   r.NewStyle().Foreground(p.TextDim),
		Bold:  r.NewStyle().Foreground(p.Text).Bold(true),
		Title: r.NewStyle().Foreground(p.Primary).Bold(true),
		Card: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border),
		CardActive: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Selected),
		Panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(0, 1),
		Footer: r.NewStyle().Foreground(p.TextDim),
		Key:    r.NewStyle().Foreground(p.Primary).Bold(true),
	}
}

// StatusColor returns the color of a status.
func (t Theme) StatusColor(s model.Status) lipgloss.Color {
	switch s {
	case model.StatusInProgress:
		return t.InProgress
	case model.StatusBlocked:
		return t.Blocked
	case model.StatusClosed:
		return t.Closed
	case model.StatusOpen:
		return t.Open
	}
	return t.Text
}

// BucketColor returns the column color of a bucket.
func (t Theme) BucketColor(b model.Bucket) lipgloss.Color {
	return t.StatusColor(b.Status())
}

// PriorityColor returns the color of a priority.
func (t Theme) PriorityColor(p int) lipgloss.Color {
	if p < model.MinPriority || p > model.MaxPriority {
		return t.TextDim
	}
	return t.Priority[p]
}

// TypeColor returns the color of a display type.
func (t Theme) TypeColor(typ string) lipgloss.Color {
	switch model.IssueType(typ) {
	case model.TypeEpic:
		return t.Epic
	case model.TypeFeature, model.TypeStory:
		return t.Feature
	case model.TypeBug, model.TypeBlocker:
		return t.Bug
	case model.TypeTask, model.TypeAC:
		return t.Task
	case model.TypeChore:
		return t.Chore
	}
	return t.Text
}

// Fg returns a style with the given foreground.
func (t Theme) Fg(c lipgloss.Color) lipgloss.Style {
	return t.Renderer.NewStyle().Foreground(c)
}
