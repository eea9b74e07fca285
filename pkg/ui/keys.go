package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the global key layout.
type KeyMap struct {
	Quit          key.Binding
	Help          key.Binding
	Back          key.Binding
	Refresh       key.Binding
	Undo          key.Binding
	Search        key.Binding
	Filter        key.Binding
	ClearFilters  key.Binding
	JumpToPage    key.Binding
	First         key.Binding
	Last          key.Binding
	Create        key.Binding
	Edit          key.Binding
	Delete        key.Binding
	Theme         key.Binding
	BlockedColumn key.Binding
	Details       key.Binding
	Open          key.Binding
	Notifications key.Binding
	CopyID        key.Binding
	Kanban        key.Binding
	Tree          key.Binding
	Graph         key.Binding
	Stats         key.Binding
	Dashboard     key.Binding
	Up            key.Binding
	Down          key.Binding
	Left          key.Binding
	Right         key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Undo:          key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")),
		Search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Filter:        key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		ClearFilters:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		JumpToPage:    key.NewBinding(key.WithKeys(":", "g"), key.WithHelp(":", "jump to page")),
		First:         key.NewBinding(key.WithKeys("0", "home"), key.WithHelp("0", "first")),
		Last:          key.NewBinding(key.WithKeys("G", "$", "end"), key.WithHelp("G", "last")),
		Create:        key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new issue")),
		Edit:          key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:        key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete")),
		Theme:         key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		BlockedColumn: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "blocked column")),
		Details:       key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "details")),
		Open:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Notifications: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
		CopyID:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		Kanban:        key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "kanban")),
		Tree:          key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "tree")),
		Graph:         key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "graph")),
		Stats:         key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "stats")),
		Dashboard:     key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "dashboard")),
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:          key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:         key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Search, k.Filter, k.Create, k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.First, k.Last, k.JumpToPage},
		{k.Open, k.Details, k.CopyID, k.Back, k.Kanban, k.Tree, k.Graph, k.Stats, k.Dashboard},
		{k.Search, k.Filter, k.ClearFilters, k.BlockedColumn, k.Notifications, k.Theme},
		{k.Create, k.Edit, k.Delete, k.Undo, k.Refresh, k.Help, k.Quit},
	}
}
