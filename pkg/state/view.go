package state

import "github.com/elmateo487/bdui-compact-kanban/pkg/model"

// ViewMode selects the main screen.
type ViewMode int

const (
	ViewKanban ViewMode = iota
	ViewTree
	ViewGraph
	ViewStats
	ViewDashboard
	ViewCreateIssue
	ViewEditIssue
)

func (v ViewMode) String() string {
	switch v {
	case ViewKanban:
		return "kanban"
	case ViewTree:
		return "tree"
	case ViewGraph:
		return "graph"
	case ViewStats:
		return "stats"
	case ViewDashboard:
		return "dashboard"
	case ViewCreateIssue:
		return "create-issue"
	case ViewEditIssue:
		return "edit-issue"
	}
	return "unknown"
}

// Title is the name shown in the footer.
func (v ViewMode) Title() string {
	switch v {
	case ViewKanban:
		return "Kanban"
	case ViewTree:
		return "Tree"
	case ViewGraph:
		return "Graph"
	case ViewStats:
		return "Stats"
	case ViewDashboard:
		return "Dashboard"
	case ViewCreateIssue:
		return "New Issue"
	case ViewEditIssue:
		return "Edit Issue"
	}
	return ""
}

// IsForm reports whether v is one of the issue forms.
func (v ViewMode) IsForm() bool {
	return v == ViewCreateIssue || v == ViewEditIssue
}

// Overlays are the toggleable panels and prompts drawn over the main view.
type Overlays struct {
	Help          bool
	Details       bool
	Search        bool
	Filter        bool
	JumpToPage    bool
	ThemeSelector bool
	BlockedColumn bool
	Notifications bool
}

// ViewMode returns the current view.
func (s *Store) ViewMode() ViewMode { return s.view }

// PreviousView returns the view a form returns to.
func (s *Store) PreviousView() ViewMode { return s.previous }

// SetViewMode switches views. Entering a form remembers the current view
// unless the current view is itself a form; entering a regular view makes
// it the remembered one too.
func (s *Store) SetViewMode(v ViewMode) {
	if v.IsForm() {
		if !s.view.IsForm() {
			s.previous = s.view
		}
		s.view = v
		return
	}
	s.view = v
	s.previous = v
}

// EnterCreateForm opens the create form.
func (s *Store) EnterCreateForm() {
	s.editID = ""
	s.SetViewMode(ViewCreateIssue)
}

// EnterEditForm opens the edit form for id.
func (s *Store) EnterEditForm(id string) {
	s.editID = id
	s.SetViewMode(ViewEditIssue)
}

// EditTarget returns the id being edited.
func (s *Store) EditTarget() string { return s.editID }

// ReturnToPreviousView leaves a form for the remembered view.
func (s *Store) ReturnToPreviousView() {
	s.view = s.previous
	s.editID = ""
}

// Overlays returns the overlay flags.
func (s *Store) Overlays() Overlays { return s.overlays }

// ToggleHelp shows or hides the help overlay.
func (s *Store) ToggleHelp() { s.overlays.Help = !s.overlays.Help }

// ToggleDetails shows or hides the details side panel.
func (s *Store) ToggleDetails() { s.overlays.Details = !s.overlays.Details }

// SetDetails sets the details side panel visibility.
func (s *Store) SetDetails(on bool) { s.overlays.Details = on }

// ToggleNotifications turns status-change toasts on or off.
func (s *Store) ToggleNotifications() { s.overlays.Notifications = !s.overlays.Notifications }

// ToggleSearch opens or closes the search bar. Opening it closes the filter
// bar.
func (s *Store) ToggleSearch() {
	s.overlays.Search = !s.overlays.Search
	if s.overlays.Search {
		s.overlays.Filter = false
		s.overlays.ThemeSelector = false
	}
}

// ToggleFilter opens or closes the filter bar. Opening it closes the search
// bar.
func (s *Store) ToggleFilter() {
	s.overlays.Filter = !s.overlays.Filter
	if s.overlays.Filter {
		s.overlays.Search = false
		s.overlays.ThemeSelector = false
	}
}

// ToggleThemeSelector opens or closes the theme picker.
func (s *Store) ToggleThemeSelector() {
	s.overlays.ThemeSelector = !s.overlays.ThemeSelector
	if s.overlays.ThemeSelector {
		s.overlays.Search = false
		s.overlays.Filter = false
	}
}

// ToggleJumpToPage opens or closes the page prompt, closing every other
// input overlay.
func (s *Store) ToggleJumpToPage() {
	s.overlays.JumpToPage = !s.overlays.JumpToPage
	s.overlays.Search = false
	s.overlays.Filter = false
	s.overlays.ThemeSelector = false
}

// ToggleBlockedColumn shows or hides the blocked column. Hiding it moves
// the selection off the column.
func (s *Store) ToggleBlockedColumn() {
	s.SetBlockedColumn(!s.overlays.BlockedColumn)
}

// SetBlockedColumn sets the blocked column visibility.
func (s *Store) SetBlockedColumn(on bool) {
	s.overlays.BlockedColumn = on
	if !on && s.active == model.BucketBlocked {
		s.MoveLeft()
	}
}

// CloseOverlays closes every transient overlay. It reports whether any was
// open.
func (s *Store) CloseOverlays() bool {
	o := &s.overlays
	open := o.Help || o.Search || o.Filter || o.JumpToPage || o.ThemeSelector || s.confirm != nil
	o.Help, o.Search, o.Filter, o.JumpToPage, o.ThemeSelector = false, false, false, false, false
	s.confirm = nil
	return open
}
