// Package ui is the Bubble Tea presentation layer over state.Store. All
// state transitions go through the store; this package maps keys to store
// operations, runs bd mutations as commands, and renders.
package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/elmateo487/bdui-compact-kanban/pkg/config"
	"github.com/elmateo487/bdui-compact-kanban/pkg/debug"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/reload"
	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
)

// Options wires a Model to its collaborators. Only Store is required.
type Options struct {
	Store    *state.Store
	Reloader Reloader
	Updates  <-chan reload.Update
	Writer   Mutator
	// BeadsDir receives ui-settings.json; empty disables persistence.
	BeadsDir string
	Renderer *lipgloss.Renderer
	Now      func() time.Time
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

// Model is the root Bubble Tea model.
type Model struct {
	store    *state.Store
	reloader Reloader
	updates  <-chan reload.Update
	writer   Mutator
	beadsDir string
	renderer *lipgloss.Renderer
	now      func() time.Time
	copyText func(string) error

	keys  KeyMap
	help  help.Model
	theme Theme

	width, height int

	search     textinput.Model
	jump       textinput.Model
	filterRow  int
	themeIndex int

	// cursors holds the row cursor of the list views.
	cursors     [state.ViewEditIssue + 1]int
	dashSection int

	form *issueForm
	desc *descriptionCache

	knownAssignees []string
	knownLabels    []string

	quitting bool
}

// New returns a Model over opts.Store.
func New(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Renderer == nil {
		opts.Renderer = lipgloss.DefaultRenderer()
	}
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search title, description or id"
	search.CharLimit = 100

	jump := textinput.New()
	jump.Prompt = "go to: "
	jump.CharLimit = 40

	m := Model{
		store:    opts.Store,
		reloader: opts.Reloader,
		updates:  opts.Updates,
		writer:   opts.Writer,
		beadsDir: opts.BeadsDir,
		renderer: opts.Renderer,
		now:      opts.Now,
		copyText: opts.Clipboard,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		theme:    NewTheme(opts.Renderer, opts.Store.Theme()),
		width:    80,
		height:   24,
		search:   search,
		jump:     jump,
		desc:     &descriptionCache{},
	}
	return m
}

// Store exposes the underlying state, mostly for tests.
func (m Model) Store() *state.Store { return m.store }

// Init starts waiting for reload results and fetches bd's known values.
func (m Model) Init() tea.Cmd {
	return tea.Batch(WaitForGraphCmd(m.updates), knownValuesCmd(m.writer))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.store.SetTerminalSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.syncDescription()
		if m.form != nil {
			m.form.setWidth(m.formWidth())
		}
		return m, nil

	case GraphLoadedMsg:
		cmd := m.applyUpdate(msg.Update)
		return m, tea.Batch(cmd, WaitForGraphCmd(m.updates))

	case toastExpiredMsg:
		m.store.ExpireToast(msg.ID)
		return m, nil

	case knownValuesMsg:
		m.knownAssignees, m.knownLabels = msg.Assignees, msg.Labels
		return m, nil

	case mutationDoneMsg:
		return m.handleMutation(msg)

	case reloadFailedMsg:
		return m, m.toast("Reload failed: "+msg.Err.Error(), state.SeverityError)
	}

	if m.form != nil && m.store.ViewMode().IsForm() {
		return m.updateForm(msg)
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(k)
	}
	return m, nil
}

// applyUpdate hands a reload result to the store in one step.
func (m *Model) applyUpdate(u reload.Update) tea.Cmd {
	if u.Err != nil {
		debug.Log("ui: load failed: %v", u.Err)
		m.store.SetLoadError(u.Err)
		return nil
	}
	before, _ := m.store.Toast()
	m.store.SetGraph(u.Graph)
	m.clampListCursors()
	m.syncDescription()
	if after, ok := m.store.Toast(); ok && after.ID != before.ID {
		return expireToastCmd(after.ID, m.store.ToastDuration())
	}
	return nil
}

func (m Model) toast(msg string, sev state.Severity) tea.Cmd {
	t := m.store.ShowToast(msg, sev)
	return expireToastCmd(t.ID, m.store.ToastDuration())
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.store
	ov := s.Overlays()

	if c, ok := s.PendingConfirm(); ok {
		return m.handleConfirmKey(msg, c)
	}
	// Prompts with a text input get every key.
	if ov.Search {
		return m.handleSearchKey(msg)
	}
	if ov.JumpToPage {
		return m.handleJumpKey(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		s.ToggleHelp()
		return m, nil
	}
	if ov.Help {
		if msg.String() == "esc" {
			s.ToggleHelp()
		}
		return m, nil
	}

	if s.Graph() == nil {
		if key.Matches(msg, m.keys.Refresh) {
			return m, reloadCmd(m.reloader)
		}
		return m, nil
	}

	if ov.Filter {
		return m.handleFilterKey(msg)
	}
	if ov.ThemeSelector {
		return m.handleThemeKey(msg)
	}
	if s.InDrillDown() {
		return m.handleDrillDownKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		s.CloseOverlays()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(reloadCmd(m.reloader), m.toast("Data refreshed", state.SeverityInfo))

	case key.Matches(msg, m.keys.Undo):
		if e, ok := s.PopUndo(); ok {
			return m, m.toast("Undo available: "+e.String(), state.SeverityInfo)
		}
		return m, m.toast("Nothing to undo", state.SeverityInfo)

	case key.Matches(msg, m.keys.Search):
		s.ToggleSearch()
		m.search.SetValue(s.Search())
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Filter):
		s.ToggleFilter()
		m.filterRow = 0
		return m, nil

	case key.Matches(msg, m.keys.ClearFilters):
		s.ClearFilters()
		m.clampListCursors()
		return m, m.toast("Filters cleared", state.SeverityInfo)

	case key.Matches(msg, m.keys.JumpToPage):
		s.ToggleJumpToPage()
		m.jump.Reset()
		return m, m.jump.Focus()

	case key.Matches(msg, m.keys.Last):
		m.moveList(1 << 30)
		return m, nil

	case key.Matches(msg, m.keys.First):
		m.moveList(-1 << 30)
		return m, nil

	case key.Matches(msg, m.keys.Create):
		s.EnterCreateForm()
		parent := ""
		if m.isListView() {
			parent = m.listSelection()
		}
		m.form = newCreateForm(parent)
		return m, m.form.build(m.formWidth(), m.assigneeSuggestions())

	case key.Matches(msg, m.keys.Edit):
		return m.editCurrent()

	case key.Matches(msg, m.keys.Delete):
		return m.confirmDeleteCurrent()

	case key.Matches(msg, m.keys.Theme):
		s.ToggleThemeSelector()
		m.themeIndex = 0
		for i, name := range ThemeNames() {
			if name == m.theme.Name {
				m.themeIndex = i
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.BlockedColumn):
		if s.ViewMode() != state.ViewKanban {
			return m, nil
		}
		s.ToggleBlockedColumn()
		on := s.Overlays().BlockedColumn
		config.UpdateUISettings(m.beadsDir, func(us *config.UISettings) { us.ShowBlockedColumn = on })
		return m, nil

	case key.Matches(msg, m.keys.Details):
		s.ToggleDetails()
		on := s.Overlays().Details
		config.UpdateUISettings(m.beadsDir, func(us *config.UISettings) { us.ShowDetails = on })
		return m, nil

	case key.Matches(msg, m.keys.Open):
		return m.openSelection()

	case key.Matches(msg, m.keys.Notifications):
		s.ToggleNotifications()
		if s.Overlays().Notifications {
			return m, m.toast("Notifications on", state.SeverityInfo)
		}
		return m, m.toast("Notifications off", state.SeverityInfo)

	case key.Matches(msg, m.keys.CopyID):
		return m.copyCurrentID()

	case key.Matches(msg, m.keys.Kanban):
		s.SetViewMode(state.ViewKanban)
	case key.Matches(msg, m.keys.Tree):
		s.SetViewMode(state.ViewTree)
	case key.Matches(msg, m.keys.Graph):
		s.SetViewMode(state.ViewGraph)
	case key.Matches(msg, m.keys.Stats):
		s.SetViewMode(state.ViewStats)
	case key.Matches(msg, m.keys.Dashboard):
		s.SetViewMode(state.ViewDashboard)

	case key.Matches(msg, m.keys.Up):
		m.moveList(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveList(1)
	case key.Matches(msg, m.keys.Left):
		if s.ViewMode() == state.ViewDashboard {
			m.dashSection = (m.dashSection + len(dashSections) - 1) % len(dashSections)
			m.cursors[state.ViewDashboard] = 0
			m.clampListCursors()
		} else {
			s.MoveLeft()
		}
	case key.Matches(msg, m.keys.Right):
		if s.ViewMode() == state.ViewDashboard {
			m.dashSection = (m.dashSection + 1) % len(dashSections)
			m.cursors[state.ViewDashboard] = 0
			m.clampListCursors()
		} else {
			s.MoveRight()
		}
	}
	return m, nil
}

// openSelection implements enter outside the drill-down. On the board it
// shows the detail panel first and opens the drill-down from there.
func (m Model) openSelection() (tea.Model, tea.Cmd) {
	s := m.store
	if m.isListView() {
		if id := m.listSelection(); id != "" {
			s.PushDrillDown(id)
			m.syncDescription()
		}
		return m, nil
	}
	if s.ViewMode() != state.ViewKanban {
		return m, nil
	}
	if s.Overlays().Details {
		s.OpenDrillDown()
		m.syncDescription()
	} else {
		s.ToggleDetails()
	}
	return m, nil
}

func (m Model) handleDrillDownKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.store
	switch {
	case key.Matches(msg, m.keys.Back):
		s.PopDrillDown()
	case key.Matches(msg, m.keys.Open):
		if id := s.FocusedChild(); id != "" {
			s.PushDrillDown(id)
		}
	case key.Matches(msg, m.keys.Up):
		s.DrillDownUp()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		s.DrillDownDown()
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		return m.editCurrent()
	case key.Matches(msg, m.keys.Delete):
		return m.confirmDeleteCurrent()
	case key.Matches(msg, m.keys.CopyID):
		return m.copyCurrentID()
	default:
		return m, nil
	}
	m.syncDescription()
	return m, nil
}

// The actions below work on currentIssue, which is the top drill-down frame
// while one is open.

func (m Model) editCurrent() (tea.Model, tea.Cmd) {
	is := m.currentIssue()
	if is == nil {
		return m, m.toast("No issue selected", state.SeverityInfo)
	}
	m.store.EnterEditForm(is.ID)
	m.form = newEditForm(is)
	return m, m.form.build(m.formWidth(), m.assigneeSuggestions())
}

func (m Model) confirmDeleteCurrent() (tea.Model, tea.Cmd) {
	is := m.currentIssue()
	if is == nil {
		return m, m.toast("No issue selected", state.SeverityInfo)
	}
	m.store.ShowConfirm(state.Confirm{
		Title:   "Delete Issue",
		Message: fmt.Sprintf("Permanently delete %s and its subtasks?", is.ID),
		Action:  "delete",
		IssueID: is.ID,
	})
	return m, nil
}

func (m Model) copyCurrentID() (tea.Model, tea.Cmd) {
	is := m.currentIssue()
	if is == nil {
		return m, m.toast("No issue selected", state.SeverityError)
	}
	if err := m.copyText(is.ID); err != nil {
		return m, m.toast("Clipboard error: "+err.Error(), state.SeverityError)
	}
	return m, m.toast("Copied "+is.ID+" to clipboard", state.SeveritySuccess)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg, c state.Confirm) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.store.HideConfirm()
		is := m.store.Issue(c.IssueID)
		if is == nil || c.Action != "delete" {
			return m, nil
		}
		if m.writer == nil {
			return m, m.toast("bd is not available", state.SeverityError)
		}
		return m, deleteCmd(m.writer, is)
	case "n", "N", "esc":
		m.store.HideConfirm()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.store
	switch msg.String() {
	case "enter":
		s.ToggleSearch()
		m.search.Blur()
		return m, nil
	case "esc":
		s.SetSearch("")
		s.ToggleSearch()
		m.search.Reset()
		m.search.Blur()
		m.clampListCursors()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	s.SetSearch(m.search.Value())
	m.clampListCursors()
	return m, cmd
}

func (m Model) handleJumpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.store
	switch msg.String() {
	case "enter":
		v := strings.TrimSpace(m.jump.Value())
		m.jump.Blur()
		if n, err := strconv.Atoi(v); err == nil {
			s.SetViewMode(state.ViewKanban)
			s.JumpToPage(n)
			return m, nil
		}
		s.ToggleJumpToPage()
		// Anything that is not a page number is looked up as an issue id.
		if v == "" {
			return m, nil
		}
		s.SetViewMode(state.ViewKanban)
		if !s.SelectIssueByID(v) {
			return m, m.toast("No issue matches "+v, state.SeverityError)
		}
		return m, nil
	case "esc":
		s.ToggleJumpToPage()
		m.jump.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m Model) handleThemeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	names := ThemeNames()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.themeIndex = max(0, m.themeIndex-1)
	case key.Matches(msg, m.keys.Down):
		m.themeIndex = min(len(names)-1, m.themeIndex+1)
	case key.Matches(msg, m.keys.Open):
		name := names[m.themeIndex]
		m.store.SetTheme(name)
		m.theme = NewTheme(m.renderer, name)
		m.store.ToggleThemeSelector()
		m.desc.invalidate()
		m.syncDescription()
		config.UpdateUISettings(m.beadsDir, func(us *config.UISettings) { us.CurrentTheme = name })
		return m, m.toast("Theme: "+name, state.SeveritySuccess)
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Theme):
		m.store.ToggleThemeSelector()
	}
	return m, nil
}

func (m Model) handleMutation(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if msg.FromForm && m.form != nil {
			m.form.fail(msg.Err)
			return m, m.form.build(m.formWidth(), m.assigneeSuggestions())
		}
		return m, m.toast(msg.Err.Error(), state.SeverityError)
	}
	if msg.FromForm {
		m.store.ReturnToPreviousView()
		m.form = nil
	}
	m.store.PushUndo(state.UndoEntry{Action: msg.Action, IssueID: msg.IssueID, Previous: msg.Previous})

	var text string
	switch msg.Action {
	case "create":
		text = "Created " + msg.IssueID
	case "update":
		text = "Updated " + msg.IssueID
	case "delete":
		text = "Deleted " + msg.IssueID
	default:
		text = msg.Action + " " + msg.IssueID
	}
	return m, tea.Batch(m.toast(text, state.SeveritySuccess), reloadCmd(m.reloader))
}

// currentIssue is the issue an edit or delete applies to.
func (m Model) currentIssue() *model.Issue {
	if is := m.store.DrillDownIssue(); is != nil {
		return is
	}
	if m.isListView() {
		return m.store.Issue(m.listSelection())
	}
	if m.store.ViewMode() == state.ViewKanban {
		return m.store.SelectedIssue()
	}
	return nil
}

func (m Model) assigneeSuggestions() []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range [][]string{m.knownAssignees, m.store.KnownAssignees()} {
		for _, a := range list {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

func (m Model) formWidth() int {
	return clampInt(m.width-4, 40, 100)
}

// bodyHeight is the space left for the main view.
func (m Model) bodyHeight() int {
	h := m.height - 2
	if _, ok := m.store.Toast(); ok {
		h--
	}
	ov := m.store.Overlays()
	if ov.Search || ov.JumpToPage {
		h--
	}
	if m.store.HasActiveFilters() {
		h--
	}
	return max(h, 3)
}
