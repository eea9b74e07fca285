package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elmateo487/bdui-compact-kanban/internal/datasource"
	"github.com/elmateo487/bdui-compact-kanban/pkg/loader"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/reload"
	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
	"github.com/elmateo487/bdui-compact-kanban/pkg/testutil"
	"github.com/elmateo487/bdui-compact-kanban/pkg/writer"
)

type fakeReloader struct{ calls int }

func (f *fakeReloader) Reload(context.Context) (reload.Update, error) {
	f.calls++
	return reload.Update{}, nil
}

type fakeMutator struct {
	created []writer.CreateParams
	updated []writer.UpdateParams
	deleted []string
	err     error
}

func (f *fakeMutator) Create(_ context.Context, p writer.CreateParams) (string, error) {
	f.created = append(f.created, p)
	return "bd-new", f.err
}

func (f *fakeMutator) Update(_ context.Context, p writer.UpdateParams) error {
	f.updated = append(f.updated, p)
	return f.err
}

func (f *fakeMutator) Delete(_ context.Context, id, _ string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeMutator) Known(context.Context) ([]string, []string, error) {
	return []string{"carol"}, []string{"backend"}, nil
}

// boardSnapshot: A (P0) is the parent of B; C blocks D.
func boardSnapshot() *datasource.Snapshot {
	return testutil.NewSnapshot().
		Issue("A", model.StatusOpen, 0).
		Issue("B", model.StatusOpen, 1).
		Issue("C", model.StatusInProgress, 2).
		Issue("D", model.StatusOpen, 3).
		With(func(is *model.Issue) { is.Assignee = "alice" }).
		Parent("A", "B").
		Blocks("C", "D").
		Build()
}

func newTestModel(t *testing.T) (Model, *fakeReloader, *fakeMutator) {
	t.Helper()
	g, err := loader.Build(boardSnapshot())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	store := state.New(state.Options{PageSize: 3, ToastDuration: time.Millisecond})
	store.SetGraph(g)

	r, w := &fakeReloader{}, &fakeMutator{}
	m := New(Options{Store: store, Reloader: r, Writer: w})
	m = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	return m, r, w
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		m = update(t, m, keyMsg(k))
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// runCmds executes cmd and every command batched inside it.
func runCmds(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmds(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func toastText(m Model) string {
	toast, ok := m.store.Toast()
	if !ok {
		return ""
	}
	return toast.Message
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected a command for q")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}

func TestViewSwitching(t *testing.T) {
	m, _, _ := newTestModel(t)
	cases := []struct {
		key  string
		want state.ViewMode
	}{
		{"2", state.ViewTree},
		{"3", state.ViewGraph},
		{"4", state.ViewStats},
		{"5", state.ViewDashboard},
		{"1", state.ViewKanban},
	}
	for _, tc := range cases {
		m = press(t, m, tc.key)
		if got := m.store.ViewMode(); got != tc.want {
			t.Fatalf("after %q view = %v, want %v", tc.key, got, tc.want)
		}
		if v := m.View(); v == "" {
			t.Fatalf("view %v rendered nothing", tc.want)
		}
	}
}

func TestRefreshReloadsAndToasts(t *testing.T) {
	m, r, _ := newTestModel(t)
	updated, cmd := m.Update(keyMsg("r"))
	m = updated.(Model)
	if got := toastText(m); got != "Data refreshed" {
		t.Fatalf("toast = %q", got)
	}
	runCmds(cmd)
	if r.calls != 1 {
		t.Fatalf("reload calls = %d, want 1", r.calls)
	}
}

func TestUndoMessages(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "u")
	if got := toastText(m); got != "Nothing to undo" {
		t.Fatalf("toast = %q", got)
	}

	m.store.PushUndo(state.UndoEntry{Action: "update", IssueID: "A"})
	m = press(t, m, "u")
	if got := toastText(m); got != "Undo available: update on A" {
		t.Fatalf("toast = %q", got)
	}
	if m.store.UndoLen() != 0 {
		t.Fatalf("undo entry not popped")
	}
}

func TestClearFilters(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.store.SetAssignee("alice")
	if !m.store.HasActiveFilters() {
		t.Fatal("filter not applied")
	}
	m = press(t, m, "c")
	if m.store.HasActiveFilters() {
		t.Fatal("filters still active after c")
	}
	if got := toastText(m); got != "Filters cleared" {
		t.Fatalf("toast = %q", got)
	}
}

func TestLoadErrorBlocksUntilNextGraph(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, GraphLoadedMsg{Update: reload.Update{Err: datasource.ErrStorageUnavailable}})
	if m.store.Graph() != nil {
		t.Fatal("graph still exposed after a failed load")
	}
	if !strings.Contains(m.View(), "Could not load beads") {
		t.Fatalf("error view not shown:\n%s", m.View())
	}
	// Navigation keys do nothing while blocked.
	m = press(t, m, "2")
	if m.store.ViewMode() != state.ViewKanban {
		t.Fatal("view changed while the load error was showing")
	}

	g, err := loader.Build(boardSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	m = update(t, m, GraphLoadedMsg{Update: reload.Update{Graph: g}})
	if m.store.Graph() == nil || m.store.LoadError() != nil {
		t.Fatal("successful load did not clear the error")
	}
}

func TestEnterOpensDetailsThenDrillDown(t *testing.T) {
	m, _, _ := newTestModel(t)
	if is := m.store.SelectedIssue(); is == nil || is.ID != "A" {
		t.Fatalf("selected = %v, want A", is)
	}

	m = press(t, m, "enter")
	if !m.store.Overlays().Details || m.store.InDrillDown() {
		t.Fatal("first enter should show the detail panel")
	}
	m = press(t, m, "enter")
	if got := m.store.DrillDownStack(); len(got) != 1 || got[0] != "A" {
		t.Fatalf("stack = %v, want [A]", got)
	}
	if f := m.store.DrillDownFocus(); f.Section != state.SectionSubtasks {
		t.Fatalf("focus = %+v, want subtasks", f)
	}

	m = press(t, m, "enter")
	if got := m.store.DrillDownStack(); len(got) != 2 || got[1] != "B" {
		t.Fatalf("stack = %v, want [A B]", got)
	}
	if !strings.Contains(m.View(), "A › B") {
		t.Fatal("breadcrumb missing from the drill-down view")
	}

	m = press(t, m, "esc", "esc")
	if m.store.InDrillDown() {
		t.Fatal("esc from the root frame should leave the drill-down")
	}
}

func TestListViewEnterPushesDrillDown(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "2", "enter")
	if !m.store.InDrillDown() {
		t.Fatal("enter in tree view should open the drill-down")
	}
	if got := m.store.DrillDownStack()[0]; got != "A" {
		t.Fatalf("drilled into %s, want A", got)
	}
}

func TestDrillDownActionsTargetTopFrame(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "enter", "enter", "enter")
	if is := m.store.DrillDownIssue(); is == nil || is.ID != "B" {
		t.Fatalf("drill-down top = %v, want B", is)
	}

	var copied string
	m.copyText = func(s string) error { copied = s; return nil }
	m = press(t, m, "y")
	if copied != "B" {
		t.Fatalf("copied %q, want B", copied)
	}

	m = press(t, m, "D")
	if c, ok := m.store.PendingConfirm(); !ok || c.IssueID != "B" {
		t.Fatalf("confirm = %+v, %v", c, ok)
	}
	m = press(t, m, "n")

	m = press(t, m, "e")
	if m.store.ViewMode() != state.ViewEditIssue || m.form == nil || m.form.editID != "B" {
		t.Fatal("e in the drill-down should edit B")
	}
}

func TestCreateFormEscReturnsToPreviousView(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "2", "N")
	if m.store.ViewMode() != state.ViewCreateIssue || m.form == nil {
		t.Fatal("N should open the create form")
	}
	if m.form.parent != "A" {
		t.Fatalf("parent = %q, want the tree selection", m.form.parent)
	}
	m = press(t, m, "esc")
	if m.store.ViewMode() != state.ViewTree || m.form != nil {
		t.Fatalf("esc left view %v", m.store.ViewMode())
	}
}

func TestCopyID(t *testing.T) {
	m, _, _ := newTestModel(t)
	var copied string
	m.copyText = func(s string) error { copied = s; return nil }
	m = press(t, m, "y")
	if copied != "A" || toastText(m) != "Copied A to clipboard" {
		t.Fatalf("copied %q, toast %q", copied, toastText(m))
	}

	m.copyText = func(string) error { return errors.New("no clipboard utility") }
	m = press(t, m, "y")
	if got := toastText(m); got != "Clipboard error: no clipboard utility" {
		t.Fatalf("toast = %q", got)
	}
}

func TestEditSubmit(t *testing.T) {
	m, _, w := newTestModel(t)
	m = press(t, m, "e")
	if m.store.ViewMode() != state.ViewEditIssue || m.form == nil || m.form.editID != "A" {
		t.Fatal("e should open the edit form for A")
	}

	// Unchanged values never reach bd.
	updated, _ := m.submitForm()
	m = updated.(Model)
	if m.store.ViewMode() != state.ViewKanban || toastText(m) != "No changes" {
		t.Fatalf("view = %v toast = %q", m.store.ViewMode(), toastText(m))
	}

	m = press(t, m, "e")
	m.form.title = "  Renamed  "
	updated, cmd := m.submitForm()
	m = updated.(Model)
	if !m.form.submitting {
		t.Fatal("form should be submitting")
	}
	msgs := runCmds(cmd)
	if len(w.updated) != 1 {
		t.Fatalf("updates = %d", len(w.updated))
	}
	p := w.updated[0]
	if p.Title == nil || *p.Title != "Renamed" || p.Priority != nil || p.SetLabels {
		t.Fatalf("params = %+v", p)
	}
	if len(msgs) != 1 {
		t.Fatalf("msgs = %v", msgs)
	}
	done, ok := msgs[0].(mutationDoneMsg)
	if !ok || done.Previous["title"] != "Issue A" {
		t.Fatalf("done = %+v", msgs[0])
	}
}

func TestMutationSuccessRecordsUndo(t *testing.T) {
	m, r, _ := newTestModel(t)
	m = press(t, m, "e")
	updated, cmd := m.Update(mutationDoneMsg{Action: "update", IssueID: "A", FromForm: true, Previous: map[string]any{"title": "x"}})
	m = updated.(Model)
	if m.store.ViewMode() != state.ViewKanban || m.form != nil {
		t.Fatal("form should close after a successful save")
	}
	if toastText(m) != "Updated A" {
		t.Fatalf("toast = %q", toastText(m))
	}
	if h := m.store.UndoHistory(); len(h) != 1 || h[0].IssueID != "A" {
		t.Fatalf("undo = %+v", h)
	}
	runCmds(cmd)
	if r.calls != 1 {
		t.Fatal("a successful mutation should reload")
	}
}

func TestMutationFailureKeepsFormOpen(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "N")
	m.form.title = "Draft"
	m = update(t, m, mutationDoneMsg{Action: "create", FromForm: true, Err: errors.New("failed to create issue: boom")})
	if m.store.ViewMode() != state.ViewCreateIssue || m.form == nil {
		t.Fatal("form closed after a failed save")
	}
	if m.form.err != "failed to create issue: boom" || m.form.title != "Draft" {
		t.Fatalf("form err = %q title = %q", m.form.err, m.form.title)
	}
	if m.store.UndoLen() != 0 {
		t.Fatal("failed mutation recorded undo")
	}
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	m, _, w := newTestModel(t)
	m = press(t, m, "N")
	m.form.title = "   "
	updated, _ := m.submitForm()
	m = updated.(Model)
	if len(w.created) != 0 {
		t.Fatal("bd called with a blank title")
	}
	if m.form.err != writer.ErrTitleRequired.Error() {
		t.Fatalf("err = %q", m.form.err)
	}
}

func TestDeleteConfirm(t *testing.T) {
	m, _, w := newTestModel(t)
	m = press(t, m, "D")
	c, ok := m.store.PendingConfirm()
	if !ok || c.IssueID != "A" {
		t.Fatalf("confirm = %+v, %v", c, ok)
	}
	m = press(t, m, "n")
	if _, ok := m.store.PendingConfirm(); ok {
		t.Fatal("n should dismiss the confirm")
	}

	m = press(t, m, "D")
	updated, cmd := m.Update(keyMsg("y"))
	m = updated.(Model)
	msgs := runCmds(cmd)
	if len(w.deleted) != 1 || w.deleted[0] != "A" {
		t.Fatalf("deleted = %v", w.deleted)
	}
	m = update(t, m, msgs[0])
	if toastText(m) != "Deleted A" {
		t.Fatalf("toast = %q", toastText(m))
	}
}

func TestSearchPromptConsumesKeys(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "/")
	m = press(t, m, "q")
	if m.quitting {
		t.Fatal("q quit while typing a search")
	}
	if m.store.Search() != "q" {
		t.Fatalf("search = %q", m.store.Search())
	}
	m = press(t, m, "esc")
	if m.store.Search() != "" || m.store.Overlays().Search {
		t.Fatal("esc should clear and close the search")
	}
}

func TestJumpPromptAcceptsIssueID(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, ":", "D", "enter")
	if m.store.Overlays().JumpToPage {
		t.Fatal("prompt still open")
	}
	if is := m.store.SelectedIssue(); is == nil || is.ID != "D" {
		t.Fatalf("selected = %v, want D", is)
	}
}

func TestFilterPanelCyclesAssignee(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "f", "l")
	if got := m.store.Filter().Assignee; got != "alice" {
		t.Fatalf("assignee = %q, want alice", got)
	}
	m = press(t, m, "esc")
	if m.store.Overlays().Filter {
		t.Fatal("esc should close the filter panel")
	}
}

func TestThemeSelectorApplies(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "t", "j", "enter")
	if m.store.Theme() != "light" || m.theme.Name != "light" {
		t.Fatalf("theme = %q/%q", m.store.Theme(), m.theme.Name)
	}
	if m.store.Overlays().ThemeSelector {
		t.Fatal("selector should close after applying")
	}
}

func TestKnownValuesFeedSuggestions(t *testing.T) {
	m, _, w := newTestModel(t)
	for _, msg := range runCmds(knownValuesCmd(w)) {
		m = update(t, m, msg)
	}
	got := m.assigneeSuggestions()
	if len(got) != 2 || got[0] != "carol" || got[1] != "alice" {
		t.Fatalf("suggestions = %v", got)
	}
}

func TestNotificationToastExpiresWithIt(t *testing.T) {
	g1, _ := loader.Build(boardSnapshot())
	store := state.New(state.Options{Notifications: true, ToastDuration: time.Millisecond})
	store.SetGraph(g1)
	m := New(Options{Store: store})

	next := boardSnapshot()
	next.Issues[0].Status = model.StatusClosed
	g2, _ := loader.Build(next)
	updated, cmd := m.Update(GraphLoadedMsg{Update: reload.Update{Graph: g2}})
	m = updated.(Model)
	if !strings.Contains(toastText(m), "A") {
		t.Fatalf("toast = %q", toastText(m))
	}
	for _, msg := range runCmds(cmd) {
		m = update(t, m, msg)
	}
	if _, ok := m.store.Toast(); ok {
		t.Fatal("status-change toast never expired")
	}
}

type fakeSubscriber struct{ fn func(reload.Update) }

func (f *fakeSubscriber) Subscribe(fn func(reload.Update)) func() {
	f.fn = fn
	return func() { f.fn = nil }
}

func TestSubscribeKeepsLatestUpdate(t *testing.T) {
	sub := &fakeSubscriber{}
	ch, unsub := Subscribe(sub)
	sub.fn(reload.Update{Generation: 1})
	sub.fn(reload.Update{Generation: 2})

	msg := WaitForGraphCmd(ch)()
	got, ok := msg.(GraphLoadedMsg)
	if !ok || got.Update.Generation != 2 {
		t.Fatalf("msg = %+v, want generation 2", msg)
	}
	unsub()
	if sub.fn != nil {
		t.Fatal("unsubscribe not forwarded")
	}
}
