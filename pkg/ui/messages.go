package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/reload"
	"github.com/elmateo487/bdui-compact-kanban/pkg/writer"
)

// Reloader runs a manual reload. *reload.Service satisfies it.
type Reloader interface {
	Reload(ctx context.Context) (reload.Update, error)
}

// Subscriber delivers reload results. *reload.Service satisfies it.
type Subscriber interface {
	Subscribe(fn func(reload.Update)) (unsubscribe func())
}

// Mutator applies mutations through bd. *writer.IssueWriter satisfies it.
type Mutator interface {
	Create(ctx context.Context, p writer.CreateParams) (string, error)
	Update(ctx context.Context, p writer.UpdateParams) error
	Delete(ctx context.Context, id, reason string) error
	Known(ctx context.Context) (assignees, labels []string, err error)
}

// GraphLoadedMsg carries one reload result into the event loop.
type GraphLoadedMsg struct {
	Update reload.Update
}

// toastExpiredMsg clears the toast with ID if it is still showing.
type toastExpiredMsg struct{ ID string }

// mutationDoneMsg reports a finished bd command.
type mutationDoneMsg struct {
	Action   string
	IssueID  string
	Previous map[string]any
	FromForm bool
	Err      error
}

// knownValuesMsg carries the assignees and labels bd knows about.
type knownValuesMsg struct {
	Assignees []string
	Labels    []string
}

// reloadFailedMsg reports a manual reload that could not run.
type reloadFailedMsg struct{ Err error }

// Subscribe bridges reload results onto a channel the event loop can wait
// on. The channel holds one pending update; a newer result replaces an
// unread one so the reload service never blocks on the UI.
func Subscribe(s Subscriber) (<-chan reload.Update, func()) {
	ch := make(chan reload.Update, 1)
	unsub := s.Subscribe(func(u reload.Update) {
		for {
			select {
			case ch <- u:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	return ch, unsub
}

// WaitForGraphCmd waits for the next reload result.
func WaitForGraphCmd(ch <-chan reload.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return GraphLoadedMsg{Update: u}
	}
}

func expireToastCmd(id string, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return toastExpiredMsg{ID: id}
	})
}

func reloadCmd(r Reloader) tea.Cmd {
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		// Load failures arrive through the subscription like any other
		// result; only a stopped service produces no update.
		if _, err := r.Reload(context.Background()); errors.Is(err, reload.ErrStopped) {
			return reloadFailedMsg{Err: err}
		}
		return nil
	}
}

func knownValuesCmd(w Mutator) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		a, l, err := w.Known(context.Background())
		if err != nil {
			return nil
		}
		return knownValuesMsg{Assignees: a, Labels: l}
	}
}

func createCmd(w Mutator, p writer.CreateParams) tea.Cmd {
	return func() tea.Msg {
		id, err := w.Create(context.Background(), p)
		return mutationDoneMsg{Action: "create", IssueID: id, FromForm: true, Err: err}
	}
}

func updateCmd(w Mutator, p writer.UpdateParams, prev map[string]any) tea.Cmd {
	return func() tea.Msg {
		err := w.Update(context.Background(), p)
		return mutationDoneMsg{Action: "update", IssueID: p.ID, Previous: prev, FromForm: true, Err: err}
	}
}

func deleteCmd(w Mutator, is *model.Issue) tea.Cmd {
	prev := map[string]any{"title": is.Title, "status": string(is.Status)}
	id := is.ID
	return func() tea.Msg {
		err := w.Delete(context.Background(), id, "")
		return mutationDoneMsg{Action: "delete", IssueID: id, Previous: prev, Err: err}
	}
}
