package state_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestToast_ExpiryOnlyClearsCurrent(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := state.New(state.Options{Now: fixedClock(now)})

	first := s.ShowToast("Data refreshed", state.SeveritySuccess)
	if first.ID == "" || !first.ExpiresAt.Equal(now.Add(3*time.Second)) {
		t.Fatalf("toast = %+v", first)
	}
	second := s.ShowToast("Filters cleared", state.SeverityInfo)
	if first.ID == second.ID {
		t.Fatal("toast ids collide")
	}

	if s.ExpireToast(first.ID) {
		t.Error("stale timer cleared the newer toast")
	}
	if cur, ok := s.Toast(); !ok || cur.ID != second.ID {
		t.Errorf("current toast = %+v", cur)
	}
	if !s.ExpireToast(second.ID) {
		t.Error("current toast not cleared")
	}
	if _, ok := s.Toast(); ok {
		t.Error("toast still visible")
	}
}

func TestToast_CustomDuration(t *testing.T) {
	s := state.New(state.Options{ToastDuration: time.Second})
	if s.ToastDuration() != time.Second {
		t.Errorf("duration = %v", s.ToastDuration())
	}
	toast := s.ShowToast("x", state.SeverityError)
	if got := toast.ExpiresAt.Sub(toast.CreatedAt); got != time.Second {
		t.Errorf("lifetime = %v", got)
	}
}

func TestUndo_BoundedNewestFirst(t *testing.T) {
	s := state.New(state.Options{})
	for i := 0; i < 12; i++ {
		s.PushUndo(state.UndoEntry{Action: "update", IssueID: fmt.Sprintf("bd-%d", i)})
	}
	if s.UndoLen() != state.DefaultUndoCapacity {
		t.Fatalf("len = %d, want %d", s.UndoLen(), state.DefaultUndoCapacity)
	}

	e, ok := s.PopUndo()
	if !ok || e.IssueID != "bd-11" {
		t.Errorf("newest = %+v", e)
	}
	if e.ID == "" || e.At.IsZero() {
		t.Error("entry identity not filled in")
	}
	if e.String() != "update on bd-11" {
		t.Errorf("String() = %q", e.String())
	}

	hist := s.UndoHistory()
	if hist[len(hist)-1].IssueID != "bd-2" {
		t.Errorf("oldest kept = %s, want bd-2", hist[len(hist)-1].IssueID)
	}

	s.ClearUndo()
	if _, ok := s.PopUndo(); ok {
		t.Error("pop on empty ledger succeeded")
	}
}

func TestUndo_CustomCapacity(t *testing.T) {
	s := state.New(state.Options{UndoCapacity: 2})
	for i := 0; i < 5; i++ {
		s.PushUndo(state.UndoEntry{Action: "delete", IssueID: fmt.Sprint(i)})
	}
	if s.UndoLen() != 2 {
		t.Errorf("len = %d", s.UndoLen())
	}
}

func TestConfirm_ShowHide(t *testing.T) {
	s := state.New(state.Options{})
	if _, ok := s.PendingConfirm(); ok {
		t.Fatal("confirm pending on a new store")
	}
	s.ShowConfirm(state.Confirm{Title: "Delete Issue", Action: "delete", IssueID: "bd-1"})
	c, ok := s.PendingConfirm()
	if !ok || c.IssueID != "bd-1" {
		t.Errorf("confirm = %+v", c)
	}
	s.HideConfirm()
	if _, ok := s.PendingConfirm(); ok {
		t.Error("confirm still pending")
	}
}
