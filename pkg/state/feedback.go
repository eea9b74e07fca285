package state

import (
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Severity classifies a toast.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Toast is a short-lived message. ID distinguishes it from later toasts so a
// stale expiry timer cannot clear a newer one.
type Toast struct {
	ID        string
	Message   string
	Severity  Severity
	CreatedAt time.Time
	ExpiresAt time.Time
}

// UndoEntry describes a mutation well enough to show how to reverse it. It
// does not perform the reversal.
type UndoEntry struct {
	ID       string
	Action   string
	IssueID  string
	Previous map[string]any
	At       time.Time
}

func (e UndoEntry) String() string {
	return fmt.Sprintf("%s on %s", e.Action, e.IssueID)
}

// Confirm is a pending yes/no question. The UI runs Action on confirmation.
type Confirm struct {
	Title   string
	Message string
	Action  string
	IssueID string
}

func newID() string {
	id, err := nanoid.New()
	if err != nil {
		// Only reachable when crypto/rand fails.
		return fmt.Sprintf("t%d", time.Now().UnixNano())
	}
	return id
}

// ShowToast replaces the current toast and returns it. The caller schedules
// ExpireToast(id) after the toast duration.
func (s *Store) ShowToast(msg string, sev Severity) Toast {
	now := s.now()
	t := Toast{
		ID:        newID(),
		Message:   msg,
		Severity:  sev,
		CreatedAt: now,
		ExpiresAt: now.Add(s.toastDuration),
	}
	s.toast = &t
	return t
}

// ExpireToast clears the toast only if id is still the current one. It
// reports whether a toast was cleared.
func (s *Store) ExpireToast(id string) bool {
	if s.toast == nil || s.toast.ID != id {
		return false
	}
	s.toast = nil
	return true
}

// ClearToast removes the current toast.
func (s *Store) ClearToast() { s.toast = nil }

// Toast returns the current toast.
func (s *Store) Toast() (Toast, bool) {
	if s.toast == nil {
		return Toast{}, false
	}
	return *s.toast, true
}

// ToastDuration is how long a toast stays up.
func (s *Store) ToastDuration() time.Duration { return s.toastDuration }

// PushUndo records an entry, newest first, evicting the oldest past
// capacity. ID and At are filled in when empty.
func (s *Store) PushUndo(e UndoEntry) UndoEntry {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.At.IsZero() {
		e.At = s.now()
	}
	s.undo = append([]UndoEntry{e}, s.undo...)
	if len(s.undo) > s.undoCapacity {
		s.undo = s.undo[:s.undoCapacity]
	}
	return e
}

// PopUndo removes and returns the newest entry.
func (s *Store) PopUndo() (UndoEntry, bool) {
	if len(s.undo) == 0 {
		return UndoEntry{}, false
	}
	e := s.undo[0]
	s.undo = s.undo[1:]
	return e, true
}

// UndoLen returns the number of recorded entries.
func (s *Store) UndoLen() int { return len(s.undo) }

// UndoHistory returns a copy of the entries, newest first.
func (s *Store) UndoHistory() []UndoEntry {
	return append([]UndoEntry(nil), s.undo...)
}

// ClearUndo drops all entries.
func (s *Store) ClearUndo() { s.undo = nil }

// ShowConfirm opens a confirmation dialog.
func (s *Store) ShowConfirm(c Confirm) { s.confirm = &c }

// HideConfirm closes the confirmation dialog.
func (s *Store) HideConfirm() { s.confirm = nil }

// PendingConfirm returns the open confirmation dialog.
func (s *Store) PendingConfirm() (Confirm, bool) {
	if s.confirm == nil {
		return Confirm{}, false
	}
	return *s.confirm, true
}
