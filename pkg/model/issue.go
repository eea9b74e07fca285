// Package model defines the issue graph shared by the loader, the reload
// service, and the navigation state.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the raw status stored by bd.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusClosed     Status = "closed"
	StatusTombstone  Status = "tombstone"
)

// IsValid reports whether s is one of the four renderable statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusClosed:
		return true
	}
	return false
}

// Label returns the human readable status name.
func (s Status) Label() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusInProgress:
		return "In Progress"
	case StatusBlocked:
		return "Blocked"
	case StatusClosed:
		return "Closed"
	default:
		return string(s)
	}
}

// IssueType is the structured type column. Unknown values are kept verbatim.
type IssueType string

const (
	TypeEpic    IssueType = "epic"
	TypeStory   IssueType = "story"
	TypeFeature IssueType = "feature"
	TypeTask    IssueType = "task"
	TypeBug     IssueType = "bug"
	TypeChore   IssueType = "chore"
	TypeAC      IssueType = "ac"
	TypeBlocker IssueType = "blocker"
)

// KnownTypes lists the types offered by the create and edit forms.
var KnownTypes = []IssueType{TypeEpic, TypeStory, TypeFeature, TypeTask, TypeBug, TypeChore, TypeAC, TypeBlocker}

// Priority bounds. Zero is the most urgent.
const (
	MinPriority = 0
	MaxPriority = 4
)

// PriorityLabel returns the display name for a priority value.
func PriorityLabel(p int) string {
	switch p {
	case 0:
		return "Critical"
	case 1:
		return "High"
	case 2:
		return "Medium"
	case 3:
		return "Low"
	case 4:
		return "Lowest"
	default:
		return fmt.Sprintf("P%d", p)
	}
}

// typeLabelPrefix marks a label that carries a type for display purposes.
const typeLabelPrefix = "type:"

// Issue is one beads issue. The fields below the blank line are derived by
// the loader and are never read from storage.
type Issue struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    int        `json:"priority"`
	IssueType   IssueType  `json:"issue_type,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CloseReason string     `json:"close_reason,omitempty"`

	Parent         string   `json:"-"`
	Children       []string `json:"-"`
	BlockedBy      []string `json:"-"`
	Blocks         []string `json:"-"`
	Bucket         Bucket   `json:"-"`
	ClosedChildren int      `json:"-"`
}

// Validate checks the fields the loader relies on.
func (i *Issue) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return errors.New("issue id is required")
	}
	if i.Priority < MinPriority || i.Priority > MaxPriority {
		return fmt.Errorf("issue %s: priority %d out of range [%d,%d]", i.ID, i.Priority, MinPriority, MaxPriority)
	}
	return nil
}

// HasLabel reports whether the issue carries label.
func (i *Issue) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// DisplayType returns the type shown to the user. A "type:" label wins over
// the structured field here only; filtering and grouping use IssueType.
func (i *Issue) DisplayType() string {
	for _, l := range i.Labels {
		if strings.HasPrefix(l, typeLabelPrefix) {
			if t := strings.TrimPrefix(l, typeLabelPrefix); t != "" {
				return t
			}
		}
	}
	if i.IssueType != "" {
		return string(i.IssueType)
	}
	return "unknown"
}

// HasTypeLabel reports whether any label carries a type.
func (i *Issue) HasTypeLabel() bool {
	for _, l := range i.Labels {
		if strings.HasPrefix(l, typeLabelPrefix) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, including derived slices.
func (i *Issue) Clone() *Issue {
	c := *i
	c.Labels = cloneStrings(i.Labels)
	c.Children = cloneStrings(i.Children)
	c.BlockedBy = cloneStrings(i.BlockedBy)
	c.Blocks = cloneStrings(i.Blocks)
	if i.ClosedAt != nil {
		t := *i.ClosedAt
		c.ClosedAt = &t
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Label is one row of the labels table.
type Label struct {
	IssueID string `json:"issue_id"`
	Label   string `json:"label"`
}

// DependencyType is the kind of a dependency edge.
type DependencyType string

const (
	DepParentChild DependencyType = "parent-child"
	DepBlocks      DependencyType = "blocks"
	DepRelated     DependencyType = "related"
)

// IsBlocking reports whether the edge type blocks its issue.
func (d DependencyType) IsBlocking() bool {
	return d == DepBlocks
}

// Dependency is one row of the dependencies table. For parent-child edges
// DependsOnID is the parent; for blocks edges IssueID is blocked by
// DependsOnID.
type Dependency struct {
	IssueID     string         `json:"issue_id"`
	DependsOnID string         `json:"depends_on_id"`
	Type        DependencyType `json:"type"`
}
