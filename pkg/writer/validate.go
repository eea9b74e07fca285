package writer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// Field limits enforced before bd is invoked.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxAssigneeLength    = 100
	MaxLabelsLength      = 500
)

// ErrTitleRequired is returned for a blank title.
var ErrTitleRequired = errors.New("Title is required") //nolint:staticcheck // shown verbatim in forms

// ValidateTitle checks a title as it would be submitted.
func ValidateTitle(title string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(t) > MaxTitleLength {
		return fmt.Errorf("Title must be under %d characters", MaxTitleLength) //nolint:staticcheck
	}
	return nil
}

func validateFields(description, assignee string, labels []string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("Description must be under %d characters", MaxDescriptionLength) //nolint:staticcheck
	}
	if utf8.RuneCountInString(assignee) > MaxAssigneeLength {
		return fmt.Errorf("Assignee must be under %d characters", MaxAssigneeLength) //nolint:staticcheck
	}
	if utf8.RuneCountInString(strings.Join(labels, ",")) > MaxLabelsLength {
		return fmt.Errorf("Labels must be under %d characters", MaxLabelsLength) //nolint:staticcheck
	}
	return nil
}

// ParseLabels splits a comma separated input, dropping blanks.
func ParseLabels(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if l := strings.TrimSpace(part); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// FormValues is the content of an edit form.
type FormValues struct {
	Title       string
	Description string
	Priority    int
	Status      model.Status
	Assignee    string
	Labels      string
}

// ValuesOf fills a form from an existing issue.
func ValuesOf(is *model.Issue) FormValues {
	return FormValues{
		Title:       is.Title,
		Description: is.Description,
		Priority:    is.Priority,
		Status:      is.Status,
		Assignee:    is.Assignee,
		Labels:      strings.Join(is.Labels, ", "),
	}
}

// Diff compares edited form values against the issue and returns an update
// with only the changed fields.
func Diff(is *model.Issue, v FormValues) UpdateParams {
	p := UpdateParams{ID: is.ID}
	if v.Title != is.Title {
		p.Title = &v.Title
	}
	if v.Description != is.Description {
		p.Description = &v.Description
	}
	if v.Priority != is.Priority {
		p.Priority = &v.Priority
	}
	if v.Status != "" && v.Status != is.Status {
		p.Status = &v.Status
	}
	if v.Assignee != is.Assignee {
		p.Assignee = &v.Assignee
	}
	if labels := ParseLabels(v.Labels); !slices.Equal(labels, is.Labels) {
		p.Labels, p.SetLabels = labels, true
	}
	return p
}

// Previous records the issue's values for the fields p changes, keyed by
// the bd flag name. Used for the undo ledger.
func Previous(is *model.Issue, p UpdateParams) map[string]any {
	prev := map[string]any{}
	if p.Title != nil {
		prev["title"] = is.Title
	}
	if p.Description != nil {
		prev["description"] = is.Description
	}
	if p.Priority != nil {
		prev["priority"] = is.Priority
	}
	if p.Status != nil {
		prev["status"] = string(is.Status)
	}
	if p.Assignee != nil {
		prev["assignee"] = is.Assignee
	}
	if p.SetLabels {
		prev["labels"] = slices.Clone(is.Labels)
	}
	return prev
}
