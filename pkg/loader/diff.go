package loader

import (
	"fmt"
	"sort"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// StatusChange describes an issue whose raw status differs between two
// consecutive graphs. From is empty for issues that did not exist before.
type StatusChange struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	From  model.Status `json:"from,omitempty"`
	To    model.Status `json:"to"`
}

// IsNew reports whether the issue appeared in the newer graph.
func (c StatusChange) IsNew() bool {
	return c.From == ""
}

func (c StatusChange) String() string {
	if c.IsNew() {
		return fmt.Sprintf("%s created: %s", c.ID, c.Title)
	}
	return fmt.Sprintf("%s: %s → %s", c.ID, c.From.Label(), c.To.Label())
}

// DiffStatuses lists status changes from prev to next, ordered by id. A nil
// prev (first load) yields no changes. Issues removed in next are ignored.
func DiffStatuses(prev, next *model.Graph) []StatusChange {
	if prev == nil || next == nil {
		return nil
	}
	var changes []StatusChange
	for _, is := range next.Issues {
		old := prev.ByID[is.ID]
		switch {
		case old == nil:
			changes = append(changes, StatusChange{ID: is.ID, Title: is.Title, To: is.Status})
		case old.Status != is.Status:
			changes = append(changes, StatusChange{ID: is.ID, Title: is.Title, From: old.Status, To: is.Status})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].ID < changes[j].ID })
	return changes
}
