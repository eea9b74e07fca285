package loader

import (
	"sort"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// CompareIssues orders issues within a bucket: priority ascending, then
// closed-child count descending, then created_at descending. It returns a
// negative number when a sorts first and 0 on a full tie.
func CompareIssues(a, b *model.Issue) int {
	if a.Priority != b.Priority {
		return a.Priority - b.Priority
	}
	if a.ClosedChildren != b.ClosedChildren {
		return b.ClosedChildren - a.ClosedChildren
	}
	switch {
	case a.CreatedAt.After(b.CreatedAt):
		return -1
	case b.CreatedAt.After(a.CreatedAt):
		return 1
	}
	return 0
}

// SortIssues sorts in place with CompareIssues. The sort is stable, so full
// ties keep their input order. Filtering reuses it to keep tie order intact.
func SortIssues(issues []*model.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return CompareIssues(issues[i], issues[j]) < 0
	})
}
