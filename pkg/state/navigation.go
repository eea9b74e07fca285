package state

import (
	"strings"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// ActiveBucket returns the bucket holding the selection.
func (s *Store) ActiveBucket() model.Bucket { return s.active }

// Cursor returns the cursor of bucket b.
func (s *Store) Cursor(b model.Bucket) Cursor { return s.cursors[b] }

// PageSize returns the number of cards per page.
func (s *Store) PageSize() int { return s.pageSize }

// SetPageSize changes the page size (minimum 1) and keeps every selection
// visible.
func (s *Store) SetPageSize(n int) {
	if n < 1 {
		n = 1
	}
	s.pageSize = n
	for b := range s.cursors {
		c := &s.cursors[b]
		if c.Selected >= c.Offset+n {
			c.Offset = c.Selected - n + 1
		}
		if c.Selected < c.Offset {
			c.Offset = c.Selected
		}
	}
}

// SetTerminalSize records the terminal size and, unless the page size was
// fixed, derives how many cards fit in a column.
func (s *Store) SetTerminalSize(width, height int) {
	s.width, s.height = width, height
	if s.fixedPageSize {
		return
	}
	avail := max(height-UIOverhead, CardHeight)
	s.SetPageSize(max(avail/CardHeight, 1))
}

// TerminalSize returns the last recorded terminal size.
func (s *Store) TerminalSize() (width, height int) { return s.width, s.height }

// SelectedIssue returns the issue under the cursor of the active bucket.
func (s *Store) SelectedIssue() *model.Issue {
	issues := s.FilteredBucket(s.active)
	i := s.cursors[s.active].Selected
	if i < 0 || i >= len(issues) {
		return nil
	}
	return issues[i]
}

// MoveUp moves the selection up, scrolling when it leaves the page.
func (s *Store) MoveUp() {
	c := &s.cursors[s.active]
	if c.Selected <= 0 {
		return
	}
	c.Selected--
	if c.Selected < c.Offset {
		c.Offset = c.Selected
	}
}

// MoveDown moves the selection down, scrolling when it leaves the page.
func (s *Store) MoveDown() {
	n := len(s.FilteredBucket(s.active))
	c := &s.cursors[s.active]
	if c.Selected >= n-1 {
		return
	}
	c.Selected++
	if c.Selected >= c.Offset+s.pageSize {
		c.Offset = c.Selected - s.pageSize + 1
	}
}

// MoveLeft activates the previous visible bucket. Cursors are kept.
func (s *Store) MoveLeft() {
	for b := s.active - 1; b >= model.BucketOpen; b-- {
		if s.bucketVisible(b) {
			s.active = b
			return
		}
	}
}

// MoveRight activates the next visible bucket. Cursors are kept.
func (s *Store) MoveRight() {
	for b := s.active + 1; b < model.BucketCount; b++ {
		if s.bucketVisible(b) {
			s.active = b
			return
		}
	}
}

// SetActiveBucket activates b if it is visible.
func (s *Store) SetActiveBucket(b model.Bucket) {
	if b >= model.BucketOpen && b < model.BucketCount && s.bucketVisible(b) {
		s.active = b
	}
}

func (s *Store) bucketVisible(b model.Bucket) bool {
	return b != model.BucketBlocked || s.overlays.BlockedColumn
}

// VisibleBuckets lists the buckets shown as columns.
func (s *Store) VisibleBuckets() []model.Bucket {
	out := make([]model.Bucket, 0, model.BucketCount)
	for _, b := range model.Buckets {
		if s.bucketVisible(b) {
			out = append(out, b)
		}
	}
	return out
}

// JumpToFirst selects the first issue of the active bucket.
func (s *Store) JumpToFirst() {
	s.cursors[s.active] = Cursor{}
}

// JumpToLast selects the last issue and scrolls so it ends the page.
func (s *Store) JumpToLast() {
	last := max(0, len(s.FilteredBucket(s.active))-1)
	s.cursors[s.active] = Cursor{Selected: last, Offset: max(0, last-s.pageSize+1)}
}

// JumpToPage shows page p (1-based, clamped) and selects its first issue.
// The jump-to-page prompt closes.
func (s *Store) JumpToPage(p int) {
	n := len(s.FilteredBucket(s.active))
	p = max(1, min(p, s.TotalPages()))
	offset := (p - 1) * s.pageSize
	s.cursors[s.active] = Cursor{Selected: max(0, min(offset, n-1)), Offset: offset}
	s.overlays.JumpToPage = false
}

// TotalPages returns the page count of the active bucket, at least 1.
func (s *Store) TotalPages() int {
	n := len(s.FilteredBucket(s.active))
	if n == 0 {
		return 1
	}
	return (n + s.pageSize - 1) / s.pageSize
}

// CurrentPage returns the 1-based page shown in the active bucket.
func (s *Store) CurrentPage() int {
	return s.cursors[s.active].Offset/s.pageSize + 1
}

// VisibleIssues returns the slice of bucket b shown on its current page.
func (s *Store) VisibleIssues(b model.Bucket) []*model.Issue {
	issues := s.FilteredBucket(b)
	start := min(s.cursors[b].Offset, len(issues))
	end := min(start+s.pageSize, len(issues))
	return issues[start:end]
}

// SelectIssueByID selects the issue whose id equals id (case-insensitive).
// Without an exact match it takes the first issue, scanning buckets in order,
// whose id contains id. The page is aligned so the issue is visible. It
// reports whether an issue was found.
func (s *Store) SelectIssueByID(id string) bool {
	needle := strings.ToLower(strings.TrimSpace(id))
	if needle == "" {
		return false
	}
	return s.selectFirst(func(hay string) bool { return hay == needle }) ||
		s.selectFirst(func(hay string) bool { return strings.Contains(hay, needle) })
}

func (s *Store) selectFirst(match func(id string) bool) bool {
	for _, b := range model.Buckets {
		if !s.bucketVisible(b) {
			continue
		}
		for i, is := range s.FilteredBucket(b) {
			if match(strings.ToLower(is.ID)) {
				s.active = b
				s.cursors[b] = Cursor{Selected: i, Offset: i / s.pageSize * s.pageSize}
				return true
			}
		}
	}
	return false
}

// clampCursors pulls every cursor back into its bucket after the bucket
// shrank. A cursor past the end moves to the last issue with offset 0.
func (s *Store) clampCursors() {
	buckets := s.FilteredBuckets()
	for b := range s.cursors {
		n := len(buckets[b])
		if s.cursors[b].Selected >= n {
			s.cursors[b] = Cursor{Selected: max(0, n-1), Offset: 0}
		}
	}
}
