package state

import (
	"slices"
	"strings"

	"github.com/elmateo487/bdui-compact-kanban/pkg/loader"
	"github.com/elmateo487/bdui-compact-kanban/pkg/metrics"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

// Filter holds the structured predicates. Zero fields match everything;
// set fields are ANDed together and with the search text.
type Filter struct {
	Assignee string          `yaml:"assignee,omitempty"`
	Labels   []string        `yaml:"labels,omitempty"`
	Status   model.Status    `yaml:"status,omitempty"`
	Priority *int            `yaml:"priority,omitempty"`
	Type     model.IssueType `yaml:"type,omitempty"`
}

// IsZero reports whether no predicate is set.
func (f Filter) IsZero() bool {
	return f.Assignee == "" && len(f.Labels) == 0 && f.Status == "" && f.Priority == nil && f.Type == ""
}

// Count returns the number of predicates set.
func (f Filter) Count() int {
	n := 0
	if f.Assignee != "" {
		n++
	}
	if len(f.Labels) > 0 {
		n++
	}
	if f.Status != "" {
		n++
	}
	if f.Priority != nil {
		n++
	}
	if f.Type != "" {
		n++
	}
	return n
}

// Clone returns a copy that shares no memory with f.
func (f Filter) Clone() Filter {
	out := f
	if f.Labels != nil {
		out.Labels = append([]string(nil), f.Labels...)
	}
	if f.Priority != nil {
		p := *f.Priority
		out.Priority = &p
	}
	return out
}

// Equal compares predicates by value.
func (f Filter) Equal(o Filter) bool {
	if f.Assignee != o.Assignee || f.Status != o.Status || f.Type != o.Type {
		return false
	}
	if (f.Priority == nil) != (o.Priority == nil) {
		return false
	}
	if f.Priority != nil && *f.Priority != *o.Priority {
		return false
	}
	return slices.Equal(f.Labels, o.Labels)
}

// Matches applies the predicates to one issue. Status compares against the
// effective status, so an open issue with live blockers matches "blocked".
func (f Filter) Matches(is *model.Issue) bool {
	if f.Assignee != "" && is.Assignee != f.Assignee {
		return false
	}
	if len(f.Labels) > 0 && !slices.ContainsFunc(f.Labels, is.HasLabel) {
		return false
	}
	if f.Status != "" && is.Bucket.Status() != f.Status {
		return false
	}
	if f.Priority != nil && is.Priority != *f.Priority {
		return false
	}
	if f.Type != "" && is.IssueType != f.Type {
		return false
	}
	return true
}

// matchesSearch is a case-insensitive substring match on title, description
// and id. q must already be lowercased and trimmed.
func matchesSearch(is *model.Issue, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(is.Title), q) ||
		strings.Contains(strings.ToLower(is.Description), q) ||
		strings.Contains(strings.ToLower(is.ID), q)
}

// Priority returns a pointer for use in Filter literals.
func Priority(p int) *int { return &p }

// view is the filtered projection of the graph.
type view struct {
	issues  []*model.Issue
	buckets [model.BucketCount][]*model.Issue
}

func (s *Store) hasFilters() bool {
	return strings.TrimSpace(s.search) != "" || !s.filter.IsZero()
}

func (s *Store) invalidate() {
	s.cached = nil
}

// current returns the filtered view, rebuilding it when stale. Without
// filters the graph's own buckets are used.
func (s *Store) current() *view {
	if s.cached != nil {
		return s.cached
	}
	v := &view{}
	if s.graph == nil {
		s.cached = v
		return v
	}
	if !s.hasFilters() {
		v.issues = s.graph.Issues
		v.buckets = s.graph.Buckets
		s.cached = v
		return v
	}

	defer metrics.Timer(metrics.FilterApply)()
	q := strings.ToLower(strings.TrimSpace(s.search))
	for _, is := range s.graph.Issues {
		if matchesSearch(is, q) && s.filter.Matches(is) {
			v.issues = append(v.issues, is)
			v.buckets[is.Bucket] = append(v.buckets[is.Bucket], is)
		}
	}
	// Graph issues are in load order; the stable sort reproduces the
	// loader's bucket order for the surviving subset.
	for b := range v.buckets {
		loader.SortIssues(v.buckets[b])
	}
	s.cached = v
	return v
}

// FilteredIssues returns issues passing search and filter, in load order.
func (s *Store) FilteredIssues() []*model.Issue {
	return s.current().issues
}

// FilteredBuckets returns the filtered issues grouped by effective bucket.
func (s *Store) FilteredBuckets() [model.BucketCount][]*model.Issue {
	return s.current().buckets
}

// FilteredBucket returns one filtered bucket.
func (s *Store) FilteredBucket(b model.Bucket) []*model.Issue {
	return s.current().buckets[b]
}

// HasActiveFilters reports whether search text or any predicate is set.
func (s *Store) HasActiveFilters() bool {
	return s.hasFilters()
}

// ActiveFilterCount counts the search text as one filter.
func (s *Store) ActiveFilterCount() int {
	n := s.filter.Count()
	if strings.TrimSpace(s.search) != "" {
		n++
	}
	return n
}

// Filter returns a copy of the current filter.
func (s *Store) Filter() Filter { return s.filter.Clone() }

// DefaultFilter returns a copy of the filter ClearFilters restores.
func (s *Store) DefaultFilter() Filter { return s.defaultFilter.Clone() }

// Search returns the current search text.
func (s *Store) Search() string { return s.search }

// SetSearch replaces the search text and clamps cursors.
func (s *Store) SetSearch(q string) {
	s.search = q
	s.invalidate()
	s.clampCursors()
}

// SetFilter replaces the filter and clamps cursors.
func (s *Store) SetFilter(f Filter) {
	s.filter = f.Clone()
	s.invalidate()
	s.clampCursors()
}

// ToggleLabel adds label to the label predicate or removes it.
func (s *Store) ToggleLabel(label string) {
	f := s.filter.Clone()
	if i := slices.Index(f.Labels, label); i >= 0 {
		f.Labels = slices.Delete(f.Labels, i, i+1)
		if len(f.Labels) == 0 {
			f.Labels = nil
		}
	} else {
		f.Labels = append(f.Labels, label)
	}
	s.SetFilter(f)
}

// SetAssignee sets or, with "", clears the assignee predicate.
func (s *Store) SetAssignee(a string) {
	f := s.filter.Clone()
	f.Assignee = a
	s.SetFilter(f)
}

// SetStatus sets or, with "", clears the status predicate.
func (s *Store) SetStatus(st model.Status) {
	f := s.filter.Clone()
	f.Status = st
	s.SetFilter(f)
}

// SetPriority sets or, with nil, clears the priority predicate.
func (s *Store) SetPriority(p *int) {
	f := s.filter.Clone()
	f.Priority = nil
	if p != nil {
		f.Priority = Priority(*p)
	}
	s.SetFilter(f)
}

// SetType sets or, with "", clears the type predicate.
func (s *Store) SetType(t model.IssueType) {
	f := s.filter.Clone()
	f.Type = t
	s.SetFilter(f)
}

// ClearFilters restores the default filter, empties the search text and
// closes the search and filter bars.
func (s *Store) ClearFilters() {
	s.search = ""
	s.filter = s.defaultFilter.Clone()
	s.overlays.Search = false
	s.overlays.Filter = false
	s.invalidate()
	s.clampCursors()
}

// KnownAssignees lists distinct assignees in the loaded graph, sorted.
func (s *Store) KnownAssignees() []string {
	return s.distinct(func(is *model.Issue) []string {
		if is.Assignee == "" {
			return nil
		}
		return []string{is.Assignee}
	})
}

// KnownLabels lists distinct labels in the loaded graph, sorted.
func (s *Store) KnownLabels() []string {
	return s.distinct(func(is *model.Issue) []string { return is.Labels })
}

func (s *Store) distinct(values func(*model.Issue) []string) []string {
	if s.graph == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, is := range s.graph.Issues {
		for _, v := range values(is) {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	slices.Sort(out)
	return out
}
