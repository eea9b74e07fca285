package state_test

import (
	"fmt"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"github.com/elmateo487/bdui-compact-kanban/internal/datasource"
	"github.com/elmateo487/bdui-compact-kanban/pkg/loader"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/state"
	"github.com/elmateo487/bdui-compact-kanban/pkg/testutil"
)

// teamSnapshot has 10 issues, 3 of them assigned to alice and spread across
// buckets.
func teamSnapshot() *datasource.Snapshot {
	b := testutil.NewSnapshot()
	statuses := []model.Status{model.StatusOpen, model.StatusInProgress, model.StatusClosed}
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("bd-%d", i)
		assignee := "bob"
		if i%3 == 0 && i > 0 {
			assignee = "alice"
		}
		b.Issue(id, statuses[i%len(statuses)], i%3).With(func(is *model.Issue) {
			is.Assignee = assignee
		})
	}
	b.Label("bd-1", "ui", "backend").Label("bd-2", "docs").Label("bd-4", "ui")
	return b.Build()
}

func bucketTotal(s *state.Store) int {
	n := 0
	for _, issues := range s.FilteredBuckets() {
		n += len(issues)
	}
	return n
}

func TestFilter_AliceScenario(t *testing.T) {
	s := newStore(t, 5, teamSnapshot())

	s.SetAssignee("alice")
	if got := len(s.FilteredIssues()); got != 3 {
		t.Fatalf("filtered issues = %d, want 3", got)
	}
	if got := bucketTotal(s); got != 3 {
		t.Errorf("bucket counts sum to %d, want 3", got)
	}
	for _, is := range s.FilteredIssues() {
		if is.Assignee != "alice" {
			t.Errorf("%s assigned to %q", is.ID, is.Assignee)
		}
	}
	if !s.HasActiveFilters() || s.ActiveFilterCount() != 1 {
		t.Errorf("active=%v count=%d", s.HasActiveFilters(), s.ActiveFilterCount())
	}
}

func TestFilter_RoundTripRestoresDefault(t *testing.T) {
	def := state.Filter{Type: model.TypeTask}
	s := state.New(state.Options{DefaultFilter: def})
	s.SetGraph(build(t, teamSnapshot()))

	before := s.Filter()
	s.SetSearch("issue 4")
	s.SetAssignee("alice")
	s.ToggleLabel("ui")
	s.SetPriority(state.Priority(2))
	s.SetStatus(model.StatusClosed)
	s.ToggleSearch()
	s.ClearFilters()

	if !s.Filter().Equal(before) || !s.Filter().Equal(def) {
		t.Errorf("filter = %+v, want %+v", s.Filter(), def)
	}
	if s.Search() != "" {
		t.Errorf("search = %q", s.Search())
	}
	if s.Overlays().Search || s.Overlays().Filter {
		t.Error("search/filter bars left open")
	}
	if !s.DefaultFilter().Equal(def) {
		t.Error("default filter changed")
	}
}

func TestFilter_EmptyDefaultMeansNoFilters(t *testing.T) {
	s := newStore(t, 5, teamSnapshot())
	if s.HasActiveFilters() {
		t.Error("filters active by default")
	}
	g := s.Graph()
	if !reflect.DeepEqual(s.FilteredBuckets(), g.Buckets) {
		t.Error("unfiltered buckets differ from graph buckets")
	}
	s.SetSearch("   ")
	if s.HasActiveFilters() {
		t.Error("whitespace search counted as a filter")
	}
}

func TestFilter_SearchMatchesTitleDescriptionAndID(t *testing.T) {
	snap := testutil.NewSnapshot().
		Add(model.Issue{ID: "bd-1", Title: "Fix LOGIN page", Status: model.StatusOpen}).
		Add(model.Issue{ID: "bd-2", Title: "Other", Description: "the login flow", Status: model.StatusOpen}).
		Add(model.Issue{ID: "login-3", Title: "Third", Status: model.StatusOpen}).
		Add(model.Issue{ID: "bd-4", Title: "Unrelated", Status: model.StatusOpen}).
		Build()
	s := newStore(t, 5, snap)

	s.SetSearch("Login")
	if got := testutil.IDs(s.FilteredIssues()); !reflect.DeepEqual(got, []string{"bd-1", "bd-2", "login-3"}) {
		t.Errorf("search matched %v", got)
	}
}

func TestFilter_PredicatesAreANDed(t *testing.T) {
	s := newStore(t, 5, teamSnapshot())

	s.ToggleLabel("ui")
	if got := len(s.FilteredIssues()); got != 2 {
		t.Fatalf("label ui matched %d, want 2", got)
	}
	s.ToggleLabel("docs")
	if got := len(s.FilteredIssues()); got != 3 {
		t.Fatalf("labels ui|docs matched %d, want 3", got)
	}
	s.SetPriority(state.Priority(1))
	if got := testutil.IDs(s.FilteredIssues()); !reflect.DeepEqual(got, []string{"bd-1", "bd-4"}) {
		t.Errorf("labels AND priority 1 = %v", got)
	}
	s.SetStatus(model.StatusInProgress)
	if got := testutil.IDs(s.FilteredIssues()); !reflect.DeepEqual(got, []string{"bd-1", "bd-4"}) {
		t.Errorf("status in_progress = %v", got)
	}
	s.SetAssignee("alice")
	if got := len(s.FilteredIssues()); got != 0 {
		t.Errorf("alice has %d ui/docs issues", got)
	}

	s.SetAssignee("")
	s.SetStatus("")
	s.SetPriority(nil)
	s.ToggleLabel("ui")
	s.ToggleLabel("docs")
	if s.HasActiveFilters() {
		t.Errorf("filters still active: %+v", s.Filter())
	}
}

func TestFilter_StatusUsesEffectiveBucket(t *testing.T) {
	snap := testutil.NewSnapshot().
		Issue("A", model.StatusOpen, 0).
		Issue("B", model.StatusOpen, 0).
		Blocks("A", "B").
		Build()
	s := newStore(t, 5, snap)

	s.SetStatus(model.StatusBlocked)
	if got := testutil.IDs(s.FilteredIssues()); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("blocked filter = %v", got)
	}
	if got := testutil.IDs(s.FilteredBucket(model.BucketBlocked)); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("blocked bucket = %v", got)
	}
}

func TestFilter_TypeUsesStructuredField(t *testing.T) {
	snap := testutil.NewSnapshot().
		Add(model.Issue{ID: "E", Status: model.StatusOpen, IssueType: model.TypeEpic}).
		Add(model.Issue{ID: "T", Status: model.StatusOpen, IssueType: model.TypeTask}).
		Label("T", "type:epic").
		Build()
	s := newStore(t, 5, snap)
	s.SetType(model.TypeEpic)
	if got := testutil.IDs(s.FilteredIssues()); !reflect.DeepEqual(got, []string{"E"}) {
		t.Errorf("type filter = %v", got)
	}
}

func TestFilter_ClampsCursors(t *testing.T) {
	s := newStore(t, 3, teamSnapshot())
	s.JumpToLast()
	last := s.Cursor(model.BucketOpen).Selected
	if last == 0 {
		t.Fatal("setup: open bucket too small")
	}
	s.SetAssignee("nobody")
	if c := s.Cursor(model.BucketOpen); c != (state.Cursor{}) {
		t.Errorf("cursor = %+v after filtering everything out", c)
	}
	if s.SelectedIssue() != nil {
		t.Error("selection survived an empty filter result")
	}
}

func TestFilter_KnownValues(t *testing.T) {
	s := newStore(t, 5, teamSnapshot())
	if got := s.KnownAssignees(); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Errorf("assignees = %v", got)
	}
	if got := s.KnownLabels(); !reflect.DeepEqual(got, []string{"backend", "docs", "ui"}) {
		t.Errorf("labels = %v", got)
	}
}

func TestFilter_CloneIsIndependent(t *testing.T) {
	f := state.Filter{Labels: []string{"a"}, Priority: state.Priority(1)}
	c := f.Clone()
	c.Labels[0] = "b"
	*c.Priority = 3
	if f.Labels[0] != "a" || *f.Priority != 1 {
		t.Error("Clone shares memory")
	}
	if f.Equal(c) || !f.Equal(f.Clone()) {
		t.Error("Equal mismatch")
	}
	if (state.Filter{}).Count() != 0 || f.Count() != 2 {
		t.Error("Count mismatch")
	}
}

// Filtering keeps each surviving issue in its bucket and never changes
// their relative order.
func TestProperty_FilterPreservesBucketOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(rt, "n")
		snap := testutil.New(testutil.GeneratorConfig{
			Seed:      rapid.Int64Range(1, 1<<40).Draw(rt, "seed"),
			IDPrefix:  "bd",
			BaseTime:  testutil.BaseTime,
			Assignees: []string{"alice", "bob", "carol"},
			LabelPool: []string{"ui", "api", "docs"},
			EdgeRate:  0.2,
		}).Snapshot(n)
		g, err := loader.Build(snap)
		if err != nil {
			rt.Fatalf("Build: %v", err)
		}
		s := state.New(state.Options{})
		s.SetGraph(g)

		s.SetAssignee(rapid.SampledFrom([]string{"", "alice", "bob"}).Draw(rt, "assignee"))
		if rapid.Bool().Draw(rt, "label") {
			s.ToggleLabel(rapid.SampledFrom([]string{"ui", "api", "docs"}).Draw(rt, "which"))
		}

		for _, b := range model.Buckets {
			full := testutil.BucketIDs(g, b)
			pos := map[string]int{}
			for i, id := range full {
				pos[id] = i
			}
			prev := -1
			for _, is := range s.FilteredBucket(b) {
				p, ok := pos[is.ID]
				if !ok {
					rt.Fatalf("%s moved into bucket %v", is.ID, b)
				}
				if p <= prev {
					rt.Fatalf("bucket %v order changed at %s", b, is.ID)
				}
				prev = p
			}
		}
	})
}
