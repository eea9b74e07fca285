package testutil

import (
	"reflect"
	"strings"
	"testing"

	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
)

func TestSnapshotBuilder(t *testing.T) {
	snap := NewSnapshot().
		Issue("A", model.StatusOpen, 0).
		Issue("B", model.StatusClosed, 1).
		With(func(i *model.Issue) { i.Assignee = "alice" }).
		Label("A", "ui", "docs").
		Parent("A", "B").
		Blocks("B", "A").
		Build()

	if len(snap.Issues) != 2 {
		t.Fatalf("issues = %d, want 2", len(snap.Issues))
	}
	if !snap.Issues[1].CreatedAt.After(snap.Issues[0].CreatedAt) {
		t.Error("later issues should be created later")
	}
	if snap.Issues[1].Assignee != "alice" {
		t.Errorf("With did not edit the last issue")
	}
	if len(snap.Labels) != 2 {
		t.Errorf("labels = %d, want 2", len(snap.Labels))
	}
	want := []model.Dependency{
		{IssueID: "B", DependsOnID: "A", Type: model.DepParentChild},
		{IssueID: "A", DependsOnID: "B", Type: model.DepBlocks},
	}
	if !reflect.DeepEqual(snap.Dependencies, want) {
		t.Errorf("dependencies = %+v, want %+v", snap.Dependencies, want)
	}
}

func TestGeneratorDeterminism(t *testing.T) {
	a := NewDefault().Snapshot(50)
	b := NewDefault().Snapshot(50)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different snapshots")
	}
	for _, is := range a.Issues {
		if err := is.Validate(); err != nil {
			t.Errorf("generated invalid issue: %v", err)
		}
	}
	for _, d := range a.Dependencies {
		if d.IssueID == d.DependsOnID {
			t.Errorf("self edge %+v", d)
		}
	}
}

func TestChainFixture(t *testing.T) {
	snap := NewDefault().Chain(4)
	if len(snap.Issues) != 4 || len(snap.Dependencies) != 3 {
		t.Fatalf("chain has %d issues and %d edges", len(snap.Issues), len(snap.Dependencies))
	}
	if snap.Dependencies[0].DependsOnID != "bd-1" || snap.Dependencies[0].IssueID != "bd-2" {
		t.Errorf("first edge = %+v", snap.Dependencies[0])
	}
}

func TestToJSONLInlinesRelations(t *testing.T) {
	snap := NewSnapshot().
		Issue("A", model.StatusOpen, 0).
		Issue("B", model.StatusOpen, 1).
		Label("B", "ui").
		Blocks("A", "B").
		Build()

	lines := strings.Split(strings.TrimSpace(ToJSONL(snap)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[1], `"labels":["ui"]`) {
		t.Errorf("labels not inlined: %s", lines[1])
	}
	if !strings.Contains(lines[1], `"depends_on_id":"A"`) {
		t.Errorf("dependency not inlined: %s", lines[1])
	}
}
