package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/foldertags/internal/events"
	"github.com/starford/foldertags/internal/models"
	"github.com/starford/foldertags/internal/tagstore"
)

func planner(tags map[string][]string, mutate func(*models.Settings)) Planner {
	s := models.DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	return Planner{Tags: tagstore.New(tags), Settings: s}
}

func TestPlan_Create(t *testing.T) {
	tags := map[string][]string{"Projects": {"work"}}

	a := planner(tags, nil).Plan(events.NoteCreated{Path: "Projects/n.md"}, nil)
	if a.Kind != Ask || !cmp.Equal(a.Options, createOutcomes) {
		t.Errorf("Plan = %+v, want prompt with create outcomes", a)
	}

	auto := planner(tags, func(s *models.Settings) { s.AutoApplyTags = true })
	a = auto.Plan(events.NoteCreated{Path: "Projects/n.md"}, nil)
	if a.Kind != ApplyMerge {
		t.Fatalf("Kind = %v, want merge", a.Kind)
	}
	if diff := cmp.Diff([]NotePlan{{Path: "Projects/n.md", New: []string{"work"}}}, a.Notes); diff != "" {
		t.Errorf("Notes mismatch (-want +got):\n%s", diff)
	}

	if a := auto.Plan(events.NoteCreated{Path: "Other/n.md"}, nil); a.Kind != NoOp {
		t.Errorf("untagged folder Kind = %v, want noop", a.Kind)
	}
}

func TestPlan_MoveWithEqualSetsIsNoOp(t *testing.T) {
	p := planner(map[string][]string{"a": {"t"}, "b": {"t"}}, nil)
	for _, ev := range []events.NoteMoved{
		{From: "a/n.md", To: "a/renamed.md"},
		{From: "a/n.md", To: "b/n.md"},
		{From: "x/n.md", To: "y/n.md"},
	} {
		if a := p.Plan(ev, nil); a.Kind != NoOp {
			t.Errorf("Plan(%+v) Kind = %v, want noop", ev, a.Kind)
		}
	}
}

func TestPlan_MoveRelocation(t *testing.T) {
	p := planner(map[string][]string{"A": {"x"}, "B": {"x", "y"}}, nil)
	a := p.Plan(events.NoteMoved{From: "A/n.md", To: "B/n.md"}, nil)
	if a.Kind != Ask || !cmp.Equal(a.Options, relocationOutcomes) {
		t.Fatalf("Plan = %+v, want relocation prompt", a)
	}
	want := []NotePlan{{Path: "B/n.md", Old: []string{"x"}, New: []string{"x", "y"}}}
	if diff := cmp.Diff(want, a.Notes); diff != "" {
		t.Errorf("Notes mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_MoveConflict(t *testing.T) {
	p := planner(map[string][]string{"o": {"z"}, "p": {"x"}, "p/q": {"x"}}, nil)
	a := p.Plan(events.NoteMoved{From: "o/n.md", To: "p/q/n.md"}, nil)
	if a.Kind != Ask || !cmp.Equal(a.Options, conflictOutcomes) {
		t.Fatalf("Plan = %+v, want conflict prompt", a)
	}
	if !cmp.Equal(a.Notes[0].Conflicts, []string{"x"}) {
		t.Errorf("Conflicts = %v, want [x]", a.Notes[0].Conflicts)
	}
}

func TestPlan_FolderTagsChanged(t *testing.T) {
	p := planner(map[string][]string{"P": {"new"}, "P/deep/deeper": {"d"}}, func(s *models.Settings) {
		s.InheritanceMode = models.InheritImmediate
	})
	affected := []string{"P/a.md", "P/sub/b.md", "P/deep/deeper/c.md"}
	a := p.Plan(events.FolderTagsChanged{Path: "P", Old: []string{"old"}, New: []string{"new"}}, affected)
	if a.Kind != Ask {
		t.Fatalf("Kind = %v, want prompt", a.Kind)
	}
	want := []NotePlan{
		{Path: "P/a.md", Old: []string{"old"}, New: []string{"new"}},
		{Path: "P/sub/b.md", Old: []string{"old"}, New: []string{"new"}},
	}
	if diff := cmp.Diff(want, a.Notes); diff != "" {
		t.Errorf("Notes mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanRename(t *testing.T) {
	before := tagstore.Mapping{"Work": {"w"}, "Work/Old": {"o"}, "Home": {"h"}}

	// Same parent: the folder's own tags moved with it.
	p := planner(map[string][]string{"Work": {"w"}, "Work/New": {"o"}, "Home": {"h"}}, nil)
	ev := events.FolderRenamed{From: "Work/Old", To: "Work/New"}
	if a := p.PlanRename(ev, []string{"Work/New/n.md"}, before); a.Kind != NoOp {
		t.Errorf("cosmetic rename Kind = %v, want noop", a.Kind)
	}

	// New parent: inherited tags differ.
	p = planner(map[string][]string{"Work": {"w"}, "Home/Old": {"o"}, "Home": {"h"}}, nil)
	ev = events.FolderRenamed{From: "Work/Old", To: "Home/Old"}
	a := p.PlanRename(ev, []string{"Home/Old/n.md"}, before)
	want := []NotePlan{{Path: "Home/Old/n.md", Old: []string{"o", "w"}, New: []string{"o", "h"}}}
	if diff := cmp.Diff(want, a.Notes); diff != "" {
		t.Errorf("Notes mismatch (-want +got):\n%s", diff)
	}
}
