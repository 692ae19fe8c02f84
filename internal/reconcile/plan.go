package reconcile

import (
	"fmt"

	"github.com/starford/foldertags/internal/events"
	"github.com/starford/foldertags/internal/models"
	"github.com/starford/foldertags/internal/resolver"
	"github.com/starford/foldertags/internal/tagset"
	"github.com/starford/foldertags/internal/tagstore"
	"github.com/starford/foldertags/internal/vaultpath"
)

// ActionKind says what the controller does with a plan.
type ActionKind int

const (
	// NoOp leaves every note untouched.
	NoOp ActionKind = iota
	// ApplyMerge merges without asking.
	ApplyMerge
	// Ask shows a prompt and applies the chosen outcome.
	Ask
)

func (k ActionKind) String() string {
	switch k {
	case ApplyMerge:
		return "merge"
	case Ask:
		return "prompt"
	}
	return "noop"
}

// Action is the planner's decision for one event.
type Action struct {
	Kind    ActionKind
	Title   string
	Message string
	Notes   []NotePlan
	Options []Outcome
}

// Planner decides actions from the folder tag map and settings alone. It
// performs no I/O.
type Planner struct {
	Tags     resolver.TagSource
	Settings models.Settings
}

func (p Planner) effective(folder string, src resolver.TagSource) []string {
	return resolver.ResolveWith(folder, p.Settings, src)
}

// Plan returns the action for a note event or a folder tag change.
// affected lists the notes below the changed folder and is only read for
// folder events.
func (p Planner) Plan(ev events.Event, affected []string) Action {
	switch e := ev.(type) {
	case events.NoteCreated:
		return p.planCreate(e.Path)
	case events.NoteMoved:
		return p.planMove(e.From, e.To)
	case events.FolderTagsChanged:
		before := tagstore.Overlay{Base: p.Tags, Path: e.Path, Tags: e.Old}
		a := p.planBulk(affected, before, func(n string) string { return n })
		a.Title = "Folder tags changed"
		a.Message = fmt.Sprintf("Tags of %q changed. Update %d note(s)?", e.Path, len(a.Notes))
		return a
	}
	return Action{Kind: NoOp}
}

// PlanRename plans a folder rename. before is the tag map as it was
// before the folder's entries moved with it; affected are note paths
// under the new location.
func (p Planner) PlanRename(e events.FolderRenamed, affected []string, before resolver.TagSource) Action {
	a := p.planBulk(affected, before, func(n string) string {
		return vaultpath.Rebase(n, e.To, e.From)
	})
	a.Title = "Folder moved"
	a.Message = fmt.Sprintf("%q moved to %q. Update %d note(s)?", e.From, e.To, len(a.Notes))
	return a
}

func (p Planner) planCreate(note string) Action {
	eff := p.effective(vaultpath.Dir(note), p.Tags)
	if len(eff) == 0 {
		return Action{Kind: NoOp}
	}
	a := Action{
		Title:   "Apply folder tags",
		Message: fmt.Sprintf("Add folder tags to %q?", note),
		Notes:   []NotePlan{{Path: note, New: eff}},
		Options: createOutcomes,
	}
	if p.Settings.AutoApplyTags {
		a.Kind = ApplyMerge
	} else {
		a.Kind = Ask
	}
	return a
}

func (p Planner) planMove(from, to string) Action {
	oldEff := p.effective(vaultpath.Dir(from), p.Tags)
	newEff := p.effective(vaultpath.Dir(to), p.Tags)
	if tagset.Equal(oldEff, newEff) {
		return Action{Kind: NoOp}
	}
	plan := NotePlan{Path: to, Old: oldEff, New: newEff}
	if conflicts := resolver.DetectConflicts(to, p.Tags); len(conflicts) > 0 {
		plan.Conflicts = conflicts
		return Action{
			Kind:    Ask,
			Title:   "Conflicting folder tags",
			Message: fmt.Sprintf("%q inherits the same tags from several folders.", to),
			Notes:   []NotePlan{plan},
			Options: conflictOutcomes,
		}
	}
	return Action{
		Kind:    Ask,
		Title:   "Note moved",
		Message: fmt.Sprintf("%q moved from %q. Update its tags?", to, from),
		Notes:   []NotePlan{plan},
		Options: relocationOutcomes,
	}
}

// planBulk collects every affected note whose effective set differs
// between before and the current map. origin maps a note's current path
// to the path it had under before.
func (p Planner) planBulk(affected []string, before resolver.TagSource, origin func(string) string) Action {
	var plans []NotePlan
	for _, note := range affected {
		oldEff := p.effective(vaultpath.Dir(origin(note)), before)
		newEff := p.effective(vaultpath.Dir(note), p.Tags)
		if tagset.Equal(oldEff, newEff) {
			continue
		}
		plans = append(plans, NotePlan{Path: note, Old: oldEff, New: newEff})
	}
	if len(plans) == 0 {
		return Action{Kind: NoOp}
	}
	return Action{Kind: Ask, Notes: plans, Options: relocationOutcomes}
}
