// Package reconcile keeps note tags in line with folder tags when notes
// are created or moved and when folder assignments change.
package reconcile

import (
	"github.com/starford/foldertags/internal/codec"
	"github.com/starford/foldertags/internal/tagset"
)

// Outcome is the user's resolution of a reconciliation prompt.
type Outcome string

// Conflict outcomes apply when two ancestors declare the same tag.
const (
	KeepAll   Outcome = "keep-all"
	KeepOne   Outcome = "keep-one"
	RemoveAll Outcome = "remove-all"
)

// Relocation outcomes apply when the effective tag set changed.
const (
	ReplaceAll Outcome = "replace-all"
	Merge      Outcome = "merge"
	NoAction   Outcome = "no-action"
)

var labels = map[Outcome]string{
	KeepAll:    "Keep all tags",
	KeepOne:    "Keep one of each duplicate",
	RemoveAll:  "Remove conflicting tags",
	ReplaceAll: "Replace all tags",
	Merge:      "Merge tags",
	NoAction:   "Leave unchanged",
}

var (
	conflictOutcomes   = []Outcome{KeepAll, KeepOne, RemoveAll}
	relocationOutcomes = []Outcome{ReplaceAll, Merge, NoAction}
	createOutcomes     = []Outcome{Merge, NoAction}
)

// Label returns the prompt label for o.
func (o Outcome) Label() string {
	if l, ok := labels[o]; ok {
		return l
	}
	return string(o)
}

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	_, ok := labels[o]
	return ok
}

// NotePlan is the tag delta computed for one note.
type NotePlan struct {
	Path string `json:"path"`
	// Old is the effective set the note was last reconciled against;
	// empty for newly created notes.
	Old       []string `json:"old"`
	New       []string `json:"new"`
	Conflicts []string `json:"conflicts,omitempty"`
}

// Apply transforms content for outcome o. It is pure; the result equals
// content when nothing changes.
func Apply(surface codec.Surface, content string, o Outcome, plan NotePlan) string {
	switch o {
	case KeepOne:
		return surface.Dedupe(content)
	case RemoveAll:
		return surface.Remove(content, plan.Conflicts)
	case ReplaceAll:
		out := surface.Set(content, plan.New)
		// Inline tokens outside the new set go too.
		if stale := tagset.Minus(surface.Extract(out), plan.New); len(stale) > 0 {
			out = surface.Remove(out, stale)
		}
		return out
	case Merge:
		if len(plan.Old) == 0 {
			if tagset.Subset(plan.New, surface.Extract(content)) {
				return content
			}
			return surface.Add(content, plan.New)
		}
		kept := tagset.Minus(surface.Declared(content), plan.Old)
		return surface.Set(content, tagset.Union(kept, plan.New))
	}
	return content
}
