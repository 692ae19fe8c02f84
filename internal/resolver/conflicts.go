package resolver

import (
	"github.com/starford/foldertags/internal/tagset"
	"github.com/starford/foldertags/internal/vaultpath"
)

// DetectConflicts returns the tags declared as own tags by two or more
// folders on the note's ancestor chain, in the order they first appear
// walking up from the note. Mode and exclusions are ignored.
func DetectConflicts(notePath string, source TagSource) []string {
	counts := make(map[string]int)
	var order []string
	for _, folder := range vaultpath.Ancestors(vaultpath.Dir(notePath)) {
		for _, t := range tagset.Unique(source.Get(folder)) {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	out := make([]string, 0)
	for _, t := range order {
		if counts[t] >= 2 {
			out = append(out, t)
		}
	}
	return out
}
