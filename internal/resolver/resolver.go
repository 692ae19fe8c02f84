// Package resolver computes the tags a folder hands down to its notes and
// the tags its ancestors assign more than once.
package resolver

import (
	"github.com/starford/foldertags/internal/models"
	"github.com/starford/foldertags/internal/tagset"
	"github.com/starford/foldertags/internal/vaultpath"
)

// TagSource yields the tags assigned directly to a folder.
type TagSource interface {
	Get(folder string) []string
}

// Resolve returns the effective tag set of folder under mode. Own tags of
// the folder come first, then each ancestor's in walk order. Under
// InheritNone the folder's own tags are returned as is; otherwise folders
// in exclusions contribute nothing, the starting folder included. The
// root never contributes.
func Resolve(folder string, mode models.InheritanceMode, exclusions []string, source TagSource) []string {
	start := vaultpath.Normalize(folder)
	if mode == models.InheritNone {
		if start == "" {
			return []string{}
		}
		return tagset.Unique(source.Get(start))
	}
	excluded := make(map[string]struct{}, len(exclusions))
	for _, e := range exclusions {
		excluded[vaultpath.Normalize(e)] = struct{}{}
	}

	acc := &tagset.Set{}
	for cur := start; cur != ""; {
		if _, skip := excluded[cur]; !skip {
			acc.Add(source.Get(cur)...)
		}
		if mode == models.InheritImmediate && cur != start {
			break
		}
		parent := vaultpath.Parent(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return acc.Slice()
}

// ResolveWith is Resolve driven by the mode and exclusions of settings.
func ResolveWith(folder string, settings models.Settings, source TagSource) []string {
	return Resolve(folder, settings.InheritanceMode, settings.ExcludedFolders, source)
}
