package tagstore

import "github.com/starford/foldertags/internal/vaultpath"

// Source is anything that yields a folder's own tags.
type Source interface {
	Get(folder string) []string
}

// Overlay reports Tags for Path and defers to Base for every other folder.
// It lets callers resolve against the map as it was before a single
// assignment changed.
type Overlay struct {
	Base Source
	Path string
	Tags []string
}

// Get implements Source.
func (o Overlay) Get(folder string) []string {
	if vaultpath.Normalize(folder) == vaultpath.Normalize(o.Path) {
		return o.Tags
	}
	return o.Base.Get(folder)
}

// Mapping is a plain folder map used as a Source.
type Mapping map[string][]string

// Get implements Source.
func (m Mapping) Get(folder string) []string { return m[vaultpath.Normalize(folder)] }
