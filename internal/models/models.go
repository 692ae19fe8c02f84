// Package models defines the domain types shared across the tagging engine.
package models

import "time"

// InheritanceMode controls how far up the folder tree tag inheritance walks.
type InheritanceMode string

// Inheritance modes.
const (
	// InheritNone applies only the note's own folder tags.
	InheritNone InheritanceMode = "none"
	// InheritImmediate applies the folder's tags plus its direct parent's.
	InheritImmediate InheritanceMode = "immediate"
	// InheritAll applies the tags of every ancestor up to the vault root.
	InheritAll InheritanceMode = "all"
)

// Valid reports whether m is one of the known modes.
func (m InheritanceMode) Valid() bool {
	switch m {
	case InheritNone, InheritImmediate, InheritAll:
		return true
	}
	return false
}

// Settings is the user-facing engine configuration persisted alongside the
// folder tag map.
type Settings struct {
	InheritanceMode InheritanceMode `json:"inheritanceMode"`
	ExcludedFolders []string        `json:"excludedFolders"`
	UseFrontMatter  bool            `json:"useFrontMatter"`
	AutoApplyTags   bool            `json:"autoApplyTags"`
	NewFolderPrompt bool            `json:"newFolderPrompt"`
}

// DefaultSettings returns the settings used when nothing has been persisted.
func DefaultSettings() Settings {
	return Settings{
		InheritanceMode: InheritImmediate,
		ExcludedFolders: []string{},
		UseFrontMatter:  true,
		AutoApplyTags:   false,
		NewFolderPrompt: true,
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	out.ExcludedFolders = append([]string{}, s.ExcludedFolders...)
	return out
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entry is a direct child of a vault folder.
type Entry struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}
