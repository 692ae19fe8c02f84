// Package events defines the vault notifications the reconciliation loop
// consumes. Paths are vault-relative with "/" separators.
package events

// Event is one vault notification.
type Event interface {
	// Key groups events that concern the same object.
	Key() string
}

// NoteCreated reports a new note.
type NoteCreated struct {
	Path string
}

// NoteMoved reports a note that changed path, possibly across folders.
type NoteMoved struct {
	From, To string
}

// NoteModified reports a content change of an existing note.
type NoteModified struct {
	Path string
}

// FolderCreated reports a new folder.
type FolderCreated struct {
	Path string
}

// FolderDeleted reports a removed folder.
type FolderDeleted struct {
	Path string
}

// FolderRenamed reports a folder that changed path. Notes inside it are
// not reported individually.
type FolderRenamed struct {
	From, To string
}

// FolderTagsChanged reports a new own-tag assignment for a folder.
type FolderTagsChanged struct {
	Path     string
	Old, New []string
}

func (e NoteCreated) Key() string       { return "note:" + e.Path }
func (e NoteMoved) Key() string         { return "note:" + e.To }
func (e NoteModified) Key() string      { return "note:" + e.Path }
func (e FolderCreated) Key() string     { return "folder:" + e.Path }
func (e FolderDeleted) Key() string     { return "folder:" + e.Path }
func (e FolderRenamed) Key() string     { return "folder:" + e.To }
func (e FolderTagsChanged) Key() string { return "folder:" + e.Path }
