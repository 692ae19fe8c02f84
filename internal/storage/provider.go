// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/foldertags/internal/models"

// Provider is the interface for vault file operations. Paths are relative
// to the vault root and use "/" separators.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write replaces the whole file at path atomically.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Children returns the direct children of dir, folders first.
	Children(dir string) ([]models.Entry, error)
	// Stat resolves path to its live entry.
	Stat(path string) (models.Entry, error)
}
