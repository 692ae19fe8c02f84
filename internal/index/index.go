package index

// NoteIndex is the read/write surface of the note index. Consumers depend
// on it rather than on *DB so tests can substitute fakes.
type NoteIndex interface {
	UpsertNote(n NoteRow) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	GetNote(path string) (*NoteRow, error)
	ListByTag(tag string, limit, offset int) ([]NoteRow, int, error)
	TagCounts() ([]TagCount, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ NoteIndex = (*DB)(nil)
