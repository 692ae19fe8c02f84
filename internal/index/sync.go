package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/foldertags/internal/checksum"
	"github.com/starford/foldertags/internal/parser"
	"github.com/starford/foldertags/internal/storage"
)

// SyncStats counts what a Sync pass changed.
type SyncStats struct {
	Notes   int
	Indexed int
	Removed int
}

// Sync catches the index up with the vault: notes whose checksum differs
// are re-parsed, rows for vanished notes are dropped. It runs inside the
// initial-load window and publishes no events, so nothing it touches is
// reconciled.
func Sync(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	metas, err := store.List("")
	if err != nil {
		return stats, fmt.Errorf("index: sync: list: %w", err)
	}
	known, err := db.AllChecksums()
	if err != nil {
		return stats, fmt.Errorf("index: sync: %w", err)
	}
	stats.Notes = len(metas)

	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		sum, seen := known[m.Path]
		delete(known, m.Path)
		if seen && sum == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
	}

	// Whatever is left in known no longer exists on disk.
	for p := range known {
		if err := db.DeleteNote(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
	}

	logger.Info("sync: complete",
		slog.Int("notes", stats.Notes),
		slog.Int("indexed", stats.Indexed),
		slog.Int("removed", stats.Removed),
	)
	return stats, nil
}

func indexFile(db *DB, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertNote(NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Tags:      res.Tags,
		UpdatedAt: time.Now().UTC(),
	})
}
