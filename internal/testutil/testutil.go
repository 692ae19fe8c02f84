// Package testutil provides shared test helpers for setting up vaults,
// databases and the tagging service.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/foldertags/internal/index"
	"github.com/starford/foldertags/internal/models"
	"github.com/starford/foldertags/internal/storage"
	"github.com/starford/foldertags/internal/tagservice"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "foldertags-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestService builds a tagging service over store that keeps its state in
// the kv table of db.
func TestService(t *testing.T, store storage.Provider, db *index.DB, opts ...tagservice.Option) *tagservice.Service {
	t.Helper()
	return tagservice.New(context.Background(), store, db.StateBlob("state"), models.DefaultSettings(), Logger(), opts...)
}
