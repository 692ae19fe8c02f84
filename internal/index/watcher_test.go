package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/foldertags/internal/events"
	"github.com/starford/foldertags/internal/storage"
)

// watcherTestEnv sets up a vault dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)
	return vaultDir, store, db
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recorder) handle(ev events.Event) {
	r.mu.Lock()
	r.evs = append(r.evs, ev)
	r.mu.Unlock()
}

func (r *recorder) has(want events.Event) func() bool {
	return func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, ev := range r.evs {
			if ev == want {
				return true
			}
		}
		return false
	}
}

func (r *recorder) count(match func(events.Event) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.evs {
		if match(ev) {
			n++
		}
	}
	return n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startWatch(t *testing.T, db *DB, store storage.Provider, vaultDir string) *recorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rec := &recorder{}
	go Watch(ctx, db, store, vaultDir, quietLogger(), rec.handle)
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	rec := startWatch(t, db, store, vaultDir)

	_ = os.WriteFile(filepath.Join(vaultDir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new.md")
		return cs != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, rec.has(events.NoteCreated{Path: "new.md"}),
		"expected NoteCreated for new.md")
}

func TestWatcher_ModifiedIndexedNote(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(vaultDir, "edit.md"), []byte("# Before"), 0o644)
	_, _ = Sync(context.Background(), db, store, quietLogger())
	before, _ := db.GetChecksum("edit.md")

	rec := startWatch(t, db, store, vaultDir)
	_ = store.Write("edit.md", []byte("# After #tag"))

	eventually(t, 5*time.Second, 50*time.Millisecond, rec.has(events.NoteModified{Path: "edit.md"}),
		"expected NoteModified for edit.md")
	after, _ := db.GetChecksum("edit.md")
	if after == before {
		t.Error("checksum not refreshed")
	}
	if n := rec.count(func(ev events.Event) bool { _, ok := ev.(events.NoteCreated); return ok }); n != 0 {
		t.Errorf("atomic rewrite reported %d NoteCreated events", n)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	rec := startWatch(t, db, store, vaultDir)

	subDir := filepath.Join(vaultDir, "subdir")
	_ = os.MkdirAll(subDir, 0o755)

	eventually(t, 2*time.Second, 50*time.Millisecond, rec.has(events.FolderCreated{Path: "subdir"}),
		"expected FolderCreated for subdir")

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("subdir/deep.md")
		return cs != ""
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(vaultDir, "del.md"), []byte("# Delete Me"), 0o644)
	_, _ = Sync(context.Background(), db, store, quietLogger())

	cs, _ := db.GetChecksum("del.md")
	if cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	startWatch(t, db, store, vaultDir)
	_ = os.Remove(filepath.Join(vaultDir, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.md")
		return cs == ""
	}, "deleted file still in index")
}

func TestWatcher_RenameReportsMove(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	_ = os.MkdirAll(filepath.Join(vaultDir, "Projects"), 0o755)
	_ = os.WriteFile(filepath.Join(vaultDir, "old.md"), []byte("# Rename"), 0o644)
	_, _ = Sync(context.Background(), db, store, quietLogger())

	rec := startWatch(t, db, store, vaultDir)
	_ = os.Rename(filepath.Join(vaultDir, "old.md"), filepath.Join(vaultDir, "Projects", "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.md")
		newCS, _ := db.GetChecksum("Projects/renamed.md")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")

	eventually(t, 2*time.Second, 50*time.Millisecond,
		rec.has(events.NoteMoved{From: "old.md", To: "Projects/renamed.md"}),
		"expected NoteMoved old.md -> Projects/renamed.md")
}

func TestWatcher_FolderRename(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	_ = os.MkdirAll(filepath.Join(vaultDir, "Work", "Q1"), 0o755)
	_ = os.WriteFile(filepath.Join(vaultDir, "Work", "a.md"), []byte("a"), 0o644)
	_ = os.WriteFile(filepath.Join(vaultDir, "Work", "Q1", "b.md"), []byte("b"), 0o644)
	_, _ = Sync(context.Background(), db, store, quietLogger())

	rec := startWatch(t, db, store, vaultDir)
	_ = os.Rename(filepath.Join(vaultDir, "Work"), filepath.Join(vaultDir, "Job"))

	eventually(t, 5*time.Second, 50*time.Millisecond, rec.has(events.FolderRenamed{From: "Work", To: "Job"}),
		"expected FolderRenamed Work -> Job")

	cs, _ := db.GetChecksum("Job/Q1/b.md")
	if cs == "" {
		t.Error("moved note not indexed under its new path")
	}
	if n := rec.count(func(ev events.Event) bool {
		switch ev.(type) {
		case events.NoteMoved, events.NoteCreated:
			return true
		}
		return false
	}); n != 0 {
		t.Errorf("folder rename reported %d note events", n)
	}
}

func TestWatcher_FolderDeleted(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	_ = os.MkdirAll(filepath.Join(vaultDir, "Trash"), 0o755)
	_ = os.WriteFile(filepath.Join(vaultDir, "Trash", "x.md"), []byte("x"), 0o644)
	_, _ = Sync(context.Background(), db, store, quietLogger())

	rec := startWatch(t, db, store, vaultDir)
	_ = os.RemoveAll(filepath.Join(vaultDir, "Trash"))

	eventually(t, 5*time.Second, 50*time.Millisecond, rec.has(events.FolderDeleted{Path: "Trash"}),
		"expected FolderDeleted for Trash")
	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("Trash/x.md")
		return cs == ""
	}, "note of deleted folder still indexed")
}

func TestPairFolders(t *testing.T) {
	stale := map[string]string{"A/x.md": "1", "A/y.md": "2", "B/z.md": "3"}
	fresh := map[string]string{"C/x.md": "1", "C/y.md": "2", "D/z.md": "9"}

	got := pairFolders([]string{"A", "B", "E"}, []string{"C", "D", "F"}, stale, fresh)
	want := []folderPair{{from: "A", to: "C"}, {from: "E", to: "F"}}
	if len(got) != len(want) {
		t.Fatalf("pairs = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pair %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTopmost(t *testing.T) {
	got := topmost([]string{"a", "a/b", "ab", "c/d", "c/d/e"})
	want := []string{"a", "ab", "c/d"}
	if len(got) != len(want) {
		t.Fatalf("topmost = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("topmost[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSync_IndexesAndPrunes(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	if err := os.MkdirAll(filepath.Join(vaultDir, "work"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(vaultDir, "work", "a.md"), []byte("---\ntags: [x]\n---\n# A\n"), 0o644)
	os.WriteFile(filepath.Join(vaultDir, "b.md"), []byte("# B\n"), 0o644)
	if err := db.UpsertNote(NoteRow{Path: "gone.md", Checksum: "old"}); err != nil {
		t.Fatal(err)
	}

	stats, err := Sync(context.Background(), db, store, quietLogger())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if want := (SyncStats{Notes: 2, Indexed: 2, Removed: 1}); stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	note, err := db.GetNote("work/a.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if note.Title != "A" {
		t.Errorf("Title = %q, want %q", note.Title, "A")
	}

	stats, err = Sync(context.Background(), db, store, quietLogger())
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if stats.Indexed != 0 || stats.Removed != 0 {
		t.Errorf("second pass changed something: %+v", stats)
	}
}
