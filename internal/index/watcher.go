package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/foldertags/internal/events"
	"github.com/starford/foldertags/internal/storage"
	"github.com/starford/foldertags/internal/vaultpath"
)

// reconcileDelay is how long the watcher waits after the last structural
// change before it diffs the index against the disk.
const reconcileDelay = 200 * time.Millisecond

// Handler receives the vault events derived from file system changes.
type Handler func(events.Event)

// Watch starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled.
//
// Writes to indexed notes are reindexed in place and reported as
// NoteModified. Everything structural (new notes, removals, renames, folder
// changes) schedules a debounced reconcile pass that diffs the index against
// the disk and pairs departures with arrivals: a vanished folder whose notes
// reappear under another folder is a FolderRenamed, a vanished note whose
// content reappears elsewhere is a NoteMoved.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, handle Handler) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if handle == nil {
		handle = func(events.Event) {}
	}
	w := &watcher{
		fw:       fw,
		db:       db,
		store:    store,
		root:     vaultRoot,
		logger:   logger,
		emit:     handle,
		dirs:     make(map[string]struct{}),
		arrived:  make(map[string]struct{}),
		departed: make(map[string]struct{}),
	}
	if err := w.addDirsRecursive(vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				scheduleReconcile()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

type watcher struct {
	fw     *fsnotify.Watcher
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	emit   Handler

	// dirs holds every watched folder except the root.
	dirs     map[string]struct{}
	arrived  map[string]struct{}
	departed map[string]struct{}
}

// handle processes one fsnotify event and reports whether a reconcile pass
// is needed.
func (w *watcher) handle(ev fsnotify.Event) bool {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	if hidden(rel) {
		return false
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if addErr := w.addDirsRecursive(ev.Name); addErr != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", rel),
					slog.String("error", addErr.Error()))
			} else {
				w.logger.Debug("watcher: watching new dir", slog.String("path", rel))
			}
			if _, ok := w.departed[rel]; ok {
				delete(w.departed, rel)
			} else {
				w.arrived[rel] = struct{}{}
			}
			return true
		}
	}

	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if _, ok := w.dirs[rel]; ok {
			w.dropDir(rel)
			return true
		}
	}

	if !storage.IsNote(rel) {
		return false
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		old, err := w.db.GetChecksum(rel)
		if err != nil || old == "" {
			return true
		}
		w.reindex(rel, old)
		return false
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return true
	}
	return false
}

// reindex refreshes an indexed note and reports a NoteModified when its
// content changed.
func (w *watcher) reindex(rel, old string) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Debug("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := indexFile(w.db, rel, data); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if cs, _ := w.db.GetChecksum(rel); cs == old {
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", "modified"))
	w.emit(events.NoteModified{Path: rel})
}

// dropDir forgets a folder that vanished from its path, together with every
// watched folder below it.
func (w *watcher) dropDir(rel string) {
	for d := range w.dirs {
		if vaultpath.Within(d, rel) {
			delete(w.dirs, d)
			_ = w.fw.Remove(filepath.Join(w.root, filepath.FromSlash(d)))
		}
	}
	for d := range w.arrived {
		if vaultpath.Within(d, rel) {
			delete(w.arrived, d)
		}
	}
	w.departed[rel] = struct{}{}
}

// reconcile diffs the index against the disk and reports what happened
// since the last pass. Folder events are emitted before note events.
func (w *watcher) reconcile() {
	indexed, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	stale := make(map[string]string)
	fresh := make(map[string]string)
	var changed []string
	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		cs, ok := indexed[m.Path]
		switch {
		case !ok:
			fresh[m.Path] = m.Checksum
		case cs != m.Checksum:
			changed = append(changed, m.Path)
		}
	}
	for p, cs := range indexed {
		if _, ok := disk[p]; !ok {
			stale[p] = cs
		}
	}

	departed := w.settle(w.departed, false)
	arrived := w.settle(w.arrived, true)
	w.departed = make(map[string]struct{})
	w.arrived = make(map[string]struct{})

	pairs := pairFolders(topmost(departed), topmost(arrived), stale, fresh)
	var folderEvents []events.Event
	renamedFrom := make([]string, 0, len(pairs))
	renamedTo := make([]string, 0, len(pairs))
	for _, pr := range pairs {
		for _, p := range sortedKeys(stale) {
			if !vaultpath.Within(p, pr.from) {
				continue
			}
			q := vaultpath.Rebase(p, pr.from, pr.to)
			if _, ok := fresh[q]; !ok {
				continue
			}
			w.move(p, q)
			delete(stale, p)
			delete(fresh, q)
		}
		renamedFrom = append(renamedFrom, pr.from)
		renamedTo = append(renamedTo, pr.to)
		folderEvents = append(folderEvents, events.FolderRenamed{From: pr.from, To: pr.to})
	}
	for _, d := range topmost(departed) {
		if withinAny(d, renamedFrom) {
			continue
		}
		folderEvents = append(folderEvents, events.FolderDeleted{Path: d})
	}
	for _, a := range arrived {
		if withinAny(a, renamedTo) {
			continue
		}
		folderEvents = append(folderEvents, events.FolderCreated{Path: a})
	}

	var noteEvents []events.Event
	byChecksum := make(map[string][]string)
	for _, p := range sortedKeys(stale) {
		byChecksum[stale[p]] = append(byChecksum[stale[p]], p)
	}
	for _, q := range sortedKeys(fresh) {
		if olds := byChecksum[fresh[q]]; len(olds) > 0 {
			p := olds[0]
			byChecksum[fresh[q]] = olds[1:]
			delete(stale, p)
			if w.move(p, q) {
				noteEvents = append(noteEvents, events.NoteMoved{From: p, To: q})
			}
			continue
		}
		if w.index(q) {
			noteEvents = append(noteEvents, events.NoteCreated{Path: q})
		}
	}
	sort.Strings(changed)
	for _, p := range changed {
		if w.index(p) {
			noteEvents = append(noteEvents, events.NoteModified{Path: p})
		}
	}
	for _, p := range sortedKeys(stale) {
		if err := w.db.DeleteNote(p); err != nil {
			w.logger.Warn("reconcile: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		w.logger.Debug("reconcile: removed stale", slog.String("path", p))
	}

	for _, ev := range folderEvents {
		w.emit(ev)
	}
	for _, ev := range noteEvents {
		w.emit(ev)
	}
}

// settle returns the sorted folders of set that are still in the state the
// watcher recorded: arrivals must exist as folders, departures must be gone.
func (w *watcher) settle(set map[string]struct{}, present bool) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		e, err := w.store.Stat(d)
		exists := err == nil && e.IsDir
		if exists == present {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

func (w *watcher) index(p string) bool {
	data, err := w.store.Read(p)
	if err != nil {
		w.logger.Debug("reconcile: read failed", slog.String("path", p), slog.String("error", err.Error()))
		return false
	}
	if err := indexFile(w.db, p, data); err != nil {
		w.logger.Warn("reconcile: index failed", slog.String("path", p), slog.String("error", err.Error()))
		return false
	}
	w.logger.Debug("reconcile: indexed", slog.String("path", p))
	return true
}

func (w *watcher) move(from, to string) bool {
	if !w.index(to) {
		return false
	}
	if err := w.db.DeleteNote(from); err != nil {
		w.logger.Warn("reconcile: delete failed", slog.String("path", from), slog.String("error", err.Error()))
	}
	return true
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func (w *watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			return err
		}
		if rel, relErr := filepath.Rel(w.root, path); relErr == nil && rel != "." {
			w.dirs[filepath.ToSlash(rel)] = struct{}{}
		}
		return nil
	})
}

type folderPair struct {
	from, to string
}

// pairFolders matches departed folders to arrived ones. A pair is scored by
// how many stale notes below the departed folder reappear, with the same
// content, at the rebased path below the arrived folder. Remaining empty
// folders pair only when exactly one of each is left.
func pairFolders(departed, arrived []string, stale, fresh map[string]string) []folderPair {
	var out []folderPair
	used := make(map[string]bool)
	var emptyDeparted []string
	for _, d := range departed {
		best, bestScore := "", 0
		hasNotes := false
		for p := range stale {
			if vaultpath.Within(p, d) {
				hasNotes = true
				break
			}
		}
		for _, a := range arrived {
			if used[a] {
				continue
			}
			score := 0
			for p, cs := range stale {
				if !vaultpath.Within(p, d) {
					continue
				}
				if fresh[vaultpath.Rebase(p, d, a)] == cs {
					score++
				}
			}
			if score > bestScore {
				best, bestScore = a, score
			}
		}
		if bestScore > 0 {
			used[best] = true
			out = append(out, folderPair{from: d, to: best})
			continue
		}
		if !hasNotes {
			emptyDeparted = append(emptyDeparted, d)
		}
	}

	var emptyArrived []string
	for _, a := range arrived {
		if used[a] {
			continue
		}
		hasNotes := false
		for p := range fresh {
			if vaultpath.Within(p, a) {
				hasNotes = true
				break
			}
		}
		if !hasNotes {
			emptyArrived = append(emptyArrived, a)
		}
	}
	if len(emptyDeparted) == 1 && len(emptyArrived) == 1 {
		out = append(out, folderPair{from: emptyDeparted[0], to: emptyArrived[0]})
	}
	return out
}

// topmost drops every folder that lies below another folder of the sorted
// list.
func topmost(dirs []string) []string {
	var out []string
	for _, d := range dirs {
		if !withinAny(d, out) {
			out = append(out, d)
		}
	}
	return out
}

func withinAny(p string, folders []string) bool {
	for _, f := range folders {
		if vaultpath.Within(p, f) {
			return true
		}
	}
	return false
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
