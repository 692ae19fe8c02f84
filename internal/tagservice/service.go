// Package tagservice is the engine's front door: it owns the folder tag
// map and settings, persists them on every change and applies folder tags
// to notes on request.
package tagservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/starford/foldertags/internal/apperr"
	"github.com/starford/foldertags/internal/codec"
	"github.com/starford/foldertags/internal/events"
	"github.com/starford/foldertags/internal/models"
	"github.com/starford/foldertags/internal/reconcile"
	"github.com/starford/foldertags/internal/resolver"
	"github.com/starford/foldertags/internal/tagset"
	"github.com/starford/foldertags/internal/tagstore"
	"github.com/starford/foldertags/internal/vaultpath"
)

// Notes reads and writes whole notes and lists folder contents.
type Notes interface {
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
	Children(dir string) ([]models.Entry, error)
}

// FolderTags is one folder's own tag assignment.
type FolderTags struct {
	Path string   `json:"path"`
	Tags []string `json:"tags"`
}

// Option configures a Service.
type Option func(*Service)

// WithDispatch sets the function that receives FolderTagsChanged events.
func WithDispatch(fn func(ctx context.Context, ev events.Event)) Option {
	return func(s *Service) { s.dispatch = fn }
}

// Service coordinates the tag store, settings and note rewrites.
type Service struct {
	notes    Notes
	blob     tagstore.Blob
	logger   *slog.Logger
	store    *tagstore.Store
	dispatch func(ctx context.Context, ev events.Event)

	mu       sync.RWMutex
	settings models.Settings

	saveMu sync.Mutex
}

// New loads persisted state from blob and returns a ready service.
// fallback seeds the settings when nothing valid was saved.
func New(ctx context.Context, notes Notes, blob tagstore.Blob, fallback models.Settings, logger *slog.Logger, opts ...Option) *Service {
	st := tagstore.Load(ctx, blob, fallback, logger)
	s := &Service{
		notes:    notes,
		blob:     blob,
		logger:   logger,
		store:    tagstore.New(st.FolderTags),
		settings: st.Settings,
		dispatch: func(context.Context, events.Event) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// commit runs fn against copies of the tag map and settings, saves the
// result and only then makes it live. When fn reports no change nothing is
// saved. A failed save leaves the live state untouched.
func (s *Service) commit(ctx context.Context, fn func(store *tagstore.Store, settings *models.Settings) bool) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	store := s.store.Clone()
	settings := s.Settings()
	if !fn(store, &settings) {
		return nil
	}
	st := tagstore.State{
		Settings:   settings.Clone(),
		FolderTags: store.Snapshot(),
		Version:    tagstore.Version,
	}
	if err := tagstore.Save(ctx, s.blob, st); err != nil {
		return fmt.Errorf("tagservice: persist: %w", err)
	}

	s.store.Replace(store)
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}

// Settings returns a copy of the current settings.
func (s *Service) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// UpdateSettings replaces the settings and persists them.
func (s *Service) UpdateSettings(ctx context.Context, next models.Settings) error {
	if !next.InheritanceMode.Valid() {
		return fmt.Errorf("%w: inheritance mode %q", apperr.ErrInvalidInput, next.InheritanceMode)
	}
	next = next.Clone()
	for i, f := range next.ExcludedFolders {
		next.ExcludedFolders[i] = vaultpath.Normalize(f)
	}
	return s.commit(ctx, func(_ *tagstore.Store, settings *models.Settings) bool {
		*settings = next
		return true
	})
}

// Tags exposes the live folder tag map.
func (s *Service) Tags() resolver.TagSource { return s.store }

func (s *Service) surface() codec.Surface {
	return codec.For(s.Settings().UseFrontMatter)
}

// SetFolderTags assigns own tags to folder, persists the map and, when
// the assignment changed, dispatches a FolderTagsChanged event.
func (s *Service) SetFolderTags(ctx context.Context, folder string, tags []string) error {
	folder = vaultpath.Normalize(folder)
	if folder == "" {
		return fmt.Errorf("%w: the vault root cannot hold tags", apperr.ErrInvalidInput)
	}
	next := tagset.Unique(tags)
	var prev []string
	err := s.commit(ctx, func(store *tagstore.Store, _ *models.Settings) bool {
		prev = store.Set(folder, next)
		return true
	})
	if err != nil {
		return err
	}
	if tagset.Equal(prev, next) {
		return nil
	}
	s.logger.Info("tagservice: folder tags set",
		slog.String("path", folder),
		slog.Int("count", len(next)))
	s.dispatch(ctx, events.FolderTagsChanged{Path: folder, Old: prev, New: next})
	return nil
}

// GetFolderTags returns folder's own tags.
func (s *Service) GetFolderTags(folder string) []string {
	return nonNil(s.store.Get(folder))
}

// GetFolderTagsWithInheritance returns folder's effective tags under the
// current settings.
func (s *Service) GetFolderTagsWithInheritance(folder string) []string {
	return resolver.ResolveWith(folder, s.Settings(), s.store)
}

// ListFolderTags returns every tagged folder in the order its tags were
// first assigned.
func (s *Service) ListFolderTags() []FolderTags {
	snap := s.store.Clone()
	paths := snap.Paths()
	out := make([]FolderTags, 0, len(paths))
	for _, p := range paths {
		out = append(out, FolderTags{Path: p, Tags: snap.Get(p)})
	}
	return out
}

// DeleteFolder forgets folder and its descendants. Notes keep the tags
// already written into them.
func (s *Service) DeleteFolder(ctx context.Context, folder string) error {
	return s.ForgetFolder(ctx, folder)
}

// ForgetFolder implements reconcile.Engine.
func (s *Service) ForgetFolder(ctx context.Context, folder string) error {
	return s.commit(ctx, func(store *tagstore.Store, _ *models.Settings) bool {
		return len(store.Delete(folder)) > 0
	})
}

// MoveFolder implements reconcile.Engine. Exclusions under the old path
// follow the folder.
func (s *Service) MoveFolder(ctx context.Context, from, to string) (resolver.TagSource, error) {
	from, to = vaultpath.Normalize(from), vaultpath.Normalize(to)
	var before tagstore.Mapping
	err := s.commit(ctx, func(store *tagstore.Store, settings *models.Settings) bool {
		before = tagstore.Mapping(store.Snapshot())
		moved := store.Rename(from, to)
		rebased := false
		for i, f := range settings.ExcludedFolders {
			if from != "" && vaultpath.Within(f, from) {
				// Exclusions now name the new path, so the old entry must
				// not contribute to the before view either.
				delete(before, vaultpath.Normalize(f))
				settings.ExcludedFolders[i] = vaultpath.Rebase(f, from, to)
				rebased = true
			}
		}
		return moved || rebased
	})
	if err != nil {
		return nil, err
	}
	return before, nil
}

// ApplyFolderTagsToFile merges the effective tags of the note's folder
// into the note and returns the note's tags afterwards.
func (s *Service) ApplyFolderTagsToFile(ctx context.Context, note string) ([]string, error) {
	eff := s.GetFolderTagsWithInheritance(vaultpath.Dir(note))
	plan := reconcile.NotePlan{Path: note, New: eff}
	return s.modify(ctx, note, func(surface codec.Surface, content string) string {
		return reconcile.Apply(surface, content, reconcile.Merge, plan)
	})
}

// RemoveTagsFromFile strips the effective folder tags from the note,
// leaving tags added by hand.
func (s *Service) RemoveTagsFromFile(ctx context.Context, note string) ([]string, error) {
	eff := s.GetFolderTagsWithInheritance(vaultpath.Dir(note))
	return s.modify(ctx, note, func(surface codec.Surface, content string) string {
		return surface.Remove(content, eff)
	})
}

// ReplaceAllTags overwrites the note's tag list with tags. Inline tokens
// not in tags are stripped from the body.
func (s *Service) ReplaceAllTags(ctx context.Context, note string, tags []string) ([]string, error) {
	plan := reconcile.NotePlan{Path: note, New: tags}
	return s.modify(ctx, note, func(surface codec.Surface, content string) string {
		return reconcile.Apply(surface, content, reconcile.ReplaceAll, plan)
	})
}

// MergeTags removes oldTags from the note's list, keeping tags added by
// hand, and adds newTags.
func (s *Service) MergeTags(ctx context.Context, note string, oldTags, newTags []string) ([]string, error) {
	plan := reconcile.NotePlan{Path: note, Old: oldTags, New: newTags}
	return s.modify(ctx, note, func(surface codec.Surface, content string) string {
		return reconcile.Apply(surface, content, reconcile.Merge, plan)
	})
}

// ApplyFolderTagsToFolder merges folder tags into every note below folder.
// Each note receives the effective tags of the folder it sits in. It
// returns the notes whose content changed.
func (s *Service) ApplyFolderTagsToFolder(ctx context.Context, folder string) ([]string, error) {
	changed := []string{}
	err := s.walkNotes(ctx, vaultpath.Normalize(folder), func(note string) error {
		plan := reconcile.NotePlan{Path: note, New: s.GetFolderTagsWithInheritance(vaultpath.Dir(note))}
		_, ok, err := s.rewrite(note, func(surface codec.Surface, content string) string {
			return reconcile.Apply(surface, content, reconcile.Merge, plan)
		})
		if ok {
			changed = append(changed, note)
		}
		return err
	})
	return changed, err
}

// walkNotes calls fn for every note below dir, folders first.
func (s *Service) walkNotes(ctx context.Context, dir string, fn func(note string) error) error {
	entries, err := s.notes.Children(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("tagservice: %s: %w", dir, apperr.ErrNotFound)
		}
		return fmt.Errorf("tagservice: children %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir {
			err = s.walkNotes(ctx, e.Path, fn)
		} else {
			err = fn(e.Path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// modify reads the note, transforms it in memory and writes it back once
// when the content changed.
func (s *Service) modify(_ context.Context, note string, fn func(codec.Surface, string) string) ([]string, error) {
	tags, _, err := s.rewrite(note, fn)
	return tags, err
}

// rewrite is modify that also reports whether the note was written.
func (s *Service) rewrite(note string, fn func(codec.Surface, string) string) ([]string, bool, error) {
	note = vaultpath.Normalize(note)
	data, err := s.notes.Read(note)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("tagservice: %s: %w", note, apperr.ErrNotFound)
		}
		return nil, false, fmt.Errorf("tagservice: read %s: %w", note, err)
	}
	surface := s.surface()
	before := string(data)
	after := fn(surface, before)
	if after == before {
		return surface.Extract(after), false, nil
	}
	if err := s.notes.Write(note, []byte(after)); err != nil {
		return nil, false, fmt.Errorf("tagservice: write %s: %w", note, err)
	}
	s.logger.Debug("tagservice: note updated", slog.String("path", note))
	return surface.Extract(after), true, nil
}

// ExtractTagsFromContent returns every tag in text.
func (s *Service) ExtractTagsFromContent(text string) []string {
	return s.surface().Extract(text)
}

// UpdateTagsInContent replaces the tag list of text.
func (s *Service) UpdateTagsInContent(text string, tags []string) string {
	return s.surface().Set(text, tags)
}

// AddTagsToContent merges tags into text.
func (s *Service) AddTagsToContent(text string, tags []string) string {
	return s.surface().Add(text, tags)
}

// RemoveAllTagsFromContent drops the tag list from text.
func (s *Service) RemoveAllTagsFromContent(text string) string {
	return s.surface().RemoveAll(text)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
