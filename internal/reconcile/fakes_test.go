package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/starford/foldertags/internal/models"
	"github.com/starford/foldertags/internal/prompt"
	"github.com/starford/foldertags/internal/resolver"
	"github.com/starford/foldertags/internal/tagstore"
	"github.com/starford/foldertags/internal/vaultpath"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memNotes is an in-memory vault.
type memNotes struct {
	mu       sync.Mutex
	files    map[string]string
	writes   int
	failPath string
}

func newMemNotes(files map[string]string) *memNotes {
	if files == nil {
		files = map[string]string{}
	}
	return &memNotes{files: files}
}

func (m *memNotes) List(dir string) ([]models.NoteMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.NoteMetadata
	for p := range m.files {
		if vaultpath.Within(p, dir) {
			out = append(out, models.NoteMetadata{Path: p})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *memNotes) Read(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	return []byte(s), nil
}

func (m *memNotes) Write(path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if path == m.failPath {
		return fmt.Errorf("write %s: disk full", path)
	}
	m.files[path] = string(content)
	m.writes++
	return nil
}

func (m *memNotes) get(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[path]
}

// fakeEngine wraps a tag store and fixed settings.
type fakeEngine struct {
	store    *tagstore.Store
	settings models.Settings
}

func newEngine(tags map[string][]string, mutate func(*models.Settings)) *fakeEngine {
	s := models.DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	return &fakeEngine{store: tagstore.New(tags), settings: s}
}

func (e *fakeEngine) Settings() models.Settings { return e.settings }
func (e *fakeEngine) Tags() resolver.TagSource  { return e.store }
func (e *fakeEngine) ForgetFolder(_ context.Context, folder string) error {
	e.store.Delete(folder)
	return nil
}
func (e *fakeEngine) MoveFolder(_ context.Context, from, to string) (resolver.TagSource, error) {
	before := tagstore.Mapping(e.store.Snapshot())
	e.store.Rename(from, to)
	return before, nil
}

// scripted answers every prompt with choice and records what it saw.
type scripted struct {
	mu     sync.Mutex
	choice string
	asked  []prompt.Prompt
}

func (s *scripted) Ask(_ context.Context, p prompt.Prompt) (prompt.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, p)
	if s.choice == "" {
		return prompt.Dismissed, nil
	}
	return prompt.Answer{Choice: s.choice}, nil
}

func (s *scripted) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.asked)
}

func optionIDs(p prompt.Prompt) string {
	ids := make([]string, 0, len(p.Options))
	for _, o := range p.Options {
		ids = append(ids, o.ID)
	}
	return strings.Join(ids, ",")
}
