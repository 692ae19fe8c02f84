// Package tagstore holds the folder tag map and its persisted form.
package tagstore

import (
	"sort"
	"sync"

	"github.com/starford/foldertags/internal/tagset"
	"github.com/starford/foldertags/internal/vaultpath"
)

// Store maps normalised folder paths to their own tags. Paths keep the
// order they were first assigned in. Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	order []string
	tags  map[string][]string
}

// New returns a store seeded from m. Seed paths are ordered by name since
// maps carry no order.
func New(m map[string][]string) *Store {
	s := &Store{tags: make(map[string][]string, len(m))}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.setLocked(k, m[k])
	}
	return s
}

// Get returns a copy of the folder's own tags, or nil.
func (s *Store) Get(folder string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags, ok := s.tags[vaultpath.Normalize(folder)]
	if !ok {
		return nil
	}
	return append([]string(nil), tags...)
}

// Set replaces the folder's own tags. Duplicates and empty strings are
// dropped; an empty result deletes the entry. It returns the previous tags.
func (s *Store) Set(folder string, tags []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(folder, tags)
}

func (s *Store) setLocked(folder string, tags []string) []string {
	key := vaultpath.Normalize(folder)
	prev := s.tags[key]
	clean := tagset.Unique(tags)
	if len(clean) == 0 {
		s.removeLocked(key)
		return prev
	}
	if _, ok := s.tags[key]; !ok {
		s.order = append(s.order, key)
	}
	s.tags[key] = clean
	return prev
}

// Delete forgets the folder and every folder below it. It returns the
// removed paths.
func (s *Store) Delete(folder string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	root := vaultpath.Normalize(folder)
	var removed []string
	for _, p := range append([]string(nil), s.order...) {
		if vaultpath.Within(p, root) {
			s.removeLocked(p)
			removed = append(removed, p)
		}
	}
	return removed
}

func (s *Store) removeLocked(key string) {
	if _, ok := s.tags[key]; !ok {
		return
	}
	delete(s.tags, key)
	for i, p := range s.order {
		if p == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Rename moves the entries of oldPath and its descendants under newPath.
// Entries already present at a destination are overwritten. It reports
// whether anything moved.
func (s *Store) Rename(oldPath, newPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, to := vaultpath.Normalize(oldPath), vaultpath.Normalize(newPath)
	if from == "" || from == to {
		return false
	}
	dest := make(map[string]string)
	for _, p := range s.order {
		if vaultpath.Within(p, from) {
			dest[p] = vaultpath.Rebase(p, from, to)
		}
	}
	if len(dest) == 0 {
		return false
	}
	overwritten := make(map[string]struct{}, len(dest))
	for _, dst := range dest {
		overwritten[dst] = struct{}{}
	}

	order := make([]string, 0, len(s.order))
	tags := make(map[string][]string, len(s.tags))
	for _, p := range s.order {
		if dst, ok := dest[p]; ok {
			order = append(order, dst)
			tags[dst] = s.tags[p]
			continue
		}
		if _, ok := overwritten[p]; ok {
			continue
		}
		order = append(order, p)
		tags[p] = s.tags[p]
	}
	s.order, s.tags = order, tags
	return true
}

// Paths returns every folder with tags, in assignment order.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...)
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := &Store{
		order: append([]string(nil), s.order...),
		tags:  make(map[string][]string, len(s.tags)),
	}
	for k, v := range s.tags {
		c.tags[k] = append([]string(nil), v...)
	}
	return c
}

// Replace makes the contents of other the contents of s. other must not be
// used afterwards.
func (s *Store) Replace(other *Store) {
	other.mu.RLock()
	order, tags := other.order, other.tags
	other.mu.RUnlock()

	s.mu.Lock()
	s.order, s.tags = order, tags
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the map.
func (s *Store) Snapshot() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.tags))
	for k, v := range s.tags {
		out[k] = append([]string(nil), v...)
	}
	return out
}
