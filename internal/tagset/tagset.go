// Package tagset implements an insertion-ordered set of tag strings.
//
// Order of first appearance is kept for display; membership and equality
// use set semantics.
package tagset

// Set is an ordered set of tags. The zero value is empty and ready to use.
type Set struct {
	items []string
	index map[string]struct{}
}

// New returns a set holding tags in first-seen order. Empty strings are
// skipped.
func New(tags ...string) *Set {
	s := &Set{}
	s.Add(tags...)
	return s
}

// Add appends tags not already present. It reports whether any were added.
func (s *Set) Add(tags ...string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{}, len(tags))
	}
	added := false
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := s.index[t]; ok {
			continue
		}
		s.index[t] = struct{}{}
		s.items = append(s.items, t)
		added = true
	}
	return added
}

// Remove deletes tags from the set, keeping the order of the rest.
func (s *Set) Remove(tags ...string) {
	if len(s.items) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		drop[t] = struct{}{}
	}
	kept := s.items[:0]
	for _, t := range s.items {
		if _, ok := drop[t]; ok {
			delete(s.index, t)
			continue
		}
		kept = append(kept, t)
	}
	s.items = kept
}

// Has reports whether tag is a member.
func (s *Set) Has(tag string) bool {
	_, ok := s.index[tag]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int { return len(s.items) }

// Slice returns the members in order. The result is a copy and never nil.
func (s *Set) Slice() []string {
	return append(make([]string, 0, len(s.items)), s.items...)
}

// Unique returns tags de-duplicated in first-seen order, skipping empties.
func Unique(tags []string) []string {
	return New(tags...).Slice()
}

// Equal reports whether a and b hold the same members, ignoring order and
// duplicates.
func Equal(a, b []string) bool {
	sa, sb := New(a...), New(b...)
	if sa.Len() != sb.Len() {
		return false
	}
	for _, t := range sa.items {
		if !sb.Has(t) {
			return false
		}
	}
	return true
}

// Subset reports whether every member of a is in b.
func Subset(a, b []string) bool {
	sb := New(b...)
	for _, t := range a {
		if t != "" && !sb.Has(t) {
			return false
		}
	}
	return true
}

// Union returns a followed by members of b not in a.
func Union(a, b []string) []string {
	s := New(a...)
	s.Add(b...)
	return s.Slice()
}

// Minus returns members of a that are not in b, in a's order.
func Minus(a, b []string) []string {
	s := New(a...)
	s.Remove(b...)
	return s.Slice()
}
