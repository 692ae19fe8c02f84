package codec

import (
	"github.com/starford/foldertags/internal/tagset"
)

// ExtractTags returns every tag the note carries: tags declared in the
// metadata block first, in file order, followed by inline "#tag" tokens
// from the body in document order. Duplicates are collapsed.
func ExtractTags(content string) []string {
	doc := parse(content)
	s := tagset.New(doc.declared()...)
	s.Add(inlineTags(doc.body)...)
	return s.Slice()
}

// DeclaredTags returns the tags listed in the metadata block, duplicates
// included, ignoring inline tokens.
func DeclaredTags(content string) []string {
	return parse(content).declared()
}

// SetTags replaces the block's tag list with tags written in list form. A
// block is created when tags is non-empty and none exists. With no tags the
// key is removed, and the block with it when nothing else is left.
func SetTags(content string, tags []string) string {
	doc := parse(content)
	want := tagset.Unique(tags)
	if len(want) == 0 && !doc.hasTagsEntry() {
		return content
	}
	doc.setTags(want)
	return doc.render()
}

// AddTags merges tags into whatever the block already declares. Content is
// returned unchanged when every tag is already declared.
func AddTags(content string, tags []string) string {
	doc := parse(content)
	current := doc.declared()
	merged := tagset.New(current...)
	if !merged.Add(tags...) {
		return content
	}
	doc.setTags(merged.Slice())
	return doc.render()
}

// RemoveAllTags drops the tags key and its items from the block. Other keys,
// including their own list items, are kept. A block left empty is removed
// with its delimiters. Inline tokens in the body are not touched.
func RemoveAllTags(content string) string {
	doc := parse(content)
	if !doc.hasTagsEntry() {
		return content
	}
	doc.setTags(nil)
	return doc.render()
}

// RemoveTags deletes the given tags from the block and strips matching
// inline "#tag" tokens from the body. Tags not listed are left in place.
func RemoveTags(content string, tags []string) string {
	drop := dropSet(tags)
	if len(drop) == 0 {
		return content
	}
	doc := parse(content)
	changed := false

	declared := doc.declared()
	kept := make([]string, 0, len(declared))
	for _, t := range declared {
		if _, ok := drop[t]; ok {
			changed = true
			continue
		}
		kept = append(kept, t)
	}
	if changed {
		doc.setTags(kept)
	}

	if body := removeInline(doc.body, drop); body != doc.body {
		doc.body = body
		changed = true
	}
	if !changed {
		return content
	}
	return doc.render()
}

// DedupeTags collapses repeated entries in the block's tag list, keeping the
// first occurrence of each.
func DedupeTags(content string) string {
	doc := parse(content)
	declared := doc.declared()
	unique := tagset.Unique(declared)
	if len(unique) == len(declared) {
		return content
	}
	doc.setTags(unique)
	return doc.render()
}

func dropSet(tags []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t != "" {
			out[t] = struct{}{}
		}
	}
	return out
}
