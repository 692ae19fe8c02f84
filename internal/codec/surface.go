package codec

import "github.com/starford/foldertags/internal/tagset"

// Surface is the representation tags are written in. Reads always
// aggregate both forms, since users mix them.
type Surface interface {
	// Declared returns the tags held by the writable form, in order, with
	// duplicates.
	Declared(content string) []string
	// Extract returns every tag the note carries.
	Extract(content string) []string
	Set(content string, tags []string) string
	Add(content string, tags []string) string
	Remove(content string, tags []string) string
	RemoveAll(content string) string
	Dedupe(content string) string
}

// For returns the frontmatter surface when useFrontMatter is set and the
// plain-text surface otherwise.
func For(useFrontMatter bool) Surface {
	if useFrontMatter {
		return FrontMatter{}
	}
	return PlainText{}
}

// FrontMatter writes tags into the leading metadata block.
type FrontMatter struct{}

func (FrontMatter) Declared(content string) []string { return DeclaredTags(content) }
func (FrontMatter) Extract(content string) []string  { return ExtractTags(content) }
func (FrontMatter) Set(content string, tags []string) string {
	return SetTags(content, tags)
}
func (FrontMatter) Add(content string, tags []string) string {
	return AddTags(content, tags)
}
func (FrontMatter) Remove(content string, tags []string) string {
	return RemoveTags(content, tags)
}
func (FrontMatter) RemoveAll(content string) string { return RemoveAllTags(content) }
func (FrontMatter) Dedupe(content string) string    { return DedupeTags(content) }

// PlainText writes tags as a "#tag" run at the top of the body.
type PlainText struct{}

func (PlainText) Declared(content string) []string { return PlainTextTags(content) }
func (PlainText) Extract(content string) []string  { return ExtractTags(content) }
func (PlainText) Set(content string, tags []string) string {
	return SetTagsAsPlainText(content, tags)
}
func (PlainText) Add(content string, tags []string) string {
	return AddTagsAsPlainText(content, tags)
}
func (PlainText) Remove(content string, tags []string) string {
	return removeFromPlainText(content, tags)
}
func (PlainText) RemoveAll(content string) string { return RemoveTagsFromPlainText(content) }
func (PlainText) Dedupe(content string) string {
	declared := PlainTextTags(content)
	if len(declared) == len(tagset.Unique(declared)) {
		return content
	}
	return SetTagsAsPlainText(content, declared)
}
