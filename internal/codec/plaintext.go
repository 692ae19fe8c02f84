package codec

import (
	"strings"

	"github.com/starford/foldertags/internal/tagset"
)

// plainRun locates the leading run of tag-only lines in a note body. A tag
// line holds nothing but "#token" words; the run also swallows the blank
// lines that follow it. end is the byte offset where the body proper starts.
func plainRun(body string) (tags []string, end int) {
	rest := body
	for rest != "" {
		line, next, hasNL := cutLine(rest)
		if !isTagLine(line) {
			break
		}
		tags = append(tags, inlineTags(line)...)
		end += consumed(line, hasNL)
		rest = next
	}
	if len(tags) == 0 {
		return nil, 0
	}
	for rest != "" {
		line, next, hasNL := cutLine(rest)
		if !isBlank(line) {
			break
		}
		end += consumed(line, hasNL)
		rest = next
	}
	return tags, end
}

func consumed(line string, hasNL bool) int {
	if hasNL {
		return len(line) + 1
	}
	return len(line)
}

func isTagLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if len(f) < 2 || f[0] != '#' || strings.Contains(f[1:], "#") {
			return false
		}
	}
	return true
}

// PlainTextTags returns the tags of the leading "#tag" run, after any
// metadata block.
func PlainTextTags(content string) []string {
	tags, _ := plainRun(parse(content).body)
	return tags
}

// AddTagsAsPlainText unions tags into the leading "#tag" run, creating the
// run when the note has none.
func AddTagsAsPlainText(content string, tags []string) string {
	doc := parse(content)
	current, end := plainRun(doc.body)
	merged := tagset.New(current...)
	if !merged.Add(tags...) {
		return content
	}
	doc.body = composeRun(merged.Slice(), doc.body[end:], doc.nl)
	return renderKeepingBlock(doc, content)
}

// RemoveTagsFromPlainText strips the leading "#tag" run and the blank lines
// after it.
func RemoveTagsFromPlainText(content string) string {
	doc := parse(content)
	_, end := plainRun(doc.body)
	if end == 0 {
		return content
	}
	doc.body = doc.body[end:]
	return renderKeepingBlock(doc, content)
}

// SetTagsAsPlainText replaces the leading "#tag" run with tags.
func SetTagsAsPlainText(content string, tags []string) string {
	doc := parse(content)
	current, end := plainRun(doc.body)
	want := tagset.Unique(tags)
	if end == 0 && len(want) == 0 {
		return content
	}
	if len(current) == len(want) && tagsEqualInOrder(current, want) {
		return content
	}
	doc.body = composeRun(want, doc.body[end:], doc.nl)
	return renderKeepingBlock(doc, content)
}

// removeFromPlainText drops tags from the leading run and strips matching
// inline tokens from the rest of the body.
func removeFromPlainText(content string, tags []string) string {
	drop := dropSet(tags)
	if len(drop) == 0 {
		return content
	}
	doc := parse(content)
	current, end := plainRun(doc.body)
	rest := removeInline(doc.body[end:], drop)
	kept := tagset.Minus(current, tags)
	if len(kept) == len(tagset.Unique(current)) && rest == doc.body[end:] {
		return content
	}
	if len(kept) == 0 {
		doc.body = rest
	} else {
		doc.body = composeRun(kept, rest, doc.nl)
	}
	return renderKeepingBlock(doc, content)
}

func composeRun(tags []string, rest, nl string) string {
	if len(tags) == 0 {
		return rest
	}
	header := "#" + strings.Join(tags, " #")
	if rest == "" {
		return header + nl
	}
	return header + nl + nl + rest
}

// renderKeepingBlock swaps in doc.body after the original metadata block,
// which is reproduced byte for byte.
func renderKeepingBlock(doc *document, original string) string {
	prefix := original[:len(original)-len(parse(original).body)]
	if prefix != "" && doc.body != "" && !strings.HasSuffix(prefix, "\n") {
		prefix += doc.nl
	}
	return prefix + doc.body
}

func tagsEqualInOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
