// Package codec reads and writes the tag list embedded in a note.
//
// Two surface forms are supported. The structured form is a leading
// metadata block fenced by "---" lines whose "tags:" key holds either a
// bracketed list ("tags: [a, b]") or a dash list:
//
//	---
//	title: Weekly
//	tags:
//	  - work
//	  - meeting
//	---
//
// The plain-text form is a run of "#tag" tokens on the first line(s) of the
// note, separated from the body by a blank line.
//
// The block is not parsed as YAML. Lines are grouped into top-level entries;
// every entry other than "tags" is kept verbatim, so unrelated metadata and
// the body survive any rewrite byte for byte. All functions are total: a
// missing block, an empty tag list or malformed input yield defined results.
package codec

import (
	"strings"
)

const (
	delimiter = "---"
	tagsKey   = "tags"
)

type tagStyle uint8

const (
	styleList tagStyle = iota
	styleBracket
	styleScalar
)

// entry is one top-level key of the metadata block together with its
// continuation lines. Lines carry no line terminator.
type entry struct {
	lines  []string
	isTags bool
	tags   []string
	style  tagStyle
}

// document is the typed view of a note.
type document struct {
	hasBlock bool
	nl       string
	entries  []entry
	// closeSep is whatever terminated the closing delimiter line: a newline
	// or nothing at end of input.
	closeSep string
	body     string
}

// parse splits content into its metadata block and body. Content that does
// not start with a complete fenced block is all body.
func parse(content string) *document {
	doc := &document{nl: detectNewline(content), body: content}

	first, rest, ok := cutLine(content)
	if !ok || !isDelimiter(first) {
		return doc
	}

	var interior []string
	for {
		line, next, hasNL := cutLine(rest)
		if isDelimiter(line) {
			doc.hasBlock = true
			doc.entries = groupEntries(interior)
			doc.closeSep = lineEnding(line, hasNL)
			doc.body = next
			return doc
		}
		if !hasNL {
			// No closing delimiter: the whole input is body.
			return doc
		}
		interior = append(interior, strings.TrimRight(line, "\r"))
		rest = next
	}
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == delimiter
}

// lineEnding returns the terminator of a line as it appeared in the input.
func lineEnding(line string, hasNL bool) string {
	cr := strings.HasSuffix(line, "\r")
	switch {
	case hasNL && cr:
		return "\r\n"
	case hasNL:
		return "\n"
	case cr:
		return "\r"
	}
	return ""
}

// cutLine returns the first line of s (without "\n"), the remainder after
// the newline, and whether a newline was found.
func cutLine(s string) (line, rest string, found bool) {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

func detectNewline(s string) string {
	if i := strings.IndexByte(s, '\n'); i > 0 && s[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// groupEntries folds block lines into top-level entries. A line that starts
// with whitespace or a dash continues the previous entry, also across blank
// lines, so a list with gaps stays one entry. Blank lines not followed by a
// continuation and everything else start a new entry.
func groupEntries(lines []string) []entry {
	var out []entry
	for _, line := range lines {
		if isContinuation(line) {
			if owner := lastKeyed(out); owner >= 0 {
				for _, gap := range out[owner+1:] {
					out[owner].lines = append(out[owner].lines, gap.lines...)
				}
				out = out[:owner+1]
				out[owner].lines = append(out[owner].lines, line)
				continue
			}
		}
		out = append(out, entry{lines: []string{line}})
	}
	for i := range out {
		parseTagsEntry(&out[i])
	}
	return out
}

// lastKeyed returns the index of the last non-blank entry when only blank
// entries follow it, or -1.
func lastKeyed(entries []entry) int {
	for i := len(entries) - 1; i >= 0; i-- {
		if !isBlank(entries[i].lines[0]) {
			return i
		}
	}
	return -1
}

func isContinuation(line string) bool {
	if isBlank(line) {
		return false
	}
	switch line[0] {
	case ' ', '\t', '-':
		return true
	}
	return false
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// parseTagsEntry recognises the "tags:" key and decodes its value.
func parseTagsEntry(e *entry) {
	key, value, ok := strings.Cut(e.lines[0], ":")
	if !ok || strings.TrimSpace(key) != tagsKey || key != strings.TrimLeft(key, " \t") {
		return
	}
	e.isTags = true
	value = strings.TrimSpace(value)

	switch {
	case strings.HasPrefix(value, "["):
		e.style = styleBracket
		inner := strings.TrimPrefix(value, "[")
		if end := strings.LastIndex(inner, "]"); end >= 0 {
			inner = inner[:end]
		}
		for _, part := range strings.Split(inner, ",") {
			e.tags = appendTag(e.tags, part)
		}
	case value != "":
		e.style = styleScalar
		for _, part := range strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		}) {
			e.tags = appendTag(e.tags, part)
		}
	default:
		e.style = styleList
	}

	for _, line := range e.lines[1:] {
		item := strings.TrimSpace(line)
		if !strings.HasPrefix(item, "-") {
			continue
		}
		e.tags = appendTag(e.tags, item[1:])
	}
}

func appendTag(tags []string, raw string) []string {
	t := strings.TrimPrefix(unquote(strings.TrimSpace(raw)), "#")
	if t == "" {
		return tags
	}
	return append(tags, t)
}

// declared returns every tag of every tags entry in file order, duplicates
// included.
func (d *document) declared() []string {
	var out []string
	for _, e := range d.entries {
		if e.isTags {
			out = append(out, e.tags...)
		}
	}
	return out
}

func (d *document) hasTagsEntry() bool {
	for _, e := range d.entries {
		if e.isTags {
			return true
		}
	}
	return false
}

// setTags replaces the tags entries with a single list-form entry holding
// tags. The first tags entry keeps its position; a new entry goes last. An
// empty list removes the key.
func (d *document) setTags(tags []string) {
	var out []entry
	placed := false
	for _, e := range d.entries {
		if !e.isTags {
			out = append(out, e)
			continue
		}
		if !placed && len(tags) > 0 {
			out = append(out, listEntry(tags))
		}
		placed = true
	}
	if !placed && len(tags) > 0 {
		out = append(out, listEntry(tags))
	}
	d.entries = out
	if len(tags) > 0 && !d.hasBlock {
		d.hasBlock = true
		d.closeSep = d.nl
	}
}

func listEntry(tags []string) entry {
	lines := make([]string, 0, len(tags)+1)
	lines = append(lines, tagsKey+":")
	for _, t := range tags {
		lines = append(lines, "  - "+quote(t))
	}
	return entry{lines: lines, isTags: true, tags: append([]string(nil), tags...), style: styleList}
}

// empty reports whether the block holds no lines at all. Blank lines count
// as content: a block written with only blank lines keeps its delimiters.
func (d *document) empty() bool {
	for _, e := range d.entries {
		if len(e.lines) > 0 {
			return false
		}
	}
	return true
}

// render serialises the document. A block left without any line is
// dropped together with its delimiters.
func (d *document) render() string {
	if !d.hasBlock || d.empty() {
		return d.body
	}
	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteString(d.nl)
	for _, e := range d.entries {
		for _, l := range e.lines {
			b.WriteString(l)
			b.WriteString(d.nl)
		}
	}
	b.WriteString(delimiter)
	sep := d.closeSep
	if sep == "" && d.body != "" {
		sep = d.nl
	}
	b.WriteString(sep)
	b.WriteString(d.body)
	return b.String()
}
