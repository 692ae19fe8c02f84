package codec

import "unicode"

// span locates one inline "#tag" token; start indexes the '#'.
type span struct {
	start, end int
	tag        string
}

// scanInline finds "#token" occurrences anywhere in text. A token is the
// run of characters after a '#' up to the next whitespace or '#', so
// "a#b" yields "b" and "#c#d" yields "c" and "d". A '#' followed directly
// by whitespace, another '#' or the end of text names nothing, which
// keeps "# Heading" and "##" out.
func scanInline(text string) []span {
	var out []span
	for i := 0; i < len(text); i++ {
		if text[i] != '#' {
			continue
		}
		j := i + 1
		for j < len(text) && !isTokenBreak(rune(text[j])) {
			j++
		}
		if j > i+1 {
			out = append(out, span{start: i, end: j, tag: text[i+1 : j]})
			i = j - 1
		}
	}
	return out
}

// isTokenBreak works on bytes: multi-byte UTF-8 sequences never contain
// ASCII whitespace or '#', so they stay inside the token.
func isTokenBreak(r rune) bool {
	return r == '#' || (r < 0x80 && unicode.IsSpace(r))
}

func inlineTags(text string) []string {
	spans := scanInline(text)
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, s.tag)
	}
	return out
}

// removeInline deletes every token whose tag is in drop. Matching is by
// exact token value, so removing "c++" leaves "#c+++" and "#c++x" alone.
// One adjacent space goes with the token so no double gap is left behind;
// a token glued to a preceding word keeps the space that follows it.
func removeInline(text string, drop map[string]struct{}) string {
	spans := scanInline(text)
	if len(spans) == 0 || len(drop) == 0 {
		return text
	}
	out := []byte(text)
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		if _, ok := drop[s.tag]; !ok {
			continue
		}
		start, end := s.start, s.end
		switch {
		case start > 0 && isHSpace(out[start-1]):
			start--
		case end < len(out) && isHSpace(out[end]) && (start == 0 || isSpace(out[start-1])):
			end++
		}
		out = append(out[:start], out[end:]...)
	}
	return string(out)
}

func isHSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isSpace(c byte) bool {
	return c < 0x80 && unicode.IsSpace(rune(c))
}
