package codec

import "strings"

// quote renders a tag as a list item value, adding YAML quotes only when a
// plain scalar would be misread.
func quote(tag string) string {
	if !needsQuote(tag) {
		return tag
	}
	if !strings.ContainsAny(tag, `"\`) {
		return `"` + tag + `"`
	}
	return "'" + strings.ReplaceAll(tag, "'", "''") + "'"
}

func needsQuote(tag string) bool {
	if tag == "" || tag != strings.TrimSpace(tag) {
		return true
	}
	if strings.ContainsAny(tag[:1], "[]{}&*!|>'\"%@`#-?,") {
		return true
	}
	return strings.Contains(tag, ": ") || strings.Contains(tag, " #") || strings.HasSuffix(tag, ":")
}

// unquote strips one level of matching YAML quotes.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	switch {
	case s[0] == '"' && s[len(s)-1] == '"':
		inner := s[1 : len(s)-1]
		return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(inner)
	case s[0] == '\'' && s[len(s)-1] == '\'':
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}
