// Package vaultpath normalises vault-relative folder and note paths.
//
// Folder paths use "/" separators with no leading or trailing slash; the
// vault root is the empty string.
package vaultpath

import (
	"path"
	"strings"
)

// Normalize converts p to the canonical folder path form.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}

// Parent returns the parent folder of a folder path. The parent of a
// top-level folder is the root ("").
func Parent(folder string) string {
	i := strings.LastIndex(folder, "/")
	if i < 0 {
		return ""
	}
	return folder[:i]
}

// Dir returns the folder containing a note.
func Dir(note string) string {
	return Parent(Normalize(note))
}

// Base returns the last element of p.
func Base(p string) string {
	p = Normalize(p)
	return p[strings.LastIndex(p, "/")+1:]
}

// Ancestors returns folder and every ancestor up to, but excluding, the
// root, nearest first.
func Ancestors(folder string) []string {
	var out []string
	for cur := Normalize(folder); cur != ""; cur = Parent(cur) {
		out = append(out, cur)
	}
	return out
}

// Within reports whether p equals folder or lies below it. Every path is
// within the root.
func Within(p, folder string) bool {
	if folder == "" {
		return true
	}
	return p == folder || strings.HasPrefix(p, folder+"/")
}

// Rebase moves p from under oldPrefix to under newPrefix. It returns p
// unchanged when p is not within oldPrefix.
func Rebase(p, oldPrefix, newPrefix string) string {
	if !Within(p, oldPrefix) || oldPrefix == "" {
		return p
	}
	rest := strings.TrimPrefix(p, oldPrefix)
	return Normalize(newPrefix + rest)
}
