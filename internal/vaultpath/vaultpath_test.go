package vaultpath

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"/":               "",
		".":               "",
		"Projects/":       "Projects",
		"/Projects/Alpha": "Projects/Alpha",
		"a//b":            "a/b",
		`a\b`:             "a/b",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParentAndDir(t *testing.T) {
	if got := Parent("Projects/Alpha"); got != "Projects" {
		t.Errorf("Parent = %q", got)
	}
	if got := Parent("Projects"); got != "" {
		t.Errorf("Parent of top-level = %q, want root", got)
	}
	if got := Dir("Projects/Alpha/note.md"); got != "Projects/Alpha" {
		t.Errorf("Dir = %q", got)
	}
	if got := Dir("note.md"); got != "" {
		t.Errorf("Dir of root note = %q", got)
	}
}

func TestAncestors(t *testing.T) {
	got := Ancestors("a/b/c")
	if diff := cmp.Diff([]string{"a/b/c", "a/b", "a"}, got); diff != "" {
		t.Errorf("Ancestors mismatch (-want +got):\n%s", diff)
	}
	if len(Ancestors("")) != 0 {
		t.Error("root has no ancestors")
	}
}

func TestWithinAndRebase(t *testing.T) {
	if !Within("a/b/c.md", "a/b") {
		t.Error("expected a/b/c.md within a/b")
	}
	if Within("a/bc/d.md", "a/b") {
		t.Error("a/bc must not be within a/b")
	}
	if got := Rebase("a/b/c.md", "a/b", "x"); got != "x/c.md" {
		t.Errorf("Rebase = %q", got)
	}
	if got := Rebase("z/c.md", "a/b", "x"); got != "z/c.md" {
		t.Errorf("Rebase outside prefix = %q", got)
	}
}
