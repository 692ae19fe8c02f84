package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectConflicts(t *testing.T) {
	src := mapSource{
		"a":     {"x", "y"},
		"a/b":   {"y", "z"},
		"a/b/c": {"x", "w", "w"},
		"other": {"x"},
	}
	tests := []struct {
		note string
		want []string
	}{
		{"a/b/c/note.md", []string{"x", "y"}},
		{"a/b/note.md", []string{"y"}},
		{"a/note.md", []string{}},
		{"note.md", []string{}},
		{"other/note.md", []string{}},
	}
	for _, tt := range tests {
		got := DetectConflicts(tt.note, src)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("DetectConflicts(%q) mismatch (-want +got):\n%s", tt.note, diff)
		}
	}
}

func TestDetectConflicts_IgnoresExclusionAndMode(t *testing.T) {
	// Two ancestors declare "x"; neither mode nor exclusions hide it.
	src := mapSource{"p": {"x"}, "p/q": {"x"}}
	if got := DetectConflicts("p/q/n.md", src); !cmp.Equal(got, []string{"x"}) {
		t.Errorf("DetectConflicts = %v, want [x]", got)
	}
}

func TestDetectConflicts_SingleDeclarationIsNotConflict(t *testing.T) {
	// Duplicates inside one folder's list count once.
	src := mapSource{"p": {"x", "x"}, "p/q": {"y"}}
	if got := DetectConflicts("p/q/n.md", src); len(got) != 0 {
		t.Errorf("DetectConflicts = %v, want empty", got)
	}
}
