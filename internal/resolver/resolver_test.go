package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/foldertags/internal/models"
	"github.com/starford/foldertags/internal/tagset"
	"github.com/starford/foldertags/internal/vaultpath"
)

type mapSource map[string][]string

func (m mapSource) Get(folder string) []string { return m[folder] }

var scenario = mapSource{
	"Projects":       {"work"},
	"Projects/Alpha": {"secret"},
}

func TestResolve_ScenarioImmediate(t *testing.T) {
	got := Resolve("Projects/Alpha", models.InheritImmediate, nil, scenario)
	if diff := cmp.Diff([]string{"secret", "work"}, got); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_ScenarioNone(t *testing.T) {
	got := Resolve("Projects/Alpha", models.InheritNone, nil, scenario)
	if diff := cmp.Diff([]string{"secret"}, got); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
	got = Resolve("Projects/Alpha", models.InheritNone, []string{"Projects/Alpha"}, scenario)
	if diff := cmp.Diff([]string{"secret"}, got); diff != "" {
		t.Errorf("Resolve with excluded folder mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_ImmediateStopsAfterParent(t *testing.T) {
	src := mapSource{
		"a":       {"ta"},
		"a/b":     {"tb"},
		"a/b/c":   {"tc"},
		"a/b/c/d": {"td", "tc"},
	}
	got := Resolve("a/b/c/d", models.InheritImmediate, nil, src)
	if diff := cmp.Diff([]string{"td", "tc"}, got); diff != "" {
		t.Errorf("immediate mismatch (-want +got):\n%s", diff)
	}
	got = Resolve("a/b/c/d", models.InheritAll, nil, src)
	if diff := cmp.Diff([]string{"td", "tc", "tb", "ta"}, got); diff != "" {
		t.Errorf("all mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_Exclusions(t *testing.T) {
	src := mapSource{
		"a":     {"ta"},
		"a/b":   {"tb"},
		"a/b/c": {"tc"},
	}
	got := Resolve("a/b/c", models.InheritAll, []string{"a/b/"}, src)
	if diff := cmp.Diff([]string{"tc", "ta"}, got); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
	if got := Resolve("a/b/c", models.InheritImmediate, []string{"a/b/c"}, src); !cmp.Equal(got, []string{"tb"}) {
		t.Errorf("excluded start folder = %v, want [tb]", got)
	}
	if got := Resolve("a/b/c", models.InheritNone, []string{"a/b/c"}, src); !cmp.Equal(got, []string{"tc"}) {
		t.Errorf("none ignores exclusions: got %v, want [tc]", got)
	}
}

func TestResolve_EmptyInputs(t *testing.T) {
	for _, folder := range []string{"", "/", "missing/folder"} {
		got := Resolve(folder, models.InheritAll, nil, scenario)
		if got == nil || len(got) != 0 {
			t.Errorf("Resolve(%q) = %#v, want empty non-nil", folder, got)
		}
	}
}

func TestResolve_NormalizesInput(t *testing.T) {
	got := Resolve("/Projects/Alpha/", models.InheritImmediate, nil, scenario)
	if !tagset.Equal(got, []string{"secret", "work"}) {
		t.Errorf("Resolve = %v", got)
	}
}

func TestResolve_Properties(t *testing.T) {
	src := mapSource{
		"r":         {"r1", "shared"},
		"r/s":       {"s1"},
		"r/s/t":     {"t1", "shared"},
		"r/s/t/u":   {"u1"},
		"r/s/t/u/v": {"v1", "u1"},
	}
	folders := []string{"r", "r/s", "r/s/t", "r/s/t/u", "r/s/t/u/v"}
	excl := []string{"r/s"}

	for _, p := range folders {
		for _, ex := range [][]string{nil, excl, folders} {
			if got := Resolve(p, models.InheritNone, ex, src); !tagset.Equal(got, src[p]) {
				t.Errorf("none: Resolve(%q, excl %v) = %v, want own %v", p, ex, got, src[p])
			}
		}

		all := Resolve(p, models.InheritAll, excl, src)
		for _, cur := range vaultpath.Ancestors(p) {
			own := src[cur]
			if cur == "r/s" {
				if tagset.Subset([]string{"s1"}, all) {
					t.Errorf("all: Resolve(%q) = %v includes excluded %q", p, all, cur)
				}
			} else if !tagset.Subset(own, all) {
				t.Errorf("all: Resolve(%q) = %v misses %v of %q", p, all, own, cur)
			}
		}
	}
}

func TestResolveWith(t *testing.T) {
	settings := models.DefaultSettings()
	settings.InheritanceMode = models.InheritAll
	settings.ExcludedFolders = []string{"Projects"}
	got := ResolveWith("Projects/Alpha", settings, scenario)
	if diff := cmp.Diff([]string{"secret"}, got); diff != "" {
		t.Errorf("ResolveWith mismatch (-want +got):\n%s", diff)
	}
}
