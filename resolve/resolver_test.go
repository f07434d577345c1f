package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/godoctor/pyref/fsys"
)

func newTestProject(t *testing.T, files map[string]string) *fsys.Project {
	t.Helper()
	dir := t.TempDir()
	for relPath, contents := range files {
		full := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("creating parent dir for %s: %v", relPath, err)
		}
		if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}
	project, err := fsys.Open(fsys.NewLocalDisk(dir), fsys.Config{})
	if err != nil {
		t.Fatalf("opening test project: %v", err)
	}
	return project
}

// TestOccurrencesOfCrossesModules confirms that OccurrencesOf finds a
// binding's occurrences in every module that imports it, not just its
// defining module — the property factory.go and encapsulate.go rely on
// Resolver for their cross-module rewrite passes.
func TestOccurrencesOfCrossesModules(t *testing.T) {
	lib := "def helper():\n    return 1\n"
	user := "from lib import helper\n\nhelper()\n"
	project := newTestProject(t, map[string]string{
		"lib.py":  lib,
		"user.py": user,
	})
	resolver := New(project)

	defOffset := indexOf(t, lib, "helper")
	occs, err := resolver.OccurrencesOf(context.Background(), "lib.py", defOffset)
	if err != nil {
		t.Fatalf("OccurrencesOf: %v", err)
	}

	got := make([]Occurrence, len(occs))
	for i, o := range occs {
		got[i] = Occurrence{ModulePath: o.ModulePath, IsBinding: o.IsBinding}
	}
	want := []Occurrence{
		{ModulePath: "lib.py", IsBinding: true},
		{ModulePath: "user.py", IsBinding: false},
		{ModulePath: "user.py", IsBinding: false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OccurrencesOf modules/bindings mismatch (-want +got):\n%s", diff)
	}
}

func indexOf(t *testing.T, s, needle string) int {
	t.Helper()
	for i := 0; i+len(needle) <= len(s); i++ {
		if s[i:i+len(needle)] == needle {
			return i
		}
	}
	t.Fatalf("%q not found in %q", needle, s)
	return -1
}
