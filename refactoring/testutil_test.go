package refactoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/godoctor/pyref/fsys"
	"github.com/godoctor/pyref/resolve"
	"github.com/godoctor/pyref/text"
)

// newTestProject writes files (keyed by project-relative path, e.g.
// "pkg/mod.py") to a temporary directory and opens it as a Project, the way
// a host application would open a workspace from disk.
func newTestProject(t *testing.T, files map[string]string) *fsys.Project {
	t.Helper()
	dir := t.TempDir()
	for relPath, contents := range files {
		writeFile(t, dir, relPath, contents)
	}
	project, err := fsys.Open(fsys.NewLocalDisk(dir), fsys.Config{})
	if err != nil {
		t.Fatalf("opening test project: %v", err)
	}
	return project
}

func writeFile(t *testing.T, dir, relPath, contents string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("creating parent dir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(full, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", relPath, err)
	}
}

// runOffset runs ref against project, selecting the given byte range of
// modulePath, and returns its Result.
func runOffset(project *fsys.Project, modulePath string, offset, length int, args []any, ref Refactoring) *Result {
	resolver := resolve.New(project)
	config := &Config{
		Project:  project,
		Resolver: resolver,
		Selection: &text.OffsetLengthSelection{
			File: modulePath, Offset: offset, Length: length,
		},
		Args: args,
	}
	return ref.Run(config)
}

// indexOf returns the byte offset of needle's first occurrence in s, failing
// the test if it isn't found.
func indexOf(t *testing.T, s, needle string) int {
	t.Helper()
	i := strings.Index(s, needle)
	if i < 0 {
		t.Fatalf("%q not found in %q", needle, s)
	}
	return i
}
