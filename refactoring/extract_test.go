package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLocal(t *testing.T) {
	src := "def area(w, h):\n    return w * h\n"
	project := newTestProject(t, map[string]string{"shapes.py": src})

	start := indexOf(t, src, "w * h")
	end := start + len("w * h")
	result := runOffset(project, "shapes.py", start, end-start, []any{"product", "local"}, new(Extract))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f, err := project.GetFile("shapes.py")
	require.NoError(t, err)
	newText, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, "def area(w, h):\n    product = w * h\n    return product\n", newText)
}

func TestExtractGlobalFunction(t *testing.T) {
	src := "def run():\n    x = 1\n    y = 2\n    total = x + y\n    print(total)\n"
	project := newTestProject(t, map[string]string{"run.py": src})

	start := indexOf(t, src, "total = x + y")
	end := start + len("total = x + y\n")
	result := runOffset(project, "run.py", start, end-start, []any{"compute_total", "global"}, new(Extract))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f, err := project.GetFile("run.py")
	require.NoError(t, err)
	newText, err := f.Read()
	require.NoError(t, err)

	assert.Contains(t, newText, "def compute_total(x, y):")
	assert.Contains(t, newText, "return total")
	assert.Contains(t, newText, "total = compute_total(x, y)")
}

func TestExtractRejectsInvalidKind(t *testing.T) {
	src := "x = 1\n"
	project := newTestProject(t, map[string]string{"mod.py": src})
	result := runOffset(project, "mod.py", 0, 1, []any{"y", "weird"}, new(Extract))
	assert.True(t, result.Log.ContainsErrors())
}
