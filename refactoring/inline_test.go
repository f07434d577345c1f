package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineLocalVariable(t *testing.T) {
	src := "def area(w, h):\n    product = w * h\n    return product\n"
	project := newTestProject(t, map[string]string{"shapes.py": src})

	offset := indexOf(t, src, "product")
	result := runOffset(project, "shapes.py", offset, len("product"), nil, new(Inline))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f, err := project.GetFile("shapes.py")
	require.NoError(t, err)
	newText, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, "def area(w, h):\n    return (w * h)\n", newText)
}

func TestInlineRefusesMultiplyAssignedLocal(t *testing.T) {
	src := "def f():\n    x = 1\n    x = 2\n    return x\n"
	project := newTestProject(t, map[string]string{"mod.py": src})

	offset := indexOf(t, src, "return x") + len("return ")
	result := runOffset(project, "mod.py", offset, 1, nil, new(Inline))
	assert.True(t, result.Log.ContainsErrors())
}
