package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameLocalVariable(t *testing.T) {
	src := "def greet():\n    message = 'hi'\n    print(message)\n"
	project := newTestProject(t, map[string]string{"greet.py": src})

	offset := indexOf(t, src, "message")
	result := runOffset(project, "greet.py", offset, len("message"), []any{"greeting"}, new(Rename))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)

	require.NoError(t, result.Changes.Do(project))
	f, err := project.GetFile("greet.py")
	require.NoError(t, err)
	newText, err := f.Read()
	require.NoError(t, err)

	assert.Equal(t, "def greet():\n    greeting = 'hi'\n    print(greeting)\n", newText)
}

func TestRenameRejectsInvalidIdentifier(t *testing.T) {
	src := "x = 1\n"
	project := newTestProject(t, map[string]string{"mod.py": src})

	offset := indexOf(t, src, "x")
	result := runOffset(project, "mod.py", offset, len("x"), []any{"class"}, new(Rename))
	assert.True(t, result.Log.ContainsErrors())
}

func TestRenameIsItsOwnInverse(t *testing.T) {
	src := "def f():\n    total = 0\n    return total\n"
	project := newTestProject(t, map[string]string{"mod.py": src})

	offset := indexOf(t, src, "total")
	result := runOffset(project, "mod.py", offset, len("total"), []any{"sum_"}, new(Rename))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f, err := project.GetFile("mod.py")
	require.NoError(t, err)
	renamed, err := f.Read()
	require.NoError(t, err)
	require.NotEqual(t, src, renamed)

	offset2 := indexOf(t, renamed, "sum_")
	result2 := runOffset(project, "mod.py", offset2, len("sum_"), []any{"total"}, new(Rename))
	require.False(t, result2.Log.ContainsErrors(), "%v", result2.Log.Entries)
	require.NoError(t, result2.Changes.Do(project))

	f, err = project.GetFile("mod.py")
	require.NoError(t, err)
	roundTripped, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, src, roundTripped)
}
