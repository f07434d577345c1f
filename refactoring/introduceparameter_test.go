package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntroduceParameterReplacesOccurrences(t *testing.T) {
	src := "def describe(w, h):\n    print(w * h)\n    return w * h\n"
	project := newTestProject(t, map[string]string{"mod.py": src})

	start := indexOf(t, src, "w * h")
	end := start + len("w * h")
	result := runOffset(project, "mod.py", start, end-start, []any{"area"}, new(IntroduceParameter))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f, err := project.GetFile("mod.py")
	require.NoError(t, err)
	newText, err := f.Read()
	require.NoError(t, err)

	assert.Contains(t, newText, "def describe(w, h, area=w * h):")
	assert.Contains(t, newText, "print(area)")
	assert.Contains(t, newText, "return area")
}

func TestIntroduceParameterRejectsCollidingName(t *testing.T) {
	src := "def describe(w, h):\n    return w * h\n"
	project := newTestProject(t, map[string]string{"mod.py": src})

	start := indexOf(t, src, "w * h")
	end := start + len("w * h")
	result := runOffset(project, "mod.py", start, end-start, []any{"w"}, new(IntroduceParameter))
	assert.True(t, result.Log.ContainsErrors())
}
