package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveDefinitionToAnotherModule(t *testing.T) {
	src := "def helper():\n    return 1\n\ndef main():\n    return helper()\n"
	dest := "def existing():\n    pass\n"
	project := newTestProject(t, map[string]string{
		"src.py":  src,
		"dest.py": dest,
	})

	offset := indexOf(t, src, "def helper")
	result := runOffset(project, "src.py", offset, len("def helper"), []any{"dest.py"}, new(Move))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	destFile, err := project.GetFile("dest.py")
	require.NoError(t, err)
	destText, err := destFile.Read()
	require.NoError(t, err)
	assert.Contains(t, destText, "def helper():")

	srcFile, err := project.GetFile("src.py")
	require.NoError(t, err)
	srcText, err := srcFile.Read()
	require.NoError(t, err)
	assert.NotContains(t, srcText, "def helper():")
	assert.Contains(t, srcText, "def main():")
}

func TestMoveRejectsNestedSelection(t *testing.T) {
	src := "class C:\n    def m(self):\n        return 1\n"
	dest := ""
	project := newTestProject(t, map[string]string{
		"src.py":  src,
		"dest.py": dest,
	})

	offset := indexOf(t, src, "def m")
	result := runOffset(project, "src.py", offset, len("def m"), []any{"dest.py"}, new(Move))
	assert.True(t, result.Log.ContainsErrors())
}

func TestMoveModuleRewritesImports(t *testing.T) {
	lib := "def helper():\n    return 1\n"
	user := "from pkg.lib import helper\n\nhelper()\n"
	project := newTestProject(t, map[string]string{
		"pkg/lib.py":          lib,
		"pkg/user.py":         user,
		"archive/__init__.py": "",
	})

	result := runOffset(project, "pkg/lib.py", 0, 0, []any{"archive"}, new(MoveModule))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	userFile, err := project.GetFile("pkg/user.py")
	require.NoError(t, err)
	userText, err := userFile.Read()
	require.NoError(t, err)
	assert.Contains(t, userText, "import archive.lib")
	assert.Contains(t, userText, "archive.lib.helper()")
}
