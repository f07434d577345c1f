package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleToPackageRewritesRelativeImports(t *testing.T) {
	src := "from .sibling import helper\n\nhelper()\n"
	project := newTestProject(t, map[string]string{
		"pkg/mod.py":     src,
		"pkg/sibling.py": "def helper():\n    pass\n",
	})

	result := runOffset(project, "pkg/mod.py", 0, 0, nil, new(ModuleToPackage))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	initFile, err := project.GetFile("pkg/mod/__init__.py")
	require.NoError(t, err)
	initText, err := initFile.Read()
	require.NoError(t, err)
	assert.Contains(t, initText, "from pkg.sibling import helper")

	_, err = project.GetFile("pkg/mod.py")
	assert.Error(t, err)
}
