package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntroduceFactoryStaticMethod(t *testing.T) {
	src := "class Point:\n    def __init__(self, x, y):\n        self.x = x\n        self.y = y\n\np = Point(1, 2)\n"
	project := newTestProject(t, map[string]string{"point.py": src})

	offset := indexOf(t, src, "class Point") + len("class ")
	result := runOffset(project, "point.py", offset, len("Point"), []any{"create", false}, new(IntroduceFactory))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f, err := project.GetFile("point.py")
	require.NoError(t, err)
	newText, err := f.Read()
	require.NoError(t, err)

	assert.Contains(t, newText, "@staticmethod")
	assert.Contains(t, newText, "def create(*args, **kwds):")
	assert.Contains(t, newText, "return Point(*args, **kwds)")
	assert.Contains(t, newText, "p = Point.create(1, 2)")
}

func TestIntroduceFactoryGlobal(t *testing.T) {
	src := "class Point:\n    def __init__(self, x, y):\n        self.x = x\n\np = Point(1, 2)\n"
	project := newTestProject(t, map[string]string{"point.py": src})

	offset := indexOf(t, src, "class Point") + len("class ")
	result := runOffset(project, "point.py", offset, len("Point"), []any{"make_point", true}, new(IntroduceFactory))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f, err := project.GetFile("point.py")
	require.NoError(t, err)
	newText, err := f.Read()
	require.NoError(t, err)

	assert.Contains(t, newText, "def make_point(*args, **kwds):")
	assert.Contains(t, newText, "p = make_point(1, 2)")
}

func TestIntroduceFactoryCrossModule(t *testing.T) {
	mod1 := "class AClass:\n    def __init__(self, x):\n        self.x = x\n"
	mod2 := "import mod1\n\na_var = mod1.AClass(1)\n"
	project := newTestProject(t, map[string]string{
		"mod1.py": mod1,
		"mod2.py": mod2,
	})

	offset := indexOf(t, mod1, "class AClass") + len("class ")
	result := runOffset(project, "mod1.py", offset, len("AClass"), []any{"create", false}, new(IntroduceFactory))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f1, err := project.GetFile("mod1.py")
	require.NoError(t, err)
	mod1Text, err := f1.Read()
	require.NoError(t, err)
	assert.Contains(t, mod1Text, "def create(*args, **kwds):")

	f2, err := project.GetFile("mod2.py")
	require.NoError(t, err)
	mod2Text, err := f2.Read()
	require.NoError(t, err)
	assert.Contains(t, mod2Text, "a_var = mod1.AClass.create(1)")
}
