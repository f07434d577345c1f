package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncapsulateFieldAugmentedAssign(t *testing.T) {
	src := "class Counter:\n    def __init__(self):\n        self.count = 0\n\n    def bump(self):\n        self.count += 1\n"
	project := newTestProject(t, map[string]string{"counter.py": src})

	offset := indexOf(t, src, "self.count += 1") + len("self.")
	result := runOffset(project, "counter.py", offset, len("count"), nil, new(EncapsulateField))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f, err := project.GetFile("counter.py")
	require.NoError(t, err)
	newText, err := f.Read()
	require.NoError(t, err)

	assert.Contains(t, newText, "def get_count(self):")
	assert.Contains(t, newText, "return self.count")
	assert.Contains(t, newText, "def set_count(self, value):")
	assert.Contains(t, newText, "self.count = value")
	assert.Contains(t, newText, "self.set_count(self.get_count() + 1)")
}

func TestEncapsulateFieldCrossModule(t *testing.T) {
	mod1 := "class AClass:\n    def __init__(self, x):\n        self.attr = x\n"
	mod2 := "import mod1\n\na_var = mod1.AClass(1)\nprint(a_var.attr)\n"
	project := newTestProject(t, map[string]string{
		"mod1.py": mod1,
		"mod2.py": mod2,
	})

	offset := indexOf(t, mod1, "self.attr = x") + len("self.")
	result := runOffset(project, "mod1.py", offset, len("attr"), nil, new(EncapsulateField))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f1, err := project.GetFile("mod1.py")
	require.NoError(t, err)
	mod1Text, err := f1.Read()
	require.NoError(t, err)
	assert.Contains(t, mod1Text, "def get_attr(self):")
	assert.Contains(t, mod1Text, "def set_attr(self, value):")

	f2, err := project.GetFile("mod2.py")
	require.NoError(t, err)
	mod2Text, err := f2.Read()
	require.NoError(t, err)
	assert.Contains(t, mod2Text, "print(a_var.get_attr())")
}

func TestEncapsulateFieldRequiresAttributeSelection(t *testing.T) {
	src := "x = 1\n"
	project := newTestProject(t, map[string]string{"mod.py": src})
	result := runOffset(project, "mod.py", 0, 1, nil, new(EncapsulateField))
	assert.True(t, result.Log.ContainsErrors())
}
