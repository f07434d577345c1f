package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeSignatureAddParameter(t *testing.T) {
	src := "def greet(name):\n    print(name)\n\ngreet('Ann')\n"
	project := newTestProject(t, map[string]string{"greet.py": src})

	offset := indexOf(t, src, "def greet") + len("def ")
	ops := []SignatureOp{{Kind: "add", NewName: "greeting", DefaultValue: "'Hello'"}}
	result := runOffset(project, "greet.py", offset, len("greet"), []any{ops}, new(ChangeSignature))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f, err := project.GetFile("greet.py")
	require.NoError(t, err)
	newText, err := f.Read()
	require.NoError(t, err)
	assert.Contains(t, newText, "def greet(name, greeting='Hello'):")
}

func TestChangeSignatureRejectsMissingOps(t *testing.T) {
	src := "def greet(name):\n    print(name)\n"
	project := newTestProject(t, map[string]string{"greet.py": src})

	offset := indexOf(t, src, "def greet") + len("def ")
	result := runOffset(project, "greet.py", offset, len("greet"), nil, new(ChangeSignature))
	assert.True(t, result.Log.ContainsErrors())
}
