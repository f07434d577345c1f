package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalToFieldConvertsMethodLocal(t *testing.T) {
	src := "class Account:\n    def deposit(self, amount):\n        balance = amount\n        return balance\n"
	project := newTestProject(t, map[string]string{"account.py": src})

	offset := indexOf(t, src, "balance = amount")
	result := runOffset(project, "account.py", offset, len("balance"), nil, new(LocalToField))
	require.False(t, result.Log.ContainsErrors(), "%v", result.Log.Entries)
	require.NoError(t, result.Changes.Do(project))

	f, err := project.GetFile("account.py")
	require.NoError(t, err)
	newText, err := f.Read()
	require.NoError(t, err)

	assert.Contains(t, newText, "self.balance = amount")
	assert.Contains(t, newText, "return self.balance")
}

func TestLocalToFieldRejectsNonLocal(t *testing.T) {
	src := "class Account:\n    def deposit(self, amount):\n        return amount\n"
	project := newTestProject(t, map[string]string{"account.py": src})

	offset := indexOf(t, src, "return amount") + len("return ")
	result := runOffset(project, "account.py", offset, len("amount"), nil, new(LocalToField))
	assert.True(t, result.Log.ContainsErrors())
}
