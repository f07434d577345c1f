package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullProducesNoChanges(t *testing.T) {
	src := "x = 1\n"
	project := newTestProject(t, map[string]string{"mod.py": src})

	result := runOffset(project, "mod.py", 0, 1, nil, new(Null))
	assert.False(t, result.Log.ContainsErrors())
	assert.True(t, result.Changes.Empty())
}
