package refactoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogEntryString(t *testing.T) {
	e := &LogEntry{Severity: Info, Message: "Message"}
	assert.Equal(t, "Message", e.String())

	e = &LogEntry{Severity: Warning, Message: "Message"}
	assert.Equal(t, "Warning: Message", e.String())

	e = &LogEntry{Severity: Error, Message: "Message"}
	assert.Equal(t, "Error: Message", e.String())

	e = &LogEntry{Severity: Warning, Message: "Msg", ModulePath: "a/b.py", Offset: 1}
	assert.Equal(t, "Warning: a/b.py, offset 1: Msg", e.String())
}

func TestLogString(t *testing.T) {
	log := NewLog()
	log.Infof("Info")
	log.Warnf("A warning")
	log.Errorf("An error")
	assert.Equal(t, "Info\nWarning: A warning\nError: An error\n", log.String())
	assert.True(t, log.ContainsErrors())
}

func TestLogAssociatePos(t *testing.T) {
	log := NewLog()
	log.Infof("saw something")
	log.AssociatePos("pkg/mod.py", 10, 4)
	assert.Equal(t, "pkg/mod.py", log.Entries[0].ModulePath)
	assert.Equal(t, 10, log.Entries[0].Offset)
	assert.Equal(t, 4, log.Entries[0].Length)
}
