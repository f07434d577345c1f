// This file defines Log, the user-facing diagnostic record every
// refactoring returns (spec.md §6: "Every public operation either returns
// successfully or fails with a tagged error," surfaced alongside informational
// context here). It is deliberately independent of this engine's internal
// zap-based diagnostics (undo.Manager.SetLogger, wired up by cmd/pyref): Log is part of the
// Result contract the host application sees, not a debugging aid.
package refactoring

import (
	"bytes"
	"fmt"
)

// A Severity indicates whether a log entry describes an informational
// message, a warning, or an error.
type Severity int

const (
	Info    Severity = iota // informational message
	Warning                 // something to be cautious of
	Error                   // the refactoring transformation is, or might be, invalid
)

// A LogEntry is a single message in a Log. If ModulePath is nonempty, the
// entry is associated with a particular offset range in that module.
type LogEntry struct {
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	ModulePath string   `json:"modulePath"`
	Offset     int      `json:"offset"`
	Length     int      `json:"length"`
	isInitial  bool
}

func (e *LogEntry) String() string {
	var buf bytes.Buffer
	switch e.Severity {
	case Warning:
		buf.WriteString("Warning: ")
	case Error:
		buf.WriteString("Error: ")
	}
	if e.ModulePath != "" {
		fmt.Fprintf(&buf, "%s, offset %d: ", e.ModulePath, e.Offset)
	}
	buf.WriteString(e.Message)
	return buf.String()
}

// A Log collects informational messages, warnings, and errors produced
// while validating and planning a refactoring, for display to the user
// before its ChangeSet is committed.
type Log struct {
	Entries []*LogEntry `json:"entries"`
}

// NewLog returns an empty Log.
func NewLog() *Log { return &Log{} }

func (log *Log) append(sev Severity, format string, args ...any) {
	log.Entries = append(log.Entries, &LogEntry{Severity: sev, Message: fmt.Sprintf(format, args...)})
}

func (log *Log) Infof(format string, args ...any)  { log.append(Info, format, args...) }
func (log *Log) Warnf(format string, args ...any)  { log.append(Warning, format, args...) }
func (log *Log) Errorf(format string, args ...any) { log.append(Error, format, args...) }

// AssociatePos attaches a module path and offset range to the most recently
// appended entry.
func (log *Log) AssociatePos(modulePath string, offset, length int) {
	if len(log.Entries) == 0 {
		return
	}
	e := log.Entries[len(log.Entries)-1]
	e.ModulePath, e.Offset, e.Length = modulePath, offset, length
}

// ContainsErrors reports whether any entry has Error severity.
func (log *Log) ContainsErrors() bool {
	for _, e := range log.Entries {
		if e.Severity == Error {
			return true
		}
	}
	return false
}

func (log *Log) String() string {
	var buf bytes.Buffer
	for _, e := range log.Entries {
		buf.WriteString(e.String())
		buf.WriteString("\n")
	}
	return buf.String()
}
