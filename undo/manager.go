// Package undo implements component F, the undo manager: a stack of applied
// change sets plus a stack of redoable ones. It is the only thing that ever
// calls Do on a change.Set that a refactoring orchestrator planned — per
// spec.md §4.G, an orchestrator returns a ChangeSet, and only the caller
// (typically via this package) commits it.
package undo

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/godoctor/pyref/change"
	"github.com/godoctor/pyref/fsys"
)

// A Manager owns the done/redoable stacks described in spec.md §4.F and
// applies project mutations on the caller's behalf, so every mutation to a
// project happens through exactly one place. Every Add/Undo/Redo is reported
// through log, the structured diagnostics channel refactoring/log.go's
// Log/LogEntry types deliberately stay independent of (that type is the
// host-facing Result; this is the engine's own operational log).
type Manager struct {
	project  *fsys.Project
	done     []*change.Set
	redoable []*change.Set
	log      *zap.Logger
}

// NewManager returns an empty undo manager for p, logging through a no-op
// logger until SetLogger installs a real one.
func NewManager(p *fsys.Project) *Manager {
	return &Manager{project: p, log: zap.NewNop()}
}

// SetLogger installs the structured logger Add/Undo/Redo report through, the
// way cmd/pyref/main.go wires in a zap.Logger built from its --verbose flag.
func (m *Manager) SetLogger(log *zap.Logger) {
	if log != nil {
		m.log = log
	}
}

// Add commits cs to the project, stamping it with a fresh ID if it does not
// already have one, pushes it onto the done stack, and clears the redoable
// stack (spec.md §4.F: "add(change_set) pushes onto done and clears
// redoable"). If cs fails partway through Do, the project is left
// byte-identical to its pre-call state (change.Set.Do unwinds internally)
// and Add returns the error without touching either stack.
func (m *Manager) Add(cs *change.Set) error {
	if cs.Empty() {
		return nil
	}
	if cs.ID == (uuid.UUID{}) {
		cs.ID = uuid.New()
	}
	if err := cs.Do(m.project); err != nil {
		m.log.Warn("change set failed, rolled back",
			zap.String("label", cs.Label), zap.String("id", cs.ID.String()), zap.Error(err))
		return err
	}
	m.done = append(m.done, cs)
	m.redoable = nil
	m.log.Info("applied change set",
		zap.String("label", cs.Label), zap.String("id", cs.ID.String()), zap.Int("changes", len(cs.Children)))
	return nil
}

// Undo pops the most recently applied change set, invokes its inverse, and
// pushes it onto the redoable stack. It returns an error (without modifying
// either stack) if there is nothing to undo or if the inverse fails.
func (m *Manager) Undo() error {
	if len(m.done) == 0 {
		return fmt.Errorf("nothing to undo")
	}
	cs := m.done[len(m.done)-1]
	if err := cs.Undo(m.project); err != nil {
		m.log.Warn("undo failed", zap.String("label", cs.Label), zap.Error(err))
		return err
	}
	m.done = m.done[:len(m.done)-1]
	m.redoable = append(m.redoable, cs)
	m.log.Info("undid change set", zap.String("label", cs.Label), zap.String("id", cs.ID.String()))
	return nil
}

// Redo is the symmetric operation: it pops the most recently undone change
// set, re-applies it, and pushes it back onto the done stack.
func (m *Manager) Redo() error {
	if len(m.redoable) == 0 {
		return fmt.Errorf("nothing to redo")
	}
	cs := m.redoable[len(m.redoable)-1]
	if err := cs.Do(m.project); err != nil {
		m.log.Warn("redo failed", zap.String("label", cs.Label), zap.Error(err))
		return err
	}
	m.redoable = m.redoable[:len(m.redoable)-1]
	m.done = append(m.done, cs)
	m.log.Info("redid change set", zap.String("label", cs.Label), zap.String("id", cs.ID.String()))
	return nil
}

// CanUndo reports whether Undo would have something to act on.
func (m *Manager) CanUndo() bool { return len(m.done) > 0 }

// CanRedo reports whether Redo would have something to act on.
func (m *Manager) CanRedo() bool { return len(m.redoable) > 0 }

// History returns the currently applied change sets, oldest first. The
// returned slice is a copy; mutating it does not affect the manager.
func (m *Manager) History() []*change.Set {
	out := make([]*change.Set, len(m.done))
	copy(out, m.done)
	return out
}
