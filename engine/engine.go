// Package engine is the programmatic entrypoint to the refactoring engine:
// it registers every available refactoring under a short name. The project,
// resolver, and undo manager are built by the host application itself (as
// cmd/pyref does).
package engine

import (
	"fmt"

	"github.com/godoctor/pyref/refactoring"
)

// All available refactorings, keyed by a unique, short, all-lowercase name.
var refactorings map[string]refactoring.Refactoring

func init() {
	refactorings = map[string]refactoring.Refactoring{
		"rename":             new(refactoring.Rename),
		"extract":            new(refactoring.Extract),
		"inline":             new(refactoring.Inline),
		"move":               new(refactoring.Move),
		"movemodule":         new(refactoring.MoveModule),
		"moduletopackage":    new(refactoring.ModuleToPackage),
		"changesignature":    new(refactoring.ChangeSignature),
		"introducefactory":   new(refactoring.IntroduceFactory),
		"encapsulatefield":   new(refactoring.EncapsulateField),
		"localtofield":       new(refactoring.LocalToField),
		"introduceparameter": new(refactoring.IntroduceParameter),
		"null":               new(refactoring.Null),
	}
}

// AllRefactorings returns every transformation the engine can perform. The
// keys of the returned map are short, single-word, all-lowercase names
// ("rename", "extract", ...); the values implement the Refactoring
// interface.
func AllRefactorings() map[string]refactoring.Refactoring {
	return refactorings
}

// GetRefactoring returns a Refactoring keyed by the given short name. The
// short name must be one of the keys in the map returned by
// AllRefactorings.
func GetRefactoring(shortName string) refactoring.Refactoring {
	return refactorings[shortName]
}

// AddRefactoring allows custom refactorings to be added to the engine.
// Invoke this before starting the command-line driver.
func AddRefactoring(shortName string, newRefac refactoring.Refactoring) error {
	if r, ok := refactorings[shortName]; ok {
		return fmt.Errorf("the short name %q is already associated with a refactoring (%s)",
			shortName, r.Description().Name)
	}
	refactorings[shortName] = newRefac
	return nil
}
