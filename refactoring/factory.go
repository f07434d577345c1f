// This file defines the Introduce Factory refactoring (SPEC_FULL.md §4.G).
// New orchestrator — the teacher has no Go equivalent (Go has no
// constructors to intercept) — but follows Base's Validate→Plan→Emit
// protocol and reuses resolve.Resolver exactly as rename.go does, including
// for the cross-module constructions rename.go's own OccurrencesOf call
// already reaches.
package refactoring

import (
	"fmt"

	"github.com/godoctor/pyref/resolve"
	"github.com/godoctor/pyref/syntax"
	"github.com/godoctor/pyref/text"
)

// An IntroduceFactory refactoring adds a factory method (or, if Global, a
// module-level function) that constructs a class, and rewrites every direct
// construction of that class to go through it.
type IntroduceFactory struct {
	Base
	factoryName string
	global      bool
}

func (r *IntroduceFactory) Description() *Description {
	return &Description{
		Name: "Introduce Factory",
		Params: []Parameter{
			{Label: "Factory name:", Prompt: "Name of the new factory.", DefaultValue: ""},
			{Label: "Global:", Prompt: "Add a module-level function instead of a static method.", DefaultValue: false},
		},
	}
}

func (r *IntroduceFactory) Run(config *Config) *Result {
	r.Base.Run(config)
	if r.Log.ContainsErrors() {
		return &r.Result
	}
	if !validateArgs(config, r.Description(), r.Log) {
		return &r.Result
	}
	r.factoryName, _ = config.Args[0].(string)
	r.global, _ = config.Args[1].(bool)
	if r.factoryName == "" || !isValidIdentifier(r.factoryName) {
		r.fail("%q is not a valid identifier", r.factoryName)
		return &r.Result
	}

	cls, ok := r.selectedNode.(*syntax.ClassDef)
	if !ok {
		r.fail("Please select a class to introduce a factory for")
		return &r.Result
	}
	if r.scopes.Enclosing[cls] != r.scopes.Root {
		r.fail("Introduce Factory requires a top-level class")
		return &r.Result
	}

	edits := r.newEditSet()
	if r.global {
		fn := fmt.Sprintf("\n\ndef %s(*args, **kwds):\n    return %s(*args, **kwds)\n", r.factoryName, cls.Name)
		edits.Add(text.Extent{Offset: r.mod.Body[len(r.mod.Body)-1].End(), Length: 0}, fn)
	} else {
		indent := r.indentOf(cls.Body[0].Pos())
		fn := fmt.Sprintf("\n%s@staticmethod\n%sdef %s(*args, **kwds):\n%s    return %s(*args, **kwds)\n",
			indent, indent, r.factoryName, indent, cls.Name)
		edits.Add(text.Extent{Offset: cls.Body[len(cls.Body)-1].End(), Length: 0}, fn)
	}

	r.rewriteConstructions(cls, edits)

	if err := r.addContentChange(r.modulePath, edits); err != nil {
		r.fail("%s", err)
		return &r.Result
	}

	if err := r.rewriteCrossModuleConstructions(config, cls); err != nil {
		r.fail("%s", err)
	}
	return &r.Result
}

// rewriteConstructions rewrites every direct construction C(...) found in
// r.modulePath to C.create(...) (method form) or create(...) (global form),
// per SPEC_FULL.md §4.G. Aliased constructions ("alias = C; alias(...)")
// are deliberately not rewritten: only calls whose Func is literally a Name
// matching the class's own name are candidates.
func (r *IntroduceFactory) rewriteConstructions(cls *syntax.ClassDef, edits *text.EditSet) {
	for _, s := range r.mod.Body {
		walkNodes(s, func(n syntax.Node) {
			call, ok := n.(*syntax.Call)
			if !ok {
				return
			}
			name, ok := call.Func.(*syntax.Name)
			if !ok || name.Id != cls.Name {
				return
			}
			replacement := cls.Name + "." + r.factoryName
			if r.global {
				replacement = r.factoryName
			}
			edits.Add(text.Extent{Offset: name.Pos(), Length: name.End() - name.Pos()}, replacement)
		})
	}
}

// rewriteCrossModuleConstructions rewrites constructions of cls reached
// through another module, e.g. "import mod1" followed by "mod1.AClass()",
// via config.Resolver.OccurrencesOf keyed off cls's own name binding — the
// same mechanism rename.go and changesignature.go use for their cross-module
// rewrites (SPEC_FULL.md §4.G's cross-module Introduce Factory scenario).
func (r *IntroduceFactory) rewriteCrossModuleConstructions(config *Config, cls *syntax.ClassDef) error {
	occs, err := config.Resolver.OccurrencesOf(config.context(), r.modulePath, cls.NamePos)
	if err != nil {
		return err
	}
	byModule := map[string][]resolve.Occurrence{}
	for _, occ := range occs {
		if occ.IsBinding || occ.ModulePath == r.modulePath {
			continue
		}
		byModule[occ.ModulePath] = append(byModule[occ.ModulePath], occ)
	}
	for modPath, modOccs := range byModule {
		mod, _, err := r.config.Resolver.Parsed(modPath)
		if err != nil {
			return err
		}
		edits, err := r.newEditSetFor(modPath)
		if err != nil {
			return err
		}
		changed := false
		for _, occ := range modOccs {
			call := enclosingCall(mod, occ.Offset)
			if call == nil {
				continue
			}
			replacement := cls.Name + "." + r.factoryName
			if r.global {
				replacement = r.factoryName
			}
			edits.Add(text.Extent{Offset: occ.Offset, Length: occ.Length}, replacement)
			changed = true
		}
		if changed {
			if err := r.addContentChange(modPath, edits); err != nil {
				return err
			}
		}
	}
	return nil
}
