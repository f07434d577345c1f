// This file defines the Convert Local To Field refactoring (SPEC_FULL.md
// §4.G). New orchestrator, following Base's Validate→Plan→Emit protocol.
package refactoring

import (
	"github.com/godoctor/pyref/syntax"
	"github.com/godoctor/pyref/text"
)

// A LocalToField refactoring converts a method's local variable into a
// field of its class, prepending the method's self-equivalent spelling to
// every occurrence in the method.
type LocalToField struct {
	Base
}

func (r *LocalToField) Description() *Description {
	return &Description{Name: "Convert Local To Field"}
}

func (r *LocalToField) Run(config *Config) *Result {
	r.Base.Run(config)
	if r.Log.ContainsErrors() {
		return &r.Result
	}

	name, ok := r.selectedNode.(*syntax.Name)
	if !ok {
		r.fail("Please select a local variable to convert")
		return &r.Result
	}

	scope := r.scopes.Enclosing[name]
	if scope == nil {
		r.fail("Cannot determine the enclosing scope of the selection")
		return &r.Result
	}
	binding, ok := scope.Bindings[name.Id]
	if !ok || binding.Kind != syntax.BindLocal {
		r.fail("%q is not a local variable", name.Id)
		return &r.Result
	}

	fn, ok := scope.Node.(*syntax.FunctionDef)
	if !ok || !fn.IsMethod {
		r.fail("Convert Local To Field is only valid for a local of a method")
		return &r.Result
	}
	cls := r.classContainingMethod(fn)
	if cls == nil {
		r.fail("Could not determine the enclosing class")
		return &r.Result
	}
	if r.classHasField(cls, name.Id) {
		r.fail("%s already has a field named %q", cls.Name, name.Id)
		return &r.Result
	}

	selfName, _ := syntax.SelfParamName(fn)

	edits := r.newEditSet()
	for _, s := range fn.Body {
		walkNodes(s, func(n syntax.Node) {
			nm, ok := n.(*syntax.Name)
			if !ok || nm.Id != name.Id {
				return
			}
			edits.Add(text.Extent{Offset: nm.Pos(), Length: 0}, selfName+".")
		})
	}
	if err := r.addContentChange(r.modulePath, edits); err != nil {
		r.fail("%s", err)
	}
	return &r.Result
}

func (r *LocalToField) classContainingMethod(fn *syntax.FunctionDef) *syntax.ClassDef {
	for _, s := range r.mod.Body {
		if cls, ok := s.(*syntax.ClassDef); ok {
			for _, m := range cls.Body {
				if m == syntax.Node(fn) {
					return cls
				}
			}
		}
	}
	return nil
}

func (r *LocalToField) classHasField(cls *syntax.ClassDef, name string) bool {
	for _, m := range cls.Body {
		if fn, ok := m.(*syntax.FunctionDef); ok {
			for _, s := range fn.Body {
				assign, ok := s.(*syntax.Assign)
				if !ok {
					continue
				}
				for _, t := range assign.Targets {
					if a, ok := t.(*syntax.Attribute); ok && a.Attr == name {
						return true
					}
				}
			}
		}
	}
	return false
}
