// This file defines the Encapsulate Field refactoring (SPEC_FULL.md §4.G).
// New orchestrator — the teacher has no Go equivalent (Go has no attribute
// access to intercept) — but follows Base's Validate→Plan→Emit protocol and
// reuses resolve.Resolver.OccurrencesOf for its cross-module pass exactly as
// factory.go does.
package refactoring

import (
	"fmt"

	"github.com/godoctor/pyref/syntax"
	"github.com/godoctor/pyref/text"
)

// An EncapsulateField refactoring adds get_<attr>/set_<attr> methods to a
// class and rewrites every read/write of obj.attr to go through them.
type EncapsulateField struct {
	Base
	attr string
	cls  *syntax.ClassDef
}

func (r *EncapsulateField) Description() *Description {
	return &Description{Name: "Encapsulate Field"}
}

func (r *EncapsulateField) Run(config *Config) *Result {
	r.Base.Run(config)
	if r.Log.ContainsErrors() {
		return &r.Result
	}

	attrNode, ok := r.selectedNode.(*syntax.Attribute)
	if !ok {
		r.fail("Please select an attribute access (obj.attr) to encapsulate")
		return &r.Result
	}
	r.attr = attrNode.Attr

	cls := r.staticClassOfSelection(attrNode)
	if cls == nil {
		r.fail("Could not determine the defining class of %q", r.attr)
		return &r.Result
	}
	r.cls = cls

	if r.hasTupleUnpackOnAttr() {
		r.fail("%q appears on one side of a tuple-unpacking assignment; cannot encapsulate", r.attr)
		return &r.Result
	}

	selfName, _ := firstMethodSelfName(cls)

	getName := "get_" + r.attr
	setName := "set_" + r.attr
	indent := r.indentOf(cls.Body[0].Pos())
	methods := fmt.Sprintf(
		"\n%sdef %s(%s):\n%s    return %s.%s\n"+
			"\n%sdef %s(%s, value):\n%s    %s.%s = value\n",
		indent, getName, selfName, indent, selfName, r.attr,
		indent, setName, selfName, indent, selfName, r.attr,
	)

	edits := r.newEditSet()
	edits.Add(text.Extent{Offset: cls.Body[len(cls.Body)-1].End(), Length: 0}, methods)

	r.rewriteAccesses(getName, setName, edits)

	if err := r.addContentChange(r.modulePath, edits); err != nil {
		r.fail("%s", err)
		return &r.Result
	}

	if err := r.rewriteCrossModuleAccesses(config, getName, setName); err != nil {
		r.fail("%s", err)
	}
	return &r.Result
}

// staticClassOfSelection finds the top-level class that defines the
// selected attribute, by best-effort receiver-type inference: if the
// receiver is a parameter positionally identified as self-like, its
// enclosing method's class; otherwise the first class in the module
// assigning to this attribute name.
func (r *EncapsulateField) staticClassOfSelection(attr *syntax.Attribute) *syntax.ClassDef {
	if recv, ok := attr.Value.(*syntax.Name); ok {
		if cls := r.classOfSelfParam(recv.Id, attr.Pos()); cls != nil {
			return cls
		}
	}
	for _, s := range r.mod.Body {
		cls, ok := s.(*syntax.ClassDef)
		if !ok {
			continue
		}
		for _, m := range cls.Body {
			fn, ok := m.(*syntax.FunctionDef)
			if !ok {
				continue
			}
			for _, stmt := range fn.Body {
				assign, ok := stmt.(*syntax.Assign)
				if !ok {
					continue
				}
				for _, t := range assign.Targets {
					if a, ok := t.(*syntax.Attribute); ok && a.Attr == r.attr {
						return cls
					}
				}
			}
		}
	}
	return nil
}

func (r *EncapsulateField) classOfSelfParam(name string, offset int) *syntax.ClassDef {
	for _, s := range r.mod.Body {
		cls, ok := s.(*syntax.ClassDef)
		if !ok || offset < cls.Pos() || offset > cls.End() {
			continue
		}
		for _, m := range cls.Body {
			fn, ok := m.(*syntax.FunctionDef)
			if !ok || offset < fn.Pos() || offset > fn.End() {
				continue
			}
			if self, ok := syntax.SelfParamName(fn); ok && self == name {
				return cls
			}
		}
	}
	return nil
}

func firstMethodSelfName(cls *syntax.ClassDef) (string, bool) {
	for _, m := range cls.Body {
		if fn, ok := m.(*syntax.FunctionDef); ok {
			if self, ok := syntax.SelfParamName(fn); ok {
				return self, true
			}
		}
	}
	return "self", false
}

// hasTupleUnpackOnAttr reports whether r.attr appears on either side of a
// tuple-unpacking assignment (one whose single target is a tuple) anywhere in
// the module — "refuses when
// the attribute appears on either side of a tuple-unpacking assignment"
// (SPEC_FULL.md §4.G).
func (r *EncapsulateField) hasTupleUnpackOnAttr() bool {
	found := false
	for _, s := range r.mod.Body {
		walkNodes(s, func(n syntax.Node) {
			assign, ok := n.(*syntax.Assign)
			if !ok || len(assign.Targets) != 1 {
				return
			}
			tuple, ok := assign.Targets[0].(*syntax.Tuple)
			if !ok {
				return
			}
			for _, e := range tuple.Elts {
				if a, ok := e.(*syntax.Attribute); ok && a.Attr == r.attr {
					found = true
				}
			}
			walkNodes(assign.Value, func(v syntax.Node) {
				if a, ok := v.(*syntax.Attribute); ok && a.Attr == r.attr {
					found = true
				}
			})
		})
	}
	return found
}

// rewriteAccesses rewrites obj.attr reads to obj.get_attr(), obj.attr = v
// writes to obj.set_attr(v), and obj.attr <op>= v augmented writes to
// obj.set_attr(obj.get_attr() <op> v) — shift-assigns expanded to their
// binary form (SPEC_FULL.md §4.G).
func (r *EncapsulateField) rewriteAccesses(getName, setName string, edits *text.EditSet) {
	for _, s := range r.mod.Body {
		r.rewriteStmt(r.modulePath, s, getName, setName, edits)
	}
}

// rewriteStmt walks a statement from modPath, rewriting every obj.attr
// access it finds. It is name-only, not type-checked: any attribute access
// spelled .attr is rewritten regardless of what class its receiver
// statically belongs to, matching the same-module behavior this file has
// always had. modPath lets rewriteCrossModuleAccesses reuse this walk
// against another module's buffer.
func (r *EncapsulateField) rewriteStmt(modPath string, n syntax.Node, getName, setName string, edits *text.EditSet) {
	switch v := n.(type) {
	case *syntax.Assign:
		if len(v.Targets) == 1 {
			if a, ok := v.Targets[0].(*syntax.Attribute); ok && a.Attr == r.attr {
				recv, err := r.textOfModule(modPath, a.Value.Pos(), a.Value.End())
				val, verr := r.textOfModule(modPath, v.Value.Pos(), v.Value.End())
				if err == nil && verr == nil {
					edits.Add(text.Extent{Offset: v.Pos(), Length: v.End() - v.Pos()},
						fmt.Sprintf("%s.%s(%s)", recv, setName, val))
					return
				}
			}
		}
		r.rewriteExpr(modPath, v.Value, getName, edits)
	case *syntax.AugAssign:
		if a, ok := v.Target.(*syntax.Attribute); ok && a.Attr == r.attr {
			recv, rerr := r.textOfModule(modPath, a.Value.Pos(), a.Value.End())
			val, verr := r.textOfModule(modPath, v.Value.Pos(), v.Value.End())
			if rerr == nil && verr == nil {
				edits.Add(text.Extent{Offset: v.Pos(), Length: v.End() - v.Pos()},
					fmt.Sprintf("%s.%s(%s.%s() %s %s)", recv, setName, recv, getName, v.Op, val))
				return
			}
		}
	case *syntax.ExprStmt:
		r.rewriteExpr(modPath, v.Value, getName, edits)
	case *syntax.Return:
		if v.Value != nil {
			r.rewriteExpr(modPath, v.Value, getName, edits)
		}
	case *syntax.If:
		r.rewriteExpr(modPath, v.Test, getName, edits)
		for _, s := range v.Body {
			r.rewriteStmt(modPath, s, getName, setName, edits)
		}
		for _, s := range v.Orelse {
			r.rewriteStmt(modPath, s, getName, setName, edits)
		}
	case *syntax.For:
		r.rewriteExpr(modPath, v.Iter, getName, edits)
		for _, s := range v.Body {
			r.rewriteStmt(modPath, s, getName, setName, edits)
		}
	case *syntax.While:
		r.rewriteExpr(modPath, v.Test, getName, edits)
		for _, s := range v.Body {
			r.rewriteStmt(modPath, s, getName, setName, edits)
		}
	case *syntax.FunctionDef:
		for _, s := range v.Body {
			r.rewriteStmt(modPath, s, getName, setName, edits)
		}
	case *syntax.ClassDef:
		for _, s := range v.Body {
			r.rewriteStmt(modPath, s, getName, setName, edits)
		}
	}
}

// rewriteExpr rewrites every obj.attr read within expr to obj.get_attr().
// Assignment targets are handled directly by rewriteStmt and are not
// revisited here.
func (r *EncapsulateField) rewriteExpr(modPath string, expr syntax.Node, getName string, edits *text.EditSet) {
	walkNodes(expr, func(n syntax.Node) {
		a, ok := n.(*syntax.Attribute)
		if !ok || a.Attr != r.attr {
			return
		}
		recv, err := r.textOfModule(modPath, a.Value.Pos(), a.Value.End())
		if err != nil {
			return
		}
		edits.Add(text.Extent{Offset: a.Pos(), Length: a.End() - a.Pos()}, fmt.Sprintf("%s.%s()", recv, getName))
	})
}

// rewriteCrossModuleAccesses applies the same obj.attr rewrite to every
// other module that references r.cls, found via config.Resolver.Occur-
// rencesOf anchored at the class's own name binding — the same mechanism
// IntroduceFactory.rewriteCrossModuleConstructions uses (SPEC_FULL.md §4.G's
// cross-module Encapsulate Field scenario; original_source's
// ropetest/refactor/__init__.py test_*_in_other_modules cases). Like
// rewriteAccesses itself this is name-only: it does not try to prove a
// receiver's static type, since cross-module type inference is out of scope
// (resolve/reachability.go's reachabilitySet doc comment) — any module that
// imports the defining module and spells .attr gets it rewritten.
func (r *EncapsulateField) rewriteCrossModuleAccesses(config *Config, getName, setName string) error {
	occs, err := config.Resolver.OccurrencesOf(config.context(), r.modulePath, r.cls.NamePos)
	if err != nil {
		return err
	}
	modules := map[string]bool{}
	for _, occ := range occs {
		if occ.ModulePath != r.modulePath {
			modules[occ.ModulePath] = true
		}
	}
	for modPath := range modules {
		mod, _, err := r.config.Resolver.Parsed(modPath)
		if err != nil {
			return err
		}
		hasAttr := false
		for _, s := range mod.Body {
			walkNodes(s, func(n syntax.Node) {
				if a, ok := n.(*syntax.Attribute); ok && a.Attr == r.attr {
					hasAttr = true
				}
			})
		}
		if !hasAttr {
			continue
		}
		edits, err := r.newEditSetFor(modPath)
		if err != nil {
			return err
		}
		for _, s := range mod.Body {
			r.rewriteStmt(modPath, s, getName, setName, edits)
		}
		if err := r.addContentChange(modPath, edits); err != nil {
			return err
		}
	}
	return nil
}
