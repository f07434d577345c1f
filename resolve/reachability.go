// This file implements step 2 of spec.md §4.D's algorithm: computing which
// modules can possibly see a binding, represented as a bitset indexed by a
// ModuleIndex so membership tests are O(1) regardless of project size — the
// same technique the teacher's live-variable dataflow analysis uses for
// "is this variable live in this block" set-membership questions, applied
// here to "is this module reachable" instead.
package resolve

import (
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/godoctor/pyref/syntax"
)

// A ModuleIndex assigns every module in the project a stable integer for the
// lifetime of one resolver call, so reachability sets can be represented as
// bitsets instead of maps.
type ModuleIndex struct {
	paths []string
	index map[string]uint
}

func newModuleIndex(paths []string) *ModuleIndex {
	idx := &ModuleIndex{paths: paths, index: make(map[string]uint, len(paths))}
	for i, p := range paths {
		idx.index[p] = uint(i)
	}
	return idx
}

func (m *ModuleIndex) bit(path string) (uint, bool) {
	i, ok := m.index[path]
	return i, ok
}

func (m *ModuleIndex) path(bit uint) string { return m.paths[bit] }

// reachabilitySet computes step 2 for target: a module-global name is
// reachable from any module that imports the defining module (or
// from-imports the name); a class member is reachable from any module whose
// scope statically resolves some receiver to the defining class (in
// practice, conservatively, every module that imports the defining module,
// since static-type tracking across module boundaries is out of scope); a
// local is reachable only inside its own defining scope (which collapses to
// just the defining module here, since scan.go re-resolves per binding
// anyway).
func (r *Resolver) reachabilitySet(target *Target) (*moduleReach, error) {
	modules := r.project.AllModules()
	paths := make([]string, len(modules))
	for i, f := range modules {
		paths[i] = f.Path()
	}
	idx := newModuleIndex(paths)
	set := bitset.New(uint(len(paths)))

	defBit, hasDefBit := idx.bit(target.Module)
	if hasDefBit {
		set.Set(defBit)
	}

	isLocal := target.Binding.Kind == syntax.BindLocal && !r.isModuleLevel(target)
	isParam := target.Binding.Kind == syntax.BindParam
	if isLocal || isParam {
		// Locals and parameters are reachable only inside their own
		// defining module; no other module can import a name out of a
		// function body.
		return &moduleReach{index: idx, set: set}, nil
	}

	definingDotted, err := r.dottedNameOf(target.Module)
	if err != nil {
		return nil, err
	}

	for i, path := range paths {
		if hasDefBit && uint(i) == defBit {
			continue
		}
		info, _, err := r.parsed(path)
		if err != nil {
			continue
		}
		if moduleImports(info.mod, definingDotted, info.mod.Name) {
			set.Set(uint(i))
		}
	}
	return &moduleReach{index: idx, set: set}, nil
}

// isModuleLevel reports whether target's binding lives in the module's root
// scope rather than inside a function, i.e., whether a BindLocal binding is
// actually a module-global per spec.md §4.C's "a name assigned at module
// level is module-global" rule.
func (r *Resolver) isModuleLevel(target *Target) bool {
	info, _, err := r.parsed(target.Module)
	if err != nil {
		return false
	}
	return info.scopes.Root.Bindings[target.Binding.Name] == target.Binding
}

// moduleImports reports whether mod (whose own dotted name is selfName)
// imports definingModule, either via "import definingModule[...]" or
// "from definingModule import ...", including relative imports resolved
// against selfName's package prefix.
func moduleImports(mod *syntax.Module, definingModule, selfName string) bool {
	if definingModule == selfName {
		return true
	}
	var found bool
	var walk func(n syntax.Node)
	walk = func(n syntax.Node) {
		if found {
			return
		}
		switch v := n.(type) {
		case *syntax.Import:
			for _, in := range v.Names {
				if in.Dotted == definingModule || strings.HasPrefix(definingModule, in.Dotted+".") {
					found = true
					return
				}
			}
		case *syntax.ImportFrom:
			resolved := resolveRelativeModule(v.Module, v.Level, selfName)
			if resolved == definingModule {
				found = true
				return
			}
		case *syntax.ClassDef:
			for _, c := range v.Body {
				walk(c)
			}
		case *syntax.FunctionDef:
			for _, c := range v.Body {
				walk(c)
			}
		case *syntax.If:
			for _, c := range v.Body {
				walk(c)
			}
			for _, c := range v.Orelse {
				walk(c)
			}
		}
	}
	for _, stmt := range mod.Body {
		walk(stmt)
	}
	return found
}

// resolveRelativeModule rewrites a "from . import x" / "from ..pkg import x"
// module reference to an absolute dotted name, rooted at selfName's package
// prefix, per spec.md §9's relative-import handling.
func resolveRelativeModule(module string, level int, selfName string) string {
	if level == 0 {
		return module
	}
	parts := strings.Split(selfName, ".")
	if len(parts) > 0 {
		parts = parts[:len(parts)-1] // drop self, land in own package
	}
	for i := 1; i < level && len(parts) > 0; i++ {
		parts = parts[:len(parts)-1]
	}
	prefix := strings.Join(parts, ".")
	if module == "" {
		return prefix
	}
	if prefix == "" {
		return module
	}
	return prefix + "." + module
}

// moduleReach is the result of reachabilitySet: a bitset of reachable
// modules plus the index it's keyed against.
type moduleReach struct {
	index *ModuleIndex
	set   *bitset.BitSet
}

// paths returns the project-relative paths of every reachable module, in
// ModuleIndex order (stable, not necessarily sorted).
func (r *moduleReach) paths() []string {
	out := make([]string, 0, r.set.Count())
	for i, ok := r.set.NextSet(0); ok; i, ok = r.set.NextSet(i + 1) {
		out = append(out, r.index.path(i))
	}
	return out
}
