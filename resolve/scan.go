// This file implements step 3 of spec.md §4.D's algorithm: scanning every
// reachable module for Name/Attribute nodes whose text matches the target
// binding's name, re-resolving each one, and keeping only the ones that
// resolve back to the same binding site (ruling out shadowing and unrelated
// same-named entities). Scanning is read-only and bounded-concurrent across
// modules via errgroup; results are merged back in module order rather than
// completion order, so output is deterministic regardless of goroutine
// scheduling, keeping this compatible with spec.md §5's single-threaded-
// cooperative-core guarantee for project mutations.
package resolve

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/godoctor/pyref/syntax"
)

func (r *Resolver) scanReachable(ctx context.Context, target *Target, reach *moduleReach) ([]Occurrence, error) {
	paths := reach.paths()
	results := make([][]Occurrence, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return ErrCancelled
			}
			occs, err := r.scanModule(path, target)
			if err != nil {
				return err
			}
			results[i] = occs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Occurrence
	for _, occs := range results {
		all = append(all, occs...)
	}
	sortOccurrences(all)
	return all, nil
}

// scanModule re-resolves every Name/Attribute in the module at path whose
// text matches target's name, keeping only occurrences that resolve back to
// target's exact binding site.
func (r *Resolver) scanModule(path string, target *Target) ([]Occurrence, error) {
	info, _, err := r.parsed(path)
	if err != nil {
		return nil, err
	}

	var out []Occurrence
	var walk func(n syntax.Node)
	walk = func(n syntax.Node) {
		if n == nil {
			return
		}
		if name, ok := nameOf(n); ok && name == target.Binding.Name {
			if sameBinding(r, path, info, n, target) {
				occ := occurrenceFromNode(path, n)
				occ.IsBinding = n == target.Binding.Node
				out = append(out, occ)
			}
		}
		for _, c := range children(n) {
			walk(c)
		}
	}
	for _, stmt := range info.mod.Body {
		walk(stmt)
	}
	return out, nil
}

// sameBinding re-resolves node n (a Name, Attribute, FunctionDef, or
// ClassDef whose name matches the target) and reports whether it resolves to
// the exact same binding site as target, i.e., the same defining Node at the
// same Pos — this is what rules out shadowing and unrelated same-named
// entities (spec.md §4.D step 3).
func sameBinding(r *Resolver, path string, info *moduleInfo, n syntax.Node, target *Target) bool {
	switch v := n.(type) {
	case *syntax.FunctionDef, *syntax.ClassDef:
		// The defining occurrence itself: it matches iff it literally is
		// the target's binding node.
		return n == target.Binding.Node
	case *syntax.Attribute:
		if t, err := r.classifyAttribute(path, info, v); err == nil && t != nil {
			if t.Binding.Pos == target.Binding.Pos && t.Binding.Name == target.Binding.Name {
				return true
			}
		}
		t, err := r.classifyModuleQualifiedAttr(info, v)
		if err != nil || t == nil {
			return false
		}
		return t.Module == target.Module &&
			t.Binding.Pos == target.Binding.Pos && t.Binding.Name == target.Binding.Name
	case *syntax.Name:
		scope := info.scopes.Enclosing[n]
		if scope == nil {
			scope = info.scopes.Root
		}
		binding := scope.Lookup(v.Id)
		if binding == nil {
			return false
		}
		if path == target.Module {
			return binding == target.Binding || binding.Pos == target.Binding.Pos
		}
		// In a different module, a same-named local/param binding can
		// never be the same site as a local/param target (locals aren't
		// visible cross-module per the reachability set), so only a
		// module-global/class/import-style binding can legitimately
		// match here, and only when it resolves through an import of the
		// defining module.
		definingDotted, err := r.dottedNameOf(target.Module)
		if err != nil {
			return false
		}
		return moduleImports(info.mod, definingDotted, info.mod.Name) &&
			binding.Kind == target.Binding.Kind &&
			binding.Name == target.Binding.Name
	}
	return false
}
