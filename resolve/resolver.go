// Package resolve implements component D, the name resolver: given a
// binding occurrence anywhere in the project, it finds every other
// occurrence that refers to the same binding, by classifying the starting
// offset, computing which modules can possibly see that binding, and
// re-resolving every candidate name/attribute in those modules to rule out
// shadowing and unrelated same-named entities (spec.md §4.D).
package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/godoctor/pyref/fsys"
	"github.com/godoctor/pyref/syntax"
)

// An Occurrence is one place in the project where a binding is referenced or
// defined.
type Occurrence struct {
	ModulePath string // project-relative file path
	Offset     int
	Length     int
	IsBinding  bool // true for the defining occurrence itself
}

// A Target is the result of classifying a starting offset: the binding site
// together with the path of the module it is attributed to.
type Target struct {
	Module  string // defining module's project-relative path
	Binding *syntax.Binding
}

// moduleInfo is the per-file cache entry: a parsed module and scope tree,
// invalidated by comparing against the file's current Buffer.Version().
type moduleInfo struct {
	version int
	mod     *syntax.Module
	scopes  *syntax.ScopeTree
	errs    []syntax.ParseError
}

// A Resolver answers occurrences_of queries against a fixed Project. It
// caches parsed modules across queries, keyed by each file's Buffer version,
// so repeated queries between commits reuse work, and a single commit
// invalidates exactly the files it touched.
type Resolver struct {
	project *fsys.Project
	cache   map[string]*moduleInfo
}

// New returns a Resolver over p.
func New(p *fsys.Project) *Resolver {
	return &Resolver{project: p, cache: map[string]*moduleInfo{}}
}

// parsed returns the cached (or freshly built) AST and scope tree for the
// module at path, along with its current buffer.
func (r *Resolver) parsed(path string) (*moduleInfo, *fsys.File, error) {
	f, err := r.project.GetFile(path)
	if err != nil {
		return nil, nil, err
	}
	buf, err := f.Buffer()
	if err != nil {
		return nil, nil, err
	}
	if info, ok := r.cache[path]; ok && info.version == buf.Version() {
		return info, f, nil
	}
	mod, errs := syntax.Parse(buf.Bytes())
	mod.Name = f.ModuleName()
	info := &moduleInfo{version: buf.Version(), mod: mod, scopes: syntax.BuildScopes(mod), errs: errs}
	r.cache[path] = info
	return info, f, nil
}

// Parsed returns the cached parsed module and scope tree for path,
// reparsing if the underlying file's buffer has changed since the last
// call. Orchestrators use this (rather than re-running syntax.Parse
// themselves) so parsing work is shared with OccurrencesOf. It reflects the
// file's committed text only: edits planned but not yet committed are not
// visible.
func (r *Resolver) Parsed(path string) (*syntax.Module, *syntax.ScopeTree, error) {
	info, _, err := r.parsed(path)
	if err != nil {
		return nil, nil, err
	}
	return info.mod, info.scopes, nil
}

// OccurrencesOf is the component D entry point (spec.md §4.D): given a
// module path and a byte offset within it, it returns every occurrence
// across the project that resolves to the same binding as the one at
// offset, or an empty slice if offset does not land on a resolvable name.
func (r *Resolver) OccurrencesOf(ctx context.Context, modulePath string, offset int) ([]Occurrence, error) {
	target, err := r.classify(modulePath, offset)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}

	reach, err := r.reachabilitySet(target)
	if err != nil {
		return nil, err
	}

	return r.scanReachable(ctx, target, reach)
}

// classify is step 1 of spec.md §4.D's algorithm: find which AST node spans
// offset, which scope contains it, and what binding it resolves to.
func (r *Resolver) classify(modulePath string, offset int) (*Target, error) {
	info, _, err := r.parsed(modulePath)
	if err != nil {
		return nil, err
	}
	node := findNodeAt(info.mod, offset)
	if node == nil {
		return nil, nil
	}
	name, ok := nameOf(node)
	if !ok {
		return nil, nil
	}
	scope := info.scopes.Enclosing[node]
	if scope == nil {
		scope = info.scopes.Root
	}

	if attr, ok := node.(*syntax.Attribute); ok {
		return r.classifyAttribute(modulePath, info, attr)
	}

	binding := scope.Lookup(name)
	if binding == nil {
		return nil, nil
	}
	definingModule := definingModuleFor(info, modulePath, binding)
	return &Target{Module: definingModule, Binding: binding}, nil
}

// classifyAttribute handles "if an attribute access, the target is the
// attribute's defining scope" (spec.md §4.D step 1): it finds the class the
// receiver's static type points to as best it can from local AST
// information (the receiver is a Name whose binding is a ClassDef, or whose
// nearest enclosing method's self-parameter is being read), then looks up
// the attribute inside that class's body.
func (r *Resolver) classifyAttribute(modulePath string, info *moduleInfo, attr *syntax.Attribute) (*Target, error) {
	class := r.staticClassOf(modulePath, info, attr.Value)
	if class == nil {
		return nil, nil
	}
	classScope := info.scopes.ScopeOf[class]
	if classScope == nil {
		return nil, nil
	}
	binding, ok := classScope.Bindings[attr.Attr]
	if !ok {
		return nil, nil
	}
	return &Target{Module: modulePath, Binding: binding}, nil
}

// staticClassOf makes a best-effort guess at the ClassDef a receiver
// expression's value points to: a bare Name bound to a ClassDef, or a
// method's self-parameter read (the first formal parameter, detected
// positionally per spec.md §4.C), resolved to its enclosing ClassDef.
func (r *Resolver) staticClassOf(modulePath string, info *moduleInfo, receiver syntax.Node) *syntax.ClassDef {
	name, ok := receiver.(*syntax.Name)
	if !ok {
		return nil
	}
	scope := info.scopes.Enclosing[receiver]
	if scope == nil {
		return nil
	}
	if binding := scope.Lookup(name.Id); binding != nil {
		if cd, ok := binding.Node.(*syntax.ClassDef); ok {
			return cd
		}
	}
	if fn, ok := scope.Node.(*syntax.FunctionDef); ok {
		if self, hasSelf := syntax.SelfParamName(fn); hasSelf && self == name.Id {
			if cd, ok := scope.Parent.Node.(*syntax.ClassDef); ok {
				return cd
			}
		}
	}
	return nil
}

// definingModuleFor reports which module a binding belongs to: always the
// module the binding was found in. Import and import-from bindings are not
// followed to the imported module; they count as bindings of the importing
// module.
func definingModuleFor(info *moduleInfo, modulePath string, b *syntax.Binding) string {
	return modulePath
}

// dottedNameOf returns path's dotted module name (its parsed Module.Name),
// the form import/from-import statements reference a module by.
func (r *Resolver) dottedNameOf(path string) (string, error) {
	info, _, err := r.parsed(path)
	if err != nil {
		return "", err
	}
	return info.mod.Name, nil
}

// pathForDotted returns the project-relative path of the module whose dotted
// name is dotted, or false if no module in the project has that name.
func (r *Resolver) pathForDotted(dotted string) (string, bool) {
	for _, f := range r.project.AllModules() {
		if f.ModuleName() == dotted {
			return f.Path(), true
		}
	}
	return "", false
}

// classifyModuleQualifiedAttr handles "mod.Name" where mod is a Name bound by
// an import of another module (e.g. "import mod1" then "mod1.AClass()"): the
// target is mod1's module-level binding named Name, not an instance
// attribute (which classifyAttribute handles). This is what lets
// IntroduceFactory and EncapsulateField find constructions/accesses that
// reach a class through its module rather than through a local variable.
func (r *Resolver) classifyModuleQualifiedAttr(info *moduleInfo, attr *syntax.Attribute) (*Target, error) {
	recv, ok := attr.Value.(*syntax.Name)
	if !ok {
		return nil, nil
	}
	scope := info.scopes.Enclosing[attr]
	if scope == nil {
		scope = info.scopes.Root
	}
	binding := scope.Lookup(recv.Id)
	if binding == nil || binding.Kind != syntax.BindImport {
		return nil, nil
	}
	imp, ok := binding.Node.(*syntax.Import)
	if !ok {
		return nil, nil
	}
	var dotted string
	for _, in := range imp.Names {
		name := in.Alias
		if name == "" {
			name = firstComponentOf(in.Dotted)
		}
		if name == recv.Id {
			dotted = in.Dotted
			break
		}
	}
	if dotted == "" {
		return nil, nil
	}
	modPath, ok := r.pathForDotted(dotted)
	if !ok {
		return nil, nil
	}
	targetInfo, _, err := r.parsed(modPath)
	if err != nil {
		return nil, err
	}
	b, ok := targetInfo.scopes.Root.Bindings[attr.Attr]
	if !ok {
		return nil, nil
	}
	return &Target{Module: modPath, Binding: b}, nil
}

func findNodeAt(m *syntax.Module, offset int) syntax.Node {
	var best syntax.Node
	var walk func(n syntax.Node)
	walk = func(n syntax.Node) {
		if n == nil || offset < n.Pos() || offset > n.End() {
			return
		}
		if best == nil || (n.End()-n.Pos()) < (best.End()-best.Pos()) {
			best = n
		}
		for _, child := range children(n) {
			walk(child)
		}
	}
	for _, stmt := range m.Body {
		walk(stmt)
	}
	return best
}

// children returns the direct Node children of n, for findNodeAt's descent.
func children(n syntax.Node) []syntax.Node {
	switch v := n.(type) {
	case *syntax.Module:
		return v.Body
	case *syntax.ClassDef:
		out := append([]syntax.Node{}, v.Bases...)
		return append(out, v.Body...)
	case *syntax.FunctionDef:
		return v.Body
	case *syntax.Assign:
		out := append([]syntax.Node{}, v.Targets...)
		return append(out, v.Value)
	case *syntax.AugAssign:
		return []syntax.Node{v.Target, v.Value}
	case *syntax.Attribute:
		return []syntax.Node{v.Value}
	case *syntax.Call:
		out := append([]syntax.Node{v.Func}, v.Args...)
		for _, kw := range v.Keywords {
			out = append(out, kw.Value)
		}
		return out
	case *syntax.ExprStmt:
		return []syntax.Node{v.Value}
	case *syntax.Return:
		if v.Value != nil {
			return []syntax.Node{v.Value}
		}
	case *syntax.If:
		out := append([]syntax.Node{v.Test}, v.Body...)
		return append(out, v.Orelse...)
	case *syntax.For:
		out := []syntax.Node{v.Target, v.Iter}
		out = append(out, v.Body...)
		return append(out, v.Orelse...)
	case *syntax.While:
		out := append([]syntax.Node{v.Test}, v.Body...)
		return append(out, v.Orelse...)
	case *syntax.BinOp:
		if v.Left != nil {
			return []syntax.Node{v.Left, v.Right}
		}
		return []syntax.Node{v.Right}
	case *syntax.Tuple:
		return v.Elts
	}
	return nil
}

func nameOf(n syntax.Node) (string, bool) {
	switch v := n.(type) {
	case *syntax.Name:
		return v.Id, true
	case *syntax.Attribute:
		return v.Attr, true
	case *syntax.FunctionDef:
		return v.Name, true
	case *syntax.ClassDef:
		return v.Name, true
	}
	return "", false
}

// occurrenceFromNode converts an AST node that names or references a binding
// into an Occurrence at the right span (the attribute name's span for an
// Attribute, not the whole expression's).
func occurrenceFromNode(modulePath string, n syntax.Node) Occurrence {
	if attr, ok := n.(*syntax.Attribute); ok {
		return Occurrence{ModulePath: modulePath, Offset: attr.AttrPos, Length: len(attr.Attr)}
	}
	return Occurrence{ModulePath: modulePath, Offset: n.Pos(), Length: n.End() - n.Pos()}
}

// firstComponentOf returns the leading dot-separated segment of a dotted
// module name (mirroring how an unaliased "import a.b.c" binds "a" locally).
func firstComponentOf(dotted string) string {
	for i, c := range dotted {
		if c == '.' {
			return dotted[:i]
		}
	}
	return dotted
}

func sortOccurrences(occs []Occurrence) {
	sort.Slice(occs, func(i, j int) bool {
		if occs[i].ModulePath != occs[j].ModulePath {
			return occs[i].ModulePath < occs[j].ModulePath
		}
		return occs[i].Offset < occs[j].Offset
	})
}

// ErrCancelled is returned by OccurrencesOf (and orchestrators built on it)
// when ctx is cancelled between module scans, per spec.md §5's cancellation
// contract.
var ErrCancelled = fmt.Errorf("operation cancelled")
