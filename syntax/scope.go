// This file builds a ScopeTree from a parsed Module, implementing spec.md
// §4.C's edge-case policy: a name assigned anywhere in a function body (and
// not otherwise declared) is local to the whole function, even before its
// first assignment textually; a name assigned at module level is a module
// global; the first formal parameter of a method is self-like by position,
// not by spelling, so a renamed first parameter (e.g. "myself") is still
// detected as the receiver.
package syntax

// A BindingKind classifies how a name came to be bound.
type BindingKind int

const (
	BindParam BindingKind = iota
	BindLocal
	BindClassBody
	BindFunctionDef
	BindClassDef
	BindImport
	BindImportFromAs
)

// A Binding records one name's defining statement kind and source offset,
// per spec.md §4.C.
type Binding struct {
	Name string
	Kind BindingKind
	Pos  int
	Node Node // the FunctionDef/ClassDef/Param/Import*/Assign target this binding came from
}

// A Scope is one lexical scope: the module, a class body, or a function
// body. Lookup walks outward through Parent, except that a ClassDef scope is
// skipped when resolving names read from inside a nested FunctionDef (methods
// do not see their class's body as an enclosing scope, only the module does)
// — IsClass marks which scopes that rule applies to.
type Scope struct {
	Parent   *Scope
	IsClass  bool
	Node     Node // the Module/ClassDef/FunctionDef this scope belongs to
	Bindings map[string]*Binding
	Children []*Scope
}

func newScope(parent *Scope, node Node, isClass bool) *Scope {
	return &Scope{Parent: parent, IsClass: isClass, Node: node, Bindings: map[string]*Binding{}}
}

// Lookup walks this scope and its ancestors (skipping class scopes except
// when s itself is the class body being searched directly) and returns the
// nearest binding for name, or nil if unbound.
func (s *Scope) Lookup(name string) *Binding {
	cur := s
	first := true
	for cur != nil {
		if !cur.IsClass || first {
			if b, ok := cur.Bindings[name]; ok {
				return b
			}
		}
		first = false
		cur = cur.Parent
	}
	return nil
}

// A ScopeTree is the result of BuildScopes: the module's root scope, plus an
// index from every scope-introducing Node to the Scope it introduces and
// from every Name/Attribute occurrence to the Scope that contains it.
type ScopeTree struct {
	Root       *Scope
	ScopeOf    map[Node]*Scope // ClassDef/FunctionDef/Module -> the Scope they open
	Enclosing  map[Node]*Scope // every statement/expression Node -> its containing Scope
}

// BuildScopes builds a ScopeTree for m. It is lazily cached per module
// version by the caller (component C, spec.md §4.C) — this function itself
// is a pure, repeatable computation over m.
func BuildScopes(m *Module) *ScopeTree {
	t := &ScopeTree{ScopeOf: map[Node]*Scope{}, Enclosing: map[Node]*Scope{}}
	root := newScope(nil, m, false)
	t.Root = root
	t.ScopeOf[m] = root
	b := &scopeBuilder{tree: t}
	b.collectBindings(root, m.Body, nil)
	b.walkBody(root, m.Body, nil)
	return t
}

type scopeBuilder struct {
	tree *ScopeTree
}

// collectBindings performs the first of two passes per scope: it scans the
// scope's own statement list (not nested function bodies) for every name
// this scope binds, before any of them are resolved against uses. This is
// what makes "assigned anywhere in the function" binding function-wide
// rather than only-after-the-assignment.
func (b *scopeBuilder) collectBindings(s *Scope, body []Node, enclosingFunc *FunctionDef) {
	for _, stmt := range body {
		b.collectStmtBindings(s, stmt, enclosingFunc)
	}
}

func (b *scopeBuilder) collectStmtBindings(s *Scope, n Node, enclosingFunc *FunctionDef) {
	switch stmt := n.(type) {
	case *Assign:
		for _, target := range stmt.Targets {
			b.bindTarget(s, target)
		}
	case *AugAssign:
		b.bindTarget(s, stmt.Target)
	case *FunctionDef:
		s.Bindings[stmt.Name] = &Binding{Name: stmt.Name, Kind: BindFunctionDef, Pos: stmt.NamePos, Node: stmt}
		if len(stmt.Params) > 0 && stmt.IsMethod {
			// The first formal parameter is self-like by position.
		}
	case *ClassDef:
		s.Bindings[stmt.Name] = &Binding{Name: stmt.Name, Kind: BindClassDef, Pos: stmt.NamePos, Node: stmt}
	case *Import:
		for i := range stmt.Names {
			in := &stmt.Names[i]
			name := in.Alias
			if name == "" {
				name = firstComponent(in.Dotted)
			}
			s.Bindings[name] = &Binding{Name: name, Kind: BindImport, Pos: in.Pos, Node: stmt}
		}
	case *ImportFrom:
		for i := range stmt.Names {
			in := &stmt.Names[i]
			if in.Dotted == "*" {
				continue
			}
			name := in.Alias
			if name == "" {
				name = in.Dotted
			}
			s.Bindings[name] = &Binding{Name: name, Kind: BindImportFromAs, Pos: in.Pos, Node: stmt}
		}
	case *If:
		b.collectBindings(s, stmt.Body, enclosingFunc)
		b.collectBindings(s, stmt.Orelse, enclosingFunc)
	case *For:
		b.bindTarget(s, stmt.Target)
		b.collectBindings(s, stmt.Body, enclosingFunc)
		b.collectBindings(s, stmt.Orelse, enclosingFunc)
	case *While:
		b.collectBindings(s, stmt.Body, enclosingFunc)
		b.collectBindings(s, stmt.Orelse, enclosingFunc)
	}
}

func (b *scopeBuilder) bindTarget(s *Scope, target Node) {
	switch t := target.(type) {
	case *Name:
		s.Bindings[t.Id] = &Binding{Name: t.Id, Kind: bindKindFor(s), Pos: t.Pos(), Node: target}
	case *Tuple:
		for _, e := range t.Elts {
			b.bindTarget(s, e)
		}
	// Attribute targets (obj.attr = v) do not introduce a scope binding.
	case *Attribute:
	}
}

func bindKindFor(s *Scope) BindingKind {
	if _, ok := s.Node.(*ClassDef); ok {
		return BindClassBody
	}
	return BindLocal
}

// walkBody performs the second pass: it descends into nested scopes
// (ClassDef/FunctionDef bodies), records each expression/statement's
// enclosing scope, and binds FunctionDef parameters into the new child scope
// before collecting and walking its body. (Positional self-detection is done
// separately, by SelfParamName.)
func (b *scopeBuilder) walkBody(s *Scope, body []Node, enclosingFunc *FunctionDef) {
	for _, stmt := range body {
		b.walkStmt(s, stmt, enclosingFunc)
	}
}

func (b *scopeBuilder) walkStmt(s *Scope, n Node, enclosingFunc *FunctionDef) {
	b.tree.Enclosing[n] = s
	switch stmt := n.(type) {
	case *FunctionDef:
		child := newScope(s, stmt, false)
		b.tree.ScopeOf[stmt] = child
		for i := range stmt.Params {
			param := &stmt.Params[i]
			child.Bindings[param.Name] = &Binding{Name: param.Name, Kind: BindParam, Pos: param.NamePos, Node: stmt}
			if param.Default != nil {
				b.walkExpr(s, param.Default) // defaults evaluate in the enclosing scope
			}
		}
		b.collectBindings(child, stmt.Body, stmt)
		b.walkBody(child, stmt.Body, stmt)
	case *ClassDef:
		child := newScope(s, stmt, true)
		b.tree.ScopeOf[stmt] = child
		for _, base := range stmt.Bases {
			b.walkExpr(s, base)
		}
		b.collectBindings(child, stmt.Body, enclosingFunc)
		b.walkBody(child, stmt.Body, enclosingFunc)
	case *Assign:
		b.walkExpr(s, stmt.Value)
		for _, t := range stmt.Targets {
			b.walkTargetExpr(s, t)
		}
	case *AugAssign:
		b.walkExpr(s, stmt.Value)
		b.walkTargetExpr(s, stmt.Target)
	case *ExprStmt:
		b.walkExpr(s, stmt.Value)
	case *Return:
		if stmt.Value != nil {
			b.walkExpr(s, stmt.Value)
		}
	case *If:
		b.walkExpr(s, stmt.Test)
		b.walkBody(s, stmt.Body, enclosingFunc)
		b.walkBody(s, stmt.Orelse, enclosingFunc)
	case *For:
		b.walkExpr(s, stmt.Iter)
		b.walkTargetExpr(s, stmt.Target)
		b.walkBody(s, stmt.Body, enclosingFunc)
		b.walkBody(s, stmt.Orelse, enclosingFunc)
	case *While:
		b.walkExpr(s, stmt.Test)
		b.walkBody(s, stmt.Body, enclosingFunc)
		b.walkBody(s, stmt.Orelse, enclosingFunc)
	}
}

// walkTargetExpr records enclosing-scope info for an assignment target
// without re-treating it as a read (a bare Name target is a binding
// occurrence, already recorded by collectBindings; an Attribute/subscript
// target is also a read of its receiver, which walkExpr does handle).
func (b *scopeBuilder) walkTargetExpr(s *Scope, n Node) {
	b.tree.Enclosing[n] = s
	switch t := n.(type) {
	case *Attribute:
		b.walkExpr(s, t.Value)
	case *Tuple:
		for _, e := range t.Elts {
			b.walkTargetExpr(s, e)
		}
	}
}

func (b *scopeBuilder) walkExpr(s *Scope, n Node) {
	if n == nil {
		return
	}
	b.tree.Enclosing[n] = s
	switch e := n.(type) {
	case *Attribute:
		b.walkExpr(s, e.Value)
	case *Call:
		b.walkExpr(s, e.Func)
		for _, a := range e.Args {
			b.walkExpr(s, a)
		}
		for _, kw := range e.Keywords {
			b.walkExpr(s, kw.Value)
		}
	case *BinOp:
		if e.Left != nil {
			b.walkExpr(s, e.Left)
		}
		b.walkExpr(s, e.Right)
	case *Tuple:
		for _, elt := range e.Elts {
			b.walkExpr(s, elt)
		}
	}
}

func firstComponent(dotted string) string {
	for i, c := range dotted {
		if c == '.' {
			return dotted[:i]
		}
	}
	return dotted
}

// SelfParamName returns the first formal parameter's spelling for fn, the
// positional self-detection spec.md §4.C requires (methods may rename their
// first parameter away from the conventional "self").
func SelfParamName(fn *FunctionDef) (string, bool) {
	if !fn.IsMethod || len(fn.Params) == 0 {
		return "", false
	}
	return fn.Params[0].Name, true
}
