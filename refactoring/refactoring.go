// This file defines the Refactoring interface, Base, and the common
// Validate/Plan/Emit scaffolding every concrete refactoring builds on. Per
// spec.md §4.G, an orchestrator never mutates the project directly: Run
// resolves the selection, delegates to the refactoring-specific Validate and
// Plan steps, and returns a ChangeSet (via Result.Changes) for the caller
// (typically undo.Manager.Add) to commit.
package refactoring

import (
	"context"
	"fmt"
	"reflect"

	"github.com/godoctor/pyref/change"
	"github.com/godoctor/pyref/fsys"
	"github.com/godoctor/pyref/resolve"
	"github.com/godoctor/pyref/syntax"
	"github.com/godoctor/pyref/text"
)

// A Parameter describes one piece of additional input a refactoring needs
// beyond a text selection (e.g. Rename's new name).
type Parameter struct {
	Label        string
	Prompt       string
	DefaultValue any
}

// IsBoolean reports whether this Parameter's value must be true or false.
func (p *Parameter) IsBoolean() bool {
	_, ok := p.DefaultValue.(bool)
	return ok
}

// A Description documents a refactoring kind for a host UI.
type Description struct {
	Name   string
	Params []Parameter
}

// A Config is the input to Run: the project to operate on, the starting
// selection, and any refactoring-specific arguments.
type Config struct {
	Project   *fsys.Project
	Resolver  *resolve.Resolver
	Selection text.Selection
	Args      []any
	Ctx       context.Context
}

func (c *Config) context() context.Context {
	if c.Ctx != nil {
		return c.Ctx
	}
	return context.Background()
}

// A Result is what Run returns: a Log for the host to display, and — when
// the Log contains no errors — a ChangeSet ready to be committed by an
// undo.Manager.
type Result struct {
	Log     *Log
	Changes *change.Set
}

// The Refactoring interface identifies methods common to every refactoring
// kind. The protocol (spec.md §4.G) is: Validate → Plan → Emit change set;
// Run is the single entry point that drives all three.
type Refactoring interface {
	Description() *Description
	Run(*Config) *Result
}

// A RefactoringError reports that a refactoring is inapplicable at the given
// selection (wrong selection kind, unresolved name, collision, non-global
// move, tuple-assign on encapsulation, ...), per spec.md §7.
type RefactoringError struct {
	Message string
}

func (e *RefactoringError) Error() string { return e.Message }

// Base is embedded by every concrete refactoring. It resolves Config's
// selection to an offset range within a parsed module, exposes the parsed
// AST/scope tree, and accumulates a Log and ChangeSet that the concrete
// refactoring's Plan step appends to.
type Base struct {
	Result

	config       *Config
	modulePath   string
	selStart     int
	selEnd       int
	mod          *syntax.Module
	scopes       *syntax.ScopeTree
	buf          *text.Buffer
	selectedNode syntax.Node
}

// Run resolves config's selection and initializes Base's fields. Concrete
// refactorings call this first, check r.Log.ContainsErrors(), and otherwise
// proceed to their own Validate/Plan logic, finally returning &r.Result.
func (r *Base) Run(config *Config) {
	r.Log = NewLog()
	r.Changes = change.NewSet("")
	r.config = config

	if config.Project == nil || config.Resolver == nil {
		r.Log.Errorf("INTERNAL ERROR: nil Config.Project or Config.Resolver")
		return
	}
	if config.Selection == nil {
		r.Log.Errorf("INTERNAL ERROR: nil Config.Selection")
		return
	}

	r.modulePath = config.Selection.Filename()
	f, err := config.Project.GetFile(r.modulePath)
	if err != nil {
		r.Log.Errorf("%s", err)
		return
	}
	buf, err := f.Buffer()
	if err != nil {
		r.Log.Errorf("%s", err)
		return
	}
	r.buf = buf

	start, end, err := config.Selection.Convert(buf)
	if err != nil {
		r.Log.Errorf("%s", err)
		return
	}
	r.selStart, r.selEnd = start, end

	mod, parseErrs := syntax.Parse(buf.Bytes())
	mod.Name = f.ModuleName()
	r.mod = mod
	r.scopes = syntax.BuildScopes(mod)
	for _, pe := range parseErrs {
		r.Log.Warnf("parse: %s", pe.Message)
	}

	r.selectedNode = nodeAt(mod, start)
	if r.selectedNode == nil {
		r.Log.Errorf("The current selection cannot be refactored")
		r.Log.AssociatePos(r.modulePath, start, end-start)
	}
}

// nodeAt finds the smallest AST node whose span contains offset, the same
// descent resolve.Resolver's classify step performs (duplicated here, rather
// than exported from resolve, to keep refactoring's dependency on resolve
// limited to its public OccurrencesOf/Resolver surface).
func nodeAt(m *syntax.Module, offset int) syntax.Node {
	var best syntax.Node
	var walk func(n syntax.Node)
	walk = func(n syntax.Node) {
		if n == nil || offset < n.Pos() || offset > n.End() {
			return
		}
		if best == nil || (n.End()-n.Pos()) < (best.End()-best.Pos()) {
			best = n
		}
		for _, c := range nodeChildren(n) {
			walk(c)
		}
	}
	for _, stmt := range m.Body {
		walk(stmt)
	}
	return best
}

func nodeChildren(n syntax.Node) []syntax.Node {
	switch v := n.(type) {
	case *syntax.Module:
		return v.Body
	case *syntax.ClassDef:
		return append(append([]syntax.Node{}, v.Bases...), v.Body...)
	case *syntax.FunctionDef:
		return v.Body
	case *syntax.Assign:
		return append(append([]syntax.Node{}, v.Targets...), v.Value)
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
		return append(append([]syntax.Node{v.Test}, v.Body...), v.Orelse...)
	case *syntax.For:
		out := append([]syntax.Node{v.Target, v.Iter}, v.Body...)
		return append(out, v.Orelse...)
	case *syntax.While:
		return append(append([]syntax.Node{v.Test}, v.Body...), v.Orelse...)
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

// validateArgs checks config.Args against desc.Params by count and type.
func validateArgs(config *Config, desc *Description, log *Log) bool {
	if len(config.Args) != len(desc.Params) {
		log.Errorf("This refactoring requires %d argument(s), but %d were supplied.",
			len(desc.Params), len(config.Args))
		return false
	}
	for i, arg := range config.Args {
		expected := reflect.TypeOf(desc.Params[i].DefaultValue)
		if reflect.TypeOf(arg) != expected {
			log.Errorf("%s must be a %s", desc.Params[i].Label, expected)
			return false
		}
	}
	return true
}

// moduleText reads the current text of the module at path through its
// fsys.File buffer. Edits planned but not yet committed are not reflected.
func (r *Base) moduleText(path string) (string, error) {
	f, err := r.config.Project.GetFile(path)
	if err != nil {
		return "", err
	}
	buf, err := f.Buffer()
	if err != nil {
		return "", err
	}
	return buf.Text(), nil
}

// newEditSet returns an empty EditSet stamped with r.modulePath's current
// buffer version, so addContentChange can detect whether that buffer moved
// on before these edits are applied.
func (r *Base) newEditSet() *text.EditSet {
	return text.NewEditSetForVersion(r.buf.Version())
}

// newEditSetFor is newEditSet for a module other than r.modulePath — used by
// refactorings that rewrite occurrences in other modules (rename.go,
// changesignature.go, factory.go, encapsulate.go).
func (r *Base) newEditSetFor(path string) (*text.EditSet, error) {
	f, err := r.config.Project.GetFile(path)
	if err != nil {
		return nil, err
	}
	buf, err := f.Buffer()
	if err != nil {
		return nil, err
	}
	return text.NewEditSetForVersion(buf.Version()), nil
}

// addContentChange applies edits to path's current buffer and appends the
// resulting change.ContentChange to r.Changes. If edits was stamped with a
// buffer version (via newEditSet/newEditSetFor) that no longer matches
// path's buffer, it fails rather than writing offsets computed against
// stale text.
func (r *Base) addContentChange(path string, edits *text.EditSet) error {
	f, err := r.config.Project.GetFile(path)
	if err != nil {
		return err
	}
	buf, err := f.Buffer()
	if err != nil {
		return err
	}
	cc, err := change.NewContentChangeFromBuffer(path, buf, edits)
	if err != nil {
		return err
	}
	r.Changes.Add(cc)
	return nil
}

// walkNodes visits n and every descendant reachable through nodeChildren, in
// preorder.
func walkNodes(n syntax.Node, visit func(syntax.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range nodeChildren(n) {
		walkNodes(c, visit)
	}
}

// stmtsInRange returns the statements of body whose full span lies within
// [start, end), the set of top-level statements a text-range selection for
// Extract resolves to.
func stmtsInRange(body []syntax.Node, start, end int) []syntax.Node {
	var out []syntax.Node
	for _, s := range body {
		if s.Pos() >= start && s.End() <= end {
			out = append(out, s)
		}
	}
	return out
}

// selectedName extracts the identifier spelling of n, when n is a node kind
// that carries one (Name, Attribute, FunctionDef, ClassDef, or a Param's
// Name node is handled by its containing FunctionDef).
func selectedName(n syntax.Node) (string, bool) {
	switch v := n.(type) {
	case *syntax.Name:
		return v.Id, true
	case *syntax.Attribute:
		return v.Attr, true
	case *syntax.FunctionDef:
		return v.Name, true
	case *syntax.ClassDef:
		return v.Name, true
	default:
		return "", false
	}
}

func (r *Base) fail(format string, args ...any) {
	r.Log.Errorf(format, args...)
	r.Log.AssociatePos(r.modulePath, r.selStart, r.selEnd-r.selStart)
	r.Changes = change.NewSet("")
}

var _ = fmt.Sprintf // addContentChange/fail's fmt-adjacent helpers kept together
