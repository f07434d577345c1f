// This file defines the Inline refactoring (local and
// method/function forms), grounded on the inverse-of-extraction shape
// described alongside refactoring/extractfunc.go and on
// refactoring/reverseassign.go's single-definition/single-use rewrite
// pattern.
package refactoring

import (
	"fmt"
	"strings"

	"github.com/godoctor/pyref/syntax"
	"github.com/godoctor/pyref/text"
)

// An Inline refactoring replaces every use of a local variable or a
// function/method with its definition.
type Inline struct {
	Base
}

func (r *Inline) Description() *Description {
	return &Description{Name: "Inline"}
}

func (r *Inline) Run(config *Config) *Result {
	r.Base.Run(config)
	if r.Log.ContainsErrors() {
		return &r.Result
	}

	switch sel := r.selectedNode.(type) {
	case *syntax.Name:
		r.inlineLocal(sel)
	case *syntax.FunctionDef:
		r.inlineFunction(sel)
	default:
		r.fail("Please select a local variable, function, or method to inline")
	}
	return &r.Result
}

// inlineLocal implements "for a local: replace each read with the
// right-hand-side expression, then delete the definition — refuse when the
// variable is written more than once" (SPEC_FULL.md §4.G).
func (r *Inline) inlineLocal(nameNode *syntax.Name) {
	scope := r.scopes.Enclosing[nameNode]
	if scope == nil {
		r.fail("Cannot determine the enclosing scope of the selection")
		return
	}
	binding, ok := scope.Bindings[nameNode.Id]
	if !ok || binding.Kind != syntax.BindLocal {
		r.fail("Please select a local variable to inline")
		return
	}

	body, _, _ := r.findEnclosingBody(binding.Pos)
	if body == nil {
		r.fail("Cannot determine the enclosing statement list")
		return
	}

	var def *syntax.Assign
	var defIndex = -1
	writeCount := 0
	for i, s := range body {
		assign, ok := s.(*syntax.Assign)
		if !ok || len(assign.Targets) != 1 {
			continue
		}
		target, ok := assign.Targets[0].(*syntax.Name)
		if !ok || target.Id != nameNode.Id {
			continue
		}
		writeCount++
		def, defIndex = assign, i
	}
	if writeCount == 0 {
		r.fail("Could not find the definition of %q", nameNode.Id)
		return
	}
	if writeCount > 1 {
		r.fail("%q is assigned more than once; cannot inline", nameNode.Id)
		return
	}

	rhsText, err := r.textOf(def.Value.Pos(), def.Value.End())
	if err != nil {
		r.fail("%s", err)
		return
	}
	needsParens := containsTopLevelBinOp(def.Value)

	edits := r.newEditSet()
	for i, s := range body {
		if i == defIndex {
			continue
		}
		walkNodes(s, func(n syntax.Node) {
			name, ok := n.(*syntax.Name)
			if !ok || name.Id != nameNode.Id {
				return
			}
			replacement := rhsText
			if needsParens {
				replacement = "(" + rhsText + ")"
			}
			edits.Add(text.Extent{Offset: name.Pos(), Length: name.End() - name.Pos()}, replacement)
		})
	}
	delStart := def.Pos() - len(r.indentOf(def.Pos()))
	edits.Add(text.Extent{Offset: delStart, Length: def.End() - delStart + 1}, "")

	if err := r.addContentChange(r.modulePath, edits); err != nil {
		r.fail("%s", err)
	}
}

func containsTopLevelBinOp(n syntax.Node) bool {
	_, ok := n.(*syntax.BinOp)
	return ok
}

// inlineFunction replaces each call site of fn in the same module with fn's
// body and deletes the definition. Only a body that is a single return
// statement is inlined (see renderInlinedCall); a body with local variables
// is refused, and no names are renamed. A body with a return before its last
// statement is refused, and so is a function that OccurrencesOf reports as
// used from another module.
func (r *Inline) inlineFunction(fn *syntax.FunctionDef) {
	if hasNonTrailingReturn(fn.Body) {
		r.fail("%s has a return in the middle of its body; cannot inline", fn.Name)
		return
	}
	occs, err := r.config.Resolver.OccurrencesOf(r.config.context(), r.modulePath, fn.NamePos)
	if err != nil {
		r.fail("%s", err)
		return
	}
	for _, occ := range occs {
		if occ.ModulePath != r.modulePath {
			r.fail("%s is used from %s; cannot inline across modules", fn.Name, occ.ModulePath)
			return
		}
	}

	var calls []*syntax.Call
	for _, s := range r.mod.Body {
		walkNodes(s, func(n syntax.Node) {
			call, ok := n.(*syntax.Call)
			if !ok {
				return
			}
			if name, ok := call.Func.(*syntax.Name); ok && name.Id == fn.Name {
				calls = append(calls, call)
			}
		})
	}
	if len(calls) == 0 {
		r.fail("No call sites of %s were found in this module", fn.Name)
		return
	}

	edits := r.newEditSet()
	for i, call := range calls {
		rewritten, err := r.renderInlinedCall(fn, call, i)
		if err != nil {
			r.fail("%s", err)
			return
		}
		edits.Add(text.Extent{Offset: call.Pos(), Length: call.End() - call.Pos()}, rewritten)
	}
	edits.Add(text.Extent{Offset: fn.Pos(), Length: fn.End() - fn.Pos() + 1}, "")

	if err := r.addContentChange(r.modulePath, edits); err != nil {
		r.fail("%s", err)
	}
}

// renderInlinedCall renders fn's single return expression with each of fn's
// parameters replaced by the parenthesized text of call's matching positional
// argument. Parameters without a matching positional argument are left as
// they are, and no names are renamed; the index i does not affect the result.
func (r *Inline) renderInlinedCall(fn *syntax.FunctionDef, call *syntax.Call, i int) (string, error) {
	if len(fn.Body) != 1 {
		return "", fmt.Errorf("%s's body is not a single expression; cannot inline as an expression", fn.Name)
	}
	ret, ok := fn.Body[0].(*syntax.Return)
	if !ok || ret.Value == nil {
		return "", fmt.Errorf("%s does not end in a single return expression", fn.Name)
	}

	bodyText, err := r.textOf(ret.Value.Pos(), ret.Value.End())
	if err != nil {
		return "", err
	}

	argTexts := make([]string, len(call.Args))
	for j, arg := range call.Args {
		t, err := r.textOf(arg.Pos(), arg.End())
		if err != nil {
			return "", err
		}
		argTexts[j] = t
	}

	rendered := bodyText
	for j, p := range fn.Params {
		if j >= len(argTexts) {
			break
		}
		rendered = replaceIdentifier(rendered, p.Name, argTexts[j])
	}
	return rendered, nil
}

// replaceIdentifier performs a whole-identifier textual substitution of
// name with replacement within src, used only for the small, single-
// expression bodies renderInlinedCall handles.
func replaceIdentifier(src, name, replacement string) string {
	var out strings.Builder
	i := 0
	for i < len(src) {
		if strings.HasPrefix(src[i:], name) &&
			(i == 0 || !isIdentByte(src[i-1])) &&
			(i+len(name) == len(src) || !isIdentByte(src[i+len(name)])) {
			out.WriteString("(" + replacement + ")")
			i += len(name)
			continue
		}
		out.WriteByte(src[i])
		i++
	}
	return out.String()
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func hasNonTrailingReturn(body []syntax.Node) bool {
	for i, s := range body {
		if _, ok := s.(*syntax.Return); ok && i != len(body)-1 {
			return true
		}
	}
	return false
}
