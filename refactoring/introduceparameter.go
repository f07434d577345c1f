// This file defines the Introduce Parameter refactoring (SPEC_FULL.md
// §4.G). New orchestrator, following Base's Validate→Plan→Emit protocol.
package refactoring

import (
	"fmt"

	"github.com/godoctor/pyref/syntax"
	"github.com/godoctor/pyref/text"
)

// An IntroduceParameter refactoring adds a new parameter to the enclosing
// function, defaulting to the selected expression's current textual value,
// and replaces every in-body occurrence of that expression with the new
// parameter name.
type IntroduceParameter struct {
	Base
	newName string
}

func (r *IntroduceParameter) Description() *Description {
	return &Description{
		Name: "Introduce Parameter",
		Params: []Parameter{
			{Label: "New parameter name:", Prompt: "Name for the new parameter.", DefaultValue: ""},
		},
	}
}

func (r *IntroduceParameter) Run(config *Config) *Result {
	r.Base.Run(config)
	if r.Log.ContainsErrors() {
		return &r.Result
	}
	if !validateArgs(config, r.Description(), r.Log) {
		return &r.Result
	}
	r.newName, _ = config.Args[0].(string)
	if r.newName == "" || !isValidIdentifier(r.newName) {
		r.fail("%q is not a valid identifier", r.newName)
		return &r.Result
	}

	fn := r.enclosingFunction(r.selStart)
	if fn == nil {
		r.fail("The selection is not inside a function")
		return &r.Result
	}

	exprText, err := r.textOf(r.selStart, r.selEnd)
	if err != nil {
		r.fail("%s", err)
		return &r.Result
	}
	if exprText == "" {
		r.fail("Please select an expression to parameterize")
		return &r.Result
	}
	for _, p := range fn.Params {
		if p.Name == r.newName {
			r.fail("%s already has a parameter named %q", fn.Name, r.newName)
			return &r.Result
		}
	}

	edits := r.newEditSet()
	insertAt := paramListEnd(fn)
	sep := ""
	if len(fn.Params) > 0 {
		sep = ", "
	}
	edits.Add(text.Extent{Offset: insertAt, Length: 0}, fmt.Sprintf("%s%s=%s", sep, r.newName, exprText))

	r.replaceExpressionOccurrences(fn, exprText, edits)

	if err := r.addContentChange(r.modulePath, edits); err != nil {
		r.fail("%s", err)
	}
	return &r.Result
}

func (r *IntroduceParameter) enclosingFunction(offset int) *syntax.FunctionDef {
	var found *syntax.FunctionDef
	var descend func(body []syntax.Node)
	descend = func(body []syntax.Node) {
		for _, s := range body {
			if offset < s.Pos() || offset > s.End() {
				continue
			}
			if fn, ok := s.(*syntax.FunctionDef); ok {
				found = fn
				descend(fn.Body)
			}
			if cls, ok := s.(*syntax.ClassDef); ok {
				descend(cls.Body)
			}
		}
	}
	descend(r.mod.Body)
	return found
}

// replaceExpressionOccurrences replaces every occurrence of exprText's
// exact source span within fn's body with r.newName, by comparing each
// sub-expression node's textual rendering against exprText.
func (r *IntroduceParameter) replaceExpressionOccurrences(fn *syntax.FunctionDef, exprText string, edits *text.EditSet) {
	for _, s := range fn.Body {
		walkNodes(s, func(n syntax.Node) {
			t, err := r.textOf(n.Pos(), n.End())
			if err != nil || t != exprText {
				return
			}
			edits.Add(text.Extent{Offset: n.Pos(), Length: n.End() - n.Pos()}, r.newName)
		})
	}
}
