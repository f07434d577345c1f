// This file defines the Change Signature refactoring (SPEC_FULL.md §4.G):
// add/remove/reorder/rename-parameter/convert-to-keyword-only edits over a
// function or method's parameter list, rewriting the definition and every
// call site. Keyword arguments are tracked by name through reorder and
// rename. New orchestrator — the teacher has no Go equivalent, since Go
// lacks default/keyword arguments — but it follows Base's Validate→Plan→Emit
// protocol exactly as rename.go does.
package refactoring

import (
	"fmt"
	"strings"

	"github.com/godoctor/pyref/resolve"
	"github.com/godoctor/pyref/syntax"
	"github.com/godoctor/pyref/text"
)

// A SignatureOp is one edit to a parameter list.
type SignatureOp struct {
	Kind         string // "add", "remove", "reorder", "rename", "keyword-only"
	ParamName    string // parameter this op targets ("" for add, using NewName instead)
	NewName      string // new parameter name (rename), or the added parameter's name (add)
	DefaultValue string // textual default value (add)
	NewIndex     int    // target index (reorder)
}

// A ChangeSignature refactoring edits a function or method's parameter list
// and rewrites every call site to match.
type ChangeSignature struct {
	Base
	ops []SignatureOp
}

func (r *ChangeSignature) Description() *Description {
	return &Description{
		Name: "Change Signature",
		Params: []Parameter{
			{Label: "Edits:", Prompt: "The list of signature edit operations.", DefaultValue: ""},
		},
	}
}

func (r *ChangeSignature) Run(config *Config) *Result {
	r.Base.Run(config)
	if r.Log.ContainsErrors() {
		return &r.Result
	}
	if len(config.Args) != 1 {
		r.fail("Change Signature requires a []SignatureOp argument")
		return &r.Result
	}
	ops, ok := config.Args[0].([]SignatureOp)
	if !ok {
		r.fail("Change Signature requires a []SignatureOp argument")
		return &r.Result
	}
	r.ops = ops

	fn, ok := r.selectedNode.(*syntax.FunctionDef)
	if !ok {
		r.fail("Please select a function or method definition")
		return &r.Result
	}

	newParams, nameMap, err := r.applyOps(fn.Params)
	if err != nil {
		r.fail("%s", err)
		return &r.Result
	}

	edits := r.newEditSet()
	edits.Add(text.Extent{Offset: paramListStart(fn), Length: paramListEnd(fn) - paramListStart(fn)},
		renderParamList(newParams))
	if err := r.addContentChange(r.modulePath, edits); err != nil {
		r.fail("%s", err)
		return &r.Result
	}

	occs, err := config.Resolver.OccurrencesOf(config.context(), r.modulePath, fn.NamePos)
	if err != nil {
		r.fail("%s", err)
		return &r.Result
	}
	if err := r.rewriteCallSites(occs, fn, newParams, nameMap); err != nil {
		r.fail("%s", err)
	}
	return &r.Result
}

// applyOps computes the new parameter list and a map from an old keyword
// argument's name to its new spelling (identity for untouched/added
// parameters), applying r.ops in order.
func (r *ChangeSignature) applyOps(params []syntax.Param) ([]syntax.Param, map[string]string, error) {
	out := append([]syntax.Param{}, params...)
	nameMap := map[string]string{}
	for _, p := range params {
		nameMap[p.Name] = p.Name
	}
	for _, op := range r.ops {
		switch op.Kind {
		case "add":
			if op.NewName == "" {
				return nil, nil, fmt.Errorf("add requires a parameter name")
			}
			out = append(out, syntax.Param{Name: op.NewName, Default: &syntax.Str{Literal: op.DefaultValue}})
			nameMap[op.NewName] = op.NewName
		case "remove":
			idx := indexOfParam(out, op.ParamName)
			if idx < 0 {
				return nil, nil, fmt.Errorf("no such parameter %q", op.ParamName)
			}
			if out[idx].Default == nil {
				return nil, nil, fmt.Errorf("parameter %q has no default; removing it would change call sites that pass it positionally", op.ParamName)
			}
			out = append(out[:idx], out[idx+1:]...)
			delete(nameMap, op.ParamName)
		case "reorder":
			idx := indexOfParam(out, op.ParamName)
			if idx < 0 || op.NewIndex < 0 || op.NewIndex >= len(out) {
				return nil, nil, fmt.Errorf("invalid reorder of %q to index %d", op.ParamName, op.NewIndex)
			}
			p := out[idx]
			out = append(out[:idx], out[idx+1:]...)
			out = append(out[:op.NewIndex], append([]syntax.Param{p}, out[op.NewIndex:]...)...)
		case "rename":
			idx := indexOfParam(out, op.ParamName)
			if idx < 0 {
				return nil, nil, fmt.Errorf("no such parameter %q", op.ParamName)
			}
			out[idx].Name = op.NewName
			nameMap[op.ParamName] = op.NewName
		case "keyword-only":
			idx := indexOfParam(out, op.ParamName)
			if idx < 0 {
				return nil, nil, fmt.Errorf("no such parameter %q", op.ParamName)
			}
			out[idx].Keyword = true
		default:
			return nil, nil, fmt.Errorf("unknown signature op %q", op.Kind)
		}
	}
	return out, nameMap, nil
}

func indexOfParam(params []syntax.Param, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func paramListStart(fn *syntax.FunctionDef) int {
	if len(fn.Params) == 0 {
		return fn.NamePos + len(fn.Name) + 1
	}
	return fn.Params[0].NamePos
}

func paramListEnd(fn *syntax.FunctionDef) int {
	if len(fn.Params) == 0 {
		return paramListStart(fn)
	}
	last := fn.Params[len(fn.Params)-1]
	end := last.NamePos + len(last.Name)
	if last.Default != nil {
		end = last.Default.End()
	}
	return end
}

func renderParamList(params []syntax.Param) string {
	parts := make([]string, 0, len(params)+1)
	sawKeywordMarker := false
	for _, p := range params {
		if p.Keyword && !sawKeywordMarker {
			sawKeywordMarker = true
			parts = append(parts, "*")
		}
		spelling := p.Name
		if p.VarArg {
			spelling = "*" + spelling
			sawKeywordMarker = true
		} else if p.KwArg {
			spelling = "**" + spelling
		}
		if p.Default != nil {
			if s, ok := p.Default.(*syntax.Str); ok {
				spelling += "=" + s.Literal
			} else {
				spelling += "=<default>"
			}
		}
		parts = append(parts, spelling)
	}
	return strings.Join(parts, ", ")
}

// rewriteCallSites rewrites every call to fn found via occs (the
// project-wide occurrences of fn's own name): positional arguments are left
// alone up to any reordering, and keyword arguments are retargeted through
// nameMap.
func (r *ChangeSignature) rewriteCallSites(occs []resolve.Occurrence, fn *syntax.FunctionDef, newParams []syntax.Param, nameMap map[string]string) error {
	byModule := map[string][]resolve.Occurrence{}
	for _, occ := range occs {
		if occ.IsBinding {
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
			rewritten, err := r.renderCall(call, nameMap)
			if err != nil {
				return err
			}
			edits.Add(text.Extent{Offset: call.Pos(), Length: call.End() - call.Pos()}, rewritten)
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

// enclosingCall finds the Call whose Func (a bare Name for "f(...)" or an
// Attribute for "mod.f(...)"/"obj.f(...)") spans offset.
func enclosingCall(mod *syntax.Module, offset int) *syntax.Call {
	var found *syntax.Call
	for _, s := range mod.Body {
		walkNodes(s, func(n syntax.Node) {
			call, ok := n.(*syntax.Call)
			if !ok {
				return
			}
			if call.Func.Pos() <= offset && offset <= call.Func.End() {
				found = call
			}
		})
	}
	return found
}

func (r *ChangeSignature) renderCall(call *syntax.Call, nameMap map[string]string) (string, error) {
	funcText, err := r.textOf(call.Func.Pos(), call.Func.End())
	if err != nil {
		return "", err
	}
	var args []string
	for _, a := range call.Args {
		t, err := r.textOf(a.Pos(), a.End())
		if err != nil {
			return "", err
		}
		args = append(args, t)
	}
	for _, kw := range call.Keywords {
		t, err := r.textOf(kw.Value.Pos(), kw.Value.End())
		if err != nil {
			return "", err
		}
		name := kw.Name
		if mapped, ok := nameMap[kw.Name]; ok {
			name = mapped
		}
		args = append(args, name+"="+t)
	}
	return funcText + "(" + strings.Join(args, ", ") + ")", nil
}
