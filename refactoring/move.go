// This file defines the Move refactoring, both forms SPEC_FULL.md §4.G
// describes: moving a top-level definition between modules, and relocating
// a module/package resource (rewriting every import that refers to it).
// Grounded on refactoring/rename.go's addFileSystemChanges (detecting a
// directory-is-package rename and emitting an fsys change alongside content
// edits) for the resource-relocation half.
package refactoring

import (
	"fmt"
	"strings"

	"github.com/godoctor/pyref/change"
	"github.com/godoctor/pyref/syntax"
	"github.com/godoctor/pyref/text"
)

// A Move refactoring relocates a top-level definition to another module, or
// relocates a module resource and fixes up every import referring to it.
type Move struct {
	Base
	destination string
}

func (r *Move) Description() *Description {
	return &Description{
		Name: "Move",
		Params: []Parameter{
			{Label: "Destination:", Prompt: "Destination module path or dotted name.", DefaultValue: ""},
		},
	}
}

func (r *Move) Run(config *Config) *Result {
	r.Base.Run(config)
	if r.Log.ContainsErrors() {
		return &r.Result
	}
	if !validateArgs(config, r.Description(), r.Log) {
		return &r.Result
	}
	r.destination, _ = config.Args[0].(string)
	if r.destination == "" {
		r.fail("A destination must be given")
		return &r.Result
	}

	switch sel := r.selectedNode.(type) {
	case *syntax.FunctionDef, *syntax.ClassDef:
		r.moveDefinition(sel)
	default:
		r.fail("Please select a top-level function, class, or this module itself to move")
	}
	return &r.Result
}

// moveDefinition implements "for a top-level definition: remove from the
// source module, insert at the destination module's tail" (SPEC_FULL.md
// §4.G). It refuses when the binding is nested (a local/method's binding,
// rather than a module-level one).
func (r *Move) moveDefinition(sel syntax.Node) {
	scope := r.scopes.Enclosing[sel]
	if scope == nil || scope != r.scopes.Root {
		r.fail("Only a top-level function or class can be moved")
		return
	}

	defText, err := r.textOf(sel.Pos(), sel.End())
	if err != nil {
		r.fail("%s", err)
		return
	}

	freeModules := r.externalModuleRefs(sel)

	destText, err := r.moduleText(r.destination)
	if err != nil {
		r.fail("destination module %q: %s", r.destination, err)
		return
	}

	var header strings.Builder
	for _, dep := range freeModules {
		if !strings.Contains(destText, "import "+dep) {
			fmt.Fprintf(&header, "import %s\n", dep)
		}
	}
	header.WriteString("\n")
	header.WriteString(strings.TrimRight(defText, "\n"))
	header.WriteString("\n")

	destEdits, err := r.newEditSetFor(r.destination)
	if err != nil {
		r.fail("%s", err)
		return
	}
	destEdits.Add(text.Extent{Offset: len(destText), Length: 0}, header.String())
	if err := r.addContentChange(r.destination, destEdits); err != nil {
		r.fail("%s", err)
		return
	}

	srcEdits := r.newEditSet()
	srcEdits.Add(text.Extent{Offset: sel.Pos(), Length: sel.End() - sel.Pos()}, "")
	if err := r.addContentChange(r.modulePath, srcEdits); err != nil {
		r.fail("%s", err)
	}
}

// externalModuleRefs returns the dotted module names (with " as <alias>" for
// an aliased import) that sel's body uses from the source module's own
// "import" statements; "from ... import" statements are not considered. It is
// a conservative
// approximation of "ensure any names the moved body uses from the source
// module are available at the destination" (SPEC_FULL.md §4.G), which
// re-imports the same modules at the destination rather than inlining or
// qualifying.
func (r *Move) externalModuleRefs(sel syntax.Node) []string {
	imported := map[string]string{}
	for _, s := range r.mod.Body {
		switch im := s.(type) {
		case *syntax.Import:
			for _, n := range im.Names {
				spec := n.Dotted
				if n.Alias != "" {
					spec += " as " + n.Alias
				}
				imported[importBindingName(n)] = spec
			}
		case *syntax.ImportFrom:
			// handled separately by callers that need qualified rewriting
		}
	}
	used := map[string]bool{}
	walkNodes(sel, func(n syntax.Node) {
		if name, ok := n.(*syntax.Name); ok && imported[name.Id] != "" {
			used[imported[name.Id]] = true
		}
	})
	var out []string
	for name := range used {
		out = append(out, name)
	}
	return out
}

// A MoveModule refactoring relocates a module or package resource and
// rewrites the imports of it in the project's other modules: "import X" and
// "from X import Y" where X is the module's own dotted name, the latter
// converted to the qualified form (SPEC_FULL.md §4.G). An import of the module
// through its parent package ("from pkg import mod") is not rewritten, nor
// is any import inside the moved module itself.
type MoveModule struct {
	Base
	newParentPath string
}

func (r *MoveModule) Description() *Description {
	return &Description{
		Name: "Move Module",
		Params: []Parameter{
			{Label: "New parent folder:", Prompt: "Destination folder path.", DefaultValue: ""},
		},
	}
}

func (r *MoveModule) Run(config *Config) *Result {
	r.Base.Run(config)
	if r.Log.ContainsErrors() {
		return &r.Result
	}
	if !validateArgs(config, r.Description(), r.Log) {
		return &r.Result
	}
	r.newParentPath, _ = config.Args[0].(string)

	f, err := config.Project.GetFile(r.modulePath)
	if err != nil {
		r.fail("%s", err)
		return &r.Result
	}
	oldDotted := f.ModuleName()

	base := r.modulePath
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	newPath := strings.TrimSuffix(r.newParentPath, "/") + "/" + base
	newDotted := dottedName(newPath, config.Project.Config.ModuleSuffix)

	// The orchestrator never mutates the project directly: the resource
	// relocation itself is recorded as a Change for the caller to commit,
	// not performed here via Project.Move (SPEC_FULL.md §4.G).
	r.Changes.Add(&change.MoveResource{FromPath: r.modulePath, ToParentPath: r.newParentPath})

	for _, mod := range config.Project.AllModules() {
		if mod.Path() == r.modulePath {
			continue
		}
		if err := r.rewriteImportsOf(mod.Path(), oldDotted, newDotted); err != nil {
			r.fail("%s", err)
			return &r.Result
		}
	}
	return &r.Result
}

// dottedName mirrors fsys.File.ModuleName's path-to-dotted-name conversion
// for a path that does not yet exist as a File (the post-move destination).
func dottedName(path, suffix string) string {
	trimmed := strings.TrimSuffix(path, suffix)
	dotted := strings.ReplaceAll(trimmed, "/", ".")
	dotted = strings.TrimSuffix(dotted, ".__init__")
	if dotted == "__init__" {
		return ""
	}
	return dotted
}

// rewriteImportsOf rewrites every import of oldDotted in modPath to
// newDotted, converting "from oldDotted import X" to "import newDotted" +
// qualified-reference rewriting when newDotted differs in a way that
// changes accessibility (i.e., always, since the dotted path itself moved).
func (r *MoveModule) rewriteImportsOf(modPath, oldDotted, newDotted string) error {
	mod, _, err := r.config.Resolver.Parsed(modPath)
	if err != nil {
		return err
	}
	edits, err := r.newEditSetFor(modPath)
	if err != nil {
		return err
	}
	changed := false
	for _, s := range mod.Body {
		switch im := s.(type) {
		case *syntax.Import:
			for _, n := range im.Names {
				if n.Dotted == oldDotted {
					edits.Add(text.Extent{Offset: n.Pos, Length: len(n.Dotted)}, newDotted)
					changed = true
				}
			}
		case *syntax.ImportFrom:
			full := strings.Repeat(".", im.Level) + im.Module
			if full != oldDotted {
				continue
			}
			repl := fmt.Sprintf("import %s", newDotted)
			edits.Add(text.Extent{Offset: im.Pos(), Length: im.End() - im.Pos()}, repl)
			changed = true
			for _, n := range im.Names {
				bound := importBindingName(n)
				qualified := newDotted + "." + bound
				r.qualifyReferences(mod.Body, bound, qualified, edits)
			}
		}
	}
	if !changed {
		return nil
	}
	return r.addContentChange(modPath, edits)
}

func (r *MoveModule) qualifyReferences(body []syntax.Node, bound, qualified string, edits *text.EditSet) {
	for _, s := range body {
		walkNodes(s, func(n syntax.Node) {
			if name, ok := n.(*syntax.Name); ok && name.Id == bound {
				edits.Add(text.Extent{Offset: name.Pos(), Length: name.End() - name.Pos()}, qualified)
			}
		})
	}
}
