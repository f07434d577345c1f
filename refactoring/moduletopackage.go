// This file defines the Transform Module To Package refactoring
// (SPEC_FULL.md §4.G), grounded on the same resource-relocation pattern as
// move.go's MoveModule, specialized to the single fixed destination
// "<module>/__init__.py".
package refactoring

import (
	"strings"

	"github.com/godoctor/pyref/change"
	"github.com/godoctor/pyref/syntax"
	"github.com/godoctor/pyref/text"
)

// A ModuleToPackage refactoring replaces a module file "m.py" with a folder
// "m/" containing "__init__.py" holding the original content, with any
// relative imports in the new init rewritten to absolute form rooted at the
// module's dotted path prefix.
type ModuleToPackage struct {
	Base
}

func (r *ModuleToPackage) Description() *Description {
	return &Description{Name: "Transform Module To Package"}
}

func (r *ModuleToPackage) Run(config *Config) *Result {
	r.Base.Run(config)
	if r.Log.ContainsErrors() {
		return &r.Result
	}

	suffix := config.Project.Config.ModuleSuffix
	if !strings.HasSuffix(r.modulePath, suffix) {
		r.fail("%s is not a module file", r.modulePath)
		return &r.Result
	}
	base := strings.TrimSuffix(r.modulePath, suffix)
	initPath := base + "/__init__" + suffix

	original, err := r.moduleText(r.modulePath)
	if err != nil {
		r.fail("%s", err)
		return &r.Result
	}

	rewritten := r.rewriteRelativeImports(original, dottedName(r.modulePath, suffix))

	r.Changes.Add(&change.CreateResource{ResourcePath: base, IsFolder: true})
	r.Changes.Add(&change.CreateResource{ResourcePath: initPath, IsFolder: false})
	r.Changes.Add(&change.ContentChange{FilePath: initPath, NewText: rewritten})
	r.Changes.Add(&change.RemoveResource{ResourcePath: r.modulePath})
	return &r.Result
}

// rewriteRelativeImports converts every relative "from .x import y" in src
// to the absolute form rooted at modulePrefix, the dotted path of the
// module being converted (its new package's own dotted name), per
// SPEC_FULL.md §4.G.
func (r *ModuleToPackage) rewriteRelativeImports(src, modulePrefix string) string {
	mod, parseErrs := syntax.Parse([]byte(src))
	if len(parseErrs) > 0 && len(mod.Body) == 0 {
		return src
	}
	edits := text.NewEditSet()
	changed := false
	for _, s := range mod.Body {
		imp, ok := s.(*syntax.ImportFrom)
		if !ok || imp.Level == 0 {
			continue
		}
		absolute := resolveRelativeToPrefix(modulePrefix, imp.Level, imp.Module)
		repl := "from " + absolute + " import " + joinImportNames(imp.Names)
		edits.Add(text.Extent{Offset: imp.Pos(), Length: imp.End() - imp.Pos()}, repl)
		changed = true
	}
	if !changed {
		return src
	}
	out, err := text.ApplyToString(edits, src)
	if err != nil {
		return src
	}
	return out
}

func resolveRelativeToPrefix(modulePrefix string, level int, module string) string {
	parts := strings.Split(modulePrefix, ".")
	if level > len(parts) {
		level = len(parts)
	}
	base := parts[:len(parts)-level]
	if module != "" {
		base = append(base, module)
	}
	return strings.Join(base, ".")
}

func joinImportNames(names []syntax.ImportName) string {
	var parts []string
	for _, n := range names {
		if n.Alias != "" && n.Alias != n.Dotted {
			parts = append(parts, n.Dotted+" as "+n.Alias)
		} else {
			parts = append(parts, n.Dotted)
		}
	}
	return strings.Join(parts, ", ")
}
