// This file defines a refactoring to rename classes, functions, methods, and
// local/global variables (identifiers only; module files are not renamed),
// grounded on refactoring/rename.go's
// shape (Description/Run/identifier validation), re-targeted from
// names.SearchEngine+go/ast to resolve.Resolver+syntax.
package refactoring

import (
	"regexp"
	"strings"

	"github.com/godoctor/pyref/resolve"
	"github.com/godoctor/pyref/text"
)

// A Rename refactoring changes the spelling of every occurrence of an
// identifier, as determined by resolve.Resolver.OccurrencesOf.
type Rename struct {
	Base
	newName string
}

func (r *Rename) Description() *Description {
	return &Description{
		Name: "Rename",
		Params: []Parameter{{
			Label:        "New Name:",
			Prompt:       "What to rename this identifier to.",
			DefaultValue: "",
		}},
	}
}

var identifierPattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

var pythonLikeKeywords = map[string]bool{
	"and": true, "as": true, "assert": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "false": true, "finally": true, "for": true, "from": true,
	"global": true, "if": true, "import": true, "in": true, "is": true,
	"lambda": true, "none": true, "nonlocal": true, "not": true, "or": true,
	"pass": true, "raise": true, "return": true, "true": true, "try": true,
	"while": true, "with": true, "yield": true,
}

func isValidIdentifier(name string) bool {
	if !identifierPattern.MatchString(name) {
		return false
	}
	return !pythonLikeKeywords[strings.ToLower(name)]
}

// Run resolves the selection, validates the new name, finds every
// occurrence of the selected binding project-wide via OccurrencesOf, and
// emits one ContentChange per affected module.
func (r *Rename) Run(config *Config) *Result {
	r.Base.Run(config)
	if r.Log.ContainsErrors() {
		return &r.Result
	}
	if !validateArgs(config, r.Description(), r.Log) {
		return &r.Result
	}

	r.newName = config.Args[0].(string)
	if r.newName == "" {
		r.fail("The new name cannot be empty")
		return &r.Result
	}
	if !isValidIdentifier(r.newName) {
		r.fail("%q is not a valid identifier", r.newName)
		return &r.Result
	}

	name, ok := selectedName(r.selectedNode)
	if !ok {
		r.fail("Please select an identifier to rename")
		return &r.Result
	}
	if name == r.newName {
		r.fail("The selected identifier is already named %q", r.newName)
		return &r.Result
	}

	occs, err := config.Resolver.OccurrencesOf(config.context(), r.modulePath, r.selStart)
	if err != nil {
		r.fail("%s", err)
		return &r.Result
	}
	if len(occs) == 0 {
		r.fail("Please select an identifier to rename")
		return &r.Result
	}

	if err := r.checkCollision(occs); err != nil {
		r.fail("%s", err)
		return &r.Result
	}

	edits := make(map[string]*text.EditSet)
	for _, occ := range occs {
		if edits[occ.ModulePath] == nil {
			es, err := r.newEditSetFor(occ.ModulePath)
			if err != nil {
				r.fail("%s", err)
				return &r.Result
			}
			edits[occ.ModulePath] = es
		}
		edits[occ.ModulePath].Add(text.Extent{Offset: occ.Offset, Length: occ.Length}, r.newName)
	}
	for path, es := range edits {
		if err := r.addContentChange(path, es); err != nil {
			r.fail("%s", err)
			return &r.Result
		}
	}
	return &r.Result
}

// checkCollision reports whether newName already has a binding directly
// visible in any scope that encloses one of the occs in the selected module,
// which would make the rename shadow or clash with an existing name. Occs in
// other modules are not checked.
func (r *Rename) checkCollision(occs []resolve.Occurrence) error {
	for _, occ := range occs {
		if occ.ModulePath != r.modulePath {
			continue
		}
		n := nodeAt(r.mod, occ.Offset)
		scope := r.scopes.Enclosing[n]
		for s := scope; s != nil; s = s.Parent {
			if _, ok := s.Bindings[r.newName]; ok {
				return &RefactoringError{Message: "newName already exists in the enclosing scope"}
			}
		}
	}
	return nil
}
