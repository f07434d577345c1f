// This file defines the Change interface and the reversible edit variants
// every refactoring emits. A refactoring never mutates the project directly;
// it builds a ChangeSet (a tree of Changes) and hands it to undo.Manager,
// which is the only thing that ever calls Do.

// Package change defines reversible, inert descriptions of project edits:
// content changes and resource creation/move/removal, composed into ordered
// change sets. Every change captures its own inverse at Do time, so undo is
// deterministic even if the project is touched again before a redo.
package change

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/godoctor/pyref/fsys"
	"github.com/godoctor/pyref/text"
)

// A Change is a single reversible edit. Do applies the change to the given
// project; Undo reverses it. ChangeFailedError is returned (never panicked)
// when Do or Undo cannot complete; see ChangeSet for how a partial failure
// is unwound.
type Change interface {
	Do(p *fsys.Project) error
	Undo(p *fsys.Project) error
	String() string
}

// A ChangeFailedError wraps the underlying I/O or resource error that
// caused a Change's Do or Undo to fail.
type ChangeFailedError struct {
	Change Change
	Err    error
}

func (e *ChangeFailedError) Error() string {
	return fmt.Sprintf("change failed (%s): %s", e.Change.String(), e.Err)
}
func (e *ChangeFailedError) Unwrap() error { return e.Err }

// A ContentChange replaces the entire text of a file. Its inverse captures
// the file's previous contents at Do time, not when the ContentChange is
// constructed, so that a ContentChange built against a stale snapshot still
// undoes correctly as long as Do is only ever invoked once against the
// project it was planned against.
type ContentChange struct {
	FilePath string
	NewText  string

	oldText string
	applied bool
}

// NewContentChange returns a Change that replaces the complete text of the
// file at filePath with newText.
func NewContentChange(filePath, newText string) *ContentChange {
	return &ContentChange{FilePath: filePath, NewText: newText}
}

func (c *ContentChange) Do(p *fsys.Project) error {
	f, err := p.GetFile(c.FilePath)
	if err != nil {
		return &ChangeFailedError{c, err}
	}
	old, err := f.Read()
	if err != nil {
		return &ChangeFailedError{c, err}
	}
	if err := f.Write(c.NewText); err != nil {
		return &ChangeFailedError{c, err}
	}
	c.oldText = old
	c.applied = true
	return nil
}

func (c *ContentChange) Undo(p *fsys.Project) error {
	if !c.applied {
		return &ChangeFailedError{c, fmt.Errorf("content change was never applied")}
	}
	f, err := p.GetFile(c.FilePath)
	if err != nil {
		return &ChangeFailedError{c, err}
	}
	if err := f.Write(c.oldText); err != nil {
		return &ChangeFailedError{c, err}
	}
	c.applied = false
	return nil
}

func (c *ContentChange) String() string {
	return fmt.Sprintf("replace contents of %s", c.FilePath)
}

// NewContentChangeFromBuffer is a convenience constructor: it applies edits
// to buf's current text and returns the resulting ContentChange. This is how
// refactoring orchestrators normally build a ContentChange — they accumulate
// a text.EditSet while walking the AST and convert it to a single whole-file
// replacement at the end, matching spec.md §3's "ContentChange(file,
// new-text)" shape. Routing through buf (rather than a plain string) lets
// edits built with text.NewEditSetForVersion catch the case where the
// module's buffer moved to a new version between when the edits were
// computed and when they are applied here.
func NewContentChangeFromBuffer(path string, buf *text.Buffer, edits *text.EditSet) (*ContentChange, error) {
	newText, err := edits.ApplyToBuffer(buf)
	if err != nil {
		return nil, err
	}
	return NewContentChange(path, newText), nil
}

// A CreateResource creates a new, empty file or folder. Its inverse removes
// it.
type CreateResource struct {
	ResourcePath string
	IsFolder     bool
}

func NewCreateFile(path string) *CreateResource   { return &CreateResource{path, false} }
func NewCreateFolder(path string) *CreateResource { return &CreateResource{path, true} }

func (c *CreateResource) Do(p *fsys.Project) error {
	if _, err := p.Create(c.ResourcePath, c.IsFolder); err != nil {
		return &ChangeFailedError{c, err}
	}
	return nil
}

func (c *CreateResource) Undo(p *fsys.Project) error {
	if err := p.Remove(c.ResourcePath); err != nil {
		return &ChangeFailedError{c, err}
	}
	return nil
}

func (c *CreateResource) String() string {
	kind := "file"
	if c.IsFolder {
		kind = "folder"
	}
	return fmt.Sprintf("create %s %s", kind, c.ResourcePath)
}

// A RemoveResource deletes a file or empty folder. Its inverse captures the
// resource's content (for a file) before removal and recreates it.
type RemoveResource struct {
	ResourcePath string

	wasFolder  bool
	oldContent string
	captured   bool
}

func NewRemoveResource(path string) *RemoveResource {
	return &RemoveResource{ResourcePath: path}
}

func (c *RemoveResource) Do(p *fsys.Project) error {
	r, err := p.GetResource(c.ResourcePath)
	if err != nil {
		return &ChangeFailedError{c, err}
	}
	if f, ok := r.(*fsys.File); ok {
		text, err := f.Read()
		if err != nil {
			return &ChangeFailedError{c, err}
		}
		c.oldContent = text
		c.wasFolder = false
	} else {
		c.wasFolder = true
	}
	c.captured = true
	if err := p.Remove(c.ResourcePath); err != nil {
		return &ChangeFailedError{c, err}
	}
	return nil
}

func (c *RemoveResource) Undo(p *fsys.Project) error {
	if !c.captured {
		return &ChangeFailedError{c, fmt.Errorf("removal was never applied")}
	}
	r, err := p.Create(c.ResourcePath, c.wasFolder)
	if err != nil {
		return &ChangeFailedError{c, err}
	}
	if !c.wasFolder {
		if err := r.(*fsys.File).Write(c.oldContent); err != nil {
			return &ChangeFailedError{c, err}
		}
	}
	return nil
}

func (c *RemoveResource) String() string {
	return fmt.Sprintf("remove %s", c.ResourcePath)
}

// A MoveResource relocates a resource to a new parent folder, keeping its
// bare name. Its inverse moves it back.
type MoveResource struct {
	FromPath     string
	ToParentPath string

	originalParent string
	moved          bool
}

func NewMoveResource(fromPath, toParentPath string) *MoveResource {
	return &MoveResource{FromPath: fromPath, ToParentPath: toParentPath}
}

func (c *MoveResource) Do(p *fsys.Project) error {
	r, err := p.GetResource(c.FromPath)
	if err != nil {
		return &ChangeFailedError{c, err}
	}
	if parent := r.Parent(); parent != nil {
		c.originalParent = parent.Path()
	}
	if _, err := p.Move(c.FromPath, c.ToParentPath); err != nil {
		return &ChangeFailedError{c, err}
	}
	c.moved = true
	return nil
}

func (c *MoveResource) Undo(p *fsys.Project) error {
	if !c.moved {
		return &ChangeFailedError{c, fmt.Errorf("move was never applied")}
	}
	name := baseName(c.FromPath)
	currentPath := joinIfNeeded(c.ToParentPath, name)
	if _, err := p.Move(currentPath, c.originalParent); err != nil {
		return &ChangeFailedError{c, err}
	}
	return nil
}

func (c *MoveResource) String() string {
	return fmt.Sprintf("move %s to %s", c.FromPath, c.ToParentPath)
}

// A Set is an ordered composition of Changes, treated as a single unit by
// undo.Manager. Do executes children in order; if one fails partway, the
// already-applied prefix is unwound (via Undo, in reverse order) before the
// error is returned, so a failing Set leaves the project byte-identical to
// its pre-call state (spec.md §8).
type Set struct {
	ID       uuid.UUID
	Label    string
	Children []Change
}

// NewSet returns an empty, labeled change set. Orchestrators append to
// Children as they plan a refactoring; the ID is left as the zero UUID until
// undo.Manager.Add stamps a fresh one at commit time.
func NewSet(label string) *Set {
	return &Set{Label: label}
}

// Add appends a child change to this set.
func (s *Set) Add(c Change) {
	s.Children = append(s.Children, c)
}

// Empty reports whether this set has no children, i.e., whether committing
// it would be a no-op.
func (s *Set) Empty() bool {
	return len(s.Children) == 0
}

func (s *Set) Do(p *fsys.Project) error {
	applied := make([]Change, 0, len(s.Children))
	for _, c := range s.Children {
		if err := c.Do(p); err != nil {
			unwind(p, applied)
			return err
		}
		applied = append(applied, c)
	}
	return nil
}

func (s *Set) Undo(p *fsys.Project) error {
	for i := len(s.Children) - 1; i >= 0; i-- {
		if err := s.Children[i].Undo(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set) String() string {
	return s.Label
}

// unwind reverses already-applied changes in reverse order, best-effort,
// when a ChangeSet fails partway through Do.
func unwind(p *fsys.Project, applied []Change) {
	for i := len(applied) - 1; i >= 0; i-- {
		_ = applied[i].Undo(p)
	}
}

func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

func joinIfNeeded(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
