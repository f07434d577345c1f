// This file defines the resource tree that every refactoring operates on: an
// in-memory mirror of a project's files and folders, addressed by
// slash-separated paths relative to the project root.

// Package fsys provides the resource layer: an abstract file/folder tree with
// read/write/create/move/delete and path arithmetic, plus a FileSystem
// collaborator that the tree delegates actual I/O to. Production code uses
// LocalDisk; tests and the resolver's read-only scans can substitute an
// in-memory FileSystem without touching the real disk.
package fsys

import (
	"fmt"
	"path"
	"strings"

	"github.com/godoctor/pyref/text"
)

// A Resource is a node in a Project's tree: either a File or a Folder.
type Resource interface {
	// Path returns this resource's slash-separated path, relative to the
	// project root ("" for the root folder itself).
	Path() string
	// Exists reports whether this resource is still present in the tree.
	// A Resource obtained before a RemoveResource change is committed
	// continues to report its pre-removal path, but Exists becomes false.
	Exists() bool
	// Parent returns the folder containing this resource, or nil for the
	// project root.
	Parent() *Folder
	isResource()
}

type resourceBase struct {
	project *Project
	path    string
	removed bool
}

func (r *resourceBase) Path() string { return r.path }
func (r *resourceBase) Exists() bool { return !r.removed }
func (r *resourceBase) Parent() *Folder {
	if r.path == "" {
		return nil
	}
	parentPath := path.Dir(r.path)
	if parentPath == "." {
		parentPath = ""
	}
	return r.project.folders[parentPath]
}
func (*resourceBase) isResource() {}

// A File is a Resource with textual content, read through the Project's
// FileSystem. File lazily holds the text.Buffer backing component B (the
// source buffer): Buffer is only built on first access, and every Write bumps
// its version token, which is how a committed ContentChange invalidates the
// AST and scope tree a resolver has cached for this file (spec.md §4.B).
type File struct {
	resourceBase
	buf *text.Buffer
}

// Read returns the current text of this file.
func (f *File) Read() (string, error) {
	return f.project.fs.ReadFile(f.path)
}

// Write replaces the entire contents of this file. Refactorings do not call
// Write directly; it is invoked by change.ContentChange.Do when a committed
// change set is applied.
func (f *File) Write(newText string) error {
	if err := f.project.fs.WriteFile(f.path, newText); err != nil {
		return err
	}
	if f.buf != nil {
		f.buf.Replace(newText)
	}
	return nil
}

// Buffer returns this file's text.Buffer, reading the file's current
// contents to build it on first access. The same *Buffer is returned on
// every subsequent call until the file is removed, so callers can compare
// Buffer().Version() across calls to detect whether a ContentChange has
// invalidated any derived state (a parsed AST, a scope tree) they cached
// against a previous version.
func (f *File) Buffer() (*text.Buffer, error) {
	if f.buf == nil {
		contents, err := f.Read()
		if err != nil {
			return nil, err
		}
		f.buf = text.NewBuffer(contents)
	}
	return f.buf, nil
}

// IsModule reports whether this file's path ends in the project's module
// suffix (see Config.ModuleSuffix), i.e., whether it is a source module
// rather than incidental project data.
func (f *File) IsModule() bool {
	return strings.HasSuffix(f.path, f.project.Config.ModuleSuffix)
}

// ModuleName returns the dotted module name for this file: the slash path
// with the module suffix stripped and path separators replaced by dots, with
// a trailing "__init__" segment elided (the file represents its containing
// package, not a submodule named __init__).
func (f *File) ModuleName() string {
	trimmed := strings.TrimSuffix(f.path, f.project.Config.ModuleSuffix)
	dotted := strings.ReplaceAll(trimmed, "/", ".")
	dotted = strings.TrimSuffix(dotted, ".__init__")
	if dotted == "__init__" {
		return ""
	}
	return dotted
}

// A Folder is a Resource with children, which may themselves be Files or
// Folders.
type Folder struct {
	resourceBase
	children map[string]Resource
}

// Child returns the direct child of this folder with the given bare name
// (no path separators), or nil if there is none.
func (d *Folder) Child(name string) Resource {
	return d.children[name]
}

// HasChild reports whether this folder has a direct child with the given
// bare name.
func (d *Folder) HasChild(name string) bool {
	_, ok := d.children[name]
	return ok
}

// Children returns the direct children of this folder, in no particular
// order.
func (d *Folder) Children() []Resource {
	result := make([]Resource, 0, len(d.children))
	for _, c := range d.children {
		result = append(result, c)
	}
	return result
}

// IsPackage reports whether this folder contains a module named __init__
// with the project's module suffix, making it a Package per the data model
// in spec.md §3.
func (d *Folder) IsPackage() bool {
	return d.HasChild("__init__" + d.project.Config.ModuleSuffix)
}

// ResourceNotFoundError is returned when a path does not name an existing
// resource.
type ResourceNotFoundError struct{ Path string }

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Path)
}

// ResourceExistsError is returned when a create would collide with an
// existing resource.
type ResourceExistsError struct{ Path string }

func (e *ResourceExistsError) Error() string {
	return fmt.Sprintf("resource already exists: %s", e.Path)
}

// GetResource returns the resource at the given project-relative path.
func (p *Project) GetResource(resourcePath string) (Resource, error) {
	resourcePath = cleanPath(resourcePath)
	if resourcePath == "" {
		return p.root, nil
	}
	if f, ok := p.files[resourcePath]; ok {
		return f, nil
	}
	if d, ok := p.folders[resourcePath]; ok {
		return d, nil
	}
	return nil, &ResourceNotFoundError{resourcePath}
}

// GetFile returns the File at the given path, or an error if it does not
// exist or is a Folder.
func (p *Project) GetFile(filePath string) (*File, error) {
	filePath = cleanPath(filePath)
	if f, ok := p.files[filePath]; ok {
		return f, nil
	}
	return nil, &ResourceNotFoundError{filePath}
}

// GetFolder returns the Folder at the given path, or an error if it does not
// exist or is a File.
func (p *Project) GetFolder(folderPath string) (*Folder, error) {
	folderPath = cleanPath(folderPath)
	if d, ok := p.folders[folderPath]; ok {
		return d, nil
	}
	return nil, &ResourceNotFoundError{folderPath}
}

// GetRootFolder returns the project's root folder.
func (p *Project) GetRootFolder() *Folder {
	return p.root
}

func cleanPath(p string) string {
	p = strings.Trim(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
	if p == "." {
		return ""
	}
	return p
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
