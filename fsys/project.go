package fsys

import (
	"path"
	"sort"
)

// A FileSystem provides the I/O a Project delegates to: reading directories
// and files, and creating, renaming, and removing them. Production code
// supplies LocalDisk; EditedFileSystem-style collaborators used by tests can
// layer pending edits over a real directory without touching it.
type FileSystem interface {
	// ReadDir returns the bare names of the direct children of dir,
	// sorted, together with whether each is a directory.
	ReadDir(dir string) ([]DirEntry, error)
	// ReadFile returns the complete text of the file at path.
	ReadFile(path string) (string, error)
	// WriteFile replaces the complete text of the file at path.
	WriteFile(path string, contents string) error
	// Create creates an empty file or an empty folder at path, whose
	// parent folder must already exist.
	Create(path string, isDir bool) error
	// Rename changes the bare name of the resource at path, within its
	// existing parent.
	Rename(path, newName string) error
	// Move relocates the resource at path to be a child of newParent,
	// keeping its bare name.
	Move(path, newParent string) error
	// Remove deletes the file or empty folder at path.
	Remove(path string) error
}

// A DirEntry describes one child of a directory, as returned by
// FileSystem.ReadDir.
type DirEntry struct {
	Name  string
	IsDir bool
}

// A Project owns a resource tree rooted at a folder on some FileSystem, plus
// the distinguished metadata folder used for cached databases (see
// sidecar.DB). A Project is created once per open workspace and torn down by
// an explicit Close.
type Project struct {
	fs       FileSystem
	root     *Folder
	files    map[string]*File
	folders  map[string]*Folder
	Config   Config
	metaPath string
}

// Open builds a Project by walking every directory from the root of the
// given FileSystem, applying Config's ignore patterns. The metadata folder
// (Config.MetadataFolder) is skipped by the walk; MetadataFolder adds it to
// the tree on first use.
func Open(fs FileSystem, cfg Config) (*Project, error) {
	cfg = cfg.withDefaults()
	p := &Project{
		fs:      fs,
		files:   map[string]*File{},
		folders: map[string]*Folder{},
		Config:  cfg,
	}
	p.root = &Folder{
		resourceBase: resourceBase{project: p, path: ""},
		children:     map[string]Resource{},
	}
	p.folders[""] = p.root
	p.metaPath = cfg.MetadataFolder

	if err := p.walk(""); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) walk(dirPath string) error {
	entries, err := p.fs.ReadDir(dirPath)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	parent := p.folders[dirPath]
	for _, entry := range entries {
		childPath := joinPath(dirPath, entry.Name)
		if p.Config.isIgnored(childPath, entry.Name) {
			continue
		}
		if entry.IsDir {
			d := &Folder{
				resourceBase: resourceBase{project: p, path: childPath},
				children:     map[string]Resource{},
			}
			p.folders[childPath] = d
			parent.children[entry.Name] = d
			if err := p.walk(childPath); err != nil {
				return err
			}
		} else {
			f := &File{resourceBase{project: p, path: childPath}}
			p.files[childPath] = f
			parent.children[entry.Name] = f
		}
	}
	return nil
}

// MetadataFolder returns (creating on first use, lazily) the project's
// distinguished metadata folder, used to store the type-observation sidecar.
func (p *Project) MetadataFolder() (*Folder, error) {
	if d, ok := p.folders[p.metaPath]; ok {
		return d, nil
	}
	if _, err := p.fs.ReadDir(p.metaPath); err != nil {
		if err := p.fs.Create(p.metaPath, true); err != nil {
			return nil, err
		}
	}
	d := &Folder{
		resourceBase: resourceBase{project: p, path: p.metaPath},
		children:     map[string]Resource{},
	}
	p.folders[p.metaPath] = d
	p.root.children[p.metaPath] = d
	return d, nil
}

// AllModules returns every File whose path makes it a module (per
// Config.ModuleSuffix), sorted by path so callers get a stable iteration
// order without re-sorting.
func (p *Project) AllModules() []*File {
	result := make([]*File, 0, len(p.files))
	for _, f := range p.files {
		if f.IsModule() {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].path < result[j].path })
	return result
}

// Close releases resources held by the underlying FileSystem, if any. The
// default LocalDisk implementation holds no resources; Close exists so a
// Project obtained from a pooled or cached FileSystem has somewhere to
// release them.
func (p *Project) Close() error {
	return nil
}

// Create creates a new File or Folder in the tree, used by
// change.CreateResource.Do.
func (p *Project) Create(resourcePath string, isDir bool) (Resource, error) {
	resourcePath = cleanPath(resourcePath)
	if _, ok := p.files[resourcePath]; ok {
		return nil, &ResourceExistsError{resourcePath}
	}
	if _, ok := p.folders[resourcePath]; ok {
		return nil, &ResourceExistsError{resourcePath}
	}
	if err := p.fs.Create(resourcePath, isDir); err != nil {
		return nil, err
	}
	parentPath := path.Dir(resourcePath)
	if parentPath == "." {
		parentPath = ""
	}
	parent, ok := p.folders[parentPath]
	if !ok {
		return nil, &ResourceNotFoundError{parentPath}
	}
	name := path.Base(resourcePath)
	var r Resource
	if isDir {
		d := &Folder{resourceBase{project: p, path: resourcePath}, map[string]Resource{}}
		p.folders[resourcePath] = d
		r = d
	} else {
		f := &File{resourceBase{project: p, path: resourcePath}}
		p.files[resourcePath] = f
		r = f
	}
	parent.children[name] = r
	return r, nil
}

// Remove deletes a resource from the tree, used by
// change.RemoveResource.Do.
func (p *Project) Remove(resourcePath string) error {
	resourcePath = cleanPath(resourcePath)
	if err := p.fs.Remove(resourcePath); err != nil {
		return err
	}
	parentPath := path.Dir(resourcePath)
	if parentPath == "." {
		parentPath = ""
	}
	if parent, ok := p.folders[parentPath]; ok {
		delete(parent.children, path.Base(resourcePath))
	}
	if f, ok := p.files[resourcePath]; ok {
		f.removed = true
		delete(p.files, resourcePath)
		return nil
	}
	if d, ok := p.folders[resourcePath]; ok {
		d.removed = true
		delete(p.folders, resourcePath)
		return nil
	}
	return &ResourceNotFoundError{resourcePath}
}

// Move moves a resource to a new parent folder, keeping its bare
// name. Used by change.MoveResource.Do.
func (p *Project) Move(fromPath, toParentPath string) (newPath string, err error) {
	fromPath = cleanPath(fromPath)
	toParentPath = cleanPath(toParentPath)
	name := path.Base(fromPath)
	newPath = joinPath(toParentPath, name)

	if _, ok := p.files[newPath]; ok {
		return "", &ResourceExistsError{newPath}
	}
	if _, ok := p.folders[newPath]; ok {
		return "", &ResourceExistsError{newPath}
	}

	oldParentPath := path.Dir(fromPath)
	if oldParentPath == "." {
		oldParentPath = ""
	}
	oldParent, ok := p.folders[oldParentPath]
	if !ok {
		return "", &ResourceNotFoundError{oldParentPath}
	}
	newParent, ok := p.folders[toParentPath]
	if !ok {
		return "", &ResourceNotFoundError{toParentPath}
	}

	if oldParentPath != toParentPath {
		if err := p.fs.Move(fromPath, toParentPath); err != nil {
			return "", err
		}
	}

	if f, ok := p.files[fromPath]; ok {
		delete(p.files, fromPath)
		delete(oldParent.children, name)
		f.path = newPath
		p.files[newPath] = f
		newParent.children[name] = f
		return newPath, nil
	}
	if d, ok := p.folders[fromPath]; ok {
		delete(p.folders, fromPath)
		delete(oldParent.children, name)
		p.reparent(d, newPath)
		p.folders[newPath] = d
		newParent.children[name] = d
		return newPath, nil
	}
	return "", &ResourceNotFoundError{fromPath}
}

// reparent rewrites the path of d and every descendant after a move,
// keeping the files/folders maps and the tree in sync.
func (p *Project) reparent(d *Folder, newPath string) {
	oldPath := d.path
	d.path = newPath
	for name, child := range d.children {
		childNewPath := joinPath(newPath, name)
		switch c := child.(type) {
		case *File:
			delete(p.files, c.path)
			c.path = childNewPath
			p.files[childNewPath] = c
		case *Folder:
			delete(p.folders, c.path)
			p.reparent(c, childNewPath)
			p.folders[childNewPath] = c
		}
	}
	_ = oldPath
}
