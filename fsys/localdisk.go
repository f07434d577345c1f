// This file provides the local-disk FileSystem implementation. It is
// deliberately thin: on-disk source reading is one of the narrow,
// out-of-scope collaborators named in spec.md §1 — the real engineering is
// in the Project tree this package builds on top of it, not in the I/O
// itself.

package fsys

import (
	"os"
	"path/filepath"
	"sort"
)

// LocalDisk implements FileSystem by delegating to the os package, rooted
// at a directory on the real file system.
type LocalDisk struct {
	Root string
}

// NewLocalDisk returns a LocalDisk rooted at root.
func NewLocalDisk(root string) *LocalDisk {
	return &LocalDisk{Root: root}
}

func (d *LocalDisk) abs(p string) string {
	return filepath.Join(d.Root, filepath.FromSlash(p))
}

func (d *LocalDisk) ReadDir(dir string) ([]DirEntry, error) {
	entries, err := os.ReadDir(d.abs(dir))
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, DirEntry{Name: e.Name(), IsDir: e.IsDir()})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (d *LocalDisk) ReadFile(path string) (string, error) {
	b, err := os.ReadFile(d.abs(path))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *LocalDisk) WriteFile(path string, contents string) error {
	return os.WriteFile(d.abs(path), []byte(contents), 0644)
}

func (d *LocalDisk) Create(path string, isDir bool) error {
	abs := d.abs(path)
	if _, err := os.Stat(abs); !os.IsNotExist(err) {
		return &ResourceExistsError{path}
	}
	if isDir {
		return os.Mkdir(abs, 0755)
	}
	f, err := os.Create(abs)
	if err != nil {
		return err
	}
	return f.Close()
}

func (d *LocalDisk) Rename(path, newName string) error {
	newPath := filepath.Join(filepath.Dir(d.abs(path)), newName)
	return os.Rename(d.abs(path), newPath)
}

func (d *LocalDisk) Move(path, newParent string) error {
	newPath := filepath.Join(d.abs(newParent), filepath.Base(d.abs(path)))
	return os.Rename(d.abs(path), newPath)
}

func (d *LocalDisk) Remove(path string) error {
	return os.Remove(d.abs(path))
}
