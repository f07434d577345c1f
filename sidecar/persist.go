// This file implements the versioned binary format spec.md §9 demands for
// the type-observation sidecar: a 4-byte magic, a 1-byte format version,
// then length-prefixed records. It is a neutral, from-scratch format rather
// than a reuse of any host language's native serialization, per spec.md §9's
// explicit design note, and it is intentionally narrow — no general
// serialization library in the example pack models "an opaque, versioned,
// forwards-discardable cache," so this stays hand-rolled on
// encoding/binary (see DESIGN.md).
package sidecar

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/godoctor/pyref/fsys"
)

var magic = [4]byte{'P', 'R', 'D', 'B'}

// FormatVersion is the current on-disk format version. A Load that reads a
// different version discards its contents and starts a fresh DB, per
// spec.md §4.H.
const FormatVersion = 1

// ObjectDBFile is the file name, relative to a project's metadata folder,
// that Save/Load use (spec.md §6: "objectdb.<fmt>").
const ObjectDBFile = "objectdb.bin"

// ErrVersionMismatch is returned by Load, unwrapped, when the file's format
// version byte does not match FormatVersion.
type ErrVersionMismatch struct{ Found byte }

func (e *ErrVersionMismatch) Error() string {
	return fmt.Sprintf("sidecar format version %d unsupported (expected %d)", e.Found, FormatVersion)
}

// Save serializes db to w in the PRDB format.
func Save(db *DB, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	if err := bw.WriteByte(FormatVersion); err != nil {
		return err
	}
	if err := writeUvarint(bw, uint64(len(db.modules))); err != nil {
		return err
	}
	for module, scopes := range db.modules {
		if err := writeString(bw, module); err != nil {
			return err
		}
		if err := writeUvarint(bw, uint64(len(scopes))); err != nil {
			return err
		}
		for key, info := range scopes {
			if err := writeString(bw, string(key)); err != nil {
				return err
			}
			if err := writeStringSliceMap(bw, info.ObservedValues); err != nil {
				return err
			}
			if err := writeStringSliceMap(bw, info.CallInfo); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Load deserializes a DB from r. A version mismatch returns a fresh, empty
// DB and an *ErrVersionMismatch (not a fatal error) — callers should treat it
// as "rebuild," per spec.md §4.H.
func Load(r io.Reader) (*DB, error) {
	br := bufio.NewReader(r)
	var gotMagic [4]byte
	if _, err := io.ReadFull(br, gotMagic[:]); err != nil {
		return nil, err
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("not a sidecar database file")
	}
	version, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return NewDB(), &ErrVersionMismatch{Found: version}
	}

	db := NewDB()
	numModules, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < numModules; i++ {
		module, err := readString(br)
		if err != nil {
			return nil, err
		}
		numScopes, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, err
		}
		scopes := make(map[ScopeKey]*ScopeInfo, numScopes)
		for j := uint64(0); j < numScopes; j++ {
			key, err := readString(br)
			if err != nil {
				return nil, err
			}
			observed, err := readStringSliceMap(br)
			if err != nil {
				return nil, err
			}
			calls, err := readStringSliceMap(br)
			if err != nil {
				return nil, err
			}
			scopes[ScopeKey(key)] = &ScopeInfo{ObservedValues: observed, CallInfo: calls}
		}
		db.modules[module] = scopes
	}
	return db, nil
}

// SaveToProject writes db to <project-root>/<metadata-folder>/objectdb.bin,
// the persisted-state layout spec.md §6 names. It only touches disk when
// db.Dirty(); callers normally invoke this on an explicit "sync" request
// (spec.md §4.H), not on every mutation.
func SaveToProject(db *DB, p *fsys.Project) error {
	if !db.Dirty() {
		return nil
	}
	dir, err := p.MetadataFolder()
	if err != nil {
		return err
	}
	path := dir.Path() + "/" + ObjectDBFile
	f, err := p.GetFile(path)
	if err != nil {
		if _, cerr := p.Create(path, false); cerr != nil {
			return cerr
		}
		f, err = p.GetFile(path)
		if err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := Save(db, &buf); err != nil {
		return err
	}
	if err := f.Write(buf.String()); err != nil {
		return err
	}
	db.dirty = false
	return nil
}

// LoadFromProject reads the sidecar database from a project's metadata
// folder, if present. A missing file is not an error: it returns a fresh,
// empty DB, matching "loaded lazily on open" (spec.md §4.H) for a project
// that has never synced before.
func LoadFromProject(p *fsys.Project) (*DB, error) {
	dir, err := p.MetadataFolder()
	if err != nil {
		return nil, err
	}
	path := dir.Path() + "/" + ObjectDBFile
	f, err := p.GetFile(path)
	if err != nil {
		return NewDB(), nil
	}
	contents, err := f.Read()
	if err != nil {
		return nil, err
	}
	db, err := Load(strings.NewReader(contents))
	if _, mismatch := err.(*ErrVersionMismatch); mismatch {
		return NewDB(), nil
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

func writeUvarint(w io.ByteWriter, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	for _, b := range buf[:n] {
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w *bufio.Writer, s string) error {
	if err := writeUvarint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func readString(r *bufio.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeStringSliceMap(w *bufio.Writer, m map[string][]string) error {
	if err := writeUvarint(w, uint64(len(m))); err != nil {
		return err
	}
	for k, values := range m {
		if err := writeString(w, k); err != nil {
			return err
		}
		if err := writeUvarint(w, uint64(len(values))); err != nil {
			return err
		}
		for _, v := range values {
			if err := writeString(w, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func readStringSliceMap(r *bufio.Reader) (map[string][]string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	m := make(map[string][]string, n)
	for i := uint64(0); i < n; i++ {
		k, err := readString(r)
		if err != nil {
			return nil, err
		}
		numValues, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		values := make([]string, numValues)
		for j := uint64(0); j < numValues; j++ {
			v, err := readString(r)
			if err != nil {
				return nil, err
			}
			values[j] = v
		}
		m[k] = values
	}
	return m, nil
}
