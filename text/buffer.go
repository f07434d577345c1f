// This file defines Buffer, a module's current text together with a
// constant-time-ish offset↔(line,col) mapping and a version token. The
// version token is the cache key of resolve.Resolver's per-module parse and
// scope tree (it reruns syntax.Parse and syntax.BuildScopes only when a
// module's Buffer.Version changes), so a committed ContentChange invalidates
// exactly the cached state that depended on the old text, and nothing else.

package text

import (
	"fmt"
	"sort"
)

// A Buffer holds a module's current text as an indexable byte slice plus a
// monotonically increasing version counter bumped every time the text is
// replaced.
type Buffer struct {
	text        []byte
	version     int
	lineOffsets []int // lineOffsets[i] is the byte offset of line i+1 (1-based lines)
}

// NewBuffer returns a Buffer over the given text, at version 1.
func NewBuffer(text string) *Buffer {
	b := &Buffer{version: 1}
	b.reset(text)
	return b
}

func (b *Buffer) reset(text string) {
	b.text = []byte(text)
	b.lineOffsets = b.lineOffsets[:0]
	b.lineOffsets = append(b.lineOffsets, 0)
	for i, c := range b.text {
		if c == '\n' {
			b.lineOffsets = append(b.lineOffsets, i+1)
		}
	}
}

// Text returns the buffer's current contents.
func (b *Buffer) Text() string { return string(b.text) }

// Bytes returns the buffer's current contents without copying.
func (b *Buffer) Bytes() []byte { return b.text }

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.text) }

// Version returns the buffer's current version token. It changes only when
// Replace is called.
func (b *Buffer) Version() int { return b.version }

// Replace overwrites the buffer's contents and bumps its version, which is
// how committing a ContentChange for a module invalidates that module's
// cached AST and scope tree (component C in spec.md §4.C).
func (b *Buffer) Replace(text string) {
	b.reset(text)
	b.version++
}

// LineCol converts a 0-based byte offset into a 1-based (line, column) pair.
// It panics if offset is out of range — callers are expected to validate a
// selection before converting it, per spec.md §4.B's "caller validates"
// contract; this is never a user-facing error.
func (b *Buffer) LineCol(offset int) (line, col int) {
	if offset < 0 || offset > len(b.text) {
		panic(fmt.Sprintf("offset %d out of range [0,%d]", offset, len(b.text)))
	}
	// Binary search for the last line start <= offset.
	i := sort.Search(len(b.lineOffsets), func(i int) bool {
		return b.lineOffsets[i] > offset
	}) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - b.lineOffsets[i] + 1
}

// Offset converts a 1-based (line, column) pair into a 0-based byte offset.
// It panics if the position does not exist in the buffer.
func (b *Buffer) Offset(line, col int) int {
	if line < 1 || line > len(b.lineOffsets) {
		panic(fmt.Sprintf("line %d out of range [1,%d]", line, len(b.lineOffsets)))
	}
	offset := b.lineOffsets[line-1] + col - 1
	if offset < 0 || offset > len(b.text) {
		panic(fmt.Sprintf("line %d, col %d out of range", line, col))
	}
	return offset
}
