// This file defines types representing a selection in a text editor, i.e., a
// range of text within a particular module, used as the starting input to
// every refactoring (spec.md §6: "a text selection").

package text

import (
	"fmt"
)

// A Selection identifies a range of text within a particular file. It is
// resolved against that file's Buffer to produce a byte offset range.
type Selection interface {
	// Convert returns the 0-based [start, end) byte offsets this
	// selection denotes in buf, or an error if the selection is out of
	// range.
	Convert(buf *Buffer) (start, end int, err error)
	// Filename returns the path of the file this selection is within.
	Filename() string
	String() string
}

// A LineColSelection specifies a selection by 1-based start/end line and
// column, the way a text editor reports a cursor selection.
type LineColSelection struct {
	File                                  string
	StartLine, StartCol, EndLine, EndCol int
}

func (s *LineColSelection) Convert(buf *Buffer) (start, end int, err error) {
	start, err = safeOffset(buf, s.StartLine, s.StartCol)
	if err != nil {
		return 0, 0, err
	}
	end, err = safeOffset(buf, s.EndLine, s.EndCol)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("selection end precedes its start")
	}
	return start, end, nil
}

func (s *LineColSelection) Filename() string { return s.File }

func (s *LineColSelection) String() string {
	return fmt.Sprintf("%s: %d,%d:%d,%d", s.File, s.StartLine, s.StartCol, s.EndLine, s.EndCol)
}

func safeOffset(buf *Buffer, line, col int) (offset int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid position %d,%d: %v", line, col, r)
		}
	}()
	return buf.Offset(line, col), nil
}

// An OffsetLengthSelection specifies a selection by a 0-based byte offset
// and a nonnegative length.
type OffsetLengthSelection struct {
	File   string
	Offset int
	Length int
}

func (s *OffsetLengthSelection) Convert(buf *Buffer) (start, end int, err error) {
	if s.Offset < 0 || s.Offset+s.Length > buf.Len() {
		return 0, 0, fmt.Errorf("selection %d,%d out of range for a %d-byte file",
			s.Offset, s.Length, buf.Len())
	}
	return s.Offset, s.Offset + s.Length, nil
}

func (s *OffsetLengthSelection) Filename() string { return s.File }

func (s *OffsetLengthSelection) String() string {
	return fmt.Sprintf("%s: %d,%d", s.File, s.Offset, s.Length)
}
