// This file defines Patch, a read-only EditSet-shaped view of an EditSet
// rendered as a unified diff, and the createPatch algorithm that builds one.
// Grouping edits into hunks follows the POSIX unified-diff convention:
// edits separated by fewer than 2*numCtxLines unchanged lines share a hunk.

package text

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Number of leading/trailing context lines in a unified diff hunk.
const numCtxLines = 3

// A Patch is a unified diff built from an EditSet. Use EditSet.CreatePatch
// to build one, then Write to render it.
type Patch struct {
	hunks []*hunk
}

func (p *Patch) add(h *hunk) { p.hunks = append(p.hunks, h) }

// String renders this patch as a unified diff.
func (p *Patch) String() string {
	var buf bytes.Buffer
	_ = p.Write(&buf)
	return buf.String()
}

// Write renders this patch as a unified diff to out.
func (p *Patch) Write(out io.Writer) error {
	w := bufio.NewWriter(out)
	defer w.Flush()
	lineOffset := 0
	for _, h := range p.hunks {
		adjust, err := writeHunk(h, lineOffset, w)
		if err != nil {
			return err
		}
		lineOffset += adjust
	}
	return nil
}

type hunk struct {
	startOffset int
	startLine   int
	text        bytes.Buffer // the original bytes spanned by this hunk
	edits       []edit       // edits relative to startOffset
}

func (h *hunk) addLine(line string) { h.text.WriteString(line) }

func (h *hunk) addEdit(e *edit) {
	h.edits = append(h.edits, e.RelativeToOffset(h.startOffset))
}

type lineReader struct {
	r               *bufio.Reader
	line            string
	lineOffset      int
	lineNum         int
	leadingCtxLines []string
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) readLine() error {
	if l.lineNum > 0 {
		if len(l.leadingCtxLines) == numCtxLines {
			l.leadingCtxLines = l.leadingCtxLines[1:]
		}
		l.leadingCtxLines = append(l.leadingCtxLines, l.line)
	}
	l.lineOffset += len(l.line)
	l.lineNum++
	var err error
	l.line, err = l.r.ReadString('\n')
	return err
}

func (l *lineReader) offsetPastEnd() int { return l.lineOffset + len(l.line) }

func (l *lineReader) affectedBy(e *edit) bool {
	if e == nil {
		return false
	}
	return e.Offset < l.offsetPastEnd() && e.OffsetPastEnd() >= l.lineOffset
}

func startHunk(l *lineReader) *hunk {
	h := &hunk{startOffset: l.lineOffset, startLine: l.lineNum}
	for _, line := range l.leadingCtxLines {
		h.startOffset -= len(line)
		h.startLine--
		h.text.WriteString(line)
	}
	h.text.WriteString(l.line)
	return h
}

type editCursor struct {
	edits []edit
	next  int
}

func (c *editCursor) current() *edit {
	if c.next >= len(c.edits) {
		return nil
	}
	return &c.edits[c.next]
}
func (c *editCursor) advance() { c.next++ }

// createPatch groups e's edits into hunks by reading the original text of
// the file from in, one line at a time, and recording which lines each edit
// touches.
func createPatch(e *EditSet, in io.Reader) (*Patch, error) {
	result := &Patch{}
	if len(e.edits) == 0 {
		return result, nil
	}

	const (
		notStarted = iota
		inHunk
		editAdded
	)

	r := newLineReader(in)
	cursor := &editCursor{edits: e.edits}
	state := notStarted
	var h *hunk
	trailingCtxLines := 0

	var err error
	for err = r.readLine(); err == nil; err = r.readLine() {
		switch state {
		case notStarted:
			if r.affectedBy(cursor.current()) {
				h = startHunk(r)
				state = inHunk
			}
		case inHunk:
			h.addLine(r.line)
			if r.affectedBy(cursor.current()) {
				state = inHunk
			} else {
				h.addEdit(cursor.current())
				trailingCtxLines = 1
				cursor.advance()
				state = editAdded
			}
		case editAdded:
			h.addLine(r.line)
			if r.affectedBy(cursor.current()) {
				state = inHunk
			} else {
				trailingCtxLines++
				if trailingCtxLines >= 2*numCtxLines {
					result.add(h)
					h = nil
					state = notStarted
				}
			}
		}
	}
	if state == inHunk || state == editAdded {
		if r.line != "" {
			h.addLine(r.line)
		}
		if state == inHunk {
			h.addEdit(cursor.current())
		}
		result.add(h)
	}
	if err == io.EOF {
		err = nil
	}
	return result, err
}

// writeHunk renders a single hunk in unified diff format, returning the
// adjustment to apply to subsequent hunks' reported line numbers.
func writeHunk(h *hunk, outputLineOffset int, out io.Writer) (int, error) {
	hunkSet := &EditSet{edits: h.edits}
	var newText bytes.Buffer
	if err := hunkSet.ApplyTo(bytes.NewReader(h.text.Bytes()), &newText); err != nil {
		return 0, err
	}

	leading, deletions, additions, trailing := findContext(h.text.Bytes(), newText.Bytes())

	var body bytes.Buffer
	var origLines, newLines int

	n, err := writePrefixed(&body, " ", leading, -1)
	if err != nil {
		return newLines - origLines, err
	}
	origLines += n
	newLines += n

	n, err = writePrefixed(&body, "-", deletions, -1)
	if err != nil {
		return newLines - origLines, err
	}
	origLines += n

	n, err = writePrefixed(&body, "+", additions, -1)
	if err != nil {
		return newLines - origLines, err
	}
	newLines += n

	n, err = writePrefixed(&body, " ", trailing, numCtxLines)
	if err != nil {
		return newLines - origLines, err
	}
	origLines += n
	newLines += n

	_, err = fmt.Fprintf(out, "@@ -%d,%d +%d,%d @@\n%s",
		h.startLine, origLines, h.startLine+outputLineOffset, newLines, body.String())
	return newLines - origLines, err
}

func writePrefixed(out io.Writer, prefix string, str []byte, maxLines int) (int, error) {
	r := newLineReader(bytes.NewReader(str))
	lines := 0
	err := r.readLine()
	for {
		if err == nil {
			fmt.Fprintf(out, "%s%s", prefix, r.line)
			lines++
			if lines == maxLines {
				return lines, nil
			}
			err = r.readLine()
		} else if err == io.EOF {
			if r.line != "" {
				fmt.Fprintf(out, "%s%s", prefix, r.line)
				lines++
			}
			return lines, nil
		} else {
			return lines, err
		}
	}
}

// findContext splits two byte slices (the original hunk text and the result
// of applying its edits) into leading context, deletions, additions, and
// trailing context, assuming at most numCtxLines lines of leading context
// and at most 2*numCtxLines+1 lines of trailing context (guaranteed by how
// createPatch groups edits into hunks).
func findContext(a, b []byte) (leading, deletions, additions, trailing []byte) {
	endLeading := 0
	leadingLines := 0
	for {
		next := matchLineForward(a, b, endLeading)
		if next <= endLeading || leadingLines >= numCtxLines {
			break
		}
		endLeading = next
		leadingLines++
	}

	startTrailing := 0
	trailingLines := 0
	for {
		next := matchLineBackward(a[endLeading:], b[endLeading:], startTrailing)
		if next <= startTrailing || trailingLines >= 2*numCtxLines+1 {
			break
		}
		startTrailing = next
		trailingLines++
	}
	endDeletionsA := len(a) - startTrailing
	endAdditionsB := len(b) - startTrailing

	return a[:endLeading], a[endLeading:endDeletionsA], b[endLeading:endAdditionsB], a[endDeletionsA:]
}

func matchLineForward(a, b []byte, from int) int {
	i := from
	for {
		if i == len(a) || i == len(b) {
			return i
		}
		if a[i] != b[i] {
			return from
		}
		if a[i] == '\n' {
			return i + 1
		}
		i++
	}
}

func matchLineBackward(a, b []byte, from int) int {
	ai, bi := len(a)-from-1, len(b)-from-1
	for {
		if ai < 0 || bi < 0 || a[ai] != b[bi] {
			return from
		}
		if a[ai] == '\n' && ai < len(a)-from-1 {
			return len(a) - ai - 1
		}
		if ai == 0 && bi == 0 {
			return len(a)
		}
		ai--
		bi--
	}
}
