package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeChange(t *testing.T) {
	es := NewEditSet()
	es.Add(Extent{2, 5}, "x") // replace 5 bytes with 1 (-4)
	es.Add(Extent{7, 0}, "6") // add 1 byte
	assert.EqualValues(t, -3, es.SizeChange())

	es = NewEditSet()
	hello := "こんにちは"
	es.Add(Extent{6, 5}, hello)
	assert.EqualValues(t, len(hello)-5, es.SizeChange())
}

func TestEditString(t *testing.T) {
	es := NewEditSet()
	assert.Equal(t, "", es.String())

	es.Add(Extent{5, 6}, "x")
	es.Add(Extent{1, 2}, "y")
	es.Add(Extent{3, 1}, "z")
	assert.Equal(t, `Replace offset 1, length 2 with "y"
Replace offset 3, length 1 with "z"
Replace offset 5, length 6 with "x"
`, es.String())
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		offset, length  int
		overlapExpected bool // Does this overlap Extent{3,4}?
	}{
		//                                          123456789
		// Which intervals overlap Extent{3,4}? |--|
		{2, 1, false}, // Regions starting to the left of offset 3
		{2, 2, true},
		{3, 0, false}, // Regions starting inside the interval
		{3, 1, true},
		{3, 4, true},
		{3, 6, true},
		{4, 1, true},
		{4, 3, true},
		{4, 9, true},
		{6, 0, true},
		{6, 1, true},
		{6, 7, true},
		{7, 0, false}, // Regions to the right of the interval
		{7, 3, false},
	}

	for _, tst := range tests {
		es := NewEditSet()
		es.Add(Extent{3, 4}, "x")
		edit := Extent{tst.offset, tst.length}
		err := es.Add(edit, "z")
		assert.Equal(t, tst.overlapExpected, err != nil, "edit %s", edit)
	}
}

func TestEditApply(t *testing.T) {
	input := "0123456789"

	es := NewEditSet()
	assertApplies(t, input, es, input)

	es = NewEditSet()
	es.Add(Extent{0, 0}, "AAA")
	assertApplies(t, "AAA0123456789", es, input)

	es = NewEditSet()
	es.Add(Extent{0, 2}, "AAA")
	assertApplies(t, "AAA23456789", es, input)

	es = NewEditSet()
	es.Add(Extent{3, 2}, "")
	assertApplies(t, "01256789", es, input)

	es = NewEditSet()
	es.Add(Extent{8, 3}, "")
	_, err := ApplyToString(es, input)
	assert.Error(t, err)

	es = NewEditSet()
	err = es.Add(Extent{-1, 3}, "")
	assert.Error(t, err)

	es = NewEditSet()
	es.Add(Extent{12, 3}, "")
	_, err = ApplyToString(es, input)
	assert.Error(t, err)

	es = NewEditSet()
	es.Add(Extent{2, 0}, "A")
	es.Add(Extent{8, 1}, "B")
	es.Add(Extent{4, 0}, "C")
	es.Add(Extent{6, 2}, "D")
	assertApplies(t, "01A23C45DB9", es, input)

	es = NewEditSet()
	es.Add(Extent{0, 0}, "ABC")
	assertApplies(t, "ABC", es, "")

	es = NewEditSet()
	es.Add(Extent{0, 3}, "")
	assertApplies(t, "", es, "ABC")

	es = NewEditSet()
	es.Add(Extent{0, 0}, "")
	assertApplies(t, "", es, "")
}

func assertApplies(t *testing.T, expected string, es *EditSet, input string) {
	t.Helper()
	result, err := ApplyToString(es, input)
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

// TestApplyToBufferRejectsStaleVersion exercises the version-token
// integration between EditSet and Buffer (edit.go, buffer.go): edits
// computed against one buffer version must not silently apply to a later
// one.
func TestApplyToBufferRejectsStaleVersion(t *testing.T) {
	buf := NewBuffer("0123456789")

	es := NewEditSetForVersion(buf.Version())
	es.Add(Extent{0, 1}, "X")

	buf.Replace("zzzzzzzzzz") // bumps the version out from under es

	_, err := es.ApplyToBuffer(buf)
	assert.Error(t, err)
}

func TestApplyToBufferAcceptsCurrentVersion(t *testing.T) {
	buf := NewBuffer("0123456789")

	es := NewEditSetForVersion(buf.Version())
	es.Add(Extent{0, 1}, "X")

	result, err := es.ApplyToBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, "X123456789", result)
}

// TestApplyToBufferIgnoresVersionWhenUnstamped preserves the zero-value
// EditSet's old behavior: an EditSet built with NewEditSet (baseVersion 0)
// never refuses to apply, matching every call site that predates version
// tracking.
func TestApplyToBufferIgnoresVersionWhenUnstamped(t *testing.T) {
	buf := NewBuffer("0123456789")
	buf.Replace("zzzzzzzzzz")

	es := NewEditSet()
	es.Add(Extent{0, 1}, "X")

	result, err := es.ApplyToBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, "Xzzzzzzzzz", result)
}
