package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtent(t *testing.T) {
	ol := Extent{Offset: 5, Length: 20}
	assert.Equal(t, "offset 5, length 20", ol.String())
}

func TestExtentIntersect(t *testing.T) {
	ol15 := &Extent{Offset: 1, Length: 5}
	ol30 := &Extent{Offset: 3, Length: 0}
	ol33 := &Extent{Offset: 3, Length: 3}
	ol51 := &Extent{Offset: 5, Length: 1}
	ol61 := &Extent{Offset: 6, Length: 1}

	tests := []struct {
		ol1, ol2 *Extent
		expect   string
	}{
		{ol15, ol15, "offset 1, length 5"},
		{ol15, ol30, "offset 3, length 0"},
		{ol15, ol33, "offset 3, length 3"},
		{ol15, ol51, "offset 5, length 1"},
		{ol15, ol61, ""},

		{ol30, ol15, "offset 3, length 0"},
		{ol30, ol30, ""},
		{ol30, ol33, ""},
		{ol30, ol51, ""},
		{ol30, ol61, ""},

		{ol33, ol15, "offset 3, length 3"},
		{ol33, ol30, ""},
		{ol33, ol33, "offset 3, length 3"},
		{ol33, ol51, "offset 5, length 1"},
		{ol33, ol61, ""},

		{ol51, ol15, "offset 5, length 1"},
		{ol51, ol30, ""},
		{ol51, ol33, "offset 5, length 1"},
		{ol51, ol51, "offset 5, length 1"},
		{ol51, ol61, ""},

		{ol61, ol15, ""},
		{ol61, ol30, ""},
		{ol61, ol33, ""},
		{ol61, ol51, ""},
		{ol61, ol61, "offset 6, length 1"},
	}

	for _, tst := range tests {
		overlap := tst.ol1.Intersect(tst.ol2)
		if tst.expect == "" {
			assert.Nil(t, overlap, "%s ∩ %s", tst.ol1, tst.ol2)
		} else if assert.NotNil(t, overlap, "%s ∩ %s", tst.ol1, tst.ol2) {
			assert.Equal(t, tst.expect, overlap.String())
		}
	}
}
