package content

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestOffsets(t *testing.T) {
	// é is 2 bytes and 1 unit, 😀 is 4 bytes and 2 units
	off := NewOffsets([]byte("aé😀b"))
	assert.Equal(t, 5, off.Len())

	tests := []struct {
		name  string
		unit  int
		bytes int
	}{
		{"start", 0, 0},
		{"after ascii", 1, 1},
		{"after accent", 2, 3},
		{"inside surrogate pair", 3, 3},
		{"after emoji", 4, 7},
		{"end", 5, 8},
		{"past end clamps", 9, 8},
		{"negative clamps", -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.bytes, off.ToBytes(tt.unit))
		})
	}

	assert.Equal(t, 0, off.ToUnits(0))
	assert.Equal(t, 2, off.ToUnits(3))
	assert.Equal(t, 2, off.ToUnits(2), "mid-rune rounds up")
	assert.Equal(t, 4, off.ToUnits(7))
	assert.Equal(t, 5, off.ToUnits(8))
	assert.Equal(t, 5, off.ToUnits(100))
}

func TestOffsetsRoundTrip(t *testing.T) {
	doc := []byte("ça ![[ünïcode|x]] 😀 end")
	off := NewOffsets(doc)
	for i := 0; i <= len(doc); {
		assert.Equal(t, i, off.ToBytes(off.ToUnits(i)))
		if i == len(doc) {
			break
		}
		_, size := utf8.DecodeRune(doc[i:])
		i += size
	}
	assert.Equal(t, Range{From: 2, To: 3}, off.ToBytesRange(Range{From: 1, To: 2}))
}
