package content

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Offsets converts between byte offsets into a document and the UTF-16 code
// unit positions browser editors count in.
type Offsets struct {
	// starts[u] is the byte offset of the rune holding code unit u, with a
	// final entry for the end of the document
	starts []int
}

// NewOffsets indexes doc
func NewOffsets(doc []byte) *Offsets {
	starts := make([]int, 0, len(doc)+1)
	for i := 0; i < len(doc); {
		r, size := utf8.DecodeRune(doc[i:])
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		for ; n > 0; n-- {
			starts = append(starts, i)
		}
		i += size
	}
	starts = append(starts, len(doc))
	return &Offsets{starts: starts}
}

// Len returns the document length in UTF-16 code units
func (o *Offsets) Len() int {
	return len(o.starts) - 1
}

// ToBytes converts a code unit position to a byte offset. Positions inside a
// surrogate pair map to the start of the rune; out of range positions clamp.
func (o *Offsets) ToBytes(unit int) int {
	unit = max(0, min(unit, o.Len()))
	return o.starts[unit]
}

// ToUnits converts a byte offset to a code unit position. Offsets inside a
// multi-byte rune round up to the next rune.
func (o *Offsets) ToUnits(offset int) int {
	return min(sort.SearchInts(o.starts, offset), o.Len())
}

// ToBytesRange converts a code unit range
func (o *Offsets) ToBytesRange(r Range) Range {
	return Range{From: o.ToBytes(r.From), To: o.ToBytes(r.To)}
}
