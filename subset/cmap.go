package subset

import (
	"fmt"
	"maps"
	"slices"

	"github.com/npillmayer/otsubset/ot"
)

// cmapSegment maps the code points first…last to glyphs with a constant
// delta.
type cmapSegment struct {
	first, last rune
	glyph       ot.GlyphIndex // glyph of first
}

// segments groups code points into runs of consecutive code points mapped
// to consecutive glyphs.
func segments(runes []rune, glyph func(rune) ot.GlyphIndex) []cmapSegment {
	var segs []cmapSegment
	for _, r := range runes {
		g := glyph(r)
		if k := len(segs) - 1; k >= 0 {
			s := &segs[k]
			if r == s.last+1 && int(g) == int(s.glyph)+int(r-s.first) {
				s.last = r
				continue
			}
		}
		segs = append(segs, cmapSegment{first: r, last: r, glyph: g})
	}
	return segs
}

// buildCMap writes a cmap table for the retained code points. BMP code points
// go into a format 4 sub-table referenced by (0,3) and (3,1). If
// supplementary code points are retained, all code points are written to a
// format 12 sub-table, referenced by (0,4) and (3,10).
func buildCMap(plan *Plan) ([]byte, error) {
	runes := slices.Sorted(maps.Keys(plan.Unicodes))
	glyph := func(r rune) ot.GlyphIndex {
		g, _ := plan.Map(plan.Unicodes[r])
		return g
	}
	bmp := runes
	if k, _ := slices.BinarySearch(runes, 0x10000); k < len(runes) {
		bmp = runes[:k]
	}
	// 0xFFFF is reserved for the final segment of format 4
	bmp = slices.DeleteFunc(slices.Clone(bmp), func(r rune) bool { return r == 0xffff })
	sub4, err := cmapFormat4(segments(bmp, glyph))
	if err != nil {
		return nil, err
	}
	var sub12 []byte
	if len(runes) > 0 && runes[len(runes)-1] > 0xffff {
		sub12 = cmapFormat12(segments(runes, glyph))
	}
	n := 2
	if sub12 != nil {
		n = 4
	}
	off4 := 4 + 8*n
	off12 := off4 + len(sub4)
	type encodingRecord struct {
		platform, encoding uint16
		offset             int
	}
	records := []encodingRecord{{0, 3, off4}, {3, 1, off4}}
	if sub12 != nil {
		records = []encodingRecord{{0, 3, off4}, {0, 4, off12}, {3, 1, off4}, {3, 10, off12}}
	}
	buf := ot.NewBuffer(off12 + len(sub12))
	buf.PutU16(0)
	buf.PutU16(uint16(len(records)))
	for _, rec := range records {
		buf.PutU16(rec.platform)
		buf.PutU16(rec.encoding)
		buf.PutU32(uint32(rec.offset))
	}
	buf.Append(sub4)
	buf.Append(sub12)
	tracer().Debugf("cmap: %d code points, %d BMP", len(runes), len(bmp))
	return buf.Bytes(), nil
}

// cmapFormat4 writes segments as a format 4 sub-table, using idDelta only,
// followed by the mandatory final segment for 0xFFFF.
func cmapFormat4(segs []cmapSegment) ([]byte, error) {
	n := len(segs) + 1
	length := 16 + 8*n
	if length > 0xffff {
		return nil, fmt.Errorf("cmap format 4 with %d segments exceeds 64K", n)
	}
	power, selector := 1, 0
	for power*2 <= n {
		power *= 2
		selector++
	}
	buf := ot.NewBuffer(length)
	buf.PutU16(4)
	buf.PutU16(uint16(length))
	buf.PutU16(0) // language
	buf.PutU16(uint16(2 * n))
	buf.PutU16(uint16(2 * power))
	buf.PutU16(uint16(selector))
	buf.PutU16(uint16(2*n - 2*power))
	for _, s := range segs {
		buf.PutU16(uint16(s.last))
	}
	buf.PutU16(0xffff)
	buf.PutU16(0) // reservedPad
	for _, s := range segs {
		buf.PutU16(uint16(s.first))
	}
	buf.PutU16(0xffff)
	for _, s := range segs {
		buf.PutU16(uint16(s.glyph) - uint16(s.first)) // modulo 65536
	}
	buf.PutU16(1)
	for range n {
		buf.PutU16(0) // idRangeOffset
	}
	return buf.Bytes(), nil
}

func cmapFormat12(segs []cmapSegment) []byte {
	buf := ot.NewBuffer(16 + 12*len(segs))
	buf.PutU16(12)
	buf.PutU16(0)
	buf.PutU32(uint32(16 + 12*len(segs)))
	buf.PutU32(0) // language
	buf.PutU32(uint32(len(segs)))
	for _, s := range segs {
		buf.PutU32(uint32(s.first))
		buf.PutU32(uint32(s.last))
		buf.PutU32(uint32(s.glyph))
	}
	return buf.Bytes()
}
