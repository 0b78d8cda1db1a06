package otlayout

import (
	"fmt"
	"maps"
	"slices"

	"github.com/npillmayer/otsubset/ot"
)

// ParseClassDef decodes a class definition table at offset within src.
// Glyphs of class 0 are not contained in the result.
func ParseClassDef(src ot.Segment, offset int) (map[ot.GlyphIndex]uint16, error) {
	r := src.Reader()
	format := r.U16(offset)
	classes := make(map[ot.GlyphIndex]uint16)
	switch format {
	case 1:
		start, count := int(r.U16(offset+2)), int(r.U16(offset+4))
		arr := r.View(offset+6, 2*count)
		if r.Err() != nil {
			return nil, r.Err()
		}
		for i := 0; i < count && start+i <= 0xffff; i++ {
			if c := uint16(arr[2*i])<<8 | uint16(arr[2*i+1]); c != 0 {
				classes[ot.GlyphIndex(start+i)] = c
			}
		}
	case 2:
		count := int(r.U16(offset + 2))
		if r.View(offset+4, 6*count); r.Err() != nil {
			return nil, r.Err()
		}
		for i := 0; i < count; i++ {
			rec := offset + 4 + 6*i
			start, end, c := int(r.U16(rec)), int(r.U16(rec+2)), r.U16(rec+4)
			for g := start; g <= end && c != 0; g++ {
				classes[ot.GlyphIndex(g)] = c
			}
		}
	default:
		if r.Err() != nil {
			return nil, r.Err()
		}
		return nil, errFontFormat(fmt.Sprintf("class definition format %d", format))
	}
	return classes, r.Err()
}

// SubsetClassDef decodes a class definition table and maps its glyphs through m.
func SubsetClassDef(src ot.Segment, offset int, m GlyphMap) (map[ot.GlyphIndex]uint16, error) {
	classes, err := ParseClassDef(src, offset)
	if err != nil {
		return nil, err
	}
	subset := make(map[ot.GlyphIndex]uint16, len(classes))
	for g, c := range classes {
		if ng, ok := m.Map(g); ok {
			subset[ng] = c
		}
	}
	return subset, nil
}

// BuildClassDef encodes glyph classes as a class definition table, choosing
// the smaller of format 1 (class array over a glyph range) and format 2
// (ranges of equal class). Ties favour format 1.
func BuildClassDef(classes map[ot.GlyphIndex]uint16) []byte {
	glyphs := slices.Sorted(maps.Keys(classes))
	glyphs = slices.DeleteFunc(glyphs, func(g ot.GlyphIndex) bool { return classes[g] == 0 })
	type classRange struct {
		start, end ot.GlyphIndex
		class      uint16
	}
	var ranges []classRange
	for _, g := range glyphs {
		c := classes[g]
		if n := len(ranges); n > 0 && ranges[n-1].end+1 == g && ranges[n-1].class == c {
			ranges[n-1].end = g
			continue
		}
		ranges = append(ranges, classRange{start: g, end: g, class: c})
	}
	size2 := 4 + 6*len(ranges)
	if len(glyphs) > 0 {
		first, last := glyphs[0], glyphs[len(glyphs)-1]
		if size1 := 6 + 2*(int(last-first)+1); size1 <= size2 {
			buf := ot.NewBuffer(size1)
			buf.PutU16(1)
			buf.PutGlyph(first)
			buf.PutU16(uint16(last - first + 1))
			for g := int(first); g <= int(last); g++ {
				buf.PutU16(classes[ot.GlyphIndex(g)])
			}
			return buf.Bytes()
		}
	}
	buf := ot.NewBuffer(size2)
	buf.PutU16(2)
	buf.PutU16(uint16(len(ranges)))
	for _, rg := range ranges {
		buf.PutGlyph(rg.start)
		buf.PutGlyph(rg.end)
		buf.PutU16(rg.class)
	}
	return buf.Bytes()
}
