package otlayout

import (
	"fmt"
	"slices"

	"github.com/npillmayer/otsubset/ot"
)

// GlyphMap maps glyph indices of a source font to glyph indices of a subset
// font. Glyphs not retained in the subset are reported as not ok.
type GlyphMap interface {
	Map(ot.GlyphIndex) (ot.GlyphIndex, bool)
}

// CoverageEntry is a glyph of a coverage table which survives subsetting.
// Index is the glyph's position in the source coverage table, which is needed
// to locate the glyph's data in arrays parallel to the coverage.
type CoverageEntry struct {
	New   ot.GlyphIndex // glyph index in the subset font
	Old   ot.GlyphIndex // glyph index in the source font
	Index int           // coverage index in the source table
}

// ParseCoverage decodes a coverage table at offset within src. The glyph at
// position i of the result has coverage index i.
//
// Format 1 is an explicit glyph array, format 2 a list of glyph ranges where
// each range states the coverage index of its first glyph.
func ParseCoverage(src ot.Segment, offset int) ([]ot.GlyphIndex, error) {
	r := src.Reader()
	format, count := r.U16(offset), int(r.U16(offset+2))
	if r.Err() != nil {
		return nil, r.Err()
	}
	switch format {
	case 1:
		arr := r.View(offset+4, 2*count)
		if r.Err() != nil {
			return nil, r.Err()
		}
		glyphs := make([]ot.GlyphIndex, count)
		for i := range glyphs {
			glyphs[i] = ot.GlyphIndex(arr[2*i])<<8 | ot.GlyphIndex(arr[2*i+1])
		}
		return glyphs, nil
	case 2:
		if r.View(offset+4, 6*count); r.Err() != nil {
			return nil, r.Err()
		}
		var glyphs []ot.GlyphIndex
		for i := 0; i < count; i++ {
			rec := offset + 4 + 6*i
			start, end, startInx := int(r.U16(rec)), int(r.U16(rec+2)), int(r.U16(rec+4))
			if end < start {
				return nil, errFontFormat(fmt.Sprintf("coverage range %d inverted", i))
			}
			for g := start; g <= end; g++ {
				inx := startInx + g - start
				if inx >= len(glyphs) {
					glyphs = append(glyphs, make([]ot.GlyphIndex, inx-len(glyphs)+1)...)
				}
				glyphs[inx] = ot.GlyphIndex(g)
			}
		}
		return glyphs, nil
	}
	return nil, errFontFormat(fmt.Sprintf("coverage format %d", format))
}

// SubsetCoverage decodes a coverage table and returns the glyphs retained by m,
// together with their new glyph index and original coverage index. The result
// is sorted by new glyph index.
func SubsetCoverage(src ot.Segment, offset int, m GlyphMap) ([]CoverageEntry, error) {
	glyphs, err := ParseCoverage(src, offset)
	if err != nil {
		return nil, err
	}
	entries := make([]CoverageEntry, 0, len(glyphs))
	for inx, g := range glyphs {
		if ng, ok := m.Map(g); ok {
			entries = append(entries, CoverageEntry{New: ng, Old: g, Index: inx})
		}
	}
	// in compact mode the order is already correct; we do not rely on it
	slices.SortStableFunc(entries, func(a, b CoverageEntry) int {
		return int(a.New) - int(b.New)
	})
	return entries, nil
}

// BuildCoverage encodes a sorted list of glyphs as a coverage table, choosing
// whichever of format 1 (glyph array) or format 2 (ranges) is smaller. Ties
// favour format 1.
func BuildCoverage(glyphs []ot.GlyphIndex) []byte {
	glyphs = slices.Compact(slices.Clone(glyphs))
	ranges := coverageRanges(glyphs)
	if 4+6*len(ranges) < 4+2*len(glyphs) {
		buf := ot.NewBuffer(4 + 6*len(ranges))
		buf.PutU16(2)
		buf.PutU16(uint16(len(ranges)))
		for _, rg := range ranges {
			buf.PutGlyph(rg.start)
			buf.PutGlyph(rg.end)
			buf.PutU16(uint16(rg.index))
		}
		return buf.Bytes()
	}
	buf := ot.NewBuffer(4 + 2*len(glyphs))
	buf.PutU16(1)
	buf.PutU16(uint16(len(glyphs)))
	for _, g := range glyphs {
		buf.PutGlyph(g)
	}
	return buf.Bytes()
}

type glyphRange struct {
	start, end ot.GlyphIndex
	index      int
}

// coverageRanges merges runs of consecutive glyph indices.
func coverageRanges(glyphs []ot.GlyphIndex) []glyphRange {
	var ranges []glyphRange
	for i, g := range glyphs {
		if n := len(ranges); n > 0 && ranges[n-1].end+1 == g {
			ranges[n-1].end = g
			continue
		}
		ranges = append(ranges, glyphRange{start: g, end: g, index: i})
	}
	return ranges
}

// newGlyphs extracts the new glyph indices of coverage entries.
func newGlyphs(entries []CoverageEntry) []ot.GlyphIndex {
	glyphs := make([]ot.GlyphIndex, len(entries))
	for i, e := range entries {
		glyphs[i] = e.New
	}
	return glyphs
}
