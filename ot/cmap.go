package ot

import (
	"fmt"
	"iter"
)

// CMapTable represents an OpenType cmap table, i.e. the table to receive glyphs
// from code-points.
//
// See https://docs.microsoft.com/de-de/typography/opentype/spec/cmap
//
// A cmap table may contain more than one lookup table, but we will only
// instantiate the most appropriate one. Clients who need access to all the lookup
// tables will have to parse them themselves.
type CMapTable struct {
	tableBase
	GlyphIndexMap CMapGlyphIndex
	Platform      uint16 // platform of the selected sub-table
	Encoding      uint16 // encoding of the selected sub-table
	Format        uint16 // format of the selected sub-table
}

// Lookup maps a code-point to a glyph index. Unmapped code-points return 0.
func (t *CMapTable) Lookup(r rune) GlyphIndex {
	if t == nil || t.GlyphIndexMap == nil {
		return 0
	}
	return t.GlyphIndexMap.Lookup(r)
}

// Mappings iterates over all (code-point, glyph) pairs of the selected sub-table
// in ascending code-point order. Code-points mapped to glyph 0 are skipped.
func (t *CMapTable) Mappings() iter.Seq2[rune, GlyphIndex] {
	if t == nil || t.GlyphIndexMap == nil {
		return func(func(rune, GlyphIndex) bool) {}
	}
	return t.GlyphIndexMap.Mappings()
}

// CMapGlyphIndex represents a CMap table index to receive a glyph index from
// a code-point.
type CMapGlyphIndex interface {
	Lookup(rune) GlyphIndex                // central activiy of CMap
	Mappings() iter.Seq2[rune, GlyphIndex] // enumerate all mappings
}

// platformEncodingWidth returns the number of bytes per character assumed by
// the given Platform ID and Platform Specific ID.
//
// Old fonts, from when Unicode meant the Basic Multilingual Plane (BMP),
// assume that 2 bytes per character is sufficient.
// Recent fonts naturally support the full range of Unicode code points, which
// can take up to 4 bytes per character.
func platformEncodingWidth(pid, psid uint16) int {
	switch pid {
	case 0: // Unicode platform
		switch psid {
		case 0, 1, 2, 3: // Unicode BMP
			return 2
		case 4, 6, 10: // Unicode full (include 10 from FontForge bug)
			return 4
		}
	case 3: // Windows platform
		switch psid {
		case 0: // Symbol
			return 1
		case 1: // Unicode BMP
			return 2
		case 10: // Unicode full
			return 4
		}
	}
	return 0 // width 0 will never get selected
}

// We support the following plaform/encoding/format combinations:
//
//	0 (Unicode)  0–3     4   Unicode BMP
//	0 (Unicode)  4,6,10  12  Unicode full  (10 from FontForge, error)
//	3 (Win)      0       4   Symbol
//	3 (Win)      1       4   Unicode BMP
//	3 (Win)      10      12  Unicode full
func supportedCmapFormat(format, pid, psid uint16) bool {
	w := platformEncodingWidth(pid, psid)
	return (w == 1 || w == 2) && format == 4 || w == 4 && format == 12
}

// cmapPreference ranks the encoding records a cmap sub-table is selected
// from: (3,10) > (0,4/6/10) > (3,1) > (0,3) > (0,0–2) > (3,0).
// Unsupported records rank 0.
func cmapPreference(pid, psid uint16) int {
	switch {
	case pid == 3 && psid == 10:
		return 6
	case pid == 0 && (psid == 4 || psid == 6 || psid == 10):
		return 5
	case pid == 3 && psid == 1:
		return 4
	case pid == 0 && psid == 3:
		return 3
	case pid == 0 && psid <= 2:
		return 2
	case pid == 3 && psid == 0:
		return 1
	}
	return 0
}

func parseCMap(tag Tag, b Segment, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &CMapTable{tableBase: makeBase(tag, b, offset, size)}
	t.self = t
	r := b.Reader()
	n := int(r.U16(2)) // number of sub-tables
	const headerSize, entrySize = 4, 8
	if r.View(headerSize, entrySize*n); r.Err() != nil {
		ec.addError(tag, "Header", "encoding records exceed table", SeverityMajor, offset)
		return t, nil // font stays usable without cmap
	}
	tracer().Debugf("font cmap has %d sub-tables in %d bytes", n, len(b))
	best, subOffset := 0, uint32(0)
	for i := 0; i < n; i++ {
		rec := headerSize + entrySize*i
		pid, psid, off := r.U16(rec), r.U16(rec+2), r.U32(rec+4)
		rank := cmapPreference(pid, psid)
		if rank <= best {
			continue
		}
		format, err := b.U16(int(off))
		if err != nil {
			ec.addWarning(tag, fmt.Sprintf("sub-table %d (platform=%d, encoding=%d) out of bounds", i, pid, psid), offset)
			continue
		}
		if supportedCmapFormat(format, pid, psid) {
			best, subOffset = rank, off
			t.Platform, t.Encoding, t.Format = pid, psid, format
		}
	}
	if best == 0 {
		ec.addError(tag, "Format", "no supported cmap format found", SeverityMajor, offset)
		return t, nil
	}
	sub := b[subOffset:]
	var err error
	switch t.Format {
	case 4:
		t.GlyphIndexMap, err = makeGlyphIndexFormat4(sub)
	case 12:
		t.GlyphIndexMap, err = makeGlyphIndexFormat12(sub)
	}
	if err != nil {
		ec.addError(tag, "Format", err.Error(), SeverityMajor, offset+subOffset)
		t.GlyphIndexMap = nil
	}
	return t, nil
}

// --- Format 4 --------------------------------------------------------------

// Format 4: Segment mapping to delta values
// This is the standard character-to-glyph-index mapping subtable for fonts that support
// only Unicode Basic Multilingual Plane characters (U+0000 to U+FFFF).
type format4GlyphIndex struct {
	entries  []cmapEntry16
	glyphIds Segment
}

// see https://docs.microsoft.com/en-us/typography/opentype/spec/cmap#format-4-segment-mapping-to-delta-values
type cmapEntry16 struct {
	end, start, delta, offset uint16
}

func (f4 format4GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xffff { // format 4 is for BMP code-points only
		return 0
	}
	c := uint16(r)
	N := len(f4.entries)
	for i, j := 0, N; i < j; {
		h := i + (j-i)/2
		entry := &f4.entries[h]
		if c < entry.start {
			j = h
		} else if entry.end < c {
			i = h + 1
		} else {
			return f4.glyph(h, c)
		}
	}
	return 0
}

// glyph resolves c within segment h.
//
// idRangeOffset is an offset from its own position within the idRangeOffset
// array into the glyph ID array, which follows the array. We sliced the
// glyph ID array off, so we subtract the distance to the end of the offsets.
func (f4 format4GlyphIndex) glyph(h int, c uint16) GlyphIndex {
	entry := &f4.entries[h]
	if entry.offset == 0 {
		return GlyphIndex(c + entry.delta)
	}
	deltaToEndOfEntries := (len(f4.entries) - h) * 2
	index := (int(entry.offset)-deltaToEndOfEntries)/2 + int(c-entry.start)
	g, err := f4.glyphIds.U16(index * 2)
	if err != nil || g == 0 {
		return 0
	}
	return GlyphIndex(g + entry.delta)
}

func (f4 format4GlyphIndex) Mappings() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		for h, entry := range f4.entries {
			if entry.end < entry.start {
				continue
			}
			for c := uint32(entry.start); c <= uint32(entry.end); c++ {
				if c == 0xffff {
					break
				}
				if g := f4.glyph(h, uint16(c)); g != 0 {
					if !yield(rune(c), g) {
						return
					}
				}
			}
		}
	}
}

// The format's data is divided into three parts, which must occur in the following order:
//
// - A four-word header gives parameters for an optimized search of the segment list;
// - Four parallel arrays describe the segments (one segment for each contiguous range of codes);
// - A variable-length array of glyph IDs (unsigned words).
func makeGlyphIndexFormat4(b Segment) (CMapGlyphIndex, error) {
	const headerSize = 14
	r := b.Reader()
	size := int(r.U16(2))
	segCount := int(r.U16(6))
	if r.Err() != nil {
		return nil, errFontFormat("cmap format 4 header")
	}
	if segCount&1 != 0 {
		return nil, errFontFormat("cmap format 4, illegal segment count")
	}
	segCount /= 2
	if size > len(b) { // some fonts have a bogus length field
		size = len(b)
	}
	if headerSize+8*segCount+2 > size {
		return nil, errFontFormat("cmap format 4 internal structure")
	}
	b = b[:size]
	entries := make([]cmapEntry16, segCount)
	ends, starts := headerSize, headerSize+2*segCount+2
	deltas, offsets := starts+2*segCount, starts+4*segCount
	for i := range entries {
		entries[i] = cmapEntry16{
			end:    u16(b[ends+2*i:]),
			start:  u16(b[starts+2*i:]),
			delta:  u16(b[deltas+2*i:]),
			offset: u16(b[offsets+2*i:]),
		}
	}
	return format4GlyphIndex{
		entries:  entries,
		glyphIds: b[offsets+2*segCount:],
	}, nil
}

// --- Format 12 -------------------------------------------------------------

type cmapEntry32 struct {
	start, end, delta uint32
}

// Each sequential map group record specifies a character range and the starting glyph ID
// mapped from the first character. Glyph IDs for subsequent characters follow in sequence.
type format12GlyphIndex struct {
	entries []cmapEntry32
}

func (f12 format12GlyphIndex) Lookup(r rune) GlyphIndex {
	c := uint32(r)
	for i, j := 0, len(f12.entries); i < j; {
		h := i + (j-i)/2
		entry := &f12.entries[h]
		if c < entry.start {
			j = h
		} else if entry.end < c {
			i = h + 1
		} else {
			return GlyphIndex(c - entry.start + entry.delta)
		}
	}
	return 0
}

func (f12 format12GlyphIndex) Mappings() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		for _, entry := range f12.entries {
			for c := entry.start; c <= entry.end && c <= 0x10ffff; c++ {
				g := GlyphIndex(c - entry.start + entry.delta)
				if g == 0 {
					continue
				}
				if !yield(rune(c), g) {
					return
				}
			}
		}
	}
}

// Format 12 is similar to format 4 in that it defines segments for sparse representation.
// It differs, however, in that it uses 32-bit character codes.
func makeGlyphIndexFormat12(b Segment) (CMapGlyphIndex, error) {
	const headerSize = 16
	r := b.Reader()
	size := int(r.U32(4))
	grpCount := int(r.U32(12))
	if r.Err() != nil {
		return nil, errFontFormat("cmap format 12 header")
	}
	if size > len(b) {
		size = len(b)
	}
	if grpCount > (size-headerSize)/12 {
		return nil, errFontFormat("cmap format 12 internal structure")
	}
	// SequentialMapGroup Record:
	// uint32   startCharCode   First character code in this group
	// uint32   endCharCode     Last character code in this group
	// uint32   startGlyphID    Glyph index corresponding to the starting character code
	entries := make([]cmapEntry32, 0, grpCount)
	for i := 0; i < grpCount; i++ {
		rec := b[headerSize+12*i:]
		e := cmapEntry32{start: u32(rec), end: u32(rec[4:]), delta: u32(rec[8:])}
		if e.end < e.start {
			continue
		}
		entries = append(entries, e)
	}
	return format12GlyphIndex{entries: entries}, nil
}
