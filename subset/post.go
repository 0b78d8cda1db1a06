package subset

import (
	"fmt"
	"slices"

	"github.com/npillmayer/otsubset/ot"
)

const (
	postHeaderSize   = 32
	postVersion2     = 0x00020000
	postVersion3     = 0x00030000
	numMacGlyphNames = 258 // standard Macintosh glyph names
)

// buildPost writes a version 3 post table, without glyph names. If glyph
// names are requested and the source has version 2, the names are carried
// over for the subset glyphs. Standard Macintosh names keep their index,
// custom names are renumbered in order of first use.
func buildPost(data ot.Segment, plan *Plan, glyphNames bool) ([]byte, error) {
	header, err := data.View(0, postHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("post header: %w", err)
	}
	version, _ := header.U32(0)
	out := ot.NewBuffer(postHeaderSize)
	out.Append(header)
	if !glyphNames || version != postVersion2 {
		if err := out.SetU32(0, postVersion3); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	}
	names, indices, err := parsePostNames(data)
	if err != nil {
		tracer().Errorf("post glyph names dropped: %v", err)
		_ = out.SetU32(0, postVersion3)
		return out.Bytes(), nil
	}
	n := plan.NumGlyphs()
	out.PutU16(uint16(n))
	var custom [][]byte
	renumbered := make(map[uint16]uint16)
	for i := range n {
		src := plan.SourceGlyph(ot.GlyphIndex(i))
		inx := uint16(0)
		if src != NoGlyph && int(src) < len(indices) {
			inx = indices[src]
		}
		if inx >= numMacGlyphNames {
			k, ok := renumbered[inx]
			if !ok {
				k = uint16(numMacGlyphNames + len(custom))
				renumbered[inx] = k
				custom = append(custom, names[inx-numMacGlyphNames])
			}
			inx = k
		}
		out.PutU16(inx)
	}
	for _, name := range custom {
		out.PutU8(uint8(len(name)))
		out.Append(name)
	}
	return out.Bytes(), nil
}

// parsePostNames decodes the glyph name indices and the Pascal strings of
// custom names of a version 2 post table.
func parsePostNames(data ot.Segment) (names [][]byte, indices []uint16, err error) {
	r := data.Reader()
	n := int(r.U16(postHeaderSize))
	indices = make([]uint16, 0, n)
	maxIndex := uint16(0)
	for i := range n {
		inx := r.U16(postHeaderSize + 2 + 2*i)
		indices = append(indices, inx)
		maxIndex = max(maxIndex, inx)
	}
	if r.Err() != nil {
		return nil, nil, r.Err()
	}
	at := postHeaderSize + 2 + 2*n
	for at < len(data) {
		l := int(data[at])
		name, err := data.View(at+1, l)
		if err != nil {
			return nil, nil, err
		}
		names = append(names, slices.Clone([]byte(name)))
		at += 1 + l
	}
	if maxIndex >= numMacGlyphNames && int(maxIndex-numMacGlyphNames) >= len(names) {
		return nil, nil, fmt.Errorf("glyph name index %d out of range", maxIndex)
	}
	return names, indices, nil
}
