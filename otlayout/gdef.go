package otlayout

import (
	"fmt"

	"github.com/npillmayer/otsubset/ot"
)

// SubsetGDEF rewrites a GDEF table for a glyph mapping. The glyph class and
// mark attachment class definitions are remapped, as are the coverages of
// mark glyph sets. Mark glyph sets are kept in number even if empty, as
// lookups refer to them by index. Attachment points, ligature carets and
// variation data are not carried over.
//
// A nil result means that the subset font has no use for GDEF.
func SubsetGDEF(data []byte, m GlyphMap) ([]byte, error) {
	src := ot.Segment(data)
	r := src.Reader()
	major, minor := r.U16(0), r.U16(2)
	gcdOff, macdOff := int(r.U16(4)), int(r.U16(10))
	if r.Err() != nil {
		return nil, fmt.Errorf("GDEF header: %w", r.Err())
	}
	if major != 1 {
		return nil, fmt.Errorf("GDEF version %d.%d: %w", major, minor, ot.ErrUnsupportedFormat)
	}
	var glyphClasses, markClasses map[ot.GlyphIndex]uint16
	var err error
	if gcdOff != 0 {
		if glyphClasses, err = SubsetClassDef(src, gcdOff, m); err != nil {
			return nil, fmt.Errorf("GDEF glyph classes: %w", err)
		}
	}
	if macdOff != 0 {
		if markClasses, err = SubsetClassDef(src, macdOff, m); err != nil {
			return nil, fmt.Errorf("GDEF mark attachment classes: %w", err)
		}
	}
	var markSets [][]ot.GlyphIndex
	if minor >= 2 {
		if msOff := int(r.U16(12)); msOff != 0 && r.Err() == nil {
			if markSets, err = subsetMarkGlyphSets(src, msOff, m); err != nil {
				return nil, fmt.Errorf("GDEF mark glyph sets: %w", err)
			}
		}
	}
	if len(glyphClasses) == 0 && len(markClasses) == 0 && len(markSets) == 0 {
		return nil, nil
	}
	buf := ot.NewBuffer(256)
	buf.PutU16(1)
	if len(markSets) > 0 {
		buf.PutU16(2)
	} else {
		buf.PutU16(0)
	}
	gcdPos := buf.Reserve16()
	buf.PutU16(0) // attach list
	buf.PutU16(0) // ligature caret list
	macdPos := buf.Reserve16()
	msPos := -1
	if len(markSets) > 0 {
		msPos = buf.Reserve16()
	}
	if len(glyphClasses) > 0 {
		if err := patchOffset(buf, gcdPos, 0); err != nil {
			return nil, err
		}
		buf.Append(BuildClassDef(glyphClasses))
	}
	if len(markClasses) > 0 {
		if err := patchOffset(buf, macdPos, 0); err != nil {
			return nil, err
		}
		buf.Append(BuildClassDef(markClasses))
	}
	if msPos >= 0 {
		if err := patchOffset(buf, msPos, 0); err != nil {
			return nil, err
		}
		base := buf.Len()
		buf.PutU16(1)
		buf.PutU16(uint16(len(markSets)))
		recs := make([]int, len(markSets))
		for i := range markSets {
			recs[i] = buf.Reserve32()
		}
		for i, set := range markSets {
			buf.SetU32(recs[i], uint32(buf.Len()-base))
			buf.Append(BuildCoverage(set))
		}
	}
	return buf.Bytes(), nil
}

func subsetMarkGlyphSets(src ot.Segment, offset int, m GlyphMap) ([][]ot.GlyphIndex, error) {
	r := src.Reader()
	format, count := r.U16(offset), int(r.U16(offset+2))
	if r.Err() != nil {
		return nil, r.Err()
	}
	if format != 1 {
		return nil, errFontFormat(fmt.Sprintf("mark glyph sets format %d", format))
	}
	sets := make([][]ot.GlyphIndex, count)
	for i := range sets {
		covOff := offset + int(r.U32(offset+4+4*i))
		if r.Err() != nil {
			return nil, r.Err()
		}
		entries, err := SubsetCoverage(src, covOff, m)
		if err != nil {
			return nil, err
		}
		sets[i] = newGlyphs(entries)
	}
	return sets, nil
}
