package subset

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/npillmayer/otsubset/ot"
)

// buildVORG filters the vertical origin records of a VORG table to the
// retained glyphs and renumbers them.
func buildVORG(data ot.Segment, plan *Plan) ([]byte, error) {
	r := data.Reader()
	major, minor := r.U16(0), r.U16(2)
	defaultY := r.I16(4)
	n := int(r.U16(6))
	if r.Err() != nil {
		return nil, fmt.Errorf("VORG header: %w", r.Err())
	}
	type origin struct {
		glyph ot.GlyphIndex
		y     int16
	}
	var origins []origin
	for i := range n {
		g, y := r.Glyph(8+4*i), r.I16(10+4*i)
		if ng, ok := plan.Map(g); ok && r.Err() == nil {
			origins = append(origins, origin{ng, y})
		}
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("VORG records: %w", r.Err())
	}
	slices.SortFunc(origins, func(a, b origin) int { return cmp.Compare(a.glyph, b.glyph) })
	buf := ot.NewBuffer(8 + 4*len(origins))
	buf.PutU16(major)
	buf.PutU16(minor)
	buf.PutI16(defaultY)
	buf.PutU16(uint16(len(origins)))
	for _, o := range origins {
		buf.PutGlyph(o.glyph)
		buf.PutI16(o.y)
	}
	return buf.Bytes(), nil
}
