package subset

import (
	"errors"
	"fmt"

	"github.com/npillmayer/otsubset/ot"
)

// maxShortLoca is the largest glyf size addressable by a short loca table.
const maxShortLoca = 0x1fffe

// buildGlyf writes the glyf and loca tables of the subset. Component
// references of composite glyphs are rewritten to subset glyph IDs, and
// without hinting, instructions are removed. Glyph data is padded to even
// length. The returned loca format is the value for head.indexToLocFormat.
func buildGlyf(otf *ot.Font, plan *Plan, keepHinting bool) (glyf, loca []byte, locaFormat uint16, err error) {
	n := plan.NumGlyphs()
	offsets := make([]int, n+1)
	buf := ot.NewBuffer(len(otf.Glyf.Binary()))
	for i := range n {
		offsets[i] = buf.Len()
		src := plan.SourceGlyph(ot.GlyphIndex(i))
		if src == NoGlyph {
			continue
		}
		data, err := otf.Glyf.Glyph(src)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("glyph %d: %w", src, err)
		}
		if len(data) == 0 {
			continue
		}
		out, err := ot.RemapComponents(data, plan.Map)
		if errors.Is(err, ot.ErrUnmappedComponent) {
			tracer().Errorf("glyph %d: %v; replaced by empty glyph", src, err)
			continue
		} else if err != nil {
			return nil, nil, 0, fmt.Errorf("glyph %d: %w", src, err)
		}
		if !keepHinting {
			if out, err = ot.StripInstructions(out); err != nil {
				return nil, nil, 0, fmt.Errorf("glyph %d: %w", src, err)
			}
		}
		buf.Append(out)
		buf.Pad(2)
	}
	offsets[n] = buf.Len()
	if offsets[n] <= maxShortLoca {
		l := ot.NewBuffer(2 * (n + 1))
		for _, off := range offsets {
			l.PutU16(uint16(off / 2))
		}
		return buf.Bytes(), l.Bytes(), 0, nil
	}
	l := ot.NewBuffer(4 * (n + 1))
	for _, off := range offsets {
		l.PutU32(uint32(off))
	}
	tracer().Debugf("glyf has %d bytes, using long loca", offsets[n])
	return buf.Bytes(), l.Bytes(), 1, nil
}
