package subset

import (
	"fmt"
	"slices"

	"github.com/npillmayer/otsubset/ot"
)

// buildMetrics writes hmtx (or vmtx) for the subset and patches the matching
// header table hhea (or vhea). Trailing glyphs with equal advance are folded
// into the last long metric. Empty slots get advance and bearing 0.
func buildMetrics(mtx *ot.HMtxTable, hea *ot.HHeaTable, plan *Plan) (mtxData, heaData []byte, err error) {
	n := plan.NumGlyphs()
	advances := make([]uint16, n)
	bearings := make([]int16, n)
	for i := range n {
		src := plan.SourceGlyph(ot.GlyphIndex(i))
		if src == NoGlyph {
			continue
		}
		if advances[i], bearings[i], err = mtx.Metrics(src); err != nil {
			return nil, nil, fmt.Errorf("metrics of glyph %d: %w", src, err)
		}
	}
	long := n
	for long > 1 && advances[long-1] == advances[long-2] {
		long--
	}
	buf := ot.NewBuffer(4*long + 2*(n-long))
	for i := range long {
		buf.PutU16(advances[i])
		buf.PutI16(bearings[i])
	}
	for i := long; i < n; i++ {
		buf.PutI16(bearings[i])
	}
	heaData = slices.Clone(hea.Binary())
	if err = ot.PutU16At(heaData, ot.HHeaNumberOfMetrics, uint16(long)); err != nil {
		return nil, nil, err
	}
	if err = ot.PutU16At(heaData, hheaAdvanceMax, slices.Max(append(advances, 0))); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), heaData, nil
}

// Offset of advanceWidthMax (advanceHeightMax in vhea).
const hheaAdvanceMax = 10

// Offsets of maxp version 1.0 fields concerning TrueType instructions.
const (
	maxpZones              = 14
	maxpTwilightPoints     = 16
	maxpSizeOfInstructions = 26
	maxpVersion10Size      = 32
)

// buildMaxp patches the glyph count. Without hinting, the limits of the
// TrueType interpreter of a version 1.0 table are reset.
func buildMaxp(otf *ot.Font, plan *Plan, keepHinting bool) ([]byte, error) {
	data := slices.Clone(otf.MaxP.Binary())
	if err := ot.PutU16At(data, ot.MaxPNumGlyphs, uint16(plan.NumGlyphs())); err != nil {
		return nil, err
	}
	if !keepHinting && otf.Glyf != nil && len(data) >= maxpVersion10Size {
		_ = ot.PutU16At(data, maxpZones, 1)
		for at := maxpTwilightPoints; at <= maxpSizeOfInstructions; at += 2 {
			_ = ot.PutU16At(data, at, 0)
		}
	}
	return data, nil
}

// buildHead sets the loca format and clears the checksum adjustment, which
// is recomputed on serialization.
func buildHead(otf *ot.Font, locaFormat uint16) ([]byte, error) {
	data := slices.Clone(otf.Head.Binary())
	if err := ot.PutU32At(data, ot.HeadChecksumAdjustment, 0); err != nil {
		return nil, err
	}
	if otf.Glyf != nil {
		if err := ot.PutU16At(data, ot.HeadIndexToLocFormat, locaFormat); err != nil {
			return nil, err
		}
	}
	return data, nil
}
