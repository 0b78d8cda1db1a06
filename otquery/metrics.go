package otquery

import (
	"github.com/npillmayer/otsubset/ot"
	"golang.org/x/image/font/sfnt"
)

// FontMetrics retrieves selected metrics of a font.
//
// Ascent and descent are taken from table hhea. If hhea carries no values,
// the typographic values of table OS/2 are used.
func FontMetrics(otf *ot.Font) FontMetricsInfo {
	metrics := FontMetricsInfo{}
	if otf == nil {
		return metrics
	}
	if hhea := otf.HHea; hhea != nil {
		metrics.Ascent = sfnt.Units(hhea.Ascender)
		metrics.Descent = sfnt.Units(hhea.Descender)
		metrics.LineGap = sfnt.Units(hhea.LineGap)
		if adv, err := hhea.Binary().U16(10); err == nil {
			metrics.MaxAdvance = sfnt.Units(adv)
		}
	}
	if metrics.Ascent == 0 && metrics.Descent == 0 {
		if os2 := tableData(otf, "OS/2"); len(os2) >= 74 {
			r := os2.Reader()
			metrics.Ascent = sfnt.Units(r.I16(68))
			metrics.Descent = sfnt.Units(r.I16(70))
			metrics.LineGap = sfnt.Units(r.I16(72))
			tracer().Debugf("ascent/descent from OS/2: %d/%d", metrics.Ascent, metrics.Descent)
		}
	}
	if otf.Head != nil {
		metrics.UnitsPerEm = sfnt.Units(otf.Head.UnitsPerEm)
	}
	return metrics
}

// --- Glyph Routines --------------------------------------------------------

// GlyphIndex returns the glyph index for a give code-point.
// If the code-point cannot be found, 0 is returned.
//
// From the OpenType specification: character codes that do not correspond to any glyph in
// the font should be mapped to glyph index 0. The glyph at this location must be a special
// glyph representing a missing character, commonly known as '.notdef'.
func GlyphIndex(otf *ot.Font, codepoint rune) ot.GlyphIndex {
	return otf.GlyphIndex(codepoint)
}

// CodePointForGlyph returns the code-point for a given glyph index.
//
// This is an inefficient operation: All code-points contained in the font's CMap
// are checked sequentially if they produce the given glyph.
// If the glyph index does not correspond to a code-point, 0 is returned.
func CodePointForGlyph(otf *ot.Font, gid ot.GlyphIndex) rune {
	if gid == 0 || otf == nil {
		return 0
	}
	for r, g := range otf.CMap.Mappings() {
		if g == gid {
			return r
		}
	}
	return 0
}

// GlyphMetrics retrieves metrics for a given glyph.
func GlyphMetrics(otf *ot.Font, gid ot.GlyphIndex) GlyphMetricsInfo {
	metrics := GlyphMetricsInfo{}
	if otf == nil {
		return metrics
	}
	if otf.HMtx != nil {
		if aw, lsb, err := otf.HMtx.Metrics(gid); err == nil {
			metrics.Advance = sfnt.Units(aw)
			metrics.LSB = sfnt.Units(lsb)
		}
	}
	if otf.Glyf != nil {
		if g, err := otf.Glyf.Glyph(gid); err == nil && len(g) > 0 {
			metrics.BBox = outlineBox(g)
			comps, err := ot.Components(g)
			if err != nil {
				tracer().Errorf("glyph %d: %v", gid, err)
			}
			for _, c := range comps {
				metrics.Components = append(metrics.Components, c.Glyph)
			}
		}
	}
	// If a glyph has no contours, xMax/xMin are not defined. The left side bearing
	// indicated in the 'hmtx' table for such glyphs should be zero.
	if !metrics.BBox.IsEmpty() {
		metrics.RSB = metrics.Advance - (metrics.LSB + metrics.BBox.Dx())
	}
	return metrics
}

// Coverage splits the code points of a text into those the font maps to a
// glyph and those it does not. Each code point is reported once, in order of
// first appearance.
func Coverage(otf *ot.Font, text string) (covered, missing []rune) {
	seen := make(map[rune]bool)
	for _, r := range text {
		if seen[r] {
			continue
		}
		seen[r] = true
		if otf.GlyphIndex(r) != 0 {
			covered = append(covered, r)
		} else {
			missing = append(missing, r)
		}
	}
	return
}
