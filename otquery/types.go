package otquery

import (
	"github.com/npillmayer/otsubset/ot"
	"golang.org/x/image/font/sfnt"
)

// FontMetricsInfo holds the font-wide vertical metrics and the em size.
type FontMetricsInfo struct {
	UnitsPerEm      sfnt.Units
	Ascent, Descent sfnt.Units
	LineGap         sfnt.Units
	MaxAdvance      sfnt.Units // advanceWidthMax of hhea
}

// GlyphMetricsInfo holds the horizontal metrics of a glyph. Outline
// information is available for TrueType fonts only.
type GlyphMetricsInfo struct {
	Advance    sfnt.Units
	LSB, RSB   sfnt.Units
	BBox       BoundingBox
	Components []ot.GlyphIndex // glyphs a composite glyph is built from
}

// Composite is true for glyphs which reference other glyphs. Subsetting
// such a glyph pulls in its components.
func (m GlyphMetricsInfo) Composite() bool {
	return len(m.Components) > 0
}

// BoundingBox is the bounding box of a glyph in font units.
type BoundingBox struct {
	MinX, MinY sfnt.Units
	MaxX, MaxY sfnt.Units
}

// outlineBox reads the bounding box from a glyph's outline header.
func outlineBox(g ot.Segment) BoundingBox {
	r := g.Reader()
	box := BoundingBox{
		MinX: sfnt.Units(r.I16(2)), MinY: sfnt.Units(r.I16(4)),
		MaxX: sfnt.Units(r.I16(6)), MaxY: sfnt.Units(r.I16(8)),
	}
	if r.Err() != nil {
		return BoundingBox{}
	}
	return box
}

func (bbox BoundingBox) IsEmpty() bool { return bbox.Dx() == 0 || bbox.Dy() == 0 }
func (bbox BoundingBox) Dx() sfnt.Units { return bbox.MaxX - bbox.MinX }
func (bbox BoundingBox) Dy() sfnt.Units { return bbox.MaxY - bbox.MinY }
