package subset

import (
	"slices"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/otsubset/cff"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/otsubset/otlayout"
)

// NoGlyph marks an empty slot in the glyph order of a subset with retained
// glyph IDs.
const NoGlyph = cff.EmptyGlyph

// Plan is the outcome of the closure and remapping phases, consulted by
// every table builder. It is read-only once the layout tables have been
// subset.
type Plan struct {
	RetainedGlyphs []ot.GlyphIndex // source glyphs, strictly increasing
	RetainGIDs     bool            // new glyph IDs equal the source glyph IDs
	// Code points of the subset and their source glyphs.
	Unicodes map[rune]ot.GlyphIndex
	// Source lookup and feature indices surviving layout pruning, per table.
	RetainedLookups  map[ot.Tag]*treeset.Set
	RetainedFeatures map[ot.Tag]*treeset.Set
	// Layout index maps per table. They are None until the table has been
	// pruned, and Some (possibly empty) afterwards.
	LookupIndexMap  map[ot.Tag]ot.Option[map[int]int]
	FeatureIndexMap map[ot.Tag]ot.Option[map[int]int]
	FeatureFilter   otlayout.TagFilter
	ScriptFilter    otlayout.TagFilter
	oldToNew        map[ot.GlyphIndex]ot.GlyphIndex
	glyphOrder      []ot.GlyphIndex // source glyph per new glyph, or NoGlyph
}

// newPlan numbers the retained glyphs. In compact mode, glyphs keep their
// relative order and receive the IDs 0…N-1. With retained glyph IDs the
// mapping is the identity, and the glyph order has empty slots for glyphs
// not retained.
func newPlan(glyphs []ot.GlyphIndex, retainGIDs bool) *Plan {
	glyphs = slices.Clone(glyphs)
	slices.Sort(glyphs)
	glyphs = slices.Compact(glyphs)
	p := &Plan{
		RetainedGlyphs:   glyphs,
		RetainGIDs:       retainGIDs,
		Unicodes:         make(map[rune]ot.GlyphIndex),
		RetainedLookups:  make(map[ot.Tag]*treeset.Set),
		RetainedFeatures: make(map[ot.Tag]*treeset.Set),
		LookupIndexMap:   make(map[ot.Tag]ot.Option[map[int]int]),
		FeatureIndexMap:  make(map[ot.Tag]ot.Option[map[int]int]),
		oldToNew:         make(map[ot.GlyphIndex]ot.GlyphIndex, len(glyphs)),
	}
	for _, tag := range []ot.Tag{ot.T("GSUB"), ot.T("GPOS")} {
		p.LookupIndexMap[tag] = ot.None[map[int]int]()
		p.FeatureIndexMap[tag] = ot.None[map[int]int]()
	}
	if len(glyphs) == 0 {
		return p
	}
	if retainGIDs {
		p.glyphOrder = make([]ot.GlyphIndex, int(glyphs[len(glyphs)-1])+1)
		for i := range p.glyphOrder {
			p.glyphOrder[i] = NoGlyph
		}
		for _, g := range glyphs {
			p.oldToNew[g] = g
			p.glyphOrder[g] = g
		}
		return p
	}
	p.glyphOrder = glyphs
	for i, g := range glyphs {
		p.oldToNew[g] = ot.GlyphIndex(i)
	}
	return p
}

// Map returns the subset glyph ID of a source glyph.
func (p *Plan) Map(g ot.GlyphIndex) (ot.GlyphIndex, bool) {
	n, ok := p.oldToNew[g]
	return n, ok
}

// NumGlyphs is the number of glyphs of the subset font, including empty
// slots.
func (p *Plan) NumGlyphs() int {
	return len(p.glyphOrder)
}

// SourceGlyph returns the source glyph for a subset glyph ID, or NoGlyph for
// an empty slot.
func (p *Plan) SourceGlyph(g ot.GlyphIndex) ot.GlyphIndex {
	if int(g) >= len(p.glyphOrder) {
		return NoGlyph
	}
	return p.glyphOrder[g]
}

// GlyphOrder returns the source glyph of every subset glyph, in subset order.
// Empty slots are NoGlyph.
func (p *Plan) GlyphOrder() []ot.GlyphIndex {
	return slices.Clone(p.glyphOrder)
}

// LookupIndex maps a source lookup index of a layout table to its index in
// the subset table. It reports false for dropped lookups and for tables not
// yet pruned.
func (p *Plan) LookupIndex(tag ot.Tag, lookup int) (int, bool) {
	return ot.Index(p.LookupIndexMap[tag], lookup)
}

// recordLayout stores the index maps of a pruned layout table.
func (p *Plan) recordLayout(tag ot.Tag, res *otlayout.Result) {
	p.RetainedLookups[tag] = res.RetainedLookups
	p.RetainedFeatures[tag] = res.RetainedFeatures
	p.LookupIndexMap[tag] = ot.Some(res.LookupMap)
	p.FeatureIndexMap[tag] = ot.Some(res.FeatureMap)
	tracer().Debugf("%s lookup index map: %v", tag, p.LookupIndexMap[tag])
}
