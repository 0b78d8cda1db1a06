package subset

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/otsubset/otlayout"
)

// glyphSet is the working set of the glyph closure. Glyphs beyond the
// font's glyph count are never added.
type glyphSet struct {
	bits      *bitset.BitSet
	numGlyphs int
}

func newGlyphSet(numGlyphs int) *glyphSet {
	return &glyphSet{bits: bitset.New(uint(numGlyphs)), numGlyphs: numGlyphs}
}

func (s *glyphSet) Contains(g ot.GlyphIndex) bool {
	return s.bits.Test(uint(g))
}

func (s *glyphSet) Add(g ot.GlyphIndex) bool {
	if int(g) >= s.numGlyphs || s.bits.Test(uint(g)) {
		return false
	}
	s.bits.Set(uint(g))
	return true
}

func (s *glyphSet) Len() int {
	return int(s.bits.Count())
}

// Glyphs returns the members of the set in ascending order.
func (s *glyphSet) Glyphs() []ot.GlyphIndex {
	glyphs := make([]ot.GlyphIndex, 0, s.bits.Count())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		glyphs = append(glyphs, ot.GlyphIndex(i))
	}
	return glyphs
}

var _ otlayout.GlyphSet = (*glyphSet)(nil)

// closure computes the set of glyphs to retain: the glyphs of the requested
// code points, the explicitly requested glyphs, glyph 0 if requested, and
// everything reachable from them through composite glyphs and, optionally,
// GSUB substitutions. It returns the glyph set and the retained code points.
func closure(otf *ot.Font, opts *Options) (*glyphSet, map[rune]ot.GlyphIndex) {
	glyphs := newGlyphSet(otf.NumGlyphs())
	unicodes := make(map[rune]ot.GlyphIndex)
	if otf.CMap == nil {
		tracer().Infof("font has no usable cmap, code points are ignored")
	}
	for _, r := range opts.Unicodes {
		g := otf.GlyphIndex(r)
		if g == 0 || int(g) >= glyphs.numGlyphs {
			if r != 0 {
				tracer().Debugf("code point %U not mapped", r)
			}
			continue
		}
		glyphs.Add(g)
		unicodes[r] = g
	}
	for _, g := range opts.GlyphIDs {
		if !glyphs.Add(g) && int(g) >= glyphs.numGlyphs {
			tracer().Debugf("glyph %d out of range", g)
		}
	}
	if opts.IncludeNotdef {
		glyphs.Add(0)
	}
	var gsub *otlayout.Table
	var selected func(int) bool
	if opts.LayoutClosure && !opts.DropLayoutTables {
		gsub, selected = closureLookups(otf, opts)
	}
	closeComposites(otf, glyphs)
	for gsub != nil {
		// ClosureGSUB and closeComposites each run to their own fixpoint
		if otlayout.ClosureGSUB(gsub, glyphs, selected) == 0 || closeComposites(otf, glyphs) == 0 {
			break
		}
	}
	tracer().Infof("glyph closure retains %d of %d glyphs", glyphs.Len(), glyphs.numGlyphs)
	return glyphs, unicodes
}

// closeComposites adds the components of composite glyphs until no more
// glyphs are added. Re-adding a glyph is a no-op, so cyclic composites
// terminate.
func closeComposites(otf *ot.Font, glyphs *glyphSet) int {
	if otf.Glyf == nil {
		return 0
	}
	total := 0
	for {
		added := 0
		for _, g := range glyphs.Glyphs() {
			data, err := otf.Glyf.Glyph(g)
			if err != nil {
				tracer().Debugf("glyph %d: %v", g, err)
				continue
			}
			if n, err := ot.NumberOfContours(data); err != nil || n >= 0 {
				continue
			}
			comps, err := ot.Components(data)
			if err != nil {
				tracer().Errorf("composite glyph %d: %v", g, err)
			}
			for _, c := range comps {
				if glyphs.Add(c.Glyph) {
					added++
				}
			}
		}
		total += added
		if added == 0 {
			return total
		}
	}
}

// closureLookups parses the GSUB table for the closure and selects the
// lookups of features passing the feature and script filters. A broken GSUB
// table disables the layout closure.
func closureLookups(otf *ot.Font, opts *Options) (*otlayout.Table, func(int) bool) {
	t := otf.Table(ot.T("GSUB"))
	if t == nil {
		return nil, nil
	}
	gsub, err := otlayout.Parse(ot.T("GSUB"), t.Binary())
	if err != nil {
		tracer().Errorf("GSUB closure skipped: %v", err)
		return nil, nil
	}
	if opts.LayoutFeatures == nil && opts.LayoutScripts == nil {
		return gsub, nil
	}
	reachable := make(map[int]bool) // features reachable from allowed scripts
	for _, s := range gsub.Scripts {
		if !opts.LayoutScripts.Allows(s.Tag) {
			continue
		}
		langs := s.LangSys
		if s.DefaultLangSys != nil {
			langs = append([]*otlayout.LangSys{s.DefaultLangSys}, langs...)
		}
		for _, ls := range langs {
			if ls.RequiredFeatureIndex != otlayout.NoRequiredFeature {
				reachable[int(ls.RequiredFeatureIndex)] = true
			}
			for _, f := range ls.FeatureIndices {
				reachable[int(f)] = true
			}
		}
	}
	lookups := make(map[int]bool)
	for i, f := range gsub.Features {
		if !reachable[i] || !opts.LayoutFeatures.Allows(f.Tag) {
			continue
		}
		for _, l := range f.LookupIndices {
			lookups[int(l)] = true
		}
	}
	return gsub, func(l int) bool { return lookups[l] }
}
