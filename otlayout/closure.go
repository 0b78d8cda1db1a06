package otlayout

import (
	"github.com/npillmayer/otsubset/ot"
)

// GlyphSet is a mutable set of glyphs, used for glyph closure computation.
type GlyphSet interface {
	Contains(ot.GlyphIndex) bool
	// Add adds a glyph and reports whether the set has grown.
	Add(ot.GlyphIndex) bool
}

// ClosureGSUB adds to glyphs every glyph reachable by substitutions of GSUB
// lookups, until no more glyphs are added. If selected is non-nil, only
// lookups for which it returns true are considered.
//
// Single substitutions add the substitute of every retained input glyph.
// Multiple and alternate substitutions add all of their outputs. A ligature is
// added only if all of its components are retained. Reverse chaining
// substitutions add the substitute of retained input glyphs without regard to
// context.
//
// Broken subtables are skipped. The number of glyphs added is returned.
func ClosureGSUB(t *Table, glyphs GlyphSet, selected func(lookup int) bool) int {
	if t == nil {
		return 0
	}
	total := 0
	for pass := 1; ; pass++ {
		added := 0
		for i, l := range t.Lookups {
			if selected != nil && !selected(i) {
				continue
			}
			for _, sub := range l.Subtables {
				n, err := closeSubtable(t.src, sub, l.Type, glyphs)
				if err != nil {
					tracer().Debugf("GSUB closure: lookup %d: %v", i, err)
				}
				added += n
			}
		}
		tracer().Debugf("GSUB closure pass %d added %d glyphs", pass, added)
		total += added
		if added == 0 {
			return total
		}
	}
}

func closeSubtable(src ot.Segment, offset int, lookupType uint16, glyphs GlyphSet) (int, error) {
	r := src.Reader()
	format, covOff := r.U16(offset), int(r.U16(offset+2))
	if r.Err() != nil {
		return 0, r.Err()
	}
	cov, err := ParseCoverage(src, offset+covOff)
	if err != nil {
		return 0, err
	}
	added := 0
	add := func(g ot.GlyphIndex) {
		if r.Err() == nil && glyphs.Add(g) {
			added++
		}
	}
	switch lookupType {
	case 1:
		for inx, g := range cov {
			if !glyphs.Contains(g) {
				continue
			}
			switch format {
			case 1:
				add(g + ot.GlyphIndex(r.U16(offset+4)))
			case 2:
				if inx < int(r.U16(offset+4)) {
					add(r.Glyph(offset + 6 + 2*inx))
				}
			}
		}
	case 2, 3: // sequence and alternate sets share their layout
		count := int(r.U16(offset + 4))
		for inx, g := range cov {
			if inx >= count || !glyphs.Contains(g) {
				continue
			}
			at := offset + int(r.U16(offset+6+2*inx))
			n := int(r.U16(at))
			for j := 0; j < n && r.Err() == nil; j++ {
				add(r.Glyph(at + 2 + 2*j))
			}
		}
	case 4:
		count := int(r.U16(offset + 4))
		for inx, g := range cov {
			if inx >= count || !glyphs.Contains(g) {
				continue
			}
			at := offset + int(r.U16(offset+6+2*inx))
			n := int(r.U16(at))
			for j := 0; j < n && r.Err() == nil; j++ {
				lig := at + int(r.U16(at+2+2*j))
				if componentsRetained(r, lig, glyphs) {
					add(r.Glyph(lig))
				}
			}
		}
	case 8:
		backtrack := int(r.U16(offset + 4))
		lookahead := int(r.U16(offset + 6 + 2*backtrack))
		at := offset + 8 + 2*backtrack + 2*lookahead
		count := int(r.U16(at))
		for inx, g := range cov {
			if inx < count && glyphs.Contains(g) {
				add(r.Glyph(at + 2 + 2*inx))
			}
		}
	}
	return added, r.Err()
}

func componentsRetained(r *ot.Reader, lig int, glyphs GlyphSet) bool {
	n := int(r.U16(lig + 2))
	for k := 1; k < n; k++ {
		if !glyphs.Contains(r.Glyph(lig + 2 + 2*k)) {
			return false
		}
	}
	return r.Err() == nil
}
