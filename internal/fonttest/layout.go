package fonttest

import "slices"

// LangSys describes a language system of a script. An empty tag denotes the
// script's default language system.
type LangSys struct {
	Tag      string
	Required uint16 // 0xffff for none
	Features []uint16
}

// Script describes a script with its language systems.
type Script struct {
	Tag     string
	LangSys []LangSys
}

// Feature describes a feature record.
type Feature struct {
	Tag     string
	Lookups []uint16
}

// Lookup describes a lookup with pre-built subtables.
type Lookup struct {
	Type      uint16
	Flag      uint16
	Subtables [][]byte
}

// Layout writes a GSUB or GPOS table (version 1.0). Structures are written
// in the order given, offsets are 16 bit.
func Layout(scripts []Script, features []Feature, lookups []Lookup) []byte {
	b := be32(nil, 0x00010000)
	b = append(b, 0, 0, 0, 0, 0, 0)
	put := func(at, v int) { b[at], b[at+1] = byte(v>>8), byte(v) }
	// ScriptList
	sl := len(b)
	put(4, sl)
	b = be16(b, uint16(len(scripts)))
	recs := len(b)
	b = append(b, make([]byte, 6*len(scripts))...)
	for i, s := range scripts {
		copy(b[recs+6*i:], s.Tag)
		st := len(b)
		put(recs+6*i+4, st-sl)
		b = append(b, 0, 0) // default LangSys offset
		var named []LangSys
		var def *LangSys
		for _, ls := range s.LangSys {
			if ls.Tag == "" {
				def = &ls
			} else {
				named = append(named, ls)
			}
		}
		b = be16(b, uint16(len(named)))
		lrecs := len(b)
		b = append(b, make([]byte, 6*len(named))...)
		writeLangSys := func(ls LangSys) {
			b = be16(b, 0)
			b = be16(b, ls.Required)
			b = be16(b, uint16(len(ls.Features)))
			for _, f := range ls.Features {
				b = be16(b, f)
			}
		}
		if def != nil {
			put(st, len(b)-st)
			writeLangSys(*def)
		}
		for j, ls := range named {
			copy(b[lrecs+6*j:], ls.Tag)
			put(lrecs+6*j+4, len(b)-st)
			writeLangSys(ls)
		}
	}
	// FeatureList
	fl := len(b)
	put(6, fl)
	b = be16(b, uint16(len(features)))
	frecs := len(b)
	b = append(b, make([]byte, 6*len(features))...)
	for i, f := range features {
		copy(b[frecs+6*i:], f.Tag)
		put(frecs+6*i+4, len(b)-fl)
		b = be16(b, 0) // feature params
		b = be16(b, uint16(len(f.Lookups)))
		for _, l := range f.Lookups {
			b = be16(b, l)
		}
	}
	// LookupList
	ll := len(b)
	put(8, ll)
	b = be16(b, uint16(len(lookups)))
	lrecs := len(b)
	b = append(b, make([]byte, 2*len(lookups))...)
	for i, l := range lookups {
		lt := len(b)
		put(lrecs+2*i, lt-ll)
		b = be16(b, l.Type)
		b = be16(b, l.Flag)
		b = be16(b, uint16(len(l.Subtables)))
		subrecs := len(b)
		b = append(b, make([]byte, 2*len(l.Subtables))...)
		for j, st := range l.Subtables {
			put(subrecs+2*j, len(b)-lt)
			b = append(b, st...)
		}
	}
	return b
}

// Coverage1 writes a format 1 coverage table.
func Coverage1(glyphs ...uint16) []byte {
	b := be16(nil, 1)
	b = be16(b, uint16(len(glyphs)))
	for _, g := range glyphs {
		b = be16(b, g)
	}
	return b
}

// Range is a range record of a format 2 coverage table.
type Range struct{ Start, End, StartIndex uint16 }

// Coverage2 writes a format 2 coverage table.
func Coverage2(ranges ...Range) []byte {
	b := be16(nil, 2)
	b = be16(b, uint16(len(ranges)))
	for _, r := range ranges {
		b = be16(b, r.Start)
		b = be16(b, r.End)
		b = be16(b, r.StartIndex)
	}
	return b
}

// SingleSubst1 writes a GSUB type 1 format 1 subtable (coverage follows the header).
func SingleSubst1(delta int16, glyphs ...uint16) []byte {
	b := be16(nil, 1)
	b = be16(b, 6)
	b = be16(b, uint16(delta))
	return append(b, Coverage1(glyphs...)...)
}

// SingleSubst2 writes a GSUB type 1 format 2 subtable from an input → output map.
func SingleSubst2(m map[uint16]uint16) []byte {
	in := sortedKeys(m)
	b := be16(nil, 2)
	b = be16(b, uint16(6+2*len(in)))
	b = be16(b, uint16(len(in)))
	for _, g := range in {
		b = be16(b, m[g])
	}
	return append(b, Coverage1(in...)...)
}

// MultipleSubst1 writes a GSUB type 2 subtable.
func MultipleSubst1(m map[uint16][]uint16) []byte {
	in := sortedKeys(m)
	b := be16(nil, 1)
	b = append(b, 0, 0)
	b = be16(b, uint16(len(in)))
	recs := len(b)
	b = append(b, make([]byte, 2*len(in))...)
	for i, g := range in {
		putAt(b, recs+2*i, len(b))
		b = be16(b, uint16(len(m[g])))
		for _, s := range m[g] {
			b = be16(b, s)
		}
	}
	putAt(b, 2, len(b))
	return append(b, Coverage1(in...)...)
}

// AlternateSubst1 writes a GSUB type 3 subtable. Its layout equals type 2.
func AlternateSubst1(m map[uint16][]uint16) []byte {
	return MultipleSubst1(m)
}

// Ligature describes one ligature rule.
type Ligature struct {
	Components []uint16 // all components, including the first one
	Glyph      uint16
}

// LigatureSubst1 writes a GSUB type 4 subtable.
func LigatureSubst1(ligs ...Ligature) []byte {
	sets := map[uint16][]Ligature{}
	for _, l := range ligs {
		sets[l.Components[0]] = append(sets[l.Components[0]], l)
	}
	first := sortedKeys(sets)
	b := be16(nil, 1)
	b = append(b, 0, 0)
	b = be16(b, uint16(len(first)))
	recs := len(b)
	b = append(b, make([]byte, 2*len(first))...)
	for i, g := range first {
		set := len(b)
		putAt(b, recs+2*i, set)
		b = be16(b, uint16(len(sets[g])))
		lrecs := len(b)
		b = append(b, make([]byte, 2*len(sets[g]))...)
		for j, l := range sets[g] {
			putAt(b, lrecs+2*j, len(b)-set)
			b = be16(b, l.Glyph)
			b = be16(b, uint16(len(l.Components)))
			for _, c := range l.Components[1:] {
				b = be16(b, c)
			}
		}
	}
	putAt(b, 2, len(b))
	return append(b, Coverage1(first...)...)
}

// SinglePos1 writes a GPOS type 1 format 1 subtable with an XAdvance value.
func SinglePos1(xAdvance int16, glyphs ...uint16) []byte {
	b := be16(nil, 1)
	b = be16(b, 8)
	b = be16(b, 0x0004)
	b = be16(b, uint16(xAdvance))
	return append(b, Coverage1(glyphs...)...)
}

// SinglePos2 writes a GPOS type 1 format 2 subtable with XPlacement+XAdvance values.
func SinglePos2(values map[uint16][2]int16) []byte {
	in := sortedKeys(values)
	b := be16(nil, 2)
	b = be16(b, uint16(8+4*len(in)))
	b = be16(b, 0x0005)
	b = be16(b, uint16(len(in)))
	for _, g := range in {
		b = be16(b, uint16(values[g][0]))
		b = be16(b, uint16(values[g][1]))
	}
	return append(b, Coverage1(in...)...)
}

// Pair is a kerning pair for PairPos1, with an XAdvance for the first glyph.
type Pair struct {
	First, Second uint16
	XAdvance      int16
}

// PairPos1 writes a GPOS type 2 format 1 subtable (valueFormat1 = XAdvance, valueFormat2 = 0).
func PairPos1(pairs ...Pair) []byte {
	sets := map[uint16][]Pair{}
	for _, p := range pairs {
		sets[p.First] = append(sets[p.First], p)
	}
	first := sortedKeys(sets)
	b := be16(nil, 1)
	b = append(b, 0, 0)
	b = be16(b, 0x0004)
	b = be16(b, 0)
	b = be16(b, uint16(len(first)))
	recs := len(b)
	b = append(b, make([]byte, 2*len(first))...)
	for i, g := range first {
		putAt(b, recs+2*i, len(b))
		ps := sets[g]
		slices.SortFunc(ps, func(x, y Pair) int { return int(x.Second) - int(y.Second) })
		b = be16(b, uint16(len(ps)))
		for _, p := range ps {
			b = be16(b, p.Second)
			b = be16(b, uint16(p.XAdvance))
		}
	}
	putAt(b, 2, len(b))
	return append(b, Coverage1(first...)...)
}

// Extension wraps a subtable of a given lookup type into an extension subtable.
func Extension(lookupType uint16, subtable []byte) []byte {
	b := be16(nil, 1)
	b = be16(b, lookupType)
	b = be32(b, 8)
	return append(b, subtable...)
}

// ClassDef1 writes a format 1 class definition table.
func ClassDef1(start uint16, classes ...uint16) []byte {
	b := be16(nil, 1)
	b = be16(b, start)
	b = be16(b, uint16(len(classes)))
	for _, c := range classes {
		b = be16(b, c)
	}
	return b
}

// GDEF writes a GDEF table version 1.0 with a glyph class definition.
func GDEF(glyphClassDef []byte) []byte {
	b := be32(nil, 0x00010000)
	b = be16(b, 12) // glyph class def
	b = be16(b, 0)  // attach list
	b = be16(b, 0)  // lig caret list
	b = be16(b, 0)  // mark attach class def
	return append(b, glyphClassDef...)
}

func putAt(b []byte, at, v int) {
	b[at], b[at+1] = byte(v>>8), byte(v)
}

func sortedKeys[V any](m map[uint16]V) []uint16 {
	keys := make([]uint16, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
