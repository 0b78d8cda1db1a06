package otlayout

import (
	"fmt"
	"math/bits"
	"slices"

	"github.com/npillmayer/otsubset/ot"
)

// SubtableSubsetter rewrites a lookup subtable at offset within src for a
// subset font. A nil result without error means that nothing of the subtable
// survives and it should be dropped from its lookup.
type SubtableSubsetter func(src ot.Segment, offset int, m GlyphMap) ([]byte, error)

type subtableKind struct {
	table      ot.Tag
	lookupType uint16
}

var subsetters = map[subtableKind]SubtableSubsetter{
	{ot.T("GSUB"), 1}: subsetSingleSubst,
	{ot.T("GSUB"), 4}: subsetLigatureSubst,
	{ot.T("GPOS"), 1}: subsetSinglePos,
	{ot.T("GPOS"), 2}: subsetPairPos,
}

// SubsetterFor returns the subtable subsetter for a lookup type of GSUB or GPOS,
// or false if lookups of this type cannot be subsetted.
func SubsetterFor(table ot.Tag, lookupType uint16) (SubtableSubsetter, bool) {
	s, ok := subsetters[subtableKind{table, lookupType}]
	return s, ok
}

// checkOffset fails if an offset does not fit into 16 bits.
func checkOffset(off int) (uint16, error) {
	if off < 0 || off > 0xffff {
		return 0, fmt.Errorf("offset %d: %w", off, ErrOffsetOverflow)
	}
	return uint16(off), nil
}

// patchOffset sets the 16 bit offset at pos to the current end of buf,
// relative to base.
func patchOffset(buf *ot.Buffer, pos, base int) error {
	off, err := checkOffset(buf.Len() - base)
	if err != nil {
		return err
	}
	return buf.SetU16(pos, off)
}

// --- GSUB 1 ----------------------------------------------------------------

type singleRule struct {
	in, out ot.GlyphIndex
}

func subsetSingleSubst(src ot.Segment, offset int, m GlyphMap) ([]byte, error) {
	r := src.Reader()
	format, covOff := r.U16(offset), int(r.U16(offset+2))
	if r.Err() != nil {
		return nil, r.Err()
	}
	entries, err := SubsetCoverage(src, offset+covOff, m)
	if err != nil {
		return nil, err
	}
	var rules []singleRule
	switch format {
	case 1:
		delta := r.U16(offset + 4)
		for _, e := range entries {
			if out, ok := m.Map(e.Old + ot.GlyphIndex(delta)); ok { // wraps modulo 65536
				rules = append(rules, singleRule{e.New, out})
			}
		}
	case 2:
		count := int(r.U16(offset + 4))
		for _, e := range entries {
			if e.Index >= count {
				continue
			}
			if out, ok := m.Map(r.Glyph(offset + 6 + 2*e.Index)); ok {
				rules = append(rules, singleRule{e.New, out})
			}
		}
	default:
		return nil, errFontFormat(fmt.Sprintf("single substitution format %d", format))
	}
	if r.Err() != nil {
		return nil, r.Err()
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return buildSingleSubst(rules), nil
}

// buildSingleSubst writes format 1 if all rules share a delta, format 2 otherwise.
func buildSingleSubst(rules []singleRule) []byte {
	in := make([]ot.GlyphIndex, len(rules))
	delta, uniform := rules[0].out-rules[0].in, true
	for i, rule := range rules {
		in[i] = rule.in
		uniform = uniform && rule.out-rule.in == delta
	}
	cov := BuildCoverage(in)
	if uniform {
		buf := ot.NewBuffer(6 + len(cov))
		buf.PutU16(1)
		buf.PutU16(6)
		buf.PutU16(uint16(delta))
		buf.Append(cov)
		return buf.Bytes()
	}
	buf := ot.NewBuffer(6 + 2*len(rules) + len(cov))
	buf.PutU16(2)
	buf.PutU16(uint16(6 + 2*len(rules)))
	buf.PutU16(uint16(len(rules)))
	for _, rule := range rules {
		buf.PutGlyph(rule.out)
	}
	buf.Append(cov)
	return buf.Bytes()
}

// --- GSUB 4 ----------------------------------------------------------------

type ligature struct {
	glyph      ot.GlyphIndex
	components []ot.GlyphIndex // without the first component
}

type ligatureSet struct {
	first     ot.GlyphIndex
	ligatures []ligature
}

func subsetLigatureSubst(src ot.Segment, offset int, m GlyphMap) ([]byte, error) {
	r := src.Reader()
	format, covOff, setCount := r.U16(offset), int(r.U16(offset+2)), int(r.U16(offset+4))
	if r.Err() != nil {
		return nil, r.Err()
	}
	if format != 1 {
		return nil, errFontFormat(fmt.Sprintf("ligature substitution format %d", format))
	}
	entries, err := SubsetCoverage(src, offset+covOff, m)
	if err != nil {
		return nil, err
	}
	var sets []ligatureSet
	for _, e := range entries {
		if e.Index >= setCount {
			continue
		}
		set := ligatureSet{first: e.New}
		at := offset + int(r.U16(offset+6+2*e.Index))
		n := int(r.U16(at))
		for i := 0; i < n && r.Err() == nil; i++ {
			lig := at + int(r.U16(at+2+2*i))
			if l, ok := remapLigature(r, lig, m); ok {
				set.ligatures = append(set.ligatures, l)
			}
		}
		if r.Err() != nil {
			return nil, r.Err()
		}
		if len(set.ligatures) > 0 {
			sets = append(sets, set)
		}
	}
	if len(sets) == 0 {
		return nil, nil
	}
	return buildLigatureSubst(sets)
}

// remapLigature reads a ligature table and maps its glyphs. A ligature is
// dropped unless all of its glyphs survive.
func remapLigature(r *ot.Reader, at int, m GlyphMap) (ligature, bool) {
	g, ok := m.Map(r.Glyph(at))
	compCount := int(r.U16(at + 2))
	l := ligature{glyph: g}
	for j := 1; j < compCount && ok && r.Err() == nil; j++ {
		var c ot.GlyphIndex
		c, ok = m.Map(r.Glyph(at + 2 + 2*j))
		l.components = append(l.components, c)
	}
	return l, ok && r.Err() == nil && compCount > 0
}

// buildLigatureSubst writes a ligature substitution bottom-up: every ligature
// set directly follows the header, every ligature directly follows its set.
func buildLigatureSubst(sets []ligatureSet) ([]byte, error) {
	buf := ot.NewBuffer(256)
	buf.PutU16(1)
	covPos := buf.Reserve16()
	buf.PutU16(uint16(len(sets)))
	setPos := make([]int, len(sets))
	for i := range sets {
		setPos[i] = buf.Reserve16()
	}
	first := make([]ot.GlyphIndex, len(sets))
	for i, set := range sets {
		first[i] = set.first
		if err := patchOffset(buf, setPos[i], 0); err != nil {
			return nil, err
		}
		base := buf.Len()
		buf.PutU16(uint16(len(set.ligatures)))
		ligPos := make([]int, len(set.ligatures))
		for j := range set.ligatures {
			ligPos[j] = buf.Reserve16()
		}
		for j, l := range set.ligatures {
			if err := patchOffset(buf, ligPos[j], base); err != nil {
				return nil, err
			}
			buf.PutGlyph(l.glyph)
			buf.PutU16(uint16(len(l.components) + 1))
			for _, c := range l.components {
				buf.PutGlyph(c)
			}
		}
	}
	if err := patchOffset(buf, covPos, 0); err != nil {
		return nil, err
	}
	buf.Append(BuildCoverage(first))
	return buf.Bytes(), nil
}

// --- GPOS 1 ----------------------------------------------------------------

// Value format bits of device table offsets (XPlaDevice … YAdvDevice).
const valueFormatDevices = 0x00f0

// valueRecordSize returns the size of a value record in bytes.
func valueRecordSize(format uint16) int {
	return 2 * bits.OnesCount16(format)
}

// copyValueRecord copies a value record. Device table offsets are relative to
// the source subtable and cannot be carried over; they are cleared.
func copyValueRecord(r *ot.Reader, at int, format uint16) []byte {
	size := valueRecordSize(format)
	rec := slices.Clone(r.View(at, size))
	if rec == nil || format&valueFormatDevices == 0 {
		return rec
	}
	pos := 0
	for bit := uint16(1); bit <= 0x0080; bit <<= 1 {
		if format&bit == 0 {
			continue
		}
		if bit&valueFormatDevices != 0 {
			rec[pos], rec[pos+1] = 0, 0
		}
		pos += 2
	}
	return rec
}

func subsetSinglePos(src ot.Segment, offset int, m GlyphMap) ([]byte, error) {
	r := src.Reader()
	format, covOff, vf := r.U16(offset), int(r.U16(offset+2)), r.U16(offset+4)
	if r.Err() != nil {
		return nil, r.Err()
	}
	entries, err := SubsetCoverage(src, offset+covOff, m)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	size := valueRecordSize(vf)
	switch format {
	case 1:
		rec := copyValueRecord(r, offset+6, vf)
		if r.Err() != nil {
			return nil, r.Err()
		}
		cov := BuildCoverage(newGlyphs(entries))
		buf := ot.NewBuffer(6 + size + len(cov))
		buf.PutU16(1)
		buf.PutU16(uint16(6 + size))
		buf.PutU16(vf)
		buf.Append(rec)
		buf.Append(cov)
		return buf.Bytes(), nil
	case 2:
		count := int(r.U16(offset + 6))
		buf := ot.NewBuffer(8 + size*len(entries))
		buf.PutU16(2)
		covPos := buf.Reserve16()
		buf.PutU16(vf)
		cntPos := buf.Reserve16()
		var glyphs []ot.GlyphIndex
		for _, e := range entries {
			if e.Index >= count {
				continue
			}
			buf.Append(copyValueRecord(r, offset+8+size*e.Index, vf))
			glyphs = append(glyphs, e.New)
		}
		if r.Err() != nil {
			return nil, r.Err()
		}
		if len(glyphs) == 0 {
			return nil, nil
		}
		buf.SetU16(cntPos, uint16(len(glyphs)))
		if err := patchOffset(buf, covPos, 0); err != nil {
			return nil, err
		}
		buf.Append(BuildCoverage(glyphs))
		return buf.Bytes(), nil
	}
	return nil, errFontFormat(fmt.Sprintf("single positioning format %d", format))
}

// --- GPOS 2 ----------------------------------------------------------------

type pairRecord struct {
	second ot.GlyphIndex
	values []byte // value records 1 and 2
}

type pairSet struct {
	first   ot.GlyphIndex
	records []pairRecord
}

func subsetPairPos(src ot.Segment, offset int, m GlyphMap) ([]byte, error) {
	r := src.Reader()
	format, covOff := r.U16(offset), int(r.U16(offset+2))
	vf1, vf2, setCount := r.U16(offset+4), r.U16(offset+6), int(r.U16(offset+8))
	if r.Err() != nil {
		return nil, r.Err()
	}
	if format != 1 {
		// class based pair positioning is not subsetted
		tracer().Infof("dropping pair positioning format %d", format)
		return nil, nil
	}
	entries, err := SubsetCoverage(src, offset+covOff, m)
	if err != nil {
		return nil, err
	}
	size1, size2 := valueRecordSize(vf1), valueRecordSize(vf2)
	var sets []pairSet
	for _, e := range entries {
		if e.Index >= setCount {
			continue
		}
		set := pairSet{first: e.New}
		at := offset + int(r.U16(offset+10+2*e.Index))
		n := int(r.U16(at))
		for i := 0; i < n && r.Err() == nil; i++ {
			rec := at + 2 + i*(2+size1+size2)
			second, ok := m.Map(r.Glyph(rec))
			if !ok {
				continue
			}
			values := copyValueRecord(r, rec+2, vf1)
			values = append(values, copyValueRecord(r, rec+2+size1, vf2)...)
			set.records = append(set.records, pairRecord{second: second, values: values})
		}
		if r.Err() != nil {
			return nil, r.Err()
		}
		if len(set.records) > 0 {
			slices.SortStableFunc(set.records, func(a, b pairRecord) int {
				return int(a.second) - int(b.second)
			})
			sets = append(sets, set)
		}
	}
	if len(sets) == 0 {
		return nil, nil
	}
	buf := ot.NewBuffer(256)
	buf.PutU16(1)
	covPos := buf.Reserve16()
	buf.PutU16(vf1)
	buf.PutU16(vf2)
	buf.PutU16(uint16(len(sets)))
	setPos := make([]int, len(sets))
	for i := range sets {
		setPos[i] = buf.Reserve16()
	}
	first := make([]ot.GlyphIndex, len(sets))
	for i, set := range sets {
		first[i] = set.first
		if err := patchOffset(buf, setPos[i], 0); err != nil {
			return nil, err
		}
		buf.PutU16(uint16(len(set.records)))
		for _, rec := range set.records {
			buf.PutGlyph(rec.second)
			buf.Append(rec.values)
		}
	}
	if err := patchOffset(buf, covPos, 0); err != nil {
		return nil, err
	}
	buf.Append(BuildCoverage(first))
	return buf.Bytes(), nil
}
