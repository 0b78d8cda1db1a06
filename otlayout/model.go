package otlayout

import (
	"fmt"

	"github.com/npillmayer/otsubset/ot"
)

// Table is the decoded structure of a GSUB or GPOS table: script list,
// feature list and lookup list. Lookup subtables stay in binary form and are
// referenced by their position in the source table.
type Table struct {
	Tag      ot.Tag // GSUB or GPOS
	Scripts  []*Script
	Features []*Feature
	Lookups  []*Lookup
	src      ot.Segment
}

// Script is an entry of the script list.
type Script struct {
	Tag            ot.Tag
	DefaultLangSys *LangSys // may be nil
	LangSys        []*LangSys
}

// NoRequiredFeature flags a language system without a required feature.
const NoRequiredFeature uint16 = 0xffff

// LangSys is a language system of a script.
type LangSys struct {
	Tag                  ot.Tag // 0 for the default language system
	RequiredFeatureIndex uint16 // NoRequiredFeature if none
	FeatureIndices       []uint16
}

// HasFeatures reports whether a language system references any feature.
func (ls *LangSys) HasFeatures() bool {
	return ls.RequiredFeatureIndex != NoRequiredFeature || len(ls.FeatureIndices) > 0
}

// Feature is an entry of the feature list.
type Feature struct {
	Tag           ot.Tag
	LookupIndices []uint16
}

// Lookup is an entry of the lookup list. Extension lookups are unwrapped:
// Type is the type of the wrapped subtables, and subtable offsets point to
// the wrapped subtables.
type Lookup struct {
	Type             uint16
	Flag             uint16
	MarkFilteringSet uint16 // valid if Flag has UseMarkFilteringSet
	Subtables        []int  // offsets of subtables within the source table
	Extension        bool   // was wrapped in extension subtables
}

// UseMarkFilteringSet is the lookup flag announcing a mark filtering set.
const UseMarkFilteringSet uint16 = 0x0010

// Extension lookup types of GSUB and GPOS.
const (
	gsubExtension = 7
	gposExtension = 9
)

// Parse decodes the object model of a GSUB or GPOS table. Errors in script or
// feature records are fatal, errors within single lookups drop the lookup's
// broken subtables.
func Parse(tag ot.Tag, data []byte) (*Table, error) {
	src := ot.Segment(data)
	r := src.Reader()
	major := r.U16(0)
	slOff, flOff, llOff := int(r.U16(4)), int(r.U16(6)), int(r.U16(8))
	if r.Err() != nil {
		return nil, fmt.Errorf("%s header: %w", tag, r.Err())
	}
	if major != 1 {
		return nil, fmt.Errorf("%s version %d: %w", tag, major, ot.ErrUnsupportedFormat)
	}
	t := &Table{Tag: tag, src: src}
	var err error
	if slOff != 0 {
		if t.Scripts, err = parseScriptList(src, slOff); err != nil {
			return nil, fmt.Errorf("%s script list: %w", tag, err)
		}
	}
	if flOff != 0 {
		if t.Features, err = parseFeatureList(src, flOff); err != nil {
			return nil, fmt.Errorf("%s feature list: %w", tag, err)
		}
	}
	if llOff != 0 {
		if t.Lookups, err = parseLookupList(src, llOff, tag); err != nil {
			return nil, fmt.Errorf("%s lookup list: %w", tag, err)
		}
	}
	tracer().Debugf("%s has %d scripts, %d features, %d lookups", tag,
		len(t.Scripts), len(t.Features), len(t.Lookups))
	return t, nil
}

// Source returns the binary data the table has been parsed from.
func (t *Table) Source() ot.Segment {
	return t.src
}

func parseScriptList(src ot.Segment, offset int) ([]*Script, error) {
	r := src.Reader()
	count := int(r.U16(offset))
	scripts := make([]*Script, 0, count)
	for i := 0; i < count && r.Err() == nil; i++ {
		rec := offset + 2 + 6*i
		s := &Script{Tag: ot.Tag(r.U32(rec))}
		at := offset + int(r.U16(rec+4))
		defOff := int(r.U16(at))
		lsCount := int(r.U16(at + 2))
		if r.Err() != nil {
			break
		}
		var err error
		if defOff != 0 {
			if s.DefaultLangSys, err = parseLangSys(src, at+defOff, 0); err != nil {
				return nil, err
			}
		}
		for j := 0; j < lsCount; j++ {
			lrec := at + 4 + 6*j
			ltag, loff := ot.Tag(r.U32(lrec)), int(r.U16(lrec+4))
			if r.Err() != nil {
				return nil, r.Err()
			}
			ls, err := parseLangSys(src, at+loff, ltag)
			if err != nil {
				return nil, err
			}
			s.LangSys = append(s.LangSys, ls)
		}
		scripts = append(scripts, s)
	}
	return scripts, r.Err()
}

func parseLangSys(src ot.Segment, offset int, tag ot.Tag) (*LangSys, error) {
	r := src.Reader()
	ls := &LangSys{Tag: tag, RequiredFeatureIndex: r.U16(offset + 2)}
	count := int(r.U16(offset + 4))
	ls.FeatureIndices = make([]uint16, 0, count)
	for i := 0; i < count && r.Err() == nil; i++ {
		ls.FeatureIndices = append(ls.FeatureIndices, r.U16(offset+6+2*i))
	}
	return ls, r.Err()
}

func parseFeatureList(src ot.Segment, offset int) ([]*Feature, error) {
	r := src.Reader()
	count := int(r.U16(offset))
	features := make([]*Feature, 0, count)
	for i := 0; i < count && r.Err() == nil; i++ {
		rec := offset + 2 + 6*i
		f := &Feature{Tag: ot.Tag(r.U32(rec))}
		at := offset + int(r.U16(rec+4))
		n := int(r.U16(at + 2))
		for j := 0; j < n && r.Err() == nil; j++ {
			f.LookupIndices = append(f.LookupIndices, r.U16(at+4+2*j))
		}
		features = append(features, f)
	}
	return features, r.Err()
}

func parseLookupList(src ot.Segment, offset int, tag ot.Tag) ([]*Lookup, error) {
	r := src.Reader()
	count := int(r.U16(offset))
	if r.Err() != nil {
		return nil, r.Err()
	}
	lookups := make([]*Lookup, 0, count)
	for i := 0; i < count; i++ {
		at := offset + int(r.U16(offset+2+2*i))
		if r.Err() != nil {
			return nil, r.Err()
		}
		lookups = append(lookups, parseLookup(src, at, tag, i))
	}
	return lookups, nil
}

// parseLookup never fails: a lookup with broken structure ends up without
// subtables and will be dropped during pruning.
func parseLookup(src ot.Segment, at int, tag ot.Tag, inx int) *Lookup {
	r := src.Reader()
	l := &Lookup{Type: r.U16(at), Flag: r.U16(at + 2)}
	n := int(r.U16(at + 4))
	if l.Flag&UseMarkFilteringSet != 0 {
		l.MarkFilteringSet = r.U16(at + 6 + 2*n)
	}
	if r.Err() != nil {
		tracer().Errorf("%s lookup %d: %v", tag, inx, r.Err())
		return &Lookup{Type: l.Type}
	}
	ext := uint16(gsubExtension)
	if tag == ot.T("GPOS") {
		ext = gposExtension
	}
	isExt := l.Type == ext
	for j := 0; j < n; j++ {
		sub := at + int(r.U16(at+6+2*j))
		if isExt {
			// extension format 1: format, extensionLookupType, extensionOffset (32 bit)
			typ, off := r.U16(sub+2), r.U32(sub+4)
			if r.Err() != nil || typ == ext {
				tracer().Errorf("%s lookup %d: broken extension subtable %d", tag, inx, j)
				continue
			}
			if l.Extension && typ != l.Type {
				tracer().Errorf("%s lookup %d: extension subtables of mixed type", tag, inx)
				continue
			}
			l.Type, l.Extension = typ, true
			sub += int(off)
		}
		l.Subtables = append(l.Subtables, sub)
	}
	if isExt && !l.Extension { // extension lookup without usable subtables
		l.Subtables = nil
	}
	return l
}
