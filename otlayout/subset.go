package otlayout

import (
	"errors"
	"slices"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/otsubset/ot"
)

// Wildcard is a tag which makes a TagFilter allow every tag.
var Wildcard = ot.T("*")

// TagFilter is an allow-list of feature or script tags. A nil filter allows
// all tags, as does a filter containing Wildcard.
type TagFilter map[ot.Tag]struct{}

// NewTagFilter creates a filter from tag strings. Tags shorter than four
// characters are padded with spaces.
func NewTagFilter(tags ...string) TagFilter {
	f := make(TagFilter, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			f[ot.T(t)] = struct{}{}
		}
	}
	return f
}

// Allows reports whether tag t passes the filter.
func (f TagFilter) Allows(t ot.Tag) bool {
	if f == nil {
		return true
	}
	if _, all := f[Wildcard]; all {
		return true
	}
	_, ok := f[t]
	return ok
}

// Result is the outcome of subsetting a GSUB or GPOS table.
type Result struct {
	Data             []byte       // serialized table, nil if the table is dropped
	RetainedLookups  *treeset.Set // source lookup indices (int) surviving pruning
	RetainedFeatures *treeset.Set // source feature indices (int) surviving pruning
	LookupMap        map[int]int  // source lookup index → subset lookup index
	FeatureMap       map[int]int  // source feature index → subset feature index
	subtables        [][][]byte   // rewritten subtables per surviving lookup
	lookups          []*Lookup    // surviving lookups, in output order
	features         []*Feature   // surviving features, remapped, in output order
	scripts          []*Script    // surviving scripts, remapped
}

// Dropped reports whether nothing of the table survived.
func (res *Result) Dropped() bool {
	return res.Data == nil
}

// SubsetTable parses a GSUB or GPOS table and subsets it. See Subset.
func SubsetTable(tag ot.Tag, data []byte, m GlyphMap, features, scripts TagFilter) (*Result, error) {
	t, err := Parse(tag, data)
	if err != nil {
		return nil, err
	}
	return Subset(t, m, features, scripts)
}

// Subset prunes a layout table for a glyph mapping and serializes it.
// Pruning is strictly ordered: lookups, then features, then scripts and their
// language systems. Each phase renumbers the survivors of the previous one.
//
// Out-of-bounds reads are returned as errors; other malformed subtables are
// dropped. If no feature or no script survives, Result.Data is nil.
func Subset(t *Table, m GlyphMap, features, scripts TagFilter) (*Result, error) {
	res := &Result{
		RetainedLookups:  treeset.NewWithIntComparator(),
		RetainedFeatures: treeset.NewWithIntComparator(),
	}
	if err := res.pruneLookups(t, m); err != nil {
		return nil, err
	}
	res.pruneFeatures(t, features)
	res.pruneScripts(t, scripts)
	if len(res.features) == 0 || len(res.scripts) == 0 {
		tracer().Infof("%s dropped: %d features, %d scripts survive", t.Tag,
			len(res.features), len(res.scripts))
		return res, nil
	}
	data, err := res.serialize()
	if err != nil {
		return nil, err
	}
	res.Data = data
	tracer().Debugf("%s subset: %d lookups, %d features, %d scripts, %d bytes", t.Tag,
		len(res.lookups), len(res.features), len(res.scripts), len(data))
	return res, nil
}

func (res *Result) pruneLookups(t *Table, m GlyphMap) error {
	res.LookupMap = make(map[int]int)
	for i, l := range t.Lookups {
		subsetter, ok := SubsetterFor(t.Tag, l.Type)
		if !ok {
			tracer().Debugf("%s lookup %d: type %d not subsetted, dropped", t.Tag, i, l.Type)
			continue
		}
		var subs [][]byte
		for _, off := range l.Subtables {
			b, err := subsetter(t.src, off, m)
			if errors.Is(err, ot.ErrBufferBounds) || errors.Is(err, ErrOffsetOverflow) {
				return err
			} else if err != nil {
				tracer().Errorf("%s lookup %d: subtable dropped: %v", t.Tag, i, err)
				continue
			}
			if len(b) > 0 {
				subs = append(subs, b)
			}
		}
		if len(subs) == 0 {
			continue
		}
		res.LookupMap[i] = len(res.lookups)
		res.RetainedLookups.Add(i)
		res.lookups = append(res.lookups, l)
		res.subtables = append(res.subtables, subs)
	}
	return nil
}

func (res *Result) pruneFeatures(t *Table, filter TagFilter) {
	res.FeatureMap = make(map[int]int)
	for i, f := range t.Features {
		if !filter.Allows(f.Tag) {
			continue
		}
		var lookups []uint16
		for _, inx := range f.LookupIndices {
			if n, ok := res.LookupMap[int(inx)]; ok {
				lookups = append(lookups, uint16(n))
			}
		}
		if len(lookups) == 0 {
			continue
		}
		res.FeatureMap[i] = len(res.features)
		res.RetainedFeatures.Add(i)
		res.features = append(res.features, &Feature{Tag: f.Tag, LookupIndices: lookups})
	}
}

func (res *Result) pruneScripts(t *Table, filter TagFilter) {
	for _, s := range t.Scripts {
		if !filter.Allows(s.Tag) {
			continue
		}
		script := &Script{Tag: s.Tag}
		if s.DefaultLangSys != nil {
			if ls := res.remapLangSys(s.DefaultLangSys); ls.HasFeatures() {
				script.DefaultLangSys = ls
			}
		}
		for _, l := range s.LangSys {
			if ls := res.remapLangSys(l); ls.HasFeatures() {
				script.LangSys = append(script.LangSys, ls)
			}
		}
		if script.DefaultLangSys == nil && len(script.LangSys) == 0 {
			continue
		}
		slices.SortStableFunc(script.LangSys, func(a, b *LangSys) int { return cmpTag(a.Tag, b.Tag) })
		res.scripts = append(res.scripts, script)
	}
	slices.SortStableFunc(res.scripts, func(a, b *Script) int { return cmpTag(a.Tag, b.Tag) })
}

func (res *Result) remapLangSys(ls *LangSys) *LangSys {
	out := &LangSys{Tag: ls.Tag, RequiredFeatureIndex: NoRequiredFeature}
	if ls.RequiredFeatureIndex != NoRequiredFeature {
		if n, ok := res.FeatureMap[int(ls.RequiredFeatureIndex)]; ok {
			out.RequiredFeatureIndex = uint16(n)
		}
	}
	for _, inx := range ls.FeatureIndices {
		if n, ok := res.FeatureMap[int(inx)]; ok {
			out.FeatureIndices = append(out.FeatureIndices, uint16(n))
		}
	}
	return out
}

func cmpTag(a, b ot.Tag) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// --- Serialization ---------------------------------------------------------

func (res *Result) serialize() ([]byte, error) {
	buf := ot.NewBuffer(1024)
	buf.PutU32(0x00010000)
	slPos, flPos, llPos := buf.Reserve16(), buf.Reserve16(), buf.Reserve16()
	if err := patchOffset(buf, slPos, 0); err != nil {
		return nil, err
	}
	if err := res.writeScriptList(buf); err != nil {
		return nil, err
	}
	if err := patchOffset(buf, flPos, 0); err != nil {
		return nil, err
	}
	if err := res.writeFeatureList(buf); err != nil {
		return nil, err
	}
	if err := patchOffset(buf, llPos, 0); err != nil {
		return nil, err
	}
	if err := res.writeLookupList(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (res *Result) writeScriptList(buf *ot.Buffer) error {
	base := buf.Len()
	buf.PutU16(uint16(len(res.scripts)))
	recs := make([]int, len(res.scripts))
	for i, s := range res.scripts {
		buf.PutTag(s.Tag)
		recs[i] = buf.Reserve16()
	}
	for i, s := range res.scripts {
		if err := patchOffset(buf, recs[i], base); err != nil {
			return err
		}
		if err := writeScript(buf, s); err != nil {
			return err
		}
	}
	return nil
}

func writeScript(buf *ot.Buffer, s *Script) error {
	base := buf.Len()
	defPos := buf.Reserve16()
	buf.PutU16(uint16(len(s.LangSys)))
	recs := make([]int, len(s.LangSys))
	for i, ls := range s.LangSys {
		buf.PutTag(ls.Tag)
		recs[i] = buf.Reserve16()
	}
	if s.DefaultLangSys != nil {
		if err := patchOffset(buf, defPos, base); err != nil {
			return err
		}
		writeLangSys(buf, s.DefaultLangSys)
	}
	for i, ls := range s.LangSys {
		if err := patchOffset(buf, recs[i], base); err != nil {
			return err
		}
		writeLangSys(buf, ls)
	}
	return nil
}

func writeLangSys(buf *ot.Buffer, ls *LangSys) {
	buf.PutU16(0) // lookup order, reserved
	buf.PutU16(ls.RequiredFeatureIndex)
	buf.PutU16(uint16(len(ls.FeatureIndices)))
	for _, inx := range ls.FeatureIndices {
		buf.PutU16(inx)
	}
}

func (res *Result) writeFeatureList(buf *ot.Buffer) error {
	base := buf.Len()
	buf.PutU16(uint16(len(res.features)))
	recs := make([]int, len(res.features))
	for i, f := range res.features {
		buf.PutTag(f.Tag)
		recs[i] = buf.Reserve16()
	}
	for i, f := range res.features {
		if err := patchOffset(buf, recs[i], base); err != nil {
			return err
		}
		buf.PutU16(0) // feature params are not carried over
		buf.PutU16(uint16(len(f.LookupIndices)))
		for _, inx := range f.LookupIndices {
			buf.PutU16(inx)
		}
	}
	return nil
}

func (res *Result) writeLookupList(buf *ot.Buffer) error {
	base := buf.Len()
	buf.PutU16(uint16(len(res.lookups)))
	recs := make([]int, len(res.lookups))
	for i := range res.lookups {
		recs[i] = buf.Reserve16()
	}
	for i, l := range res.lookups {
		if err := patchOffset(buf, recs[i], base); err != nil {
			return err
		}
		lbase := buf.Len()
		subs := res.subtables[i]
		buf.PutU16(l.Type)
		buf.PutU16(l.Flag)
		buf.PutU16(uint16(len(subs)))
		subPos := make([]int, len(subs))
		for j := range subs {
			subPos[j] = buf.Reserve16()
		}
		if l.Flag&UseMarkFilteringSet != 0 {
			buf.PutU16(l.MarkFilteringSet)
		}
		for j, sub := range subs {
			if err := patchOffset(buf, subPos[j], lbase); err != nil {
				return err
			}
			buf.Append(sub)
		}
	}
	return nil
}
