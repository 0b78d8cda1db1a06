package ot

import (
	"fmt"
	"math"
)

// Code comment often will cite passage from the
// OpenType specification version 1.8.4;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ---------------------------------------------------------------------------

// Checked arithmetic operations to prevent integer overflow

// checkedMulInt checks for overflow in multiplication of two non-negative integers
func checkedMulInt(a, b int) (int, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a < 0 || b < 0 || a > math.MaxInt/b {
		return 0, fmt.Errorf("integer overflow: %d * %d", a, b)
	}
	return a * b, nil
}

// checkedAddUint32 checks for overflow in addition of two uint32 values
func checkedAddUint32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	return a + b, nil
}

// ---------------------------------------------------------------------------

// Parse parses an OpenType font from a byte slice.
// An ot.Font needs ongoing access to the fonts byte-data after the Parse function returns.
// Its elements are assumed immutable while the ot.Font remains in use.
func Parse(font []byte) (*Font, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	src := Segment(font)
	ec := &errorCollector{}
	r := src.Reader()
	h := FontHeader{FontType: r.U32(0), TableCount: r.U16(4)}
	if r.Err() != nil {
		return nil, ec.critical(0, "Header", "font header truncated", 0)
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	switch h.FontType {
	case TrueTypeFont, AppleTrue, CFFFont:
	case Collection:
		return nil, fmt.Errorf("font collections: %w", ErrUnsupportedFormat)
	default:
		ec.addError(0, "Header", fmt.Sprintf("font type not supported: %x", h.FontType), SeverityCritical, 0)
		return nil, fmt.Errorf("font type %x: %w", h.FontType, ErrUnsupportedFormat)
	}
	otf := &Font{Binary: font, Header: &h, tables: make(map[Tag]Table)}
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	tableRecordsSize, err := checkedMulInt(16, int(h.TableCount))
	if err != nil {
		return nil, ec.critical(0, "TableRecords", err.Error(), 12)
	}
	buf, err := src.View(12, tableRecordsSize)
	if err != nil {
		return nil, ec.critical(0, "TableRecords", "table record entries", 12)
	}
	for b, prevTag := buf, Tag(0); len(b) > 0; b = b[16:] {
		tag := MakeTag(b)
		if tag < prevTag {
			// x/image/font/sfnt rejects these, we are more lenient
			ec.addWarning(tag, "table records not sorted by tag", 12)
		}
		prevTag = tag
		off, size := u32(b[8:12]), u32(b[12:16])
		if off&3 != 0 { // "all tables must begin on four byte boundries".
			ec.addWarning(tag, "table offset not 4-byte aligned", off)
		}
		tableEnd, err := checkedAddUint32(off, size)
		if err != nil {
			return nil, ec.critical(tag, "Size", err.Error(), off)
		}
		if tableEnd > uint32(len(src)) {
			return nil, ec.critical(tag, "Bounds",
				fmt.Sprintf("bounds [%d:%d] exceed font size %d", off, tableEnd, len(src)), off)
		}
		if _, dup := otf.tables[tag]; dup {
			ec.addWarning(tag, "duplicate table record ignored", off)
			continue
		}
		t, err := parseTable(tag, src[off:tableEnd], off, size, ec)
		if err != nil {
			return nil, err
		}
		otf.tables[tag] = t
	}
	if err := linkTables(otf, ec); err != nil {
		return nil, err
	}
	otf.parseErrors = ec.errors
	otf.parseWarnings = ec.warnings
	if ec.hasCriticalErrors() {
		return nil, errFontFormat("font has critical errors")
	}
	return otf, nil
}

// linkTables collects and centralizes information spread across tables:
// loca needs head and maxp, hmtx needs hhea and maxp, glyf needs loca.
func linkTables(otf *Font, ec *errorCollector) error {
	otf.CMap = otf.tableAs(T("cmap")).AsCMap()
	otf.Head = otf.tableAs(T("head")).AsHead()
	otf.MaxP = otf.tableAs(T("maxp")).AsMaxP()
	otf.HHea = otf.tableAs(T("hhea")).AsHHea()
	otf.HMtx = otf.tableAs(T("hmtx")).AsHMtx()
	otf.VHea = otf.tableAs(T("vhea")).AsHHea()
	otf.VMtx = otf.tableAs(T("vmtx")).AsHMtx()
	otf.Loca = otf.tableAs(T("loca")).AsLoca()
	otf.Glyf = otf.tableAs(T("glyf")).AsGlyf()
	if otf.Head == nil {
		return ec.critical(T("head"), "Table", "missing required table", 0)
	}
	if otf.MaxP == nil {
		return ec.critical(T("maxp"), "Table", "missing required table", 0)
	}
	n := otf.MaxP.NumGlyphs
	if otf.HMtx != nil {
		if otf.HHea == nil {
			ec.addError(T("hmtx"), "Link", "hmtx without hhea", SeverityMajor, 0)
			otf.HMtx = nil
		} else {
			linkMetrics(otf.HMtx, otf.HHea, n, ec)
		}
	}
	if otf.VMtx != nil {
		if otf.VHea == nil {
			ec.addError(T("vmtx"), "Link", "vmtx without vhea", SeverityMajor, 0)
			otf.VMtx = nil
		} else {
			linkMetrics(otf.VMtx, otf.VHea, n, ec)
		}
	}
	if otf.Loca != nil {
		if otf.Head.IndexToLocFormat == 1 {
			otf.Loca.inx2loc = longLocaVersion
		}
		otf.Loca.locCnt = n + 1
		need := (n + 1) * 2
		if otf.Head.IndexToLocFormat == 1 {
			need *= 2
		}
		if len(otf.Loca.data) < need {
			return ec.critical(T("loca"), "Size", fmt.Sprintf("loca has %d bytes, need %d", len(otf.Loca.data), need), otf.Loca.offset)
		}
	}
	if otf.Glyf != nil {
		if otf.Loca == nil {
			return ec.critical(T("glyf"), "Link", "glyf table without loca table", otf.Glyf.offset)
		}
		otf.Glyf.loca = otf.Loca
	}
	return nil
}

func linkMetrics(mtx *HMtxTable, hea *HHeaTable, numGlyphs int, ec *errorCollector) {
	mtx.NumberOfHMetrics = hea.NumberOfHMetrics
	mtx.numGlyphs = numGlyphs
	if mtx.NumberOfHMetrics > numGlyphs {
		ec.addWarning(mtx.name, "more long metrics than glyphs", mtx.offset)
		mtx.NumberOfHMetrics = numGlyphs
	}
	need := 4*mtx.NumberOfHMetrics + 2*(numGlyphs-mtx.NumberOfHMetrics)
	if len(mtx.data) < need {
		ec.addError(mtx.name, "Size", fmt.Sprintf("metrics table has %d bytes, need %d", len(mtx.data), need),
			SeverityMajor, mtx.offset)
	}
}

func (otf *Font) tableAs(tag Tag) TableSelf {
	if t := otf.Table(tag); t != nil {
		return t.Self()
	}
	return TableSelf{}
}

// parseTable dispatches to typed parsers for the tables the subsetter needs
// typed access to. All other tables are kept as generic tables.
func parseTable(t Tag, b Segment, offset, size uint32, ec *errorCollector) (Table, error) {
	switch t {
	case T("cmap"):
		return parseCMap(t, b, offset, size, ec)
	case T("head"):
		return parseHead(t, b, offset, size, ec)
	case T("glyf"):
		g := &GlyfTable{tableBase: makeBase(t, b, offset, size)}
		g.self = g
		return g, nil
	case T("hhea"), T("vhea"):
		return parseHHea(t, b, offset, size, ec)
	case T("hmtx"), T("vmtx"):
		m := &HMtxTable{tableBase: makeBase(t, b, offset, size)}
		m.self = m
		return m, nil
	case T("loca"):
		l := &LocaTable{tableBase: makeBase(t, b, offset, size), inx2loc: shortLocaVersion}
		l.self = l
		return l, nil
	case T("maxp"):
		return parseMaxP(t, b, offset, size, ec)
	}
	tracer().Debugf("font contains table (%s), will not be interpreted", t)
	return newTable(t, b, offset, size), nil
}

// --- Head table ------------------------------------------------------------

func parseHead(tag Tag, b Segment, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < 54 {
		return nil, ec.critical(tag, "Size", fmt.Sprintf("head table too small: %d bytes (need 54)", size), offset)
	}
	t := &HeadTable{tableBase: makeBase(tag, b, offset, size)}
	t.self = t
	r := b.Reader()
	t.Flags = r.U16(16)
	t.UnitsPerEm = r.U16(18)
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat = r.U16(HeadIndexToLocFormat)
	if t.IndexToLocFormat > 1 {
		ec.addError(tag, "IndexToLocFormat", fmt.Sprintf("invalid loca format %d", t.IndexToLocFormat),
			SeverityMajor, offset+HeadIndexToLocFormat)
	}
	return t, r.Err()
}

// --- MaxP table ------------------------------------------------------------

// This table establishes the memory requirements for this font. Fonts with CFF data
// must use Version 0.5 of this table, specifying only the numGlyphs field. Fonts
// with TrueType outlines must use Version 1.0 of this table, where all data is required.
func parseMaxP(tag Tag, b Segment, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < 6 {
		return nil, ec.critical(tag, "Size", fmt.Sprintf("maxp table too small: %d bytes", size), offset)
	}
	t := &MaxPTable{tableBase: makeBase(tag, b, offset, size)}
	t.self = t
	n, err := b.U16(MaxPNumGlyphs)
	t.NumGlyphs = int(n)
	return t, err
}

// --- HHea table ------------------------------------------------------------

func parseHHea(tag Tag, b Segment, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < 36 {
		return nil, ec.critical(tag, "Size", fmt.Sprintf("%s table too small: %d bytes (need 36)", tag, size), offset)
	}
	t := &HHeaTable{tableBase: makeBase(tag, b, offset, size)}
	t.self = t
	r := b.Reader()
	t.Ascender = r.I16(4)
	t.Descender = r.I16(6)
	t.LineGap = r.I16(8)
	t.NumberOfHMetrics = int(r.U16(HHeaNumberOfMetrics))
	return t, r.Err()
}
