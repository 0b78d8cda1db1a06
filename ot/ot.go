package ot

import (
	"slices"
)

// Font represents the internal structure of an OpenType font.
// It is used to read the tables of a font for taking it apart.
//
// A Font is read-only after Parse returns. It is safe to use one Font from
// multiple goroutines, as long as no client modifies the font's binary data.
type Font struct {
	Binary        []byte        // the font's raw data
	Header        *FontHeader   // SFNT header
	tables        map[Tag]Table // all tables, typed or generic
	CMap          *CMapTable    // typed access to cmap, may be nil
	Head          *HeadTable    // typed access to head
	MaxP          *MaxPTable    // typed access to maxp
	HHea          *HHeaTable    // typed access to hhea, may be nil
	HMtx          *HMtxTable    // typed access to hmtx, may be nil
	VHea          *HHeaTable    // typed access to vhea, may be nil
	VMtx          *HMtxTable    // typed access to vmtx, may be nil
	Loca          *LocaTable    // typed access to loca, nil for CFF fonts
	Glyf          *GlyfTable    // typed access to glyf, nil for CFF fonts
	parseErrors   []FontError   // Errors accumulated during parsing
	parseWarnings []FontWarning // Warnings accumulated during parsing
}

// FontHeader is the header of the table directory of a font.
//
// OpenType fonts that contain TrueType outlines should use the value of 0x00010000
// for the FontType. OpenType fonts containing CFF data (version 1 or 2) should
// use 0x4F54544F ('OTTO', when re-interpreted as a Tag).
// The Apple specification for TrueType fonts allows for 'true' and 'typ1',
// but these version tags should not be used for OpenType fonts.
type FontHeader struct {
	FontType   uint32
	TableCount uint16
}

// SFNT versions
const (
	TrueTypeFont uint32 = 0x00010000
	AppleTrue    uint32 = 0x74727565 // 'true'
	CFFFont      uint32 = 0x4f54544f // 'OTTO'
	Collection   uint32 = 0x74746366 // 'ttcf'
)

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// `Table` will return at least a generic table type for each table contained in
// the font, i.e. no table information will be dropped.
//
//	os2  := otf.Table(ot.T("OS/2"))
//	loca := otf.Table(ot.T("loca")).Self().AsLoca()
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// HasTable returns true if the font contains a table for tag.
func (otf *Font) HasTable(tag Tag) bool {
	_, ok := otf.tables[tag]
	return ok
}

// TableTags returns the tags of all tables contained in the font, sorted.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// NumGlyphs returns the number of glyphs in the font, as stated by table maxp.
func (otf *Font) NumGlyphs() int {
	if otf == nil || otf.MaxP == nil {
		return 0
	}
	return otf.MaxP.NumGlyphs
}

// IsCFF returns true if the font carries PostScript outlines.
func (otf *Font) IsCFF() bool {
	return otf.HasTable(T("CFF ")) || otf.HasTable(T("CFF2"))
}

// GlyphIndex maps a code point to a glyph index, using the font's cmap.
// It returns 0 (notdef) for unmapped code points or if the font has no
// usable cmap.
func (otf *Font) GlyphIndex(r rune) GlyphIndex {
	if otf == nil || otf.CMap == nil {
		return 0
	}
	return otf.CMap.Lookup(r)
}

// Errors returns all errors encountered during font parsing.
// These errors represent issues that were found but did not prevent parsing from completing.
func (otf *Font) Errors() []FontError {
	if otf.parseErrors == nil {
		return []FontError{}
	}
	return otf.parseErrors
}

// Warnings returns all warnings encountered during font parsing.
func (otf *Font) Warnings() []FontWarning {
	if otf.parseWarnings == nil {
		return []FontWarning{}
	}
	return otf.parseWarnings
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the spec as:
// Array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
// If b is shorter or longer, it will be silently extended or cut as appropriate
//
//	MakeTag([]byte("cmap"))
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

// DFLT is the tag of the default script and language system.
const DFLT Tag = 0x44464c54

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various OpenType font tables.
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() Segment          // the bytes of this table; should be treated as read-only by clients
	Self() TableSelf          // reference to itself
}

func newTable(tag Tag, b Segment, offset, size uint32) *genericTable {
	t := &genericTable{tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	},
	}
	t.self = t
	return t
}

type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of OpenType tables.
type tableBase struct {
	data   Segment // a table is a slice of font data
	name   Tag     // 4-byte name as an integer
	offset uint32  // from offset
	length uint32  // to offset + length
	self   any
}

func makeBase(tag Tag, b Segment, offset, size uint32) tableBase {
	return tableBase{data: b, name: tag, offset: offset, length: size}
}

// Extent returns offset and byte size of this table within the OpenType font.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the bytes of this table. Should be treated as read-only by
// clients, as it is a view into the original data.
func (tb *tableBase) Binary() Segment {
	return tb.data
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting
// a generic table to a concrete table flavour, and for reproducing the
// name tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	if tself.tableBase == nil {
		return 0
	}
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) any {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsCMap returns this table as a cmap table, or nil.
func (tself TableSelf) AsCMap() *CMapTable {
	if k, ok := safeSelf(tself).(*CMapTable); ok {
		return k
	}
	return nil
}

// AsLoca returns this table as a loca table, or nil.
func (tself TableSelf) AsLoca() *LocaTable {
	if k, ok := safeSelf(tself).(*LocaTable); ok {
		return k
	}
	return nil
}

// AsGlyf returns this table as a glyf table, or nil.
func (tself TableSelf) AsGlyf() *GlyfTable {
	if k, ok := safeSelf(tself).(*GlyfTable); ok {
		return k
	}
	return nil
}

// AsMaxP returns this table as a maxp table, or nil.
func (tself TableSelf) AsMaxP() *MaxPTable {
	if k, ok := safeSelf(tself).(*MaxPTable); ok {
		return k
	}
	return nil
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable {
	if k, ok := safeSelf(tself).(*HeadTable); ok {
		return k
	}
	return nil
}

// AsHHea returns this table as a hhea (or vhea) table, or nil.
func (tself TableSelf) AsHHea() *HHeaTable {
	if k, ok := safeSelf(tself).(*HHeaTable); ok {
		return k
	}
	return nil
}

// AsHMtx returns this table as a hmtx (or vmtx) table, or nil.
func (tself TableSelf) AsHMtx() *HMtxTable {
	if k, ok := safeSelf(tself).(*HMtxTable); ok {
		return k
	}
	return nil
}

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font.
// Only a small subset of fields are made public by HeadTable. To read any of
// the other fields use the table's binary data.
type HeadTable struct {
	tableBase
	Flags            uint16 // see https://docs.microsoft.com/en-us/typography/opentype/spec/head
	UnitsPerEm       uint16 // values 16 … 16384 are valid
	IndexToLocFormat uint16 // needed to interpret loca table
}

// Offsets of head fields the subsetter patches.
const (
	HeadChecksumAdjustment = 8
	HeadIndexToLocFormat   = 50
)

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table.
// By definition, index zero points to the “missing character”.
type LocaTable struct {
	tableBase
	inx2loc func(t *LocaTable, gid GlyphIndex) (uint32, error) // returns glyph location for glyph gid
	locCnt  int                                                // number of locations
}

// IndexToLocation returns the offset of glyph gid's data within the 'glyf' table.
// Location gid+1 is the end of the glyph's data.
func (t *LocaTable) IndexToLocation(gid GlyphIndex) (uint32, error) {
	return t.inx2loc(t, gid)
}

func shortLocaVersion(t *LocaTable, gid GlyphIndex) (uint32, error) {
	if int(gid) >= t.locCnt {
		return 0, errFontFormat("loca index out of range")
	}
	loc, err := t.data.U16(int(gid) * 2)
	return uint32(loc) * 2, err
}

func longLocaVersion(t *LocaTable, gid GlyphIndex) (uint32, error) {
	if int(gid) >= t.locCnt {
		return 0, errFontFormat("loca index out of range")
	}
	return t.data.U32(int(gid) * 4)
}

// MaxPTable establishes the memory requirements for this font.
// The 'maxp' table contains a count for the number of glyphs in the font.
// Whenever this value changes, other tables which depend on it should also be updated.
type MaxPTable struct {
	tableBase
	NumGlyphs int
}

// MaxPNumGlyphs is the offset of numGlyphs in table maxp.
const MaxPNumGlyphs = 4

// HHeaTable contains information for horizontal layout. Table vhea has
// the same structure and is represented by this type, too.
type HHeaTable struct {
	tableBase
	Ascender         int16
	Descender        int16
	LineGap          int16
	NumberOfHMetrics int
}

// HHeaNumberOfMetrics is the offset of numberOfHMetrics (numOfLongVerMetrics in vhea).
const HHeaNumberOfMetrics = 34

// HMtxTable contains metric information for the horizontal layout of each glyph
// in the font. Table vmtx has the same structure and is represented by this type, too.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int // copied from hhea/vhea
	numGlyphs        int // copied from maxp
}

// Metrics returns the advance and side bearing of glyph g.
// Glyphs beyond the range of long metrics share the last advance.
func (t *HMtxTable) Metrics(g GlyphIndex) (advance uint16, bearing int16, err error) {
	n := t.NumberOfHMetrics
	if n == 0 {
		return 0, 0, errFontFormat("metrics table without long metrics")
	}
	if int(g) < n {
		r := t.data.Reader()
		advance, bearing = r.U16(int(g)*4), r.I16(int(g)*4+2)
		return advance, bearing, r.Err()
	}
	r := t.data.Reader()
	advance = r.U16((n - 1) * 4)
	bearing = r.I16(n*4 + (int(g)-n)*2)
	return advance, bearing, r.Err()
}

// GlyfTable contains TrueType outlines. It is linked to the loca table of
// the same font.
type GlyfTable struct {
	tableBase
	loca *LocaTable
}

// Glyph returns the raw outline data for glyph gid. Empty glyphs return an
// empty segment.
func (t *GlyfTable) Glyph(gid GlyphIndex) (Segment, error) {
	if t.loca == nil {
		return nil, errFontFormat("glyf table without loca")
	}
	from, err := t.loca.IndexToLocation(gid)
	if err != nil {
		return nil, err
	}
	to, err := t.loca.IndexToLocation(gid + 1)
	if err != nil {
		return nil, err
	}
	if to < from {
		return nil, errFontFormat("loca not monotonic")
	}
	return t.data.View(int(from), int(to-from))
}
