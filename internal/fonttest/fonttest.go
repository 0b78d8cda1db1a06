/*
Package fonttest synthesizes small OpenType fonts in memory for tests.

Fonts are assembled from a description of their glyphs, character map and
(optionally) layout tables. All tables are written independently of the
production code in this module, so subset results can be checked against a
second opinion. The fonts satisfy the structural checks of
golang.org/x/image/font/sfnt.
*/
package fonttest

import (
	"encoding/binary"
	"slices"
	"sort"
)

// Glyph describes one glyph of a synthetic font.
type Glyph struct {
	Name    string // PostScript name, used for post v2 and CFF charsets
	Advance uint16
	LSB     int16
	Data    []byte // glyf outline data or Type 2 CharString
}

// Font describes a synthetic font.
type Font struct {
	Glyphs      []Glyph
	CMap        map[rune]uint16   // code point → glyph index
	Names       map[uint16]string // name ID → English (Windows) name
	MacNames    bool              // add Macintosh Roman name records, too
	PostNames   bool              // write post version 2 with glyph names
	LongLoca    bool              // force long loca format
	Tables      map[string][]byte // additional tables (GSUB, GPOS, fpgm, …)
	VerticalMtx bool              // add vhea/vmtx
	// CFF flavour
	CFF         bool
	LocalSubrs  [][]byte
	GlobalSubrs [][]byte
}

// Build serializes the font description into an SFNT binary.
func (f *Font) Build() []byte {
	tables := map[string][]byte{
		"head": f.head(),
		"hhea": f.hhea(),
		"hmtx": f.hmtx(),
		"maxp": f.maxp(),
		"cmap": CMap(f.CMap),
		"post": f.post(),
		"name": f.name(),
		"OS/2": f.os2(),
	}
	if f.VerticalMtx {
		tables["vhea"] = f.hhea()
		tables["vmtx"] = f.hmtx()
	}
	if f.CFF {
		tables["CFF "] = f.cff()
	} else {
		glyf, loca := f.glyf()
		tables["glyf"], tables["loca"] = glyf, loca
	}
	for tag, data := range f.Tables {
		tables[tag] = data
	}
	sfntVersion := uint32(0x00010000)
	if f.CFF {
		sfntVersion = 0x4f54544f
	}
	return SFNT(sfntVersion, tables)
}

// SFNT writes tables into an SFNT container, sorted by tag and 4-byte aligned.
func SFNT(version uint32, tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	n := len(tags)
	out := make([]byte, 12+16*n)
	binary.BigEndian.PutUint32(out, version)
	binary.BigEndian.PutUint16(out[4:], uint16(n))
	for i, tag := range tags {
		data := tables[tag]
		rec := out[12+16*i:]
		copy(rec, tag)
		binary.BigEndian.PutUint32(rec[8:], uint32(len(out)))
		binary.BigEndian.PutUint32(rec[12:], uint32(len(data)))
		out = append(out, data...)
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
	}
	return out
}

func be16(b []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(b, v)
}

func be32(b []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(b, v)
}

func (f *Font) head() []byte {
	b := make([]byte, 54)
	binary.BigEndian.PutUint32(b[0:], 0x00010000)
	binary.BigEndian.PutUint32(b[12:], 0x5F0F3CF5) // magic
	binary.BigEndian.PutUint16(b[18:], 1000)       // units per em
	binary.BigEndian.PutUint16(b[38:], 0xffff-99)  // yMin = -100
	binary.BigEndian.PutUint16(b[40:], 1000)       // xMax
	binary.BigEndian.PutUint16(b[42:], 800)        // yMax
	binary.BigEndian.PutUint16(b[46:], 8)          // lowestRecPPEM
	binary.BigEndian.PutUint16(b[48:], 2)          // fontDirectionHint
	if f.LongLoca {
		binary.BigEndian.PutUint16(b[50:], 1)
	}
	return b
}

func (f *Font) hhea() []byte {
	b := make([]byte, 36)
	binary.BigEndian.PutUint32(b[0:], 0x00010000)
	binary.BigEndian.PutUint16(b[4:], 800)
	binary.BigEndian.PutUint16(b[6:], 0xffff-199) // descender = -200
	var maxAdv uint16
	for _, g := range f.Glyphs {
		maxAdv = max(maxAdv, g.Advance)
	}
	binary.BigEndian.PutUint16(b[10:], maxAdv)
	binary.BigEndian.PutUint16(b[18:], 1) // caret slope rise
	binary.BigEndian.PutUint16(b[34:], uint16(len(f.Glyphs)))
	return b
}

func (f *Font) hmtx() []byte {
	var b []byte
	for _, g := range f.Glyphs {
		b = be16(b, g.Advance)
		b = be16(b, uint16(g.LSB))
	}
	return b
}

func (f *Font) maxp() []byte {
	if f.CFF {
		b := be32(nil, 0x00005000)
		return be16(b, uint16(len(f.Glyphs)))
	}
	b := make([]byte, 32)
	binary.BigEndian.PutUint32(b, 0x00010000)
	binary.BigEndian.PutUint16(b[4:], uint16(len(f.Glyphs)))
	binary.BigEndian.PutUint16(b[6:], 64) // maxPoints
	binary.BigEndian.PutUint16(b[8:], 4)  // maxContours
	binary.BigEndian.PutUint16(b[14:], 2) // maxZones
	return b
}

func (f *Font) glyf() (glyf, loca []byte) {
	offsets := make([]uint32, 0, len(f.Glyphs)+1)
	for _, g := range f.Glyphs {
		offsets = append(offsets, uint32(len(glyf)))
		glyf = append(glyf, g.Data...)
		if len(glyf)%2 != 0 {
			glyf = append(glyf, 0)
		}
	}
	offsets = append(offsets, uint32(len(glyf)))
	for _, off := range offsets {
		if f.LongLoca {
			loca = be32(loca, off)
		} else {
			loca = be16(loca, uint16(off/2))
		}
	}
	return glyf, loca
}

func (f *Font) post() []byte {
	b := make([]byte, 32)
	binary.BigEndian.PutUint32(b, 0x00030000)
	binary.BigEndian.PutUint16(b[8:], 0xffff-74) // underline position = -75
	binary.BigEndian.PutUint16(b[10:], 50)
	if !f.PostNames {
		return b
	}
	binary.BigEndian.PutUint32(b, 0x00020000)
	b = be16(b, uint16(len(f.Glyphs)))
	var pascal []byte
	custom := 0
	for _, g := range f.Glyphs {
		if inx := slices.Index(MacGlyphNames[:], g.Name); inx >= 0 {
			b = be16(b, uint16(inx))
			continue
		}
		b = be16(b, uint16(258+custom))
		custom++
		pascal = append(pascal, byte(len(g.Name)))
		pascal = append(pascal, g.Name...)
	}
	return append(b, pascal...)
}

// MacGlyphNames are the first standard Macintosh glyph names, enough for tests.
var MacGlyphNames = [...]string{".notdef", ".null", "nonmarkingreturn", "space"}

func (f *Font) name() []byte {
	type record struct {
		pid, eid, lang, id uint16
		str                []byte
	}
	var recs []record
	ids := make([]uint16, 0, len(f.Names))
	for id := range f.Names {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if f.MacNames {
		for _, id := range ids {
			recs = append(recs, record{1, 0, 0, id, []byte(f.Names[id])})
		}
	}
	for _, id := range ids {
		var u []byte
		for _, r := range f.Names[id] {
			u = be16(u, uint16(r))
		}
		recs = append(recs, record{3, 1, 0x409, id, u})
		recs = append(recs, record{3, 1, 0x407, id, u}) // German, same string
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.pid != b.pid {
			return a.pid < b.pid
		}
		if a.eid != b.eid {
			return a.eid < b.eid
		}
		if a.lang != b.lang {
			return a.lang < b.lang
		}
		return a.id < b.id
	})
	b := be16(nil, 0)
	b = be16(b, uint16(len(recs)))
	b = be16(b, uint16(6+12*len(recs)))
	var storage []byte
	for _, r := range recs {
		b = be16(b, r.pid)
		b = be16(b, r.eid)
		b = be16(b, r.lang)
		b = be16(b, r.id)
		b = be16(b, uint16(len(r.str)))
		b = be16(b, uint16(len(storage)))
		storage = append(storage, r.str...)
	}
	return append(b, storage...)
}

func (f *Font) os2() []byte {
	b := make([]byte, 96)
	binary.BigEndian.PutUint16(b[0:], 4)
	binary.BigEndian.PutUint16(b[2:], 500)
	binary.BigEndian.PutUint16(b[4:], 400)
	binary.BigEndian.PutUint16(b[6:], 5)
	binary.BigEndian.PutUint32(b[42:], 0xffffffff) // claim all unicode ranges
	binary.BigEndian.PutUint32(b[46:], 0xffffffff)
	copy(b[58:], "TEST")
	var lo, hi rune = 0xffff, 0
	for r := range f.CMap {
		lo, hi = min(lo, r), max(hi, r)
	}
	binary.BigEndian.PutUint16(b[64:], uint16(min(lo, 0xffff)))
	binary.BigEndian.PutUint16(b[66:], uint16(min(hi, 0xffff)))
	binary.BigEndian.PutUint16(b[68:], 800)
	binary.BigEndian.PutUint16(b[70:], 0xffff-199)
	binary.BigEndian.PutUint16(b[74:], 900)
	binary.BigEndian.PutUint16(b[76:], 200)
	return b
}

// CMap writes a cmap table with a format 4 sub-table for BMP code points,
// referenced by (0,3) and (3,1). Supplementary code points add a format 12
// sub-table, referenced by (0,4) and (3,10).
func CMap(m map[rune]uint16) []byte {
	runes := make([]rune, 0, len(m))
	supplementary := false
	for r := range m {
		runes = append(runes, r)
		supplementary = supplementary || r > 0xffff
	}
	slices.Sort(runes)
	var f4 []rune
	for _, r := range runes {
		if r <= 0xffff {
			f4 = append(f4, r)
		}
	}
	// one segment per code point plus the final 0xFFFF segment
	segs := len(f4) + 1
	sub4 := be16(nil, 4)
	sub4 = be16(sub4, uint16(16+8*segs))
	sub4 = be16(sub4, 0)
	sub4 = be16(sub4, uint16(2*segs))
	power, sel := 1, 0
	for power*2 <= segs {
		power *= 2
		sel++
	}
	sub4 = be16(sub4, uint16(2*power))
	sub4 = be16(sub4, uint16(sel))
	sub4 = be16(sub4, uint16(2*segs-2*power))
	for _, r := range f4 {
		sub4 = be16(sub4, uint16(r))
	}
	sub4 = be16(sub4, 0xffff)
	sub4 = be16(sub4, 0) // reserved pad
	for _, r := range f4 {
		sub4 = be16(sub4, uint16(r))
	}
	sub4 = be16(sub4, 0xffff)
	for _, r := range f4 {
		sub4 = be16(sub4, m[r]-uint16(r))
	}
	sub4 = be16(sub4, 1)
	for range segs {
		sub4 = be16(sub4, 0)
	}
	var sub12 []byte
	if supplementary {
		sub12 = be16(nil, 12)
		sub12 = be16(sub12, 0)
		sub12 = be32(sub12, uint32(16+12*len(runes)))
		sub12 = be32(sub12, 0)
		sub12 = be32(sub12, uint32(len(runes)))
		for _, r := range runes {
			sub12 = be32(sub12, uint32(r))
			sub12 = be32(sub12, uint32(r))
			sub12 = be32(sub12, uint32(m[r]))
		}
	}
	n := 2
	if supplementary {
		n = 4
	}
	b := be16(nil, 0)
	b = be16(b, uint16(n))
	off4 := uint32(4 + 8*n)
	off12 := off4 + uint32(len(sub4))
	type rec struct {
		pid, eid uint16
		off      uint32
	}
	recs := []rec{{0, 3, off4}, {3, 1, off4}}
	if supplementary {
		recs = []rec{{0, 3, off4}, {0, 4, off12}, {3, 1, off4}, {3, 10, off12}}
	}
	for _, r := range recs {
		b = be16(b, r.pid)
		b = be16(b, r.eid)
		b = be32(b, r.off)
	}
	b = append(b, sub4...)
	return append(b, sub12...)
}
