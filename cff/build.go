package cff

import (
	"errors"

	"github.com/npillmayer/otsubset/ot"
)

// EmptyGlyph marks a glyph slot without outline in the glyph list for Build.
// It receives an endchar-only CharString.
const EmptyGlyph = ot.GlyphIndex(0xffff)

// maxLayoutPasses caps the iterations for the Top DICT offset fixpoint.
const maxLayoutPasses = 8

var endcharOnly = []byte{csEndChar}

// BuildOptions controls the rebuilding of a CFF.
type BuildOptions struct {
	KeepHinting bool // carry over the hinting entries of the Private DICT
}

// Build produces a new CFF table containing the given glyphs of src, in this
// order: glyphs[i] is the source glyph which becomes glyph i.
//
// The result has a single font, no global subroutines (all CharStrings are
// de-subroutinized), a String INDEX holding the retained glyph names, a
// charset of format 0 and a minimal Private DICT. Glyphs whose CharString
// cannot be expanded are replaced by an endchar-only CharString.
func Build(src []byte, glyphs []ot.GlyphIndex, opts BuildOptions) ([]byte, error) {
	f, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return f.Subset(glyphs, opts)
}

// Subset builds a CFF table for a list of glyphs of f. See Build.
func (f *Font) Subset(glyphs []ot.GlyphIndex, opts BuildOptions) ([]byte, error) {
	charstrings := make([][]byte, len(glyphs))
	for i, g := range glyphs {
		if g == EmptyGlyph || int(g) >= len(f.CharStrings) {
			charstrings[i] = endcharOnly
			continue
		}
		cs, err := Expand(f.CharStrings[g], f.GlobalSubrs, f.LocalSubrs)
		if err != nil {
			if errors.Is(err, ErrSubrDepth) || errors.Is(err, ErrCharString) {
				tracer().Errorf("glyph %d: %v; replaced by empty glyph", g, err)
				charstrings[i] = endcharOnly
				continue
			}
			return nil, err
		}
		charstrings[i] = cs
	}
	strs, charset := f.subsetCharset(glyphs)
	private := f.subsetPrivate(opts.KeepHinting)
	fixed := [][]byte{
		{1, 0, 4, 4}, // header
		BuildIndex([][]byte{[]byte(f.Name)}),
	}
	tail := [][]byte{
		BuildIndex(strs),
		BuildIndex(nil), // global subrs
	}
	csIndex := BuildIndex(charstrings)
	var top []byte
	topSize := -1
	for pass := 1; ; pass++ {
		if pass > maxLayoutPasses {
			return nil, ErrNoConvergence
		}
		charsetAt := size(fixed) + max(topSize, 0) + size(tail)
		charstringsAt := charsetAt + len(charset)
		privateAt := charstringsAt + len(csIndex)
		top = BuildIndex([][]byte{f.topDict(charsetAt, charstringsAt, len(private), privateAt)})
		if len(top) == topSize {
			tracer().Debugf("CFF layout settled after %d passes", pass)
			break
		}
		topSize = len(top)
	}
	buf := ot.NewBuffer(size(fixed) + len(top) + size(tail) + len(charset) + len(csIndex) + len(private))
	for _, part := range fixed {
		buf.Append(part)
	}
	buf.Append(top)
	for _, part := range tail {
		buf.Append(part)
	}
	buf.Append(charset)
	buf.Append(csIndex)
	buf.Append(private)
	return buf.Bytes(), nil
}

func size(parts [][]byte) int {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	return n
}

// topDict writes a Top DICT with the given offsets. Of the source Top DICT only
// the font matrix and bounding box are carried over.
func (f *Font) topDict(charset, charstrings, privateSize, private int) []byte {
	var d Dict
	for _, op := range []Operator{OpFontMatrix, OpFontBBox} {
		if operands, ok := f.TopDict.Get(op); ok {
			d.Entries = append(d.Entries, Entry{Op: op, Operands: operands})
		}
	}
	d.Append(OpCharset, charset)
	d.Append(OpCharStrings, charstrings)
	d.Append(OpPrivate, privateSize, private)
	return d.Encode()
}

// subsetPrivate writes the Private DICT: default and nominal width, and
// optionally the hinting entries.
func (f *Font) subsetPrivate(keepHinting bool) []byte {
	var d Dict
	if keepHinting {
		for _, op := range hintOperators {
			if operands, ok := f.Private.Get(op); ok {
				d.Entries = append(d.Entries, Entry{Op: op, Operands: operands})
			}
		}
	}
	for _, op := range []Operator{OpDefaultWidthX, OpNominalWidthX} {
		if operands, ok := f.Private.Get(op); ok {
			d.Entries = append(d.Entries, Entry{Op: op, Operands: operands})
		}
	}
	return d.Encode()
}

// subsetCharset creates a format 0 charset for glyphs. Custom strings are
// renumbered into a new String INDEX, standard strings keep their SID.
func (f *Font) subsetCharset(glyphs []ot.GlyphIndex) ([][]byte, []byte) {
	var strs [][]byte
	sids := make(map[uint16]uint16)
	buf := ot.NewBuffer(1 + 2*len(glyphs))
	buf.PutU8(0)
	for _, g := range glyphs[min(1, len(glyphs)):] { // glyph 0 is not part of the charset
		sid := uint16(0)
		if g != EmptyGlyph && int(g) < len(f.Charset) {
			sid = f.Charset[g]
		}
		if sid >= nStdStrings {
			nsid, ok := sids[sid]
			if !ok {
				nsid = uint16(nStdStrings + len(strs))
				sids[sid] = nsid
				strs = append(strs, []byte(f.StringBySID(sid)))
			}
			sid = nsid
		}
		buf.PutU16(sid)
	}
	return strs, buf.Bytes()
}
