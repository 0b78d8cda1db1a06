package cff

import (
	"fmt"

	"github.com/npillmayer/otsubset/ot"
)

// Font is a parsed CFF font program. Only the first font of a FontSet is
// decoded.
type Font struct {
	Major, Minor uint8
	Name         string
	TopDict      Dict
	Strings      Index
	GlobalSubrs  Index
	CharStrings  Index
	Private      Dict
	LocalSubrs   Index
	Charset      []uint16 // SID per glyph, glyph 0 is .notdef
}

// Number of standard strings. SIDs from here on index the String INDEX.
const nStdStrings = 391

// Parse decodes the structures of a CFF table needed for subsetting.
// CFF2 and CID-keyed fonts fail with ErrUnsupported.
func Parse(data []byte) (*Font, error) {
	src := ot.Segment(data)
	r := src.Reader()
	f := &Font{Major: r.U8(0), Minor: r.U8(1)}
	hdrSize := int(r.U8(2))
	if r.Err() != nil {
		return nil, fmt.Errorf("CFF header: %w", r.Err())
	}
	if f.Major != 1 {
		return nil, fmt.Errorf("CFF version %d.%d: %w", f.Major, f.Minor, ErrUnsupported)
	}
	names, at, err := ParseIndex(src, hdrSize)
	if err != nil {
		return nil, fmt.Errorf("CFF Name INDEX: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("CFF without fonts: %w", ErrUnsupported)
	}
	if len(names) > 1 {
		tracer().Infof("CFF font set has %d fonts, using the first one", len(names))
	}
	f.Name = string(names[0])
	tops, at, err := ParseIndex(src, at)
	if err != nil || len(tops) == 0 {
		return nil, fmt.Errorf("CFF Top DICT INDEX: %w", errOr(err, ot.ErrBufferBounds))
	}
	if f.TopDict, err = ParseDict(tops[0]); err != nil {
		return nil, fmt.Errorf("CFF Top DICT: %w", err)
	}
	if f.TopDict.Has(OpROS) {
		return nil, fmt.Errorf("CID-keyed CFF: %w", ErrUnsupported)
	}
	if cst, ok := f.TopDict.Get(OpCharstringType); ok && len(cst) > 0 && cst[0].Int != 2 {
		return nil, fmt.Errorf("CharString type %v: %w", cst[0], ErrUnsupported)
	}
	if f.Strings, at, err = ParseIndex(src, at); err != nil {
		return nil, fmt.Errorf("CFF String INDEX: %w", err)
	}
	if f.GlobalSubrs, _, err = ParseIndex(src, at); err != nil {
		return nil, fmt.Errorf("CFF Global Subr INDEX: %w", err)
	}
	cs, err := f.TopDict.Ints(OpCharStrings, 1)
	if err != nil {
		return nil, fmt.Errorf("CFF Top DICT: %w", err)
	}
	if f.CharStrings, _, err = ParseIndex(src, cs[0]); err != nil {
		return nil, fmt.Errorf("CFF CharStrings INDEX: %w", err)
	}
	if err = f.parsePrivate(src); err != nil {
		return nil, err
	}
	if err = f.parseCharset(src); err != nil {
		return nil, err
	}
	tracer().Debugf("CFF %q: %d glyphs, %d global subrs, %d local subrs", f.Name,
		len(f.CharStrings), len(f.GlobalSubrs), len(f.LocalSubrs))
	return f, nil
}

func errOr(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}

func (f *Font) parsePrivate(src ot.Segment) error {
	if !f.TopDict.Has(OpPrivate) {
		return nil // no Private DICT, every value at its default
	}
	priv, err := f.TopDict.Ints(OpPrivate, 2)
	if err != nil {
		return fmt.Errorf("CFF Top DICT: %w", err)
	}
	size, offset := priv[0], priv[1]
	data, err := src.View(offset, size)
	if err != nil {
		return fmt.Errorf("CFF Private DICT: %w", err)
	}
	if f.Private, err = ParseDict(data); err != nil {
		return fmt.Errorf("CFF Private DICT: %w", err)
	}
	if subrs, err := f.Private.Ints(OpSubrs, 1); err == nil {
		if f.LocalSubrs, _, err = ParseIndex(src, offset+subrs[0]); err != nil {
			return fmt.Errorf("CFF local Subr INDEX: %w", err)
		}
	}
	return nil
}

// parseCharset decodes charsets of format 0, 1 and 2. The predefined charsets
// are taken as identity mappings of glyph index to SID.
func (f *Font) parseCharset(src ot.Segment) error {
	n := len(f.CharStrings)
	f.Charset = make([]uint16, n)
	offset := 0
	if cs, err := f.TopDict.Ints(OpCharset, 1); err == nil {
		offset = cs[0]
	}
	if offset <= 2 {
		if offset != 0 {
			tracer().Infof("CFF uses predefined expert charset %d", offset)
		}
		for g := range f.Charset {
			f.Charset[g] = uint16(g)
		}
		return nil
	}
	r := src.Reader()
	format := r.U8(offset)
	at := offset + 1
	switch format {
	case 0:
		for g := 1; g < n; g++ {
			f.Charset[g] = r.U16(at + 2*(g-1))
		}
	case 1, 2:
		for g := 1; g < n && r.Err() == nil; {
			first := r.U16(at)
			var left int
			if format == 1 {
				left = int(r.U8(at + 2))
				at += 3
			} else {
				left = int(r.U16(at + 2))
				at += 4
			}
			for k := 0; k <= left && g < n; k++ {
				f.Charset[g] = first + uint16(k)
				g++
			}
		}
	default:
		return fmt.Errorf("CFF charset format %d: %w", format, ErrUnsupported)
	}
	if r.Err() != nil {
		return fmt.Errorf("CFF charset: %w", r.Err())
	}
	return nil
}

// StringBySID returns the string for a custom SID. For standard strings, which
// this package does not carry, it returns the empty string.
func (f *Font) StringBySID(sid uint16) string {
	if sid < nStdStrings || int(sid)-nStdStrings >= len(f.Strings) {
		return ""
	}
	return string(f.Strings[int(sid)-nStdStrings])
}

// GlyphName returns the name of a glyph, if it is a custom string.
func (f *Font) GlyphName(g ot.GlyphIndex) string {
	if int(g) >= len(f.Charset) {
		return ""
	}
	return f.StringBySID(f.Charset[g])
}
