package ot

import (
	"errors"
	"fmt"
)

// Flags of composite glyph components.
// See https://docs.microsoft.com/en-us/typography/opentype/spec/glyf#composite-glyph-description
const (
	ArgsAreWords       uint16 = 0x0001 // ARG_1_AND_2_ARE_WORDS
	WeHaveAScale       uint16 = 0x0008 // WE_HAVE_A_SCALE
	MoreComponents     uint16 = 0x0020 // MORE_COMPONENTS
	WeHaveXYScale      uint16 = 0x0040 // WE_HAVE_AN_X_AND_Y_SCALE
	WeHaveTwoByTwo     uint16 = 0x0080 // WE_HAVE_A_TWO_BY_TWO
	WeHaveInstructions uint16 = 0x0100 // WE_HAVE_INSTRUCTIONS
)

// ErrUnmappedComponent flags a composite glyph referencing a glyph which is
// not part of a glyph mapping.
var ErrUnmappedComponent = errors.New("composite glyph references unmapped glyph")

const glyphHeaderSize = 10 // numberOfContours + bounding box

// GlyphComponent is a reference from a composite glyph to one of its component glyphs.
type GlyphComponent struct {
	Pos   int        // byte position of the component record within the glyph data
	Flags uint16     // component flags
	Glyph GlyphIndex // component glyph
}

// NumberOfContours returns the contour count of a glyph's outline data.
// Negative values flag composite glyphs. Empty glyph data yields 0.
func NumberOfContours(data Segment) (int16, error) {
	if len(data) == 0 {
		return 0, nil
	}
	return data.I16(0)
}

// componentSize returns the byte size of a component record, depending on its flags.
// Argument size is 2 or 4 bytes, the transform is absent or a scale (2 bytes),
// an x- and y-scale (4 bytes), or a 2×2 matrix (8 bytes).
func componentSize(flags uint16) int {
	size := 4 // flags + glyph index
	if flags&ArgsAreWords != 0 {
		size += 4
	} else {
		size += 2
	}
	switch {
	case flags&WeHaveAScale != 0:
		size += 2
	case flags&WeHaveXYScale != 0:
		size += 4
	case flags&WeHaveTwoByTwo != 0:
		size += 8
	}
	return size
}

// Components enumerates the components of a composite glyph, walking the component
// records flag by flag. For simple glyphs it returns an empty slice.
func Components(data Segment) ([]GlyphComponent, error) {
	comps, _, err := walkComponents(data)
	return comps, err
}

// walkComponents returns the components and the byte position after the last one.
func walkComponents(data Segment) ([]GlyphComponent, int, error) {
	n, err := NumberOfContours(data)
	if err != nil || n >= 0 {
		return nil, 0, err
	}
	var comps []GlyphComponent
	pos := glyphHeaderSize
	for {
		r := data.Reader()
		flags, g := r.U16(pos), r.Glyph(pos+2)
		if r.Err() != nil {
			return comps, pos, fmt.Errorf("composite glyph truncated at component %d: %w", len(comps), r.Err())
		}
		size := componentSize(flags)
		if pos+size > len(data) {
			return comps, pos, fmt.Errorf("composite glyph component %d: %w", len(comps), ErrBufferBounds)
		}
		comps = append(comps, GlyphComponent{Pos: pos, Flags: flags, Glyph: g})
		pos += size
		if flags&MoreComponents == 0 {
			return comps, pos, nil
		}
	}
}

// RemapComponents returns a copy of a glyph's outline data with the component
// references of a composite glyph rewritten by remap. Simple glyphs are
// copied unchanged. It is an error if remap cannot map a component.
func RemapComponents(data Segment, remap func(GlyphIndex) (GlyphIndex, bool)) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	comps, err := Components(data)
	if err != nil {
		return nil, err
	}
	for _, c := range comps {
		g, ok := remap(c.Glyph)
		if !ok {
			return nil, fmt.Errorf("%w %d", ErrUnmappedComponent, c.Glyph)
		}
		if err := PutU16At(out, c.Pos+2, uint16(g)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StripInstructions returns a copy of a glyph's outline data without TrueType
// hinting instructions.
func StripInstructions(data Segment) ([]byte, error) {
	n, err := NumberOfContours(data)
	if err != nil || len(data) == 0 {
		return nil, err
	}
	if n >= 0 { // simple glyph: header, endPtsOfContours, instructionLength, instructions, …
		at := glyphHeaderSize + 2*int(n)
		instrLen, err := data.U16(at)
		if err != nil {
			return nil, err
		}
		rest, err := data.From(at + 2 + int(instrLen))
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, at+2+len(rest))
		out = append(out, data[:at]...)
		out = append(out, 0, 0)
		return append(out, rest...), nil
	}
	comps, end, err := walkComponents(data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, end)
	copy(out, data[:end])
	for _, c := range comps {
		if c.Flags&WeHaveInstructions != 0 {
			_ = PutU16At(out, c.Pos, c.Flags&^WeHaveInstructions)
		}
	}
	return out, nil
}
