package fonttest

import "encoding/binary"

// Point is an on-curve point of a simple glyph.
type Point struct{ X, Y int16 }

// SimpleGlyph encodes a one-contour TrueType glyph through the given points,
// with optional hinting instructions. Coordinates are written as 16-bit deltas.
func SimpleGlyph(instructions []byte, pts ...Point) []byte {
	if len(pts) == 0 {
		return nil
	}
	xMin, yMin, xMax, yMax := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts {
		xMin, yMin = min(xMin, p.X), min(yMin, p.Y)
		xMax, yMax = max(xMax, p.X), max(yMax, p.Y)
	}
	b := be16(nil, 1) // one contour
	b = be16(b, uint16(xMin))
	b = be16(b, uint16(yMin))
	b = be16(b, uint16(xMax))
	b = be16(b, uint16(yMax))
	b = be16(b, uint16(len(pts)-1)) // endPtsOfContours
	b = be16(b, uint16(len(instructions)))
	b = append(b, instructions...)
	for range pts {
		b = append(b, 0x01) // on curve, 16-bit x and y
	}
	var last Point
	for _, p := range pts {
		b = be16(b, uint16(p.X-last.X))
		last.X = p.X
	}
	for _, p := range pts {
		b = be16(b, uint16(p.Y-last.Y))
		last.Y = p.Y
	}
	return b
}

// Box is a simple rectangular glyph.
func Box(w, h int16) []byte {
	return SimpleGlyph(nil, Point{0, 0}, Point{w, 0}, Point{w, h}, Point{0, h})
}

// Component is a reference from a composite glyph.
type Component struct {
	Glyph  uint16
	Dx, Dy int16
	Scale  bool // add a WE_HAVE_A_SCALE transform (scale 1.0)
	TwoBy2 bool // add a WE_HAVE_A_TWO_BY_TWO transform (identity)
}

// CompositeGlyph encodes a composite glyph from components. If instructions
// are given, the last component carries WE_HAVE_INSTRUCTIONS.
func CompositeGlyph(instructions []byte, comps ...Component) []byte {
	b := be16(nil, 0xffff) // numberOfContours = -1
	b = append(b, make([]byte, 8)...)
	binary.BigEndian.PutUint16(b[6:], 500)
	binary.BigEndian.PutUint16(b[8:], 700)
	for i, c := range comps {
		flags := uint16(0x0001 | 0x0002) // words, xy values
		if i < len(comps)-1 {
			flags |= 0x0020
		} else if len(instructions) > 0 {
			flags |= 0x0100
		}
		if c.Scale {
			flags |= 0x0008
		} else if c.TwoBy2 {
			flags |= 0x0080
		}
		b = be16(b, flags)
		b = be16(b, c.Glyph)
		b = be16(b, uint16(c.Dx))
		b = be16(b, uint16(c.Dy))
		if c.Scale {
			b = be16(b, 0x4000)
		} else if c.TwoBy2 {
			b = be16(b, 0x4000)
			b = be16(b, 0)
			b = be16(b, 0)
			b = be16(b, 0x4000)
		}
	}
	if len(instructions) > 0 {
		b = be16(b, uint16(len(instructions)))
		b = append(b, instructions...)
	}
	return b
}
