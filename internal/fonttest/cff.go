package fonttest

import "encoding/binary"

// Op is a Type 2 CharString operator. Two-byte operators are written as
// 0x0c00 | second byte.
type Op uint16

// Type 2 CharString operators used in tests.
const (
	HStem     Op = 1
	VStem     Op = 3
	RMoveTo   Op = 21
	RLineTo   Op = 5
	HLineTo   Op = 6
	CallSubr  Op = 10
	Return    Op = 11
	EndChar   Op = 14
	HStemHM   Op = 18
	HintMask  Op = 19
	VStemHM   Op = 23
	CallGSubr Op = 29
	And       Op = 0x0c03
)

// Mask is a run of raw hint mask bytes following HintMask.
type Mask []byte

// CharString encodes items into Type 2 bytecode: ints are encoded as numbers
// (shortest encoding), Ops as operators, Masks as raw bytes.
func CharString(items ...any) []byte {
	var b []byte
	for _, it := range items {
		switch v := it.(type) {
		case int:
			b = append(b, Number(v)...)
		case Op:
			if v > 0xff {
				b = append(b, 12, byte(v))
			} else {
				b = append(b, byte(v))
			}
		case Mask:
			b = append(b, v...)
		default:
			panic("fonttest: unsupported CharString item")
		}
	}
	return b
}

// Number encodes an integer operand of a Type 2 CharString.
func Number(v int) []byte {
	switch {
	case v >= -107 && v <= 107:
		return []byte{byte(v + 139)}
	case v >= 108 && v <= 1131:
		v -= 108
		return []byte{byte(v>>8 + 247), byte(v)}
	case v >= -1131 && v <= -108:
		v = -v - 108
		return []byte{byte(v>>8 + 251), byte(v)}
	}
	return []byte{28, byte(v >> 8), byte(v)}
}

func index(items [][]byte) []byte {
	b := be16(nil, uint16(len(items)))
	if len(items) == 0 {
		return b
	}
	b = append(b, 4)
	off := uint32(1)
	b = be32(b, off)
	for _, it := range items {
		off += uint32(len(it))
		b = be32(b, off)
	}
	for _, it := range items {
		b = append(b, it...)
	}
	return b
}

func dictInt(b []byte, v int) []byte {
	b = append(b, 29)
	return binary.BigEndian.AppendUint32(b, uint32(int32(v)))
}

// cff writes a CFF table with a custom charset (all glyph names as custom
// strings), the font's CharStrings, local and global subroutines, and a
// Private DICT with defaultWidthX 500 and nominalWidthX 400.
func (f *Font) cff() []byte {
	var strings, charstrings [][]byte
	var charset = []byte{0} // format 0
	for i, g := range f.Glyphs {
		charstrings = append(charstrings, g.Data)
		if i == 0 {
			continue
		}
		charset = be16(charset, uint16(391+len(strings)))
		strings = append(strings, []byte(g.Name))
	}
	var private []byte
	private = dictInt(private, 500)
	private = append(private, 20)
	private = dictInt(private, 400)
	private = append(private, 21)
	if len(f.LocalSubrs) > 0 {
		private = dictInt(private, len(private)+6)
		private = append(private, 19)
	}
	header := []byte{1, 0, 4, 4}
	names := index([][]byte{[]byte("TestFont")})
	strIndex := index(strings)
	gsubrs := index(f.GlobalSubrs)
	const topSize = 6 + 6 + 11
	topIndexSize := len(index([][]byte{make([]byte, topSize)}))
	charsetAt := len(header) + len(names) + topIndexSize + len(strIndex) + len(gsubrs)
	charstringsAt := charsetAt + len(charset)
	csIndex := index(charstrings)
	privateAt := charstringsAt + len(csIndex)
	var top []byte
	top = dictInt(top, charsetAt)
	top = append(top, 15)
	top = dictInt(top, charstringsAt)
	top = append(top, 17)
	top = dictInt(top, len(private))
	top = dictInt(top, privateAt)
	top = append(top, 18)
	b := append([]byte{}, header...)
	b = append(b, names...)
	b = append(b, index([][]byte{top})...)
	b = append(b, strIndex...)
	b = append(b, gsubrs...)
	b = append(b, charset...)
	b = append(b, csIndex...)
	b = append(b, private...)
	if len(f.LocalSubrs) > 0 {
		b = append(b, index(f.LocalSubrs)...)
	}
	return b
}

// CFFTable returns the CFF table of a CFF flavored font description.
func (f *Font) CFFTable() []byte {
	return f.cff()
}
