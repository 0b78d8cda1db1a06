package subset

import (
	"slices"

	"github.com/npillmayer/otsubset/ot"
)

// Offsets of OS/2 fields recomputed for a subset.
const (
	os2UnicodeRange = 42 // ulUnicodeRange1…4
	os2FirstChar    = 64
	os2LastChar     = 66
)

// buildOS2 recomputes the character range fields of OS/2 from the retained
// code points: usFirstCharIndex, usLastCharIndex and the ulUnicodeRange bits.
func buildOS2(data ot.Segment, plan *Plan) ([]byte, error) {
	out := slices.Clone([]byte(data))
	if len(out) < os2LastChar+2 {
		tracer().Infof("OS/2 table too short for character ranges, copied")
		return out, nil
	}
	first, last := rune(0xffff), rune(0)
	var bits [4]uint32
	for r := range plan.Unicodes {
		first, last = min(first, r), max(last, r)
		if bit := unicodeRangeBit(r); bit >= 0 {
			bits[bit/32] |= 1 << (bit % 32)
		}
		if r > 0xffff {
			bits[57/32] |= 1 << (57 % 32) // non-plane 0
		}
	}
	if len(plan.Unicodes) == 0 {
		first = 0
	}
	for i, b := range bits {
		if err := ot.PutU32At(out, os2UnicodeRange+4*i, b); err != nil {
			return nil, err
		}
	}
	_ = ot.PutU16At(out, os2FirstChar, uint16(min(first, 0xffff)))
	_ = ot.PutU16At(out, os2LastChar, uint16(min(last, 0xffff)))
	return out, nil
}

// unicodeRange is a block of code points assigned to an OS/2 Unicode range
// bit.
type unicodeRange struct {
	first, last rune
	bit         int
}

// unicodeRangeBit returns the OS/2 Unicode range bit of a code point, or -1.
func unicodeRangeBit(r rune) int {
	i, found := slices.BinarySearchFunc(unicodeRanges, r, func(ur unicodeRange, r rune) int {
		switch {
		case ur.last < r:
			return -1
		case ur.first > r:
			return 1
		}
		return 0
	})
	if !found {
		return -1
	}
	return unicodeRanges[i].bit
}

// unicodeRanges is sorted by code point.
var unicodeRanges = []unicodeRange{
	{0x0000, 0x007f, 0}, {0x0080, 0x00ff, 1}, {0x0100, 0x017f, 2}, {0x0180, 0x024f, 3},
	{0x0250, 0x02af, 4}, {0x02b0, 0x02ff, 5}, {0x0300, 0x036f, 6}, {0x0370, 0x03ff, 7},
	{0x0400, 0x04ff, 9}, {0x0500, 0x052f, 9}, {0x0530, 0x058f, 10}, {0x0590, 0x05ff, 11},
	{0x0600, 0x06ff, 13}, {0x0700, 0x074f, 71}, {0x0750, 0x077f, 13}, {0x0780, 0x07bf, 72},
	{0x07c0, 0x07ff, 14}, {0x0900, 0x097f, 15}, {0x0980, 0x09ff, 16}, {0x0a00, 0x0a7f, 17},
	{0x0a80, 0x0aff, 18}, {0x0b00, 0x0b7f, 19}, {0x0b80, 0x0bff, 20}, {0x0c00, 0x0c7f, 21},
	{0x0c80, 0x0cff, 22}, {0x0d00, 0x0d7f, 23}, {0x0d80, 0x0dff, 73}, {0x0e00, 0x0e7f, 24},
	{0x0e80, 0x0eff, 25}, {0x0f00, 0x0fff, 70}, {0x1000, 0x109f, 74}, {0x10a0, 0x10ff, 26},
	{0x1100, 0x11ff, 28}, {0x1200, 0x137f, 75}, {0x1380, 0x139f, 75}, {0x13a0, 0x13ff, 76},
	{0x1400, 0x167f, 77}, {0x1680, 0x169f, 78}, {0x16a0, 0x16ff, 79}, {0x1700, 0x171f, 84},
	{0x1720, 0x173f, 84}, {0x1740, 0x175f, 84}, {0x1760, 0x177f, 84}, {0x1780, 0x17ff, 80},
	{0x1800, 0x18af, 81}, {0x1900, 0x194f, 93}, {0x1950, 0x197f, 94}, {0x1980, 0x19df, 95},
	{0x19e0, 0x19ff, 80}, {0x1a00, 0x1a1f, 96}, {0x1b00, 0x1b7f, 27}, {0x1b80, 0x1bbf, 112},
	{0x1c00, 0x1c4f, 113}, {0x1c50, 0x1c7f, 114}, {0x1d00, 0x1d7f, 4}, {0x1d80, 0x1dbf, 4},
	{0x1dc0, 0x1dff, 6}, {0x1e00, 0x1eff, 29}, {0x1f00, 0x1fff, 30}, {0x2000, 0x206f, 31},
	{0x2070, 0x209f, 32}, {0x20a0, 0x20cf, 33}, {0x20d0, 0x20ff, 34}, {0x2100, 0x214f, 35},
	{0x2150, 0x218f, 36}, {0x2190, 0x21ff, 37}, {0x2200, 0x22ff, 38}, {0x2300, 0x23ff, 39},
	{0x2400, 0x243f, 40}, {0x2440, 0x245f, 41}, {0x2460, 0x24ff, 42}, {0x2500, 0x257f, 43},
	{0x2580, 0x259f, 44}, {0x25a0, 0x25ff, 45}, {0x2600, 0x26ff, 46}, {0x2700, 0x27bf, 47},
	{0x27c0, 0x27ef, 38}, {0x27f0, 0x27ff, 37}, {0x2800, 0x28ff, 82}, {0x2900, 0x297f, 37},
	{0x2980, 0x29ff, 38}, {0x2a00, 0x2aff, 38}, {0x2b00, 0x2bff, 37}, {0x2c00, 0x2c5f, 97},
	{0x2c60, 0x2c7f, 29}, {0x2c80, 0x2cff, 8}, {0x2d00, 0x2d2f, 26}, {0x2d30, 0x2d7f, 98},
	{0x2d80, 0x2ddf, 75}, {0x2de0, 0x2dff, 9}, {0x2e00, 0x2e7f, 31}, {0x2e80, 0x2eff, 59},
	{0x2f00, 0x2fdf, 59}, {0x2ff0, 0x2fff, 59}, {0x3000, 0x303f, 48}, {0x3040, 0x309f, 49},
	{0x30a0, 0x30ff, 50}, {0x3100, 0x312f, 51}, {0x3130, 0x318f, 52}, {0x3190, 0x319f, 59},
	{0x31a0, 0x31bf, 51}, {0x31c0, 0x31ef, 61}, {0x31f0, 0x31ff, 50}, {0x3200, 0x32ff, 54},
	{0x3300, 0x33ff, 55}, {0x3400, 0x4dbf, 59}, {0x4dc0, 0x4dff, 99}, {0x4e00, 0x9fff, 59},
	{0xa000, 0xa48f, 83}, {0xa490, 0xa4cf, 83}, {0xa500, 0xa63f, 12}, {0xa640, 0xa69f, 9},
	{0xa700, 0xa71f, 5}, {0xa720, 0xa7ff, 29}, {0xa800, 0xa82f, 100}, {0xa840, 0xa87f, 53},
	{0xa880, 0xa8df, 115}, {0xa900, 0xa92f, 116}, {0xa930, 0xa95f, 117}, {0xaa00, 0xaa5f, 118},
	{0xac00, 0xd7af, 56}, {0xd800, 0xdfff, 57}, {0xe000, 0xf8ff, 60}, {0xf900, 0xfaff, 61},
	{0xfb00, 0xfb4f, 62}, {0xfb50, 0xfdff, 63}, {0xfe00, 0xfe0f, 91}, {0xfe10, 0xfe1f, 65},
	{0xfe20, 0xfe2f, 64}, {0xfe30, 0xfe4f, 65}, {0xfe50, 0xfe6f, 66}, {0xfe70, 0xfeff, 67},
	{0xff00, 0xffef, 68}, {0xfff0, 0xffff, 69}, {0x10000, 0x1007f, 101}, {0x10080, 0x100ff, 101},
	{0x10100, 0x1013f, 101}, {0x10140, 0x1018f, 102}, {0x10190, 0x101cf, 119}, {0x101d0, 0x101ff, 120},
	{0x10280, 0x1029f, 121}, {0x102a0, 0x102df, 121}, {0x10300, 0x1032f, 85}, {0x10330, 0x1034f, 86},
	{0x10380, 0x1039f, 103}, {0x103a0, 0x103df, 104}, {0x10400, 0x1044f, 87}, {0x10450, 0x1047f, 105},
	{0x10480, 0x104af, 106}, {0x10800, 0x1083f, 107}, {0x10900, 0x1091f, 58}, {0x10920, 0x1093f, 121},
	{0x10a00, 0x10a5f, 108}, {0x12000, 0x123ff, 110}, {0x12400, 0x1247f, 110}, {0x1d000, 0x1d0ff, 88},
	{0x1d100, 0x1d1ff, 88}, {0x1d200, 0x1d24f, 88}, {0x1d300, 0x1d35f, 109}, {0x1d360, 0x1d37f, 111},
	{0x1d400, 0x1d7ff, 89}, {0x1f000, 0x1f02f, 122}, {0x1f030, 0x1f09f, 122}, {0x20000, 0x2a6df, 59},
	{0x2f800, 0x2fa1f, 61}, {0xe0000, 0xe007f, 92}, {0xe0100, 0xe01ef, 91}, {0xf0000, 0xffffd, 90},
	{0x100000, 0x10fffd, 90},
}
