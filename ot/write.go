package ot

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNoTables is returned when serializing a font builder without tables.
var ErrNoTables = errors.New("font has no tables")

// FontBuilder is an in-memory font under construction: a set of named tables
// waiting to be serialized into an SFNT container.
type FontBuilder struct {
	FontType uint32 // SFNT version, TrueTypeFont or CFFFont
	tables   map[Tag][]byte
}

// NewFontBuilder creates an empty font of a given SFNT flavour.
func NewFontBuilder(fontType uint32) *FontBuilder {
	if fontType == AppleTrue {
		fontType = TrueTypeFont
	}
	return &FontBuilder{FontType: fontType, tables: make(map[Tag][]byte)}
}

// AddTable adds or replaces a table.
func (fb *FontBuilder) AddTable(tag Tag, data []byte) {
	fb.tables[tag] = data
}

// RemoveTable removes a table, if present.
func (fb *FontBuilder) RemoveTable(tag Tag) {
	delete(fb.tables, tag)
}

// Table returns the data of a table, or nil.
func (fb *FontBuilder) Table(tag Tag) []byte {
	return fb.tables[tag]
}

// HasTable returns true if the builder contains a table for tag.
func (fb *FontBuilder) HasTable(tag Tag) bool {
	_, ok := fb.tables[tag]
	return ok
}

// Tags returns the tags of all tables, sorted.
func (fb *FontBuilder) Tags() []Tag {
	tags := make([]Tag, 0, len(fb.tables))
	for tag := range fb.tables {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Serialize writes the font into a new SFNT binary. Table records are sorted
// by tag, tables are 4-byte aligned, and checksums are computed. If the font
// contains a head table, its checksumAdjustment is set so that the whole font
// sums to 0xB1B0AFBA.
func (fb *FontBuilder) Serialize() ([]byte, error) {
	if len(fb.tables) == 0 {
		return nil, ErrNoTables
	}
	tags := fb.Tags()
	numTables := len(tags)
	searchRange, entrySelector, rangeShift := searchParams(numTables)
	headerSize := 12 + 16*numTables
	total := headerSize
	for _, tag := range tags {
		total += (len(fb.tables[tag]) + 3) &^ 3
	}
	if uint64(total) > 0xffffffff {
		return nil, fmt.Errorf("font size %d exceeds 32-bit offsets", total)
	}
	out := NewBuffer(total)
	out.PutU32(fb.FontType)
	out.PutU16(uint16(numTables))
	out.PutU16(searchRange)
	out.PutU16(entrySelector)
	out.PutU16(rangeShift)
	records := make([]int, numTables)
	for i, tag := range tags {
		out.PutTag(tag)
		records[i] = out.Reserve32() // checksum
		out.Reserve32()              // offset
		out.PutU32(uint32(len(fb.tables[tag])))
	}
	headAt := -1
	for i, tag := range tags {
		data := fb.tables[tag]
		offset := out.Len()
		out.Append(data)
		out.Pad(4)
		if tag == T("head") && len(data) >= HeadChecksumAdjustment+4 {
			headAt = offset
			_ = out.SetU32(offset+HeadChecksumAdjustment, 0)
		}
		table := out.Bytes()[offset : offset+len(data)]
		if err := out.SetU32(records[i], Checksum(table)); err != nil {
			return nil, err
		}
		if err := out.SetU32(records[i]+4, uint32(offset)); err != nil {
			return nil, err
		}
		tracer().Debugf("table %s at offset %d, %d bytes", tag, offset, len(data))
	}
	if headAt >= 0 {
		adjustment := uint32(0xB1B0AFBA) - Checksum(out.Bytes())
		if err := out.SetU32(headAt+HeadChecksumAdjustment, adjustment); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

// searchParams calculates the binary search parameters of the table directory.
func searchParams(numTables int) (searchRange, entrySelector, rangeShift uint16) {
	power := 1
	for power*2 <= numTables {
		power *= 2
		entrySelector++
	}
	searchRange = uint16(power * 16)
	rangeShift = uint16(numTables*16) - searchRange
	return
}

// Checksum calculates the OpenType table checksum, i.e. the sum of all
// big-endian uint32 values, with the table zero-padded to a multiple of 4 bytes.
func Checksum(data []byte) uint32 {
	var sum uint32
	n := len(data) &^ 3
	for i := 0; i < n; i += 4 {
		sum += u32(data[i:])
	}
	if rest := len(data) - n; rest > 0 {
		var last [4]byte
		copy(last[:], data[n:])
		sum += u32(last[:])
	}
	return sum
}
