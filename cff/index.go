package cff

import (
	"fmt"

	"github.com/npillmayer/otsubset/ot"
)

// Index is a decoded CFF INDEX: an array of variable-sized objects. Items are
// views onto the source data.
type Index []ot.Segment

// ParseIndex decodes an INDEX at offset within src and returns it together
// with the offset of the first byte following it.
//
// The encoded offsets are 1-based, relative to the byte preceding the object
// data.
func ParseIndex(src ot.Segment, offset int) (Index, int, error) {
	r := src.Reader()
	count := int(r.U16(offset))
	if r.Err() != nil {
		return nil, 0, r.Err()
	}
	if count == 0 {
		return Index{}, offset + 2, nil
	}
	offSize := int(r.U8(offset + 2))
	if offSize < 1 || offSize > 4 {
		return nil, 0, fmt.Errorf("INDEX offset size %d: %w", offSize, ErrUnsupported)
	}
	offsets := make([]int, count+1)
	arr := r.View(offset+3, (count+1)*offSize)
	if r.Err() != nil {
		return nil, 0, r.Err()
	}
	for i := range offsets {
		v := 0
		for _, b := range arr[i*offSize : (i+1)*offSize] {
			v = v<<8 | int(b)
		}
		offsets[i] = v
	}
	base := offset + 3 + (count+1)*offSize - 1
	index := make(Index, count)
	for i := range index {
		if offsets[i] < 1 || offsets[i+1] < offsets[i] {
			return nil, 0, fmt.Errorf("INDEX offset %d out of order: %w", i, ot.ErrBufferBounds)
		}
		index[i] = r.View(base+offsets[i], offsets[i+1]-offsets[i])
	}
	if r.Err() != nil {
		return nil, 0, r.Err()
	}
	return index, base + offsets[count], nil
}

// BuildIndex encodes items as an INDEX with the smallest possible offset size.
func BuildIndex(items [][]byte) []byte {
	if len(items) == 0 {
		return []byte{0, 0}
	}
	total := 1
	for _, it := range items {
		total += len(it)
	}
	offSize := 1
	for lim := 0xff; total > lim && offSize < 4; lim = lim<<8 | 0xff {
		offSize++
	}
	buf := ot.NewBuffer(3 + (len(items)+1)*offSize + total - 1)
	buf.PutU16(uint16(len(items)))
	buf.PutU8(uint8(offSize))
	putOffset := func(v int) {
		for k := offSize - 1; k >= 0; k-- {
			buf.PutU8(uint8(v >> (8 * k)))
		}
	}
	off := 1
	putOffset(off)
	for _, it := range items {
		off += len(it)
		putOffset(off)
	}
	for _, it := range items {
		buf.Append(it)
	}
	return buf.Bytes()
}

// Bias returns the subroutine number bias for a subroutine INDEX with count
// entries. Operands of callsubr and callgsubr are biased by this amount.
func Bias(count int) int {
	switch {
	case count < 1240:
		return 107
	case count < 33900:
		return 1131
	}
	return 32768
}
