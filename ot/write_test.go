package ot

import (
	"encoding/binary"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchParams(t *testing.T) {
	for _, x := range []struct {
		n                int
		sr, sel, rs uint16
	}{
		{1, 16, 0, 0}, {2, 32, 1, 0}, {9, 128, 3, 16}, {16, 256, 4, 0},
	} {
		sr, sel, rs := searchParams(x.n)
		assert.Equal(t, []uint16{x.sr, x.sel, x.rs}, []uint16{sr, sel, rs}, "%d tables", x.n)
	}
}

func TestSerialize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	_, err := NewFontBuilder(CFFFont).Serialize()
	assert.ErrorIs(t, err, ErrNoTables)
	//
	head := make([]byte, 54)
	binary.BigEndian.PutUint32(head[HeadChecksumAdjustment:], 0xdeadbeef)
	maxp := []byte{0, 0, 0x50, 0, 0, 7}
	fb := NewFontBuilder(CFFFont)
	fb.AddTable(T("maxp"), maxp)
	fb.AddTable(T("head"), head)
	fb.AddTable(T("zzzz"), []byte{1, 2, 3, 4, 5})
	fb.AddTable(T("tmp "), []byte{1})
	fb.RemoveTable(T("tmp "))
	assert.Equal(t, []Tag{T("head"), T("maxp"), T("zzzz")}, fb.Tags())
	assert.True(t, fb.HasTable(T("zzzz")))
	assert.False(t, fb.HasTable(T("tmp ")))
	out, err := fb.Serialize()
	require.NoError(t, err)
	assert.Equal(t, CFFFont, binary.BigEndian.Uint32(out))
	assert.Equal(t, uint16(3), binary.BigEndian.Uint16(out[4:]))
	assert.Equal(t, uint16(32), binary.BigEndian.Uint16(out[6:]))
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(out[8:]))
	assert.Equal(t, uint16(16), binary.BigEndian.Uint16(out[10:]))
	assert.Zero(t, len(out)%4)
	assert.Equal(t, uint32(0xB1B0AFBA), Checksum(out))
	assert.Equal(t, uint32(0xdeadbeef), binary.BigEndian.Uint32(head[HeadChecksumAdjustment:]),
		"builder must not modify its input")
	//
	otf, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, 7, otf.NumGlyphs())
	zzzz := otf.Table(T("zzzz"))
	require.NotNil(t, zzzz)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, []byte(zzzz.Binary()))
	for _, tag := range otf.TableTags() {
		off, size := otf.Table(tag).Extent()
		assert.Zero(t, off%4, "table %s not aligned", tag)
		if tag == T("head") {
			continue // checksum is calculated with checksumAdjustment set to 0
		}
		assert.Equal(t, Checksum(out[off:off+size]), tableChecksum(out, tag), "table %s", tag)
	}
}

// tableChecksum reads the checksum of a table record from the table directory.
func tableChecksum(font []byte, tag Tag) uint32 {
	n := int(binary.BigEndian.Uint16(font[4:]))
	for i := range n {
		rec := font[12+16*i:]
		if MakeTag(rec) == tag {
			return binary.BigEndian.Uint32(rec[4:])
		}
	}
	return 0
}
