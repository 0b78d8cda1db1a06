package cff_test

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/npillmayer/otsubset/cff"
	ft "github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFont() *ft.Font {
	return &ft.Font{
		CFF: true,
		Glyphs: []ft.Glyph{
			{Name: ".notdef", Advance: 500, Data: ft.CharString(ft.EndChar)},
			{Name: "A", Advance: 600, Data: ft.CharString(200, -107, ft.CallSubr, ft.EndChar)},
			{Name: "B", Advance: 500, Data: ft.CharString(-107, ft.CallGSubr, -106, ft.CallSubr, ft.EndChar)},
			{Name: "C", Advance: 500, Data: ft.CharString(0, 0, ft.RMoveTo, ft.EndChar)},
		},
		LocalSubrs: [][]byte{
			ft.CharString(0, 0, ft.RMoveTo, 100, ft.HLineTo, ft.Return),
			ft.CharString(50, 50, ft.RLineTo, ft.Return),
		},
		GlobalSubrs: [][]byte{
			ft.CharString(10, 10, ft.RMoveTo, ft.Return),
		},
	}
}

func TestParseCFF(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.cff")
	defer teardown()
	//
	f, err := cff.Parse(testFont().CFFTable())
	require.NoError(t, err)
	assert.Equal(t, "TestFont", f.Name)
	assert.Len(t, f.CharStrings, 4)
	assert.Len(t, f.LocalSubrs, 2)
	assert.Len(t, f.GlobalSubrs, 1)
	assert.Equal(t, "B", f.GlyphName(2))
	assert.Equal(t, "", f.GlyphName(0))
	dw, err := f.Private.Ints(cff.OpDefaultWidthX, 1)
	require.NoError(t, err)
	assert.Equal(t, 500, dw[0])
}

func TestBuildSubset(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.cff")
	defer teardown()
	//
	src := testFont().CFFTable()
	out, err := cff.Build(src, []ot.GlyphIndex{0, 2, 1}, cff.BuildOptions{})
	require.NoError(t, err)
	f, err := cff.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "TestFont", f.Name)
	require.Len(t, f.CharStrings, 3)
	assert.Len(t, f.GlobalSubrs, 0)
	assert.Len(t, f.LocalSubrs, 0)
	assert.False(t, f.Private.Has(cff.OpSubrs))
	assert.Equal(t, ft.CharString(ft.EndChar), []byte(f.CharStrings[0]))
	assert.Equal(t, ft.CharString(10, 10, ft.RMoveTo, 50, 50, ft.RLineTo, ft.EndChar), []byte(f.CharStrings[1]))
	assert.Equal(t, ft.CharString(200, 0, 0, ft.RMoveTo, 100, ft.HLineTo, ft.EndChar), []byte(f.CharStrings[2]))
	assert.Equal(t, "B", f.GlyphName(1))
	assert.Equal(t, "A", f.GlyphName(2))
	assert.Len(t, f.Strings, 2)
	nw, err := f.Private.Ints(cff.OpNominalWidthX, 1)
	require.NoError(t, err)
	assert.Equal(t, 400, nw[0])
	// Top DICT carries the offsets and nothing else
	for _, e := range f.TopDict.Entries {
		assert.Contains(t, []cff.Operator{cff.OpCharset, cff.OpCharStrings, cff.OpPrivate}, e.Op)
	}
}

func TestBuildEmptySlots(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.cff")
	defer teardown()
	//
	out, err := cff.Build(testFont().CFFTable(), []ot.GlyphIndex{0, cff.EmptyGlyph, 3}, cff.BuildOptions{})
	require.NoError(t, err)
	f, err := cff.Parse(out)
	require.NoError(t, err)
	require.Len(t, f.CharStrings, 3)
	assert.Equal(t, []byte{14}, []byte(f.CharStrings[1]))
	assert.Equal(t, uint16(0), f.Charset[1])
	assert.Equal(t, "C", f.GlyphName(2))
}

func TestBuildReplacesBrokenGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.cff")
	defer teardown()
	//
	font := testFont()
	font.Glyphs[3].Data = ft.CharString(-90, ft.CallSubr, ft.EndChar) // no such subroutine
	out, err := cff.Build(font.CFFTable(), []ot.GlyphIndex{0, 3}, cff.BuildOptions{})
	require.NoError(t, err)
	f, err := cff.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{14}, []byte(f.CharStrings[1]))
}

func TestBuildRejectsCFF2(t *testing.T) {
	src := testFont().CFFTable()
	src[0] = 2
	_, err := cff.Build(src, []ot.GlyphIndex{0}, cff.BuildOptions{})
	assert.True(t, errors.Is(err, cff.ErrUnsupported), "CFF2 should be rejected, have %v", err)
}

func TestIndexRoundTrip(t *testing.T) {
	items := [][]byte{[]byte("a"), bytes.Repeat([]byte{7}, 300), {}, []byte("xyz")}
	data := cff.BuildIndex(items)
	assert.Equal(t, byte(2), data[2], "offsets beyond 255 need 2 bytes")
	data = append(data, 0xaa) // trailing byte must not be consumed
	index, end, err := cff.ParseIndex(ot.Segment(data), 0)
	require.NoError(t, err)
	assert.Equal(t, len(data)-1, end)
	require.Len(t, index, len(items))
	for i := range items {
		assert.Equal(t, items[i], []byte(index[i]))
	}
	//
	empty := cff.BuildIndex(nil)
	assert.Equal(t, []byte{0, 0}, empty)
	index, end, err = cff.ParseIndex(ot.Segment(empty), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, end)
	assert.Len(t, index, 0)
	//
	_, _, err = cff.ParseIndex(ot.Segment(data[:10]), 0)
	assert.ErrorIs(t, err, ot.ErrBufferBounds)
}

func TestDictRoundTrip(t *testing.T) {
	var d cff.Dict
	d.Append(cff.OpCharset, 1000)
	d.Append(cff.OpPrivate, 18, 70000)
	d.Append(cff.OpFontBBox, -200, -1131, 32767, 0)
	enc := d.Encode()
	parsed, err := cff.ParseDict(enc)
	require.NoError(t, err)
	priv, err := parsed.Ints(cff.OpPrivate, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{18, 70000}, priv)
	bbox, err := parsed.Ints(cff.OpFontBBox, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{-200, -1131, 32767, 0}, bbox)
	assert.Equal(t, enc, parsed.Encode())
	//
	reals := []byte{30, 0x1a, 0x25, 0xff, 12, 9, 30, 0xea, 0x5f, 12, 10}
	parsed, err = cff.ParseDict(reals)
	require.NoError(t, err)
	scale, ok := parsed.Get(cff.OpBlueScale)
	require.True(t, ok)
	assert.True(t, scale[0].IsReal())
	assert.InDelta(t, 1.25, scale[0].Float(), 1e-9)
	shift, _ := parsed.Get(cff.OpBlueShift)
	assert.InDelta(t, -0.5, shift[0].Float(), 1e-9)
	assert.Equal(t, reals, parsed.Encode())
	assert.True(t, slices.Equal(cff.EncodeDictInt(0), []byte{139}))
	//
	_, err = cff.ParseDict([]byte{139, 140})
	assert.ErrorIs(t, err, ot.ErrBufferBounds, "operands without operator")
}
