package ot

import (
	"bytes"
	"testing"

	ft "github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	g := ft.CompositeGlyph(nil,
		ft.Component{Glyph: 3, Dx: 10},
		ft.Component{Glyph: 7, Scale: true},
		ft.Component{Glyph: 5, TwoBy2: true},
	)
	comps, err := Components(g)
	require.NoError(t, err)
	require.Len(t, comps, 3)
	assert.Equal(t, []GlyphIndex{3, 7, 5}, []GlyphIndex{comps[0].Glyph, comps[1].Glyph, comps[2].Glyph})
	assert.Equal(t, 10, comps[0].Pos)
	assert.Equal(t, 18, comps[1].Pos)
	assert.Equal(t, 28, comps[2].Pos)
	assert.NotZero(t, comps[1].Flags&WeHaveAScale)
	assert.Zero(t, comps[2].Flags&MoreComponents)
	//
	comps, err = Components(ft.Box(100, 100))
	assert.NoError(t, err)
	assert.Empty(t, comps)
	n, err := NumberOfContours(nil)
	assert.NoError(t, err)
	assert.Equal(t, int16(0), n)
	//
	_, err = Components(g[:len(g)-4])
	assert.ErrorIs(t, err, ErrBufferBounds)
}

func TestRemapComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	g := ft.CompositeGlyph(nil, ft.Component{Glyph: 3}, ft.Component{Glyph: 7})
	remap := map[GlyphIndex]GlyphIndex{3: 1, 7: 2}
	out, err := RemapComponents(g, func(gid GlyphIndex) (GlyphIndex, bool) {
		n, ok := remap[gid]
		return n, ok
	})
	require.NoError(t, err)
	assert.Equal(t, ft.CompositeGlyph(nil, ft.Component{Glyph: 1}, ft.Component{Glyph: 2}), out)
	assert.Equal(t, GlyphIndex(3), GlyphIndex(g[13]), "source must not be modified")
	//
	delete(remap, 7)
	_, err = RemapComponents(g, func(gid GlyphIndex) (GlyphIndex, bool) {
		n, ok := remap[gid]
		return n, ok
	})
	assert.ErrorIs(t, err, ErrUnmappedComponent)
	//
	box := ft.Box(200, 300)
	out, err = RemapComponents(box, func(GlyphIndex) (GlyphIndex, bool) { return 0, false })
	require.NoError(t, err)
	assert.Equal(t, box, out)
}

func TestStripInstructions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	pts := []ft.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}
	hinted := ft.SimpleGlyph([]byte{0xb0, 0x01, 0x2c}, pts...)
	out, err := StripInstructions(hinted)
	require.NoError(t, err)
	if !bytes.Equal(out, ft.SimpleGlyph(nil, pts...)) {
		t.Errorf("expected instructions to be removed from simple glyph, have % x", out)
	}
	//
	comps := []ft.Component{{Glyph: 1}, {Glyph: 2, TwoBy2: true}}
	out, err = StripInstructions(ft.CompositeGlyph([]byte{0xb0, 0x00}, comps...))
	require.NoError(t, err)
	assert.Equal(t, ft.CompositeGlyph(nil, comps...), out)
	//
	out, err = StripInstructions(nil)
	assert.NoError(t, err)
	assert.Empty(t, out)
}
