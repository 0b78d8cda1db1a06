package otsubset

import (
	"errors"
	"path/filepath"
	"testing"

	ft "github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/otsubset/internal/fontload"
	"github.com/npillmayer/otsubset/subset"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/sfnt"
)

func testFont() []byte {
	return (&ft.Font{
		Glyphs: []ft.Glyph{
			{Name: ".notdef", Advance: 500, Data: ft.Box(400, 700)},
			{Name: "space", Advance: 250},
			{Name: "H", Advance: 600, Data: ft.Box(500, 700)},
			{Name: "i", Advance: 300, Data: ft.Box(100, 500)},
			{Name: "x", Advance: 500, Data: ft.Box(400, 500)},
		},
		CMap:      map[rune]uint16{' ': 1, 'H': 2, 'i': 3, 'x': 4},
		Names:     map[uint16]string{1: "Test", 2: "Regular", 4: "Test Regular", 6: "Test-Regular"},
		PostNames: true,
	}).Build()
}

func TestSubsetBytes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	out, err := SubsetBytes(testFont(), "Hi", nil)
	require.NoError(t, err)
	f, err := sfnt.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, 3, f.NumGlyphs(), "expected .notdef, H and i")
	var b sfnt.Buffer
	gid, err := f.GlyphIndex(&b, 'i')
	require.NoError(t, err)
	assert.Equal(t, sfnt.GlyphIndex(2), gid)
	gid, err = f.GlyphIndex(&b, 'x')
	require.NoError(t, err)
	assert.Equal(t, sfnt.GlyphIndex(0), gid, "'x' is not part of the subset")
}

func TestSubsetFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	dir := t.TempDir()
	in, out := filepath.Join(dir, "in.ttf"), filepath.Join(dir, "out.ttf")
	require.NoError(t, fontload.Save(in, testFont()))
	opts := subset.DefaultOptions()
	opts.RetainGIDs = true
	require.NoError(t, SubsetFile(in, out, "x", opts))
	f, err := LoadOpenTypeFont(out)
	require.NoError(t, err)
	assert.Equal(t, out, f.Filepath)
	assert.Equal(t, "Test Regular", f.Fontname)
	assert.Equal(t, 5, f.OT.NumGlyphs(), "glyph IDs are retained")
	family, subfamily := FamilyName(f.OT)
	assert.Equal(t, "Test", family)
	assert.Equal(t, "Regular", subfamily)
}

func TestSubsetEmptyText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	opts := subset.DefaultOptions()
	opts.IncludeNotdef = false
	_, err := SubsetBytes(testFont(), "", opts)
	assert.True(t, errors.Is(err, subset.ErrNoGlyphs), "have %v", err)
	_, err = SubsetBytes([]byte("no font"), "a", nil)
	assert.Error(t, err)
}
