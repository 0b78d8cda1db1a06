package otlayout_test

import (
	"testing"

	"github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/otsubset/otlayout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCoverageChoosesSmallerFormat(t *testing.T) {
	sparse := []ot.GlyphIndex{1, 3, 10, 40}
	cov := otlayout.BuildCoverage(sparse)
	assert.Equal(t, uint16(1), uint16(cov[0])<<8|uint16(cov[1]))
	assert.Len(t, cov, 4+2*len(sparse))
	//
	dense := []ot.GlyphIndex{5, 6, 7, 8, 9, 10, 11}
	cov = otlayout.BuildCoverage(dense)
	assert.Equal(t, fonttest.Coverage2(fonttest.Range{Start: 5, End: 11, StartIndex: 0}), cov)
	// one range of two glyphs: format 2 is 10 bytes, format 1 is 8 bytes
	cov = otlayout.BuildCoverage([]ot.GlyphIndex{5, 6})
	assert.Equal(t, fonttest.Coverage1(5, 6), cov)
}

func TestCoverageRoundTrip(t *testing.T) {
	for _, glyphs := range [][]ot.GlyphIndex{
		{},
		{0},
		{1, 2, 3, 7, 8, 100},
		{10, 11, 12, 13, 14, 15, 16, 200, 201, 202, 203, 204},
	} {
		cov := otlayout.BuildCoverage(glyphs)
		parsed, err := otlayout.ParseCoverage(ot.Segment(cov), 0)
		require.NoError(t, err)
		assert.Equal(t, len(glyphs), len(parsed))
		for i := range glyphs {
			assert.Equal(t, glyphs[i], parsed[i], "coverage index %d", i)
		}
	}
}

func TestSubsetCoverageCarriesIndex(t *testing.T) {
	cov := fonttest.Coverage2(
		fonttest.Range{Start: 10, End: 12, StartIndex: 0},
		fonttest.Range{Start: 20, End: 21, StartIndex: 3},
	)
	m := glyphMap{11: 1, 20: 3, 21: 2}
	entries, err := otlayout.SubsetCoverage(ot.Segment(cov), 0, m)
	require.NoError(t, err)
	assert.Equal(t, []otlayout.CoverageEntry{
		{New: 1, Old: 11, Index: 1},
		{New: 2, Old: 21, Index: 4},
		{New: 3, Old: 20, Index: 3},
	}, entries, "entries are sorted by new glyph")
}

func TestCoverageErrors(t *testing.T) {
	_, err := otlayout.ParseCoverage(ot.Segment(fonttest.Coverage1(1, 2, 3)[:7]), 0)
	assert.ErrorIs(t, err, ot.ErrBufferBounds)
	_, err = otlayout.ParseCoverage(ot.Segment{0, 3, 0, 0}, 0)
	assert.Error(t, err)
}

func TestClassDefRoundTrip(t *testing.T) {
	classes := map[ot.GlyphIndex]uint16{3: 1, 4: 1, 5: 2, 9: 1}
	cd := otlayout.BuildClassDef(classes)
	assert.Equal(t, uint16(1), uint16(cd[0])<<8|uint16(cd[1]), "compact range favours format 1")
	parsed, err := otlayout.ParseClassDef(ot.Segment(cd), 0)
	require.NoError(t, err)
	assert.Equal(t, classes, parsed)
	//
	classes = map[ot.GlyphIndex]uint16{3: 1, 4000: 2}
	cd = otlayout.BuildClassDef(classes)
	assert.Equal(t, uint16(2), uint16(cd[0])<<8|uint16(cd[1]))
	parsed, err = otlayout.ParseClassDef(ot.Segment(cd), 0)
	require.NoError(t, err)
	assert.Equal(t, classes, parsed)
	//
	sub, err := otlayout.SubsetClassDef(ot.Segment(cd), 0, glyphMap{4000: 7})
	require.NoError(t, err)
	assert.Equal(t, map[ot.GlyphIndex]uint16{7: 2}, sub)
}
