package otquery

import (
	"testing"

	ft "github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/sfnt"
)

// --- Test Suite Preparation ------------------------------------------------

type InfoTestEnviron struct {
	suite.Suite
	otf *ot.Font
}

// listen for 'go test' command --> run test methods
func TestInfoFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.query")
	defer teardown()
	suite.Run(t, new(InfoTestEnviron))
}

// run once, before test suite methods
func (env *InfoTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	tracing.Select("font.query").SetTraceLevel(tracing.LevelError)
	env.otf = parseFont(env.T(), testFont())
	tracing.Select("font.query").SetTraceLevel(tracing.LevelInfo)
}

// run once, after test suite methods
func (env *InfoTestEnviron) TearDownSuite() {
	env.T().Log("Tearing down test suite")
}

// --- Tests -----------------------------------------------------------------

func (env *InfoTestEnviron) TestFontTypeInfo() {
	env.Equal("TrueType", FontType(env.otf), "expected font type of test font to be TrueType")
	cff := parseFont(env.T(), &ft.Font{
		CFF:    true,
		Glyphs: []ft.Glyph{{Name: ".notdef", Advance: 500, Data: ft.CharString(ft.EndChar)}},
	})
	env.Equal("CFF", FontType(cff))
}

func (env *InfoTestEnviron) TestFamilyName() {
	family, subfamily := FamilyName(env.otf)
	env.Equal("Test Family", family, "expected font family name 'Test Family'")
	env.Equal("Regular", subfamily)
}

func (env *InfoTestEnviron) TestNameRecords() {
	var mac, win int
	for rec := range NameRecords(env.otf) {
		switch rec.Platform {
		case PlatformIDMacintosh:
			mac++
			if rec.Name == sfnt.NameIDFamily {
				env.Equal("Test Family", rec.Value, "Mac Roman record should decode")
			}
		case PlatformIDWindows:
			win++
		}
	}
	env.Equal(2, mac)
	env.Equal(4, win, "expected English and German Windows records")
	n := 0
	for range NamesRange(env.otf) {
		n++
	}
	env.Equal(4, n, "Mac records are shadowed by Windows records")
}

func (env *InfoTestEnviron) TestHeadInfo() {
	h, ok := HeadInfo(env.otf)
	env.Require().True(ok, "expected to decode table 'head'")
	env.Equal(env.otf.Head.UnitsPerEm, h.UnitsPerEm, "expected matching UnitsPerEm")
	env.Equal(uint16(1000), h.UnitsPerEm)
	env.Equal(int16(-100), h.YMin)
	env.Equal(int16(0), h.IndexToLocFormat)
	env.Equal(HeadMagic, h.MagicNumber, "expected OpenType head magic number")
	env.Equal(1904, h.ModifiedTime().Year())
	//
	long := testFont()
	long.LongLoca = true
	h, ok = HeadInfo(parseFont(env.T(), long))
	env.Require().True(ok)
	env.Equal(int16(1), h.IndexToLocFormat)
}

func (env *InfoTestEnviron) TestMaxPInfo() {
	m, ok := MaxPInfo(env.otf)
	env.Require().True(ok, "expected to decode table 'maxp'")
	env.Equal(uint16(env.otf.NumGlyphs()), m.NumGlyphs, "expected matching numGlyphs")
	env.True(m.HasExtendedProfile)
	env.Equal(uint16(64), m.MaxPoints)
	env.Equal(uint16(2), m.MaxZones)
}

func (env *InfoTestEnviron) TestFontMetrics() {
	m := FontMetrics(env.otf)
	env.Equal(sfnt.Units(1000), m.UnitsPerEm)
	env.Equal(sfnt.Units(800), m.Ascent)
	env.Equal(sfnt.Units(-200), m.Descent)
	env.Equal(sfnt.Units(600), m.MaxAdvance)
}

func (env *InfoTestEnviron) TestGlyphMetrics() {
	m := GlyphMetrics(env.otf, 2)
	env.Equal(sfnt.Units(600), m.Advance)
	env.Equal(sfnt.Units(10), m.LSB)
	env.Equal(BoundingBox{MinX: 0, MinY: 0, MaxX: 300, MaxY: 700}, m.BBox)
	env.Equal(sfnt.Units(290), m.RSB)
	env.False(m.Composite())
	//
	empty := GlyphMetrics(env.otf, 3)
	env.True(empty.BBox.IsEmpty())
	env.Equal(sfnt.Units(0), empty.RSB)
}

func (env *InfoTestEnviron) TestReverseLookup() {
	env.Equal(ot.GlyphIndex(2), GlyphIndex(env.otf, 'A'))
	env.Equal('A', CodePointForGlyph(env.otf, 2))
	env.Equal(rune(0), CodePointForGlyph(env.otf, 3), "glyph 3 is not mapped")
	env.Equal(rune(0), CodePointForGlyph(env.otf, 0))
}

func (env *InfoTestEnviron) TestCoverage() {
	covered, missing := Coverage(env.otf, "ABBA xA")
	env.Equal([]rune{'A', 'B'}, covered)
	env.Equal([]rune{' ', 'x'}, missing)
}

func (env *InfoTestEnviron) TestLayoutInfo() {
	env.Equal([]string{"GSUB"}, LayoutTables(env.otf))
	env.Equal([]ot.Tag{ot.T("latn")}, LayoutScripts(env.otf, "GSUB"))
	env.Equal([]ot.Tag{ot.T("liga"), ot.T("smcp")}, LayoutFeatures(env.otf, "GSUB"))
	env.Nil(LayoutFeatures(env.otf, "GPOS"))
}

func (env *InfoTestEnviron) TestScriptSupport() {
	scr, lang := FontSupportsScript(env.otf, ot.T("latn"), ot.T("DEU "))
	env.Equal(ot.T("latn"), scr)
	env.Equal(ot.T("DEU "), lang)
	scr, lang = FontSupportsScript(env.otf, ot.T("latn"), ot.T("TRK "))
	env.Equal(ot.T("latn"), scr)
	env.Equal(ot.DFLT, lang)
	scr, lang = FontSupportsScript(env.otf, ot.T("cyrl"), ot.T("SRB "))
	env.Equal(ot.DFLT, scr)
	env.Equal(ot.DFLT, lang)
}

// --- Helpers ----------------------------------------------------------

func testFont() *ft.Font {
	return &ft.Font{
		Glyphs: []ft.Glyph{
			{Name: ".notdef", Advance: 500, Data: ft.Box(400, 700)},
			{Name: "space", Advance: 250},
			{Name: "A", Advance: 600, LSB: 10, Data: ft.Box(300, 700)},
			{Name: "B", Advance: 550},
		},
		CMap:     map[rune]uint16{'A': 2, 'B': 3},
		Names:    map[uint16]string{1: "Test Family", 2: "Regular"},
		MacNames: true,
		Tables: map[string][]byte{
			"GSUB": ft.Layout(
				[]ft.Script{{Tag: "latn", LangSys: []ft.LangSys{
					{Required: 0xffff, Features: []uint16{0}},
					{Tag: "DEU ", Required: 0xffff, Features: []uint16{0, 1}},
				}}},
				[]ft.Feature{{Tag: "smcp", Lookups: []uint16{0}}, {Tag: "liga", Lookups: []uint16{0}}},
				[]ft.Lookup{{Type: 1, Subtables: [][]byte{ft.SingleSubst1(1, 2)}}},
			),
		},
	}
}

func parseFont(t *testing.T, f *ft.Font) *ot.Font {
	otf, err := ot.Parse(f.Build())
	if err != nil {
		t.Fatal(err)
	}
	return otf
}
