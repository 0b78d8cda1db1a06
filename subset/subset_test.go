package subset_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/font/opentype/tables"
	"github.com/npillmayer/otsubset/cff"
	ft "github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/otsubset/otlayout"
	"github.com/npillmayer/otsubset/subset"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// --- Test Suite Preparation ------------------------------------------------

type SubsetTestEnviron struct {
	suite.Suite
	ttf *ot.Font
}

// listen for 'go test' command --> run test methods
func TestSubsetFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	suite.Run(t, new(SubsetTestEnviron))
}

// testGlyphs returns 25 glyphs. Glyph 5 ("A") carries instructions, glyph 9
// ("B") is a composite of glyphs 5 and 20.
func testGlyphs() []ft.Glyph {
	glyphs := make([]ft.Glyph, 25)
	for i := range glyphs {
		glyphs[i] = ft.Glyph{
			Name:    fmt.Sprintf("g%02d", i),
			Advance: 500 + 10*uint16(i),
			Data:    ft.Box(int16(100+i), 700),
		}
	}
	glyphs[0].Name = ".notdef"
	glyphs[5].Name = "A"
	glyphs[5].Data = ft.SimpleGlyph([]byte{0xb0, 0x01}, ft.Point{X: 0, Y: 0}, ft.Point{X: 300, Y: 700}, ft.Point{X: 600, Y: 0})
	glyphs[9].Name = "B"
	glyphs[9].Data = ft.CompositeGlyph(nil, ft.Component{Glyph: 5}, ft.Component{Glyph: 20, Dx: 300})
	return glyphs
}

// testGSUB has a single feature 'smcp' for script 'latn', substituting
// glyph 5 by glyph 21.
func testGSUB() []byte {
	return ft.Layout(
		[]ft.Script{{Tag: "latn", LangSys: []ft.LangSys{{Required: 0xffff, Features: []uint16{0}}}}},
		[]ft.Feature{{Tag: "smcp", Lookups: []uint16{0}}},
		[]ft.Lookup{{Type: 1, Subtables: [][]byte{ft.SingleSubst1(16, 5)}}},
	)
}

func testTrueType() *ft.Font {
	return &ft.Font{
		Glyphs: testGlyphs(),
		CMap:   map[rune]uint16{'A': 5, 'B': 9, 'C': 10, 'D': 11, 0x1f600: 22},
		Names: map[uint16]string{
			1: "Test Family", 2: "Regular", 4: "Test Family Regular", 6: "TestFamily-Regular", 13: "License",
		},
		MacNames:  true,
		PostNames: true,
		Tables: map[string][]byte{
			"GSUB": testGSUB(),
			"fpgm": {0xb0, 0x00},
			"kern": {0, 0, 0, 0},
			"hdmx": {0, 0, 0, 0},
			"CBDT": {0, 3, 0, 0},
		},
	}
}

// run once, before test suite methods
func (env *SubsetTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	otf, err := ot.Parse(testTrueType().Build())
	env.Require().NoError(err)
	env.ttf = otf
	tracing.Select("font.subset").SetTraceLevel(tracing.LevelInfo)
}

// run once, after test suite methods
func (env *SubsetTestEnviron) TearDownSuite() {
	env.T().Log("Tearing down test suite")
}

// --- Helpers ---------------------------------------------------------------

// run subsets the test font and returns the serialized result together with
// the plan.
func (env *SubsetTestEnviron) run(opts *subset.Options) ([]byte, *subset.Plan) {
	s := subset.NewSubsetter(env.ttf, opts)
	fb, err := s.Run()
	env.Require().NoError(err)
	data, err := fb.Serialize()
	env.Require().NoError(err)
	return data, s.Plan()
}

func textOptions(text string) *subset.Options {
	opts := subset.DefaultOptions()
	opts.Unicodes = subset.TextUnicodes(text, false)
	return opts
}

// validate checks a subset font with golang.org/x/image/font/sfnt.
func (env *SubsetTestEnviron) validate(data []byte, numGlyphs int) *sfnt.Font {
	f, err := sfnt.Parse(data)
	env.Require().NoError(err, "x/image cannot parse subset font")
	env.Require().Equal(numGlyphs, f.NumGlyphs())
	var b sfnt.Buffer
	for g := range numGlyphs {
		_, err := f.LoadGlyph(&b, sfnt.GlyphIndex(g), fixed.I(12), nil)
		env.NoError(err, "x/image cannot load glyph %d", g)
	}
	return f
}

func rawTable(data []byte, tag string) ([]byte, error) {
	ld, err := opentype.NewLoader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ld.RawTable(opentype.MustNewTag(tag))
}

// --- Tests -----------------------------------------------------------------

func (env *SubsetTestEnviron) TestCompositeClosure() {
	data, plan := env.run(textOptions("AB"))
	env.Equal([]ot.GlyphIndex{0, 5, 9, 20}, plan.RetainedGlyphs)
	for i, g := range plan.RetainedGlyphs {
		n, ok := plan.Map(g)
		env.True(ok)
		env.Equal(ot.GlyphIndex(i), n)
	}
	f := env.validate(data, 4)
	var b sfnt.Buffer
	gA, err := f.GlyphIndex(&b, 'A')
	env.Require().NoError(err)
	env.Equal(sfnt.GlyphIndex(1), gA)
	gB, _ := f.GlyphIndex(&b, 'B')
	env.Equal(sfnt.GlyphIndex(2), gB)
	gC, _ := f.GlyphIndex(&b, 'C')
	env.Equal(sfnt.GlyphIndex(0), gC, "C is not part of the subset")
	adv, err := f.GlyphAdvance(&b, 3, fixed.I(1000), font.HintingNone)
	env.Require().NoError(err)
	env.Equal(fixed.I(700), adv, "advance of source glyph 20")
	//
	otf, err := ot.Parse(data)
	env.Require().NoError(err)
	composite, err := otf.Glyf.Glyph(2)
	env.Require().NoError(err)
	comps, err := ot.Components(composite)
	env.Require().NoError(err)
	env.Require().Len(comps, 2)
	env.Equal(ot.GlyphIndex(1), comps[0].Glyph)
	env.Equal(ot.GlyphIndex(3), comps[1].Glyph)
}

func (env *SubsetTestEnviron) TestLocaConsistency() {
	for _, long := range []bool{false, true} {
		desc := testTrueType()
		desc.LongLoca = long
		otf, err := ot.Parse(desc.Build())
		env.Require().NoError(err)
		fb, err := subset.SubsetText(otf, "ABCD", nil)
		env.Require().NoError(err)
		data, err := fb.Serialize()
		env.Require().NoError(err)
		out, err := ot.Parse(data)
		env.Require().NoError(err)
		env.Equal(uint16(0), out.Head.IndexToLocFormat, "small glyf uses short loca")
		raw, err := rawTable(data, "loca")
		env.Require().NoError(err)
		loca, err := tables.ParseLoca(raw, out.NumGlyphs(), false)
		env.Require().NoError(err)
		src := []ot.GlyphIndex{0, 5, 9, 10, 11, 20}
		for i := range out.NumGlyphs() {
			orig, _ := otf.Glyf.Glyph(src[i])
			padded := len(orig) + len(orig)%2
			env.Equal(padded, int(loca[i+1]-loca[i]), "size of glyph %d", i)
		}
	}
}

func (env *SubsetTestEnviron) TestRetainGIDs() {
	opts := textOptions("AB")
	opts.RetainGIDs = true
	data, plan := env.run(opts)
	env.Equal(21, plan.NumGlyphs())
	env.Equal(subset.NoGlyph, plan.SourceGlyph(7))
	f := env.validate(data, 21)
	var b sfnt.Buffer
	g, _ := f.GlyphIndex(&b, 'B')
	env.Equal(sfnt.GlyphIndex(9), g)
	adv, err := f.GlyphAdvance(&b, 7, fixed.I(1000), font.HintingNone)
	env.Require().NoError(err)
	env.Equal(fixed.I(0), adv, "empty slot has no advance")
	raw, err := rawTable(data, "loca")
	env.Require().NoError(err)
	loca, err := tables.ParseLoca(raw, 21, false)
	env.Require().NoError(err)
	env.Equal(loca[7], loca[8], "empty slot has no outline")
}

func (env *SubsetTestEnviron) TestTableDropping() {
	data, _ := env.run(textOptions("A"))
	otf, err := ot.Parse(data)
	env.Require().NoError(err)
	env.False(otf.HasTable(ot.T("kern")), "kern is on the default drop list")
	env.False(otf.HasTable(ot.T("hdmx")), "hdmx is never carried over")
	env.True(otf.HasTable(ot.T("fpgm")), "hinting is kept by default")
	env.Equal([]byte{0, 3, 0, 0}, []byte(otf.Table(ot.T("CBDT")).Binary()), "unknown tables are copied")
	env.False(otf.HasTable(ot.T("vmtx")), "absent tables are not synthesized")
	//
	opts := textOptions("A")
	opts.KeepHinting = false
	opts.DropColorBitmapTables = true
	data, _ = env.run(opts)
	otf, err = ot.Parse(data)
	env.Require().NoError(err)
	env.False(otf.HasTable(ot.T("fpgm")))
	env.False(otf.HasTable(ot.T("CBDT")))
	glyph, err := otf.Glyf.Glyph(1)
	env.Require().NoError(err)
	instrLen, err := glyph.U16(12)
	env.Require().NoError(err)
	env.Equal(uint16(0), instrLen, "instructions of glyph A are stripped")
	maxZones, _ := otf.MaxP.Binary().U16(14)
	env.Equal(uint16(1), maxZones)
	env.validate(data, 2)
}

func (env *SubsetTestEnviron) TestLayoutPruning() {
	data, plan := env.run(textOptions("A"))
	otf, err := ot.Parse(data)
	env.Require().NoError(err)
	env.False(otf.HasTable(ot.T("GSUB")), "substitute of A is not retained, GSUB is empty")
	lookups, ok := plan.LookupIndexMap[ot.T("GSUB")].Unwrap()
	env.True(ok, "GSUB has been pruned")
	env.Empty(lookups)
	_, ok = plan.LookupIndex(ot.T("GSUB"), 0)
	env.False(ok, "lookup 0 is dropped")
	env.True(plan.LookupIndexMap[ot.T("GPOS")].IsNone(), "font has no GPOS")
}

func (env *SubsetTestEnviron) TestLayoutClosure() {
	opts := textOptions("A")
	opts.LayoutClosure = true
	data, plan := env.run(opts)
	env.Equal([]ot.GlyphIndex{0, 5, 21}, plan.RetainedGlyphs)
	env.Equal(1, plan.RetainedLookups[ot.T("GSUB")].Size())
	inx, ok := plan.LookupIndex(ot.T("GSUB"), 0)
	env.True(ok)
	env.Equal(0, inx)
	otf, err := ot.Parse(data)
	env.Require().NoError(err)
	gsub, err := otlayout.Parse(ot.T("GSUB"), otf.Table(ot.T("GSUB")).Binary())
	env.Require().NoError(err)
	env.Require().Len(gsub.Lookups, 1)
	env.Require().Len(gsub.Features, 1)
	env.Equal(ot.T("smcp"), gsub.Features[0].Tag)
	env.validate(data, 3)
	//
	opts.LayoutFeatures = otlayout.NewTagFilter("liga")
	_, plan = env.run(opts)
	env.Equal([]ot.GlyphIndex{0, 5}, plan.RetainedGlyphs, "smcp is filtered out")
	//
	opts.LayoutFeatures = nil
	opts.DropLayoutTables = true
	data, plan = env.run(opts)
	env.Equal([]ot.GlyphIndex{0, 5}, plan.RetainedGlyphs, "no closure over dropped tables")
	otf, _ = ot.Parse(data)
	env.False(otf.HasTable(ot.T("GSUB")))
}

func (env *SubsetTestEnviron) TestSupplementaryCodePoints() {
	fb, err := subset.SubsetUnicodes(env.ttf, []rune{'A', 0x1f600}, nil)
	env.Require().NoError(err)
	data, err := fb.Serialize()
	env.Require().NoError(err)
	f := env.validate(data, 3)
	var b sfnt.Buffer
	g, err := f.GlyphIndex(&b, 0x1f600)
	env.Require().NoError(err)
	env.Equal(sfnt.GlyphIndex(2), g)
	otf, err := ot.Parse(data)
	env.Require().NoError(err)
	cmap := otf.Table(ot.T("cmap")).Binary()
	n, _ := cmap.U16(2)
	env.Equal(uint16(4), n, "format 4 and format 12 sub-tables, referenced twice each")
	os2 := otf.Table(ot.T("OS/2")).Binary()
	r := os2.Reader()
	env.Equal(uint32(1), r.U32(42), "Basic Latin")
	env.Equal(uint32(1<<25), r.U32(46), "non-plane 0")
	env.Equal(uint16('A'), r.U16(64))
	env.Equal(uint16(0xffff), r.U16(66))
}

func (env *SubsetTestEnviron) TestOS2CharRange() {
	data, _ := env.run(textOptions("BA"))
	otf, err := ot.Parse(data)
	env.Require().NoError(err)
	r := otf.Table(ot.T("OS/2")).Binary().Reader()
	env.Equal(uint16('A'), r.U16(64))
	env.Equal(uint16('B'), r.U16(66))
	env.Equal(uint32(1), r.U32(42))
	env.Equal(uint32(0), r.U32(46))
}

func (env *SubsetTestEnviron) TestGlyphNames() {
	opts := textOptions("AB")
	opts.GlyphNames = true
	data, _ := env.run(opts)
	f := env.validate(data, 4)
	var b sfnt.Buffer
	for g, name := range []string{".notdef", "A", "B", "g20"} {
		n, err := f.GlyphName(&b, sfnt.GlyphIndex(g))
		env.Require().NoError(err)
		env.Equal(name, n)
	}
	data, _ = env.run(textOptions("AB"))
	otf, _ := ot.Parse(data)
	version, _ := otf.Table(ot.T("post")).Binary().U32(0)
	env.Equal(uint32(0x00030000), version, "glyph names are dropped by default")
}

func (env *SubsetTestEnviron) TestNameTable() {
	opts := textOptions("A")
	data, _ := env.run(opts)
	otf, _ := ot.Parse(data)
	env.Equal(env.ttf.Table(ot.T("name")).Binary(), otf.Table(ot.T("name")).Binary(),
		"name is copied unless requested otherwise")
	//
	opts.SubsetNameTable = true
	opts.NameIDs = []uint16{1, 2}
	data, _ = env.run(opts)
	f := env.validate(data, 2)
	var b sfnt.Buffer
	family, err := f.Name(&b, sfnt.NameIDFamily)
	env.Require().NoError(err)
	env.Equal("Test Family", family)
	_, err = f.Name(&b, sfnt.NameIDFull)
	env.ErrorIs(err, sfnt.ErrNotFound)
	otf, _ = ot.Parse(data)
	count, _ := otf.Table(ot.T("name")).Binary().U16(2)
	env.Equal(uint16(2), count, "only English Windows names")
	//
	opts.NameLegacy = true
	data, _ = env.run(opts)
	otf, _ = ot.Parse(data)
	count, _ = otf.Table(ot.T("name")).Binary().U16(2)
	env.Equal(uint16(4), count, "Macintosh names kept")
}

func (env *SubsetTestEnviron) TestSubsetGlyphs() {
	opts := subset.DefaultOptions()
	opts.IncludeNotdef = false
	fb, err := subset.SubsetGlyphs(env.ttf, []ot.GlyphIndex{9, 300}, opts)
	env.Require().NoError(err)
	data, err := fb.Serialize()
	env.Require().NoError(err)
	otf, err := ot.Parse(data)
	env.Require().NoError(err)
	env.Equal(3, otf.NumGlyphs())
	composite, _ := otf.Glyf.Glyph(1)
	comps, err := ot.Components(composite)
	env.Require().NoError(err)
	env.Equal(ot.GlyphIndex(0), comps[0].Glyph)
	env.Equal(ot.GlyphIndex(2), comps[1].Glyph)
	env.Empty(opts.GlyphIDs, "options of the caller are not modified")
}

func (env *SubsetTestEnviron) TestPhaseOrder() {
	s := subset.NewSubsetter(env.ttf, textOptions("A"))
	env.Equal(subset.PhaseClosure, s.Phase())
	env.ErrorIs(s.RemapBuild(), subset.ErrPhase)
	env.Require().NoError(s.Closure())
	env.ErrorIs(s.Closure(), subset.ErrPhase)
	_, err := s.Assemble()
	env.ErrorIs(err, subset.ErrPhase)
	env.Nil(s.Plan())
	env.Require().NoError(s.RemapBuild())
	env.Require().NoError(s.TableRebuild())
	fb, err := s.Assemble()
	env.Require().NoError(err)
	env.True(fb.HasTable(ot.T("glyf")))
	env.Equal(subset.PhaseDone, s.Phase())
}

func (env *SubsetTestEnviron) TestNoGlyphs() {
	opts := subset.DefaultOptions()
	opts.IncludeNotdef = false
	_, err := subset.SubsetText(env.ttf, "xyz", opts)
	env.True(errors.Is(err, subset.ErrNoGlyphs), "expected ErrNoGlyphs, have %v", err)
}

// --- CFF -------------------------------------------------------------------

func testCFF() *ft.Font {
	return &ft.Font{
		CFF: true,
		Glyphs: []ft.Glyph{
			{Name: ".notdef", Advance: 500, Data: ft.CharString(ft.EndChar)},
			{Name: "A", Advance: 600, Data: ft.CharString(-107, ft.CallSubr, ft.EndChar)},
			{Name: "B", Advance: 500, Data: ft.CharString(-107, ft.CallGSubr, 100, ft.HLineTo, ft.EndChar)},
			{Name: "C", Advance: 500, Data: ft.CharString(0, 0, ft.RMoveTo, 200, ft.HLineTo, ft.EndChar)},
		},
		CMap:        map[rune]uint16{'A': 1, 'B': 2, 'C': 3},
		Names:       map[uint16]string{1: "Test CFF"},
		LocalSubrs:  [][]byte{ft.CharString(0, 0, ft.RMoveTo, 300, ft.HLineTo, ft.Return)},
		GlobalSubrs: [][]byte{ft.CharString(10, 10, ft.RMoveTo, ft.Return)},
	}
}

func TestSubsetCFF(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	otf, err := ot.Parse(testCFF().Build())
	if err != nil {
		t.Fatal(err)
	}
	fb, err := subset.SubsetText(otf, "B", nil)
	if err != nil {
		t.Fatal(err)
	}
	if fb.FontType != ot.CFFFont {
		t.Errorf("expected CFF flavoured font, have %x", fb.FontType)
	}
	data, err := fb.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		t.Fatalf("x/image cannot parse subset font: %v", err)
	}
	if f.NumGlyphs() != 2 {
		t.Errorf("expected 2 glyphs, have %d", f.NumGlyphs())
	}
	raw, err := rawTable(data, "CFF ")
	if err != nil {
		t.Fatal(err)
	}
	c, err := cff.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.CharStrings) != 2 || len(c.GlobalSubrs) != 0 || len(c.LocalSubrs) != 0 {
		t.Errorf("expected 2 flat CharStrings, have %d (%d global, %d local subrs)",
			len(c.CharStrings), len(c.GlobalSubrs), len(c.LocalSubrs))
	}
	if name := c.GlyphName(1); name != "B" {
		t.Errorf("expected glyph 1 to be named B, is %q", name)
	}
	expected := ft.CharString(10, 10, ft.RMoveTo, 100, ft.HLineTo, ft.EndChar)
	if !bytes.Equal(expected, c.CharStrings[1]) {
		t.Errorf("expected % x, have % x", expected, []byte(c.CharStrings[1]))
	}
	if _, err := rawTable(data, "glyf"); err == nil {
		t.Errorf("CFF subset should not contain glyf")
	}
}

func TestSubsetRejectsCFF2(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	desc := testCFF()
	desc.Tables = map[string][]byte{"CFF2": {2, 0, 5, 0, 0}}
	otf, err := ot.Parse(desc.Build())
	if err != nil {
		t.Fatal(err)
	}
	_, err = subset.SubsetText(otf, "A", nil)
	if !errors.Is(err, cff.ErrUnsupported) {
		t.Errorf("expected CFF2 to be rejected, have %v", err)
	}
}

func TestOptionsSet(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	opts := subset.DefaultOptions()
	for key, value := range map[string]string{
		"retain-gids":    "true",
		"features":       "smcp, liga",
		"scripts":        "*",
		"name-ids":       "1-3,6",
		"name-languages": "0x409,0x407",
		"drop-tables":    "kern,GPOS",
	} {
		if err := opts.Set(key, value); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	if !opts.RetainGIDs {
		t.Error("expected retain-gids to be set")
	}
	if !opts.LayoutFeatures.Allows(ot.T("liga")) || opts.LayoutFeatures.Allows(ot.T("kern")) {
		t.Errorf("unexpected feature filter %v", opts.LayoutFeatures)
	}
	if !opts.LayoutScripts.Allows(ot.T("cyrl")) {
		t.Error("wildcard should allow every script")
	}
	if fmt.Sprint(opts.NameIDs) != "[1 2 3 6]" || fmt.Sprint(opts.NameLanguages) != "[1033 1031]" {
		t.Errorf("unexpected name options %v %v", opts.NameIDs, opts.NameLanguages)
	}
	if len(opts.DropTables) != 2 || !opts.DropTables[ot.T("GPOS")] {
		t.Errorf("unexpected drop list %v", opts.DropTables)
	}
	if err := opts.Set("hinting", "maybe"); err == nil {
		t.Error("expected error for invalid boolean")
	}
	if err := opts.Set("colour", "true"); !errors.Is(err, subset.ErrOptionKey) {
		t.Errorf("expected ErrOptionKey, have %v", err)
	}
	if err := opts.Set("features", ""); err != nil || opts.LayoutFeatures != nil {
		t.Errorf("empty feature list should allow all features")
	}
}

func TestVerticalOrigins(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	f := testTrueType()
	f.VerticalMtx = true
	f.Tables["VORG"] = []byte{
		0, 1, 0, 0, // version 1.0
		0x03, 0x70, // default 880
		0, 3, // 3 records
		0, 5, 0x03, 0x84, // glyph 5: 900
		0, 9, 0x03, 0x52, // glyph 9: 850
		0, 24, 0x02, 0xbc, // glyph 24: 700
	}
	otf, err := ot.Parse(f.Build())
	if err != nil {
		t.Fatal(err)
	}
	fb, err := subset.SubsetGlyphs(otf, []ot.GlyphIndex{9}, subset.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	expected := []byte{0, 1, 0, 0, 0x03, 0x70, 0, 2, 0, 1, 0x03, 0x84, 0, 2, 0x03, 0x52}
	if vorg := fb.Table(ot.T("VORG")); !bytes.Equal(vorg, expected) {
		t.Errorf("expected VORG % x, have % x", expected, vorg)
	}
	if !fb.HasTable(ot.T("vhea")) || !fb.HasTable(ot.T("vmtx")) {
		t.Errorf("expected vertical metrics to be kept, have %v", fb.Tags())
	}
}

func TestCompositeWithMissingComponent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	f := &ft.Font{
		Glyphs: []ft.Glyph{
			{Name: ".notdef", Advance: 500, Data: ft.Box(400, 700)},
			{Name: "A", Advance: 600, Data: ft.Box(500, 700)},
			{Name: "B", Advance: 600, Data: ft.CompositeGlyph(nil, ft.Component{Glyph: 1}, ft.Component{Glyph: 40})},
		},
		CMap: map[rune]uint16{'A': 1, 'B': 2},
	}
	otf, err := ot.Parse(f.Build())
	if err != nil {
		t.Fatal(err)
	}
	fb, err := subset.SubsetText(otf, "AB", nil)
	if err != nil {
		t.Fatalf("broken composite glyph should not fail the subset: %v", err)
	}
	data, err := fb.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	out, err := ot.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.NumGlyphs() != 3 {
		t.Fatalf("expected 3 glyphs, have %d", out.NumGlyphs())
	}
	if g, _ := out.Glyf.Glyph(2); len(g) != 0 {
		t.Errorf("expected broken composite to be emptied, has %d bytes", len(g))
	}
	if g, _ := out.Glyf.Glyph(1); !bytes.Equal(g, ft.Box(500, 700)) {
		t.Errorf("expected glyph A to be kept, have % x", g)
	}
}

func TestLongLocaOutput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	// 10004 points make a glyph of 14+5*10004 = 50034 bytes, 4 of them exceed short loca
	bigGlyph := func(seed int16) []byte {
		pts := make([]ft.Point, 10004)
		for i := range pts {
			pts[i] = ft.Point{X: int16(i%1000) + seed, Y: int16(i / 10)}
		}
		return ft.SimpleGlyph(nil, pts...)
	}
	f := &ft.Font{
		Glyphs:   []ft.Glyph{{Name: ".notdef", Advance: 500, Data: ft.Box(400, 700)}},
		CMap:     map[rune]uint16{},
		LongLoca: true,
	}
	for i, r := range "WXYZ" {
		f.Glyphs = append(f.Glyphs, ft.Glyph{Name: string(r), Advance: 1000, Data: bigGlyph(int16(i))})
		f.CMap[r] = uint16(i + 1)
	}
	otf, err := ot.Parse(f.Build())
	if err != nil {
		t.Fatal(err)
	}
	fb, err := subset.SubsetText(otf, "WXYZ", nil)
	if err != nil {
		t.Fatal(err)
	}
	data, err := fb.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	out, err := ot.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.Head.IndexToLocFormat != 1 {
		t.Fatalf("expected long loca for a glyf table of %d bytes", len(fb.Table(ot.T("glyf"))))
	}
	raw, err := rawTable(data, "loca")
	if err != nil {
		t.Fatal(err)
	}
	loca, err := tables.ParseLoca(raw, out.NumGlyphs(), true)
	if err != nil {
		t.Fatal(err)
	}
	for g := range out.NumGlyphs() {
		orig, _ := otf.Glyf.Glyph(ot.GlyphIndex(g))
		if int(loca[g+1]-loca[g]) != len(orig)+len(orig)%2 {
			t.Errorf("glyph %d: expected %d bytes, loca says %d", g, len(orig), loca[g+1]-loca[g])
		}
		if subsetted, _ := out.Glyf.Glyph(ot.GlyphIndex(g)); !bytes.Equal(subsetted, orig) {
			t.Errorf("glyph %d differs from its source", g)
		}
	}
}
