package main

import (
	"path/filepath"
	"testing"

	"github.com/emirpasic/gods/sets/treeset"
	ft "github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/otsubset/internal/fontload"
	"github.com/npillmayer/otsubset/subset"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFont(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "test.ttf")
	data := (&ft.Font{
		Glyphs: []ft.Glyph{
			{Name: ".notdef", Advance: 500, Data: ft.Box(400, 700)},
			{Name: "a", Advance: 500, Data: ft.Box(400, 500)},
			{Name: "b", Advance: 500, Data: ft.Box(400, 700)},
			{Name: "c", Advance: 500, Data: ft.Box(300, 500)},
		},
		CMap:  map[rune]uint16{'a': 1, 'b': 2, 'c': 3},
		Names: map[uint16]string{1: "Test", 4: "Test Regular"},
		Tables: map[string][]byte{
			"GSUB": ft.Layout(
				[]ft.Script{{Tag: "latn", LangSys: []ft.LangSys{{Required: 0xffff, Features: []uint16{0, 1}}}}},
				[]ft.Feature{{Tag: "case", Lookups: []uint16{1}}, {Tag: "smcp", Lookups: []uint16{0}}},
				[]ft.Lookup{
					{Type: 1, Subtables: [][]byte{ft.SingleSubst1(1, 1)}}, // a → b
					{Type: 1, Subtables: [][]byte{ft.SingleSubst1(1, 3)}}, // c → missing glyph
				},
			),
		},
	}).Build()
	require.NoError(t, fontload.Save(path, data))
	return path
}

func run(t *testing.T, intp *Intp, lines ...string) {
	for _, line := range lines {
		err, quit := intp.execute(parseCommand(line))
		require.NoError(t, err, line)
		require.False(t, quit, line)
	}
}

func TestSession(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otcli")
	defer teardown()
	//
	intp := &Intp{opts: subset.DefaultOptions()}
	err, _ := intp.execute(parseCommand("info"))
	assert.ErrorIs(t, err, ErrNoFont)
	out := filepath.Join(t.TempDir(), "out.ttf")
	run(t, intp,
		"load "+writeTestFont(t),
		"info",
		"text ab",
		"unicodes U+0063",
		"set notdef=false",
		"options",
	)
	assert.Equal(t, []rune{'a', 'b', 'c'}, intp.unicodes)
	err, _ = intp.execute(parseCommand("write " + out))
	assert.ErrorIs(t, err, ErrNoSubset)
	run(t, intp, "subset", "tables", "write "+out)
	assert.Equal(t, [][]string{
		{"Layout", "Lookups", "Features"},
		{"GSUB", "1 (0)", "1 (1)"},
	}, layoutSummary(intp.plan))
	data, err := fontload.Load(out)
	require.NoError(t, err)
	f, _, err := fontload.Validate(data)
	require.NoError(t, err)
	assert.Equal(t, 3, f.NumGlyphs())
	//
	err, _ = intp.execute(parseCommand("set frobnicate=1"))
	assert.ErrorIs(t, err, subset.ErrOptionKey)
	err, _ = intp.execute(parseCommand("glyphs 99"))
	assert.Error(t, err)
	err, quit := intp.execute(parseCommand("quit"))
	assert.NoError(t, err)
	assert.True(t, quit)
}

func TestFormatIndices(t *testing.T) {
	assert.Equal(t, "none", formatIndices(nil))
	assert.Equal(t, "none", formatIndices(treeset.NewWithIntComparator()))
	assert.Equal(t, "3 (0, 2, 7)", formatIndices(treeset.NewWithIntComparator(7, 0, 2)))
}

func TestOneShot(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otcli")
	defer teardown()
	//
	intp := &Intp{opts: subset.DefaultOptions()}
	require.NoError(t, intp.loadFont(writeTestFont(t)))
	out := filepath.Join(t.TempDir(), "out.ttf")
	require.NoError(t, intp.oneShot("c", out))
	data, err := fontload.Load(out)
	require.NoError(t, err)
	f, name, err := fontload.Validate(data)
	require.NoError(t, err)
	assert.Equal(t, "Test Regular", name)
	assert.Equal(t, 2, f.NumGlyphs(), "expected .notdef and c")
}
