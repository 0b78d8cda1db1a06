package fontload

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	ft "github.com/npillmayer/otsubset/internal/fonttest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func testFont() []byte {
	return (&ft.Font{
		Glyphs: []ft.Glyph{
			{Name: ".notdef", Advance: 500, Data: ft.Box(400, 700)},
			{Name: "A", Advance: 600, Data: ft.Box(300, 700)},
		},
		CMap:  map[rune]uint16{'A': 1},
		Names: map[uint16]string{4: "Test Regular"},
	}).Build()
}

func TestLoadAndValidate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "test.ttf")
	if err := Save(path, testFont()); err != nil {
		t.Fatal(err)
	}
	data, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if Flavor(data) != "TrueType" {
		t.Errorf("expected TrueType font, have %q", Flavor(data))
	}
	f, name, err := Validate(data)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Test Regular" {
		t.Errorf("expected full name 'Test Regular', have %q", name)
	}
	if f.NumGlyphs() != 2 {
		t.Errorf("expected 2 glyphs, have %d", f.NumGlyphs())
	}
}

func TestLoadRejectsCollections(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.subset")
	defer teardown()
	//
	dir := t.TempDir()
	for name, content := range map[string][]byte{
		"c.ttc":  append([]byte("ttcf"), make([]byte, 12)...),
		"w.woff": append([]byte("wOFF"), make([]byte, 12)...),
		"x.txt":  []byte("hello world"),
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, ErrNotSFNT) {
			t.Errorf("%s: expected ErrNotSFNT, have %v", name, err)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.ttf")); err == nil {
		t.Error("expected error for missing file")
	}
}
