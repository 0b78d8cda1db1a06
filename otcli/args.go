package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/otsubset/ot"
)

// parseUnicodes reads a list of code points, separated by commas or blanks.
// Items are hex numbers with optional "U+" prefix ("U+0041", "41") or ranges
// of those ("U+0041-U+005A").
func parseUnicodes(arg string) ([]rune, error) {
	var runes []rune
	for _, item := range splitArgs(arg) {
		from, to, isRange := strings.Cut(item, "-")
		lo, err := parseCodePoint(from)
		if err != nil {
			return nil, err
		}
		hi := lo
		if isRange {
			if hi, err = parseCodePoint(to); err != nil {
				return nil, err
			}
		}
		if hi < lo {
			return nil, fmt.Errorf("invalid code point range %s", item)
		}
		for r := lo; r <= hi; r++ {
			runes = append(runes, r)
		}
	}
	return runes, nil
}

func parseCodePoint(s string) (rune, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "U+")
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid code point %q", s)
	}
	if r := rune(n); utf8.ValidRune(r) {
		return r, nil
	}
	return 0, fmt.Errorf("invalid code point U+%X", n)
}

// parseGlyphIDs reads a list of decimal glyph IDs or ranges of glyph IDs
// ("3,10-12").
func parseGlyphIDs(arg string) ([]ot.GlyphIndex, error) {
	var glyphs []ot.GlyphIndex
	for _, item := range splitArgs(arg) {
		from, to, isRange := strings.Cut(item, "-")
		lo, err := strconv.ParseUint(strings.TrimSpace(from), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid glyph ID %q", from)
		}
		hi := lo
		if isRange {
			if hi, err = strconv.ParseUint(strings.TrimSpace(to), 10, 16); err != nil {
				return nil, fmt.Errorf("invalid glyph ID %q", to)
			}
		}
		for g := lo; g <= hi; g++ {
			glyphs = append(glyphs, ot.GlyphIndex(g))
		}
	}
	return glyphs, nil
}

func splitArgs(arg string) []string {
	return strings.FieldsFunc(arg, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// formatRunes prints code points as a readable list.
func formatRunes(runes []rune) string {
	items := make([]string, 0, len(runes))
	for _, r := range runes {
		if strconv.IsPrint(r) && r != ' ' {
			items = append(items, fmt.Sprintf("U+%04X '%c'", r, r))
		} else {
			items = append(items, fmt.Sprintf("U+%04X", r))
		}
	}
	return strings.Join(items, ", ")
}
