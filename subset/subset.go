package subset

import (
	"slices"

	"github.com/npillmayer/otsubset/ot"
	"golang.org/x/text/unicode/norm"
)

// SubsetUnicodes creates a subset of otf for a set of code points, in
// addition to the code points and glyphs already given in opts. If opts is
// nil, DefaultOptions are used. opts is not modified.
func SubsetUnicodes(otf *ot.Font, unicodes []rune, opts *Options) (*ot.FontBuilder, error) {
	opts = cloneOrDefault(opts)
	opts.Unicodes = append(opts.Unicodes, unicodes...)
	return NewSubsetter(otf, opts).Run()
}

// SubsetText creates a subset of otf for the code points of a text. With
// Options.NormalForms, the code points of the text's NFC and NFD forms are
// added, so the subset serves the text in either normalization.
func SubsetText(otf *ot.Font, text string, opts *Options) (*ot.FontBuilder, error) {
	opts = cloneOrDefault(opts)
	opts.Unicodes = append(opts.Unicodes, TextUnicodes(text, opts.NormalForms)...)
	return NewSubsetter(otf, opts).Run()
}

// SubsetGlyphs creates a subset of otf for a set of glyphs, in addition to
// the code points and glyphs already given in opts.
func SubsetGlyphs(otf *ot.Font, glyphs []ot.GlyphIndex, opts *Options) (*ot.FontBuilder, error) {
	opts = cloneOrDefault(opts)
	opts.GlyphIDs = append(opts.GlyphIDs, glyphs...)
	return NewSubsetter(otf, opts).Run()
}

// TextUnicodes returns the distinct code points of a text, sorted. If
// normalForms is set, the code points of the NFC and NFD forms are included.
func TextUnicodes(text string, normalForms bool) []rune {
	runes := []rune(text)
	if normalForms {
		runes = append(runes, []rune(norm.NFC.String(text))...)
		runes = append(runes, []rune(norm.NFD.String(text))...)
	}
	slices.Sort(runes)
	return slices.Compact(runes)
}

func cloneOrDefault(opts *Options) *Options {
	if opts == nil {
		return DefaultOptions()
	}
	return opts.Clone()
}
