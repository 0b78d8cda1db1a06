package otsubset

import (
	"fmt"

	"github.com/npillmayer/otsubset/internal/fontload"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/otsubset/otquery"
	"github.com/npillmayer/otsubset/subset"
)

// Subset creates a subset of f for the code points of text and serializes it.
// If opts is nil, subset.DefaultOptions are used.
//
// The result is checked by parsing it with x/image/font/sfnt.
func (f *ScalableFont) Subset(text string, opts *subset.Options) ([]byte, error) {
	fb, err := subset.SubsetText(f.OT, text, opts)
	if err != nil {
		return nil, err
	}
	out, err := fb.Serialize()
	if err != nil {
		return nil, err
	}
	if _, _, err = fontload.Validate(out); err != nil {
		return nil, fmt.Errorf("subset of %s is not readable: %w", f.Fontname, err)
	}
	tracer().Infof("subset of %s: %d → %d bytes", f.Fontname, len(f.Binary), len(out))
	return out, nil
}

// SubsetBytes creates a subset of a font in memory for the code points of
// text. See ScalableFont.Subset.
func SubsetBytes(data []byte, text string, opts *subset.Options) ([]byte, error) {
	f, err := ParseOpenTypeFont(data)
	if err != nil {
		return nil, err
	}
	return f.Subset(text, opts)
}

// SubsetFile reads font file in, creates a subset for the code points of
// text and writes it to file out.
func SubsetFile(in, out string, text string, opts *subset.Options) error {
	f, err := LoadOpenTypeFont(in)
	if err != nil {
		return err
	}
	data, err := f.Subset(text, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	return fontload.Save(out, data)
}

// FamilyName extracts family and subfamily names from a font's `name` table.
func FamilyName(f *ot.Font) (family, subfamily string) {
	return otquery.FamilyName(f)
}
