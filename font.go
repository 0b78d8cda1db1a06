/*
Package otsubset creates subsets of OpenType fonts.

A subset contains only the glyphs needed to render a given text, which makes
it the font of choice for embedding into documents. This package is the
convenience front end to package subset:

	err := otsubset.SubsetFile("Font.ttf", "Font-sub.ttf", "Hello World", nil)

There is a certain confusion with the nomenclature of typesetting. We will
stick to the following definitions:

▪︎ A "typeface" is a family of fonts. An example is "Helvetica".
This corresponds to a TrueType "collection" (*.ttc).

▪︎ A "scalable font" is a font, i.e. a variant of a typeface with a
certain weight, slant, etc.  An example is "Helvetica regular".

Subsetting works on scalable fonts only.

# Status

Font collections (*.ttc), WOFF compressed fonts, CFF2 and variable fonts are not
supported.

# Links

OpenType explained:
https://docs.microsoft.com/en-us/typography/opentype/

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otsubset

import (
	"fmt"

	"github.com/npillmayer/otsubset/internal/fontload"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'font.subset'
func tracer() tracing.Trace {
	return tracing.Select("font.subset")
}

// ScalableFont is an internal representation of an outline-font of type
// TTF of OTF.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container, not safe for concurrent use
	OT       *ot.Font   // the font's tables, read-only
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := fontload.Load(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fontfile, err)
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseOpenTypeFont loads an OpenType font (TTF or OTF) from memory.
//
// The font is read twice, by x/image/font/sfnt and by package ot, and has to
// pass both.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	if f.SFNT, f.Fontname, err = fontload.Validate(fbytes); err != nil {
		return nil, err
	}
	if f.OT, err = ot.Parse(fbytes); err != nil {
		return nil, err
	}
	for _, e := range f.OT.Errors() {
		tracer().Infof("%s: %v", f.Fontname, e)
	}
	tracer().Debugf("loaded and parsed SFNT %s", f.Fontname)
	return
}
