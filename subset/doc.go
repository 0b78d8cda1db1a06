/*
Package subset produces subsets of OpenType fonts.

A subset keeps only the glyphs needed for a set of Unicode code points or
glyph IDs, together with every glyph they depend on. The subsetter works in
four phases, which have to be run in order:

▪︎ Closure: map code points to glyphs, add the components of composite glyphs
and, if requested, every glyph reachable through GSUB substitutions.

▪︎ RemapBuild: number the retained glyphs, either densely or keeping their
original glyph IDs.

▪︎ TableRebuild: rewrite every table referencing glyph IDs, drop tables as
requested by the options, and copy all other tables unchanged.

▪︎ Assemble: collect the tables into a font builder, ready for serialization.

Clients usually call one of the entry points SubsetUnicodes, SubsetText or
SubsetGlyphs, which run all phases:

	otf, _ := ot.Parse(data)
	fb, err := subset.SubsetText(otf, "Hello", subset.DefaultOptions())
	...
	out, err := fb.Serialize()

A source font is never modified, so one font may be subset by several
goroutines at once, each with its own options.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package subset

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

var (
	// ErrNoGlyphs is returned if the closure does not retain a single glyph.
	ErrNoGlyphs = errors.New("subset contains no glyphs")
	// ErrPhase is returned if the phases of a Subsetter are run out of order.
	ErrPhase = errors.New("subsetter phase out of order")
	// ErrOptionKey is returned by Options.Set for unknown keys.
	ErrOptionKey = errors.New("unknown subset option")
)

// tracer writes to trace with key 'font.subset'
func tracer() tracing.Trace {
	return tracing.Select("font.subset")
}
