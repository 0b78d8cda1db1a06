/*
Package otlayout subsets the OpenType layout tables GSUB, GPOS and GDEF.

A layout table is decoded into a small object model (scripts, language
systems, features, lookups), pruned against a glyph mapping, and serialized
again. Lookup subtables are not decoded into the model; they are rewritten
directly from the source bytes by subtable subsetters, one per supported
lookup type and format:

▪︎ GSUB 1 (single substitution, formats 1 and 2)

▪︎ GSUB 4 (ligature substitution, format 1)

▪︎ GPOS 1 (single positioning, formats 1 and 2)

▪︎ GPOS 2 (pair positioning, format 1)

Lookups of any other type are dropped. Extension lookups are unwrapped and
serialized as their inner lookup type.

Pruning runs in strict order: lookups first, then features referencing them,
then the language systems and scripts referencing features. A table without
surviving features or scripts is dropped altogether.

All offsets in the output are 16 bit. Outputs which would need larger offsets
fail with ErrOffsetOverflow.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otlayout

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// ErrOffsetOverflow is returned if a serialized layout structure needs an
// offset which does not fit into 16 bits.
var ErrOffsetOverflow = errors.New("layout offset overflow")

// errFontFormat produces user level errors for font parsing.
func errFontFormat(message string) error {
	return fmt.Errorf("OpenType layout format: %s", message)
}

// tracer writes to trace with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}
