/*
Package otquery answers questions about an OpenType font: its names, global
metrics, glyph metrics, coverage of a text and the scripts and features of
its layout tables.

Queries work on an *ot.Font and never modify it. They are meant for tools
inspecting a font before and after subsetting, e.g. to check which code points
of a text a font covers.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.query'
func tracer() tracing.Trace {
	return tracing.Select("font.query")
}
