/*
Package cff reads and rebuilds CFF (version 1) font programs, as found in the
"CFF " table of OpenType fonts with PostScript outlines.

The package contains codecs for the structural building blocks of CFF (INDEX
and DICT data), an expander for Type 2 CharStrings which inlines all
subroutine calls, and a builder producing a minimal single-font CFF for a
subset of glyphs.

CFF2 and CID-keyed fonts are not supported by the builder.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package cff

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

var (
	// ErrUnsupported flags CFF variants the builder cannot handle.
	ErrUnsupported = errors.New("unsupported CFF variant")
	// ErrNoConvergence is returned if the layout of a rebuilt CFF does not settle.
	ErrNoConvergence = errors.New("CFF layout does not converge")
	// ErrSubrDepth is returned for subroutine calls nested too deeply, which
	// includes cyclic calls.
	ErrSubrDepth = errors.New("CFF subroutine nesting too deep")
	// ErrCharString flags malformed CharString bytecode.
	ErrCharString = errors.New("malformed CharString")
)

// tracer writes to trace with key 'font.cff'
func tracer() tracing.Trace {
	return tracing.Select("font.cff")
}
