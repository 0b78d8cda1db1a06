/*
Package ot provides access to the tables of an OpenType font and the means to
write a new font from a set of tables.

Intended audience for this package are font subsetters and other tools which
take a font apart and put (a part of) it back together. Package `ot` is a
low-level package: it exposes tables as byte views onto the font's binary data,
plus typed shortcuts to the handful of tables every rebuild step needs (head,
maxp, hhea, hmtx, loca, glyf, cmap, vhea, vmtx). It will not interpret layout
tables; that is the job of sister package `otlayout`.

Reading and writing is symmetric:

▪︎ Segment is a bounds-checked view onto font data. Every read at an offset
returns an error if the offset is outside the segment. Malformed fonts must
never lead to a panic.

▪︎ Buffer is a growable big-endian byte buffer. Offsets which are not yet known
may be reserved and patched later, which is how self-referential structures
with offsets to sub-structures are built.

▪︎ Parse reads the SFNT container into a Font; FontBuilder writes a set of
tables back into an SFNT container, computing table checksums and the font's
checksum adjustment.

# Status

No font collections nor variable fonts are supported. Collections are
rejected by Parse.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>

The cmap lookup routines follow golang.org/x/image/font/sfnt/cmap.go.

	Copyright 2017 The Go Authors. All rights reserved.
	Use of this source code is governed by a BSD-style
	license that can be found in the LICENSE file.
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}
