/*
Package fontload reads font files from disk and checks them with an
independent SFNT reader (golang.org/x/image/font/sfnt) before they are handed
to the subsetter.
*/
package fontload

import (
	"errors"
	"fmt"
	"os"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'font.subset'
func tracer() tracing.Trace {
	return tracing.Select("font.subset")
}

// ErrNotSFNT flags files which are not single-font SFNT files, e.g. font
// collections or WOFF-compressed fonts.
var ErrNotSFNT = errors.New("not a single-font SFNT file")

// Flavor returns a readable name for the SFNT version tag at the start of data.
func Flavor(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	switch string(data[:4]) {
	case "\x00\x01\x00\x00", "true":
		return "TrueType"
	case "OTTO":
		return "CFF"
	case "ttcf":
		return "collection"
	case "wOFF", "wOF2":
		return "WOFF"
	}
	return ""
}

// Load reads a font file. Anything but a single TrueType or CFF flavored font
// fails with ErrNotSFNT.
func Load(fontfile string) ([]byte, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	switch flavor := Flavor(bytez); flavor {
	case "TrueType", "CFF":
		tracer().Debugf("loaded %s font %s, %d bytes", flavor, fontfile, len(bytez))
		return bytez, nil
	case "":
		return nil, fmt.Errorf("%s: %w", fontfile, ErrNotSFNT)
	default:
		return nil, fmt.Errorf("%s is a %s: %w", fontfile, flavor, ErrNotSFNT)
	}
}

// Validate parses data with x/image/font/sfnt and returns the parsed font and
// its full name. The name is empty if the font has none.
//
// The returned font holds on to data. It must not be used from more than one
// goroutine at a time.
func Validate(data []byte) (*sfnt.Font, string, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, "", err
	}
	name, err := f.Name(nil, sfnt.NameIDFull)
	if err != nil && !errors.Is(err, sfnt.ErrNotFound) {
		return nil, "", err
	}
	return f, name, nil
}

// Save writes a font file, replacing an existing one.
func Save(fontfile string, data []byte) error {
	if err := os.WriteFile(fontfile, data, 0o644); err != nil {
		return err
	}
	tracer().Debugf("wrote %d bytes to %s", len(data), fontfile)
	return nil
}
