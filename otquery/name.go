package otquery

import (
	"fmt"
	"iter"

	"github.com/npillmayer/otsubset/ot"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	nameHeaderSize = 6
	nameRecordSize = 12
)

// PlatformID is the platform of a name record or cmap sub-table.
type PlatformID uint16

const (
	PlatformIDUnicode   PlatformID = 0
	PlatformIDMacintosh PlatformID = 1
	PlatformIDWindows   PlatformID = 3
)

// EncodingID is the platform specific encoding of a name record.
type EncodingID uint16

const (
	EncodingIDMacRoman      EncodingID = 0 // for platform Macintosh
	EncodingIDWindowsSymbol EncodingID = 0
	EncodingIDWindowsBMP    EncodingID = 1
	EncodingIDUnicodeBMP    EncodingID = 3
	EncodingIDWindowsFull   EncodingID = 10
)

// NameRecord is a decoded entry of OpenType table 'name'.
type NameRecord struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16
	Name     sfnt.NameID // see https://pkg.go.dev/golang.org/x/image/font/sfnt#NameID
	Value    string
}

func (rec NameRecord) String() string {
	return fmt.Sprintf("(%d,%d,0x%04x) %3d %q", rec.Platform, rec.Encoding, rec.Language, rec.Name, rec.Value)
}

// NameRecords yields all decodable records of a font's `name` table, in table
// order. Records in encodings we cannot decode, and malformed or out-of-bounds
// records, are skipped.
func NameRecords(otf *ot.Font) iter.Seq[NameRecord] {
	names := checkNameTableSafe(otf)
	return func(yield func(NameRecord) bool) {
		if names == nil {
			return
		}
		r := names.Reader()
		count := int(r.U16(2))
		storage := int(r.U16(4))
		for i := range count {
			at := nameHeaderSize + i*nameRecordSize
			rec := NameRecord{
				Platform: PlatformID(r.U16(at)),
				Encoding: EncodingID(r.U16(at + 2)),
				Language: r.U16(at + 4),
				Name:     sfnt.NameID(r.U16(at + 6)),
			}
			dec := decoderFor(rec.Platform, rec.Encoding)
			if dec == nil {
				continue
			}
			str, err := names.View(storage+int(r.U16(at+10)), int(r.U16(at+8)))
			if err != nil {
				tracer().Debugf("name record %d: %v", i, err)
				continue
			}
			s, err := dec.Bytes(str)
			if err != nil || len(s) == 0 {
				continue
			}
			rec.Value = string(s)
			if !yield(rec) {
				return
			}
		}
	}
}

// NamesRange yields decoded `(nameID, value)` pairs from a font's OpenType
// `name` table.
//
// Unicode and Windows records are yielded, Macintosh records only if the font
// has no Unicode or Windows record for the same name ID.
func NamesRange(otf *ot.Font) iter.Seq2[sfnt.NameID, string] {
	return func(yield func(sfnt.NameID, string) bool) {
		var legacy []NameRecord
		seen := make(map[sfnt.NameID]bool)
		for rec := range NameRecords(otf) {
			if rec.Platform == PlatformIDMacintosh {
				legacy = append(legacy, rec)
				continue
			}
			seen[rec.Name] = true
			if !yield(rec.Name, rec.Value) {
				return
			}
		}
		for _, rec := range legacy {
			if seen[rec.Name] {
				continue
			}
			if !yield(rec.Name, rec.Value) {
				return
			}
		}
	}
}

// FamilyName extracts family and subfamily names from a font's `name` table.
//
// Returned values are empty if no matching records exist or if records cannot be
// decoded.
func FamilyName(otf *ot.Font) (family, subfamily string) {
	for id, value := range NamesRange(otf) {
		switch id {
		case sfnt.NameIDFamily:
			if family == "" {
				family = value
			}
		case sfnt.NameIDSubfamily:
			if subfamily == "" {
				subfamily = value
			}
		}
	}
	return
}

// checkNameTableSafe checks if the name table is safe to use, i.e. no out-of-bounds access,
// no empty tables, etc.
func checkNameTableSafe(otf *ot.Font) ot.Segment {
	b := tableData(otf, "name")
	if b == nil {
		tracer().Debugf("no name table found in font")
		return nil
	}
	if len(b) < nameHeaderSize {
		tracer().Debugf("name table too short: %d", len(b))
		return nil
	}
	r := b.Reader()
	count := int(r.U16(2))
	strOff := int(r.U16(4))
	if strOff > len(b) {
		tracer().Debugf("name table invalid string offset: %d", strOff)
		return nil
	}
	if nameHeaderSize+count*nameRecordSize > len(b) {
		tracer().Debugf("name table record section out of bounds: count=%d", count)
		return nil
	}
	return b
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// decoderFor returns a decoder for the string encoding of a name record, or
// nil if the encoding is not supported. Windows symbol fonts store UTF-16, too.
func decoderFor(platform PlatformID, enc EncodingID) *encoding.Decoder {
	switch platform {
	case PlatformIDUnicode:
		return utf16BE.NewDecoder()
	case PlatformIDWindows:
		switch enc {
		case EncodingIDWindowsSymbol, EncodingIDWindowsBMP, EncodingIDWindowsFull:
			return utf16BE.NewDecoder()
		}
	case PlatformIDMacintosh:
		if enc == EncodingIDMacRoman {
			return charmap.Macintosh.NewDecoder()
		}
	}
	return nil
}
