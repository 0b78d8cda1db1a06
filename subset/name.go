package subset

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/npillmayer/otsubset/ot"
)

// Platform IDs of name records.
const (
	platformUnicode   = 0
	platformMac       = 1
	platformWindows   = 3
	nameRecordSize    = 12
	nameHeaderSize    = 6
	nameLangTagBorder = 0x8000 // language IDs from here on reference language tags
)

// nameRecord is a decoded record of the name table.
type nameRecord struct {
	platform, encoding, language, nameID uint16
	str                                  []byte
}

// parseNameRecords reads the records of a name table of format 0 or 1.
func parseNameRecords(data ot.Segment) ([]nameRecord, error) {
	r := data.Reader()
	format, count, storage := r.U16(0), int(r.U16(2)), int(r.U16(4))
	if r.Err() != nil {
		return nil, r.Err()
	}
	if format > 1 {
		return nil, fmt.Errorf("name table format %d: %w", format, ot.ErrUnsupportedFormat)
	}
	records := make([]nameRecord, 0, count)
	for i := range count {
		at := nameHeaderSize + nameRecordSize*i
		rec := nameRecord{
			platform: r.U16(at),
			encoding: r.U16(at + 2),
			language: r.U16(at + 4),
			nameID:   r.U16(at + 6),
		}
		length, offset := int(r.U16(at+8)), int(r.U16(at+10))
		rec.str = r.View(storage+offset, length)
		if r.Err() != nil {
			return nil, fmt.Errorf("name record %d: %w", i, r.Err())
		}
		records = append(records, rec)
	}
	return records, nil
}

// keepsName reports whether a name record passes the name options.
func (opts *Options) keepsName(rec nameRecord) bool {
	if len(opts.NameIDs) > 0 && !slices.Contains(opts.NameIDs, rec.nameID) {
		return false
	}
	switch rec.platform {
	case platformWindows:
		return rec.language < nameLangTagBorder &&
			(len(opts.NameLanguages) == 0 || slices.Contains(opts.NameLanguages, rec.language))
	default:
		return opts.NameLegacy && rec.language < nameLangTagBorder
	}
}

// buildName writes a format 0 name table with the records passing the name
// options. Records are sorted by platform, encoding, language and name ID;
// identical strings share their storage.
func buildName(data ot.Segment, opts *Options) ([]byte, error) {
	records, err := parseNameRecords(data)
	if err != nil {
		return nil, err
	}
	records = slices.DeleteFunc(records, func(rec nameRecord) bool { return !opts.keepsName(rec) })
	slices.SortStableFunc(records, func(a, b nameRecord) int {
		return cmp.Or(cmp.Compare(a.platform, b.platform), cmp.Compare(a.encoding, b.encoding),
			cmp.Compare(a.language, b.language), cmp.Compare(a.nameID, b.nameID))
	})
	buf := ot.NewBuffer(nameHeaderSize + nameRecordSize*len(records))
	buf.PutU16(0)
	buf.PutU16(uint16(len(records)))
	buf.PutU16(uint16(nameHeaderSize + nameRecordSize*len(records)))
	var storage []byte
	stored := make(map[string]int)
	for _, rec := range records {
		offset, ok := stored[string(rec.str)]
		if !ok {
			offset = len(storage)
			stored[string(rec.str)] = offset
			storage = append(storage, rec.str...)
		}
		if offset > 0xffff {
			return nil, fmt.Errorf("name storage exceeds 64K")
		}
		buf.PutU16(rec.platform)
		buf.PutU16(rec.encoding)
		buf.PutU16(rec.language)
		buf.PutU16(rec.nameID)
		buf.PutU16(uint16(len(rec.str)))
		buf.PutU16(uint16(offset))
	}
	buf.Append(storage)
	tracer().Debugf("name table keeps %d records", len(records))
	return buf.Bytes(), nil
}
