package otquery

import (
	"time"

	"github.com/npillmayer/otsubset/ot"
)

// HeadTableInfo is a typed query view over OpenType table 'head'.
// Values are decoded directly from the raw table bytes.
type HeadTableInfo struct {
	MajorVersion       uint16
	MinorVersion       uint16
	FontRevision       uint32 // 16.16 fixed
	CheckSumAdjustment uint32
	MagicNumber        uint32
	Flags              uint16
	UnitsPerEm         uint16
	Created            int64 // seconds since 1904-01-01
	Modified           int64
	XMin, YMin         int16
	XMax, YMax         int16
	MacStyle           uint16
	LowestRecPPEM      uint16
	FontDirectionHint  int16
	IndexToLocFormat   int16
	GlyphDataFormat    int16
}

const headTableSize = 54

// HeadMagic is the magic number every valid head table carries.
const HeadMagic uint32 = 0x5F0F3CF5

// HeadInfo decodes table 'head'.
// Returns (info, true) on success, or (zero, false) if table is missing/too short.
func HeadInfo(otf *ot.Font) (HeadTableInfo, bool) {
	var info HeadTableInfo
	b := tableData(otf, "head")
	if len(b) < headTableSize {
		return info, false
	}
	r := b.Reader()
	info.MajorVersion = r.U16(0)
	info.MinorVersion = r.U16(2)
	info.FontRevision = r.U32(4)
	info.CheckSumAdjustment = r.U32(8)
	info.MagicNumber = r.U32(12)
	info.Flags = r.U16(16)
	info.UnitsPerEm = r.U16(18)
	info.Created = int64(r.U32(20))<<32 | int64(r.U32(24))
	info.Modified = int64(r.U32(28))<<32 | int64(r.U32(32))
	info.XMin, info.YMin = r.I16(36), r.I16(38)
	info.XMax, info.YMax = r.I16(40), r.I16(42)
	info.MacStyle = r.U16(44)
	info.LowestRecPPEM = r.U16(46)
	info.FontDirectionHint = r.I16(48)
	info.IndexToLocFormat = r.I16(50)
	info.GlyphDataFormat = r.I16(52)
	return info, r.Err() == nil
}

// longDateTime epoch of OpenType
var epoch1904 = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// ModifiedTime returns the modification timestamp as a time.Time.
func (info HeadTableInfo) ModifiedTime() time.Time {
	return epoch1904.Add(time.Duration(info.Modified) * time.Second)
}

// Revision returns the font revision as a decimal number.
func (info HeadTableInfo) Revision() float64 {
	return float64(info.FontRevision) / 65536
}

func tableData(otf *ot.Font, tag string) ot.Segment {
	if otf == nil {
		return nil
	}
	table := otf.Table(ot.T(tag))
	if table == nil {
		return nil
	}
	return table.Binary()
}
