package otquery

import (
	"slices"

	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/otsubset/otlayout"
)

// FontType returns a readable name for the outline flavour of a font.
func FontType(otf *ot.Font) string {
	switch {
	case otf == nil:
		return ""
	case otf.HasTable(ot.T("CFF2")):
		return "CFF2"
	case otf.HasTable(ot.T("CFF ")):
		return "CFF"
	case otf.HasTable(ot.T("glyf")):
		return "TrueType"
	}
	return "unknown"
}

// LayoutTables returns the tags of the OpenType layout tables a font carries.
func LayoutTables(otf *ot.Font) []string {
	var tags []string
	for _, tag := range []string{"GDEF", "GSUB", "GPOS", "BASE", "JSTF", "MATH"} {
		if otf.HasTable(ot.T(tag)) {
			tags = append(tags, tag)
		}
	}
	return tags
}

func layoutTable(otf *ot.Font, tag string) *otlayout.Table {
	data := tableData(otf, tag)
	if data == nil {
		return nil
	}
	t, err := otlayout.Parse(ot.T(tag), data)
	if err != nil {
		tracer().Infof("cannot read %s: %v", tag, err)
		return nil
	}
	return t
}

// LayoutScripts returns the script tags of layout table GSUB or GPOS, sorted.
func LayoutScripts(otf *ot.Font, table string) []ot.Tag {
	t := layoutTable(otf, table)
	if t == nil {
		return nil
	}
	tags := make([]ot.Tag, 0, len(t.Scripts))
	for _, s := range t.Scripts {
		tags = append(tags, s.Tag)
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}

// LayoutFeatures returns the distinct feature tags of layout table GSUB or GPOS, sorted.
func LayoutFeatures(otf *ot.Font, table string) []ot.Tag {
	t := layoutTable(otf, table)
	if t == nil {
		return nil
	}
	tags := make([]ot.Tag, 0, len(t.Features))
	for _, f := range t.Features {
		tags = append(tags, f.Tag)
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}

// FontSupportsScript returns a tuple (script-tag, language-tag) for a given input
// of a script tag and a language tag. If the language has no special support in the
// font, DFLT will be returned. If the script has no support in the font,
// DFLT will be returned for the script.
func FontSupportsScript(otf *ot.Font, scr ot.Tag, lang ot.Tag) (ot.Tag, ot.Tag) {
	if otf == nil {
		return 0, 0
	}
	gsub := layoutTable(otf, "GSUB")
	if gsub == nil {
		return ot.DFLT, ot.DFLT
	}
	for _, script := range gsub.Scripts {
		if script.Tag != scr {
			continue
		}
		tracer().Debugf("script %s is contained in GSUB", scr)
		for _, ls := range script.LangSys {
			if ls.Tag == lang {
				return scr, lang
			}
		}
		return scr, ot.DFLT
	}
	tracer().Infof("cannot find script %s in font", scr)
	return ot.DFLT, ot.DFLT
}
