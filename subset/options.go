package subset

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/otsubset/otlayout"
)

// Options configures a subsetting operation.
type Options struct {
	Unicodes      []rune          // code points to retain
	GlyphIDs      []ot.GlyphIndex // glyphs to retain in addition to the code points
	IncludeNotdef bool            // retain glyph 0
	RetainGIDs    bool            // keep the original glyph IDs, leaving empty slots
	LayoutClosure bool            // retain glyphs reachable through GSUB substitutions
	NormalForms   bool            // SubsetText adds the NFC and NFD forms of the text

	// Allow-lists for layout features and scripts. nil or a list containing
	// otlayout.Wildcard allows all.
	LayoutFeatures otlayout.TagFilter
	LayoutScripts  otlayout.TagFilter

	DropTables            map[ot.Tag]bool // tables to drop by tag
	DropLayoutTables      bool            // drop GSUB, GPOS, GDEF
	DropColorBitmapTables bool            // drop color and bitmap glyph tables
	KeepHinting           bool            // keep TrueType instructions and CFF hint zones

	SubsetNameTable bool     // filter the name table
	NameIDs         []uint16 // name IDs to keep if SubsetNameTable is set
	NameLanguages   []uint16 // Windows language IDs to keep if SubsetNameTable is set
	NameLegacy      bool     // keep Macintosh and Unicode platform names, too

	GlyphNames bool // keep glyph names in post version 2 tables
}

// defaultDropTables carry glyph IDs which this package does not rewrite, or
// are invalidated by subsetting.
var defaultDropTables = []string{
	"BASE", "JSTF", "MATH", "DSIG", "PCLT", "kern", "morx", "mort", "kerx",
	"feat", "just", "lcar", "opbd", "prop", "trak", "fvar", "avar", "gvar",
	"cvar", "HVAR", "VVAR", "MVAR", "STAT", "Glat", "Gloc", "Silf", "Sill",
}

// DefaultOptions returns options for a compact subset: glyph 0 is retained,
// hinting is kept, names are not touched.
func DefaultOptions() *Options {
	opts := &Options{
		IncludeNotdef: true,
		KeepHinting:   true,
		NameIDs:       []uint16{0, 1, 2, 3, 4, 5, 6},
		NameLanguages: []uint16{0x409},
		DropTables:    make(map[ot.Tag]bool),
	}
	for _, tag := range defaultDropTables {
		opts.DropTables[ot.T(tag)] = true
	}
	return opts
}

// Clone returns a deep copy of opts.
func (opts *Options) Clone() *Options {
	c := *opts
	c.Unicodes = slices.Clone(opts.Unicodes)
	c.GlyphIDs = slices.Clone(opts.GlyphIDs)
	c.LayoutFeatures = maps.Clone(opts.LayoutFeatures)
	c.LayoutScripts = maps.Clone(opts.LayoutScripts)
	c.DropTables = maps.Clone(opts.DropTables)
	c.NameIDs = slices.Clone(opts.NameIDs)
	c.NameLanguages = slices.Clone(opts.NameLanguages)
	return &c
}

// Keys lists the keys understood by Set.
var Keys = []string{
	"notdef", "retain-gids", "layout-closure", "normal-forms", "features", "scripts",
	"drop-tables", "drop-layout", "drop-color", "hinting", "name-table", "name-ids",
	"name-languages", "name-legacy", "glyph-names",
}

// Set applies an option given as strings, as used by command line tools.
// Boolean options accept the values of strconv.ParseBool. Lists are comma
// separated; name IDs may be given as ranges ("0-6"), languages as hex
// numbers ("0x409"). An empty tag list for features or scripts allows all.
func (opts *Options) Set(key, value string) error {
	var err error
	value = strings.TrimSpace(value)
	switch key {
	case "notdef":
		opts.IncludeNotdef, err = strconv.ParseBool(value)
	case "retain-gids":
		opts.RetainGIDs, err = strconv.ParseBool(value)
	case "layout-closure":
		opts.LayoutClosure, err = strconv.ParseBool(value)
	case "normal-forms":
		opts.NormalForms, err = strconv.ParseBool(value)
	case "features":
		opts.LayoutFeatures = tagFilter(value)
	case "scripts":
		opts.LayoutScripts = tagFilter(value)
	case "drop-tables":
		opts.DropTables = make(map[ot.Tag]bool)
		for _, t := range splitList(value) {
			opts.DropTables[ot.T(t)] = true
		}
	case "drop-layout":
		opts.DropLayoutTables, err = strconv.ParseBool(value)
	case "drop-color":
		opts.DropColorBitmapTables, err = strconv.ParseBool(value)
	case "hinting":
		opts.KeepHinting, err = strconv.ParseBool(value)
	case "name-table":
		opts.SubsetNameTable, err = strconv.ParseBool(value)
	case "name-ids":
		opts.NameIDs, err = parseNumbers(value, 10)
	case "name-languages":
		opts.NameLanguages, err = parseNumbers(value, 0)
	case "name-legacy":
		opts.NameLegacy, err = strconv.ParseBool(value)
	case "glyph-names":
		opts.GlyphNames, err = strconv.ParseBool(value)
	default:
		return fmt.Errorf("%w: %q", ErrOptionKey, key)
	}
	if err != nil {
		return fmt.Errorf("option %s: %w", key, err)
	}
	return nil
}

func splitList(value string) []string {
	var items []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func tagFilter(value string) otlayout.TagFilter {
	tags := splitList(value)
	if len(tags) == 0 {
		return nil
	}
	return otlayout.NewTagFilter(tags...)
}

func parseNumbers(value string, base int) ([]uint16, error) {
	var numbers []uint16
	for _, item := range splitList(value) {
		from, to, isRange := strings.Cut(item, "-")
		lo, err := strconv.ParseUint(strings.TrimSpace(from), base, 16)
		if err != nil {
			return nil, err
		}
		hi := lo
		if isRange {
			if hi, err = strconv.ParseUint(strings.TrimSpace(to), base, 16); err != nil {
				return nil, err
			}
		}
		for n := lo; n <= hi; n++ {
			numbers = append(numbers, uint16(n))
		}
	}
	return numbers, nil
}

// String lists the options in the syntax of Set.
func (opts *Options) String() string {
	var b strings.Builder
	tags := func(f otlayout.TagFilter) string {
		if f == nil {
			return "*"
		}
		var s []string
		for t := range f {
			s = append(s, strings.TrimSpace(t.String()))
		}
		slices.Sort(s)
		return strings.Join(s, ",")
	}
	numbers := func(ns []uint16, format string) string {
		var s []string
		for _, n := range ns {
			s = append(s, fmt.Sprintf(format, n))
		}
		return strings.Join(s, ",")
	}
	var drop []string
	for t, ok := range opts.DropTables {
		if ok {
			drop = append(drop, strings.TrimSpace(t.String()))
		}
	}
	slices.Sort(drop)
	fmt.Fprintf(&b, "notdef=%v\n", opts.IncludeNotdef)
	fmt.Fprintf(&b, "retain-gids=%v\n", opts.RetainGIDs)
	fmt.Fprintf(&b, "layout-closure=%v\n", opts.LayoutClosure)
	fmt.Fprintf(&b, "normal-forms=%v\n", opts.NormalForms)
	fmt.Fprintf(&b, "features=%s\n", tags(opts.LayoutFeatures))
	fmt.Fprintf(&b, "scripts=%s\n", tags(opts.LayoutScripts))
	fmt.Fprintf(&b, "drop-tables=%s\n", strings.Join(drop, ","))
	fmt.Fprintf(&b, "drop-layout=%v\n", opts.DropLayoutTables)
	fmt.Fprintf(&b, "drop-color=%v\n", opts.DropColorBitmapTables)
	fmt.Fprintf(&b, "hinting=%v\n", opts.KeepHinting)
	fmt.Fprintf(&b, "name-table=%v\n", opts.SubsetNameTable)
	fmt.Fprintf(&b, "name-ids=%s\n", numbers(opts.NameIDs, "%d"))
	fmt.Fprintf(&b, "name-languages=%s\n", numbers(opts.NameLanguages, "0x%x"))
	fmt.Fprintf(&b, "name-legacy=%v\n", opts.NameLegacy)
	fmt.Fprintf(&b, "glyph-names=%v\n", opts.GlyphNames)
	return b.String()
}
