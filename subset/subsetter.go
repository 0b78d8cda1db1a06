package subset

import (
	"errors"
	"fmt"
	"slices"

	"github.com/npillmayer/otsubset/cff"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/otsubset/otlayout"
)

// Phase is a state of a Subsetter. Phases run strictly in order.
type Phase int

const (
	PhaseClosure Phase = iota
	PhaseRemapBuild
	PhaseTableRebuild
	PhaseAssemble
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseClosure:
		return "Closure"
	case PhaseRemapBuild:
		return "RemapBuild"
	case PhaseTableRebuild:
		return "TableRebuild"
	case PhaseAssemble:
		return "Assemble"
	case PhaseDone:
		return "Done"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Tables dropped by the option flags of Options.
var (
	layoutTables      = []ot.Tag{ot.T("GSUB"), ot.T("GPOS"), ot.T("GDEF")}
	colorBitmapTables = []ot.Tag{
		ot.T("CBDT"), ot.T("CBLC"), ot.T("EBDT"), ot.T("EBLC"), ot.T("EBSC"),
		ot.T("sbix"), ot.T("COLR"), ot.T("CPAL"), ot.T("SVG "),
	}
	hintingTables = []ot.Tag{ot.T("fpgm"), ot.T("prep"), ot.T("cvt "), ot.T("VDMX")}
	// per-glyph tables which are not rebuilt
	glyphArrayTables = []ot.Tag{ot.T("hdmx"), ot.T("LTSH")}
)

// Subsetter computes the subset of a font. A Subsetter is used for a single
// subsetting operation; its phases have to be called in order:
//
//	s := subset.NewSubsetter(otf, opts)
//	err := s.Closure()
//	err = s.RemapBuild()
//	err = s.TableRebuild()
//	fb, err := s.Assemble()
//
// Run calls all of them.
type Subsetter struct {
	font     *ot.Font
	opts     *Options
	phase    Phase
	glyphs   *glyphSet
	unicodes map[rune]ot.GlyphIndex
	plan     *Plan
	tables   map[ot.Tag][]byte
}

// NewSubsetter creates a subsetter for a source font. If opts is nil,
// DefaultOptions are used.
func NewSubsetter(otf *ot.Font, opts *Options) *Subsetter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Subsetter{font: otf, opts: opts, tables: make(map[ot.Tag][]byte)}
}

// Phase returns the next phase to run.
func (s *Subsetter) Phase() Phase {
	return s.phase
}

// Plan returns the subset plan. It is nil before RemapBuild has run.
func (s *Subsetter) Plan() *Plan {
	return s.plan
}

func (s *Subsetter) enter(p Phase) error {
	if s.phase != p {
		return fmt.Errorf("%w: cannot run %s, next phase is %s", ErrPhase, p, s.phase)
	}
	tracer().Infof("subset phase %s", p)
	return nil
}

// Closure computes the set of glyphs to retain.
func (s *Subsetter) Closure() error {
	if err := s.enter(PhaseClosure); err != nil {
		return err
	}
	if s.font.HasTable(ot.T("CFF2")) {
		return fmt.Errorf("CFF2 outlines: %w", cff.ErrUnsupported)
	}
	s.glyphs, s.unicodes = closure(s.font, s.opts)
	if s.glyphs.Len() == 0 {
		return ErrNoGlyphs
	}
	s.phase = PhaseRemapBuild
	return nil
}

// RemapBuild numbers the retained glyphs and creates the plan.
func (s *Subsetter) RemapBuild() error {
	if err := s.enter(PhaseRemapBuild); err != nil {
		return err
	}
	s.plan = newPlan(s.glyphs.Glyphs(), s.opts.RetainGIDs)
	s.plan.Unicodes = s.unicodes
	s.plan.FeatureFilter = s.opts.LayoutFeatures
	s.plan.ScriptFilter = s.opts.LayoutScripts
	tracer().Debugf("subset has %d glyphs, %d glyph slots", len(s.plan.RetainedGlyphs), s.plan.NumGlyphs())
	s.phase = PhaseTableRebuild
	return nil
}

// drops reports whether a source table is left out of the subset.
func (s *Subsetter) drops(tag ot.Tag) bool {
	switch {
	case s.opts.DropTables[tag]:
		return true
	case s.opts.DropLayoutTables && slices.Contains(layoutTables, tag):
		return true
	case s.opts.DropColorBitmapTables && slices.Contains(colorBitmapTables, tag):
		return true
	case !s.opts.KeepHinting && slices.Contains(hintingTables, tag):
		return true
	}
	return slices.Contains(glyphArrayTables, tag)
}

// TableRebuild creates the tables of the subset. Tables referencing glyph IDs
// are rebuilt, dropped tables are left out, and all others are copied.
func (s *Subsetter) TableRebuild() error {
	if err := s.enter(PhaseTableRebuild); err != nil {
		return err
	}
	var locaFormat uint16
	if s.font.Glyf != nil && !s.drops(ot.T("glyf")) {
		glyf, loca, format, err := buildGlyf(s.font, s.plan, s.opts.KeepHinting)
		if err != nil {
			return fmt.Errorf("glyf: %w", err)
		}
		s.tables[ot.T("glyf")], s.tables[ot.T("loca")] = glyf, loca
		locaFormat = format
	}
	for _, tag := range s.font.TableTags() {
		if s.drops(tag) {
			tracer().Debugf("table %s dropped", tag)
			continue
		}
		if err := s.rebuild(tag, locaFormat); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
	}
	s.phase = PhaseAssemble
	return nil
}

func (s *Subsetter) rebuild(tag ot.Tag, locaFormat uint16) error {
	src := s.font.Table(tag).Binary()
	var data []byte
	var err error
	switch tag {
	case ot.T("glyf"), ot.T("loca"):
		return nil // built together
	case ot.T("head"):
		data, err = buildHead(s.font, locaFormat)
	case ot.T("maxp"):
		data, err = buildMaxp(s.font, s.plan, s.opts.KeepHinting)
	case ot.T("hhea"), ot.T("vhea"):
		return nil // built with hmtx and vmtx
	case ot.T("hmtx"):
		return s.rebuildMetrics(ot.T("hmtx"), ot.T("hhea"), s.font.HMtx, s.font.HHea)
	case ot.T("vmtx"):
		return s.rebuildMetrics(ot.T("vmtx"), ot.T("vhea"), s.font.VMtx, s.font.VHea)
	case ot.T("cmap"):
		data, err = buildCMap(s.plan)
	case ot.T("post"):
		data, err = buildPost(src, s.plan, s.opts.GlyphNames)
	case ot.T("OS/2"):
		data, err = buildOS2(src, s.plan)
	case ot.T("name"):
		if !s.opts.SubsetNameTable {
			data = src
			break
		}
		data, err = buildName(src, s.opts)
	case ot.T("VORG"):
		data, err = buildVORG(src, s.plan)
	case ot.T("GSUB"), ot.T("GPOS"):
		data, err = s.rebuildLayout(tag, src)
	case ot.T("GDEF"):
		data, err = otlayout.SubsetGDEF(src, s.plan)
		err = dropUnsupported(tag, err)
	case ot.T("CFF "):
		data, err = cff.Build(src, s.plan.GlyphOrder(), cff.BuildOptions{KeepHinting: s.opts.KeepHinting})
	case ot.T("CFF2"):
		return cff.ErrUnsupported
	default:
		data = src
	}
	if err != nil {
		return err
	}
	if data == nil {
		tracer().Infof("table %s has no content in the subset, dropped", tag)
		return nil
	}
	s.tables[tag] = data
	return nil
}

func (s *Subsetter) rebuildMetrics(mtxTag, heaTag ot.Tag, mtx *ot.HMtxTable, hea *ot.HHeaTable) error {
	if mtx == nil || hea == nil {
		tracer().Errorf("table %s cannot be interpreted, dropped", mtxTag)
		return nil
	}
	mtxData, heaData, err := buildMetrics(mtx, hea, s.plan)
	if err != nil {
		return err
	}
	s.tables[mtxTag], s.tables[heaTag] = mtxData, heaData
	return nil
}

// rebuildLayout subsets GSUB or GPOS and records the surviving layout
// indices in the plan.
func (s *Subsetter) rebuildLayout(tag ot.Tag, src []byte) ([]byte, error) {
	res, err := otlayout.SubsetTable(tag, src, s.plan, s.plan.FeatureFilter, s.plan.ScriptFilter)
	if err != nil {
		return nil, dropUnsupported(tag, err)
	}
	s.plan.recordLayout(tag, res)
	return res.Data, nil
}

// dropUnsupported turns errors for table versions this package does not
// know into a dropped table.
func dropUnsupported(tag ot.Tag, err error) error {
	if errors.Is(err, ot.ErrUnsupportedFormat) {
		tracer().Errorf("table %s dropped: %v", tag, err)
		return nil
	}
	return err
}

// Assemble collects the subset tables into a font builder.
func (s *Subsetter) Assemble() (*ot.FontBuilder, error) {
	if err := s.enter(PhaseAssemble); err != nil {
		return nil, err
	}
	fb := ot.NewFontBuilder(s.font.Header.FontType)
	for tag, data := range s.tables {
		fb.AddTable(tag, data)
	}
	s.phase = PhaseDone
	tracer().Infof("subset font has %d tables", len(s.tables))
	return fb, nil
}

// Run executes all phases.
func (s *Subsetter) Run() (*ot.FontBuilder, error) {
	for _, phase := range []func() error{s.Closure, s.RemapBuild, s.TableRebuild} {
		if err := phase(); err != nil {
			return nil, err
		}
	}
	return s.Assemble()
}
