package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/otsubset/internal/fontload"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/otsubset/otquery"
	"github.com/npillmayer/otsubset/subset"
	"github.com/pterm/pterm"
)

func loadOp(intp *Intp, op *Op) (error, bool) {
	if op.arg == "" {
		return errors.New("usage: load <font file>"), false
	}
	return intp.loadFont(op.arg), false
}

func infoOp(intp *Intp, op *Op) (error, bool) {
	otf := intp.font.OT
	family, subfamily := otquery.FamilyName(otf)
	data := [][]string{
		{"Property", "Value"},
		{"File", intp.font.Filepath},
		{"Family", family},
		{"Subfamily", subfamily},
		{"Outlines", otquery.FontType(otf)},
		{"Glyphs", fmt.Sprintf("%d", otf.NumGlyphs())},
	}
	if head, ok := otquery.HeadInfo(otf); ok {
		data = append(data,
			[]string{"Units per em", fmt.Sprintf("%d", head.UnitsPerEm)},
			[]string{"Revision", fmt.Sprintf("%.3f", head.Revision())},
			[]string{"Modified", head.ModifiedTime().Format("2006-01-02")},
		)
	}
	m := otquery.FontMetrics(otf)
	data = append(data, []string{"Ascent/Descent", fmt.Sprintf("%d/%d", m.Ascent, m.Descent)})
	if maxp, ok := otquery.MaxPInfo(otf); ok && maxp.HasExtendedProfile {
		data = append(data, []string{"Max points/contours", fmt.Sprintf("%d/%d", maxp.MaxPoints, maxp.MaxContours)})
	}
	for _, table := range []string{"GSUB", "GPOS"} {
		if !otf.HasTable(ot.T(table)) {
			continue
		}
		data = append(data,
			[]string{table + " scripts", joinTags(otquery.LayoutScripts(otf, table))},
			[]string{table + " features", joinTags(otquery.LayoutFeatures(otf, table))},
		)
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil, false
}

func joinTags(tags []ot.Tag) string {
	s := make([]string, len(tags))
	for i, t := range tags {
		s[i] = strings.TrimSpace(t.String())
	}
	return strings.Join(s, " ")
}

// tablesOp prints the tables of the font with their sizes, and the sizes
// after subsetting if a subset has been created.
func tablesOp(intp *Intp, op *Op) (error, bool) {
	otf := intp.font.OT
	tags := otf.TableTags()
	if intp.result != nil {
		tags = append(tags, intp.result.Tags()...)
		slices.Sort(tags)
		tags = slices.Compact(tags)
	}
	data := [][]string{{"Table", "Size", "Subset"}}
	var before, after int
	for _, tag := range tags {
		row := []string{tag.String(), "-", "-"}
		if t := otf.Table(tag); t != nil {
			row[1] = fmt.Sprintf("%d", len(t.Binary()))
			before += len(t.Binary())
		}
		if intp.result != nil {
			if intp.result.HasTable(tag) {
				size := len(intp.result.Table(tag))
				row[2] = fmt.Sprintf("%d", size)
				after += size
			} else {
				row[2] = "dropped"
			}
		}
		data = append(data, row)
	}
	total := []string{"total", fmt.Sprintf("%d", before), "-"}
	if intp.result != nil {
		total[2] = fmt.Sprintf("%d", after)
	}
	data = append(data, total)
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil, false
}

func (intp *Intp) addText(text string) {
	runes := subset.TextUnicodes(text, intp.opts.NormalForms)
	intp.addUnicodes(runes)
	if intp.font == nil {
		return
	}
	if _, missing := otquery.Coverage(intp.font.OT, string(runes)); len(missing) > 0 {
		pterm.Warning.Printf("font does not cover %s\n", formatRunes(missing))
	}
}

func (intp *Intp) addUnicodes(runes []rune) {
	intp.unicodes = append(intp.unicodes, runes...)
	slices.Sort(intp.unicodes)
	intp.unicodes = slices.Compact(intp.unicodes)
	intp.result = nil
}

func textOp(intp *Intp, op *Op) (error, bool) {
	if op.arg == "" {
		return errors.New("usage: text <string>"), false
	}
	intp.addText(op.arg)
	return nil, false
}

func unicodesOp(intp *Intp, op *Op) (error, bool) {
	if op.arg == "" {
		pterm.Println(formatRunes(intp.unicodes))
		return nil, false
	}
	runes, err := parseUnicodes(op.arg)
	if err != nil {
		return err, false
	}
	intp.addUnicodes(runes)
	return nil, false
}

func glyphsOp(intp *Intp, op *Op) (error, bool) {
	if op.arg == "" {
		pterm.Printf("%v\n", intp.glyphs)
		return nil, false
	}
	glyphs, err := parseGlyphIDs(op.arg)
	if err != nil {
		return err, false
	}
	n := intp.font.OT.NumGlyphs()
	for _, g := range glyphs {
		if int(g) >= n {
			return fmt.Errorf("glyph %d out of range, font has %d glyphs", g, n), false
		}
	}
	intp.glyphs = append(intp.glyphs, glyphs...)
	slices.Sort(intp.glyphs)
	intp.glyphs = slices.Compact(intp.glyphs)
	intp.result = nil
	return nil, false
}

func clearOp(intp *Intp, op *Op) (error, bool) {
	intp.unicodes, intp.glyphs, intp.result = nil, nil, nil
	return nil, false
}

func setOp(intp *Intp, op *Op) (error, bool) {
	key, value, ok := strings.Cut(op.arg, "=")
	if !ok {
		return fmt.Errorf("usage: set <key>=<value>, keys are %s", strings.Join(subset.Keys, ", ")), false
	}
	if err := intp.opts.Set(strings.TrimSpace(key), value); err != nil {
		return err, false
	}
	intp.result = nil
	return nil, false
}

func optionsOp(intp *Intp, op *Op) (error, bool) {
	pterm.Println(intp.opts.String())
	return nil, false
}

func subsetOp(intp *Intp, op *Op) (error, bool) {
	if len(intp.unicodes) == 0 && len(intp.glyphs) == 0 {
		return errors.New("nothing to subset, use 'text', 'unicodes' or 'glyphs' first"), false
	}
	opts := intp.opts.Clone()
	opts.GlyphIDs = append(opts.GlyphIDs, intp.glyphs...)
	opts.Unicodes = append(opts.Unicodes, intp.unicodes...)
	s := subset.NewSubsetter(intp.font.OT, opts)
	fb, err := s.Run()
	if err != nil {
		return err, false
	}
	intp.result, intp.plan = fb, s.Plan()
	pterm.Info.Printf("subset has %d glyphs\n", intp.plan.NumGlyphs())
	if rows := layoutSummary(intp.plan); len(rows) > 1 {
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err, false
		}
	}
	return nil, false
}

// layoutSummary lists the source lookups and features surviving layout
// subsetting, one row per layout table.
func layoutSummary(plan *subset.Plan) [][]string {
	rows := [][]string{{"Layout", "Lookups", "Features"}}
	for _, tag := range []ot.Tag{ot.T("GSUB"), ot.T("GPOS")} {
		lookups, ok := plan.RetainedLookups[tag]
		if !ok {
			continue
		}
		rows = append(rows, []string{tag.String(), formatIndices(lookups), formatIndices(plan.RetainedFeatures[tag])})
	}
	return rows
}

func formatIndices(set *treeset.Set) string {
	if set == nil || set.Empty() {
		return "none"
	}
	inx := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		inx = append(inx, strconv.Itoa(v.(int)))
	}
	return fmt.Sprintf("%d (%s)", set.Size(), strings.Join(inx, ", "))
}

func writeOp(intp *Intp, op *Op) (error, bool) {
	if intp.result == nil {
		return ErrNoSubset, false
	}
	if op.arg == "" {
		return errors.New("usage: write <file>"), false
	}
	data, err := intp.result.Serialize()
	if err != nil {
		return err, false
	}
	if _, _, err = fontload.Validate(data); err != nil {
		return fmt.Errorf("subset is not readable: %w", err), false
	}
	if err = fontload.Save(op.arg, data); err != nil {
		return err, false
	}
	pterm.Info.Printf("wrote %d bytes to %s\n", len(data), op.arg)
	return nil, false
}
