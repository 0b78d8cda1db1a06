package main

import (
	"strings"

	"github.com/npillmayer/otsubset/subset"
	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Debugf("help %v", topic)
	t := strings.ToLower(topic)
	switch t {
	case "set", "option", "options":
		pterm.Info.Println("Subset Options")
		pterm.Println(`
	set <key>=<value> changes an option for the next 'subset'.
	Booleans are true/false, lists are comma separated.

	notdef=true            keep glyph 0
	retain-gids=false      keep glyph IDs, unused glyphs become empty
	layout-closure=false   add glyphs reachable by GSUB substitutions
	normal-forms=false     'text' adds the code points of NFC and NFD forms
	features=liga,kern     keep these layout features only (empty: all)
	scripts=latn           keep these scripts only (empty: all)
	drop-tables=kern,BASE  tables to drop (replaces the default list)
	drop-layout=false      drop GSUB, GPOS and GDEF
	drop-color=false       drop color and bitmap tables
	hinting=true           keep TrueType instructions and CFF hints
	name-table=false       filter table 'name'
	name-ids=0-6           name IDs to keep when filtering
	name-languages=0x409   Windows language IDs to keep when filtering
	name-legacy=false      keep Macintosh name records when filtering
	glyph-names=false      keep glyph names in table 'post'
	`)
		pterm.Printf("Known keys: %s\n", strings.Join(subset.Keys, ", "))
	case "unicodes", "glyphs":
		pterm.Info.Println("Code Points and Glyphs")
		pterm.Println(`
	unicodes U+0041-U+005A,U+00E4   add code points or ranges (hex)
	unicodes                        list collected code points
	glyphs 3,10-12                  add glyph IDs or ranges (decimal)
	glyphs                          list collected glyph IDs
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	load <file>            load a TrueType or CFF flavored OpenType font
	info                   show names, metrics and layout features of the font
	tables                 list tables with their sizes, before and after subsetting
	text <string>          add the code points of a text
	unicodes <list>        add code points, see 'help unicodes'
	glyphs <list>          add glyph IDs, see 'help glyphs'
	clear                  forget all collected code points and glyphs
	set <key>=<value>      change a subset option, see 'help options'
	options                show the current options
	subset                 create the subset
	write <file>           write the subset to a file
	quit                   leave (or <ctrl>D)
	`)
	}
}
