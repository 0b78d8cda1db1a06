/*
Command otcli is an interactive font subsetter.

	otcli -font MyFont.ttf
	otcli -font MyFont.ttf -text "Hello World" -o MyFont-subset.ttf

Without -text and -o, otcli starts a REPL. Enter "help" for a list of commands.
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/otsubset"
	"github.com/npillmayer/otsubset/ot"
	"github.com/npillmayer/otsubset/subset"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'otcli'
func tracer() tracing.Trace {
	return tracing.Select("otcli")
}

// trace keys of the packages we drive
var traceKeys = []string{"otcli", "font.subset", "font.opentype", "font.cff", "font.query"}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, key := range traceKeys {
		conf["trace."+key] = "Error"
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load")
	text := flag.String("text", "", "Text to subset the font for")
	outname := flag.String("o", "", "Output file for the subset")
	flag.Parse()
	if err := setTraceLevel(*tlevel); err != nil {
		pterm.Error.Println(err)
		os.Exit(5)
	}
	intp := &Intp{opts: subset.DefaultOptions()}
	if *fontname != "" {
		if err := intp.loadFont(*fontname); err != nil { // font name provided by flag
			pterm.Error.Println(err)
			os.Exit(4)
		}
	}
	if *text != "" && *outname != "" {
		if err := intp.oneShot(*text, *outname); err != nil {
			pterm.Error.Println(err)
			os.Exit(2)
		}
		return
	}
	//
	// set up REPL
	pterm.Info.Println("Welcome to the OpenType subsetter") // colored welcome message
	repl, err := readline.New("subset > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	defer repl.Close()
	intp.repl = repl
	if *text != "" {
		intp.addText(*text)
	}
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	intp.REPL()                             // go into interactive mode
}

func setTraceLevel(level string) error {
	for _, key := range traceKeys {
		t := tracing.Select(key)
		switch level {
		case "Debug":
			t.SetTraceLevel(tracing.LevelDebug)
		case "Info":
			t.SetTraceLevel(tracing.LevelInfo)
		case "Error":
			t.SetTraceLevel(tracing.LevelError)
		default:
			return fmt.Errorf("invalid trace level: %s", level)
		}
	}
	tracer().Infof("Trace level is %s", level)
	return nil
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	font     *otsubset.ScalableFont
	repl     *readline.Instance
	opts     *subset.Options
	unicodes []rune          // code points collected by 'text' and 'unicodes'
	glyphs   []ot.GlyphIndex // glyphs collected by 'glyphs'
	result   *ot.FontBuilder // last subset
	plan     *subset.Plan    // plan of the last subset
}

func (intp *Intp) String() string {
	if intp == nil || intp.font == nil {
		return "( no font )"
	}
	s := fmt.Sprintf("( %s: %d code points, %d glyphs", intp.font.Fontname, len(intp.unicodes), len(intp.glyphs))
	if intp.result != nil {
		s += ", subset ready"
	}
	return s + " )"
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd := parseCommand(line)
		err, quit := intp.execute(cmd)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

// Op is a parsed command line: an op-code and the rest of the line as its
// argument.
type Op struct {
	code int
	name string
	arg  string
}

const NOOP = -1
const (
	// op-codes QUIT to OPTIONS will not have arguments
	QUIT int = iota
	INFO
	TABLES
	SUBSET
	OPTIONS
	CLEAR
	// op-codes below may have arguments
	HELP
	LOAD
	TEXT
	UNICODES
	GLYPHS
	SET
	WRITE
)

var opMap = map[string]int{
	"quit":     QUIT,
	"info":     INFO,
	"tables":   TABLES,
	"subset":   SUBSET,
	"options":  OPTIONS,
	"clear":    CLEAR,
	"help":     HELP,
	"load":     LOAD,
	"text":     TEXT,
	"unicodes": UNICODES,
	"glyphs":   GLYPHS,
	"set":      SET,
	"write":    WRITE,
}

func parseCommand(line string) Op {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	name = strings.ToLower(name)
	code, ok := opMap[name]
	if !ok {
		tracer().Infof("unknown command %q", name)
		return Op{code: HELP, name: "help"}
	}
	op := Op{code: code, name: name}
	if code >= HELP {
		op.arg = strings.TrimSpace(arg)
	}
	tracer().Debugf("parsed command: %s %q", op.name, op.arg)
	return op
}

var commandFn = map[int]func(*Intp, *Op) (error, bool){
	QUIT:     quitOp,
	INFO:     infoOp,
	TABLES:   tablesOp,
	SUBSET:   subsetOp,
	OPTIONS:  optionsOp,
	CLEAR:    clearOp,
	HELP:     helpOp,
	LOAD:     loadOp,
	TEXT:     textOp,
	UNICODES: unicodesOp,
	GLYPHS:   glyphsOp,
	SET:      setOp,
	WRITE:    writeOp,
}

func (intp *Intp) execute(op Op) (err error, stop bool) {
	f, ok := commandFn[op.code]
	if !ok {
		return fmt.Errorf("unknown command code: %d", op.code), false
	}
	if op.code != HELP && op.code != LOAD && op.code != QUIT && op.code != SET && op.code != OPTIONS {
		if err = intp.checkFont(); err != nil {
			return
		}
	}
	return f(intp, &op)
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	return nil, true
}

// --- Font Loading -----------------------------------------------------

func (intp *Intp) loadFont(fontname string) (err error) {
	f, err := otsubset.LoadOpenTypeFont(fontname)
	if err != nil {
		return err
	}
	intp.font = f
	intp.unicodes, intp.glyphs, intp.result = nil, nil, nil
	pterm.Info.Printf("loaded %s (%d glyphs)\n", f.Fontname, f.OT.NumGlyphs())
	for _, e := range f.OT.Errors() {
		pterm.Warning.Println(e.Error())
	}
	return nil
}

// oneShot subsets the font for a text and writes the result, without
// entering the REPL.
func (intp *Intp) oneShot(text, outname string) error {
	if err := intp.checkFont(); err != nil {
		return err
	}
	intp.addText(text)
	if err, _ := subsetOp(intp, &Op{code: SUBSET}); err != nil {
		return err
	}
	err, _ := writeOp(intp, &Op{code: WRITE, arg: outname})
	return err
}

// ----------------------------------------------------------------------

var ErrNoFont = errors.New("no font loaded")
var ErrNoSubset = errors.New("no subset created yet")

func (intp *Intp) checkFont() error {
	if intp.font == nil {
		return ErrNoFont
	}
	return nil
}
