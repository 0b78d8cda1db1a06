package ot

import (
	"errors"
	"fmt"
)

var (
	// ErrFontFormat flags font data which violates the OpenType specification.
	ErrFontFormat = errors.New("OpenType font format")
	// ErrUnsupportedFormat flags well-formed font data in a variant this module
	// does not read, e.g. font collections.
	ErrUnsupportedFormat = errors.New("unsupported font format")
)

func errFontFormat(message string) error {
	return fmt.Errorf("%w: %s", ErrFontFormat, message)
}

// ErrorSeverity tells how much of a font a parsing error affects.
type ErrorSeverity int

const (
	SeverityCritical ErrorSeverity = iota // font cannot be used
	SeverityMajor                         // table cannot be used, the subsetter drops or rebuilds it
	SeverityMinor                         // cosmetic
)

var severityNames = [...]string{"critical", "major", "minor"}

func (s ErrorSeverity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// FontError is a problem found while parsing a font. Parse collects them,
// clients inspect them with Font.Errors. Every FontError matches ErrFontFormat
// with errors.Is.
type FontError struct {
	Table    Tag
	Section  string // part of the table, e.g. "Format" or "Size"
	Issue    string
	Severity ErrorSeverity
	Offset   uint32 // position in the font binary, 0 if unknown
}

func (e FontError) Error() string {
	at := ""
	if e.Offset > 0 {
		at = fmt.Sprintf(" @%d", e.Offset)
	}
	return fmt.Sprintf("%s error in %s/%s%s: %s", e.Severity, e.Table, e.Section, at, e.Issue)
}

func (e FontError) Unwrap() error {
	return ErrFontFormat
}

// FontWarning is a deviation from the OpenType specification which Parse
// tolerates.
type FontWarning struct {
	Table  Tag
	Issue  string
	Offset uint32
}

func (w FontWarning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("warning for %s @%d: %s", w.Table, w.Offset, w.Issue)
	}
	return fmt.Sprintf("warning for %s: %s", w.Table, w.Issue)
}

type errorCollector struct {
	errors   []FontError
	warnings []FontWarning
}

func (ec *errorCollector) addError(table Tag, section string, issue string, severity ErrorSeverity, offset uint32) {
	e := FontError{Table: table, Section: section, Issue: issue, Severity: severity, Offset: offset}
	tracer().Debugf("%v", e)
	ec.errors = append(ec.errors, e)
}

func (ec *errorCollector) addWarning(table Tag, issue string, offset uint32) {
	ec.warnings = append(ec.warnings, FontWarning{Table: table, Issue: issue, Offset: offset})
}

// critical records a critical error and returns it.
func (ec *errorCollector) critical(table Tag, section string, issue string, offset uint32) error {
	ec.addError(table, section, issue, SeverityCritical, offset)
	return ec.errors[len(ec.errors)-1]
}

func (ec *errorCollector) hasCriticalErrors() bool {
	for _, e := range ec.errors {
		if e.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
