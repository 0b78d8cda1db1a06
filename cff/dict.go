package cff

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/npillmayer/otsubset/ot"
)

// Operator is a DICT operator. Two-byte operators (escape 12) are stored as
// 0x0c00 | second byte.
type Operator uint16

// DICT operators used by this package.
const (
	OpBlueValues       Operator = 6
	OpOtherBlues       Operator = 7
	OpFamilyBlues      Operator = 8
	OpFamilyOtherBlues Operator = 9
	OpStdHW            Operator = 10
	OpStdVW            Operator = 11
	OpFontBBox         Operator = 5
	OpCharset          Operator = 15
	OpEncoding         Operator = 16
	OpCharStrings      Operator = 17
	OpPrivate          Operator = 18
	OpSubrs            Operator = 19
	OpDefaultWidthX    Operator = 20
	OpNominalWidthX    Operator = 21
	OpCharstringType   Operator = 0x0c06
	OpFontMatrix       Operator = 0x0c07
	OpBlueScale        Operator = 0x0c09
	OpBlueShift        Operator = 0x0c0a
	OpBlueFuzz         Operator = 0x0c0b
	OpStemSnapH        Operator = 0x0c0c
	OpStemSnapV        Operator = 0x0c0d
	OpForceBold        Operator = 0x0c0e
	OpLanguageGroup    Operator = 0x0c11
	OpExpansionFactor  Operator = 0x0c12
	OpROS              Operator = 0x0c1e
)

// hintOperators are the Private DICT entries controlling hinting.
var hintOperators = []Operator{
	OpBlueValues, OpOtherBlues, OpFamilyBlues, OpFamilyOtherBlues, OpStdHW, OpStdVW,
	OpBlueScale, OpBlueShift, OpBlueFuzz, OpStemSnapH, OpStemSnapV, OpForceBold,
	OpLanguageGroup, OpExpansionFactor,
}

// Operand is a DICT operand, either an integer or a real number. Reals keep
// their nibble encoding, so they can be written back unchanged.
type Operand struct {
	Int  int
	real []byte // including the leading 30, nil for integers
}

// IsReal reports whether o is a real number.
func (o Operand) IsReal() bool {
	return o.real != nil
}

// Float returns the value of o.
func (o Operand) Float() float64 {
	if o.real == nil {
		return float64(o.Int)
	}
	return decodeReal(o.real)
}

func (o Operand) String() string {
	if o.real == nil {
		return strconv.Itoa(o.Int)
	}
	return strconv.FormatFloat(o.Float(), 'g', -1, 64)
}

// Entry is an operator with its operands.
type Entry struct {
	Op       Operator
	Operands []Operand
}

// Dict is a decoded DICT, with entries in source order.
type Dict struct {
	Entries []Entry
}

// ParseDict decodes DICT data.
func ParseDict(data []byte) (Dict, error) {
	var d Dict
	var operands []Operand
	for i := 0; i < len(data); {
		b0 := data[i]
		switch {
		case b0 <= 21:
			op := Operator(b0)
			i++
			if b0 == 12 {
				if i >= len(data) {
					return d, fmt.Errorf("DICT escape at end: %w", ot.ErrBufferBounds)
				}
				op = 0x0c00 | Operator(data[i])
				i++
			}
			d.Entries = append(d.Entries, Entry{Op: op, Operands: operands})
			operands = nil
		case b0 == 30:
			end := i + 1
			for ; end < len(data); end++ {
				if data[end]&0x0f == 0x0f || data[end]>>4 == 0x0f {
					break
				}
			}
			if end >= len(data) {
				return d, fmt.Errorf("DICT real number unterminated: %w", ot.ErrBufferBounds)
			}
			operands = append(operands, Operand{real: data[i : end+1]})
			i = end + 1
		default:
			v, n, err := dictInt(data[i:])
			if err != nil {
				return d, err
			}
			operands = append(operands, Operand{Int: v})
			i += n
		}
	}
	if len(operands) > 0 {
		return d, fmt.Errorf("DICT has %d trailing operands: %w", len(operands), ot.ErrBufferBounds)
	}
	return d, nil
}

// dictInt decodes an integer operand and returns it with its encoded size.
func dictInt(b []byte) (int, int, error) {
	b0 := b[0]
	size := 0
	switch {
	case b0 >= 32 && b0 <= 246:
		return int(b0) - 139, 1, nil
	case b0 >= 247 && b0 <= 254:
		size = 2
	case b0 == 28:
		size = 3
	case b0 == 29:
		size = 5
	default:
		return 0, 0, fmt.Errorf("DICT operand byte %d: %w", b0, ErrUnsupported)
	}
	if len(b) < size {
		return 0, 0, fmt.Errorf("DICT operand: %w", ot.ErrBufferBounds)
	}
	switch {
	case b0 >= 247 && b0 <= 250:
		return (int(b0)-247)*256 + int(b[1]) + 108, size, nil
	case b0 >= 251 && b0 <= 254:
		return -(int(b0)-251)*256 - int(b[1]) - 108, size, nil
	case b0 == 28:
		return int(int16(uint16(b[1])<<8 | uint16(b[2]))), size, nil
	}
	return int(int32(uint32(b[1])<<24 | uint32(b[2])<<16 | uint32(b[3])<<8 | uint32(b[4]))), size, nil
}

func decodeReal(b []byte) float64 {
	var sb strings.Builder
	for _, x := range b[1:] {
		for _, nib := range [2]byte{x >> 4, x & 0x0f} {
			switch {
			case nib <= 9:
				sb.WriteByte('0' + nib)
			case nib == 0xa:
				sb.WriteByte('.')
			case nib == 0xb:
				sb.WriteByte('E')
			case nib == 0xc:
				sb.WriteString("E-")
			case nib == 0xe:
				sb.WriteByte('-')
			case nib == 0xf:
				f, err := strconv.ParseFloat(sb.String(), 64)
				if err != nil {
					return math.NaN()
				}
				return f
			}
		}
	}
	return math.NaN()
}

// Get returns the operands of the first entry for op.
func (d Dict) Get(op Operator) ([]Operand, bool) {
	for _, e := range d.Entries {
		if e.Op == op {
			return e.Operands, true
		}
	}
	return nil, false
}

// Ints returns the integer operands of op. It fails if op is missing or has
// fewer than n operands.
func (d Dict) Ints(op Operator, n int) ([]int, error) {
	operands, ok := d.Get(op)
	if !ok || len(operands) < n {
		return nil, fmt.Errorf("DICT operator %#x: %d operands expected", uint16(op), n)
	}
	ints := make([]int, len(operands))
	for i, o := range operands {
		ints[i] = int(math.Round(o.Float()))
	}
	return ints, nil
}

// Has reports whether d contains op.
func (d Dict) Has(op Operator) bool {
	_, ok := d.Get(op)
	return ok
}

// Append adds an entry with integer operands.
func (d *Dict) Append(op Operator, values ...int) {
	operands := make([]Operand, len(values))
	for i, v := range values {
		operands[i] = Operand{Int: v}
	}
	d.Entries = append(d.Entries, Entry{Op: op, Operands: operands})
}

// Encode writes d as DICT data. Integers use their shortest encoding.
func (d Dict) Encode() []byte {
	buf := ot.NewBuffer(64)
	for _, e := range d.Entries {
		for _, o := range e.Operands {
			if o.real != nil {
				buf.Append(o.real)
			} else {
				buf.Append(EncodeDictInt(o.Int))
			}
		}
		if e.Op > 0xff {
			buf.PutU8(12)
		}
		buf.PutU8(uint8(e.Op))
	}
	return buf.Bytes()
}

// EncodeDictInt encodes an integer DICT operand in its shortest form.
func EncodeDictInt(v int) []byte {
	switch {
	case v >= -107 && v <= 107:
		return []byte{byte(v + 139)}
	case v >= 108 && v <= 1131:
		v -= 108
		return []byte{byte(v>>8 + 247), byte(v)}
	case v >= -1131 && v <= -108:
		v = -v - 108
		return []byte{byte(v>>8 + 251), byte(v)}
	case v >= -32768 && v <= 32767:
		return []byte{28, byte(v >> 8), byte(v)}
	}
	return []byte{29, byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
