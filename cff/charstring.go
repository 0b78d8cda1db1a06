package cff

import (
	"fmt"

	"github.com/npillmayer/otsubset/ot"
)

// Limits of the Type 2 CharString format.
const (
	MaxSubrDepth = 10 // nesting of subroutine calls
	maxStack     = 48 // argument stack depth
)

// Type 2 CharString operators the expander has to know about.
const (
	csHStem     = 1
	csVStem     = 3
	csCallSubr  = 10
	csReturn    = 11
	csEscape    = 12
	csEndChar   = 14
	csHStemHM   = 18
	csHintMask  = 19
	csCntrMask  = 20
	csVStemHM   = 23
	csShortInt  = 28
	csCallGSubr = 29
	csFixed     = 255
)

// number is an operand of a CharString: an integer or, for operator byte 255,
// a 16.16 fixed point value.
type number struct {
	v     int32
	fixed bool
}

func (n number) encode(buf *ot.Buffer) {
	switch {
	case n.fixed && n.v&0xffff == 0:
		number{v: n.v >> 16}.encode(buf)
	case n.fixed:
		buf.PutU8(csFixed)
		buf.PutU32(uint32(n.v))
	case n.v >= -107 && n.v <= 107:
		buf.PutU8(uint8(n.v + 139))
	case n.v >= 108 && n.v <= 1131:
		v := n.v - 108
		buf.PutU8(uint8(v>>8 + 247))
		buf.PutU8(uint8(v))
	case n.v >= -1131 && n.v <= -108:
		v := -n.v - 108
		buf.PutU8(uint8(v>>8 + 251))
		buf.PutU8(uint8(v))
	case n.v >= -32768 && n.v <= 32767:
		buf.PutU8(csShortInt)
		buf.PutI16(int16(n.v))
	default:
		buf.PutU8(csFixed)
		buf.PutU32(uint32(n.v << 16))
	}
}

// expander holds the state of expanding a single CharString.
type expander struct {
	gsubrs, lsubrs Index
	gbias, lbias   int
	out            *ot.Buffer
	stack          []number // operands not yet written
	hints          int      // number of stem hints declared so far
	ended          bool     // endchar seen
}

// Expand de-subroutinizes a Type 2 CharString: every call of a local or
// global subroutine is replaced by the subroutine's body. Numbers are
// re-encoded in their shortest form, hint masks are carried over with their
// size derived from the stem hints seen so far.
//
// Expansion stops after endchar. Subroutine calls nested deeper than
// MaxSubrDepth, which includes cyclic calls, fail with ErrSubrDepth.
func Expand(cs []byte, gsubrs, lsubrs Index) ([]byte, error) {
	e := &expander{
		gsubrs: gsubrs,
		lsubrs: lsubrs,
		gbias:  Bias(len(gsubrs)),
		lbias:  Bias(len(lsubrs)),
		out:    ot.NewBuffer(len(cs) * 2),
	}
	if err := e.run(cs, 0); err != nil {
		return nil, err
	}
	if !e.ended {
		e.flush()
	}
	return e.out.Bytes(), nil
}

func (e *expander) flush() {
	for _, n := range e.stack {
		n.encode(e.out)
	}
	e.stack = e.stack[:0]
}

func (e *expander) push(n number) error {
	if len(e.stack) >= maxStack {
		return fmt.Errorf("argument stack overflow: %w", ErrCharString)
	}
	e.stack = append(e.stack, n)
	return nil
}

// run interprets code at the given subroutine nesting depth. It returns at
// the end of code, at return, or at endchar.
func (e *expander) run(code []byte, depth int) error {
	for i := 0; i < len(code) && !e.ended; {
		b0 := code[i]
		switch {
		case b0 >= 32 && b0 <= 246:
			if err := e.push(number{v: int32(b0) - 139}); err != nil {
				return err
			}
			i++
			continue
		case b0 >= 247 && b0 <= 254:
			if i+1 >= len(code) {
				return fmt.Errorf("truncated number: %w", ErrCharString)
			}
			v := int32(code[i+1]) + 108
			if b0 <= 250 {
				v += (int32(b0) - 247) * 256
			} else {
				v = -(int32(b0)-251)*256 - v
			}
			if err := e.push(number{v: v}); err != nil {
				return err
			}
			i += 2
			continue
		case b0 == csShortInt:
			if i+2 >= len(code) {
				return fmt.Errorf("truncated number: %w", ErrCharString)
			}
			if err := e.push(number{v: int32(int16(uint16(code[i+1])<<8 | uint16(code[i+2])))}); err != nil {
				return err
			}
			i += 3
			continue
		case b0 == csFixed:
			if i+4 >= len(code) {
				return fmt.Errorf("truncated number: %w", ErrCharString)
			}
			v := int32(uint32(code[i+1])<<24 | uint32(code[i+2])<<16 | uint32(code[i+3])<<8 | uint32(code[i+4]))
			if err := e.push(number{v: v, fixed: true}); err != nil {
				return err
			}
			i += 5
			continue
		}
		// operators
		i++
		switch b0 {
		case csCallSubr, csCallGSubr:
			if err := e.call(b0, depth); err != nil {
				return err
			}
		case csReturn:
			return nil
		case csEndChar:
			e.flush()
			e.out.PutU8(csEndChar)
			e.ended = true
		case csHStem, csVStem, csHStemHM, csVStemHM:
			e.hints += len(e.stack) / 2
			e.flush()
			e.out.PutU8(b0)
		case csHintMask, csCntrMask:
			// operands before a mask are an implicit vstem
			e.hints += len(e.stack) / 2
			e.flush()
			e.out.PutU8(b0)
			n := (e.hints + 7) / 8
			if i+n > len(code) {
				return fmt.Errorf("truncated hint mask: %w", ErrCharString)
			}
			e.out.Append(code[i : i+n])
			i += n
		case csEscape:
			if i >= len(code) {
				return fmt.Errorf("truncated escape: %w", ErrCharString)
			}
			e.flush()
			e.out.PutU8(csEscape)
			e.out.PutU8(code[i])
			i++
		default:
			e.flush()
			e.out.PutU8(b0)
		}
	}
	return nil
}

func (e *expander) call(op byte, depth int) error {
	if depth+1 > MaxSubrDepth {
		return ErrSubrDepth
	}
	if len(e.stack) == 0 {
		return fmt.Errorf("subroutine call without index: %w", ErrCharString)
	}
	n := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	if n.fixed {
		return fmt.Errorf("subroutine index is not an integer: %w", ErrCharString)
	}
	subrs, bias, kind := e.lsubrs, e.lbias, "local"
	if op == csCallGSubr {
		subrs, bias, kind = e.gsubrs, e.gbias, "global"
	}
	inx := int(n.v) + bias
	if inx < 0 || inx >= len(subrs) {
		return fmt.Errorf("%s subroutine %d of %d: %w", kind, inx, len(subrs), ErrCharString)
	}
	return e.run(subrs[inx], depth+1)
}
