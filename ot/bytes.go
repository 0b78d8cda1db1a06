package ot

import (
	"errors"
	"fmt"
)

// Reading bytes from a font's binary representation

// ErrBufferBounds is returned whenever a read or a patch falls outside of a
// segment or buffer.
var ErrBufferBounds = errors.New("buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

// --- Segments --------------------------------------------------------------

// Segment is a view onto a font's binary data. All access is bounds-checked;
// reading outside of a segment yields ErrBufferBounds.
//
// Segments are sub-slices of the font data, never copies. Clients should treat
// them as read-only.
type Segment []byte

// Size returns the size of s in bytes.
func (s Segment) Size() int {
	return len(s)
}

// View returns n bytes at the given offset.
func (s Segment) View(offset, n int) (Segment, error) {
	if offset < 0 || n < 0 || offset+n > len(s) {
		return nil, fmt.Errorf("view [%d:+%d] of %d bytes: %w", offset, n, len(s), ErrBufferBounds)
	}
	return s[offset : offset+n], nil
}

// From returns the sub-segment starting at offset.
func (s Segment) From(offset int) (Segment, error) {
	if offset < 0 || offset > len(s) {
		return nil, fmt.Errorf("offset %d of %d bytes: %w", offset, len(s), ErrBufferBounds)
	}
	return s[offset:], nil
}

// U8 returns the byte at offset i.
func (s Segment) U8(i int) (uint8, error) {
	if i < 0 || i >= len(s) {
		return 0, fmt.Errorf("u8 at %d of %d bytes: %w", i, len(s), ErrBufferBounds)
	}
	return s[i], nil
}

// U16 returns the uint16 at offset i.
func (s Segment) U16(i int) (uint16, error) {
	if i < 0 || i+2 > len(s) {
		return 0, fmt.Errorf("u16 at %d of %d bytes: %w", i, len(s), ErrBufferBounds)
	}
	return u16(s[i:]), nil
}

// I16 returns the int16 at offset i.
func (s Segment) I16(i int) (int16, error) {
	n, err := s.U16(i)
	return int16(n), err
}

// U32 returns the uint32 at offset i.
func (s Segment) U32(i int) (uint32, error) {
	if i < 0 || i+4 > len(s) {
		return 0, fmt.Errorf("u32 at %d of %d bytes: %w", i, len(s), ErrBufferBounds)
	}
	return u32(s[i:]), nil
}

// Reader returns a reader with sticky error semantics on s.
func (s Segment) Reader() *Reader {
	return &Reader{seg: s}
}

// Reader reads from a segment and remembers the first error. After an error,
// all reads return 0. This allows parsers to read a complete header and check
// for errors once.
//
//	r := seg.Reader()
//	format, count := r.U16(0), r.U16(2)
//	if r.Err() != nil { … }
type Reader struct {
	seg Segment
	err error
}

// Err returns the first error encountered by r.
func (r *Reader) Err() error {
	return r.err
}

// Segment returns the segment r reads from.
func (r *Reader) Segment() Segment {
	return r.seg
}

func (r *Reader) U8(i int) uint8 {
	if r.err != nil {
		return 0
	}
	n, err := r.seg.U8(i)
	r.err = err
	return n
}

func (r *Reader) U16(i int) uint16 {
	if r.err != nil {
		return 0
	}
	n, err := r.seg.U16(i)
	r.err = err
	return n
}

func (r *Reader) I16(i int) int16 {
	return int16(r.U16(i))
}

func (r *Reader) U32(i int) uint32 {
	if r.err != nil {
		return 0
	}
	n, err := r.seg.U32(i)
	r.err = err
	return n
}

// Glyph reads a glyph index at offset i.
func (r *Reader) Glyph(i int) GlyphIndex {
	return GlyphIndex(r.U16(i))
}

// View returns a sub-segment, recording an error if it is out of bounds.
func (r *Reader) View(offset, n int) Segment {
	if r.err != nil {
		return nil
	}
	v, err := r.seg.View(offset, n)
	r.err = err
	return v
}

// --- Writing ---------------------------------------------------------------

// Buffer is a growable big-endian byte buffer. Values are appended at the end;
// placeholders may be reserved and patched later by absolute position.
// The zero value is an empty buffer ready to use.
type Buffer struct {
	b []byte
}

// NewBuffer creates a buffer with an initial capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{b: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far.
func (buf *Buffer) Len() int {
	return len(buf.b)
}

// Bytes returns the buffer's content. The slice aliases the buffer.
func (buf *Buffer) Bytes() []byte {
	return buf.b
}

func (buf *Buffer) PutU8(v uint8) {
	buf.b = append(buf.b, v)
}

func (buf *Buffer) PutU16(v uint16) {
	buf.b = append(buf.b, byte(v>>8), byte(v))
}

func (buf *Buffer) PutI16(v int16) {
	buf.PutU16(uint16(v))
}

func (buf *Buffer) PutU32(v uint32) {
	buf.b = append(buf.b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// PutTag appends a 4-byte tag.
func (buf *Buffer) PutTag(t Tag) {
	buf.PutU32(uint32(t))
}

// PutGlyph appends a glyph index.
func (buf *Buffer) PutGlyph(g GlyphIndex) {
	buf.PutU16(uint16(g))
}

// Append appends raw bytes.
func (buf *Buffer) Append(p []byte) {
	buf.b = append(buf.b, p...)
}

// Reserve16 appends a zero uint16 placeholder and returns its position.
func (buf *Buffer) Reserve16() int {
	pos := len(buf.b)
	buf.b = append(buf.b, 0, 0)
	return pos
}

// Reserve32 appends a zero uint32 placeholder and returns its position.
func (buf *Buffer) Reserve32() int {
	pos := len(buf.b)
	buf.b = append(buf.b, 0, 0, 0, 0)
	return pos
}

// SetU16 overwrites the uint16 at absolute position pos.
func (buf *Buffer) SetU16(pos int, v uint16) error {
	if pos < 0 || pos+2 > len(buf.b) {
		return fmt.Errorf("patch u16 at %d of %d bytes: %w", pos, len(buf.b), ErrBufferBounds)
	}
	buf.b[pos], buf.b[pos+1] = byte(v>>8), byte(v)
	return nil
}

// SetU32 overwrites the uint32 at absolute position pos.
func (buf *Buffer) SetU32(pos int, v uint32) error {
	if pos < 0 || pos+4 > len(buf.b) {
		return fmt.Errorf("patch u32 at %d of %d bytes: %w", pos, len(buf.b), ErrBufferBounds)
	}
	buf.b[pos], buf.b[pos+1], buf.b[pos+2], buf.b[pos+3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
	return nil
}

// Pad appends zero bytes until the length of buf is a multiple of align.
func (buf *Buffer) Pad(align int) {
	for len(buf.b)%align != 0 {
		buf.b = append(buf.b, 0)
	}
}

// PutU16At writes v at pos, without growing the buffer. It is a helper for
// patching fixed-size fields in copied table data.
func PutU16At(b []byte, pos int, v uint16) error {
	if pos < 0 || pos+2 > len(b) {
		return fmt.Errorf("put u16 at %d of %d bytes: %w", pos, len(b), ErrBufferBounds)
	}
	b[pos], b[pos+1] = byte(v>>8), byte(v)
	return nil
}

// PutU32At writes v at pos, without growing the buffer.
func PutU32At(b []byte, pos int, v uint32) error {
	if pos < 0 || pos+4 > len(b) {
		return fmt.Errorf("put u32 at %d of %d bytes: %w", pos, len(b), ErrBufferBounds)
	}
	b[pos], b[pos+1], b[pos+2], b[pos+3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
	return nil
}
