package ot

import (
	"bytes"
	"errors"
	"testing"
)

func TestSegmentBounds(t *testing.T) {
	s := Segment{0x00, 0x01, 0xff, 0xfe, 0x12}
	if v, err := s.U16(0); err != nil || v != 1 {
		t.Errorf("expected U16(0) = 1, have %d, %v", v, err)
	}
	if v, err := s.I16(2); err != nil || v != -2 {
		t.Errorf("expected I16(2) = -2, have %d, %v", v, err)
	}
	if v, err := s.U32(1); err != nil || v != 0x01fffe12 {
		t.Errorf("expected U32(1) = 0x01fffe12, have %x, %v", v, err)
	}
	_, e1 := s.U16(4)
	_, e2 := s.U32(2)
	_, e3 := s.U8(5)
	_, e4 := s.U8(-1)
	_, e5 := s.View(3, 3)
	_, e6 := s.From(6)
	for _, err := range []error{e1, e2, e3, e4, e5, e6} {
		if !errors.Is(err, ErrBufferBounds) {
			t.Errorf("expected bounds error, have %v", err)
		}
	}
	if v, err := s.From(5); err != nil || len(v) != 0 {
		t.Errorf("From(len) should yield an empty segment, have %v, %v", v, err)
	}
}

func TestReaderStickyError(t *testing.T) {
	r := Segment{0, 4, 0, 1}.Reader()
	a := r.U16(0)
	b := r.U32(2) // out of bounds
	c := r.U16(2) // in bounds, but after the error
	if a != 4 || b != 0 || c != 0 {
		t.Errorf("expected 4, 0, 0; have %d, %d, %d", a, b, c)
	}
	if !errors.Is(r.Err(), ErrBufferBounds) {
		t.Errorf("expected sticky bounds error, have %v", r.Err())
	}
	if r.View(0, 2) != nil {
		t.Error("View after an error should return nil")
	}
}

func TestBufferBackpatch(t *testing.T) {
	buf := NewBuffer(8)
	buf.PutU16(1)
	pos := buf.Reserve16()
	pos32 := buf.Reserve32()
	buf.PutTag(T("cmap"))
	buf.PutI16(-1)
	buf.PutU8(7)
	if err := buf.SetU16(pos, 0xabcd); err != nil {
		t.Fatal(err)
	}
	if err := buf.SetU32(pos32, 0x01020304); err != nil {
		t.Fatal(err)
	}
	buf.Pad(4)
	expected := []byte{0, 1, 0xab, 0xcd, 1, 2, 3, 4, 'c', 'm', 'a', 'p', 0xff, 0xff, 7, 0}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("expected % x, have % x", expected, buf.Bytes())
	}
	if err := buf.SetU16(buf.Len()-1, 0); !errors.Is(err, ErrBufferBounds) {
		t.Errorf("expected bounds error for patch beyond the end, have %v", err)
	}
	if err := PutU32At(make([]byte, 3), 0, 1); !errors.Is(err, ErrBufferBounds) {
		t.Errorf("expected bounds error for PutU32At, have %v", err)
	}
}
