package eximg

import (
	"encoding/binary"
	"testing"
)

func TestDecodeValueShort(t *testing.T) {
	c := newCursor([]byte{0x00, 0x05, 0x00, 0x0A}, binary.BigEndian)
	v, err := decodeValue(c, TypeShort, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Shorts) != 2 || v.Shorts[0] != 5 || v.Shorts[1] != 10 {
		t.Fatalf("got %+v", v.Shorts)
	}
}

func TestDecodeValueASCIIStripsNUL(t *testing.T) {
	c := newCursor([]byte("abc\x00"), binary.LittleEndian)
	v, err := decodeValue(c, TypeASCII, 4, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Text != "abc" {
		t.Fatalf("got %q, want %q", v.Text, "abc")
	}
}

func TestEncodeDecodeRationalRoundTrip(t *testing.T) {
	order := binary.LittleEndian
	v := rationalValue([]unsignedRational{{3, 4}})
	raw := encodeValue(order, v)
	if len(raw) != 8 {
		t.Fatalf("got %d bytes, want 8", len(raw))
	}
	c := newCursor(raw, order)
	got, err := decodeValue(c, TypeRational, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Rationals[0] != v.Rationals[0] {
		t.Fatalf("got %+v, want %+v", got.Rationals[0], v.Rationals[0])
	}
}

func TestValueByteSizeInlineRule(t *testing.T) {
	v := shortValue([]uint16{1, 2})
	if v.byteSize() != 4 {
		t.Fatalf("got %d, want 4 (inline)", v.byteSize())
	}
	v2 := shortValue([]uint16{1, 2, 3})
	if v2.byteSize() != 6 {
		t.Fatalf("got %d, want 6 (out-of-line)", v2.byteSize())
	}
}
