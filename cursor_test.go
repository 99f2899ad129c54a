package eximg

import (
	"encoding/binary"
	"testing"
)

func TestCursorU16LittleEndian(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02, 0x03, 0x04}, binary.LittleEndian)
	v, err := c.u16(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0x0201 {
		t.Fatalf("got %#04x, want 0x0201", v)
	}
}

func TestCursorU32BigEndian(t *testing.T) {
	c := newCursor([]byte{0x00, 0x00, 0x01, 0x00}, binary.BigEndian)
	v, err := c.u32(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 256 {
		t.Fatalf("got %d, want 256", v)
	}
}

func TestCursorOutOfBounds(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02}, binary.LittleEndian)
	if _, err := c.u32(0); err == nil {
		t.Fatal("expected truncation error, got nil")
	} else if e, ok := err.(*Error); !ok || e.Kind != Truncated {
		t.Fatalf("expected Truncated error, got %v", err)
	}
}

func TestCursorRational(t *testing.T) {
	c := newCursor([]byte{0, 0, 0, 10, 0, 0, 0, 2}, binary.BigEndian)
	r, err := c.rational(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Numerator != 10 || r.Denominator != 2 {
		t.Fatalf("got %+v, want {10 2}", r)
	}
	if r.Float() != 5.0 {
		t.Fatalf("got %v, want 5.0", r.Float())
	}
}
