package eximg

import "testing"

func TestLookupTagKnown(t *testing.T) {
	def, ok := lookupTag(IFD0, 0x0112)
	if !ok {
		t.Fatal("expected Orientation to be known in IFD0")
	}
	if def.name != "Orientation" || def.typ != TypeShort {
		t.Fatalf("got %+v", def)
	}
}

func TestLookupTagUnknownGroup(t *testing.T) {
	if _, ok := lookupTag(GPSIFD, 0x0112); ok {
		t.Fatal("Orientation should not be defined in GPSIFD")
	}
}

func TestTypedTagConstructors(t *testing.T) {
	tt := Orientation(3)
	if tt.Group != IFD0 || tt.Tag != 0x0112 || tt.Value.Shorts[0] != 3 {
		t.Fatalf("got %+v", tt)
	}
	gps := GPSLatitude(Rational{40, 1}, Rational{30, 1}, Rational{0, 1})
	if gps.Group != GPSIFD || len(gps.Value.Rationals) != 3 {
		t.Fatalf("got %+v", gps)
	}
}
