package eximg

import (
	"encoding/binary"
	"testing"
)

func TestExifPayloadRoundTripSimple(t *testing.T) {
	root := newIfdNode(IFD0)
	root.set(0x0112, shortValue([]uint16{1})) // Orientation
	root.set(0x010E, asciiValue("hello"))     // ImageDescription
	root.set(0x010F, asciiValue("ACME"))      // Make

	c := DefaultControl()
	payload, err := SerializeExifPayload(root, binary.LittleEndian, c)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got, order, _, err := ParseExifPayload(payload, c)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if order != binary.LittleEndian {
		t.Fatalf("got order %v, want LittleEndian", order)
	}
	v, ok := got.get(0x0112)
	if !ok || len(v.Shorts) != 1 || v.Shorts[0] != 1 {
		t.Fatalf("Orientation round-trip failed: %+v", v)
	}
	v, ok = got.get(0x010E)
	if !ok || v.Text != "hello" {
		t.Fatalf("ImageDescription round-trip failed: %+v", v)
	}
	v, ok = got.get(0x010F)
	if !ok || v.Text != "ACME" {
		t.Fatalf("Make round-trip failed: %+v", v)
	}
}

func TestExifPayloadRoundTripWithExifAndGPSSubIfd(t *testing.T) {
	root := newIfdNode(IFD0)
	exif := root.ensureSub(ExifIFD)
	exif.set(0x829A, rationalValue([]unsignedRational{{1, 250}})) // ExposureTime
	gps := root.ensureSub(GPSIFD)
	gps.set(0x0001, asciiValue("N")) // GPSLatitudeRef

	c := DefaultControl()
	payload, err := SerializeExifPayload(root, binary.BigEndian, c)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got, _, _, err := ParseExifPayload(payload, c)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	gotExif := got.sub(ExifIFD)
	if gotExif == nil {
		t.Fatal("ExifIFD sub-node missing after round trip")
	}
	v, ok := gotExif.get(0x829A)
	if !ok || v.Rationals[0].Numerator != 1 || v.Rationals[0].Denominator != 250 {
		t.Fatalf("ExposureTime round-trip failed: %+v", v)
	}
	gotGPS := got.sub(GPSIFD)
	if gotGPS == nil {
		t.Fatal("GPSIFD sub-node missing after round trip")
	}
	v, ok = gotGPS.get(0x0001)
	if !ok || v.Text != "N" {
		t.Fatalf("GPSLatitudeRef round-trip failed: %+v", v)
	}
}

func TestParseTIFFRejectsBadMagic(t *testing.T) {
	data := []byte{'I', 'I', 0x00, 0x00, 0, 0, 0, 8}
	if _, _, _, err := ParseTIFF(data, nil); err == nil {
		t.Fatal("expected error for bad tiff magic")
	}
}

func TestParseExifPayloadRequiresSignature(t *testing.T) {
	if _, _, _, err := ParseExifPayload([]byte("notexif"), nil); err == nil {
		t.Fatal("expected error for missing Exif signature")
	}
}
