package eximg

import (
	"bytes"
	"testing"
)

func TestMetadataSetAndWriteToPNGBuffer(t *testing.T) {
	m := NewMetadata()
	m.SetTag(Model("TestCam"))
	m.SetTag(Orientation(1))
	m.SetTag(ExposureTime(1, 200))

	png := buildMinimalPNG(nil)
	out, err := m.WriteToBuffer(png, ContainerPNG)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadMetadataFromBuffer(out, ContainerPNG, nil)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	v, ok := got.GetTag(IFD0, 0x0110)
	if !ok || v.Text != "TestCam" {
		t.Fatalf("Model round trip failed: %+v", v)
	}
	v, ok = got.GetTag(ExifIFD, 0x829A)
	if !ok || v.Rationals[0].Numerator != 1 || v.Rationals[0].Denominator != 200 {
		t.Fatalf("ExposureTime round trip failed: %+v", v)
	}
}

func TestMetadataReadMissingPayloadIsEmptyNotError(t *testing.T) {
	png := buildMinimalPNG(nil)
	m, err := ReadMetadataFromBuffer(png, ContainerPNG, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.GetTag(IFD0, 0x0110); ok {
		t.Fatal("expected no Model tag in empty metadata")
	}
}

func TestMetadataThumbnailRoundTrip(t *testing.T) {
	m := NewMetadata()
	thumb := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	m.SetThumbnail(thumb)

	png := buildMinimalPNG(nil)
	out, err := m.WriteToBuffer(png, ContainerPNG)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadMetadataFromBuffer(out, ContainerPNG, nil)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	thumbOut, ok := got.Thumbnail()
	if !ok || !bytes.Equal(thumbOut, thumb) {
		t.Fatalf("thumbnail round trip failed: got %v ok %v", thumbOut, ok)
	}
}
