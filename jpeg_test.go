package eximg

import (
	"bytes"
	"testing"
)

func buildMinimalJPEG(exif []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, jpegSOI})
	if exif != nil {
		seg := make([]byte, 0, 4+len(exif))
		length := len(exif) + 2
		seg = append(seg, 0xFF, jpegAPP1, byte(length>>8), byte(length))
		seg = append(seg, exif...)
		buf.Write(seg)
	}
	// minimal SOS + one byte of fake entropy data
	buf.Write([]byte{0xFF, jpegSOS, 0x00, 0x02, 0x01})
	return buf.Bytes()
}

func exifPayloadFixture() []byte {
	return append(append([]byte{}, exifSignature[:]...), 'I', 'I', 0x2a, 0x00, 8, 0, 0, 0)
}

func TestJPEGExtractAPP1Exif(t *testing.T) {
	payload := exifPayloadFixture()
	jpg := buildMinimalJPEG(payload)
	got, ok, _, err := jpegAdapter{}.Extract(jpg)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("got %v ok %v, want %v", got, ok, payload)
	}
}

func TestJPEGReplaceInsertsAfterSOI(t *testing.T) {
	jpg := buildMinimalJPEG(nil)
	payload := exifPayloadFixture()
	out, err := jpegAdapter{}.Replace(jpg, payload)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if out[0] != 0xFF || out[1] != jpegSOI {
		t.Fatalf("SOI must remain first, got %x %x", out[0], out[1])
	}
	if out[2] != 0xFF || out[3] != jpegAPP1 {
		t.Fatalf("APP1 must follow SOI immediately, got %x %x", out[2], out[3])
	}
	got, ok, _, err := jpegAdapter{}.Extract(out)
	if err != nil || !ok || !bytes.Equal(got, payload) {
		t.Fatalf("round trip failed: got %v ok %v err %v", got, ok, err)
	}
}

func TestJPEGReplaceOverwritesExisting(t *testing.T) {
	jpg := buildMinimalJPEG(exifPayloadFixture())
	newPayload := append(exifPayloadFixture(), 0xAA)
	out, err := jpegAdapter{}.Replace(jpg, newPayload)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	segs, err := walkJPEGSegments(out)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	count := 0
	for _, s := range segs {
		if s.marker == jpegAPP1 && isAPP1Exif(s.data) {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one Exif APP1 segment, got %d", count)
	}
}
