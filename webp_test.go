package eximg

import (
	"bytes"
	"testing"
)

func buildMinimalWebP(vp8xFlags byte, exif []byte) []byte {
	var body []byte
	body = append(body, encodeWebPChunk("VP8X", []byte{vp8xFlags, 0, 0, 0, 9, 0, 0, 6, 0, 0})...)
	body = append(body, encodeWebPChunk("VP8 ", []byte{0, 1, 2, 3})...)
	if exif != nil {
		body = append(body, encodeWebPChunk("EXIF", exif)...)
	}
	out := make([]byte, 12+len(body))
	copy(out[:4], "RIFF")
	copy(out[8:12], "WEBP")
	copy(out[12:], body)
	le := uint32(4 + len(body))
	out[4] = byte(le)
	out[5] = byte(le >> 8)
	out[6] = byte(le >> 16)
	out[7] = byte(le >> 24)
	return out
}

func TestWebPExtractEXIF(t *testing.T) {
	payload := []byte{'I', 'I', 0x2a, 0x00, 8, 0, 0, 0}
	webp := buildMinimalWebP(0x08, payload)
	got, ok, _, err := webpAdapter{}.Extract(webp)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("got %v ok %v, want %v", got, ok, payload)
	}
}

func TestWebPReplaceSetsExifFlagBit(t *testing.T) {
	webp := buildMinimalWebP(0x00, nil)
	payload := []byte{'M', 'M', 0x00, 0x2a, 0, 0, 0, 8}
	out, err := webpAdapter{}.Replace(webp, payload)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	chunks, err := walkWebPChunks(out)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if chunks[0].fourcc != "VP8X" || chunks[0].data[0]&webpVP8XFlagExif == 0 {
		t.Fatalf("VP8X EXIF flag bit not set: %+v", chunks[0])
	}
	got, ok, _, err := webpAdapter{}.Extract(out)
	if err != nil || !ok || !bytes.Equal(got, payload) {
		t.Fatalf("round trip failed: got %v ok %v err %v", got, ok, err)
	}
}

func TestWebPReplaceRejectsSimpleFormat(t *testing.T) {
	var body []byte
	body = append(body, encodeWebPChunk("VP8 ", []byte{0, 1, 2, 3})...)
	out := make([]byte, 12+len(body))
	copy(out[:4], "RIFF")
	copy(out[8:12], "WEBP")
	copy(out[12:], body)
	le := uint32(4 + len(body))
	out[4], out[5], out[6], out[7] = byte(le), byte(le>>8), byte(le>>16), byte(le>>24)

	_, err := webpAdapter{}.Replace(out, []byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected UnsupportedContainer error for simple lossy form")
	}
	if e, ok := err.(*Error); !ok || e.Kind != UnsupportedContainer {
		t.Fatalf("expected UnsupportedContainer, got %v", err)
	}
}
