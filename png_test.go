package eximg

import (
	"bytes"
	"testing"
)

func buildMinimalPNG(exif []byte) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature[:])
	buf.Write(encodePNGChunk("IHDR", make([]byte, 13)))
	if exif != nil {
		buf.Write(encodePNGChunk(pngChunkEXIf, exif))
	}
	buf.Write(encodePNGChunk(pngChunkIEND, nil))
	return buf.Bytes()
}

// buildPNGWithMiddleChunk inserts an unrelated chunk (e.g. IDAT) between
// IHDR and IEND, so "insert after IHDR" and "insert before IEND" land in
// different places and a test can tell them apart.
func buildPNGWithMiddleChunk(exif []byte) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature[:])
	buf.Write(encodePNGChunk("IHDR", make([]byte, 13)))
	if exif != nil {
		buf.Write(encodePNGChunk(pngChunkEXIf, exif))
	}
	buf.Write(encodePNGChunk("IDAT", []byte{1, 2, 3, 4}))
	buf.Write(encodePNGChunk(pngChunkIEND, nil))
	return buf.Bytes()
}

func TestPNGExtractEXIf(t *testing.T) {
	payload := []byte{'I', 'I', 0x2a, 0x00, 8, 0, 0, 0}
	png := buildMinimalPNG(payload)
	got, ok, warnings, err := pngAdapter{}.Extract(png)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !ok {
		t.Fatal("expected eXIf chunk to be found")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %v, want %v", got, payload)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings for a well-formed png, got %v", warnings)
	}
}

func TestPNGExtractMissing(t *testing.T) {
	png := buildMinimalPNG(nil)
	_, ok, _, err := pngAdapter{}.Extract(png)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if ok {
		t.Fatal("expected no eXIf chunk")
	}
}

func TestPNGExtractReportsCrcMismatch(t *testing.T) {
	png := buildMinimalPNG([]byte{'I', 'I', 0x2a, 0x00, 8, 0, 0, 0})
	// corrupt the eXIf chunk's stored CRC (last 4 bytes of the chunk
	// immediately preceding the trailing IEND chunk).
	iendTotal := 8 + 0 + 4
	crcOffset := len(png) - iendTotal - 4
	png[crcOffset] ^= 0xFF

	_, ok, warnings, err := pngAdapter{}.Extract(png)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !ok {
		t.Fatal("expected eXIf chunk to still be found despite crc mismatch")
	}
	if len(warnings) != 1 || warnings[0].Kind != CrcMismatch {
		t.Fatalf("expected one CrcMismatch warning, got %+v", warnings)
	}
}

func TestPNGReplaceInsertsAfterIHDR(t *testing.T) {
	png := buildPNGWithMiddleChunk(nil)
	payload := []byte{'M', 'M', 0x00, 0x2a, 0, 0, 0, 8}
	out, err := pngAdapter{}.Replace(png, payload)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	chunks, err := walkPNGChunks(out)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if chunks[0].typ != "IHDR" {
		t.Fatalf("expected IHDR first, got %s", chunks[0].typ)
	}
	if chunks[1].typ != pngChunkEXIf {
		t.Fatalf("expected eXIf chunk immediately after IHDR, got %s", chunks[1].typ)
	}
	if chunks[len(chunks)-1].typ != pngChunkIEND {
		t.Fatalf("IEND must remain last chunk, got %s", chunks[len(chunks)-1].typ)
	}
	got, ok, _, err := pngAdapter{}.Extract(out)
	if err != nil {
		t.Fatalf("extract after replace: %v", err)
	}
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("round trip through Replace failed: got %v ok %v", got, ok)
	}
}

func TestPNGReplaceOverwritesExistingInPlace(t *testing.T) {
	png := buildPNGWithMiddleChunk([]byte{'I', 'I', 0x2a, 0x00, 8, 0, 0, 0})
	payload := []byte{'M', 'M', 0x00, 0x2a, 0, 0, 0, 8}
	out, err := pngAdapter{}.Replace(png, payload)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	chunks, err := walkPNGChunks(out)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	// the original had IHDR, eXIf, IDAT, IEND in that order - the eXIf
	// chunk must be overwritten in place, not relocated before IEND.
	if chunks[0].typ != "IHDR" || chunks[1].typ != pngChunkEXIf || chunks[2].typ != "IDAT" || chunks[3].typ != pngChunkIEND {
		t.Fatalf("expected IHDR,eXIf,IDAT,IEND order preserved, got %v", chunkTypes(chunks))
	}
	count := 0
	for _, c := range chunks {
		if c.typ == pngChunkEXIf {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one eXIf chunk, got %d", count)
	}
}

func chunkTypes(chunks []pngChunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.typ
	}
	return out
}
