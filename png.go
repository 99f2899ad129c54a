package eximg

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"io"
)

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

const (
	pngChunkEXIf = "eXIf"
	pngChunkZTXt = "zTXt"
	pngChunkIEND = "IEND"
)

// pngZTXtKeyword is the legacy ImageMagick convention for smuggling
// Exif bytes through a zTXt text chunk, predating the eXIf chunk type
// that PNG later standardized - grounded on original_source/src/png.rs's
// encode_metadata_png/decode_metadata_png hex-envelope routines.
const pngZTXtKeyword = "Raw profile type exif"

// pngChunk is one length|type|data|crc record (gomantics-imx/png.go's
// chunk-walk loop generalized into a reusable struct with an offset so
// Replace/Remove can patch the buffer in place).
type pngChunk struct {
	typ    string
	data   []byte
	offset int // offset of the length field
	total  int // length(4)+type(4)+data+crc(4)
	crcOK  bool
}

// walkPNGChunks walks every chunk and recomputes each one's CRC-32
// over type||data, comparing it against the trailing stored CRC field;
// a mismatch is recorded on the chunk rather than failing the walk,
// matching spec.md's "CrcMismatch is a warning only; parsing continues."
func walkPNGChunks(buf []byte) ([]pngChunk, error) {
	if len(buf) < len(pngSignature) {
		return nil, newErr(Truncated, "png shorter than signature")
	}
	for i, b := range pngSignature {
		if buf[i] != b {
			return nil, newErr(BadMagic, "missing png signature")
		}
	}
	var chunks []pngChunk
	pos := len(pngSignature)
	for pos+8 <= len(buf) {
		length := binary.BigEndian.Uint32(buf[pos:])
		typ := string(buf[pos+4 : pos+8])
		dataStart := pos + 8
		dataEnd := dataStart + int(length)
		if dataEnd+4 > len(buf) {
			return nil, newErrAt(Truncated, int64(pos), "png chunk runs past end of buffer")
		}
		data := buf[dataStart:dataEnd]
		storedCRC := binary.BigEndian.Uint32(buf[dataEnd:])
		chunk := pngChunk{
			typ:    typ,
			data:   data,
			offset: pos,
			total:  8 + int(length) + 4,
			crcOK:  storedCRC == pngChecksum(typ, data),
		}
		chunks = append(chunks, chunk)
		if typ == pngChunkIEND {
			break
		}
		pos = dataEnd + 4
	}
	return chunks, nil
}

func pngChecksum(typ string, data []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte(typ))
	h.Write(data)
	return h.Sum32()
}

func encodePNGChunk(typ string, data []byte) []byte {
	out := make([]byte, 8+len(data)+4)
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:8], typ)
	copy(out[8:], data)
	binary.BigEndian.PutUint32(out[8+len(data):], pngChecksum(typ, data))
	return out
}

type pngAdapter struct{}

func (pngAdapter) Extract(buf []byte) ([]byte, bool, []Warning, error) {
	chunks, err := walkPNGChunks(buf)
	if err != nil {
		return nil, false, nil, err
	}
	var warnings []Warning
	for _, ch := range chunks {
		if !ch.crcOK {
			warnings = append(warnings, Warning{CrcMismatch, "png chunk " + ch.typ + " failed CRC-32 check"})
		}
	}
	for _, ch := range chunks {
		if ch.typ == pngChunkEXIf {
			return append([]byte(nil), ch.data...), true, warnings, nil
		}
	}
	for _, ch := range chunks {
		if ch.typ == pngChunkZTXt {
			if payload, ok, err := decodeZTXtExif(ch.data); err == nil && ok {
				return payload, true, warnings, nil
			}
		}
	}
	return nil, false, warnings, nil
}

func (pngAdapter) Remove(buf []byte) ([]byte, error) {
	chunks, err := walkPNGChunks(buf)
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), buf[:len(pngSignature)]...)
	for _, ch := range chunks {
		if ch.typ == pngChunkEXIf {
			continue
		}
		if ch.typ == pngChunkZTXt {
			if _, ok, _ := decodeZTXtExif(ch.data); ok {
				continue
			}
		}
		out = append(out, buf[ch.offset:ch.offset+ch.total]...)
	}
	return out, nil
}

// Replace overwrites an existing eXIf (or legacy zTXt Exif) chunk in
// place, at its original position, dropping any further duplicates;
// when no such chunk exists, the new eXIf chunk is inserted immediately
// after IHDR, the position original_source/src/png.rs's
// generic_write_metadata computes from the IHDR chunk length.
func (pngAdapter) Replace(buf []byte, payload []byte) ([]byte, error) {
	chunks, err := walkPNGChunks(buf)
	if err != nil {
		return nil, err
	}
	newChunk := encodePNGChunk(pngChunkEXIf, payload)

	isExif := make([]bool, len(chunks))
	firstExif, ihdrIdx, iendIdx := -1, -1, -1
	for i, ch := range chunks {
		switch ch.typ {
		case "IHDR":
			ihdrIdx = i
		case pngChunkIEND:
			iendIdx = i
		case pngChunkEXIf:
			isExif[i] = true
		case pngChunkZTXt:
			if _, ok, _ := decodeZTXtExif(ch.data); ok {
				isExif[i] = true
			}
		}
		if isExif[i] && firstExif < 0 {
			firstExif = i
		}
	}

	insertAt := ihdrIdx + 1
	switch {
	case firstExif >= 0:
		insertAt = firstExif
	case ihdrIdx < 0:
		insertAt = iendIdx
		if insertAt < 0 {
			insertAt = len(chunks)
		}
	}

	out := append([]byte(nil), buf[:len(pngSignature)]...)
	inserted := false
	for i, ch := range chunks {
		if !inserted && i == insertAt {
			out = append(out, newChunk...)
			inserted = true
		}
		if isExif[i] {
			continue
		}
		out = append(out, buf[ch.offset:ch.offset+ch.total]...)
	}
	if !inserted {
		out = append(out, newChunk...)
	}
	return out, nil
}

// decodeZTXtExif decodes the legacy "Raw profile type exif" zTXt
// smuggling format: keyword\0 + compression-method(1) + zlib(text),
// where text is "\nexif\n<8-char length>\n<hex>\n".
func decodeZTXtExif(data []byte) ([]byte, bool, error) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 || string(data[:nul]) != pngZTXtKeyword {
		return nil, false, nil
	}
	rest := data[nul+1:]
	if len(rest) < 1 || rest[0] != 0 {
		return nil, false, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(rest[1:]))
	if err != nil {
		return nil, false, wrapErr(CrcMismatch, err, "zTXt zlib stream corrupt")
	}
	defer zr.Close()
	text, err := io.ReadAll(zr)
	if err != nil {
		return nil, false, wrapErr(CrcMismatch, err, "zTXt zlib stream truncated")
	}
	return decodeHexEnvelope(text)
}

func decodeHexEnvelope(text []byte) ([]byte, bool, error) {
	s := bytes.TrimSpace(text)
	lines := bytes.Split(s, []byte{'\n'})
	if len(lines) < 3 || string(lines[0]) != "exif" {
		return nil, false, nil
	}
	var hexBuf bytes.Buffer
	for _, l := range lines[2:] {
		hexBuf.Write(bytes.TrimSpace(l))
	}
	out, err := hex.DecodeString(hexBuf.String())
	if err != nil {
		return nil, false, nil
	}
	return out, true, nil
}
