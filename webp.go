package eximg

import "encoding/binary"

var (
	webpRIFF = [4]byte{'R', 'I', 'F', 'F'}
	webpWEBP = [4]byte{'W', 'E', 'B', 'P'}
)

const (
	webpVP8XFlagExif = 0x08 // bit position per the VP8X flags byte layout
)

// webpChunk is one fourcc|size|data[|pad] record, grounded on
// original_source/src/webp.rs's get_next_chunk_descriptor.
type webpChunk struct {
	fourcc string
	offset int // offset of the fourcc field
	total  int // fourcc(4)+size(4)+data+pad
	data   []byte
}

func walkWebPChunks(buf []byte) ([]webpChunk, error) {
	if len(buf) < 12 || string(buf[:4]) != string(webpRIFF[:]) || string(buf[8:12]) != string(webpWEBP[:]) {
		return nil, newErr(BadMagic, "missing RIFF/WEBP signature")
	}
	var chunks []webpChunk
	pos := 12
	for pos+8 <= len(buf) {
		fourcc := string(buf[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(buf[pos+4:]))
		dataStart := pos + 8
		dataEnd := dataStart + size
		if dataEnd > len(buf) {
			return nil, newErrAt(Truncated, int64(pos), "webp chunk runs past end of buffer")
		}
		total := 8 + size
		if size%2 != 0 {
			total++
		}
		chunks = append(chunks, webpChunk{
			fourcc: fourcc, offset: pos, total: total, data: buf[dataStart:dataEnd],
		})
		pos += total
	}
	return chunks, nil
}

func encodeWebPChunk(fourcc string, data []byte) []byte {
	padded := len(data)%2 != 0
	size := len(data)
	total := 8 + size
	if padded {
		total++
	}
	out := make([]byte, total)
	copy(out[:4], fourcc)
	binary.LittleEndian.PutUint32(out[4:], uint32(size))
	copy(out[8:], data)
	return out
}

type webpAdapter struct{}

func (webpAdapter) Extract(buf []byte) ([]byte, bool, []Warning, error) {
	chunks, err := walkWebPChunks(buf)
	if err != nil {
		return nil, false, nil, err
	}
	for _, c := range chunks {
		if c.fourcc == "EXIF" {
			return append([]byte(nil), c.data...), true, nil, nil
		}
	}
	return nil, false, nil, nil
}

func (webpAdapter) Remove(buf []byte) ([]byte, error) {
	chunks, err := walkWebPChunks(buf)
	if err != nil {
		return nil, err
	}
	exifIdx := -1
	for i, c := range chunks {
		if c.fourcc == "EXIF" {
			exifIdx = i
			break
		}
	}
	return rebuildWebP(chunks, exifIdx, -1, nil)
}

// Replace requires an extended-format (VP8X first chunk) file: the
// simple lossy "VP8 " form has no room for metadata chunks and
// synthesizing a VP8X header would require decoding the bitstream's
// canvas dimensions, which is out of scope (no pixel decoding).
func (webpAdapter) Replace(buf []byte, payload []byte) ([]byte, error) {
	chunks, err := walkWebPChunks(buf)
	if err != nil {
		return nil, err
	}
	vp8xIdx := -1
	xmpIdx := -1
	exifIdx := -1
	for i, c := range chunks {
		switch c.fourcc {
		case "VP8X":
			vp8xIdx = i
		case "XMP ":
			if xmpIdx < 0 {
				xmpIdx = i
			}
		case "EXIF":
			exifIdx = i
		}
	}
	if vp8xIdx < 0 {
		return nil, newErr(UnsupportedContainer,
			"webp file has no VP8X header; simple lossy VP8 form cannot carry Exif")
	}
	flags := append([]byte(nil), chunks[vp8xIdx].data...)
	if len(flags) < 1 {
		return nil, newErr(HeifStructureInvalid, "VP8X chunk has no flags byte")
	}
	flags[0] |= webpVP8XFlagExif
	chunks[vp8xIdx].data = flags

	insertBefore := xmpIdx
	if exifIdx >= 0 {
		insertBefore = exifIdx
	}
	return rebuildWebP(chunks, exifIdx, insertBefore, payload)
}

// rebuildWebP re-serializes the chunk list, dropping the chunk at
// removeIdx (if >=0) and inserting a new EXIF chunk with the given
// payload immediately before insertBefore (if payload != nil),
// recomputing the RIFF size field.
func rebuildWebP(chunks []webpChunk, removeIdx, insertBefore int, payload []byte) ([]byte, error) {
	var body []byte
	newExif := []byte(nil)
	if payload != nil {
		newExif = encodeWebPChunk("EXIF", payload)
	}
	for i, c := range chunks {
		if i == removeIdx {
			continue
		}
		if i == insertBefore && newExif != nil {
			body = append(body, newExif...)
			newExif = nil // only insert once
		}
		body = append(body, encodeWebPChunk(c.fourcc, c.data)...)
	}
	if newExif != nil {
		body = append(body, newExif...)
	}

	out := make([]byte, 12+len(body))
	copy(out[:4], webpRIFF[:])
	binary.LittleEndian.PutUint32(out[4:], uint32(4+len(body)))
	copy(out[8:12], webpWEBP[:])
	copy(out[12:], body)
	return out, nil
}
