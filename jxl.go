package eximg

import "encoding/binary"

// isoBMFFJXLSignature is the 12-byte signature box
// ("JXL " box carrying the 4-byte magic 0x0D0A870A), grounded on
// original_source/src/jxl.rs's ISO_BMFF_JXL_SIGNATURE.
var isoBMFFJXLSignature = [12]byte{
	0x00, 0x00, 0x00, 0x0C, 'J', 'X', 'L', ' ', 0x0D, 0x0A, 0x87, 0x0A,
}

var rawJXLSignature = [2]byte{0xFF, 0x0A}

func isISOBMFFJXL(buf []byte) bool {
	return len(buf) >= 12 && string(buf[:12]) == string(isoBMFFJXLSignature[:])
}

func isRawJXL(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == rawJXLSignature[0] && buf[1] == rawJXLSignature[1]
}

type jxlAdapter struct{}

func (jxlAdapter) Extract(buf []byte) ([]byte, bool, []Warning, error) {
	if isRawJXL(buf) {
		return nil, false, nil, newErr(UnsupportedContainer,
			"raw jxl codestream has no box structure to carry Exif")
	}
	if !isISOBMFFJXL(buf) {
		return nil, false, nil, newErr(BadMagic, "missing jxl ISOBMFF signature box")
	}
	boxes, err := walkISOBMFFBoxes(buf, 0, len(buf))
	if err != nil {
		return nil, false, nil, err
	}
	for _, b := range boxes {
		if b.typ == "Exif" {
			if len(b.data) < 4 {
				return nil, false, nil, newErrAt(Truncated, int64(b.offset), "jxl Exif box truncated")
			}
			tiffOffset := binary.BigEndian.Uint32(b.data[:4])
			payload := b.data[4+tiffOffset:]
			return append([]byte(nil), payload...), true, nil, nil
		}
	}
	return nil, false, nil, nil
}

func (jxlAdapter) Remove(buf []byte) ([]byte, error) {
	if !isISOBMFFJXL(buf) {
		return nil, newErr(BadMagic, "missing jxl ISOBMFF signature box")
	}
	boxes, err := walkISOBMFFBoxes(buf, 0, len(buf))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(buf))
	for _, b := range boxes {
		if b.typ == "Exif" {
			continue
		}
		out = append(out, buf[b.offset:b.offset+b.boxSize]...)
	}
	return out, nil
}

// Replace drops any existing Exif box and places the new one
// immediately after the signature and file-type boxes (box order among
// ISOBMFF JXL's optional metadata boxes is not itself constrained by
// the spec), which is always valid per the JXL ISOBMFF container spec.
func (jxlAdapter) Replace(buf []byte, payload []byte) ([]byte, error) {
	stripped, err := jxlAdapter{}.Remove(buf)
	if err != nil {
		return nil, err
	}
	boxes, err := walkISOBMFFBoxes(stripped, 0, len(stripped))
	if err != nil {
		return nil, err
	}
	insertAfter := 0
	for i, b := range boxes {
		if b.typ == "JXL " || b.typ == "ftyp" {
			insertAfter = i + 1
		}
	}
	exifData := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(exifData, 0)
	copy(exifData[4:], payload)
	newBox := encodeISOBMFFBox("Exif", false, 0, [3]byte{}, exifData)

	out := make([]byte, 0, len(stripped)+len(newBox))
	for i, b := range boxes {
		out = append(out, stripped[b.offset:b.offset+b.boxSize]...)
		if i+1 == insertAfter {
			out = append(out, newBox...)
		}
	}
	if insertAfter == 0 {
		out = append(newBox, out...)
	}
	return out, nil
}
