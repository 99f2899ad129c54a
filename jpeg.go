package eximg

import "encoding/binary"

const (
	jpegSOI  = 0xD8
	jpegAPP1 = 0xE1
	jpegAPP2 = 0xE2
	jpegAPP12 = 0xEC
	jpegAPP13 = 0xED
	jpegSOS  = 0xDA
)

// jpegSegment is one marker|length|payload record, generalizing the
// original's jpg.rs byte-scanning into a structured walk.
type jpegSegment struct {
	marker byte
	offset int // offset of the 0xFF marker byte
	total  int // 2 (marker) + 2 (length, if present) + payload
	hasLen bool
	data   []byte // payload after the 2-byte length field, when hasLen
}

// standalone markers carry no length/payload (TEM and RSTn/SOI/EOI).
func jpegMarkerHasPayload(m byte) bool {
	return !(m == 0x01 || (m >= 0xD0 && m <= 0xD9))
}

func walkJPEGSegments(buf []byte) ([]jpegSegment, error) {
	if len(buf) < 2 || buf[0] != 0xFF || buf[1] != jpegSOI {
		return nil, newErr(BadMagic, "missing jpeg SOI marker")
	}
	var segs []jpegSegment
	segs = append(segs, jpegSegment{marker: jpegSOI, offset: 0, total: 2})
	pos := 2
	for pos+1 < len(buf) {
		if buf[pos] != 0xFF {
			return nil, newErrAt(BadMagic, int64(pos), "expected jpeg marker")
		}
		marker := buf[pos+1]
		if marker == jpegSOS {
			// entropy-coded data follows; nothing left for this adapter
			segs = append(segs, jpegSegment{marker: marker, offset: pos, total: len(buf) - pos})
			break
		}
		if !jpegMarkerHasPayload(marker) {
			segs = append(segs, jpegSegment{marker: marker, offset: pos, total: 2})
			pos += 2
			continue
		}
		if pos+4 > len(buf) {
			return nil, newErrAt(Truncated, int64(pos), "jpeg segment length truncated")
		}
		length := int(binary.BigEndian.Uint16(buf[pos+2:]))
		if length < 2 || pos+2+length > len(buf) {
			return nil, newErrAt(Truncated, int64(pos), "jpeg segment runs past end of buffer")
		}
		segs = append(segs, jpegSegment{
			marker: marker,
			offset: pos,
			total:  2 + length,
			hasLen: true,
			data:   buf[pos+4 : pos+2+length],
		})
		pos += 2 + length
	}
	return segs, nil
}

func isAPP1Exif(data []byte) bool {
	return len(data) >= len(exifSignature) &&
		string(data[:len(exifSignature)]) == string(exifSignature[:])
}

type jpegAdapter struct{}

func (jpegAdapter) Extract(buf []byte) ([]byte, bool, []Warning, error) {
	segs, err := walkJPEGSegments(buf)
	if err != nil {
		return nil, false, nil, err
	}
	for _, s := range segs {
		if s.marker == jpegAPP1 && isAPP1Exif(s.data) {
			return append([]byte(nil), s.data...), true, nil, nil
		}
	}
	return nil, false, nil, nil
}

func (jpegAdapter) Remove(buf []byte) ([]byte, error) {
	return jpegAdapter{}.removeMarkers(buf, func(s jpegSegment) bool {
		return s.marker == jpegAPP1 && isAPP1Exif(s.data)
	})
}

// ClearAPPSegment drops every segment carrying the given marker
// (jpegAPP12 or jpegAPP13 for the supplemented feature grounded on the
// original's clear_app12_segment/clear_app13_segment, jpg.rs).
func (jpegAdapter) ClearAPPSegment(buf []byte, marker byte) ([]byte, error) {
	return jpegAdapter{}.removeMarkers(buf, func(s jpegSegment) bool {
		return s.marker == marker
	})
}

func (jpegAdapter) removeMarkers(buf []byte, drop func(jpegSegment) bool) ([]byte, error) {
	segs, err := walkJPEGSegments(buf)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(buf))
	for _, s := range segs {
		if drop(s) {
			continue
		}
		out = append(out, buf[s.offset:s.offset+s.total]...)
	}
	return out, nil
}

// Replace inserts or overwrites the APP1 Exif segment immediately
// after SOI, the position JPEG viewers and original_source/src/jpg.rs
// both expect it at (the earliest point other APPn segments, if any,
// still follow a predictable order).
func (jpegAdapter) Replace(buf []byte, payload []byte) ([]byte, error) {
	if len(payload)+2 > 0xFFFF {
		return nil, newErr(PayloadTooLarge, "exif payload exceeds jpeg APP1 65533-byte limit")
	}
	stripped, err := jpegAdapter{}.Remove(buf)
	if err != nil {
		return nil, err
	}
	segs, err := walkJPEGSegments(stripped)
	if err != nil {
		return nil, err
	}
	segLen := len(payload) + 2
	newSeg := make([]byte, 0, 4+len(payload))
	newSeg = append(newSeg, 0xFF, jpegAPP1)
	newSeg = append(newSeg, byte(segLen>>8), byte(segLen))
	newSeg = append(newSeg, payload...)

	out := append([]byte(nil), stripped[segs[0].offset:segs[0].offset+segs[0].total]...)
	out = append(out, newSeg...)
	for _, s := range segs[1:] {
		out = append(out, stripped[s.offset:s.offset+s.total]...)
	}
	return out, nil
}
