package eximg

import "encoding/binary"

// isobmffBox is one size|type|[version+flags]|data record of the ISO
// Base Media File Format box structure shared by HEIF/HEIC and the
// ISOBMFF form of JPEG XL, grounded on
// original_source/src/heif/box_header.rs's BoxHeader/read_box_header
// (size==1 largesize extension, uuid usertype extension, fullbox
// version+flags for box types that carry them).
type isobmffBox struct {
	typ        string
	offset     int // offset of the size field
	headerSize int // bytes consumed by size+type+[largesize]+[version+flags]+[uuid]
	boxSize    int // total box size including header
	version    byte
	flags      [3]byte
	isFullbox  bool
	data       []byte // box payload, after the header
}

// fullboxTypes lists the box types this module ever reads or writes
// that carry a version+flags prefix (the set BoxType::extends_fullbox
// recognizes in the original for the boxes this adapter touches).
var fullboxTypes = map[string]bool{
	"meta": true,
	"iinf": true,
	"infe": true,
	"iloc": true,
	"pitm": true,
	"iref": true,
}

func readISOBMFFBox(buf []byte, offset int) (isobmffBox, error) {
	if offset+8 > len(buf) {
		return isobmffBox{}, newErrAt(Truncated, int64(offset), "isobmff box header truncated")
	}
	size := binary.BigEndian.Uint32(buf[offset:])
	typ := string(buf[offset+4 : offset+8])
	header := 8
	boxSize := int(size)

	if size == 1 {
		if offset+16 > len(buf) {
			return isobmffBox{}, newErrAt(Truncated, int64(offset), "isobmff largesize truncated")
		}
		boxSize = int(binary.BigEndian.Uint64(buf[offset+8:]))
		header += 8
	}

	b := isobmffBox{typ: typ, offset: offset}
	if fullboxTypes[typ] {
		if offset+header+4 > len(buf) {
			return isobmffBox{}, newErrAt(Truncated, int64(offset), "fullbox version/flags truncated")
		}
		b.isFullbox = true
		b.version = buf[offset+header]
		copy(b.flags[:], buf[offset+header+1:offset+header+4])
		header += 4
	}
	if typ == "uuid" {
		header += 16
	}
	if boxSize == 0 {
		boxSize = len(buf) - offset
	}
	if offset+boxSize > len(buf) || boxSize < header {
		return isobmffBox{}, newErrAt(Truncated, int64(offset), "isobmff box runs past end of buffer")
	}
	b.headerSize = header
	b.boxSize = boxSize
	b.data = buf[offset+header : offset+boxSize]
	return b, nil
}

func walkISOBMFFBoxes(buf []byte, start, end int) ([]isobmffBox, error) {
	var boxes []isobmffBox
	pos := start
	for pos+8 <= end {
		b, err := readISOBMFFBox(buf, pos)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
		pos += b.boxSize
	}
	return boxes, nil
}

func encodeISOBMFFBox(typ string, fullbox bool, version byte, flags [3]byte, data []byte) []byte {
	header := 8
	if fullbox {
		header += 4
	}
	out := make([]byte, header+len(data))
	binary.BigEndian.PutUint32(out, uint32(header+len(data)))
	copy(out[4:8], typ)
	if fullbox {
		out[8] = version
		copy(out[9:12], flags[:])
	}
	copy(out[header:], data)
	return out
}
