package eximg

import "encoding/binary"

// cursor is the Endian Cursor component: a bounds-checked view over the
// whole TIFF stream (starting at the 8-byte TIFF header, addressed by
// offsets relative to the start of that header as the teacher's ifdd/Desc pair
// does via Desc.data/Desc.origin) plus the byte order discovered from
// the "II"/"MM" mark. All multi-byte reads and writes go through it so
// endianness is never hard-coded anywhere else in the codec.
type cursor struct {
	data  []byte
	order binary.ByteOrder
}

func newCursor(data []byte, order binary.ByteOrder) *cursor {
	return &cursor{data: data, order: order}
}

func (c *cursor) len() int { return len(c.data) }

func (c *cursor) inBounds(offset, size uint32) bool {
	if size == 0 {
		return offset <= uint32(len(c.data))
	}
	end := uint64(offset) + uint64(size)
	return end <= uint64(len(c.data))
}

func (c *cursor) require(offset, size uint32) error {
	if !c.inBounds(offset, size) {
		return newErrAt(Truncated, int64(offset),
			"read past end of tiff data area")
	}
	return nil
}

func (c *cursor) byte(offset uint32) (byte, error) {
	if err := c.require(offset, 1); err != nil {
		return 0, err
	}
	return c.data[offset], nil
}

func (c *cursor) bytes(offset, count uint32) ([]byte, error) {
	if err := c.require(offset, count); err != nil {
		return nil, err
	}
	return c.data[offset : offset+count], nil
}

func (c *cursor) u16(offset uint32) (uint16, error) {
	if err := c.require(offset, 2); err != nil {
		return 0, err
	}
	return c.order.Uint16(c.data[offset:]), nil
}

func (c *cursor) u32(offset uint32) (uint32, error) {
	if err := c.require(offset, 4); err != nil {
		return 0, err
	}
	return c.order.Uint32(c.data[offset:]), nil
}

func (c *cursor) u64(offset uint32) (uint64, error) {
	if err := c.require(offset, 8); err != nil {
		return 0, err
	}
	return c.order.Uint64(c.data[offset:]), nil
}

func (c *cursor) i16(offset uint32) (int16, error) {
	v, err := c.u16(offset)
	return int16(v), err
}

func (c *cursor) i32(offset uint32) (int32, error) {
	v, err := c.u32(offset)
	return int32(v), err
}

func (c *cursor) rational(offset uint32) (unsignedRational, error) {
	n, err := c.u32(offset)
	if err != nil {
		return unsignedRational{}, err
	}
	d, err := c.u32(offset + 4)
	if err != nil {
		return unsignedRational{}, err
	}
	return unsignedRational{Numerator: n, Denominator: d}, nil
}

func (c *cursor) signedRational(offset uint32) (signedRational, error) {
	n, err := c.i32(offset)
	if err != nil {
		return signedRational{}, err
	}
	d, err := c.i32(offset + 4)
	if err != nil {
		return signedRational{}, err
	}
	return signedRational{Numerator: n, Denominator: d}, nil
}

// putU16/putU32 are the serialize-side counterparts used while writing
// fixed-size fields into a pre-sized byte slice (the data area being
// assembled by the codec's layout pass).
func putU16(buf []byte, order binary.ByteOrder, v uint16) {
	order.PutUint16(buf, v)
}

func putU32(buf []byte, order binary.ByteOrder, v uint32) {
	order.PutUint32(buf, v)
}
