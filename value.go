package eximg

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type is a TIFF field type code (IFD entry bytes 2-3), matching the
// twelve values the TIFF 6.0 / Exif 2.3 specs define.
type Type uint16

const (
	TypeByte      Type = 1
	TypeASCII     Type = 2
	TypeShort     Type = 3
	TypeLong      Type = 4
	TypeRational  Type = 5
	TypeSByte     Type = 6
	TypeUndefined Type = 7
	TypeSShort    Type = 8
	TypeSLong     Type = 9
	TypeSRational Type = 10
	TypeFloat     Type = 11
	TypeDouble    Type = 12
)

// typeSizes gives the per-component byte size of each TIFF type, used
// both to validate a decoded entry's declared size and to compute the
// inline-vs-offset placement during serialization.
var typeSizes = map[Type]uint32{
	TypeByte:      1,
	TypeASCII:     1,
	TypeShort:     2,
	TypeLong:      4,
	TypeRational:  8,
	TypeSByte:     1,
	TypeUndefined: 1,
	TypeSShort:    2,
	TypeSLong:     4,
	TypeSRational: 8,
	TypeFloat:     4,
	TypeDouble:    8,
}

func (t Type) componentSize() uint32 {
	if s, ok := typeSizes[t]; ok {
		return s
	}
	return 0
}

func (t Type) String() string {
	switch t {
	case TypeByte:
		return "BYTE"
	case TypeASCII:
		return "ASCII"
	case TypeShort:
		return "SHORT"
	case TypeLong:
		return "LONG"
	case TypeRational:
		return "RATIONAL"
	case TypeSByte:
		return "SBYTE"
	case TypeUndefined:
		return "UNDEFINED"
	case TypeSShort:
		return "SSHORT"
	case TypeSLong:
		return "SLONG"
	case TypeSRational:
		return "SRATIONAL"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	default:
		return fmt.Sprintf("TYPE(%d)", uint16(t))
	}
}

// unsignedRational and signedRational mirror the teacher's values.go
// structs; RATIONAL/SRATIONAL entries are a pair of LONG/SLONG values.
type unsignedRational struct {
	Numerator   uint32
	Denominator uint32
}

func (r unsignedRational) Float() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

type signedRational struct {
	Numerator   int32
	Denominator int32
}

func (r signedRational) Float() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

// Rational is the public, exported counterpart used by taxonomy
// constructors (e.g. GPSLatitude) so callers never touch the
// internal unsignedRational/signedRational pair directly.
type Rational struct {
	Numerator, Denominator uint32
}

// SRational is the signed public counterpart of Rational.
type SRational struct {
	Numerator, Denominator int32
}

// Value is the decoded, typed payload of one IFD entry: a Go-native
// representation of one of the twelve TIFF types, generalizing the
// teacher's per-type value structs (unsignedByteValue, ifdValue, ...)
// into a single tagged union so the codec and façade can move values
// around without a parse-time switch at every call site.
type Value struct {
	Type  Type
	Bytes []uint8            // TypeByte, TypeUndefined
	Text  string             // TypeASCII (decoded, NUL stripped)
	SBytes []int8            // TypeSByte
	Shorts []uint16          // TypeShort
	SShorts []int16          // TypeSShort
	Longs []uint32           // TypeLong
	SLongs []int32           // TypeSLong
	Rationals []unsignedRational
	SRationals []signedRational
	Floats []float32
	Doubles []float64

	// ifd is not populated by the codec: sub-IFDs are linked through
	// ifdNode.subs and a MakerNote is kept as an UNDEFINED byte value,
	// so values returned through the public façade never carry it.
	ifd *ifdNode
}

func (v Value) count() uint32 {
	switch v.Type {
	case TypeASCII:
		return uint32(len(v.Text)) + 1
	case TypeByte, TypeUndefined:
		return uint32(len(v.Bytes))
	case TypeSByte:
		return uint32(len(v.SBytes))
	case TypeShort:
		return uint32(len(v.Shorts))
	case TypeSShort:
		return uint32(len(v.SShorts))
	case TypeLong:
		return uint32(len(v.Longs))
	case TypeSLong:
		return uint32(len(v.SLongs))
	case TypeRational:
		return uint32(len(v.Rationals))
	case TypeSRational:
		return uint32(len(v.SRationals))
	case TypeFloat:
		return uint32(len(v.Floats))
	case TypeDouble:
		return uint32(len(v.Doubles))
	default:
		return 0
	}
}

// byteSize is the total on-disk size of the value's data, used to
// decide inline-vs-offset placement (<=4 bytes inline, per spec).
func (v Value) byteSize() uint32 {
	return v.count() * v.Type.componentSize()
}

func byteValue(b []uint8) Value      { return Value{Type: TypeByte, Bytes: b} }
func undefinedValue(b []uint8) Value { return Value{Type: TypeUndefined, Bytes: b} }
func asciiValue(s string) Value      { return Value{Type: TypeASCII, Text: s} }
func sbyteValue(b []int8) Value      { return Value{Type: TypeSByte, SBytes: b} }
func shortValue(s []uint16) Value    { return Value{Type: TypeShort, Shorts: s} }
func sshortValue(s []int16) Value    { return Value{Type: TypeSShort, SShorts: s} }
func longValue(l []uint32) Value     { return Value{Type: TypeLong, Longs: l} }
func slongValue(l []int32) Value     { return Value{Type: TypeSLong, SLongs: l} }
func rationalValue(r []unsignedRational) Value {
	return Value{Type: TypeRational, Rationals: r}
}
func srationalValue(r []signedRational) Value {
	return Value{Type: TypeSRational, SRationals: r}
}
func floatValue(f []float32) Value  { return Value{Type: TypeFloat, Floats: f} }
func doubleValue(d []float64) Value { return Value{Type: TypeDouble, Doubles: d} }

// decodeValue reads count components of the given type starting at
// dataOffset (already resolved to either the inline 4-byte slot or the
// external data area, per the inline rule) using the cursor's byte
// order. It mirrors the teacher's getUnsigned*/getSigned* family in
// values.go, generalized to dispatch on Type instead of one function
// per type.
func decodeValue(c *cursor, t Type, count, dataOffset uint32) (Value, error) {
	switch t {
	case TypeByte:
		b, err := c.bytes(dataOffset, count)
		if err != nil {
			return Value{}, err
		}
		cp := append([]uint8(nil), b...)
		return byteValue(cp), nil
	case TypeUndefined:
		b, err := c.bytes(dataOffset, count)
		if err != nil {
			return Value{}, err
		}
		cp := append([]uint8(nil), b...)
		return undefinedValue(cp), nil
	case TypeASCII:
		b, err := c.bytes(dataOffset, count)
		if err != nil {
			return Value{}, err
		}
		s := string(b)
		for len(s) > 0 && s[len(s)-1] == 0 {
			s = s[:len(s)-1]
		}
		return asciiValue(s), nil
	case TypeSByte:
		b, err := c.bytes(dataOffset, count)
		if err != nil {
			return Value{}, err
		}
		out := make([]int8, count)
		for i, v := range b {
			out[i] = int8(v)
		}
		return sbyteValue(out), nil
	case TypeShort:
		out := make([]uint16, count)
		for i := uint32(0); i < count; i++ {
			v, err := c.u16(dataOffset + i*2)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return shortValue(out), nil
	case TypeSShort:
		out := make([]int16, count)
		for i := uint32(0); i < count; i++ {
			v, err := c.i16(dataOffset + i*2)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return sshortValue(out), nil
	case TypeLong:
		out := make([]uint32, count)
		for i := uint32(0); i < count; i++ {
			v, err := c.u32(dataOffset + i*4)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return longValue(out), nil
	case TypeSLong:
		out := make([]int32, count)
		for i := uint32(0); i < count; i++ {
			v, err := c.i32(dataOffset + i*4)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return slongValue(out), nil
	case TypeRational:
		out := make([]unsignedRational, count)
		for i := uint32(0); i < count; i++ {
			v, err := c.rational(dataOffset + i*8)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return rationalValue(out), nil
	case TypeSRational:
		out := make([]signedRational, count)
		for i := uint32(0); i < count; i++ {
			v, err := c.signedRational(dataOffset + i*8)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return srationalValue(out), nil
	case TypeFloat:
		out := make([]float32, count)
		for i := uint32(0); i < count; i++ {
			bits, err := c.u32(dataOffset + i*4)
			if err != nil {
				return Value{}, err
			}
			out[i] = math.Float32frombits(bits)
		}
		return floatValue(out), nil
	case TypeDouble:
		out := make([]float64, count)
		for i := uint32(0); i < count; i++ {
			bits, err := c.u64(dataOffset + i*8)
			if err != nil {
				return Value{}, err
			}
			out[i] = math.Float64frombits(bits)
		}
		return doubleValue(out), nil
	default:
		return Value{}, newErrAt(UnknownFormat, int64(dataOffset),
			fmt.Sprintf("unsupported tiff type %d", uint16(t)))
	}
}

// encodeValue renders the value's component bytes in the given byte
// order, without any inline/offset padding decision - that decision
// belongs to the serializer (codec.go's emitBlock), which is the only
// place that knows whether this value landed inline or in the data area.
func encodeValue(order binary.ByteOrder, v Value) []byte {
	switch v.Type {
	case TypeByte, TypeUndefined:
		return append([]byte(nil), v.Bytes...)
	case TypeASCII:
		return append([]byte(v.Text), 0)
	case TypeSByte:
		out := make([]byte, len(v.SBytes))
		for i, b := range v.SBytes {
			out[i] = byte(b)
		}
		return out
	case TypeShort:
		out := make([]byte, len(v.Shorts)*2)
		for i, s := range v.Shorts {
			order.PutUint16(out[i*2:], s)
		}
		return out
	case TypeSShort:
		out := make([]byte, len(v.SShorts)*2)
		for i, s := range v.SShorts {
			order.PutUint16(out[i*2:], uint16(s))
		}
		return out
	case TypeLong:
		out := make([]byte, len(v.Longs)*4)
		for i, l := range v.Longs {
			order.PutUint32(out[i*4:], l)
		}
		return out
	case TypeSLong:
		out := make([]byte, len(v.SLongs)*4)
		for i, l := range v.SLongs {
			order.PutUint32(out[i*4:], uint32(l))
		}
		return out
	case TypeRational:
		out := make([]byte, len(v.Rationals)*8)
		for i, r := range v.Rationals {
			order.PutUint32(out[i*8:], r.Numerator)
			order.PutUint32(out[i*8+4:], r.Denominator)
		}
		return out
	case TypeSRational:
		out := make([]byte, len(v.SRationals)*8)
		for i, r := range v.SRationals {
			order.PutUint32(out[i*8:], uint32(r.Numerator))
			order.PutUint32(out[i*8+4:], uint32(r.Denominator))
		}
		return out
	case TypeFloat:
		out := make([]byte, len(v.Floats)*4)
		for i, f := range v.Floats {
			order.PutUint32(out[i*4:], math.Float32bits(f))
		}
		return out
	case TypeDouble:
		out := make([]byte, len(v.Doubles)*8)
		for i, d := range v.Doubles {
			order.PutUint64(out[i*8:], math.Float64bits(d))
		}
		return out
	default:
		return nil
	}
}
