package eximg

import "fmt"

// Tag is a 16-bit TIFF/Exif field tag code, scoped by the IfdID group
// it was read from (the same code is reused across groups: e.g. 0x0001
// means GPSLatitudeRef in the GPS IFD and InteropIndex in the Interop IFD).
type Tag uint16

// IfdID identifies which node of the IFD Tree a tag belongs to,
// generalizing the teacher's IfdId enum (PRIMARY/THUMBNAIL/EXIF/GPS/
// IOP/MAKER) with the same names the teacher's ifdNames array uses.
type IfdID uint8

const (
	IFD0 IfdID = iota
	IFD1
	ExifIFD
	GPSIFD
	InteropIFD
	MakerNoteIFD
	numIfdIDs
)

var ifdNames = [numIfdIDs]string{
	IFD0:         "IFD0",
	IFD1:         "IFD1",
	ExifIFD:      "ExifIFD",
	GPSIFD:       "GPSIFD",
	InteropIFD:   "InteropIFD",
	MakerNoteIFD: "MakerNote",
}

func (g IfdID) String() string {
	if int(g) < len(ifdNames) {
		return ifdNames[g]
	}
	return fmt.Sprintf("IfdID(%d)", uint8(g))
}

// Link tags: the teacher's ifdd doc comment enumerates these as the
// edges of the IFD hierarchy (IFD0 -> ExifIFD/GPSIFD, ExifIFD ->
// InteropIFD/MakerNote, IFD0 -> IFD1 via the next-IFD pointer).
const (
	tagExifIFDPointer    Tag = 0x8769
	tagGPSIFDPointer     Tag = 0x8825
	tagInteropIFDPointer Tag = 0xA005
	tagMakerNote         Tag = 0x927C
)

// tagDef is one row of the Tag Taxonomy: the declarative description
// of a known tag's expected wire type and component count, replacing
// the teacher's one-function-per-tag checkTiffTag/checkExifTag/
// checkGpsTag/checkIopTag switch dispatch (parse.go) with a table the
// codec's generic parse loop consults. count==0 means variable-length
// (ASCII strings, or vectors sized by another tag).
type tagDef struct {
	name  string
	group IfdID
	typ   Type
	count uint32
}

// taxonomy is keyed by (group, tag) since tag codes are reused across
// groups. It covers the IFD0/Exif/GPS/Interop baseline tags the
// teacher's parse.go validates plus the tags garyhouston-tiff66's
// TagNames table documents for the TIFF baseline group.
var taxonomy = map[IfdID]map[Tag]tagDef{
	IFD0: {
		0x0100: {"ImageWidth", IFD0, TypeLong, 1},
		0x0101: {"ImageLength", IFD0, TypeLong, 1},
		0x0102: {"BitsPerSample", IFD0, TypeShort, 0},
		0x0103: {"Compression", IFD0, TypeShort, 1},
		0x0106: {"PhotometricInterpretation", IFD0, TypeShort, 1},
		0x010E: {"ImageDescription", IFD0, TypeASCII, 0},
		0x010F: {"Make", IFD0, TypeASCII, 0},
		0x0110: {"Model", IFD0, TypeASCII, 0},
		0x0111: {"StripOffsets", IFD0, TypeLong, 0},
		0x0112: {"Orientation", IFD0, TypeShort, 1},
		0x0115: {"SamplesPerPixel", IFD0, TypeShort, 1},
		0x0116: {"RowsPerStrip", IFD0, TypeLong, 1},
		0x0117: {"StripByteCounts", IFD0, TypeLong, 0},
		0x011A: {"XResolution", IFD0, TypeRational, 1},
		0x011B: {"YResolution", IFD0, TypeRational, 1},
		0x0128: {"ResolutionUnit", IFD0, TypeShort, 1},
		0x0131: {"Software", IFD0, TypeASCII, 0},
		0x0132: {"DateTime", IFD0, TypeASCII, 20},
		0x013B: {"Artist", IFD0, TypeASCII, 0},
		0x0211: {"YCbCrCoefficients", IFD0, TypeRational, 3},
		0x0213: {"YCbCrPositioning", IFD0, TypeShort, 1},
		0x0214: {"ReferenceBlackWhite", IFD0, TypeRational, 6},
		0x8298: {"Copyright", IFD0, TypeASCII, 0},
		tagExifIFDPointer:    {"ExifIFDPointer", IFD0, TypeLong, 1},
		tagGPSIFDPointer:     {"GPSIFDPointer", IFD0, TypeLong, 1},
	},
	IFD1: {
		0x0100: {"ImageWidth", IFD1, TypeLong, 1},
		0x0101: {"ImageLength", IFD1, TypeLong, 1},
		0x0103: {"Compression", IFD1, TypeShort, 1},
		0x0111: {"StripOffsets", IFD1, TypeLong, 0},
		0x0117: {"StripByteCounts", IFD1, TypeLong, 0},
		0x0201: {"JPEGInterchangeFormat", IFD1, TypeLong, 1},
		0x0202: {"JPEGInterchangeFormatLength", IFD1, TypeLong, 1},
	},
	ExifIFD: {
		0x829A: {"ExposureTime", ExifIFD, TypeRational, 1},
		0x829D: {"FNumber", ExifIFD, TypeRational, 1},
		0x8822: {"ExposureProgram", ExifIFD, TypeShort, 1},
		0x8827: {"ISOSpeedRatings", ExifIFD, TypeShort, 0},
		0x9000: {"ExifVersion", ExifIFD, TypeUndefined, 4},
		0x9003: {"DateTimeOriginal", ExifIFD, TypeASCII, 20},
		0x9004: {"DateTimeDigitized", ExifIFD, TypeASCII, 20},
		0x9101: {"ComponentsConfiguration", ExifIFD, TypeUndefined, 4},
		0x9102: {"CompressedBitsPerPixel", ExifIFD, TypeRational, 1},
		0x9201: {"ShutterSpeedValue", ExifIFD, TypeSRational, 1},
		0x9202: {"ApertureValue", ExifIFD, TypeRational, 1},
		0x9203: {"BrightnessValue", ExifIFD, TypeSRational, 1},
		0x9204: {"ExposureBiasValue", ExifIFD, TypeSRational, 1},
		0x9205: {"MaxApertureValue", ExifIFD, TypeRational, 1},
		0x9206: {"SubjectDistance", ExifIFD, TypeRational, 1},
		0x9207: {"MeteringMode", ExifIFD, TypeShort, 1},
		0x9208: {"LightSource", ExifIFD, TypeShort, 1},
		0x9209: {"Flash", ExifIFD, TypeShort, 1},
		0x920A: {"FocalLength", ExifIFD, TypeRational, 1},
		0x9214: {"SubjectArea", ExifIFD, TypeShort, 0},
		tagMakerNote:         {"MakerNote", ExifIFD, TypeUndefined, 0},
		0x9286: {"UserComment", ExifIFD, TypeUndefined, 0},
		0xA000: {"FlashpixVersion", ExifIFD, TypeUndefined, 4},
		0xA001: {"ColorSpace", ExifIFD, TypeShort, 1},
		0xA002: {"PixelXDimension", ExifIFD, TypeLong, 1},
		0xA003: {"PixelYDimension", ExifIFD, TypeLong, 1},
		tagInteropIFDPointer: {"InteroperabilityIFDPointer", ExifIFD, TypeLong, 1},
		0xA217: {"SensingMethod", ExifIFD, TypeShort, 1},
		0xA300: {"FileSource", ExifIFD, TypeUndefined, 1},
		0xA301: {"SceneType", ExifIFD, TypeUndefined, 1},
		0xA302: {"CFAPattern", ExifIFD, TypeUndefined, 0},
		0xA401: {"CustomRendered", ExifIFD, TypeShort, 1},
		0xA402: {"ExposureMode", ExifIFD, TypeShort, 1},
		0xA403: {"WhiteBalance", ExifIFD, TypeShort, 1},
		0xA404: {"DigitalZoomRatio", ExifIFD, TypeRational, 1},
		0xA405: {"FocalLengthIn35mmFilm", ExifIFD, TypeShort, 1},
		0xA406: {"SceneCaptureType", ExifIFD, TypeShort, 1},
		0xA407: {"GainControl", ExifIFD, TypeShort, 1},
		0xA408: {"Contrast", ExifIFD, TypeShort, 1},
		0xA409: {"Saturation", ExifIFD, TypeShort, 1},
		0xA40A: {"Sharpness", ExifIFD, TypeShort, 1},
		0xA40C: {"SubjectDistanceRange", ExifIFD, TypeShort, 1},
		0xA420: {"ImageUniqueID", ExifIFD, TypeASCII, 33},
		0xA432: {"LensSpecification", ExifIFD, TypeRational, 4},
		0xA433: {"LensMake", ExifIFD, TypeASCII, 0},
		0xA434: {"LensModel", ExifIFD, TypeASCII, 0},
	},
	GPSIFD: {
		0x0000: {"GPSVersionID", GPSIFD, TypeByte, 4},
		0x0001: {"GPSLatitudeRef", GPSIFD, TypeASCII, 2},
		0x0002: {"GPSLatitude", GPSIFD, TypeRational, 3},
		0x0003: {"GPSLongitudeRef", GPSIFD, TypeASCII, 2},
		0x0004: {"GPSLongitude", GPSIFD, TypeRational, 3},
		0x0005: {"GPSAltitudeRef", GPSIFD, TypeByte, 1},
		0x0006: {"GPSAltitude", GPSIFD, TypeRational, 1},
		0x0007: {"GPSTimeStamp", GPSIFD, TypeRational, 3},
		0x0008: {"GPSSatellites", GPSIFD, TypeASCII, 0},
		0x000B: {"GPSDOP", GPSIFD, TypeRational, 1},
		0x000D: {"GPSSpeedRef", GPSIFD, TypeASCII, 2},
		0x000E: {"GPSSpeed", GPSIFD, TypeRational, 1},
		0x001D: {"GPSDateStamp", GPSIFD, TypeASCII, 11},
	},
	InteropIFD: {
		0x0001: {"InteropIndex", InteropIFD, TypeASCII, 0},
		0x0002: {"InteropVersion", InteropIFD, TypeUndefined, 4},
	},
}

// lookupTag returns the taxonomy entry for (group, tag), and false if
// the tag is unknown in that group - the caller then falls back to
// the Control.Unknown policy (Keep/Remove/Stop).
func lookupTag(group IfdID, tag Tag) (tagDef, bool) {
	m, ok := taxonomy[group]
	if !ok {
		return tagDef{}, false
	}
	d, ok := m[tag]
	return d, ok
}

// TypedTag is a (group, tag, value) triple ready to be stored into a
// Metadata façade via SetTag - the public surface of the Tag Taxonomy
// named in spec.md's external interfaces.
type TypedTag struct {
	Group IfdID
	Tag   Tag
	Value Value
}

func ImageDescription(s string) TypedTag {
	return TypedTag{IFD0, 0x010E, asciiValue(s)}
}

func Make(s string) TypedTag { return TypedTag{IFD0, 0x010F, asciiValue(s)} }

func Model(s string) TypedTag { return TypedTag{IFD0, 0x0110, asciiValue(s)} }

func Orientation(v uint16) TypedTag {
	return TypedTag{IFD0, 0x0112, shortValue([]uint16{v})}
}

func DateTimeOriginal(s string) TypedTag {
	return TypedTag{ExifIFD, 0x9003, asciiValue(s)}
}

func ExposureTime(num, den uint32) TypedTag {
	return TypedTag{ExifIFD, 0x829A, rationalValue([]unsignedRational{{num, den}})}
}

func FNumber(num, den uint32) TypedTag {
	return TypedTag{ExifIFD, 0x829D, rationalValue([]unsignedRational{{num, den}})}
}

func ISOSpeedRatings(v ...uint16) TypedTag {
	return TypedTag{ExifIFD, 0x8827, shortValue(v)}
}

func GPSLatitudeRef(ref string) TypedTag {
	return TypedTag{GPSIFD, 0x0001, asciiValue(ref)}
}

func GPSLatitude(deg, min, sec Rational) TypedTag {
	return TypedTag{GPSIFD, 0x0002, rationalValue([]unsignedRational{
		{deg.Numerator, deg.Denominator},
		{min.Numerator, min.Denominator},
		{sec.Numerator, sec.Denominator},
	})}
}

func GPSLongitudeRef(ref string) TypedTag {
	return TypedTag{GPSIFD, 0x0003, asciiValue(ref)}
}

func GPSLongitude(deg, min, sec Rational) TypedTag {
	return TypedTag{GPSIFD, 0x0004, rationalValue([]unsignedRational{
		{deg.Numerator, deg.Denominator},
		{min.Numerator, min.Denominator},
		{sec.Numerator, sec.Denominator},
	})}
}

// Unknown builds a TypedTag for a tag absent from the taxonomy,
// carrying its raw type/bytes through verbatim, for a caller to store
// with SetTag. Unknown tags kept at parse time under the Unknown=Keep
// policy are stored as decoded Values and read back through GetTag.
func Unknown(group IfdID, tag Tag, typ Type, raw []byte) TypedTag {
	switch typ {
	case TypeASCII:
		return TypedTag{group, tag, asciiValue(string(raw))}
	default:
		return TypedTag{group, tag, Value{Type: typ, Bytes: raw}}
	}
}
