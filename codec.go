package eximg

import (
	"encoding/binary"
)

// exifSignature is the 6-byte marker that precedes the TIFF header in
// every container's EXIF payload except the raw .tiff container itself
// and the HEIF/JXL box forms (which carry their own framing and pass a
// bare TIFF stream to ParseTIFF instead).
var exifSignature = [6]byte{'E', 'x', 'i', 'f', 0, 0}

const (
	tiffHeaderSize = 8
	entrySize      = 12 // tag(2) + type(2) + count(4) + value/offset(4)
	inlineValSize  = 4
)

// ParseExifPayload decodes a full "Exif\0\0"-prefixed payload (as
// carried verbatim in a JPEG APP1 segment or a PNG eXIf chunk) into an
// IFD Tree. It mirrors the teacher's Parse (exif.go) signature
// checking and getEndianess, generalized to build an ifdNode tree via
// the declarative taxonomy instead of per-tag check functions.
func ParseExifPayload(payload []byte, c *Control) (*ifdNode, binary.ByteOrder, []Warning, error) {
	if len(payload) < len(exifSignature) {
		return nil, nil, nil, newErr(Truncated, "payload shorter than Exif signature")
	}
	for i, b := range exifSignature {
		if payload[i] != b {
			return nil, nil, nil, newErr(BadMagic, "missing Exif\\0\\0 signature")
		}
	}
	return ParseTIFF(payload[len(exifSignature):], c)
}

// ParseTIFF decodes a bare TIFF stream (header at offset 0) into an
// IFD Tree - used by the façade for the TIFF, HEIF and JXL containers,
// and by ParseExifPayload after stripping the Exif\0\0 signature.
func ParseTIFF(data []byte, c *Control) (*ifdNode, binary.ByteOrder, []Warning, error) {
	order, err := detectByteOrder(data)
	if err != nil {
		return nil, nil, nil, err
	}
	cur := newCursor(data, order)
	magic, err := cur.u16(2)
	if err != nil {
		return nil, nil, nil, err
	}
	if magic != 0x002a {
		return nil, nil, nil, newErrAt(BadMagic, 2, "bad tiff magic number")
	}
	ifd0Offset, err := cur.u32(4)
	if err != nil {
		return nil, nil, nil, err
	}
	var warnings []Warning
	visited := make(map[uint32]bool)
	root, next, err := parseIFDChain(cur, ifd0Offset, IFD0, c, visited, &warnings)
	if err != nil {
		return nil, nil, nil, err
	}
	root.next = next
	if next != nil {
		off, okOff := next.get(0x0201)
		ln, okLen := next.get(0x0202)
		if okOff && okLen && len(off.Longs) == 1 && len(ln.Longs) == 1 {
			thumb, err := cur.bytes(off.Longs[0], ln.Longs[0])
			if err != nil {
				return nil, nil, nil, err
			}
			next.thumbnail = append([]byte(nil), thumb...)
		}
	}
	return root, order, warnings, nil
}

func detectByteOrder(data []byte) (binary.ByteOrder, error) {
	if len(data) < 4 {
		return nil, newErr(Truncated, "tiff header truncated")
	}
	switch {
	case data[0] == 'I' && data[1] == 'I':
		return binary.LittleEndian, nil
	case data[0] == 'M' && data[1] == 'M':
		return binary.BigEndian, nil
	default:
		return nil, newErr(BadByteOrder, "unrecognized byte-order mark")
	}
}

// parseIFDChain parses one IFD at offset and follows its next-IFD
// pointer, returning the node for `offset` and the node for the
// following IFD in the chain (IFD0 -> IFD1), if any. visited guards
// against an offset cycle the way garyhouston-tiff66's ifdPositions
// map does in getIFDTreeIter.
func parseIFDChain(cur *cursor, offset uint32, group IfdID, c *Control,
	visited map[uint32]bool, warnings *[]Warning) (*ifdNode, *ifdNode, error) {

	if offset == 0 {
		return nil, nil, nil
	}
	if visited[offset] {
		return nil, nil, newErrAt(OffsetCycle, int64(offset), "ifd offset cycle detected")
	}
	visited[offset] = true

	node, nextOffset, err := parseOneIFD(cur, offset, group, c, warnings)
	if err != nil {
		return nil, nil, err
	}

	if err := linkKnownSubIfds(cur, node, c, visited, warnings); err != nil {
		return nil, nil, err
	}

	var next *ifdNode
	if group == IFD0 && nextOffset != 0 {
		next, _, err = parseIFDChain(cur, nextOffset, IFD1, c, visited, warnings)
		if err != nil {
			return nil, nil, err
		}
	}
	return node, next, nil
}

// linkKnownSubIfds resolves the ExifIFD/GPSIFD pointer tags on an
// IFD0 node (and the InteropIFD pointer on an ExifIFD node) into
// parsed child nodes, the generalization of the teacher's ifdd.next/
// checkEmbeddedIfd recursion.
func linkKnownSubIfds(cur *cursor, node *ifdNode, c *Control, visited map[uint32]bool,
	warnings *[]Warning) error {

	childGroups := map[IfdID]Tag{}
	switch node.group {
	case IFD0:
		childGroups[ExifIFD] = tagExifIFDPointer
		childGroups[GPSIFD] = tagGPSIFDPointer
	case ExifIFD:
		childGroups[InteropIFD] = tagInteropIFDPointer
	}
	for group, tag := range childGroups {
		v, ok := node.get(tag)
		if !ok || len(v.Longs) == 0 {
			continue
		}
		child, _, err := parseIFDChain(cur, v.Longs[0], group, c, visited, warnings)
		if err != nil {
			return err
		}
		if child != nil {
			if node.subs == nil {
				node.subs = make(map[IfdID]*ifdNode)
			}
			node.subs[group] = child
		}
	}
	return nil
}

// parseOneIFD reads the entry count, all entries, and the next-IFD
// offset at `offset`, generalizing the teacher's storeIFD: a generic
// loop consults the taxonomy for name/expected-type validation instead
// of dispatching through checkTiffTag/checkExifTag/checkGpsTag.
func parseOneIFD(cur *cursor, offset uint32, group IfdID, c *Control,
	warnings *[]Warning) (*ifdNode, uint32, error) {

	count, err := cur.u16(offset)
	if err != nil {
		return nil, 0, err
	}
	node := newIfdNode(group)
	entryBase := offset + 2
	for i := uint16(0); i < count; i++ {
		entryOffset := entryBase + uint32(i)*entrySize
		tagCode, err := cur.u16(entryOffset)
		if err != nil {
			return nil, 0, err
		}
		typeCode, err := cur.u16(entryOffset + 2)
		if err != nil {
			return nil, 0, err
		}
		fieldCount, err := cur.u32(entryOffset + 4)
		if err != nil {
			return nil, 0, err
		}
		tag := Tag(tagCode)
		typ := Type(typeCode)

		def, known := lookupTag(group, tag)
		if !known {
			switch c.unknownPolicy() {
			case Stop:
				return nil, 0, newErrAt(FormatMismatch, int64(entryOffset),
					"unknown tag encountered with Unknown=Stop policy")
			case Remove:
				c.warnf("dropping unknown tag %#04x in %s", tagCode, group)
				continue
			}
		} else if def.typ != typ {
			c.warnf("tag %s: expected type %s, found %s", def.name, def.typ, typ)
			*warnings = append(*warnings, Warning{FormatMismatch,
				"tag " + def.name + " type mismatch"})
		}

		size := typ.componentSize() * fieldCount
		var dataOffset uint32
		if size <= inlineValSize {
			dataOffset = entryOffset + 8
		} else {
			dataOffset, err = cur.u32(entryOffset + 8)
			if err != nil {
				return nil, 0, err
			}
		}

		val, err := decodeValue(cur, typ, fieldCount, dataOffset)
		if err != nil {
			return nil, 0, err
		}
		node.set(tag, val)
		c.parseDebugf("%s: tag %#04x type %s count %d", group, tagCode, typ, fieldCount)
	}
	nextOffsetPos := entryBase + uint32(count)*entrySize
	nextOffset, err := cur.u32(nextOffsetPos)
	if err != nil {
		return nil, 0, err
	}
	return node, nextOffset, nil
}

func (c *Control) unknownPolicy() UnknownPolicy {
	if c == nil {
		return Keep
	}
	return c.Unknown
}

// --- Serialization ---

// layoutBlock is one emitted IFD block in the fixed emission order
// this codec uses: IFD0, ExifIFD, InteropIFD, GPSIFD, IFD1, matching
// the nesting the teacher's exif.go doc comment draws for the IFD0 ->
// {ExifIFD -> InteropIFD, GPSIFD} -> IFD1 hierarchy.
type layoutBlock struct {
	node       *ifdNode
	offset     uint32
	size       uint32
	linkParent *ifdNode // node whose entries table gets the pointer tag patched
	linkTag    Tag
}

// SerializeExifPayload renders an IFD Tree back into a full
// "Exif\0\0"-prefixed payload, generalizing serialize.go's
// serializeEntries/serializeDataArea two-pass writer into an explicit
// size-then-emit layout pass so sub-IFD pointer fields can be computed
// without the teacher's mutate-dOffset-while-writing approach.
func SerializeExifPayload(root *ifdNode, order binary.ByteOrder, c *Control) ([]byte, error) {
	tiff, err := SerializeTIFF(root, order, c)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(exifSignature)+len(tiff))
	out = append(out, exifSignature[:]...)
	out = append(out, tiff...)
	return out, nil
}

// SerializeTIFF renders an IFD Tree into a bare TIFF stream (header at
// offset 0), used by the façade for the TIFF, HEIF and JXL containers.
func SerializeTIFF(root *ifdNode, order binary.ByteOrder, c *Control) ([]byte, error) {
	// Reserve the JPEGInterchangeFormat/Length entries before sizing
	// the IFD1 block, since its offset value is only known once every
	// block's size has been laid out - sizing must see these tags
	// up front or the block would be emitted larger than it was sized.
	if root.next != nil && root.next.thumbnail != nil {
		if _, ok := root.next.get(0x0201); !ok {
			root.next.set(0x0201, longValue([]uint32{0}))
		}
		root.next.set(0x0202, longValue([]uint32{uint32(len(root.next.thumbnail))}))
	}

	blocks := buildLayout(root)

	offset := uint32(tiffHeaderSize)
	for i := range blocks {
		blocks[i].offset = offset
		offset += blocks[i].size
	}

	// patch link pointer values now that every block's offset is known
	for _, b := range blocks {
		if b.linkParent != nil {
			b.linkParent.set(b.linkTag, longValue([]uint32{b.offset}))
		}
	}

	var thumbOffset uint32
	var thumbLen uint32
	if root.next != nil && root.next.thumbnail != nil {
		thumbOffset = offset
		thumbLen = uint32(len(root.next.thumbnail))
		root.next.set(0x0201, longValue([]uint32{thumbOffset}))
		root.next.set(0x0202, longValue([]uint32{thumbLen}))
	}

	buf := make([]byte, offset+thumbLen)

	switch order {
	case binary.LittleEndian:
		buf[0], buf[1] = 'I', 'I'
	default:
		buf[0], buf[1] = 'M', 'M'
	}
	putU16(buf[2:], order, 0x002a)
	putU32(buf[4:], order, tiffHeaderSize)

	for _, b := range blocks {
		nextOffset := uint32(0)
		if b.node.group == IFD0 && root.next != nil {
			nextOffset = blockOffsetFor(blocks, root.next)
		}
		if err := emitBlock(buf, b, nextOffset, order, c); err != nil {
			return nil, err
		}
	}
	if root.next != nil && root.next.thumbnail != nil {
		copy(buf[thumbOffset:], root.next.thumbnail)
	}
	return buf, nil
}

func blockOffsetFor(blocks []layoutBlock, n *ifdNode) uint32 {
	for _, b := range blocks {
		if b.node == n {
			return b.offset
		}
	}
	return 0
}

// buildLayout flattens the tree into emission order and computes each
// block's byte size without yet knowing final offsets (sizes never
// depend on offsets since every pointer field is a fixed 4-byte LONG).
func buildLayout(root *ifdNode) []layoutBlock {
	var blocks []layoutBlock

	addGroup := func(node, parent *ifdNode, linkTag Tag) {
		if node == nil {
			return
		}
		blocks = append(blocks, layoutBlock{
			node: node, size: blockSize(node), linkParent: parent, linkTag: linkTag,
		})
	}

	addGroup(root, nil, 0)
	if exif := root.sub(ExifIFD); exif != nil {
		addGroup(exif, root, tagExifIFDPointer)
		if interop := exif.sub(InteropIFD); interop != nil {
			addGroup(interop, exif, tagInteropIFDPointer)
		}
	}
	if gps := root.sub(GPSIFD); gps != nil {
		addGroup(gps, root, tagGPSIFDPointer)
	}
	if root.next != nil {
		addGroup(root.next, nil, 0)
	}
	return blocks
}

// blockSize computes the on-disk size of one IFD's entry area plus
// its out-of-line data area, including the link-pointer entries for
// any sub-IFDs already linked under this node (those are always
// inline LONGs so they add entrySize each but no data-area bytes).
func blockSize(node *ifdNode) uint32 {
	n := uint32(len(node.tags))
	if node.sub(ExifIFD) != nil {
		if _, already := node.get(tagExifIFDPointer); !already {
			n++
		}
	}
	if node.sub(GPSIFD) != nil {
		if _, already := node.get(tagGPSIFDPointer); !already {
			n++
		}
	}
	if node.sub(InteropIFD) != nil {
		if _, already := node.get(tagInteropIFDPointer); !already {
			n++
		}
	}
	size := uint32(2) + n*entrySize + 4 // count + entries + next-offset
	for _, tag := range node.tags {
		v := node.entries[tag]
		sz := v.byteSize()
		if sz > inlineValSize {
			size += sz
		}
	}
	return size
}

// emitBlock writes one IFD's entries and data area into buf at
// b.offset, mirroring serialize.go's serializeEntries/
// serializeDataArea split but computed against pre-known offsets.
func emitBlock(buf []byte, b layoutBlock, nextOffset uint32, order binary.ByteOrder, c *Control) error {
	node := b.node

	tags := append([]Tag(nil), node.tags...)
	linkTags := map[Tag]bool{}
	if node.sub(ExifIFD) != nil {
		linkTags[tagExifIFDPointer] = true
	}
	if node.sub(GPSIFD) != nil {
		linkTags[tagGPSIFDPointer] = true
	}
	if node.sub(InteropIFD) != nil {
		linkTags[tagInteropIFDPointer] = true
	}
	for t := range linkTags {
		found := false
		for _, existing := range tags {
			if existing == t {
				found = true
				break
			}
		}
		if !found {
			tags = append(tags, t)
		}
	}
	sortTags(tags)

	pos := b.offset
	putU16(buf[pos:], order, uint16(len(tags)))
	pos += 2

	dataPos := pos + uint32(len(tags))*entrySize + 4
	for _, tag := range tags {
		v := node.entries[tag]
		typ := v.Type
		putU16(buf[pos:], order, uint16(tag))
		putU16(buf[pos+2:], order, uint16(typ))
		putU32(buf[pos+4:], order, v.count())
		raw := encodeValue(order, v)
		if uint32(len(raw)) <= inlineValSize {
			copy(buf[pos+8:pos+12], raw)
		} else {
			putU32(buf[pos+8:], order, dataPos)
			copy(buf[dataPos:], raw)
			dataPos += uint32(len(raw))
		}
		pos += entrySize
		c.serializeDebugf("%s: emit tag %#04x at %#08x", node.group, tag, b.offset)
	}
	putU32(buf[pos:], order, nextOffset)
	return nil
}

func sortTags(tags []Tag) {
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j-1] > tags[j]; j-- {
			tags[j-1], tags[j] = tags[j], tags[j-1]
		}
	}
}
