package eximg

import "encoding/binary"

// heifItem is one entry of the iinf/iloc item tables: its type, its
// raw infe box bytes (preserved verbatim for every item except the
// Exif item this adapter manages), and its data bytes as resolved from
// the file (construction_method FILE) or from the idat box (IDAT).
type heifItem struct {
	id       uint16
	itemType string
	infeBox  []byte // full raw infe box, reused as-is unless it's the Exif item
	data     []byte
}

const heifExifItemType = "Exif"

// HEIF iloc construction_method values, per ISO/IEC 14496-12's
// ItemLocationBox: FILE extents are absolute offsets into the whole
// file (typically landing in a top-level "mdat" box), IDAT extents
// are offsets into the "idat" box inside the meta box, and
// item-reference-relative (2) is not supported, matching
// original_source/src/heif/boxes/item_location.rs's construction
// method handling.
const (
	ilocConstructionFile = 0
	ilocConstructionIdat = 1
)

// parseHeifMeta locates the top-level "meta" box and decodes its
// iinf/iloc children into a flat item list. Item data is resolved
// per original_source/src/heif/container.rs: construction_method
// FILE (0, the prevalent real-world layout for still-image HEIC
// files) resolves extent_offset as an absolute offset into buf,
// typically landing inside a top-level "mdat" box; construction_method
// IDAT (1) resolves it against the "idat" box inside the meta box.
func parseHeifMeta(buf []byte) (metaOffset int, metaBox isobmffBox, items []heifItem, idatOffset int, err error) {
	top, err := walkISOBMFFBoxes(buf, 0, len(buf))
	if err != nil {
		return 0, isobmffBox{}, nil, 0, err
	}
	for _, b := range top {
		if b.typ == "meta" {
			metaOffset = b.offset
			metaBox = b
			break
		}
	}
	if metaBox.typ != "meta" {
		return 0, isobmffBox{}, nil, 0, newErr(HeifStructureInvalid, "no meta box present")
	}

	children, err := walkISOBMFFBoxes(metaBox.data, 0, len(metaBox.data))
	if err != nil {
		return 0, isobmffBox{}, nil, 0, err
	}

	var infeBoxes map[uint16][]byte
	var iinfIdx, ilocIdx, idatIdx = -1, -1, -1
	for i, c := range children {
		switch c.typ {
		case "iinf":
			iinfIdx = i
		case "iloc":
			ilocIdx = i
		case "idat":
			idatIdx = i
		}
	}
	if iinfIdx < 0 || ilocIdx < 0 {
		return 0, isobmffBox{}, nil, 0, newErr(HeifStructureInvalid, "meta box missing iinf/iloc")
	}

	infeBoxes, err = parseIinf(children[iinfIdx])
	if err != nil {
		return 0, isobmffBox{}, nil, 0, err
	}

	locs, err := parseIloc(children[ilocIdx])
	if err != nil {
		return 0, isobmffBox{}, nil, 0, err
	}

	var idatData []byte
	if idatIdx >= 0 {
		idatData = children[idatIdx].data
		idatOffset = metaOffset + metaBox.headerSize + children[idatIdx].offset
	}

	for id, loc := range locs {
		raw, ok := infeBoxes[id]
		if !ok {
			continue
		}
		itemType := infeItemType(raw)
		var data []byte
		switch loc.constructionMethod {
		case ilocConstructionFile:
			if int(loc.offset+loc.length) <= len(buf) {
				data = buf[loc.offset : loc.offset+loc.length]
			}
		case ilocConstructionIdat:
			if int(loc.offset+loc.length) <= len(idatData) {
				data = idatData[loc.offset : loc.offset+loc.length]
			}
		}
		items = append(items, heifItem{id: id, itemType: itemType, infeBox: raw, data: data})
	}
	return metaOffset, metaBox, items, idatOffset, nil
}

type ilocEntry struct {
	constructionMethod uint16
	offset, length     uint32
}

// parseIloc decodes an iloc box under the simplifying assumption of
// 4-byte offset/length/base-offset fields and one extent per item.
// iloc version 0 carries no construction_method field and implies
// FILE (0); version >= 1 carries an explicit 2-byte field per item.
func parseIloc(b isobmffBox) (map[uint16]ilocEntry, error) {
	d := b.data
	if len(d) < 2 {
		return nil, newErr(HeifStructureInvalid, "iloc box truncated")
	}
	itemCount := int(binary.BigEndian.Uint16(d[2:4]))
	pos := 4
	out := make(map[uint16]ilocEntry, itemCount)
	for i := 0; i < itemCount; i++ {
		if pos+2 > len(d) {
			return nil, newErr(HeifStructureInvalid, "iloc item truncated")
		}
		itemID := binary.BigEndian.Uint16(d[pos:])
		pos += 2
		constructionMethod := uint16(ilocConstructionFile)
		if b.version >= 1 {
			if pos+2 > len(d) {
				return nil, newErr(HeifStructureInvalid, "iloc construction_method truncated")
			}
			constructionMethod = binary.BigEndian.Uint16(d[pos:]) & 0x0F
			pos += 2
		}
		pos += 2 // data_reference_index
		if pos+4+2 > len(d) {
			return nil, newErr(HeifStructureInvalid, "iloc base_offset/extent_count truncated")
		}
		pos += 4 // base_offset (assumed 4 bytes)
		extentCount := int(binary.BigEndian.Uint16(d[pos:]))
		pos += 2
		for e := 0; e < extentCount; e++ {
			if pos+8 > len(d) {
				return nil, newErr(HeifStructureInvalid, "iloc extent truncated")
			}
			off := binary.BigEndian.Uint32(d[pos:])
			ln := binary.BigEndian.Uint32(d[pos+4:])
			pos += 8
			if e == 0 {
				out[itemID] = ilocEntry{constructionMethod: constructionMethod, offset: off, length: ln}
			}
		}
	}
	return out, nil
}

type ilocWriteEntry struct {
	id     uint16
	offset uint32
	length uint32
}

// encodeIloc writes an iloc box version 1 so each item carries an
// explicit construction_method; this adapter always writes items into
// its own "idat" box (construction_method IDAT, 1), never into mdat,
// so readers must resolve these offsets against that sibling box.
func encodeIloc(entries []ilocWriteEntry) []byte {
	d := make([]byte, 4, 4+len(entries)*20)
	d[0] = 0x44 // offset_size=4 (high nibble), length_size=4 (low nibble)
	d[1] = 0x40 // base_offset_size=4, index_size=0
	binary.BigEndian.PutUint16(d[2:4], uint16(len(entries)))
	for _, e := range entries {
		var item [20]byte
		binary.BigEndian.PutUint16(item[0:2], e.id)
		binary.BigEndian.PutUint16(item[2:4], ilocConstructionIdat) // construction_method
		binary.BigEndian.PutUint16(item[4:6], 0)                    // data_reference_index
		binary.BigEndian.PutUint32(item[6:10], 0)                   // base_offset
		binary.BigEndian.PutUint16(item[10:12], 1)                  // extent_count
		binary.BigEndian.PutUint32(item[12:16], e.offset)
		binary.BigEndian.PutUint32(item[16:20], e.length)
		d = append(d, item[:]...)
	}
	return d
}

func parseIinf(b isobmffBox) (map[uint16][]byte, error) {
	d := b.data
	if len(d) < 2 {
		return nil, newErr(HeifStructureInvalid, "iinf box truncated")
	}
	var entryCount int
	var pos int
	if b.version == 0 {
		entryCount = int(binary.BigEndian.Uint16(d[0:2]))
		pos = 2
	} else {
		if len(d) < 4 {
			return nil, newErr(HeifStructureInvalid, "iinf box truncated")
		}
		entryCount = int(binary.BigEndian.Uint32(d[0:4]))
		pos = 4
	}
	out := make(map[uint16][]byte, entryCount)
	for i := 0; i < entryCount; i++ {
		infe, err := readISOBMFFBox(d, pos)
		if err != nil {
			return nil, err
		}
		id := infeItemID(d[pos : pos+infe.boxSize])
		out[id] = append([]byte(nil), d[pos:pos+infe.boxSize]...)
		pos += infe.boxSize
	}
	return out, nil
}

func infeItemID(raw []byte) uint16 {
	if len(raw) < 14 {
		return 0
	}
	return binary.BigEndian.Uint16(raw[12:14])
}

func infeItemType(raw []byte) string {
	if len(raw) < 20 {
		return ""
	}
	return string(raw[16:20])
}

// newExifInfeBox builds the canonical 21-byte infe box for an Exif
// item, matching original_source/src/heif/box_header.rs's
// new_exif_info_entry_box_header (version 2, flags [0,0,1]) verbatim.
func newExifInfeBox(itemID uint16) []byte {
	out := make([]byte, 21)
	binary.BigEndian.PutUint32(out[0:4], 21)
	copy(out[4:8], "infe")
	out[8] = 2          // version
	out[9], out[10], out[11] = 0, 0, 1
	binary.BigEndian.PutUint16(out[12:14], itemID)
	binary.BigEndian.PutUint16(out[14:16], 0) // protection index
	copy(out[16:20], heifExifItemType)
	out[20] = 0 // empty item_name
	return out
}

type heifAdapter struct{}

func (heifAdapter) Extract(buf []byte) ([]byte, bool, []Warning, error) {
	_, _, items, _, err := parseHeifMeta(buf)
	if err != nil {
		return nil, false, nil, err
	}
	for _, it := range items {
		if it.itemType == heifExifItemType {
			if len(it.data) < 4 {
				return nil, false, nil, newErr(HeifStructureInvalid, "exif item data truncated")
			}
			tiffOffset := binary.BigEndian.Uint32(it.data[:4])
			return append([]byte(nil), it.data[4+tiffOffset:]...), true, nil, nil
		}
	}
	return nil, false, nil, nil
}

func (heifAdapter) Remove(buf []byte) ([]byte, error) {
	return heifAdapter{}.rewrite(buf, nil)
}

func (heifAdapter) Replace(buf []byte, payload []byte) ([]byte, error) {
	return heifAdapter{}.rewrite(buf, payload)
}

// rewrite regenerates the meta box's iinf/iloc/idat children from the
// parsed item list, dropping and/or inserting the Exif item, and
// copies every other top-level and meta-level box verbatim - the
// "two-pass, rebuild the metadata substructure" strategy grounded on
// original_source/src/heif/container.rs's bottom-up-size /
// top-down-emit approach, applied here to just the item tables
// instead of the whole file.
func (heifAdapter) rewrite(buf []byte, newPayload []byte) ([]byte, error) {
	metaOffset, metaBox, items, _, err := parseHeifMeta(buf)
	if err != nil {
		return nil, err
	}

	var kept []heifItem
	nextID := uint16(1)
	for _, it := range items {
		if it.itemType == heifExifItemType {
			continue
		}
		kept = append(kept, it)
		if it.id >= nextID {
			nextID = it.id + 1
		}
	}
	if newPayload != nil {
		data := make([]byte, 4+len(newPayload))
		binary.BigEndian.PutUint32(data[:4], 0)
		copy(data[4:], newPayload)
		kept = append(kept, heifItem{id: nextID, itemType: heifExifItemType,
			infeBox: newExifInfeBox(nextID), data: data})
	}

	idat := make([]byte, 0)
	type locRow struct {
		id             uint16
		offset, length uint32
	}
	var locs []locRow
	var infeBoxes []byte
	for _, it := range kept {
		locs = append(locs, locRow{id: it.id, offset: uint32(len(idat)), length: uint32(len(it.data))})
		idat = append(idat, it.data...)
		infeBoxes = append(infeBoxes, rekeyedInfe(it)...)
	}

	iinfData := make([]byte, 2, 2+len(infeBoxes))
	binary.BigEndian.PutUint16(iinfData[0:2], uint16(len(kept)))
	iinfData = append(iinfData, infeBoxes...)
	iinfBox := encodeISOBMFFBox("iinf", true, 0, [3]byte{}, iinfData)

	var ilocEntries []ilocWriteEntry
	for _, l := range locs {
		ilocEntries = append(ilocEntries, ilocWriteEntry{id: l.id, offset: l.offset, length: l.length})
	}
	ilocBox := encodeISOBMFFBox("iloc", true, 1, [3]byte{}, encodeIloc(ilocEntries))
	idatBox := encodeISOBMFFBox("idat", false, 0, [3]byte{}, idat)

	children, err := walkISOBMFFBoxes(metaBox.data, 0, len(metaBox.data))
	if err != nil {
		return nil, err
	}
	var newMetaData []byte
	replaced := false
	for _, c := range children {
		switch c.typ {
		case "iinf", "iloc", "idat":
			if !replaced {
				newMetaData = append(newMetaData, iinfBox...)
				newMetaData = append(newMetaData, ilocBox...)
				newMetaData = append(newMetaData, idatBox...)
				replaced = true
			}
		default:
			newMetaData = append(newMetaData, buf[metaOffset+metaBox.headerSize+c.offset:metaOffset+metaBox.headerSize+c.offset+c.boxSize]...)
		}
	}
	if !replaced {
		newMetaData = append(newMetaData, iinfBox...)
		newMetaData = append(newMetaData, ilocBox...)
		newMetaData = append(newMetaData, idatBox...)
	}
	newMetaBox := encodeISOBMFFBox("meta", true, metaBox.version, metaBox.flags, newMetaData)

	out := append([]byte(nil), buf[:metaOffset]...)
	out = append(out, newMetaBox...)
	out = append(out, buf[metaOffset+metaBox.boxSize:]...)
	return out, nil
}

// rekeyedInfe returns the item's infe box, unmodified for every item
// except a freshly-inserted Exif item (whose box is already correctly
// keyed by newExifInfeBox).
func rekeyedInfe(it heifItem) []byte {
	return it.infeBox
}
