package eximg

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildIlocItem encodes one iloc version-1 item entry (construction_method
// explicit, single extent), matching the layout parseIloc expects.
func buildIlocItem(id uint16, constructionMethod uint16, offset, length uint32) []byte {
	var item [20]byte
	binary.BigEndian.PutUint16(item[0:2], id)
	binary.BigEndian.PutUint16(item[2:4], constructionMethod)
	binary.BigEndian.PutUint16(item[4:6], 0) // data_reference_index
	binary.BigEndian.PutUint32(item[6:10], 0) // base_offset
	binary.BigEndian.PutUint16(item[10:12], 1) // extent_count
	binary.BigEndian.PutUint32(item[12:16], offset)
	binary.BigEndian.PutUint32(item[16:20], length)
	return item[:]
}

func buildIlocBoxV1(items ...[]byte) []byte {
	d := make([]byte, 4)
	d[0] = 0x44
	d[1] = 0x40
	binary.BigEndian.PutUint16(d[2:4], uint16(len(items)))
	for _, it := range items {
		d = append(d, it...)
	}
	return encodeISOBMFFBox("iloc", true, 1, [3]byte{}, d)
}

func buildIinfBox(itemID uint16) []byte {
	infe := newExifInfeBox(itemID)
	d := make([]byte, 2, 2+len(infe))
	binary.BigEndian.PutUint16(d[0:2], 1)
	d = append(d, infe...)
	return encodeISOBMFFBox("iinf", true, 0, [3]byte{}, d)
}

// buildHEIFFileMethod builds a meta box whose single Exif item uses
// construction_method FILE (0), with the item data placed inside a
// top-level mdat box that follows the meta box, exercising the
// absolute-file-offset / mdat-backed layout used by real HEIC files.
func buildHEIFFileMethod(itemData []byte) []byte {
	iinfBox := buildIinfBox(1)
	// iloc's encoded size doesn't depend on the extent offset's value,
	// so build it once with a placeholder to learn the meta box's final
	// size, then rebuild with the real, now-known absolute offset.
	placeholderIloc := buildIlocBoxV1(buildIlocItem(1, ilocConstructionFile, 0, uint32(len(itemData))))
	metaData := append(append([]byte{}, iinfBox...), placeholderIloc...)
	metaBoxSize := len(encodeISOBMFFBox("meta", true, 0, [3]byte{}, metaData))

	const mdatHeaderSize = 8
	dataOffset := uint32(metaBoxSize) + uint32(mdatHeaderSize)

	ilocBox := buildIlocBoxV1(buildIlocItem(1, ilocConstructionFile, dataOffset, uint32(len(itemData))))
	metaData = append(append([]byte{}, iinfBox...), ilocBox...)
	metaBox := encodeISOBMFFBox("meta", true, 0, [3]byte{}, metaData)

	mdatBox := encodeISOBMFFBox("mdat", false, 0, [3]byte{}, itemData)

	out := append([]byte{}, metaBox...)
	out = append(out, mdatBox...)
	return out
}

func TestHEIFExtractFileMethodFromMdat(t *testing.T) {
	payload := []byte{'I', 'I', 0x2a, 0x00, 8, 0, 0, 0}
	itemData := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(itemData[:4], 0)
	copy(itemData[4:], payload)

	buf := buildHEIFFileMethod(itemData)
	got, ok, _, err := heifAdapter{}.Extract(buf)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("got %v ok %v, want %v", got, ok, payload)
	}
}

func buildEmptyHEIFMeta() []byte {
	emptyIinf := encodeISOBMFFBox("iinf", true, 0, [3]byte{}, []byte{0, 0})
	emptyIloc := encodeISOBMFFBox("iloc", true, 1, [3]byte{}, []byte{0x44, 0x40, 0, 0})
	metaData := append(append([]byte{}, emptyIinf...), emptyIloc...)
	return encodeISOBMFFBox("meta", true, 0, [3]byte{}, metaData)
}

func TestHEIFReplaceThenExtractRoundTrip(t *testing.T) {
	buf := buildEmptyHEIFMeta()

	payload := []byte{'M', 'M', 0x00, 0x2a, 0, 0, 0, 8}
	out, err := heifAdapter{}.Replace(buf, payload)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, ok, _, err := heifAdapter{}.Extract(out)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !ok || !bytes.Equal(got, payload) {
		t.Fatalf("round trip failed: got %v ok %v", got, ok)
	}
}
