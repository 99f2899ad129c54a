package eximg

import "sort"

// ifdNode is one node of the IFD Tree: an ordered set of entries plus
// links to the sub-IFDs and the next-IFD chain, generalizing the
// teacher's ifdd (exif.go) - which bundled parse-time cursor fields
// (fTag/fType/fCount/sOffset) together with the tree structure - into
// a tree-only type the codec's parse and serialize passes build and
// walk independently.
type ifdNode struct {
	group   IfdID
	tags    []Tag            // insertion/tag-order, kept sorted on build
	entries map[Tag]Value
	subs    map[IfdID]*ifdNode // ExifIFD/GPSIFD/InteropIFD children
	next    *ifdNode           // IFD0 -> IFD1 link

	// thumbnail carries the raw embedded JPEG bytes referenced by
	// IFD1's JPEGInterchangeFormat/JPEGInterchangeFormatLength pair,
	// the supplemented thumbnail-passthrough feature (SPEC_FULL.md §5)
	// grounded on garyhouston-tiff66's ImageData/ImageDataSpec and the
	// teacher's GetThumbnail/root.next plumbing.
	thumbnail []byte
}

func newIfdNode(group IfdID) *ifdNode {
	return &ifdNode{group: group, entries: make(map[Tag]Value)}
}

func (n *ifdNode) set(tag Tag, v Value) {
	if _, exists := n.entries[tag]; !exists {
		n.tags = append(n.tags, tag)
		sort.Slice(n.tags, func(i, j int) bool { return n.tags[i] < n.tags[j] })
	}
	n.entries[tag] = v
}

func (n *ifdNode) get(tag Tag) (Value, bool) {
	v, ok := n.entries[tag]
	return v, ok
}

func (n *ifdNode) remove(tag Tag) {
	if _, exists := n.entries[tag]; !exists {
		return
	}
	delete(n.entries, tag)
	for i, t := range n.tags {
		if t == tag {
			n.tags = append(n.tags[:i], n.tags[i+1:]...)
			break
		}
	}
}

func (n *ifdNode) sub(group IfdID) *ifdNode {
	if n.subs == nil {
		return nil
	}
	return n.subs[group]
}

func (n *ifdNode) ensureSub(group IfdID) *ifdNode {
	if n.subs == nil {
		n.subs = make(map[IfdID]*ifdNode)
	}
	if s, ok := n.subs[group]; ok {
		return s
	}
	s := newIfdNode(group)
	n.subs[group] = s
	return s
}

// walk visits this node, its sub-IFDs and its next-IFD chain exactly
// once each, detecting offset cycles the way garyhouston-tiff66's
// getIFDTreeIter does with its ifdPositions map - here keyed by node
// identity instead of file offset since the tree is already built.
func (n *ifdNode) walk(visit func(*ifdNode)) {
	seen := make(map[*ifdNode]bool)
	var rec func(*ifdNode)
	rec = func(cur *ifdNode) {
		if cur == nil || seen[cur] {
			return
		}
		seen[cur] = true
		visit(cur)
		for _, s := range cur.subs {
			rec(s)
		}
		rec(cur.next)
	}
	rec(n)
}

// linkTagFor returns the tag code that, stored in the parent IFD,
// points at this child group - the teacher's ifdd doc comment names
// these exactly (0x8769/0x8825/0xA005); MakerNote has no pointer tag
// of its own, since it lives inline as an opaque UNDEFINED blob under
// tagMakerNote in ExifIFD.
func linkTagFor(group IfdID) (Tag, bool) {
	switch group {
	case ExifIFD:
		return tagExifIFDPointer, true
	case GPSIFD:
		return tagGPSIFDPointer, true
	case InteropIFD:
		return tagInteropIFDPointer, true
	default:
		return 0, false
	}
}
