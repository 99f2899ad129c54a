package eximg

// tiffContainerAdapter treats the whole buffer as the TIFF stream
// itself: there is no outer framing to preserve, so Extract returns
// the buffer unchanged, Replace returns the new payload as the whole
// file, and Remove is refused.
type tiffContainerAdapter struct{}

func (tiffContainerAdapter) Extract(buf []byte) ([]byte, bool, []Warning, error) {
	if len(buf) < tiffHeaderSize {
		return nil, false, nil, newErr(Truncated, "tiff file shorter than header")
	}
	if _, err := detectByteOrder(buf); err != nil {
		return nil, false, nil, err
	}
	return buf, true, nil, nil
}

func (tiffContainerAdapter) Replace(buf []byte, payload []byte) ([]byte, error) {
	return append([]byte(nil), payload...), nil
}

func (tiffContainerAdapter) Remove(buf []byte) ([]byte, error) {
	return nil, newErr(UnsupportedContainer,
		"a bare tiff file has no content without its tiff payload")
}
