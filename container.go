package eximg

import (
	"path/filepath"
	"strings"
)

// ContainerKind identifies which Container Adapter a buffer or path
// should be routed through.
type ContainerKind uint8

const (
	ContainerPNG ContainerKind = iota
	ContainerJPEG
	ContainerTIFF
	ContainerWebP
	ContainerJXL
	ContainerHEIF
)

func (k ContainerKind) String() string {
	switch k {
	case ContainerPNG:
		return "png"
	case ContainerJPEG:
		return "jpeg"
	case ContainerTIFF:
		return "tiff"
	case ContainerWebP:
		return "webp"
	case ContainerJXL:
		return "jxl"
	case ContainerHEIF:
		return "heif"
	default:
		return "unknown"
	}
}

// ContainerKindFromExt infers a ContainerKind from a file path's
// extension, the way the teacher's exifstat harness dispatched on
// command-line arguments, generalized into a table.
func ContainerKindFromExt(path string) (ContainerKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png":
		return ContainerPNG, nil
	case ".jpg", ".jpeg":
		return ContainerJPEG, nil
	case ".tif", ".tiff":
		return ContainerTIFF, nil
	case ".webp":
		return ContainerWebP, nil
	case ".jxl":
		return ContainerJXL, nil
	case ".heif", ".heic", ".hif":
		return ContainerHEIF, nil
	default:
		return 0, newErr(ContainerInference, "unrecognized file extension "+ext)
	}
}

// ContainerKindFromMagic inspects a buffer's leading bytes to infer
// its container kind when no file extension is available (e.g. a
// buffer read from a network stream), returning a ContainerInference
// error when no recognized signature matches.
func ContainerKindFromMagic(buf []byte) (ContainerKind, error) {
	switch {
	case len(buf) >= 8 && string(buf[:8]) == "\x89PNG\r\n\x1a\n":
		return ContainerPNG, nil
	case len(buf) >= 2 && buf[0] == 0xff && buf[1] == 0xd8:
		return ContainerJPEG, nil
	case len(buf) >= 4 && (string(buf[:2]) == "II" || string(buf[:2]) == "MM"):
		return ContainerTIFF, nil
	case len(buf) >= 12 && string(buf[:4]) == "RIFF" && string(buf[8:12]) == "WEBP":
		return ContainerWebP, nil
	case len(buf) >= 2 && buf[0] == 0xff && buf[1] == 0x0a:
		return ContainerJXL, nil
	case len(buf) >= 12 && string(buf[4:8]) == "JXL ":
		return ContainerJXL, nil
	case len(buf) >= 12 && string(buf[4:8]) == "ftyp":
		return ContainerHEIF, nil
	default:
		return 0, newErr(ContainerInference, "no recognized container signature")
	}
}

// containerAdapter is the contract every format-specific file in this
// package implements: locate the embedded Exif payload (if any),
// replace it, or insert a fresh one, all while preserving every other
// byte of container framing (chunk CRCs, segment lengths, box sizes).
type containerAdapter interface {
	// Extract returns the raw Exif payload bytes (starting at the
	// "Exif\0\0" signature, or at the TIFF header for containers that
	// don't use the signature) and true if present, plus any recoverable
	// container-level integrity warnings (e.g. a PNG chunk CRC mismatch)
	// observed along the way.
	Extract(buf []byte) ([]byte, bool, []Warning, error)

	// Replace returns a new buffer with the Exif payload replaced (or
	// inserted if absent), preserving every other container field.
	Replace(buf []byte, payload []byte) ([]byte, error)

	// Remove returns a new buffer with the Exif payload removed.
	Remove(buf []byte) ([]byte, error)
}

func adapterFor(kind ContainerKind) containerAdapter {
	switch kind {
	case ContainerPNG:
		return pngAdapter{}
	case ContainerJPEG:
		return jpegAdapter{}
	case ContainerTIFF:
		return tiffContainerAdapter{}
	case ContainerWebP:
		return webpAdapter{}
	case ContainerJXL:
		return jxlAdapter{}
	case ContainerHEIF:
		return heifAdapter{}
	default:
		return nil
	}
}
