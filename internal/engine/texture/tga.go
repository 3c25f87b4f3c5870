package texture

import (
	"encoding/binary"
	"fmt"
	"io"
)

// TGA image types with true-color pixels.
const (
	tgaTypeUncompressed = 2
	tgaTypeRLE          = 10
)

// decodeTGAHeader reads the 18-byte TGA header and returns the image size.
// Only true-color 24/32-bit images without a color map are accepted.
func decodeTGAHeader(r io.Reader) (width, height int, err error) {
	var hdr [18]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, fmt.Errorf("TGA header: %w", err)
	}

	colorMapType := hdr[1]
	imageType := hdr[2]
	bpp := hdr[16]

	if colorMapType != 0 {
		return 0, 0, fmt.Errorf("color-mapped TGA: %w", ErrUnsupportedFormat)
	}
	if imageType != tgaTypeUncompressed && imageType != tgaTypeRLE {
		return 0, 0, fmt.Errorf("TGA type %d: %w", imageType, ErrUnsupportedFormat)
	}
	if bpp != 24 && bpp != 32 {
		return 0, 0, fmt.Errorf("TGA bit depth %d: %w", bpp, ErrUnsupportedFormat)
	}

	width = int(binary.LittleEndian.Uint16(hdr[12:14]))
	height = int(binary.LittleEndian.Uint16(hdr[14:16]))
	return width, height, nil
}
