// Package escpos converts a rendered receipt bitmap into the ESC/POS byte
// stream understood by generic 58mm thermal printers. Only the raster image
// (GS v 0) and paper cut commands are used; text mode is never touched
// because the receipt is printed as a single bitmap.
package escpos

import (
	"fmt"
	"image"
)

// LuminanceThreshold is the fixed cutoff below which a pixel prints black.
// Tuned for receipt contrast on low-cost thermal heads; changing it breaks
// parity with the deployed printers.
const LuminanceThreshold = 160

// Init returns ESC @ (printer initialize).
func Init() []byte {
	return []byte{0x1B, 0x40}
}

// AlignCenter returns ESC a 1 (center alignment).
func AlignCenter() []byte {
	return []byte{0x1B, 0x61, 0x01}
}

// Cut returns two line feeds followed by GS V 0 (feed and partial cut).
func Cut() []byte {
	return []byte{0x0A, 0x0A, 0x1D, 0x56, 0x00}
}

// Raster encodes img as a single GS v 0 raster block: 4 header bytes,
// row byte-width and height as little-endian uint16, then the packed
// monochrome rows. Rows are packed 8 horizontal pixels per byte, MSB is
// the leftmost pixel, and the final byte of each row is zero-padded when
// the width is not a multiple of 8.
func Raster(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("escpos: empty bitmap %dx%d", width, height)
	}
	if width > 0xFFFF || height > 0xFFFF {
		return nil, fmt.Errorf("escpos: bitmap %dx%d exceeds uint16 raster limits", width, height)
	}

	widthBytes := (width + 7) / 8
	out := make([]byte, 0, 8+widthBytes*height)
	out = append(out,
		0x1D, 0x76, 0x30, 0x00, // GS v 0, normal mode
		byte(widthBytes&0xFF), byte(widthBytes>>8),
		byte(height&0xFF), byte(height>>8),
	)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		var cur byte
		var filled int
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cur <<= 1
			if blackAt(img, x, y) {
				cur |= 1
			}
			filled++
			if filled == 8 {
				out = append(out, cur)
				cur, filled = 0, 0
			}
		}
		if filled > 0 {
			// Left-align the trailing pixels; the padding bits stay zero.
			out = append(out, cur<<(8-filled))
		}
	}
	return out, nil
}

// Encode produces the full print payload for one receipt:
// initialize, center alignment, raster image, feed and cut.
func Encode(img image.Image) ([]byte, error) {
	raster, err := Raster(img)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 0, len(raster)+10)
	payload = append(payload, Init()...)
	payload = append(payload, AlignCenter()...)
	payload = append(payload, raster...)
	payload = append(payload, Cut()...)
	return payload, nil
}

// blackAt applies the fixed luminance threshold to one pixel. Integer
// weights (299/587/114 per mille) keep the result identical on every
// platform, which the printers depend on.
func blackAt(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	lum := (299*int(r>>8) + 587*int(g>>8) + 114*int(b>>8)) / 1000
	return lum < LuminanceThreshold
}
