package main

import (
	"fmt"
	"math"
)

// Pixel conversion from the framebuffer's native encoding to the canonical
// raster: row-major, 3 bytes per pixel (R, G, B), 8 bits per channel, no
// row padding.

// rgb565 widens a packed 5:6:5 little-endian pixel to 8-bit channels by
// left-aligning each field and zero-filling the low bits. This matches the
// reference tool bit for bit; it is deliberately not a proportional rescale.
func rgb565(px uint16) (r, g, b uint8) {
	b = uint8(px&0x1f) << 3
	g = uint8((px & 0x7e0) >> 3)
	r = uint8((px & 0xf800) >> 8)
	return r, g, b
}

// convertNative decodes src, a mapped framebuffer of width*height pixels at
// the given bits-per-pixel, into a freshly allocated canonical raster.
//
// 16 bpp is RGB565; 32 bpp is stored B, G, R, X low to high (XRGB8888 on a
// little-endian machine), top byte ignored.
func convertNative(width, height, bpp int, src []byte) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d framebuffer", ErrUnsupportedFormat, width, height)
	}
	if bpp != 16 && bpp != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedFormat, bpp)
	}

	pixels := int64(width) * int64(height)
	if pixels*3 > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %dx%d", ErrOutOfMemory, width, height)
	}
	if need := pixels * int64(bpp/8); int64(len(src)) < need {
		return nil, fmt.Errorf("%w: mapped %d bytes, framebuffer needs %d", ErrMapFailed, len(src), need)
	}

	out := make([]byte, pixels*3)

	switch bpp {
	case 16:
		for i := int64(0); i < pixels; i++ {
			px := uint16(src[i*2]) | uint16(src[i*2+1])<<8
			r, g, b := rgb565(px)
			out[i*3] = r
			out[i*3+1] = g
			out[i*3+2] = b
		}
	case 32:
		for i := int64(0); i < pixels; i++ {
			out[i*3] = src[i*4+2]   // R
			out[i*3+1] = src[i*4+1] // G
			out[i*3+2] = src[i*4]   // B
		}
	}

	return out, nil
}
