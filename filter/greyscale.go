// Package filter applies per-pixel colour transforms. Unlike the transform
// package, filters rewrite the buffer they are given.
package filter

import "picedit/raster"

// luma weights in hundredths
const (
	lumaR = 30
	lumaG = 59
	lumaB = 11
)

// Luma returns round(0.30*r + 0.59*g + 0.11*b).
func Luma(r, g, b uint8) uint8 {
	return uint8((lumaR*uint32(r) + lumaG*uint32(g) + lumaB*uint32(b) + 50) / 100)
}

// Greyscale replaces every pixel's colour with its luma in place. Alpha is
// left untouched.
func Greyscale(b *raster.Buffer) {
	pix := b.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		p := pix[i : i+3 : i+3]
		l := Luma(p[0], p[1], p[2])
		p[0], p[1], p[2] = l, l, l
	}
}
