package optimize

import (
	"image"
	"image/color"

	"picedit/raster"

	"github.com/ericpauley/go-quantize/quantize"
)

// opaque skips fully transparent pixels when colours are counted, they get a
// single transparent palette entry instead.
func opaque(img image.Image, x, y int) uint32 {
	if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
		return 0
	}
	return 1
}

func hasTransparent(b *raster.Buffer) bool {
	for i := 3; i < len(b.Pix); i += 4 {
		if b.Pix[i] == 0 {
			return true
		}
	}
	return false
}

// MedianCut builds a palette of at most n colours for b. Images with no more
// than n distinct opaque colours get their exact colours back.
func MedianCut(b *raster.Buffer, n int) color.Palette {
	n = min(max(n, 1), 256)

	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	if hasTransparent(b) {
		q.AddTransparent = true
		q.Weighting = opaque
	}
	return q.Quantize(make(color.Palette, 0, n), b.Image())
}
