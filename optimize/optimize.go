// Package optimize shrinks images by reducing them to a small palette and
// re-encoding them as paletted PNG with the best zlib compression.
package optimize

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"picedit/codec"
	"picedit/palette"
	"picedit/raster"

	"golang.org/x/image/draw"
)

type Options struct {
	// Colors caps the generated palette size, 2 to 256.
	Colors int `yaml:"colors"`
	// Dither enables Floyd-Steinberg error diffusion.
	Dither bool `yaml:"dither"`
	// Palette, when set, names a fixed palette used instead of a generated one.
	Palette string `yaml:"palette"`
	// Quality, 1 to 100, picks the palette size through Quality when Colors
	// is not set.
	Quality int `yaml:"quality"`
}

func DefaultOptions() Options {
	return Options{Quality: 100, Dither: true}
}

// Quality maps a 0 to 100 quality to a palette size.
func Quality(q int) int {
	q = min(max(q, 0), 100)
	return 2 + q*254/100
}

func (o Options) palette(b *raster.Buffer) (color.Palette, error) {
	if o.Palette != "" {
		return palette.Load(o.Palette)
	}

	n := o.Colors
	switch {
	case n == 0 && o.Quality > 0:
		n = Quality(o.Quality)
	case n == 0:
		n = 256
	}
	if n < 2 || n > 256 {
		return nil, fmt.Errorf("invalid palette size %d, expected 2 to 256", n)
	}
	return MedianCut(b, n), nil
}

// Paletted reduces b to the palette described by o.
func Paletted(b *raster.Buffer, o Options) (*image.Paletted, error) {
	pal, err := o.palette(b)
	if err != nil {
		return nil, err
	}

	r := b.Bounds()
	dst := image.NewPaletted(r, pal)
	if o.Dither {
		draw.FloydSteinberg.Draw(dst, r, b.Image(), r.Min)
	} else {
		draw.Draw(dst, r, b.Image(), r.Min, draw.Src)
	}
	return dst, nil
}

// PNG decodes src, reduces it and returns the compressed PNG bytes.
func PNG(src []byte, o Options) ([]byte, error) {
	b, _, err := codec.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	img, err := Paletted(b, o)
	if err != nil {
		return nil, fmt.Errorf("could not quantize image: %w", err)
	}

	var out bytes.Buffer
	if err := codec.EncodeImage(&out, img, "png"); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
