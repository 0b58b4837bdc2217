// Package raster holds the pixel grid every editor operation works on.
//
// A Buffer is treated as an immutable value: operations that change its
// dimensions return a new Buffer. The filter package is the one exception
// and rewrites pixels in place.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

var (
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrSizeMismatch      = errors.New("pixel data size mismatch")
	ErrOutOfBounds       = errors.New("region out of bounds")
)

// Buffer is a non-premultiplied RGBA pixel grid. The pixel at (x, y) starts
// at Pix[(y*Width+x)*4].
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// New validates the dimensions against pix and takes ownership of it.
func New(width, height int, pix []uint8) (*Buffer, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: got %d values for %dx%d, want %d", ErrSizeMismatch, len(pix), width, height,
			width*height*4)
	}

	return &Buffer{Width: width, Height: height, Pix: pix}, nil
}

func Blank(width, height int) (*Buffer, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	return &Buffer{Width: width, Height: height, Pix: make([]uint8, width*height*4)}, nil
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}

func (b *Buffer) offset(x, y int) int {
	return (y*b.Width + x) * 4
}

func (b *Buffer) At(x, y int) color.NRGBA {
	i := b.offset(x, y)
	p := b.Pix[i : i+4 : i+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

func (b *Buffer) Set(x, y int, c color.NRGBA) {
	i := b.offset(x, y)
	p := b.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

func (b *Buffer) checkRegion(x, y, w, h int) error {
	if err := checkDimensions(w, h); err != nil {
		return err
	}
	if x < 0 || y < 0 || x+w > b.Width || y+h > b.Height {
		return fmt.Errorf("%w: %dx%d+%d+%d exceeds %dx%d", ErrOutOfBounds, w, h, x, y, b.Width, b.Height)
	}
	return nil
}

// Region returns a copy of the w by h rectangle whose top left corner is at (x, y).
func (b *Buffer) Region(x, y, w, h int) (*Buffer, error) {
	if err := b.checkRegion(x, y, w, h); err != nil {
		return nil, err
	}

	dst := &Buffer{Width: w, Height: h, Pix: make([]uint8, w*h*4)}
	rowLen := w * 4
	for row := range h {
		src := b.offset(x, y+row)
		copy(dst.Pix[row*rowLen:(row+1)*rowLen], b.Pix[src:src+rowLen])
	}
	return dst, nil
}

// WithRegion returns a new buffer where the w by h rectangle at (x, y) holds pix.
func (b *Buffer) WithRegion(x, y, w, h int, pix []uint8) (*Buffer, error) {
	if err := b.checkRegion(x, y, w, h); err != nil {
		return nil, err
	}
	if len(pix) != w*h*4 {
		return nil, fmt.Errorf("%w: got %d values for %dx%d region, want %d", ErrSizeMismatch, len(pix), w, h, w*h*4)
	}

	dst := b.Clone()
	rowLen := w * 4
	for row := range h {
		off := dst.offset(x, y+row)
		copy(dst.Pix[off:off+rowLen], pix[row*rowLen:(row+1)*rowLen])
	}
	return dst, nil
}

func (b *Buffer) Clone() *Buffer {
	return &Buffer{Width: b.Width, Height: b.Height, Pix: bytes.Clone(b.Pix)}
}

func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.Width == o.Width && b.Height == o.Height && bytes.Equal(b.Pix, o.Pix)
}

func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Image exposes the buffer as an *image.NRGBA sharing the same pixel memory.
func (b *Buffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   b.Bounds(),
	}
}

// FromImage copies any decoded image into a new buffer.
func FromImage(img image.Image) (*Buffer, error) {
	r := img.Bounds()
	b, err := Blank(r.Dx(), r.Dy())
	if err != nil {
		return nil, err
	}

	if src, ok := img.(*image.NRGBA); ok && src.Stride == r.Dx()*4 {
		copy(b.Pix, src.Pix[src.PixOffset(r.Min.X, r.Min.Y):])
		return b, nil
	}

	draw.Draw(b.Image(), b.Bounds(), img, r.Min, draw.Src)
	return b, nil
}
