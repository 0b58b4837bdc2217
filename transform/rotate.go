package transform

import (
	"errors"
	"fmt"

	"picedit/raster"
)

var ErrUnsupportedAngle = errors.New("unsupported rotation angle")

// Orientation is the cumulative quarter-turn rotation of the displayed image,
// always one of 0, 90, 180 or 270.
type Orientation int

func quarterTurns(degrees int) (int, error) {
	if degrees%90 != 0 {
		return 0, fmt.Errorf("%w: %d degrees is not a multiple of 90", ErrUnsupportedAngle, degrees)
	}
	return ((degrees/90)%4 + 4) % 4, nil
}

// Rotate returns the orientation after turning by degrees clockwise.
func (o Orientation) Rotate(degrees int) (Orientation, error) {
	turns, err := quarterTurns(degrees)
	if err != nil {
		return o, err
	}
	return Orientation((int(o) + turns*90) % 360), nil
}

func (o Orientation) Degrees() int {
	return int(o)
}

// Rotate turns b clockwise by degrees, which must be a multiple of 90.
// Negative angles turn counter-clockwise. The input buffer is never modified.
func Rotate(b *raster.Buffer, degrees int) (*raster.Buffer, error) {
	turns, err := quarterTurns(degrees)
	if err != nil {
		return nil, err
	}

	switch turns {
	case 1:
		return quarterTurn(b, true), nil
	case 2:
		return halfTurn(b), nil
	case 3:
		return quarterTurn(b, false), nil
	}
	return b.Clone(), nil
}

// quarterTurn swaps the dimensions. Destination (x, y) reads source
// (y, dw-1-x) clockwise and (dh-1-y, x) counter-clockwise.
func quarterTurn(b *raster.Buffer, clockwise bool) *raster.Buffer {
	dw, dh := b.Height, b.Width
	dst := &raster.Buffer{Width: dw, Height: dh, Pix: make([]uint8, len(b.Pix))}

	i := 0
	for y := range dh {
		for x := range dw {
			sx, sy := y, dw-1-x
			if !clockwise {
				sx, sy = dh-1-y, x
			}
			s := (sy*b.Width + sx) * 4
			copy(dst.Pix[i:i+4], b.Pix[s:s+4])
			i += 4
		}
	}
	return dst
}

func halfTurn(b *raster.Buffer) *raster.Buffer {
	dst := &raster.Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}

	last := len(b.Pix) - 4
	for i := 0; i <= last; i += 4 {
		copy(dst.Pix[last-i:last-i+4], b.Pix[i:i+4])
	}
	return dst
}
