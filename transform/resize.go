package transform

import (
	"errors"
	"fmt"
	"image"
	"math"

	"picedit/raster"

	"golang.org/x/image/draw"
)

// Kernels maps the interpolator names accepted on the command line and by
// the edit endpoint. "nearest" is handled by Resize itself.
var Kernels = map[string]draw.Interpolator{
	"approx":     draw.ApproxBiLinear,
	"bilinear":   draw.BiLinear,
	"catmullrom": draw.CatmullRom,
}

var ErrUnknownKernel = errors.New("unknown resize kernel")

// Kernel looks up an interpolator by name. "" and "nearest" select the
// nearest neighbour Resize and return a nil interpolator.
func Kernel(name string) (draw.Interpolator, error) {
	if name == "" || name == "nearest" {
		return nil, nil
	}
	interp, ok := Kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
	}
	return interp, nil
}

func checkTarget(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: target %dx%d", raster.ErrInvalidDimensions, width, height)
	}
	return nil
}

// Resize scales b to width by height with nearest neighbour sampling:
// output (x, y) takes source (x*W/width, y*H/height) rounded down.
func Resize(b *raster.Buffer, width, height int) (*raster.Buffer, error) {
	if err := checkTarget(width, height); err != nil {
		return nil, err
	}
	if width == b.Width && height == b.Height {
		return b.Clone(), nil
	}

	dst := &raster.Buffer{Width: width, Height: height, Pix: make([]uint8, width*height*4)}

	srcCols := make([]int, width)
	for x := range width {
		srcCols[x] = x * b.Width / width * 4
	}

	i := 0
	for y := range height {
		row := (y * b.Height / height) * b.Width * 4
		for _, col := range srcCols {
			s := row + col
			copy(dst.Pix[i:i+4], b.Pix[s:s+4])
			i += 4
		}
	}
	return dst, nil
}

// Scale resizes b through one of the x/image/draw kernels. A nil
// interpolator falls back to Resize.
func Scale(b *raster.Buffer, width, height int, interp draw.Interpolator) (*raster.Buffer, error) {
	if interp == nil {
		return Resize(b, width, height)
	}
	if err := checkTarget(width, height); err != nil {
		return nil, err
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	interp.Scale(dst, dst.Rect, b.Image(), b.Bounds(), draw.Src, nil)

	return raster.New(width, height, dst.Pix)
}

// Fit returns the largest size inside maxWidth by maxHeight keeping the
// srcWidth:srcHeight aspect ratio. A zero bound leaves that axis free. The
// result is never smaller than 1x1.
func Fit(srcWidth, srcHeight, maxWidth, maxHeight int) (int, int) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return max(maxWidth, 1), max(maxHeight, 1)
	}

	w, h := float64(srcWidth), float64(srcHeight)
	ar := w / h
	switch {
	case maxWidth <= 0 && maxHeight <= 0:
		return srcWidth, srcHeight
	case maxWidth <= 0:
		h = float64(maxHeight)
		w = h * ar
	case maxHeight <= 0:
		w = float64(maxWidth)
		h = w / ar
	default:
		w, h = float64(maxWidth), float64(maxHeight)
		if w/h > ar {
			w = h * ar
		} else {
			h = w / ar
		}
	}

	return max(int(math.Round(w)), 1), max(int(math.Round(h)), 1)
}
