package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func seq(n int) []uint8 {
	pix := make([]uint8, n)
	for i := range pix {
		pix[i] = uint8(i)
	}
	return pix
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		pix     []uint8
		wantErr error
	}{
		{"valid", 2, 3, seq(24), nil},
		{"zero width", 0, 3, nil, ErrInvalidDimensions},
		{"negative height", 2, -1, nil, ErrInvalidDimensions},
		{"short pixels", 2, 2, seq(15), ErrSizeMismatch},
		{"long pixels", 1, 1, seq(5), ErrSizeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.width, tt.height, tt.pix)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b.Width != tt.width || b.Height != tt.height {
				t.Errorf("expected %dx%d, got %dx%d", tt.width, tt.height, b.Width, b.Height)
			}
		})
	}
}

func TestRegion(t *testing.T) {
	b, err := New(3, 3, seq(36))
	if err != nil {
		t.Fatal(err)
	}

	r, err := b.Region(1, 1, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Width != 2 || r.Height != 2 {
		t.Fatalf("expected 2x2 region, got %dx%d", r.Width, r.Height)
	}
	if got, want := r.At(0, 0), b.At(1, 1); got != want {
		t.Errorf("expected top left %v, got %v", want, got)
	}
	if got, want := r.At(1, 1), b.At(2, 2); got != want {
		t.Errorf("expected bottom right %v, got %v", want, got)
	}

	r.Pix[0] = 0xFF
	if b.Pix[b.offset(1, 1)] == 0xFF {
		t.Error("region shares memory with source buffer")
	}
}

func TestRegionBounds(t *testing.T) {
	b, _ := Blank(4, 4)

	tests := []struct {
		name       string
		x, y, w, h int
		wantErr    error
	}{
		{"whole", 0, 0, 4, 4, nil},
		{"too wide", 1, 0, 4, 1, ErrOutOfBounds},
		{"too tall", 0, 2, 1, 3, ErrOutOfBounds},
		{"negative origin", -1, 0, 1, 1, ErrOutOfBounds},
		{"empty", 0, 0, 0, 1, ErrInvalidDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Region(tt.x, tt.y, tt.w, tt.h)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			_, err = b.WithRegion(tt.x, tt.y, tt.w, tt.h, make([]uint8, max(tt.w*tt.h*4, 0)))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected replace error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected replace error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWithRegion(t *testing.T) {
	b, _ := Blank(3, 2)
	red := []uint8{255, 0, 0, 255, 255, 0, 0, 255}

	out, err := b.WithRegion(1, 1, 2, 1, red)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := color.NRGBA{R: 255, A: 255}
	for _, p := range []image.Point{{1, 1}, {2, 1}} {
		if got := out.At(p.X, p.Y); got != want {
			t.Errorf("pixel %v: expected %v, got %v", p, want, got)
		}
	}
	if got := out.At(0, 1); got != (color.NRGBA{}) {
		t.Errorf("untouched pixel changed: %v", got)
	}
	for _, v := range b.Pix {
		if v != 0 {
			t.Fatal("source buffer was modified")
		}
	}

	if _, err := b.WithRegion(0, 0, 1, 1, red); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("expected %v, got %v", ErrSizeMismatch, err)
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 12, 11))
	src.Set(10, 10, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	src.Set(11, 10, color.RGBA{R: 0, G: 0, B: 0, A: 0})

	b, err := FromImage(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Width != 2 || b.Height != 1 {
		t.Fatalf("expected 2x1, got %dx%d", b.Width, b.Height)
	}
	if got, want := b.At(0, 0), (color.NRGBA{R: 10, G: 20, B: 30, A: 255}); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := FromImage(image.NewRGBA(image.Rect(0, 0, 0, 5))); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("expected %v for empty image, got %v", ErrInvalidDimensions, err)
	}
}

func TestImageSharesPixels(t *testing.T) {
	b, _ := Blank(2, 2)
	img := b.Image()
	img.SetNRGBA(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 4})

	if got := b.At(1, 1); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 4}) {
		t.Errorf("expected write through image view, got %v", got)
	}
}
