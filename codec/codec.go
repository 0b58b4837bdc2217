// Package codec turns image payloads into raster buffers and back.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"regexp"
	"strings"
	"sync"

	"picedit/raster"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

var (
	ErrDecode            = errors.New("could not decode image")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Formats lists the encodings accepted by Encode.
var Formats = []string{"png", "jpeg", "gif", "bmp", "tiff"}

var dataURIPrefix = regexp.MustCompile(`^data:image/[\w.+-]+;base64,`)

// Decode reads any registered image format and returns the buffer together
// with the format name reported by the decoder.
func Decode(r io.Reader) (*raster.Buffer, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}

	b, err := raster.FromImage(img)
	if err != nil {
		return nil, format, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return b, format, nil
}

// DecodeBase64 strips an optional data:image/...;base64, prefix and returns
// the raw payload.
func DecodeBase64(s string) ([]byte, error) {
	s = dataURIPrefix.ReplaceAllString(strings.TrimSpace(s), "")
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload: %w", ErrDecode, err)
	}
	return data, nil
}

func DecodeDataURI(s string) (*raster.Buffer, string, error) {
	data, err := DecodeBase64(s)
	if err != nil {
		return nil, "", err
	}
	return Decode(bytes.NewReader(data))
}

// Encode writes b to w in the given format.
func Encode(w io.Writer, b *raster.Buffer, format string) error {
	return EncodeImage(w, b.Image(), format)
}

// EncodeImage writes any image to w in the given format.
func EncodeImage(w io.Writer, img image.Image, format string) error {
	var err error
	switch format {
	case "gif":
		err = gif.Encode(w, img, nil)
	case "jpeg", "jpg":
		format = "jpeg"
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case "png":
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		err = enc.Encode(w, img)
	case "bmp":
		err = bmp.Encode(w, img)
	case "tiff":
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return fmt.Errorf("could not encode %s image: %w", strings.ToUpper(format), err)
	}
	return nil
}

// DataURI exports b as a base64 data URI, the payload the browser client
// downloads or posts back.
func DataURI(b *raster.Buffer, format string) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b, format); err != nil {
		return "", err
	}
	if format == "jpg" {
		format = "jpeg"
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
