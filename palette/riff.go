package palette

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/riff"
)

// RIFF PAL layout, one data chunk per palette:
//
//	WORD  palVersion (0x0300)
//	WORD  palNumEntries
//	PALETTEENTRY{BYTE red, green, blue, flags} x palNumEntries

var (
	riffType = riff.FourCC{'R', 'I', 'F', 'F'}
	palType  = riff.FourCC{'P', 'A', 'L', ' '}
	dataType = riff.FourCC{'d', 'a', 't', 'a'}
)

const palVersion = 0x0300

type palHeader struct {
	Version uint16
	Count   uint16
}

// ReadFrom reads every palette stored in a RIFF PAL stream.
func ReadFrom(r io.Reader) ([]color.Palette, error) {
	formType, rd, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not open RIFF stream: %w", err)
	} else if formType != palType {
		return nil, fmt.Errorf("unsupported RIFF content type: %q", formType[:])
	}

	return readChunks(rd, "PAL")
}

func readChunks(r *riff.Reader, ident string) ([]color.Palette, error) {
	var res []color.Palette
	for {
		id, size, data, err := r.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		} else if err != nil {
			return res, fmt.Errorf("could not read chunk %s#%d: %w", ident, len(res), err)
		}

		switch id {
		case riff.LIST:
			listType, list, err := riff.NewListReader(size, data)
			if err != nil {
				return res, fmt.Errorf("could not read list %s#%d: %w", ident, len(res), err)
			} else if listType != palType {
				return res, fmt.Errorf("list %s#%d has unsupported type %q", ident, len(res), listType[:])
			}
			sub, err := readChunks(list, fmt.Sprintf("%s#%d", ident, len(res)))
			res = append(res, sub...)
			if err != nil {
				return res, err
			}
		case dataType:
			pal, err := readPalette(data)
			if err != nil {
				return res, fmt.Errorf("could not read palette %s#%d: %w", ident, len(res), err)
			}
			res = append(res, pal)
		default:
			return res, fmt.Errorf("unsupported chunk type in %s#%d: %q", ident, len(res), id[:])
		}
	}
}

func readPalette(r io.Reader) (color.Palette, error) {
	var hdr palHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("could not read header: %w", err)
	}
	if hdr.Version != palVersion {
		return nil, fmt.Errorf("unsupported palette version %#04x", hdr.Version)
	}

	entries := make([]byte, int(hdr.Count)*4)
	if _, err := io.ReadFull(r, entries); err != nil {
		return nil, fmt.Errorf("could not read %d colors: %w", hdr.Count, err)
	}

	pal := make(color.Palette, hdr.Count)
	for i := range pal {
		e := entries[i*4 : i*4+3]
		pal[i] = color.RGBA{R: e[0], G: e[1], B: e[2], A: 0xFF}
	}
	return pal, nil
}

// WriteTo stores pals as a RIFF PAL stream and returns the number of bytes
// written.
func WriteTo(w io.Writer, pals []color.Palette) (int64, error) {
	var body bytes.Buffer
	body.Write(palType[:])
	for i, pal := range pals {
		if len(pal) > 0xFFFF {
			return 0, fmt.Errorf("palette %d has too many colors: %d", i, len(pal))
		}

		body.Write(dataType[:])
		_ = binary.Write(&body, binary.LittleEndian, uint32(4+len(pal)*4))
		_ = binary.Write(&body, binary.LittleEndian, palHeader{Version: palVersion, Count: uint16(len(pal))})
		for _, col := range pal {
			c := color.RGBAModel.Convert(col).(color.RGBA)
			body.Write([]byte{c.R, c.G, c.B, 0})
		}
	}

	var hdr bytes.Buffer
	hdr.Write(riffType[:])
	_ = binary.Write(&hdr, binary.LittleEndian, uint32(body.Len()))

	n, err := io.Copy(w, io.MultiReader(&hdr, &body))
	if err != nil {
		return n, fmt.Errorf("could not write palette: %w", err)
	}
	return n, nil
}
