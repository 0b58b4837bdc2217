// Package palette provides the fixed colour palettes used to quantise images
// and reads or writes them as RIFF PAL files.
package palette

import (
	"fmt"
	"image/color"
	stdpal "image/color/palette"
	"os"
	"slices"
	"strings"
)

var named = map[string]func() color.Palette{
	"bw": func() color.Palette {
		return color.Palette{color.Black, color.White}
	},
	"gray16": func() color.Palette {
		pal := make(color.Palette, 16)
		for i := range pal {
			pal[i] = color.Gray{Y: uint8(i * 0x11)}
		}
		return pal
	},
	"vga16": func() color.Palette {
		pal := make(color.Palette, 0, 16)
		for _, rgb := range []uint32{
			0x000000, 0x0000AA, 0x00AA00, 0x00AAAA, 0xAA0000, 0xAA00AA, 0xAA5500, 0xAAAAAA,
			0x555555, 0x5555FF, 0x55FF55, 0x55FFFF, 0xFF5555, 0xFF55FF, 0xFFFF55, 0xFFFFFF,
		} {
			pal = append(pal, color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xFF})
		}
		return pal
	},
	"web216": func() color.Palette {
		return slices.Clone(stdpal.WebSafe)
	},
	"plan9": func() color.Palette {
		return slices.Clone(stdpal.Plan9)
	},
}

// Names lists the built-in palette names in sorted order.
func Names() []string {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load returns a built-in palette by name, or reads every palette in the
// RIFF PAL file at that path and merges them.
func Load(name string) (color.Palette, error) {
	if mk, ok := named[strings.ToLower(name)]; ok {
		return mk(), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("unknown palette %q: %w", name, err)
	}
	defer f.Close()

	pals, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("could not load palette file %q: %w", name, err)
	}

	var res color.Palette
	for _, pal := range pals {
		res = append(res, pal...)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("palette file %q has no colors", name)
	} else if len(res) > 256 {
		return nil, fmt.Errorf("palette file %q has %d colors, at most 256 are supported", name, len(res))
	}
	return res, nil
}

// Export writes the palette called name to path as a RIFF PAL file.
func Export(name, path string) error {
	pal, err := Load(name)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create palette file %q: %w", path, err)
	}
	if _, err := WriteTo(f, []color.Palette{pal}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close palette file %q: %w", path, err)
	}
	return nil
}
