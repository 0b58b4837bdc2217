package edit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"picedit/codec"
	"picedit/optimize"
	"picedit/palette"
	"picedit/parallel"
	"picedit/session"
	"picedit/transform"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Scan       string `help:"Source folder to scan" default:"."`
	Dest       string `help:"Destination folder for edited pictures. Relative to scan dir if not absolute. If same as scan dir, will overwrite source files." default:"edited"`
	Rotate     int    `help:"Rotate clockwise by this many degrees, a multiple of 90. Negative values rotate counter-clockwise." default:"0" group:"rotate"`
	Resize     bool   `help:"Resize image" default:"false" group:"resize"`
	Width      int    `help:"Target width" group:"resize"`
	Height     int    `help:"Target height" group:"resize"`
	KeepAspect bool   `help:"Treat width and height as a bounding box and keep the aspect ratio" default:"false" group:"resize"`
	Kernel     string `help:"Resampling kernel" enum:"nearest,approx,bilinear,catmullrom" default:"nearest" group:"resize"`
	Greyscale  bool   `help:"Convert to greyscale" default:"false" group:"filter"`
	Palette    string `help:"Palette name (bw, gray16, vga16, web216, plan9) or PAL file in RIFF format to apply" group:"palette"`
	Colors     int    `help:"Reduce to an optimized palette of this many colors (2-256)" group:"palette"`
	Quality    int    `help:"Reduce to an optimized palette sized by this quality (1-100)" group:"palette"`
	Dither     bool   `help:"Apply dithering" default:"false" group:"palette"`
	Format     string `help:"Output format of edited image. If prefixed with 'unsup:' will convert only unsupported formats" enum:"same,gif,unsup:gif,jpeg,unsup:jpeg,png,unsup:png,bmp,unsup:bmp,tiff,unsup:tiff" default:"unsup:png"`
	Workers    int    `help:"Number of parallel workers, 0 for one per CPU" default:"0"`
	Requests   string `help:"JSON file with a list of edit requests, applied after the flag edits" type:"existingfile"`

	script []session.Request
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if _, err := transform.Orientation(0).Rotate(c.Rotate); err != nil {
		return err
	}

	if c.Resize {
		switch {
		case c.Width < 0:
			return fmt.Errorf("invalid resize width: %d", c.Width)
		case c.Height < 0:
			return fmt.Errorf("invalid resize height: %d", c.Height)
		case c.Width == 0 && c.Height == 0:
			return fmt.Errorf("no resize dimensions given")
		case !c.KeepAspect && (c.Width == 0 || c.Height == 0):
			return fmt.Errorf("both resize dimensions are needed without --keep-aspect")
		}
	}

	if c.Colors != 0 && (c.Colors < 2 || c.Colors > 256) {
		return fmt.Errorf("invalid palette size: %d", c.Colors)
	}
	if c.Quality < 0 || c.Quality > 100 {
		return fmt.Errorf("invalid quality: %d", c.Quality)
	}
	if c.Palette != "" {
		if _, err := palette.Load(c.Palette); err != nil {
			return err
		}
	}

	if c.Requests != "" {
		data, err := os.ReadFile(c.Requests)
		if err != nil {
			return fmt.Errorf("could not read requests file: %w", err)
		}
		if c.script, err = session.ParseRequests(data); err != nil {
			return err
		}
	}

	return nil
}

// requests builds the edit sequence for an image of the given size.
func (c *CLICmd) requests(width, height int) []session.Request {
	var reqs []session.Request
	if c.Rotate != 0 {
		reqs = append(reqs, session.RotateBy(c.Rotate))
		if c.Rotate%180 != 0 {
			width, height = height, width
		}
	}
	if c.Resize {
		w, h := c.Width, c.Height
		if c.KeepAspect {
			w, h = transform.Fit(width, height, c.Width, c.Height)
		}
		reqs = append(reqs, session.Request{Kind: session.Resize, Width: w, Height: h, Kernel: c.Kernel})
	}
	if c.Greyscale {
		reqs = append(reqs, session.Greyscaled())
	}
	return append(reqs, c.script...)
}

func (c *CLICmd) quantize() *optimize.Options {
	if c.Palette == "" && c.Colors == 0 && c.Quality == 0 {
		return nil
	}
	return &optimize.Options{Colors: c.Colors, Quality: c.Quality, Dither: c.Dither, Palette: c.Palette}
}

func (c *CLICmd) Run(logger *slog.Logger) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	pool := parallel.Start(c.Workers)
	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		fileName := file.Name()
		pool.Go(func() {
			fileLog := logger.With("file", filepath.Join(c.Scan, fileName))
			if err := c.process(fileLog, fileName); err != nil {
				errCount.Add(1)
				fileLog.Error("could not edit image", "error", err)
				return
			}
			processedCount.Add(1)
		})
	}
	pool.Wait()

	processed := processedCount.Load()
	errors := errCount.Load()
	logger.Info("stats", "processed", processed, "errors", errors, "total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}

func (c *CLICmd) process(logger *slog.Logger, fileName string) error {
	imgFile, err := os.Open(filepath.Join(c.Scan, fileName))
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}
	defer imgFile.Close()

	b, imgType, err := codec.Decode(imgFile)
	if err != nil {
		return err
	}

	sess := session.New(b, logger)
	if err := sess.ApplyAll(c.requests(b.Width, b.Height)); err != nil {
		return err
	}

	if opts := c.quantize(); opts != nil {
		logger.Info("applying palette", "palette", opts.Palette, "colors", opts.Colors)
		img, err := optimize.Paletted(sess.Buffer(), *opts)
		if err != nil {
			return fmt.Errorf("could not change image palette: %w", err)
		}
		return save(logger, img, imgType, c.Format, c.Dest, fileName)
	}

	return save(logger, sess.Buffer().Image(), imgType, c.Format, c.Dest, fileName)
}
