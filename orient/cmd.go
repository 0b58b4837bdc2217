package orient

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
)

type OpParams struct {
	Scan string `help:"Source folder to scan" default:"."`
	Dest string `help:"Destination folder. Relative to scan dir if not absolute." default:"oriented"`
	To   string `help:"Orientation every image should end up in" enum:"landscape,portrait" default:"landscape"`
	Turn int    `help:"Quarter turn applied to images in the other orientation, 90 or -90" default:"90"`
}

type CLICmd struct {
	Cp struct {
		OpParams
	} `cmd:"" help:"Copy images to the destination, rotating those in the wrong orientation"`
	Mv struct {
		OpParams
	} `cmd:"" help:"Move images to the destination, rotating those in the wrong orientation"`
}

func (c *CLICmd) params(subCmd string) (*OpParams, error) {
	switch subCmd {
	case "cp":
		return &c.Cp.OpParams, nil
	case "mv":
		return &c.Mv.OpParams, nil
	}
	return nil, fmt.Errorf("unsupported operation: %q", subCmd)
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	conf, err := c.params(kctx.Selected().Name)
	if err != nil {
		return err
	}
	return conf.validate()
}

func (p *OpParams) validate() error {
	scanDir, err := filepath.Abs(p.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", p.Scan, err)
	}
	p.Scan = scanDir

	if !filepath.IsAbs(p.Dest) {
		p.Dest = filepath.Join(scanDir, p.Dest)
	}

	if p.Turn != 90 && p.Turn != -90 {
		return fmt.Errorf("invalid turn: %d", p.Turn)
	}
	return nil
}

func (c *CLICmd) Run(kctx *kong.Context, logger *slog.Logger) error {
	subCmd := kctx.Selected().Name
	conf, err := c.params(subCmd)
	if err != nil {
		return err
	}
	_, err = conf.run(logger, subCmd == "mv")
	return err
}

// wants reports whether an image of the given size is already in the target
// orientation. Square images fit either.
func (p *OpParams) wants(cfg image.Config) bool {
	if p.To == "portrait" {
		return cfg.Height >= cfg.Width
	}
	return cfg.Width >= cfg.Height
}

// tally counts the outcome of a run. Failed files are only counted as
// failed.
type tally struct {
	kept, rotated, failed int
}

func (p *OpParams) run(logger *slog.Logger, move bool) (tally, error) {
	var t tally
	if err := os.MkdirAll(p.Dest, 0o755); err != nil {
		return t, fmt.Errorf("unable to create destination folder %q: %w", p.Dest, err)
	}

	files, err := os.ReadDir(p.Scan)
	if err != nil {
		return t, fmt.Errorf("unable to read folder %q: %w", p.Scan, err)
	}

	fileOp := copyFile
	if move {
		fileOp = moveFile
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		name := filepath.Join(p.Scan, file.Name())
		dest := filepath.Join(p.Dest, file.Name())
		fileLog := logger.With("file", name)

		imgConf, err := decodeConfig(name)
		if err != nil {
			t.failed++
			fileLog.Error("could not read image", "error", err)
			continue
		}

		counter := &t.kept
		if p.wants(imgConf) {
			err = fileOp(fileLog, name, dest)
		} else {
			counter = &t.rotated
			err = rotateFile(fileLog, name, p.Dest, p.Turn, move)
		}
		if err != nil {
			t.failed++
			fileLog.Error("could not operate image", "to", p.Dest, "error", err)
			continue
		}
		*counter++
	}

	logger.Info("stats", "kept", t.kept, "rotated", t.rotated, "errors", t.failed, "to", p.To)

	if t.failed > 0 {
		return t, fmt.Errorf("error processing %d files", t.failed)
	}
	return t, nil
}

func decodeConfig(name string) (image.Config, error) {
	img, err := os.Open(name)
	if err != nil {
		return image.Config{}, err
	}
	defer img.Close()

	cfg, _, err := image.DecodeConfig(img)
	return cfg, err
}
