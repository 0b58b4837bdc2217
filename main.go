package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"picedit/config"
	"picedit/edit"
	"picedit/orient"
	"picedit/palette"
	"picedit/server"
	"picedit/session"

	"github.com/alecthomas/kong"
)

type serveCmd struct {
	Config string `help:"YAML configuration file" type:"path" default:"picedit.yaml"`
	Port   int    `help:"Listen port, overrides the configuration file"`
	Env    string `help:"Environment name, overrides the configuration file"`
	Client string `help:"Folder holding the editor client, overrides the configuration file" type:"path"`
}

func (c *serveCmd) Run(logger *slog.Logger) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.Env != "" {
		cfg.Environment = c.Env
	}
	if c.Client != "" {
		cfg.Server.ClientRoot = c.Client
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, logger).ListenAndServe(ctx)
}

type infoCmd struct {
	Files []string `arg:"" help:"Images to describe" type:"existingfile"`
	JSON  bool     `help:"Print details as JSON on stdout"`
}

func (c *infoCmd) Run(logger *slog.Logger) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	var errCount int
	for _, name := range c.Files {
		fileLog := logger.With("file", name)
		if err := describe(fileLog, name, c.JSON, enc); err != nil {
			errCount++
			fileLog.Error("could not describe image", "error", err)
		}
	}

	if errCount > 0 {
		return fmt.Errorf("error processing %d files", errCount)
	}
	return nil
}

func describe(logger *slog.Logger, name string, asJSON bool, enc *json.Encoder) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	sess, err := session.Load(f, logger)
	if err != nil {
		return err
	}
	if !asJSON {
		sess.LogDetails(nil)
		return nil
	}
	return enc.Encode(struct {
		File string `json:"file"`
		session.Details
	}{name, sess.Details()})
}

type palettesCmd struct {
	Export string `help:"Write this palette to a RIFF PAL file instead of listing"`
	Out    string `help:"Palette file written by --export" type:"path" default:"palette.pal"`
}

func (c *palettesCmd) Run(logger *slog.Logger) error {
	if c.Export != "" {
		if err := palette.Export(c.Export, c.Out); err != nil {
			return err
		}
		logger.Info("palette exported", "palette", c.Export, "to", c.Out)
		return nil
	}

	for _, name := range palette.Names() {
		fmt.Println(name)
	}
	return nil
}

type configCmd struct {
	Init struct {
		Path  string `arg:"" optional:"" help:"Configuration file to create" type:"path" default:"picedit.yaml"`
		Force bool   `help:"Overwrite an existing file"`
	} `cmd:"" help:"Write the default configuration"`
}

func (c *configCmd) Run(logger *slog.Logger) error {
	path := c.Init.Path
	if _, err := os.Stat(path); err == nil && !c.Init.Force {
		return fmt.Errorf("configuration file %q already exists", path)
	}
	if err := config.Save(config.DefaultConfig(), path); err != nil {
		return err
	}
	logger.Info("configuration written", "path", path)
	return nil
}

type cli struct {
	LogLevel  slog.Level `help:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string     `help:"Log output format" enum:"text,json" default:"text"`

	Serve    serveCmd      `cmd:"" help:"Serve the browser editor and its image endpoints"`
	Edit     edit.CLICmd   `cmd:"" help:"Rotate, resize, filter and re-palette every image in a folder"`
	Orient   orient.CLICmd `cmd:"" help:"Sort images into one orientation, rotating the others"`
	Info     infoCmd       `cmd:"" help:"Report size and colour statistics of images"`
	Palettes palettesCmd   `cmd:"" help:"List or export built-in palettes"`
	Config   configCmd     `cmd:"" help:"Manage the server configuration file"`
}

func (c *cli) logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("picedit"),
		kong.Description("Picture editor: a browser editor server plus batch tools."),
		kong.UsageOnError(),
	)

	logger := c.logger()
	slog.SetDefault(logger)

	if err := kctx.Run(logger); err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
