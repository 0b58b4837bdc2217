// Package config loads the server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"picedit/optimize"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Environment is informational, e.g. "development" or "production".
	Environment string `yaml:"environment"`

	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		// ClientRoot is the directory holding the built browser client.
		ClientRoot string `yaml:"clientRoot"`
		// MaxBodyBytes limits uploaded image payloads.
		MaxBodyBytes int64 `yaml:"maxBodyBytes"`
		Gzip         bool  `yaml:"gzip"`
	} `yaml:"server"`

	Optimize optimize.Options `yaml:"optimize"`

	Editor struct {
		// ExportFormat is the default format of edited images.
		ExportFormat string `yaml:"exportFormat"`
	} `yaml:"editor"`
}

func DefaultConfig() *Config {
	cfg := &Config{Environment: "development"}

	cfg.Server.Port = 8080
	cfg.Server.ClientRoot = "client"
	cfg.Server.MaxBodyBytes = 32 << 20
	cfg.Server.Gzip = true

	cfg.Optimize = optimize.DefaultOptions()
	cfg.Editor.ExportFormat = "png"

	return cfg
}

// Load reads the configuration file at path on top of the defaults. A
// missing file yields the defaults. The PORT environment variable, when
// set, overrides the configured port.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("could not read config file %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("could not parse config file %q: %w", path, err)
			}
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid body size limit: %d", c.Server.MaxBodyBytes)
	}
	if n := c.Optimize.Colors; n != 0 && (n < 2 || n > 256) {
		return fmt.Errorf("invalid optimize palette size: %d", n)
	}
	if q := c.Optimize.Quality; q < 0 || q > 100 {
		return fmt.Errorf("invalid optimize quality: %d", q)
	}
	return nil
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write config file %q: %w", path, err)
	}
	return nil
}
