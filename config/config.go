// Package config loads the rdl2 settings: where class definitions live
// and the defaults the codecs are run with.
//
// Settings come from an optional TOML file. The RDL2_DSO_PATH environment
// variable overrides dso_path.
//
//	dso_path = "~/rdl2/classes:/studio/classes"
//	proxy_mode = false
//	log_level = "info"
//
//	[text]
//	skip_defaults = true
//	elements_per_line = 8
//
//	[binary]
//	compress = true
//	split_threshold = 1048576
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/Neumenon/rdl2/dso"
	"github.com/Neumenon/rdl2/rdl"
	"github.com/Neumenon/rdl2/rdla"
	"github.com/Neumenon/rdl2/rdlb"
)

// ErrDsoPathMissing is returned by Validate when neither the config file
// nor the environment names a dso path.
var ErrDsoPathMissing = errors.New("config: dso path not set (set dso_path or " + dso.EnvDsoPath + ")")

// Config holds every setting.
type Config struct {
	DsoPath   string       `toml:"dso_path"`
	ProxyMode bool         `toml:"proxy_mode"`
	LogLevel  string       `toml:"log_level"`
	Text      TextConfig   `toml:"text"`
	Binary    BinaryConfig `toml:"binary"`

	// Path is the file the settings were read from, empty when none was.
	Path string `toml:"-"`
}

// TextConfig holds the rdla reader and writer defaults.
type TextConfig struct {
	SkipDefaults     bool `toml:"skip_defaults"`
	ElementsPerLine  int  `toml:"elements_per_line"`
	WarningsAsErrors bool `toml:"warnings_as_errors"`
}

// BinaryConfig holds the rdlb reader and writer defaults.
type BinaryConfig struct {
	SkipDefaults     bool `toml:"skip_defaults"`
	Compress         bool `toml:"compress"`
	SplitThreshold   int  `toml:"split_threshold"`
	Transient        bool `toml:"transient"`
	WarningsAsErrors bool `toml:"warnings_as_errors"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Text:     TextConfig{SkipDefaults: true},
		Binary:   BinaryConfig{SkipDefaults: true},
	}
}

// DefaultPath returns ~/.config/rdl2/config.toml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	return filepath.Join(home, ".config", "rdl2", "config.toml"), nil
}

// Load reads the settings. An empty path reads DefaultPath when it
// exists; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		cfg.Path = path
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: %w", err)
	}

	if env := os.Getenv(dso.EnvDsoPath); env != "" {
		cfg.DsoPath = env
	}
	if cfg.DsoPath, err = expandList(cfg.DsoPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return errors.New(strict.String())
		}
		return err
	}
	return nil
}

// expandList expands a leading ~ in every element of a path list.
func expandList(list string) (string, error) {
	if list == "" {
		return "", nil
	}
	parts := filepath.SplitList(list)
	for i, p := range parts {
		expanded, err := homedir.Expand(strings.TrimSpace(p))
		if err != nil {
			return "", fmt.Errorf("config: dso path: %w", err)
		}
		parts[i] = expanded
	}
	return strings.Join(parts, string(os.PathListSeparator)), nil
}

// Validate checks the settings a scene context needs.
func (c *Config) Validate() error {
	if len(dso.SplitPath(c.DsoPath)) == 0 {
		return ErrDsoPathMissing
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Text.ElementsPerLine < 0 {
		return fmt.Errorf("config: text.elements_per_line must not be negative, got %d", c.Text.ElementsPerLine)
	}
	if c.Binary.SplitThreshold < 0 {
		return fmt.Errorf("config: binary.split_threshold must not be negative, got %d", c.Binary.SplitThreshold)
	}
	return nil
}

// Level parses LogLevel. An empty level is info.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

// ============================================================
// Wiring
// ============================================================

// ContextOptions returns the scene context options for these settings:
// a dso class source over DsoPath and the proxy mode.
func (c *Config) ContextOptions(logger *slog.Logger) []rdl.ContextOption {
	return []rdl.ContextOption{
		rdl.WithLogger(logger),
		rdl.WithClassSource(dso.NewSource(dso.WithLogger(logger))),
		rdl.WithDsoPath(c.DsoPath),
		rdl.WithProxyMode(c.ProxyMode),
	}
}

// TextWriterOptions returns the rdla writer defaults.
func (c *Config) TextWriterOptions() []rdla.WriterOption {
	return []rdla.WriterOption{
		rdla.SkipDefaults(c.Text.SkipDefaults),
		rdla.ElementsPerLine(c.Text.ElementsPerLine),
	}
}

// TextReaderOptions returns the rdla reader defaults.
func (c *Config) TextReaderOptions() []rdla.ReaderOption {
	return []rdla.ReaderOption{rdla.WarningsAsErrors(c.Text.WarningsAsErrors)}
}

// BinaryWriterOptions returns the rdlb writer defaults.
func (c *Config) BinaryWriterOptions() []rdlb.WriterOption {
	return []rdlb.WriterOption{
		rdlb.SkipDefaults(c.Binary.SkipDefaults),
		rdlb.Compress(c.Binary.Compress),
		rdlb.SplitMode(c.Binary.SplitThreshold),
		rdlb.Transient(c.Binary.Transient),
	}
}

// BinaryReaderOptions returns the rdlb reader defaults.
func (c *Config) BinaryReaderOptions() []rdlb.ReaderOption {
	return []rdlb.ReaderOption{rdlb.WarningsAsErrors(c.Binary.WarningsAsErrors)}
}
