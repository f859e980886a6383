// Package config loads jsviz settings from a YAML file, a .env file and
// JSVIZ_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/example/jsviz/visualizer"
)

// FileName is the config file looked up in the working directory when no
// path is given.
const FileName = "jsviz.yaml"

// EnvPrefix prefixes every environment variable Load reads.
const EnvPrefix = "JSVIZ_"

// Color settings.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the settings of the command line tool.
type Config struct {
	// Mode is the default step granularity, "micro" or "macro".
	Mode string `yaml:"mode"`

	// DiffTimeout bounds the time spent diffing one history snapshot.
	// Zero means no bound.
	DiffTimeout time.Duration `yaml:"diff_timeout"`

	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level"`

	// Color is auto, always or never.
	Color string `yaml:"color"`

	// HistoryFile keeps the lines typed into the stepping prompt. A
	// relative path is taken from the home directory.
	HistoryFile string `yaml:"history_file"`

	// Prompt is shown by the stepping prompt.
	Prompt string `yaml:"prompt"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Mode:        "macro",
		DiffTimeout: 100 * time.Millisecond,
		LogLevel:    "info",
		Color:       ColorAuto,
		HistoryFile: ".jsviz_history",
		Prompt:      "jsviz> ",
	}
}

// Load reads path, or FileName when path is empty and that file exists.
// It then loads .env from the working directory, if any, and applies the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(FileName); err == nil {
			path = FileName
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := cfg.parse(data, path); err != nil {
			return nil, err
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML on top of the defaults. The path argument is used
// only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := cfg.parse(data, path); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) parse(data []byte, path string) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields with JSVIZ_MODE, JSVIZ_DIFF_TIMEOUT,
// JSVIZ_LOG_LEVEL, JSVIZ_COLOR, JSVIZ_HISTORY_FILE and JSVIZ_PROMPT.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MODE":         &c.Mode,
		"LOG_LEVEL":    &c.LogLevel,
		"COLOR":        &c.Color,
		"HISTORY_FILE": &c.HistoryFile,
		"PROMPT":       &c.Prompt,
	}
	for name, field := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*field = v
		}
	}
	if v, ok := lookup(EnvPrefix + "DIFF_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sDIFF_TIMEOUT: %w", EnvPrefix, err)
		}
		c.DiffTimeout = d
	}
	return nil
}

// Validate checks every field that has a fixed set of values.
func (c *Config) Validate() error {
	if _, err := c.StepMode(); err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color: must be %s, %s or %s, got %q", ColorAuto, ColorAlways, ColorNever, c.Color)
	}
	if c.DiffTimeout < 0 {
		return fmt.Errorf("diff_timeout: must not be negative, got %s", c.DiffTimeout)
	}
	return nil
}

func (c *Config) StepMode() (visualizer.Mode, error) {
	return visualizer.ParseMode(strings.ToLower(c.Mode))
}

func (c *Config) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(c.LogLevel))
}

// UseColor reports whether output to f should be colored.
func (c *Config) UseColor(f *os.File) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// HistoryPath resolves HistoryFile against the home directory.
func (c *Config) HistoryPath() string {
	if c.HistoryFile == "" || filepath.IsAbs(c.HistoryFile) {
		return c.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return c.HistoryFile
	}
	return filepath.Join(home, c.HistoryFile)
}
