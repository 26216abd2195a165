// Package config loads bcdump settings from bcdump.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	bcerrors "github.com/wippyai/bcreader/errors"
)

// FileName is the configuration file Find looks for.
const FileName = "bcdump.toml"

const (
	FormatText    = "text"
	FormatMsgpack = "msgpack"

	ColorAuto = "auto"
	ColorOn   = "on"
	ColorOff  = "off"
)

type Config struct {
	Output Output `toml:"output"`
	Log    Log    `toml:"log"`
	Parse  Parse  `toml:"parse"`
}

type Output struct {
	Format string `toml:"format"`
	Color  string `toml:"color"`
	// Width truncates text listings. Zero means the terminal width, or no limit off a terminal.
	Width int `toml:"width"`
}

type Log struct {
	Level   string `toml:"level"`
	Verbose bool   `toml:"verbose"`
}

type Parse struct {
	Jobs int `toml:"jobs"`
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Output: Output{Format: FormatText, Color: ColorAuto},
		Log:    Log{Level: "warn"},
		Parse:  Parse{Jobs: 4},
	}
}

// Load reads path over Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, bcerrors.Wrap(bcerrors.PhaseConfig, bcerrors.KindInvalidInput, err,
			fmt.Sprintf("%s: failed to parse TOML", path))
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, bcerrors.InvalidInput(bcerrors.PhaseConfig,
			fmt.Sprintf("%s: unknown keys: %s", path, strings.Join(keys, ", ")))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields and bounds.
func (c Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatMsgpack:
	default:
		return bcerrors.InvalidInput(bcerrors.PhaseConfig,
			fmt.Sprintf("output.format must be %q or %q, got %q", FormatText, FormatMsgpack, c.Output.Format))
	}
	switch c.Output.Color {
	case ColorAuto, ColorOn, ColorOff:
	default:
		return bcerrors.InvalidInput(bcerrors.PhaseConfig,
			fmt.Sprintf("output.color must be auto, on or off, got %q", c.Output.Color))
	}
	if c.Output.Width < 0 {
		return bcerrors.InvalidInput(bcerrors.PhaseConfig,
			fmt.Sprintf("output.width must not be negative, got %d", c.Output.Width))
	}
	if !validLevels[c.Log.Level] {
		return bcerrors.InvalidInput(bcerrors.PhaseConfig,
			fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	if c.Parse.Jobs < 1 {
		return bcerrors.InvalidInput(bcerrors.PhaseConfig,
			fmt.Sprintf("parse.jobs must be at least 1, got %d", c.Parse.Jobs))
	}
	return nil
}

// Find walks up from startDir to locate bcdump.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}
