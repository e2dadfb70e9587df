package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/text"
)

// Config for the engine run. Field tags match both config formats.
type Config struct {
	Title      string       `yaml:"title" toml:"title"`
	Width      int          `yaml:"width" toml:"width"`
	Height     int          `yaml:"height" toml:"height"`
	VSync      bool         `yaml:"vsync" toml:"vsync"`
	Backend    gfx.Backend  `yaml:"backend" toml:"backend"`
	ClearColor colors.Color `yaml:"clear_color" toml:"clear_color"`
	FontFamily string       `yaml:"font_family" toml:"font_family"`
	FontSize   float32      `yaml:"font_size" toml:"font_size"`

	// ScaleFactor is the HiDPI text scale. Zero follows the window's
	// content scale.
	ScaleFactor float32 `yaml:"scale_factor" toml:"scale_factor"`

	// ShaderDir holds per-backend overrides of the built-in shaders.
	ShaderDir    string `yaml:"shader_dir" toml:"shader_dir"`
	WatchShaders bool   `yaml:"watch_shaders" toml:"watch_shaders"`

	// Profile is the speedscope output path written on exit. Only used in
	// builds with the profile tag.
	Profile string `yaml:"profile" toml:"profile"`
}

func DefaultConfig() Config {
	return Config{
		Title:      "chartgfx",
		Width:      1280,
		Height:     720,
		VSync:      true,
		Backend:    gfx.BackendAuto,
		ClearColor: colors.DarkGray,
		FontFamily: text.FamilyMono,
		FontSize:   14,
	}
}

// LoadConfig reads path over DefaultConfig. The format follows the file
// extension: .yaml/.yml or .toml.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := ParseConfig(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data in the format named by ext over DefaultConfig.
func ParseConfig(data []byte, ext string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		if len(bytes.TrimSpace(data)) > 0 {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		}
	case "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unknown config format %q", ext)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Width, c.Height)
	}
	if c.FontSize < 0 || c.ScaleFactor < 0 {
		return fmt.Errorf("font size %g and scale factor %g must not be negative", c.FontSize, c.ScaleFactor)
	}
	return nil
}

// TextOptions is the text renderer configuration derived from c.
func (c Config) TextOptions() text.Options {
	return text.Options{Family: c.FontFamily, Size: c.FontSize, Scale: c.ScaleFactor}
}
