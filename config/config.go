// Package config holds the settings of the mmdmorph command.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Preview PreviewConfig `yaml:"preview"`
	Motion  MotionConfig  `yaml:"motion"`

	// Presets maps a preset name to weight expressions keyed by morph name.
	Presets map[string]map[string]string `yaml:"presets"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	File  string `yaml:"file"`
}

type PreviewConfig struct {
	Size        int     `yaml:"size" validate:"gte=16,lte=4096"`
	Supersample int     `yaml:"supersample" validate:"gte=1,lte=8"`
	Background  string  `yaml:"background" validate:"hexcolor"`
	Format      string  `yaml:"format" validate:"oneof=png webp"`
	Yaw         float32 `yaml:"yaw" validate:"gte=-360,lte=360"`
	Pitch       float32 `yaml:"pitch" validate:"gte=-90,lte=90"`
}

type MotionConfig struct {
	FPS float64 `yaml:"fps" validate:"gt=0"`
	// Smoothing is the approach factor per frame. 1 disables smoothing.
	Smoothing float32 `yaml:"smoothing" validate:"gt=0,lte=1"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	LogLevel string
	LogFile  string
	Size     int
	Format   string
}

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Preview: PreviewConfig{
			Size:        512,
			Supersample: 2,
			Background:  "#ffffff",
			Format:      "png",
		},
		Motion: MotionConfig{FPS: 30, Smoothing: 1},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies CLI flags. Flags win when non-zero.
func (c *Config) Resolve(flags Flags) {
	if flags.LogLevel != "" {
		c.Logging.Level = flags.LogLevel
	}
	if flags.LogFile != "" {
		c.Logging.File = flags.LogFile
	}
	if flags.Size > 0 {
		c.Preview.Size = flags.Size
	}
	if flags.Format != "" {
		c.Preview.Format = flags.Format
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs error
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errs = multierr.Append(errs, fmt.Errorf("config: %s: invalid value %v (%s)", fe.Namespace(), fe.Value(), fe.Tag()))
			}
		} else {
			errs = multierr.Append(errs, err)
		}
	}
	for name, weights := range c.Presets {
		if name == "" {
			errs = multierr.Append(errs, fmt.Errorf("config: preset with empty name"))
		}
		for morph, expr := range weights {
			if morph == "" || expr == "" {
				errs = multierr.Append(errs, fmt.Errorf("config: preset %q: empty morph name or expression", name))
			}
		}
	}
	return errs
}

// Preset returns the weight expressions of a named preset.
func (c *Config) Preset(name string) (map[string]string, error) {
	p, ok := c.Presets[name]
	if !ok {
		return nil, fmt.Errorf("config: unknown preset %q", name)
	}
	return p, nil
}
