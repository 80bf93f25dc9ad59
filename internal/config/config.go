// Package config handles meshkit configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshkit/pkg/mesh"
)

// ErrInvalid reports a configuration value out of range.
var ErrInvalid = errors.New("invalid config")

// Config holds all meshkit settings.
type Config struct {
	Weld    WeldConfig    `yaml:"weld"`
	IO      IOConfig      `yaml:"io"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// WeldConfig controls vertex welding.
type WeldConfig struct {
	Epsilon     float32 `yaml:"epsilon"`      // Per-component match tolerance
	SearchLimit int     `yaml:"search_limit"` // 0 searches every vertex
	MaxVerts    int     `yaml:"max_verts"`    // Index capacity cap, 0 sizes to the input
}

// IOConfig controls which optional sections are expected in mesh files.
type IOConfig struct {
	ExpectNormals   bool `yaml:"expect_normals"`
	ExpectTexCoords bool `yaml:"expect_texcoords"`
}

// ViewerConfig holds meshview display settings.
type ViewerConfig struct {
	Width       int        `yaml:"width"`
	Height      int        `yaml:"height"`
	Fullscreen  bool       `yaml:"fullscreen"`
	VSync       bool       `yaml:"vsync"`
	Shader      string     `yaml:"shader"`
	Color       [4]float32 `yaml:"color,flow"`
	RotateSpeed float32    `yaml:"rotate_speed"` // Degrees per second
	SnapshotDir string     `yaml:"snapshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Weld: WeldConfig{
			Epsilon: mesh.DefaultEpsilon,
		},
		IO: IOConfig{
			ExpectNormals:   true,
			ExpectTexCoords: true,
		},
		Viewer: ViewerConfig{
			Width:       1280,
			Height:      720,
			VSync:       true,
			Shader:      "default_light",
			Color:       [4]float32{0.8, 0.8, 0.9, 1},
			RotateSpeed: 30,
			SnapshotDir: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// WeldOptions converts the weld section for mesh.Welder.
func (c *Config) WeldOptions() mesh.WeldOptions {
	return mesh.WeldOptions{Epsilon: c.Weld.Epsilon, SearchLimit: c.Weld.SearchLimit}
}

// LoadOptions converts the io section for mesh.Decode.
func (c *Config) LoadOptions() mesh.LoadOptions {
	return mesh.LoadOptions{Normals: c.IO.ExpectNormals, TexCoords: c.IO.ExpectTexCoords}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Weld.Epsilon < 0:
		return fmt.Errorf("%w: weld.epsilon %v is negative", ErrInvalid, c.Weld.Epsilon)
	case c.Weld.SearchLimit < 0:
		return fmt.Errorf("%w: weld.search_limit %d is negative", ErrInvalid, c.Weld.SearchLimit)
	case c.Weld.MaxVerts < 0:
		return fmt.Errorf("%w: weld.max_verts %d is negative", ErrInvalid, c.Weld.MaxVerts)
	case c.Viewer.Width <= 0 || c.Viewer.Height <= 0:
		return fmt.Errorf("%w: viewer size %dx%d", ErrInvalid, c.Viewer.Width, c.Viewer.Height)
	}
	return nil
}
