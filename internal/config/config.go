// Package config handles meshtool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshkit/pkg/encoding"
	"github.com/Faultbox/meshkit/pkg/mesh"
	"github.com/Faultbox/meshkit/pkg/spatial"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all tool settings.
type Config struct {
	Weld    WeldConfig    `yaml:"weld"`
	Index   IndexConfig   `yaml:"index"`
	TVertex TVertexConfig `yaml:"tvertex"`
	Formats FormatsConfig `yaml:"formats"`
	Logging LoggingConfig `yaml:"logging"`
}

// WeldConfig holds per-semantic weld radii. Zero disables welding for that
// semantic and falls back to exact deduplication.
type WeldConfig struct {
	Position float32 `yaml:"position"`
	Normal   float32 `yaml:"normal"`
	TexCoord float32 `yaml:"texcoord"`
	Tangent  float32 `yaml:"tangent"`
}

// IndexConfig holds R-tree settings.
type IndexConfig struct {
	MaxEntries int `yaml:"max_entries"` // node fan-out, at least 4
}

// TVertexConfig holds T-vertex elimination settings.
type TVertexConfig struct {
	Epsilon float64 `yaml:"epsilon"`
}

// FormatsConfig holds file format settings.
type FormatsConfig struct {
	ObjNameEncoding string `yaml:"obj_name_encoding"` // object/group names and STL headers
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := mesh.DefaultContainerOptions()
	return &Config{
		Weld: WeldConfig{
			Position: opts.PositionWeld,
			Normal:   opts.NormalWeld,
			TexCoord: opts.TexCoordWeld,
			Tangent:  opts.TangentWeld,
		},
		Index: IndexConfig{
			MaxEntries: mesh.DefaultMaxEntries,
		},
		TVertex: TVertexConfig{
			Epsilon: 1e-6,
		},
		Formats: FormatsConfig{
			ObjNameEncoding: encoding.UTF8,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate rejects values the operators cannot work with.
func (c *Config) Validate() error {
	for name, r := range map[string]float32{
		"weld.position": c.Weld.Position,
		"weld.normal":   c.Weld.Normal,
		"weld.texcoord": c.Weld.TexCoord,
		"weld.tangent":  c.Weld.Tangent,
	} {
		if r < 0 {
			return fmt.Errorf("%w: %s is negative (%g)", ErrInvalidConfig, name, r)
		}
	}
	if c.Index.MaxEntries < spatial.MinMaxEntries {
		return fmt.Errorf("%w: index.max_entries must be at least %d, got %d",
			ErrInvalidConfig, spatial.MinMaxEntries, c.Index.MaxEntries)
	}
	if !(c.TVertex.Epsilon > 0) {
		return fmt.Errorf("%w: tvertex.epsilon must be positive, got %g", ErrInvalidConfig, c.TVertex.Epsilon)
	}
	if _, err := encoding.Lookup(c.Formats.ObjNameEncoding); err != nil {
		return fmt.Errorf("%w: formats.obj_name_encoding: %w", ErrInvalidConfig, err)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown logging.level %q", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// ContainerOptions returns the weld radii and fan-out as container options.
func (c *Config) ContainerOptions() mesh.ContainerOptions {
	return mesh.ContainerOptions{
		PositionWeld: c.Weld.Position,
		NormalWeld:   c.Weld.Normal,
		TexCoordWeld: c.Weld.TexCoord,
		TangentWeld:  c.Weld.Tangent,
		MaxEntries:   c.Index.MaxEntries,
	}
}
