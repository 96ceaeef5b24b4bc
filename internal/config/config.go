// Package config holds world generation parameters and their YAML loader.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// WorldConfig holds the climate and sea parameters consumed by generation.
type WorldConfig struct {
	SeaLevel      float32 `yaml:"sea_level" json:"sea_level"`
	SnowTemp      float32 `yaml:"snow_temp" json:"snow_temp"`
	TemperateTemp float32 `yaml:"temperate_temp" json:"temperate_temp"`
	TropicalTemp  float32 `yaml:"tropical_temp" json:"tropical_temp"`
	DesertTemp    float32 `yaml:"desert_temp" json:"desert_temp"`
	DesertHum     float32 `yaml:"desert_hum" json:"desert_hum"`
	ForestHum     float32 `yaml:"forest_hum" json:"forest_hum"`
	JungleHum     float32 `yaml:"jungle_hum" json:"jungle_hum"`
}

// Bounds on map_size_lg.
const (
	maxMapSizeLgAxis = 12
	maxMapSizeLgSum  = 20
)

// MapSize is the base-2 logarithm of the chunk grid dimensions.
type MapSize struct {
	X uint8 `yaml:"x" json:"x"`
	Y uint8 `yaml:"y" json:"y"`
}

// OutputConfig lists optional artifacts written by the CLI.
type OutputConfig struct {
	AtlasPath    string `yaml:"atlas_path" json:"atlas_path"`
	SnapshotPath string `yaml:"snapshot_path" json:"snapshot_path"`
	ListenAddr   string `yaml:"listen_addr" json:"listen_addr"`
}

// GenConfig is the full input of a generation run.
type GenConfig struct {
	Seed      uint32       `yaml:"seed" json:"seed"`
	MapSizeLg MapSize      `yaml:"map_size_lg" json:"map_size_lg"`
	World     WorldConfig  `yaml:"world" json:"world"`
	Output    OutputConfig `yaml:"output" json:"output"`
}

// DefaultWorldConfig returns the standard climate bands.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		SeaLevel:      140,
		SnowTemp:      -0.6,
		TemperateTemp: -0.4,
		TropicalTemp:  0.4,
		DesertTemp:    0.6,
		DesertHum:     0.15,
		ForestHum:     0.5,
		JungleHum:     0.85,
	}
}

// DefaultGenConfig returns a full-size world with seed 0.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:      0,
		MapSizeLg: MapSize{X: 10, Y: 10},
		World:     DefaultWorldConfig(),
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Seed:      42,
		MapSizeLg: MapSize{X: 8, Y: 8},
		World:     DefaultWorldConfig(),
	}
}

// Load reads a YAML file over the defaults, checks it against the schema and validates it.
func Load(path string) (GenConfig, error) {
	cfg := DefaultGenConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := CheckSchema(raw); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the cross-field constraints a schema cannot express.
func (c GenConfig) Validate() error {
	if int(c.MapSizeLg.X)+int(c.MapSizeLg.Y) > maxMapSizeLgSum {
		return fmt.Errorf("%w: map_size_lg x+y must be <= %d, got %d+%d", ErrInvalidConfig, maxMapSizeLgSum, c.MapSizeLg.X, c.MapSizeLg.Y)
	}
	if c.MapSizeLg.X > maxMapSizeLgAxis || c.MapSizeLg.Y > maxMapSizeLgAxis {
		return fmt.Errorf("%w: map_size_lg components must be <= %d", ErrInvalidConfig, maxMapSizeLgAxis)
	}
	if c.MapSizeLg.X < 4 || c.MapSizeLg.Y < 4 {
		return fmt.Errorf("%w: map_size_lg components must be >= 4", ErrInvalidConfig)
	}
	return c.World.Validate()
}

// Validate checks that the climate bands are ordered.
func (w WorldConfig) Validate() error {
	if !(w.SnowTemp < w.TemperateTemp && w.TemperateTemp < w.TropicalTemp && w.TropicalTemp < w.DesertTemp) {
		return fmt.Errorf("%w: temperature bands must satisfy snow < temperate < tropical < desert", ErrInvalidConfig)
	}
	if !(w.DesertHum < w.ForestHum && w.ForestHum < w.JungleHum) {
		return fmt.Errorf("%w: humidity bands must satisfy desert < forest < jungle", ErrInvalidConfig)
	}
	if w.SeaLevel <= 0 {
		return fmt.Errorf("%w: sea_level must be positive", ErrInvalidConfig)
	}
	return nil
}
