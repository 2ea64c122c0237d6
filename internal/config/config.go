package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted when Load gets no path.
const EnvPath = "BLOCKGAME_CONFIG"

// Config is the root of the YAML configuration.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Streaming StreamingConfig `yaml:"streaming"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	LogLevel  string          `yaml:"log_level"`
}

type WorldConfig struct {
	SaveRoot       string `yaml:"save_root"`
	SaveName       string `yaml:"save_name"`
	Terrain        string `yaml:"terrain"`
	Seed           int64  `yaml:"seed"`
	ChunkSize      int    `yaml:"chunk_size"`
	WorldHeight    int    `yaml:"world_height"`
	SmoothLighting bool   `yaml:"smooth_lighting"`
}

type StreamingConfig struct {
	LoadRadius     int           `yaml:"load_radius"`
	UnloadMargin   int           `yaml:"unload_margin"`
	ColumnsPerTick int           `yaml:"columns_per_tick"`
	LoaderInterval time.Duration `yaml:"loader_interval"`
	RenderInterval time.Duration `yaml:"render_interval"`
	SaveInterval   time.Duration `yaml:"save_interval"`
	TickInterval   time.Duration `yaml:"tick_interval"`
	RenderWorkers  int           `yaml:"render_workers"`
	TicksPerColumn int           `yaml:"ticks_per_column"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	// Path overrides world.save_root for the backend.
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			SaveRoot:       "saves",
			SaveName:       "world",
			Terrain:        "main",
			Seed:           1,
			ChunkSize:      16,
			WorldHeight:    10,
			SmoothLighting: true,
		},
		Streaming: StreamingConfig{
			LoadRadius:     8,
			UnloadMargin:   2,
			ColumnsPerTick: 4,
			LoaderInterval: 50 * time.Millisecond,
			RenderInterval: 10 * time.Millisecond,
			SaveInterval:   100 * time.Millisecond,
			TickInterval:   250 * time.Millisecond,
			RenderWorkers:  4,
			TicksPerColumn: 3,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		LogLevel: "INFO",
	}
}

// Load reads a YAML file over the defaults. An empty path falls back to
// $BLOCKGAME_CONFIG; when that is unset too the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges that the world store cannot work around.
func (c *Config) Validate() error {
	var errs []error
	if c.World.ChunkSize < 4 || c.World.ChunkSize > 32 {
		errs = append(errs, fmt.Errorf("world.chunk_size %d outside 4..32", c.World.ChunkSize))
	}
	if c.World.WorldHeight < 1 || c.World.WorldHeight > 32 {
		errs = append(errs, fmt.Errorf("world.world_height %d outside 1..32", c.World.WorldHeight))
	}
	if c.World.SaveName == "" {
		errs = append(errs, errors.New("world.save_name is empty"))
	}
	if c.Streaming.LoadRadius < 0 {
		errs = append(errs, fmt.Errorf("streaming.load_radius %d is negative", c.Streaming.LoadRadius))
	}
	if c.Streaming.UnloadMargin < 0 {
		errs = append(errs, fmt.Errorf("streaming.unload_margin %d is negative", c.Streaming.UnloadMargin))
	}
	if c.Streaming.ColumnsPerTick < 1 {
		errs = append(errs, fmt.Errorf("streaming.columns_per_tick must be positive"))
	}
	for name, d := range map[string]time.Duration{
		"loader_interval": c.Streaming.LoaderInterval,
		"render_interval": c.Streaming.RenderInterval,
		"save_interval":   c.Streaming.SaveInterval,
		"tick_interval":   c.Streaming.TickInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("streaming.%s must be positive", name))
		}
	}
	return errors.Join(errs...)
}

// StorageRoot is the directory backends write under.
func (c *Config) StorageRoot() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return c.World.SaveRoot
}
