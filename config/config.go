package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds host-level settings for a simulation run. Values absent
// from the file keep their defaults, so a config file only needs the
// keys it overrides.
type Config struct {
	// Engine section: clock and spatial index tuning
	Engine struct {
		ChunkWidth  float32 `toml:"chunk_width"`
		ChunkHeight float32 `toml:"chunk_height"`
		FPS         int     `toml:"fps"`
	} `toml:"engine"`

	// Demo section: scene population
	Demo struct {
		Movers int `toml:"movers"`
	} `toml:"demo"`

	// Audio section
	Audio struct {
		Mute bool `toml:"mute"`
	} `toml:"audio"`

	// Diagnostics section: log sink and optional crash reporting
	Diagnostics struct {
		LogFile   string `toml:"log_file"`
		SentryDSN string `toml:"sentry_dsn"`
	} `toml:"diagnostics"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{}
	cfg.Engine.ChunkWidth = 32
	cfg.Engine.ChunkHeight = 32
	cfg.Engine.FPS = 60
	cfg.Demo.Movers = 12
	cfg.Diagnostics.LogFile = "tessera-demo.log"
	return cfg
}

// Parse decodes TOML data over the defaults. Unknown keys are an error
// so typos surface instead of silently falling back.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config parse: unknown key %q", undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path. A missing file is not an
// error: the defaults apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config read: %w", err)
	}
	return Parse(data)
}

func (c *Config) validate() error {
	if c.Engine.ChunkWidth <= 0 || c.Engine.ChunkHeight <= 0 {
		return fmt.Errorf("config: chunk dimensions must be positive, got %vx%v",
			c.Engine.ChunkWidth, c.Engine.ChunkHeight)
	}
	if c.Engine.FPS <= 0 {
		return fmt.Errorf("config: fps must be positive, got %d", c.Engine.FPS)
	}
	if c.Demo.Movers < 0 {
		return fmt.Errorf("config: movers must be non-negative, got %d", c.Demo.Movers)
	}
	return nil
}
