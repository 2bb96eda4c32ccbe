// Package config loads svinv configuration.
//
// Configuration lives at .svinv/config.json next to the sources being
// inventoried. A missing file yields the defaults; command-line flags
// override whatever was loaded.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config represents the complete svinv configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Workers int `json:"workers" mapstructure:"workers"`

	Output  OutputConfig  `json:"output" mapstructure:"output"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// OutputConfig controls inventory rendering
type OutputConfig struct {
	// Format is "yaml" or "json"
	Format string `json:"format" mapstructure:"format"`
}

// CacheConfig controls the per-file result cache
type CacheConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Dir     string `json:"dir" mapstructure:"dir"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	// Format is "human" or "json"
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the configuration used when no config file exists
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Workers: runtime.GOMAXPROCS(0),
		Output: OutputConfig{
			Format: "yaml",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".svinv",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load loads configuration from <root>/.svinv/config.json
func Load(root string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, ".svinv"))

	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	switch c.Output.Format {
	case "yaml", "json":
	default:
		return fmt.Errorf("unsupported output format: %q", c.Output.Format)
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return fmt.Errorf("unsupported logging format: %q", c.Logging.Format)
	}
	return nil
}
