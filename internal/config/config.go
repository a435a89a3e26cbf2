// Package config loads the service's YAML configuration, following the
// strict-decode, ApplyDefaults/Validate convention used across the rest of
// this project's ancestry.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// DatabaseConfig selects the on-disk location for the embedded KV store.
type DatabaseConfig struct {
	Path    string `yaml:"path"`
	DevPath string `yaml:"dev_path"`
}

// ReaderConfig sizes the Reader's module cache and job queue.
type ReaderConfig struct {
	CacheSize   int `yaml:"cache_size"`
	ChannelSize int `yaml:"channel_size"`
}

// WriterConfig sizes the Writer's job queue.
type WriterConfig struct {
	ChannelSize int `yaml:"channel_size"`
}

// RunnerConfig sizes the Runner's compile cache and job queue.
type RunnerConfig struct {
	CacheSize   int `yaml:"cache_size"`
	ChannelSize int `yaml:"channel_size"`
}

// Config is the top-level, YAML-decoded configuration document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Reader   ReaderConfig   `yaml:"reader"`
	Writer   WriterConfig   `yaml:"writer"`
	Runner   RunnerConfig   `yaml:"runner"`
}

// Default returns a configuration with sensible defaults for local use.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "0.0.0.0",
			Port:    8080,
		},
		Database: DatabaseConfig{
			Path:    "./data/wess.db",
			DevPath: "./data/wess-dev.db",
		},
		Reader: ReaderConfig{
			CacheSize:   256,
			ChannelSize: 256,
		},
		Writer: WriterConfig{
			ChannelSize: 64,
		},
		Runner: RunnerConfig{
			CacheSize:   128,
			ChannelSize: 256,
		},
	}
}

// ApplyDefaults fills zero-valued fields from Default().
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Database.DevPath == "" {
		c.Database.DevPath = d.Database.DevPath
	}
	if c.Reader.CacheSize == 0 {
		c.Reader.CacheSize = d.Reader.CacheSize
	}
	if c.Reader.ChannelSize == 0 {
		c.Reader.ChannelSize = d.Reader.ChannelSize
	}
	if c.Writer.ChannelSize == 0 {
		c.Writer.ChannelSize = d.Writer.ChannelSize
	}
	if c.Runner.CacheSize == 0 {
		c.Runner.CacheSize = d.Runner.CacheSize
	}
	if c.Runner.ChannelSize == 0 {
		c.Runner.ChannelSize = d.Runner.ChannelSize
	}
}

// Validate checks the configuration for out-of-range values, returning every
// violation found rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: must be in (0, 65535], got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path: must not be empty"))
	}
	if c.Reader.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("reader.cache_size: must be positive"))
	}
	if c.Reader.ChannelSize <= 0 {
		errs = append(errs, fmt.Errorf("reader.channel_size: must be positive"))
	}
	if c.Writer.ChannelSize <= 0 {
		errs = append(errs, fmt.Errorf("writer.channel_size: must be positive"))
	}
	if c.Runner.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("runner.cache_size: must be positive"))
	}
	if c.Runner.ChannelSize <= 0 {
		errs = append(errs, fmt.Errorf("runner.channel_size: must be positive"))
	}
	return errs
}

// Load reads and strict-decodes a YAML document from path, applies defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := &Config{}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.ApplyDefaults()
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %v", errs)
	}
	return cfg, nil
}

// DatabasePath selects the prod or dev path depending on dev.
func (c *Config) DatabasePath(dev bool) string {
	if dev {
		return c.Database.DevPath
	}
	return c.Database.Path
}
