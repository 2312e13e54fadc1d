package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/achilleasa/sbvh/bvh"
	"github.com/achilleasa/sbvh/log"
)

// Config holds the builder tuning parameters and logging settings.
//
// Example:
//
//	[builder]
//	bucket_count = 16
//	spatial_splits = false
//
//	[logging]
//	logfile = "/var/log/sbvh.log"
//	max_log_size = 100
//	level = "debug"
type Config struct {
	Builder bvh.Options `toml:"builder"`
	Logging log.Config  `toml:"logging"`
}

// Get the default configuration.
func Default() Config {
	return Config{
		Builder: bvh.DefaultOptions(),
		Logging: log.Config{Level: "notice"},
	}
}

// Load a TOML configuration file. Keys missing from the file keep their
// default values. An empty path returns the default configuration.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: could not decode TOML config %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config: unknown keys in %q: %v", path, undecoded)
	}

	// Relative log file paths are resolved against the config file location
	if cfg.Logging.Logfile != "" && !filepath.IsAbs(cfg.Logging.Logfile) {
		cfg.Logging.Logfile = filepath.Join(filepath.Dir(path), cfg.Logging.Logfile)
	}

	return cfg, cfg.Validate()
}

// Validate the configuration.
func (c Config) Validate() error {
	if err := c.Builder.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Logging.MaxSize < 0 || c.Logging.MaxAge < 0 {
		return fmt.Errorf("config: log rotation limits must not be negative")
	}
	return nil
}

// Write the configuration as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Write the configuration to a TOML file.
func (c Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return c.Encode(f)
}
