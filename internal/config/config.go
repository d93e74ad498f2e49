// Package config loads the wiki server configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/shodgson/wysiwym/internal/logging"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverFile  = "file"
	DriverRedis = "redis"
)

// Config is the server configuration.
type Config struct {
	Addr      string  `yaml:"addr"`
	DataDir   string  `yaml:"dataDir"`
	LogLevel  string  `yaml:"logLevel"`
	LogFormat string  `yaml:"logFormat"`
	Storage   Storage `yaml:"storage"`
	Metrics   Metrics `yaml:"metrics"`
}

// Storage selects the page backend.
type Storage struct {
	Driver string `yaml:"driver"`
	Redis  Redis  `yaml:"redis"`
}

// Redis configures the redis page backend.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Addr:      ":8080",
		DataDir:   "./wiki",
		LogLevel:  "info",
		LogFormat: "text",
		Storage: Storage{
			Driver: DriverFile,
			Redis:  Redis{Addr: "localhost:6379", Prefix: "wysiwym:page:"},
		},
		Metrics: Metrics{Enabled: true, Path: "/metrics"},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. A missing file is not an error when path is empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

// Parse decodes YAML into cfg, keeping the values of cfg for absent keys.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides the configuration with WYSIWYM_* variables. PORT is
// honoured as well, as the original wiki server did.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Addr = ":" + v
	}
	if v, ok := lookup("WYSIWYM_ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup("WYSIWYM_DATA_DIR"); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup("WYSIWYM_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("WYSIWYM_STORAGE"); ok && v != "" {
		c.Storage.Driver = v
	}
	if v, ok := lookup("WYSIWYM_REDIS_ADDR"); ok && v != "" {
		c.Storage.Redis.Addr = v
	}
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid logFormat %q", c.LogFormat))
	}
	switch c.Storage.Driver {
	case DriverFile:
		if c.DataDir == "" {
			errs = append(errs, errors.New("dataDir is required by the file storage"))
		}
	case DriverRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr is required by the redis storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage driver %q", c.Storage.Driver))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics path must start with /, got %q", c.Metrics.Path))
	}
	return errors.Join(errs...)
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
