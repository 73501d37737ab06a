package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration values.
type Config struct {
	Listen        string `json:"listen" yaml:"listen"`
	MetricsListen string `json:"metrics_listen" yaml:"metrics_listen"`
	TimeoutSec    int    `json:"timeout_sec" yaml:"timeout_sec"`
	DefaultCount  int    `json:"default_count" yaml:"default_count"`
	MaxCount      int    `json:"max_count" yaml:"max_count"`

	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Photos  PhotosConfig  `json:"photos" yaml:"photos"`
	Results ResultsConfig `json:"results" yaml:"results"`

	// Set by commands that never call the catalog (colors, hash-password).
	AllowMissingKey bool `json:"-" yaml:"-"`

	// Environment configuration (loaded from env vars)
	Env *EnvConfig `json:"-" yaml:"-"`
}

// CatalogConfig configures the plant catalog client.
type CatalogConfig struct {
	BaseURL      string  `json:"base_url" yaml:"base_url"`
	RateLimitRPS float64 `json:"rate_limit_rps" yaml:"rate_limit_rps"`
	Burst        int     `json:"burst" yaml:"burst"`
	MaxPages     int     `json:"max_pages" yaml:"max_pages"` // 0 = no limit
}

// PhotosConfig configures the photo search client.
type PhotosConfig struct {
	BaseURL     string `json:"base_url" yaml:"base_url"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`
}

// ResultsConfig bounds the in-memory store of recent results.
type ResultsConfig struct {
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
	TTLSec     int `json:"ttl_sec" yaml:"ttl_sec"`
}

// Default returns a Config with every default applied and no environment.
func Default() *Config {
	return &Config{
		Listen:        ":8080",
		MetricsListen: ":9090",
		TimeoutSec:    30,
		DefaultCount:  10,
		MaxCount:      20,
		Catalog: CatalogConfig{
			BaseURL:      "https://perenual.com/api",
			RateLimitRPS: 2,
			Burst:        4,
		},
		Photos: PhotosConfig{
			BaseURL:     "https://api.unsplash.com",
			Enabled:     true,
			Concurrency: 4,
		},
		Results: ResultsConfig{
			MaxEntries: 128,
			TTLSec:     3600,
		},
	}
}

// Load reads configuration from path (JSON or YAML by extension) on top of
// the defaults, then applies environment overrides. A missing file is not an
// error; an empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.Env = LoadEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Env.Listen != "" {
		cfg.Listen = cfg.Env.Listen
	}
	cfg.Catalog.BaseURL = strings.TrimRight(cfg.Catalog.BaseURL, "/")
	cfg.Photos.BaseURL = strings.TrimRight(cfg.Photos.BaseURL, "/")

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse json config %s: %w", path, err)
		}
	}
	return nil
}

// Timeout is the per-request deadline for outbound API calls.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ResultsTTL is how long a result stays addressable for charts and exports.
func (c *Config) ResultsTTL() time.Duration {
	return time.Duration(c.Results.TTLSec) * time.Second
}

// Validate checks the configuration for errors and returns helpful messages.
func (c *Config) Validate() error {
	var errs []string

	if c.Listen == "" {
		errs = append(errs, "listen address is required")
	}
	if c.TimeoutSec <= 0 {
		errs = append(errs, "timeout_sec must be positive")
	}
	if c.MaxCount <= 0 {
		errs = append(errs, "max_count must be positive")
	}
	if c.DefaultCount < 1 || c.DefaultCount > c.MaxCount {
		errs = append(errs, fmt.Sprintf("default_count must be between 1 and max_count (%d)", c.MaxCount))
	}
	if c.Catalog.BaseURL == "" {
		errs = append(errs, "catalog.base_url is required")
	}
	if c.Catalog.RateLimitRPS <= 0 {
		errs = append(errs, "catalog.rate_limit_rps must be positive")
	}
	if c.Catalog.MaxPages < 0 {
		errs = append(errs, "catalog.max_pages must not be negative")
	}
	if c.Photos.Enabled && c.Photos.Concurrency <= 0 {
		errs = append(errs, "photos.concurrency must be positive")
	}
	if c.Results.MaxEntries <= 0 {
		errs = append(errs, "results.max_entries must be positive")
	}
	if c.Results.TTLSec <= 0 {
		errs = append(errs, "results.ttl_sec must be positive")
	}

	if c.Env != nil {
		if c.Env.PerenualAPIKey == "" && !c.AllowMissingKey {
			errs = append(errs, "PERENUAL_API_KEY is not set")
		}
		if c.Env.AuthEnabled {
			if _, err := os.Stat(c.Env.UsersFile); err != nil {
				errs = append(errs, fmt.Sprintf("users file not found: %s", c.Env.UsersFile))
			}
		}
		if c.Env.RateLimitRPM < 0 {
			errs = append(errs, "RATE_LIMIT_RPM must not be negative")
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}
