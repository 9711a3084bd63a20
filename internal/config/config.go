package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config drives the client: API endpoint, timeouts, credential storage and
// logging. Values come from the YAML file first, then environment variables
// override (LINGUA_* names).
type Config struct {
	API struct {
		BaseURL        string `yaml:"base_url" env:"LINGUA_API_BASE_URL"`
		Timeout        string `yaml:"timeout" env:"LINGUA_API_TIMEOUT"`
		RefreshTimeout string `yaml:"refresh_timeout" env:"LINGUA_API_REFRESH_TIMEOUT"`
	} `yaml:"api"`
	Credentials struct {
		Path          string `yaml:"path" env:"LINGUA_CREDENTIALS_PATH"`
		RedisAddr     string `yaml:"redis_addr" env:"LINGUA_CREDENTIALS_REDIS_ADDR"`
		RedisPassword string `yaml:"redis_password" env:"LINGUA_CREDENTIALS_REDIS_PASSWORD"`
		RedisDB       int    `yaml:"redis_db" env:"LINGUA_CREDENTIALS_REDIS_DB"`
	} `yaml:"credentials"`
	Catalog struct {
		TTL string `yaml:"ttl" env:"LINGUA_CATALOG_TTL"`
	} `yaml:"catalog"`
	Log struct {
		Level string `yaml:"level" env:"LINGUA_LOG_LEVEL"`
	} `yaml:"log"`
}

// Load reads YAML config from path (missing file is fine, defaults apply)
// and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:5000/api"
	}
	if c.Credentials.Path == "" && c.Credentials.RedisAddr == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.Credentials.Path = filepath.Join(home, ".lingua", "credentials.json")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
