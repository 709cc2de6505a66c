package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Sources  SourcesConfig  `yaml:"sources"`
	Itchio   ItchioConfig   `yaml:"itchio"`
	Export   ExportConfig   `yaml:"export"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SourcesConfig names the two rating sources the effective-rating view
// blends: the external site and the personal (first-party) source.
type SourcesConfig struct {
	External string `yaml:"external"`
	Personal string `yaml:"personal"`
}

// ItchioConfig configures the page scraper.
type ItchioConfig struct {
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the scrape timeout as a time.Duration.
func (c ItchioConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ExportConfig configures spreadsheet export defaults.
type ExportConfig struct {
	TabOrder []string `yaml:"tab_order"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./recommendit.db"},
		Sources: SourcesConfig{
			External: "itchio",
			Personal: "fred",
		},
		Itchio: ItchioConfig{
			UserAgent:      "recommendit/1.0",
			TimeoutSeconds: 20,
		},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RECOMMENDIT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("RECOMMENDIT_EXTERNAL_SOURCE"); v != "" {
		cfg.Sources.External = v
	}
	if v := os.Getenv("RECOMMENDIT_PERSONAL_SOURCE"); v != "" {
		cfg.Sources.Personal = v
	}
}
