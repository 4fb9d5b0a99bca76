// Package config loads the service configuration from a YAML file with
// environment variable overrides. Every tunable the engine exposes lives
// here: batch sizes, score weights and floors, index and database paths.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Store   StoreConfig   `yaml:"store"`
	Encoder EncoderConfig `yaml:"encoder"`
	Search  SearchConfig  `yaml:"search"`
	Log     LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type StoreConfig struct {
	DBPath    string `yaml:"db_path"`
	IndexPath string `yaml:"index_path"`
}

type EncoderConfig struct {
	Provider  string `yaml:"provider"` // openai, jina or local; empty = detect from env
	Model     string `yaml:"model"`
	CacheSize int    `yaml:"cache_size"`
}

type SearchConfig struct {
	BatchSize      int     `yaml:"batch_size"`
	FlushEvery     int     `yaml:"flush_every"`
	SemanticWeight float64 `yaml:"semantic_weight"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
	MinCombined    float64 `yaml:"min_combined"`
	DefaultLimit   int     `yaml:"default_limit"`
	Threshold      float64 `yaml:"threshold"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file at path, fills in defaults and applies
// environment overrides. A missing file is fine; defaults plus the
// environment carry a dev setup.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8090
	}
	if cfg.Store.DBPath == "" {
		cfg.Store.DBPath = "data/videos.db"
	}
	if cfg.Store.IndexPath == "" {
		cfg.Store.IndexPath = "data/search_index.json"
	}
	if cfg.Encoder.CacheSize == 0 {
		cfg.Encoder.CacheSize = 1000
	}
	if cfg.Search.BatchSize == 0 {
		cfg.Search.BatchSize = 10
	}
	if cfg.Search.FlushEvery == 0 {
		cfg.Search.FlushEvery = 1
	}
	if cfg.Search.SemanticWeight == 0 && cfg.Search.KeywordWeight == 0 {
		cfg.Search.SemanticWeight = 0.7
		cfg.Search.KeywordWeight = 0.3
	}
	if cfg.Search.MinCombined == 0 {
		cfg.Search.MinCombined = 0.3
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 20
	}
	if cfg.Search.Threshold == 0 {
		cfg.Search.Threshold = 0.5
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VUEON_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
	if v := os.Getenv("VUEON_DB_PATH"); v != "" {
		cfg.Store.DBPath = v
	}
	if v := os.Getenv("VUEON_INDEX_PATH"); v != "" {
		cfg.Store.IndexPath = v
	}
	if v := os.Getenv("VUEON_ENCODER_PROVIDER"); v != "" {
		cfg.Encoder.Provider = v
	}
	if v := os.Getenv("VUEON_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	if c.Search.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", c.Search.BatchSize)
	}
	if c.Search.FlushEvery < 1 {
		return fmt.Errorf("flush_every must be >= 1, got %d", c.Search.FlushEvery)
	}
	if c.Search.SemanticWeight < 0 || c.Search.KeywordWeight < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if c.Search.MinCombined < 0 || c.Search.MinCombined >= 1 {
		return fmt.Errorf("min_combined must be in [0, 1), got %g", c.Search.MinCombined)
	}
	return nil
}
