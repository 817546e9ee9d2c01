package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/lamim/theoforge/internal/prover"
)

// Load reads and parses the configuration file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a usable configuration without a config file.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Engine defaults
	if cfg.Engine.NumGenerators == 0 {
		cfg.Engine.NumGenerators = autoWorkers()
	}
	if cfg.Engine.NumProvers == 0 {
		cfg.Engine.NumProvers = autoWorkers()
	}
	if cfg.Engine.QueueCapacity == 0 {
		cfg.Engine.QueueCapacity = 10000
	}
	if cfg.Engine.BatchSize == 0 {
		cfg.Engine.BatchSize = 32
	}
	if cfg.Engine.DequeueTimeoutMillis == 0 {
		cfg.Engine.DequeueTimeoutMillis = 500
	}
	if cfg.Engine.StopTimeoutSeconds == 0 {
		cfg.Engine.StopTimeoutSeconds = 10
	}

	// Space defaults
	if cfg.Space.MaxTermDepth == 0 {
		cfg.Space.MaxTermDepth = 3
	}
	if cfg.Space.MaxQuantifiers == 0 {
		cfg.Space.MaxQuantifiers = 1
	}

	// Prover defaults
	if cfg.Prover.Kind == "" {
		cfg.Prover.Kind = prover.KindMock
	}
	if cfg.Prover.SuccessRate == 0 {
		cfg.Prover.SuccessRate = 0.15
	}
	if cfg.Prover.TimeoutSeconds == 0 {
		cfg.Prover.TimeoutSeconds = 10
	}

	// Archive defaults
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = "theoforge.db"
	}
}
