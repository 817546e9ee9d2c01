package config

import (
	"fmt"
	"runtime"

	"github.com/lamim/theoforge/internal/prover"
)

// Config represents the complete application configuration.
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Space   SpaceConfig   `toml:"space"`
	Prover  ProverConfig  `toml:"prover"`
	Archive ArchiveConfig `toml:"archive"`
	Metrics MetricsConfig `toml:"metrics"`
}

// EngineConfig holds worker pool and queue settings.
type EngineConfig struct {
	NumGenerators        int `toml:"num_generators"`         // 0 = scale with cores
	NumProvers           int `toml:"num_provers"`            // 0 = scale with cores
	QueueCapacity        int `toml:"queue_capacity"`         // default 10000
	BatchSize            int `toml:"batch_size"`             // statements pulled per generator loop
	DequeueTimeoutMillis int `toml:"dequeue_timeout_millis"` // prover idle re-check interval
	StopTimeoutSeconds   int `toml:"stop_timeout_seconds"`   // shutdown drain bound
}

// SpaceConfig bounds statement generation.
type SpaceConfig struct {
	MaxTermDepth   int   `toml:"max_term_depth"`
	MaxQuantifiers int   `toml:"max_quantifiers"`
	Seed           int64 `toml:"seed"`
}

// ProverConfig selects and tunes the proof capability.
type ProverConfig struct {
	Kind               string  `toml:"kind"` // mock, smt, assistant
	Bin                string  `toml:"bin"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	RateLimitPerMinute int     `toml:"rate_limit_per_minute"`
	SuccessRate        float64 `toml:"success_rate"` // mock only
}

// ArchiveConfig locates the durable stores.
type ArchiveConfig struct {
	Path           string `toml:"path"`
	AttemptLogPath string `toml:"attempt_log_path"` // empty disables the attempt log
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `toml:"addr"` // empty disables the /metrics listener
}

const (
	// MaxWorkers is the maximum allowed worker count per kind.
	MaxWorkers = 256
	// maxWorkersAuto caps the automatic core-based scaling.
	maxWorkersAuto = 8
)

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Engine.NumGenerators < 0 || c.Engine.NumGenerators > MaxWorkers {
		return fmt.Errorf("engine.num_generators must be between 0 and %d (got %d)", MaxWorkers, c.Engine.NumGenerators)
	}
	if c.Engine.NumProvers < 0 || c.Engine.NumProvers > MaxWorkers {
		return fmt.Errorf("engine.num_provers must be between 0 and %d (got %d)", MaxWorkers, c.Engine.NumProvers)
	}
	if c.Engine.QueueCapacity < 0 {
		return fmt.Errorf("engine.queue_capacity must be non-negative (got %d)", c.Engine.QueueCapacity)
	}
	if c.Engine.BatchSize < 1 {
		return fmt.Errorf("engine.batch_size must be at least 1 (got %d)", c.Engine.BatchSize)
	}
	if c.Space.MaxTermDepth < 1 || c.Space.MaxTermDepth > 6 {
		return fmt.Errorf("space.max_term_depth must be between 1 and 6 (got %d)", c.Space.MaxTermDepth)
	}
	if c.Space.MaxQuantifiers < 0 {
		return fmt.Errorf("space.max_quantifiers must be non-negative (got %d)", c.Space.MaxQuantifiers)
	}

	switch c.Prover.Kind {
	case prover.KindMock, prover.KindSMT, prover.KindAssistant:
	default:
		return fmt.Errorf("prover.kind must be one of: mock, smt, assistant (got %q)", c.Prover.Kind)
	}
	if c.Prover.SuccessRate < 0 || c.Prover.SuccessRate > 1 {
		return fmt.Errorf("prover.success_rate must be between 0 and 1 (got %.2f)", c.Prover.SuccessRate)
	}
	if c.Prover.TimeoutSeconds < 0 {
		return fmt.Errorf("prover.timeout_seconds must be non-negative (got %d)", c.Prover.TimeoutSeconds)
	}
	if c.Prover.RateLimitPerMinute < 0 {
		return fmt.Errorf("prover.rate_limit_per_minute must be non-negative (got %d)", c.Prover.RateLimitPerMinute)
	}

	if c.Archive.Path == "" {
		return fmt.Errorf("archive.path is required")
	}
	return nil
}

// autoWorkers scales a worker count with available cores: half the cores per
// kind, at least 1, at most maxWorkersAuto.
func autoWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	if n > maxWorkersAuto {
		n = maxWorkersAuto
	}
	return n
}
