// Package prover defines the proof-attempt capability consumed by the worker
// pool and its concrete variants: a deterministic mock, an SMT solver run as
// an external process, and an external proof assistant.
package prover

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lamim/theoforge/internal/logic"
)

// Outcome is the result of exactly one proof attempt.
type Outcome struct {
	Fingerprint logic.Fingerprint
	Success     bool
	Proof       string
	Elapsed     time.Duration
	Verified    bool
	Err         string
}

// Prover attempts proofs. Implementations must be safe to call concurrently
// from multiple workers with different statements and must never panic; a
// failed or erroring attempt is reported through the Outcome.
type Prover interface {
	Name() string
	Attempt(ctx context.Context, s logic.Statement) Outcome
}

// Prover kinds selectable via configuration.
const (
	KindMock      = "mock"
	KindSMT       = "smt"
	KindAssistant = "assistant"
)

// Options configures prover construction.
type Options struct {
	Kind               string
	Bin                string  // solver/assistant executable
	Timeout            time.Duration
	RateLimitPerMinute int     // external process spawn rate; 0 = unlimited
	SuccessRate        float64 // mock only
	Seed               int64   // mock only
}

// New builds a prover of the configured kind.
func New(opts Options, logger *slog.Logger) (Prover, error) {
	switch opts.Kind {
	case KindMock, "":
		return NewMock(opts.SuccessRate, opts.Seed), nil
	case KindSMT:
		return NewSMT(opts, logger), nil
	case KindAssistant:
		return NewAssistant(opts, logger), nil
	default:
		return nil, fmt.Errorf("unknown prover kind %q", opts.Kind)
	}
}

// attemptStats tracks per-prover aggregate numbers for log reporting.
type attemptStats struct {
	mu        sync.Mutex
	attempted int
	succeeded int
	total     time.Duration
}

func (s *attemptStats) record(success bool, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempted++
	if success {
		s.succeeded++
	}
	s.total += elapsed
}

// Summary returns attempted, succeeded and cumulative attempt time.
func (s *attemptStats) Summary() (attempted, succeeded int, total time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempted, s.succeeded, s.total
}
