package prover

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"time"

	"github.com/lamim/theoforge/internal/logic"
)

// Mock simulates proof search without an external solver. Whether a
// statement "proves" is a deterministic function of its fingerprint and the
// seed, so runs are reproducible and repeated attempts on the same statement
// always agree. The attempt burns a little CPU proportional to statement
// size to stand in for real search rather than sleeping.
type Mock struct {
	successRate float64
	seed        int64
	stats       attemptStats
}

// NewMock creates a mock prover. successRate outside (0,1] defaults to 0.15.
func NewMock(successRate float64, seed int64) *Mock {
	if successRate <= 0 || successRate > 1 {
		successRate = 0.15
	}
	return &Mock{successRate: successRate, seed: seed}
}

func (m *Mock) Name() string { return KindMock }

func (m *Mock) Attempt(ctx context.Context, s logic.Statement) Outcome {
	start := time.Now()
	fp := s.Fingerprint()

	// Simulated search: iterated hashing scaled by statement complexity.
	canonical := s.Canonical()
	rounds := len(canonical)%10 + 1
	sum := sha256.Sum256([]byte(canonical))
	for i := 0; i < rounds*100; i++ {
		sum = sha256.Sum256(sum[:])
	}

	seeded := sha256.Sum256([]byte(string(fp) + "/" + strconv.FormatInt(m.seed, 10)))
	draw := float64(binary.BigEndian.Uint32(seeded[:4])) / float64(1<<32)
	success := draw < m.successRate

	out := Outcome{
		Fingerprint: fp,
		Success:     success,
		Elapsed:     time.Since(start),
	}
	if success {
		out.Proof = "(simulated)"
		out.Verified = true
	} else {
		out.Err = "no proof found"
	}
	m.stats.record(success, out.Elapsed)
	return out
}
