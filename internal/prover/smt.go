package prover

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lamim/theoforge/internal/logic"
)

const defaultAttemptTimeout = 10 * time.Second

// SMT proves statements by refutation through an external SMT solver
// (z3-compatible: reads SMT-LIB2 on stdin). An "unsat" verdict means the
// negated statement is unsatisfiable, so the statement holds; "sat" means a
// counterexample exists; anything else is reported as unknown.
type SMT struct {
	bin     string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
	stats   attemptStats
}

// NewSMT builds the solver-backed prover.
func NewSMT(opts Options, logger *slog.Logger) *SMT {
	bin := opts.Bin
	if bin == "" {
		bin = "z3"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	return &SMT{
		bin:     bin,
		timeout: timeout,
		limiter: spawnLimiter(opts.RateLimitPerMinute),
		logger:  logger,
	}
}

func (p *SMT) Name() string { return KindSMT }

func (p *SMT) Attempt(ctx context.Context, s logic.Statement) Outcome {
	start := time.Now()
	out := Outcome{Fingerprint: s.Fingerprint()}

	script, err := logic.RenderSMT(s)
	if err != nil {
		out.Elapsed = time.Since(start)
		out.Err = "cannot translate to SMT: " + err.Error()
		p.stats.record(false, out.Elapsed)
		return out
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			out.Elapsed = time.Since(start)
			out.Err = err.Error()
			p.stats.record(false, out.Elapsed)
			return out
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(attemptCtx, p.bin, "-smt2", "-in")
	cmd.Stdin = strings.NewReader(script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out.Elapsed = time.Since(start)
	verdict := strings.ToLower(stdout.String())

	switch {
	case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		out.Err = "solver timeout"
	case strings.Contains(verdict, "unsat"):
		out.Success = true
		out.Verified = true
		out.Proof = "(smt refutation)"
	case strings.Contains(verdict, "sat"):
		out.Err = "counterexample found"
	case runErr != nil:
		out.Err = "solver error: " + firstLine(stderr.String(), runErr.Error())
	default:
		out.Err = "unknown verdict: " + firstLine(verdict, "empty output")
	}

	p.stats.record(out.Success, out.Elapsed)
	p.logger.Debug("SMT attempt finished",
		"fingerprint", out.Fingerprint,
		"success", out.Success,
		"elapsed_ms", out.Elapsed.Milliseconds())
	return out
}

// spawnLimiter bounds external process launches. The limit exists to keep a
// large prover pool from forking solvers faster than the host can absorb.
func spawnLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	rps := float64(perMinute) / 60.0
	burst := perMinute / 5
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func firstLine(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
