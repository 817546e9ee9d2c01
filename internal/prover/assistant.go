package prover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/lamim/theoforge/internal/logic"
)

// Assistant proves statements through an external proof assistant binary
// (lean-style: checks a source file, exit 0 means the proof script was
// accepted by the kernel).
type Assistant struct {
	bin     string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
	stats   attemptStats
}

// NewAssistant builds the proof-assistant-backed prover.
func NewAssistant(opts Options, logger *slog.Logger) *Assistant {
	bin := opts.Bin
	if bin == "" {
		bin = "lean"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Assistant{
		bin:     bin,
		timeout: timeout,
		limiter: spawnLimiter(opts.RateLimitPerMinute),
		logger:  logger,
	}
}

func (p *Assistant) Name() string { return KindAssistant }

func (p *Assistant) Attempt(ctx context.Context, s logic.Statement) Outcome {
	start := time.Now()
	out := Outcome{Fingerprint: s.Fingerprint()}

	source, err := logic.RenderAssistant(s)
	if err != nil {
		out.Elapsed = time.Since(start)
		out.Err = "cannot render statement: " + err.Error()
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

	dir, err := os.MkdirTemp("", "theoforge-proof-*")
	if err != nil {
		out.Elapsed = time.Since(start)
		out.Err = "temp dir: " + err.Error()
		p.stats.record(false, out.Elapsed)
		return out
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "candidate.lean")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		out.Elapsed = time.Since(start)
		out.Err = "write source: " + err.Error()
		p.stats.record(false, out.Elapsed)
		return out
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(attemptCtx, p.bin, path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out.Elapsed = time.Since(start)

	switch {
	case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		out.Err = fmt.Sprintf("assistant timeout after %s", p.timeout)
	case runErr == nil:
		out.Success = true
		out.Verified = true
		out.Proof = source
	default:
		out.Err = "proof rejected: " + firstLine(stderr.String(), runErr.Error())
	}

	p.stats.record(out.Success, out.Elapsed)
	p.logger.Debug("assistant attempt finished",
		"fingerprint", out.Fingerprint,
		"success", out.Success,
		"elapsed_ms", out.Elapsed.Milliseconds())
	return out
}
