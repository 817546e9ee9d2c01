// Package pool runs the generator and prover worker loops against the shared
// control plane and work queue. Workers are plain goroutines joined through a
// WaitGroup; coordination is cooperative via the plane's run/pause flags.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lamim/theoforge/internal/archive"
	"github.com/lamim/theoforge/internal/control"
	"github.com/lamim/theoforge/internal/logic"
	"github.com/lamim/theoforge/internal/metrics"
	"github.com/lamim/theoforge/internal/prover"
	"github.com/lamim/theoforge/internal/queue"
)

// pauseInterval is how long an idle worker sleeps before re-checking the
// pause flag.
const pauseInterval = 100 * time.Millisecond

// StatementSource produces candidate statements for the generator workers and
// accepts proved statements back for guided generation.
type StatementSource interface {
	NextBatch(maxCount int) []logic.Statement
	Feed(proved []logic.Statement)
}

// Archiver persists discoveries. Add reports whether the record was newly
// inserted.
type Archiver interface {
	Add(ctx context.Context, rec archive.Record) (bool, error)
}

// AttemptRecorder logs every proof attempt. Implemented by
// archive.AttemptLog; nil disables attempt logging.
type AttemptRecorder interface {
	Record(a archive.Attempt) error
}

// Options configures a pool run.
type Options struct {
	NumGenerators  int
	NumProvers     int
	BatchSize      int
	DequeueTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.NumGenerators < 1 {
		o.NumGenerators = 1
	}
	if o.NumProvers < 1 {
		o.NumProvers = 1
	}
	if o.BatchSize < 1 {
		o.BatchSize = 32
	}
	if o.DequeueTimeout <= 0 {
		o.DequeueTimeout = 500 * time.Millisecond
	}
}

// Stats merges the plane snapshot with queue counters for reporting.
type Stats struct {
	control.Stats
	Queue queue.Stats
}

// Pool owns the worker goroutines of one discovery run.
type Pool struct {
	opts     Options
	source   StatementSource
	queue    *queue.Queue
	plane    *control.Plane
	prover   prover.Prover
	archiver Archiver
	attempts AttemptRecorder
	metrics  *metrics.Collector
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc

	startOnce sync.Once
}

// New wires a pool. attempts and collector may be nil.
func New(
	opts Options,
	source StatementSource,
	q *queue.Queue,
	plane *control.Plane,
	p prover.Prover,
	archiver Archiver,
	attempts AttemptRecorder,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Pool {
	opts.applyDefaults()
	return &Pool{
		opts:     opts,
		source:   source,
		queue:    q,
		plane:    plane,
		prover:   p,
		archiver: archiver,
		attempts: attempts,
		metrics:  collector,
		logger:   logger,
	}
}

// Start launches the worker goroutines. It returns immediately; workers run
// until Stop is called or ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		ctx, p.cancel = context.WithCancel(ctx)

		for i := 0; i < p.opts.NumGenerators; i++ {
			id := "generator-" + uuid.New().String()[:8]
			p.plane.RegisterWorker(id, "generator")
			p.wg.Add(1)
			go p.generatorLoop(ctx, id)
		}
		for i := 0; i < p.opts.NumProvers; i++ {
			id := "prover-" + uuid.New().String()[:8]
			p.plane.RegisterWorker(id, "prover")
			p.wg.Add(1)
			go p.proverLoop(ctx, id)
		}

		if p.metrics != nil {
			p.metrics.SetActiveWorkers("generator", p.opts.NumGenerators)
			p.metrics.SetActiveWorkers("prover", p.opts.NumProvers)
		}
		p.logger.Info("worker pool started",
			"generators", p.opts.NumGenerators,
			"provers", p.opts.NumProvers)
	})
}

// Stop signals all workers to finish their current task and waits up to
// timeout for them to exit. A timeout is reported as an error; stragglers
// keep draining in the background until the context is cancelled.
func (p *Pool) Stop(timeout time.Duration) error {
	p.plane.Stop()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-time.After(timeout):
		err = fmt.Errorf("worker pool stop timed out after %s", timeout)
	}

	if p.cancel != nil {
		p.cancel()
	}
	if p.metrics != nil {
		p.metrics.SetActiveWorkers("generator", 0)
		p.metrics.SetActiveWorkers("prover", 0)
	}
	if err != nil {
		p.logger.Warn("worker pool stopped with stragglers", "error", err)
		return err
	}
	p.logger.Info("worker pool stopped")
	return nil
}

// Pause halts task processing without tearing down workers.
func (p *Pool) Pause() { p.plane.Pause() }

// Resume restarts paused workers.
func (p *Pool) Resume() { p.plane.Resume() }

// Stats merges the plane snapshot with the queue counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Stats: p.plane.Snapshot(),
		Queue: p.queue.Stats(),
	}
}

// waitIfPaused sleeps in pauseInterval steps while the pause flag is set.
// Returns false once the pool is stopping or the context is cancelled.
func (p *Pool) waitIfPaused(ctx context.Context) bool {
	for p.plane.IsPaused() {
		if !p.plane.IsRunning() || ctx.Err() != nil {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pauseInterval):
		}
	}
	return p.plane.IsRunning() && ctx.Err() == nil
}

// generatorLoop pulls candidate batches from the source and enqueues them as
// prove tasks. A full queue is backpressure: unqueued candidates are carried
// over to the next iteration instead of dropped, and the loop idles briefly
// before retrying.
func (p *Pool) generatorLoop(ctx context.Context, id string) {
	defer p.wg.Done()

	completed := 0
	var carry []logic.Statement

	for p.plane.IsRunning() && ctx.Err() == nil {
		if !p.waitIfPaused(ctx) {
			return
		}

		batch := carry
		carry = nil
		if len(batch) == 0 {
			batch = p.source.NextBatch(p.opts.BatchSize)
		}
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pauseInterval):
			}
			continue
		}

		accepted := 0
		for i, s := range batch {
			if p.plane.IsProven(s.Fingerprint()) {
				continue
			}
			if !p.queue.TryEnqueue(queue.NewTask(queue.KindProve, s)) {
				if p.metrics != nil {
					p.metrics.RecordEnqueueRejection()
				}
				carry = batch[i:]
				break
			}
			accepted++
		}

		if accepted > 0 {
			p.plane.Increment(control.CounterGenerated, int64(accepted))
			if p.metrics != nil {
				p.metrics.RecordGenerated(accepted)
			}
			completed += accepted
			p.plane.UpdateWorker(id, completed)
		}
		if p.metrics != nil {
			p.metrics.SetQueueDepth(p.queue.Stats().Size)
		}

		if len(carry) > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pauseInterval):
			}
		}
	}
}

// proverLoop dequeues tasks and attempts proofs. The dequeue timeout doubles
// as the idle heartbeat at which the loop re-checks the control flags.
func (p *Pool) proverLoop(ctx context.Context, id string) {
	defer p.wg.Done()

	completed := 0

	for p.plane.IsRunning() && ctx.Err() == nil {
		if !p.waitIfPaused(ctx) {
			return
		}

		task, ok := p.queue.Dequeue(p.opts.DequeueTimeout)
		if !ok {
			continue
		}

		p.processTask(ctx, task)
		completed++
		p.plane.UpdateWorker(id, completed)
	}
}

// processTask runs one proof attempt and records its outcome everywhere it
// belongs: plane counters, the attempt log, and on success the archive.
func (p *Pool) processTask(ctx context.Context, task queue.Task) {
	s := task.Statement
	out := p.prover.Attempt(ctx, s)

	p.plane.Increment(control.CounterAttempted, 1)
	p.plane.AddProofTime(out.Elapsed)
	if p.metrics != nil {
		p.metrics.RecordAttempt(out.Success, out.Err != "", out.Elapsed)
	}

	if p.attempts != nil {
		err := p.attempts.Record(archive.Attempt{
			Name:        s.Name,
			Fingerprint: out.Fingerprint,
			Success:     out.Success,
			Verified:    out.Verified,
			ProofTime:   out.Elapsed.Seconds(),
			Error:       out.Err,
		})
		if err != nil {
			p.logger.Warn("attempt log write failed", "error", err)
		}
	}

	if !out.Success {
		p.queue.MarkCompleted(false)
		return
	}

	// First MarkProven wins; every other racer for the same fingerprint
	// treats its result as a duplicate.
	if !p.plane.MarkProven(out.Fingerprint) {
		p.queue.MarkCompleted(true)
		return
	}

	inserted, err := p.archiver.Add(ctx, archive.Record{
		Fingerprint: out.Fingerprint,
		Name:        s.Name,
		Statement:   s,
		Proof:       out.Proof,
		ProofTime:   out.Elapsed,
		Verified:    out.Verified,
		ProvenAt:    time.Now(),
	})
	if err != nil {
		p.logger.Error("archive write failed",
			"fingerprint", out.Fingerprint, "error", err)
		p.queue.MarkCompleted(false)
		return
	}
	if !inserted {
		// Already durable from a previous run; counted then, not now.
		p.queue.MarkCompleted(true)
		return
	}

	p.plane.Increment(control.CounterProven, 1)
	if out.Verified {
		p.plane.Increment(control.CounterVerified, 1)
	}
	p.plane.AddDiscovery(control.Discovery{
		Name:        s.Name,
		Fingerprint: out.Fingerprint,
		ProofTime:   out.Elapsed,
		At:          time.Now(),
	})
	if p.metrics != nil {
		p.metrics.RecordDiscovery()
	}
	p.source.Feed([]logic.Statement{s})
	p.queue.MarkCompleted(true)

	p.logger.Info("theorem discovered",
		"name", s.Name,
		"fingerprint", out.Fingerprint,
		"proof_time_ms", out.Elapsed.Milliseconds(),
		"verified", out.Verified)
}
