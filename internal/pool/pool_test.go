package pool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamim/theoforge/internal/archive"
	"github.com/lamim/theoforge/internal/control"
	"github.com/lamim/theoforge/internal/logic"
	"github.com/lamim/theoforge/internal/prover"
	"github.com/lamim/theoforge/internal/queue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeStatements(n int) []logic.Statement {
	out := make([]logic.Statement, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, logic.Statement{
			Name: fmt.Sprintf("cand_%d", i),
			Conclusion: logic.BinOp{
				Op:    logic.OpEq,
				Left:  logic.Var{Name: "x", Sort: logic.SortNat},
				Right: logic.Const{Value: fmt.Sprintf("%d", i), Sort: logic.SortNat},
			},
		})
	}
	return out
}

// stubSource hands out a fixed list of statements once, then empty batches.
type stubSource struct {
	mu      sync.Mutex
	pending []logic.Statement
	fed     []logic.Statement
}

func (s *stubSource) NextBatch(maxCount int) []logic.Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	if maxCount > len(s.pending) {
		maxCount = len(s.pending)
	}
	batch := s.pending[:maxCount]
	s.pending = s.pending[maxCount:]
	return batch
}

func (s *stubSource) Feed(proved []logic.Statement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fed = append(s.fed, proved...)
}

func (s *stubSource) fedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fed)
}

// stubProver succeeds exactly on the designated fingerprints.
type stubProver struct {
	succeed map[logic.Fingerprint]bool
}

func (p *stubProver) Name() string { return "stub" }

func (p *stubProver) Attempt(ctx context.Context, s logic.Statement) prover.Outcome {
	fp := s.Fingerprint()
	out := prover.Outcome{Fingerprint: fp, Elapsed: time.Microsecond}
	if p.succeed[fp] {
		out.Success = true
		out.Verified = true
		out.Proof = "(stub)"
	} else {
		out.Err = "no proof found"
	}
	return out
}

// memArchive stores records in a map with first-insert-wins semantics,
// matching the SQLite fingerprint primary key.
type memArchive struct {
	mu      sync.Mutex
	records map[logic.Fingerprint]archive.Record
}

func newMemArchive() *memArchive {
	return &memArchive{records: make(map[logic.Fingerprint]archive.Record)}
}

func (a *memArchive) Add(ctx context.Context, rec archive.Record) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.records[rec.Fingerprint]; ok {
		return false, nil
	}
	a.records[rec.Fingerprint] = rec
	return true, nil
}

func (a *memArchive) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

func newTestPool(source StatementSource, prv prover.Prover, arch Archiver, plane *control.Plane) *Pool {
	return New(Options{
		NumGenerators:  2,
		NumProvers:     2,
		BatchSize:      8,
		DequeueTimeout: 20 * time.Millisecond,
	}, source, queue.New(1000), plane, prv, arch, nil, nil, discardLogger())
}

func TestDiscoveryScenario(t *testing.T) {
	statements := makeStatements(100)
	succeed := make(map[logic.Fingerprint]bool)
	for _, s := range statements[:10] {
		succeed[s.Fingerprint()] = true
	}

	source := &stubSource{pending: statements}
	arch := newMemArchive()
	plane := control.NewPlane()
	p := newTestPool(source, &stubProver{succeed: succeed}, arch, plane)

	p.Start(context.Background())
	require.Eventually(t, func() bool {
		return plane.Snapshot().Attempted >= 100
	}, 5*time.Second, 10*time.Millisecond, "all candidates should be attempted")
	require.NoError(t, p.Stop(5*time.Second))

	stats := p.Stats()
	assert.Equal(t, int64(100), stats.Generated)
	assert.Equal(t, int64(100), stats.Attempted)
	assert.Equal(t, int64(10), stats.Proven)
	assert.Equal(t, int64(10), stats.Verified)
	assert.Equal(t, 10, arch.count())
	assert.Equal(t, 10, source.fedCount())
	assert.Len(t, stats.RecentDiscoveries, 10)
	assert.Equal(t, 90, stats.Queue.Failed)
	assert.Equal(t, 10, stats.Queue.Completed)
}

func TestDuplicateCandidatesRecordedOnce(t *testing.T) {
	base := makeStatements(1)[0]
	// The same statement offered five times under different names.
	var dupes []logic.Statement
	for i := 0; i < 5; i++ {
		dup := base
		dup.Name = fmt.Sprintf("dup_%d", i)
		dupes = append(dupes, dup)
	}

	source := &stubSource{pending: dupes}
	arch := newMemArchive()
	plane := control.NewPlane()
	p := newTestPool(source, &stubProver{succeed: map[logic.Fingerprint]bool{base.Fingerprint(): true}}, arch, plane)

	p.Start(context.Background())
	require.Eventually(t, func() bool {
		return plane.Snapshot().Attempted >= 1 && p.Stats().Queue.Size == 0
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, p.Stop(5*time.Second))

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Proven)
	assert.Equal(t, 1, arch.count())
	// Later duplicates are either filtered before enqueue or lose the
	// MarkProven race; none may produce a second record.
	assert.LessOrEqual(t, stats.Attempted, int64(5))
}

func TestSeededFingerprintsSkipped(t *testing.T) {
	statements := makeStatements(5)
	plane := control.NewPlane()
	var fps []logic.Fingerprint
	for _, s := range statements {
		fps = append(fps, s.Fingerprint())
	}
	plane.SeedProven(fps)

	succeed := make(map[logic.Fingerprint]bool)
	for _, fp := range fps {
		succeed[fp] = true
	}

	source := &stubSource{pending: statements}
	arch := newMemArchive()
	p := newTestPool(source, &stubProver{succeed: succeed}, arch, plane)

	p.Start(context.Background())
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, p.Stop(5*time.Second))

	stats := p.Stats()
	assert.Equal(t, int64(0), stats.Generated)
	assert.Equal(t, int64(0), stats.Attempted)
	assert.Equal(t, int64(0), stats.Proven)
	assert.Equal(t, 0, arch.count())
}

func TestPauseFreezesProgress(t *testing.T) {
	source := &stubSource{pending: makeStatements(50)}
	arch := newMemArchive()
	plane := control.NewPlane()
	p := newTestPool(source, &stubProver{succeed: nil}, arch, plane)

	p.Pause()
	p.Start(context.Background())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int64(0), plane.Snapshot().Generated)
	assert.Equal(t, int64(0), plane.Snapshot().Attempted)

	p.Resume()
	require.Eventually(t, func() bool {
		return plane.Snapshot().Attempted >= 50
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Stop(5*time.Second))
}

func TestStopIsQuiescent(t *testing.T) {
	source := &stubSource{pending: makeStatements(20)}
	arch := newMemArchive()
	plane := control.NewPlane()
	p := newTestPool(source, &stubProver{succeed: nil}, arch, plane)

	p.Start(context.Background())
	require.Eventually(t, func() bool {
		return plane.Snapshot().Attempted >= 1
	}, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop(5*time.Second))

	frozen := plane.Snapshot()
	time.Sleep(100 * time.Millisecond)
	after := plane.Snapshot()

	assert.Equal(t, frozen.Generated, after.Generated)
	assert.Equal(t, frozen.Attempted, after.Attempted)
	assert.Equal(t, frozen.Proven, after.Proven)
	assert.False(t, after.Running)
}

func TestStatsMergesQueue(t *testing.T) {
	source := &stubSource{}
	plane := control.NewPlane()
	q := queue.New(10)
	p := New(Options{}, source, q, plane, &stubProver{}, newMemArchive(), nil, nil, discardLogger())

	require.True(t, q.TryEnqueue(queue.NewTask(queue.KindProve, makeStatements(1)[0])))

	stats := p.Stats()
	assert.Equal(t, 1, stats.Queue.Pending)
	assert.True(t, stats.Running)
}
