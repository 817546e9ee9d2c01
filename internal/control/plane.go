// Package control holds the shared coordination state visible to every
// worker: counters, run/pause flags, the proven-fingerprint set and the
// recent-discovery ring. All mutation goes through one mutex.
package control

import (
	"sync"
	"time"

	"github.com/lamim/theoforge/internal/logic"
)

// ringCapacity bounds the recent-discovery buffer; the oldest entry is
// evicted first.
const ringCapacity = 100

// Counter names the monotonic counters the plane tracks.
type Counter string

const (
	CounterGenerated Counter = "generated"
	CounterAttempted Counter = "attempted"
	CounterProven    Counter = "proven"
	CounterVerified  Counter = "verified"
)

// Discovery is a successfully proved statement as seen by observers polling
// the plane.
type Discovery struct {
	Name        string
	Fingerprint logic.Fingerprint
	ProofTime   time.Duration
	At          time.Time
}

// WorkerStatus describes one registered worker.
type WorkerStatus struct {
	Kind           string
	StartedAt      time.Time
	TasksCompleted int
}

// Stats is a consistent point-in-time copy of the plane state. Maps and
// slices are deep-copied; mutating a snapshot never affects the plane.
type Stats struct {
	Generated int64
	Attempted int64
	Proven    int64
	Verified  int64

	Elapsed        time.Duration
	TotalProofTime time.Duration
	RateGenerated  float64
	RateProven     float64

	Running bool
	Paused  bool

	Workers           map[string]WorkerStatus
	RecentDiscoveries []Discovery
}

// Plane is the process-wide control plane. Create one per pool run and pass
// it explicitly to every component; there are no ambient singletons.
type Plane struct {
	mu sync.Mutex

	generated int64
	attempted int64
	proven    int64
	verified  int64

	start          time.Time
	totalProofTime time.Duration

	running bool
	paused  bool

	provenSet map[logic.Fingerprint]struct{}
	recent    []Discovery
	workers   map[string]WorkerStatus
}

// NewPlane returns a running, unpaused plane with empty state.
func NewPlane() *Plane {
	return &Plane{
		start:     time.Now(),
		running:   true,
		provenSet: make(map[logic.Fingerprint]struct{}),
		workers:   make(map[string]WorkerStatus),
	}
}

// Increment adds n to the named counter. Counters only grow.
func (p *Plane) Increment(c Counter, n int64) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch c {
	case CounterGenerated:
		p.generated += n
	case CounterAttempted:
		p.attempted += n
	case CounterProven:
		p.proven += n
	case CounterVerified:
		p.verified += n
	}
}

// AddProofTime accumulates wall time spent inside prover attempts.
func (p *Plane) AddProofTime(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totalProofTime += d
}

// MarkProven atomically inserts the fingerprint into the proven set and
// reports whether this call was the first to do so. This is the
// linearization point for at-most-once recording: callers may archive and
// count a discovery only when it returns true.
func (p *Plane) MarkProven(fp logic.Fingerprint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.provenSet[fp]; ok {
		return false
	}
	p.provenSet[fp] = struct{}{}
	return true
}

// IsProven reports whether the fingerprint is already in the proven set.
func (p *Plane) IsProven(fp logic.Fingerprint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.provenSet[fp]
	return ok
}

// SeedProven loads fingerprints recovered from the archive at startup. The
// archive is the durable authority; the in-memory set is a fast path rebuilt
// from it.
func (p *Plane) SeedProven(fps []logic.Fingerprint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, fp := range fps {
		p.provenSet[fp] = struct{}{}
	}
}

// AddDiscovery appends to the recent-discovery ring, evicting the oldest
// entry once the ring is full.
func (p *Plane) AddDiscovery(d Discovery) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recent = append(p.recent, d)
	if len(p.recent) > ringCapacity {
		p.recent = p.recent[len(p.recent)-ringCapacity:]
	}
}

// RegisterWorker records a worker's identity for observability.
func (p *Plane) RegisterWorker(id, kind string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workers[id] = WorkerStatus{Kind: kind, StartedAt: time.Now()}
}

// UpdateWorker records a worker's completed-task count.
func (p *Plane) UpdateWorker(id string, tasksCompleted int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ws, ok := p.workers[id]
	if !ok {
		return
	}
	ws.TasksCompleted = tasksCompleted
	p.workers[id] = ws
}

// Stop clears the running flag. Workers observe it cooperatively at loop
// boundaries; nothing is pre-empted mid-task.
func (p *Plane) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}

// Pause sets the paused flag; workers idle-wait until Resume.
func (p *Plane) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume clears the paused flag.
func (p *Plane) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

// IsRunning reports the running flag.
func (p *Plane) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// IsPaused reports the paused flag.
func (p *Plane) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// ProvenCount returns the size of the proven set.
func (p *Plane) ProvenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.provenSet)
}

// Snapshot returns a consistent copy of the plane state.
func (p *Plane) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.start)
	stats := Stats{
		Generated:      p.generated,
		Attempted:      p.attempted,
		Proven:         p.proven,
		Verified:       p.verified,
		Elapsed:        elapsed,
		TotalProofTime: p.totalProofTime,
		Running:        p.running,
		Paused:         p.paused,
		Workers:        make(map[string]WorkerStatus, len(p.workers)),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		stats.RateGenerated = float64(p.generated) / secs
		stats.RateProven = float64(p.proven) / secs
	}
	for id, ws := range p.workers {
		stats.Workers[id] = ws
	}
	stats.RecentDiscoveries = make([]Discovery, len(p.recent))
	copy(stats.RecentDiscoveries, p.recent)
	return stats
}
