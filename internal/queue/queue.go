// Package queue provides the bounded work channel carrying proof tasks from
// generator workers to prover workers, with backpressure once full.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lamim/theoforge/internal/logic"
)

// DefaultCapacity bounds the queue when no capacity is configured.
const DefaultCapacity = 10000

// Kind classifies a task.
type Kind string

const (
	KindGenerate Kind = "generate"
	KindProve    Kind = "prove"
	KindVerify   Kind = "verify"
	KindLearn    Kind = "learn"
)

// Task is a unit of queued work. A task is owned by the queue between
// enqueue and dequeue; ownership transfers to the dequeuing worker.
type Task struct {
	ID        string
	Kind      Kind
	Statement logic.Statement
	Priority  int
	CreatedAt time.Time
}

// NewTask builds a task with a fresh ID.
func NewTask(kind Kind, s logic.Statement) Task {
	return Task{
		ID:        uuid.New().String(),
		Kind:      kind,
		Statement: s,
		CreatedAt: time.Now(),
	}
}

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Pending   int
	Completed int
	Failed    int
	Size      int
}

// Queue is a bounded, thread-safe FIFO. Enqueue policy: generator workers
// use TryEnqueue and treat a full queue as "try again next loop"; Enqueue
// blocks and is for drivers that must not drop a task. Counters are updated
// under one mutex so concurrent enqueue/dequeue cannot lose updates.
type Queue struct {
	ch chan Task

	mu        sync.Mutex
	pending   int
	completed int
	failed    int
}

// New creates a queue with the given capacity; non-positive means
// DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan Task, capacity)}
}

// TryEnqueue adds a task without blocking. Returns false when the queue is
// full; the task was not accepted and the caller retries later.
func (q *Queue) TryEnqueue(t Task) bool {
	select {
	case q.ch <- t:
		q.mu.Lock()
		q.pending++
		q.mu.Unlock()
		return true
	default:
		return false
	}
}

// Enqueue adds a task, blocking while the queue is full until the context is
// cancelled. This is the backpressure path: a producer that must not drop
// candidates slows down to the consumers' pace.
func (q *Queue) Enqueue(ctx context.Context, t Task) error {
	select {
	case q.ch <- t:
		q.mu.Lock()
		q.pending++
		q.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes the oldest task, waiting up to timeout. ok is false on
// timeout, which is the normal idle signal letting workers re-check control
// flags instead of stalling forever.
func (q *Queue) Dequeue(timeout time.Duration) (t Task, ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case t = <-q.ch:
		return t, true
	case <-timer.C:
		return Task{}, false
	}
}

// MarkCompleted records the outcome of a dequeued task.
func (q *Queue) MarkCompleted(success bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if success {
		q.completed++
	} else {
		q.failed++
	}
	if q.pending > 0 {
		q.pending--
	}
}

// Stats returns a consistent copy of the counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Pending:   q.pending,
		Completed: q.completed,
		Failed:    q.failed,
		Size:      len(q.ch),
	}
}
