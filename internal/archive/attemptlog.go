package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lamim/theoforge/internal/logic"
)

// Attempt is one proof attempt as recorded in the attempt log.
type Attempt struct {
	Name        string            `json:"name"`
	Fingerprint logic.Fingerprint `json:"fingerprint"`
	Success     bool              `json:"success"`
	Verified    bool              `json:"verified"`
	ProofTime   float64           `json:"proof_time_seconds"`
	Error       string            `json:"error,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// AttemptLog is an append-only JSONL record of every proof attempt, success
// or failure, for offline analysis of the discovery process. Writes are
// unbuffered, so each entry hits the file as it is recorded.
type AttemptLog struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// OpenAttemptLog opens (appending) the JSONL log at path.
func OpenAttemptLog(path string) (*AttemptLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open attempt log: %w", err)
	}
	return &AttemptLog{file: file, enc: json.NewEncoder(file)}, nil
}

// Record appends one attempt. Safe for concurrent use.
func (l *AttemptLog) Record(a Attempt) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(a); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *AttemptLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
