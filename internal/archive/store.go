// Package archive is the durable, deduplicating store of proved statements.
// It is the source of truth for deduplication: the control plane's in-memory
// proven set is a fast path rebuilt from here at startup, while the
// fingerprint primary key rejects duplicates independently of any in-memory
// state.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lamim/theoforge/internal/logic"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS statements (
	fingerprint        TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	statement          TEXT NOT NULL,
	proof              TEXT,
	proof_time_seconds REAL NOT NULL DEFAULT 0,
	verified           BOOLEAN NOT NULL DEFAULT 0,
	proven_at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_statements_proven_at ON statements(proven_at);
`

// Record is one archived discovery. Records are created on first successful
// insert of a fingerprint and never updated or deleted by the pipeline.
type Record struct {
	Fingerprint logic.Fingerprint
	Name        string
	Statement   logic.Statement
	Proof       string
	ProofTime   time.Duration
	Verified    bool
	ProvenAt    time.Time
}

// Stats summarizes the archive contents.
type Stats struct {
	Count          int64
	AvgProofTime   time.Duration
	TotalProofTime time.Duration
}

// Store wraps the SQLite database holding proved statements.
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive database. SQLite is configured with WAL
// mode, NORMAL synchronous, a busy timeout, and a single writer connection
// to avoid SQLITE_BUSY under concurrent provers.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect archive: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply archive schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a record, keyed by fingerprint. Returns (true, nil) when the
// record was newly inserted and (false, nil) when the fingerprint was already
// archived; a duplicate is expected under racing provers and is not an error.
// Safe for concurrent use; ON CONFLICT DO NOTHING makes the insert atomic per
// fingerprint at the storage layer.
func (s *Store) Add(ctx context.Context, rec Record) (bool, error) {
	encoded, err := logic.EncodeStatement(rec.Statement)
	if err != nil {
		return false, fmt.Errorf("add record: %w", err)
	}

	provenAt := rec.ProvenAt
	if provenAt.IsZero() {
		provenAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO statements
		(fingerprint, name, statement, proof, proof_time_seconds, verified, proven_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		string(rec.Fingerprint),
		rec.Name,
		string(encoded),
		rec.Proof,
		rec.ProofTime.Seconds(),
		rec.Verified,
		provenAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("add record: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add record: %w", err)
	}
	return inserted > 0, nil
}

// Contains reports whether the fingerprint is archived.
func (s *Store) Contains(ctx context.Context, fp logic.Fingerprint) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM statements WHERE fingerprint = ?`, string(fp)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("contains: %w", err)
	}
	return true, nil
}

// Fingerprints returns every archived fingerprint, for seeding the control
// plane's proven set at startup.
func (s *Store) Fingerprints(ctx context.Context) ([]logic.Fingerprint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fingerprint FROM statements`)
	if err != nil {
		return nil, fmt.Errorf("fingerprints: %w", err)
	}
	defer rows.Close()

	var fps []logic.Fingerprint
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("fingerprints: %w", err)
		}
		fps = append(fps, logic.Fingerprint(fp))
	}
	return fps, rows.Err()
}

// GetAll returns archived records ordered by discovery time, most recent
// first. limit <= 0 means no limit.
func (s *Store) GetAll(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT fingerprint, name, statement, proof, proof_time_seconds, verified, proven_at
		FROM statements
		ORDER BY proven_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get all: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			fp, name, encoded string
			proof             sql.NullString
			proofSecs         float64
			verified          bool
			provenAt          int64
		)
		if err := rows.Scan(&fp, &name, &encoded, &proof, &proofSecs, &verified, &provenAt); err != nil {
			return nil, fmt.Errorf("get all: %w", err)
		}

		stmt, err := logic.DecodeStatement([]byte(encoded))
		if err != nil {
			return nil, fmt.Errorf("get all: record %s: %w", fp, err)
		}

		records = append(records, Record{
			Fingerprint: logic.Fingerprint(fp),
			Name:        name,
			Statement:   stmt,
			Proof:       proof.String,
			ProofTime:   time.Duration(proofSecs * float64(time.Second)),
			Verified:    verified,
			ProvenAt:    time.Unix(0, provenAt),
		})
	}
	return records, rows.Err()
}

// Statistics aggregates the archive contents.
func (s *Store) Statistics(ctx context.Context) (Stats, error) {
	var (
		count     int64
		avgSecs   sql.NullFloat64
		totalSecs sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(proof_time_seconds), SUM(proof_time_seconds)
		FROM statements
	`).Scan(&count, &avgSecs, &totalSecs)
	if err != nil {
		return Stats{}, fmt.Errorf("statistics: %w", err)
	}

	return Stats{
		Count:          count,
		AvgProofTime:   time.Duration(avgSecs.Float64 * float64(time.Second)),
		TotalProofTime: time.Duration(totalSecs.Float64 * float64(time.Second)),
	}, nil
}
