package logic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// fingerprintLen is the number of hex characters kept from the digest.
// 64 bits of digest is far beyond any realistic collision risk for the
// statement volumes the engine explores.
const fingerprintLen = 16

// Fingerprint is a deterministic digest identifying a statement for
// deduplication. Only equality is meaningful; there is no ordering contract.
type Fingerprint string

// Statement is a candidate logical claim: hypotheses entail a conclusion.
// Statements are immutable after construction and must never be mutated once
// enqueued for proving.
type Statement struct {
	Name       string
	Hypotheses []Term
	Conclusion Term
}

// Fingerprint returns the deduplication digest of the statement.
//
// The digest covers the canonical rendering of (hypotheses, conclusion) only.
// The name is presentation metadata and deliberately excluded, so two
// structurally equal statements fingerprint identically regardless of how or
// in which order they were generated.
func (s Statement) Fingerprint() Fingerprint {
	sum := sha256.Sum256([]byte(s.Canonical()))
	return Fingerprint(hex.EncodeToString(sum[:])[:fingerprintLen])
}

// Canonical returns the canonical serialization of the statement: the fully
// parenthesized prefix form of each hypothesis followed by the conclusion.
func (s Statement) Canonical() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, h := range s.Hypotheses {
		if i > 0 {
			b.WriteByte(';')
		}
		if h != nil {
			h.writeCanonical(&b)
		}
	}
	b.WriteString("]|-")
	if s.Conclusion != nil {
		s.Conclusion.writeCanonical(&b)
	}
	return b.String()
}

// Check reports whether the statement is well formed. A failing statement is
// an ordinary generation casualty: callers discard it and move on.
func (s Statement) Check() error {
	if s.Conclusion == nil {
		return fmt.Errorf("statement %q has no conclusion", s.Name)
	}
	if err := s.Conclusion.check(); err != nil {
		return fmt.Errorf("statement %q conclusion: %w", s.Name, err)
	}
	for i, h := range s.Hypotheses {
		if h == nil {
			return fmt.Errorf("statement %q hypothesis %d is nil", s.Name, i)
		}
		if err := h.check(); err != nil {
			return fmt.Errorf("statement %q hypothesis %d: %w", s.Name, i, err)
		}
	}
	return nil
}

// String renders the statement in sequent style for logs.
func (s Statement) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteString(": ")
	if len(s.Hypotheses) > 0 {
		b.WriteByte('[')
		for i, h := range s.Hypotheses {
			if i > 0 {
				b.WriteString(", ")
			}
			if h != nil {
				h.writeCanonical(&b)
			}
		}
		b.WriteString("] ")
	}
	b.WriteString("|- ")
	if s.Conclusion != nil {
		s.Conclusion.writeCanonical(&b)
	}
	return b.String()
}
