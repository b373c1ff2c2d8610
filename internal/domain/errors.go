package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Submission errors
	ErrInvalidProfile      = errors.New("profile factor out of range")
	ErrDuplicateSubmission = errors.New("student already has a pending request")

	// Store errors
	ErrNotFound = errors.New("record not found")

	// Signing errors — fatal to the accept path; a block must never
	// be appended unsigned.
	ErrSigningUnavailable = errors.New("validator signing key unavailable")

	// Authorization errors
	ErrUnauthorized = errors.New("validator credential rejected")

	// Ledger errors
	ErrChainCorrupted = errors.New("ledger chain integrity check failed")
)

// CorruptionError pinpoints the first broken block found by a chain audit.
// The system never auto-repairs a chain — it only reports the break point.
type CorruptionError struct {
	Index  int64
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("chain corrupted at block %d: %s", e.Index, e.Reason)
}

// Unwrap makes errors.Is(err, ErrChainCorrupted) hold.
func (e *CorruptionError) Unwrap() error { return ErrChainCorrupted }
