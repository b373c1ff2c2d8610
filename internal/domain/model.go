// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ─── Risk Bands ─────────────────────────────────────────────────────────────

// RiskBand classifies a RentScore for a relying party.
type RiskBand string

const (
	BandExcellent RiskBand = "EXCELLENT"
	BandAverage   RiskBand = "AVERAGE"
	BandRisky     RiskBand = "RISKY"
)

// ─── Submission Types ───────────────────────────────────────────────────────

// ScoreSubmission is the profile a student sends for validation.
// Created by the input surface, immutable, consumed exactly once.
// Each factor is an integer in [FactorMin, FactorMax].
type ScoreSubmission struct {
	StudentID   string    `json:"student_id"`
	Income      int       `json:"income"`
	Guarantor   int       `json:"guarantor"`
	History     int       `json:"history"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RentScore is the derived reliability score plus its risk band.
// The band is a fixed projection of the numeric value, so a verifier
// can recompute it independently from the stored score.
type RentScore struct {
	Value int      `json:"value"`
	Band  RiskBand `json:"band"`
}

// PendingRequest is a submission plus its computed score, held while
// awaiting a validator decision. Destroyed the instant a decision is made.
type PendingRequest struct {
	ID         string          `json:"id"`
	Submission ScoreSubmission `json:"submission"`
	Score      RentScore       `json:"score"`
}

// ─── Ledger Types ───────────────────────────────────────────────────────────

// GenesisPrevHash is the fixed previous-hash sentinel of block 0.
const GenesisPrevHash = "0"

// Block is one hash-linked, signed ledger entry recording one accepted score.
// Immutable once appended; the ledger chain is the only writer.
type Block struct {
	Index     int64     `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	StudentID string    `json:"student_id"`
	Score     int       `json:"score"`
	Band      RiskBand  `json:"band"`
	Validator string    `json:"validator"`
	PrevHash  string    `json:"previous_hash"`
	Hash      string    `json:"hash"`
	Signature string    `json:"signature"`
}

// Digest computes the SHA-256 digest over the block's identity fields:
// index, timestamp, student, score, and previous hash. The signature
// covers exactly this digest.
func (b *Block) Digest() [32]byte {
	content := fmt.Sprintf("%d|%s|%s|%d|%s",
		b.Index,
		b.Timestamp.UTC().Format(time.RFC3339Nano),
		b.StudentID,
		b.Score,
		b.PrevHash,
	)
	return sha256.Sum256([]byte(content))
}

// HashHex returns the hex form of Digest — the value stored in the
// block's Hash field and linked by the successor's PrevHash.
func (b *Block) HashHex() string {
	d := b.Digest()
	return hex.EncodeToString(d[:])
}

// ─── Notification Types ─────────────────────────────────────────────────────

// Outcome is the terminal result of a validation decision.
type Outcome string

const (
	OutcomeAccepted Outcome = "ACCEPTED"
	OutcomeRejected Outcome = "REJECTED"
)

// NotificationRecord is the durable accept/reject outcome a student polls.
// One active record per student; overwritten by the next decision cycle.
type NotificationRecord struct {
	StudentID  string    `json:"student_id"`
	Outcome    Outcome   `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	BlockIndex int64     `json:"block_index,omitempty"`
	DecidedAt  time.Time `json:"decided_at"`
}

// ─── Certificate Types ──────────────────────────────────────────────────────

// CertificateVersion is the payload schema version embedded in every
// encoded certificate, so independent tooling can re-verify old scans.
const CertificateVersion = 1

// Certificate is a flattened, self-contained projection of a Block,
// designed to be embedded in a scannable payload. Regenerated on demand
// from ledger truth, never stored as truth itself.
type Certificate struct {
	Version   int      `json:"v"`
	Index     int64    `json:"index"`
	StudentID string   `json:"student_id"`
	Score     int      `json:"score"`
	Band      RiskBand `json:"band"`
	Hash      string   `json:"hash"`
	Signature string   `json:"signature"`
	Validator string   `json:"validator"`
}

// ─── Verification Types ─────────────────────────────────────────────────────

// VerdictReason explains why a certificate failed verification.
type VerdictReason string

const (
	ReasonHashMismatch     VerdictReason = "HASH_MISMATCH"
	ReasonSignatureInvalid VerdictReason = "SIGNATURE_INVALID"
	ReasonBlockNotFound    VerdictReason = "BLOCK_NOT_FOUND"
	ReasonChainCorrupted   VerdictReason = "CHAIN_CORRUPTED"
)

// Verdict is the verification outcome handed to the relying party.
// Invalid certificates are reported as values, never as a crash.
type Verdict struct {
	Valid  bool          `json:"valid"`
	Reason VerdictReason `json:"reason,omitempty"`
	Detail string        `json:"detail,omitempty"`
	Score  int           `json:"score,omitempty"`
	Band   RiskBand      `json:"band,omitempty"`
}
