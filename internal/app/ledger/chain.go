// Package ledger implements the append-only, hash-linked chain of
// accepted scores.
//
// The original design had no real consensus, so the chain is an
// append-only log behind a single-writer lock: one trusted signer, one
// process, durable SQLite storage. The chain tip is read under the same
// lock that guards the append, so indices stay monotonic and gapless
// and no block is ever hashed against a concurrently rewritten tail.
package ledger

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/saferent-network/saferent/internal/domain"
	"github.com/saferent-network/saferent/internal/infra/observability"
	"github.com/saferent-network/saferent/internal/infra/signer"
	"github.com/saferent-network/saferent/internal/infra/sqlite"
)

// Chain owns all blocks and is the only writer to the ledger table.
type Chain struct {
	mu        sync.Mutex
	db        *sqlite.DB
	signer    domain.Signer
	validator string

	// Injectable clock for testing.
	now func() time.Time
}

// Open binds a chain to its storage and signer, creating the genesis
// block if the ledger is empty. The genesis block carries the fixed
// previous-hash sentinel and is signed like any other block.
func Open(db *sqlite.DB, s domain.Signer, validator string) (*Chain, error) {
	c := &Chain{db: db, signer: s, validator: validator, now: time.Now}

	count, err := db.BlockCount()
	if err != nil {
		return nil, fmt.Errorf("read chain length: %w", err)
	}
	if count == 0 {
		genesis, err := c.buildBlock(0, domain.GenesisPrevHash, "", 0, "")
		if err != nil {
			return nil, err
		}
		if err := db.InsertBlock(genesis); err != nil {
			return nil, fmt.Errorf("write genesis: %w", err)
		}
		log.Printf("[ledger] genesis block created, hash=%s", genesis.Hash[:16])
		count = 1
	}
	observability.ChainLength.Set(float64(count))
	return c, nil
}

// Append builds, signs, and persists the next block for an accepted
// score. Single-writer: the tail read and the insert happen under one
// lock. A signing failure leaves the ledger untouched — a block is
// never appended unsigned.
func (c *Chain) Append(studentID string, score domain.RentScore) (domain.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tail, err := c.db.TailBlock()
	if err != nil {
		return domain.Block{}, fmt.Errorf("read chain tip: %w", err)
	}

	block, err := c.buildBlock(tail.Index+1, tail.Hash, studentID, score.Value, score.Band)
	if err != nil {
		return domain.Block{}, err
	}
	if err := c.db.InsertBlock(block); err != nil {
		return domain.Block{}, fmt.Errorf("append block: %w", err)
	}

	observability.BlocksAppended.Inc()
	observability.ChainLength.Set(float64(block.Index + 1))
	log.Printf("[ledger] block %d appended for student=%s score=%d", block.Index, studentID, score.Value)
	return block, nil
}

// buildBlock assembles a block, computes its digest, and signs it.
func (c *Chain) buildBlock(index int64, prevHash, studentID string, score int, band domain.RiskBand) (domain.Block, error) {
	block := domain.Block{
		Index:     index,
		Timestamp: c.now().UTC(),
		StudentID: studentID,
		Score:     score,
		Band:      band,
		Validator: c.validator,
		PrevHash:  prevHash,
	}
	digest := block.Digest()
	block.Hash = block.HashHex()

	sig, err := c.signer.Sign(digest[:])
	if err != nil {
		return domain.Block{}, fmt.Errorf("%w: %v", domain.ErrSigningUnavailable, err)
	}
	block.Signature = sig
	return block, nil
}

// VerifyChain walks the chain in order, recomputing every hash and
// checking linkage and signatures. Fails fast with a CorruptionError
// pinpointing the first broken block; the chain is never auto-repaired.
func (c *Chain) VerifyChain() error {
	blocks, err := c.db.ListBlocks()
	if err != nil {
		return fmt.Errorf("read chain: %w", err)
	}

	pub := c.signer.PublicKeyHex()
	for i, b := range blocks {
		if b.Index != int64(i) {
			observability.AuditFailures.Inc()
			return &domain.CorruptionError{Index: b.Index, Reason: fmt.Sprintf("index gap: position %d holds block %d", i, b.Index)}
		}
		if b.HashHex() != b.Hash {
			observability.AuditFailures.Inc()
			return &domain.CorruptionError{Index: b.Index, Reason: "stored hash does not match recomputed digest"}
		}
		if i == 0 {
			if b.PrevHash != domain.GenesisPrevHash {
				observability.AuditFailures.Inc()
				return &domain.CorruptionError{Index: b.Index, Reason: "genesis previous-hash sentinel missing"}
			}
		} else if b.PrevHash != blocks[i-1].Hash {
			observability.AuditFailures.Inc()
			return &domain.CorruptionError{Index: b.Index, Reason: "previous-hash link broken"}
		}
		digest := b.Digest()
		if !signer.Verify(digest[:], b.Signature, pub) {
			observability.AuditFailures.Inc()
			return &domain.CorruptionError{Index: b.Index, Reason: "signature does not verify"}
		}
	}
	return nil
}

// LatestForStudent returns a student's most recent accepted block.
// Full history is retained; this is the derived "latest" view.
func (c *Chain) LatestForStudent(studentID string) (domain.Block, error) {
	return c.db.LatestBlockForStudent(studentID)
}

// ByIndex returns a specific historical block.
func (c *Chain) ByIndex(index int64) (domain.Block, error) {
	return c.db.BlockByIndex(index)
}

// Blocks returns the whole chain in order, for the explorer view.
func (c *Chain) Blocks() ([]domain.Block, error) {
	return c.db.ListBlocks()
}

// Length returns the current chain length.
func (c *Chain) Length() (int64, error) {
	return c.db.BlockCount()
}

// PublicKeyHex exposes the validator public key for verification paths.
func (c *Chain) PublicKeyHex() string {
	return c.signer.PublicKeyHex()
}

// Validator returns the signing institution's name.
func (c *Chain) Validator() string {
	return c.validator
}
