// Package certify produces portable certificates from accepted blocks
// and verifies scanned certificates against ledger truth.
//
// A certificate is a projection of one block, flattened into a compact
// payload the presentation layer encodes into a scannable code. It has
// no lifecycle of its own — ledger blocks stay the only truth, and a
// certificate is regenerated on demand.
package certify

import (
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/saferent-network/saferent/internal/app/ledger"
	"github.com/saferent-network/saferent/internal/domain"
	"github.com/saferent-network/saferent/internal/infra/observability"
	"github.com/saferent-network/saferent/internal/infra/signer"
)

// ─── Issuer ─────────────────────────────────────────────────────────────────

// Issuer projects accepted blocks into certificates.
type Issuer struct {
	chain *ledger.Chain
}

// NewIssuer creates a certificate issuer over the ledger.
func NewIssuer(chain *ledger.Chain) *Issuer {
	return &Issuer{chain: chain}
}

// Issue returns a certificate for a student's latest accepted block.
// Fails with domain.ErrNotFound when the student has no accepted score.
func (i *Issuer) Issue(studentID string) (domain.Certificate, error) {
	block, err := i.chain.LatestForStudent(studentID)
	if err != nil {
		return domain.Certificate{}, err
	}
	return FromBlock(block), nil
}

// FromBlock is the pure projection from a block to its certificate.
func FromBlock(b domain.Block) domain.Certificate {
	return domain.Certificate{
		Version:   domain.CertificateVersion,
		Index:     b.Index,
		StudentID: b.StudentID,
		Score:     b.Score,
		Band:      b.Band,
		Hash:      b.Hash,
		Signature: b.Signature,
		Validator: b.Validator,
	}
}

// ─── Payload Codec ──────────────────────────────────────────────────────────
// The scannable payload is versioned JSON wrapped in base58 — compact,
// URL-safe, and decodable by independent tooling without this codebase.

// Encode serializes a certificate into its scannable payload.
func Encode(c domain.Certificate) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode certificate: %w", err)
	}
	return base58.Encode(raw), nil
}

// Decode parses a scanned payload back into a certificate.
func Decode(payload string) (domain.Certificate, error) {
	raw, err := base58.Decode(payload)
	if err != nil {
		return domain.Certificate{}, fmt.Errorf("decode payload: %w", err)
	}
	var c domain.Certificate
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Certificate{}, fmt.Errorf("decode certificate: %w", err)
	}
	if c.Version != domain.CertificateVersion {
		return domain.Certificate{}, fmt.Errorf("unsupported certificate version %d", c.Version)
	}
	return c, nil
}

// ─── Verification Service ───────────────────────────────────────────────────

// Service verifies certificates for a relying party. Every failure mode
// is a verdict value; nothing on this path panics.
type Service struct {
	chain *ledger.Chain
}

// NewService creates a verification service over the ledger.
func NewService(chain *ledger.Chain) *Service {
	return &Service{chain: chain}
}

// Verify checks a scanned certificate against ledger truth:
//
//  1. Look up the referenced block by chain index.
//  2. Compare the block's stored identity, score, hash, and signature
//     against the certificate's claims — a forged certificate whose
//     fields diverge from ledger truth fails here.
//  3. Recompute the block digest and verify the validator signature.
func (s *Service) Verify(cert domain.Certificate) domain.Verdict {
	block, err := s.chain.ByIndex(cert.Index)
	if err != nil {
		if err == domain.ErrNotFound {
			return s.invalid(domain.ReasonBlockNotFound, fmt.Sprintf("no block at index %d", cert.Index))
		}
		return s.invalid(domain.ReasonChainCorrupted, err.Error())
	}

	if block.StudentID != cert.StudentID ||
		block.Score != cert.Score ||
		block.Hash != cert.Hash ||
		block.Signature != cert.Signature {
		return s.invalid(domain.ReasonHashMismatch, "certificate fields do not match ledger record")
	}

	digest := block.Digest()
	if block.HashHex() != block.Hash {
		return s.invalid(domain.ReasonChainCorrupted, "stored block hash does not match recomputed digest")
	}
	if !signer.Verify(digest[:], block.Signature, s.chain.PublicKeyHex()) {
		return s.invalid(domain.ReasonSignatureInvalid, "validator signature does not verify")
	}

	observability.VerdictsTotal.WithLabelValues("valid").Inc()
	return domain.Verdict{
		Valid: true,
		Score: block.Score,
		Band:  domain.BandFor(block.Score),
	}
}

// VerifyPayload decodes and verifies a raw scanned payload.
func (s *Service) VerifyPayload(payload string) domain.Verdict {
	cert, err := Decode(payload)
	if err != nil {
		return s.invalid(domain.ReasonHashMismatch, err.Error())
	}
	return s.Verify(cert)
}

func (s *Service) invalid(reason domain.VerdictReason, detail string) domain.Verdict {
	observability.VerdictsTotal.WithLabelValues(string(reason)).Inc()
	return domain.Verdict{Valid: false, Reason: reason, Detail: detail}
}
