// Package validation enacts the Pending → Accepted/Rejected transition.
//
// The engine only enacts decisions — policy (manual validator choice or
// an automated threshold) is an external input. Callers prove they hold
// a validator credential on every call; access control beyond that token
// belongs to the excluded presentation layer.
package validation

import (
	"crypto/subtle"
	"fmt"
	"log"
	"time"

	"github.com/saferent-network/saferent/internal/app/ledger"
	"github.com/saferent-network/saferent/internal/app/requests"
	"github.com/saferent-network/saferent/internal/domain"
	"github.com/saferent-network/saferent/internal/infra/observability"
)

// Engine orchestrates validator decisions over the request store,
// the ledger, and the notification store.
type Engine struct {
	requests  *requests.Store
	chain     *ledger.Chain
	notices   *Notices
	accessKey string

	// Injectable clock for testing.
	now func() time.Time
}

// NewEngine wires a validation engine. accessKey is the validator
// credential every Accept/Reject caller must present.
func NewEngine(store *requests.Store, chain *ledger.Chain, notices *Notices, accessKey string) *Engine {
	return &Engine{
		requests:  store,
		chain:     chain,
		notices:   notices,
		accessKey: accessKey,
		now:       time.Now,
	}
}

// Authorized reports whether a presented credential matches the
// validator access key. Constant-time comparison.
func (e *Engine) Authorized(credential string) bool {
	return subtle.ConstantTimeCompare([]byte(credential), []byte(e.accessKey)) == 1
}

// Accept claims a student's pending request, appends its score to the
// ledger, and records an accepted notification referencing the new
// block. All-or-nothing: if the append fails the request is restored to
// pending and no notification is written.
func (e *Engine) Accept(credential, studentID string) (domain.Block, error) {
	if !e.Authorized(credential) {
		return domain.Block{}, domain.ErrUnauthorized
	}

	req, err := e.requests.Claim(studentID)
	if err != nil {
		return domain.Block{}, err
	}

	block, err := e.chain.Append(studentID, req.Score)
	if err != nil {
		if restoreErr := e.requests.Restore(req); restoreErr != nil {
			log.Printf("[validation] restore after failed append also failed for student=%s: %v", studentID, restoreErr)
		}
		observability.DecisionsTotal.WithLabelValues("failed").Inc()
		return domain.Block{}, fmt.Errorf("accept %s: %w", studentID, err)
	}

	rec := domain.NotificationRecord{
		StudentID:  studentID,
		Outcome:    domain.OutcomeAccepted,
		BlockIndex: block.Index,
		DecidedAt:  e.now().UTC(),
	}
	if err := e.notices.Record(rec); err != nil {
		// The block is already ledger truth; the notification is a
		// convenience record the student can re-derive from the chain.
		log.Printf("[validation] accepted notification write failed for student=%s: %v", studentID, err)
	}

	observability.DecisionsTotal.WithLabelValues("accepted").Inc()
	log.Printf("[validation] accepted student=%s block=%d score=%d", studentID, block.Index, block.Score)
	return block, nil
}

// Reject claims a student's pending request and records a rejected
// notification with the given reason. No ledger interaction.
func (e *Engine) Reject(credential, studentID, reason string) error {
	if !e.Authorized(credential) {
		return domain.ErrUnauthorized
	}

	if _, err := e.requests.Claim(studentID); err != nil {
		return err
	}

	rec := domain.NotificationRecord{
		StudentID: studentID,
		Outcome:   domain.OutcomeRejected,
		Reason:    reason,
		DecidedAt: e.now().UTC(),
	}
	if err := e.notices.Record(rec); err != nil {
		return fmt.Errorf("record rejection for %s: %w", studentID, err)
	}

	observability.DecisionsTotal.WithLabelValues("rejected").Inc()
	log.Printf("[validation] rejected student=%s reason=%q", studentID, reason)
	return nil
}
