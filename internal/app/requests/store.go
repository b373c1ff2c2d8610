// Package requests implements the pending-request store: one undecided
// request per student, atomic claim-for-decision, ordered snapshots.
//
// The claim path is the store's core correctness contract — with several
// validator sessions open at once, no two claims may ever return the
// same request. A single store mutex serializes submit/claim/restore;
// reads go straight to SQLite and see committed state only.
package requests

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saferent-network/saferent/internal/domain"
	"github.com/saferent-network/saferent/internal/infra/sqlite"
)

// Store holds submissions awaiting a validator decision.
type Store struct {
	mu sync.Mutex
	db *sqlite.DB

	// Injectable clock for testing.
	now func() time.Time
}

// NewStore creates a pending-request store over the given database.
func NewStore(db *sqlite.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Submit computes the submission's score and enqueues it as a pending
// request. Fails with domain.ErrInvalidProfile on out-of-range factors
// and domain.ErrDuplicateSubmission if the student already has an
// undecided request.
func (s *Store) Submit(sub domain.ScoreSubmission) (domain.PendingRequest, error) {
	score, err := domain.ComputeScore(sub)
	if err != nil {
		return domain.PendingRequest{}, err
	}

	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = s.now().UTC()
	}

	req := domain.PendingRequest{
		ID:         uuid.NewString(),
		Submission: sub,
		Score:      score,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.InsertPendingRequest(req); err != nil {
		return domain.PendingRequest{}, err
	}
	return req, nil
}

// Claim atomically removes and returns a student's pending request.
// Fails with domain.ErrNotFound if absent or already claimed.
func (s *Store) Claim(studentID string) (domain.PendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.db.GetPendingByStudent(studentID)
	if err != nil {
		return domain.PendingRequest{}, err
	}
	return s.remove(req)
}

// ClaimNext atomically removes and returns the oldest pending request.
func (s *Store) ClaimNext() (domain.PendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.db.OldestPending()
	if err != nil {
		return domain.PendingRequest{}, err
	}
	return s.remove(req)
}

// remove deletes a fetched request. Caller must hold s.mu.
func (s *Store) remove(req domain.PendingRequest) (domain.PendingRequest, error) {
	n, err := s.db.DeletePendingRequest(req.ID)
	if err != nil {
		return domain.PendingRequest{}, err
	}
	if n == 0 {
		return domain.PendingRequest{}, domain.ErrNotFound
	}
	return req, nil
}

// Restore re-enqueues a claimed request after a failed accept so the
// transition never partially applies. A duplicate here means the student
// re-submitted in the meantime; the restore then yields to the new request.
func (s *Store) Restore(req domain.PendingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.InsertPendingRequest(req)
	if errors.Is(err, domain.ErrDuplicateSubmission) {
		return nil
	}
	return err
}

// List returns an ordered snapshot of pending requests, oldest first.
// The snapshot does not block concurrent claims — callers must re-claim
// before acting on a listed item.
func (s *Store) List() ([]domain.PendingRequest, error) {
	return s.db.ListPending()
}
