package requests

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/saferent-network/saferent/internal/domain"
	"github.com/saferent-network/saferent/internal/infra/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "saferent.db"))
	if err != nil {
		t.Fatalf("sqlite.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func submission(student string) domain.ScoreSubmission {
	return domain.ScoreSubmission{
		StudentID: student,
		Income:    70,
		Guarantor: 60,
		History:   80,
	}
}

func TestSubmit(t *testing.T) {
	store := newTestStore(t)

	req, err := store.Submit(submission("S123"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if req.ID == "" {
		t.Error("Submit() returned empty request id")
	}
	if req.Score.Value != 72 {
		t.Errorf("Submit() score = %d, want 72", req.Score.Value)
	}
	if req.Submission.SubmittedAt.IsZero() {
		t.Error("Submit() did not stamp SubmittedAt")
	}
}

func TestSubmit_InvalidProfile(t *testing.T) {
	store := newTestStore(t)

	bad := submission("S123")
	bad.Income = 500
	if _, err := store.Submit(bad); err != domain.ErrInvalidProfile {
		t.Errorf("Submit() error = %v, want ErrInvalidProfile", err)
	}

	// Nothing was enqueued
	if list, _ := store.List(); len(list) != 0 {
		t.Errorf("List() len = %d, want 0", len(list))
	}
}

func TestSubmit_Duplicate(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Submit(submission("S123")); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if _, err := store.Submit(submission("S123")); err != domain.ErrDuplicateSubmission {
		t.Errorf("second Submit() error = %v, want ErrDuplicateSubmission", err)
	}

	// A decision frees the slot for a fresh submission
	if _, err := store.Claim("S123"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if _, err := store.Submit(submission("S123")); err != nil {
		t.Errorf("re-submit after decision error = %v", err)
	}
}

func TestClaim(t *testing.T) {
	store := newTestStore(t)

	want, _ := store.Submit(submission("S123"))

	got, err := store.Claim("S123")
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("Claim() id = %s, want %s", got.ID, want.ID)
	}

	// Claimed means gone
	if _, err := store.Claim("S123"); err != domain.ErrNotFound {
		t.Errorf("second Claim() error = %v, want ErrNotFound", err)
	}
}

func TestClaimNext_OldestFirst(t *testing.T) {
	store := newTestStore(t)

	first, _ := store.Submit(submission("S1"))
	store.Submit(submission("S2"))

	got, err := store.ClaimNext()
	if err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("ClaimNext() id = %s, want oldest %s", got.ID, first.ID)
	}
}

func TestClaimNext_Empty(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.ClaimNext(); err != domain.ErrNotFound {
		t.Errorf("ClaimNext() on empty store error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentClaims_ExactlyOneWins(t *testing.T) {
	store := newTestStore(t)
	store.Submit(submission("S123"))

	const claimers = 16
	var wg sync.WaitGroup
	results := make(chan error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Claim("S123")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, misses int
	for err := range results {
		switch err {
		case nil:
			wins++
		case domain.ErrNotFound:
			misses++
		default:
			t.Errorf("unexpected claim error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("concurrent claims: %d winners, want exactly 1", wins)
	}
	if misses != claimers-1 {
		t.Errorf("concurrent claims: %d misses, want %d", misses, claimers-1)
	}
}

func TestRestore(t *testing.T) {
	store := newTestStore(t)

	store.Submit(submission("S123"))
	req, err := store.Claim("S123")
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	if err := store.Restore(req); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	got, err := store.Claim("S123")
	if err != nil {
		t.Fatalf("Claim() after restore error = %v", err)
	}
	if got.ID != req.ID {
		t.Errorf("restored request id = %s, want %s", got.ID, req.ID)
	}
}

func TestList_Snapshot(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := store.Submit(submission(fmt.Sprintf("S%d", i))); err != nil {
			t.Fatalf("Submit(S%d) error = %v", i, err)
		}
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() len = %d, want 3", len(list))
	}

	// Listing does not claim: every item is still claimable
	for _, req := range list {
		if _, err := store.Claim(req.Submission.StudentID); err != nil {
			t.Errorf("Claim(%s) after List error = %v", req.Submission.StudentID, err)
		}
	}
}
