package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/saferent-network/saferent/internal/domain"
	"github.com/saferent-network/saferent/internal/infra/signer"
	"github.com/saferent-network/saferent/internal/infra/sqlite"
)

type chainFixture struct {
	chain *Chain
	auth  *signer.Authority
	path  string
}

func newFixture(t *testing.T) *chainFixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "saferent.db")
	db, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("sqlite.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	auth, err := signer.Generate()
	if err != nil {
		t.Fatalf("signer.Generate() error = %v", err)
	}

	chain, err := Open(db, auth, "NEOMA BS")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return &chainFixture{chain: chain, auth: auth, path: path}
}

func score(v int) domain.RentScore {
	return domain.RentScore{Value: v, Band: domain.BandFor(v)}
}

// ─── Genesis and Append ─────────────────────────────────────────────────────

func TestOpen_CreatesGenesis(t *testing.T) {
	f := newFixture(t)

	genesis, err := f.chain.ByIndex(0)
	if err != nil {
		t.Fatalf("ByIndex(0) error = %v", err)
	}
	if genesis.PrevHash != domain.GenesisPrevHash {
		t.Errorf("genesis PrevHash = %q, want %q", genesis.PrevHash, domain.GenesisPrevHash)
	}
	if genesis.Hash != genesis.HashHex() {
		t.Error("genesis stored hash does not match its digest")
	}

	length, err := f.chain.Length()
	if err != nil || length != 1 {
		t.Errorf("Length() = %d, %v; want 1, nil", length, err)
	}
}

func TestAppend_LinksAndSigns(t *testing.T) {
	f := newFixture(t)

	genesis, _ := f.chain.ByIndex(0)
	block, err := f.chain.Append("S123", score(84))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if block.Index != 1 {
		t.Errorf("Index = %d, want 1", block.Index)
	}
	if block.PrevHash != genesis.Hash {
		t.Errorf("PrevHash = %s, want genesis hash %s", block.PrevHash, genesis.Hash)
	}
	if block.Validator != "NEOMA BS" {
		t.Errorf("Validator = %q, want %q", block.Validator, "NEOMA BS")
	}

	digest := block.Digest()
	if !signer.Verify(digest[:], block.Signature, f.auth.PublicKeyHex()) {
		t.Error("block signature does not verify against the authority key")
	}
}

func TestAppend_MonotonicGapless(t *testing.T) {
	f := newFixture(t)

	for i := 1; i <= 5; i++ {
		b, err := f.chain.Append(fmt.Sprintf("S%d", i), score(60))
		if err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
		if b.Index != int64(i) {
			t.Errorf("Append #%d index = %d, want %d", i, b.Index, i)
		}
	}
}

func TestAppend_Concurrent(t *testing.T) {
	f := newFixture(t)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.chain.Append(fmt.Sprintf("S%d", i), score(70)); err != nil {
				t.Errorf("concurrent Append(%d) error = %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	length, err := f.chain.Length()
	if err != nil {
		t.Fatalf("Length() error = %v", err)
	}
	if length != writers+1 {
		t.Errorf("Length() = %d, want %d", length, writers+1)
	}
	if err := f.chain.VerifyChain(); err != nil {
		t.Errorf("VerifyChain() after concurrent appends = %v, want nil", err)
	}
}

type failingSigner struct{}

func (failingSigner) Sign([]byte) (string, error) { return "", domain.ErrSigningUnavailable }
func (failingSigner) PublicKeyHex() string        { return "" }

func TestAppend_SigningFailure(t *testing.T) {
	f := newFixture(t)
	f.chain.signer = failingSigner{}

	if _, err := f.chain.Append("S123", score(84)); !errors.Is(err, domain.ErrSigningUnavailable) {
		t.Errorf("Append() error = %v, want ErrSigningUnavailable", err)
	}

	// Nothing was persisted
	length, _ := f.chain.Length()
	if length != 1 {
		t.Errorf("Length() after failed append = %d, want 1", length)
	}
}

// ─── Chain Verification ─────────────────────────────────────────────────────

func TestVerifyChain_Honest(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 4; i++ {
		f.chain.Append(fmt.Sprintf("S%d", i), score(55+i*10))
	}
	if err := f.chain.VerifyChain(); err != nil {
		t.Errorf("VerifyChain() = %v, want nil", err)
	}
}

// tamper mutates one column of a stored block directly, bypassing the chain.
func tamper(t *testing.T, path, column string, value any, index int64) {
	t.Helper()
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer raw.Close()
	if _, err := raw.Exec(
		fmt.Sprintf(`UPDATE ledger_blocks SET %s = ? WHERE block_index = ?`, column),
		value, index,
	); err != nil {
		t.Fatalf("tamper %s: %v", column, err)
	}
}

func TestVerifyChain_TamperPinpointsBlock(t *testing.T) {
	tests := []struct {
		name   string
		column string
		value  any
	}{
		{"score", "score", 100},
		{"timestamp", "timestamp", "2001-01-01T00:00:00Z"},
		{"student", "student_id", "someone-else"},
		{"previous hash", "previous_hash", "forged"},
		{"signature", "signature", "deadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for i := 0; i < 4; i++ {
				f.chain.Append(fmt.Sprintf("S%d", i), score(60))
			}

			tamper(t, f.path, tt.column, tt.value, 2)

			err := f.chain.VerifyChain()
			if err == nil {
				t.Fatal("VerifyChain() = nil, want corruption error")
			}
			var corrupt *domain.CorruptionError
			if !errors.As(err, &corrupt) {
				t.Fatalf("VerifyChain() error = %v, want CorruptionError", err)
			}
			if corrupt.Index != 2 {
				t.Errorf("corruption reported at block %d, want 2", corrupt.Index)
			}
			if !errors.Is(err, domain.ErrChainCorrupted) {
				t.Error("corruption error should unwrap to ErrChainCorrupted")
			}
		})
	}
}

func TestVerifyChain_TamperedHashBreaksSuccessorLink(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.chain.Append(fmt.Sprintf("S%d", i), score(60))
	}

	// Rewriting a stored hash is caught at that block, before the link
	// to its successor is even checked.
	tamper(t, f.path, "hash", "0000", 1)

	var corrupt *domain.CorruptionError
	err := f.chain.VerifyChain()
	if !errors.As(err, &corrupt) {
		t.Fatalf("VerifyChain() error = %v, want CorruptionError", err)
	}
	if corrupt.Index != 1 {
		t.Errorf("corruption reported at block %d, want 1", corrupt.Index)
	}
}

// ─── Lookups ────────────────────────────────────────────────────────────────

func TestLatestForStudent(t *testing.T) {
	f := newFixture(t)

	f.chain.Append("S123", score(60))
	f.chain.Append("S456", score(70))
	latest, _ := f.chain.Append("S123", score(90))

	got, err := f.chain.LatestForStudent("S123")
	if err != nil {
		t.Fatalf("LatestForStudent() error = %v", err)
	}
	if got.Index != latest.Index {
		t.Errorf("LatestForStudent().Index = %d, want %d", got.Index, latest.Index)
	}
	if got.Score != 90 {
		t.Errorf("LatestForStudent().Score = %d, want 90", got.Score)
	}

	if _, err := f.chain.LatestForStudent("S999"); err != domain.ErrNotFound {
		t.Errorf("unknown student error = %v, want ErrNotFound", err)
	}
}

func TestReopen_KeepsChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saferent.db")
	auth, _ := signer.Generate()

	db, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("sqlite.Open() error = %v", err)
	}
	chain, err := Open(db, auth, "NEOMA BS")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	chain.Append("S123", score(84))
	db.Close()

	db, err = sqlite.Open(path)
	if err != nil {
		t.Fatalf("reopen sqlite error = %v", err)
	}
	defer db.Close()

	chain, err = Open(db, auth, "NEOMA BS")
	if err != nil {
		t.Fatalf("reopen chain error = %v", err)
	}

	length, _ := chain.Length()
	if length != 2 {
		t.Errorf("Length() after reopen = %d, want 2 (no second genesis)", length)
	}
	if err := chain.VerifyChain(); err != nil {
		t.Errorf("VerifyChain() after reopen = %v, want nil", err)
	}
}
