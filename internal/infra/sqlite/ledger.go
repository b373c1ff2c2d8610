// Ledger block persistence. Append ordering and hash linkage are owned
// by the application layer (internal/app/ledger); this file is plain CRUD
// over the append-only table.
package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"github.com/saferent-network/saferent/internal/domain"
)

// InsertBlock appends a block row. The block index is the primary key,
// so a racing duplicate append fails instead of silently forking.
func (db *DB) InsertBlock(b domain.Block) error {
	_, err := db.db.Exec(`
		INSERT INTO ledger_blocks (block_index, timestamp, student_id, score, band, validator, previous_hash, hash, signature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.Index, b.Timestamp.UTC().Format(time.RFC3339Nano), b.StudentID, b.Score,
		string(b.Band), b.Validator, b.PrevHash, b.Hash, b.Signature)
	return err
}

// TailBlock returns the highest-index block, or ErrNotFound on an empty ledger.
func (db *DB) TailBlock() (domain.Block, error) {
	row := db.db.QueryRow(`
		SELECT block_index, timestamp, student_id, score, band, validator, previous_hash, hash, signature
		FROM ledger_blocks ORDER BY block_index DESC LIMIT 1
	`)
	return scanBlock(row)
}

// BlockByIndex returns the block at the given chain position.
func (db *DB) BlockByIndex(index int64) (domain.Block, error) {
	row := db.db.QueryRow(`
		SELECT block_index, timestamp, student_id, score, band, validator, previous_hash, hash, signature
		FROM ledger_blocks WHERE block_index = ?
	`, index)
	return scanBlock(row)
}

// LatestBlockForStudent returns the most recent block for a student.
// History is retained in full; "latest" is a derived view.
func (db *DB) LatestBlockForStudent(studentID string) (domain.Block, error) {
	row := db.db.QueryRow(`
		SELECT block_index, timestamp, student_id, score, band, validator, previous_hash, hash, signature
		FROM ledger_blocks WHERE student_id = ? ORDER BY block_index DESC LIMIT 1
	`, studentID)
	return scanBlock(row)
}

// ListBlocks returns the whole chain in index order.
func (db *DB) ListBlocks() ([]domain.Block, error) {
	rows, err := db.db.Query(`
		SELECT block_index, timestamp, student_id, score, band, validator, previous_hash, hash, signature
		FROM ledger_blocks ORDER BY block_index ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Block
	for rows.Next() {
		b, err := scanBlockRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// BlockCount returns the chain length.
func (db *DB) BlockCount() (int64, error) {
	var count int64
	err := db.db.QueryRow(`SELECT COUNT(*) FROM ledger_blocks`).Scan(&count)
	return count, err
}

// ─── Scan Helpers ───────────────────────────────────────────────────────────

func scanBlock(row *sql.Row) (domain.Block, error) {
	b, err := scanBlockRow(row)
	if err == sql.ErrNoRows {
		return domain.Block{}, domain.ErrNotFound
	}
	return b, err
}

func scanBlockRow(s rowScanner) (domain.Block, error) {
	var b domain.Block
	var band, tsStr string
	err := s.Scan(&b.Index, &tsStr, &b.StudentID, &b.Score, &band,
		&b.Validator, &b.PrevHash, &b.Hash, &b.Signature)
	if err != nil {
		return domain.Block{}, err
	}
	b.Band = domain.RiskBand(band)
	b.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
	return b, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
