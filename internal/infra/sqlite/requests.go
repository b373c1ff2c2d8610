// Pending-request persistence. The atomic claim semantics live in the
// application layer (internal/app/requests); this file is plain CRUD.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/saferent-network/saferent/internal/domain"
)

// InsertPendingRequest persists a new pending request.
// Returns domain.ErrDuplicateSubmission if the student already has one
// (enforced by the UNIQUE constraint on student_id).
func (db *DB) InsertPendingRequest(req domain.PendingRequest) error {
	_, err := db.db.Exec(`
		INSERT INTO pending_requests (id, student_id, income, guarantor, history, score, band, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.Submission.StudentID, req.Submission.Income, req.Submission.Guarantor,
		req.Submission.History, req.Score.Value, string(req.Score.Band),
		req.Submission.SubmittedAt.UTC().Format(time.RFC3339Nano))
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicateSubmission
	}
	return err
}

// GetPendingByStudent returns a student's pending request, if any.
func (db *DB) GetPendingByStudent(studentID string) (domain.PendingRequest, error) {
	row := db.db.QueryRow(`
		SELECT id, student_id, income, guarantor, history, score, band, submitted_at
		FROM pending_requests WHERE student_id = ?
	`, studentID)
	return scanPending(row)
}

// OldestPending returns the pending request waiting the longest.
func (db *DB) OldestPending() (domain.PendingRequest, error) {
	row := db.db.QueryRow(`
		SELECT id, student_id, income, guarantor, history, score, band, submitted_at
		FROM pending_requests ORDER BY submitted_at ASC, id ASC LIMIT 1
	`)
	return scanPending(row)
}

// DeletePendingRequest removes a request by id. Returns the number of
// rows removed so callers can detect a lost claim race.
func (db *DB) DeletePendingRequest(id string) (int64, error) {
	res, err := db.db.Exec(`DELETE FROM pending_requests WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListPending returns all pending requests, oldest first.
func (db *DB) ListPending() ([]domain.PendingRequest, error) {
	rows, err := db.db.Query(`
		SELECT id, student_id, income, guarantor, history, score, band, submitted_at
		FROM pending_requests ORDER BY submitted_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PendingRequest
	for rows.Next() {
		req, err := scanPendingRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

// ─── Scan Helpers ───────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPending(row *sql.Row) (domain.PendingRequest, error) {
	req, err := scanPendingRow(row)
	if err == sql.ErrNoRows {
		return domain.PendingRequest{}, domain.ErrNotFound
	}
	return req, err
}

func scanPendingRow(s rowScanner) (domain.PendingRequest, error) {
	var req domain.PendingRequest
	var band, submittedStr string
	err := s.Scan(&req.ID, &req.Submission.StudentID, &req.Submission.Income,
		&req.Submission.Guarantor, &req.Submission.History,
		&req.Score.Value, &band, &submittedStr)
	if err != nil {
		return domain.PendingRequest{}, err
	}
	req.Score.Band = domain.RiskBand(band)
	req.Submission.SubmittedAt, _ = time.Parse(time.RFC3339Nano, submittedStr)
	return req, nil
}
