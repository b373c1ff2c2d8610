// Notification persistence: one record per student, overwritten by each
// decision cycle.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/saferent-network/saferent/internal/domain"
)

// UpsertNotification writes a student's latest decision outcome.
func (db *DB) UpsertNotification(rec domain.NotificationRecord) error {
	_, err := db.db.Exec(`
		INSERT INTO notifications (student_id, outcome, reason, block_index, decided_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET
			outcome     = excluded.outcome,
			reason      = excluded.reason,
			block_index = excluded.block_index,
			decided_at  = excluded.decided_at
	`, rec.StudentID, string(rec.Outcome), rec.Reason, rec.BlockIndex,
		rec.DecidedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// GetNotification returns a student's latest decision outcome.
func (db *DB) GetNotification(studentID string) (domain.NotificationRecord, error) {
	var rec domain.NotificationRecord
	var outcome, decidedStr string
	err := db.db.QueryRow(`
		SELECT student_id, outcome, reason, block_index, decided_at
		FROM notifications WHERE student_id = ?
	`, studentID).Scan(&rec.StudentID, &outcome, &rec.Reason, &rec.BlockIndex, &decidedStr)
	if err == sql.ErrNoRows {
		return domain.NotificationRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.NotificationRecord{}, err
	}
	rec.Outcome = domain.Outcome(outcome)
	rec.DecidedAt, _ = time.Parse(time.RFC3339Nano, decidedStr)
	return rec, nil
}

// DeleteNotification dismisses a student's notification.
func (db *DB) DeleteNotification(studentID string) error {
	_, err := db.db.Exec(`DELETE FROM notifications WHERE student_id = ?`, studentID)
	return err
}
