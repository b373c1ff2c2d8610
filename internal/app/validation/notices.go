package validation

import (
	"github.com/saferent-network/saferent/internal/domain"
	"github.com/saferent-network/saferent/internal/infra/sqlite"
)

// Notices is the durable store of decision outcomes, polled by the
// submitting party. Latest-per-student: each decision cycle overwrites
// the previous record.
type Notices struct {
	db *sqlite.DB
}

// NewNotices creates a notification store over the given database.
func NewNotices(db *sqlite.DB) *Notices {
	return &Notices{db: db}
}

// Record writes a decision outcome, replacing any earlier one.
func (n *Notices) Record(rec domain.NotificationRecord) error {
	return n.db.UpsertNotification(rec)
}

// Latest returns a student's most recent decision outcome.
// Fails with domain.ErrNotFound if no decision has been made.
func (n *Notices) Latest(studentID string) (domain.NotificationRecord, error) {
	return n.db.GetNotification(studentID)
}

// Clear dismisses a student's notification.
func (n *Notices) Clear(studentID string) error {
	return n.db.DeleteNotification(studentID)
}
