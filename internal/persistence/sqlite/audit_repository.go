package sqlite

import (
	"context"

	"github.com/example/library-circulation/internal/persistence"
)

// AuditRepository implements persistence.AuditRepository. The log is
// append-only; no update or delete path exists.
type AuditRepository struct {
	store *Store
}

// NewAuditRepository creates a SQLite-backed audit repository.
func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// Append records a mutating action.
func (r *AuditRepository) Append(ctx context.Context, entry persistence.AuditEntry) error {
	if entry.ID == "" || entry.Action == "" || entry.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, action, user_id, details, timestamp) VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Action,
		entry.UserID,
		entry.Details,
		formatTime(entry.Timestamp),
	)
	return mapError(err)
}
