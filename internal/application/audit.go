package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/library-circulation/internal/persistence"
)

// appendAudit records a mutating action after it has been committed. Audit
// writes are best effort; a failure is logged but never rolls back the action
// it describes.
func appendAudit(ctx context.Context, audits persistence.AuditRepository, logger *slog.Logger, id, action, userID, details string, at time.Time) {
	if audits == nil {
		return
	}
	entry := persistence.AuditEntry{
		ID:        id,
		Action:    action,
		UserID:    userID,
		Details:   details,
		Timestamp: at,
	}
	if err := audits.Append(ctx, entry); err != nil {
		logger.ErrorContext(ctx, "failed to append audit entry", "action", action, "error", err)
	}
}
