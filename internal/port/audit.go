package port

import (
	"context"

	"github.com/lunchperk/lunchperk-backend/internal/domain"
)

// AuditEventStore is the durable append-only store behind the audit pipeline.
// The pipeline only needs bulk insert and filtered query.
type AuditEventStore interface {
	// InsertMany persists a batch of entries. In tolerant mode one record's
	// failure must not block the rest of the batch; the store returns how
	// many records were durably written. An error with inserted < len(entries)
	// means the remaining entries were not attempted; re-inserting an already
	// written entry must be a no-op (entries carry stable IDs).
	InsertMany(ctx context.Context, entries []domain.AuditEntry, tolerant bool) (inserted int, err error)

	// Find returns entries matching the query, newest first, honoring
	// Limit/Offset pagination.
	Find(ctx context.Context, q domain.AuditQuery) ([]domain.AuditEntry, error)
}
