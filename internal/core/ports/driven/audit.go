package driven

import (
	"context"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// AuditLog records generation attempts. Implementations are best effort:
// a failed write must never fail the caller.
type AuditLog interface {
	// Record appends one record.
	Record(ctx context.Context, rec domain.AuditRecord)

	// Close flushes and releases resources.
	Close() error
}
