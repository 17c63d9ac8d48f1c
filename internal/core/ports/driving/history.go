package driving

import (
	"context"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// HistoryService ingests and summarises browsing history.
type HistoryService interface {
	// Upload shrinks a history and stores it as a new session.
	// An empty history is rejected with domain.ErrInvalidInput.
	Upload(ctx context.Context, history []domain.HistoryEntry, stopThreshold int) (*domain.UploadResult, error)

	// Review tags and summarises a history without storing it.
	Review(ctx context.Context, history []domain.HistoryEntry) (domain.Review, error)

	// SessionTags summarises a stored session per category.
	SessionTags(ctx context.Context, sessionID string) (*domain.SessionTags, error)

	// Categories returns the taxonomy in tie-break order.
	Categories() []domain.Category

	// TypeMap returns the host type tables used for tagging.
	TypeMap() domain.TypeMap
}
