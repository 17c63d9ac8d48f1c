package driven

import (
	"context"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// SessionStore persists uploaded histories.
type SessionStore interface {
	// Save stores a new session.
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)
}
