package driven

import (
	"context"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// RoundsMutation transforms a case's rounds. Returning an error aborts the
// update and leaves the stored rounds untouched.
type RoundsMutation func(rounds []domain.Round) ([]domain.Round, error)

// CaseStore persists generated cases.
type CaseStore interface {
	// Save stores a new case.
	Save(ctx context.Context, c *domain.Case) error

	// Get retrieves a case by ID.
	// Returns domain.ErrNotFound if the case does not exist.
	Get(ctx context.Context, id string) (*domain.Case, error)

	// UpdateRounds applies fn to the current rounds and stores the result.
	// Concurrent updates to the same case are serialised.
	UpdateRounds(ctx context.Context, id string, fn RoundsMutation) (*domain.Case, error)
}
