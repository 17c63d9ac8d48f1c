package driving

import (
	"context"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// RoundGenerator produces rounds. It never fails for a well-formed request:
// generative failures fall back to local synthesis.
type RoundGenerator interface {
	Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error)
}

// GameService manages cases built from stored sessions.
type GameService interface {
	// CreateCase generates rounds for a session and stores them.
	// Unknown tags are rejected with domain.ErrUnknownTag.
	CreateCase(ctx context.Context, sessionID string, rounds int, tags []string) (*domain.Case, error)

	// Rounds returns a case with its full rounds, including lie positions.
	Rounds(ctx context.Context, caseID string) (*domain.Case, error)

	// Edit deletes, regenerates or appends rounds.
	Edit(ctx context.Context, caseID string, req domain.EditRequest) (*domain.Case, error)

	// Round returns the player-facing projection of one round.
	Round(ctx context.Context, caseID string, index int) (*domain.PublicRound, error)

	// Guess grades a player's choice of lie.
	Guess(ctx context.Context, caseID string, index, selection int) (*domain.GuessResult, error)
}
