package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Generation falls back to the local synthesizer without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrUnknownTag indicates a category id outside the taxonomy.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrValidation indicates generated rounds violated a game rule.
	ErrValidation = errors.New("round validation failed")

	// ErrCurationFailed indicates the curator could not produce a usable pool.
	ErrCurationFailed = errors.New("curation failed")

	// ErrNotEnoughMaterial indicates too few candidates for a generation strategy.
	ErrNotEnoughMaterial = errors.New("not enough material")

	// ErrRoundOutOfRange indicates a round index outside the case.
	ErrRoundOutOfRange = errors.New("round out of range")

	// ErrUnknownAction indicates an unsupported case edit action.
	ErrUnknownAction = errors.New("unknown action")
)

// ShapeRound is the Round value of a ValidationError that concerns the
// document as a whole rather than a single round.
const ShapeRound = -1

// ValidationError describes the first rule a generated document broke.
type ValidationError struct {
	// Round is the zero-based round index, or ShapeRound.
	Round int

	// Rule is a short machine-readable rule name, used as a metric label.
	Rule string

	// Detail is the human-readable explanation.
	Detail string
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Round == ShapeRound {
		return fmt.Sprintf("%s: %s", e.Rule, e.Detail)
	}
	return fmt.Sprintf("round %d: %s: %s", e.Round, e.Rule, e.Detail)
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError with a formatted detail.
func NewValidationError(round int, rule, format string, args ...any) *ValidationError {
	return &ValidationError{Round: round, Rule: rule, Detail: fmt.Sprintf(format, args...)}
}
