package domain

import "time"

// Session is a persisted, shrunk history upload.
type Session struct {
	ID        string
	CreatedAt time.Time
	History   []HistoryEntry
}

// Case is a generated game bound to a session.
type Case struct {
	ID           string
	SessionID    string
	CreatedAt    time.Time
	Rounds       []Round
	SelectedTags []string
}

// EditAction identifies a mutation of a case's rounds.
type EditAction string

// Supported case edit actions.
const (
	// EditDeleteRound removes one round.
	EditDeleteRound EditAction = "delete_round"

	// EditRegenerateRound replaces one round with a freshly generated one.
	EditRegenerateRound EditAction = "regenerate_round"

	// EditAppendRound appends between one and five new rounds.
	EditAppendRound EditAction = "append_round"
)

// IsValid returns true if the action is recognised.
func (a EditAction) IsValid() bool {
	switch a {
	case EditDeleteRound, EditRegenerateRound, EditAppendRound:
		return true
	default:
		return false
	}
}

// EditRequest describes a case edit.
type EditRequest struct {
	Action EditAction

	// Round is the target index for delete and regenerate.
	Round int

	// Count is the number of rounds to append, clamped to 1..5.
	Count int

	// Tags restricts regenerated rounds; empty keeps the case's selection.
	Tags []string
}

// Round count limits for case creation and edits.
const (
	MinCaseRounds     = 3
	MaxCaseRounds     = 15
	DefaultCaseRounds = 5
	MaxAppendRounds   = 5
)

// ClampCaseRounds bounds a requested round count, defaulting zero.
func ClampCaseRounds(n int) int {
	if n == 0 {
		n = DefaultCaseRounds
	}
	return min(max(n, MinCaseRounds), MaxCaseRounds)
}

// ClampAppendCount bounds an append count to 1..5.
func ClampAppendCount(n int) int {
	return min(max(n, 1), MaxAppendRounds)
}
