package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
)

// Ensure the stores implement the interfaces.
var (
	_ driven.SessionStore = (*SessionStore)(nil)
	_ driven.CaseStore    = (*CaseStore)(nil)
)

// SessionStore is an in-memory implementation of driven.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
	}
}

// Save stores a session.
func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	cp.History = slices.Clone(session.History)
	s.sessions[session.ID] = cp
	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	session.History = slices.Clone(session.History)
	return &session, nil
}

// CaseStore is an in-memory implementation of driven.CaseStore.
// UpdateRounds holds the write lock for the whole mutation.
type CaseStore struct {
	mu    sync.RWMutex
	cases map[string]domain.Case
}

// NewCaseStore creates a new in-memory case store.
func NewCaseStore() *CaseStore {
	return &CaseStore{
		cases: make(map[string]domain.Case),
	}
}

// Save stores a case.
func (s *CaseStore) Save(_ context.Context, c *domain.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = cloneCase(*c)
	return nil
}

// Get retrieves a case by ID.
func (s *CaseStore) Get(_ context.Context, id string) (*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneCase(c)
	return &out, nil
}

// UpdateRounds applies fn to the stored rounds.
func (s *CaseStore) UpdateRounds(_ context.Context, id string, fn driven.RoundsMutation) (*domain.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rounds, err := fn(cloneRounds(c.Rounds))
	if err != nil {
		return nil, err
	}
	c.Rounds = cloneRounds(rounds)
	s.cases[id] = c
	out := cloneCase(c)
	return &out, nil
}

func cloneCase(c domain.Case) domain.Case {
	c.Rounds = cloneRounds(c.Rounds)
	c.SelectedTags = slices.Clone(c.SelectedTags)
	return c
}

func cloneRounds(rounds []domain.Round) []domain.Round {
	out := make([]domain.Round, len(rounds))
	for i, r := range rounds {
		r.Cards = slices.Clone(r.Cards)
		out[i] = r
	}
	return out
}
