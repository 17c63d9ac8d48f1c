package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
	"github.com/custodia-labs/historycourt/internal/core/ports/driving"
	"github.com/custodia-labs/historycourt/internal/curation"
	"github.com/custodia-labs/historycourt/internal/logger"
)

// Ensure GameService implements the interface.
var _ driving.GameService = (*GameService)(nil)

// GameService creates, edits and plays cases.
type GameService struct {
	tax       *curation.Taxonomy
	sessions  driven.SessionStore
	cases     driven.CaseStore
	generator driving.RoundGenerator

	locks caseLocks
	now   func() time.Time
}

// NewGameService creates a game service.
func NewGameService(
	tax *curation.Taxonomy,
	sessions driven.SessionStore,
	cases driven.CaseStore,
	generator driving.RoundGenerator,
) *GameService {
	return &GameService{
		tax:       tax,
		sessions:  sessions,
		cases:     cases,
		generator: generator,
		locks:     caseLocks{held: make(map[string]*caseLock)},
		now:       time.Now,
	}
}

// CreateCase generates rounds for a session and stores them as a new case.
// The session id seeds generation so the same upload yields the same case.
func (s *GameService) CreateCase(ctx context.Context, sessionID string, rounds int, tags []string) (*domain.Case, error) {
	selected, err := s.selectedTags(tags)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	n := domain.ClampCaseRounds(rounds)
	res, err := s.generator.Generate(ctx, domain.GenerateRequest{
		History: s.filterHistory(session.History, selected),
		Rounds:  n,
		Seed:    sessionID,
		Tags:    selected,
		PoolKey: sessionID,
		Meta:    map[string]any{"session_id": sessionID, "request": "create_case"},
	})
	if err != nil {
		return nil, fmt.Errorf("generate rounds: %w", err)
	}

	c := &domain.Case{
		ID:           newID(CaseIDLength),
		SessionID:    sessionID,
		CreatedAt:    s.now().UTC(),
		Rounds:       res.Rounds,
		SelectedTags: selected,
	}
	if err := s.cases.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save case: %w", err)
	}
	logger.Info("Created case %s with %d rounds (%s)", c.ID, len(c.Rounds), res.Strategy)
	return c, nil
}

// Rounds returns a case with its full rounds.
func (s *GameService) Rounds(ctx context.Context, caseID string) (*domain.Case, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

// Edit deletes, regenerates or appends rounds. Edits to one case run one
// at a time, including the generation they need.
func (s *GameService) Edit(ctx context.Context, caseID string, req domain.EditRequest) (*domain.Case, error) {
	if !req.Action.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, req.Action)
	}

	unlock := s.locks.lock(caseID)
	defer unlock()

	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}

	var fn driven.RoundsMutation
	switch req.Action {
	case domain.EditDeleteRound:
		fn = func(rounds []domain.Round) ([]domain.Round, error) {
			if err := checkRound(rounds, req.Round); err != nil {
				return nil, err
			}
			return append(rounds[:req.Round], rounds[req.Round+1:]...), nil
		}

	case domain.EditRegenerateRound:
		if err := checkRound(c.Rounds, req.Round); err != nil {
			return nil, err
		}
		fresh, err := s.generate(ctx, c, req, 1)
		if err != nil {
			return nil, err
		}
		fn = func(rounds []domain.Round) ([]domain.Round, error) {
			if err := checkRound(rounds, req.Round); err != nil {
				return nil, err
			}
			rounds[req.Round] = fresh[0]
			return rounds, nil
		}

	case domain.EditAppendRound:
		fresh, err := s.generate(ctx, c, req, domain.ClampAppendCount(req.Count))
		if err != nil {
			return nil, err
		}
		fn = func(rounds []domain.Round) ([]domain.Round, error) {
			return append(rounds, fresh...), nil
		}
	}

	updated, err := s.cases.UpdateRounds(ctx, caseID, fn)
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}
	logger.Debug("Case %s: %s, now %d rounds", caseID, req.Action, len(updated.Rounds))
	return updated, nil
}

// generate produces count rounds for an edit, seeded uniquely per call.
func (s *GameService) generate(ctx context.Context, c *domain.Case, req domain.EditRequest, count int) ([]domain.Round, error) {
	selected := c.SelectedTags
	if len(req.Tags) > 0 {
		var err error
		if selected, err = s.selectedTags(req.Tags); err != nil {
			return nil, err
		}
	}
	session, err := s.sessions.Get(ctx, c.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	res, err := s.generator.Generate(ctx, domain.GenerateRequest{
		History: s.filterHistory(session.History, selected),
		Rounds:  count,
		Seed:    fmt.Sprintf("%s-%s", c.ID, s.now().UTC().Format(time.RFC3339Nano)),
		Tags:    selected,
		PoolKey: c.SessionID,
		Meta:    map[string]any{"case_id": c.ID, "action": string(req.Action)},
	})
	if err != nil {
		return nil, fmt.Errorf("generate rounds: %w", err)
	}
	return res.Rounds, nil
}

// Round returns the player-facing projection of one round.
func (s *GameService) Round(ctx context.Context, caseID string, index int) (*domain.PublicRound, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if err := checkRound(c.Rounds, index); err != nil {
		return nil, err
	}
	pub := c.Rounds[index].Public(index, len(c.Rounds))
	return &pub, nil
}

// Guess grades a player's choice of lie.
func (s *GameService) Guess(ctx context.Context, caseID string, index, selection int) (*domain.GuessResult, error) {
	if selection < 0 || selection >= domain.CardsPerRound {
		return nil, fmt.Errorf("%w: selection %d", domain.ErrInvalidInput, selection)
	}
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if err := checkRound(c.Rounds, index); err != nil {
		return nil, err
	}
	res := c.Rounds[index].Grade(selection)
	return &res, nil
}

func (s *GameService) selectedTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	return s.tax.ResolveTags(tags)
}

// filterHistory keeps entries in the selected categories, or the whole
// history when the filter would leave nothing.
func (s *GameService) filterHistory(history []domain.HistoryEntry, tags []string) []domain.HistoryEntry {
	if len(tags) == 0 {
		return history
	}
	if filtered := curation.FilterByTags(s.tax, history, tags); len(filtered) > 0 {
		return filtered
	}
	return history
}

func checkRound(rounds []domain.Round, index int) error {
	if index < 0 || index >= len(rounds) {
		return fmt.Errorf("%w: %d of %d", domain.ErrRoundOutOfRange, index, len(rounds))
	}
	return nil
}

// caseLocks hands out one mutex per case id, dropping it when unused.
type caseLocks struct {
	mu   sync.Mutex
	held map[string]*caseLock
}

type caseLock struct {
	sync.Mutex
	refs int
}

func (l *caseLocks) lock(id string) func() {
	l.mu.Lock()
	cl, ok := l.held[id]
	if !ok {
		cl = &caseLock{}
		l.held[id] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.Lock()
	return func() {
		cl.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.held, id)
		}
		l.mu.Unlock()
	}
}
