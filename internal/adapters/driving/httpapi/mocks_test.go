package httpapi

import (
	"context"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

type mockHistoryService struct {
	upload      *domain.UploadResult
	review      domain.Review
	sessionTags *domain.SessionTags
	categories  []domain.Category
	typeMap     domain.TypeMap
	err         error

	lastHistory   []domain.HistoryEntry
	lastThreshold int
}

func (m *mockHistoryService) Upload(_ context.Context, history []domain.HistoryEntry, stop int) (*domain.UploadResult, error) {
	m.lastHistory, m.lastThreshold = history, stop
	return m.upload, m.err
}

func (m *mockHistoryService) Review(_ context.Context, history []domain.HistoryEntry) (domain.Review, error) {
	m.lastHistory = history
	return m.review, m.err
}

func (m *mockHistoryService) SessionTags(_ context.Context, _ string) (*domain.SessionTags, error) {
	return m.sessionTags, m.err
}

func (m *mockHistoryService) Categories() []domain.Category { return m.categories }

func (m *mockHistoryService) TypeMap() domain.TypeMap { return m.typeMap }

type mockGameService struct {
	c      *domain.Case
	public *domain.PublicRound
	guess  *domain.GuessResult
	err    error

	lastSession   string
	lastCaseID    string
	lastRounds    int
	lastTags      []string
	lastEdit      domain.EditRequest
	lastIndex     int
	lastSelection int
}

func (m *mockGameService) CreateCase(_ context.Context, sessionID string, rounds int, tags []string) (*domain.Case, error) {
	m.lastSession, m.lastRounds, m.lastTags = sessionID, rounds, tags
	return m.c, m.err
}

func (m *mockGameService) Rounds(_ context.Context, caseID string) (*domain.Case, error) {
	m.lastCaseID = caseID
	return m.c, m.err
}

func (m *mockGameService) Edit(_ context.Context, caseID string, req domain.EditRequest) (*domain.Case, error) {
	m.lastCaseID, m.lastEdit = caseID, req
	return m.c, m.err
}

func (m *mockGameService) Round(_ context.Context, caseID string, index int) (*domain.PublicRound, error) {
	m.lastCaseID, m.lastIndex = caseID, index
	return m.public, m.err
}

func (m *mockGameService) Guess(_ context.Context, caseID string, index, selection int) (*domain.GuessResult, error) {
	m.lastCaseID, m.lastIndex, m.lastSelection = caseID, index, selection
	return m.guess, m.err
}
