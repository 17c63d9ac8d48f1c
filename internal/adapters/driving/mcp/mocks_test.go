package mcp

import (
	"context"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// mockGenerator is a mock implementation of driving.RoundGenerator.
type mockGenerator struct {
	result  *domain.GenerateResult
	err     error
	lastReq domain.GenerateRequest
}

func (m *mockGenerator) Generate(_ context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	m.lastReq = req
	return m.result, m.err
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	review      domain.Review
	sessionTags *domain.SessionTags
	categories  []domain.Category
	typeMap     domain.TypeMap
	err         error

	lastHistory []domain.HistoryEntry
	lastSession string
}

func (m *mockHistoryService) Upload(_ context.Context, _ []domain.HistoryEntry, _ int) (*domain.UploadResult, error) {
	return nil, m.err
}

func (m *mockHistoryService) Review(_ context.Context, history []domain.HistoryEntry) (domain.Review, error) {
	m.lastHistory = history
	return m.review, m.err
}

func (m *mockHistoryService) SessionTags(_ context.Context, sessionID string) (*domain.SessionTags, error) {
	m.lastSession = sessionID
	return m.sessionTags, m.err
}

func (m *mockHistoryService) Categories() []domain.Category {
	return m.categories
}

func (m *mockHistoryService) TypeMap() domain.TypeMap {
	return m.typeMap
}

// mockGameService is a mock implementation of driving.GameService.
type mockGameService struct {
	c      *domain.Case
	public *domain.PublicRound
	guess  *domain.GuessResult
	err    error

	lastCaseID    string
	lastIndex     int
	lastSelection int
}

func (m *mockGameService) CreateCase(_ context.Context, _ string, _ int, _ []string) (*domain.Case, error) {
	return m.c, m.err
}

func (m *mockGameService) Rounds(_ context.Context, _ string) (*domain.Case, error) {
	return m.c, m.err
}

func (m *mockGameService) Edit(_ context.Context, _ string, _ domain.EditRequest) (*domain.Case, error) {
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
