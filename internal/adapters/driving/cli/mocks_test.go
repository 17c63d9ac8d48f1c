package cli

import (
	"context"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	upload      *domain.UploadResult
	review      domain.Review
	sessionTags *domain.SessionTags
	categories  []domain.Category
	err         error

	lastHistory []domain.HistoryEntry
	lastStop    int
}

func (m *mockHistoryService) Upload(_ context.Context, history []domain.HistoryEntry, stop int) (*domain.UploadResult, error) {
	m.lastHistory, m.lastStop = history, stop
	return m.upload, m.err
}

func (m *mockHistoryService) Review(_ context.Context, history []domain.HistoryEntry) (domain.Review, error) {
	m.lastHistory = history
	return m.review, m.err
}

func (m *mockHistoryService) SessionTags(_ context.Context, _ string) (*domain.SessionTags, error) {
	return m.sessionTags, m.err
}

func (m *mockHistoryService) Categories() []domain.Category {
	return m.categories
}

func (m *mockHistoryService) TypeMap() domain.TypeMap {
	return domain.TypeMap{}
}

// mockGameService is a mock implementation of driving.GameService.
type mockGameService struct {
	c      *domain.Case
	rounds []domain.Round
	err    error

	lastTags   []string
	lastRounds int
	lastEdit   domain.EditRequest
	guesses    []int
}

func (m *mockGameService) CreateCase(_ context.Context, _ string, rounds int, tags []string) (*domain.Case, error) {
	m.lastRounds, m.lastTags = rounds, tags
	return m.c, m.err
}

func (m *mockGameService) Rounds(_ context.Context, _ string) (*domain.Case, error) {
	return m.c, m.err
}

func (m *mockGameService) Edit(_ context.Context, _ string, req domain.EditRequest) (*domain.Case, error) {
	m.lastEdit = req
	return m.c, m.err
}

func (m *mockGameService) Round(_ context.Context, _ string, index int) (*domain.PublicRound, error) {
	if m.err != nil {
		return nil, m.err
	}
	if index < 0 || index >= len(m.rounds) {
		return nil, domain.ErrRoundOutOfRange
	}
	r := m.rounds[index].Public(index, len(m.rounds))
	return &r, nil
}

func (m *mockGameService) Guess(_ context.Context, _ string, index, selection int) (*domain.GuessResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.guesses = append(m.guesses, selection)
	res := m.rounds[index].Grade(selection)
	return &res, nil
}

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

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	llmErr      error

	lastProvider domain.AIProvider
	lastModel    string
	lastKey      string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetGenerationMode(mode domain.GenerationMode) error {
	m.settings.Generation.Mode = mode
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.lastProvider, m.lastModel, m.lastKey = provider, model, apiKey
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) RequiresLLM() bool {
	return m.settings.Generation.Mode.RequiresLLM()
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.llmErr
}
