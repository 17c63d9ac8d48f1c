package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService, answering through respond.
type mockLLM struct {
	mu      sync.Mutex
	respond func(msgs []driven.ChatMessage, opts driven.ChatOptions) (string, error)
	calls   []driven.ChatOptions
	msgs    [][]driven.ChatMessage
}

func (m *mockLLM) Chat(_ context.Context, msgs []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.msgs = append(m.msgs, msgs)
	m.mu.Unlock()
	if m.respond == nil {
		return "", errors.New("no response configured")
	}
	return m.respond(msgs, opts)
}

func (m *mockLLM) ModelName() string {
	return "mock-model"
}

func (m *mockLLM) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLM) Close() error {
	return nil
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLM) lastMessages() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.msgs[len(m.msgs)-1]
}

// stubPrompts implements driven.PromptStore with fixed text.
type stubPrompts struct {
	missing map[string]bool
}

func (s *stubPrompts) Load(name string) (string, error) {
	if s.missing[name] {
		return "", fmt.Errorf("prompt %q: %w", name, domain.ErrNotFound)
	}
	return "prompt:" + name, nil
}

func (s *stubPrompts) Reload() {}

// mockAudit implements driven.AuditLog in memory.
type mockAudit struct {
	mu      sync.Mutex
	records []domain.AuditRecord
}

func (m *mockAudit) Record(_ context.Context, rec domain.AuditRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

func (m *mockAudit) Close() error { return nil }

// mockPoolCache implements driven.PoolCache with a map.
type mockPoolCache struct {
	pools map[string][]domain.RealItem
	hits  int
}

func newMockPoolCache() *mockPoolCache {
	return &mockPoolCache{pools: make(map[string][]domain.RealItem)}
}

func (m *mockPoolCache) Get(key string) ([]domain.RealItem, bool) {
	p, ok := m.pools[key]
	if ok {
		m.hits++
	}
	return p, ok
}

func (m *mockPoolCache) Add(key string, pool []domain.RealItem) {
	m.pools[key] = pool
}

// mockMetrics implements driven.Metrics by counting observations.
type mockMetrics struct {
	mu          sync.Mutex
	generations []string
	rules       []string
	stages      map[string]int
}

func (m *mockMetrics) ObserveGeneration(strategy, outcome string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations = append(m.generations, strategy+":"+outcome)
}

func (m *mockMetrics) ObserveValidationFailure(rule string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule)
}

func (m *mockMetrics) ObserveHistoryStage(stage string, items int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stages == nil {
		m.stages = make(map[string]int)
	}
	m.stages[stage] = items
}

// mockSessionStore implements driven.SessionStore in memory.
type mockSessionStore struct {
	sessions map[string]*domain.Session
	saveErr  error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionStore) Save(_ context.Context, s *domain.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// mockCaseStore implements driven.CaseStore in memory.
type mockCaseStore struct {
	mu    sync.Mutex
	cases map[string]*domain.Case
}

func newMockCaseStore() *mockCaseStore {
	return &mockCaseStore{cases: make(map[string]*domain.Case)}
}

func (m *mockCaseStore) Save(_ context.Context, c *domain.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[c.ID] = c
	return nil
}

func (m *mockCaseStore) Get(_ context.Context, id string) (*domain.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCaseStore) UpdateRounds(_ context.Context, id string, fn driven.RoundsMutation) (*domain.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rounds, err := fn(append([]domain.Round(nil), c.Rounds...))
	if err != nil {
		return nil, err
	}
	c.Rounds = rounds
	cp := *c
	return &cp, nil
}

// mockGenerator implements driving.RoundGenerator, recording requests.
type mockGenerator struct {
	mu       sync.Mutex
	requests []domain.GenerateRequest
	err      error
}

func (m *mockGenerator) Generate(_ context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Round, req.Rounds)
	for i := range out {
		out[i] = testRound(fmt.Sprintf("%s-%d", req.Seed, i), i%domain.CardsPerRound)
	}
	return &domain.GenerateResult{Rounds: out, Strategy: StrategyLocal}, nil
}

// testRound builds a news round whose card titles carry label.
func testRound(label string, lieIndex int) domain.Round {
	cards := make([]domain.Card, domain.CardsPerRound)
	for i := range cards {
		cards[i] = domain.Card{
			Host:  "bbc.com",
			Title: fmt.Sprintf("%s card %d", label, i),
			Tag:   domain.TagNews,
			IsLie: i == lieIndex,
		}
	}
	return domain.Round{Topic: domain.TagNews, Tag: domain.TagNews, Cards: cards, LieIndex: lieIndex}
}
