package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/ports/driven"
	"github.com/custodia-labs/historycourt/internal/core/ports/driving"
	"github.com/custodia-labs/historycourt/internal/curation"
	"github.com/custodia-labs/historycourt/internal/logger"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// Identifier lengths for stored records.
const (
	SessionIDLength = 14
	CaseIDLength    = 12
)

// newID returns a random hex identifier of length n (at most 32).
func newID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// HistoryService ingests uploads and summarises histories.
type HistoryService struct {
	tax      *curation.Taxonomy
	sessions driven.SessionStore
	metrics  driven.Metrics

	stopThreshold int
}

// NewHistoryService creates a history service. A non-positive
// stopThreshold uses domain.DefaultStopThreshold.
func NewHistoryService(tax *curation.Taxonomy, sessions driven.SessionStore, stopThreshold int) *HistoryService {
	if stopThreshold <= 0 {
		stopThreshold = domain.DefaultStopThreshold
	}
	return &HistoryService{
		tax:           tax,
		sessions:      sessions,
		stopThreshold: stopThreshold,
	}
}

// SetMetrics sets the metrics recorder.
func (s *HistoryService) SetMetrics(m driven.Metrics) {
	s.metrics = m
}

// Upload shrinks a history and stores the survivors as a new session.
// A history that shrinks to nothing is still stored.
func (s *HistoryService) Upload(ctx context.Context, history []domain.HistoryEntry, stopThreshold int) (*domain.UploadResult, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: history is empty", domain.ErrInvalidInput)
	}
	if stopThreshold <= 0 {
		stopThreshold = s.stopThreshold
	}

	res := curation.ShrinkHistory(s.tax, history, stopThreshold)
	logger.Debug("Shrunk %d entries to %d (last stage %s)", len(history), len(res.Items), res.Last())
	if s.metrics != nil {
		for _, st := range res.Stages {
			s.metrics.ObserveHistoryStage(st.Stage, st.Count)
		}
	}

	entries := make([]domain.HistoryEntry, 0, len(res.Items))
	for _, it := range res.Items {
		entries = append(entries, it.Entry())
	}
	session := &domain.Session{
		ID:        newID(SessionIDLength),
		CreatedAt: time.Now().UTC(),
		History:   entries,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	logger.Info("Stored session %s with %d of %d entries", session.ID, len(entries), len(history))
	return &domain.UploadResult{
		SessionID:  session.ID,
		TotalIn:    len(history),
		TotalSaved: len(entries),
		Stages:     res.Stages,
	}, nil
}

// Review tags a history for the pre-upload screen without storing it.
func (s *HistoryService) Review(_ context.Context, history []domain.HistoryEntry) (domain.Review, error) {
	if len(history) == 0 {
		return domain.Review{}, fmt.Errorf("%w: history is empty", domain.ErrInvalidInput)
	}
	return curation.Review(s.tax, history), nil
}

// SessionTags summarises a stored session per category.
func (s *HistoryService) SessionTags(ctx context.Context, sessionID string) (*domain.SessionTags, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &domain.SessionTags{
		Tags:      curation.SummarizeTags(s.tax, session.History),
		Total:     len(session.History),
		MinPerTag: curation.TagMinCount,
	}, nil
}

// Categories returns the taxonomy in tie-break order.
func (s *HistoryService) Categories() []domain.Category {
	return s.tax.Categories()
}

// TypeMap returns the host type tables used for tagging.
func (s *HistoryService) TypeMap() domain.TypeMap {
	return s.tax.TypeMap()
}
