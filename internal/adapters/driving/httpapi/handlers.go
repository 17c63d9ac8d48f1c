package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

type historyRequest struct {
	History []domain.HistoryEntry `json:"history" validate:"required,min=1"`
}

type uploadRequest struct {
	History       []domain.HistoryEntry `json:"history" validate:"required,min=1"`
	StopThreshold int                   `json:"stop_threshold" validate:"gte=0"`
}

// tagSelection accepts either "tags" or "selected_tags".
type tagSelection struct {
	Tags         []string `json:"tags"`
	SelectedTags []string `json:"selected_tags"`
}

func (t tagSelection) selected() []string {
	if len(t.Tags) > 0 {
		return t.Tags
	}
	return t.SelectedTags
}

type createCaseRequest struct {
	tagSelection
	SessionID string `json:"session_id" validate:"required"`
	Rounds    int    `json:"rounds" validate:"gte=0"`
}

type editRequest struct {
	tagSelection
	Action string `json:"action" validate:"required"`
	Round  *int   `json:"round"`
	Count  int    `json:"count"`
}

type guessRequest struct {
	Round     int `json:"round" validate:"gte=0"`
	Selection int `json:"selection"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health != nil {
		if err := s.opts.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleUploadHistory(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.ports.History.Upload(r.Context(), req.History, req.StopThreshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":  res.SessionID,
		"total_in":    res.TotalIn,
		"total_saved": res.TotalSaved,
		"stages":      res.Stages,
	})
}

func (s *Server) handleReviewSummary(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	review, err := s.ports.History.Review(r.Context(), req.History)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": review.Items,
		"tags":  review.Tags,
		"total": review.Total,
	})
}

func (s *Server) handleTypeMap(w http.ResponseWriter, _ *http.Request) {
	tm := s.ports.History.TypeMap()
	writeJSON(w, http.StatusOK, map[string]any{
		"type_map":    tm.Hosts,
		"type_to_tag": tm.TypeToTag,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.ports.History.Categories()})
}

func (s *Server) handleSessionTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.ports.History.SessionTags(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tags":        tags.Tags,
		"total":       tags.Total,
		"min_per_tag": tags.MinPerTag,
	})
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := s.ports.Game.CreateCase(r.Context(), req.SessionID, req.Rounds, req.selected())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"case_id":       c.ID,
		"play_url":      playURL(r, c.ID),
		"rounds":        c.Rounds,
		"selected_tags": nonNil(c.SelectedTags),
	})
}

func (s *Server) handleCaseRounds(w http.ResponseWriter, r *http.Request) {
	c, err := s.ports.Game.Rounds(r.Context(), chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeRounds(w, c)
}

func (s *Server) handleEditCase(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	edit := domain.EditRequest{
		Action: domain.EditAction(req.Action),
		Round:  -1,
		Count:  req.Count,
		Tags:   req.selected(),
	}
	if req.Round != nil {
		edit.Round = *req.Round
	}

	c, err := s.ports.Game.Edit(r.Context(), chi.URLParam(r, "caseID"), edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRounds(w, c)
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "round"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: round must be an integer", domain.ErrInvalidInput))
		return
	}

	pub, err := s.ports.Game.Round(r.Context(), chi.URLParam(r, "caseID"), index)
	if errors.Is(err, domain.ErrRoundOutOfRange) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error(), "msg": "Game over"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"round": pub.Index,
		"total": pub.Total,
		"cards": pub.Cards,
	})
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.ports.Game.Guess(r.Context(), chi.URLParam(r, "caseID"), req.Round, req.Selection)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"correct":   res.Correct,
		"lie_index": res.LieIndex,
	})
}

func writeRounds(w http.ResponseWriter, c *domain.Case) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rounds": nonNil(c.Rounds),
		"total":  len(c.Rounds),
	})
}

func playURL(r *http.Request, caseID string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/play/%s", scheme, r.Host, caseID)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
