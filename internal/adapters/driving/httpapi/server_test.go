package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/logger"
)

func newTestServer(t *testing.T, history *mockHistoryService, game *mockGameService, opts Options) http.Handler {
	t.Helper()
	if history == nil {
		history = &mockHistoryService{}
	}
	if game == nil {
		game = &mockGameService{}
	}
	s, err := NewServer(Ports{History: history, Game: game}, opts)
	require.NoError(t, err)
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestNewServer_RequiresServices(t *testing.T) {
	_, err := NewServer(Ports{History: &mockHistoryService{}}, Options{})
	assert.ErrorIs(t, err, ErrMissingService)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrUnknownTag), http.StatusBadRequest},
		{domain.ErrUnknownAction, http.StatusBadRequest},
		{domain.ErrRoundOutOfRange, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestUploadHistory(t *testing.T) {
	t.Run("stores history", func(t *testing.T) {
		history := &mockHistoryService{upload: &domain.UploadResult{SessionID: "abcdefghijklmn", TotalIn: 2, TotalSaved: 1}}
		h := newTestServer(t, history, nil, Options{})

		code, body := do(t, h, http.MethodPost, "/api/upload-history",
			`{"history":[{"url":"https://github.com/x","title":"X","visitCount":3,"lastVisitTime":1700000000000.5},{"host":"a.com"}],"stop_threshold":500}`)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "abcdefghijklmn", body["session_id"])
		assert.Equal(t, float64(1), body["total_saved"])
		require.Len(t, history.lastHistory, 2)
		assert.Equal(t, 3, history.lastHistory[0].VisitCount)
		assert.Equal(t, 500, history.lastThreshold)
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "missing history", body: `{}`},
		{name: "empty history", body: `{"history":[]}`},
		{name: "history not a list", body: `{"history":"nope"}`},
		{name: "not json", body: `history=1`},
		{name: "negative threshold", body: `{"history":[{"title":"x"}],"stop_threshold":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, nil, nil, Options{})
			code, body := do(t, h, http.MethodPost, "/api/upload-history", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, false, body["ok"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestReviewSummary(t *testing.T) {
	history := &mockHistoryService{review: domain.Review{
		Items: []domain.CandidateItem{{Host: "bbc.co.uk", Title: "News", Tag: "news", VisitCount: 1}},
		Tags:  []domain.ReviewCategory{{TagCount: domain.TagCount{ID: "news", Label: "News", Count: 1}}},
		Total: 1,
	}}
	h := newTestServer(t, history, nil, Options{})

	code, body := do(t, h, http.MethodPost, "/api/review-summary", `{"history":[{"host":"bbc.co.uk","title":"News"}]}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total"])
	assert.Len(t, body["items"], 1)
	assert.Len(t, body["tags"], 1)

	code, body = do(t, h, http.MethodPost, "/api/review-summary", `{"history":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["ok"])
}

func TestTypeMapAndCategories(t *testing.T) {
	history := &mockHistoryService{
		typeMap:    domain.TypeMap{Hosts: map[string]string{"reddit.com": "forum"}, TypeToTag: map[string]string{"forum": "social"}},
		categories: []domain.Category{{ID: "social", Label: "Social"}},
	}
	h := newTestServer(t, history, nil, Options{})

	code, body := do(t, h, http.MethodGet, "/api/type-map", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"reddit.com": "forum"}, body["type_map"])
	assert.Equal(t, map[string]any{"forum": "social"}, body["type_to_tag"])

	code, body = do(t, h, http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["categories"], 1)
}

func TestSessionTags(t *testing.T) {
	history := &mockHistoryService{sessionTags: &domain.SessionTags{Total: 40, MinPerTag: 30}}
	h := newTestServer(t, history, nil, Options{})

	code, body := do(t, h, http.MethodGet, "/api/session/s1/tags", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(30), body["min_per_tag"])

	history.err = fmt.Errorf("get session: %w", domain.ErrNotFound)
	code, body = do(t, h, http.MethodGet, "/api/session/missing/tags", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["ok"])
}

func TestCreateCase(t *testing.T) {
	t.Run("creates case", func(t *testing.T) {
		game := &mockGameService{c: &domain.Case{
			ID:           "c12345678901",
			Rounds:       []domain.Round{{Tag: "news", Topic: "news", LieIndex: 2}},
			SelectedTags: []string{"news"},
		}}
		h := newTestServer(t, nil, game, Options{})

		code, body := do(t, h, http.MethodPost, "/api/create-case", `{"session_id":"s1","rounds":7,"selected_tags":["news"]}`)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "c12345678901", body["case_id"])
		assert.Equal(t, "http://example.com/play/c12345678901", body["play_url"])
		assert.Len(t, body["rounds"], 1)
		assert.Equal(t, "s1", game.lastSession)
		assert.Equal(t, 7, game.lastRounds)
		assert.Equal(t, []string{"news"}, game.lastTags)
	})

	t.Run("tags takes precedence over selected_tags", func(t *testing.T) {
		game := &mockGameService{c: &domain.Case{ID: "c"}}
		h := newTestServer(t, nil, game, Options{})

		code, body := do(t, h, http.MethodPost, "/api/create-case", `{"session_id":"s1","tags":["social"],"selected_tags":["news"]}`)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, []any{}, body["selected_tags"])
		assert.Equal(t, []string{"social"}, game.lastTags)
	})

	errTests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "missing session id", body: `{}`, want: http.StatusBadRequest},
		{name: "unknown session", body: `{"session_id":"x"}`, err: domain.ErrNotFound, want: http.StatusNotFound},
		{name: "unknown tag", body: `{"session_id":"x","tags":["nope"]}`, err: domain.ErrUnknownTag, want: http.StatusBadRequest},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, nil, &mockGameService{err: tt.err}, Options{})
			code, body := do(t, h, http.MethodPost, "/api/create-case", tt.body)
			assert.Equal(t, tt.want, code)
			assert.Equal(t, false, body["ok"])
		})
	}
}

func TestCaseRounds(t *testing.T) {
	game := &mockGameService{c: &domain.Case{ID: "c1", Rounds: make([]domain.Round, 3)}}
	h := newTestServer(t, nil, game, Options{})

	code, body := do(t, h, http.MethodGet, "/api/case/c1/rounds", "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, "c1", game.lastCaseID)
}

func TestEditCase(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantEdit domain.EditRequest
	}{
		{
			name:     "delete",
			body:     `{"action":"delete_round","round":2}`,
			wantEdit: domain.EditRequest{Action: domain.EditDeleteRound, Round: 2},
		},
		{
			name:     "regenerate without round",
			body:     `{"action":"regenerate_round"}`,
			wantEdit: domain.EditRequest{Action: domain.EditRegenerateRound, Round: -1},
		},
		{
			name:     "append with tags",
			body:     `{"action":"append_round","count":3,"tags":["news"]}`,
			wantEdit: domain.EditRequest{Action: domain.EditAppendRound, Round: -1, Count: 3, Tags: []string{"news"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game := &mockGameService{c: &domain.Case{ID: "c1", Rounds: make([]domain.Round, 2)}}
			h := newTestServer(t, nil, game, Options{})

			code, body := do(t, h, http.MethodPost, "/api/case/c1/edit", tt.body)

			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, float64(2), body["total"])
			assert.Equal(t, tt.wantEdit, game.lastEdit)
		})
	}

	t.Run("errors", func(t *testing.T) {
		cases := []struct {
			body string
			err  error
			want int
		}{
			{body: `{}`, want: http.StatusBadRequest},
			{body: `{"action":"explode"}`, err: domain.ErrUnknownAction, want: http.StatusBadRequest},
			{body: `{"action":"delete_round","round":9}`, err: domain.ErrRoundOutOfRange, want: http.StatusBadRequest},
			{body: `{"action":"delete_round","round":0}`, err: domain.ErrNotFound, want: http.StatusNotFound},
		}
		for _, c := range cases {
			h := newTestServer(t, nil, &mockGameService{err: c.err}, Options{})
			code, _ := do(t, h, http.MethodPost, "/api/case/c1/edit", c.body)
			assert.Equal(t, c.want, code, c.body)
		}
	})
}

func TestRound(t *testing.T) {
	t.Run("public projection only", func(t *testing.T) {
		game := &mockGameService{public: &domain.PublicRound{
			Index: 1, Total: 4, Tag: "news",
			Cards: []domain.PublicCard{{Host: "a.com", Title: "A"}, {Host: "b.com", Title: "B"}, {Host: "c.com", Title: "C"}},
		}}
		h := newTestServer(t, nil, game, Options{})

		code, body := do(t, h, http.MethodGet, "/api/case/c1/round/1", "")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(4), body["total"])
		cards := body["cards"].([]any)
		require.Len(t, cards, 3)
		assert.Equal(t, map[string]any{"host": "a.com", "title": "A"}, cards[0])
		assert.NotContains(t, body, "lie_index")
		assert.Equal(t, 1, game.lastIndex)
	})

	t.Run("game over", func(t *testing.T) {
		h := newTestServer(t, nil, &mockGameService{err: domain.ErrRoundOutOfRange}, Options{})
		code, body := do(t, h, http.MethodGet, "/api/case/c1/round/5", "")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "Game over", body["msg"])
	})

	t.Run("non-numeric index", func(t *testing.T) {
		h := newTestServer(t, nil, nil, Options{})
		code, _ := do(t, h, http.MethodGet, "/api/case/c1/round/first", "")
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestGuess(t *testing.T) {
	game := &mockGameService{guess: &domain.GuessResult{Correct: false, LieIndex: 0}}
	h := newTestServer(t, nil, game, Options{})

	code, body := do(t, h, http.MethodPost, "/api/case/c1/guess", `{"round":2,"selection":1}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["correct"])
	assert.Equal(t, float64(0), body["lie_index"])
	assert.Equal(t, 2, game.lastIndex)
	assert.Equal(t, 1, game.lastSelection)

	code, _ = do(t, h, http.MethodPost, "/api/case/c1/guess", `{"round":-1}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealthAndOptionalMounts(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("healthy", func(t *testing.T) {
		h := newTestServer(t, nil, nil, Options{Metrics: metrics, MCP: mcpHandler})

		code, body := do(t, h, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["ok"])

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, "# metrics", rec.Body.String())

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("unhealthy", func(t *testing.T) {
		h := newTestServer(t, nil, nil, Options{Health: func(context.Context) error { return errors.New("db locked") }})
		code, body := do(t, h, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "db locked", body["error"])
	})

	t.Run("not mounted", func(t *testing.T) {
		h := newTestServer(t, nil, nil, Options{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	}()
	h := newTestServer(t, nil, nil, Options{})

	logger.SetVerbose(false)
	code, _ := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, buf.String())

	logger.SetVerbose(true)
	code, _ = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, buf.String(), "GET /healthz -> 200")
}
