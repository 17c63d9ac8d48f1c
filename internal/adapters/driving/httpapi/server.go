// Package httpapi serves the browser-facing JSON API with chi.
//
// Routes mirror the upload, review and play flow:
//
//	POST /api/upload-history
//	POST /api/review-summary
//	GET  /api/type-map
//	GET  /api/session/{sessionID}/tags
//	POST /api/create-case
//	GET  /api/case/{caseID}/rounds
//	POST /api/case/{caseID}/edit
//	GET  /api/case/{caseID}/round/{round}
//	POST /api/case/{caseID}/guess
//
// Every response is a JSON object with an "ok" field.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/historycourt/internal/adapters/driving/request"
	"github.com/custodia-labs/historycourt/internal/core/ports/driving"
	"github.com/custodia-labs/historycourt/internal/logger"
)

// MaxBodyBytes bounds request bodies. Browser histories run to tens of MB.
const MaxBodyBytes = 64 << 20

// ErrMissingService is returned when a required service is not provided.
var ErrMissingService = errors.New("httpapi: history and game services are required")

// Ports aggregates the driving ports the API serves.
type Ports struct {
	History driving.HistoryService
	Game    driving.GameService
}

// Options adds optional endpoints.
type Options struct {
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// MCP is mounted at /mcp when set.
	MCP http.Handler

	// Health reports readiness at /healthz; nil always reports ok.
	Health func(ctx context.Context) error
}

// Server is the HTTP API.
type Server struct {
	ports    Ports
	opts     Options
	validate *request.Validator
	router   chi.Router
}

// NewServer builds the router.
func NewServer(ports Ports, opts Options) (*Server, error) {
	if ports.History == nil || ports.Game == nil {
		return nil, ErrMissingService
	}
	s := &Server{
		ports:    ports,
		opts:     opts,
		validate: request.NewValidator(),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	if s.opts.MCP != nil {
		r.Mount("/mcp", s.opts.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload-history", s.handleUploadHistory)
		r.Post("/review-summary", s.handleReviewSummary)
		r.Get("/type-map", s.handleTypeMap)
		r.Get("/categories", s.handleCategories)
		r.Get("/session/{sessionID}/tags", s.handleSessionTags)
		r.Post("/create-case", s.handleCreateCase)

		r.Route("/case/{caseID}", func(r chi.Router) {
			r.Get("/rounds", s.handleCaseRounds)
			r.Post("/edit", s.handleEditCase)
			r.Get("/round/{round}", s.handleRound)
			r.Post("/guess", s.handleGuess)
		})
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// requestLogger logs each request at debug level through the app logger.
// Requests pass through untouched unless verbose mode is on.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !logger.IsVerbose() {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s -> %d (%d bytes, %s) [%s]",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start).Round(time.Millisecond),
			middleware.GetReqID(r.Context()))
	})
}
