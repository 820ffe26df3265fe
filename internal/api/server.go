package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/statutefinder/internal/archive"
	"github.com/dgallion1/statutefinder/internal/config"
	"github.com/dgallion1/statutefinder/internal/pipeline"
	"github.com/dgallion1/statutefinder/internal/stats"
)

// History answers citation lookups against past analyses. *archive.Store
// satisfies it.
type History interface {
	FindCitation(ctx context.Context, query string, limit int) ([]archive.Occurrence, error)
	Documents(ctx context.Context, limit int) ([]archive.Record, error)
}

// Server is the HTTP API server for statutefinder.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	history      History
	stats        *stats.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. history may be nil when
// no archive is configured.
func NewServer(orch *pipeline.Orchestrator, history History, st *stats.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		history:      history,
		stats:        st,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		if s.cfg.RateLimit > 0 {
			r.Use(RateLimit(s.cfg.RateLimit, s.cfg.RateBurst))
		}

		r.Get("/api/formats", s.handleFormats)
		r.Post("/api/analyze", s.handleAnalyze)

		r.Post("/api/jobs", s.handleSubmitJob)
		r.Post("/api/jobs/batch", s.handleBatchSubmit)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/report", s.handleJobReport)

		r.Get("/api/stats", s.handleStats)

		r.Get("/api/citations", s.handleFindCitation)
		r.Get("/api/documents", s.handleListDocuments)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
