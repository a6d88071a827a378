package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/pagelens/internal/config"
	"github.com/dgallion1/pagelens/internal/rag"
	"github.com/dgallion1/pagelens/internal/session"
)

// SectionSummarizer produces a short summary of one page section.
type SectionSummarizer interface {
	SummarizeSection(ctx context.Context, text string) (string, error)
}

// StatsSource reports collaborator call latencies.
type StatsSource interface {
	Snapshot() map[string]rag.StatsSnapshot
}

// Server is the HTTP API server for pagelens.
type Server struct {
	router   chi.Router
	sessions *session.Store
	deps     session.Deps
	sections SectionSummarizer
	stats    StatsSource
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. sections and stats may be nil.
func NewServer(store *session.Store, deps session.Deps, sections SectionSummarizer, stats StatsSource, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions: store,
		deps:     deps,
		sections: sections,
		stats:    stats,
		log:      log,
		cfg:      cfg,
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
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSummary)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/messages", s.handleMessage)
			r.Get("/document", s.handleDocument)
			r.Get("/events", s.handleEvents)
		})
		r.Post("/sections/summarize", s.handleSummarizeSection)
		r.Get("/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}
