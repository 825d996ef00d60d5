package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/papernav/internal/config"
	"github.com/dgallion1/papernav/internal/session"
)

// Server is the HTTP API server for papernav.
type Server struct {
	router  chi.Router
	manager *session.Manager
	log     *slog.Logger
	cfg     config.Config
	started time.Time
}

// NewServer creates and configures the HTTP server.
func NewServer(manager *session.Manager, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		manager: manager,
		log:     log,
		cfg:     cfg,
		started: time.Now(),
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.PapernavAPIKey, s.log))

		r.Post("/v1/papers", s.handleUploadPaper)
		r.Get("/v1/papers", s.handleListPapers)
		r.Get("/v1/papers/{paperID}", s.handleGetPaper)
		r.Delete("/v1/papers/{paperID}", s.handleDeletePaper)

		r.Post("/v1/sessions", s.handleCreateSession)
		r.Get("/v1/sessions/{sessionID}", s.handleGetSession)
		r.Delete("/v1/sessions/{sessionID}", s.handleDeleteSession)
		r.Post("/v1/sessions/{sessionID}/intents", s.handleIntent)
		r.Post("/v1/sessions/{sessionID}/commands", s.handleCommand)
		r.Post("/v1/sessions/{sessionID}/archive", s.handleArchive)

		r.Get("/v1/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
