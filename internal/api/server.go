package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sumithkumar123/resume-analysis-app/internal/auth"
	"github.com/sumithkumar123/resume-analysis-app/internal/config"
	"github.com/sumithkumar123/resume-analysis-app/internal/gemini"
	"github.com/sumithkumar123/resume-analysis-app/internal/secure"
	"github.com/sumithkumar123/resume-analysis-app/internal/store"
)

// Server is the HTTP API server for the resume analysis service.
type Server struct {
	router chi.Router
	store  *store.Store
	gemini *gemini.Client
	cipher *secure.Cipher
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(st *store.Store, gc *gemini.Client, cipher *secure.Cipher, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store:  st,
		gemini: gc,
		cipher: cipher,
		log:    log,
		cfg:    cfg,
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
	r.Post("/api/auth/login", s.handleLogin)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware([]byte(s.cfg.JWTSecret), s.log))

		r.Post("/api/resume/enrich", s.handleEnrich)
		r.Post("/api/resume/upload", s.handleUpload)
		r.Get("/api/resume/search", s.handleSearch)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
