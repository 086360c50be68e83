package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"codesage/api/internal/apperr"
	"codesage/api/internal/auth"
	"codesage/api/internal/config"
	"codesage/api/internal/generation"
	"codesage/api/internal/logging"
	"codesage/api/internal/metrics"
	"codesage/api/internal/repository"
)

// Reviewer produces a code review. *generation.Reviewer satisfies it.
type Reviewer interface {
	Review(ctx context.Context, code, language string) generation.Result
}

type Server struct {
	cfg         config.Config
	users       repository.UserStore
	submissions repository.SubmissionStore
	tokens      *auth.TokenService
	reviewer    Reviewer
	log         logging.Logger
	metrics     *metrics.Metrics
}

func NewServer(cfg config.Config, store repository.Store, reviewer Reviewer, log logging.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = logging.Nop{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &Server{
		cfg:         cfg,
		users:       store,
		submissions: store,
		tokens: auth.NewTokenService(store, auth.TokenConfig{
			AccessSecret:  cfg.JWTSecret,
			RefreshSecret: cfg.JWTRefreshSecret,
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshTTL:    cfg.RefreshTokenTTL,
		}),
		reviewer: reviewer,
		log:      log.With("component", "http"),
		metrics:  m,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
	})

	r.Route("/api/code", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/submit", s.handleSubmitCode)
		r.Get("/history", s.handleGetHistory)
		r.Delete("/history/all", s.handleDeleteAllHistory)
		r.Delete("/history/code/{codeId}", s.handleDeleteHistoryItem)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apperr.New(apperr.NotFound, "Route not found"))
	})

	return r
}
