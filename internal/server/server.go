// Package server provides the thin HTTP layer over the store and the
// scan engine. Authentication is external; the caller's identity arrives
// in the X-User-ID header.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mikhno/subtrack/internal/database"
	"github.com/mikhno/subtrack/internal/scanner"
)

// Server is the HTTP API server.
type Server struct {
	db     *database.DB
	syncer *scanner.Syncer
	router chi.Router
	logger *slog.Logger
}

// New creates a new server.
func New(db *database.DB, syncer *scanner.Syncer, logger *slog.Logger) *Server {
	s := &Server{
		db:     db,
		syncer: syncer,
		logger: logger.With("component", "server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/subscriptions", s.handleListSubscriptions)
		r.Post("/subscriptions", s.handleCreateSubscription)
		r.Delete("/subscriptions/{id}", s.handleDeleteSubscription)

		r.Get("/categories", s.handleListCategories)

		r.Get("/accounts", s.handleListAccounts)
		r.Post("/accounts", s.handleConnectAccount)
		r.Delete("/accounts/{id}", s.handleDisconnectAccount)

		r.Post("/scan", s.handleScan)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type contextKey string

const userIDKey contextKey = "userID"

// requireUser rejects requests without a caller identity.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
