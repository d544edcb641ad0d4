// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/levnertech/gapcheck/internal/assistant"
	"github.com/levnertech/gapcheck/internal/clause"
	"github.com/levnertech/gapcheck/internal/common"
	"github.com/levnertech/gapcheck/internal/evaluator"
	"github.com/levnertech/gapcheck/internal/llm"
	"github.com/levnertech/gapcheck/internal/session"
)

type Server struct {
	router    chi.Router
	clauses   *clause.Store
	sessions  *session.Store
	provider  llm.Provider
	evaluator *evaluator.Evaluator
	assistant *assistant.Runner
}

func NewServer(clauses *clause.Store, sessions *session.Store, provider llm.Provider) (*Server, error) {
	logger := common.Logger()
	if clauses == nil {
		return nil, fmt.Errorf("clause store required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	providerName := "none"
	if provider != nil {
		providerName = provider.Name()
	}
	logger.Info("api: building server", "clauses", len(clauses.ClauseIDs()), "provider", providerName)
	srv := &Server{
		router:    chi.NewRouter(),
		clauses:   clauses,
		sessions:  sessions,
		provider:  provider,
		evaluator: evaluator.New(provider),
		assistant: assistant.NewRunner(provider),
	}
	srv.routes()
	logger.Info("api: server ready")
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/v1/sessions", s.handleSessionCreate)
	s.router.Get("/v1/sessions/{id}", s.handleSessionGet)
	s.router.Delete("/v1/sessions/{id}", s.handleSessionDelete)
	s.router.Post("/v1/sessions/{id}/mode", s.handleSessionMode)
	s.router.Get("/v1/sessions/{id}/question", s.handleQuestion)
	s.router.Post("/v1/sessions/{id}/answer", s.handleAnswer)
	s.router.Post("/v1/sessions/{id}/open-text", s.handleOpenText)
	s.router.Post("/v1/sessions/{id}/evidence", s.handleEvidence)
	s.router.Get("/v1/sessions/{id}/report", s.handleReport)
	s.router.Post("/v1/sessions/{id}/recommendations", s.handleRecommendations)
	s.router.Post("/v1/assistant", s.handleAssistant)
	s.router.Get("/v1/clauses", s.handleClauses)
	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError maps core package errors onto HTTP statuses: unknown
// sessions, clauses, and steps are 404, rejected answers are 400,
// everything else is 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var notFound *clause.NotFoundError
	var invalid *clause.InvalidAnswerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}
