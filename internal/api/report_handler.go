// File path: internal/api/report_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/levnertech/gapcheck/internal/common"
	"github.com/levnertech/gapcheck/internal/verdict"
)

// handleReport compiles the session's recorded verdicts into the gap
// analysis report: per-clause results, verdict counts, static
// recommendations, and the remediation checklist.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	results, err := s.sessions.Results(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	report := verdict.CompileReport(results)
	common.Logger().Info("api: report compiled", "session", sessionID, "clauses", len(results))
	writeJSON(w, http.StatusOK, report)
}

// handleRecommendations runs the consultant flow over the session's
// results to produce prioritized, clause-specific remediation guidance.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")
	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: recommendations decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	results, err := s.sessions.Results(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(results) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("no recorded verdicts for session %s", sessionID))
		return
	}
	recs, err := s.assistant.GenerateDetailedRecommendations(ctx, results, req.OrganizationContext)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("generate recommendations: %w", err))
		return
	}
	logger.Info("api: recommendations generated", "session", sessionID, "clauses", len(results))
	writeJSON(w, http.StatusOK, recs)
}
