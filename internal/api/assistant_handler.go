// File path: internal/api/assistant_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/levnertech/gapcheck/internal/common"
)

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req assistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: assistant decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query required"))
		return
	}
	logger.Info("api: assistant query", "clause_context", req.ClauseContext != "")
	answer, err := s.assistant.Ask(r.Context(), req.Query, req.ClauseContext)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("assistant: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// handleClauses serves the clause reference data: every clause with its
// full step and option graph.
func (s *Server) handleClauses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"clauses": s.clauses.Clauses()})
}
