// File path: internal/api/sessions_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/levnertech/gapcheck/internal/common"
	"github.com/levnertech/gapcheck/internal/session"
)

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req sessionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: session create decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mode := strings.TrimSpace(req.Mode)
	if mode == "" {
		mode = session.ModeStructured
	}
	sess, err := s.sessions.CreateSession(r.Context(), mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	logger.Info("api: session created", "session", sess.ID, "mode", sess.Mode)
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.DeleteSession(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	common.Logger().Info("api: session deleted", "session", id)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleSessionMode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req sessionModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Mode != session.ModeStructured && req.Mode != session.ModeOpenEnded {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown assessment mode %q", req.Mode))
		return
	}
	if err := s.sessions.SetMode(r.Context(), id, req.Mode); err != nil {
		writeDomainError(w, err)
		return
	}
	sess, err := s.sessions.GetSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
