// File path: internal/api/assessment_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/levnertech/gapcheck/internal/clause"
	"github.com/levnertech/gapcheck/internal/common"
	"github.com/levnertech/gapcheck/internal/session"
	"github.com/levnertech/gapcheck/internal/verdict"
)

// handleQuestion reports the session's current step within one clause:
// the question and its answer options, or the terminal flag once the
// clause has concluded.
func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")
	clauseID := strings.TrimSpace(r.URL.Query().Get("clause"))
	if clauseID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("clause query parameter required"))
		return
	}
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	title, err := s.clauses.Title(clauseID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	step := clause.StartStep
	terminal := false
	if pos, ok, err := s.sessions.Position(ctx, sessionID, clauseID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	} else if ok {
		step = pos.Step
		terminal = pos.Terminal
	}

	resp := questionResponse{Clause: clauseID, Title: title, Step: step, Terminal: terminal}
	if !terminal {
		question, err := s.clauses.Question(clauseID, step)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		options, err := s.clauses.Options(clauseID, step)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		canConclude, err := s.clauses.IsTerminal(clauseID, step)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp.Question = question
		resp.Options = options
		resp.CanConclude = canConclude
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAnswer advances the session through one clause graph. A terminal
// transition records the verdict; a continue transition persists the new
// position and returns the next question.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: answer decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Clause) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("clause required"))
		return
	}
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		writeDomainError(w, err)
		return
	}

	step := clause.StartStep
	if pos, ok, err := s.sessions.Position(ctx, sessionID, req.Clause); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	} else if ok {
		if pos.Terminal {
			writeError(w, http.StatusConflict, fmt.Errorf("clause %s already concluded", req.Clause))
			return
		}
		step = pos.Step
	}

	outcome, err := s.clauses.Evaluate(req.Clause, step, req.Answer)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if outcome.Terminal() {
		if err := s.sessions.RecordVerdict(ctx, sessionID, req.Clause, outcome.Verdict, nil); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		logger.Info("api: clause concluded", "session", sessionID, "clause", req.Clause, "verdict", outcome.Verdict.Primary())
		writeJSON(w, http.StatusOK, answerResponse{Clause: req.Clause, Terminal: true, Verdict: &outcome.Verdict})
		return
	}

	next := session.Position{SessionID: sessionID, Clause: req.Clause, Step: outcome.NextStep}
	if err := s.sessions.SavePosition(ctx, next); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	question, err := s.clauses.Question(req.Clause, outcome.NextStep)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	options, err := s.clauses.Options(req.Clause, outcome.NextStep)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{
		Clause:   req.Clause,
		Step:     outcome.NextStep,
		Question: question,
		Options:  options,
	})
}

// handleOpenText evaluates a free-text answer for one clause and records
// the resulting verdict with its scores and feedback.
func (s *Server) handleOpenText(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")
	var req openTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: open-text decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Clause) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("clause required"))
		return
	}
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := s.clauses.Title(req.Clause); err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := s.evaluator.EvaluateOpenText(ctx, req.Clause, req.Response, req.DocumentContext)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("evaluate response: %w", err))
		return
	}
	if err := s.sessions.SaveOpenResponse(ctx, sessionID, req.Clause, req.Response); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	details := map[string]interface{}{"feedback": result.Feedback}
	for dim, score := range result.Scores {
		details[dim] = score
	}
	if err := s.sessions.RecordVerdict(ctx, sessionID, req.Clause, verdict.Single(result.Verdict), details); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("api: open-text evaluated", "session", sessionID, "clause", req.Clause, "verdict", result.Verdict)
	writeJSON(w, http.StatusOK, openTextResponse{Clause: req.Clause, OpenTextResult: result})
}

// handleEvidence analyzes uploaded document text against one clause and
// stores the structured result for later reference.
func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")
	var req evidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: evidence decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Clause) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("clause required"))
		return
	}
	if strings.TrimSpace(req.Document) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("document required"))
		return
	}
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := s.clauses.Title(req.Clause); err != nil {
		writeDomainError(w, err)
		return
	}

	analysis, err := s.evaluator.AnalyzeEvidence(ctx, req.Clause, req.Document)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("analyze evidence: %w", err))
		return
	}
	encoded, err := json.Marshal(analysis)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("encode evidence analysis: %w", err))
		return
	}
	if err := s.sessions.SaveEvidence(ctx, sessionID, req.Clause, string(encoded)); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("api: evidence analyzed", "session", sessionID, "clause", req.Clause, "level", analysis.ComplianceLevel)
	writeJSON(w, http.StatusOK, evidenceResponse{Clause: req.Clause, EvidenceAnalysis: analysis})
}
