// File path: internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/levnertech/gapcheck/internal/clause"
	"github.com/levnertech/gapcheck/internal/llm"
	"github.com/levnertech/gapcheck/internal/session"
)

type mockProvider struct {
	response string
	err      error
	calls    int
}

func (m *mockProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockProvider) Name() string { return "mock" }

func newTestServer(t *testing.T, provider llm.Provider) *Server {
	t.Helper()
	clauses, err := clause.Load()
	if err != nil {
		t.Fatalf("load clauses: %v", err)
	}
	cfg := session.Config{Path: filepath.Join(t.TempDir(), "sessions.db")}
	sessions, err := session.OpenWithConfig(cfg)
	if err != nil {
		t.Fatalf("open session store: %v", err)
	}
	t.Cleanup(func() { sessions.Close() })
	srv, err := NewServer(clauses, sessions, provider)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader([]byte("{}"))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if out != nil && rec.Code < http.StatusBadRequest {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code
}

func createSession(t *testing.T, srv *Server, mode string) string {
	t.Helper()
	var sess session.Session
	status := doJSON(t, srv, http.MethodPost, "/v1/sessions", map[string]string{"mode": mode}, &sess)
	if status != http.StatusCreated {
		t.Fatalf("create session: status %d", status)
	}
	return sess.ID
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})

	var created session.Session
	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions", nil, &created); status != http.StatusCreated {
		t.Fatalf("create: status %d", status)
	}
	if created.Mode != session.ModeStructured {
		t.Fatalf("expected default mode %q, got %q", session.ModeStructured, created.Mode)
	}

	var loaded session.Session
	if status := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+created.ID, nil, &loaded); status != http.StatusOK {
		t.Fatalf("get: status %d", status)
	}
	if loaded.ID != created.ID {
		t.Fatalf("expected session %s, got %s", created.ID, loaded.ID)
	}

	var updated session.Session
	status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+created.ID+"/mode",
		map[string]string{"mode": session.ModeOpenEnded}, &updated)
	if status != http.StatusOK || updated.Mode != session.ModeOpenEnded {
		t.Fatalf("mode switch: status %d mode %q", status, updated.Mode)
	}
	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+created.ID+"/mode",
		map[string]string{"mode": "chatty"}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", status)
	}

	if status := doJSON(t, srv, http.MethodDelete, "/v1/sessions/"+created.ID, nil, nil); status != http.StatusOK {
		t.Fatalf("delete: status %d", status)
	}
	if status := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+created.ID, nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestCreateSessionRejectsUnknownMode(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions", map[string]string{"mode": "chatty"}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestQuestionInitial(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	id := createSession(t, srv, session.ModeStructured)

	var resp questionResponse
	status := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/question?clause=4.1", nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("question: status %d", status)
	}
	if resp.Step != "1" || resp.Terminal {
		t.Fatalf("expected start step, got %+v", resp)
	}
	if resp.Title != "Understanding the organization and its context" {
		t.Fatalf("unexpected title %q", resp.Title)
	}
	if len(resp.Options) != 2 || resp.Options[0] != "Yes" || resp.Options[1] != "No" {
		t.Fatalf("unexpected options %v", resp.Options)
	}
	if !strings.Contains(resp.Question, "external issues") {
		t.Fatalf("unexpected question %q", resp.Question)
	}
	if !resp.CanConclude {
		t.Fatal("step 1 of 4.1 has a terminal option")
	}

	if status := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/question", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 without clause param, got %d", status)
	}
	if status := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/question?clause=9.9", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown clause, got %d", status)
	}
	if status := doJSON(t, srv, http.MethodGet, "/v1/sessions/missing/question?clause=4.1", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", status)
	}
}

func TestAnswerWalkToComplied(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	id := createSession(t, srv, session.ModeStructured)

	answers := []string{"Yes", "Yes", "Clear Documentation", "Regularly Reviewed", "Yes"}
	var last answerResponse
	for i, answer := range answers {
		var resp answerResponse
		status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/answer",
			answerRequest{Clause: "4.1", Answer: answer}, &resp)
		if status != http.StatusOK {
			t.Fatalf("answer %d (%q): status %d", i+1, answer, status)
		}
		last = resp
		if i < len(answers)-1 {
			if resp.Terminal {
				t.Fatalf("answer %d (%q): unexpected terminal", i+1, answer)
			}
			if resp.Step != fmt.Sprintf("%d", i+2) {
				t.Fatalf("answer %d: expected step %d, got %s", i+1, i+2, resp.Step)
			}
			if resp.Question == "" || len(resp.Options) == 0 {
				t.Fatalf("answer %d: missing next question payload: %+v", i+1, resp)
			}
		}
	}
	if !last.Terminal || last.Verdict == nil || last.Verdict.Primary() != "Complied" {
		t.Fatalf("expected Complied terminal, got %+v", last)
	}

	var q questionResponse
	if status := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/question?clause=4.1", nil, &q); status != http.StatusOK {
		t.Fatalf("question after terminal: status %d", status)
	}
	if !q.Terminal || q.Question != "" {
		t.Fatalf("expected terminal question state, got %+v", q)
	}

	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/answer",
		answerRequest{Clause: "4.1", Answer: "Yes"}, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 after conclusion, got %d", status)
	}
}

func TestAnswerCompoundVerdictShape(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	id := createSession(t, srv, session.ModeStructured)

	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/answer",
		answerRequest{Clause: "4.2", Answer: "Yes"}, nil); status != http.StatusOK {
		t.Fatalf("first answer: status %d", status)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id+"/answer",
		strings.NewReader(`{"clause":"4.2","answer":"No"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("second answer: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `["Major NC","Minor NC"]`) {
		t.Fatalf("expected compound verdict array, got %s", rec.Body.String())
	}
}

func TestAnswerRejectsUnknownOption(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	id := createSession(t, srv, session.ModeStructured)
	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/answer",
		answerRequest{Clause: "4.1", Answer: "maybe"}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown answer, got %d", status)
	}
}

func TestOpenTextEndpoint(t *testing.T) {
	provider := &mockProvider{response: `{"scores":{"relevance":0.9,"completeness":0.88},"verdict":"Complied","feedback":"Well documented context process."}`}
	srv := newTestServer(t, provider)
	id := createSession(t, srv, session.ModeOpenEnded)

	var resp openTextResponse
	status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/open-text",
		openTextRequest{Clause: "4.1", Response: "We maintain a quarterly context analysis."}, &resp)
	if status != http.StatusOK {
		t.Fatalf("open-text: status %d", status)
	}
	if resp.Verdict != "Complied" || resp.Scores["relevance"] != 0.9 {
		t.Fatalf("unexpected open-text result %+v", resp)
	}
	if provider.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", provider.calls)
	}

	var report map[string]json.RawMessage
	if status := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/report", nil, &report); status != http.StatusOK {
		t.Fatalf("report: status %d", status)
	}
	var gap []map[string]interface{}
	if err := json.Unmarshal(report["gap_analysis"], &gap); err != nil {
		t.Fatalf("decode gap analysis: %v", err)
	}
	if len(gap) != 1 || gap[0]["clause"] != "4.1" || gap[0]["verdict"] != "Complied" {
		t.Fatalf("unexpected gap analysis %+v", gap)
	}
	details, ok := gap[0]["details"].(map[string]interface{})
	if !ok || details["feedback"] != "Well documented context process." {
		t.Fatalf("expected evaluator feedback in details, got %+v", gap[0]["details"])
	}
}

func TestOpenTextUnknownClause(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	id := createSession(t, srv, session.ModeOpenEnded)
	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/open-text",
		openTextRequest{Clause: "9.9", Response: "answer"}, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestEvidenceEndpoint(t *testing.T) {
	provider := &mockProvider{response: `{"compliance_level":"Good","matched_requirements":["context process defined"],"missing_requirements":["review schedule"],"suggestions":["formalize the review cadence"],"overall_assessment":"Largely aligned."}`}
	srv := newTestServer(t, provider)
	id := createSession(t, srv, session.ModeStructured)

	var resp evidenceResponse
	status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/evidence",
		evidenceRequest{Clause: "4.1", Document: "Context analysis procedure v2 ..."}, &resp)
	if status != http.StatusOK {
		t.Fatalf("evidence: status %d", status)
	}
	if resp.ComplianceLevel != "Good" || len(resp.MissingRequirements) != 1 {
		t.Fatalf("unexpected evidence analysis %+v", resp)
	}

	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/evidence",
		evidenceRequest{Clause: "4.1"}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing document, got %d", status)
	}
}

func TestReportCompilation(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	id := createSession(t, srv, session.ModeStructured)

	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/answer",
		answerRequest{Clause: "4.1", Answer: "No"}, nil); status != http.StatusOK {
		t.Fatalf("answer: status %d", status)
	}

	var report struct {
		GapAnalysis     []map[string]interface{} `json:"gap_analysis"`
		Counts          map[string]int           `json:"counts"`
		Recommendations []string                 `json:"recommendations"`
		Checklist       []string                 `json:"checklist"`
	}
	if status := doJSON(t, srv, http.MethodGet, "/v1/sessions/"+id+"/report", nil, &report); status != http.StatusOK {
		t.Fatalf("report: status %d", status)
	}
	if report.Counts["Major NC"] != 1 || report.Counts["Complied"] != 0 {
		t.Fatalf("unexpected counts %+v", report.Counts)
	}
	if len(report.Checklist) != 1 || !strings.Contains(report.Checklist[0], "4.1") {
		t.Fatalf("unexpected checklist %v", report.Checklist)
	}
	if len(report.Recommendations) == 0 {
		t.Fatalf("expected recommendations for Major NC")
	}
}

func TestRecommendationsRequireResults(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	id := createSession(t, srv, session.ModeStructured)
	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/recommendations", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 without verdicts, got %d", status)
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	provider := &mockProvider{response: `{"priority_actions":["Establish a context identification process"],"recommendations_by_clause":{"4.1":{"verdict":"Major NC","actions":["Define and document the process"],"timeline":"30 days"}},"implementation_strategy":"Start with clause 4.1.","areas_of_strength":[]}`}
	srv := newTestServer(t, provider)
	id := createSession(t, srv, session.ModeStructured)

	if status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/answer",
		answerRequest{Clause: "4.1", Answer: "No"}, nil); status != http.StatusOK {
		t.Fatalf("answer: status %d", status)
	}

	var recs struct {
		PriorityActions []string `json:"priority_actions"`
	}
	status := doJSON(t, srv, http.MethodPost, "/v1/sessions/"+id+"/recommendations",
		recommendationsRequest{OrganizationContext: "mid-size SaaS"}, &recs)
	if status != http.StatusOK {
		t.Fatalf("recommendations: status %d", status)
	}
	if len(recs.PriorityActions) != 1 {
		t.Fatalf("unexpected recommendations %+v", recs)
	}
}

func TestAssistantEndpoint(t *testing.T) {
	provider := &mockProvider{response: "Refer to Clause 4.1 and document your context analysis."}
	srv := newTestServer(t, provider)

	var resp map[string]string
	status := doJSON(t, srv, http.MethodPost, "/v1/assistant",
		assistantRequest{Query: "How do I document organizational context?"}, &resp)
	if status != http.StatusOK {
		t.Fatalf("assistant: status %d", status)
	}
	if !strings.Contains(resp["answer"], "Clause 4.1") {
		t.Fatalf("unexpected answer %q", resp["answer"])
	}

	if status := doJSON(t, srv, http.MethodPost, "/v1/assistant", assistantRequest{}, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty query, got %d", status)
	}
}

func TestClausesEndpoint(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	var resp struct {
		Clauses []clause.Clause `json:"clauses"`
	}
	if status := doJSON(t, srv, http.MethodGet, "/v1/clauses", nil, &resp); status != http.StatusOK {
		t.Fatalf("clauses: status %d", status)
	}
	if len(resp.Clauses) != 4 {
		t.Fatalf("expected 4 clauses, got %d", len(resp.Clauses))
	}
	if resp.Clauses[0].ID != "4.1" || resp.Clauses[3].ID != "4.4" {
		t.Fatalf("unexpected clause order: %s ... %s", resp.Clauses[0].ID, resp.Clauses[3].ID)
	}
}

func TestLogsEndpoint(t *testing.T) {
	srv := newTestServer(t, &mockProvider{})
	req := httptest.NewRequest(http.MethodGet, "/v1/logs", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logs: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "logs") {
		t.Fatalf("unexpected logs body %s", rec.Body.String())
	}
}
