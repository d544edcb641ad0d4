// File path: internal/api/types.go
package api

import (
	"github.com/levnertech/gapcheck/internal/evaluator"
	"github.com/levnertech/gapcheck/internal/verdict"
)

type sessionCreateRequest struct {
	Mode string `json:"mode"`
}

type sessionModeRequest struct {
	Mode string `json:"mode"`
}

type answerRequest struct {
	Clause string `json:"clause"`
	Answer string `json:"answer"`
}

type answerResponse struct {
	Clause   string           `json:"clause"`
	Terminal bool             `json:"terminal"`
	Verdict  *verdict.Payload `json:"verdict,omitempty"`
	Step     string           `json:"step,omitempty"`
	Question string           `json:"question,omitempty"`
	Options  []string         `json:"options,omitempty"`
}

type questionResponse struct {
	Clause   string   `json:"clause"`
	Title    string   `json:"title"`
	Step     string   `json:"step"`
	Terminal bool     `json:"terminal"`
	Question string   `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`
	// CanConclude marks steps where at least one option ends the clause.
	CanConclude bool `json:"can_conclude"`
}

type openTextRequest struct {
	Clause          string `json:"clause"`
	Response        string `json:"response"`
	DocumentContext string `json:"document_context,omitempty"`
}

type openTextResponse struct {
	Clause string `json:"clause"`
	evaluator.OpenTextResult
}

type evidenceRequest struct {
	Clause   string `json:"clause"`
	Document string `json:"document"`
}

type evidenceResponse struct {
	Clause string `json:"clause"`
	evaluator.EvidenceAnalysis
}

type recommendationsRequest struct {
	OrganizationContext string `json:"organization_context,omitempty"`
}

type assistantRequest struct {
	Query         string `json:"query"`
	ClauseContext string `json:"clause_context,omitempty"`
}
