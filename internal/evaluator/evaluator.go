// File path: internal/evaluator/evaluator.go
package evaluator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/levnertech/gapcheck/internal/common"
	"github.com/levnertech/gapcheck/internal/llm"
	"github.com/levnertech/gapcheck/internal/verdict"
)

const (
	maxResponseChars = 4000
	maxDocumentChars = 6000
)

// ClauseDescriptions summarizes each assessed clause for evaluator prompts.
var ClauseDescriptions = map[string]string{
	"4.1": "Understanding the organization and its context requires identifying external and internal issues relevant to the organization's purpose that affect its ability to achieve intended ISMS outcomes.",
	"4.2": "Understanding the needs and expectations of interested parties requires determining relevant stakeholders and their requirements.",
	"4.3": "Determining the scope of the ISMS requires defining its boundaries and applicability.",
	"4.4": "The ISMS must be established, implemented, maintained and continually improved in accordance with ISO 27001.",
}

// NoResponseFeedback is the fixed note attached when an open-ended answer is
// empty: the evaluator is never called in that case.
const NoResponseFeedback = "No response provided"

// OpenTextResult is the full outcome of one open-ended compliance
// evaluation. Scores carries whatever dimensions the evaluator returned; the
// verdict fallback only reads relevance and completeness.
type OpenTextResult struct {
	Verdict  verdict.Verdict    `json:"verdict"`
	Scores   map[string]float64 `json:"scores"`
	Feedback string             `json:"feedback"`
}

// EvidenceAnalysis is the structured review of an uploaded evidence
// document against one clause.
type EvidenceAnalysis struct {
	ComplianceLevel     string   `json:"compliance_level"`
	MatchedRequirements []string `json:"matched_requirements"`
	MissingRequirements []string `json:"missing_requirements"`
	Suggestions         []string `json:"suggestions"`
	OverallAssessment   string   `json:"overall_assessment"`
}

// Evaluator submits assessment text to the external model and interprets
// its structured output. Results are cached per (clause, response, context)
// so displaying feedback never re-runs an evaluation.
type Evaluator struct {
	provider llm.Provider

	mu    sync.Mutex
	cache map[string]OpenTextResult
}

func New(provider llm.Provider) *Evaluator {
	return &Evaluator{provider: provider, cache: make(map[string]OpenTextResult)}
}

func clauseDescription(clauseID string) string {
	if desc, ok := ClauseDescriptions[clauseID]; ok {
		return desc
	}
	return fmt.Sprintf("ISO 27001 Clause %s", clauseID)
}

const openTextSystemPrompt = `You are an ISO 27001 auditor assessing a user's open-ended answer.

Evaluate the response for relevance and completeness regarding the given clause.

**IMPORTANT:** Output ONLY a valid JSON object using this exact schema:
{
  "scores": {
    "relevance": <0.0-1.0>,
    "completeness": <0.0-1.0>
  },
  "verdict": "Complied|Minor NC|Opportunity for Improvement|Major NC",
  "feedback": "<detailed constructive feedback>"
}

Do not add any explanation or notes. Ensure the JSON is valid and fully populated.`

// EvaluateOpenText assesses a free-text answer for one clause. An empty or
// whitespace answer short-circuits to Major NC with zero scores without
// contacting the evaluator. Evaluator failures propagate to the caller;
// nothing is retried or degraded here.
func (e *Evaluator) EvaluateOpenText(ctx context.Context, clauseID, response, documentContext string) (OpenTextResult, error) {
	logger := common.Logger()
	if strings.TrimSpace(response) == "" {
		logger.Info("evaluator: empty open-ended response", "clause", clauseID)
		return OpenTextResult{
			Verdict:  verdict.MajorNC,
			Scores:   map[string]float64{"relevance": 0, "completeness": 0},
			Feedback: NoResponseFeedback,
		}, nil
	}

	key := cacheKey(clauseID, response, documentContext)
	e.mu.Lock()
	cached, ok := e.cache[key]
	e.mu.Unlock()
	if ok {
		logger.Debug("evaluator: open-text cache hit", "clause", clauseID)
		return cached, nil
	}

	messages := []llm.Message{
		{Role: "system", Content: openTextSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Clause %s: %s", clauseID, clauseDescription(clauseID))},
		{Role: "user", Content: "User response:\n\n" + truncate(response, maxResponseChars)},
	}
	if documentContext != "" {
		messages = append(messages, llm.Message{Role: "user", Content: "Supporting docs:\n\n" + documentContext})
	}

	raw, err := e.provider.Chat(ctx, messages)
	if err != nil {
		logger.Error("evaluator: open-text evaluation failed", "clause", clauseID, "error", err)
		return OpenTextResult{}, fmt.Errorf("evaluate open text for clause %s: %w", clauseID, err)
	}

	var parsed struct {
		Scores   map[string]float64 `json:"scores"`
		Verdict  string             `json:"verdict"`
		Feedback string             `json:"feedback"`
	}
	if err := DecodeModelJSON(raw, fmt.Sprintf("open-text evaluation (clause %s)", clauseID), &parsed); err != nil {
		logger.Error("evaluator: open-text response unparseable", "clause", clauseID, "error", err)
		return OpenTextResult{}, err
	}

	result := OpenTextResult{Scores: parsed.Scores, Feedback: parsed.Feedback}
	if result.Scores == nil {
		result.Scores = map[string]float64{}
	}
	if v, err := verdict.Parse(parsed.Verdict); err == nil {
		result.Verdict = v
	} else {
		result.Verdict = verdict.ScoreToVerdict(result.Scores["relevance"], result.Scores["completeness"])
		logger.Debug("evaluator: verdict missing from response, using score fallback",
			"clause", clauseID, "verdict", result.Verdict)
	}

	e.mu.Lock()
	e.cache[key] = result
	e.mu.Unlock()
	logger.Info("evaluator: open-text evaluation complete", "clause", clauseID, "verdict", result.Verdict)
	return result, nil
}

const evidenceSystemPrompt = `You are an ISO 27001 compliance auditor specializing in document review.
Your task is to evaluate the provided document content based on the given ISO clause.

**IMPORTANT:** Respond ONLY with a JSON object following this format, without any additional explanation:
{
  "compliance_level": "<High|Medium|Low>",
  "matched_requirements": [<list of addressed requirements>],
  "missing_requirements": [<list of missing requirements>],
  "suggestions": [<list of improvement suggestions>],
  "overall_assessment": "<concise summary>"
}
Make sure your JSON is syntactically valid.`

// AnalyzeEvidence reviews uploaded evidence text against one clause.
func (e *Evaluator) AnalyzeEvidence(ctx context.Context, clauseID, documentText string) (EvidenceAnalysis, error) {
	logger := common.Logger()
	messages := []llm.Message{
		{Role: "system", Content: evidenceSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Clause %s: %s", clauseID, clauseDescription(clauseID))},
		{Role: "user", Content: "Document content:\n\n" + truncate(documentText, maxDocumentChars)},
	}
	raw, err := e.provider.Chat(ctx, messages)
	if err != nil {
		logger.Error("evaluator: evidence analysis failed", "clause", clauseID, "error", err)
		return EvidenceAnalysis{}, fmt.Errorf("analyze evidence for clause %s: %w", clauseID, err)
	}
	var analysis EvidenceAnalysis
	if err := DecodeModelJSON(raw, fmt.Sprintf("evidence analysis (clause %s)", clauseID), &analysis); err != nil {
		logger.Error("evaluator: evidence response unparseable", "clause", clauseID, "error", err)
		return EvidenceAnalysis{}, err
	}
	logger.Info("evaluator: evidence analysis complete", "clause", clauseID, "level", analysis.ComplianceLevel)
	return analysis, nil
}

func cacheKey(clauseID, response, documentContext string) string {
	sum := sha256.Sum256([]byte(clauseID + "\x00" + response + "\x00" + documentContext))
	return hex.EncodeToString(sum[:])
}
