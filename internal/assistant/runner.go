// File path: internal/assistant/runner.go
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langgraphgo/graph"

	"github.com/levnertech/gapcheck/internal/common"
	"github.com/levnertech/gapcheck/internal/evaluator"
	"github.com/levnertech/gapcheck/internal/llm"
	"github.com/levnertech/gapcheck/internal/verdict"
)

// Runner drives the consultant-style model flows: free-form Q&A and the
// detailed recommendation generation over compiled assessment results. Both
// run through a single-node message graph so the prompt assembly and the
// provider call stay one pipeline.
type Runner struct {
	provider llm.Provider
}

func NewRunner(provider llm.Provider) *Runner {
	return &Runner{provider: provider}
}

const askSystemPrompt = `You are an ISO 27001 virtual assistant.

Provide practical, concise advice in natural language to answer user questions.
Whenever relevant, cite ISO clause numbers (e.g., "Refer to Clause 4.1.").

**IMPORTANT:** Respond in plain text only (no JSON), and avoid unnecessary verbosity.
Focus on clarity, relevance, and actionable guidance.`

// Ask answers a compliance question in plain text, optionally anchored to
// the clause currently being assessed.
func (r *Runner) Ask(ctx context.Context, query, clauseContext string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query required")
	}
	prompt := "User question: " + query
	if clauseContext != "" {
		prompt = fmt.Sprintf("Regarding clause: %s\n\n%s", clauseContext, prompt)
	}
	return r.run(ctx, "assist", askSystemPrompt, prompt)
}

const recommendationsSystemPrompt = `You are an ISO 27001 consultant reviewing an organization's overall gap assessment results.

Based on the provided data, generate improvement strategies and actionable recommendations.

**IMPORTANT:** Respond ONLY with a valid JSON object using this schema:
{
  "priority_actions": [...],
  "recommendations_by_clause": {...},
  "implementation_strategy": "...",
  "areas_of_strength": [...]
}

No explanations outside the JSON output. Make sure the JSON is properly formatted and complete.`

// ClauseRecommendation is the per-clause slice of a detailed
// recommendation response.
type ClauseRecommendation struct {
	Actions   []string `json:"actions"`
	Timeline  string   `json:"timeline"`
	Resources []string `json:"resources,omitempty"`
}

// DetailedRecommendations is the structured consultant output generated
// over the full assessment.
type DetailedRecommendations struct {
	PriorityActions         []string                        `json:"priority_actions"`
	RecommendationsByClause map[string]ClauseRecommendation `json:"recommendations_by_clause"`
	ImplementationStrategy  string                          `json:"implementation_strategy"`
	AreasOfStrength         []string                        `json:"areas_of_strength"`
}

// GenerateDetailedRecommendations asks the model for improvement strategies
// over the compiled clause results, with optional organization context.
func (r *Runner) GenerateDetailedRecommendations(ctx context.Context, results []verdict.ClauseResult, organizationContext string) (DetailedRecommendations, error) {
	formatted, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return DetailedRecommendations{}, fmt.Errorf("encode assessment results: %w", err)
	}
	prompt := "Assessment results:\n" + string(formatted)
	if strings.TrimSpace(organizationContext) != "" {
		prompt = fmt.Sprintf("Organization context:\n%s\n\n%s", organizationContext, prompt)
	}
	raw, err := r.run(ctx, "recommend", recommendationsSystemPrompt, prompt)
	if err != nil {
		return DetailedRecommendations{}, err
	}
	var recs DetailedRecommendations
	if err := evaluator.DecodeModelJSON(raw, "detailed recommendations", &recs); err != nil {
		return DetailedRecommendations{}, err
	}
	return recs, nil
}

// run executes a one-node message graph: the node forwards the accumulated
// messages to the provider and appends its reply.
func (r *Runner) run(ctx context.Context, node, systemPrompt, userPrompt string) (string, error) {
	logger := common.Logger()
	if r.provider == nil {
		return "", fmt.Errorf("no assistant provider available")
	}

	g := graph.NewMessageGraph()
	g.AddNode(node, func(ctx context.Context, state []llms.MessageContent) ([]llms.MessageContent, error) {
		messages := make([]llm.Message, 0, len(state))
		for _, mc := range state {
			messages = append(messages, llm.Message{Role: roleOf(mc.Role), Content: textOf(mc)})
		}
		reply, err := r.provider.Chat(ctx, messages)
		if err != nil {
			return nil, err
		}
		return append(state, llms.TextParts(llms.ChatMessageTypeAI, reply)), nil
	})
	g.AddEdge(node, graph.END)
	g.SetEntryPoint(node)

	runnable, err := g.Compile()
	if err != nil {
		return "", fmt.Errorf("compile assistant graph: %w", err)
	}
	state, err := runnable.Invoke(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	})
	if err != nil {
		logger.Error("assistant: graph invocation failed", "node", node, "error", err)
		return "", err
	}
	if len(state) == 0 {
		return "", fmt.Errorf("assistant graph returned no messages")
	}
	logger.Debug("assistant: graph invocation complete", "node", node, "messages", len(state))
	return textOf(state[len(state)-1]), nil
}

func roleOf(t llms.ChatMessageType) string {
	switch t {
	case llms.ChatMessageTypeSystem:
		return "system"
	case llms.ChatMessageTypeAI:
		return "assistant"
	default:
		return "user"
	}
}

func textOf(mc llms.MessageContent) string {
	var b strings.Builder
	for _, part := range mc.Parts {
		if text, ok := part.(llms.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}
