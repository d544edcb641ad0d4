// File path: internal/llm/llm.go
package llm

import (
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/levnertech/gapcheck/internal/common"
	"github.com/levnertech/gapcheck/internal/llm/providers"
)

const defaultEndpoint = "https://api.deepseek.com"

type Message = providers.Message

type Provider = providers.Provider

// NewProvider builds the chat provider from the environment. DEEPSEEK_API_KEY
// (or OPENAI_API_KEY) selects the OpenAI-compatible client; without a key the
// deterministic local stub is used so the service still boots.
func NewProvider() Provider {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if apiKey == "" {
		logger.Warn("llm: no evaluator API key set; falling back to local provider")
		return providers.NewLocalProvider()
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	endpoint := strings.TrimSpace(os.Getenv("EVALUATOR_ENDPOINT"))
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	opts = append(opts, option.WithBaseURL(endpoint))
	if timeoutStr := strings.TrimSpace(os.Getenv("EVALUATOR_HTTP_TIMEOUT")); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			logger.Warn("llm: invalid EVALUATOR_HTTP_TIMEOUT, using default", "value", timeoutStr, "error", err)
		} else {
			logger.Info("llm: configuring client with custom HTTP timeout", "timeout", timeout)
			opts = append(opts, option.WithRequestTimeout(timeout))
		}
	}
	client := openai.NewClient(opts...)
	logger.Info("llm: OpenAI-compatible provider selected", "endpoint", endpoint)
	return providers.NewOpenAIProvider(client)
}
