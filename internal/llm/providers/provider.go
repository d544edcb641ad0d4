// File path: internal/llm/providers/provider.go
package providers

import (
	"context"
	"fmt"
	"strings"
)

// Message is one turn of a chat exchange with the model.
type Message struct {
	Role    string
	Content string
}

// Provider is the narrow contract the assessment core holds against the
// external text-evaluation service. Chat is a blocking, fallible call with
// no retry or timeout policy of its own; both belong to the caller via ctx.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// LocalProvider is a deterministic stand-in used when no API key is
// configured. It keeps the service bootable without network access.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := messages[len(messages)-1].Content
	return "[local-stub] " + strings.TrimSpace(last), nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
