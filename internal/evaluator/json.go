// File path: internal/evaluator/json.go
package evaluator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeModelJSON parses a model response that is supposed to be a bare JSON
// object but may arrive wrapped in markdown code fences. A failed parse is
// an evaluator failure and carries the calling context for diagnosis.
func DecodeModelJSON(content, context string, v interface{}) error {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return fmt.Errorf("%s: empty evaluator response", context)
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("%s: malformed evaluator response: %w", context, err)
	}
	return nil
}

// truncate caps text at limit bytes, appending an ellipsis marker so the
// model sees that the input was cut.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
