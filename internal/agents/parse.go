package agents

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// extractJSON isolates the JSON object embedded in free-form generated
// text: markdown fences are stripped, then the span from the first "{" to
// the last "}" is taken. Returns "" when no brace-delimited span exists.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

// decodeAgentJSON parses the JSON object embedded in raw agent output into
// out. A missing or malformed payload degrades to the caller's default
// value and is logged; it never aborts the pipeline. Returns false when
// the fallback was taken so callers can substitute role defaults.
func decodeAgentJSON(agent, raw string, out any) bool {
	payload := extractJSON(raw)
	if payload == "" {
		zap.L().Warn("agents: no JSON object in response",
			zap.String("agent", agent),
			zap.Int("response_len", len(raw)),
		)
		return false
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		zap.L().Warn("agents: failed to parse response JSON",
			zap.String("agent", agent),
			zap.Error(err),
		)
		return false
	}
	return true
}
