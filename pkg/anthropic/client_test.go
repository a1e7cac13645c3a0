package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstText(t *testing.T) {
	t.Parallel()

	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "thinking", Text: "internal"},
			{Type: "text", Text: "the answer"},
			{Type: "text", Text: "a second block"},
		},
	}
	assert.Equal(t, "the answer", resp.FirstText())
}

func TestFirstText_Empty(t *testing.T) {
	t.Parallel()

	resp := &MessageResponse{}
	assert.Equal(t, "", resp.FirstText())

	resp = &MessageResponse{Content: []ContentBlock{{Type: "tool_use"}}}
	assert.Equal(t, "", resp.FirstText())
}

func TestEstimateCost(t *testing.T) {
	t.Parallel()

	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 4.80, u.EstimateCost("claude-haiku-4-5-20251001"), 0.001)
	assert.Equal(t, 0.0, u.EstimateCost("unknown-model"))
}
