package agents

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/commonground-hq/commonground/pkg/anthropic"
)

// mockBackend is a testify mock of the generation backend.
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// textResponse builds a single-text-block backend response.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// captureBackend records the last request and replies with a fixed text.
type captureBackend struct {
	lastReq anthropic.MessageRequest
	reply   string
	err     error
}

func (c *captureBackend) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return textResponse(c.reply), nil
}
