// Package agents implements the seven CommonGround pipeline roles plus the
// bill matcher. Each agent composes a prompt from typed inputs, delegates
// to the shared Invoker, and parses structured output where expected.
package agents

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/commonground-hq/commonground/pkg/anthropic"
)

// CallOptions override the per-call sampling parameters. Zero values fall
// back to the invoker defaults.
type CallOptions struct {
	MaxTokens   int64
	Temperature float64
}

const (
	defaultMaxTokens   int64   = 4096
	defaultTemperature float64 = 0.7
)

// Invoker wraps a single generation-backend call with a role-specific
// system instruction and sampling parameters. Backend errors propagate to
// the calling agent; retry policy, if any, belongs to the orchestrator.
type Invoker struct {
	client anthropic.Client
	model  string
}

// NewInvoker creates an Invoker bound to one backend client and model.
func NewInvoker(client anthropic.Client, model string) *Invoker {
	return &Invoker{client: client, model: model}
}

// Call sends one system instruction + user message pair to the backend and
// returns the first text segment of the response, or "" when the backend
// produced no text.
func (inv *Invoker) Call(ctx context.Context, agent, system, user string, opts CallOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	temp := opts.Temperature
	if temp == 0 {
		temp = defaultTemperature
	}

	resp, err := inv.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       inv.model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrapf(err, "agents: %s call", agent)
	}

	resp.Usage.LogCost(inv.model, agent)
	return resp.FirstText(), nil
}
