package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRedSteelman_PromptContainsPositions(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{reply: "The conservative case rests on..."}
	inv := NewInvoker(backend, "test-model")

	got, err := RunRedSteelman(context.Background(), inv, "Drug Pricing",
		[]string{"Let markets set drug prices through competition."},
		[]string{"Allow Medicare to negotiate drug prices."},
	)

	require.NoError(t, err)
	assert.Equal(t, "The conservative case rests on...", got)

	user := backend.lastReq.Messages[0].Content
	assert.Contains(t, user, "TOPIC: Drug Pricing")
	assert.Contains(t, user, "[1] Let markets set drug prices through competition.")
	assert.Contains(t, user, "[1] Allow Medicare to negotiate drug prices.")
	assert.Contains(t, backend.lastReq.System, "Red Agent")
}

// When one side produced zero substantive speeches, the prompt must carry
// the literal placeholder sentence, never an empty list.
func TestRunRedSteelman_PlaceholderForEmptyOwnSide(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{reply: "position"}
	inv := NewInvoker(backend, "test-model")

	_, err := RunRedSteelman(context.Background(), inv, "Drug Pricing",
		nil,
		[]string{"Allow Medicare to negotiate drug prices."},
	)

	require.NoError(t, err)
	assert.Contains(t, backend.lastReq.Messages[0].Content, NoRepublicanSpeeches)
}

func TestRunBlueSteelman_PlaceholderForEmptyOwnSide(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{reply: "position"}
	inv := NewInvoker(backend, "test-model")

	_, err := RunBlueSteelman(context.Background(), inv, "Drug Pricing",
		nil,
		[]string{"Let markets set drug prices."},
	)

	require.NoError(t, err)
	assert.Contains(t, backend.lastReq.Messages[0].Content, NoDemocraticSpeeches)
}

func TestRunBlueSteelman_PlaceholderForEmptyOpposingSide(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{reply: "position"}
	inv := NewInvoker(backend, "test-model")

	_, err := RunBlueSteelman(context.Background(), inv, "Drug Pricing",
		[]string{"Allow Medicare to negotiate drug prices."},
		nil,
	)

	require.NoError(t, err)
	assert.Contains(t, backend.lastReq.Messages[0].Content, NoRepublicanSpeeches)
}

func TestSteelman_SamplingParameters(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{reply: "position"}
	inv := NewInvoker(backend, "test-model")

	_, err := RunRedSteelman(context.Background(), inv, "Topic", []string{"x"}, []string{"y"})
	require.NoError(t, err)

	assert.Equal(t, int64(2048), backend.lastReq.MaxTokens)
	require.NotNil(t, backend.lastReq.Temperature)
	assert.Equal(t, 0.6, *backend.lastReq.Temperature)
}
