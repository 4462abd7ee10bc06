package generate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genkit-ai/genkit-go/pkg/conversation"
	"github.com/genkit-ai/genkit-go/pkg/inference/model"
	"github.com/genkit-ai/genkit-go/pkg/registry"
)

func TestGenerateJSONRoundTrip(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{name: "fake", script: []*model.ModelResponse{textResponse("hello from json")}}
	env := newTestEnv(t, m)

	raw := json.RawMessage(`{"model": "fake", "messages": [{"role": "user", "content": [{"text": "hi"}]}]}`)
	out, err := env.orchestrator.GenerateJSON(context.Background(), raw)
	require.NoError(t, err)

	var resp model.ModelResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "hello from json", resp.Text())
}

func TestGenerateJSONRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &scriptedModel{name: "fake", script: []*model.ModelResponse{textResponse("ok")}})

	_, err := env.orchestrator.GenerateJSON(context.Background(), json.RawMessage(`{"model": 42`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse generate request")
}

func TestGenerateJSONPassesClassifiedErrorsThrough(t *testing.T) {
	t.Parallel()

	m := &scriptedModel{name: "fake", script: []*model.ModelResponse{
		toolRequestResponse(&conversation.ToolRequest{Ref: "r1", Name: "echo", Input: map[string]interface{}{"text": "hi"}}),
	}}
	env := newTestEnv(t, m)

	raw := json.RawMessage(`{"model": "fake", "tools": ["echo"], "maxTurns": 1, "messages": [{"role": "user", "content": [{"text": "hi"}]}]}`)
	_, err := env.orchestrator.GenerateJSON(context.Background(), raw)
	require.Error(t, err)

	var limitErr *LimitExceededError
	assert.True(t, errors.As(err, &limitErr))
}

func TestGenerateJSONPassesResolutionErrorsThrough(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &scriptedModel{name: "fake", script: []*model.ModelResponse{textResponse("ok")}})

	raw := json.RawMessage(`{"model": "missing", "messages": [{"role": "user", "content": [{"text": "hi"}]}]}`)
	_, err := env.orchestrator.GenerateJSON(context.Background(), raw)
	require.Error(t, err)

	var notFound *registry.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.Name)
	assert.NotContains(t, err.Error(), "generation failed")
}
