package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genkit-ai/genkit-go/pkg/conversation"
)

func TestWithMessagesCopiesRequestAndKeepsConfig(t *testing.T) {
	t.Parallel()

	orig := &GenerateRequest{
		Model:    "echo",
		Messages: []*conversation.Message{conversation.NewUserTextMessage("hi")},
		Tools:    []string{"weather"},
		Config:   map[string]interface{}{"temperature": 0.2},
		Output:   &OutputConfig{Format: "text"},
		MaxTurns: 3,
	}

	next := orig.WithMessages(append(orig.Messages, conversation.NewModelTextMessage("hello")))

	require.NotSame(t, orig, next)
	assert.Len(t, orig.Messages, 1)
	assert.Len(t, next.Messages, 2)

	// Everything but Messages is carried forward unchanged.
	assert.Equal(t, orig.Model, next.Model)
	assert.Equal(t, orig.Tools, next.Tools)
	assert.Equal(t, orig.Config, next.Config)
	assert.Same(t, orig.Output, next.Output)
	assert.Equal(t, orig.MaxTurns, next.MaxTurns)
}

func TestModelResponseHelpers(t *testing.T) {
	t.Parallel()

	msg := conversation.NewMessage(conversation.RoleModel,
		conversation.NewTextPart("result: "),
		conversation.NewToolRequestPart(&conversation.ToolRequest{Ref: "r1", Name: "calc"}),
	)
	resp := NewModelResponse(msg, FinishReasonStop, &Usage{InputTokens: 3, OutputTokens: 5})

	assert.Equal(t, "result: ", resp.Text())
	require.Len(t, resp.ToolRequestParts(), 1)
	assert.Equal(t, "calc", resp.ToolRequestParts()[0].ToolRequest.Name)

	var empty *ModelResponse
	assert.Nil(t, empty.Message())
	assert.Empty(t, empty.Text())
}

func TestChunkText(t *testing.T) {
	t.Parallel()

	chunk := NewTextChunk("partial")
	assert.Equal(t, "partial", chunk.Text())
}
