package generate

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genkit-ai/genkit-go/pkg/events"
	"github.com/genkit-ai/genkit-go/pkg/inference/model"
)

type capturingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *capturingSink) PublishEvent(e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func TestRelayForwardsChunksInOrder(t *testing.T) {
	t.Parallel()

	var received []string
	relay := NewRelay(func(ctx context.Context, chunk *model.ModelResponseChunk) error {
		received = append(received, chunk.Text())
		return nil
	}, events.EventMetadata{})

	ctx := context.Background()
	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, relay.HandleChunk(ctx, model.NewTextChunk(text)))
	}

	assert.Equal(t, []string{"a", "b", "c"}, received)
	assert.Equal(t, "abc", relay.Text())
	assert.Equal(t, 3, relay.ChunkCount())
}

func TestRelayResponseMatchesNonStreamingShape(t *testing.T) {
	t.Parallel()

	relay := NewRelay(nil, events.EventMetadata{})
	ctx := context.Background()
	require.NoError(t, relay.HandleChunk(ctx, model.NewTextChunk("Hello, ")))
	require.NoError(t, relay.HandleChunk(ctx, model.NewTextChunk("world")))

	resp := relay.Response(model.FinishReasonStop, &model.Usage{OutputTokens: 2})
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "Hello, world", resp.Text())
	assert.Equal(t, model.FinishReasonStop, resp.Candidates[0].FinishReason)
	assert.Equal(t, 2, resp.Usage.OutputTokens)
}

func TestRelayPublishesPartialEvents(t *testing.T) {
	t.Parallel()

	sink := &capturingSink{}
	ctx := events.WithEventSinks(context.Background(), sink)

	relay := NewRelay(nil, events.EventMetadata{Model: "fake"})
	require.NoError(t, relay.HandleChunk(ctx, model.NewTextChunk("par")))
	require.NoError(t, relay.HandleChunk(ctx, model.NewTextChunk("tial")))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, 2)
	second, ok := sink.events[1].(*events.EventPartialCompletion)
	require.True(t, ok)
	assert.Equal(t, "tial", second.Delta)
	assert.Equal(t, "partial", second.Completion)
}

func TestRelayIgnoresNilChunks(t *testing.T) {
	t.Parallel()

	relay := NewRelay(nil, events.EventMetadata{})
	require.NoError(t, relay.HandleChunk(context.Background(), nil))
	assert.Equal(t, 0, relay.ChunkCount())
}
