package generate

import (
	"context"
	"strings"
	"sync"

	"github.com/genkit-ai/genkit-go/pkg/conversation"
	"github.com/genkit-ai/genkit-go/pkg/events"
	"github.com/genkit-ai/genkit-go/pkg/inference/model"
)

// Relay multiplexes a single streaming model invocation into both the
// caller's incremental callback and an internal full-response accumulator.
// It forwards every chunk downstream as it is produced, publishes partial
// events to context sinks, and can finalize an aggregated ModelResponse so
// the turn loop is indifferent to which path produced the response.
type Relay struct {
	downstream model.StreamCallback
	meta       events.EventMetadata

	mu         sync.Mutex
	completion strings.Builder
	chunkCount int
}

// NewRelay creates a relay forwarding chunks to downstream. A nil downstream
// still accumulates, which lets chunk-only models produce a final response.
func NewRelay(downstream model.StreamCallback, meta events.EventMetadata) *Relay {
	return &Relay{downstream: downstream, meta: meta}
}

// HandleChunk is the callback handed to the model's streaming invocation.
func (r *Relay) HandleChunk(ctx context.Context, chunk *model.ModelResponseChunk) error {
	if chunk == nil {
		return nil
	}

	delta := chunk.Text()
	r.mu.Lock()
	r.completion.WriteString(delta)
	completion := r.completion.String()
	r.chunkCount++
	r.mu.Unlock()

	events.PublishEventToContext(ctx, events.NewPartialCompletionEvent(r.meta, delta, completion))

	if r.downstream == nil {
		return nil
	}
	return r.downstream(ctx, chunk)
}

// Text returns the accumulated text of all chunks seen so far.
func (r *Relay) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completion.String()
}

// ChunkCount returns how many chunks the relay has observed.
func (r *Relay) ChunkCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chunkCount
}

// Response finalizes the aggregated ModelResponse the non-streaming path
// would have yielded for the observed chunks.
func (r *Relay) Response(reason model.FinishReason, usage *model.Usage) *model.ModelResponse {
	return model.NewModelResponse(conversation.NewModelTextMessage(r.Text()), reason, usage)
}
