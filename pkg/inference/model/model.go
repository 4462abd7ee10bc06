package model

import (
	"context"
)

// Model represents a generative model capability resolved through the
// registry. Implementations handle provider-specific request shaping; the
// orchestrator only depends on this contract.
type Model interface {
	// Name returns the logical model name used for registry resolution.
	Name() string

	// Capabilities describes what the model supports. The orchestrator
	// consults Streaming to decide between Invoke and InvokeStreaming.
	Capabilities() Capabilities

	// Invoke runs one blocking model invocation and returns the aggregated
	// response. Any failure is fatal for the surrounding generate call.
	Invoke(ctx context.Context, req *GenerateRequest) (*ModelResponse, error)

	// InvokeStreaming emits zero or more chunks to cb as they become
	// available, then returns the same aggregated response an equivalent
	// Invoke call would have produced. Implementations that cannot build the
	// aggregate themselves may return a nil response and let the caller's
	// relay finalize one from the observed chunks.
	InvokeStreaming(ctx context.Context, req *GenerateRequest, cb StreamCallback) (*ModelResponse, error)
}

// Capabilities declares the feature surface of a model.
type Capabilities struct {
	Streaming bool `json:"streaming"`
	Tools     bool `json:"tools"`
	Media     bool `json:"media"`
}

// StreamCallback receives incremental chunks during a streaming invocation.
// Returning an error aborts the invocation.
type StreamCallback func(ctx context.Context, chunk *ModelResponseChunk) error
