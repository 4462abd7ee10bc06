package generate

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/genkit-ai/genkit-go/pkg/conversation"
	"github.com/genkit-ai/genkit-go/pkg/events"
	"github.com/genkit-ai/genkit-go/pkg/inference/model"
	"github.com/genkit-ai/genkit-go/pkg/inference/tools"
	"github.com/genkit-ai/genkit-go/pkg/registry"
	"github.com/genkit-ai/genkit-go/pkg/tracing"
)

// Orchestrator drives the bounded multi-turn generate loop: resolve the
// model, invoke it under a tracer span, execute requested tools with failure
// containment, fold results back into the conversation and repeat until the
// model produces a final answer or the turn budget is exhausted.
//
// One invocation is sequential and blocking from the caller's point of view.
// Concurrent invocations share no state beyond the read-only registry, so
// they may run in parallel when the underlying models and tools are
// reentrant.
type Orchestrator struct {
	registry *registry.Registry
	tracer   tracing.Tracer
	executor tools.Executor
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRegistry sets the capability registry used to resolve models and tools.
func WithRegistry(reg *registry.Registry) Option {
	return func(o *Orchestrator) { o.registry = reg }
}

// WithTracer sets the tracer wrapping each model invocation.
func WithTracer(tracer tracing.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = tracer }
}

// WithExecutor overrides the tool executor.
func WithExecutor(executor tools.Executor) Option {
	return func(o *Orchestrator) { o.executor = executor }
}

// New creates an orchestrator. Dependencies are constructor-injected; there
// is no global registry or tracer.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tracer: tracing.NopTracer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.executor == nil && o.registry != nil {
		o.executor = tools.NewDefaultExecutor(o.registry)
	}
	return o
}

// Generate runs the turn loop for req. cb is optional; when present and the
// resolved model supports streaming, chunks are relayed to it incrementally.
// The returned response is either the model's final answer or, for the
// returnToolRequests and no-tools-registered short-circuits, the model's
// tool-requesting response unexecuted.
func (o *Orchestrator) Generate(ctx context.Context, req *model.GenerateRequest, cb model.StreamCallback) (*model.ModelResponse, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if req.Model == "" {
		return nil, ErrEmptyModelName
	}
	if o.registry == nil {
		return nil, errors.New("orchestrator has no registry")
	}

	m, err := o.registry.LookupModel(req.Model)
	if err != nil {
		return nil, err
	}

	maxTurns := req.MaxTurns
	if maxTurns <= 0 {
		maxTurns = model.DefaultMaxTurns
	}

	current := req
	if len(req.Tools) > 0 && len(req.ToolDefinitions) == 0 {
		next := *req
		next.ToolDefinitions = o.registry.ToolDefinitions(req.Tools)
		current = &next
	}

	meta := events.EventMetadata{
		ID:       uuid.New(),
		Model:    req.Model,
		StepName: req.StepName,
	}

	log.Debug().
		Str("model", req.Model).
		Int("max_turns", maxTurns).
		Int("initial_messages", len(req.Messages)).
		Int("tool_count", len(current.Tools)).
		Msg("generate: starting turn loop")

	for turn := 0; ; turn++ {
		meta.TurnIndex = turn

		resp, err := o.invokeModel(ctx, m, current, cb, turn, meta)
		if err != nil {
			events.PublishEventToContext(ctx, events.NewErrorEvent(meta, err))
			return nil, errors.Wrapf(err, "model %s invocation failed", current.Model)
		}

		toolRequestParts := resp.ToolRequestParts()
		if len(toolRequestParts) == 0 {
			return resp, nil
		}
		if current.ReturnToolRequests {
			log.Debug().Int("turn", turn).Int("tool_requests", len(toolRequestParts)).
				Msg("generate: returning tool requests to caller unexecuted")
			return resp, nil
		}
		if len(current.Tools) == 0 {
			// The model asked for tools but none were registered for this
			// call. Hand the response back and let the caller decide.
			log.Debug().Int("turn", turn).Int("tool_requests", len(toolRequestParts)).
				Msg("generate: tool requests present but no tools registered for this call")
			return resp, nil
		}

		if turn+1 >= maxTurns {
			log.Warn().Int("max_turns", maxTurns).Msg("generate: maximum turns reached with pending tool calls")
			return nil, &LimitExceededError{MaxTurns: maxTurns}
		}

		requests := make([]*conversation.ToolRequest, 0, len(toolRequestParts))
		for _, part := range toolRequestParts {
			requests = append(requests, part.ToolRequest)
		}

		responses := o.executor.ExecuteToolRequests(events.WithEventMetadata(ctx, meta), requests, current.Tools)

		responseParts := make([]*conversation.Part, 0, len(responses))
		for _, tr := range responses {
			responseParts = append(responseParts, conversation.NewToolResponsePart(tr))
		}

		msgs := conversation.Conversation(current.Messages).
			Append(resp.Message(), conversation.NewToolMessage(responseParts...))
		current = current.WithMessages(msgs)
	}
}

// invokeModel runs a single model invocation under a tracer span scoped to
// the model name and turn index, choosing the streaming form only when both
// a caller callback exists and the model declares streaming support.
func (o *Orchestrator) invokeModel(ctx context.Context, m model.Model, req *model.GenerateRequest, cb model.StreamCallback, turn int, meta events.EventMetadata) (*model.ModelResponse, error) {
	events.PublishEventToContext(ctx, events.NewStartEvent(meta))

	spanMeta := tracing.SpanMetadata{
		Name:    req.Model,
		Type:    "action",
		Subtype: "model",
		Index:   turn,
	}

	out, err := o.tracer.RunInSpan(ctx, spanMeta, req, func(ctx context.Context, input interface{}) (interface{}, error) {
		r, ok := input.(*model.GenerateRequest)
		if !ok {
			return nil, errors.New("tracer did not hand the request through unmodified")
		}

		if cb != nil && m.Capabilities().Streaming {
			relay := NewRelay(cb, meta)
			resp, err := m.InvokeStreaming(ctx, r, relay.HandleChunk)
			if err != nil {
				return nil, err
			}
			if resp == nil {
				// Chunk-only streaming model; finalize the aggregate from
				// the relay so CLASSIFY sees the same shape either way.
				resp = relay.Response(model.FinishReasonStop, nil)
			}
			return resp, nil
		}
		return m.Invoke(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	resp, ok := out.(*model.ModelResponse)
	if !ok || resp == nil {
		return nil, errors.Errorf("model %s returned no response", req.Model)
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.Errorf("model %s returned no candidates", req.Model)
	}

	events.PublishEventToContext(ctx, events.NewFinalEvent(meta, resp.Text()))
	return resp, nil
}
