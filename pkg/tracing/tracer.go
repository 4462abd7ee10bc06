package tracing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SpanMetadata describes one traced unit of work.
type SpanMetadata struct {
	// Name of the span, typically the resolved capability name.
	Name string
	// Type and Subtype tag the kind of work, e.g. "action"/"model".
	Type    string
	Subtype string
	// Index distinguishes repeated spans within one invocation, e.g. the
	// turn number of a generate loop.
	Index int
}

// SpanFunc is the body executed inside a span. It receives a derived context
// and the original input and its result is returned unmodified.
type SpanFunc func(ctx context.Context, input interface{}) (interface{}, error)

// Tracer executes a unit of work inside an observability span. The
// orchestrator treats spans as opaque: run the body, hand back its result.
type Tracer interface {
	RunInSpan(ctx context.Context, meta SpanMetadata, input interface{}, fn SpanFunc) (interface{}, error)
}

// NopTracer runs the body directly without recording anything.
type NopTracer struct{}

func (NopTracer) RunInSpan(ctx context.Context, _ SpanMetadata, input interface{}, fn SpanFunc) (interface{}, error) {
	return fn(ctx, input)
}

var _ Tracer = NopTracer{}

// LogTracer records span boundaries through zerolog. Each span gets a fresh
// id so nested spans can be correlated in the log stream.
type LogTracer struct{}

func (LogTracer) RunInSpan(ctx context.Context, meta SpanMetadata, input interface{}, fn SpanFunc) (interface{}, error) {
	spanID := uuid.New().String()
	start := time.Now()

	log.Debug().
		Str("span_id", spanID).
		Str("span_name", meta.Name).
		Str("span_type", meta.Type).
		Str("span_subtype", meta.Subtype).
		Int("span_index", meta.Index).
		Msg("tracing: span start")

	result, err := fn(ctx, input)

	ev := log.Debug().
		Str("span_id", spanID).
		Str("span_name", meta.Name).
		Dur("duration", time.Since(start))
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("tracing: span end")

	return result, err
}

var _ Tracer = LogTracer{}
