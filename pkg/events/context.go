package events

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ctxKey guards this package's context values against collisions with keys
// from other packages.
type ctxKey int

const (
	ctxKeyEventSinks ctxKey = iota
	ctxKeyEventMetadata
)

// WithEventSinks returns a context carrying the given sinks in addition to
// any already attached. Event publishing is opted into per call: the
// orchestrator and executor publish through whatever sinks the call context
// carries.
func WithEventSinks(ctx context.Context, sinks ...EventSink) context.Context {
	if len(sinks) == 0 {
		return ctx
	}
	existing := GetEventSinks(ctx)
	combined := append([]EventSink{}, existing...)
	combined = append(combined, sinks...)
	return context.WithValue(ctx, ctxKeyEventSinks, combined)
}

// GetEventSinks returns the sinks attached to the context, or nil.
func GetEventSinks(ctx context.Context) []EventSink {
	if v := ctx.Value(ctxKeyEventSinks); v != nil {
		if sinks, ok := v.([]EventSink); ok {
			return sinks
		}
	}
	return nil
}

// WithEventMetadata stamps the context with the metadata identifying the
// current invocation. The tool executor reads it back so execution events
// correlate with the run and turn that requested them.
func WithEventMetadata(ctx context.Context, meta EventMetadata) context.Context {
	return context.WithValue(ctx, ctxKeyEventMetadata, meta)
}

// EventMetadataFromContext returns the invocation metadata attached to the
// context, or a zero value when none is set.
func EventMetadataFromContext(ctx context.Context) EventMetadata {
	if meta, ok := ctx.Value(ctxKeyEventMetadata).(EventMetadata); ok {
		return meta
	}
	return EventMetadata{}
}

// PublishEventToContext fans the event out to every sink on the context.
// Delivery is best-effort: sink errors are swallowed so publishing can never
// disturb a generate call.
func PublishEventToContext(ctx context.Context, event Event) {
	sinks := GetEventSinks(ctx)
	if len(sinks) == 0 {
		return
	}
	log.Trace().Str("event_type", string(event.Type())).Int("sink_count", len(sinks)).Msg("events: publishing to sinks")
	for _, sink := range sinks {
		_ = sink.PublishEvent(event)
	}
}
