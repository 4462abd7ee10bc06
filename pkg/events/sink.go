package events

import (
	"encoding/json"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// MetadataEventType and friends are the watermill message metadata keys the
// WatermillSink mirrors correlation fields into.
const (
	MetadataEventType = "event_type"
	MetadataRunID     = "run_id"
	MetadataModel     = "model"
	MetadataTurnIndex = "turn_index"
)

// EventSink is a destination for the events emitted during a generate call:
// invocation start/final, streaming deltas, tool executions and errors.
type EventSink interface {
	PublishEvent(event Event) error
}

// NullSink discards every event.
type NullSink struct{}

func (NullSink) PublishEvent(Event) error { return nil }

var _ EventSink = NullSink{}

// WatermillSink forwards events to a watermill topic as JSON messages. The
// run id, model, turn index and event type are mirrored into the message
// metadata so subscribers can route or filter without decoding the payload.
type WatermillSink struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillSink creates a sink publishing to topic on publisher.
func NewWatermillSink(publisher message.Publisher, topic string) *WatermillSink {
	return &WatermillSink{
		publisher: publisher,
		topic:     topic,
	}
}

// PublishEvent encodes the event and hands it to the publisher.
func (w *WatermillSink) PublishEvent(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s event", event.Type())
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	meta := event.Metadata()
	msg.Metadata.Set(MetadataEventType, string(event.Type()))
	msg.Metadata.Set(MetadataRunID, meta.ID.String())
	msg.Metadata.Set(MetadataTurnIndex, strconv.Itoa(meta.TurnIndex))
	if meta.Model != "" {
		msg.Metadata.Set(MetadataModel, meta.Model)
	}

	if err := w.publisher.Publish(w.topic, msg); err != nil {
		return errors.Wrapf(err, "failed to publish %s event to topic %s", event.Type(), w.topic)
	}

	log.Trace().Str("topic", w.topic).Str("event_type", string(event.Type())).Msg("events: published")
	return nil
}

var _ EventSink = (*WatermillSink)(nil)
