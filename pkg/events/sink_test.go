package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillSinkPublishesJSONPayload(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer func() { _ = pubSub.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "inference")
	require.NoError(t, err)

	sink := NewWatermillSink(pubSub, "inference")
	meta := EventMetadata{ID: uuid.New(), Model: "fake", TurnIndex: 2}
	require.NoError(t, sink.PublishEvent(NewPartialCompletionEvent(meta, "del", "delta")))

	select {
	case msg := <-messages:
		var decoded EventPartialCompletion
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EventTypePartialCompletion, decoded.Type_)
		assert.Equal(t, "del", decoded.Delta)
		assert.Equal(t, "delta", decoded.Completion)
		assert.Equal(t, "fake", decoded.Metadata_.Model)

		// Correlation fields are mirrored into the message metadata so
		// subscribers can filter without decoding the payload.
		assert.Equal(t, string(EventTypePartialCompletion), msg.Metadata.Get(MetadataEventType))
		assert.Equal(t, meta.ID.String(), msg.Metadata.Get(MetadataRunID))
		assert.Equal(t, "fake", msg.Metadata.Get(MetadataModel))
		assert.Equal(t, "2", msg.Metadata.Get(MetadataTurnIndex))
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("timed out waiting for published event")
	}
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) PublishEvent(e Event) error {
	s.events = append(s.events, e)
	return nil
}

func TestContextSinksAccumulate(t *testing.T) {
	t.Parallel()

	first := &recordingSink{}
	second := &recordingSink{}

	ctx := WithEventSinks(context.Background(), first)
	ctx = WithEventSinks(ctx, second)

	PublishEventToContext(ctx, NewStartEvent(EventMetadata{ID: uuid.New()}))

	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
}

func TestPublishWithoutSinksIsNoOp(t *testing.T) {
	t.Parallel()

	// Must not panic or block.
	PublishEventToContext(context.Background(), NewStartEvent(EventMetadata{ID: uuid.New()}))
	assert.Empty(t, GetEventSinks(context.Background()))
}
