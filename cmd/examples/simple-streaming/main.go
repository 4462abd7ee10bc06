package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/genkit-ai/genkit-go/pkg/conversation"
	"github.com/genkit-ai/genkit-go/pkg/events"
	"github.com/genkit-ai/genkit-go/pkg/inference/generate"
	"github.com/genkit-ai/genkit-go/pkg/inference/model"
	"github.com/genkit-ai/genkit-go/pkg/registry"
)

// streamingModel emits its answer word by word and lets the caller's relay
// build the aggregated response.
type streamingModel struct{}

func (streamingModel) Name() string                     { return "streamer" }
func (streamingModel) Capabilities() model.Capabilities { return model.Capabilities{Streaming: true} }

func (m streamingModel) Invoke(ctx context.Context, req *model.GenerateRequest) (*model.ModelResponse, error) {
	return m.InvokeStreaming(ctx, req, nil)
}

func (streamingModel) InvokeStreaming(ctx context.Context, req *model.GenerateRequest, cb model.StreamCallback) (*model.ModelResponse, error) {
	answer := "Streaming responses arrive one fragment at a time."
	var full strings.Builder
	for _, word := range strings.SplitAfter(answer, " ") {
		full.WriteString(word)
		if cb != nil {
			if err := cb(ctx, model.NewTextChunk(word)); err != nil {
				return nil, err
			}
		}
	}
	msg := conversation.NewModelTextMessage(full.String())
	return model.NewModelResponse(msg, model.FinishReasonStop, nil), nil
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	reg := registry.New()
	if err := reg.RegisterModel(streamingModel{}); err != nil {
		log.Fatal().Err(err).Msg("failed to register model")
	}

	// Distribute inference events over a watermill bus; a real deployment
	// would subscribe UIs or audit consumers here.
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer func() { _ = pubSub.Close() }()

	ctx := context.Background()
	messages, err := pubSub.Subscribe(ctx, "inference")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe")
	}
	go func() {
		for msg := range messages {
			log.Info().RawJSON("event", msg.Payload).Msg("event bus")
			msg.Ack()
		}
	}()

	ctx = events.WithEventSinks(ctx, events.NewWatermillSink(pubSub, "inference"))

	orchestrator := generate.New(generate.WithRegistry(reg))

	resp, err := orchestrator.Generate(ctx, &model.GenerateRequest{
		Model:    "streamer",
		Messages: []*conversation.Message{conversation.NewUserTextMessage("How does streaming work?")},
	}, func(ctx context.Context, chunk *model.ModelResponseChunk) error {
		fmt.Print(chunk.Text())
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("generate failed")
	}

	fmt.Printf("\n\nfull response: %s\n", resp.Text())
}
