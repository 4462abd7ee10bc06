package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/genkit-ai/genkit-go/pkg/conversation"
	"github.com/genkit-ai/genkit-go/pkg/inference/generate"
	"github.com/genkit-ai/genkit-go/pkg/inference/model"
	"github.com/genkit-ai/genkit-go/pkg/inference/tools"
	"github.com/genkit-ai/genkit-go/pkg/registry"
	"github.com/genkit-ai/genkit-go/pkg/tracing"
)

// weatherModel fakes a provider: on the first invocation it requests the
// weather tool, afterwards it summarizes the tool result.
type weatherModel struct{}

func (weatherModel) Name() string                     { return "weather-demo" }
func (weatherModel) Capabilities() model.Capabilities { return model.Capabilities{Tools: true} }

func (weatherModel) Invoke(ctx context.Context, req *model.GenerateRequest) (*model.ModelResponse, error) {
	last := req.Messages[len(req.Messages)-1]
	if last.Role == conversation.RoleTool {
		var report string
		for _, p := range last.Content {
			if p.IsToolResponse() {
				report = fmt.Sprintf("%v", p.ToolResponse.Output)
			}
		}
		msg := conversation.NewModelTextMessage(fmt.Sprintf("The forecast says: %s", report))
		return model.NewModelResponse(msg, model.FinishReasonStop, nil), nil
	}

	city := "Paris"
	if text := last.Text(); strings.Contains(text, "Berlin") {
		city = "Berlin"
	}
	msg := conversation.NewMessage(conversation.RoleModel,
		conversation.NewToolRequestPart(&conversation.ToolRequest{
			Ref:   "call-1",
			Name:  "getWeather",
			Input: map[string]interface{}{"city": city},
		}),
	)
	return model.NewModelResponse(msg, model.FinishReasonStop, nil), nil
}

func (m weatherModel) InvokeStreaming(ctx context.Context, req *model.GenerateRequest, cb model.StreamCallback) (*model.ModelResponse, error) {
	return m.Invoke(ctx, req)
}

type weatherInput struct {
	City string `json:"city"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	reg := registry.New()
	if err := reg.RegisterModel(weatherModel{}); err != nil {
		log.Fatal().Err(err).Msg("failed to register model")
	}

	getWeather, err := tools.NewToolFromFunc("getWeather", "Return the current weather for a city", func(in weatherInput) (map[string]interface{}, error) {
		return map[string]interface{}{"city": in.City, "forecast": "sunny, 23C"}, nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build tool")
	}
	if err := reg.RegisterTool(getWeather); err != nil {
		log.Fatal().Err(err).Msg("failed to register tool")
	}

	orchestrator := generate.New(
		generate.WithRegistry(reg),
		generate.WithTracer(tracing.LogTracer{}),
	)

	resp, err := orchestrator.Generate(context.Background(), &model.GenerateRequest{
		Model:    "weather-demo",
		Messages: []*conversation.Message{conversation.NewUserTextMessage("What's the weather in Berlin?")},
		Tools:    []string{"getWeather"},
		MaxTurns: 3,
	}, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("generate failed")
	}

	fmt.Println(resp.Text())
}
