package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/sync/errgroup"

	"github.com/genkit-ai/genkit-go/pkg/conversation"
	"github.com/genkit-ai/genkit-go/pkg/events"
)

// Resolver resolves a normalized or plain tool name to an executable Tool.
// The registry implements this; tests can substitute fakes.
type Resolver interface {
	LookupTool(name string) (*Tool, error)
}

// Executor runs the tool requests of one turn with failure containment.
// Position i of the returned responses corresponds to position i of the
// requests and echoes its Ref; resolution and execution failures are folded
// into error-shaped outputs, never raised.
type Executor interface {
	ExecuteToolRequests(ctx context.Context, requests []*conversation.ToolRequest, allowed []string) []*conversation.ToolResponse
}

// DefaultExecutor is the default Executor implementation backed by a
// Resolver and an optional caller-supplied allow-list.
type DefaultExecutor struct {
	resolver      Resolver
	validateInput bool
	maxParallel   int
}

// ExecutorOption configures a DefaultExecutor.
type ExecutorOption func(*DefaultExecutor)

// WithInputValidation validates generic map inputs against the tool's input
// schema before execution. Validation failures are contained execution
// errors.
func WithInputValidation() ExecutorOption {
	return func(e *DefaultExecutor) { e.validateInput = true }
}

// WithMaxParallel allows up to n tool requests of one turn to execute
// concurrently. Responses stay index-correlated with their requests. The
// default is sequential execution, which preserves ordering trivially.
func WithMaxParallel(n int) ExecutorOption {
	return func(e *DefaultExecutor) { e.maxParallel = n }
}

// NewDefaultExecutor creates an executor resolving tools through resolver.
func NewDefaultExecutor(resolver Resolver, opts ...ExecutorOption) *DefaultExecutor {
	e := &DefaultExecutor{resolver: resolver, maxParallel: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteToolRequests executes the given requests in order. It never returns
// an error; all failures are contained in the response outputs.
func (e *DefaultExecutor) ExecuteToolRequests(ctx context.Context, requests []*conversation.ToolRequest, allowed []string) []*conversation.ToolResponse {
	if len(requests) == 0 {
		return nil
	}

	log.Debug().Int("tool_request_count", len(requests)).Msg("executor: starting tool execution")

	responses := make([]*conversation.ToolResponse, len(requests))
	if e.maxParallel > 1 && len(requests) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.maxParallel)
		for i, req := range requests {
			i, req := i, req
			g.Go(func() error {
				responses[i] = e.executeOne(gctx, req, allowed)
				return nil
			})
		}
		_ = g.Wait()
		return responses
	}

	for i, req := range requests {
		responses[i] = e.executeOne(ctx, req, allowed)
	}
	return responses
}

func (e *DefaultExecutor) executeOne(ctx context.Context, req *conversation.ToolRequest, allowed []string) *conversation.ToolResponse {
	meta := events.EventMetadataFromContext(ctx)
	events.PublishEventToContext(ctx, events.NewToolCallExecuteEvent(
		meta,
		events.ToolCall{Ref: req.Ref, Name: req.Name, Input: compactJSON(req.Input)},
	))

	output := e.run(ctx, req, allowed)

	events.PublishEventToContext(ctx, events.NewToolCallExecutionResultEvent(
		meta,
		events.ToolResult{Ref: req.Ref, Result: compactJSON(output)},
	))

	return &conversation.ToolResponse{Ref: req.Ref, Name: req.Name, Output: output}
}

func (e *DefaultExecutor) run(ctx context.Context, req *conversation.ToolRequest, allowed []string) interface{} {
	tool, err := e.resolve(req.Name, allowed)
	if err != nil {
		log.Debug().Str("tool", req.Name).Msg("executor: tool not found")
		return errorOutput(fmt.Sprintf("Tool not found: %s", req.Name))
	}

	if e.validateInput {
		if err := validateInput(tool, req.Input); err != nil {
			return errorOutput(fmt.Sprintf("Tool execution failed: %s", err.Error()))
		}
	}

	result, err := safeExecute(ctx, tool, req.Input)
	if err != nil {
		log.Debug().Err(err).Str("tool", req.Name).Msg("executor: tool execution failed")
		return errorOutput(fmt.Sprintf("Tool execution failed: %s", err.Error()))
	}
	return result
}

// resolve looks the tool up under its normalized key first, then retries
// against the caller-supplied allow-list by exact or normalized-key match.
func (e *DefaultExecutor) resolve(name string, allowed []string) (*Tool, error) {
	tool, err := e.resolver.LookupTool(name)
	if err == nil {
		return tool, nil
	}

	for _, candidate := range allowed {
		if candidate != name && CanonicalName(candidate) != CanonicalName(name) {
			continue
		}
		if tool, retryErr := e.resolver.LookupTool(candidate); retryErr == nil {
			return tool, nil
		}
	}
	return nil, err
}

// safeExecute invokes the tool and converts panics into ordinary errors so a
// misbehaving tool can never abort the generate call.
func safeExecute(ctx context.Context, tool *Tool, input interface{}) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%v", r)
		}
	}()
	return tool.Execute(ctx, input)
}

func validateInput(tool *Tool, input interface{}) error {
	if tool.InputSchema == nil {
		return nil
	}
	schemaBytes, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return err
	}
	inputBytes, err := json.Marshal(input)
	if err != nil {
		return err
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(inputBytes))
	if err != nil {
		return err
	}
	if !res.Valid() {
		msgs := ""
		for _, desc := range res.Errors() {
			if msgs != "" {
				msgs += "; "
			}
			msgs += desc.String()
		}
		return fmt.Errorf("invalid input: %s", msgs)
	}
	return nil
}

func errorOutput(msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg}
}

func compactJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
