package model

import (
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/genkit-ai/genkit-go/pkg/conversation"
)

// DefaultMaxTurns bounds the generate loop when the request does not set
// MaxTurns.
const DefaultMaxTurns = 5

// ToolChoice hints how the model should pick tools. The generate loop does
// not enforce it; it is forwarded to the provider as-is.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// OutputConfig describes the output format/schema the caller wants the model
// to produce.
type OutputConfig struct {
	Format      string                 `json:"format,omitempty"`
	Schema      map[string]interface{} `json:"schema,omitempty"`
	ContentType string                 `json:"contentType,omitempty"`
}

// Document is a context document passed alongside the conversation.
type Document struct {
	Content  []*conversation.Part   `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToolDefinition is the schema surface advertised to the model. It is
// distinct from the executable tool capability held by the registry.
type ToolDefinition struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	InputSchema  *jsonschema.Schema `json:"inputSchema,omitempty"`
	OutputSchema *jsonschema.Schema `json:"outputSchema,omitempty"`
}

// GenerateRequest is the input to one generate invocation. It is treated as
// immutable per turn: each loop iteration derives a new value with only
// Messages replaced, so turns never alias each other.
type GenerateRequest struct {
	Model              string                  `json:"model"`
	Messages           []*conversation.Message `json:"messages,omitempty"`
	Tools              []string                `json:"tools,omitempty"`
	ToolChoice         ToolChoice              `json:"toolChoice,omitempty"`
	Config             map[string]interface{}  `json:"config,omitempty"`
	Output             *OutputConfig           `json:"output,omitempty"`
	Docs               []*Document             `json:"docs,omitempty"`
	ReturnToolRequests bool                    `json:"returnToolRequests,omitempty"`
	MaxTurns           int                     `json:"maxTurns,omitempty"`
	StepName           string                  `json:"stepName,omitempty"`
	ToolDefinitions    []*ToolDefinition       `json:"toolDefinitions,omitempty"`
}

// WithMessages returns a copy of the request with only Messages replaced.
// Config, Tools and Output are carried forward unchanged.
func (r *GenerateRequest) WithMessages(msgs []*conversation.Message) *GenerateRequest {
	next := *r
	next.Messages = msgs
	return &next
}

// FinishReason explains why a candidate stopped.
type FinishReason string

const (
	FinishReasonStop    FinishReason = "stop"
	FinishReasonLength  FinishReason = "length"
	FinishReasonBlocked FinishReason = "blocked"
	FinishReasonOther   FinishReason = "other"
	FinishReasonUnknown FinishReason = "unknown"
)

// Usage reports token accounting for one invocation.
type Usage struct {
	InputTokens  int `json:"inputTokens,omitempty"`
	OutputTokens int `json:"outputTokens,omitempty"`
	TotalTokens  int `json:"totalTokens,omitempty"`
}

// Candidate is one alternative completion produced by the model.
type Candidate struct {
	Index         int                   `json:"index"`
	Message       *conversation.Message `json:"message"`
	FinishReason  FinishReason          `json:"finishReason,omitempty"`
	FinishMessage string                `json:"finishMessage,omitempty"`
}

// ModelResponse is the aggregated result of one model invocation. The
// generate loop only inspects Candidates[0].Message.
type ModelResponse struct {
	Candidates []*Candidate `json:"candidates"`
	Usage      *Usage       `json:"usage,omitempty"`
}

// Message returns the primary candidate's message, or nil when the response
// carries no candidates.
func (r *ModelResponse) Message() *conversation.Message {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	return r.Candidates[0].Message
}

// Text returns the concatenated text of the primary candidate's message.
func (r *ModelResponse) Text() string {
	msg := r.Message()
	if msg == nil {
		return ""
	}
	return msg.Text()
}

// ToolRequestParts collects every tool-request part of the primary
// candidate's message, preserving order.
func (r *ModelResponse) ToolRequestParts() []*conversation.Part {
	msg := r.Message()
	if msg == nil {
		return nil
	}
	return msg.ToolRequestParts()
}

// NewModelResponse builds a single-candidate response around msg.
func NewModelResponse(msg *conversation.Message, reason FinishReason, usage *Usage) *ModelResponse {
	return &ModelResponse{
		Candidates: []*Candidate{{Index: 0, Message: msg, FinishReason: reason}},
		Usage:      usage,
	}
}

// ModelResponseChunk is an incremental fragment of the primary candidate's
// output on the streaming path. Chunks are ephemeral; only the aggregated
// ModelResponse persists.
type ModelResponseChunk struct {
	Index   int                  `json:"index"`
	Content []*conversation.Part `json:"content"`
}

// NewTextChunk builds a chunk holding a single text delta.
func NewTextChunk(text string) *ModelResponseChunk {
	return &ModelResponseChunk{Content: []*conversation.Part{conversation.NewTextPart(text)}}
}

// Text returns the concatenated text of the chunk's parts.
func (c *ModelResponseChunk) Text() string {
	var sb strings.Builder
	for _, p := range c.Content {
		if p.IsText() {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
