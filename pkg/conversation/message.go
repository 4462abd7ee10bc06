package conversation

import (
	"fmt"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleTool   Role = "tool"
)

// ToolRequest is a model-issued request to execute a named tool. Ref is an
// opaque correlation token generated by the model/provider and must be echoed
// back unchanged on the matching ToolResponse.
type ToolRequest struct {
	Ref   string      `json:"ref,omitempty"`
	Name  string      `json:"name"`
	Input interface{} `json:"input,omitempty"`
}

// ToolResponse carries the outcome of executing a ToolRequest. Output holds
// either the tool's return value or an error payload of the shape
// {"error": "..."} when execution was contained.
type ToolResponse struct {
	Ref    string      `json:"ref,omitempty"`
	Name   string      `json:"name"`
	Output interface{} `json:"output,omitempty"`
}

// Media references inline or remote binary content.
type Media struct {
	ContentType string `json:"contentType,omitempty"`
	URL         string `json:"url"`
}

// Part is a tagged variant: exactly one of Text, Media, ToolRequest or
// ToolResponse is populated. JSON encoding only emits the populated field.
type Part struct {
	Text         string        `json:"text,omitempty"`
	Media        *Media        `json:"media,omitempty"`
	ToolRequest  *ToolRequest  `json:"toolRequest,omitempty"`
	ToolResponse *ToolResponse `json:"toolResponse,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewTextPart creates a Part holding plain text.
func NewTextPart(text string) *Part {
	return &Part{Text: text}
}

// NewMediaPart creates a Part referencing media content.
func NewMediaPart(contentType, url string) *Part {
	return &Part{Media: &Media{ContentType: contentType, URL: url}}
}

// NewToolRequestPart creates a Part carrying a tool request.
func NewToolRequestPart(req *ToolRequest) *Part {
	return &Part{ToolRequest: req}
}

// NewToolResponsePart creates a Part carrying a tool response.
func NewToolResponsePart(resp *ToolResponse) *Part {
	return &Part{ToolResponse: resp}
}

func (p *Part) IsText() bool         { return p.Media == nil && p.ToolRequest == nil && p.ToolResponse == nil }
func (p *Part) IsMedia() bool        { return p.Media != nil }
func (p *Part) IsToolRequest() bool  { return p.ToolRequest != nil }
func (p *Part) IsToolResponse() bool { return p.ToolResponse != nil }

func (p *Part) String() string {
	switch {
	case p.ToolRequest != nil:
		return fmt.Sprintf("ToolRequest{Ref: %s, Name: %s}", p.ToolRequest.Ref, p.ToolRequest.Name)
	case p.ToolResponse != nil:
		return fmt.Sprintf("ToolResponse{Ref: %s, Name: %s}", p.ToolResponse.Ref, p.ToolResponse.Name)
	case p.Media != nil:
		return fmt.Sprintf("Media{ContentType: %s}", p.Media.ContentType)
	default:
		return p.Text
	}
}

// Message is a single entry in a conversation. Content ordering is
// semantically meaningful. Messages are never mutated once appended to a
// conversation; a new message is appended instead.
type Message struct {
	Role    Role    `json:"role"`
	Content []*Part `json:"content"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewMessage creates a message with the given role and parts.
func NewMessage(role Role, parts ...*Part) *Message {
	return &Message{Role: role, Content: parts}
}

// NewSystemTextMessage creates a system message with a single text part.
func NewSystemTextMessage(text string) *Message {
	return NewMessage(RoleSystem, NewTextPart(text))
}

// NewUserTextMessage creates a user message with a single text part.
func NewUserTextMessage(text string) *Message {
	return NewMessage(RoleUser, NewTextPart(text))
}

// NewModelTextMessage creates a model message with a single text part.
func NewModelTextMessage(text string) *Message {
	return NewMessage(RoleModel, NewTextPart(text))
}

// NewToolMessage creates a tool-role message carrying tool response parts.
func NewToolMessage(parts ...*Part) *Message {
	return NewMessage(RoleTool, parts...)
}

// Text concatenates the text of all text parts of the message.
func (m *Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Content {
		if p.IsText() {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// ToolRequestParts returns every part carrying a tool request, in order.
func (m *Message) ToolRequestParts() []*Part {
	var parts []*Part
	for _, p := range m.Content {
		if p.IsToolRequest() {
			parts = append(parts, p)
		}
	}
	return parts
}

// Conversation is an ordered, append-only list of messages.
type Conversation []*Message

// Append returns a new conversation with the given messages appended. The
// receiver is never mutated, so per-turn snapshots do not alias each other.
func (c Conversation) Append(msgs ...*Message) Conversation {
	out := make(Conversation, 0, len(c)+len(msgs))
	out = append(out, c...)
	out = append(out, msgs...)
	return out
}
