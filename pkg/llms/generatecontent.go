package llms

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Finish reasons reported by the provider in ContentChoice.StopReason.
const (
	// StopReasonStop indicates the model completed generation naturally.
	StopReasonStop = "stop"
	// StopReasonToolCalls indicates the model requested tool executions.
	StopReasonToolCalls = "tool_calls"
	// StopReasonLength indicates the generation was cut off by the token limit.
	StopReasonLength = "length"
)

// Role is the type of chat message.
type Role string

const (
	// RoleSystem is a message sent by the system.
	RoleSystem Role = "system"
	// RoleHuman is a message sent by a human.
	RoleHuman Role = "human"
	// RoleAI is a message sent by the model.
	RoleAI Role = "ai"
	// RoleTool is a message carrying a tool execution result.
	RoleTool Role = "tool"
)

// Message is one entry of the conversation sent to a LLM. It has a role and a
// sequence of parts. Order of messages is the causal history the model sees.
type Message struct {
	Role  Role          `json:"role"`
	Parts []ContentPart `json:"parts"`
}

// ContentPart is an interface all parts of content have to implement.
type ContentPart interface {
	isPart()
}

// TextContent is content with some text.
type TextContent struct {
	Text string `json:"text"`
}

func (tc TextContent) String() string {
	return tc.Text
}

func (TextContent) isPart() {}

// ImageURLContent is content with an URL pointing to an image,
// including data URLs with inlined base64 payloads.
type ImageURLContent struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

func (iuc ImageURLContent) String() string {
	return iuc.URL
}

func (ImageURLContent) isPart() {}

// FunctionCall is the name and arguments of a function call.
type FunctionCall struct {
	// Name of the function to call.
	Name string `json:"name"`
	// Arguments to pass to the function, as a JSON string.
	Arguments string `json:"arguments"`
}

// ToolCall is a call to a tool, as requested by the model, that should be executed.
type ToolCall struct {
	// ID is the unique identifier of the tool call.
	ID string `json:"id"`
	// Type of the tool call, typically "function".
	Type string `json:"type"`
	// FunctionCall is the function call to be executed.
	FunctionCall *FunctionCall `json:"function,omitempty"`
}

func (tc ToolCall) String() string {
	return fmt.Sprintf("ToolCall: %s (%s), input: %s", tc.ID, tc.FunctionCall.Name, tc.FunctionCall.Arguments)
}

func (ToolCall) isPart() {}

// ToolCallResponse is the response returned by a tool call.
type ToolCallResponse struct {
	// ToolCallID is the ID of the tool call this response is for.
	ToolCallID string `json:"tool_call_id"`
	// Name of the tool that was called.
	Name string `json:"name"`
	// Content is the textual content of the response.
	Content string `json:"content"`
}

func (tc ToolCallResponse) String() string {
	return fmt.Sprintf("ToolCallResponse: %s (%s), response size: %d", tc.ToolCallID, tc.Name, len(tc.Content))
}

func (ToolCallResponse) isPart() {}

// ContentResponse is the response returned by a GenerateContent call.
// It can potentially return multiple content choices.
type ContentResponse struct {
	Choices []*ContentChoice
}

// ContentChoice is one of the response choices returned by GenerateContent calls.
type ContentChoice struct {
	// Content is the textual content of a response.
	Content string `json:"content"`

	// StopReason is the reason the model stopped generating output.
	StopReason string `json:"stop_reason"`

	// GenerationInfo is arbitrary information the model adds to the response.
	GenerationInfo map[string]any `json:"generation_info"`

	// ToolCalls is a list of tool calls the model asks to invoke.
	ToolCalls []ToolCall `json:"tool_calls"`
}

// MessageFromParts creates a Message with a role and a list of parts.
func MessageFromParts(role Role, parts ...ContentPart) Message {
	return Message{
		Role:  role,
		Parts: parts,
	}
}

// MessageFromTextParts creates a Message with a role and a list of text parts.
func MessageFromTextParts(role Role, parts ...string) Message {
	result := Message{
		Role:  role,
		Parts: make([]ContentPart, 0, len(parts)),
	}
	for _, part := range parts {
		result.Parts = append(result.Parts, TextContent{Text: part})
	}
	return result
}

// MessageFromToolCalls creates a Message with a role and a list of tool calls.
func MessageFromToolCalls(role Role, toolCalls ...ToolCall) Message {
	result := Message{
		Role:  role,
		Parts: make([]ContentPart, 0, len(toolCalls)),
	}
	for _, toolCall := range toolCalls {
		result.Parts = append(result.Parts, toolCall)
	}
	return result
}

// MessageFromToolResponse creates a tool-role Message carrying a tool response.
func MessageFromToolResponse(toolResponse ToolCallResponse) Message {
	return MessageFromParts(RoleTool, toolResponse)
}

// GetContent renders the message parts into a single text blob,
// used for logging and content-size accounting.
func (m Message) GetContent() string {
	var buf strings.Builder
	for _, p := range m.Parts {
		switch typ := p.(type) {
		case TextContent:
			buf.WriteString(typ.Text)
			if !strings.HasSuffix(typ.Text, "\n") {
				buf.WriteString("\n")
			}
		case ImageURLContent:
			buf.WriteString("URL: ")
			buf.WriteString(typ.URL)
			buf.WriteString("\n")
		case ToolCall:
			buf.WriteString("Tool Call: ")
			js, _ := json.Marshal(typ)
			buf.Write(js)
			buf.WriteString("\n")
		case ToolCallResponse:
			buf.WriteString("Response: ")
			js, _ := json.Marshal(typ)
			buf.Write(js)
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// ImageDataURL returns a data URL for inlined base64 image content.
func ImageDataURL(mimeType, base64Data string) string {
	return "data:" + mimeType + ";base64," + base64Data
}

// ImageDataURLFromBytes encodes raw image bytes into a data URL.
func ImageDataURLFromBytes(mimeType string, data []byte) string {
	return ImageDataURL(mimeType, base64.StdEncoding.EncodeToString(data))
}
