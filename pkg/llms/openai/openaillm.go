package openai

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llms"
	"github.com/effective-security/gaia-agent/pkg/llms/openai/internal/openaiclient"
)

// ChatMessage is the wire message type of the underlying client.
type ChatMessage = openaiclient.ChatMessage

const (
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleUser      = "user"
	RoleTool      = "tool"
)

// ErrEmptyResponse is returned when the API returns no choices.
var ErrEmptyResponse = errors.New("no response")

// LLM is an OpenAI-compatible chat model.
type LLM struct {
	client   *openaiclient.Client
	provider llms.ProviderType
}

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenAI LLM.
func New(opts ...Option) (*LLM, error) {
	c, provider, err := newClient(opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{
		client:   c,
		provider: provider,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.client.Model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return o.provider
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	chatMsgs := make([]*ChatMessage, 0, len(messages))
	for _, mc := range messages {
		msg, err := chatMessageFromMessage(mc)
		if err != nil {
			return nil, err
		}
		chatMsgs = append(chatMsgs, msg)
	}

	req := &openaiclient.ChatRequest{
		Model:           opts.Model,
		Messages:        chatMsgs,
		MaxTokens:       opts.MaxTokens,
		Stop:            opts.StopWords,
		Seed:            opts.Seed,
		ToolChoice:      opts.ToolChoice,
		ReasoningEffort: string(opts.ReasoningEffort),
		Metadata:        opts.Metadata,
	}
	if opts.Temperature > 0 {
		req.Temperature = &opts.Temperature
	}
	if opts.TopP > 0 {
		req.TopP = &opts.TopP
	}
	for _, tool := range opts.Tools {
		t, err := toolFromTool(tool)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to convert llms tool to openai tool")
		}
		req.Tools = append(req.Tools, t)
	}

	result, err := o.client.CreateChat(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choices[i] = &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: c.FinishReason,
			GenerationInfo: map[string]any{
				"CompletionTokens": result.Usage.CompletionTokens,
				"PromptTokens":     result.Usage.PromptTokens,
				"TotalTokens":      result.Usage.TotalTokens,
				"ReasoningTokens":  result.Usage.CompletionTokensDetails.ReasoningTokens,
			},
		}
		for _, tool := range c.Message.ToolCalls {
			choices[i].ToolCalls = append(choices[i].ToolCalls, llms.ToolCall{
				ID:   tool.ID,
				Type: string(tool.Type),
				FunctionCall: &llms.FunctionCall{
					Name:      tool.Function.Name,
					Arguments: tool.Function.Arguments,
				},
			})
		}
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

// chatMessageFromMessage converts a provider-neutral message into the
// chat completions wire format.
func chatMessageFromMessage(mc llms.Message) (*ChatMessage, error) {
	msg := &ChatMessage{}
	switch mc.Role {
	case llms.RoleSystem:
		msg.Role = RoleSystem
	case llms.RoleAI:
		msg.Role = RoleAssistant
	case llms.RoleHuman:
		msg.Role = RoleUser
	case llms.RoleTool:
		msg.Role = RoleTool
		// A tool message carries exactly one ToolCallResponse part.
		if len(mc.Parts) != 1 {
			return nil, errors.Newf("expected exactly one part for role %v, got %v", mc.Role, len(mc.Parts))
		}
		p, ok := mc.Parts[0].(llms.ToolCallResponse)
		if !ok {
			return nil, errors.Newf("expected part of type ToolCallResponse for role %v, got %T", mc.Role, mc.Parts[0])
		}
		msg.ToolCallID = p.ToolCallID
		msg.Name = p.Name
		msg.Content = p.Content
		return msg, nil
	default:
		return nil, errors.Newf("role %v not supported", mc.Role)
	}

	var parts []openaiclient.ContentPart
	var toolCalls []openaiclient.ToolCall
	for _, part := range mc.Parts {
		switch p := part.(type) {
		case llms.TextContent:
			parts = append(parts, openaiclient.ContentPart{Type: "text", Text: p.Text})
		case llms.ImageURLContent:
			parts = append(parts, openaiclient.ContentPart{
				Type:     "image_url",
				ImageURL: &openaiclient.ImageURLPart{URL: p.URL, Detail: p.Detail},
			})
		case llms.ToolCall:
			toolCalls = append(toolCalls, openaiclient.ToolCall{
				ID:   p.ID,
				Type: openaiclient.ToolType(p.Type),
				Function: openaiclient.ToolFunction{
					Name:      p.FunctionCall.Name,
					Arguments: p.FunctionCall.Arguments,
				},
			})
		default:
			return nil, errors.Newf("content part %T not supported for role %v", part, mc.Role)
		}
	}
	msg.ToolCalls = toolCalls

	// Plain text messages stay strings on the wire; multi-part content
	// (text + image) uses the content-part array form.
	if len(parts) == 1 && parts[0].Type == "text" {
		msg.Content = parts[0].Text
	} else if len(parts) > 0 {
		msg.Content = parts
	}
	return msg, nil
}

// toolFromTool converts an llms.Tool to the wire format.
func toolFromTool(t llms.Tool) (openaiclient.Tool, error) {
	if t.Type != string(openaiclient.ToolTypeFunction) || t.Function == nil {
		return openaiclient.Tool{}, errors.Newf("tool type %v not supported", t.Type)
	}
	return openaiclient.Tool{
		Type: openaiclient.ToolTypeFunction,
		Function: openaiclient.FunctionDefinition{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  t.Function.Parameters,
		},
	}, nil
}
