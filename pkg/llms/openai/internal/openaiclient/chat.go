package openaiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
)

// ChatMessage is one message of a chat completions request.
type ChatMessage struct {
	// Role is one of system/user/assistant/tool.
	Role string `json:"role"`
	// Content is either a string or a list of content parts.
	Content any `json:"content,omitempty"`
	// ToolCalls carries the assistant's requested tool invocations.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID tags a tool-role message with the originating call.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// Name is the tool name for tool-role messages.
	Name string `json:"name,omitempty"`
}

// ContentPart is one entry of a multi-part message content.
type ContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *ImageURLPart `json:"image_url,omitempty"`
}

// ImageURLPart is an image reference, including data URLs.
type ImageURLPart struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// Tool is a tool definition exposed to the model.
type Tool struct {
	Type     ToolType           `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a callable function.
type FunctionDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// ToolCall is a requested tool invocation in a response or an
// assistant message replayed back to the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     ToolType     `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function name and serialized arguments of a tool call.
type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatRequest is a chat completions request.
type ChatRequest struct {
	Model           string         `json:"model"`
	Messages        []*ChatMessage `json:"messages"`
	Temperature     *float64       `json:"temperature,omitempty"`
	TopP            *float64       `json:"top_p,omitempty"`
	MaxTokens       int            `json:"max_completion_tokens,omitempty"`
	Stop            []string       `json:"stop,omitempty"`
	Seed            int            `json:"seed,omitempty"`
	Tools           []Tool         `json:"tools,omitempty"`
	ToolChoice      any            `json:"tool_choice,omitempty"`
	ReasoningEffort string         `json:"reasoning_effort,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// ChatResponseMessage is the assistant message of a response choice.
type ChatResponseMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ChatResponseChoice is one choice of a chat completion response.
type ChatResponseChoice struct {
	Index        int                 `json:"index"`
	Message      ChatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

// ChatUsage is token accounting of a chat completion response.
type ChatUsage struct {
	PromptTokens            int `json:"prompt_tokens"`
	CompletionTokens        int `json:"completion_tokens"`
	TotalTokens             int `json:"total_tokens"`
	CompletionTokensDetails struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details"`
}

// ChatCompletionResponse is a chat completions response.
type ChatCompletionResponse struct {
	ID      string               `json:"id"`
	Model   string               `json:"model"`
	Choices []ChatResponseChoice `json:"choices"`
	Usage   ChatUsage            `json:"usage"`
}

// CreateChat creates a chat request.
func (c *Client) CreateChat(ctx context.Context, r *ChatRequest) (*ChatCompletionResponse, error) {
	if r.Model == "" {
		if c.Model == "" {
			r.Model = DefaultChatModel
		} else {
			r.Model = c.Model
		}
	}
	resp, err := c.createChat(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}

func (c *Client) createChat(ctx context.Context, payload *ChatRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal chat request")
	}

	url := c.buildURL("/chat/completions", payload.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send chat request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		var errResp errorMessage
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error.Message == "" {
			return nil, errors.Newf("API returned unexpected status code: %d", resp.StatusCode)
		}
		return nil, errors.Newf("API returned error: %s", errResp.Error.Message)
	}

	var response ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, errors.Wrap(err, "failed to decode chat response")
	}
	return &response, nil
}
