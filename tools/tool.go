// Package tools defines the tool contract of the agent and the
// registry the agent dispatches tool calls through.
package tools

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrFailedUnmarshalInput is returned by a tool when the serialized
// argument payload does not match the tool's parameter schema.
var ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool, used as the dispatch key.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the parameters definition of the function, to be used in the prompt.
	Parameters() any

	// Call executes the tool with the given serialized input and returns the result.
	// If the tool fails to parse the input, it should return ErrFailedUnmarshalInput error.
	Call(context.Context, string) (string, error)
}

// Callback receives tool execution events.
type Callback interface {
	OnToolStart(context.Context, ITool, string)
	OnToolEnd(context.Context, ITool, string, string)
	OnToolError(context.Context, ITool, string, error)
}

// Tool is a typed tool with structured input and output. Expected
// failure modes (network errors, missing transcripts) are reported in
// the output value, not as errors, so the agent can distinguish
// "nothing found" from "request could not be made".
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}
