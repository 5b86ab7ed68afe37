// Package imagery provides a tool that describes an image by asking a
// vision capable model.
package imagery

import (
	"context"
	"reflect"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llms"
	"github.com/effective-security/gaia-agent/pkg/llmutils"
	"github.com/effective-security/gaia-agent/pkg/schema"
	"github.com/effective-security/gaia-agent/tools"
)

// ToolName is the dispatch key of the image analysis tool.
const ToolName = "analyze_image"

const analysisPrompt = `Analyze the image and provide a detailed description of its content.
The important pieces of information to extract from the image are:
1. Visual elements and objects
2. Colors, Patterns, Composition and Style
3. Text, Numbers and Symbols if present
4. Contextual information
5. Overall context and meaning
6. Any other relevant details
`

// Request is the tool input.
type Request struct {
	Base64Image string `json:"base64_image" jsonschema:"description=The base64 encoded string representation of the image to analyze."`
}

// Result is the tool output.
type Result struct {
	Description string `json:"description"`
}

func (r *Result) String() string {
	return r.Description
}

// Tool sends the image to a model and returns its description.
type Tool struct {
	name        string
	description string

	model llms.Model
}

var _ tools.Tool[Request, Result] = (*Tool)(nil)

// New returns the image analysis tool backed by the given model. The
// model must support vision input.
func New(model llms.Model) *Tool {
	return &Tool{
		name:        ToolName,
		description: "Analyze an image provided as a base64 encoded string and return a detailed textual description of its content.",
		model:       model,
	}
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return schema.MustParameters(reflect.TypeOf(Request{}))
}

func (t *Tool) Run(ctx context.Context, req *Request) (*Result, error) {
	if req.Base64Image == "" {
		return nil, errors.New("invalid request: empty image")
	}

	messages := []llms.Message{
		llms.MessageFromParts(llms.RoleHuman,
			llms.TextContent{Text: analysisPrompt},
			llms.ImageURLContent{URL: llms.ImageDataURL("image/jpeg", req.Base64Image)},
		),
	}
	resp, err := t.model.GenerateContent(ctx, messages)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze image")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}
	return &Result{Description: resp.Choices[0].Content}, nil
}

// Call implements tools.ITool.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req Request
	if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithMessage(tools.ErrFailedUnmarshalInput, err.Error())
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
