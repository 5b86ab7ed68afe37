package agent_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/agent"
	"github.com/effective-security/gaia-agent/pkg/llms"
	"github.com/effective-security/gaia-agent/pkg/schema"
	"github.com/effective-security/gaia-agent/runctx"
	"github.com/effective-security/gaia-agent/store"
	"github.com/effective-security/gaia-agent/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replays canned responses and records every call.
type scriptedModel struct {
	responses []*llms.ContentResponse
	calls     [][]llms.Message
	options   []llms.CallOptions
	err       error
}

func (m *scriptedModel) GetName() string {
	return "scripted"
}

func (m *scriptedModel) GetProviderType() llms.ProviderType {
	return llms.ProviderOpenAI
}

func (m *scriptedModel) GenerateContent(_ context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls = append(m.calls, messages)
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}
	m.options = append(m.options, opts)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &llms.ContentResponse{}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func stopResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: content, StopReason: llms.StopReasonStop},
		},
	}
}

func toolCallResponse(calls ...llms.ToolCall) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{StopReason: llms.StopReasonToolCalls, ToolCalls: calls},
		},
	}
}

type echoRequest struct {
	Text string `json:"text"`
}

// echoTool records its inputs and returns them prefixed.
type echoTool struct {
	name   string
	inputs []string
	err    error
}

func (t *echoTool) Name() string {
	return t.name
}

func (t *echoTool) Description() string {
	return "Echoes the input back."
}

func (t *echoTool) Parameters() any {
	return schema.MustParameters(reflect.TypeOf(echoRequest{}))
}

func (t *echoTool) Call(_ context.Context, input string) (string, error) {
	t.inputs = append(t.inputs, input)
	if t.err != nil {
		return "", t.err
	}
	return "echo: " + input, nil
}

func TestAnswerQuestion_DirectAnswer(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{
		responses: []*llms.ContentResponse{
			stopResponse("The capital of France is Paris."),
			stopResponse("Paris"),
		},
	}
	registry := tools.MustRegistry(&echoTool{name: "echo"})

	a := agent.New(model, registry)
	answer, err := a.AnswerQuestion(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris", answer)

	// loop call carries the tool definitions, the formatter call does not
	require.Len(t, model.calls, 2)
	assert.Len(t, model.options[0].Tools, 1)
	assert.Empty(t, model.options[1].Tools)

	loopMessages := model.calls[0]
	require.Len(t, loopMessages, 2)
	assert.Equal(t, llms.RoleSystem, loopMessages[0].Role)
	assert.Equal(t, llms.RoleHuman, loopMessages[1].Role)
	assert.Equal(t, "What is the capital of France?\n", loopMessages[1].GetContent())

	formatterMessages := model.calls[1]
	require.Len(t, formatterMessages, 2)
	assert.Equal(t, "The capital of France is Paris.\n", formatterMessages[1].GetContent())
}

func TestAnswerQuestion_ToolRound(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{
		responses: []*llms.ContentResponse{
			toolCallResponse(
				llms.ToolCall{
					ID:           "call_1",
					Type:         "function",
					FunctionCall: &llms.FunctionCall{Name: "echo", Arguments: `{"text": "first"}`},
				},
				llms.ToolCall{
					// no ID, the agent synthesizes one
					FunctionCall: &llms.FunctionCall{Name: "echo", Arguments: `{"text": "second"}`},
				},
			),
			stopResponse("done"),
		},
	}
	tool := &echoTool{name: "echo"}
	registry := tools.MustRegistry(tool)

	a := agent.New(model, registry, agent.WithSkipFormatting(true))
	answer, err := a.AnswerQuestion(context.Background(), "Echo twice.")
	require.NoError(t, err)
	assert.Equal(t, "done", answer)

	// calls are executed sequentially in request order
	assert.Equal(t, []string{`{"text": "first"}`, `{"text": "second"}`}, tool.inputs)

	// system, human, tool call message, two tool results, final answer
	messages := a.LastRunMessages()
	require.Len(t, messages, 6)
	assert.Equal(t, llms.RoleAI, messages[2].Role)
	assert.Equal(t, llms.RoleTool, messages[3].Role)
	assert.Equal(t, llms.RoleTool, messages[4].Role)
	assert.Equal(t, llms.RoleAI, messages[5].Role)

	first, ok := messages[3].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "call_1", first.ToolCallID)
	assert.Equal(t, "echo: "+`{"text": "first"}`, first.Content)

	second, ok := messages[4].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "echo_1", second.ToolCallID)
}

func TestAnswerQuestion_UnknownStopReason(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{
		responses: []*llms.ContentResponse{
			{
				Choices: []*llms.ContentChoice{
					{Content: "truncated", StopReason: llms.StopReasonLength},
				},
			},
		},
	}
	a := agent.New(model, tools.MustRegistry(&echoTool{name: "echo"}))
	answer, err := a.AnswerQuestion(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "Error: Unknown stop reason: length", answer)
}

func TestAnswerQuestion_UnknownTool(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{
		responses: []*llms.ContentResponse{
			toolCallResponse(llms.ToolCall{
				ID:           "call_1",
				FunctionCall: &llms.FunctionCall{Name: "does_not_exist", Arguments: `{}`},
			}),
			stopResponse("recovered"),
		},
	}
	a := agent.New(model, tools.MustRegistry(&echoTool{name: "echo"}), agent.WithSkipFormatting(true))
	answer, err := a.AnswerQuestion(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)

	messages := a.LastRunMessages()
	result, ok := messages[3].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Contains(t, result.Content, "Tool `does_not_exist` not found.")
	assert.Contains(t, result.Content, "echo")
}

func TestAnswerQuestion_ToolFailure(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{
		responses: []*llms.ContentResponse{
			toolCallResponse(llms.ToolCall{
				ID:           "call_1",
				FunctionCall: &llms.FunctionCall{Name: "echo", Arguments: `{}`},
			}),
			stopResponse("recovered"),
		},
	}
	tool := &echoTool{name: "echo", err: errors.New("boom")}
	a := agent.New(model, tools.MustRegistry(tool), agent.WithSkipFormatting(true))
	answer, err := a.AnswerQuestion(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)

	result, ok := a.LastRunMessages()[3].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "Tool call failed: boom", result.Content)
}

func TestAnswerQuestion_RoundsLimit(t *testing.T) {
	t.Parallel()

	call := llms.ToolCall{
		ID:           "call_1",
		FunctionCall: &llms.FunctionCall{Name: "echo", Arguments: `{}`},
	}
	model := &scriptedModel{
		responses: []*llms.ContentResponse{
			toolCallResponse(call),
			toolCallResponse(call),
			toolCallResponse(call),
		},
	}
	a := agent.New(model, tools.MustRegistry(&echoTool{name: "echo"}), agent.WithMaxRounds(2))
	_, err := a.AnswerQuestion(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rounds limit is exceeded")
	assert.Len(t, model.calls, 2)
}

func TestAnswerQuestion_ToolCallsLimit(t *testing.T) {
	t.Parallel()

	call := llms.ToolCall{
		FunctionCall: &llms.FunctionCall{Name: "echo", Arguments: `{}`},
	}
	model := &scriptedModel{
		responses: []*llms.ContentResponse{
			toolCallResponse(call, call, call),
		},
	}
	a := agent.New(model, tools.MustRegistry(&echoTool{name: "echo"}), agent.WithMaxToolCalls(2))
	_, err := a.AnswerQuestion(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool calls limit is exceeded")
}

func TestAnswerQuestion_LLMError(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{err: errors.New("connection refused")}
	a := agent.New(model, tools.MustRegistry(&echoTool{name: "echo"}))
	_, err := a.AnswerQuestion(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate content from LLM")
}

func TestAnswerQuestion_StoresTranscript(t *testing.T) {
	t.Parallel()

	model := &scriptedModel{responses: []*llms.ContentResponse{stopResponse("42")}}
	st := store.NewMemoryStore()

	a := agent.New(model, tools.MustRegistry(&echoTool{name: "echo"}),
		agent.WithSkipFormatting(true),
		agent.WithStore(st),
	)
	ctx := runctx.WithRunContext(context.Background(), runctx.NewRunContext("run1"))
	_, err := a.AnswerQuestion(ctx, "q")
	require.NoError(t, err)

	messages := st.Messages(ctx)
	require.Len(t, messages, 3)
	assert.Equal(t, llms.RoleSystem, messages[0].Role)
	assert.Equal(t, llms.RoleAI, messages[2].Role)
}

func TestFormatResponse_SeparateModel(t *testing.T) {
	t.Parallel()

	loop := &scriptedModel{responses: []*llms.ContentResponse{stopResponse("three hundred")}}
	formatter := &scriptedModel{responses: []*llms.ContentResponse{stopResponse("300")}}

	a := agent.New(loop, tools.MustRegistry(&echoTool{name: "echo"}), agent.WithFormatter(formatter))
	answer, err := a.AnswerQuestion(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "300", answer)
	assert.Len(t, loop.calls, 1)
	assert.Len(t, formatter.calls, 1)
}
