// Package agent implements the question answering loop: the model is
// called with the registered tool definitions, requested tool calls
// are executed and fed back, and the final answer is formatted for
// short, exact-match grading.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llms"
	"github.com/effective-security/gaia-agent/pkg/llmutils"
	"github.com/effective-security/gaia-agent/pkg/metricskey"
	"github.com/effective-security/gaia-agent/runctx"
	"github.com/effective-security/gaia-agent/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/gaia-agent", "agent")

// SystemPrompt instructs the model to answer with the available tools.
const SystemPrompt = `You are an AI assistant, who is responsable for answering the user question.
You can use the available tools to answer the question.`

// Agent answers questions by looping between the LLM and the tools it
// requests.
type Agent struct {
	llm      llms.Model
	registry *tools.Registry

	cfg         *Config
	runMessages []llms.Message
}

// New returns an Agent using the given model and tool registry.
func New(llmModel llms.Model, registry *tools.Registry, options ...Option) *Agent {
	return &Agent{
		llm:      llmModel,
		registry: registry,
		cfg:      NewConfig(options...),
	}
}

// Name returns the name of the agent.
func (a *Agent) Name() string {
	return a.cfg.Name
}

// LastRunMessages returns the messages accumulated during the last
// AnswerQuestion call, in conversation order.
func (a *Agent) LastRunMessages() []llms.Message {
	return a.runMessages
}

// AnswerQuestion runs the agent loop until the model stops, then
// formats the answer. An unknown finish reason is surfaced in the
// returned answer so graders see what happened.
func (a *Agent) AnswerQuestion(ctx context.Context, question string) (string, error) {
	started := time.Now()
	defer metricskey.PerfAgentCall.MeasureSince(started, a.cfg.Name)

	if runctx.GetRunID(ctx) == "" {
		ctx = runctx.WithRunContext(ctx, runctx.NewRunContext(""))
	}

	callback := a.cfg.CallbackHandler
	if callback != nil {
		callback.OnAgentStart(ctx, a, question)
	}

	answer, err := a.run(ctx, question)
	if err != nil {
		metricskey.StatsAgentCallsFailed.IncrCounter(1, a.cfg.Name)
		if callback != nil {
			callback.OnAgentError(ctx, a, question, err)
		}
		return "", err
	}
	metricskey.StatsAgentCallsSucceeded.IncrCounter(1, a.cfg.Name)
	if a.cfg.Store != nil {
		if serr := a.cfg.Store.Add(ctx, a.runMessages...); serr != nil {
			logger.ContextKV(ctx, xlog.WARNING,
				"agent", a.cfg.Name,
				"status", "failed_to_store_transcript",
				"err", serr.Error(),
			)
		}
	}
	if callback != nil {
		callback.OnAgentEnd(ctx, a, question, answer)
	}
	return answer, nil
}

func (a *Agent) run(ctx context.Context, question string) (string, error) {
	a.runMessages = []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, SystemPrompt),
		llms.MessageFromTextParts(llms.RoleHuman, question),
	}

	totalToolCalls := 0
	for round := 0; round < a.cfg.MaxRounds; round++ {
		resp, err := a.generate(ctx, a.runMessages)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.Newf("agent %s: LLM returned no choices", a.cfg.Name)
		}
		choice := resp.Choices[0]

		logger.ContextKV(ctx, xlog.DEBUG,
			"agent", a.cfg.Name,
			"round", round,
			"stop_reason", choice.StopReason,
			"tool_calls", len(choice.ToolCalls),
		)

		switch {
		case choice.StopReason == llms.StopReasonStop:
			a.runMessages = append(a.runMessages, llms.MessageFromTextParts(llms.RoleAI, choice.Content))
			if a.cfg.SkipFormatting {
				return choice.Content, nil
			}
			return a.FormatResponse(ctx, choice.Content)

		case len(choice.ToolCalls) > 0:
			executed := a.dispatchToolCalls(ctx, choice.ToolCalls)
			totalToolCalls += executed
			if totalToolCalls > a.cfg.MaxToolCalls {
				return "", errors.Newf("agent %s: the tool calls limit is exceeded", a.cfg.Name)
			}

		default:
			logger.ContextKV(ctx, xlog.WARNING,
				"agent", a.cfg.Name,
				"status", "unknown_stop_reason",
				"stop_reason", choice.StopReason,
			)
			return fmt.Sprintf("Error: Unknown stop reason: %s", choice.StopReason), nil
		}
	}
	return "", errors.Newf("agent %s: the rounds limit is exceeded", a.cfg.Name)
}

func (a *Agent) generate(ctx context.Context, messages []llms.Message) (*llms.ContentResponse, error) {
	modelName := a.llm.GetName()
	metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(messages)), a.cfg.Name, modelName)

	started := time.Now()
	resp, err := a.llm.GenerateContent(ctx, messages, llms.WithTools(a.registry.Definitions()))
	metricskey.PerfLLMCall.MeasureSince(started, a.cfg.Name, modelName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate content from LLM")
	}

	tokensIn, tokensOut, tokensTotal := llmutils.CountTokens(resp)
	metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), a.cfg.Name, modelName)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), a.cfg.Name, modelName)
	metricskey.StatsLLMTotalTokens.IncrCounter(float64(tokensTotal), a.cfg.Name, modelName)
	return resp, nil
}

// dispatchToolCalls appends the assistant's tool call message, executes
// every call sequentially in request order and appends one tool result
// message per call. Failures become result messages so the model can
// recover on the next round.
func (a *Agent) dispatchToolCalls(ctx context.Context, requested []llms.ToolCall) int {
	toolCalls := make([]llms.ToolCall, 0, len(requested))
	for i, toolCall := range requested {
		if toolCall.ID == "" {
			toolCall.ID = fmt.Sprintf("%s_%d", toolCall.FunctionCall.Name, i)
		}
		toolCall.Type = values.StringsCoalesce(toolCall.Type, "function")
		toolCalls = append(toolCalls, toolCall)
	}
	a.runMessages = append(a.runMessages, llms.MessageFromToolCalls(llms.RoleAI, toolCalls...))

	for _, toolCall := range toolCalls {
		content := a.callTool(ctx, toolCall)
		a.runMessages = append(a.runMessages, llms.MessageFromToolResponse(llms.ToolCallResponse{
			ToolCallID: toolCall.ID,
			Name:       toolCall.FunctionCall.Name,
			Content:    content,
		}))
	}
	return len(toolCalls)
}

func (a *Agent) callTool(ctx context.Context, toolCall llms.ToolCall) string {
	callback := a.cfg.CallbackHandler
	toolName := toolCall.FunctionCall.Name
	toolArgs := toolCall.FunctionCall.Arguments

	tool, err := a.registry.Get(toolName)
	if err != nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, toolName)
		if callback != nil {
			callback.OnToolNotFound(ctx, a, toolName)
		}
		availableTools := strings.Join(a.registry.Names(), ", ")
		logger.ContextKV(ctx, xlog.WARNING,
			"agent", a.cfg.Name,
			"status", "tool_not_found",
			"tool", toolName,
			"available_tools", availableTools,
		)
		return fmt.Sprintf("Tool `%s` not found. Please check the tool name and try again with exact match. Available tools: %s", toolName, availableTools)
	}

	if callback != nil {
		callback.OnToolStart(ctx, tool, toolArgs)
	}
	started := time.Now()
	res, err := tool.Call(ctx, toolArgs)
	metricskey.PerfToolCall.MeasureSince(started, toolName)
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, toolName)
		if callback != nil {
			callback.OnToolError(ctx, tool, toolArgs, err)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"agent", a.cfg.Name,
			"status", "tool_call_failed",
			"tool", toolName,
			"err", err.Error(),
		)
		if errors.Is(err, tools.ErrFailedUnmarshalInput) {
			return "Tool call failed: failed to unmarshal input, check the JSON schema and try again."
		}
		return fmt.Sprintf("Tool call failed: %s", err.Error())
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, toolName)
	if callback != nil {
		callback.OnToolEnd(ctx, tool, toolArgs, res)
	}
	return res
}
