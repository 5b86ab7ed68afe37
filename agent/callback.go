package agent

import (
	"context"
	"fmt"
	"io"

	"github.com/effective-security/gaia-agent/tools"
	"github.com/effective-security/xlog"
)

// Callback receives agent and tool execution events.
type Callback interface {
	tools.Callback

	OnAgentStart(ctx context.Context, agent *Agent, question string)
	OnAgentEnd(ctx context.Context, agent *Agent, question string, answer string)
	OnAgentError(ctx context.Context, agent *Agent, question string, err error)
	OnToolNotFound(ctx context.Context, agent *Agent, toolName string)
}

// NoopCallback does nothing.
type NoopCallback struct{}

func NewNoopCallback() *NoopCallback {
	return &NoopCallback{}
}

var _ Callback = (*NoopCallback)(nil)

func (l *NoopCallback) OnAgentStart(ctx context.Context, agent *Agent, question string) {}
func (l *NoopCallback) OnAgentEnd(ctx context.Context, agent *Agent, question string, answer string) {
}
func (l *NoopCallback) OnAgentError(ctx context.Context, agent *Agent, question string, err error) {}
func (l *NoopCallback) OnToolNotFound(ctx context.Context, agent *Agent, toolName string)          {}
func (l *NoopCallback) OnToolStart(ctx context.Context, tool tools.ITool, input string)            {}
func (l *NoopCallback) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
}
func (l *NoopCallback) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {}

// PrinterCallback is a callback handler that prints to the Writer.
type PrinterCallback struct {
	Out io.Writer
}

func NewPrinterCallback(out io.Writer) *PrinterCallback {
	return &PrinterCallback{Out: out}
}

var _ Callback = (*PrinterCallback)(nil)

func (l *PrinterCallback) OnAgentStart(ctx context.Context, agent *Agent, question string) {
	fmt.Fprintf(l.Out, "Agent Start: %s\n", agent.Name())
	fmt.Fprintf(l.Out, "Question: %s\n", question)
}

func (l *PrinterCallback) OnAgentEnd(ctx context.Context, agent *Agent, question string, answer string) {
	fmt.Fprintf(l.Out, "Agent End: %s\n", agent.Name())
	fmt.Fprintf(l.Out, "Answer: %s\n", answer)
}

func (l *PrinterCallback) OnAgentError(ctx context.Context, agent *Agent, question string, err error) {
	fmt.Fprintf(l.Out, "Agent Error: %s: %s\n", agent.Name(), err.Error())
}

func (l *PrinterCallback) OnToolNotFound(ctx context.Context, agent *Agent, toolName string) {
	fmt.Fprintf(l.Out, "Tool Not Found: %s\n", toolName)
}

func (l *PrinterCallback) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	fmt.Fprintf(l.Out, "Tool Start: %s\n", tool.Name())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *PrinterCallback) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	fmt.Fprintf(l.Out, "Tool End: %s\n", tool.Name())
	fmt.Fprintf(l.Out, "Output: %s\n", output)
}

func (l *PrinterCallback) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	fmt.Fprintf(l.Out, "Tool Error: %s: %s\n", tool.Name(), err.Error())
}

// PackageLoggerCallback is a callback handler that prints to the logger.
type PackageLoggerCallback struct {
	logger *xlog.PackageLogger
}

func NewPackageLoggerCallback(logger *xlog.PackageLogger) *PackageLoggerCallback {
	return &PackageLoggerCallback{logger: logger}
}

var _ Callback = (*PackageLoggerCallback)(nil)

func (l *PackageLoggerCallback) OnAgentStart(ctx context.Context, agent *Agent, question string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_start",
		"agent", agent.Name(),
		"question", question,
	)
}

func (l *PackageLoggerCallback) OnAgentEnd(ctx context.Context, agent *Agent, question string, answer string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "agent_end",
		"agent", agent.Name(),
		"answer", answer,
	)
}

func (l *PackageLoggerCallback) OnAgentError(ctx context.Context, agent *Agent, question string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "agent_error",
		"agent", agent.Name(),
		"err", err.Error(),
	)
}

func (l *PackageLoggerCallback) OnToolNotFound(ctx context.Context, agent *Agent, toolName string) {
	l.logger.ContextKV(ctx, xlog.WARNING,
		"event", "tool_not_found",
		"agent", agent.Name(),
		"tool", toolName,
	)
}

func (l *PackageLoggerCallback) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
		"input", input,
	)
}

func (l *PackageLoggerCallback) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
		"output", output,
	)
}

func (l *PackageLoggerCallback) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool.Name(),
		"err", err.Error(),
	)
}
