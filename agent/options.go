package agent

import (
	"github.com/effective-security/gaia-agent/pkg/llms"
	"github.com/effective-security/gaia-agent/store"
)

const (
	// DefaultMaxRounds bounds the number of LLM round trips per question.
	DefaultMaxRounds = 16
	// DefaultMaxToolCalls bounds the number of tool executions per question.
	DefaultMaxToolCalls = 64
)

// Option is a function that modifies the Agent Config.
type Option func(*Config)

// Config holds the per agent settings. The zero value is not usable,
// use NewConfig to get the defaults.
type Config struct {
	// Name identifies the agent in logs and metrics.
	Name string

	// MaxRounds is the maximum number of LLM round trips per question.
	MaxRounds int

	// MaxToolCalls is the maximum number of tool executions per question.
	MaxToolCalls int

	// Formatter is the model used for the final answer formatting call.
	// When nil the agent's own model is used.
	Formatter llms.Model

	// SkipFormatting disables the final formatting call and returns the
	// raw answer of the loop.
	SkipFormatting bool

	// CallbackHandler receives agent and tool execution events.
	CallbackHandler Callback

	// Store persists the run transcript. When nil no transcript is kept.
	Store store.MessageStore
}

// NewConfig returns the Config with defaults applied.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Name:         "GAIA Agent",
		MaxRounds:    DefaultMaxRounds,
		MaxToolCalls: DefaultMaxToolCalls,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithName sets the name of the agent, used in logs and metrics.
func WithName(name string) Option {
	return func(o *Config) {
		o.Name = name
	}
}

// WithMaxRounds bounds the number of LLM round trips per question.
func WithMaxRounds(rounds int) Option {
	return func(o *Config) {
		if rounds > 0 {
			o.MaxRounds = rounds
		}
	}
}

// WithMaxToolCalls bounds the number of tool executions per question.
func WithMaxToolCalls(calls int) Option {
	return func(o *Config) {
		if calls > 0 {
			o.MaxToolCalls = calls
		}
	}
}

// WithFormatter sets the model used for the final formatting call.
func WithFormatter(model llms.Model) Option {
	return func(o *Config) {
		o.Formatter = model
	}
}

// WithSkipFormatting disables the final formatting call.
func WithSkipFormatting(skip bool) Option {
	return func(o *Config) {
		o.SkipFormatting = skip
	}
}

// WithCallback sets the callback handler.
func WithCallback(callback Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callback
	}
}

// WithStore sets the message store the run transcript is persisted to.
func WithStore(st store.MessageStore) Option {
	return func(o *Config) {
		o.Store = st
	}
}
