// Package runctx carries the identity of one question-answering run
// through context. Each AnswerQuestion call owns exactly one run.
package runctx

import (
	"context"
	"strconv"
	"sync"

	"github.com/effective-security/x/values"
	"github.com/effective-security/xdb/pkg/flake"
)

// RunContext is the per-question run context. It carries the run ID
// and arbitrary metadata set during the run.
type RunContext interface {
	GetRunID() string
	// GetMetadata retrieves metadata by key
	GetMetadata(key string) (value any, ok bool)
	// SetMetadata sets metadata by key
	SetMetadata(key string, value any)
}

type runContext struct {
	runID    string
	metadata sync.Map
}

func (c *runContext) GetRunID() string {
	return c.runID
}

func (c *runContext) GetMetadata(key string) (value any, ok bool) {
	return c.metadata.Load(key)
}

func (c *runContext) SetMetadata(key string, value any) {
	c.metadata.Store(key, value)
}

// NewRunContext returns a RunContext with the given run ID,
// generating one when empty.
func NewRunContext(runID string) RunContext {
	return &runContext{
		runID: values.StringsCoalesce(runID, NewRunID()),
	}
}

type contextKey int

const (
	keyContext contextKey = iota
)

// WithRunContext returns a new context with the RunContext value.
func WithRunContext(ctx context.Context, runCtx RunContext) context.Context {
	return context.WithValue(ctx, keyContext, runCtx)
}

// GetRunContext retrieves the RunContext from the context, or nil.
func GetRunContext(ctx context.Context) RunContext {
	if v, ok := ctx.Value(keyContext).(RunContext); ok {
		return v
	}
	return nil
}

// GetRunID retrieves the run ID from the provided context.
// If the context does not contain a RunContext, it returns an empty string.
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(keyContext).(RunContext); ok {
		return v.GetRunID()
	}
	return ""
}

// NewRunID generates a new run ID using the flake ID generator.
func NewRunID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}
