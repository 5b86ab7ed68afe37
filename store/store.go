// Package store keeps the message transcripts of agent runs, keyed by
// the run ID carried in the context.
package store

import (
	"context"

	"github.com/effective-security/gaia-agent/pkg/llms"
)

// MessageStore persists run transcripts.
type MessageStore interface {
	// Messages returns the transcript of the run in the context.
	Messages(ctx context.Context) []llms.Message
	// Add appends messages to the transcript of the run in the context.
	Add(ctx context.Context, msgs ...llms.Message) error
	// Reset drops the transcript of the run in the context.
	Reset(ctx context.Context) error
	// ListRuns returns the IDs of all stored runs.
	ListRuns(ctx context.Context) ([]string, error)
}
