package store

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/pkg/llms"
	"github.com/effective-security/gaia-agent/runctx"
)

// ErrNoRunContext is returned when the context carries no run ID.
var ErrNoRunContext = errors.New("no run context")

type inMemory struct {
	mu      sync.RWMutex
	storage map[string][]llms.Message
}

// NewMemoryStore returns an in-process MessageStore.
func NewMemoryStore() MessageStore {
	return &inMemory{}
}

func (m *inMemory) Messages(ctx context.Context) []llms.Message {
	runID := runctx.GetRunID(ctx)
	if runID == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.storage == nil {
		return nil
	}
	return m.storage[runID]
}

func (m *inMemory) Add(ctx context.Context, msgs ...llms.Message) error {
	runID := runctx.GetRunID(ctx)
	if runID == "" {
		return errors.WithStack(ErrNoRunContext)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string][]llms.Message)
	}
	m.storage[runID] = append(m.storage[runID], msgs...)
	return nil
}

func (m *inMemory) Reset(ctx context.Context) error {
	runID := runctx.GetRunID(ctx)
	if runID == "" {
		return errors.WithStack(ErrNoRunContext)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage != nil {
		delete(m.storage, runID)
	}
	return nil
}

func (m *inMemory) ListRuns(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]string, 0, len(m.storage))
	for runID := range m.storage {
		runs = append(runs, runID)
	}
	sort.Strings(runs)
	return runs, nil
}
