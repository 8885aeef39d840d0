// Package mediaindex tracks which media ids the platform currently knows
// about. Token validation cross-checks it so tokens for purged media stop
// validating. The Redis index is shared across replicas; the memory index
// backs no-db mode and tests.
package mediaindex

import (
	"context"
	"sync"
)

type Memory struct {
	mu    sync.RWMutex
	known map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{known: make(map[string]struct{})}
}

func (m *Memory) Add(ctx context.Context, mediaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.known[mediaID] = struct{}{}
	return nil
}

func (m *Memory) Remove(ctx context.Context, mediaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.known, mediaID)
	return nil
}

func (m *Memory) IsKnown(ctx context.Context, mediaID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.known[mediaID]
	return ok, nil
}
