package presence

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type Memory struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]string
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[uuid.UUID]string)}
}

func (m *Memory) Set(_ context.Context, userID uuid.UUID, connID string) error {
	m.mu.Lock()
	m.entries[userID] = connID
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, userID uuid.UUID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	connID, ok := m.entries[userID]
	return connID, ok
}

func (m *Memory) Remove(_ context.Context, userID uuid.UUID, connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.entries[userID]; !ok || current != connID {
		return false
	}
	delete(m.entries, userID)
	return true
}

func (m *Memory) Has(ctx context.Context, userID uuid.UUID) bool {
	_, ok := m.Get(ctx, userID)
	return ok
}
