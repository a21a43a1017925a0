package memory

import (
	"context"
	"sync"

	"github.com/rankgate/rankgate/domain/rank"
	"github.com/rankgate/rankgate/ports"
)

// MonitorStore is an in-memory implementation of ports.MonitorStore.
type MonitorStore struct {
	mu       sync.RWMutex
	monitors map[string]rank.Monitor
}

// NewMonitorStore creates a new in-memory monitor store.
func NewMonitorStore() *MonitorStore {
	return &MonitorStore{monitors: make(map[string]rank.Monitor)}
}

// Put stores a monitor.
func (s *MonitorStore) Put(ctx context.Context, m rank.Monitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitors[m.ID] = m
	return nil
}

// Get retrieves a monitor by ID.
func (s *MonitorStore) Get(ctx context.Context, id string) (rank.Monitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.monitors[id]
	if !ok {
		return rank.Monitor{}, ports.ErrNotFound
	}
	return m, nil
}

// Ensure interface compliance.
var _ ports.MonitorStore = (*MonitorStore)(nil)
