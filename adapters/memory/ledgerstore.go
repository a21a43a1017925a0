package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rankgate/rankgate/domain/usage"
	"github.com/rankgate/rankgate/ports"
)

// LedgerStore is an in-memory implementation of ports.LedgerStore.
type LedgerStore struct {
	mu      sync.RWMutex
	records []usage.Record

	// failAppends makes Append fail (for testing the fire-and-forget
	// write path).
	failAppends bool
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{records: make([]usage.Record, 0)}
}

// Append stores one usage record.
func (s *LedgerStore) Append(ctx context.Context, r usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAppends {
		return errors.New("ledger unavailable")
	}
	s.records = append(s.records, r)
	return nil
}

// CountWindow counts records in the trailing window.
func (s *LedgerStore) CountWindow(ctx context.Context, credentialID string, now time.Time, window time.Duration) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return usage.CountInWindow(s.records, credentialID, now, window), nil
}

// All returns a copy of every record (for testing).
func (s *LedgerStore) All() []usage.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]usage.Record{}, s.records...)
}

// FailAppends toggles append failures (for testing).
func (s *LedgerStore) FailAppends(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAppends = fail
}

// Ensure interface compliance.
var _ ports.LedgerStore = (*LedgerStore)(nil)
