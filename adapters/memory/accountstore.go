package memory

import (
	"context"
	"sync"

	"github.com/rankgate/rankgate/ports"
)

// AccountStore is an in-memory implementation of ports.AccountStore.
type AccountStore struct {
	mu      sync.RWMutex
	byID    map[string]ports.Account
	byEmail map[string]string
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[string]ports.Account),
		byEmail: make(map[string]string),
	}
}

// Create stores a new account.
func (s *AccountStore) Create(ctx context.Context, a ports.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[a.Email]; exists {
		return ports.ErrConflict
	}
	s.byID[a.ID] = a
	s.byEmail[a.Email] = a.ID
	return nil
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, id string) (ports.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return ports.Account{}, ports.ErrNotFound
	}
	return a, nil
}

// GetByEmail retrieves an account by email.
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (ports.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return ports.Account{}, ports.ErrNotFound
	}
	return s.byID[id], nil
}

// SetActive flips the active flag.
func (s *AccountStore) SetActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return ports.ErrNotFound
	}
	a.Active = active
	s.byID[id] = a
	return nil
}

// Ensure interface compliance.
var _ ports.AccountStore = (*AccountStore)(nil)
