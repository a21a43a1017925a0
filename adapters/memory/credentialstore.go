// Package memory provides in-memory implementations of storage ports,
// used in tests and for running without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rankgate/rankgate/domain/credential"
	"github.com/rankgate/rankgate/ports"
)

// CredentialStore is an in-memory implementation of
// ports.CredentialStore backed by an AccountStore for the active-flag
// join.
type CredentialStore struct {
	mu       sync.RWMutex
	byID     map[string]credential.Credential
	byFP     map[string]string // fingerprint -> id
	accounts *AccountStore
}

// NewCredentialStore creates a new in-memory credential store.
func NewCredentialStore(accounts *AccountStore) *CredentialStore {
	return &CredentialStore{
		byID:     make(map[string]credential.Credential),
		byFP:     make(map[string]string),
		accounts: accounts,
	}
}

// Create stores a new credential.
func (s *CredentialStore) Create(ctx context.Context, c credential.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byFP[c.Fingerprint]; exists {
		return ports.ErrConflict
	}
	s.byID[c.ID] = c
	s.byFP[c.Fingerprint] = c.ID
	return nil
}

// GetByFingerprint retrieves a credential and its account's active flag.
func (s *CredentialStore) GetByFingerprint(ctx context.Context, fp string) (credential.Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byFP[fp]
	if !ok {
		return credential.Credential{}, false, ports.ErrNotFound
	}
	c := s.byID[id]

	accountActive := false
	if s.accounts != nil {
		if a, err := s.accounts.Get(ctx, c.AccountID); err == nil {
			accountActive = a.Active
		}
	}
	return c, accountActive, nil
}

// GetByID retrieves a credential by ID.
func (s *CredentialStore) GetByID(ctx context.Context, id string) (credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return credential.Credential{}, ports.ErrNotFound
	}
	return c, nil
}

// Revoke sets the active flag false. Idempotent.
func (s *CredentialStore) Revoke(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return ports.ErrNotFound
	}
	c.Active = false
	s.byID[id] = c
	return nil
}

// ListByAccount returns all credentials for an account, newest first.
func (s *CredentialStore) ListByAccount(ctx context.Context, accountID string) ([]credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var creds []credential.Credential
	for _, c := range s.byID {
		if c.AccountID == accountID {
			creds = append(creds, c)
		}
	}
	sort.Slice(creds, func(i, j int) bool {
		return creds[i].CreatedAt.After(creds[j].CreatedAt)
	})
	return creds, nil
}

// Ensure interface compliance.
var _ ports.CredentialStore = (*CredentialStore)(nil)
