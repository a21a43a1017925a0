package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rankgate/rankgate/domain/credential"
	"github.com/rankgate/rankgate/domain/plan"
	"github.com/rankgate/rankgate/ports"
)

// CredentialStore implements ports.CredentialStore using SQLite.
type CredentialStore struct {
	db *DB
}

// NewCredentialStore creates a new SQLite credential store.
func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Create stores a new credential.
func (s *CredentialStore) Create(ctx context.Context, c credential.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, account_id, fingerprint, prefix, tier, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.AccountID, c.Fingerprint, c.Prefix, string(c.Tier), c.Active, c.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ports.ErrConflict
	}
	return err
}

// GetByFingerprint retrieves a credential and its account's active
// flag in one query. The query shape is the same for every outcome;
// active-flag checks happen in the caller.
func (s *CredentialStore) GetByFingerprint(ctx context.Context, fp string) (credential.Credential, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.account_id, c.fingerprint, c.prefix, c.tier, c.active, c.created_at,
		       a.active
		FROM credentials c
		JOIN accounts a ON a.id = c.account_id
		WHERE c.fingerprint = ?
	`, fp)

	var c credential.Credential
	var tier string
	var accountActive bool
	err := row.Scan(&c.ID, &c.AccountID, &c.Fingerprint, &c.Prefix, &tier,
		&c.Active, &c.CreatedAt, &accountActive)
	if errors.Is(err, sql.ErrNoRows) {
		return credential.Credential{}, false, ports.ErrNotFound
	}
	if err != nil {
		return credential.Credential{}, false, err
	}
	c.Tier = plan.ParseTier(tier)
	return c, accountActive, nil
}

// GetByID retrieves a credential by ID.
func (s *CredentialStore) GetByID(ctx context.Context, id string) (credential.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, fingerprint, prefix, tier, active, created_at
		FROM credentials
		WHERE id = ?
	`, id)
	return scanCredential(row)
}

// Revoke sets the active flag false. Idempotent.
func (s *CredentialStore) Revoke(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET active = 0 WHERE id = ?
	`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Distinguish unknown ID from already-revoked: the latter
		// still matches the UPDATE, so zero rows means no such row.
		return ports.ErrNotFound
	}
	return nil
}

// ListByAccount returns all credentials for an account.
func (s *CredentialStore) ListByAccount(ctx context.Context, accountID string) ([]credential.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, fingerprint, prefix, tier, active, created_at
		FROM credentials
		WHERE account_id = ?
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []credential.Credential
	for rows.Next() {
		var c credential.Credential
		var tier string
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Fingerprint, &c.Prefix, &tier,
			&c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Tier = plan.ParseTier(tier)
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

func scanCredential(row *sql.Row) (credential.Credential, error) {
	var c credential.Credential
	var tier string
	err := row.Scan(&c.ID, &c.AccountID, &c.Fingerprint, &c.Prefix, &tier,
		&c.Active, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return credential.Credential{}, ports.ErrNotFound
	}
	if err != nil {
		return credential.Credential{}, err
	}
	c.Tier = plan.ParseTier(tier)
	return c, nil
}

// Ensure interface compliance.
var _ ports.CredentialStore = (*CredentialStore)(nil)
