package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rankgate/rankgate/ports"
)

// AccountStore implements ports.AccountStore using SQLite.
type AccountStore struct {
	db *DB
}

// NewAccountStore creates a new SQLite account store.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

// Create stores a new account.
func (s *AccountStore) Create(ctx context.Context, a ports.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, active, created_at)
		VALUES (?, ?, ?, ?)
	`, a.ID, a.Email, a.Active, a.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ports.ErrConflict
	}
	return err
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, id string) (ports.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, active, created_at FROM accounts WHERE id = ?
	`, id)
	return scanAccount(row)
}

// GetByEmail retrieves an account by email.
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (ports.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, active, created_at FROM accounts WHERE email = ?
	`, email)
	return scanAccount(row)
}

// SetActive flips the active flag.
func (s *AccountStore) SetActive(ctx context.Context, id string, active bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET active = ? WHERE id = ?
	`, active, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (ports.Account, error) {
	var a ports.Account
	err := row.Scan(&a.ID, &a.Email, &a.Active, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Account{}, ports.ErrNotFound
	}
	if err != nil {
		return ports.Account{}, err
	}
	return a, nil
}

// Ensure interface compliance.
var _ ports.AccountStore = (*AccountStore)(nil)
