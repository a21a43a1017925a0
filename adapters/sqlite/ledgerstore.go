package sqlite

import (
	"context"
	"time"

	"github.com/rankgate/rankgate/domain/usage"
	"github.com/rankgate/rankgate/ports"
)

// LedgerStore implements ports.LedgerStore using SQLite.
// Usage records are append-only; there is no update or delete path.
type LedgerStore struct {
	db *DB
}

// NewLedgerStore creates a new SQLite ledger store.
func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Append stores one usage record.
func (s *LedgerStore) Append(ctx context.Context, r usage.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (id, credential_id, endpoint, latency_ms, status_code, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.CredentialID, r.Endpoint, r.LatencyMs, r.StatusCode, r.Timestamp.UTC())
	return err
}

// CountWindow counts records in the trailing window. Timestamps are
// stored in UTC; the cutoff is formatted the same way so the string
// comparison SQLite performs on DATETIME columns is well defined.
func (s *LedgerStore) CountWindow(ctx context.Context, credentialID string, now time.Time, window time.Duration) (int64, error) {
	cutoff := now.Add(-window).UTC().Format("2006-01-02 15:04:05")
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM usage_records
		WHERE credential_id = ? AND datetime(timestamp) > datetime(?)
	`, credentialID, cutoff)

	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Ensure interface compliance.
var _ ports.LedgerStore = (*LedgerStore)(nil)
