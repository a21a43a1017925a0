// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/rankgate/rankgate/domain/credential"
	"github.com/rankgate/rankgate/domain/plan"
	"github.com/rankgate/rankgate/domain/rank"
	"github.com/rankgate/rankgate/domain/usage"
)

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique constraint is violated
	// (in practice: a credential fingerprint collision).
	ErrConflict = errors.New("already exists")
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// Random abstracts randomness for testability.
type Random interface {
	// Bytes generates n random bytes.
	Bytes(n int) ([]byte, error)
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Fingerprinter derives the one-way lookup fingerprint of a secret
// token. The derivation is deterministic so the fingerprint can carry
// a unique index, and one-way so the secret is never stored.
type Fingerprinter interface {
	Fingerprint(token string) string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// CredentialStore persists issued API credentials.
type CredentialStore interface {
	// Create stores a new credential. Returns ErrConflict when the
	// fingerprint is already taken.
	Create(ctx context.Context, c credential.Credential) error

	// GetByFingerprint retrieves a credential together with its
	// owning account's active flag. Returns ErrNotFound when no
	// credential has the fingerprint. The active flags are NOT
	// filtered here: the caller checks both uniformly so the query
	// shape is identical for unknown and revoked credentials.
	GetByFingerprint(ctx context.Context, fingerprint string) (credential.Credential, bool, error)

	// GetByID retrieves a credential by ID.
	GetByID(ctx context.Context, id string) (credential.Credential, error)

	// Revoke sets the active flag false. Idempotent: revoking an
	// already-revoked credential is not an error. Returns ErrNotFound
	// for an unknown ID.
	Revoke(ctx context.Context, id string) error

	// ListByAccount returns all credentials for an account.
	ListByAccount(ctx context.Context, accountID string) ([]credential.Credential, error)
}

// Account identifies a billing entity. Owned by account management;
// the gateway only reads the active flag through the credential join.
type Account struct {
	ID        string
	Email     string
	Active    bool
	CreatedAt time.Time
}

// AccountStore persists accounts at the provisioning boundary.
type AccountStore interface {
	// Create stores a new account. Returns ErrConflict on a duplicate
	// email.
	Create(ctx context.Context, a Account) error

	// Get retrieves an account by ID.
	Get(ctx context.Context, id string) (Account, error)

	// GetByEmail retrieves an account by email.
	GetByEmail(ctx context.Context, email string) (Account, error)

	// SetActive flips the active flag.
	SetActive(ctx context.Context, id string, active bool) error
}

// LedgerStore is the append-only usage ledger.
type LedgerStore interface {
	// Append stores one usage record. Exactly one call is made per
	// metered request; the caller never retries, so a failed write
	// undercounts rather than double-counting.
	Append(ctx context.Context, r usage.Record) error

	// CountWindow counts records for a credential with a timestamp in
	// the trailing window, measured from now at call time.
	CountWindow(ctx context.Context, credentialID string, now time.Time, window time.Duration) (int64, error)
}

// MonitorStore persists rank monitors. Injected rather than held in a
// process-wide map so handlers stay testable without restarts.
type MonitorStore interface {
	// Put stores a monitor.
	Put(ctx context.Context, m rank.Monitor) error

	// Get retrieves a monitor by ID. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (rank.Monitor, error)
}

// -----------------------------------------------------------------------------
// Notification Ports
// -----------------------------------------------------------------------------

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To       string
	Subject  string
	TextBody string
}

// EmailSender sends transactional notifications. The gateway itself
// only triggers the welcome message on credential issuance; delivery
// belongs to an external provider.
type EmailSender interface {
	// Send sends an email.
	Send(ctx context.Context, msg EmailMessage) error

	// SendWelcome sends the welcome notification for a freshly issued
	// credential. The raw token is included because this is the only
	// moment it exists outside the caller.
	SendWelcome(ctx context.Context, to string, tier plan.Tier, token string) error
}
