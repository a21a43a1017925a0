// Package usage provides usage record types and aggregation functions.
// All functions are pure - no side effects.
package usage

import "time"

// Record is one ledger entry per metered request (immutable value
// type). Records are append-only and never mutated or deleted.
type Record struct {
	ID           string
	CredentialID string
	Endpoint     string
	LatencyMs    int64
	StatusCode   int
	Timestamp    time.Time
}

// Stats is aggregated usage for one credential over a trailing period
// (value type).
type Stats struct {
	TotalCalls int64
	PlanTier   string
	RateLimit  int64
	Remaining  int64
	PeriodDays int
}

// CountInWindow counts records with a timestamp inside (now-window,
// now]. Used by the in-memory ledger and by tests; the SQLite ledger
// pushes the same predicate into SQL.
func CountInWindow(records []Record, credentialID string, now time.Time, window time.Duration) int64 {
	cutoff := now.Add(-window)
	var n int64
	for _, r := range records {
		if r.CredentialID != credentialID {
			continue
		}
		if r.Timestamp.After(cutoff) && !r.Timestamp.After(now) {
			n++
		}
	}
	return n
}

// IsError reports whether a status code counts as an error response.
func IsError(statusCode int) bool {
	return statusCode >= 400
}
