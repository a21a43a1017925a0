// Package app provides application services that orchestrate domain
// logic with storage I/O.
package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rankgate/rankgate/adapters/metrics"
	"github.com/rankgate/rankgate/domain/credential"
	"github.com/rankgate/rankgate/domain/plan"
	"github.com/rankgate/rankgate/domain/quota"
	"github.com/rankgate/rankgate/domain/usage"
	"github.com/rankgate/rankgate/ports"
	"github.com/rs/zerolog"
)

// ledgerWriteTimeout bounds the fire-and-forget usage write so a slow
// store can never hold up a response that is already computed.
const ledgerWriteTimeout = 2 * time.Second

// AdmissionService decides, per request, whether a resolved credential
// may proceed, and records every metered outcome in the usage ledger.
type AdmissionService struct {
	credentials ports.CredentialStore
	ledger      ports.LedgerStore
	fingerprint ports.Fingerprinter
	clock       ports.Clock
	idGen       ports.IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Collector

	// Ceilings are hot-reloadable; reads go through an atomic
	// snapshot so config reloads never race request handling.
	ceilings atomic.Pointer[plan.Ceilings]
}

// AdmissionDeps contains dependencies for AdmissionService.
type AdmissionDeps struct {
	Credentials ports.CredentialStore
	Ledger      ports.LedgerStore
	Fingerprint ports.Fingerprinter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      zerolog.Logger
	Metrics     *metrics.Collector
}

// NewAdmissionService creates a new admission service.
func NewAdmissionService(deps AdmissionDeps, ceilings plan.Ceilings) *AdmissionService {
	s := &AdmissionService{
		credentials: deps.Credentials,
		ledger:      deps.Ledger,
		fingerprint: deps.Fingerprint,
		clock:       deps.Clock,
		idGen:       deps.IDGen,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}
	s.UpdateCeilings(ceilings)
	return s
}

// UpdateCeilings swaps in a new ceiling table. Safe to call while
// handling requests.
func (s *AdmissionService) UpdateCeilings(c plan.Ceilings) {
	s.ceilings.Store(&c)
}

// Ceilings returns the current ceiling table.
func (s *AdmissionService) Ceilings() plan.Ceilings {
	return *s.ceilings.Load()
}

// Resolve maps a presented token to credential info. Returns nil for
// an unknown fingerprint, a revoked credential, or an inactive owning
// account; the three cases are indistinguishable to the caller. A
// storage error also resolves to nil (fail closed) and is logged.
func (s *AdmissionService) Resolve(ctx context.Context, token string) *credential.Info {
	fp := s.fingerprint.Fingerprint(token)

	c, accountActive, err := s.credentials.GetByFingerprint(ctx, fp)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.Error().Err(err).Msg("credential lookup failed")
		}
		return nil
	}
	if !credential.Resolvable(c, accountActive) {
		return nil
	}
	return &credential.Info{
		CredentialID: c.ID,
		AccountID:    c.AccountID,
		Tier:         c.Tier,
	}
}

// Evaluate computes the admission decision for a resolved credential
// against the trailing 24-hour window. The count is read before the
// current request is recorded, so two concurrent requests near the
// ceiling can both be admitted; the window is approximate by design.
func (s *AdmissionService) Evaluate(ctx context.Context, info *credential.Info) (quota.Decision, error) {
	used, err := s.ledger.CountWindow(ctx, info.CredentialID, s.clock.Now(), quota.Window)
	if err != nil {
		return quota.Decision{}, err
	}
	d := quota.Evaluate(s.Ceilings(), info.Tier, used)
	if !d.Admitted && s.metrics != nil {
		s.metrics.QuotaRejections.WithLabelValues(info.Tier.String()).Inc()
	}
	return d, nil
}

// RecordOutcome appends exactly one usage record for a metered
// request. Write failures are logged and swallowed: the response is
// already determined, and an occasional undercount is preferred over
// blocking or double-writing.
func (s *AdmissionService) RecordOutcome(credentialID, endpoint string, latency time.Duration, statusCode int) {
	ctx, cancel := context.WithTimeout(context.Background(), ledgerWriteTimeout)
	defer cancel()

	r := usage.Record{
		ID:           s.idGen.New(),
		CredentialID: credentialID,
		Endpoint:     endpoint,
		LatencyMs:    latency.Milliseconds(),
		StatusCode:   statusCode,
		Timestamp:    s.clock.Now(),
	}
	if err := s.ledger.Append(ctx, r); err != nil {
		s.logger.Warn().
			Err(err).
			Str("credential_id", credentialID).
			Str("endpoint", endpoint).
			Msg("dropping usage record, ledger write failed")
		if s.metrics != nil {
			s.metrics.LedgerWriteFailures.Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.LedgerWrites.Inc()
	}
}

// UsageStats returns the current window stats for a credential, as
// reported by GET /api/usage.
func (s *AdmissionService) UsageStats(ctx context.Context, info *credential.Info) (usage.Stats, error) {
	used, err := s.ledger.CountWindow(ctx, info.CredentialID, s.clock.Now(), quota.Window)
	if err != nil {
		return usage.Stats{}, err
	}
	d := quota.Evaluate(s.Ceilings(), info.Tier, used)
	return usage.Stats{
		TotalCalls: d.Used,
		PlanTier:   d.Tier.String(),
		RateLimit:  d.Ceiling,
		Remaining:  d.Remaining,
		PeriodDays: 1,
	}, nil
}
