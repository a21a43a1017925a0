package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rankgate/rankgate/core/events"
	"github.com/rankgate/rankgate/domain/credential"
	"github.com/rankgate/rankgate/domain/plan"
	"github.com/rankgate/rankgate/ports"
	"github.com/rs/zerolog"
)

// issueAttempts bounds retries on a fingerprint collision. With 160
// bits of token entropy a collision is practically impossible, but the
// unique constraint still has to be handled.
const issueAttempts = 3

// ErrIssueExhausted is returned when every issuance attempt collided.
var ErrIssueExhausted = errors.New("credential issuance retries exhausted")

// IssuerService provisions and revokes API credentials. It is called
// by external flows (purchase webhooks, operator CLI); the request
// path only reads what this service writes.
type IssuerService struct {
	credentials ports.CredentialStore
	accounts    ports.AccountStore
	fingerprint ports.Fingerprinter
	random      ports.Random
	idGen       ports.IDGenerator
	clock       ports.Clock
	bus         *events.Bus
	logger      zerolog.Logger
}

// IssuerDeps contains dependencies for IssuerService.
type IssuerDeps struct {
	Credentials ports.CredentialStore
	Accounts    ports.AccountStore
	Fingerprint ports.Fingerprinter
	Random      ports.Random
	IDGen       ports.IDGenerator
	Clock       ports.Clock
	Bus         *events.Bus
	Logger      zerolog.Logger
}

// NewIssuerService creates a new issuer service.
func NewIssuerService(deps IssuerDeps) *IssuerService {
	return &IssuerService{
		credentials: deps.Credentials,
		accounts:    deps.Accounts,
		fingerprint: deps.Fingerprint,
		random:      deps.Random,
		idGen:       deps.IDGen,
		clock:       deps.Clock,
		bus:         deps.Bus,
		logger:      deps.Logger,
	}
}

// Issue generates a fresh credential for an account and returns the
// full token. The token is returned exactly once; only its
// fingerprint and display prefix are persisted.
func (s *IssuerService) Issue(ctx context.Context, accountID string, tier plan.Tier) (string, credential.Credential, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return "", credential.Credential{}, fmt.Errorf("load account: %w", err)
	}

	for attempt := 0; attempt < issueAttempts; attempt++ {
		prefixRand, err := s.random.Bytes(credential.PrefixBytes)
		if err != nil {
			return "", credential.Credential{}, fmt.Errorf("generate prefix: %w", err)
		}
		suffixRand, err := s.random.Bytes(credential.SuffixBytes)
		if err != nil {
			return "", credential.Credential{}, fmt.Errorf("generate suffix: %w", err)
		}

		token, displayPrefix := credential.Assemble(prefixRand, suffixRand)

		c := credential.Credential{
			ID:          s.idGen.New(),
			AccountID:   accountID,
			Fingerprint: s.fingerprint.Fingerprint(token),
			Prefix:      displayPrefix,
			Tier:        tier,
			Active:      true,
			CreatedAt:   s.clock.Now(),
		}

		err = s.credentials.Create(ctx, c)
		if errors.Is(err, ports.ErrConflict) {
			s.logger.Warn().
				Int("attempt", attempt+1).
				Msg("fingerprint collision, regenerating token")
			continue
		}
		if err != nil {
			return "", credential.Credential{}, fmt.Errorf("store credential: %w", err)
		}

		if s.bus != nil {
			s.bus.Publish(ctx, events.Event{
				Name: events.CredentialIssued,
				Data: map[string]any{
					"credential_id": c.ID,
					"account_id":    accountID,
					"email":         account.Email,
					"tier":          tier.String(),
					"token":         token,
				},
			})
		}

		return token, c, nil
	}

	return "", credential.Credential{}, ErrIssueExhausted
}

// Revoke deactivates a credential. Idempotent; revoking twice
// succeeds.
func (s *IssuerService) Revoke(ctx context.Context, credentialID string) error {
	if err := s.credentials.Revoke(ctx, credentialID); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{
			Name: events.CredentialRevoked,
			Data: map[string]any{"credential_id": credentialID},
		})
	}
	return nil
}

// SubscribeWelcome wires the welcome notification: every issued
// credential triggers one SendWelcome through the sender.
func SubscribeWelcome(bus *events.Bus, sender ports.EmailSender) {
	bus.Subscribe(events.CredentialIssued, func(ctx context.Context, e events.Event) error {
		to, _ := e.Data["email"].(string)
		tierStr, _ := e.Data["tier"].(string)
		token, _ := e.Data["token"].(string)
		return sender.SendWelcome(ctx, to, plan.ParseTier(tierStr), token)
	})
}
