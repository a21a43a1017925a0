// Package email provides EmailSender implementations. Outbound
// delivery is not part of the gateway; the log sender records intent
// and the mock captures messages for tests.
package email

import (
	"context"
	"fmt"
	"sync"

	"github.com/rankgate/rankgate/domain/plan"
	"github.com/rankgate/rankgate/ports"
	"github.com/rs/zerolog"
)

// LogSender logs each message instead of delivering it. Used when no
// provider is configured.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("email delivery not configured, dropping message")
	return nil
}

// SendWelcome logs the welcome notification. The token itself is never
// logged.
func (s *LogSender) SendWelcome(ctx context.Context, to string, tier plan.Tier, token string) error {
	s.logger.Info().
		Str("to", to).
		Str("tier", tier.String()).
		Msg("would send welcome email with new API key")
	return nil
}

// Ensure interface compliance.
var _ ports.EmailSender = (*LogSender)(nil)

// MockSender stores sent messages in memory for testing.
type MockSender struct {
	mu   sync.Mutex
	sent []SentEmail
	Fail bool
}

// SentEmail is one captured message.
type SentEmail struct {
	To      string
	Subject string
	Tier    plan.Tier
	Token   string
}

// NewMockSender creates a new mock sender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send captures the message.
func (m *MockSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("mock email send failure")
	}
	m.sent = append(m.sent, SentEmail{To: msg.To, Subject: msg.Subject})
	return nil
}

// SendWelcome captures the welcome notification.
func (m *MockSender) SendWelcome(ctx context.Context, to string, tier plan.Tier, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("mock email send failure")
	}
	m.sent = append(m.sent, SentEmail{To: to, Subject: "welcome", Tier: tier, Token: token})
	return nil
}

// Sent returns a copy of captured messages.
func (m *MockSender) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail{}, m.sent...)
}

// Ensure interface compliance.
var _ ports.EmailSender = (*MockSender)(nil)
