// Package e2e provides end-to-end tests for the complete RankGate flow:
// SQLite-backed stores, credential issuance, admission, and the metered
// API, including persistence across a simulated restart.
package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rankgate/rankgate/adapters/clock"
	"github.com/rankgate/rankgate/adapters/fingerprint"
	gatehttp "github.com/rankgate/rankgate/adapters/http"
	"github.com/rankgate/rankgate/adapters/idgen"
	"github.com/rankgate/rankgate/adapters/random"
	"github.com/rankgate/rankgate/adapters/sqlite"
	"github.com/rankgate/rankgate/app"
	"github.com/rankgate/rankgate/domain/plan"
	"github.com/rankgate/rankgate/ports"
	"github.com/rs/zerolog"
)

type stack struct {
	db     *sqlite.DB
	router http.Handler
	issuer *app.IssuerService
}

// newStack wires the full service against a database file. Calling it
// twice with the same path simulates a restart.
func newStack(t *testing.T, dbPath string, fc *clock.Fake) *stack {
	t.Helper()

	db, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ids := idgen.UUID{}
	credentials := sqlite.NewCredentialStore(db)

	admission := app.NewAdmissionService(app.AdmissionDeps{
		Credentials: credentials,
		Ledger:      sqlite.NewLedgerStore(db),
		Fingerprint: fingerprint.Blake2b{},
		Clock:       fc,
		IDGen:       ids,
		Logger:      zerolog.Nop(),
	}, plan.DefaultCeilings())

	issuer := app.NewIssuerService(app.IssuerDeps{
		Credentials: credentials,
		Accounts:    sqlite.NewAccountStore(db),
		Fingerprint: fingerprint.Blake2b{},
		Random:      random.Real{},
		IDGen:       ids,
		Clock:       fc,
		Logger:      zerolog.Nop(),
	})

	handler := gatehttp.NewHandler(gatehttp.HandlerDeps{
		Admission: admission,
		Monitors:  sqlite.NewMonitorStore(db),
		IDGen:     ids,
		Clock:     fc,
		Logger:    zerolog.Nop(),
	})

	return &stack{db: db, router: handler.Router(), issuer: issuer}
}

func (s *stack) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("X-API-Key", token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestE2E_QuotaSurvivesRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rankgate.db")
	fc := clock.NewFake(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	var token string

	// Phase 1: issue a free key and exhaust its quota.
	{
		s := newStack(t, dbPath, fc)

		accounts := sqlite.NewAccountStore(s.db)
		err := accounts.Create(ctx, ports.Account{
			ID: "acct-1", Email: "dev@example.com", Active: true, CreatedAt: fc.Now(),
		})
		if err != nil {
			t.Fatalf("create account: %v", err)
		}

		token, _, err = s.issuer.Issue(ctx, "acct-1", plan.TierFree)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}

		for i := 0; i < 10; i++ {
			if w := s.get("/api/locations", token); w.Code != http.StatusOK {
				t.Fatalf("call %d: status %d", i+1, w.Code)
			}
		}
		if w := s.get("/api/locations", token); w.Code != http.StatusTooManyRequests {
			t.Fatalf("11th call: status %d, want 429", w.Code)
		}

		s.db.Close()
	}

	// Phase 2: a fresh process sees the same ledger and keeps rejecting.
	{
		s := newStack(t, dbPath, fc)

		if w := s.get("/api/locations", token); w.Code != http.StatusTooManyRequests {
			t.Errorf("after restart: status %d, want 429", w.Code)
		}

		// Once the window slides the key admits again.
		fc.Advance(24*time.Hour + time.Minute)
		if w := s.get("/api/locations", token); w.Code != http.StatusOK {
			t.Errorf("after window slide: status %d, want 200", w.Code)
		}
	}
}

func TestE2E_RevocationTakesEffectImmediately(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rankgate.db")
	fc := clock.NewFake(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	s := newStack(t, dbPath, fc)

	accounts := sqlite.NewAccountStore(s.db)
	if err := accounts.Create(ctx, ports.Account{
		ID: "acct-1", Email: "dev@example.com", Active: true, CreatedAt: fc.Now(),
	}); err != nil {
		t.Fatalf("create account: %v", err)
	}

	token, c, err := s.issuer.Issue(ctx, "acct-1", plan.TierPro)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if w := s.get("/api/locations", token); w.Code != http.StatusOK {
		t.Fatalf("before revoke: status %d", w.Code)
	}

	if err := s.issuer.Revoke(ctx, c.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if w := s.get("/api/locations", token); w.Code != http.StatusUnauthorized {
		t.Errorf("after revoke: status %d, want 401", w.Code)
	}
}

func TestE2E_AccountSuspensionDisablesKeys(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rankgate.db")
	fc := clock.NewFake(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	s := newStack(t, dbPath, fc)

	accounts := sqlite.NewAccountStore(s.db)
	if err := accounts.Create(ctx, ports.Account{
		ID: "acct-1", Email: "dev@example.com", Active: true, CreatedAt: fc.Now(),
	}); err != nil {
		t.Fatalf("create account: %v", err)
	}

	token, _, err := s.issuer.Issue(ctx, "acct-1", plan.TierEnterprise)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := accounts.SetActive(ctx, "acct-1", false); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if w := s.get("/api/locations", token); w.Code != http.StatusUnauthorized {
		t.Errorf("suspended account: status %d, want 401", w.Code)
	}

	// Reactivation restores the key without reissuing.
	if err := accounts.SetActive(ctx, "acct-1", true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if w := s.get("/api/locations", token); w.Code != http.StatusOK {
		t.Errorf("reactivated account: status %d, want 200", w.Code)
	}
}
