package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rankgate/rankgate/adapters/clock"
	"github.com/rankgate/rankgate/adapters/fingerprint"
	gatehttp "github.com/rankgate/rankgate/adapters/http"
	"github.com/rankgate/rankgate/adapters/idgen"
	"github.com/rankgate/rankgate/adapters/memory"
	"github.com/rankgate/rankgate/app"
	"github.com/rankgate/rankgate/domain/credential"
	"github.com/rankgate/rankgate/domain/plan"
	"github.com/rankgate/rankgate/ports"
	"github.com/rs/zerolog"
)

type fixture struct {
	router   http.Handler
	clock    *clock.Fake
	ledger   *memory.LedgerStore
	creds    *memory.CredentialStore
	accts    *memory.AccountStore
	monitors *memory.MonitorStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fc := clock.NewFake(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	accts := memory.NewAccountStore()
	creds := memory.NewCredentialStore(accts)
	ledger := memory.NewLedgerStore()
	monitors := memory.NewMonitorStore()
	ids := idgen.NewSequential("id_")

	admission := app.NewAdmissionService(app.AdmissionDeps{
		Credentials: creds,
		Ledger:      ledger,
		Fingerprint: fingerprint.Blake2b{},
		Clock:       fc,
		IDGen:       ids,
		Logger:      zerolog.Nop(),
	}, plan.DefaultCeilings())

	handler := gatehttp.NewHandler(gatehttp.HandlerDeps{
		Admission: admission,
		Monitors:  monitors,
		IDGen:     ids,
		Clock:     fc,
		Logger:    zerolog.Nop(),
	})

	return &fixture{
		router:   handler.Router(),
		clock:    fc,
		ledger:   ledger,
		creds:    creds,
		accts:    accts,
		monitors: monitors,
	}
}

func (f *fixture) seedKey(t *testing.T, token string, tier plan.Tier) {
	t.Helper()
	ctx := context.Background()

	accountID := "acct-" + token
	err := f.accts.Create(ctx, ports.Account{
		ID: accountID, Email: accountID + "@example.com", Active: true, CreatedAt: f.clock.Now(),
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	err = f.creds.Create(ctx, credential.Credential{
		ID:          "cred-" + token,
		AccountID:   accountID,
		Fingerprint: fingerprint.Blake2b{}.Fingerprint(token),
		Tier:        tier,
		Active:      true,
		CreatedAt:   f.clock.Now(),
	})
	if err != nil {
		t.Fatalf("seed credential: %v", err)
	}
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("X-API-Key", token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return m
}

func TestMeter_FreeTierExhaustion(t *testing.T) {
	f := newFixture(t)
	f.seedKey(t, "free-key", plan.TierFree)

	// Ten calls pass, with the remaining header counting down.
	for i := 0; i < 10; i++ {
		w := f.do(http.MethodGet, "/api/locations", "free-key", "")
		if w.Code != http.StatusOK {
			t.Fatalf("call %d: status %d, want 200", i+1, w.Code)
		}
		wantRemaining := fmt.Sprintf("%d", 9-i)
		if got := w.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("call %d: remaining = %s, want %s", i+1, got, wantRemaining)
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("call %d: limit = %s, want 10", i+1, got)
		}
	}

	// The eleventh is rejected with the quota body.
	w := f.do(http.MethodGet, "/api/locations", "free-key", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("11th call: status %d, want 429", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "Rate limit exceeded" {
		t.Errorf("error = %v", body["error"])
	}
	if body["plan"] != "free" {
		t.Errorf("plan = %v, want free", body["plan"])
	}
	if body["limit"] != float64(10) {
		t.Errorf("limit = %v, want 10", body["limit"])
	}
	if body["used"] != float64(10) {
		t.Errorf("used = %v, want 10", body["used"])
	}
	if body["resets_in"] != "24 hours" {
		t.Errorf("resets_in = %v", body["resets_in"])
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("remaining = %s, want 0", got)
	}
	if got := w.Header().Get("X-RateLimit-Reset"); got != "86400" {
		t.Errorf("reset = %s, want 86400", got)
	}

	// The rejection itself is in the ledger.
	records := f.ledger.All()
	if len(records) != 11 {
		t.Fatalf("got %d ledger records, want 11", len(records))
	}
	if records[10].StatusCode != http.StatusTooManyRequests {
		t.Errorf("last record status = %d, want 429", records[10].StatusCode)
	}
}

func TestMeter_WindowSlides(t *testing.T) {
	f := newFixture(t)
	f.seedKey(t, "free-key", plan.TierFree)

	for i := 0; i < 10; i++ {
		f.do(http.MethodGet, "/api/locations", "free-key", "")
	}
	if w := f.do(http.MethodGet, "/api/locations", "free-key", ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", w.Code)
	}

	f.clock.Advance(24*time.Hour + time.Minute)

	if w := f.do(http.MethodGet, "/api/locations", "free-key", ""); w.Code != http.StatusOK {
		t.Errorf("after window slide: status %d, want 200", w.Code)
	}
}

func TestMeter_RevokedKeyGets401AndNoRecord(t *testing.T) {
	f := newFixture(t)
	f.seedKey(t, "gone-key", plan.TierStarter)
	if err := f.creds.Revoke(context.Background(), "cred-gone-key"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	w := f.do(http.MethodGet, "/api/locations", "gone-key", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if body["error"] != "Invalid or missing API key" {
		t.Errorf("error = %v", body["error"])
	}
	if body["path"] != "/api/locations" {
		t.Errorf("path = %v", body["path"])
	}

	if got := len(f.ledger.All()); got != 0 {
		t.Errorf("unresolved request must not be metered, got %d records", got)
	}
}

func TestMeter_MissingKeyGets401(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/locations", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
	if got := len(f.ledger.All()); got != 0 {
		t.Errorf("got %d ledger records, want 0", got)
	}
}

func TestMeter_HealthExemptFromMetering(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "" {
		t.Errorf("health should carry no quota headers, got limit %s", got)
	}
	if got := len(f.ledger.All()); got != 0 {
		t.Errorf("got %d ledger records, want 0", got)
	}
}

func TestMeter_ExactlyOneRecordPerRequest(t *testing.T) {
	f := newFixture(t)
	f.seedKey(t, "pro-key", plan.TierPro)

	w := f.do(http.MethodGet, "/api/locations", "pro-key", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}

	records := f.ledger.All()
	if len(records) != 1 {
		t.Fatalf("got %d records, want exactly 1", len(records))
	}
	r := records[0]
	if r.CredentialID != "cred-pro-key" {
		t.Errorf("credential = %s", r.CredentialID)
	}
	if r.Endpoint != "/api/locations" {
		t.Errorf("endpoint = %s", r.Endpoint)
	}
	if r.StatusCode != http.StatusOK {
		t.Errorf("status = %d", r.StatusCode)
	}

	if got := w.Header().Get("X-RateLimit-Remaining"); got != "4999" {
		t.Errorf("remaining = %s, want 4999", got)
	}
}

func TestMeter_LedgerFailureDoesNotBlockResponse(t *testing.T) {
	f := newFixture(t)
	f.seedKey(t, "pro-key", plan.TierPro)
	f.ledger.FailAppends(true)

	w := f.do(http.MethodGet, "/api/locations", "pro-key", "")
	if w.Code != http.StatusOK {
		t.Errorf("status %d, want 200 despite ledger failure", w.Code)
	}
	if got := len(f.ledger.All()); got != 0 {
		t.Errorf("got %d records, want 0", got)
	}
}

func TestMeter_ConcurrentNearCeiling(t *testing.T) {
	f := newFixture(t)
	f.seedKey(t, "free-key", plan.TierFree)

	for i := 0; i < 9; i++ {
		f.do(http.MethodGet, "/api/locations", "free-key", "")
	}

	// Ten concurrent requests against one remaining slot. The count is
	// read before the write, so more than one may slip through, but
	// never fewer.
	var wg sync.WaitGroup
	codes := make([]int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = f.do(http.MethodGet, "/api/locations", "free-key", "").Code
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			admitted++
		case http.StatusTooManyRequests:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if admitted < 1 {
		t.Errorf("admitted %d, want at least 1", admitted)
	}
}

func TestMeter_SetsResponseTimeHeader(t *testing.T) {
	f := newFixture(t)
	f.seedKey(t, "pro-key", plan.TierPro)

	w := f.do(http.MethodGet, "/api/locations", "pro-key", "")
	if got := w.Header().Get("X-Response-Time"); got == "" {
		t.Error("missing X-Response-Time header")
	}
}
