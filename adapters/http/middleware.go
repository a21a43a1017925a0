package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rankgate/rankgate/domain/credential"
	"github.com/rankgate/rankgate/domain/quota"
)

type ctxKey int

const credentialKey ctxKey = 0

// credentialFrom returns the resolved credential stashed by Meter, or
// nil when the request carried no resolvable key.
func credentialFrom(ctx context.Context) *credential.Info {
	info, _ := ctx.Value(credentialKey).(*credential.Info)
	return info
}

// withCredential stashes a resolved credential. Exported to tests via
// the handlers only; production requests always go through Meter.
func withCredential(ctx context.Context, info *credential.Info) context.Context {
	return context.WithValue(ctx, credentialKey, info)
}

// statusRecorder captures the status code and stamps X-Response-Time
// at the moment the header is flushed, since headers cannot be set
// afterwards.
type statusRecorder struct {
	http.ResponseWriter
	start       time.Time
	status      int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(status int) {
	if sr.wroteHeader {
		return
	}
	sr.wroteHeader = true
	sr.status = status
	sr.Header().Set("X-Response-Time", time.Since(sr.start).Round(time.Microsecond).String())
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.wroteHeader {
		sr.WriteHeader(http.StatusOK)
	}
	return sr.ResponseWriter.Write(b)
}

// Meter is the admission middleware. Only the /api subtree is metered;
// everything else passes through untouched.
//
// A request with a missing or unresolvable key is forwarded unmetered
// with no credential in context; the handlers decide whether to reject
// it. Over-quota requests are rejected here with 429 and still appear
// in the ledger.
func (h *Handler) Meter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()

		token := r.Header.Get(h.authHeader)
		var info *credential.Info
		if token != "" {
			info = h.admission.Resolve(r.Context(), token)
			if info == nil && h.metrics != nil {
				h.metrics.UnresolvedCredentials.Inc()
			}
		}

		if info == nil {
			next.ServeHTTP(w, r)
			return
		}

		decision, err := h.admission.Evaluate(r.Context(), info)
		if err != nil {
			h.logger.Error().Err(err).
				Str("credential_id", info.CredentialID).
				Msg("quota evaluation failed")
			writeInternalError(w, r)
			return
		}

		if !decision.Admitted {
			h.writeQuotaExceeded(w, decision)
			latency := time.Since(start)
			h.admission.RecordOutcome(info.CredentialID, r.URL.Path, latency, http.StatusTooManyRequests)
			if h.metrics != nil {
				h.metrics.ObserveRequest(r.URL.Path, http.StatusTooManyRequests, decision.Tier.String(), latency)
			}
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(decision.Ceiling, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.RemainingAfter(), 10))
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(quota.ResetSeconds))

		if h.metrics != nil {
			h.metrics.RequestsInFlight.Inc()
		}

		sr := &statusRecorder{ResponseWriter: w, start: start, status: http.StatusOK}
		next.ServeHTTP(sr, r.WithContext(withCredential(r.Context(), info)))

		latency := time.Since(start)
		h.admission.RecordOutcome(info.CredentialID, r.URL.Path, latency, sr.status)
		if h.metrics != nil {
			h.metrics.RequestsInFlight.Dec()
			h.metrics.ObserveRequest(r.URL.Path, sr.status, decision.Tier.String(), latency)
		}
	})
}

func (h *Handler) writeQuotaExceeded(w http.ResponseWriter, d quota.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(d.Ceiling, 10))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(quota.ResetSeconds))
	writeJSON(w, http.StatusTooManyRequests, QuotaExceededResponse{
		Error:    "Rate limit exceeded",
		Plan:     d.Tier.String(),
		Limit:    d.Ceiling,
		Used:     d.Used,
		ResetsIn: "24 hours",
	})
}

// requireCredential fetches the resolved credential or writes the 401
// response. Handlers call it first thing.
func (h *Handler) requireCredential(w http.ResponseWriter, r *http.Request) *credential.Info {
	info := credentialFrom(r.Context())
	if info == nil {
		writeError(w, r, http.StatusUnauthorized, "Invalid or missing API key", map[string]any{
			"header": h.authHeader,
		})
		return nil
	}
	return info
}
