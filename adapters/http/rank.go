package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rankgate/rankgate/domain/rank"
	"github.com/rankgate/rankgate/ports"
)

// reportDays is the trailing period a ranking report covers.
const reportDays = 7

// CheckRankingRequest is the body of POST /api/check-ranking.
type CheckRankingRequest struct {
	Domain    string   `json:"domain"`
	Keyword   string   `json:"keyword"`
	Locations []string `json:"locations"`
}

// CheckRankingResponse is the body returned by POST /api/check-ranking.
// Results holds one entry per requested location, in request order:
// a ranking for supported locations, an error marker for the rest.
type CheckRankingResponse struct {
	Domain    string `json:"domain"`
	Keyword   string `json:"keyword"`
	CheckedAt string `json:"checked_at"`
	Results   []any  `json:"results"`
}

// UnsupportedLocation marks one rejected location inside an otherwise
// successful ranking check.
type UnsupportedLocation struct {
	Location string `json:"location"`
	Error    string `json:"error"`
}

// MonitorRequest is the body of POST /api/monitor.
type MonitorRequest struct {
	Domain    string   `json:"domain"`
	Keywords  []string `json:"keywords"`
	Locations []string `json:"locations"`
}

// MonitorResponse is the body returned by POST /api/monitor.
type MonitorResponse struct {
	Message        string `json:"message"`
	MonitorID      string `json:"monitor_id"`
	Domain         string `json:"domain"`
	KeywordsCount  int    `json:"keywords_count"`
	LocationsCount int    `json:"locations_count"`
	NextCheck      string `json:"next_check"`
}

// LocationsResponse is the body returned by GET /api/locations.
type LocationsResponse struct {
	Count     int      `json:"count"`
	Locations []string `json:"locations"`
}

// ReportResponse is the body returned by GET /api/report/{monitorID}.
type ReportResponse struct {
	MonitorID   string                    `json:"monitor_id"`
	Domain      string                    `json:"domain"`
	GeneratedAt string                    `json:"generated_at"`
	Period      string                    `json:"period"`
	Data        map[string][]rank.Ranking `json:"data"`
}

// UsageResponse is the body returned by GET /api/usage.
type UsageResponse struct {
	TotalCalls int64  `json:"total_calls"`
	PlanTier   string `json:"plan_tier"`
	RateLimit  int64  `json:"rate_limit"`
	Remaining  int64  `json:"remaining"`
	PeriodDays int    `json:"period_days"`
}

func (h *Handler) checkRanking(w http.ResponseWriter, r *http.Request) {
	if h.requireCredential(w, r) == nil {
		return
	}

	var req CheckRankingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "Invalid request body", map[string]any{
			"reason": err.Error(),
		})
		return
	}
	if details := validateCheckRanking(req); len(details) > 0 {
		writeError(w, r, http.StatusUnprocessableEntity, "Validation failed", details)
		return
	}

	results := make([]any, 0, len(req.Locations))
	for _, loc := range req.Locations {
		if !rank.IsSupportedLocation(loc) {
			results = append(results, UnsupportedLocation{
				Location: loc,
				Error:    "Unsupported location",
			})
			continue
		}
		results = append(results, rank.Generate(req.Domain, req.Keyword, loc, 0))
	}

	writeJSON(w, http.StatusOK, CheckRankingResponse{
		Domain:    req.Domain,
		Keyword:   req.Keyword,
		CheckedAt: h.clock.Now().UTC().Format(time.RFC3339),
		Results:   results,
	})
}

func validateCheckRanking(req CheckRankingRequest) map[string]any {
	details := map[string]any{}
	if req.Domain == "" {
		details["domain"] = "required"
	}
	if req.Keyword == "" {
		details["keyword"] = "required"
	}
	if len(req.Locations) == 0 {
		details["locations"] = "at least one location required"
	}
	return details
}

func (h *Handler) createMonitor(w http.ResponseWriter, r *http.Request) {
	if h.requireCredential(w, r) == nil {
		return
	}

	var req MonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "Invalid request body", map[string]any{
			"reason": err.Error(),
		})
		return
	}
	details := map[string]any{}
	if req.Domain == "" {
		details["domain"] = "required"
	}
	if len(req.Keywords) == 0 {
		details["keywords"] = "at least one keyword required"
	}
	if len(req.Locations) == 0 {
		details["locations"] = "at least one location required"
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusUnprocessableEntity, "Validation failed", details)
		return
	}

	now := h.clock.Now()
	m := rank.Monitor{
		ID:        shortID(h.idGen.New()),
		Domain:    req.Domain,
		Keywords:  req.Keywords,
		Locations: req.Locations,
		Status:    rank.MonitorStatusActive,
		CreatedAt: now,
	}
	if err := h.monitors.Put(r.Context(), m); err != nil {
		h.logger.Error().Err(err).Str("domain", m.Domain).Msg("monitor store failed")
		writeInternalError(w, r)
		return
	}

	writeJSON(w, http.StatusOK, MonitorResponse{
		Message:        "Monitoring started",
		MonitorID:      m.ID,
		Domain:         m.Domain,
		KeywordsCount:  len(m.Keywords),
		LocationsCount: len(m.Locations),
		NextCheck:      now.Add(time.Hour).UTC().Format(time.RFC3339),
	})
}

// shortID truncates a UUID to its first hex group for user-facing
// monitor IDs.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	if h.requireCredential(w, r) == nil {
		return
	}
	writeJSON(w, http.StatusOK, LocationsResponse{
		Count:     len(rank.SupportedLocations),
		Locations: rank.SupportedLocations,
	})
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	if h.requireCredential(w, r) == nil {
		return
	}

	monitorID := chi.URLParam(r, "monitorID")
	m, err := h.monitors.Get(r.Context(), monitorID)
	if err != nil {
		// Unknown monitors fall back to a canned example so the
		// report endpoint is explorable without registering first.
		m = rank.Monitor{
			ID:        monitorID,
			Domain:    "example.com",
			Keywords:  []string{"seo tools", "rank tracker"},
			Locations: []string{"New York", "London", "Tokyo"},
		}
		if !errorsIsNotFound(err) {
			h.logger.Error().Err(err).Str("monitor_id", monitorID).Msg("monitor lookup failed")
		}
	}

	now := h.clock.Now()
	data := make(map[string][]rank.Ranking, len(m.Keywords))
	for _, kw := range m.Keywords {
		for _, loc := range m.Locations {
			data[kw] = append(data[kw], rank.History(m.Domain, kw, loc, reportDays, now)...)
		}
	}

	writeJSON(w, http.StatusOK, ReportResponse{
		MonitorID:   monitorID,
		Domain:      m.Domain,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Period:      "last_7_days",
		Data:        data,
	})
}

func (h *Handler) getUsage(w http.ResponseWriter, r *http.Request) {
	info := h.requireCredential(w, r)
	if info == nil {
		return
	}

	stats, err := h.admission.UsageStats(r.Context(), info)
	if err != nil {
		h.logger.Error().Err(err).Str("credential_id", info.CredentialID).Msg("usage stats failed")
		writeInternalError(w, r)
		return
	}

	writeJSON(w, http.StatusOK, UsageResponse{
		TotalCalls: stats.TotalCalls,
		PlanTier:   stats.PlanTier,
		RateLimit:  stats.RateLimit,
		Remaining:  stats.Remaining,
		PeriodDays: stats.PeriodDays,
	})
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, ports.ErrNotFound)
}
