// Package http provides the HTTP surface of the gateway: the
// admission middleware and the metered API handlers.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rankgate/rankgate/adapters/metrics"
	"github.com/rankgate/rankgate/app"
	"github.com/rankgate/rankgate/ports"
	"github.com/rs/zerolog"
)

// DefaultAuthHeader is the request header carrying the API key.
const DefaultAuthHeader = "X-API-Key"

// HealthResponse is the health check body.
type HealthResponse struct {
	Status string `json:"status"`
}

// Handler serves the gateway API.
type Handler struct {
	admission   *app.AdmissionService
	monitors    ports.MonitorStore
	idGen       ports.IDGenerator
	clock       ports.Clock
	logger      zerolog.Logger
	metrics     *metrics.Collector
	authHeader  string
	metricsPath string
}

// HandlerDeps contains dependencies for Handler.
type HandlerDeps struct {
	Admission *app.AdmissionService
	Monitors  ports.MonitorStore
	IDGen     ports.IDGenerator
	Clock     ports.Clock
	Logger    zerolog.Logger
	Metrics   *metrics.Collector

	// AuthHeader overrides DefaultAuthHeader when non-empty.
	AuthHeader string

	// MetricsPath overrides the /metrics mount point when non-empty.
	MetricsPath string
}

// NewHandler creates a new handler.
func NewHandler(deps HandlerDeps) *Handler {
	header := deps.AuthHeader
	if header == "" {
		header = DefaultAuthHeader
	}
	metricsPath := deps.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	return &Handler{
		admission:   deps.Admission,
		monitors:    deps.Monitors,
		idGen:       deps.IDGen,
		clock:       deps.Clock,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		authHeader:  header,
		metricsPath: metricsPath,
	}
}

// Router builds the chi router with the admission middleware mounted
// in front of the metered /api subtree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.Meter)

	r.Get("/health", h.health)

	if h.metrics != nil {
		r.Method(http.MethodGet, h.metricsPath, promhttp.HandlerFor(
			h.metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/check-ranking", h.checkRanking)
		r.Post("/monitor", h.createMonitor)
		r.Get("/locations", h.listLocations)
		r.Get("/report/{monitorID}", h.getReport)
		r.Get("/usage", h.getUsage)
	})

	return r
}

// health reports liveness. Exempt from metering and logging.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
