package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/telhawk-soc/common/middleware"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/handlers"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/ratelimit"
)

// RouterConfig carries the cross-cutting pieces wrapped around the API.
type RouterConfig struct {
	// Limiter guards the ingestion endpoint. Nil disables rate limiting.
	Limiter ratelimit.RateLimiter
	CORS    middleware.CORSConfig
	Logger  *slog.Logger
}

// DefaultCORS allows the dashboard frontend to call the API.
func DefaultCORS(origins []string) middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         600,
	}
}

// NewRouter constructs a ServeMux with the triage API, the monitor stream
// and operational endpoints registered.
func NewRouter(h *handlers.TriageHandler, stream http.Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NoOpRateLimiter{}
	}

	mux := http.NewServeMux()

	// Event intake
	mux.Handle("POST /api/ingest/{$}", ratelimit.Middleware(limiter, "ingest", logger)(http.HandlerFunc(h.Ingest)))

	// Cases
	mux.HandleFunc("GET /api/cases/{$}", h.ListCases)
	mux.HandleFunc("GET /api/cases/{id}/{$}", h.GetCase)
	mux.HandleFunc("PATCH /api/cases/{id}/{$}", h.UpdateCase)
	mux.HandleFunc("POST /api/cases/{id}/tasks/add/{$}", h.AddTask)
	mux.HandleFunc("POST /api/cases/{id}/tasks/{task_id}/toggle/{$}", h.ToggleTask)
	mux.HandleFunc("POST /api/cases/{id}/dispatch/{$}", h.Dispatch)

	// Alerts and reference data
	mux.HandleFunc("GET /api/alerts/{$}", h.ListAlerts)
	mux.HandleFunc("PATCH /api/alerts/{id}/{$}", h.UpdateAlert)
	mux.HandleFunc("GET /api/rules/{$}", h.ListRules)
	mux.HandleFunc("GET /api/clients/{$}", h.ListClients)
	mux.HandleFunc("GET /api/employees/{$}", h.ListEmployees)
	mux.HandleFunc("GET /api/audit/{$}", h.ListAuditLog)

	// Dashboard and reporting
	mux.HandleFunc("GET /api/dashboard/{$}", h.Dashboard)
	mux.HandleFunc("GET /api/reports/today.csv", h.ExportTodayCases)

	// Live monitor stream
	mux.Handle("GET /ws/monitor/{$}", stream)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", h.HealthCheck)

	var handler http.Handler = mux
	handler = middleware.AccessLog(logger)(handler)
	handler = middleware.CORS(cfg.CORS)(handler)
	return middleware.RequestID(handler)
}
