package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/telhawk-systems/telhawk-soc/common/httputil"
	"github.com/telhawk-systems/telhawk-soc/common/logging"
	"github.com/telhawk-systems/telhawk-soc/common/messaging"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/dashboard"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/repository"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/service"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

type Options struct {
	MaxBodyBytes int64

	// Messaging is reported by the health check. Nil means disabled.
	Messaging messaging.Client

	Logger *slog.Logger
}

type TriageHandler struct {
	service   *service.TriageService
	dashboard *dashboard.Aggregator
	messaging messaging.Client
	maxBody   int64
	logger    *slog.Logger
}

func NewTriageHandler(svc *service.TriageService, agg *dashboard.Aggregator, opts Options) *TriageHandler {
	h := &TriageHandler{
		service:   svc,
		dashboard: agg,
		messaging: opts.Messaging,
		maxBody:   opts.MaxBodyBytes,
		logger:    opts.Logger,
	}
	if h.maxBody <= 0 {
		h.maxBody = DefaultMaxBodyBytes
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// writeServiceError maps service and repository errors to HTTP statuses.
func (h *TriageHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		msg := strings.TrimPrefix(err.Error(), service.ErrInvalidArgument.Error()+": ")
		httputil.WriteError(w, http.StatusBadRequest, msg)
	case errors.Is(err, repository.ErrClientNotFound),
		errors.Is(err, repository.ErrCaseNotFound),
		errors.Is(err, repository.ErrTaskNotFound),
		errors.Is(err, repository.ErrAlertNotFound):
		httputil.WriteError(w, http.StatusNotFound, notFoundMessage(err))
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			logging.Method(r.Method),
			logging.Path(r.URL.Path),
			logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

func notFoundMessage(err error) string {
	for _, target := range []error{
		repository.ErrClientNotFound,
		repository.ErrCaseNotFound,
		repository.ErrTaskNotFound,
		repository.ErrAlertNotFound,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "not found"
}

// pathID parses a positive integer path value.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, ok := httputil.ParseID(r.PathValue(name))
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// HealthCheck pings the store and reports broker connectivity.
func (h *TriageHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	broker := messaging.CheckHealth(h.messaging)
	if err := h.service.Health(r.Context()); err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unavailable",
			"error":     err.Error(),
			"messaging": broker,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"messaging": broker,
	})
}
