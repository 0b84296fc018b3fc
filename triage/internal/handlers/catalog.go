package handlers

import (
	"bytes"
	"net/http"

	"github.com/telhawk-systems/telhawk-soc/common/httputil"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// clientParam reads the optional client query parameter.
func clientParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("client")
	if raw == "" {
		return 0, true
	}
	id, ok := httputil.ParseID(raw)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "invalid client")
		return 0, false
	}
	return id, true
}

// ListAlerts handles GET /api/alerts/ with optional incident_type,
// severity, today, client and limit filters.
func (h *TriageHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	clientID, ok := clientParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := models.AlertFilter{
		ClientID:     clientID,
		IncidentType: models.IncidentType(q.Get("incident_type")),
		Severity:     models.Severity(q.Get("severity")),
		Limit:        httputil.ParseIntParam(q.Get("limit"), 0),
	}
	if httputil.ParseBoolParam(q.Get("today")) {
		filter.Since = h.service.StartOfToday()
	}

	alerts, err := h.service.ListAlerts(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alerts)
}

type alertPatch struct {
	IsFalsePositive *bool `json:"is_false_positive"`
}

// UpdateAlert handles PATCH /api/alerts/{id}/. Only is_false_positive can change.
func (h *TriageHandler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var patch alertPatch
	if err := httputil.DecodeJSON(w, r, &patch, h.maxBody); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if patch.IsFalsePositive == nil {
		httputil.WriteError(w, http.StatusBadRequest, "is_false_positive required")
		return
	}

	alert, err := h.service.SetAlertFalsePositive(r.Context(), id, *patch.IsFalsePositive)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, alert)
}

func (h *TriageHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.ListRules(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rules)
}

func (h *TriageHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, clients)
}

func (h *TriageHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	clientID, ok := clientParam(w, r)
	if !ok {
		return
	}
	employees, err := h.service.ListEmployees(r.Context(), clientID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employees)
}

func (h *TriageHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := httputil.ParseIntParam(r.URL.Query().Get("limit"), 100)
	entries, err := h.service.ListAuditLog(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// Dashboard handles GET /api/dashboard/?client=N.
func (h *TriageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	clientID, ok := clientParam(w, r)
	if !ok {
		return
	}
	if clientID != 0 {
		if _, err := h.service.GetClient(r.Context(), clientID); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}

	stats, err := h.dashboard.Compute(r.Context(), clientID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// ExportTodayCases handles GET /api/reports/today.csv.
func (h *TriageHandler) ExportTodayCases(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportTodayCases(r.Context(), &buf); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=today_cases.csv")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
