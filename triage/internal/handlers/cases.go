package handlers

import (
	"net/http"

	"github.com/telhawk-systems/telhawk-soc/common/httputil"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// ListCases handles GET /api/cases/ with optional incident_type, severity,
// status, verdict, today, client and limit filters.
func (h *TriageHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.CaseFilter{
		IncidentType: models.IncidentType(q.Get("incident_type")),
		Severity:     models.Severity(q.Get("severity")),
		Status:       models.CaseStatus(q.Get("status")),
		Verdict:      models.Verdict(q.Get("verdict")),
		Limit:        httputil.ParseIntParam(q.Get("limit"), 0),
	}
	if q.Get("client") != "" {
		id, ok := httputil.ParseID(q.Get("client"))
		if !ok {
			httputil.WriteError(w, http.StatusBadRequest, "invalid client")
			return
		}
		filter.ClientID = id
	}
	if httputil.ParseBoolParam(q.Get("today")) {
		filter.Since = h.service.StartOfToday()
	}

	cases, err := h.service.ListCases(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cases)
}

func (h *TriageHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.service.GetCase(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// UpdateCase handles PATCH /api/cases/{id}/. Only status, verdict, title,
// description, analyst_name and analyst_group are applied.
func (h *TriageHandler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var patch models.CasePatch
	if err := httputil.DecodeJSON(w, r, &patch, h.maxBody); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := h.service.UpdateCase(r.Context(), id, patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

type addTaskRequest struct {
	Title string `json:"title"`
}

func (h *TriageHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req addTaskRequest
	if err := httputil.DecodeJSON(w, r, &req, h.maxBody); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := h.service.AddTask(r.Context(), caseID, req.Title)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "task_id": task.ID})
}

func (h *TriageHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "task_id")
	if !ok {
		return
	}

	task, err := h.service.ToggleTask(r.Context(), caseID, taskID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "done": task.Done})
}

type dispatchRequest struct {
	Channel    models.DispatchChannel `json:"channel"`
	Recipients []string               `json:"recipients"`
}

// Dispatch handles POST /api/cases/{id}/dispatch/.
func (h *TriageHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req dispatchRequest
	if err := httputil.DecodeJSON(w, r, &req, h.maxBody); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	d, err := h.service.Dispatch(r.Context(), caseID, req.Channel, req.Recipients)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "dispatch_id": d.ID})
}
