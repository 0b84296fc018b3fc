package handlers

import (
	"net/http"

	"github.com/telhawk-systems/telhawk-soc/common/httputil"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

type ingestResponse struct {
	OK      bool   `json:"ok"`
	AlertID int64  `json:"alert_id"`
	CaseID  *int64 `json:"case_id"`
}

// Ingest accepts one security event.
func (h *TriageHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := httputil.DecodeJSON(w, r, &event, h.maxBody); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.service.Ingest(r.Context(), &event)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ingestResponse{
		OK:      true,
		AlertID: result.AlertID,
		CaseID:  result.CaseID,
	})
}
