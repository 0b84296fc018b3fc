package broadcast

import (
	"encoding/json"
	"time"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// EventKind names a notification type.
type EventKind string

const (
	EventNewAlert EventKind = "new_alert"
	EventNewCase  EventKind = "new_case"
)

// Notification tells dashboards that an alert (and possibly a case) was
// written. ID is always the alert id.
type Notification struct {
	Event        EventKind
	ID           int64
	Severity     models.Severity
	IncidentType models.IncidentType
	Title        string

	// Detailed notifications additionally carry alert_id, case_id (null
	// when no case was opened) and created_at.
	Detailed  bool
	CaseID    *int64
	CreatedAt time.Time
}

// AlertNotification builds the short form used by the synthetic feed.
func AlertNotification(alert *models.Alert, caseOpened bool) Notification {
	kind := EventNewAlert
	if caseOpened {
		kind = EventNewCase
	}
	return Notification{
		Event:        kind,
		ID:           alert.ID,
		Severity:     alert.Severity,
		IncidentType: alert.IncidentType,
		Title:        alert.Title,
	}
}

// IngestNotification builds the detailed form emitted by ingestion. c may be nil.
func IngestNotification(alert *models.Alert, c *models.Case) Notification {
	n := AlertNotification(alert, c != nil)
	n.Detailed = true
	n.CreatedAt = alert.CreatedAt
	if c != nil {
		id := c.ID
		n.CaseID = &id
	}
	return n
}

type shortWire struct {
	Event        EventKind           `json:"event"`
	ID           int64               `json:"id"`
	Severity     models.Severity     `json:"severity"`
	IncidentType models.IncidentType `json:"incident_type"`
	Title        string              `json:"title"`
}

type detailedWire struct {
	shortWire
	AlertID   int64  `json:"alert_id"`
	CaseID    *int64 `json:"case_id"`
	CreatedAt string `json:"created_at"`
}

// MarshalJSON renders the dashboard wire format.
func (n Notification) MarshalJSON() ([]byte, error) {
	short := shortWire{
		Event:        n.Event,
		ID:           n.ID,
		Severity:     n.Severity,
		IncidentType: n.IncidentType,
		Title:        n.Title,
	}
	if !n.Detailed {
		return json.Marshal(short)
	}
	return json.Marshal(detailedWire{
		shortWire: short,
		AlertID:   n.ID,
		CaseID:    n.CaseID,
		CreatedAt: n.CreatedAt.Format(time.RFC3339Nano),
	})
}
