// Package events publishes triage lifecycle messages for downstream
// consumers such as SIEM forwarders.
package events

import "time"

// AlertCreatedEvent is published to triage.alerts.created.
type AlertCreatedEvent struct {
	AlertID      int64     `json:"alert_id"`
	ClientID     int64     `json:"client_id"`
	Severity     string    `json:"severity"`
	IncidentType string    `json:"incident_type"`
	Title        string    `json:"title"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

// CaseCreatedEvent is published to triage.cases.created.
type CaseCreatedEvent struct {
	CaseID       int64     `json:"case_id"`
	AlertID      int64     `json:"alert_id"`
	ClientID     int64     `json:"client_id"`
	Severity     string    `json:"severity"`
	IncidentType string    `json:"incident_type"`
	Title        string    `json:"title"`
	TaskCount    int       `json:"task_count"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

// CaseDispatchedEvent is published to triage.cases.dispatched.
type CaseDispatchedEvent struct {
	DispatchID int64     `json:"dispatch_id"`
	CaseID     int64     `json:"case_id"`
	Channel    string    `json:"channel"`
	Recipients []string  `json:"recipients"`
	SentAt     time.Time `json:"sent_at"`
}
