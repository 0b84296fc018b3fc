package models

import "time"

// DashboardStats is the rolled-up view of today's activity.
type DashboardStats struct {
	TotalAlertsToday   int                  `json:"total_alerts_today"`
	SeverityPercent    map[Severity]float64 `json:"severity_percent"`
	LastScanSecondsAgo int64                `json:"last_scan_seconds_ago"`
	IncidentsToday     []IncidentCount      `json:"incidents_today"`
	TimelineHourly     []HourlyCases        `json:"timeline_hourly"`
	ThreatMapPoints    []ThreatMapPoint     `json:"threat_map_points"`
}

// IncidentCount is the number of alerts of one type.
type IncidentCount struct {
	IncidentType IncidentType `json:"incident_type"`
	Count        int          `json:"count"`
}

// HourlyCases counts cases opened during one hour of the day.
type HourlyCases struct {
	Hour  int `json:"hour"`
	Cases int `json:"cases"`
}

// ThreatMapPoint places an alert on the dashboard's zone/cluster grid.
type ThreatMapPoint struct {
	X            int          `json:"x"`
	Y            int          `json:"y"`
	Severity     Severity     `json:"severity"`
	IncidentType IncidentType `json:"incident_type"`
}

// ActivitySnapshot is a consistent read of one day's alerts and cases.
// Alerts are ordered newest first.
type ActivitySnapshot struct {
	Alerts []*Alert
	Cases  []*Case
}

// StartOfDay returns local midnight of the day containing t, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
