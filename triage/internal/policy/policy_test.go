package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

func TestDecide_Escalation(t *testing.T) {
	tests := []struct {
		name      string
		severity  models.Severity
		forceCase bool
		want      bool
	}{
		{"critical", models.SeverityCritical, false, true},
		{"high", models.SeverityHigh, false, true},
		{"medium", models.SeverityMedium, false, false},
		{"low", models.SeverityLow, false, false},
		{"forced medium", models.SeverityMedium, true, true},
		{"forced low", models.SeverityLow, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &models.Event{
				ClientID:     1,
				Severity:     tt.severity,
				IncidentType: models.IncidentXSS,
				Title:        "x",
				ForceCase:    tt.forceCase,
			}

			// Repeated calls must agree.
			for range 20 {
				d := Decide(event)
				assert.Equal(t, tt.want, d.Escalate)
				assert.Equal(t, tt.want, d.Case != nil)
			}
		})
	}
}

func TestDecide_Defaults(t *testing.T) {
	event := &models.Event{
		ClientID:     7,
		Severity:     models.SeverityHigh,
		IncidentType: models.IncidentBruteForce,
		Title:        "Brute-force login attempts",
	}

	d := Decide(event)
	require.True(t, d.Escalate)

	c := d.Case
	assert.Equal(t, int64(7), c.ClientID)
	assert.Equal(t, "Brute-force login attempts", c.Title)
	assert.Equal(t, models.DefaultCaseDescription, c.Description)
	assert.Equal(t, models.DefaultAnalystName, c.AnalystName)
	assert.Equal(t, models.DefaultAnalystGroup, c.AnalystGroup)
	assert.Equal(t, models.StatusOpen, c.Status)
	assert.Equal(t, models.VerdictOther, c.Verdict)
	assert.Empty(t, c.SourceIP)
	assert.Empty(t, c.HostIP)
	assert.Empty(t, c.Hostname)
	assert.Empty(t, d.Tasks)
}

func TestDecide_CaseFieldsFromEvent(t *testing.T) {
	body := `{
		"client_id": 1,
		"severity": "CRITICAL",
		"incident_type": "SQL_INJECTION",
		"title": "SQLi attempt",
		"case_title": "SQLi on web endpoint",
		"description": "Payload hit /login",
		"analyst_name": "Dana M.",
		"analyst_group": "SOC L2",
		"source_ip": "185.10.1.2",
		"host_ip": "10.5.3.4",
		"hostname": "WEB-01",
		"tasks": ["a", "b", "c", "d", "e", "f"],
		"origin_zone": 2
	}`
	var event models.Event
	require.NoError(t, json.Unmarshal([]byte(body), &event))

	d := Decide(&event)
	require.True(t, d.Escalate)

	c := d.Case
	assert.Equal(t, models.SeverityCritical, c.Severity)
	assert.Equal(t, models.IncidentSQLInjection, c.IncidentType)
	assert.Equal(t, "SQLi on web endpoint", c.Title)
	assert.Equal(t, "Payload hit /login", c.Description)
	assert.Equal(t, "Dana M.", c.AnalystName)
	assert.Equal(t, "SOC L2", c.AnalystGroup)
	assert.Equal(t, "185.10.1.2", c.SourceIP)
	assert.Equal(t, "10.5.3.4", c.HostIP)
	assert.Equal(t, "WEB-01", c.Hostname)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, d.Tasks)

	assert.Equal(t, event.Payload(), c.Evidence)
	assert.Equal(t, json.Number("2"), c.Evidence["origin_zone"])
}

func TestDecide_TaskCap(t *testing.T) {
	tests := []struct {
		name  string
		tasks []string
		want  int
	}{
		{"none", nil, 0},
		{"three", []string{"1", "2", "3"}, 3},
		{"five", []string{"1", "2", "3", "4", "5"}, 5},
		{"seven", []string{"1", "2", "3", "4", "5", "6", "7"}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &models.Event{
				ClientID:     1,
				Severity:     models.SeverityCritical,
				IncidentType: models.IncidentXSS,
				Title:        "x",
				Tasks:        tt.tasks,
			}
			d := Decide(event)
			assert.Len(t, d.Tasks, tt.want)
		})
	}
}

func TestDecide_TasksDoNotAliasEvent(t *testing.T) {
	event := &models.Event{
		ClientID:     1,
		Severity:     models.SeverityHigh,
		IncidentType: models.IncidentXSS,
		Title:        "x",
		Tasks:        []string{"a", "b"},
	}
	d := Decide(event)
	d.Tasks[0] = "changed"
	assert.Equal(t, "a", event.Tasks[0])
}
