package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity(t *testing.T) {
	tests := []struct {
		severity  Severity
		valid     bool
		escalates bool
	}{
		{SeverityCritical, true, true},
		{SeverityHigh, true, true},
		{SeverityMedium, true, false},
		{SeverityLow, true, false},
		{"INFO", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.severity.Valid())
			assert.Equal(t, tt.escalates, tt.severity.Escalates())
		})
	}
}

func TestCaseStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to CaseStatus
		want     bool
	}{
		{StatusOpen, StatusOpen, true},
		{StatusOpen, StatusInProgress, true},
		{StatusOpen, StatusResolved, false},
		{StatusInProgress, StatusResolved, true},
		{StatusInProgress, StatusOpen, false},
		{StatusResolved, StatusInProgress, false},
		{StatusResolved, StatusResolved, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestDispatchChannel_Valid(t *testing.T) {
	assert.True(t, ChannelTelegram.Valid())
	assert.True(t, ChannelSIEM.Valid())
	assert.False(t, DispatchChannel("PAGERDUTY").Valid())
	assert.False(t, DispatchChannel("telegram").Valid())
}

func TestVerdict_Valid(t *testing.T) {
	for _, v := range []Verdict{VerdictTruePositive, VerdictFalsePositive, VerdictDuplicate, VerdictOther} {
		assert.True(t, v.Valid(), v)
	}
	assert.False(t, Verdict("MAYBE").Valid())
}

func TestClient_SLA(t *testing.T) {
	c := &Client{Name: "Aster Bank"}
	c.ApplySLADefaults()

	assert.Equal(t, time.Hour, c.SLA(SeverityCritical))
	assert.Equal(t, 4*time.Hour, c.SLA(SeverityHigh))
	assert.Equal(t, 8*time.Hour, c.SLA(SeverityMedium))
	assert.Equal(t, 24*time.Hour, c.SLA(SeverityLow))

	c.SLACriticalMinutes = 15
	c.ApplySLADefaults()
	assert.Equal(t, 15*time.Minute, c.SLA(SeverityCritical))
}

func TestCase_ApplyDefaults(t *testing.T) {
	c := &Case{}
	c.ApplyDefaults()

	assert.Equal(t, StatusOpen, c.Status)
	assert.Equal(t, VerdictOther, c.Verdict)
	assert.Equal(t, DefaultAnalystName, c.AnalystName)
	assert.Equal(t, DefaultAnalystGroup, c.AnalystGroup)
}

func TestCasePatch_Empty(t *testing.T) {
	assert.True(t, CasePatch{}.Empty())
	title := "renamed"
	assert.False(t, CasePatch{Title: &title}.Empty())
}

func TestEvent_UnmarshalJSON(t *testing.T) {
	body := `{
		"client_id": 1,
		"severity": "CRITICAL",
		"incident_type": "SQL_INJECTION",
		"title": "SQLi attempt",
		"case_title": "SQLi on web endpoint",
		"tasks": ["a", "b"],
		"force_case": true,
		"origin_zone": 3,
		"url": "/login?id=1' OR '1'='1"
	}`

	var e Event
	require.NoError(t, json.Unmarshal([]byte(body), &e))

	assert.Equal(t, int64(1), e.ClientID)
	assert.Equal(t, SeverityCritical, e.Severity)
	assert.Equal(t, IncidentSQLInjection, e.IncidentType)
	assert.Equal(t, "SQLi on web endpoint", e.CaseTitle)
	assert.Equal(t, []string{"a", "b"}, e.Tasks)
	assert.True(t, e.ForceCase)

	require.Len(t, e.Attributes, 2)
	assert.Equal(t, json.Number("3"), e.Attributes["origin_zone"])
	assert.Equal(t, "/login?id=1' OR '1'='1", e.Attributes["url"])

	payload := e.Payload()
	assert.Len(t, payload, 9)
	assert.Equal(t, "SQLi attempt", payload["title"])
	assert.Equal(t, json.Number("1"), payload["client_id"])
}

func TestEvent_UnmarshalJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not an object", `[1,2]`},
		{"null", `null`},
		{"wrong client type", `{"client_id":"abc"}`},
		{"malformed", `{"client_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Event
			assert.Error(t, json.Unmarshal([]byte(tt.body), &e))
		})
	}
}

func TestEvent_PayloadConstructed(t *testing.T) {
	e := &Event{
		ClientID:     2,
		Severity:     SeverityLow,
		IncidentType: IncidentXSS,
		Title:        "x",
		Hostname:     "WEB-01",
		Attributes:   map[string]any{"target_cluster": 4},
	}

	payload := e.Payload()
	assert.Equal(t, map[string]any{
		"client_id":      int64(2),
		"severity":       "LOW",
		"incident_type":  "XSS",
		"title":          "x",
		"hostname":       "WEB-01",
		"target_cluster": 4,
	}, payload)

	payload["title"] = "mutated"
	assert.Equal(t, "x", e.Title)
}

func TestEvent_PayloadIsCopy(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(`{"client_id":1,"severity":"LOW","incident_type":"XSS","title":"x"}`), &e))

	p := e.Payload()
	p["title"] = "changed"
	assert.Equal(t, "x", e.Payload()["title"])
}

func TestEvent_Validate(t *testing.T) {
	valid := Event{ClientID: 1, Severity: SeverityLow, IncidentType: IncidentXSS, Title: "x"}

	tests := []struct {
		name    string
		mutate  func(e *Event)
		wantErr string
	}{
		{"valid", func(e *Event) {}, ""},
		{"missing client", func(e *Event) { e.ClientID = 0 }, "client_id"},
		{"missing severity", func(e *Event) { e.Severity = "" }, "severity"},
		{"missing incident type", func(e *Event) { e.IncidentType = "" }, "incident_type"},
		{"missing title", func(e *Event) { e.Title = "" }, "title"},
		{"unknown severity", func(e *Event) { e.Severity = "SEVERE" }, "unknown severity"},
		{"tasks", func(e *Event) { e.Tasks = []string{"Check WAF logs", "Block IP"} }, ""},
		{"empty task", func(e *Event) { e.Tasks = []string{"a", ""} }, "tasks[1]: title required"},
		{"blank task", func(e *Event) { e.Tasks = []string{"  "} }, "tasks[0]: title required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
