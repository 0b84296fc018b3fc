package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
)

// Event is an inbound security event. The typed fields are the ones triage
// understands; everything else a producer sends lands in Attributes.
type Event struct {
	ClientID     int64        `json:"client_id"`
	Severity     Severity     `json:"severity"`
	IncidentType IncidentType `json:"incident_type"`
	Title        string       `json:"title"`

	CaseTitle    string   `json:"case_title,omitempty"`
	Description  string   `json:"description,omitempty"`
	AnalystName  string   `json:"analyst_name,omitempty"`
	AnalystGroup string   `json:"analyst_group,omitempty"`
	SourceIP     string   `json:"source_ip,omitempty"`
	HostIP       string   `json:"host_ip,omitempty"`
	Hostname     string   `json:"hostname,omitempty"`
	Tasks        []string `json:"tasks,omitempty"`
	ForceCase    bool     `json:"force_case,omitempty"`

	Attributes map[string]any `json:"-"`

	// raw is the decoded request body, kept so evidence is stored verbatim.
	raw map[string]any
}

var eventFields = map[string]struct{}{
	"client_id": {}, "severity": {}, "incident_type": {}, "title": {},
	"case_title": {}, "description": {}, "analyst_name": {}, "analyst_group": {},
	"source_ip": {}, "host_ip": {}, "hostname": {}, "tasks": {}, "force_case": {},
}

// eventAlias has the fields of Event but none of its methods.
type eventAlias Event

// UnmarshalJSON decodes the typed fields and keeps the full body.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("event must be a JSON object")
	}

	var typed eventAlias
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	*e = Event(typed)
	e.raw = raw

	for k, v := range raw {
		if _, known := eventFields[k]; known {
			continue
		}
		if e.Attributes == nil {
			e.Attributes = make(map[string]any)
		}
		e.Attributes[k] = v
	}
	return nil
}

// MarshalJSON writes the event as a flat object.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Payload())
}

// Payload returns the event as a flat map. For decoded events this is the
// original body; otherwise it is built from the typed fields and Attributes.
func (e *Event) Payload() map[string]any {
	if e.raw != nil {
		return maps.Clone(e.raw)
	}

	out := make(map[string]any, len(e.Attributes)+8)
	maps.Copy(out, e.Attributes)
	out["client_id"] = e.ClientID
	out["severity"] = string(e.Severity)
	out["incident_type"] = string(e.IncidentType)
	out["title"] = e.Title
	setString := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	setString("case_title", e.CaseTitle)
	setString("description", e.Description)
	setString("analyst_name", e.AnalystName)
	setString("analyst_group", e.AnalystGroup)
	setString("source_ip", e.SourceIP)
	setString("host_ip", e.HostIP)
	setString("hostname", e.Hostname)
	if len(e.Tasks) > 0 {
		out["tasks"] = append([]string(nil), e.Tasks...)
	}
	if e.ForceCase {
		out["force_case"] = true
	}
	return out
}

// Validate checks the fields every event must carry.
func (e *Event) Validate() error {
	var missing []string
	if e.ClientID <= 0 {
		missing = append(missing, "client_id")
	}
	if e.Severity == "" {
		missing = append(missing, "severity")
	}
	if e.IncidentType == "" {
		missing = append(missing, "incident_type")
	}
	if e.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %v", missing)
	}
	if !e.Severity.Valid() {
		return fmt.Errorf("unknown severity %q", e.Severity)
	}
	for i, task := range e.Tasks {
		if strings.TrimSpace(task) == "" {
			return fmt.Errorf("tasks[%d]: title required", i)
		}
	}
	return nil
}
