// Package models defines the triage domain records: clients, alerts, cases
// and everything hanging off them.
package models

import "time"

// Default SLA thresholds in minutes.
const (
	DefaultSLACriticalMinutes = 60
	DefaultSLAHighMinutes     = 240
	DefaultSLAMediumMinutes   = 480
	DefaultSLALowMinutes      = 1440
)

// Client is the tenant every alert and case belongs to.
type Client struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	SLACriticalMinutes int       `json:"sla_critical_minutes"`
	SLAHighMinutes     int       `json:"sla_high_minutes"`
	SLAMediumMinutes   int       `json:"sla_medium_minutes"`
	SLALowMinutes      int       `json:"sla_low_minutes"`
	CreatedAt          time.Time `json:"created_at"`
}

// ApplySLADefaults fills any unset SLA threshold.
func (c *Client) ApplySLADefaults() {
	if c.SLACriticalMinutes <= 0 {
		c.SLACriticalMinutes = DefaultSLACriticalMinutes
	}
	if c.SLAHighMinutes <= 0 {
		c.SLAHighMinutes = DefaultSLAHighMinutes
	}
	if c.SLAMediumMinutes <= 0 {
		c.SLAMediumMinutes = DefaultSLAMediumMinutes
	}
	if c.SLALowMinutes <= 0 {
		c.SLALowMinutes = DefaultSLALowMinutes
	}
}

// SLA returns the response deadline the client expects for severity.
func (c *Client) SLA(severity Severity) time.Duration {
	var minutes int
	switch severity {
	case SeverityCritical:
		minutes = c.SLACriticalMinutes
	case SeverityHigh:
		minutes = c.SLAHighMinutes
	case SeverityMedium:
		minutes = c.SLAMediumMinutes
	default:
		minutes = c.SLALowMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// DefaultEmployeeRole is assigned when none is given.
const DefaultEmployeeRole = "SOC Analyst"

// Employee is a contact at a client who can receive dispatches.
type Employee struct {
	ID             int64  `json:"id"`
	ClientID       int64  `json:"client_id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	TelegramHandle string `json:"telegram_handle"`
	Role           string `json:"role"`
}

// Rule is a detection rule description shown to analysts.
type Rule struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	IncidentType  IncidentType `json:"incident_type"`
	Severity      Severity     `json:"severity"`
	QueryTemplate string       `json:"query_template"`
	ResponseSteps string       `json:"response_steps"`
	Enabled       bool         `json:"enabled"`
}

// Alert is a single raw detection. Only IsFalsePositive changes after creation.
type Alert struct {
	ID              int64          `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	ClientID        int64          `json:"client_id"`
	Severity        Severity       `json:"severity"`
	IncidentType    IncidentType   `json:"incident_type"`
	Title           string         `json:"title"`
	RawEvent        map[string]any `json:"raw_event"`
	IsFalsePositive bool           `json:"is_false_positive"`
}

// Case defaults.
const (
	DefaultCaseDescription = "Auto-generated case from ingested alert."
	DefaultAnalystName     = "Unassigned"
	DefaultAnalystGroup    = "SOC L1"
)

// Case is an investigation opened from an escalated alert. Severity and
// IncidentType are fixed at creation.
type Case struct {
	ID           int64          `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	ClientID     int64          `json:"client_id"`
	Severity     Severity       `json:"severity"`
	IncidentType IncidentType   `json:"incident_type"`
	Status       CaseStatus     `json:"status"`
	Verdict      Verdict        `json:"verdict"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	AnalystName  string         `json:"analyst_name"`
	AnalystGroup string         `json:"analyst_group"`
	SourceIP     string         `json:"source_ip"`
	HostIP       string         `json:"host_ip"`
	Hostname     string         `json:"hostname"`
	Evidence     map[string]any `json:"evidence"`
	Tasks        []*Task        `json:"tasks,omitempty"`
}

// ApplyDefaults fills unset lifecycle and assignment fields.
func (c *Case) ApplyDefaults() {
	if c.Status == "" {
		c.Status = StatusOpen
	}
	if c.Verdict == "" {
		c.Verdict = VerdictOther
	}
	if c.AnalystName == "" {
		c.AnalystName = DefaultAnalystName
	}
	if c.AnalystGroup == "" {
		c.AnalystGroup = DefaultAnalystGroup
	}
}

// Task is a checklist item on a case.
type Task struct {
	ID     int64  `json:"id"`
	CaseID int64  `json:"case_id"`
	Title  string `json:"title"`
	Done   bool   `json:"done"`
}

// Dispatch records that a case summary was sent to an outside channel.
// Dispatches are never modified.
type Dispatch struct {
	ID         int64           `json:"id"`
	CaseID     int64           `json:"case_id"`
	Channel    DispatchChannel `json:"channel"`
	Recipients []string        `json:"recipients"`
	SentAt     time.Time       `json:"sent_at"`
}

// DefaultAuditActor is recorded when no actor is known.
const DefaultAuditActor = "system"

// AuditLogEntry records an analyst or system action.
type AuditLogEntry struct {
	ID         int64          `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	ObjectType string         `json:"object_type"`
	ObjectID   string         `json:"object_id"`
	Details    map[string]any `json:"details"`
}

// AlertFilter narrows alert listings. Zero values match everything.
type AlertFilter struct {
	ClientID     int64
	IncidentType IncidentType
	Severity     Severity
	Since        time.Time
	Limit        int
}

// CaseFilter narrows case listings. Zero values match everything.
type CaseFilter struct {
	ClientID     int64
	IncidentType IncidentType
	Severity     Severity
	Status       CaseStatus
	Verdict      Verdict
	Since        time.Time
	Limit        int
}

// CasePatch carries analyst edits. Nil fields are left unchanged.
type CasePatch struct {
	Status       *CaseStatus `json:"status,omitempty"`
	Verdict      *Verdict    `json:"verdict,omitempty"`
	Title        *string     `json:"title,omitempty"`
	Description  *string     `json:"description,omitempty"`
	AnalystName  *string     `json:"analyst_name,omitempty"`
	AnalystGroup *string     `json:"analyst_group,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p CasePatch) Empty() bool {
	return p.Status == nil && p.Verdict == nil && p.Title == nil &&
		p.Description == nil && p.AnalystName == nil && p.AnalystGroup == nil
}
