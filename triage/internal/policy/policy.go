// Package policy decides whether an inbound event opens a case.
package policy

import (
	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// MaxTasks caps the checklist a case receives from an event.
const MaxTasks = 5

// Decision is the outcome of triaging one event.
type Decision struct {
	Escalate bool

	// Case is populated only when Escalate is true. ID, timestamps and
	// ClientID are left for the store to fill.
	Case *models.Case

	// Tasks are the initial checklist titles, at most MaxTasks.
	Tasks []string
}

// Decide escalates events of CRITICAL or HIGH severity, or that carry
// force_case. It is deterministic.
func Decide(event *models.Event) Decision {
	if !event.Severity.Escalates() && !event.ForceCase {
		return Decision{}
	}

	c := &models.Case{
		ClientID:     event.ClientID,
		Severity:     event.Severity,
		IncidentType: event.IncidentType,
		Status:       models.StatusOpen,
		Verdict:      models.VerdictOther,
		Title:        firstNonEmpty(event.CaseTitle, event.Title),
		Description:  firstNonEmpty(event.Description, models.DefaultCaseDescription),
		AnalystName:  firstNonEmpty(event.AnalystName, models.DefaultAnalystName),
		AnalystGroup: firstNonEmpty(event.AnalystGroup, models.DefaultAnalystGroup),
		SourceIP:     event.SourceIP,
		HostIP:       event.HostIP,
		Hostname:     event.Hostname,
		Evidence:     event.Payload(),
	}

	tasks := event.Tasks
	if len(tasks) > MaxTasks {
		tasks = tasks[:MaxTasks]
	}

	return Decision{
		Escalate: true,
		Case:     c,
		Tasks:    append([]string(nil), tasks...),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
