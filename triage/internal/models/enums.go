package models

// Severity ranks an alert or case.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// AllSeverities lists every severity from most to least urgent.
var AllSeverities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Escalates reports whether alerts of this severity always open a case.
func (s Severity) Escalates() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// IncidentType classifies an alert. The set is open: producers may send
// types not listed here.
type IncidentType string

const (
	IncidentBruteForce        IncidentType = "BRUTE_FORCE"
	IncidentSQLInjection      IncidentType = "SQL_INJECTION"
	IncidentXSS               IncidentType = "XSS"
	IncidentPathTraversal     IncidentType = "PATH_TRAVERSAL"
	IncidentSuspiciousService IncidentType = "SUSPICIOUS_SERVICE"
	IncidentWindowsService    IncidentType = "WINDOWS_SERVICE"
	IncidentDDoSBot           IncidentType = "DDOS_BOT"
	IncidentDataTheft         IncidentType = "DATA_THEFT"
	IncidentPhishing          IncidentType = "PHISHING"
	IncidentInsider           IncidentType = "INSIDER"
	IncidentCryptojack        IncidentType = "CRYPTOJACK"
)

// CaseStatus is the investigation lifecycle state.
type CaseStatus string

const (
	StatusOpen       CaseStatus = "OPEN"
	StatusInProgress CaseStatus = "IN_PROGRESS"
	StatusResolved   CaseStatus = "RESOLVED"
)

// Valid reports whether s is a known status.
func (s CaseStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// CanTransitionTo reports whether a case may move from s to next.
// Status only moves forward one step; staying put is always allowed.
func (s CaseStatus) CanTransitionTo(next CaseStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusOpen:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusResolved
	}
	return false
}

// Verdict is an analyst's conclusion about a case.
type Verdict string

const (
	VerdictTruePositive  Verdict = "TRUE_POSITIVE"
	VerdictFalsePositive Verdict = "FALSE_POSITIVE"
	VerdictDuplicate     Verdict = "DUPLICATE"
	VerdictOther         Verdict = "OTHER"
)

// Valid reports whether v is a known verdict.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictTruePositive, VerdictFalsePositive, VerdictDuplicate, VerdictOther:
		return true
	}
	return false
}

// DispatchChannel names an outbound notification channel.
type DispatchChannel string

const (
	ChannelTelegram DispatchChannel = "TELEGRAM"
	ChannelSIEM     DispatchChannel = "SIEM"
)

// Valid reports whether c is a supported channel.
func (c DispatchChannel) Valid() bool {
	return c == ChannelTelegram || c == ChannelSIEM
}
