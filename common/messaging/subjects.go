package messaging

// Subject names follow {domain}.{resource}.{action}.
const (
	// SubjectMonitorNotify carries dashboard notifications between replicas.
	// Every replica subscribes and delivers to its own websocket sessions.
	SubjectMonitorNotify = "triage.monitor.notify"

	// Lifecycle subjects for downstream consumers (SIEM forwarders, pagers).
	SubjectAlertsCreated   = "triage.alerts.created"
	SubjectCasesCreated    = "triage.cases.created"
	SubjectCasesDispatched = "triage.cases.dispatched"
)

// HeaderOrigin identifies the replica that published a message.
const HeaderOrigin = "Triage-Origin"
