package logging

import "log/slog"

// Field names shared by every triage component.
const (
	FieldService      = "service"
	FieldRequestID    = "request_id"
	FieldClientID     = "client_id"
	FieldAlertID      = "alert_id"
	FieldCaseID       = "case_id"
	FieldSeverity     = "severity"
	FieldIncidentType = "incident_type"
	FieldChannel      = "channel"
	FieldSubscriber   = "subscriber"
	FieldIP           = "ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatus       = "status"
	FieldError        = "error"
)

// Service returns the service name attribute.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

func ClientID(id int64) slog.Attr {
	return slog.Int64(FieldClientID, id)
}

func AlertID(id int64) slog.Attr {
	return slog.Int64(FieldAlertID, id)
}

func CaseID(id int64) slog.Attr {
	return slog.Int64(FieldCaseID, id)
}

func Severity(s string) slog.Attr {
	return slog.String(FieldSeverity, s)
}

func IncidentType(t string) slog.Attr {
	return slog.String(FieldIncidentType, t)
}

func Channel(c string) slog.Attr {
	return slog.String(FieldChannel, c)
}

func Subscriber(id string) slog.Attr {
	return slog.String(FieldSubscriber, id)
}

func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Error returns the error attribute. A nil error renders as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}
