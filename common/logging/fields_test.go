package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestStringFields(t *testing.T) {
	tests := []struct {
		name  string
		attr  slog.Attr
		key   string
		value string
	}{
		{"service", Service("triage"), FieldService, "triage"},
		{"severity", Severity("CRITICAL"), FieldSeverity, "CRITICAL"},
		{"incident type", IncidentType("SQL_INJECTION"), FieldIncidentType, "SQL_INJECTION"},
		{"channel", Channel("TELEGRAM"), FieldChannel, "TELEGRAM"},
		{"subscriber", Subscriber("sub-1"), FieldSubscriber, "sub-1"},
		{"ip", IP("10.5.1.20"), FieldIP, "10.5.1.20"},
		{"method", Method("POST"), FieldMethod, "POST"},
		{"path", Path("/api/ingest/"), FieldPath, "/api/ingest/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, tt.attr.Key)
			}
			if tt.attr.Value.String() != tt.value {
				t.Errorf("expected value %q, got %q", tt.value, tt.attr.Value.String())
			}
		})
	}
}

func TestIDFields(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want int64
	}{
		{"client", ClientID(1), FieldClientID, 1},
		{"alert", AlertID(42), FieldAlertID, 42},
		{"case", CaseID(7), FieldCaseID, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, tt.attr.Key)
			}
			if tt.attr.Value.Int64() != tt.want {
				t.Errorf("expected %d, got %d", tt.want, tt.attr.Value.Int64())
			}
		})
	}
}

func TestStatus(t *testing.T) {
	attr := Status(404)
	if attr.Key != FieldStatus || attr.Value.Int64() != 404 {
		t.Errorf("unexpected attr %v", attr)
	}
}

func TestError(t *testing.T) {
	attr := Error(errors.New("tx aborted"))
	if attr.Key != FieldError {
		t.Errorf("expected key %q, got %q", FieldError, attr.Key)
	}
	if attr.Value.String() != "tx aborted" {
		t.Errorf("expected %q, got %q", "tx aborted", attr.Value.String())
	}

	if Error(nil).Value.String() != "" {
		t.Error("nil error should render empty")
	}
}
