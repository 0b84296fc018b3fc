package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/telhawk-systems/telhawk-soc/common/middleware"
)

func TestNewWithWriter(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantJSON bool
	}{
		{name: "json", format: "json", wantJSON: true},
		{name: "text", format: "text", wantJSON: false},
		{name: "text uppercase", format: "TEXT", wantJSON: false},
		{name: "empty defaults to json", format: "", wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, slog.LevelInfo, tt.format)
			logger.Info("hello", "k", "v")

			var entry map[string]any
			isJSON := json.Unmarshal(buf.Bytes(), &entry) == nil
			if isJSON != tt.wantJSON {
				t.Errorf("json output = %v, want %v (%s)", isJSON, tt.wantJSON, buf.String())
			}
		})
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil || logger.Logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-abc")
	logger.InfoContext(ctx, "ingested")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-abc"`) {
		t.Errorf("expected request id in output, got: %s", out)
	}

	buf.Reset()
	logger.InfoContext(context.Background(), "ingested")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request id in output: %s", buf.String())
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelWarn, "json")
	ctx := context.Background()

	logger.DebugContext(ctx, "debug line")
	logger.InfoContext(ctx, "info line")
	if buf.Len() != 0 {
		t.Fatalf("expected records below warn to be dropped, got: %s", buf.String())
	}

	logger.WarnContext(ctx, "warn line")
	logger.ErrorContext(ctx, "error line")
	out := buf.String()
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "ERROR") {
		t.Errorf("expected warn and error records, got: %s", out)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json").With(Service("triage"))
	logger.Info("started")

	if !strings.Contains(buf.String(), `"service":"triage"`) {
		t.Errorf("expected service field, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	logger := New(slog.LevelInfo, "json")
	SetDefault(logger)

	if slog.Default() != logger.Logger {
		t.Error("SetDefault did not update slog.Default()")
	}
}
