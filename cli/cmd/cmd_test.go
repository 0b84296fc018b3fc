package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-soc/cli/internal/config"
	"github.com/telhawk-systems/telhawk-soc/cli/pkg/output"
)

func TestCommandsRegistered(t *testing.T) {
	expected := map[string]bool{"feed": false, "status": false, "dashboard": false, "cases": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := expected[c.Name()]; ok {
			expected[c.Name()] = true
		}
	}
	for name, found := range expected {
		assert.True(t, found, "expected command %q to be registered", name)
	}

	sub := map[string]bool{}
	for _, c := range feedCmd.Commands() {
		sub[c.Name()] = true
	}
	assert.True(t, sub["run"])
	assert.True(t, sub["scenarios"])
	assert.True(t, sub["config"])
}

func TestFeedRunFlags(t *testing.T) {
	for _, name := range []string{"url", "client", "interval", "count", "seed", "feed-config", "quiet"} {
		assert.NotNil(t, feedRunCmd.Flags().Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "q", feedRunCmd.Flags().Lookup("quiet").Shorthand)
}

func TestScenarioViews(t *testing.T) {
	views := scenarioViews()
	require.NotEmpty(t, views)

	data, err := json.Marshal(views)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"incident_type":"SQL_INJECTION"`)
}

// runCLI executes the root command against a fake API and captures output.
func runCLI(t *testing.T, handler http.Handler, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(handler)
	defer srv.Close()

	var out bytes.Buffer
	oldOut, oldNoColor := output.Out, color.NoColor
	output.Out, color.NoColor = &out, true
	defer func() { output.Out, color.NoColor = oldOut, oldNoColor }()

	cfg = config.Default()
	rootCmd.SetArgs(append(args, "--api-url", srv.URL, "--config", t.TempDir()+"/soc.yaml"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCasesList_JSON(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cases/", r.URL.Path)
		assert.Equal(t, "HIGH", r.URL.Query().Get("severity"))
		w.Write([]byte(`[{"id": 3, "severity": "HIGH", "status": "OPEN", "title": "Brute-force"}]`))
	})

	out, err := runCLI(t, handler, "cases", "list", "--severity", "HIGH", "--output", "json")
	require.NoError(t, err)

	var cases []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cases))
	require.Len(t, cases, 1)
	assert.Equal(t, float64(3), cases[0]["id"])
}

func TestStatus_Table(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "messaging": {"enabled": false, "connected": false}}`))
	})

	out, err := runCLI(t, handler, "status", "--output", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Service status: ok")
	assert.Contains(t, out, "Messaging: disabled")
}

func TestDashboard_UnknownClient(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok": false, "error": "client not found"}`))
	})

	_, err := runCLI(t, handler, "dashboard", "--client", "42", "--output", "table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client not found")
}
