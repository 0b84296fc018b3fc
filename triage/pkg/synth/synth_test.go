package synth

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

func TestTable_At(t *testing.T) {
	tests := []struct {
		n    int
		want models.Severity
	}{
		{0, models.SeverityCritical},
		{9, models.SeverityCritical},
		{10, models.SeverityHigh},
		{29, models.SeverityHigh},
		{30, models.SeverityMedium},
		{69, models.SeverityMedium},
		{70, models.SeverityLow},
		{99, models.SeverityLow},
	}
	require.Equal(t, 100, InProcessWeights.Total())
	for _, tt := range tests {
		assert.Equal(t, tt.want, InProcessWeights.At(tt.n), "n=%d", tt.n)
	}
}

func TestDriverWeights(t *testing.T) {
	require.Equal(t, 100, DriverWeights.Total())
	assert.Equal(t, models.SeverityLow, DriverWeights.At(31))
	assert.Equal(t, models.SeverityMedium, DriverWeights.At(32))
	assert.Equal(t, models.SeverityHigh, DriverWeights.At(72))
	assert.Equal(t, models.SeverityCritical, DriverWeights.At(92))
}

func TestNewTable_Errors(t *testing.T) {
	_, err := NewTable()
	assert.Error(t, err)

	_, err = NewTable(Weight{models.SeverityLow, 0})
	assert.Error(t, err)

	assert.Panics(t, func() { MustTable(Weight{models.SeverityLow, -1}) })
}

func TestTable_PickDistribution(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	counts := make(map[models.Severity]int)
	const draws = 20000
	for i := 0; i < draws; i++ {
		counts[InProcessWeights.Pick(r)]++
	}

	expected := map[models.Severity]float64{
		models.SeverityCritical: 0.10,
		models.SeverityHigh:     0.20,
		models.SeverityMedium:   0.40,
		models.SeverityLow:      0.30,
	}
	for sev, p := range expected {
		got := float64(counts[sev]) / draws
		assert.InDelta(t, p, got, 0.02, "severity %s", sev)
	}
}

func TestRandomDelay(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		d := RandomDelay(r, DefaultBands)
		assert.Equal(t, time.Duration(0), d%time.Second)

		band := -1
		for j, b := range DefaultBands {
			if d >= b.Min && d <= b.Max {
				band = j
			}
		}
		require.NotEqual(t, -1, band, "delay %s outside every band", d)
		seen[band] = true
	}
	assert.Len(t, seen, len(DefaultBands))

	assert.Zero(t, RandomDelay(r, nil))
	assert.Equal(t, 5*time.Second, RandomDelay(r, []Band{{Min: 5 * time.Second, Max: 5 * time.Second}}))
}

func TestDetectedTitle(t *testing.T) {
	assert.Equal(t, "Brute Force detected", DetectedTitle(models.IncidentBruteForce))
	assert.Equal(t, "Sql Injection detected", DetectedTitle(models.IncidentSQLInjection))
	assert.Equal(t, "Xss detected", DetectedTitle(models.IncidentXSS))
	assert.Equal(t, "Windows Service detected", DetectedTitle(models.IncidentWindowsService))
}

func TestGenerator_Event(t *testing.T) {
	g := NewGenerator(1)
	for i := 0; i < 200; i++ {
		event := g.Event(3)

		assert.Equal(t, int64(3), event["client_id"])
		for _, key := range []string{"severity", "incident_type", "title", "case_title", "source_ip", "host_ip", "hostname"} {
			assert.NotEmpty(t, event[key], key)
		}
		assert.Contains(t, Hostnames, event["hostname"])
		assert.Regexp(t, `^185\.10\.\d{1,3}\.\d{1,3}$`, event["source_ip"])
		assert.Regexp(t, `^10\.5\.\d{1,2}\.\d{2,3}$`, event["host_ip"])

		zone := event["origin_zone"].(int)
		assert.GreaterOrEqual(t, zone, 1)
		assert.LessOrEqual(t, zone, 5)
		cluster := event["target_cluster"].(int)
		assert.GreaterOrEqual(t, cluster, 1)
		assert.LessOrEqual(t, cluster, 4)

		severity := models.Severity(event["severity"].(string))
		require.True(t, severity.Valid())
		force := event["force_case"].(bool)

		switch models.IncidentType(event["incident_type"].(string)) {
		case models.IncidentSQLInjection, models.IncidentPathTraversal, models.IncidentSuspiciousService:
			assert.True(t, force)
		case models.IncidentBruteForce:
			assert.Equal(t, severity.Escalates(), force)
			assert.Contains(t, event, "attempts")
		case models.IncidentXSS:
			assert.Equal(t, severity.Escalates(), force)
		default:
			t.Fatalf("unexpected incident type %v", event["incident_type"])
		}
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(99)
	b := NewGenerator(99)
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }
	b.now = func() time.Time { return now }

	assert.Equal(t, a.Event(1), b.Event(1))
	assert.Equal(t, a.Background(), b.Background())
}

func TestGenerator_Background(t *testing.T) {
	g := NewGenerator(5)
	for i := 0; i < 100; i++ {
		b := g.Background()
		assert.Contains(t, BackgroundIncidents, b.IncidentType)
		assert.True(t, b.Severity.Valid())
		assert.Equal(t, DetectedTitle(b.IncidentType), b.Title)
		assert.Equal(t, string(b.Severity), b.Raw["severity"])
		assert.Contains(t, b.Raw, "origin_zone")
	}
}
