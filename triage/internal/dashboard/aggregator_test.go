package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/repository"
)

var (
	testNow      = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)
	testMidnight = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
)

type store struct {
	t      *testing.T
	repo   *repository.InMemoryRepository
	client *models.Client
}

func newStore(t *testing.T) *store {
	t.Helper()
	repo := repository.NewInMemoryRepository()
	client := &models.Client{Name: "Aster Bank"}
	require.NoError(t, repo.CreateClient(context.Background(), client))
	return &store{t: t, repo: repo, client: client}
}

func (s *store) alert(at time.Time, sev models.Severity, typ models.IncidentType, raw map[string]any) {
	s.t.Helper()
	ctx := context.Background()
	require.NoError(s.t, s.repo.WithTx(ctx, func(tx repository.Tx) error {
		return tx.CreateAlert(ctx, &models.Alert{
			ClientID:     s.client.ID,
			CreatedAt:    at,
			Severity:     sev,
			IncidentType: typ,
			Title:        "test",
			RawEvent:     raw,
		})
	}))
}

func (s *store) openCase(at time.Time) {
	s.t.Helper()
	ctx := context.Background()
	require.NoError(s.t, s.repo.WithTx(ctx, func(tx repository.Tx) error {
		return tx.CreateCase(ctx, &models.Case{
			ClientID:     s.client.ID,
			CreatedAt:    at,
			Severity:     models.SeverityHigh,
			IncidentType: models.IncidentXSS,
			Title:        "test",
		})
	}))
}

func (s *store) aggregator() *Aggregator {
	a := NewAggregator(s.repo, time.UTC)
	a.now = func() time.Time { return testNow }
	return a
}

func TestCompute_Empty(t *testing.T) {
	s := newStore(t)

	stats, err := s.aggregator().Compute(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalAlertsToday)
	assert.Equal(t, int64(NoScanSentinel), stats.LastScanSecondsAgo)
	assert.Equal(t, map[models.Severity]float64{
		models.SeverityCritical: 0,
		models.SeverityHigh:     0,
		models.SeverityMedium:   0,
		models.SeverityLow:      0,
	}, stats.SeverityPercent)
	assert.Empty(t, stats.IncidentsToday)
	assert.Empty(t, stats.ThreatMapPoints)
	require.Len(t, stats.TimelineHourly, 24)
	for h, bucket := range stats.TimelineHourly {
		assert.Equal(t, h, bucket.Hour)
		assert.Zero(t, bucket.Cases)
	}

	body, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"incidents_today":[]`)
	assert.Contains(t, string(body), `"threat_map_points":[]`)
}

func TestCompute_SeverityPercent(t *testing.T) {
	s := newStore(t)
	s.alert(testNow.Add(-3*time.Minute), models.SeverityCritical, models.IncidentXSS, nil)
	s.alert(testNow.Add(-2*time.Minute), models.SeverityLow, models.IncidentXSS, nil)
	s.alert(testNow.Add(-90*time.Second), models.SeverityLow, models.IncidentXSS, nil)

	stats, err := s.aggregator().Compute(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalAlertsToday)
	assert.Equal(t, 33.3, stats.SeverityPercent[models.SeverityCritical])
	assert.Equal(t, 66.7, stats.SeverityPercent[models.SeverityLow])
	assert.Equal(t, 0.0, stats.SeverityPercent[models.SeverityHigh])
	assert.Equal(t, 0.0, stats.SeverityPercent[models.SeverityMedium])
	assert.Equal(t, int64(90), stats.LastScanSecondsAgo)
}

func TestCompute_MidnightBoundary(t *testing.T) {
	s := newStore(t)
	s.alert(testMidnight.Add(-time.Second), models.SeverityHigh, models.IncidentXSS, nil)
	s.alert(testMidnight, models.SeverityMedium, models.IncidentXSS, nil)
	s.openCase(testMidnight.Add(-time.Second))
	s.openCase(testMidnight)
	s.openCase(testMidnight.Add(14*time.Hour - time.Second))
	s.openCase(testMidnight.Add(14 * time.Hour))

	stats, err := s.aggregator().Compute(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalAlertsToday)
	assert.Equal(t, 100.0, stats.SeverityPercent[models.SeverityMedium])
	assert.Equal(t, 1, stats.TimelineHourly[0].Cases)
	assert.Equal(t, 1, stats.TimelineHourly[13].Cases)
	assert.Equal(t, 1, stats.TimelineHourly[14].Cases)

	total := 0
	for _, bucket := range stats.TimelineHourly {
		total += bucket.Cases
	}
	assert.Equal(t, 3, total)
}

func TestCompute_IncidentsOrderedByCount(t *testing.T) {
	s := newStore(t)
	at := testNow.Add(-time.Hour)
	for i := 0; i < 3; i++ {
		s.alert(at, models.SeverityLow, models.IncidentSQLInjection, nil)
	}
	s.alert(at, models.SeverityLow, models.IncidentXSS, nil)
	s.alert(at, models.SeverityLow, models.IncidentBruteForce, nil)
	s.alert(at, models.SeverityLow, models.IncidentBruteForce, nil)
	s.alert(at, models.SeverityLow, models.IncidentDDoSBot, nil)

	stats, err := s.aggregator().Compute(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, []models.IncidentCount{
		{IncidentType: models.IncidentSQLInjection, Count: 3},
		{IncidentType: models.IncidentBruteForce, Count: 2},
		{IncidentType: models.IncidentDDoSBot, Count: 1},
		{IncidentType: models.IncidentXSS, Count: 1},
	}, stats.IncidentsToday)
}

func TestCompute_ThreatMapUsesMostRecentAlerts(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 30; i++ {
		raw := map[string]any{
			"origin_zone":    json.Number(fmt.Sprint(i%5 + 1)),
			"target_cluster": json.Number(fmt.Sprint(i%4 + 1)),
		}
		s.alert(testMidnight.Add(time.Duration(i)*time.Minute), models.SeverityLow, models.IncidentXSS, raw)
	}

	stats, err := s.aggregator().Compute(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, stats.ThreatMapPoints, ThreatMapSize)
	// Newest alert is i=29.
	assert.Equal(t, 29%5+1, stats.ThreatMapPoints[0].X)
	assert.Equal(t, 29%4+1, stats.ThreatMapPoints[0].Y)
	// Oldest plotted alert is i=5.
	assert.Equal(t, 5%5+1, stats.ThreatMapPoints[24].X)
	assert.Equal(t, 5%4+1, stats.ThreatMapPoints[24].Y)
}

func TestCompute_ClientScope(t *testing.T) {
	s := newStore(t)
	other := &models.Client{Name: "Other Corp"}
	require.NoError(t, s.repo.CreateClient(context.Background(), other))

	s.alert(testNow.Add(-time.Minute), models.SeverityLow, models.IncidentXSS, nil)
	ctx := context.Background()
	require.NoError(t, s.repo.WithTx(ctx, func(tx repository.Tx) error {
		return tx.CreateAlert(ctx, &models.Alert{
			ClientID: other.ID, CreatedAt: testNow, Severity: models.SeverityCritical,
			IncidentType: models.IncidentPhishing, Title: "other",
		})
	}))

	a := s.aggregator()
	all, err := a.Compute(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, all.TotalAlertsToday)

	scoped, err := a.Compute(ctx, s.client.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, scoped.TotalAlertsToday)
	assert.Equal(t, 100.0, scoped.SeverityPercent[models.SeverityLow])
	assert.Equal(t, int64(60), scoped.LastScanSecondsAgo)
}

type failingSource struct{}

func (failingSource) ActivitySince(context.Context, time.Time, int64) (*models.ActivitySnapshot, error) {
	return nil, errors.New("snapshot failed")
}

func TestCompute_SourceError(t *testing.T) {
	a := NewAggregator(failingSource{}, nil)
	_, err := a.Compute(context.Background(), 0)
	assert.EqualError(t, err, "snapshot failed")
}

func TestCompute_LocalMidnight(t *testing.T) {
	loc := time.FixedZone("ALMT", 5*60*60)
	s := newStore(t)
	// 20:00 UTC on the 18th is 01:00 on the 19th in ALMT.
	s.openCase(time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC))
	s.openCase(time.Date(2026, 10, 18, 18, 59, 0, 0, time.UTC))

	a := NewAggregator(s.repo, loc)
	a.now = func() time.Time { return testNow }

	stats, err := a.Compute(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TimelineHourly[1].Cases)
	assert.Zero(t, stats.TimelineHourly[23].Cases)
}

func TestCoordinate(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{name: "json number", value: json.Number("4"), want: 4},
		{name: "json float", value: json.Number("2.0"), want: 2},
		{name: "float64", value: 3.0, want: 3},
		{name: "int", value: 2, want: 2},
		{name: "int64", value: int64(5), want: 5},
		{name: "numeric string", value: "3", want: 3},
		{name: "garbage string", value: "north", want: 1},
		{name: "missing", value: nil, want: 1},
		{name: "bool", value: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{}
			if tt.value != nil {
				raw["origin_zone"] = tt.value
			}
			assert.Equal(t, tt.want, coordinate(raw, "origin_zone"))
		})
	}
	assert.Equal(t, 1, coordinate(nil, "origin_zone"))
}
