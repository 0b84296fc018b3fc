// Package dashboard computes the rolled-up statistics shown on the SOC
// monitor. Every call reads fresh data; nothing is cached.
package dashboard

import (
	"cmp"
	"context"
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/metrics"
	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

const (
	// NoScanSentinel is reported as last_scan_seconds_ago when no alert
	// has been seen today.
	NoScanSentinel = 9999

	// ThreatMapSize is the number of recent alerts plotted on the map.
	ThreatMapSize = 25

	hoursPerDay = 24
)

// Source provides the day's activity snapshot.
type Source interface {
	ActivitySince(ctx context.Context, since time.Time, clientID int64) (*models.ActivitySnapshot, error)
}

// Aggregator computes DashboardStats.
type Aggregator struct {
	source Source
	loc    *time.Location
	now    func() time.Time
}

// NewAggregator creates an aggregator that defines "today" in loc. A nil
// loc means the process's local timezone.
func NewAggregator(source Source, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{source: source, loc: loc, now: time.Now}
}

// Compute returns statistics for alerts and cases created since local
// midnight. clientID 0 covers every client.
func (a *Aggregator) Compute(ctx context.Context, clientID int64) (*models.DashboardStats, error) {
	start := time.Now()
	defer func() {
		metrics.DashboardDuration.Observe(time.Since(start).Seconds())
	}()

	now := a.now().In(a.loc)
	midnight := models.StartOfDay(now)

	snap, err := a.source.ActivitySince(ctx, midnight, clientID)
	if err != nil {
		return nil, err
	}
	return Summarize(snap, midnight, now), nil
}

// Summarize builds the statistics from a snapshot. Alerts must be ordered
// newest first.
func Summarize(snap *models.ActivitySnapshot, midnight, now time.Time) *models.DashboardStats {
	stats := &models.DashboardStats{
		TotalAlertsToday:   len(snap.Alerts),
		SeverityPercent:    severityPercent(snap.Alerts),
		LastScanSecondsAgo: NoScanSentinel,
		IncidentsToday:     incidentCounts(snap.Alerts),
		TimelineHourly:     hourlyCases(snap.Cases, midnight),
		ThreatMapPoints:    threatMap(snap.Alerts),
	}
	if len(snap.Alerts) > 0 {
		age := now.Sub(snap.Alerts[0].CreatedAt)
		stats.LastScanSecondsAgo = max(int64(age/time.Second), 0)
	}
	return stats
}

func severityPercent(alerts []*models.Alert) map[models.Severity]float64 {
	counts := make(map[models.Severity]int, len(models.AllSeverities))
	for _, a := range alerts {
		counts[a.Severity]++
	}
	total := max(len(alerts), 1)

	out := make(map[models.Severity]float64, len(models.AllSeverities))
	for _, sev := range models.AllSeverities {
		out[sev] = roundTenth(float64(counts[sev]) * 100 / float64(total))
	}
	return out
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func incidentCounts(alerts []*models.Alert) []models.IncidentCount {
	counts := make(map[models.IncidentType]int)
	for _, a := range alerts {
		counts[a.IncidentType]++
	}
	out := make([]models.IncidentCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, models.IncidentCount{IncidentType: t, Count: n})
	}
	slices.SortFunc(out, func(a, b models.IncidentCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.IncidentType, b.IncidentType))
	})
	return out
}

func hourlyCases(cases []*models.Case, midnight time.Time) []models.HourlyCases {
	out := make([]models.HourlyCases, hoursPerDay)
	for h := range out {
		out[h].Hour = h
	}
	for _, c := range cases {
		offset := c.CreatedAt.Sub(midnight)
		if offset < 0 {
			continue
		}
		if h := int(offset / time.Hour); h < hoursPerDay {
			out[h].Cases++
		}
	}
	return out
}

func threatMap(alerts []*models.Alert) []models.ThreatMapPoint {
	n := min(len(alerts), ThreatMapSize)
	out := make([]models.ThreatMapPoint, 0, n)
	for _, a := range alerts[:n] {
		out = append(out, models.ThreatMapPoint{
			X:            coordinate(a.RawEvent, "origin_zone"),
			Y:            coordinate(a.RawEvent, "target_cluster"),
			Severity:     a.Severity,
			IncidentType: a.IncidentType,
		})
	}
	return out
}

// coordinate reads an integer grid position from a raw event, defaulting
// to 1 when the key is absent or unreadable.
func coordinate(raw map[string]any, key string) int {
	switch v := raw[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return 1
}
