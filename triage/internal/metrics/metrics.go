// Package metrics registers the triage service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	AlertsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_triage_alerts_ingested_total",
			Help: "Total number of alerts written, by severity and source",
		},
		[]string{"severity", "source"},
	)

	CasesOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_triage_cases_opened_total",
			Help: "Total number of cases opened, by severity and source",
		},
		[]string{"severity", "source"},
	)

	IngestFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_triage_ingest_failures_total",
			Help: "Total number of rejected or failed ingestion attempts",
		},
		[]string{"reason"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telhawk_triage_ingest_duration_seconds",
			Help:    "Duration of the ingestion transaction in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Broadcast metrics
	BroadcastPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_triage_broadcast_published_total",
			Help: "Total number of notifications published, by event kind",
		},
		[]string{"event"},
	)

	BroadcastDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_triage_broadcast_delivered_total",
			Help: "Total number of notifications handed to subscribers",
		},
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_triage_broadcast_dropped_total",
			Help: "Total number of notifications dropped for slow subscribers",
		},
	)

	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telhawk_triage_broadcast_subscribers",
			Help: "Current number of monitor subscribers",
		},
	)

	// Dispatch metrics
	DispatchesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_triage_dispatches_total",
			Help: "Total number of case dispatches recorded, by channel",
		},
		[]string{"channel"},
	)

	// Dashboard metrics
	DashboardDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telhawk_triage_dashboard_compute_duration_seconds",
			Help:    "Duration of dashboard aggregation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Synthetic feed metrics
	FeedIterations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_triage_feed_iterations_total",
			Help: "Total number of synthetic feed iterations completed",
		},
	)

	FeedErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_triage_feed_errors_total",
			Help: "Total number of synthetic feed iterations that failed",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_triage_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"key"},
	)
)
