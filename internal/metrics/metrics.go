package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Ingest pipeline
	IngestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealflow_ingests_total",
			Help: "Deal ingests by outcome",
		},
		[]string{"outcome"},
	)

	ScoringTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealflow_scoring_total",
			Help: "Deals scored, by strategy that produced the score",
		},
		[]string{"strategy", "fallback"},
	)

	SweepFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dealflow_sweep_failures_total",
			Help: "Per-buyer failures during matching sweeps",
		},
	)

	// Notifications
	NotificationsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealflow_notifications_enqueued_total",
			Help: "Notifications enqueued by kind",
		},
		[]string{"kind"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealflow_notifications_dispatched_total",
			Help: "Dispatch attempts by status",
		},
		[]string{"status"},
	)

	// Feed collaborator
	FeedItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealflow_feed_items_total",
			Help: "Feed items pushed to the ingest endpoint",
		},
		[]string{"source", "status"},
	)
)
