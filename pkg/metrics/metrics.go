package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsletter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Ingestion metrics
	ReportsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_reports_ingested_total",
			Help: "Spreadsheet ingestions by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	IngestedRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsletter_ingested_rows",
			Help:    "Fund rows per stored report",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	StagedFilesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsletter_staged_files_swept_total",
			Help: "Stale staged uploads removed by the sweeper",
		},
	)
)
