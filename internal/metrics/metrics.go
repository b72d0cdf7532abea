// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treasury_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ExtractionsTotal counts upload extractions by outcome category.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_extractions_total",
			Help: "Spreadsheet extractions by outcome.",
		},
		[]string{"outcome"},
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "treasury_extraction_duration_seconds",
			Help:    "Time spent waiting on the extraction service.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 90},
		},
	)

	ImportsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "treasury_imports_confirmed_total",
			Help: "Imported reports committed to the ledger.",
		},
	)

	ImportedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_imported_records_total",
			Help: "Ledger records written by imports, by persisted status.",
		},
		[]string{"status"},
	)
)
