// Package metrics exposes prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// DatabaseConnectionsGauge tracks database connection pool state
	DatabaseConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "database_connections",
			Help: "Database connection pool state",
		},
		[]string{"state"},
	)

	// ScanJobsTotal counts transfer scan jobs by chain and outcome
	ScanJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_scan_jobs_total",
			Help: "Total number of transfer scan jobs by chain and outcome",
		},
		[]string{"chain", "outcome"},
	)

	// ScanQueueDepth tracks the number of pending jobs per chain queue
	ScanQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transfer_scan_queue_depth",
			Help: "Pending jobs in each chain scan queue",
		},
		[]string{"chain"},
	)

	// TransfersCanceledTotal counts transfers canceled by the expiry sweep
	TransfersCanceledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transfers_expired_canceled_total",
			Help: "Total number of pending deposits canceled by the expiry sweep",
		},
	)
)
