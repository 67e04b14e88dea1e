// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dojogo_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dojogo_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	authFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dojogo_auth_failures_total",
			Help: "Rejected requests by reason",
		},
		[]string{"reason"},
	)

	tapsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dojogo_taps_total",
			Help: "Taps recorded across all tap sessions",
		},
	)

	imuSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dojogo_imu_sessions_total",
			Help: "IMU session create calls by outcome",
		},
		[]string{"outcome"},
	)

	manifestsFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dojogo_manifests_finalized_total",
			Help: "IMU manifest finalize calls by outcome",
		},
		[]string{"outcome"},
	)

	uploadedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dojogo_uploaded_bytes_total",
			Help: "Bytes registered by finalized manifests",
		},
	)
)

// RecordTaps adds a tap session's count to the tap counter
func RecordTaps(n int) {
	tapsTotal.Add(float64(n))
}

// RecordImuSession counts a create call; outcome is "created" or "replayed"
func RecordImuSession(outcome string) {
	imuSessionsTotal.WithLabelValues(outcome).Inc()
}

// RecordFinalize counts a finalize call; outcome is "finalized",
// "replayed" or "rejected"
func RecordFinalize(outcome string, bytes int64) {
	manifestsFinalizedTotal.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		uploadedBytesTotal.Add(float64(bytes))
	}
}
