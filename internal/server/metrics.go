package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "humblefs_requests_total",
		Help: "Requests served, partitioned by operation and status code.",
	}, []string{"op", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "humblefs_request_duration_seconds",
		Help:    "Request latency, partitioned by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)
