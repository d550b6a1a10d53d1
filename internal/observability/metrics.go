package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blueprint_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blueprint_http_request_seconds",
		Help:    "Time spent serving HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	QualityScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blueprint_quality_score",
		Help:    "Distribution of architecture quality scores.",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	}, []string{"mode"})

	GraphNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blueprint_graph_nodes",
		Help:    "Number of nodes in analysed graphs.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 11),
	})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blueprint_exports_total",
		Help: "Export attempts by result (created, blocked, failed).",
	}, []string{"result"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blueprint_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})

	IngestFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blueprint_ingest_files_total",
		Help: "Uploaded diagram files by detected type.",
	}, []string{"type"})
)
