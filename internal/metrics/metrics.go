package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chop_raffle",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chop_raffle",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "path"},
	)

	mintBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chop_raffle",
			Subsystem: "mint",
			Name:      "batches_total",
			Help:      "Mint batches by terminal outcome.",
		},
		[]string{"outcome"},
	)

	mintBatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chop_raffle",
			Subsystem: "mint",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a mint batch from validation to aggregation.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"outcome"},
	)

	artifactMints = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chop_raffle",
			Subsystem: "mint",
			Name:      "artifacts_total",
			Help:      "Per-ticket NFT creation attempts by backend and result.",
		},
		[]string{"backend", "status", "kind"},
	)

	rangeReadAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chop_raffle",
			Subsystem: "mint",
			Name:      "range_read_failures_total",
			Help:      "Failed reads of the running total while resolving a ticket range.",
		},
		[]string{"reason"},
	)

	raffleTotalMinted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chop_raffle",
			Subsystem: "chain",
			Name:      "total_minted",
			Help:      "Last observed on-chain total_minted.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		mintBatches,
		mintBatchDuration,
		artifactMints,
		rangeReadAttempts,
		raffleTotalMinted,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency using the matched route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordBatch records a finished (or failed) mint batch.
func RecordBatch(outcome string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	mintBatches.WithLabelValues(outcome).Inc()
	mintBatchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordArtifact records one per-ticket NFT creation attempt.
func RecordArtifact(backend string, success bool, kind string) {
	status := "failed"
	if success {
		status = "minted"
	}
	if kind == "" {
		kind = "none"
	}
	artifactMints.WithLabelValues(backend, status, kind).Inc()
}

// RecordRangeReadFailure records one failed running-total read.
func RecordRangeReadFailure(reason string) {
	rangeReadAttempts.WithLabelValues(reason).Inc()
}

// SetTotalMinted publishes the last observed on-chain counter.
func SetTotalMinted(total uint64) {
	raffleTotalMinted.Set(float64(total))
}
