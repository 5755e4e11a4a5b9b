package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_scores_computed_total",
			Help: "Total referral scores computed, by semantic status",
		},
		[]string{"semantic_status"},
	)

	scoresReused = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "referral_scores_reused_total",
			Help: "Total scoring requests answered from a stored score",
		},
	)

	batchItemFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "referral_batch_item_failures_total",
			Help: "Total referrals skipped in batch scoring because of an error",
		},
	)

	semanticFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semantic_failures_total",
			Help: "Total semantic evaluations that fell back, by failure kind",
		},
		[]string{"kind"},
	)

	semanticLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "semantic_request_duration_seconds",
			Help:    "Duration of outbound semantic evaluation calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)

	scoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "referral_scoring_duration_seconds",
			Help:    "Duration of scoring operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by group",
		},
		[]string{"group"},
	)

	panicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Handler panics recovered by middleware",
		},
	)

	queueMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_queue_messages_total",
			Help: "Scoring queue messages by outcome",
		},
		[]string{"outcome"},
	)
)

// IncScoreComputed counts a freshly computed score.
func IncScoreComputed(semanticStatus string) {
	scoresComputed.WithLabelValues(semanticStatus).Inc()
}

// IncScoreReused counts a request answered by a stored score.
func IncScoreReused() {
	scoresReused.Inc()
}

// IncBatchItemFailure counts a skipped batch item.
func IncBatchItemFailure() {
	batchItemFailures.Inc()
}

// IncSemanticFailure counts a semantic fallback.
func IncSemanticFailure(kind string) {
	semanticFailures.WithLabelValues(kind).Inc()
}

// ObserveSemanticLatency records the duration of an outbound semantic call.
func ObserveSemanticLatency(d time.Duration) {
	semanticLatency.Observe(d.Seconds())
}

// ObserveScoring records the duration of a scoring operation.
func ObserveScoring(operation string, d time.Duration) {
	scoringDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncQueueMessage counts a queue message outcome (enqueued, processed, failed, decode_error).
func IncQueueMessage(outcome string) {
	queueMessages.WithLabelValues(outcome).Inc()
}

// IncRateLimited counts a request rejected by the limiter.
func IncRateLimited(group string) {
	rateLimited.WithLabelValues(group).Inc()
}

// IncPanicRecovered counts a recovered handler panic.
func IncPanicRecovered() {
	panicsRecovered.Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
