// Package metrics defines the Prometheus metrics exported by the HTTP
// service and an Observer that feeds them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tsawler/sentiment"
)

// Prediction Metrics
var (
	// PredictionsTotal tracks classified comments by predicted sentiment
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_predictions_total",
			Help: "Total classified comments by predicted sentiment",
		},
		[]string{"sentiment"},
	)

	// BatchSize tracks the number of comments per successful batch
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentiment_batch_size",
			Help:    "Comments per classified batch",
			Buckets: []float64{1, 5, 10, 25, 50, 75, 100},
		},
	)

	// BatchDuration tracks batch classification latency in seconds
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentiment_batch_duration_seconds",
			Help:    "Batch classification duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		},
	)

	// RequestErrorsTotal tracks failed batches by error kind
	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_request_errors_total",
			Help: "Total failed batches by error kind",
		},
		[]string{"kind"},
	)

	// ModelReady is 1 when an artifact is loaded and serving
	ModelReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentiment_model_ready",
			Help: "Whether model artifacts are loaded (1) or not (0)",
		},
	)
)

// Observer records service activity in the package metrics.
type Observer struct{}

var _ sentiment.Observer = Observer{}

// ObserveBatch implements sentiment.Observer.
func (Observer) ObserveBatch(result sentiment.BatchResult, elapsed time.Duration) {
	for _, p := range result.Predictions {
		PredictionsTotal.WithLabelValues(p.Sentiment).Inc()
	}
	BatchSize.Observe(float64(result.Total))
	BatchDuration.Observe(elapsed.Seconds())
}

// ObserveError implements sentiment.Observer.
func (Observer) ObserveError(kind sentiment.ErrorKind) {
	if kind == "" {
		kind = "unknown"
	}
	RequestErrorsTotal.WithLabelValues(string(kind)).Inc()
}

// ObserveState implements sentiment.Observer.
func (Observer) ObserveState(state sentiment.ServiceState) {
	if state == sentiment.StateReady {
		ModelReady.Set(1)
	} else {
		ModelReady.Set(0)
	}
}
