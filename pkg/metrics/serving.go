package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ServingMetrics tracks prediction volume and latency.
type ServingMetrics struct {
	predictDuration prometheus.Histogram
	candidateCount  prometheus.Histogram
	batchOutcomes   *prometheus.CounterVec
}

// NewServingMetrics registers serving metrics on the provided registerer.
func NewServingMetrics(reg prometheus.Registerer) *ServingMetrics {
	if reg == nil {
		return &ServingMetrics{}
	}
	predictDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "predict_duration_seconds",
		Help:    "End-to-end latency of a single prediction.",
		Buckets: prometheus.DefBuckets,
	})
	candidateCount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "predict_candidate_count",
		Help:    "Number of candidates retrieved before ranking.",
		Buckets: []float64{0, 10, 25, 50, 75, 100, 150},
	})
	batchOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_inference_users",
		Help: "Batch inference users by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(predictDuration, candidateCount, batchOutcomes)
	return &ServingMetrics{
		predictDuration: predictDuration,
		candidateCount:  candidateCount,
		batchOutcomes:   batchOutcomes,
	}
}

// ObservePredict records a completed prediction.
func (s *ServingMetrics) ObservePredict(duration time.Duration, candidates int) {
	if s == nil || s.predictDuration == nil {
		return
	}
	s.predictDuration.Observe(duration.Seconds())
	s.candidateCount.Observe(float64(candidates))
}

// IncBatchOutcome counts one processed batch user.
func (s *ServingMetrics) IncBatchOutcome(outcome string) {
	if s == nil || s.batchOutcomes == nil {
		return
	}
	s.batchOutcomes.WithLabelValues(outcome).Inc()
}
