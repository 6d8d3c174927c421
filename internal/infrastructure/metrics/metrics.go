// Package metrics exposes the Prometheus instruments of the matching service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "matching"

// Metrics groups the service's Prometheus collectors. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	MatchQueries          *prometheus.CounterVec
	MatchLatency          prometheus.Histogram
	CandidatesScanned     prometheus.Counter
	CandidatesRanked      prometheus.Counter
	EmbeddingRequests     *prometheus.CounterVec
	EmbeddingRetries      prometheus.Counter
	EmbeddingCacheHits    *prometheus.CounterVec
	AssessmentSubmissions *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MatchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Match queries by outcome.",
		}, []string{"outcome"}),
		MatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Match query latency.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		CandidatesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_scanned_total",
			Help:      "Candidates streamed from the profile store.",
		}),
		CandidatesRanked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_ranked_total",
			Help:      "Candidates that passed every gate and were scored.",
		}),
		EmbeddingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Embedding provider batch requests by outcome.",
		}, []string{"provider", "outcome"}),
		EmbeddingRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_retries_total",
			Help:      "Embedding provider retries after a retryable failure.",
		}),
		EmbeddingCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_hits_total",
			Help:      "Embedding cache hits by tier.",
		}, []string{"tier"}),
		AssessmentSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_submissions_total",
			Help:      "Assessment submissions by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.MatchQueries,
			m.MatchLatency,
			m.CandidatesScanned,
			m.CandidatesRanked,
			m.EmbeddingRequests,
			m.EmbeddingRetries,
			m.EmbeddingCacheHits,
			m.AssessmentSubmissions,
		)
	}
	return m
}

func (m *Metrics) ObserveMatchQuery(outcome string, elapsed time.Duration, scanned, ranked int) {
	if m == nil {
		return
	}
	m.MatchQueries.WithLabelValues(outcome).Inc()
	m.MatchLatency.Observe(elapsed.Seconds())
	m.CandidatesScanned.Add(float64(scanned))
	m.CandidatesRanked.Add(float64(ranked))
}

func (m *Metrics) ObserveEmbeddingRequest(provider, outcome string) {
	if m == nil {
		return
	}
	m.EmbeddingRequests.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) IncEmbeddingRetry() {
	if m == nil {
		return
	}
	m.EmbeddingRetries.Inc()
}

func (m *Metrics) ObserveCacheHit(tier string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.EmbeddingCacheHits.WithLabelValues(tier).Add(float64(n))
}

func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.AssessmentSubmissions.WithLabelValues(outcome).Inc()
}
