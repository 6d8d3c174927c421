package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveMatchQuery("success", 20*time.Millisecond, 10, 4)
	m.ObserveMatchQuery("invalid", time.Millisecond, 0, 0)
	m.ObserveEmbeddingRequest("gemini/text-embedding-004", "success")
	m.IncEmbeddingRetry()
	m.ObserveCacheHit("l1", 3)
	m.ObserveCacheHit("l2", 0)
	m.ObserveSubmission("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchQueries.WithLabelValues("success")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.CandidatesScanned))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.CandidatesRanked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbeddingRetries))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EmbeddingCacheHits.WithLabelValues("l1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssessmentSubmissions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchQueries.WithLabelValues("invalid")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.MatchLatency))

	n, err := testutil.GatherAndCount(reg, "matching_embedding_cache_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveMatchQuery("success", time.Second, 1, 1)
		m.ObserveEmbeddingRequest("p", "error")
		m.IncEmbeddingRetry()
		m.ObserveCacheHit("l1", 1)
		m.ObserveSubmission("invalid")
	})
}
