package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink receives counter increments as they happen, across ingestion calls.
// Implementations must be safe for concurrent use.
type Sink interface {
	// AddRows increments the row counter for an outcome
	// (received, accepted, rejected, duplicated, failed).
	AddRows(outcome string, n int)

	// IncChunks increments the chunk counter for a terminal state
	// (committed, failed, not_attempted).
	IncChunks(state string)

	// IncRetries increments the chunk retry counter.
	IncRetries()

	// ObserveChunkLatency records one committed chunk's execution latency.
	ObserveChunkLatency(kind string, elapsed time.Duration)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) AddRows(string, int)                       {}
func (NopSink) IncChunks(string)                          {}
func (NopSink) IncRetries()                               {}
func (NopSink) ObserveChunkLatency(string, time.Duration) {}

// PromSink exports counters through a Prometheus registry.
type PromSink struct {
	rows         *prometheus.CounterVec
	chunks       *prometheus.CounterVec
	retries      prometheus.Counter
	chunkLatency *prometheus.HistogramVec
}

var _ Sink = (*PromSink)(nil)

// NewPromSink creates and registers the pipeline's Prometheus collectors.
// Registering twice against the same registry panics, matching the
// client_golang convention for programming errors.
func NewPromSink(reg prometheus.Registerer) *PromSink {
	s := &PromSink{
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalsink",
			Name:      "rows_total",
			Help:      "Metric rows processed, by terminal outcome.",
		}, []string{"outcome"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalsink",
			Name:      "chunks_total",
			Help:      "Insert chunks executed, by terminal state.",
		}, []string{"state"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vitalsink",
			Name:      "chunk_retries_total",
			Help:      "Chunk-level retry attempts after transient store errors.",
		}),
		chunkLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vitalsink",
			Name:      "chunk_commit_seconds",
			Help:      "Wall-clock latency of committed insert chunks.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"kind"}),
	}
	reg.MustRegister(s.rows, s.chunks, s.retries, s.chunkLatency)
	return s
}

func (s *PromSink) AddRows(outcome string, n int) {
	s.rows.WithLabelValues(outcome).Add(float64(n))
}

func (s *PromSink) IncChunks(state string) {
	s.chunks.WithLabelValues(state).Inc()
}

func (s *PromSink) IncRetries() {
	s.retries.Inc()
}

func (s *PromSink) ObserveChunkLatency(kind string, elapsed time.Duration) {
	s.chunkLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
}
