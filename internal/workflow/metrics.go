package workflow

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mediaflow/internal/chat"
	"mediaflow/internal/jobs"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the orchestrator. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	TurnsTotal     *prometheus.CounterVec
	TurnDuration   *prometheus.HistogramVec
	RetriesTotal   *prometheus.CounterVec
	BackoffSeconds prometheus.Counter
	JobsTotal      *prometheus.CounterVec
	State          prometheus.Gauge
}

// NewMetrics creates and registers the orchestrator metrics once per process.
//
// Metrics:
//   - mediaflow_turns_total{capability,outcome}
//   - mediaflow_turn_duration_seconds{capability}
//   - mediaflow_turn_retries_total{capability}
//   - mediaflow_backoff_seconds_total
//   - mediaflow_jobs_total{status}
//   - mediaflow_orchestrator_state
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			TurnsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mediaflow_turns_total",
					Help: "Completed turns by capability and outcome",
				},
				[]string{"capability", "outcome"},
			),
			TurnDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "mediaflow_turn_duration_seconds",
					Help:    "Wall time of a turn including retry backoff",
					Buckets: prometheus.ExponentialBuckets(0.01, 4, 9),
				},
				[]string{"capability"},
			),
			RetriesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mediaflow_turn_retries_total",
					Help: "Transient failures that were retried",
				},
				[]string{"capability"},
			),
			BackoffSeconds: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "mediaflow_backoff_seconds_total",
					Help: "Total time spent sleeping between retries",
				},
			),
			JobsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mediaflow_jobs_total",
					Help: "Finished jobs by status",
				},
				[]string{"status"},
			),
			State: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "mediaflow_orchestrator_state",
					Help: "Current orchestrator state (0=idle)",
				},
			),
		}
	})
	return globalMetrics
}

func (m *Metrics) recordTurn(name chat.CapabilityName, outcome chat.Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(string(name), string(outcome)).Inc()
	m.TurnDuration.WithLabelValues(string(name)).Observe(elapsed.Seconds())
}

func (m *Metrics) recordRetries(name chat.CapabilityName, retries int, waited time.Duration) {
	if m == nil || retries <= 0 {
		return
	}
	m.RetriesTotal.WithLabelValues(string(name)).Add(float64(retries))
	m.BackoffSeconds.Add(waited.Seconds())
}

func (m *Metrics) recordJob(status jobs.Status) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	m.State.Set(float64(s))
}
