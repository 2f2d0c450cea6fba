// Package prometheus exports task and executor metrics.
package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DefaultRegistry is the registry GetMetrics registers with
	DefaultRegistry = prometheus.NewRegistry()

	// DefaultRegisterer labels every metric with the service name
	DefaultRegisterer = prometheus.WrapRegistererWith(prometheus.Labels{"service": "asyncworker"}, DefaultRegistry)

	metricsOnce sync.Once
	metrics     *Metrics
)

// Metrics holds the task metrics
type Metrics struct {
	TasksStarted *prometheus.CounterVec
	TasksSettled *prometheus.CounterVec
	TaskDuration *prometheus.HistogramVec
	TasksRunning *prometheus.GaugeVec
}

// GetMetrics returns the process-wide metrics registered on DefaultRegisterer
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics(DefaultRegisterer)
	})
	return metrics
}

// NewMetrics registers a new set of task metrics with registerer.
// It panics if the metrics are already registered there.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		TasksStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asyncworker_tasks_started_total",
				Help: "Total number of task runs started",
			},
			[]string{"kind"},
		),
		TasksSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asyncworker_tasks_settled_total",
				Help: "Total number of task runs settled, by outcome",
			},
			[]string{"kind", "outcome"}, // outcome: success, rejected, error, cancelled
		),
		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "asyncworker_task_duration_seconds",
				Help:    "Time from task start to settlement in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"kind", "outcome"},
		),
		TasksRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "asyncworker_tasks_running",
				Help: "Number of task runs started but not settled",
			},
			[]string{"kind"},
		),
	}
}

// RecordStarted records a task run entering RUNNING
func (m *Metrics) RecordStarted(kind string) {
	m.TasksStarted.WithLabelValues(kind).Inc()
	m.TasksRunning.WithLabelValues(kind).Inc()
}

// RecordSettled records a task run reaching a terminal state
func (m *Metrics) RecordSettled(kind, outcome string, duration time.Duration) {
	m.TasksRunning.WithLabelValues(kind).Dec()
	m.TasksSettled.WithLabelValues(kind, outcome).Inc()
	m.TaskDuration.WithLabelValues(kind, outcome).Observe(duration.Seconds())
}
