package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fluxorio/asyncworker/pkg/core/concurrency"
)

var (
	queuedDesc = prometheus.NewDesc(
		"asyncworker_executor_queued_jobs",
		"Jobs waiting for a worker",
		[]string{"executor"}, nil,
	)
	activeDesc = prometheus.NewDesc(
		"asyncworker_executor_active_workers",
		"Live worker goroutines",
		[]string{"executor"}, nil,
	)
	completedDesc = prometheus.NewDesc(
		"asyncworker_executor_completed_jobs_total",
		"Jobs run to completion",
		[]string{"executor"}, nil,
	)
	rejectedDesc = prometheus.NewDesc(
		"asyncworker_executor_rejected_jobs_total",
		"Jobs rejected under backpressure",
		[]string{"executor"}, nil,
	)
	utilizationDesc = prometheus.NewDesc(
		"asyncworker_executor_queue_utilization",
		"Queue utilization percentage (0-100)",
		[]string{"executor"}, nil,
	)
)

// ExecutorCollector exports Stats of the executors it watches on every scrape
type ExecutorCollector struct {
	mu        sync.RWMutex
	executors map[string]concurrency.Executor
}

var _ prometheus.Collector = (*ExecutorCollector)(nil)

// NewExecutorCollector watches execs, keyed by their Stats().Name
func NewExecutorCollector(execs ...concurrency.Executor) *ExecutorCollector {
	c := &ExecutorCollector{executors: make(map[string]concurrency.Executor)}
	for _, e := range execs {
		c.Watch(e)
	}
	return c
}

// Watch adds e, replacing any executor with the same name
func (c *ExecutorCollector) Watch(e concurrency.Executor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.executors[e.Stats().Name] = e
}

// Forget stops exporting the executor with the given name
func (c *ExecutorCollector) Forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.executors, name)
}

func (c *ExecutorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- queuedDesc
	ch <- activeDesc
	ch <- completedDesc
	ch <- rejectedDesc
	ch <- utilizationDesc
}

func (c *ExecutorCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, e := range c.executors {
		s := e.Stats()
		ch <- prometheus.MustNewConstMetric(queuedDesc, prometheus.GaugeValue, float64(s.QueuedTasks), name)
		ch <- prometheus.MustNewConstMetric(activeDesc, prometheus.GaugeValue, float64(s.ActiveWorkers), name)
		ch <- prometheus.MustNewConstMetric(completedDesc, prometheus.CounterValue, float64(s.CompletedTasks), name)
		ch <- prometheus.MustNewConstMetric(rejectedDesc, prometheus.CounterValue, float64(s.RejectedTasks), name)
		ch <- prometheus.MustNewConstMetric(utilizationDesc, prometheus.GaugeValue, s.QueueUtilization, name)
	}
}
