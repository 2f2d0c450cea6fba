package prometheus

import (
	"context"
	"time"

	"github.com/fluxorio/asyncworker/pkg/task"
)

// Observer is a task.Observer that records runs into Metrics
type Observer struct {
	metrics *Metrics
	now     func() time.Time
}

var _ task.Observer = (*Observer)(nil)

// NewObserver returns an observer recording into m, or GetMetrics() if m is nil
func NewObserver(m *Metrics) *Observer {
	if m == nil {
		m = GetMetrics()
	}
	return &Observer{metrics: m, now: time.Now}
}

func (o *Observer) TaskStarted(ctx context.Context, info task.Info) context.Context {
	o.metrics.RecordStarted(string(info.Kind))
	return ctx
}

func (o *Observer) TaskSettled(_ context.Context, info task.Info, outcome task.Outcome, _ error) {
	var d time.Duration
	if !info.Started.IsZero() {
		d = o.now().Sub(info.Started)
	}
	o.metrics.RecordSettled(string(info.Kind), string(outcome), d)
}
