package task

import "context"

type runKey struct{}

// handle is what a running computation can reach through its context
type handle interface {
	IsCancelled() bool
	reportProgress(progress, max int64)
}

// IsCancelled reports whether the task running with ctx has been cancelled.
// Long computations should check it at their own safe points, or watch
// ctx.Done() when cancellation with interruption is expected.
func IsCancelled(ctx context.Context) bool {
	if h, ok := ctx.Value(runKey{}).(handle); ok {
		return h.IsCancelled()
	}
	return false
}

// ReportProgress posts OnProgress to the task's callbacks when they implement
// ProgressHandler. Calls made after the task settled are dropped.
func ReportProgress(ctx context.Context, progress, max int64) {
	if h, ok := ctx.Value(runKey{}).(handle); ok {
		h.reportProgress(progress, max)
	}
}
