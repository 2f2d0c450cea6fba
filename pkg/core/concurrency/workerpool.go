package concurrency

import (
	"time"

	"github.com/fluxorio/asyncworker/pkg/core"
)

// PoolConfig configures a growable pool executor.
//
// The pool keeps CoreWorkers goroutines alive and grows on demand up to
// MaxWorkers. Jobs are handed directly to an idle worker; when none is idle
// and the pool is at MaxWorkers, Submit rejects the job. Workers above the
// core size retire after sitting idle for KeepAlive.
type PoolConfig struct {
	Name        string
	CoreWorkers int
	MaxWorkers  int
	KeepAlive   time.Duration
	Logger      core.Logger
}

// DefaultPoolConfig returns 1 core worker, 20 max, 3s keep-alive
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Name:        "pool",
		CoreWorkers: 1,
		MaxWorkers:  20,
		KeepAlive:   3 * time.Second,
	}
}
