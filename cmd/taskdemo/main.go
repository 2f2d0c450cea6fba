// Command taskdemo runs sample tasks through the configured executor and
// completion reactor, then serves their metrics until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fluxorio/asyncworker/pkg/config"
	"github.com/fluxorio/asyncworker/pkg/core"
	"github.com/fluxorio/asyncworker/pkg/core/concurrency"
	"github.com/fluxorio/asyncworker/pkg/filter"
	"github.com/fluxorio/asyncworker/pkg/lifecycle/natsscope"
	metrics "github.com/fluxorio/asyncworker/pkg/observability/prometheus"
	"github.com/fluxorio/asyncworker/pkg/observability/tracing"
	"github.com/fluxorio/asyncworker/pkg/reactor"
	"github.com/fluxorio/asyncworker/pkg/task"
)

const envPrefix = "TASKDEMO"

func main() {
	configPath := flag.String("config", "", "settings file (.yaml, .json or .toml)")
	dev := flag.Bool("dev", false, "human-readable development logging")
	writeConfig := flag.String("write-config", "", "write the effective settings to this file and exit")
	flag.Parse()

	logger := core.NewDefaultLogger()
	if *dev {
		logger = core.NewDevelopmentLogger()
	}

	if *writeConfig != "" {
		if err := dumpSettings(*configPath, *writeConfig); err != nil {
			logger.Errorf("taskdemo: %v", err)
			os.Exit(1)
		}
		logger.Infof("settings written to %s", *writeConfig)
		return
	}

	if err := run(*configPath, logger); err != nil {
		logger.Errorf("taskdemo: %v", err)
		os.Exit(1)
	}
}

// dumpSettings writes the settings run would use, defaults included
func dumpSettings(configPath, out string) error {
	settings, err := config.LoadSettings(configPath, envPrefix)
	if err != nil {
		return err
	}
	return config.Save(out, settings)
}

func run(configPath string, logger core.Logger) error {
	settings, err := config.LoadSettings(configPath, envPrefix)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(settings.Tracing, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("tracer shutdown: %v", err)
		}
	}()

	executor := settings.NewExecutor(ctx, logger)
	defer executor.Shutdown(context.Background())

	completion := settings.NewReactor(logger)
	completion.Start()
	defer completion.Stop(context.Background())

	collector := metrics.NewExecutorCollector(executor)
	metrics.DefaultRegisterer.MustRegister(collector)

	d := &demo{
		executor:   executor,
		completion: completion,
		observers:  []task.Observer{metrics.NewObserver(nil), tracing.NewObserver(tp)},
		logger:     logger,
	}

	if settings.NATS.URL != "" {
		scope, err := natsscope.Connect(natsscope.Config{
			URL:      settings.NATS.URL,
			Prefix:   settings.NATS.Prefix,
			Name:     settings.NATS.Scope,
			ConnName: "taskdemo",
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		defer scope.Close()
		d.lifecycle = scope
		logger.Infof("publish to %s to cancel running tasks", scope.Subject())
	}

	d.runScenarios()

	if settings.Metrics.Addr == "" {
		return nil
	}
	return serveMetrics(ctx, settings.Metrics.Addr, logger)
}

func serveMetrics(ctx context.Context, addr string, logger core.Logger) error {
	handler := metrics.Handler(nil)
	srv := &fasthttp.Server{
		Name: "taskdemo",
		Handler: func(rc *fasthttp.RequestCtx) {
			if string(rc.Path()) != "/metrics" {
				rc.Error("not found", fasthttp.StatusNotFound)
				return
			}
			handler(rc)
		},
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("serving metrics on %s/metrics", addr)
		errCh <- srv.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return srv.Shutdown()
}

type demo struct {
	executor   concurrency.Executor
	completion *reactor.Reactor
	observers  []task.Observer
	lifecycle  task.Lifecycle
	logger     core.Logger
}

func (d *demo) runScenarios() {
	answer := func(context.Context) (int, error) { return 42, nil }

	d.resultScenario("accepted", answer, filter.Between(0, 100))
	d.resultScenario("rejected", answer, filter.Between(50, 100))

	var divisor int
	d.resultScenario("fault", func(context.Context) (int, error) {
		return 42 / divisor, nil
	}, filter.Between(0, 100))

	d.cancelScenario()
}

func (d *demo) builder(name string, fn task.Callable[int], cb *reporter) *task.ResultBuilder[int] {
	b := task.ForResult(fn).
		Named(name).
		Using(d.executor).
		DeliverOn(d.completion).
		Observe(d.observers...).
		WithLogger(d.logger).
		Connect(cb)
	if d.lifecycle != nil {
		b.AttachLifecycle(d.lifecycle)
	}
	return b
}

func (d *demo) resultScenario(name string, fn task.Callable[int], accept task.Predicate[int]) {
	cb := newReporter(name, d.logger)
	if _, err := d.builder(name, fn, cb).AddFilter(accept).Execute(); err != nil {
		d.logger.Errorf("%s: execute: %v", name, err)
		return
	}
	cb.wait(5 * time.Second)
}

func (d *demo) cancelScenario() {
	const name = "cancelled"
	cb := newReporter(name, d.logger)
	slow := func(ctx context.Context) (int, error) {
		select {
		case <-time.After(10 * time.Second):
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	t, err := d.builder(name, slow, cb).Execute()
	if err != nil {
		d.logger.Errorf("%s: execute: %v", name, err)
		return
	}
	t.Cancel(true)
	cb.wait(5 * time.Second)
	d.logger.Infof("%s: IsCancelled=%v", name, t.IsCancelled())
}

// reporter logs every callback of one task
type reporter struct {
	task.Connection
	logger core.Logger
	done   chan struct{}
	once   sync.Once
}

func newReporter(name string, logger core.Logger) *reporter {
	return &reporter{logger: logger.With("task", name), done: make(chan struct{})}
}

func (r *reporter) OnPreExecute()         { r.logger.Info("pre-execute") }
func (r *reporter) OnSuccess(v int)       { r.logger.Infof("success: %d", v) }
func (r *reporter) OnBadResult(v int)     { r.logger.Warnf("bad result: %d", v) }
func (r *reporter) OnError(err error)     { r.logger.Errorf("error: %v", err) }
func (r *reporter) OnFinished()           { r.logger.Info("finished"); r.settle() }
func (r *reporter) OnCancelled()          { r.logger.Info("cancelled"); r.settle() }
func (r *reporter) OnProgress(p, m int64) { r.logger.Debugf("progress %d/%d", p, m) }

func (r *reporter) settle() { r.once.Do(func() { close(r.done) }) }

func (r *reporter) wait(timeout time.Duration) {
	select {
	case <-r.done:
	case <-time.After(timeout):
		r.logger.Warn("timed out waiting for the task to settle")
	}
}
