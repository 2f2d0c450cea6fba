package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxorio/asyncworker/pkg/core"
	"github.com/fluxorio/asyncworker/pkg/core/concurrency"
	"github.com/fluxorio/asyncworker/pkg/reactor"
)

// Executor kinds
const (
	ExecutorSingle = "single"
	ExecutorPool   = "pool"
)

// Tracing exporters
const (
	TracingNone   = "none"
	TracingStdout = "stdout"
	TracingZipkin = "zipkin"
)

// Duration is a time.Duration read from "3s"-style strings in every format
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Settings configures the executors, completion reactor and telemetry of a
// process running tasks.
type Settings struct {
	Executor ExecutorSettings `yaml:"executor" json:"executor" toml:"executor"`
	Reactor  ReactorSettings  `yaml:"reactor" json:"reactor" toml:"reactor"`
	Metrics  MetricsSettings  `yaml:"metrics" json:"metrics" toml:"metrics"`
	Tracing  TracingSettings  `yaml:"tracing" json:"tracing" toml:"tracing"`
	NATS     NATSSettings     `yaml:"nats" json:"nats" toml:"nats"`
}

type ExecutorSettings struct {
	// Kind is "single" (one worker, unbounded queue) or "pool".
	Kind        string   `yaml:"kind" json:"kind" toml:"kind"`
	Name        string   `yaml:"name" json:"name" toml:"name"`
	CoreWorkers int      `yaml:"core_workers" json:"core_workers" toml:"core_workers"`
	MaxWorkers  int      `yaml:"max_workers" json:"max_workers" toml:"max_workers"`
	KeepAlive   Duration `yaml:"keep_alive" json:"keep_alive" toml:"keep_alive"`
}

type ReactorSettings struct {
	Name string `yaml:"name" json:"name" toml:"name"`
	// MailboxSize bounds pending callbacks; 0 means unbounded.
	MailboxSize int `yaml:"mailbox_size" json:"mailbox_size" toml:"mailbox_size"`
}

type MetricsSettings struct {
	// Addr is the listen address for /metrics; empty disables the endpoint.
	Addr string `yaml:"addr" json:"addr" toml:"addr"`
}

type TracingSettings struct {
	Exporter       string `yaml:"exporter" json:"exporter" toml:"exporter"`
	ServiceName    string `yaml:"service_name" json:"service_name" toml:"service_name"`
	ZipkinEndpoint string `yaml:"zipkin_endpoint" json:"zipkin_endpoint" toml:"zipkin_endpoint"`
}

// NATSSettings names the remote kill switch scope tasks attach to
type NATSSettings struct {
	// URL of the NATS server; empty disables the scope.
	URL    string `yaml:"url" json:"url" toml:"url"`
	Prefix string `yaml:"prefix" json:"prefix" toml:"prefix"`
	Scope  string `yaml:"scope" json:"scope" toml:"scope"`
}

// Default returns settings matching the task builder defaults
func Default() Settings {
	pool := concurrency.DefaultPoolConfig()
	return Settings{
		Executor: ExecutorSettings{
			Kind:        ExecutorSingle,
			Name:        "tasks",
			CoreWorkers: pool.CoreWorkers,
			MaxWorkers:  pool.MaxWorkers,
			KeepAlive:   Duration(pool.KeepAlive),
		},
		Reactor: ReactorSettings{Name: "completion"},
		Tracing: TracingSettings{
			Exporter:    TracingNone,
			ServiceName: "asyncworker",
		},
		NATS: NATSSettings{Prefix: "asyncworker", Scope: "default"},
	}
}

// LoadSettings starts from Default, reads path (if any) and applies
// PREFIX_* environment overrides, then validates the result.
func LoadSettings(path, prefix string) (Settings, error) {
	s := Default()
	if err := LoadWithEnv(path, prefix, &s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings for values the executors cannot run with
func (s *Settings) Validate() error {
	validators := []Validator{
		OneOfValidator("Executor.Kind", ExecutorSingle, ExecutorPool),
		RangeValidator("Reactor.MailboxSize", 0, 1<<20),
		OneOfValidator("Tracing.Exporter", TracingNone, TracingStdout, TracingZipkin),
	}
	if s.Executor.Kind == ExecutorPool {
		validators = append(validators,
			RangeValidator("Executor.CoreWorkers", 0, 1<<16),
			RangeValidator("Executor.MaxWorkers", 1, 1<<16),
			ValidatorFunc(func(interface{}) error {
				if s.Executor.CoreWorkers > s.Executor.MaxWorkers {
					return fmt.Errorf("executor core_workers %d exceeds max_workers %d",
						s.Executor.CoreWorkers, s.Executor.MaxWorkers)
				}
				if s.Executor.KeepAlive < 0 {
					return fmt.Errorf("executor keep_alive must not be negative")
				}
				return nil
			}),
		)
	}
	if s.NATS.URL != "" {
		validators = append(validators, RequiredFields("NATS.Scope"))
	}
	if s.Tracing.Exporter == TracingZipkin {
		validators = append(validators, RequiredFields("Tracing.ZipkinEndpoint"))
	}
	return Validate(s, validators...)
}

// NewExecutor builds the executor described by s.Executor
func (s *Settings) NewExecutor(ctx context.Context, logger core.Logger) concurrency.Executor {
	e := s.Executor
	if e.Kind == ExecutorPool {
		return concurrency.NewPoolExecutor(ctx, concurrency.PoolConfig{
			Name:        e.Name,
			CoreWorkers: e.CoreWorkers,
			MaxWorkers:  e.MaxWorkers,
			KeepAlive:   e.KeepAlive.Std(),
			Logger:      logger,
		})
	}
	cfg := concurrency.DefaultExecutorConfig()
	if e.Name != "" {
		cfg.Name = e.Name
	}
	cfg.Logger = logger
	return concurrency.NewExecutor(ctx, cfg)
}

// NewReactor builds the completion reactor described by s.Reactor. The
// caller starts and stops it.
func (s *Settings) NewReactor(logger core.Logger) *reactor.Reactor {
	opts := []reactor.Option{reactor.WithLogger(logger)}
	if s.Reactor.Name != "" {
		opts = append(opts, reactor.WithName(s.Reactor.Name))
	}
	if s.Reactor.MailboxSize > 0 {
		return reactor.New(s.Reactor.MailboxSize, opts...)
	}
	return reactor.NewUnbounded(opts...)
}
