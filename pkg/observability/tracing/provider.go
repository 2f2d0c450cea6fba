package tracing

import (
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/fluxorio/asyncworker/pkg/config"
)

// NewProvider builds a tracer provider exporting to the configured backend.
// stdout spans are written to w (os.Stdout if nil). With exporter "none" the
// provider records spans but exports nothing. Callers must Shutdown it.
func NewProvider(s config.TracingSettings, w io.Writer) (*sdktrace.TracerProvider, error) {
	service := s.ServiceName
	if service == "" {
		service = "asyncworker"
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	}

	switch s.Exporter {
	case "", config.TracingNone:
	case config.TracingStdout:
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("tracing: stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithSyncer(exp))
	case config.TracingZipkin:
		exp, err := zipkin.New(s.ZipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("tracing: zipkin exporter %s: %w", s.ZipkinEndpoint, err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	default:
		return nil, fmt.Errorf("tracing: unknown exporter %q", s.Exporter)
	}

	return sdktrace.NewTracerProvider(opts...), nil
}
