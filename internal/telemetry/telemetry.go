// Package telemetry installs the OpenTelemetry tracer provider for a run.
// Spans go to a JSON lines file, to an OTLP/HTTP collector, or nowhere.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/joshsymonds/tyr/pkg/pathutil"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "tyr"

// Settings selects the span exporters.
type Settings struct {
	// File receives one JSON span per line.
	File string
	// OTLP exports over OTLP/HTTP, configured from the OTEL_EXPORTER_OTLP_*
	// environment variables.
	OTLP    bool
	Version string
}

// Enabled reports whether any exporter is selected.
func (s Settings) Enabled() bool {
	return s.File != "" || s.OTLP
}

// Tracing owns the tracer provider and whatever its exporters hold open.
type Tracing struct {
	provider trace.TracerProvider
	sdk      *sdktrace.TracerProvider
	file     *os.File
}

// Disabled returns a Tracing whose spans are dropped.
func Disabled() *Tracing {
	return &Tracing{provider: noop.NewTracerProvider()}
}

// Setup builds the tracer provider described by s.
func Setup(ctx context.Context, s Settings) (*Tracing, error) {
	if !s.Enabled() {
		return Disabled(), nil
	}

	t := &Tracing{}
	var opts []sdktrace.TracerProviderOption

	if s.File != "" {
		path, err := pathutil.ValidateOutputPath(s.File)
		if err != nil {
			return nil, fmt.Errorf("invalid trace file: %w", err)
		}
		f, err := os.Create(path) //nolint:gosec // path validated above
		if err != nil {
			return nil, fmt.Errorf("creating trace file: %w", err)
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(f))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("creating file exporter: %w", err)
		}
		t.file = f
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	if s.OTLP {
		exp, err := otlptracehttp.New(ctx)
		if err != nil {
			t.closeFile()
			return nil, fmt.Errorf("creating otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	version := s.Version
	if version == "" {
		version = "dev"
	}
	opts = append(opts, sdktrace.WithResource(resource.NewSchemaless(
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(version),
	)))

	t.sdk = sdktrace.NewTracerProvider(opts...)
	t.provider = t.sdk
	return t, nil
}

// Provider returns the tracer provider to hand to the analyzer and scanner.
func (t *Tracing) Provider() trace.TracerProvider {
	if t == nil || t.provider == nil {
		return noop.NewTracerProvider()
	}
	return t.provider
}

// Shutdown flushes buffered spans and closes the exporters.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.sdk == nil {
		return nil
	}
	err := t.sdk.Shutdown(ctx)
	if t.file != nil {
		err = errors.Join(err, t.file.Close())
		t.file = nil
	}
	return err
}

func (t *Tracing) closeFile() {
	if t.file != nil {
		_ = t.file.Close()
		t.file = nil
	}
}
