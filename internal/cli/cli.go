// Package cli holds the wiring shared by the tyr subcommands: configuration
// binding, analyzer construction and report delivery.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"

	"github.com/joshsymonds/tyr/internal/analyzer"
	"github.com/joshsymonds/tyr/internal/config"
	"github.com/joshsymonds/tyr/internal/metrics"
	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/internal/provider"
	"github.com/joshsymonds/tyr/internal/report"
	"github.com/joshsymonds/tyr/internal/scoring"
	"github.com/joshsymonds/tyr/internal/storage"
	"github.com/joshsymonds/tyr/internal/telemetry"
	"github.com/joshsymonds/tyr/pkg/logger"
	"github.com/joshsymonds/tyr/pkg/pathutil"
)

// Viper keys that are not environment variable names.
const (
	KeyConfig    = "config"
	KeyDebug     = "debug"
	KeyLogFormat = "log_format"
	KeyTraceFile = "trace_file"
)

// OTLP endpoint variables. Either one turns on OTLP span export.
const (
	EnvOTLPEndpoint       = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPTracesEndpoint = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
)

// EnvConfigFile names the config file when --config is absent.
const EnvConfigFile = "TYR_CONFIG"

// DefaultHTMLOutput is where HTML reports go when no --output is given.
const DefaultHTMLOutput = "threat_report.html"

// ErrRiskThreshold is returned when --fail-on finds a threat at or above the
// requested level.
var ErrRiskThreshold = errors.New("risk threshold exceeded")

// ProviderFactory builds a provider from configuration.
type ProviderFactory func(cfg config.Config, opts ...provider.Option) (provider.Provider, error)

// Env is the process environment a command runs in.
type Env struct {
	Viper       *viper.Viper
	Logger      logger.Logger
	Metrics     *metrics.Recorder
	In          io.Reader
	Out         io.Writer
	Err         io.Writer
	NewProvider ProviderFactory
	// IsTerminal reports whether Out is an interactive terminal.
	IsTerminal func() bool
	// Version is stamped on exported spans.
	Version string

	tracing *telemetry.Tracing
}

// NewEnv returns an Env bound to the standard streams and process
// environment.
func NewEnv() *Env {
	v := viper.New()
	v.AutomaticEnv()
	_ = v.BindEnv(KeyConfig, EnvConfigFile)

	return &Env{
		Viper:       v,
		Logger:      logger.GetGlobalLogger(),
		Metrics:     metrics.New(),
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		NewProvider: provider.New,
		IsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // Fd fits in int
		},
	}
}

// Lookup resolves a config key through viper, so bound flags win over the
// environment.
func (e *Env) Lookup(key string) (string, bool) {
	if !e.Viper.IsSet(key) {
		return "", false
	}
	return e.Viper.GetString(key), true
}

// LoadConfig builds the validated configuration for this run.
func (e *Env) LoadConfig() (config.Config, error) {
	path := e.Viper.GetString(KeyConfig)
	if path != "" {
		abs, err := pathutil.ValidateConfigPath(path)
		if err != nil {
			return config.Config{}, &config.ConfigurationError{Field: "config", Message: err.Error()}
		}
		path = abs
	}

	cfg, err := config.Load(path, e.Lookup)
	if err != nil {
		return config.Config{}, err
	}
	e.Logger.Debug("Loaded configuration", "provider", cfg.Provider, "file", path, "timeout", cfg.Timeout)
	return cfg, nil
}

// NewAnalyzer builds the provider named by cfg and an analyzer over it.
func (e *Env) NewAnalyzer(cfg config.Config) (*analyzer.Analyzer, error) {
	p, err := e.NewProvider(cfg, provider.WithLogger(e.Logger))
	if err != nil {
		return nil, err
	}
	return analyzer.New(p,
		analyzer.WithLogger(e.Logger),
		analyzer.WithScorer(scoring.New(cfg.Analysis.Weights)),
		analyzer.WithMetrics(e.Metrics),
		analyzer.WithTracerProvider(e.TracerProvider()),
	), nil
}

// StartTracing installs span export when --trace-file or an OTLP endpoint is
// set. Without either, spans are dropped.
func (e *Env) StartTracing(ctx context.Context) error {
	settings := telemetry.Settings{
		File:    e.Viper.GetString(KeyTraceFile),
		OTLP:    e.Viper.GetString(EnvOTLPEndpoint) != "" || e.Viper.GetString(EnvOTLPTracesEndpoint) != "",
		Version: e.Version,
	}
	tracing, err := telemetry.Setup(ctx, settings)
	if err != nil {
		return &config.ConfigurationError{Field: "trace-file", Message: err.Error()}
	}
	e.tracing = tracing
	if settings.Enabled() {
		e.Logger.Debug("Tracing enabled", "file", settings.File, "otlp", settings.OTLP)
	}
	return nil
}

// TracerProvider returns the provider installed by StartTracing, or a no-op
// provider before it runs.
func (e *Env) TracerProvider() trace.TracerProvider {
	return e.tracing.Provider()
}

// StopTracing flushes and closes the span exporters.
func (e *Env) StopTracing(ctx context.Context) error {
	err := e.tracing.Shutdown(ctx)
	e.tracing = nil
	return err
}

// Output describes where a rendered report goes.
type Output struct {
	// Path writes the report to a local file.
	Path string
	// Upload also puts the report to an s3://bucket/key URL.
	Upload     string
	S3Endpoint string
	S3Region   string
}

// AddFlags registers the report destination flags on cmd.
func (o *Output) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Path, "output", "o", "", "Write the report to this file (HTML defaults to "+DefaultHTMLOutput+")")
	cmd.Flags().StringVar(&o.Upload, "upload", "", "Also upload the report to s3://bucket/key")
	cmd.Flags().StringVar(&o.S3Endpoint, "s3-endpoint", "", "Custom S3 endpoint, e.g. http://localhost:4566")
	cmd.Flags().StringVar(&o.S3Region, "s3-region", "", "AWS region for uploads")
}

func (o Output) s3Options() []storage.S3Option {
	var opts []storage.S3Option
	if o.S3Endpoint != "" {
		opts = append(opts, storage.WithEndpoint(o.S3Endpoint))
	}
	if o.S3Region != "" {
		opts = append(opts, storage.WithRegion(o.S3Region))
	}
	return opts
}

// Publish renders with render and delivers the bytes to out. Without a path
// or upload the report goes to Out, except HTML which defaults to
// DefaultHTMLOutput.
func (e *Env) Publish(ctx context.Context, format report.Format, out Output, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("rendering %s report: %w", format.Name(), err)
	}
	data := buf.Bytes()

	path := out.Path
	if path == "" && format.Name() == report.FormatHTML {
		path = DefaultHTMLOutput
	}

	if path == "" && out.Upload == "" {
		_, err := e.Out.Write(data)
		return err
	}

	contentType := storage.ContentType(format.Extension())

	if path != "" {
		abs, err := pathutil.ValidateOutputPath(path)
		if err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
		sink := storage.NewFileSinkWithLogger(filepath.Dir(abs), e.Logger)
		written, err := sink.Put(ctx, filepath.Base(abs), data, contentType)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.Err, "Report written to %s\n", written)
	}

	if out.Upload != "" {
		bucket, key, err := storage.ParseS3URL(out.Upload)
		if err != nil {
			return err
		}
		opts := append([]storage.S3Option{storage.WithS3Logger(e.Logger)}, out.s3Options()...)
		sink, err := storage.NewS3Sink(ctx, bucket, opts...)
		if err != nil {
			return err
		}
		location, err := sink.Put(ctx, key, data, contentType)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.Err, "Report uploaded to %s\n", location)
	}
	return nil
}

// WriteMetrics exports collected metrics when path is set.
func (e *Env) WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	if _, err := pathutil.ValidateOutputPath(path); err != nil {
		return fmt.Errorf("invalid metrics path: %w", err)
	}
	if err := e.Metrics.WriteTextfile(path); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	e.Logger.Debug("Wrote metrics", "path", path)
	return nil
}

// ParseLevel parses a risk level flag. Empty means no level.
func ParseLevel(flag, value string) (models.RiskLevel, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	level, ok := models.ParseRiskLevel(value)
	if !ok {
		return "", &config.ConfigurationError{
			Field:   flag,
			Message: fmt.Sprintf("unknown risk level %q (expected critical, high, medium or low)", value),
		}
	}
	return level, nil
}

// CheckThreshold returns ErrRiskThreshold when count threats reach level.
func CheckThreshold(level models.RiskLevel, count int) error {
	if level == "" || count == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d threat(s) at or above %s", ErrRiskThreshold, count, level)
}

// ExitCode maps a command error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrRiskThreshold):
		return 2
	default:
		return 1
	}
}
