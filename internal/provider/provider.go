// Package provider abstracts the generative backends that perform threat
// analysis. Exactly two variants exist: a remote hosted model reached over an
// authenticated API and a locally running Ollama daemon. Both are built once
// from configuration and hold no mutable state afterwards, so a single value
// is safe to share across goroutines.
package provider

import (
	"context"
	"time"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/pkg/logger"
)

// Provider names accepted by configuration.
const (
	NameClaude = "claude"
	NameOllama = "ollama"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 120 * time.Second

// Sampling temperatures. Analysis favors repeatable output.
const (
	analysisTemperature = 0.3
	chatTemperature     = 0.7
)

// Provider is the capability set every backend implements. Calls perform no
// retries; retry policy belongs to the caller.
type Provider interface {
	// Name returns the provider identifier, e.g. "claude".
	Name() string

	// AnalyzeThreats asks the backend for a threat model of content and
	// returns its raw text response.
	AnalyzeThreats(ctx context.Context, content string, inputType models.InputType, includeEducation bool) (string, error)

	// InteractiveQuery sends the conversation so far plus query and returns
	// the backend's raw reply.
	InteractiveQuery(ctx context.Context, query string, history []models.ChatMessage) (string, error)
}

// HealthChecker is implemented by providers that can verify their backend
// is ready before any analysis is attempted.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// options are shared construction settings.
type options struct {
	logger  logger.Logger
	timeout time.Duration
}

// Option configures a provider at construction.
type Option func(*options)

// WithLogger sets the provider logger.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithTimeout sets the per-call timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func buildOptions(name string, opts []Option) options {
	o := options{
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.WithProvider(name)
	} else {
		o.logger = o.logger.With("provider", name)
	}
	return o
}
