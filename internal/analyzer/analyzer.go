// Package analyzer is the single entry point for threat analysis. It drives a
// provider, parses and scores the response, and stamps run metadata on the
// result.
package analyzer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joshsymonds/tyr/internal/metrics"
	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/internal/parser"
	"github.com/joshsymonds/tyr/internal/provider"
	"github.com/joshsymonds/tyr/internal/scoring"
	"github.com/joshsymonds/tyr/pkg/logger"
)

const tracerName = "github.com/joshsymonds/tyr/internal/analyzer"

// Analyzer turns content into a scored AnalysisResult. It holds no mutable
// state and is safe for concurrent use.
type Analyzer struct {
	provider provider.Provider
	parser   *parser.Parser
	scorer   *scoring.Scorer
	logger   logger.Logger
	tracer   trace.Tracer
	metrics  *metrics.Recorder
	now      func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Analyzer) {
		a.logger = log
	}
}

// WithScorer replaces the default 25/15/8/3 scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(a *Analyzer) {
		a.scorer = s
	}
}

// WithTracerProvider sets the tracer provider used for spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Analyzer) {
		a.tracer = tp.Tracer(tracerName)
	}
}

// WithMetrics records analysis metrics into r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(a *Analyzer) {
		a.metrics = r
	}
}

// New creates an Analyzer over p.
func New(p provider.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: p,
		scorer:   scoring.NewDefault(),
		logger:   logger.GetGlobalLogger(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.parser = parser.New(parser.WithLogger(a.logger))
	return a
}

// Provider returns the backend in use.
func (a *Analyzer) Provider() provider.Provider {
	return a.provider
}

// Analyze runs one threat analysis. The returned result always carries an
// overall score in [0,100].
func (a *Analyzer) Analyze(ctx context.Context, content string, inputType models.InputType, includeEducation bool) (*models.AnalysisResult, error) {
	ctx, span := a.tracer.Start(ctx, "analyzer.Analyze", trace.WithAttributes(
		attribute.String("tyr.provider", a.provider.Name()),
		attribute.String("tyr.input_type", string(inputType)),
		attribute.Int("tyr.content_bytes", len(content)),
		attribute.Bool("tyr.include_education", includeEducation),
	))
	defer span.End()

	start := a.now()
	result, err := a.analyze(ctx, content, inputType, includeEducation)
	a.metrics.RecordAnalysis(a.provider.Name(), a.now().Sub(start), err)

	if err != nil {
		kind := KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		span.SetAttributes(attribute.String("tyr.error_kind", string(kind)))
		a.logger.Error("Threat analysis failed", "input_type", inputType, "kind", kind, "error", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("tyr.threats", len(result.Threats)),
		attribute.Float64("tyr.risk_score", result.Score()),
	)
	span.SetStatus(codes.Ok, "")

	for _, t := range result.Threats {
		a.metrics.RecordThreat(string(t.RiskLevel))
	}
	a.metrics.RecordScore(string(inputType), result.Score())

	a.logger.Info("Threat analysis complete",
		"id", result.ID,
		"input_type", inputType,
		"threats", len(result.Threats),
		"score", result.Score())
	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, content string, inputType models.InputType, includeEducation bool) (*models.AnalysisResult, error) {
	raw, err := a.callProvider(ctx, content, inputType, includeEducation)
	if err != nil {
		return nil, err
	}

	_, span := a.tracer.Start(ctx, "parser.Parse", trace.WithAttributes(
		attribute.Int("tyr.response_bytes", len(raw)),
	))
	parsed, err := a.parser.Parse(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed")
		span.End()
		a.logger.Debug("Unparseable provider response", "response_bytes", len(raw))
		return nil, err
	}
	span.End()

	parsed.ID = uuid.NewString()
	parsed.InputType = inputType
	parsed.Provider = a.provider.Name()
	parsed.AnalyzedAt = a.now().UTC()

	return a.scorer.Score(parsed), nil
}

func (a *Analyzer) callProvider(ctx context.Context, content string, inputType models.InputType, includeEducation bool) (string, error) {
	ctx, span := a.tracer.Start(ctx, "provider.AnalyzeThreats", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	raw, err := a.provider.AnalyzeThreats(ctx, content, inputType, includeEducation)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		return "", err
	}
	return raw, nil
}

// InteractiveQuery forwards one chat turn to the provider.
func (a *Analyzer) InteractiveQuery(ctx context.Context, query string, history []models.ChatMessage) (string, error) {
	ctx, span := a.tracer.Start(ctx, "provider.InteractiveQuery", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("tyr.history_len", len(history))))
	defer span.End()

	reply, err := a.provider.InteractiveQuery(ctx, query, history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		return "", err
	}
	return reply, nil
}
