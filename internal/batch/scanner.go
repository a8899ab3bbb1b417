// Package batch analyzes every matching file under a directory with bounded
// concurrency. A failing file becomes an error entry and never stops the
// rest of the scan.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/joshsymonds/tyr/internal/analyzer"
	"github.com/joshsymonds/tyr/internal/config"
	"github.com/joshsymonds/tyr/internal/metrics"
	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/pkg/logger"
)

const tracerName = "github.com/joshsymonds/tyr/internal/batch"

// DefaultConcurrency is the number of files analyzed at once.
const DefaultConcurrency = 2

// ErrEmptyFile is reported for files with no content to analyze.
var ErrEmptyFile = errors.New("file is empty")

// Observer is notified as files move through a scan. Methods are called from
// worker goroutines and must be safe for concurrent use.
type Observer interface {
	ScanStarted(runID string, files []string)
	FileStarted(path string)
	FileFinished(path string, result *models.AnalysisResult, err error)
}

// Scanner drives an Analyzer over a directory.
type Scanner struct {
	analyzer         *analyzer.Analyzer
	logger           logger.Logger
	tracer           trace.Tracer
	metrics          *metrics.Recorder
	limiter          *rate.Limiter
	observer         Observer
	now              func() time.Time
	concurrency      int
	includeEducation bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Scanner) {
		s.logger = log
	}
}

// WithConcurrency caps how many files are analyzed at once. Values are
// clamped to 1..config.MaxConcurrency.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		s.concurrency = min(max(n, 1), config.MaxConcurrency)
	}
}

// WithRequestsPerMinute limits provider calls across all workers. Zero or
// less means unlimited.
func WithRequestsPerMinute(n int) Option {
	return func(s *Scanner) {
		if n <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithEducation controls whether prompts ask for educational notes.
func WithEducation(include bool) Option {
	return func(s *Scanner) {
		s.includeEducation = include
	}
}

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(s *Scanner) {
		s.observer = o
	}
}

// WithMetrics records per-file outcomes into r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Scanner) {
		s.metrics = r
	}
}

// WithTracerProvider sets the tracer provider used for spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scanner) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// New creates a Scanner over a.
func New(a *analyzer.Analyzer, opts ...Option) *Scanner {
	s := &Scanner{
		analyzer:         a,
		logger:           logger.GetGlobalLogger(),
		tracer:           otel.Tracer(tracerName),
		observer:         nopObserver{},
		now:              time.Now,
		concurrency:      DefaultConcurrency,
		includeEducation: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s
}

// Files lists the regular files under dir matching pattern, as
// slash-separated paths relative to dir in lexicographic order.
func Files(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning directory: %s is not a directory", dir)
	}

	files, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("matching %q: %w", pattern, err)
	}
	sort.Strings(files)
	return files, nil
}

type fileOutcome struct {
	result    *models.AnalysisResult
	err       error
	inputType models.InputType
}

// Scan analyzes every file under dir matching pattern. Only enumeration
// failures are returned as errors; per-file failures are recorded in the
// result's Errors in the same path order as Results.
func (s *Scanner) Scan(ctx context.Context, dir, pattern string) (*models.BatchResult, error) {
	files, err := Files(dir, pattern)
	if err != nil {
		return nil, err
	}

	batch := &models.BatchResult{
		RunID:     uuid.NewString(),
		Directory: dir,
		Pattern:   pattern,
		Files:     files,
		StartedAt: s.now(),
	}

	ctx, span := s.tracer.Start(ctx, "batch.Scan", trace.WithAttributes(
		attribute.String("tyr.run_id", batch.RunID),
		attribute.String("tyr.pattern", pattern),
		attribute.Int("tyr.files", len(files)),
		attribute.Int("tyr.concurrency", s.concurrency),
	))
	defer span.End()

	log := s.logger.With("run_id", batch.RunID)
	log.Info("Starting batch scan", "directory", dir, "pattern", pattern, "files", len(files), "concurrency", s.concurrency)
	s.observer.ScanStarted(batch.RunID, files)

	fsys := os.DirFS(dir)
	outcomes := make([]fileOutcome, len(files))

	// A plain group: one file failing must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, path := range files {
		g.Go(func() error {
			outcomes[i] = s.scanFile(ctx, log, fsys, path)
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range outcomes {
		if o.err != nil {
			batch.Errors = append(batch.Errors, models.FileError{
				Path:    files[i],
				Kind:    analyzer.KindOf(o.err),
				Message: o.err.Error(),
				Err:     o.err,
			})
			continue
		}
		batch.Results = append(batch.Results, models.FileResult{
			Path:      files[i],
			InputType: o.inputType,
			Result:    o.result,
		})
	}
	batch.FinishedAt = s.now()

	span.SetAttributes(
		attribute.Int("tyr.succeeded", batch.Succeeded()),
		attribute.Int("tyr.failed", len(batch.Errors)),
	)
	log.Info("Batch scan complete",
		"succeeded", batch.Succeeded(),
		"failed", len(batch.Errors),
		"duration", batch.FinishedAt.Sub(batch.StartedAt))
	return batch, nil
}

func (s *Scanner) scanFile(ctx context.Context, log logger.Logger, fsys fs.FS, path string) fileOutcome {
	ctx, span := s.tracer.Start(ctx, "batch.File", trace.WithAttributes(attribute.String("tyr.file", path)))
	defer span.End()

	s.observer.FileStarted(path)
	o := s.analyzeFile(ctx, fsys, path)
	s.metrics.RecordFile(o.err == nil)

	if o.err != nil {
		kind := analyzer.KindOf(o.err)
		span.RecordError(o.err)
		span.SetStatus(codes.Error, string(kind))
		log.Warn("File analysis failed", "file", path, "kind", kind, "error", o.err)
	} else {
		span.SetAttributes(attribute.String("tyr.input_type", string(o.inputType)))
		log.Debug("File analyzed", "file", path, "input_type", o.inputType, "threats", len(o.result.Threats))
	}

	s.observer.FileFinished(path, o.result, o.err)
	return o
}

func (s *Scanner) analyzeFile(ctx context.Context, fsys fs.FS, path string) fileOutcome {
	if err := ctx.Err(); err != nil {
		return fileOutcome{err: err}
	}

	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fileOutcome{err: err}
	}
	inputType := DetectInputType(path, content)
	if len(bytes.TrimSpace(content)) == 0 {
		return fileOutcome{inputType: inputType, err: &fs.PathError{Op: "read", Path: path, Err: ErrEmptyFile}}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fileOutcome{inputType: inputType, err: fmt.Errorf("waiting for rate limit: %w", err)}
		}
	}

	result, err := s.analyzer.Analyze(ctx, string(content), inputType, s.includeEducation)
	return fileOutcome{result: result, err: err, inputType: inputType}
}

type nopObserver struct{}

func (nopObserver) ScanStarted(string, []string)                        {}
func (nopObserver) FileStarted(string)                                  {}
func (nopObserver) FileFinished(string, *models.AnalysisResult, error) {}
