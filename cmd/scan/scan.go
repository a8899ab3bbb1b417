// Package scan implements the tyr scan command.
package scan

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/tyr/internal/analyzer"
	"github.com/joshsymonds/tyr/internal/batch"
	"github.com/joshsymonds/tyr/internal/cli"
	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/internal/report"
	"github.com/joshsymonds/tyr/internal/ui/bubbletea"
	"github.com/joshsymonds/tyr/pkg/logger"
)

// Options represents scan command options.
type Options struct {
	Output            cli.Output
	Pattern           string
	Format            string
	MinRisk           string
	FailOn            string
	MetricsFile       string
	Concurrency       int
	RequestsPerMinute int
	TUI               bool
	NoEducation       bool
}

// NewCommand returns the scan command.
func NewCommand(env *cli.Env) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "scan [DIR]",
		Short: "Analyze every matching file in a directory",
		Long: `Scan walks DIR (default ".") for files matching a glob pattern and analyzes
each one. Files that fail are reported alongside the successful results; one
failure never stops the rest of the scan.`,
		Example: `  tyr scan infra/
  tyr scan . --pattern '**/*.tf' --concurrency 4 --requests-per-minute 30
  tyr scan k8s/ --tui --fail-on high
  tyr scan . --format html --output scan.html --upload s3://reports/nightly/scan.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return Run(cmd, env, dir, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Pattern, "pattern", "p", "", "Glob of files to analyze, supports ** and {a,b} (default from config)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", report.FormatConsole, "Report format: "+strings.Join(report.ListFormats(), ", "))
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "c", 0, "Files analyzed at once, 1-8 (default from config)")
	cmd.Flags().IntVar(&opts.RequestsPerMinute, "requests-per-minute", -1, "Provider calls allowed per minute, 0 for unlimited (default from config)")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "Show live progress when attached to a terminal")
	cmd.Flags().StringVar(&opts.MinRisk, "min-risk", "", "Only list threats at or above this level")
	cmd.Flags().StringVar(&opts.FailOn, "fail-on", "", "Exit with status 2 when any threat is at or above this level")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	cmd.Flags().BoolVar(&opts.NoEducation, "no-education", false, "Omit educational notes from the analysis")
	opts.Output.AddFlags(cmd)

	return cmd
}

// Run scans dir and publishes the batch report.
func Run(cmd *cobra.Command, env *cli.Env, dir string, opts *Options) (err error) {
	minRisk, err := cli.ParseLevel("min-risk", opts.MinRisk)
	if err != nil {
		return err
	}
	failOn, err := cli.ParseLevel("fail-on", opts.FailOn)
	if err != nil {
		return err
	}
	format, err := report.GetFormat(opts.Format, report.Options{Logger: env.Logger, MinRisk: minRisk})
	if err != nil {
		return err
	}

	cfg, err := env.LoadConfig()
	if err != nil {
		return err
	}
	a, err := env.NewAnalyzer(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if mErr := env.WriteMetrics(opts.MetricsFile); mErr != nil && err == nil {
			err = mErr
		}
	}()

	pattern := opts.Pattern
	if pattern == "" {
		pattern = cfg.Scan.Pattern
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = cfg.Scan.Concurrency
	}
	rpm := opts.RequestsPerMinute
	if rpm < 0 {
		rpm = cfg.Scan.RequestsPerMinute
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	scanLogger := env.Logger
	scanOpts := []batch.Option{
		batch.WithConcurrency(concurrency),
		batch.WithRequestsPerMinute(rpm),
		batch.WithEducation(cfg.Analysis.IncludeEducation && !opts.NoEducation),
		batch.WithMetrics(env.Metrics),
		batch.WithTracerProvider(env.TracerProvider()),
	}

	var progress *bubbletea.ProgressUI
	if opts.TUI && env.IsTerminal() {
		progress = bubbletea.NewProgressUI(bubbletea.Config{
			StartTime: time.Now(),
			Directory: dir,
			Pattern:   pattern,
			Provider:  cfg.Provider,
			Logger:    env.Logger,
			OnQuit:    cancel,
		})
		// Log lines would tear the alternate screen.
		scanLogger = logger.NewLoggerWithWriter(io.Discard, false, "text")
		scanOpts = append(scanOpts, batch.WithObserver(progress))
		progress.Start()
		defer progress.Stop()
	}
	scanOpts = append(scanOpts, batch.WithLogger(scanLogger))

	env.Logger.Info("Starting scan", "directory", dir, "pattern", pattern, "concurrency", concurrency, "provider", cfg.Provider)

	result, err := batch.New(a, scanOpts...).Scan(ctx, dir, pattern)
	if err != nil {
		return err
	}
	if progress != nil {
		progress.Finish(summaryLines(result))
	}

	err = env.Publish(ctx, format, opts.Output, func(w io.Writer) error {
		return format.RenderBatch(w, result)
	})
	if err != nil {
		return err
	}

	return outcome(result, failOn)
}

// outcome turns a finished scan into the command's error. Fatal errors such
// as bad credentials fail every file the same way, so the first is returned.
func outcome(result *models.BatchResult, failOn models.RiskLevel) error {
	for _, fe := range result.Errors {
		if analyzer.IsFatal(fe.Err) {
			return fmt.Errorf("%s: %w", fe.Path, fe.Err)
		}
	}
	if result.Total() > 0 && result.Succeeded() == 0 {
		return fmt.Errorf("all %d files failed", result.Total())
	}
	return cli.CheckThreshold(failOn, result.CountAtOrAbove(failOn))
}

func summaryLines(result *models.BatchResult) []string {
	s := result.Summary()
	lines := []string{
		fmt.Sprintf("%d of %d files succeeded", result.Succeeded(), result.Total()),
		fmt.Sprintf("Threats: %d", s.Total),
	}
	if result.Succeeded() > 0 {
		lines = append(lines, fmt.Sprintf("Highest score: %g", result.HighestScore()))
	}
	return lines
}
