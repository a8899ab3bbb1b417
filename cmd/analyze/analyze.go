// Package analyze implements the tyr analyze command.
package analyze

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/tyr/internal/batch"
	"github.com/joshsymonds/tyr/internal/cli"
	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/internal/report"
	"github.com/joshsymonds/tyr/pkg/pathutil"
)

// Options represents analyze command options.
type Options struct {
	Output      cli.Output
	InputType   string
	Format      string
	MinRisk     string
	FailOn      string
	MetricsFile string
	NoEducation bool
}

// NewCommand returns the analyze command.
func NewCommand(env *cli.Env) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze one file for STRIDE threats",
		Long: `Analyze sends one system description to the configured AI provider and
renders the scored threat model.`,
		Example: `  tyr analyze architecture.md
  tyr analyze main.tf --format html --output report.html
  tyr analyze deploy.yaml --type k8s --min-risk high --fail-on critical
  tyr analyze api.json --format json --upload s3://reports/api.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd, env, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputType, "type", "t", "", "Input type: architecture, terraform, kubernetes or api-spec (detected when empty)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", report.FormatConsole, "Report format: "+strings.Join(report.ListFormats(), ", "))
	cmd.Flags().StringVar(&opts.MinRisk, "min-risk", "", "Only list threats at or above this level")
	cmd.Flags().StringVar(&opts.FailOn, "fail-on", "", "Exit with status 2 when any threat is at or above this level")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	cmd.Flags().BoolVar(&opts.NoEducation, "no-education", false, "Omit educational notes from the analysis")
	opts.Output.AddFlags(cmd)

	return cmd
}

// Run analyzes path and publishes the report.
func Run(cmd *cobra.Command, env *cli.Env, path string, opts *Options) (err error) {
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

	content, inputType, err := readInput(path, opts.InputType)
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

	env.Logger.Info("Analyzing", "file", path, "input_type", inputType, "provider", cfg.Provider)

	ctx := cmd.Context()
	result, err := a.Analyze(ctx, content, inputType, cfg.Analysis.IncludeEducation && !opts.NoEducation)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", path, err)
	}

	err = env.Publish(ctx, format, opts.Output, func(w io.Writer) error {
		return format.Render(w, result)
	})
	if err != nil {
		return err
	}

	return cli.CheckThreshold(failOn, result.CountAtOrAbove(failOn))
}

func readInput(path, typeFlag string) (string, models.InputType, error) {
	abs, err := pathutil.ValidateInputPath(path)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(abs) //nolint:gosec // Path validated above
	if err != nil {
		return "", "", fmt.Errorf("reading input: %w", err)
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return "", "", &os.PathError{Op: "read", Path: path, Err: batch.ErrEmptyFile}
	}

	if typeFlag == "" {
		return content, batch.DetectInputType(abs, data), nil
	}
	inputType, err := models.ParseInputType(typeFlag)
	if err != nil {
		return "", "", err
	}
	return content, inputType, nil
}
