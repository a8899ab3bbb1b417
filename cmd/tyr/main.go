// Package main is the entry point for the tyr threat modeling CLI. tyr sends
// architecture descriptions, infrastructure code and API specifications to an
// AI backend for STRIDE threat analysis and renders the scored results.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/tyr/cmd/analyze"
	configcmd "github.com/joshsymonds/tyr/cmd/config"
	"github.com/joshsymonds/tyr/cmd/interactive"
	"github.com/joshsymonds/tyr/cmd/scan"
	"github.com/joshsymonds/tyr/internal/analyzer"
	"github.com/joshsymonds/tyr/internal/cli"
	"github.com/joshsymonds/tyr/internal/config"
	"github.com/joshsymonds/tyr/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	env := cli.NewEnv()
	env.Version = version

	err := execute(ctx, env, newRootCommand(env))
	stop()

	if err != nil {
		switch {
		case errors.Is(err, cli.ErrRiskThreshold):
			fmt.Fprintln(env.Err, err)
		default:
			env.Logger.Error("Command failed", "error", err, "kind", analyzer.KindOf(err))
		}
		os.Exit(cli.ExitCode(err))
	}
}

// tracingShutdownTimeout bounds the span flush at exit.
const tracingShutdownTimeout = 5 * time.Second

// execute runs root and then flushes any exported spans, even when the run
// was interrupted.
func execute(ctx context.Context, env *cli.Env, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tracingShutdownTimeout)
	defer cancel()
	if sErr := env.StopTracing(flushCtx); sErr != nil {
		env.Logger.Warn("Failed to flush traces", "error", sErr)
	}
	return err
}

func newRootCommand(env *cli.Env) *cobra.Command {
	root := &cobra.Command{
		Use:   "tyr",
		Short: "AI-assisted STRIDE threat modeling",
		Long: `tyr analyzes system descriptions for security threats using the STRIDE
methodology. Architecture documents, Terraform, Kubernetes manifests and API
specifications are sent to Claude or a local Ollama model, and the resulting
threat model is scored and rendered as console text, JSON or HTML.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger.SetupLogger(env.Viper.GetBool(cli.KeyDebug), env.Viper.GetString(cli.KeyLogFormat))
			env.Logger = logger.GetGlobalLogger()
			return env.StartTracing(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Configuration file (.yaml), also read from $"+cli.EnvConfigFile)
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", "text", "Log format (text or json)")
	flags.String("provider", "", "AI provider: claude or ollama (overrides $"+config.EnvProvider+")")
	flags.String("model", "", "Model name for the selected provider")
	flags.String("ollama-host", "", "Ollama server URL (overrides $"+config.EnvOllamaHost+")")
	flags.String("timeout", "", "Per-request timeout, e.g. 90s (overrides $"+config.EnvTimeout+")")
	flags.String("trace-file", "", "Write OpenTelemetry spans to this file as JSON lines (OTLP export follows $"+cli.EnvOTLPEndpoint+")")

	bindings := map[string]string{
		cli.KeyConfig:         "config",
		cli.KeyDebug:          "debug",
		cli.KeyLogFormat:      "log-format",
		cli.KeyTraceFile:      "trace-file",
		config.EnvProvider:    "provider",
		config.EnvClaudeModel: "model",
		config.EnvOllamaModel: "model",
		config.EnvOllamaHost:  "ollama-host",
		config.EnvTimeout:     "timeout",
	}
	for key, name := range bindings {
		_ = env.Viper.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(
		analyze.NewCommand(env),
		scan.NewCommand(env),
		interactive.NewCommand(env),
		configcmd.NewCommand(env),
	)
	return root
}
