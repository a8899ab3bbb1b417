// Package config implements the tyr config command.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/tyr/internal/cli"
	"github.com/joshsymonds/tyr/internal/config"
	"github.com/joshsymonds/tyr/internal/provider"
)

// NewCommand returns the config command and its subcommands.
func NewCommand(env *cli.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and check configuration",
	}
	cmd.AddCommand(newShowCommand(env), newCheckCommand(env))
	return cmd
}

func newShowCommand(env *cli.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Show prints the configuration tyr would run with after defaults, the config
file, environment variables and flags are applied. Credentials are masked.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := env.LoadConfig()
			if err != nil {
				return err
			}
			return Show(env, cfg)
		},
	}
}

// Show writes cfg as YAML with credentials masked.
func Show(env *cli.Env, cfg config.Config) error {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if _, err := env.Out.Write(data); err != nil {
		return err
	}

	key := "not set"
	if cfg.Claude.APIKey != "" {
		key = "set"
	}
	fmt.Fprintf(env.Out, "# %s: %s\n", config.EnvAnthropicKey, key)
	return nil
}

func newCheckCommand(env *cli.Env) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and check the provider is reachable",
		Example: `  tyr config check
  tyr --provider ollama --model llama3.1:8b config check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			return Check(ctx, env)
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "How long to wait for the provider")
	return cmd
}

// Check validates configuration, constructs the provider and runs its health
// check when it has one.
func Check(ctx context.Context, env *cli.Env) error {
	fmt.Fprintln(env.Out, "Validating configuration...")
	cfg, err := env.LoadConfig()
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	fmt.Fprintf(env.Out, "  provider: %s\n", cfg.Provider)

	p, err := env.NewProvider(cfg, provider.WithLogger(env.Logger))
	if err != nil {
		return err
	}

	hc, ok := p.(provider.HealthChecker)
	if !ok {
		fmt.Fprintf(env.Out, "  %s has no health check; credentials are verified on first use\n", p.Name())
		fmt.Fprintln(env.Out, "Configuration is valid.")
		return nil
	}

	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%s health check failed: %w", p.Name(), err)
	}
	fmt.Fprintf(env.Out, "  %s is reachable\n", p.Name())
	fmt.Fprintln(env.Out, "Configuration is valid.")
	return nil
}
