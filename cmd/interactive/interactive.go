// Package interactive implements the tyr interactive command.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/tyr/internal/analyzer"
	"github.com/joshsymonds/tyr/internal/cli"
	"github.com/joshsymonds/tyr/internal/session"
	"github.com/joshsymonds/tyr/pkg/pathutil"
)

// Prompt is printed before each query.
const Prompt = "tyr> "

const helpText = `Ask any security question about the system under review.

Commands:
  help      Show this help
  history   Print the conversation so far
  clear     Start a new conversation
  exit      Leave (also: quit)
`

// Options represents interactive command options.
type Options struct {
	ContextFile string
}

// NewCommand returns the interactive command.
func NewCommand(env *cli.Env) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Ask follow-up security questions in a conversation",
		Long: `Interactive starts a conversation with the configured AI provider. Every
question is sent with the full history so far. --context seeds the
conversation with a document such as an architecture description.`,
		Example: `  tyr interactive
  tyr interactive --context architecture.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd, env, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ContextFile, "context", "", "File to load as context before the first question")
	return cmd
}

// Run reads queries from env.In until EOF or exit.
func Run(cmd *cobra.Command, env *cli.Env, opts *Options) error {
	var contextDoc string
	if opts.ContextFile != "" {
		abs, err := pathutil.ValidateInputPath(opts.ContextFile)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(abs) //nolint:gosec // Path validated above
		if err != nil {
			return fmt.Errorf("reading context: %w", err)
		}
		contextDoc = string(data)
	}

	cfg, err := env.LoadConfig()
	if err != nil {
		return err
	}
	a, err := env.NewAnalyzer(cfg)
	if err != nil {
		return err
	}

	newSession := func() *session.Session {
		return session.New(a, session.WithLogger(env.Logger), session.WithContext(contextDoc))
	}
	s := newSession()

	out := env.Out
	fmt.Fprintf(out, "tyr interactive session (%s). Type 'help' for commands.\n", cfg.Provider)
	if contextDoc != "" {
		fmt.Fprintf(out, "Loaded context from %s\n", opts.ContextFile)
	}

	ctx := cmd.Context()
	scanner := bufio.NewScanner(env.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help":
			fmt.Fprint(out, helpText)
			continue
		case "clear":
			s = newSession()
			fmt.Fprintln(out, "Started a new conversation.")
			continue
		case "history":
			printHistory(out, s)
			continue
		}

		reply, err := s.Ask(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if analyzer.IsFatal(err) {
				return err
			}
			fmt.Fprintf(out, "%s (%s)\n\n", session.Apology, analyzer.KindOf(err))
			continue
		}
		fmt.Fprintf(out, "\n%s\n\n", reply)
	}
}

func printHistory(w io.Writer, s *session.Session) {
	if s.Len() == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	fmt.Fprintln(w, s.Transcript())
}
