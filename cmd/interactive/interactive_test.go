package interactive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/tyr/internal/cli/clitest"
	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/internal/provider"
	"github.com/joshsymonds/tyr/internal/session"
)

func execute(t *testing.T, env *clitest.Env, input string, args ...string) error {
	t.Helper()
	env.SetInput(input)
	cmd := NewCommand(env.Env)
	cmd.SetArgs(args)
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)
	return cmd.ExecuteContext(context.Background())
}

// echoProvider answers each query with the number of prior turns it saw.
func echoProvider() (*provider.MockProvider, *[][]models.ChatMessage) {
	var seen [][]models.ChatMessage
	p := provider.NewMockProvider("")
	p.QueryFunc = func(_ context.Context, query string, history []models.ChatMessage) (string, error) {
		seen = append(seen, history)
		return "answer to " + query, nil
	}
	return p, &seen
}

func TestInteractiveConversation(t *testing.T) {
	p, seen := echoProvider()
	env := clitest.NewEnv(t, p)

	err := execute(t, env, "What is spoofing?\n\nHow do I prevent it?\nexit\nnever asked\n")
	require.NoError(t, err)

	out := env.Stdout.String()
	assert.Contains(t, out, Prompt)
	assert.Contains(t, out, "answer to What is spoofing?")
	assert.Contains(t, out, "answer to How do I prevent it?")
	assert.NotContains(t, out, "never asked")

	require.Len(t, *seen, 2)
	assert.Empty(t, (*seen)[0])
	require.Len(t, (*seen)[1], 2)
	assert.Equal(t, models.RoleUser, (*seen)[1][0].Role)
	assert.Equal(t, "What is spoofing?", (*seen)[1][0].Content)
}

func TestInteractiveEOFEndsSession(t *testing.T) {
	p, seen := echoProvider()
	env := clitest.NewEnv(t, p)

	require.NoError(t, execute(t, env, "one question"))

	assert.Len(t, *seen, 1)
}

func TestInteractiveCommands(t *testing.T) {
	p, seen := echoProvider()
	env := clitest.NewEnv(t, p)

	input := strings.Join([]string{"help", "history", "first", "history", "clear", "second", "QUIT"}, "\n")
	require.NoError(t, execute(t, env, input))

	out := env.Stdout.String()
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "No messages yet.")
	assert.Contains(t, out, "user: first")
	assert.Contains(t, out, "assistant: answer to first")
	assert.Contains(t, out, "Started a new conversation.")

	require.Len(t, *seen, 2)
	assert.Empty(t, (*seen)[1], "clear drops the previous conversation")
}

func TestInteractiveContextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arch.md")
	require.NoError(t, os.WriteFile(path, []byte("Users log in through an API gateway."), 0o600))

	p, seen := echoProvider()
	env := clitest.NewEnv(t, p)

	require.NoError(t, execute(t, env, "What could go wrong?\nclear\nAnd now?\nexit\n", "--context", path))

	assert.Contains(t, env.Stdout.String(), "Loaded context from "+path)
	require.Len(t, *seen, 2)
	for _, history := range *seen {
		require.Len(t, history, 2)
		assert.Contains(t, history[0].Content, "Users log in through an API gateway.")
		assert.Equal(t, session.ContextReceipt, history[1].Content)
	}
}

func TestInteractiveContextFileMissing(t *testing.T) {
	env := clitest.NewEnv(t, provider.NewMockProvider(""))

	err := execute(t, env, "", "--context", filepath.Join(t.TempDir(), "missing.md"))

	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestInteractiveQueryFailureContinues(t *testing.T) {
	calls := 0
	p := provider.NewMockProvider("")
	p.QueryFunc = func(context.Context, string, []models.ChatMessage) (string, error) {
		calls++
		if calls == 1 {
			return "", provider.NewError("ollama", provider.ErrorTypeTimeout, context.DeadlineExceeded)
		}
		return "recovered", nil
	}
	env := clitest.NewEnv(t, p)

	require.NoError(t, execute(t, env, "first\nsecond\n"))

	out := env.Stdout.String()
	assert.Contains(t, out, session.Apology+" (timeout)")
	assert.Contains(t, out, "recovered")
	assert.Equal(t, 2, calls)
}

func TestInteractiveFatalErrorStops(t *testing.T) {
	p := provider.NewMockProvider("")
	p.QueryFunc = func(context.Context, string, []models.ChatMessage) (string, error) {
		return "", provider.NewError("claude", provider.ErrorTypeAuth, errors.New("invalid x-api-key"))
	}
	env := clitest.NewEnv(t, p)

	err := execute(t, env, "first\nsecond\n")

	require.Error(t, err)
	assert.True(t, provider.IsAuthError(err))
}
