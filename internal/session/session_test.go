package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/tyr/internal/analyzer"
	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/internal/provider"
	"github.com/joshsymonds/tyr/pkg/logger"
)

func roles(history []models.ChatMessage) []models.Role {
	out := make([]models.Role, len(history))
	for i, m := range history {
		out[i] = m.Role
	}
	return out
}

func TestAskAppendsQueryAndReply(t *testing.T) {
	var seen [][]models.ChatMessage
	mock := &provider.MockProvider{
		QueryFunc: func(_ context.Context, query string, history []models.ChatMessage) (string, error) {
			seen = append(seen, history)
			return "answer to " + query, nil
		},
	}
	s := New(mock, WithLogger(logger.NewMockLogger()))

	reply, err := s.Ask(context.Background(), "  What about spoofing?  ")
	require.NoError(t, err)
	assert.Equal(t, "answer to What about spoofing?", reply)

	_, err = s.Ask(context.Background(), "And tampering?")
	require.NoError(t, err)

	history := s.History()
	require.Len(t, history, 4)
	assert.Equal(t, []models.Role{models.RoleUser, models.RoleAssistant, models.RoleUser, models.RoleAssistant}, roles(history))
	assert.Equal(t, "What about spoofing?", history[0].Content)
	assert.Equal(t, "answer to And tampering?", history[3].Content)

	// Each call receives only the turns before the new query.
	require.Len(t, seen, 2)
	assert.Empty(t, seen[0])
	require.Len(t, seen[1], 2)
	assert.Equal(t, "What about spoofing?", seen[1][0].Content)
}

func TestAskFailureAppendsApology(t *testing.T) {
	boom := provider.NewErrorf("ollama", provider.ErrorTypeUnavailable, "cannot reach ollama")
	mock := &provider.MockProvider{
		QueryFunc: func(context.Context, string, []models.ChatMessage) (string, error) {
			return "", boom
		},
	}
	log := logger.NewMockLogger()
	s := New(mock, WithLogger(log))

	reply, err := s.Ask(context.Background(), "Is the bucket public?")
	require.Error(t, err)
	assert.Empty(t, reply)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, models.ErrorKindUnavailable, analyzer.KindOf(err))

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "Is the bucket public?", history[0].Content)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, Apology, history[1].Content)
	assert.True(t, log.HasMessage("WARN", "Interactive query failed"))
}

func TestAskEmptyQuery(t *testing.T) {
	mock := provider.NewMockProvider("")
	s := New(mock, WithLogger(logger.NewMockLogger()))

	_, err := s.Ask(context.Background(), " \n\t")
	require.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, s.Len())
	assert.Empty(t, mock.QueryCalls())
}

func TestWithContextSeedsHistory(t *testing.T) {
	var got []models.ChatMessage
	mock := &provider.MockProvider{
		QueryFunc: func(_ context.Context, _ string, history []models.ChatMessage) (string, error) {
			got = history
			return "ok", nil
		},
	}
	s := New(mock, WithLogger(logger.NewMockLogger()), WithContext("web -> api -> postgres"))

	require.Equal(t, 2, s.Len())
	_, err := s.Ask(context.Background(), "Where is the trust boundary?")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, models.RoleUser, got[0].Role)
	assert.Contains(t, got[0].Content, "web -> api -> postgres")
	assert.Equal(t, ContextReceipt, got[1].Content)
}

func TestAddContextIgnoresBlank(t *testing.T) {
	s := New(provider.NewMockProvider(""), WithLogger(logger.NewMockLogger()))
	s.AddContext("   ")
	assert.Zero(t, s.Len())
}

func TestHistoryIsACopy(t *testing.T) {
	s := New(provider.NewMockProvider(""), WithLogger(logger.NewMockLogger()))
	_, err := s.Ask(context.Background(), "q")
	require.NoError(t, err)

	h := s.History()
	h[0].Content = "changed"
	assert.Equal(t, "q", s.History()[0].Content)
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := New(provider.NewMockProvider(""), WithLogger(logger.NewMockLogger()))
	b := New(provider.NewMockProvider(""), WithLogger(logger.NewMockLogger()))
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestTranscript(t *testing.T) {
	mock := &provider.MockProvider{
		QueryFunc: func(context.Context, string, []models.ChatMessage) (string, error) {
			return "Use mTLS.", nil
		},
	}
	s := New(mock, WithLogger(logger.NewMockLogger()))
	s.now = func() time.Time { return time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC) }

	_, err := s.Ask(context.Background(), "How do I secure service calls?")
	require.NoError(t, err)

	out := s.Transcript()
	assert.Contains(t, out, "[09:30:00] user: How do I secure service calls?")
	assert.Contains(t, out, "[09:30:00] assistant: Use mTLS.")
	assert.Less(t, strings.Index(out, "user:"), strings.Index(out, "assistant:"))
}

func TestAskThroughAnalyzer(t *testing.T) {
	mock := &provider.MockProvider{
		QueryFunc: func(context.Context, string, []models.ChatMessage) (string, error) {
			return "", errors.New("boom")
		},
	}
	a := analyzer.New(mock, analyzer.WithLogger(logger.NewMockLogger()))
	s := New(a, WithLogger(logger.NewMockLogger()))

	_, err := s.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"q"}, mock.QueryCalls())
}
