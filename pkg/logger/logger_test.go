package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger(t *testing.T) {
	mock := NewMockLogger()

	mock.Info("Test message", "key", "value")
	mock.Debug("Debug message")
	mock.Warn("Warning message")
	mock.Error("Error message", "error", "test error")

	require.Len(t, mock.Entries(), 4)
	assert.True(t, mock.HasMessage("INFO", "Test message"))
	assert.True(t, mock.HasMessageContaining("ERROR", "Error"))
	assert.False(t, mock.HasMessageContaining("ERROR", "Warning"))
	assert.Equal(t, 1, mock.Count("WARN"))

	withContext := mock.With("user", "test-user")
	withContext.Info("Context message")

	last, ok := mock.Last()
	require.True(t, ok)
	assert.Equal(t, "Context message", last.Msg)
	assert.Equal(t, []any{"user", "test-user"}, last.Args)

	grouped := withContext.WithGroup("batch")
	grouped.Warn("grouped", "file", "a.tf")
	last, _ = mock.Last()
	assert.Equal(t, []any{"user", "test-user", "group", "batch", "file", "a.tf"}, last.Args)

	file, ok := last.Value("file")
	assert.True(t, ok)
	assert.Equal(t, "a.tf", file)
	_, ok = last.Value("missing")
	assert.False(t, ok)

	mock.Reset()
	assert.Empty(t, mock.Entries())
	_, ok = mock.Last()
	assert.False(t, ok)
}

func TestMockLoggerEntriesIsCopy(t *testing.T) {
	mock := NewMockLogger()
	mock.Info("first")

	entries := mock.Entries()
	entries[0].Msg = "changed"

	assert.True(t, mock.HasMessage("INFO", "first"))
}

func TestLoggerInterface(_ *testing.T) {
	var _ Logger = &SlogLogger{}
	var _ Logger = &MockLogger{}

	testLogger := func(l Logger) {
		l.Info("test")
		l.Debug("debug")
		l.Warn("warn")
		l.Error("error")
		l.With("key", "value").Info("with context")
	}

	testLogger(NewMockLogger())
	testLogger(NewLogger(false, "text"))
}

func TestNewLoggerWithWriter(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLoggerWithWriter(&buf, false, "json")
		l.With("provider", "ollama").Info("analysis complete", "threats", 3)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "analysis complete", entry["msg"])
		assert.Equal(t, "ollama", entry["provider"])
		assert.EqualValues(t, 3, entry["threats"])
	})

	t.Run("debug suppressed unless enabled", func(t *testing.T) {
		var buf bytes.Buffer
		NewLoggerWithWriter(&buf, false, "text").Debug("hidden")
		assert.Empty(t, buf.String())

		NewLoggerWithWriter(&buf, true, "text").Debug("shown")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(original) })

	mock := NewMockLogger()
	SetGlobalLogger(mock)

	Info("global info", "k", "v")
	WithProvider("claude").Warn("provider warning")

	assert.True(t, mock.HasMessage("INFO", "global info"))
	require.True(t, mock.HasMessage("WARN", "provider warning"))
	last, _ := mock.Last()
	provider, ok := last.Value("provider")
	assert.True(t, ok)
	assert.Equal(t, "claude", provider)
}
