package logger

import (
	"strings"
	"sync"
)

// Entry is one message captured by a MockLogger.
type Entry struct {
	Level string
	Msg   string
	Args  []any
}

// Value returns the value logged for key, searching the key/value pairs in Args.
func (e Entry) Value(key string) (any, bool) {
	for i := 0; i+1 < len(e.Args); i += 2 {
		if k, ok := e.Args[i].(string); ok && k == key {
			return e.Args[i+1], true
		}
	}
	return nil, false
}

type journal struct {
	mu      sync.Mutex
	entries []Entry
}

// MockLogger captures log messages in memory for assertions.
// Loggers derived with With or WithGroup write to the same journal.
type MockLogger struct {
	journal *journal
	attrs   []any
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{journal: &journal{}}
}

func (m *MockLogger) log(level, msg string, args []any) {
	all := make([]any, 0, len(m.attrs)+len(args))
	all = append(all, m.attrs...)
	all = append(all, args...)

	m.journal.mu.Lock()
	m.journal.entries = append(m.journal.entries, Entry{Level: level, Msg: msg, Args: all})
	m.journal.mu.Unlock()
}

func (m *MockLogger) Debug(msg string, args ...any) { m.log("DEBUG", msg, args) }
func (m *MockLogger) Info(msg string, args ...any)  { m.log("INFO", msg, args) }
func (m *MockLogger) Warn(msg string, args ...any)  { m.log("WARN", msg, args) }
func (m *MockLogger) Error(msg string, args ...any) { m.log("ERROR", msg, args) }

func (m *MockLogger) With(args ...any) Logger {
	attrs := append(append([]any(nil), m.attrs...), args...)
	return &MockLogger{journal: m.journal, attrs: attrs}
}

func (m *MockLogger) WithGroup(name string) Logger {
	return m.With("group", name)
}

// Entries returns a copy of everything logged so far.
func (m *MockLogger) Entries() []Entry {
	m.journal.mu.Lock()
	defer m.journal.mu.Unlock()
	return append([]Entry(nil), m.journal.entries...)
}

// Last returns the most recent entry.
func (m *MockLogger) Last() (Entry, bool) {
	entries := m.Entries()
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[len(entries)-1], true
}

// HasMessage reports whether msg was logged at level.
func (m *MockLogger) HasMessage(level, msg string) bool {
	return m.find(level, func(got string) bool { return got == msg })
}

// HasMessageContaining reports whether a message at level contains substr.
func (m *MockLogger) HasMessageContaining(level, substr string) bool {
	return m.find(level, func(got string) bool { return strings.Contains(got, substr) })
}

func (m *MockLogger) find(level string, match func(string) bool) bool {
	for _, e := range m.Entries() {
		if e.Level == level && match(e.Msg) {
			return true
		}
	}
	return false
}

// Count returns the number of messages logged at level.
func (m *MockLogger) Count(level string) int {
	n := 0
	for _, e := range m.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Reset discards every captured entry.
func (m *MockLogger) Reset() {
	m.journal.mu.Lock()
	m.journal.entries = nil
	m.journal.mu.Unlock()
}
