package provider

import (
	"context"
	"sync"

	"github.com/joshsymonds/tyr/internal/models"
)

// MockProvider is a scriptable Provider for tests. Unset funcs return an
// empty threat model.
type MockProvider struct {
	AnalyzeFunc func(ctx context.Context, content string, inputType models.InputType, includeEducation bool) (string, error)
	QueryFunc   func(ctx context.Context, query string, history []models.ChatMessage) (string, error)
	HealthFunc  func(ctx context.Context) error

	ProviderName string

	mu           sync.Mutex
	analyzeCalls []string
	queryCalls   []string
}

// NewMockProvider returns a mock that answers every analysis with response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{
		ProviderName: "mock",
		AnalyzeFunc: func(context.Context, string, models.InputType, bool) (string, error) {
			return response, nil
		},
	}
}

// Name returns ProviderName, defaulting to "mock".
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// AnalyzeThreats records content and delegates to AnalyzeFunc.
func (m *MockProvider) AnalyzeThreats(ctx context.Context, content string, inputType models.InputType, includeEducation bool) (string, error) {
	m.mu.Lock()
	m.analyzeCalls = append(m.analyzeCalls, content)
	m.mu.Unlock()

	if m.AnalyzeFunc == nil {
		return `{"threats": []}`, nil
	}
	return m.AnalyzeFunc(ctx, content, inputType, includeEducation)
}

// InteractiveQuery records query and delegates to QueryFunc.
func (m *MockProvider) InteractiveQuery(ctx context.Context, query string, history []models.ChatMessage) (string, error) {
	m.mu.Lock()
	m.queryCalls = append(m.queryCalls, query)
	m.mu.Unlock()

	if m.QueryFunc == nil {
		return "", nil
	}
	return m.QueryFunc(ctx, query, history)
}

// HealthCheck delegates to HealthFunc.
func (m *MockProvider) HealthCheck(ctx context.Context) error {
	if m.HealthFunc == nil {
		return nil
	}
	return m.HealthFunc(ctx)
}

// AnalyzeCalls returns the content of every AnalyzeThreats call so far.
func (m *MockProvider) AnalyzeCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.analyzeCalls...)
}

// QueryCalls returns the query of every InteractiveQuery call so far.
func (m *MockProvider) QueryCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queryCalls...)
}
