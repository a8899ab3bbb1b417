package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/internal/prompt"
)

// Remote defaults.
const (
	DefaultClaudeModel     = "claude-sonnet-4-20250514"
	DefaultClaudeBaseURL   = "https://api.anthropic.com/v1"
	DefaultClaudeMaxTokens = 4096
)

// ClaudeSettings configures the remote provider.
type ClaudeSettings struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// ClaudeProvider talks to Anthropic through its OpenAI-compatible chat
// completions endpoint.
type ClaudeProvider struct {
	client    *openai.Client
	opts      options
	model     string
	maxTokens int
}

// NewClaudeProvider validates the credential and builds the API client. A
// missing or unusable key is an auth error here rather than on first use.
func NewClaudeProvider(settings ClaudeSettings, opts ...Option) (*ClaudeProvider, error) {
	o := buildOptions(NameClaude, opts)

	key := strings.TrimSpace(settings.APIKey)
	if key == "" {
		return nil, NewErrorf(NameClaude, ErrorTypeAuth, "ANTHROPIC_API_KEY is not set")
	}
	if strings.ContainsAny(key, " \t\r\n") {
		return nil, NewErrorf(NameClaude, ErrorTypeAuth, "API key contains whitespace")
	}

	model := settings.Model
	if model == "" {
		model = DefaultClaudeModel
	}
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = DefaultClaudeBaseURL
	}
	maxTokens := settings.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultClaudeMaxTokens
	}

	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")

	o.logger.Debug("Configured remote provider", "model", model, "base_url", cfg.BaseURL)

	return &ClaudeProvider{
		client:    openai.NewClientWithConfig(cfg),
		opts:      o,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Name returns the provider identifier.
func (p *ClaudeProvider) Name() string {
	return NameClaude
}

// Model returns the model identifier in use.
func (p *ClaudeProvider) Model() string {
	return p.model
}

// AnalyzeThreats requests a JSON threat model for content.
func (p *ClaudeProvider) AnalyzeThreats(ctx context.Context, content string, inputType models.InputType, includeEducation bool) (string, error) {
	pr := prompt.BuildAnalysisPrompt(content, inputType, includeEducation)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: pr.System},
		{Role: openai.ChatMessageRoleUser, Content: pr.User},
	}

	p.opts.logger.Debug("Requesting threat analysis", "input_type", inputType, "content_bytes", len(content))
	return p.complete(ctx, messages, analysisTemperature, true)
}

// InteractiveQuery sends the conversation with native chat roles.
func (p *ClaudeProvider) InteractiveQuery(ctx context.Context, query string, history []models.ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: prompt.InteractiveSystemPrompt,
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: query})

	return p.complete(ctx, messages, chatTemperature, false)
}

func (p *ClaudeProvider) complete(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, jsonMode bool) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.opts.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   p.maxTokens,
		Temperature: temperature,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		return "", p.wrapError(ctx, err)
	}

	parts := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		if choice.Message.Content != "" {
			parts = append(parts, choice.Message.Content)
		}
	}
	if len(parts) == 0 {
		return "", NewErrorf(NameClaude, ErrorTypeResponse, "response contained no text")
	}

	p.opts.logger.Debug("Received response",
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return strings.Join(parts, "\n"), nil
}

func (p *ClaudeProvider) wrapError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return statusError(NameClaude, apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return statusError(NameClaude, reqErr.HTTPStatusCode, err)
	}

	return classify(NameClaude, ctx, err)
}

// statusError maps a non-2xx HTTP status onto the error taxonomy.
func statusError(provider string, status int, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{
			Provider: provider,
			Type:     ErrorTypeAuth,
			Message:  fmt.Sprintf("credential rejected (HTTP %d)", status),
			Err:      err,
		}
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return NewError(provider, ErrorTypeTimeout, err)
	case status == http.StatusTooManyRequests || status == http.StatusNotFound || status >= 500:
		return NewError(provider, ErrorTypeUnavailable, err)
	default:
		return NewError(provider, ErrorTypeResponse, err)
	}
}
