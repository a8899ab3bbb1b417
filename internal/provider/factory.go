package provider

import (
	"github.com/joshsymonds/tyr/internal/config"
)

// New builds the provider selected by cfg.Provider. The per-call timeout from
// cfg applies unless overridden by opts.
func New(cfg config.Config, opts ...Option) (Provider, error) {
	opts = append([]Option{WithTimeout(cfg.Timeout)}, opts...)

	switch cfg.Provider {
	case NameClaude:
		return NewClaudeProvider(ClaudeSettings{
			APIKey:    cfg.Claude.APIKey,
			Model:     cfg.Claude.Model,
			BaseURL:   cfg.Claude.BaseURL,
			MaxTokens: cfg.Claude.MaxTokens,
		}, opts...)
	case NameOllama:
		return NewOllamaProvider(OllamaSettings{
			Host:  cfg.Ollama.Host,
			Model: cfg.Ollama.Model,
		}, opts...)
	default:
		return nil, NewErrorf(cfg.Provider, ErrorTypeConfig, "unknown provider %q (expected claude or ollama)", cfg.Provider)
	}
}
