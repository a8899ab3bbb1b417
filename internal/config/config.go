// Package config builds the single immutable configuration value tyr runs
// with. Values come from defaults, an optional YAML file and an environment
// lookup, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/tyr/internal/scoring"
)

// Provider names.
const (
	ProviderClaude = "claude"
	ProviderOllama = "ollama"
)

// Environment variables consulted by Load.
const (
	EnvProvider      = "AI_PROVIDER"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvClaudeModel   = "CLAUDE_MODEL"
	EnvClaudeBaseURL = "ANTHROPIC_BASE_URL"
	EnvOllamaHost    = "OLLAMA_HOST"
	EnvOllamaModel   = "OLLAMA_MODEL"
	EnvTimeout       = "TYR_TIMEOUT"
)

// MaxConcurrency bounds batch fan-out.
const MaxConcurrency = 8

// Config is the complete runtime configuration.
type Config struct {
	Provider string         `yaml:"provider"`
	Claude   ClaudeConfig   `yaml:"claude"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Scan     ScanConfig     `yaml:"scan"`
	Timeout  time.Duration  `yaml:"timeout"`
}

// ClaudeConfig configures the remote provider. The API key is only ever read
// from the environment.
type ClaudeConfig struct {
	APIKey    string `yaml:"-"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
}

// OllamaConfig configures the local provider.
type OllamaConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// AnalysisConfig controls prompt content and fallback scoring.
type AnalysisConfig struct {
	Weights          scoring.Weights `yaml:"weights"`
	IncludeEducation bool            `yaml:"include_education"`
}

// ScanConfig controls batch scans.
type ScanConfig struct {
	Pattern           string `yaml:"pattern"`
	Concurrency       int    `yaml:"concurrency"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// LookupFunc resolves an environment-style key.
type LookupFunc func(key string) (string, bool)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider: ProviderOllama,
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-20250514",
			BaseURL:   "https://api.anthropic.com/v1",
			MaxTokens: 4096,
		},
		Ollama: OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "llama3.1:8b",
		},
		Analysis: AnalysisConfig{
			IncludeEducation: true,
			Weights:          scoring.DefaultWeights(),
		},
		Scan: ScanConfig{
			Pattern:     "**/*.{tf,hcl,yaml,yml,json}",
			Concurrency: 2,
		},
		Timeout: 120 * time.Second,
	}
}

// Load builds a validated Config. path may be empty. lookup may be nil, in
// which case no environment overrides apply.
func Load(path string, lookup LookupFunc) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if lookup != nil {
		if err := cfg.applyEnv(lookup); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and validates a YAML configuration file without
// environment overrides.
func LoadConfig(path string) (Config, error) {
	return Load(path, nil)
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // Path is supplied by the operator
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ConfigurationError{Field: path, Message: fmt.Sprintf("parsing config YAML: %v", err)}
	}
	return nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set(EnvProvider, &c.Provider)
	set(EnvAnthropicKey, &c.Claude.APIKey)
	set(EnvClaudeModel, &c.Claude.Model)
	set(EnvClaudeBaseURL, &c.Claude.BaseURL)
	set(EnvOllamaHost, &c.Ollama.Host)
	set(EnvOllamaModel, &c.Ollama.Model)

	if v, ok := lookup(EnvTimeout); ok && strings.TrimSpace(v) != "" {
		d, err := parseTimeout(strings.TrimSpace(v))
		if err != nil {
			return &ConfigurationError{Field: EnvTimeout, Message: err.Error()}
		}
		c.Timeout = d
	}

	c.Provider = strings.ToLower(c.Provider)
	return nil
}

// parseTimeout accepts Go durations ("90s") or whole seconds ("90").
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}

// Validate ensures the configuration is usable. Credential checks belong to
// provider construction.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderClaude, ProviderOllama:
	case "":
		return &ConfigurationError{Field: "provider", Message: "is required (claude or ollama)"}
	default:
		return &ConfigurationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q (expected claude or ollama)", c.Provider)}
	}

	if c.Provider == ProviderOllama && strings.TrimSpace(c.Ollama.Host) == "" {
		return &ConfigurationError{Field: "ollama.host", Message: "is required"}
	}

	if c.Timeout <= 0 {
		return &ConfigurationError{Field: "timeout", Message: "must be positive"}
	}

	if c.Claude.MaxTokens < 0 {
		return &ConfigurationError{Field: "claude.max_tokens", Message: "must not be negative"}
	}

	if c.Scan.Concurrency < 1 || c.Scan.Concurrency > MaxConcurrency {
		return &ConfigurationError{
			Field:   "scan.concurrency",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxConcurrency, c.Scan.Concurrency),
		}
	}

	if c.Scan.RequestsPerMinute < 0 {
		return &ConfigurationError{Field: "scan.requests_per_minute", Message: "must not be negative"}
	}

	if c.Scan.Pattern == "" || !doublestar.ValidatePattern(c.Scan.Pattern) {
		return &ConfigurationError{Field: "scan.pattern", Message: fmt.Sprintf("invalid glob %q", c.Scan.Pattern)}
	}

	if err := c.Analysis.Weights.Validate(); err != nil {
		return &ConfigurationError{Field: "analysis.weights", Message: err.Error()}
	}

	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Claude.APIKey != "" {
		c.Claude.APIKey = "********"
	}
	return c
}
