package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/JexSrs/go-ollama"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/internal/prompt"
)

// Local defaults.
const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "llama3.1:8b"
)

// OllamaSettings configures the local provider.
type OllamaSettings struct {
	Host  string
	Model string
}

// Sampling settings sent with every local generation.
const (
	ollamaTopP       = 0.9
	ollamaNumPredict = 4096
)

// OllamaProvider talks to a local Ollama daemon through /api/generate.
type OllamaProvider struct {
	transport http.RoundTripper
	opts      options
	host      url.URL
	model     string
}

// NewOllamaProvider validates the host URL and model name. A missing model is
// reported as unavailable since no analysis can be served without one.
func NewOllamaProvider(settings OllamaSettings, opts ...Option) (*OllamaProvider, error) {
	o := buildOptions(NameOllama, opts)

	host := strings.TrimSpace(settings.Host)
	if host == "" {
		host = DefaultOllamaHost
	}
	hostURL, err := url.Parse(host)
	if err != nil || hostURL.Scheme == "" || hostURL.Host == "" {
		return nil, NewErrorf(NameOllama, ErrorTypeConfig, "invalid OLLAMA_HOST %q", host)
	}

	model := strings.TrimSpace(settings.Model)
	if model == "" {
		return nil, NewErrorf(NameOllama, ErrorTypeUnavailable, "no ollama model configured")
	}

	p := &OllamaProvider{
		transport: http.DefaultTransport,
		opts:      o,
		host:      *hostURL,
		model:     model,
	}
	o.logger.Debug("Configured local provider", "host", hostURL.String(), "model", model)
	return p, nil
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string {
	return NameOllama
}

// Model returns the model name in use.
func (p *OllamaProvider) Model() string {
	return p.model
}

// AnalyzeThreats requests a JSON threat model for content.
func (p *OllamaProvider) AnalyzeThreats(ctx context.Context, content string, inputType models.InputType, includeEducation bool) (string, error) {
	pr := prompt.BuildAnalysisPrompt(content, inputType, includeEducation)
	p.opts.logger.Debug("Requesting threat analysis", "input_type", inputType, "content_bytes", len(content))
	return p.call(ctx, analysisTemperature, pr.System, pr.User)
}

// InteractiveQuery flattens the conversation into one prompt.
func (p *OllamaProvider) InteractiveQuery(ctx context.Context, query string, history []models.ChatMessage) (string, error) {
	return p.call(ctx, chatTemperature, prompt.InteractiveSystemPrompt, prompt.BuildInteractivePrompt(query, history))
}

// HealthCheck sends a generation without a prompt, which only loads the
// model. It fails when the daemon is unreachable or the model is not
// installed.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	_, err := p.call(ctx, 0, "", "")
	return err
}

// call runs one generation under the per-call timeout. The request is bound
// to the call's context, so a timed-out or canceled call also stops the
// daemon's work on it.
func (p *OllamaProvider) call(ctx context.Context, temperature float64, system, userPrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.opts.timeout)
	defer cancel()

	client := ollama.New(p.host)
	client.Http = &http.Client{Transport: callTransport{ctx: callCtx, next: p.transport}}

	builder := []func(*ollama.GenerateRequestBuilder){client.Generate.WithModel(p.model)}
	if userPrompt != "" {
		builder = append(builder,
			client.Generate.WithSystem(system),
			client.Generate.WithPrompt(userPrompt),
			client.Generate.WithOptions(generationOptions(temperature)),
		)
	}

	res, err := client.Generate(builder...)
	if err != nil {
		if callCtx.Err() != nil {
			return "", classify(NameOllama, ctx, callCtx.Err())
		}
		return "", p.wrapError(ctx, err)
	}
	if !res.Done {
		return "", NewErrorf(NameOllama, ErrorTypeResponse, "generation by model %s did not complete", p.model)
	}
	if userPrompt != "" && strings.TrimSpace(res.Response) == "" {
		return "", NewErrorf(NameOllama, ErrorTypeResponse, "empty response from model %s", p.model)
	}
	return res.Response, nil
}

func generationOptions(temperature float64) ollama.Options {
	topP := ollamaTopP
	numPredict := ollamaNumPredict
	return ollama.Options{
		Temperature: &temperature,
		TopP:        &topP,
		NumPredict:  &numPredict,
	}
}

// callTransport attaches one call's context to every request. go-ollama
// builds its requests without a context.
type callTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t callTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}

func (p *OllamaProvider) wrapError(ctx context.Context, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") {
		return &Error{
			Provider:  NameOllama,
			Type:      ErrorTypeUnavailable,
			Message:   fmt.Sprintf("model %s is not installed (run: ollama pull %s)", p.model, p.model),
			Err:       err,
			Retryable: false,
		}
	}
	if wrapped := classify(NameOllama, ctx, err); !IsUnavailableError(wrapped) {
		return wrapped
	}
	return &Error{
		Provider:  NameOllama,
		Type:      ErrorTypeUnavailable,
		Message:   fmt.Sprintf("cannot reach ollama at %s: %v", p.host.String(), err),
		Err:       err,
		Retryable: true,
	}
}
