package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/genaiplatform/backend/internal/config"
	"github.com/genaiplatform/backend/internal/models"
)

// Provider identifies a supported generative-AI backend.
type Provider string

const (
	ProviderChatGPT  Provider = "chatgpt"
	ProviderGemini   Provider = "gemini"
	ProviderDeepSeek Provider = "deepseek"
)

// Common errors. Callers treat all of them as one "request failed" outcome;
// the distinction only matters for logs and the recorded error message.
var (
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
	ErrMissingCredential   = errors.New("provider API key not configured")
	ErrInvalidResponse     = errors.New("invalid provider response")
	ErrCallFailed          = errors.New("provider call failed")
)

// Result is the provider-agnostic shape every adapter produces.
type Result struct {
	Text       string         `json:"text"`
	TokensUsed int            `json:"tokens_used"`
	Cost       float64        `json:"cost"`
	Metadata   models.JSONMap `json:"metadata"`
}

// CredentialResolver resolves the API key for a provider. Keys live in
// configuration, never on AIService rows; an empty result means the
// provider is not configured.
type CredentialResolver func(provider Provider) string

// ConfigCredentials builds a resolver backed by the loaded configuration.
func ConfigCredentials(cfg *config.Config) CredentialResolver {
	return func(provider Provider) string {
		switch provider {
		case ProviderChatGPT:
			return cfg.ChatGPTAPIKey
		case ProviderGemini:
			return cfg.GeminiAPIKey
		case ProviderDeepSeek:
			return cfg.DeepSeekAPIKey
		default:
			return ""
		}
	}
}

// Adapter is implemented once per provider. Complete performs the call and
// normalizes the response; it must verify the credential before touching
// the network.
type Adapter interface {
	Provider() Provider
	Complete(ctx context.Context, service *models.AIService, prompt string) (*Result, error)
}

// Registry dispatches calls to the adapter registered for a service's
// provider key.
type Registry struct {
	adapters map[Provider]Adapter
}

// NewRegistry wires up the built-in adapters sharing one HTTP client so
// every provider call carries the same timeout.
func NewRegistry(cfg *config.Config, creds CredentialResolver) *Registry {
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}

	r := &Registry{adapters: make(map[Provider]Adapter)}
	r.Register(NewChatGPT(creds, httpClient))
	r.Register(NewDeepSeek(creds, httpClient))
	r.Register(NewGemini(creds, httpClient))
	return r
}

// Register adds or replaces the adapter for its provider.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Provider()] = a
}

// Complete dispatches to the adapter for the service's provider.
func (r *Registry) Complete(ctx context.Context, service *models.AIService, prompt string) (*Result, error) {
	adapter, ok := r.adapters[Provider(service.Provider)]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	return adapter.Complete(ctx, service, prompt)
}

// cost applies the uniform pricing rule: cost_per_request is the price per
// 1000 tokens, regardless of whether the token count was measured or
// estimated.
func cost(service *models.AIService, tokens int) float64 {
	return float64(tokens) * (service.CostPerRequest / 1000)
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
