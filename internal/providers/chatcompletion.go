package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/genaiplatform/backend/internal/models"
)

// chatCompletionAdapter covers the OpenAI-compatible chat-completions API
// shared by ChatGPT and DeepSeek. Only the provider key and endpoint
// differ.
type chatCompletionAdapter struct {
	provider   Provider
	baseURL    string
	creds      CredentialResolver
	httpClient *http.Client
}

// NewChatGPT returns the adapter for the OpenAI chat-completions API.
func NewChatGPT(creds CredentialResolver, httpClient *http.Client) Adapter {
	return &chatCompletionAdapter{
		provider:   ProviderChatGPT,
		baseURL:    "https://api.openai.com",
		creds:      creds,
		httpClient: httpClient,
	}
}

// NewDeepSeek returns the adapter for the DeepSeek chat-completions API.
func NewDeepSeek(creds CredentialResolver, httpClient *http.Client) Adapter {
	return &chatCompletionAdapter{
		provider:   ProviderDeepSeek,
		baseURL:    "https://api.deepseek.com",
		creds:      creds,
		httpClient: httpClient,
	}
}

func (a *chatCompletionAdapter) Provider() Provider {
	return a.provider
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (a *chatCompletionAdapter) Complete(ctx context.Context, service *models.AIService, prompt string) (*Result, error) {
	apiKey := a.creds(a.provider)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, a.provider)
	}

	payload := chatCompletionRequest{
		Model:       service.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: service.Parameters.Float("temperature", 0.7),
		MaxTokens:   service.Parameters.Int("max_tokens", 1000),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrCallFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCallFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCallFailed, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrCallFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s status=%d body=%s", ErrCallFailed, a.provider, resp.StatusCode, truncateBody(rawBody))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, a.provider, err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return nil, fmt.Errorf("%w: %s: missing message content", ErrInvalidResponse, a.provider)
	}

	var metadata models.JSONMap
	if err := json.Unmarshal(rawBody, &metadata); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, a.provider, err)
	}

	tokens := parsed.Usage.TotalTokens

	return &Result{
		Text:       *parsed.Choices[0].Message.Content,
		TokensUsed: tokens,
		Cost:       cost(service, tokens),
		Metadata:   metadata,
	}, nil
}
