package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/genaiplatform/backend/internal/models"
)

// geminiAdapter calls the Google generateContent API. Unlike the
// chat-completion providers, the API key travels as a query parameter and
// the response carries no token usage, so usage is estimated from word
// counts.
type geminiAdapter struct {
	baseURL    string
	creds      CredentialResolver
	httpClient *http.Client
}

// NewGemini returns the adapter for the Google Gemini API.
func NewGemini(creds CredentialResolver, httpClient *http.Client) Adapter {
	return &geminiAdapter{
		baseURL:    "https://generativelanguage.googleapis.com",
		creds:      creds,
		httpClient: httpClient,
	}
}

func (a *geminiAdapter) Provider() Provider {
	return ProviderGemini
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (a *geminiAdapter) Complete(ctx context.Context, service *models.AIService, prompt string) (*Result, error) {
	apiKey := a.creds(ProviderGemini)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, ProviderGemini)
	}

	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     service.Parameters.Float("temperature", 0.7),
			MaxOutputTokens: service.Parameters.Int("max_tokens", 1000),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrCallFailed, err)
	}

	endpoint := fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s",
		a.baseURL, service.Model, url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCallFailed, err)
	}
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
		return nil, fmt.Errorf("%w: gemini status=%d body=%s", ErrCallFailed, resp.StatusCode, truncateBody(rawBody))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", ErrInvalidResponse, err)
	}

	if len(parsed.Candidates) == 0 ||
		len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == nil {
		return nil, fmt.Errorf("%w: gemini: missing candidate text", ErrInvalidResponse)
	}

	var metadata models.JSONMap
	if err := json.Unmarshal(rawBody, &metadata); err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", ErrInvalidResponse, err)
	}

	text := *parsed.Candidates[0].Content.Parts[0].Text
	tokens := EstimateTokens(prompt + text)

	return &Result{
		Text:       text,
		TokensUsed: tokens,
		Cost:       cost(service, tokens),
		Metadata:   metadata,
	}, nil
}

// EstimateTokens approximates a token count for providers that do not
// report usage: whitespace-delimited word count scaled by 1.3. Deterministic
// for identical input.
func EstimateTokens(text string) int {
	return int(math.Round(float64(len(strings.Fields(text))) * 1.3))
}
