package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genaiplatform/backend/internal/models"
)

func staticCreds(key string) CredentialResolver {
	return func(Provider) string { return key }
}

func testService(costPerRequest float64) *models.AIService {
	return &models.AIService{
		Provider:       "chatgpt",
		Model:          "gpt-4o-mini",
		CostPerRequest: costPerRequest,
		Parameters:     models.JSONMap{"temperature": 0.2, "max_tokens": 512},
	}
}

func TestChatCompletionNormalizesResponse(t *testing.T) {
	var gotReq chatCompletionRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{"message": {"role": "assistant", "content": "normalized text"}}],
			"usage": {"prompt_tokens": 30, "completion_tokens": 12, "total_tokens": 42}
		}`))
	}))
	defer srv.Close()

	adapter := &chatCompletionAdapter{
		provider:   ProviderChatGPT,
		baseURL:    srv.URL,
		creds:      staticCreds("sk-test"),
		httpClient: srv.Client(),
	}

	result, err := adapter.Complete(context.Background(), testService(1.0), "say something")
	require.NoError(t, err)

	assert.Equal(t, "normalized text", result.Text)
	assert.Equal(t, 42, result.TokensUsed)
	assert.InDelta(t, 0.042, result.Cost, 1e-9)
	assert.Equal(t, "chatcmpl-1", result.Metadata["id"])

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "say something", gotReq.Messages[0].Content)
	assert.InDelta(t, 0.2, gotReq.Temperature, 1e-9)
	assert.Equal(t, 512, gotReq.MaxTokens)
}

func TestChatCompletionMissingUsageDefaultsToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer srv.Close()

	adapter := &chatCompletionAdapter{provider: ProviderDeepSeek, baseURL: srv.URL, creds: staticCreds("k"), httpClient: srv.Client()}

	result, err := adapter.Complete(context.Background(), testService(2.0), "p")
	require.NoError(t, err)
	assert.Zero(t, result.TokensUsed)
	assert.Zero(t, result.Cost)
}

func TestChatCompletionMissingCredentialSkipsNetwork(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	adapter := &chatCompletionAdapter{provider: ProviderChatGPT, baseURL: srv.URL, creds: staticCreds(""), httpClient: srv.Client()}

	_, err := adapter.Complete(context.Background(), testService(1.0), "p")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, hits)
}

func TestChatCompletionNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer srv.Close()

	adapter := &chatCompletionAdapter{provider: ProviderChatGPT, baseURL: srv.URL, creds: staticCreds("k"), httpClient: srv.Client()}

	_, err := adapter.Complete(context.Background(), testService(1.0), "p")
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.Contains(t, err.Error(), "429")
}

func TestChatCompletionMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	adapter := &chatCompletionAdapter{provider: ProviderChatGPT, baseURL: srv.URL, creds: staticCreds("k"), httpClient: srv.Client()}

	_, err := adapter.Complete(context.Background(), testService(1.0), "p")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestChatCompletionMissingContent(t *testing.T) {
	bodies := []string{
		`{"choices": []}`,
		`{"choices": [{"message": {}}]}`,
		`{"usage": {"total_tokens": 10}}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		adapter := &chatCompletionAdapter{provider: ProviderChatGPT, baseURL: srv.URL, creds: staticCreds("k"), httpClient: srv.Client()}
		_, err := adapter.Complete(context.Background(), testService(1.0), "p")
		assert.ErrorIs(t, err, ErrInvalidResponse, body)
		srv.Close()
	}
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	r := &Registry{adapters: map[Provider]Adapter{}}

	_, err := r.Complete(context.Background(), &models.AIService{Provider: "mistral"}, "p")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}
