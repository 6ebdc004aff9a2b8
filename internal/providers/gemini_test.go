package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genaiplatform/backend/internal/models"
)

func geminiService() *models.AIService {
	return &models.AIService{
		Provider:       "gemini",
		Model:          "gemini-1.5-flash",
		CostPerRequest: 1.0,
		Parameters:     models.JSONMap{"temperature": 0.9, "max_tokens": 128},
	}
}

func TestGeminiNormalizesResponse(t *testing.T) {
	var gotPath, gotKey string
	var gotReq geminiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "three word answer"}]}}]
		}`))
	}))
	defer srv.Close()

	adapter := &geminiAdapter{baseURL: srv.URL, creds: staticCreds("gm-key"), httpClient: srv.Client()}

	// prompt and response are concatenated without a separator, merging the
	// boundary words: "...promptthree..." -> 6 words, 6 * 1.3 = 7.8 -> 8
	result, err := adapter.Complete(context.Background(), geminiService(), "four words of prompt")
	require.NoError(t, err)

	assert.Equal(t, "three word answer", result.Text)
	assert.Equal(t, 8, result.TokensUsed)
	assert.InDelta(t, 0.008, result.Cost, 1e-9)

	assert.Equal(t, "/v1/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "gm-key", gotKey)
	require.Len(t, gotReq.Contents, 1)
	require.Len(t, gotReq.Contents[0].Parts, 1)
	assert.Equal(t, "four words of prompt", gotReq.Contents[0].Parts[0].Text)
	assert.InDelta(t, 0.9, gotReq.GenerationConfig.Temperature, 1e-9)
	assert.Equal(t, 128, gotReq.GenerationConfig.MaxOutputTokens)
}

func TestGeminiMissingCandidateText(t *testing.T) {
	bodies := []string{
		`{"candidates": []}`,
		`{"candidates": [{"content": {"parts": []}}]}`,
		`{"candidates": [{"content": {"parts": [{}]}}]}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		adapter := &geminiAdapter{baseURL: srv.URL, creds: staticCreds("k"), httpClient: srv.Client()}
		_, err := adapter.Complete(context.Background(), geminiService(), "p")
		assert.ErrorIs(t, err, ErrInvalidResponse, body)
		srv.Close()
	}
}

func TestGeminiMissingCredential(t *testing.T) {
	adapter := &geminiAdapter{baseURL: "http://127.0.0.1:1", creds: staticCreds(""), httpClient: http.DefaultClient}

	_, err := adapter.Complete(context.Background(), geminiService(), "p")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 1},                 // 1.3 -> 1
		{"one two", 3},             // 2.6 -> 3
		{"one two three four", 5},  // 5.2 -> 5
		{"   spaced    out   ", 3}, // 2 words, 2.6 -> 3
	}
	for _, c := range cases {
		assert.Equal(t, c.want, EstimateTokens(c.text), "%q", c.text)
	}
}

func TestEstimateTokensDeterministic(t *testing.T) {
	text := strings.Repeat("deterministic input ", 50)
	first := EstimateTokens(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, EstimateTokens(text))
	}
}
