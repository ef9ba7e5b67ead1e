package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestAnthropicCompleteNormalizesUsage(t *testing.T) {
	var gotAuth, gotVersion string
	var gotBody anthropicRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.Empty(t, r.URL.Query().Get("key"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": `{"overallScore": 4}`}},
			"usage":   map[string]int{"input_tokens": 120, "output_tokens": 30},
		})
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider("test-key", zerolog.Nop())
	require.NoError(t, err)
	provider.baseURL = server.URL

	resp, err := provider.Complete(context.Background(), Request{
		Model:     "claude-sonnet-4-20250514",
		System:    "review papers",
		User:      "the paper",
		MaxTokens: 1024,
	})
	require.NoError(t, err)

	require.Equal(t, "test-key", gotAuth)
	require.Equal(t, anthropicVersion, gotVersion)
	require.Equal(t, "review papers", gotBody.System)
	require.Len(t, gotBody.Messages, 1)
	require.Equal(t, "user", gotBody.Messages[0].Role)

	require.Equal(t, `{"overallScore": 4}`, resp.Content)
	require.Equal(t, Usage{InputTokens: 120, OutputTokens: 30, TotalTokens: 150}, resp.Usage)
}

func TestAnthropicCompleteSurfacesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider("test-key", zerolog.Nop())
	require.NoError(t, err)
	provider.baseURL = server.URL

	_, err = provider.Complete(context.Background(), Request{Model: "claude-3-5-haiku-20241022", User: "x"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "rate_limit_error")
}

func TestAnthropicRequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicProvider("", zerolog.Nop())
	require.Error(t, err)
}
