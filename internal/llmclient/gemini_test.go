package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkaplan88/hireflow/internal/config"
)

func newTestClient(t *testing.T, endpoint string) *GeminiClient {
	t.Helper()
	client, err := NewGeminiClient(config.LLMConfig{
		Model:      "gemini-2.5-flash",
		APIKey:     "test-key",
		Endpoint:   endpoint,
		APITimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func candidateResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]interface{}{{"text": text}},
			}},
		},
	}
}

func TestNewGeminiClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewGeminiClient(config.LLMConfig{Model: "gemini-2.5-flash"}, zap.NewNop())
	assert.Error(t, err)
}

func TestGenerateResponse(t *testing.T) {
	t.Parallel()

	t.Run("returns first candidate text", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

			var payload geminiRequestPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			require.Len(t, payload.Contents, 1)
			assert.Equal(t, "what next", payload.Contents[0].Parts[0].Text)
			assert.Equal(t, "application/json", payload.GenerationConfig.ResponseMimeType)

			json.NewEncoder(w).Encode(candidateResponse(`{"action": "finish"}`))
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		got, err := client.GenerateResponse(context.Background(), GenerationRequest{
			SystemPrompt:    "you drive a browser",
			UserPrompt:      "what next",
			ForceJSONFormat: true,
		})
		require.NoError(t, err)
		assert.Equal(t, `{"action": "finish"}`, got)
	})

	t.Run("retries transient server errors", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(candidateResponse("ok"))
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		got, err := client.GenerateResponse(context.Background(), GenerationRequest{UserPrompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.GreaterOrEqual(t, calls.Load(), int32(2))
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		_, err := client.GenerateResponse(context.Background(), GenerationRequest{UserPrompt: "hi"})
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("no candidates is a permanent error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		_, err := client.GenerateResponse(context.Background(), GenerationRequest{UserPrompt: "hi"})
		assert.ErrorContains(t, err, "no candidates")
	})
}
