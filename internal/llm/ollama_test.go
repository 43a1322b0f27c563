package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOllamaProvider checks the request we send to /api/generate and how the
// reply is parsed. An httptest server stands in for Ollama.
func TestOllamaProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("Generate", func(t *testing.T) {
		var captured ollamaGenerateRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/generate", r.URL.Path)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Header().Set("Content-Type", "application/json")
			_, err := w.Write([]byte(`{"model":"llama3.2","response":"What would success look like?","done":true}`))
			assert.NoError(t, err)
		}))
		defer server.Close()

		// ARRANGE
		provider := NewOllamaProvider(server.URL+"/", "llama3.2", time.Second)

		// ACT
		resp, err := provider.Generate(ctx, &GenerateRequest{Prompt: "hello", MaxTokens: 200})

		// ASSERT
		require.NoError(t, err)
		assert.Equal(t, "What would success look like?", resp.Response)
		assert.Equal(t, "llama3.2", captured.Model)
		assert.False(t, captured.Stream)
		assert.EqualValues(t, 200, captured.Options["num_predict"])
	})

	t.Run("Non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer server.Close()

		provider := NewOllamaProvider(server.URL, "missing", time.Second)
		_, err := provider.Generate(ctx, &GenerateRequest{Prompt: "hello"})
		assert.ErrorContains(t, err, "404")
	})

	t.Run("Empty response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"model":"llama3.2","response":"  ","done":true}`))
		}))
		defer server.Close()

		provider := NewOllamaProvider(server.URL, "llama3.2", time.Second)
		_, err := provider.Generate(ctx, &GenerateRequest{Prompt: "hello"})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("Timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		provider := NewOllamaProvider(server.URL, "llama3.2", 20*time.Millisecond)
		_, err := provider.Generate(ctx, &GenerateRequest{Prompt: "hello"})
		assert.Error(t, err)
	})
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	assert.NoError(t, Ping(context.Background(), server.URL))
	assert.Error(t, Ping(context.Background(), "http://127.0.0.1:1"))
}
