package genai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"cinequery/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(baseURL string, opts ...Option) *GeminiClient {
	opts = append([]Option{WithRetryPolicy(5, time.Millisecond)}, opts...)
	return NewGeminiClient(baseURL, "test-model", "test-key", 5*time.Second, testLogger(), nil, opts...)
}

func candidateBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + string(mustJSON(text)) + `}]}}]}`
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "what are the best westerns?", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "be terse", req.SystemInstruction.Parts[0].Text)
		assert.Equal(t, 0.1, req.GenerationConfig.Temperature)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateBody(`{"genre": "western"}`)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	result, err := client.Generate(context.Background(), domain.GenerationRequest{
		Prompt:            "what are the best westerns?",
		SystemInstruction: "be terse",
	})

	require.NoError(t, err)
	assert.Equal(t, `{"genre": "western"}`, result.Text)
}

func TestGenerate_TranslationModeSetsSchemaAndNoTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
		assert.NotNil(t, req.GenerationConfig.ResponseSchema)
		assert.Empty(t, req.Tools)

		_, _ = w.Write([]byte(candidateBody(`{}`)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Generate(context.Background(), domain.GenerationRequest{
		Prompt:         "query",
		ResponseSchema: map[string]any{"type": "OBJECT"},
	})
	require.NoError(t, err)
}

func TestGenerate_SynthesisModeEnablesSearchTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		assert.Empty(t, req.GenerationConfig.ResponseMimeType)
		require.Len(t, req.Tools, 1)
		assert.Contains(t, req.Tools[0], "google_search")

		_, _ = w.Write([]byte(candidateBody("a fine answer")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	result, err := client.Generate(context.Background(), domain.GenerationRequest{
		Prompt:       "summarize",
		EnableSearch: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "a fine answer", result.Text)
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(candidateBody("recovered")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	result, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "q"})

	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_RetriesRateLimitWithoutHonoringHint(t *testing.T) {
	var calls atomic.Int32
	start := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// The hint asks for a long wait; the client must not honor it.
			w.Header().Set("Retry-After", "3600")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(candidateBody("after 429")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	result, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "q"})

	require.NoError(t, err)
	assert.Equal(t, "after 429", result.Text)
	assert.Equal(t, int32(2), calls.Load())
	assert.Less(t, time.Since(start), 5*time.Second, "Retry-After hint must not be honored")
}

func TestGenerate_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "q"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 5 attempts")
	assert.Equal(t, int32(5), calls.Load())
}

func TestGenerate_ClientErrorsDoNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "q"})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_NoCandidatesIsNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "q"})

	assert.ErrorIs(t, err, domain.ErrNoContent)
}

func TestGenerate_MalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": [`)) // truncated
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "q"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	client := NewGeminiClient("http://localhost:1", "m", "", time.Second, testLogger(), nil)

	_, err := client.Generate(context.Background(), domain.GenerationRequest{Prompt: "q"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestGenerate_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewGeminiClient(server.URL, "m", "k", time.Second, testLogger(), nil,
		WithRetryPolicy(5, 10*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, domain.GenerationRequest{Prompt: "q"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
