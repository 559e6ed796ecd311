package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletionsURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                                     "https://api.openai.com/v1/chat/completions",
		"https://api.openai.com/v1":            "https://api.openai.com/v1/chat/completions",
		"https://api.openai.com/v1/":           "https://api.openai.com/v1/chat/completions",
		"localhost:8080":                       "https://localhost:8080/v1/chat/completions",
		"http://llm.local/v1/chat/completions": "http://llm.local/v1/chat/completions",
		"http://llm.local/proxy":               "http://llm.local/proxy/v1/chat/completions",
	}
	for in, want := range cases {
		assert.Equal(t, want, chatCompletionsURL(normalizeEndpoint(in)), "endpoint %q", in)
	}
}

func TestOpenAIProviderChat(t *testing.T) {
	t.Parallel()

	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  breaking \n"}}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL+"/v1", "gpt-test", "sk-test", time.Second)
	reply, err := provider.Chat(context.Background(), ChatRequest{System: "sys", Prompt: "hello", MaxTokens: 10, Schema: "{}"})
	require.NoError(t, err)
	assert.Equal(t, "breaking", reply)

	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, 10, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestOpenAIProviderErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(server.URL, "", "k", time.Second)
	_, err := provider.Chat(context.Background(), ChatRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429: rate limited")
}

func TestEmbedderOpenAIShape(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)
		assert.Equal(t, "embed-test", req.Model)
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer server.Close()

	embedder := NewOpenAIEmbedder(server.URL+"/v1/embeddings", "embed-test", "k", time.Second)
	client := NewClient(nil, embedder, zerolog.Nop())

	vectors := client.Embed(context.Background(), []string{"a", "b"})
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, vectors)
}

func TestEmbedderTextsShapeAndMismatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Texts)
		_, _ = w.Write([]byte(`{"embeddings":[[1,0]]}`))
	}))
	defer server.Close()

	embedder := NewOpenAIEmbedder(server.URL+"/embed", "", "", time.Second)
	_, err := embedder.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count mismatch")

	client := NewClient(nil, embedder, zerolog.Nop())
	assert.Nil(t, client.Embed(context.Background(), []string{"a", "b"}))
}
