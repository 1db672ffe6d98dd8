package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(&types.Config{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4",
		Headers: map[string]string{"X-Trace": "t1"},
	})
	require.NoError(t, err)
	return p
}

func TestCreateChatCompletionStream(t *testing.T) {
	var body map[string]interface{}
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "t1", r.Header.Get("X-Trace"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"Hi\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\" there\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	ch, err := p.CreateChatCompletionStream(context.Background(), types.ChatCompletionRequest{
		Messages:  []types.Message{{Role: types.RoleUser, Content: "hi"}},
		MaxTokens: 1500,
	})
	require.NoError(t, err)

	var chunks []types.StreamChunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hi", chunks[0].Content)
	assert.Equal(t, " there", chunks[1].Content)
	assert.True(t, chunks[2].Done)
	assert.NoError(t, chunks[2].Error)

	assert.Equal(t, "gpt-4", body["model"])
	assert.EqualValues(t, 1500, body["max_completion_tokens"])
	_, hasMaxTokens := body["max_tokens"]
	assert.False(t, hasMaxTokens)
}

func TestCreateChatCompletion(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","model":"gpt-4",
			"choices":[{"index":0,"message":{"role":"assistant","content":"result"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":2,"completion_tokens":1,"total_tokens":3}}`)
	})

	resp, err := p.CreateChatCompletion(context.Background(), types.ChatCompletionRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "result", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 3, resp.Usage.TotalTokens)
}

func TestCreateChatCompletion_APIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	})

	_, err := p.CreateChatCompletion(context.Background(), types.ChatCompletionRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	pe, ok := types.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Equal(t, types.ErrorTypeAuthentication, pe.Type)
	assert.Contains(t, pe.Message, "Incorrect API key")
}
