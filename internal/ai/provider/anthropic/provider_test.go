package anthropic

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

	p, err := New(&types.Config{APIKey: "test-key", BaseURL: srv.URL + "/", Model: "claude-test"})
	require.NoError(t, err)
	return p
}

func collect(ch <-chan types.StreamChunk) []types.StreamChunk {
	var out []types.StreamChunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestCreateChatCompletionStream(t *testing.T) {
	var got messagesRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"id\":\"m1\"}}\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Hello\"}}\n\n")
		fmt.Fprint(w, "event: ping\ndata: {\"type\":\"ping\"}\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\" world.\"}}\n\n")
		fmt.Fprint(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n")
	})

	ch, err := p.CreateChatCompletionStream(context.Background(), types.ChatCompletionRequest{
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: "be brief"},
			{Role: types.RoleUser, Content: "hi"},
		},
		MaxTokens: 4000,
	})
	require.NoError(t, err)

	chunks := collect(ch)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hello", chunks[0].Content)
	assert.Equal(t, " world.", chunks[1].Content)
	assert.True(t, chunks[2].Done)
	assert.NoError(t, chunks[2].Error)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, "be brief", got.System)
	assert.Equal(t, 4000, got.MaxTokens)
	assert.True(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestCreateChatCompletionStream_ErrorEvent(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"par\"}}\n\n")
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	})

	ch, err := p.CreateChatCompletionStream(context.Background(), types.ChatCompletionRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	chunks := collect(ch)
	require.Len(t, chunks, 2)
	assert.Equal(t, "par", chunks[0].Content)
	require.Error(t, chunks[1].Error)

	pe, ok := types.AsProviderError(chunks[1].Error)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeOverloaded, pe.Type)
	assert.Equal(t, "Overloaded", pe.Message)
}

func TestCreateChatCompletionStream_HTTPError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	})

	_, err := p.CreateChatCompletionStream(context.Background(), types.ChatCompletionRequest{})
	require.Error(t, err)

	pe, ok := types.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Equal(t, types.ErrorTypeAuthentication, pe.Type)
	assert.Equal(t, "invalid x-api-key", pe.Message)
}

func TestCreateChatCompletion(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"m1","model":"claude-test","stop_reason":"end_turn",
			"content":[{"type":"text","text":"Part one. "},{"type":"text","text":"Part two."}],
			"usage":{"input_tokens":5,"output_tokens":7}}`)
	})

	resp, err := p.CreateChatCompletion(context.Background(), types.ChatCompletionRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Part one. Part two.", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 12, resp.Usage.TotalTokens)
}

func TestNew_Validate(t *testing.T) {
	_, err := New(&types.Config{BaseURL: "http://x"})
	assert.ErrorIs(t, err, types.ErrMissingAPIKey)

	_, err = New(&types.Config{APIKey: "k"})
	assert.ErrorIs(t, err, types.ErrMissingBaseURL)
}
