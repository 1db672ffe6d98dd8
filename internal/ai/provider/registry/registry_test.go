package registry

import (
	"context"
	"testing"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name   string
	closed bool
}

func (s *stubProvider) CreateChatCompletion(context.Context, types.ChatCompletionRequest) (*types.ChatCompletionResponse, error) {
	return &types.ChatCompletionResponse{Content: s.name}, nil
}

func (s *stubProvider) CreateChatCompletionStream(context.Context, types.ChatCompletionRequest) (<-chan types.StreamChunk, error) {
	ch := make(chan types.StreamChunk)
	close(ch)
	return ch, nil
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func TestRegistry(t *testing.T) {
	r := New()
	p1 := &stubProvider{name: "openai"}
	p2 := &stubProvider{name: "anthropic"}

	r.Register("zhi1", p1, "openai")
	r.Register("zhi2", p2, "anthropic", "claude")

	got, err := r.Get("zhi1")
	require.NoError(t, err)
	assert.Same(t, p1, got)

	got, err = r.Get("claude")
	require.NoError(t, err)
	assert.Same(t, p2, got)
	assert.Equal(t, "zhi2", r.ResolveAlias("claude"))
	assert.Equal(t, "zhi3", r.ResolveAlias("zhi3"))

	_, err = r.Get("zhi3")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"zhi1", "zhi2"}, r.List())

	r.Unregister("zhi2")
	_, err = r.Get("claude")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Close())
	assert.True(t, p1.closed)
	assert.Empty(t, r.List())
}

func TestRegistry_Isolated(t *testing.T) {
	a, b := New(), New()
	a.Register("zhi1", &stubProvider{name: "openai"})

	_, err := b.Get("zhi1")
	assert.ErrorIs(t, err, ErrNotFound)
}
