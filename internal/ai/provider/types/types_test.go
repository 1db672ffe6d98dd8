package types

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypeFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusUnauthorized, ErrorTypeAuthentication},
		{http.StatusForbidden, ErrorTypePermission},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{529, ErrorTypeOverloaded},
		{http.StatusBadGateway, ErrorTypeAPI},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorTypeFromStatus(tt.status))
		})
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("wrapped: %w", NewProviderError("openai", "request failed", cause))

	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "openai: request failed: connection refused", pe.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, pe.IsRetryable())

	se := NewStatusError("anthropic", 401, "invalid x-api-key")
	assert.Equal(t, "anthropic returned 401 (authentication_error): invalid x-api-key", se.Error())
	assert.False(t, se.IsRetryable())
}

func TestConfigValidate(t *testing.T) {
	c := &Config{APIKey: "k", BaseURL: "https://api.example.com/v1/"}
	require.NoError(t, c.Validate())
	assert.Equal(t, "https://api.example.com/v1", c.BaseURL)
	assert.Equal(t, DefaultTimeout, c.Timeout)

	assert.ErrorIs(t, (&Config{BaseURL: "x"}).Validate(), ErrMissingAPIKey)
	assert.ErrorIs(t, (&Config{APIKey: "k"}).Validate(), ErrMissingBaseURL)
}

func TestSplitSystem(t *testing.T) {
	system, rest := SplitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "q"},
		{Role: RoleSystem, Content: "b"},
	})
	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "q"}}, rest)
}

func TestScanSSEData(t *testing.T) {
	body := "event: x\r\ndata: one\r\n\r\n: comment\n\ndata:two\n\ndata: \n\ndata: three\n\n"

	var got []string
	err := ScanSSEData(strings.NewReader(body), func(data string) bool {
		got = append(got, data)
		return data != "two"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestSend_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan StreamChunk)
	assert.False(t, Send(ctx, ch, StreamChunk{Content: "x"}))
}
