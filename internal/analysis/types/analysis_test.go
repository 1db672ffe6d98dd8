package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalysisRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     AnalysisRequest
		wantErr error
	}{
		{"valid", AnalysisRequest{Text: "t", Mode: ModeCognitiveLong, Provider: Zhi3}, nil},
		{"missing text", AnalysisRequest{Mode: ModeCognitiveLong, Provider: Zhi3}, ErrTextRequired},
		{"whitespace text", AnalysisRequest{Text: " \n\t ", Mode: ModeCognitiveLong, Provider: Zhi3}, ErrTextRequired},
		{"blank chunk", AnalysisRequest{Text: "t", Mode: ModeCognitiveLong, Provider: Zhi3, Chunks: []string{"a", "   "}}, ErrBlankChunk},
		{"all chunks blank", AnalysisRequest{Text: "t", Mode: ModeCognitiveLong, Provider: Zhi3, Chunks: []string{"", " "}}, ErrBlankChunk},
		{"valid chunks", AnalysisRequest{Text: "t", Mode: ModeCognitiveLong, Provider: Zhi3, Chunks: []string{"a", "b"}}, nil},
		{"unknown mode", AnalysisRequest{Text: "t", Mode: "astrological", Provider: Zhi3}, ErrInvalidMode},
		{"unknown provider", AnalysisRequest{Text: "t", Mode: ModeCognitiveShort, Provider: "zhi9"}, ErrInvalidProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnalysisRequest_Units(t *testing.T) {
	r := AnalysisRequest{Text: "whole"}
	assert.Equal(t, []string{"whole"}, r.Units())

	r.Chunks = []string{}
	assert.Equal(t, []string{"whole"}, r.Units())

	r.Chunks = []string{"a", "b"}
	assert.Equal(t, []string{"a", "b"}, r.Units())
}

func TestAnalysisRequest_IsRevision(t *testing.T) {
	assert.False(t, (&AnalysisRequest{PreviousAnalysis: "p"}).IsRevision())
	assert.False(t, (&AnalysisRequest{Critique: "c"}).IsRevision())
	assert.True(t, (&AnalysisRequest{PreviousAnalysis: "p", Critique: "c"}).IsRevision())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, AnalysisEvent{Status: StatusStarting}.IsTerminal())
	assert.False(t, AnalysisEvent{Status: StatusStreaming}.IsTerminal())
	assert.True(t, AnalysisEvent{Status: StatusCompleted}.IsTerminal())
	assert.True(t, ChatEvent{Status: StatusError}.IsTerminal())
}

func TestProviderID(t *testing.T) {
	assert.Equal(t, "ZHI 4", Zhi4.Label())
	assert.True(t, Zhi1.Valid())
	assert.False(t, ProviderID("zhi-sequential").Valid())
}

func TestChatRequest_Validate(t *testing.T) {
	assert.ErrorIs(t, (&ChatRequest{Message: "  "}).Validate(), ErrMessageRequired)
	assert.NoError(t, (&ChatRequest{Message: "hi"}).Validate())
}
