package prompt

import (
	"strings"
	"testing"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	"github.com/stretchr/testify/assert"
)

func TestSystemPrompt(t *testing.T) {
	seen := map[string]bool{}
	for _, mode := range types.Modes {
		p := SystemPrompt(mode)
		assert.NotEmpty(t, p, mode)
		assert.False(t, seen[p], "duplicate prompt for %s", mode)
		seen[p] = true
	}

	assert.Equal(t, SystemPrompt(types.ModeCognitiveShort), SystemPrompt("unknown-mode"))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "plain", UserMessage(Parts{Text: "plain"}))

	// critique alone does not trigger a revision
	assert.Equal(t, "plain", UserMessage(Parts{Text: "plain", Critique: "c"}))

	msg := UserMessage(Parts{Text: "body", Context: "ctx"})
	assert.True(t, strings.HasPrefix(msg, "Additional context:\nctx"))
	assert.True(t, strings.HasSuffix(msg, "body"))

	msg = UserMessage(Parts{Text: "body", PreviousAnalysis: "old", Critique: "too vague"})
	assert.True(t, strings.HasPrefix(msg, "body"))
	assert.Contains(t, msg, "old")
	assert.Contains(t, msg, "too vague")
	assert.Contains(t, msg, "revised analysis")
}

func TestInline(t *testing.T) {
	assert.Equal(t, "SYS\n\nAnalyze this text:\nTXT", Inline("SYS", "TXT"))
}

func TestChatSystemPrompt(t *testing.T) {
	assert.Equal(t, chatSystemPrompt, ChatSystemPrompt(nil))

	p := ChatSystemPrompt(&types.ChatContext{InputText: "in", AnalysisOutput: "out", AnalysisMode: "cognitive-long"})
	assert.Contains(t, p, "Original text:\nin")
	assert.Contains(t, p, "Analysis:\nout")
	assert.Contains(t, p, "cognitive-long")
}
