package prompt

import (
	"strings"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
)

const qaFormat = `Use this Q&A format with blank lines between sections:

QUESTION: [Assessment area]
[Analysis with specific textual evidence]

Write plain text without markdown.`

var systemPrompts = map[types.Mode]string{
	types.ModeCognitiveShort: `You assess the intelligence displayed in a text. Evaluate conceptual depth, inferential control, originality and precision of thought. Give a score out of 100 and justify it briefly.

` + qaFormat,

	types.ModeCognitiveLong: `You assess the intelligence displayed in a text in depth. Cover conceptual depth, inferential control, originality, semantic compression, handling of counterarguments and precision of thought. Quote the text to support every judgement and finish with a score out of 100.

` + qaFormat,

	types.ModePsychologicalShort: `You give a brief psychological profile of the author of a text. Describe motivation, emotional register, interpersonal stance and characteristic defenses, citing the text.

` + qaFormat,

	types.ModePsychologicalLong: `You give a detailed psychological profile of the author of a text. Cover motivation, emotional regulation, self-concept, interpersonal stance, values, characteristic defenses and strengths, citing the text throughout.

` + qaFormat,

	types.ModePsychopathologicalShort: `You screen a text for signs of psychopathology in its author. Note any indicators of distorted thinking, mood disturbance or impaired reality testing, and equally note signs of healthy functioning.

` + qaFormat + `

This analysis is for educational and research purposes only and cannot substitute for professional clinical assessment.`,

	types.ModePsychopathologicalLong: `You perform a detailed screen of a text for signs of psychopathology in its author. Cover thought process and content, mood and affect, reality testing, personality organization, and social and occupational functioning. Highlight areas of concern and psychological strengths with textual evidence.

` + qaFormat + `

This analysis is for educational and research purposes only and cannot substitute for professional clinical assessment.`,
}

const chatSystemPrompt = `You are an assistant helping a user understand a text analysis. Answer their questions clearly and concisely in plain text.`

// SystemPrompt 返回模式对应的系统指令，未知模式回退到 cognitive-short
func SystemPrompt(mode types.Mode) string {
	if p, ok := systemPrompts[mode]; ok {
		return p
	}
	return systemPrompts[types.ModeCognitiveShort]
}

// Parts 用户消息的组成部分
type Parts struct {
	Text             string
	Context          string
	PreviousAnalysis string
	Critique         string
}

// UserMessage 组装用户消息。存在上下文时置于正文之前；
// previousAnalysis 与 critique 同时存在时追加修订说明。
func UserMessage(p Parts) string {
	if p.Context == "" && (p.PreviousAnalysis == "" || p.Critique == "") {
		return p.Text
	}

	var b strings.Builder
	if p.Context != "" {
		b.WriteString("Additional context:\n")
		b.WriteString(p.Context)
		b.WriteString("\n\nText to analyze:\n")
	}
	b.WriteString(p.Text)

	if p.PreviousAnalysis != "" && p.Critique != "" {
		b.WriteString("\n\nA previous analysis of this text was:\n")
		b.WriteString(p.PreviousAnalysis)
		b.WriteString("\n\nFeedback on that analysis:\n")
		b.WriteString(p.Critique)
		b.WriteString("\n\nProduce a revised analysis that addresses the feedback.")
	}
	return b.String()
}

// Inline 将系统指令并入用户消息（用于不单独接收 system 消息的上游）
func Inline(system, user string) string {
	return system + "\n\nAnalyze this text:\n" + user
}

// ChatSystemPrompt 返回对话系统指令，附带已有的输入与分析结果
func ChatSystemPrompt(ctx *types.ChatContext) string {
	if ctx == nil {
		return chatSystemPrompt
	}

	var b strings.Builder
	b.WriteString(chatSystemPrompt)
	if ctx.AnalysisMode != "" {
		b.WriteString("\n\nAnalysis mode: ")
		b.WriteString(ctx.AnalysisMode)
	}
	if ctx.InputText != "" {
		b.WriteString("\n\nOriginal text:\n")
		b.WriteString(ctx.InputText)
	}
	if ctx.AnalysisOutput != "" {
		b.WriteString("\n\nAnalysis:\n")
		b.WriteString(ctx.AnalysisOutput)
	}
	return b.String()
}
