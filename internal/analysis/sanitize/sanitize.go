// Package sanitize 清理上游模型输出中的 Markdown 标记并修复缺失的空格。
package sanitize

import (
	"regexp"
	"strings"
)

var (
	headingWithSpace = regexp.MustCompile(`#{1,6}\s*`)
	headingMarks     = regexp.MustCompile(`#{1,6}`)

	bold        = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italic      = regexp.MustCompile(`\*(.*?)\*`)
	heading     = regexp.MustCompile(`#{1,6}\s`)
	codeBlock   = regexp.MustCompile("(?s)```.*?```")
	inlineCode  = regexp.MustCompile("`([^`]+)`")
	bulletPoint = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)

	boldStrict     = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	italicStrict   = regexp.MustCompile(`\*([^*]*)\*`)
	codeStrict     = regexp.MustCompile("`([^`]*)`")
	lineHeading    = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	lineBullet     = regexp.MustCompile(`(?m)^\s*[-*+]\s*`)
	lineNumbered   = regexp.MustCompile(`(?m)^\s*\d+\.\s*`)
	horizontalRule = regexp.MustCompile(`---+`)

	lowerUpper  = regexp.MustCompile(`([a-z])([A-Z])`)
	letterDigit = regexp.MustCompile(`([a-z])(\d+)`)
	digitLetter = regexp.MustCompile(`(\d+)([a-z])`)
	sentenceCap = regexp.MustCompile(`([.!?])([A-Z])`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// BulletMark 列表项替换后的前缀
const BulletMark = "• "

// StripMarkup 删除标题标记（连同其后空白）、星号与反引号
func StripMarkup(s string) string {
	s = headingWithSpace.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "*", "")
	return strings.ReplaceAll(s, "`", "")
}

// StripMarkupChars 删除星号、反引号与标题标记，保留其后的空白
func StripMarkupChars(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "`", "")
	return headingMarks.ReplaceAllString(s, "")
}

// CleanMarkdown 去除粗体、斜体、标题、代码块与行内代码，列表项转为 "• "。
// 不裁剪首尾空白，流式片段拼接后与整体清理结果保持一致。
func CleanMarkdown(s string) string {
	s = bold.ReplaceAllString(s, "$1")
	s = italic.ReplaceAllString(s, "$1")
	s = heading.ReplaceAllString(s, "")
	s = codeBlock.ReplaceAllString(s, "")
	s = inlineCode.ReplaceAllString(s, "$1")
	return bulletPoint.ReplaceAllString(s, BulletMark)
}

// CleanAndRepair 删除 Markdown 结构（含编号列表与分隔线），修复空格，并将连续空白压缩为单个空格
func CleanAndRepair(s string) string {
	s = boldStrict.ReplaceAllString(s, "$1")
	s = italicStrict.ReplaceAllString(s, "$1")
	s = codeStrict.ReplaceAllString(s, "$1")
	s = lineHeading.ReplaceAllString(s, "")
	s = lineBullet.ReplaceAllString(s, "")
	s = lineNumbered.ReplaceAllString(s, "")
	s = horizontalRule.ReplaceAllString(s, "")
	s = RepairSpacing(s)
	return whitespace.ReplaceAllString(s, " ")
}

// RepairSpacing 在小写→大写、字母→数字、数字→字母以及句末标点→大写之间插入空格
func RepairSpacing(s string) string {
	s = lowerUpper.ReplaceAllString(s, "$1 $2")
	s = letterDigit.ReplaceAllString(s, "$1 $2")
	s = digitLetter.ReplaceAllString(s, "$1 $2")
	return sentenceCap.ReplaceAllString(s, "$1 $2")
}

// SentenceBuffer 缓冲流式增量，直到出现换行或句点再整体清理输出
type SentenceBuffer struct {
	buf   strings.Builder
	clean func(string) string
}

// NewSentenceBuffer 创建缓冲区，clean 为空时使用 CleanMarkdown
func NewSentenceBuffer(clean func(string) string) *SentenceBuffer {
	if clean == nil {
		clean = CleanMarkdown
	}
	return &SentenceBuffer{clean: clean}
}

// Push 追加增量；缓冲区包含换行或句点时返回清理后的内容并清空
func (b *SentenceBuffer) Push(delta string) (string, bool) {
	b.buf.WriteString(delta)
	if !strings.ContainsAny(b.buf.String(), "\n.") {
		return "", false
	}
	return b.Flush()
}

// Flush 输出剩余内容
func (b *SentenceBuffer) Flush() (string, bool) {
	if b.buf.Len() == 0 {
		return "", false
	}
	out := b.clean(b.buf.String())
	b.buf.Reset()
	return out, out != ""
}
