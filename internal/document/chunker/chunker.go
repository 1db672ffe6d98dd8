package chunker

import (
	"context"
	"strings"
)

// DefaultChunkSize 默认每块单词数
const DefaultChunkSize = 1000

// Chunker 文本分块接口
type Chunker interface {
	// Chunk 将文本分块
	Chunk(ctx context.Context, text string) ([]*TextChunk, error)

	// ChunkSize 返回分块大小（单词数）
	ChunkSize() int
}

// TextChunk 文本分块
type TextChunk struct {
	ID         string `json:"id"`         // 块 ID（每次分块重新生成）
	Index      int    `json:"-"`          // 块序号（从 0 开始）
	Content    string `json:"content"`    // 块内容（单词以单个空格连接）
	WordCount  int    `json:"wordCount"`  // 单词数
	TokenCount int    `json:"tokenCount"` // 估算的 Token 数量（0 表示未计算）
	StartIndex int    `json:"startIndex"` // 起始单词下标（含）
	EndIndex   int    `json:"endIndex"`   // 结束单词下标（含）
}

// InputMode 文档分析输入方式
type InputMode string

const (
	// InputModeDirect 整篇直接分析
	InputModeDirect InputMode = "direct"
	// InputModeChunked 需要用户先选择分块
	InputModeChunked InputMode = "chunked"
)

// Words 按空白字符切分，丢弃空 token
func Words(text string) []string {
	return strings.Fields(text)
}

// CountWords 统计单词数
func CountWords(text string) int {
	return len(Words(text))
}

// SelectInputMode 不超过 chunkSize 的文档直接分析，否则必须先选择分块
func SelectInputMode(wordCount, chunkSize int) InputMode {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if wordCount <= chunkSize {
		return InputModeDirect
	}
	return InputModeChunked
}
