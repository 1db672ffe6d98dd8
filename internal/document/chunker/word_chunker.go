package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// WordChunker 按固定单词数分块
type WordChunker struct {
	encoding *tiktoken.Tiktoken
	size     int
	logger   *logger.Logger
}

// WordChunkerConfig 单词分块器配置
type WordChunkerConfig struct {
	Size     int    // 每块单词数（默认 1000）
	Encoding string // tiktoken 编码，用于估算 token（为空则不估算）
}

// NewWordChunker 创建单词分块器。编码加载失败只记录告警，分块照常进行。
func NewWordChunker(cfg *WordChunkerConfig, lgr *logger.Logger) (*WordChunker, error) {
	if cfg == nil {
		cfg = &WordChunkerConfig{Size: DefaultChunkSize}
	}
	if cfg.Size == 0 {
		cfg.Size = DefaultChunkSize
	}
	if cfg.Size < 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}

	log := logger.OrGlobal(lgr)
	c := &WordChunker{size: cfg.Size, logger: log}

	if cfg.Encoding != "" {
		encoding, err := tiktoken.GetEncoding(cfg.Encoding)
		if err != nil {
			log.Warn("token encoding unavailable, token counts disabled",
				zap.String("encoding", cfg.Encoding),
				zap.Error(err))
		} else {
			c.encoding = encoding
		}
	}

	return c, nil
}

// Chunk 将文本按单词切分为连续的固定大小分块，最后一块可以更小
func (c *WordChunker) Chunk(ctx context.Context, text string) ([]*TextChunk, error) {
	words := Words(text)
	total := len(words)
	if total == 0 {
		return []*TextChunk{}, nil
	}

	chunks := make([]*TextChunk, 0, (total+c.size-1)/c.size)
	for start := 0; start < total; start += c.size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + c.size
		if end > total {
			end = total
		}

		content := strings.Join(words[start:end], " ")
		chunks = append(chunks, &TextChunk{
			ID:         uuid.New().String(),
			Index:      len(chunks),
			Content:    content,
			WordCount:  end - start,
			TokenCount: c.countTokens(content),
			StartIndex: start,
			EndIndex:   end - 1,
		})
	}

	c.logger.Debug("text chunked",
		zap.Int("words", total),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", c.size))

	return chunks, nil
}

// ChunkSize 返回分块大小
func (c *WordChunker) ChunkSize() int {
	return c.size
}

// SelectInputMode 按本分块器的大小判断输入方式
func (c *WordChunker) SelectInputMode(wordCount int) InputMode {
	return SelectInputMode(wordCount, c.size)
}

func (c *WordChunker) countTokens(content string) int {
	if c.encoding == nil {
		return 0
	}
	return len(c.encoding.Encode(content, nil, nil))
}
