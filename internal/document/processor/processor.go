package processor

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/lk2023060901/zhi-text-evaluator/internal/document/chunker"
	"github.com/lk2023060901/zhi-text-evaluator/internal/document/loader"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/errors"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"go.uber.org/zap"
)

// DefaultMaxBytes 默认上传大小上限（10 MiB）
const DefaultMaxBytes int64 = 10 << 20

// ProcessedFile 上传文件的处理结果
type ProcessedFile struct {
	Filename  string               `json:"filename"`
	Content   string               `json:"content"`
	WordCount int                  `json:"wordCount"`
	Chunks    []*chunker.TextChunk `json:"chunks,omitempty"`
}

// Config 文档处理配置
type Config struct {
	MaxBytes int64 // 文件大小上限（0 使用默认值）
}

// Processor 文档处理器：识别类型、提取文本、统计单词并按需分块
type Processor struct {
	loaders  *loader.Factory
	chunker  *chunker.WordChunker
	maxBytes int64
	logger   *logger.Logger
}

// New 创建文档处理器
func New(cfg *Config, loaders *loader.Factory, ch *chunker.WordChunker, lgr *logger.Logger) *Processor {
	maxBytes := DefaultMaxBytes
	if cfg != nil && cfg.MaxBytes > 0 {
		maxBytes = cfg.MaxBytes
	}
	return &Processor{
		loaders:  loaders,
		chunker:  ch,
		maxBytes: maxBytes,
		logger:   logger.OrGlobal(lgr),
	}
}

// MaxBytes 返回文件大小上限
func (p *Processor) MaxBytes() int64 {
	return p.maxBytes
}

// Process 处理上传文件。单词数超过分块大小时附带分块列表。
func (p *Processor) Process(ctx context.Context, filename string, data []byte) (*ProcessedFile, error) {
	if int64(len(data)) > p.maxBytes {
		return nil, errors.New(errors.ErrFileTooLarge,
			fmt.Sprintf("maximum is %d bytes", p.maxBytes))
	}

	fileType := loader.DetectFileType(filename)
	l, err := p.loaders.CreateLoader(fileType)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrUnsupportedFileType,
			"Please upload .txt, .pdf, .doc, or .docx files.")
	}

	doc, err := l.Load(ctx, bytes.NewReader(data))
	if err != nil {
		p.logger.WithContext(ctx).Warn("document extraction failed",
			zap.String("filename", filename),
			zap.String("type", string(fileType)),
			zap.Error(err))
		return nil, errors.WithMessage(err, errors.ErrDocumentProcessing, extractionMessage(err))
	}

	content := strings.TrimSpace(doc.Content)
	wordCount := chunker.CountWords(content)
	if wordCount == 0 {
		return nil, errors.New(errors.ErrDocumentEmpty, filename)
	}

	result := &ProcessedFile{
		Filename:  filename,
		Content:   content,
		WordCount: wordCount,
	}

	if p.chunker.SelectInputMode(wordCount) == chunker.InputModeChunked {
		chunks, err := p.chunker.Chunk(ctx, content)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrDocumentProcessing)
		}
		result.Chunks = chunks
	}

	p.logger.WithContext(ctx).Info("document processed",
		zap.String("filename", filename),
		zap.Int("words", wordCount),
		zap.Int("chunks", len(result.Chunks)))

	return result, nil
}

func extractionMessage(err error) string {
	switch {
	case stderrors.Is(err, loader.ErrPDFExtraction):
		return loader.ErrPDFExtraction.Error()
	case stderrors.Is(err, loader.ErrWordExtraction):
		return loader.ErrWordExtraction.Error()
	default:
		return errors.GetMessage(errors.ErrDocumentProcessing)
	}
}
