package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"go.uber.org/zap"
)

// PDFLoader PDF 加载器（MuPDF 优先，纯 Go 解析器兜底）
type PDFLoader struct {
	logger *logger.Logger
}

// NewPDFLoader 创建 PDF 加载器
func NewPDFLoader(lgr *logger.Logger) *PDFLoader {
	return &PDFLoader{logger: logger.OrGlobal(lgr)}
}

// Load 提取所有页面文本，两种解析器都失败时返回 ErrPDFExtraction
func (l *PDFLoader) Load(ctx context.Context, reader io.Reader) (*Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF data: %w", err)
	}

	text, pages, err := extractWithFitz(ctx, data)
	engine := "fitz"
	if err != nil {
		l.logger.Warn("mupdf extraction failed, falling back",
			zap.Error(err))

		var fallbackErr error
		text, pages, fallbackErr = extractWithLedongthuc(ctx, data)
		if fallbackErr != nil {
			return nil, fmt.Errorf("%w (%v; %v)", ErrPDFExtraction, err, fallbackErr)
		}
		engine = "ledongthuc"
	}

	return &Document{
		Content: text,
		Metadata: map[string]interface{}{
			"loader":     "pdf",
			"engine":     engine,
			"page_count": pages,
		},
	}, nil
}

// SupportedTypes 返回支持的文件类型
func (l *PDFLoader) SupportedTypes() []FileType {
	return []FileType{FileTypePdf}
}

func extractWithFitz(ctx context.Context, data []byte) (string, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	numPages := doc.NumPage()
	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		text, err := doc.Text(i)
		if err != nil {
			// 跳过无法提取的页面
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String(), numPages, nil
}

func extractWithLedongthuc(ctx context.Context, data []byte) (text string, pages int, err error) {
	// 解析器遇到畸形文件可能 panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	if pages == 0 {
		return "", 0, errors.New("pdf has no pages")
	}
	return b.String(), pages, nil
}
