package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/unidoc/unioffice/common/license"
	"github.com/unidoc/unioffice/document"
)

var licenseOnce sync.Once

// SetUniofficeLicense 设置 UniOffice 计量许可证（进程内只生效一次）
func SetUniofficeLicense(key string) error {
	var err error
	licenseOnce.Do(func() {
		if key == "" {
			return
		}
		if e := license.SetMeteredKey(key); e != nil {
			err = fmt.Errorf("failed to set unioffice license: %w", e)
		}
	})
	return err
}

// WordLoader Word 文档加载器（.docx，以及实际为 OOXML 的 .doc）
type WordLoader struct{}

// NewWordLoader 创建 Word 文档加载器
func NewWordLoader() *WordLoader {
	return &WordLoader{}
}

// Load 按段落提取文本，解析失败返回 ErrWordExtraction
func (l *WordLoader) Load(ctx context.Context, reader io.Reader) (*Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read Word data: %w", err)
	}

	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrWordExtraction, err)
	}
	defer doc.Close()

	var b strings.Builder
	paragraphs := doc.Paragraphs()
	for _, para := range paragraphs {
		for _, run := range para.Runs() {
			b.WriteString(run.Text())
		}
		b.WriteString("\n")
	}

	return &Document{
		Content: b.String(),
		Metadata: map[string]interface{}{
			"loader":     "word",
			"paragraphs": len(paragraphs),
		},
	}, nil
}

// SupportedTypes 返回支持的文件类型
func (l *WordLoader) SupportedTypes() []FileType {
	return []FileType{FileTypeDocx, FileTypeDoc}
}
