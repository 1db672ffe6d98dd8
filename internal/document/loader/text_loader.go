package loader

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// TextLoader 纯文本加载器
type TextLoader struct{}

// NewTextLoader 创建纯文本加载器
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load 按 UTF-8 读取，非法字节替换为 U+FFFD
func (l *TextLoader) Load(ctx context.Context, reader io.Reader) (*Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read text content: %w", err)
	}

	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\ufffd")
	}
	text = strings.TrimPrefix(text, "\ufeff")

	return &Document{
		Content:  text,
		Metadata: map[string]interface{}{"loader": "text"},
	}, nil
}

// SupportedTypes 返回支持的文件类型
func (l *TextLoader) SupportedTypes() []FileType {
	return []FileType{FileTypeTxt}
}
