package loader

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// FileType 支持的文件类型（小写扩展名，含点）
type FileType string

const (
	FileTypeTxt  FileType = ".txt"
	FileTypePdf  FileType = ".pdf"
	FileTypeDoc  FileType = ".doc"
	FileTypeDocx FileType = ".docx"
)

var (
	// ErrUnsupportedFileType 扩展名不在允许列表中
	ErrUnsupportedFileType = errors.New("unsupported file format")
	// ErrPDFExtraction PDF 解析失败（面向用户的提示）
	ErrPDFExtraction = errors.New("Failed to process PDF file. Please ensure the file is not corrupted.")
	// ErrWordExtraction Word 解析失败（面向用户的提示）
	ErrWordExtraction = errors.New("Failed to process Word document. Please ensure the file is not corrupted.")
)

// Loader 文档加载器接口
type Loader interface {
	// Load 加载文档文本
	Load(ctx context.Context, reader io.Reader) (*Document, error)

	// SupportedTypes 返回支持的文件类型
	SupportedTypes() []FileType
}

// Document 加载后的文档
type Document struct {
	Content  string                 // 文档文本内容
	Metadata map[string]interface{} // 文档元数据
}

// DetectFileType 根据文件名取扩展名（不区分大小写）
func DetectFileType(filename string) FileType {
	return FileType(strings.ToLower(filepath.Ext(filename)))
}
