package loader

import (
	"fmt"
	"sort"

	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
)

// Factory Loader 工厂
type Factory struct {
	loaders map[FileType]Loader
}

// NewFactory 创建 Loader 工厂并注册 txt/pdf/doc/docx 加载器
func NewFactory(lgr *logger.Logger) *Factory {
	f := &Factory{loaders: make(map[FileType]Loader)}

	f.Register(NewTextLoader())
	f.Register(NewPDFLoader(lgr))
	f.Register(NewWordLoader())

	return f
}

// Register 注册 Loader，覆盖同类型的已有 Loader
func (f *Factory) Register(l Loader) {
	for _, fileType := range l.SupportedTypes() {
		f.loaders[fileType] = l
	}
}

// CreateLoader 根据文件类型返回 Loader
func (f *Factory) CreateLoader(fileType FileType) (Loader, error) {
	l, ok := f.loaders[fileType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, string(fileType))
	}
	return l, nil
}

// SupportedTypes 返回所有支持的文件类型（已排序）
func (f *Factory) SupportedTypes() []FileType {
	types := make([]FileType, 0, len(f.loaders))
	for fileType := range f.loaders {
		types = append(types, fileType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
