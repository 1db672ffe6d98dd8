package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/registry"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
)

// Input 一次分析的输入
type Input struct {
	Text             string
	Mode             types.Mode
	Context          string
	PreviousAnalysis string
	Critique         string

	// System 非空时替代模式对应的系统指令（对话使用）
	System string
}

// Fragment 流式输出的一个片段。Err 非空时为最后一个片段，Text 为带服务名的错误描述。
type Fragment struct {
	Text string
	Err  error
}

// Adapter 分析服务统一接口
type Adapter interface {
	// ID 返回服务标识
	ID() types.ProviderID

	// Analyze 单次请求，返回清理后的完整文本
	Analyze(ctx context.Context, in Input) (string, error)

	// StreamAnalysis 流式分析。通道总会被关闭；上游失败时以一个携带 Err 的片段结束。
	StreamAnalysis(ctx context.Context, in Input) <-chan Fragment
}

// Error 带服务名的上游失败
type Error struct {
	Provider types.ProviderID
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Provider.Label(), describe(e.Err))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNotConfigured 服务缺少 API Key
var ErrNotConfigured = errors.New("provider not configured")

func describe(err error) string {
	if errors.Is(err, registry.ErrNotFound) || errors.Is(err, ErrNotConfigured) {
		return "provider not configured, set its API key"
	}
	return err.Error()
}
