package biz

import "errors"

var (
	// ErrAnalysisNotFound 分析记录不存在
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrUnknownStrategy 未知的分块处理策略
	ErrUnknownStrategy = errors.New("unknown chunk strategy")
)
