package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType 上游错误分类
type ErrorType string

const (
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error" // 400
	ErrorTypeAuthentication ErrorType = "authentication_error"  // 401
	ErrorTypePermission     ErrorType = "permission_error"      // 403
	ErrorTypeNotFound       ErrorType = "not_found_error"       // 404
	ErrorTypeRateLimit      ErrorType = "rate_limit_error"      // 429
	ErrorTypeAPI            ErrorType = "api_error"             // 5xx / 网络错误
	ErrorTypeOverloaded     ErrorType = "overloaded_error"      // 529
	ErrorTypeStream         ErrorType = "stream_error"          // 流读取失败
)

// ProviderError Provider 错误
type ProviderError struct {
	Type       ErrorType // 错误类型
	Provider   string    // Provider 名称
	StatusCode int       // HTTP 状态码（0 表示未收到响应）
	Message    string    // 错误消息
	Err        error     // 原始错误
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned %d (%s): %s", e.Provider, e.StatusCode, e.Type, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable 判断错误是否可重试
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeAPI, ErrorTypeOverloaded:
		return true
	default:
		return false
	}
}

// NewProviderError 创建 Provider 错误（未收到上游响应）
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Type:     ErrorTypeAPI,
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}

// NewStatusError 根据 HTTP 状态码创建 Provider 错误
func NewStatusError(provider string, statusCode int, message string) *ProviderError {
	return &ProviderError{
		Type:       ErrorTypeFromStatus(statusCode),
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ErrorTypeFromStatus 将 HTTP 状态码映射为错误类型
func ErrorTypeFromStatus(statusCode int) ErrorType {
	switch statusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return ErrorTypeInvalidRequest
	case http.StatusUnauthorized:
		return ErrorTypeAuthentication
	case http.StatusForbidden:
		return ErrorTypePermission
	case http.StatusNotFound:
		return ErrorTypeNotFound
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case 529:
		return ErrorTypeOverloaded
	default:
		return ErrorTypeAPI
	}
}

// AsProviderError 从错误链中提取 ProviderError
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
