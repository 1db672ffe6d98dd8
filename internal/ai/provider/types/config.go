package types

import (
	"errors"
	"strings"
	"time"
)

// DefaultTimeout 上游请求默认超时
const DefaultTimeout = 120 * time.Second

var (
	ErrMissingAPIKey  = errors.New("API key is required")
	ErrMissingBaseURL = errors.New("base URL is required")
)

// Config Provider 通用配置
type Config struct {
	APIKey  string            // API Key
	BaseURL string            // API 基础 URL（不含末尾斜杠）
	Timeout time.Duration     // 请求超时
	Model   string            // 默认模型
	Headers map[string]string // 自定义 HTTP Headers
}

// Validate 验证配置并补全默认值
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
