package factory

import (
	"fmt"
	"time"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/anthropic"
	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/compatible"
	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/openai"
	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/registry"
	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/types"
	"github.com/lk2023060901/zhi-text-evaluator/internal/conf"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"go.uber.org/zap"
)

// Kind 上游协议类型
type Kind string

const (
	KindOpenAI     Kind = "openai"
	KindAnthropic  Kind = "anthropic"
	KindCompatible Kind = "compatible"
)

// Binding 分析服务 ID 与上游协议的绑定
type Binding struct {
	ID    string // zhi1..zhi4
	Kind  Kind
	Alias string // 上游名称，同时作为注册别名
}

// Bindings zhi1..zhi4 的默认上游绑定
var Bindings = []Binding{
	{ID: "zhi1", Kind: KindOpenAI, Alias: "openai"},
	{ID: "zhi2", Kind: KindAnthropic, Alias: "anthropic"},
	{ID: "zhi3", Kind: KindCompatible, Alias: "deepseek"},
	{ID: "zhi4", Kind: KindCompatible, Alias: "perplexity"},
}

// Option 配置选项函数
type Option func(*types.Config)

// WithTimeout 返回设置超时的 Option
func WithTimeout(timeout time.Duration) Option {
	return func(c *types.Config) {
		c.Timeout = timeout
	}
}

// WithHeader 返回添加单个 Header 的 Option
func WithHeader(key, value string) Option {
	return func(c *types.Config) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
	}
}

// Config 由配置文件中的 Provider 配置生成传输层配置
func Config(pc conf.ProviderConfig, opts ...Option) *types.Config {
	config := &types.Config{
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
		Model:   pc.Model,
		Timeout: pc.Timeout,
	}

	for _, opt := range opts {
		opt(config)
	}

	return config
}

// New 按协议类型创建 Provider
func New(kind Kind, name string, config *types.Config) (types.Provider, error) {
	switch kind {
	case KindOpenAI:
		return openai.New(config)
	case KindAnthropic:
		return anthropic.New(config)
	case KindCompatible:
		return compatible.New(name, config)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", kind)
	}
}

// RegisterAll 为已配置 API Key 的服务创建并注册 Provider。
// 未配置的服务被跳过，调用方在使用时收到未配置错误。
func RegisterAll(reg *registry.Registry, providers *conf.ProvidersConfig, lgr *logger.Logger) error {
	log := logger.OrGlobal(lgr)

	for _, b := range Bindings {
		pc, _ := providers.ByID(b.ID)
		if pc.APIKey == "" {
			log.Warn("provider not configured, skipping",
				zap.String("provider", b.ID),
				zap.String("upstream", b.Alias))
			continue
		}

		p, err := New(b.Kind, b.Alias, Config(pc))
		if err != nil {
			return fmt.Errorf("create provider %s: %w", b.ID, err)
		}
		reg.Register(b.ID, p, b.Alias)

		log.Info("provider registered",
			zap.String("provider", b.ID),
			zap.String("upstream", b.Alias),
			zap.String("model", pc.Model))
	}

	return nil
}
