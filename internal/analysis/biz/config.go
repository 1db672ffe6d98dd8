package biz

import (
	"fmt"
	"time"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	"github.com/lk2023060901/zhi-text-evaluator/internal/conf"
)

// Strategy 多分块输入的处理方式
type Strategy string

const (
	// StrategySequential 逐块分析，块之间等待固定间隔
	StrategySequential Strategy = "sequential"
	// StrategyJoined 以空行连接所有块后一次分析
	StrategyJoined Strategy = "joined"
)

const (
	DefaultChunkDelay  = 10 * time.Second
	DefaultRecentLimit = 10
)

// Config 编排配置
type Config struct {
	Strategies   map[types.ProviderID]Strategy // 未列出的服务使用 joined
	ChunkDelay   time.Duration
	ChatProvider types.ProviderID
	RecentLimit  int
}

// DefaultConfig zhi2 逐块处理，其余合并处理
func DefaultConfig() *Config {
	return &Config{
		Strategies:   map[types.ProviderID]Strategy{types.Zhi2: StrategySequential},
		ChunkDelay:   DefaultChunkDelay,
		ChatProvider: types.Zhi1,
		RecentLimit:  DefaultRecentLimit,
	}
}

// ConfigFromConf 由应用配置生成编排配置
func ConfigFromConf(c *conf.AnalysisConfig) (*Config, error) {
	cfg := &Config{
		Strategies:   make(map[types.ProviderID]Strategy, len(c.Strategies)),
		ChunkDelay:   c.ChunkDelay,
		ChatProvider: types.ProviderID(c.ChatProvider),
		RecentLimit:  c.RecentLimit,
	}

	for id, s := range c.Strategies {
		strategy := Strategy(s)
		if strategy != StrategySequential && strategy != StrategyJoined {
			return nil, fmt.Errorf("%w: %s=%q", ErrUnknownStrategy, id, s)
		}
		cfg.Strategies[types.ProviderID(id)] = strategy
	}

	if cfg.ChatProvider == "" {
		cfg.ChatProvider = types.Zhi1
	}
	if !cfg.ChatProvider.Valid() {
		return nil, fmt.Errorf("%w: chat provider %q", types.ErrInvalidProvider, cfg.ChatProvider)
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	return cfg, nil
}

// StrategyFor 返回服务的分块处理方式
func (c *Config) StrategyFor(id types.ProviderID) Strategy {
	if s, ok := c.Strategies[id]; ok {
		return s
	}
	return StrategyJoined
}
