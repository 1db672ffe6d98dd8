package adapter

import (
	"fmt"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/registry"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	"github.com/lk2023060901/zhi-text-evaluator/internal/conf"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
)

// Set 按服务标识选择适配器
type Set struct {
	adapters map[types.ProviderID]Adapter
}

// NewSet 由适配器列表创建集合，同 ID 后者覆盖前者
func NewSet(adapters ...Adapter) *Set {
	s := &Set{adapters: make(map[types.ProviderID]Adapter, len(adapters))}
	for _, a := range adapters {
		s.adapters[a.ID()] = a
	}
	return s
}

// FromConfig 为 zhi1..zhi4 创建适配器，请求参数取自配置
func FromConfig(reg *registry.Registry, providers *conf.ProvidersConfig, lgr *logger.Logger) *Set {
	adapters := make([]Adapter, 0, len(types.Providers))
	for _, id := range types.Providers {
		pc, _ := providers.ByID(string(id))
		adapters = append(adapters, New(id, reg, Params{
			Model:       pc.Model,
			MaxTokens:   pc.MaxTokens,
			Temperature: pc.Temperature,
		}, lgr))
	}
	return NewSet(adapters...)
}

// Get 返回指定服务的适配器
func (s *Set) Get(id types.ProviderID) (Adapter, error) {
	a, ok := s.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidProvider, id)
	}
	return a, nil
}
