package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/types"
)

// ErrNotFound Provider 未注册
var ErrNotFound = errors.New("provider not configured")

// Registry 进程级 Provider 注册表（支持别名）
type Registry struct {
	mu        sync.RWMutex
	providers map[string]types.Provider
	aliases   map[string]string // alias -> real name
}

// New 创建空注册表
func New() *Registry {
	return &Registry{
		providers: make(map[string]types.Provider),
		aliases:   make(map[string]string),
	}
}

// Register 注册 Provider（支持别名），同名覆盖
func (r *Registry) Register(name string, provider types.Provider, aliasNames ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[name] = provider
	for _, alias := range aliasNames {
		r.aliases[alias] = name
	}
}

// Get 获取 Provider（支持别名）
func (r *Registry) Get(nameOrAlias string) (types.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[r.resolveAliasLocked(nameOrAlias)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, nameOrAlias)
	}
	return provider, nil
}

// ResolveAlias 解析别名为真实名称
func (r *Registry) ResolveAlias(nameOrAlias string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveAliasLocked(nameOrAlias)
}

func (r *Registry) resolveAliasLocked(nameOrAlias string) string {
	if realName, ok := r.aliases[nameOrAlias]; ok {
		return realName
	}
	return nameOrAlias
}

// List 列出所有 Provider 名称（不包括别名，已排序）
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister 注销 Provider（同时删除别名）
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.providers, name)
	for alias, realName := range r.aliases {
		if realName == name {
			delete(r.aliases, alias)
		}
	}
}

// Close 关闭所有 Provider
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, p := range r.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close provider %s: %w", name, err)
		}
	}
	r.providers = make(map[string]types.Provider)
	r.aliases = make(map[string]string)
	return firstErr
}
