package data

import (
	"testing"

	analysisdata "github.com/lk2023060901/zhi-text-evaluator/internal/analysis/data"
	"github.com/lk2023060901/zhi-text-evaluator/internal/conf"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewData_Memory(t *testing.T) {
	cfg := &conf.Config{
		Store: conf.StoreConfig{Driver: "memory", Capacity: 5},
		Providers: conf.ProvidersConfig{
			Zhi1: conf.ProviderConfig{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/v1", Model: "gpt-4"},
		},
	}

	d, cleanup, err := NewData(cfg, logger.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &analysisdata.MemoryRepo{}, d.Store)
	assert.Nil(t, d.RedisClient)
	assert.Contains(t, d.Providers.List(), "zhi1")
	assert.NotContains(t, d.Providers.List(), "zhi2")
}

func TestNewData_RedisUnreachable(t *testing.T) {
	cfg := &conf.Config{
		Store: conf.StoreConfig{Driver: "redis"},
		Redis: conf.RedisConfig{Addr: "127.0.0.1:1"},
	}

	_, _, err := NewData(cfg, logger.NewNop())
	assert.Error(t, err)
}
