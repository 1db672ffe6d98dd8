package data

import (
	"fmt"

	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/factory"
	"github.com/lk2023060901/zhi-text-evaluator/internal/ai/provider/registry"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/biz"
	analysisdata "github.com/lk2023060901/zhi-text-evaluator/internal/analysis/data"
	"github.com/lk2023060901/zhi-text-evaluator/internal/conf"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	pkgredis "github.com/lk2023060901/zhi-text-evaluator/internal/pkg/redis"
	"go.uber.org/zap"
)

// Data 进程级资源：上游模型服务与结果存储
type Data struct {
	Providers   *registry.Registry
	Store       biz.AnalysisRepo
	RedisClient *pkgredis.Client // store.driver 为 redis 时非空
	Logger      *logger.Logger
}

func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	log = logger.OrGlobal(log)

	// Initialize providers
	providers := registry.New()
	if err := factory.RegisterAll(providers, &config.Providers, log); err != nil {
		return nil, nil, fmt.Errorf("failed to init providers: %w", err)
	}

	d := &Data{
		Providers: providers,
		Logger:    log,
	}

	// Initialize result store
	switch config.Store.Driver {
	case "redis":
		redisClient, err := initRedis(config, log)
		if err != nil {
			providers.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		d.RedisClient = redisClient
		d.Store = analysisdata.NewRedisRepo(redisClient,
			analysisdata.WithKeyPrefix(config.Redis.KeyPrefix),
			analysisdata.WithTTL(config.Redis.TTL),
			analysisdata.WithCapacity(config.Store.Capacity))
	default:
		d.Store = analysisdata.NewMemoryRepo(config.Store.Capacity)
	}

	log.Info("data layer initialized",
		zap.String("store", config.Store.Driver),
		zap.Strings("providers", providers.List()))

	cleanup := func() {
		log.Info("cleaning up data resources")

		if err := providers.Close(); err != nil {
			log.Warn("failed to close providers", zap.Error(err))
		}

		if d.RedisClient != nil {
			d.RedisClient.Close()
		}
	}

	return d, cleanup, nil
}

func initRedis(config *conf.Config, log *logger.Logger) (*pkgredis.Client, error) {
	cfg := pkgredis.DefaultConfig()
	cfg.Addr = config.Redis.Addr
	cfg.Username = config.Redis.Username
	cfg.Password = config.Redis.Password
	cfg.DB = config.Redis.DB
	return pkgredis.New(cfg, log)
}
