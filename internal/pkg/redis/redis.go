package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client Redis 客户端封装
type Client struct {
	config *Config
	logger *logger.Logger
	rdb    *redis.Client
}

// New 创建 Redis 客户端并做健康检查
func New(cfg *Config, lgr *logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	client := &Client{
		config: cfg,
		logger: logger.OrGlobal(lgr),
		rdb: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			MaxRetries:   cfg.MaxRetries,
		}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	client.logger.Info("redis client initialized successfully",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB))

	return client, nil
}

// Ping 检查连接
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Raw 返回底层 go-redis 客户端
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// Close 关闭客户端
func (c *Client) Close() error {
	start := time.Now()
	err := c.rdb.Close()
	c.logger.Debug("redis client closed", zap.Duration("elapsed", time.Since(start)))
	return err
}
