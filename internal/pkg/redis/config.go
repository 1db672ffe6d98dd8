package redis

import (
	"errors"
	"time"
)

// Config Redis 单机连接配置
type Config struct {
	Addr     string // 地址 (host:port)
	Username string // 用户名（Redis 6.0+）
	Password string // 密码
	DB       int    // 数据库编号

	PoolSize     int           // 连接池大小
	MinIdleConns int           // 最小空闲连接数
	DialTimeout  time.Duration // 连接超时
	ReadTimeout  time.Duration // 读超时
	WriteTimeout time.Duration // 写超时
	MaxRetries   int           // 最大重试次数
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	}
}

// Validate 验证配置并补全默认值
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("redis: addr is required")
	}
	if c.DB < 0 {
		return errors.New("redis: db must be non-negative")
	}

	def := DefaultConfig()
	if c.PoolSize <= 0 {
		c.PoolSize = def.PoolSize
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	return nil
}
