package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/biz"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	pkgredis "github.com/lk2023060901/zhi-text-evaluator/internal/pkg/redis"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "zhi:"
	DefaultTTL       = 7 * 24 * time.Hour
)

// RedisRepo 基于 Redis 的分析结果存储。
// 每条记录以 JSON 存于 <prefix>analysis:<id>，最近列表为按创建时间排序的 ZSET <prefix>analysis:recent。
type RedisRepo struct {
	client   *pkgredis.Client
	prefix   string
	ttl      time.Duration
	capacity int
}

var _ biz.AnalysisRepo = (*RedisRepo)(nil)

// RedisRepoOption RedisRepo 选项
type RedisRepoOption func(*RedisRepo)

// WithKeyPrefix 设置键前缀
func WithKeyPrefix(prefix string) RedisRepoOption {
	return func(r *RedisRepo) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithTTL 设置记录过期时间
func WithTTL(ttl time.Duration) RedisRepoOption {
	return func(r *RedisRepo) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithCapacity 设置最近列表保留的条数
func WithCapacity(n int) RedisRepoOption {
	return func(r *RedisRepo) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// NewRedisRepo 创建 Redis 存储
func NewRedisRepo(client *pkgredis.Client, opts ...RedisRepoOption) *RedisRepo {
	r := &RedisRepo{
		client:   client,
		prefix:   DefaultKeyPrefix,
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRepo) recordKey(id string) string {
	return r.prefix + "analysis:" + id
}

func (r *RedisRepo) recentKey() string {
	return r.prefix + "analysis:recent"
}

// Save 写入记录并更新最近列表
func (r *RedisRepo) Save(ctx context.Context, record *types.AnalysisRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	score := float64(record.CreatedAt.UnixNano())
	_, err = r.client.Raw().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.recordKey(record.ID), payload, r.ttl)
		pipe.ZAdd(ctx, r.recentKey(), redis.Z{Score: score, Member: record.ID})
		// 只保留最新的 capacity 条
		pipe.ZRemRangeByRank(ctx, r.recentKey(), 0, int64(-r.capacity-1))
		pipe.Expire(ctx, r.recentKey(), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Get 按 ID 读取记录
func (r *RedisRepo) Get(ctx context.Context, id string) (*types.AnalysisRecord, error) {
	payload, err := r.client.Raw().Get(ctx, r.recordKey(id)).Bytes()
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, biz.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var rec types.AnalysisRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode analysis %s: %w", id, err)
	}
	return &rec, nil
}

// Recent 返回最近 limit 条记录，新的在前；已过期的记录被跳过
func (r *RedisRepo) Recent(ctx context.Context, limit int) ([]*types.AnalysisRecord, error) {
	if limit <= 0 {
		limit = r.capacity
	}

	ids, err := r.client.Raw().ZRevRange(ctx, r.recentKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	if len(ids) == 0 {
		return []*types.AnalysisRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.recordKey(id)
	}
	values, err := r.client.Raw().MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load analyses: %w", err)
	}

	out := make([]*types.AnalysisRecord, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec types.AnalysisRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode analysis %s: %w", ids[i], err)
		}
		out = append(out, &rec)
	}
	return out, nil
}
