package data

import (
	"context"
	"sync"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/biz"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
)

// DefaultCapacity 内存存储默认保留的记录数
const DefaultCapacity = 100

// MemoryRepo 进程内的分析结果存储，超出容量时淘汰最早的记录
type MemoryRepo struct {
	mu       sync.RWMutex
	records  map[string]*types.AnalysisRecord
	order    []string // 按写入顺序，最新的在末尾
	capacity int
}

var _ biz.AnalysisRepo = (*MemoryRepo)(nil)

// NewMemoryRepo 创建内存存储，capacity <= 0 使用 DefaultCapacity
func NewMemoryRepo(capacity int) *MemoryRepo {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryRepo{
		records:  make(map[string]*types.AnalysisRecord),
		capacity: capacity,
	}
}

// Save 写入记录；同一 ID 再次写入时覆盖并移到最新
func (r *MemoryRepo) Save(ctx context.Context, record *types.AnalysisRecord) error {
	cp := *record

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[cp.ID]; ok {
		r.removeLocked(cp.ID)
	}
	r.records[cp.ID] = &cp
	r.order = append(r.order, cp.ID)

	for len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.records, oldest)
	}
	return nil
}

// Get 按 ID 读取记录
func (r *MemoryRepo) Get(ctx context.Context, id string) (*types.AnalysisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, biz.ErrAnalysisNotFound
	}
	cp := *rec
	return &cp, nil
}

// Recent 返回最近 limit 条记录，新的在前
func (r *MemoryRepo) Recent(ctx context.Context, limit int) ([]*types.AnalysisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.order) {
		limit = len(r.order)
	}
	out := make([]*types.AnalysisRecord, 0, limit)
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.records[r.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

// Len 当前记录数
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *MemoryRepo) removeLocked(id string) {
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	delete(r.records, id)
}
