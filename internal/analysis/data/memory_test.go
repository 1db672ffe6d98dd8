package data

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/biz"
	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, at time.Time) *types.AnalysisRecord {
	return &types.AnalysisRecord{
		ID:        id,
		Mode:      types.ModeCognitiveShort,
		Provider:  types.Zhi1,
		Input:     "input " + id,
		Content:   "content " + id,
		Status:    types.StatusCompleted,
		CreatedAt: at,
	}
}

func ids(records []*types.AnalysisRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestMemoryRepo_SaveGet(t *testing.T) {
	repo := NewMemoryRepo(0)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := record("a", base)
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// 返回副本，外部修改不影响存储
	got.Content = "mutated"
	again, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "content a", again.Content)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, biz.ErrAnalysisNotFound)
}

func TestMemoryRepo_RecentNewestFirst(t *testing.T) {
	repo := NewMemoryRepo(10)
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repo.Save(ctx, record(id, base.Add(time.Duration(i)*time.Second))))
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c"}, ids(recent))

	recent, err = repo.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids(recent))

	recent, err = repo.Recent(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, recent, 4)
}

func TestMemoryRepo_Empty(t *testing.T) {
	recent, err := NewMemoryRepo(3).Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, recent)
	assert.Empty(t, recent)
}

func TestMemoryRepo_Capacity(t *testing.T) {
	repo := NewMemoryRepo(3)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, repo.Save(ctx, record(id, time.Now())))
	}

	assert.Equal(t, 3, repo.Len())
	_, err := repo.Get(ctx, "a")
	assert.ErrorIs(t, err, biz.ErrAnalysisNotFound)

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d", "c"}, ids(recent))
}

func TestMemoryRepo_Overwrite(t *testing.T) {
	repo := NewMemoryRepo(3)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, record("a", time.Now())))
	require.NoError(t, repo.Save(ctx, record("b", time.Now())))

	updated := record("a", time.Now())
	updated.Status = types.StatusError
	require.NoError(t, repo.Save(ctx, updated))

	assert.Equal(t, 2, repo.Len())
	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(recent))
	assert.Equal(t, types.StatusError, recent[0].Status)
}

func TestMemoryRepo_Concurrent(t *testing.T) {
	repo := NewMemoryRepo(50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = repo.Save(ctx, record(fmt.Sprintf("%d-%d", i, j), time.Now()))
				_, _ = repo.Recent(ctx, 5)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, repo.Len())
}
