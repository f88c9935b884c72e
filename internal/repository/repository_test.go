package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Softbalance/equipment/internal/model"
)

func record(driver model.DriverKind, session string, code model.ResponseCode, startedAt time.Time, durationMs int) *model.ExecutionRecord {
	return &model.ExecutionRecord{
		ID:          uuid.New(),
		Source:      model.SourceSession,
		SessionName: session,
		Driver:      driver,
		ResultCode:  code,
		StartedAt:   startedAt,
		DurationMs:  &durationMs,
	}
}

func TestMemoryRepositoryListAndStats(t *testing.T) {
	repo := NewMemoryExecutionRepository(0)
	ctx := context.Background()
	now := time.Now()

	recs := []*model.ExecutionRecord{
		record(model.DriverAtol, "till-1", model.CodeSuccess, now.Add(-3*time.Minute), 100),
		record(model.DriverAtol, "till-1", model.CodeHandlingError, now.Add(-2*time.Minute), 300),
		record(model.DriverPosiflex, "kitchen", model.CodeSuccess, now.Add(-time.Minute), 200),
	}
	for _, r := range recs {
		require.NoError(t, repo.Create(ctx, r))
	}

	all, total, err := repo.List(ctx, model.ExecutionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, recs[2].ID, all[0].ID)

	page, total, err := repo.List(ctx, model.ExecutionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, recs[1].ID, page[0].ID)

	failed, _, err := repo.List(ctx, model.ExecutionFilter{SessionName: "till-1", OnlyFailed: true})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, recs[1].ID, failed[0].ID)

	stats, err := repo.Stats(ctx, model.ExecutionFilter{Driver: model.DriverAtol})
	require.NoError(t, err)
	assert.Equal(t, &model.ExecutionStats{Total: 2, Succeeded: 1, Failed: 1, AverageDuration: 200}, stats)

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-90*time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

func TestMemoryRepositoryUpdateAndGet(t *testing.T) {
	repo := NewMemoryExecutionRepository(2)
	ctx := context.Background()

	r := record(model.DriverShtrih, "", model.CodeHandlingError, time.Now(), 0)
	require.NoError(t, repo.Create(ctx, r))

	r.Complete(model.BaseResponse{ResultCode: model.CodeSuccess}, true)
	require.NoError(t, repo.Update(ctx, r))

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSuccess())
	assert.True(t, got.Finished)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, record(model.DriverAtol, "", 0, time.Now(), 0)), ErrNotFound)
}

func TestMemoryRepositoryEvictsOldest(t *testing.T) {
	repo := NewMemoryExecutionRepository(2)
	ctx := context.Background()
	now := time.Now()

	oldest := record(model.DriverAtol, "", 0, now.Add(-time.Hour), 0)
	require.NoError(t, repo.Create(ctx, oldest))
	require.NoError(t, repo.Create(ctx, record(model.DriverAtol, "", 0, now.Add(-time.Minute), 0)))
	require.NoError(t, repo.Create(ctx, record(model.DriverAtol, "", 0, now, 0)))

	_, total, err := repo.List(ctx, model.ExecutionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	_, err = repo.GetByID(ctx, oldest.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(model.ExecutionFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildWhere(model.ExecutionFilter{Driver: model.DriverAtol, SessionName: "till-1", OnlyFailed: true})
	assert.Equal(t, "WHERE driver = $1 AND session_name = $2 AND result_code <> 0", where)
	assert.Equal(t, []interface{}{model.DriverAtol, "till-1"}, args)
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, defaultPageSize, pageSize(0))
	assert.Equal(t, 10, pageSize(10))
	assert.Equal(t, maxPageSize, pageSize(10000))
}
