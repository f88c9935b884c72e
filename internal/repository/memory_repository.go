package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Softbalance/equipment/internal/model"
)

// memoryExecutionRepository keeps history in process, bounded to capacity
// records.
type memoryExecutionRepository struct {
	mu       sync.RWMutex
	records  map[uuid.UUID]*model.ExecutionRecord
	capacity int
}

// NewMemoryExecutionRepository is used when no database is configured.
func NewMemoryExecutionRepository(capacity int) ExecutionRepository {
	if capacity <= 0 {
		capacity = 10000
	}
	return &memoryExecutionRepository{
		records:  make(map[uuid.UUID]*model.ExecutionRecord),
		capacity: capacity,
	}
}

func (r *memoryExecutionRepository) Create(ctx context.Context, record *model.ExecutionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) >= r.capacity {
		r.evictOldest()
	}
	cp := *record
	r.records[record.ID] = &cp
	return nil
}

func (r *memoryExecutionRepository) evictOldest() {
	var oldest *model.ExecutionRecord
	for _, rec := range r.records {
		if oldest == nil || rec.StartedAt.Before(oldest.StartedAt) {
			oldest = rec
		}
	}
	if oldest != nil {
		delete(r.records, oldest.ID)
	}
}

func (r *memoryExecutionRepository) Update(ctx context.Context, record *model.ExecutionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; !ok {
		return fmt.Errorf("%w: execution %s", ErrNotFound, record.ID)
	}
	cp := *record
	r.records[record.ID] = &cp
	return nil
}

func (r *memoryExecutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExecutionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: execution %s", ErrNotFound, id)
	}
	cp := *rec
	return &cp, nil
}

func (r *memoryExecutionRepository) matching(filter model.ExecutionFilter) []*model.ExecutionRecord {
	var out []*model.ExecutionRecord
	for _, rec := range r.records {
		if filter.Driver != "" && rec.Driver != filter.Driver {
			continue
		}
		if filter.SessionName != "" && rec.SessionName != filter.SessionName {
			continue
		}
		if filter.OnlyFailed && rec.IsSuccess() {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

func (r *memoryExecutionRepository) List(ctx context.Context, filter model.ExecutionFilter) ([]*model.ExecutionRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.matching(filter)
	start := min(max(filter.Offset, 0), len(all))
	end := min(start+pageSize(filter.Limit), len(all))
	return all[start:end], len(all), nil
}

func (r *memoryExecutionRepository) Stats(ctx context.Context, filter model.ExecutionFilter) (*model.ExecutionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &model.ExecutionStats{}
	var durationSum, durationCount int
	for _, rec := range r.matching(filter) {
		stats.Total++
		if rec.IsSuccess() {
			stats.Succeeded++
		}
		if rec.DurationMs != nil {
			durationSum += *rec.DurationMs
			durationCount++
		}
	}
	stats.Failed = stats.Total - stats.Succeeded
	if durationCount > 0 {
		stats.AverageDuration = float64(durationSum) / float64(durationCount)
	}
	return stats, nil
}

func (r *memoryExecutionRepository) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, rec := range r.records {
		if rec.StartedAt.Before(t) {
			delete(r.records, id)
			deleted++
		}
	}
	return deleted, nil
}
