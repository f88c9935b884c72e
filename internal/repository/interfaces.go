// Package repository stores execution history.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Softbalance/equipment/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ExecutionRepository defines execution history data access operations
type ExecutionRepository interface {
	Create(ctx context.Context, record *model.ExecutionRecord) error
	Update(ctx context.Context, record *model.ExecutionRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExecutionRecord, error)

	// List returns one page of records, newest first, and the total count.
	List(ctx context.Context, filter model.ExecutionFilter) ([]*model.ExecutionRecord, int, error)
	Stats(ctx context.Context, filter model.ExecutionFilter) (*model.ExecutionStats, error)

	// DeleteOlderThan removes records started before t.
	DeleteOlderThan(ctx context.Context, t time.Time) (int64, error)
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}
