// internal/repository/execution_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/database"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/utils"
)

// executionRepository implements ExecutionRepository on postgres
type executionRepository struct {
	db     *database.DB
	logger *utils.ServiceLogger
}

// NewExecutionRepository creates a postgres backed repository
func NewExecutionRepository(db *database.DB, logger *zap.Logger) ExecutionRepository {
	return &executionRepository{
		db:     db,
		logger: utils.NewServiceLogger(logger, "execution-repository"),
	}
}

const executionColumns = `id, source, session_name, driver, task_count, task_types,
	result_code, result_info, failed_task, finished, started_at, completed_at,
	duration_ms, correlation_id`

// Create inserts a new record
func (r *executionRepository) Create(ctx context.Context, record *model.ExecutionRecord) error {
	query := `INSERT INTO executions (` + executionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.Source, record.SessionName, record.Driver,
		record.TaskCount, record.TaskTypes, record.ResultCode, record.ResultInfo,
		record.FailedTask, record.Finished, record.StartedAt, record.CompletedAt,
		record.DurationMs, record.CorrelationID,
	)
	if err != nil {
		r.logger.Error("Failed to create execution", zap.Error(err))
		return fmt.Errorf("failed to create execution: %w", err)
	}
	return nil
}

// Update stores the outcome of a record
func (r *executionRepository) Update(ctx context.Context, record *model.ExecutionRecord) error {
	query := `
		UPDATE executions SET
			result_code = $2, result_info = $3, failed_task = $4, finished = $5,
			completed_at = $6, duration_ms = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		record.ID, record.ResultCode, record.ResultInfo, record.FailedTask,
		record.Finished, record.CompletedAt, record.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: execution %s", ErrNotFound, record.ID)
	}
	return nil
}

// GetByID retrieves a record by ID
func (r *executionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExecutionRecord, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`

	record, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: execution %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return record, nil
}

// List retrieves records with filtering and pagination
func (r *executionRepository) List(ctx context.Context, filter model.ExecutionFilter) ([]*model.ExecutionRecord, int, error) {
	whereClause, args := buildWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM executions ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count executions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM executions %s ORDER BY started_at DESC LIMIT $%d OFFSET $%d`,
		executionColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, pageSize(filter.Limit), max(filter.Offset, 0))

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.logger.LogDatabaseQuery(query, time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var records []*model.ExecutionRecord
	for rows.Next() {
		record, err := scanExecution(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan execution: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate executions: %w", err)
	}
	return records, total, nil
}

// Stats aggregates the records matching filter
func (r *executionRepository) Stats(ctx context.Context, filter model.ExecutionFilter) (*model.ExecutionStats, error) {
	whereClause, args := buildWhere(filter)
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN result_code = %d THEN 1 END),
			AVG(duration_ms)
		FROM executions %s
	`, model.CodeSuccess, whereClause)

	stats := &model.ExecutionStats{}
	var avgDurationMs sql.NullFloat64
	start := time.Now()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&stats.Total, &stats.Succeeded, &avgDurationMs)
	r.logger.LogDatabaseQuery(query, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get execution stats: %w", err)
	}
	stats.Failed = stats.Total - stats.Succeeded
	if avgDurationMs.Valid {
		stats.AverageDuration = avgDurationMs.Float64
	}
	return stats, nil
}

// DeleteOlderThan removes old records
func (r *executionRepository) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM executions WHERE started_at < $1`, t)
	if err != nil {
		return 0, fmt.Errorf("failed to delete executions: %w", err)
	}
	return result.RowsAffected()
}

// buildWhere renders filter as a WHERE clause with positional args
func buildWhere(filter model.ExecutionFilter) (string, []interface{}) {
	whereConditions := []string{}
	args := []interface{}{}

	if filter.Driver != "" {
		args = append(args, filter.Driver)
		whereConditions = append(whereConditions, fmt.Sprintf("driver = $%d", len(args)))
	}
	if filter.SessionName != "" {
		args = append(args, filter.SessionName)
		whereConditions = append(whereConditions, fmt.Sprintf("session_name = $%d", len(args)))
	}
	if filter.OnlyFailed {
		whereConditions = append(whereConditions, fmt.Sprintf("result_code <> %d", model.CodeSuccess))
	}

	if len(whereConditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(whereConditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExecution(row rowScanner) (*model.ExecutionRecord, error) {
	record := &model.ExecutionRecord{}
	var correlationID sql.NullString
	var completedAt sql.NullTime
	var durationMs sql.NullInt64
	err := row.Scan(
		&record.ID, &record.Source, &record.SessionName, &record.Driver,
		&record.TaskCount, &record.TaskTypes, &record.ResultCode, &record.ResultInfo,
		&record.FailedTask, &record.Finished, &record.StartedAt, &completedAt,
		&durationMs, &correlationID,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		record.CompletedAt = &completedAt.Time
	}
	if durationMs.Valid {
		d := int(durationMs.Int64)
		record.DurationMs = &d
	}
	if correlationID.Valid {
		record.CorrelationID = &correlationID.String
	}
	return record, nil
}
