// internal/service/execution_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/catalog"
	"github.com/Softbalance/equipment/internal/config"
	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/engine"
	"github.com/Softbalance/equipment/internal/metrics"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/repository"
	"github.com/Softbalance/equipment/internal/utils"
)

// ExecutionService runs task batches and keeps their history
type ExecutionService struct {
	drivers *driver.Registry
	catalog *catalog.Catalog
	history repository.ExecutionRepository
	bus     *EventBus
	metrics *metrics.Metrics
	timeout time.Duration
	logger  *utils.ServiceLogger
}

// NewExecutionService creates a new execution service instance
func NewExecutionService(
	drivers *driver.Registry,
	catalog *catalog.Catalog,
	history repository.ExecutionRepository,
	bus *EventBus,
	metrics *metrics.Metrics,
	config *config.DeviceConfig,
	logger *zap.Logger,
) *ExecutionService {
	return &ExecutionService{
		drivers: drivers,
		catalog: catalog,
		history: history,
		bus:     bus,
		metrics: metrics,
		timeout: config.OperationTimeout,
		logger:  utils.NewServiceLogger(logger, "execution-service"),
	}
}

// run describes one batch to execute.
type run struct {
	source      model.ExecutionSource
	session     string
	driver      model.DriverKind
	engine      *engine.Engine
	tasks       []model.Task
	finish      bool
	correlation string
}

// ExecuteRelay resolves the settings blob to a fresh backend, runs the
// batch and finishes the backend.
func (s *ExecutionService) ExecuteRelay(ctx context.Context, req model.TasksRequest, correlationID string) model.EquipmentResponse {
	kind, settings, err := s.catalog.Resolve(req.Settings)
	if err != nil {
		s.logger.Warn("Rejected relay settings", zap.Error(err))
		return model.NewResponse(model.CodeWrongParameters, fmt.Sprintf("invalid settings: %v", err))
	}
	return s.ExecuteDriver(ctx, kind, settings, req.Tasks, correlationID)
}

// ExecuteDriver runs the batch on a fresh backend of kind and finishes it.
func (s *ExecutionService) ExecuteDriver(ctx context.Context, kind model.DriverKind, settings string, tasks []model.Task, correlationID string) model.EquipmentResponse {
	backend, err := s.drivers.Create(kind, settings)
	if err != nil {
		return model.NewResponse(model.CodeWrongParameters, err.Error())
	}
	return s.execute(ctx, run{
		source:      model.SourceRelay,
		driver:      kind,
		engine:      engine.New(backend, s.logger.Logger),
		tasks:       tasks,
		finish:      true,
		correlation: correlationID,
	})
}

// ExecuteSession runs the batch on a named session.
func (s *ExecutionService) ExecuteSession(ctx context.Context, session *engine.Session, tasks []model.Task, finish bool, correlationID string) model.EquipmentResponse {
	return s.execute(ctx, run{
		source:      model.SourceSession,
		session:     session.Name,
		driver:      session.Kind,
		engine:      session.Engine,
		tasks:       tasks,
		finish:      finish,
		correlation: correlationID,
	})
}

func (s *ExecutionService) execute(ctx context.Context, r run) model.EquipmentResponse {
	record := &model.ExecutionRecord{
		ID:          uuid.New(),
		Source:      r.source,
		SessionName: r.session,
		Driver:      r.driver,
		TaskCount:   len(r.tasks),
		TaskTypes:   model.CountTaskTypes(r.tasks),
		ResultCode:  model.CodeHandlingError,
		StartedAt:   time.Now(),
	}
	if r.correlation != "" {
		record.CorrelationID = &r.correlation
	}
	if err := s.history.Create(ctx, record); err != nil {
		s.logger.Warn("Failed to store execution", zap.Error(err))
	}

	opLogger := utils.NewOperationLogger(s.logger.Logger, "execute", record.ID.String())
	opLogger.Start(
		zap.String("driver", string(r.driver)),
		zap.String("session", r.session),
		zap.Int("tasks", len(r.tasks)),
	)
	s.publish(model.EventExecutionStarted, record)

	execCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp := r.engine.Execute(execCtx, r.tasks, r.finish)

	record.Complete(resp.BaseResponse, r.engine.Backend().Status() == model.StatusFinished)
	if err := s.history.Update(context.WithoutCancel(ctx), record); err != nil {
		s.logger.Warn("Failed to update execution", zap.Error(err))
	}
	s.metrics.ObserveExecution(r.driver, r.source, r.tasks, resp.ResultCode, opLogger.Elapsed())

	if resp.IsSuccess() {
		opLogger.Success(zap.Bool("finished", record.Finished))
		s.publish(model.EventExecutionCompleted, record)
	} else {
		opLogger.Failure(resp.ResultCode.String(), resp.ResultInfo, zap.String("failed_task", record.FailedTask))
		s.publish(model.EventExecutionFailed, record)
	}
	return resp
}

func (s *ExecutionService) publish(t model.EventType, record *model.ExecutionRecord) {
	event := model.NewEvent(t, "execution-service", model.ExecutionEventData{
		ExecutionID: record.ID,
		TaskCount:   record.TaskCount,
		ResultCode:  record.ResultCode,
		ResultInfo:  record.ResultInfo,
		DurationMs:  record.DurationMs,
	}.Object())
	event.Session = record.SessionName
	event.Driver = record.Driver
	s.bus.Publish(event)
}

// GetExecution returns one history record.
func (s *ExecutionService) GetExecution(ctx context.Context, id uuid.UUID) (*model.ExecutionRecord, error) {
	record, err := s.history.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return record, nil
}

// ListExecutions returns one page of history and the total count.
func (s *ExecutionService) ListExecutions(ctx context.Context, filter model.ExecutionFilter) ([]*model.ExecutionRecord, int, error) {
	return s.history.List(ctx, filter)
}

// Stats aggregates history.
func (s *ExecutionService) Stats(ctx context.Context, filter model.ExecutionFilter) (*model.ExecutionStats, error) {
	return s.history.Stats(ctx, filter)
}

// PruneHistory deletes records older than retention every interval until
// ctx is done.
func (s *ExecutionService) PruneHistory(ctx context.Context, retention, interval time.Duration) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.history.DeleteOlderThan(ctx, time.Now().Add(-retention))
			if err != nil {
				s.logger.Warn("Failed to prune execution history", zap.Error(err))
				continue
			}
			if deleted > 0 {
				s.logger.Info("Pruned execution history", zap.Int64("deleted", deleted))
			}
		}
	}
}
