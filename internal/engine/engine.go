// Package engine runs task batches and auxiliary operations against a
// driver.Backend and folds every outcome into a response.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
)

const (
	initFailure = "init failure"
	cancelled   = "operation cancelled"
)

// Engine serializes access to one backend.
type Engine struct {
	backend driver.Backend
	mu      sync.Mutex
	logger  *zap.Logger
}

func New(backend driver.Backend, logger *zap.Logger) *Engine {
	return &Engine{
		backend: backend,
		logger:  logger.With(zap.String("driver", string(backend.Kind()))),
	}
}

func (e *Engine) Backend() driver.Backend {
	return e.backend
}

// Execute opens the backend, runs tasks in order and stops at the first
// failure. With finishAfterExecute the backend is finished on every path.
// A batch cancelled through ctx stops before the next task and finishes an
// opened backend.
func (e *Engine) Execute(ctx context.Context, tasks []model.Task, finishAfterExecute bool) (resp model.EquipmentResponse) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.backend.Status() == model.StatusFinished {
		return model.NewResponse(model.CodeLogicalError, initFailure)
	}

	start := time.Now()
	opened := false
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Backend panicked", zap.Any("panic", r), zap.Stack("stack"))
			resp = model.NewResponse(model.CodeInternalError, fmt.Sprintf("internal error: %v", r))
		}
		if finishAfterExecute || (opened && ctx.Err() != nil) {
			e.finish(ctx)
		}
		e.logger.Debug("Batch executed",
			zap.Int("tasks", len(tasks)),
			zap.Int("result_code", int(resp.ResultCode)),
			zap.String("result_info", resp.ResultInfo),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	if err := ctx.Err(); err != nil {
		return model.NewResponse(model.CodeHandlingError, cancelled)
	}
	if err := e.backend.Open(ctx); err != nil {
		return model.NewResponse(model.CodeHandlingError, driver.Describe(err))
	}
	opened = true

	if runner, ok := e.backend.(driver.BatchRunner); ok {
		return runner.RunBatch(ctx, tasks)
	}

	hooks, framed := e.backend.(driver.BatchHooks)
	if framed {
		if err := hooks.BeginBatch(ctx); err != nil {
			return model.NewResponse(model.CodeHandlingError, driver.Describe(err))
		}
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			return model.NewResponse(model.CodeHandlingError, cancelled)
		}
		if err := e.backend.RunTask(ctx, task); err != nil {
			return model.NewResponse(model.CodeHandlingError, taskMessage(task, err))
		}
	}

	if framed {
		if err := hooks.EndBatch(ctx); err != nil {
			return model.NewResponse(model.CodeHandlingError, driver.Describe(err))
		}
	}

	info := ""
	if reporter, ok := e.backend.(driver.InfoReporter); ok {
		info = reporter.LastInfo()
	}
	return model.NewResponse(model.CodeSuccess, info)
}

// Finish releases the backend under the engine lock.
func (e *Engine) Finish(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finish(ctx)
}

func (e *Engine) finish(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Backend panicked during finish", zap.Any("panic", r))
		}
	}()
	e.backend.Finish(context.WithoutCancel(ctx))
}

func taskMessage(task model.Task, err error) string {
	var taskErr *driver.TaskError
	if errors.As(err, &taskErr) {
		return taskErr.Error()
	}
	return fmt.Sprintf("%s (task %s)", driver.Describe(err), task.Type)
}

func (e *Engine) GetSerial(ctx context.Context, finishAfterExecute bool) (model.SerialResponse, error) {
	return auxiliary(ctx, e, driver.AuxSerial, finishAfterExecute, model.NewSerialResponse, e.backend.GetSerial)
}

func (e *Engine) GetSessionState(ctx context.Context, finishAfterExecute bool) (model.SessionStateResponse, error) {
	return auxiliary(ctx, e, driver.AuxSessionState, finishAfterExecute, model.NewSessionStateResponse, e.backend.GetSessionState)
}

func (e *Engine) OpenShift(ctx context.Context, finishAfterExecute bool) (model.OpenShiftResponse, error) {
	return auxiliary(ctx, e, driver.AuxOpenShift, finishAfterExecute, model.NewOpenShiftResponse, e.backend.OpenShift)
}

func (e *Engine) GetOfdStatus(ctx context.Context, finishAfterExecute bool) (model.OfdStatusResponse, error) {
	return auxiliary(ctx, e, driver.AuxOfdStatus, finishAfterExecute, model.NewOfdStatusResponse, e.backend.GetOfdStatus)
}

func (e *Engine) GetTaxes(ctx context.Context, finishAfterExecute bool) (model.TaxesResponse, error) {
	return auxiliary(ctx, e, driver.AuxTaxes, finishAfterExecute, model.NewTaxesResponse, e.backend.GetTaxes)
}

// settable is a pointer to a response embedding model.BaseResponse.
type settable[T any] interface {
	*T
	Set(code model.ResponseCode, info string)
}

// auxiliary applies the lifecycle guard and the finish convention around
// call, opening the backend first unless it answers op offline. Only
// driver.ErrMethodNotSupported is returned as an error.
func auxiliary[T any, P settable[T]](
	ctx context.Context,
	e *Engine,
	op driver.AuxOp,
	finishAfterExecute bool,
	fresh func() T,
	call func(context.Context) (T, error),
) (resp T, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fail := func(code model.ResponseCode, info string) T {
		r := fresh()
		P(&r).Set(code, info)
		return r
	}

	if e.backend.Status() == model.StatusFinished {
		return fail(model.CodeLogicalError, initFailure), nil
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Backend panicked", zap.Any("panic", r), zap.Stack("stack"))
			resp, err = fail(model.CodeInternalError, fmt.Sprintf("internal error: %v", r)), nil
		}
		if finishAfterExecute {
			e.finish(ctx)
		}
	}()

	if offline, ok := e.backend.(driver.OfflineAnswerer); !ok || !offline.AnswersOffline(op) {
		if err := e.backend.Open(ctx); err != nil {
			return fail(model.CodeHandlingError, driver.Describe(err)), nil
		}
	}

	resp, err = call(ctx)
	if errors.Is(err, driver.ErrMethodNotSupported) {
		return fail(model.CodeHandlingError, err.Error()), err
	}
	if err != nil {
		return fail(model.CodeHandlingError, driver.Describe(err)), nil
	}
	return resp, nil
}
