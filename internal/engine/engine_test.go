package engine

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/protocol"
)

// spyBackend records every call and fails on demand.
type spyBackend struct {
	driver.Lifecycle

	openErr  error
	failOn   map[model.TaskType]error
	panicOn  model.TaskType
	onTask   func(model.Task)
	ran      []model.TaskType
	opens    int
	finishes int
	serial   string
}

func newSpy() *spyBackend {
	return &spyBackend{failOn: map[model.TaskType]error{}}
}

func (s *spyBackend) Kind() model.DriverKind { return model.DriverAtol }

func (s *spyBackend) Open(ctx context.Context) error {
	s.opens++
	if s.openErr != nil {
		return s.openErr
	}
	s.SetStatus(model.StatusInitialized)
	return nil
}

func (s *spyBackend) RunTask(ctx context.Context, task model.Task) error {
	s.ran = append(s.ran, task.Type)
	if s.onTask != nil {
		s.onTask(task)
	}
	if task.Type == s.panicOn {
		panic("driver bug")
	}
	return s.failOn[task.Type]
}

func (s *spyBackend) Finish(ctx context.Context) {
	s.finishes++
	s.SetStatus(model.StatusFinished)
}

func (s *spyBackend) GetSerial(ctx context.Context) (model.SerialResponse, error) {
	resp := model.NewSerialResponse()
	resp.Set(model.CodeSuccess, "")
	resp.Serial = s.serial
	return resp, nil
}

func (s *spyBackend) GetSessionState(ctx context.Context) (model.SessionStateResponse, error) {
	return model.SessionStateResponse{}, driver.ErrMethodNotSupported
}

func (s *spyBackend) OpenShift(ctx context.Context) (model.OpenShiftResponse, error) {
	resp := model.NewOpenShiftResponse()
	resp.ResultInfo = "Error -3837: shift already opened"
	return resp, nil
}

func (s *spyBackend) GetOfdStatus(ctx context.Context) (model.OfdStatusResponse, error) {
	panic("ofd exploded")
}

func (s *spyBackend) GetTaxes(ctx context.Context) (model.TaxesResponse, error) {
	return model.NewTaxesResponse(), nil
}

type reportingSpy struct {
	*spyBackend
}

func (r reportingSpy) LastInfo() string { return "paper near end" }

type framedSpy struct {
	*spyBackend
	events   []string
	beginErr error
}

func (f *framedSpy) BeginBatch(ctx context.Context) error {
	f.events = append(f.events, "begin")
	return f.beginErr
}

func (f *framedSpy) EndBatch(ctx context.Context) error {
	f.events = append(f.events, "end")
	return nil
}

type runnerSpy struct {
	*spyBackend
	batches [][]model.Task
}

func (r *runnerSpy) RunBatch(ctx context.Context, tasks []model.Task) model.EquipmentResponse {
	r.batches = append(r.batches, tasks)
	return model.NewResponse(model.CodeSuccess, "remote")
}

func tasks(types ...model.TaskType) []model.Task {
	out := make([]model.Task, 0, len(types))
	for _, t := range types {
		out = append(out, model.NewTask(t, ""))
	}
	return out
}

func TestExecuteStopsAtFirstFailure(t *testing.T) {
	spy := newSpy()
	spy.failOn[model.TaskRegistration] = errors.New("price not set")
	e := New(spy, zap.NewNop())

	resp := e.Execute(context.Background(), tasks(model.TaskOpenCheckSell, model.TaskRegistration, model.TaskCloseCheck), false)

	assert.Equal(t, model.CodeHandlingError, resp.ResultCode)
	assert.Equal(t, "price not set (task Registration)", resp.ResultInfo)
	assert.Equal(t, []model.TaskType{model.TaskOpenCheckSell, model.TaskRegistration}, spy.ran)
	assert.Zero(t, spy.finishes)
}

func TestExecuteKeepsTaskErrorMessage(t *testing.T) {
	spy := newSpy()
	spy.failOn[model.TaskString] = &driver.TaskError{Task: model.TaskString, Err: errors.New("no paper"), Style: driver.PrefixStyle}
	e := New(spy, zap.NewNop())

	resp := e.Execute(context.Background(), tasks(model.TaskString), false)
	assert.Equal(t, "Failed to execute task String. no paper", resp.ResultInfo)
}

func TestExecuteDescribesTransportFailures(t *testing.T) {
	spy := newSpy()
	spy.failOn[model.TaskCut] = io.ErrUnexpectedEOF
	e := New(spy, zap.NewNop())

	resp := e.Execute(context.Background(), tasks(model.TaskCut), false)
	assert.Equal(t, "io exception unexpected EOF (task Cut)", resp.ResultInfo)
}

func TestExecuteEmptyBatch(t *testing.T) {
	spy := newSpy()
	resp := New(spy, zap.NewNop()).Execute(context.Background(), nil, false)
	assert.True(t, resp.IsSuccess())
	assert.Empty(t, resp.ResultInfo)
}

func TestExecuteReportsInfo(t *testing.T) {
	spy := reportingSpy{newSpy()}
	resp := New(spy, zap.NewNop()).Execute(context.Background(), tasks(model.TaskString), false)
	assert.Equal(t, model.NewResponse(model.CodeSuccess, "paper near end"), resp)
}

func TestExecuteOnFinishedBackendDoesNothing(t *testing.T) {
	spy := newSpy()
	e := New(spy, zap.NewNop())
	require.True(t, e.Execute(context.Background(), nil, true).IsSuccess())
	require.Equal(t, model.StatusFinished, spy.Status())
	opens, finishes := spy.opens, spy.finishes

	resp := e.Execute(context.Background(), tasks(model.TaskString), true)
	assert.Equal(t, model.NewResponse(model.CodeLogicalError, "init failure"), resp)
	assert.Equal(t, opens, spy.opens)
	assert.Equal(t, finishes, spy.finishes)
	assert.Empty(t, spy.ran)

	serial, err := e.GetSerial(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, model.CodeLogicalError, serial.ResultCode)
	assert.Equal(t, opens, spy.opens)
}

func TestExecuteFinishesOnBothPaths(t *testing.T) {
	ok := newSpy()
	assert.True(t, New(ok, zap.NewNop()).Execute(context.Background(), tasks(model.TaskString), true).IsSuccess())
	assert.Equal(t, 1, ok.finishes)
	assert.Equal(t, model.StatusFinished, ok.Status())

	failing := newSpy()
	failing.failOn[model.TaskString] = errors.New("boom")
	assert.False(t, New(failing, zap.NewNop()).Execute(context.Background(), tasks(model.TaskString), true).IsSuccess())
	assert.Equal(t, 1, failing.finishes)
	assert.Equal(t, model.StatusFinished, failing.Status())
}

func TestExecuteOpenFailure(t *testing.T) {
	spy := newSpy()
	spy.openErr = protocol.ErrConnectFailed
	resp := New(spy, zap.NewNop()).Execute(context.Background(), tasks(model.TaskString), true)

	assert.Equal(t, model.NewResponse(model.CodeHandlingError, "host connection failure"), resp)
	assert.Empty(t, spy.ran)
	assert.Equal(t, 1, spy.finishes)
	assert.Equal(t, model.StatusFinished, spy.Status())

	again := New(spy, zap.NewNop()).Execute(context.Background(), tasks(model.TaskString), true)
	assert.Equal(t, model.CodeLogicalError, again.ResultCode)
}

func TestExecuteCancellationFinishesOpenedBackend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	spy := newSpy()
	spy.onTask = func(model.Task) { cancel() }

	resp := New(spy, zap.NewNop()).Execute(ctx, tasks(model.TaskString, model.TaskCut), false)

	assert.Equal(t, model.NewResponse(model.CodeHandlingError, "operation cancelled"), resp)
	assert.Equal(t, []model.TaskType{model.TaskString}, spy.ran)
	assert.Equal(t, 1, spy.finishes)
}

func TestExecuteCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	spy := newSpy()

	resp := New(spy, zap.NewNop()).Execute(ctx, tasks(model.TaskString), false)
	assert.Equal(t, "operation cancelled", resp.ResultInfo)
	assert.Zero(t, spy.opens)
	assert.Zero(t, spy.finishes)
}

func TestExecuteRecoversPanics(t *testing.T) {
	spy := newSpy()
	spy.panicOn = model.TaskCut

	resp := New(spy, zap.NewNop()).Execute(context.Background(), tasks(model.TaskCut), true)
	assert.Equal(t, model.NewResponse(model.CodeInternalError, "internal error: driver bug"), resp)
	assert.Equal(t, 1, spy.finishes)
}

func TestExecuteFramesBatch(t *testing.T) {
	spy := &framedSpy{spyBackend: newSpy()}
	resp := New(spy, zap.NewNop()).Execute(context.Background(), tasks(model.TaskString), false)
	require.True(t, resp.IsSuccess())
	assert.Equal(t, []string{"begin", "end"}, spy.events)

	failing := &framedSpy{spyBackend: newSpy(), beginErr: errors.New("write: broken pipe")}
	resp = New(failing, zap.NewNop()).Execute(context.Background(), tasks(model.TaskString), false)
	assert.Equal(t, model.CodeHandlingError, resp.ResultCode)
	assert.Empty(t, failing.ran)
	assert.Equal(t, []string{"begin"}, failing.events)
}

func TestExecuteDelegatesToBatchRunner(t *testing.T) {
	spy := &runnerSpy{spyBackend: newSpy()}
	batch := tasks(model.TaskString, model.TaskCut)

	resp := New(spy, zap.NewNop()).Execute(context.Background(), batch, true)
	assert.Equal(t, model.NewResponse(model.CodeSuccess, "remote"), resp)
	assert.Equal(t, [][]model.Task{batch}, spy.batches)
	assert.Empty(t, spy.ran)
	assert.Equal(t, 1, spy.finishes)
}

func TestAuxiliaryOperations(t *testing.T) {
	spy := newSpy()
	spy.serial = "00106700012345"
	e := New(spy, zap.NewNop())
	ctx := context.Background()

	serial, err := e.GetSerial(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "00106700012345", serial.Serial)
	assert.Equal(t, 1, spy.opens)

	_, err = e.GetSessionState(ctx, false)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)

	shift, err := e.OpenShift(ctx, false)
	require.NoError(t, err)
	assert.True(t, shift.ShiftAlreadyOpened())
	assert.False(t, shift.ShiftExpired24Hours())

	ofd, err := e.GetOfdStatus(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, model.CodeInternalError, ofd.ResultCode)
	assert.Equal(t, "internal error: ofd exploded", ofd.ResultInfo)

	taxes, err := e.GetTaxes(ctx, true)
	require.NoError(t, err)
	assert.NotNil(t, taxes.Taxes)
	assert.Equal(t, model.StatusFinished, spy.Status())
}

func TestAuxiliaryOpenFailure(t *testing.T) {
	spy := newSpy()
	spy.openErr = errors.New("-1: No connection")

	serial, err := New(spy, zap.NewNop()).GetSerial(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, model.CodeHandlingError, serial.ResultCode)
	assert.Equal(t, "-1: No connection", serial.ResultInfo)
	assert.Equal(t, 1, spy.finishes)
}

// offlineSpy answers the serial without opening the device.
type offlineSpy struct {
	*spyBackend
}

func (s offlineSpy) AnswersOffline(op driver.AuxOp) bool { return op == driver.AuxSerial }

func TestAuxiliaryAnsweredOfflineSkipsOpen(t *testing.T) {
	spy := offlineSpy{newSpy()}
	spy.openErr = errors.New("-1: No connection")
	spy.serial = "static"
	e := New(spy, zap.NewNop())

	serial, err := e.GetSerial(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, serial.IsSuccess())
	assert.Equal(t, "static", serial.Serial)
	assert.Zero(t, spy.opens)

	shift, err := e.OpenShift(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "-1: No connection", shift.ResultInfo)
	assert.Equal(t, 1, spy.opens)
	assert.Equal(t, model.StatusFinished, spy.Status())
}
