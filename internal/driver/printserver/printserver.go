// Package printserver relays task batches to a remote print server over
// HTTP and evaluates the settings it describes.
package printserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/utils"
)

// PrintServer implements driver.Backend and driver.BatchRunner. It keeps no
// device state; the remote side opens and finishes the device per request.
type PrintServer struct {
	driver.Lifecycle

	settings Settings
	client   *Client
	logger   *utils.DeviceLogger
}

var (
	_ driver.Backend     = (*PrintServer)(nil)
	_ driver.BatchRunner = (*PrintServer)(nil)
)

// Factory returns a driver.Factory for relays using cfg timeouts.
func Factory(cfg ClientConfig) driver.Factory {
	return func(settings string, logger *zap.Logger) (driver.Backend, error) {
		return New(ExtractSettings(settings), cfg, nil, logger), nil
	}
}

// New creates a relay. A nil httpClient is built from cfg.
func New(settings Settings, cfg ClientConfig, httpClient *http.Client, logger *zap.Logger) *PrintServer {
	return &PrintServer{
		settings: settings,
		client:   NewClient(settings.URL(), cfg, httpClient, logger),
		logger:   utils.NewDeviceLogger(logger, model.DriverPrintServer, ""),
	}
}

func (p *PrintServer) Kind() model.DriverKind {
	return model.DriverPrintServer
}

func (p *PrintServer) Client() *Client {
	return p.client
}

// Open only marks the relay initialized.
func (p *PrintServer) Open(ctx context.Context) error {
	p.SetStatus(model.StatusInitialized)
	return nil
}

// RunTask is not used; batches go through RunBatch.
func (p *PrintServer) RunTask(ctx context.Context, task model.Task) error {
	resp := p.RunBatch(ctx, []model.Task{task})
	if !resp.IsSuccess() {
		return errors.New(resp.ResultInfo)
	}
	return nil
}

// RunBatch sends the whole batch to /execute.
func (p *PrintServer) RunBatch(ctx context.Context, tasks []model.Task) model.EquipmentResponse {
	resp, err := p.client.Execute(ctx, model.TasksRequest{Tasks: tasks, Settings: p.settings.Settings})
	if err != nil {
		p.logger.LogConnection("execute", false, err)
		code := model.CodeHandlingError
		if errors.Is(err, ErrNetwork) {
			code = model.CodeNoConnection
		}
		return model.NewResponse(code, Message(err))
	}
	return resp
}

// Finish retires the relay. Nothing is released remotely.
func (p *PrintServer) Finish(ctx context.Context) {
	p.SetStatus(model.StatusFinished)
}

func (p *PrintServer) GetSerial(ctx context.Context) (model.SerialResponse, error) {
	resp := model.NewSerialResponse()
	resp.ResultInfo = "getInfo is not implemented for PrintServer"
	return resp, nil
}

func (p *PrintServer) GetSessionState(ctx context.Context) (model.SessionStateResponse, error) {
	resp := model.NewSessionStateResponse()
	resp.ResultInfo = "getSessionState is not implemented for PrintServer"
	return resp, nil
}

func (p *PrintServer) OpenShift(ctx context.Context) (model.OpenShiftResponse, error) {
	resp := model.NewOpenShiftResponse()
	resp.ResultInfo = "openShift is not implemented for PrintServer"
	return resp, nil
}

func (p *PrintServer) GetOfdStatus(ctx context.Context) (model.OfdStatusResponse, error) {
	return model.OfdStatusResponse{}, driver.ErrMethodNotSupported
}

// GetTaxes asks /taxes for the tax slots configured on the remote device.
func (p *PrintServer) GetTaxes(ctx context.Context) (model.TaxesResponse, error) {
	out := model.NewTaxesResponse()
	resp, err := p.client.Taxes(ctx, p.settings.Settings)
	switch {
	case err != nil:
		out.ResultInfo = Message(err)
	case !resp.IsSuccess():
		out.ResultInfo = fmt.Sprintf("obtaining taxes failed: %s", resp.ResultInfo)
	case len(resp.Taxes) == 0:
		out.ResultInfo = "taxes empty"
	default:
		out.Set(model.CodeSuccess, resp.ResultInfo)
		out.Taxes = resp.Taxes
	}
	return out, nil
}
