// Package atol drives fiscal registers through the property-style native
// SDK.
package atol

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/utils"
)

// DeviceProvider creates a fresh SDK handle.
type DeviceProvider func() FiscalDevice

// Atol implements driver.Backend on top of a FiscalDevice.
type Atol struct {
	driver.Lifecycle

	settings  string
	provider  DeviceProvider
	device    FiscalDevice
	logger    *utils.DeviceLogger
	mu        sync.Mutex
	lastInfo  string
	ffd       int
	ffdCached bool
	now       func() time.Time
}

var (
	_ driver.Backend      = (*Atol)(nil)
	_ driver.InfoReporter = (*Atol)(nil)
)

// Factory returns a driver.Factory building adapters over provider.
func Factory(provider DeviceProvider) driver.Factory {
	return func(settings string, logger *zap.Logger) (driver.Backend, error) {
		return New(settings, provider, logger), nil
	}
}

// New creates an adapter. The device handle is created lazily on the
// first Open.
func New(settings string, provider DeviceProvider, logger *zap.Logger) *Atol {
	return &Atol{
		settings: settings,
		provider: provider,
		logger:   utils.NewDeviceLogger(logger, model.DriverAtol, ""),
		now:      time.Now,
	}
}

func (a *Atol) Kind() model.DriverKind {
	return model.DriverAtol
}

// Device exposes the underlying SDK handle, creating it if needed.
func (a *Atol) Device() (FiscalDevice, error) {
	if err := a.prepare(); err != nil {
		return nil, err
	}
	return a.device, nil
}

func (a *Atol) prepare() error {
	if a.device != nil {
		return nil
	}

	device := a.provider()
	if err := device.Create(); err != nil {
		return fmt.Errorf("%w : %w", driver.ErrInitFailure, err)
	}
	a.device = device

	if a.settings != "" && a.device.SetProperty(PropDeviceSettings, a.settings) != resultOK {
		info := a.getInfo()
		a.device = nil
		device.Destroy()
		return fmt.Errorf("%w : incorrect settings. %s", driver.ErrInitFailure, info)
	}

	a.SetStatus(model.StatusInitialized)
	return nil
}

// Open creates the SDK handle on first use and enables the device.
func (a *Atol) Open(ctx context.Context) error {
	if err := a.prepare(); err != nil {
		a.logger.LogConnection("init", false, err)
		return err
	}
	if a.device.SetProperty(PropDeviceEnabled, true) != resultOK {
		err := errors.New(a.getInfo())
		a.logger.LogConnection("enable", false, err)
		return err
	}
	return nil
}

// Finish disables and destroys an open handle and retires the backend,
// opened or not. Destroy errors are logged.
func (a *Atol) Finish(ctx context.Context) {
	defer a.SetStatus(model.StatusFinished)
	if !a.IsInitialized() {
		return
	}
	a.device.SetProperty(PropDeviceEnabled, false)
	if err := a.device.Destroy(); err != nil {
		a.logger.Error("Failed to destroy fiscal device", zap.Error(err))
	}
	a.logger.LogConnection("finish", true, nil)
}

// DefaultSettings returns the settings document of the device.
func (a *Atol) DefaultSettings() (string, error) {
	if err := a.prepare(); err != nil {
		return "", err
	}
	return a.device.StringProperty(PropDeviceSettings), nil
}

// LastInfo returns and clears the pending diagnostic.
func (a *Atol) LastInfo() string {
	return a.getInfo()
}

// getInfo returns the cached diagnostic, or the device result of the last
// call when nothing is cached.
func (a *Atol) getInfo() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.lastInfo != "" {
		info := a.lastInfo
		a.lastInfo = ""
		return info
	}
	return a.describeResult()
}

func (a *Atol) describeResult() string {
	code := a.device.ResultCode()
	info := fmt.Sprintf("error code %d %s", code, a.device.ResultDescription())
	if code == resultBadParam {
		info += " (" + a.device.BadParamDescription() + ")"
	}
	return info
}

// setInfo caches a diagnostic for the next getInfo.
func (a *Atol) setInfo(info string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastInfo = info
}

// fail caches info and returns it as an error.
func (a *Atol) fail(info string) error {
	a.setInfo(info)
	return errors.New(a.getInfo())
}

// check turns a non-zero result code into an error carrying the device
// diagnostic.
func (a *Atol) check(code int) error {
	if code == resultOK {
		return nil
	}
	return errors.New(a.getInfo())
}

func (a *Atol) ffdVersion() int {
	if a.ffdCached {
		return a.ffd
	}
	a.device.SetProperty(PropRegisterNumber, registerFfdVersion)
	if a.device.Call(MethodGetRegister) == resultOK {
		a.ffd = a.device.IntProperty(PropDeviceFfdVersion)
		a.ffdCached = true
	}
	return a.ffd
}

func (a *Atol) GetSerial(ctx context.Context) (model.SerialResponse, error) {
	resp := model.NewSerialResponse()

	a.device.SetProperty(PropRegisterNumber, registerSerial)
	a.device.Call(MethodGetRegister)
	serial := a.device.StringProperty(PropSerialNumber)

	if strings.TrimSpace(serial) == "" {
		resp.Set(model.CodeHandlingError, a.getInfo())
		return resp, nil
	}
	resp.Set(model.CodeSuccess, "")
	resp.Serial = serial
	return resp, nil
}

func (a *Atol) GetSessionState(ctx context.Context) (model.SessionStateResponse, error) {
	resp := model.NewSessionStateResponse()

	// registers are refreshed by reading the info line
	_ = a.device.StringProperty(PropInfoLine)

	resp.FrSessionState = model.FrSessionState{
		ShiftOpen:   model.Bool(a.device.BoolProperty(PropSessionOpened)),
		ShiftNumber: a.device.IntProperty(PropSession),
		PaperExists: model.Bool(a.device.BoolProperty(PropCheckPaperPresent)),
	}
	resp.Set(model.CodeSuccess, a.getInfo())
	return resp, nil
}

func (a *Atol) OpenShift(ctx context.Context) (model.OpenShiftResponse, error) {
	resp := model.NewOpenShiftResponse()

	a.cancelCheck()
	if err := a.setMode(ModeRegistration); err != nil {
		resp.Set(model.CodeHandlingError, err.Error())
		return resp, nil
	}
	if err := a.check(a.device.Call(MethodOpenSession)); err != nil {
		resp.Set(model.CodeHandlingError, err.Error())
		return resp, nil
	}
	resp.Set(model.CodeSuccess, a.getInfo())
	return resp, nil
}

// GetOfdStatus reads the fiscal data operator exchange register.
func (a *Atol) GetOfdStatus(ctx context.Context) (model.OfdStatusResponse, error) {
	resp := model.NewOfdStatusResponse()

	a.device.SetProperty(PropRegisterNumber, registerOfdStatus)
	if err := a.check(a.device.Call(MethodGetRegister)); err != nil {
		resp.Set(model.CodeHandlingError, err.Error())
		return resp, nil
	}

	status := model.OfdStatus{
		UnsetDocsCount: a.device.IntProperty(PropUnsentDocsCount),
		ErrorCode:      a.device.IntProperty(PropNetworkError),
		ErrorText:      a.device.StringProperty(PropNetworkErrorText),
	}
	status.IsError = status.ErrorCode != 0
	if status.UnsetDocsCount > 0 {
		if d, ok := a.firstUnsentDate(); ok {
			status.ErrorDate = d.UnixMilli()
		}
	}

	resp.OfdStatus = status
	resp.Set(model.CodeSuccess, "")
	return resp, nil
}

func (a *Atol) firstUnsentDate() (time.Time, bool) {
	raw := a.device.StringProperty(PropFirstUnsentDate)
	t, err := time.Parse(time.RFC3339, raw)
	return t, err == nil
}

// GetTaxes reads the six tax captions in programming mode.
func (a *Atol) GetTaxes(ctx context.Context) (model.TaxesResponse, error) {
	resp := model.NewTaxesResponse()

	if err := a.setMode(ModeProgramming); err != nil {
		resp.Set(model.CodeHandlingError, err.Error())
		return resp, nil
	}

	for slot := taxFirst; slot <= taxLast; slot++ {
		a.device.SetProperty(PropCaptionPurpose, taxCaptionIndex+slot)
		a.device.Call(MethodGetCaption)
		resp.Taxes = append(resp.Taxes, model.Tax{
			ID:    int64(slot),
			Title: a.device.StringProperty(PropCaption),
		})
	}
	resp.Set(model.CodeSuccess, "")
	return resp, nil
}
