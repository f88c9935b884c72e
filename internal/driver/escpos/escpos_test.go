package escpos

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/engine"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/protocol"
)

type stubLocator struct {
	device model.USBDevice
	err    error
	asked  []uint16
}

func (s *stubLocator) FindPrinter(ctx context.Context, vendors []uint16, productID uint16) (model.USBDevice, error) {
	s.asked = vendors
	return s.device, s.err
}

func newTestPrinter(t *testing.T, settings Settings, locator Locator) (*Printer, *protocol.Loopback, *protocol.Config) {
	t.Helper()
	port := &protocol.Loopback{}
	var used protocol.Config
	p := New(settings, zap.NewNop(), Options{
		Locator: locator,
		Transport: func(cfg protocol.Config, _ *zap.Logger) (protocol.DeviceProtocol, error) {
			used = cfg
			return port, nil
		},
		Settling: &SettlingPolicy{},
	})
	return p, port, &used
}

func TestNetworkBatchBytes(t *testing.T) {
	p, port, cfg := newTestPrinter(t, DefaultSettings(), nil)
	ctx := context.Background()

	require.NoError(t, p.Open(ctx))
	assert.Equal(t, model.ConnectionTypeTCP, cfg.Type)
	assert.Equal(t, 9100, cfg.TCP.Port)
	assert.Equal(t, model.StatusInitialized, p.Status())

	require.NoError(t, p.BeginBatch(ctx))
	require.NoError(t, p.RunTask(ctx, model.NewTask(model.TaskString, "AB")))
	require.NoError(t, p.RunTask(ctx, model.NewTask(model.TaskCut, "")))
	require.NoError(t, p.EndBatch(ctx))

	want := []byte{
		0x1B, 0x74, 28, 0x1B, 0x52, 0x00,
		0x1B, 0x21, 0x00, 0x1B, 0x61, 0x00, 'A', 'B', 0x0A,
		0x1D, 0x56, 0x01,
		0x1D, 0x61, 0x00,
	}
	assert.Equal(t, want, port.Written())
}

func TestStringFontAndAlignment(t *testing.T) {
	p, port, _ := newTestPrinter(t, DefaultSettings(), nil)
	ctx := context.Background()
	require.NoError(t, p.Open(ctx))

	task := model.NewTask(model.TaskString, "Привет").WithAlignment(model.AlignRight)
	task.Param.Bold = model.NewBool(true)
	task.Param.DoubleHeight = model.NewBool(true)
	task.Param.Underline = model.NewBool(true)
	require.NoError(t, p.RunTask(ctx, task))

	want := []byte{0x1B, 0x21, 0xA8, 0x1B, 0x61, 0x02, 0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2, 0x0A}
	assert.Equal(t, want, port.Written())
}

func TestTraitAndDashAreCentered(t *testing.T) {
	p, port, _ := newTestPrinter(t, DefaultSettings(), nil)
	ctx := context.Background()
	require.NoError(t, p.Open(ctx))

	tests := []struct {
		data  string
		fill  byte
		width int
	}{
		{"trait", '=', 29},
		{"   TRAIT  ", '=', 29},
		{"Trait line", '=', 29},
		{"dash", '-', 30},
		{"some dash", '-', 30},
		{" DASH ", '-', 30},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			port.Reset()
			require.NoError(t, p.RunTask(ctx, model.NewTask(model.TaskString, tt.data)))
			out := port.Written()
			require.Len(t, out, 6+tt.width+1)
			assert.Equal(t, byte(0x01), out[5])
			assert.Equal(t, bytes.Repeat([]byte{tt.fill}, tt.width), out[6:6+tt.width])
		})
	}
}

func TestHeaderPrintsOffsetLines(t *testing.T) {
	settings := DefaultSettings()
	settings.OffsetHeaderBottom = 2
	p, port, _ := newTestPrinter(t, settings, nil)
	ctx := context.Background()
	require.NoError(t, p.Open(ctx))

	require.NoError(t, p.RunTask(ctx, model.NewTask(model.TaskPrintHeader, "")))
	line := []byte{0x1B, 0x21, 0x00, 0x1B, 0x61, 0x00, ' ', 0x0A}
	assert.Equal(t, append(append([]byte{}, line...), line...), port.Written())
}

func TestUnsupportedTaskIsIgnored(t *testing.T) {
	p, port, _ := newTestPrinter(t, DefaultSettings(), nil)
	ctx := context.Background()
	require.NoError(t, p.Open(ctx))

	require.NoError(t, p.RunTask(ctx, model.NewTask(model.TaskRegistration, "")))
	assert.Empty(t, port.Written())
}

func TestWriteFailureNamesTask(t *testing.T) {
	p, port, _ := newTestPrinter(t, DefaultSettings(), nil)
	ctx := context.Background()
	require.NoError(t, p.Open(ctx))
	port.WriteErr = errors.New("broken pipe")

	err := p.RunTask(ctx, model.NewTask(model.TaskCut, ""))
	require.Error(t, err)

	var taskErr *driver.TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, model.TaskCut, taskErr.Task)
	assert.Contains(t, err.Error(), "Failed to execute task Cut.")
}

func TestUSBVendorSelectsCodePage(t *testing.T) {
	settings := DefaultSettings()
	settings.ConnectionType = ConnectionUSB
	settings.ProductID = 0x1234
	locator := &stubLocator{device: model.USBDevice{VendorID: VendorAtol, ProductID: 0x1234}}
	p, port, cfg := newTestPrinter(t, settings, locator)
	ctx := context.Background()

	require.NoError(t, p.Open(ctx))
	assert.Equal(t, Vendors, locator.asked)
	assert.Equal(t, model.ConnectionTypeUSB, cfg.Type)
	assert.Equal(t, VendorAtol, cfg.USB.VendorID)
	assert.Equal(t, CodePageAtol, p.CodePage())

	require.NoError(t, p.BeginBatch(ctx))
	assert.Equal(t, []byte{0x1B, 0x74, 6, 0x1B, 0x52, 0x00}, port.Written())
}

func TestUSBPrinterNotFound(t *testing.T) {
	settings := DefaultSettings()
	settings.ConnectionType = ConnectionUSB
	p, _, _ := newTestPrinter(t, settings, &stubLocator{err: errors.New("no printer")})

	err := p.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, driver.ErrInitFailure)
	assert.Equal(t, model.StatusNotInitialized, p.Status())

	p.Finish(context.Background())
	assert.Equal(t, model.StatusFinished, p.Status())
}

func TestUSBDeviceNameUsesSerial(t *testing.T) {
	settings := DefaultSettings()
	settings.ConnectionType = ConnectionUSB
	settings.DeviceName = "/dev/ttyACM0"
	p, _, cfg := newTestPrinter(t, settings, nil)

	require.NoError(t, p.Open(context.Background()))
	assert.Equal(t, model.ConnectionTypeSerial, cfg.Type)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
}

func TestOpenFailureIsReturned(t *testing.T) {
	p := New(DefaultSettings(), zap.NewNop(), Options{
		Transport: func(protocol.Config, *zap.Logger) (protocol.DeviceProtocol, error) {
			return &protocol.Loopback{OpenErr: protocol.ErrConnectFailed}, nil
		},
	})
	err := p.Open(context.Background())
	assert.ErrorIs(t, err, protocol.ErrConnectFailed)
	assert.Equal(t, "host connection failure", driver.Describe(err))
}

func TestFinishClosesPort(t *testing.T) {
	p, port, _ := newTestPrinter(t, DefaultSettings(), nil)
	ctx := context.Background()
	require.NoError(t, p.Open(ctx))

	p.Finish(ctx)
	assert.False(t, port.IsOpen())
	assert.Equal(t, model.StatusFinished, p.Status())

	p.Finish(ctx)
	assert.Equal(t, model.StatusFinished, p.Status())
}

func TestAuxiliaryOperations(t *testing.T) {
	p, _, _ := newTestPrinter(t, DefaultSettings(), nil)
	ctx := context.Background()

	serial, err := p.GetSerial(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CodeHandlingError, serial.ResultCode)
	assert.Empty(t, serial.Serial)

	_, err = p.GetSessionState(ctx)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)
	_, err = p.OpenShift(ctx)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)
	_, err = p.GetOfdStatus(ctx)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)
	_, err = p.GetTaxes(ctx)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)
}

func TestExtractSettings(t *testing.T) {
	s := ExtractSettings(`{"connectionType":2,"productId":7,"host":"10.0.0.5","port":9101,"offsetHeaderBottom":3}`)
	assert.Equal(t, ConnectionUSB, s.ConnectionType)
	assert.Equal(t, 7, s.ProductID)
	assert.Equal(t, "10.0.0.5", s.Host)
	assert.Equal(t, 9101, s.Port)
	assert.Equal(t, CodePagePosiflex, s.CodePage)
	assert.Equal(t, 3, s.OffsetHeaderBottom)

	assert.Equal(t, DefaultSettings(), ExtractSettings("not json"))
	assert.Equal(t, ConnectionNetwork, ExtractSettings(`{"connectionType":"9"}`).ConnectionType)

	packed := PackSettings(s)
	assert.Equal(t, s, ExtractSettings(packed))
}

func TestSettlingPolicy(t *testing.T) {
	p := DefaultSettling()
	assert.Equal(t, p.PerText, p.forText(0))
	assert.Equal(t, 2*p.PerText, p.forText(12))
	assert.Equal(t, 3*p.PerText, p.forText(25))
	assert.Zero(t, SettlingPolicy{}.forText(100))
}

func TestSerialDoesNotDial(t *testing.T) {
	dials := 0
	p := New(DefaultSettings(), zap.NewNop(), Options{
		Transport: func(protocol.Config, *zap.Logger) (protocol.DeviceProtocol, error) {
			dials++
			return &protocol.Loopback{}, nil
		},
	})
	e := engine.New(p, zap.NewNop())

	serial, err := e.GetSerial(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, serial.Serial)

	_, err = e.GetTaxes(context.Background(), true)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)
	assert.Zero(t, dials)
	assert.Equal(t, model.StatusFinished, p.Status())
}
