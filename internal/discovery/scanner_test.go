package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
)

type stubScanner struct {
	kind      string
	available bool
	devices   []*DiscoveredDevice
	err       error
}

func (s stubScanner) Scan(ctx context.Context) ([]*DiscoveredDevice, error) {
	return s.devices, s.err
}

func (s stubScanner) GetScannerType() string { return s.kind }
func (s stubScanner) IsAvailable() bool      { return s.available }

func TestScanAllSkipsUnavailableAndFailing(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(stubScanner{kind: "usb", available: true, devices: []*DiscoveredDevice{{Driver: model.DriverPosiflex}}})
	sm.RegisterScanner(stubScanner{kind: "serial", available: false, devices: []*DiscoveredDevice{{Driver: model.DriverShtrih}}})
	sm.RegisterScanner(stubScanner{kind: "tcp", available: true, err: errors.New("boom")})

	devices, err := sm.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, model.DriverPosiflex, devices[0].Driver)

	assert.Equal(t, []string{"tcp", "usb"}, sm.GetAvailableScanners())
}

func TestScanByType(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	sm.RegisterScanner(stubScanner{kind: "serial", available: false})

	_, err := sm.ScanByType(context.Background(), "usb")
	assert.EqualError(t, err, "scanner type not found: usb")

	_, err = sm.ScanByType(context.Background(), "serial")
	assert.EqualError(t, err, "scanner not available: serial")
}

func TestScanAllDropsDuplicateSettings(t *testing.T) {
	sm := NewScannerManager(zap.NewNop())
	shared := `{"type":"posiflex","connection":"usb"}`
	sm.RegisterScanner(stubScanner{kind: "usb", available: true, devices: []*DiscoveredDevice{
		{Driver: model.DriverPosiflex, ConnectionType: model.ConnectionTypeUSB, Settings: shared},
	}})
	sm.RegisterScanner(stubScanner{kind: "serial", available: true, devices: []*DiscoveredDevice{
		{Driver: model.DriverPosiflex, ConnectionType: model.ConnectionTypeSerial, Settings: shared},
		{Driver: model.DriverShtrih, ConnectionType: model.ConnectionTypeSerial, Settings: `{"port":"/dev/ttyS0"}`},
	}})

	devices, err := sm.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	// serial sorts before usb, so its copy wins
	assert.Equal(t, model.ConnectionTypeSerial, devices[0].ConnectionType)
	assert.Equal(t, model.DriverShtrih, devices[1].Driver)
}
