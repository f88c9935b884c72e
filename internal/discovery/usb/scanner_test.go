package usb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/model"
)

type fakeBus struct {
	devices []model.USBDevice
	err     error
}

func (f *fakeBus) Devices(ctx context.Context, filter func(uint16) bool) ([]model.USBDevice, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.USBDevice
	for _, d := range f.devices {
		if filter(d.VendorID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func newTestScanner(devices ...model.USBDevice) *Scanner {
	return NewScanner(zap.NewNop(), nil, &fakeBus{devices: devices})
}

func TestScanKnownVendors(t *testing.T) {
	s := newTestScanner(
		model.USBDevice{VendorID: 0x04B8, ProductID: 0x0202},
		model.USBDevice{VendorID: escpos.VendorAtol, ProductID: 0x0100, Bus: 1, Address: 4},
		model.USBDevice{VendorID: escpos.VendorPosiflex, ProductID: 0x0300, Product: "PP-6900"},
		model.USBDevice{VendorID: escpos.VendorPosiflex, ProductID: 0x0300, Product: "PP-6900"},
	)
	s.Vendors().AddModel(escpos.VendorAtol, 0x0100, "RP-326")

	devices, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	posiflex := devices[0]
	assert.Equal(t, "Posiflex", posiflex.Vendor)
	assert.Equal(t, "PP-6900", posiflex.Model)
	assert.Equal(t, model.DriverPosiflex, posiflex.Driver)
	settings := escpos.ExtractSettings(posiflex.Settings)
	assert.Equal(t, escpos.ConnectionUSB, settings.ConnectionType)
	assert.Equal(t, 0x0300, settings.ProductID)
	assert.Equal(t, escpos.CodePagePosiflex, settings.CodePage)

	atol := devices[1]
	assert.Equal(t, "RP-326", atol.Model)
	assert.Equal(t, "USB-Bus1-Port4", atol.Address)
	assert.Equal(t, escpos.CodePageAtol, escpos.ExtractSettings(atol.Settings).CodePage)
}

func TestScanEnumerationFailure(t *testing.T) {
	s := NewScanner(zap.NewNop(), nil, &fakeBus{err: errors.New("access denied")})
	_, err := s.Scan(context.Background())
	assert.EqualError(t, err, "device enumeration failed: access denied")
}

func TestFindPrinter(t *testing.T) {
	s := newTestScanner(
		model.USBDevice{VendorID: escpos.VendorPosiflex, ProductID: 0x0001},
		model.USBDevice{VendorID: escpos.VendorAtol, ProductID: 0x0002},
	)

	device, err := s.FindPrinter(context.Background(), escpos.Vendors, 0x0002)
	require.NoError(t, err)
	assert.Equal(t, escpos.VendorAtol, device.VendorID)

	_, err = s.FindPrinter(context.Background(), []uint16{escpos.VendorPosiflex}, 0x0002)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
