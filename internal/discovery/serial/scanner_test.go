package serial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/driver/shtrih"
	"github.com/Softbalance/equipment/internal/model"
)

func newTestScanner(ports []string, classic map[string]bool) *Scanner {
	s := NewScanner(zap.NewNop(), &Config{
		ScanTimeout:  time.Second,
		BaudRate:     9600,
		PortPatterns: []string{"/dev/ttyUSB*", "/dev/ttyS*"},
	})
	s.ports = func() ([]string, error) { return ports, nil }
	s.probe = func(ctx context.Context, port string, baud int) bool { return classic[port] }
	return s
}

func TestScanClassifiesPorts(t *testing.T) {
	s := newTestScanner([]string{"/dev/ttyS0", "/dev/ttyUSB0", "/dev/ttyAMA0"}, map[string]bool{"/dev/ttyS0": true})

	devices, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, model.DriverShtrih, devices[0].Driver)
	classic := shtrih.ExtractSettings(devices[0].Settings)
	assert.Equal(t, "/dev/ttyS0", classic.DeviceName)
	assert.Equal(t, 9600, classic.BaudRate)

	assert.Equal(t, model.DriverPosiflex, devices[1].Driver)
	assert.Equal(t, "/dev/ttyUSB0", escpos.ExtractSettings(devices[1].Settings).DeviceName)
}

func TestScanNoPorts(t *testing.T) {
	s := newTestScanner(nil, nil)
	devices, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, devices)

	s.ports = func() ([]string, error) { return nil, errors.New("no driver") }
	_, err = s.Scan(context.Background())
	assert.EqualError(t, err, "failed to get serial ports: no driver")
}
