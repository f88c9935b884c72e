// Package serial lists serial ports and tells classic fiscal registers
// apart from raw printers.
package serial

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/discovery"
	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/driver/shtrih"
	"github.com/Softbalance/equipment/internal/model"
)

// Prober reports whether a classic fiscal register answers on port.
type Prober func(ctx context.Context, port string, baudRate int) bool

// Config for serial scanner
type Config struct {
	ScanTimeout  time.Duration `mapstructure:"scan_timeout"`
	BaudRate     int           `mapstructure:"baud_rate"`
	PortPatterns []string      `mapstructure:"port_patterns"`
}

// Scanner implements serial port device scanning
type Scanner struct {
	logger *zap.Logger
	config *Config
	ports  func() ([]string, error)
	probe  Prober
}

var _ discovery.DeviceScanner = (*Scanner)(nil)

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{
			ScanTimeout:  30 * time.Second,
			BaudRate:     115200,
			PortPatterns: defaultPortPatterns(),
		}
	}

	s := &Scanner{
		logger: logger.With(zap.String("scanner", "serial")),
		config: config,
		ports:  serial.GetPortsList,
	}
	s.probe = s.probeClassic
	return s
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable checks if serial scanning is available
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan lists serial ports. A port whose device answers the classic
// handshake is reported for the shtrih backend, any other for the raw
// printer.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	s.logger.Info("Starting serial port scan")

	ports, err := s.ports()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}
	ports = s.filterPorts(ports)
	if len(ports) == 0 {
		s.logger.Info("No serial ports found")
		return []*discovery.DiscoveredDevice{}, nil
	}

	scanCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()

	var discovered []*discovery.DiscoveredDevice
	for _, port := range ports {
		if err := scanCtx.Err(); err != nil {
			return discovered, err
		}
		discovered = append(discovered, s.identify(scanCtx, port))
	}

	s.logger.Info("Serial scan completed", zap.Int("devices_found", len(discovered)))
	return discovered, nil
}

func (s *Scanner) identify(ctx context.Context, port string) *discovery.DiscoveredDevice {
	if s.probe(ctx, port, s.config.BaudRate) {
		settings := shtrih.DefaultSettings()
		settings.DeviceName = port
		settings.BaudRate = s.config.BaudRate
		return &discovery.DiscoveredDevice{
			ConnectionType: model.ConnectionTypeSerial,
			Driver:         model.DriverShtrih,
			Vendor:         "Shtrih-M",
			Model:          "Classic fiscal register",
			Settings:       shtrih.PackSettings(settings),
			Address:        port,
		}
	}

	settings := escpos.DefaultSettings()
	settings.DeviceName = port
	return &discovery.DiscoveredDevice{
		ConnectionType: model.ConnectionTypeSerial,
		Driver:         model.DriverPosiflex,
		Model:          "Serial receipt printer",
		Settings:       escpos.PackSettings(settings),
		Address:        port,
	}
}

func (s *Scanner) probeClassic(ctx context.Context, port string, baudRate int) bool {
	w := shtrih.NewWireClassic(nil, s.logger)
	w.SetConnectionURI(shtrih.Settings{DeviceName: port, BaudRate: baudRate}.ConnectionURI())
	defer w.Disconnect()
	ok := w.Connect() == 0
	s.logger.Debug("Probed serial port", zap.String("port", port), zap.Bool("classic", ok))
	return ok
}

func (s *Scanner) filterPorts(ports []string) []string {
	if len(s.config.PortPatterns) == 0 {
		return ports
	}
	var filtered []string
	for _, port := range ports {
		for _, pattern := range s.config.PortPatterns {
			if ok, _ := filepath.Match(pattern, port); ok {
				filtered = append(filtered, port)
				break
			}
		}
	}
	return filtered
}

func defaultPortPatterns() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"COM*"}
	case "darwin":
		return []string{"/dev/cu.*", "/dev/tty.usb*"}
	default:
		return []string{"/dev/ttyS*", "/dev/ttyUSB*", "/dev/ttyACM*"}
	}
}
