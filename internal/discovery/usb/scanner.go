// Package usb lists USB receipt printers through libusb.
package usb

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/discovery"
	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/model"
)

// ErrDeviceNotFound is returned when no attached device matches.
var ErrDeviceNotFound = errors.New("usb device not found")

// Enumerator lists attached USB devices whose vendor passes filter.
type Enumerator interface {
	Devices(ctx context.Context, filter func(vendorID uint16) bool) ([]model.USBDevice, error)
}

// Config for USB scanner
type Config struct {
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
	EnableDebug bool          `mapstructure:"enable_debug"`
}

// Scanner implements USB device scanning and escpos.Locator.
type Scanner struct {
	logger       *zap.Logger
	vendors      *VendorTable
	enumerator   Enumerator
	config       *Config
}

var (
	_ discovery.DeviceScanner = (*Scanner)(nil)
	_ escpos.Locator          = (*Scanner)(nil)
)

// NewScanner creates a new USB scanner. A nil enumerator uses libusb.
func NewScanner(logger *zap.Logger, config *Config, enumerator Enumerator) *Scanner {
	if config == nil {
		config = &Config{ScanTimeout: 10 * time.Second}
	}
	if enumerator == nil {
		enumerator = &LibUSB{Debug: config.EnableDebug, logger: logger}
	}

	return &Scanner{
		logger:       logger.With(zap.String("scanner", "usb")),
		vendors:      NewVendorTable(),
		enumerator:   enumerator,
		config:       config,
	}
}

// GetScannerType returns scanner type identifier
func (s *Scanner) GetScannerType() string {
	return "usb"
}

// IsAvailable reports whether USB scanning is configured.
func (s *Scanner) IsAvailable() bool {
	return s.enumerator != nil
}

// Vendors exposes the vendor table for extension.
func (s *Scanner) Vendors() *VendorTable {
	return s.vendors
}

// Scan lists attached printers from known vendors.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	startTime := time.Now()
	s.logger.Info("Starting USB device scan")

	scanCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()

	devices, err := s.enumerator.Devices(scanCtx, s.vendors.Known)
	if err != nil {
		return nil, fmt.Errorf("device enumeration failed: %w", err)
	}

	seen := make(map[string]bool)
	discovered := make([]*discovery.DiscoveredDevice, 0, len(devices))
	for _, device := range devices {
		key := fmt.Sprintf("%04X:%04X:%s", device.VendorID, device.ProductID, device.SerialNumber)
		if seen[key] {
			s.logger.Debug("Removing duplicate device", zap.String("key", key))
			continue
		}
		seen[key] = true
		if d := s.identify(device); d != nil {
			discovered = append(discovered, d)
		}
	}

	slices.SortFunc(discovered, func(a, b *discovery.DiscoveredDevice) int {
		return cmp.Or(
			cmp.Compare(a.USB.VendorID, b.USB.VendorID),
			cmp.Compare(a.USB.ProductID, b.USB.ProductID),
		)
	})

	s.logger.Info("USB scan completed",
		zap.Int("devices_found", len(discovered)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return discovered, nil
}

func (s *Scanner) identify(device model.USBDevice) *discovery.DiscoveredDevice {
	vendor, modelName, ok := s.vendors.Identify(device)
	if !ok {
		return nil
	}

	settings := escpos.DefaultSettings()
	settings.ConnectionType = escpos.ConnectionUSB
	settings.ProductID = int(device.ProductID)
	settings.CodePage = escpos.CodePageForVendor(device.VendorID)

	device.Vendor = vendor.Name
	return &discovery.DiscoveredDevice{
		ConnectionType: model.ConnectionTypeUSB,
		Driver:         vendor.Driver,
		Vendor:         vendor.Name,
		Model:          modelName,
		Settings:       escpos.PackSettings(settings),
		Address:        fmt.Sprintf("USB-Bus%d-Port%d", device.Bus, device.Address),
		USB:            &device,
	}
}

// FindPrinter returns the first attached device from vendors with the
// given product id.
func (s *Scanner) FindPrinter(ctx context.Context, vendors []uint16, productID uint16) (model.USBDevice, error) {
	devices, err := s.enumerator.Devices(ctx, func(vendorID uint16) bool {
		return slices.Contains(vendors, vendorID)
	})
	if err != nil {
		return model.USBDevice{}, fmt.Errorf("device enumeration failed: %w", err)
	}
	for _, device := range devices {
		if device.ProductID == productID {
			return device, nil
		}
	}
	return model.USBDevice{}, fmt.Errorf("%w: product 0x%04X", ErrDeviceNotFound, productID)
}

// LibUSB enumerates devices through gousb.
type LibUSB struct {
	Debug  bool
	logger *zap.Logger
}

// Devices opens every matching device long enough to read its string
// descriptors.
func (l *LibUSB) Devices(ctx context.Context, filter func(vendorID uint16) bool) ([]model.USBDevice, error) {
	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil && l.logger != nil {
			l.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()
	if l.Debug {
		usbCtx.Debug(3)
	}

	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return filter(uint16(desc.Vendor))
	})
	defer func() {
		for _, d := range devices {
			_ = d.Close()
		}
	}()
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	result := make([]model.USBDevice, 0, len(devices))
	for _, d := range devices {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result = append(result, describe(d))
	}
	return result, nil
}

func describe(d *gousb.Device) model.USBDevice {
	device := model.USBDevice{
		VendorID:  uint16(d.Desc.Vendor),
		ProductID: uint16(d.Desc.Product),
		Bus:       d.Desc.Bus,
		Address:   d.Desc.Address,
	}
	device.Manufacturer, _ = d.Manufacturer()
	device.Product, _ = d.Product()
	device.SerialNumber, _ = d.SerialNumber()
	return device
}
