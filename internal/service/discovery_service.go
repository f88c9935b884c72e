// internal/service/discovery_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/config"
	"github.com/Softbalance/equipment/internal/discovery"
	"github.com/Softbalance/equipment/internal/discovery/serial"
	"github.com/Softbalance/equipment/internal/discovery/tcp"
	"github.com/Softbalance/equipment/internal/discovery/usb"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/utils"
)

// ErrUnsupportedScanType is returned for an unknown scan type.
var ErrUnsupportedScanType = errors.New("unsupported scan type")

// ScanRequest selects the scanners to run.
type ScanRequest struct {
	ScanType string `json:"scan_type" form:"type"` // all, usb, serial, tcp
}

// DiscoveryService handles device discovery operations
type DiscoveryService struct {
	scannerManager *discovery.ScannerManager
	usb            *usb.Scanner
	bus            *EventBus
	logger         *utils.ServiceLogger
}

// NewDiscoveryService registers the scanners enabled in cfg. usbScanner
// may be shared with the raw printer backend as its USB locator.
func NewDiscoveryService(cfg *config.DiscoveryConfig, usbScanner *usb.Scanner, bus *EventBus, logger *zap.Logger) *DiscoveryService {
	ds := &DiscoveryService{
		scannerManager: discovery.NewScannerManager(logger),
		usb:            usbScanner,
		bus:            bus,
		logger:         utils.NewServiceLogger(logger, "discovery-service"),
	}
	ds.initializeScanners(cfg)
	return ds
}

// NewDiscoveryServiceWith uses a prepared scanner manager.
func NewDiscoveryServiceWith(manager *discovery.ScannerManager, bus *EventBus, logger *zap.Logger) *DiscoveryService {
	return &DiscoveryService{
		scannerManager: manager,
		bus:            bus,
		logger:         utils.NewServiceLogger(logger, "discovery-service"),
	}
}

func (ds *DiscoveryService) initializeScanners(cfg *config.DiscoveryConfig) {
	if cfg.USBEnabled && ds.usb != nil {
		ds.scannerManager.RegisterScanner(ds.usb)
	}

	if cfg.SerialEnabled {
		ds.scannerManager.RegisterScanner(serial.NewScanner(ds.logger.Logger, &serial.Config{
			ScanTimeout:  cfg.ScanTimeout,
			BaudRate:     cfg.BaudRate,
			PortPatterns: cfg.SerialPorts,
		}))
	}

	if cfg.TCPEnabled && len(cfg.NetworkRanges) > 0 {
		ds.scannerManager.RegisterScanner(tcp.NewScanner(ds.logger.Logger, &tcp.Config{
			ScanTimeout:   cfg.ScanTimeout,
			NetworkRanges: cfg.NetworkRanges,
			ConnTimeout:   cfg.ConnTimeout,
			MaxConcurrent: cfg.MaxConcurrent,
		}))
	}

	ds.logger.Info("Discovery scanners initialized",
		zap.Strings("available_scanners", ds.scannerManager.GetAvailableScanners()),
	)
}

// AvailableScanners lists the scanners usable on this host.
func (ds *DiscoveryService) AvailableScanners() []string {
	return ds.scannerManager.GetAvailableScanners()
}

// ScanDevices scans for available devices
func (ds *DiscoveryService) ScanDevices(ctx context.Context, req *ScanRequest) ([]*discovery.DiscoveredDevice, error) {
	scanType := req.ScanType
	if scanType == "" {
		scanType = "all"
	}
	ds.logger.Info("Starting device scan", zap.String("type", scanType))

	var devices []*discovery.DiscoveredDevice
	var err error
	switch scanType {
	case "all":
		devices, err = ds.scannerManager.ScanAll(ctx)
	case "serial", "usb", "tcp":
		devices, err = ds.scannerManager.ScanByType(ctx, scanType)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScanType, scanType)
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	for _, d := range devices {
		event := model.NewEvent(model.EventDeviceDiscovered, "discovery-service", model.JSONObject{
			"connection_type": string(d.ConnectionType),
			"vendor":          d.Vendor,
			"model":           d.Model,
			"address":         d.Address,
		})
		event.Driver = d.Driver
		ds.bus.Publish(event)
	}

	ds.logger.Info("Device scan completed",
		zap.Int("devices_found", len(devices)),
		zap.String("scan_type", scanType),
	)
	return devices, nil
}

// USBPrinters lists attached USB devices from known vendors.
func (ds *DiscoveryService) USBPrinters(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	if ds.usb == nil {
		return nil, fmt.Errorf("scanner type not found: usb")
	}
	return ds.usb.Scan(ctx)
}
