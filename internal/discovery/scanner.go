// Package discovery finds attached and reachable POS devices and turns
// them into ready-to-use backend settings.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
)

// DeviceScanner finds devices on one transport.
type DeviceScanner interface {
	Scan(ctx context.Context) ([]*DiscoveredDevice, error)
	GetScannerType() string
	IsAvailable() bool
}

// DiscoveredDevice is a device together with the settings a backend of
// Driver needs to reach it.
type DiscoveredDevice struct {
	ConnectionType model.ConnectionType `json:"connection_type"`
	Driver         model.DriverKind     `json:"driver"`
	Vendor         string               `json:"vendor"`
	Model          string               `json:"model"`
	Settings       string               `json:"settings"`
	Address        string               `json:"address,omitempty"`
	USB            *model.USBDevice     `json:"usb,omitempty"`
}

// ScannerManager fans a scan out to every registered transport.
type ScannerManager struct {
	mu       sync.RWMutex
	scanners map[string]DeviceScanner
	logger   *zap.Logger
}

func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{scanners: map[string]DeviceScanner{}, logger: logger}
}

// RegisterScanner adds scanner, replacing any scanner of the same type.
func (sm *ScannerManager) RegisterScanner(scanner DeviceScanner) {
	sm.mu.Lock()
	sm.scanners[scanner.GetScannerType()] = scanner
	sm.mu.Unlock()
	sm.logger.Debug("Scanner registered", zap.String("type", scanner.GetScannerType()))
}

// ScanAll runs every available scanner in parallel. A failing scanner is
// logged and skipped. Results keep scanner type order, and a device seen
// by two transports with the same settings is reported once.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]*DiscoveredDevice, error) {
	types := sm.GetAvailableScanners()
	found := make([][]*DiscoveredDevice, len(types))

	var wg sync.WaitGroup
	for i, scannerType := range types {
		scanner := sm.get(scannerType)
		wg.Add(1)
		go func() {
			defer wg.Done()
			devices, err := scanner.Scan(ctx)
			if err != nil {
				sm.logger.Warn("Scanner failed", zap.String("type", scannerType), zap.Error(err))
				return
			}
			sm.logger.Info("Scanner completed", zap.String("type", scannerType), zap.Int("devices_found", len(devices)))
			found[i] = devices
		}()
	}
	wg.Wait()

	var all []*DiscoveredDevice
	seen := map[string]bool{}
	for _, devices := range found {
		for _, d := range devices {
			if d.Settings != "" && seen[d.Settings] {
				continue
			}
			seen[d.Settings] = true
			all = append(all, d)
		}
	}
	return all, nil
}

// ScanByType runs a single scanner.
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*DiscoveredDevice, error) {
	scanner := sm.get(scannerType)
	switch {
	case scanner == nil:
		return nil, fmt.Errorf("scanner type not found: %s", scannerType)
	case !scanner.IsAvailable():
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}
	return scanner.Scan(ctx)
}

// GetAvailableScanners lists the usable scanner types, sorted.
func (sm *ScannerManager) GetAvailableScanners() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	available := make([]string, 0, len(sm.scanners))
	for t, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, t)
		}
	}
	sort.Strings(available)
	return available
}

func (sm *ScannerManager) get(scannerType string) DeviceScanner {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.scanners[scannerType]
}
