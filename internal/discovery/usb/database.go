package usb

import (
	"fmt"
	"sync"

	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/model"
)

// Vendor is a USB vendor whose printers one backend can drive.
type Vendor struct {
	Name   string
	Driver model.DriverKind
	models map[uint16]string
}

// VendorTable maps USB vendor ids to the backend that serves them. Only
// raw ESC printers are reachable over USB.
type VendorTable struct {
	mu      sync.RWMutex
	vendors map[uint16]*Vendor
}

func NewVendorTable() *VendorTable {
	return &VendorTable{vendors: map[uint16]*Vendor{
		escpos.VendorPosiflex: {Name: "Posiflex", Driver: model.DriverPosiflex, models: map[uint16]string{}},
		escpos.VendorAtol:     {Name: "Atol", Driver: model.DriverPosiflex, models: map[uint16]string{}},
	}}
}

// Known reports whether vendorID is served by any backend.
func (t *VendorTable) Known(vendorID uint16) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.vendors[vendorID]
	return ok
}

// AddModel names a product. Products of unknown vendors are ignored.
func (t *VendorTable) AddModel(vendorID, productID uint16, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.vendors[vendorID]; ok {
		v.models[productID] = name
	}
}

// Identify resolves a device to its vendor and a model name. The model
// falls back to the USB product string, then to the product id.
func (t *VendorTable) Identify(device model.USBDevice) (*Vendor, string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.vendors[device.VendorID]
	if !ok {
		return nil, "", false
	}
	if name, ok := v.models[device.ProductID]; ok {
		return v, name, true
	}
	if device.Product != "" {
		return v, device.Product, true
	}
	return v, fmt.Sprintf("Unknown-%04X", device.ProductID), true
}
