// internal/model/device.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DriverKind selects a backend implementation.
type DriverKind string

const (
	DriverAtol        DriverKind = "atol"
	DriverPosiflex    DriverKind = "posiflex"
	DriverShtrih      DriverKind = "shtrih"
	DriverPrintServer DriverKind = "printserver"
)

// DriverKinds lists every backend kind known to the service.
func DriverKinds() []DriverKind {
	return []DriverKind{DriverAtol, DriverPosiflex, DriverShtrih, DriverPrintServer}
}

// DriverStatus is the lifecycle state of a backend instance. FINISHED is
// terminal.
type DriverStatus int

const (
	StatusNotInitialized DriverStatus = iota
	StatusInitialized
	StatusFinished
)

func (s DriverStatus) String() string {
	switch s {
	case StatusNotInitialized:
		return "NOT_INITIALIZED"
	case StatusInitialized:
		return "INITIALIZED"
	case StatusFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

func (s DriverStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *DriverStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, candidate := range []DriverStatus{StatusNotInitialized, StatusInitialized, StatusFinished} {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown driver status %q", name)
}

// ConnectionType represents how a transport reaches the device.
type ConnectionType string

const (
	ConnectionTypeSerial ConnectionType = "SERIAL"
	ConnectionTypeUSB    ConnectionType = "USB"
	ConnectionTypeTCP    ConnectionType = "TCP"
)

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// USBDevice is a USB peripheral found on the bus.
type USBDevice struct {
	VendorID     uint16 `json:"vendor_id"`
	ProductID    uint16 `json:"product_id"`
	Vendor       string `json:"vendor"`
	Bus          int    `json:"bus"`
	Address      int    `json:"address"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}
