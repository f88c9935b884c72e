package escpos

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ConnectionType is serialized as "1" (network) or "2" (USB).
type ConnectionType string

const (
	ConnectionNetwork ConnectionType = "1"
	ConnectionUSB     ConnectionType = "2"
)

func (c *ConnectionType) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	switch strings.ToUpper(raw) {
	case "2", "USB":
		*c = ConnectionUSB
	default:
		*c = ConnectionNetwork
	}
	return nil
}

func (c ConnectionType) String() string {
	if c == ConnectionUSB {
		return "USB"
	}
	return "NETWORK"
}

// Code pages selecting Windows-1251 on each vendor's firmware.
const (
	CodePageAtol     = 6
	CodePagePosiflex = 28
)

// USB vendor ids of supported printers.
const (
	VendorPosiflex uint16 = 0x0D3A
	VendorAtol     uint16 = 4070
)

// Vendors lists the USB vendors accepted when locating a printer.
var Vendors = []uint16{VendorPosiflex, VendorAtol}

// Settings configures the raw printer backend.
type Settings struct {
	ConnectionType     ConnectionType `json:"connectionType"`
	ProductID          int            `json:"productId"`
	DeviceName         string         `json:"deviceName"`
	Host               string         `json:"host"`
	Port               int            `json:"port"`
	CodePage           int            `json:"codePage"`
	OffsetHeaderBottom int            `json:"offsetHeaderBottom"`
}

// DefaultSettings returns the settings used when none are supplied.
func DefaultSettings() Settings {
	return Settings{
		ConnectionType: ConnectionNetwork,
		Host:           "192.168.",
		Port:           9100,
		CodePage:       CodePagePosiflex,
	}
}

// ExtractSettings parses s over the defaults. Malformed input yields the
// defaults.
func ExtractSettings(s string) Settings {
	settings := DefaultSettings()
	if err := json.Unmarshal([]byte(s), &settings); err != nil {
		return DefaultSettings()
	}
	return settings
}

// PackSettings serializes settings.
func PackSettings(settings Settings) string {
	data, _ := json.Marshal(settings)
	return string(data)
}

// Address returns host:port for network printers.
func (s Settings) Address() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// CodePageForVendor maps a USB vendor to its Windows-1251 code page.
func CodePageForVendor(vendor uint16) int {
	if vendor == VendorAtol {
		return CodePageAtol
	}
	return CodePagePosiflex
}
