// internal/protocol/factory.go
package protocol

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
)

// Config selects a transport and carries its typed settings. Only the
// section matching Type is consulted.
type Config struct {
	Type   model.ConnectionType `json:"type"`
	Serial *SerialConfig        `json:"serial,omitempty"`
	USB    *USBConfig           `json:"usb,omitempty"`
	TCP    *TCPConfig           `json:"tcp,omitempty"`
}

var validBaudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// CreateProtocol creates a transport for the given configuration
func CreateProtocol(config Config, logger *zap.Logger) (DeviceProtocol, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	switch config.Type {
	case model.ConnectionTypeSerial:
		return NewSerialConnection(config.Serial, logger), nil
	case model.ConnectionTypeUSB:
		return NewUSBConnection(config.USB, logger), nil
	default:
		return NewTCPConnection(config.TCP, logger), nil
	}
}

// ValidateConfig validates configuration for a specific protocol type
func ValidateConfig(config Config) error {
	switch config.Type {
	case model.ConnectionTypeSerial:
		return validateSerialConfig(config.Serial)
	case model.ConnectionTypeUSB:
		return validateUSBConfig(config.USB)
	case model.ConnectionTypeTCP:
		return validateTCPConfig(config.TCP)
	default:
		return fmt.Errorf("unsupported connection type: %s", config.Type)
	}
}

func validateSerialConfig(config *SerialConfig) error {
	if config == nil || config.Port == "" {
		return fmt.Errorf("serial port is required")
	}
	for _, rate := range validBaudRates {
		if config.BaudRate == rate {
			return nil
		}
	}
	return fmt.Errorf("invalid baud rate: %d", config.BaudRate)
}

func validateUSBConfig(config *USBConfig) error {
	if config == nil || config.VendorID == 0 {
		return fmt.Errorf("USB vendor id is required")
	}
	return nil
}

func validateTCPConfig(config *TCPConfig) error {
	if config == nil || config.Host == "" {
		return fmt.Errorf("TCP host is required")
	}
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Port)
	}
	return nil
}
