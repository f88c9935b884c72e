// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
)

// USBConnection implements DeviceProtocol for USB printer-class devices
type USBConnection struct {
	config   *USBConfig
	ctx      *gousb.Context
	device   *gousb.Device
	intf     *gousb.Interface
	done     func()
	outEndpt *gousb.OutEndpoint
	inEndpt  *gousb.InEndpoint
	logger   *zap.Logger
	mutex    sync.Mutex
	isOpen   bool
	stats    ProtocolStats
}

// NewUSBConnection creates a new USB connection
func NewUSBConnection(config *USBConfig, logger *zap.Logger) *USBConnection {
	return &USBConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "usb"),
			zap.String("vendor_id", fmt.Sprintf("%04x", config.VendorID)),
			zap.String("product_id", fmt.Sprintf("%04x", config.ProductID)),
		),
	}
}

// Open opens the USB connection
func (uc *USBConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}

	uc.logger.Debug("Opening USB connection")

	uc.ctx = gousb.NewContext()

	device, err := uc.ctx.OpenDeviceWithVIDPID(gousb.ID(uc.config.VendorID), gousb.ID(uc.config.ProductID))
	if err != nil {
		uc.release()
		return fmt.Errorf("%w to USB device: %w", ErrConnectFailed, err)
	}
	if device == nil {
		uc.release()
		return fmt.Errorf("%w: USB device %04x:%04x not found", ErrConnectFailed, uc.config.VendorID, uc.config.ProductID)
	}
	uc.device = device
	device.SetAutoDetach(true)

	intf, done, err := device.DefaultInterface()
	if err != nil {
		uc.release()
		return fmt.Errorf("%w: failed to claim interface: %w", ErrConnectFailed, err)
	}
	uc.intf = intf
	uc.done = done

	outNum, inNum := uc.endpoints(intf)
	outEndpt, err := intf.OutEndpoint(outNum)
	if err != nil {
		uc.release()
		return fmt.Errorf("%w: failed to get out endpoint: %w", ErrConnectFailed, err)
	}
	uc.outEndpt = outEndpt

	if inNum > 0 {
		if inEndpt, err := intf.InEndpoint(inNum); err == nil {
			uc.inEndpt = inEndpt
		} else {
			uc.logger.Debug("No in endpoint found", zap.Error(err))
		}
	}

	uc.isOpen = true
	uc.stats.connected(true)

	uc.logger.Info("USB connection opened")
	return nil
}

// endpoints picks the configured out endpoint, or the first bulk endpoint
// of each direction.
func (uc *USBConnection) endpoints(intf *gousb.Interface) (out, in int) {
	for _, desc := range intf.Setting.Endpoints {
		if desc.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if desc.Direction == gousb.EndpointDirectionOut && out == 0 {
			out = desc.Number
		}
		if desc.Direction == gousb.EndpointDirectionIn && in == 0 {
			in = desc.Number
		}
	}
	if uc.config.Endpoint > 0 {
		out = uc.config.Endpoint
	}
	if out == 0 {
		out = 1
	}
	return out, in
}

func (uc *USBConnection) release() {
	if uc.done != nil {
		uc.done()
		uc.done = nil
	}
	uc.intf = nil
	if uc.device != nil {
		uc.device.Close()
		uc.device = nil
	}
	if uc.ctx != nil {
		uc.ctx.Close()
		uc.ctx = nil
	}
	uc.outEndpt = nil
	uc.inEndpt = nil
}

// Close closes the USB connection
func (uc *USBConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen {
		return nil
	}

	uc.release()
	uc.isOpen = false
	uc.stats.connected(false)

	uc.logger.Info("USB connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (uc *USBConnection) IsOpen() bool {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()
	return uc.isOpen && uc.outEndpt != nil
}

// Write writes data to the USB out endpoint
func (uc *USBConnection) Write(ctx context.Context, data []byte) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen || uc.outEndpt == nil {
		return ErrNotOpen
	}

	if uc.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.config.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	n, err := uc.outEndpt.WriteContext(ctx, data)
	if err != nil {
		uc.stats.failed()
		return fmt.Errorf("failed to write to USB device: %w", err)
	}
	if n != len(data) {
		uc.stats.failed()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	uc.stats.wrote(n, startTime)
	return nil
}

// Read reads from the USB in endpoint
func (uc *USBConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen || uc.inEndpt == nil {
		return nil, ErrNotOpen
	}

	if uc.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.config.Timeout)
		defer cancel()
	}

	buffer := make([]byte, maxBytes)
	n, err := uc.inEndpt.ReadContext(ctx, buffer)
	if err != nil {
		uc.stats.failed()
		return nil, fmt.Errorf("failed to read from USB device: %w", err)
	}

	uc.stats.read(n)
	return buffer[:n], nil
}

// GetProtocolType returns the protocol type
func (uc *USBConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeUSB
}

func (uc *USBConnection) Stats() ProtocolStats {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()
	return uc.stats
}
