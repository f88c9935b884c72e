// Package escpos drives Posiflex and Atol receipt printers by writing raw
// ESC/POS bytes over TCP, USB or a serial device node.
package escpos

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/protocol"
	"github.com/Softbalance/equipment/internal/utils"
)

const (
	connectTimeout = 3 * time.Second
	usbTimeout     = 5 * time.Second
	traitWidth     = 29
	dashWidth      = 30
)

// Locator finds an attached USB printer from one of vendors.
type Locator interface {
	FindPrinter(ctx context.Context, vendors []uint16, productID uint16) (model.USBDevice, error)
}

// TransportFactory builds the transport for a resolved configuration.
type TransportFactory func(cfg protocol.Config, logger *zap.Logger) (protocol.DeviceProtocol, error)

// SettlingPolicy is how long the printer is given to digest a write.
type SettlingPolicy struct {
	PerText      time.Duration
	CharsPerStep int
	Cut          time.Duration
}

// DefaultSettling returns the delays the firmware needs in practice.
func DefaultSettling() SettlingPolicy {
	return SettlingPolicy{PerText: 20 * time.Millisecond, CharsPerStep: 12, Cut: 200 * time.Millisecond}
}

func (p SettlingPolicy) forText(chars int) time.Duration {
	if p.PerText <= 0 || p.CharsPerStep <= 0 {
		return 0
	}
	return p.PerText * time.Duration(1+chars/p.CharsPerStep)
}

// Options override the collaborators of a Printer.
type Options struct {
	Locator   Locator
	Transport TransportFactory
	Settling  *SettlingPolicy
}

// Printer implements driver.Backend and driver.BatchHooks.
type Printer struct {
	driver.Lifecycle

	settings Settings
	codePage int
	locator  Locator
	newPort  TransportFactory
	settling SettlingPolicy
	encoder  *encoding.Encoder
	port     protocol.DeviceProtocol
	base     *zap.Logger
	logger   *utils.DeviceLogger
	mu       sync.Mutex
}

var (
	_ driver.Backend         = (*Printer)(nil)
	_ driver.BatchHooks      = (*Printer)(nil)
	_ driver.OfflineAnswerer = (*Printer)(nil)
)

// Factory returns a driver.Factory building printers with opts.
func Factory(opts Options) driver.Factory {
	return func(settings string, logger *zap.Logger) (driver.Backend, error) {
		return New(ExtractSettings(settings), logger, opts), nil
	}
}

// New creates a printer. Nothing is opened until Open.
func New(settings Settings, logger *zap.Logger, opts Options) *Printer {
	p := &Printer{
		settings: settings,
		codePage: settings.CodePage,
		locator:  opts.Locator,
		newPort:  opts.Transport,
		settling: DefaultSettling(),
		encoder:  encoding.ReplaceUnsupported(charmap.Windows1251.NewEncoder()),
		base:     logger,
		logger:   utils.NewDeviceLogger(logger, model.DriverPosiflex, ""),
	}
	if p.newPort == nil {
		p.newPort = protocol.CreateProtocol
	}
	if opts.Settling != nil {
		p.settling = *opts.Settling
	}
	return p
}

func (p *Printer) Kind() model.DriverKind {
	return model.DriverPosiflex
}

// CodePage returns the code page sent in the preamble.
func (p *Printer) CodePage() int {
	return p.codePage
}

// Open connects to the printer unless already connected.
func (p *Printer) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port != nil && p.port.IsOpen() {
		return nil
	}

	cfg, err := p.resolve(ctx)
	if err != nil {
		p.logger.LogConnection("resolve", false, err)
		return err
	}
	port, err := p.newPort(cfg, p.base)
	if err != nil {
		return fmt.Errorf("%w: %w", driver.ErrInitFailure, err)
	}

	openCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := port.Open(openCtx); err != nil {
		p.logger.LogConnection("open", false, err)
		return err
	}

	p.port = port
	p.SetStatus(model.StatusInitialized)
	p.logger.LogConnection("open", true, nil)
	return nil
}

func (p *Printer) resolve(ctx context.Context) (protocol.Config, error) {
	if p.settings.ConnectionType != ConnectionUSB {
		return protocol.Config{
			Type: model.ConnectionTypeTCP,
			TCP: &protocol.TCPConfig{
				Host:           p.settings.Host,
				Port:           p.settings.Port,
				ConnectTimeout: connectTimeout,
				WriteTimeout:   connectTimeout,
				ReadTimeout:    connectTimeout,
			},
		}, nil
	}

	if p.settings.DeviceName != "" {
		return protocol.Config{
			Type:   model.ConnectionTypeSerial,
			Serial: protocol.DefaultSerialConfig(p.settings.DeviceName),
		}, nil
	}

	if p.locator == nil {
		return protocol.Config{}, fmt.Errorf("%w: usb lookup is not available", driver.ErrInitFailure)
	}
	device, err := p.locator.FindPrinter(ctx, Vendors, uint16(p.settings.ProductID))
	if err != nil {
		return protocol.Config{}, fmt.Errorf("%w: %w", driver.ErrInitFailure, err)
	}
	p.codePage = CodePageForVendor(device.VendorID)

	return protocol.Config{
		Type: model.ConnectionTypeUSB,
		USB: &protocol.USBConfig{
			VendorID:  device.VendorID,
			ProductID: device.ProductID,
			Timeout:   usbTimeout,
		},
	}, nil
}

// BeginBatch selects the code page and character set.
func (p *Printer) BeginBatch(ctx context.Context) error {
	return p.write(ctx, preamble(p.codePage))
}

// EndBatch flushes the printer.
func (p *Printer) EndBatch(ctx context.Context) error {
	return p.write(ctx, postamble())
}

// RunTask prints one task. Failures carry the task type.
func (p *Printer) RunTask(ctx context.Context, task model.Task) error {
	start := time.Now()
	err := p.runTask(ctx, task)
	p.logger.LogTask(task.Type, time.Since(start), err)
	if err != nil {
		return &driver.TaskError{Task: task.Type, Err: err, Style: driver.PrefixStyle}
	}
	return nil
}

func (p *Printer) runTask(ctx context.Context, task model.Task) error {
	switch task.Type {
	case model.TaskString:
		return p.printString(ctx, task)
	case model.TaskCut:
		return p.cut(ctx)
	case model.TaskPrintHeader, model.TaskPrintFooter:
		return p.feed(ctx)
	default:
		p.logger.LogUnsupported(task.Type)
		return nil
	}
}

func (p *Printer) printString(ctx context.Context, task model.Task) error {
	text := task.Data
	marker := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(marker, "trait"):
		text = strings.Repeat("=", traitWidth)
		task = task.WithAlignment(model.AlignCenter)
	case strings.Contains(marker, "dash"):
		text = strings.Repeat("-", dashWidth)
		task = task.WithAlignment(model.AlignCenter)
	}

	encoded, err := p.encoder.Bytes([]byte(text))
	if err != nil {
		return err
	}
	if err := p.write(ctx, textLine(task.Param, encoded)); err != nil {
		return err
	}
	settle(ctx, p.settling.forText(utf8.RuneCountInString(text)))
	return nil
}

func (p *Printer) cut(ctx context.Context) error {
	if err := p.write(ctx, escPos.CutPartial); err != nil {
		return err
	}
	settle(ctx, p.settling.Cut)
	return nil
}

func (p *Printer) feed(ctx context.Context) error {
	for range p.settings.OffsetHeaderBottom {
		if err := p.printString(ctx, model.NewTask(model.TaskString, " ")); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) write(ctx context.Context, data []byte) error {
	p.mu.Lock()
	port := p.port
	p.mu.Unlock()
	if port == nil {
		return protocol.ErrNotOpen
	}
	return port.Write(ctx, data)
}

// settle waits d or until ctx is done.
func settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Finish closes the port and retires the printer, opened or not.
func (p *Printer) Finish(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.SetStatus(model.StatusFinished)
	if p.port == nil {
		return
	}
	if err := p.port.Close(); err != nil {
		p.logger.Debug("Ignoring close error", zap.Error(err))
	}
	p.port = nil
}

// AnswersOffline reports true for every auxiliary operation: the serial is
// a fixed empty answer and the rest are not supported.
func (p *Printer) AnswersOffline(driver.AuxOp) bool { return true }

// GetSerial is answered with an empty serial; raw printers have none.
func (p *Printer) GetSerial(ctx context.Context) (model.SerialResponse, error) {
	return model.NewSerialResponse(), nil
}

func (p *Printer) GetSessionState(ctx context.Context) (model.SessionStateResponse, error) {
	return model.SessionStateResponse{}, driver.ErrMethodNotSupported
}

func (p *Printer) OpenShift(ctx context.Context) (model.OpenShiftResponse, error) {
	return model.OpenShiftResponse{}, driver.ErrMethodNotSupported
}

func (p *Printer) GetOfdStatus(ctx context.Context) (model.OfdStatusResponse, error) {
	return model.OfdStatusResponse{}, driver.ErrMethodNotSupported
}

func (p *Printer) GetTaxes(ctx context.Context) (model.TaxesResponse, error) {
	return model.TaxesResponse{}, driver.ErrMethodNotSupported
}
