package shtrih

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/protocol"
)

// Link-level control bytes.
const (
	ENQ = 0x05
	STX = 0x02
	ACK = 0x06
	NAK = 0x15
)

// Command codes. Two-byte codes are sent high byte first.
const (
	cmdShortStatus     uint16 = 0x10
	cmdPrintString     uint16 = 0x17
	cmdCut             uint16 = 0x25
	cmdFontMetrics     uint16 = 0x26
	cmdReportX         uint16 = 0x40
	cmdReportZ         uint16 = 0x41
	cmdCashIncome      uint16 = 0x50
	cmdCashOutcome     uint16 = 0x51
	cmdEndDocument     uint16 = 0x53
	cmdCancelCheck     uint16 = 0x88
	cmdOpenCheck       uint16 = 0x8D
	cmdOpenSession     uint16 = 0xE0
	cmdSendTLV         uint16 = 0xFF0C
	cmdCloseCheckExt   uint16 = 0xFF45
	cmdFNOperation     uint16 = 0xFF46
	tagCustomerContact uint16 = 1008
)

const (
	maxAttempts       = 3
	printStringLength = 40
	receiptTape       = 0x02
	defaultTimeout    = 5 * time.Second
)

var (
	errNoAnswer    = errors.New("no valid answer from device")
	errBadChecksum = errors.New("answer checksum mismatch")
)

// TransportFactory builds the link for a connection URI.
type TransportFactory func(cfg protocol.Config, logger *zap.Logger) (protocol.DeviceProtocol, error)

// WireClassic implements Classic by speaking the binary protocol directly:
// ENQ polling, STX framed commands with an XOR checksum and ACK/NAK
// acknowledgement.
type WireClassic struct {
	mu sync.Mutex

	newPort TransportFactory
	port    protocol.DeviceProtocol
	logger  *zap.Logger
	encoder *encoding.Encoder

	uri      string
	timeout  time.Duration
	password [4]byte

	fontType   int
	printWidth int
	charWidth  int

	text      string
	checkType int
	tax       int
	quantity  float64
	price     int64
	typeSign  int
	itemSign  int
	sums      [maxPaymentTypes]int64
	email     string
	customer  string
	partial   bool

	resultCode  int
	description string
}

var _ Classic = (*WireClassic)(nil)

// NewWireClassic creates a driver. A nil factory uses protocol.CreateProtocol.
func NewWireClassic(newPort TransportFactory, logger *zap.Logger) *WireClassic {
	if newPort == nil {
		newPort = protocol.CreateProtocol
	}
	w := &WireClassic{
		newPort: newPort,
		logger:  logger.With(zap.String("component", "shtrih-wire")),
		encoder: encoding.ReplaceUnsupported(charmap.Windows1251.NewEncoder()),
		timeout: defaultTimeout,
	}
	w.setPassword(defaultAdminPassword)
	return w
}

// Provider adapts NewWireClassic to a ClassicProvider.
func Provider(newPort TransportFactory) ClassicProvider {
	return func(_ Settings, logger *zap.Logger) Classic {
		return NewWireClassic(newPort, logger)
	}
}

func (w *WireClassic) SetConnectionURI(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.uri = uri
}

// ParseConnectionURI turns tcp://host:port?timeout=ms or
// serial:///dev/ttyS0?baudrate=115200 into a transport configuration.
func ParseConnectionURI(uri string) (protocol.Config, time.Duration, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return protocol.Config{}, 0, err
	}

	timeout := defaultTimeout
	if ms, err := strconv.Atoi(u.Query().Get("timeout")); err == nil && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	switch u.Scheme {
	case "tcp":
		port, err := strconv.Atoi(u.Port())
		if err != nil {
			return protocol.Config{}, 0, fmt.Errorf("invalid port in %q", uri)
		}
		return protocol.Config{
			Type: model.ConnectionTypeTCP,
			TCP: &protocol.TCPConfig{
				Host:           u.Hostname(),
				Port:           port,
				ConnectTimeout: timeout,
				ReadTimeout:    timeout,
				WriteTimeout:   timeout,
			},
		}, timeout, nil
	case "serial":
		name := u.Path
		if name == "" {
			name = u.Host
		}
		cfg := protocol.DefaultSerialConfig(name)
		if baud, err := strconv.Atoi(u.Query().Get("baudrate")); err == nil {
			cfg.BaudRate = baud
		}
		cfg.ReadTimeout = timeout
		return protocol.Config{Type: model.ConnectionTypeSerial, Serial: cfg}, timeout, nil
	default:
		return protocol.Config{}, 0, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

// Connect opens the link and waits until the device accepts commands.
func (w *WireClassic) Connect() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closePort()

	cfg, timeout, err := ParseConnectionURI(w.uri)
	if err != nil {
		return w.failWith(resultBadParam, err.Error())
	}
	w.timeout = timeout

	port, err := w.newPort(cfg, w.logger)
	if err != nil {
		return w.failWith(resultBadParam, err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := port.Open(ctx); err != nil {
		return w.linkError(err)
	}
	w.port = port

	if err := w.handshake(ctx); err != nil {
		w.closePort()
		return w.linkError(err)
	}
	return w.setResult(resultOK)
}

// handshake sends ENQ until the device answers NAK (ready). A pending ACK
// means an unread answer, which is drained and acknowledged.
func (w *WireClassic) handshake(ctx context.Context) error {
	for range maxAttempts {
		if err := w.port.Write(ctx, []byte{ENQ}); err != nil {
			return err
		}
		b, err := w.readByte(ctx)
		if err != nil {
			return err
		}
		switch b {
		case NAK:
			return nil
		case ACK:
			if _, err := w.readFrame(ctx); err != nil && !errors.Is(err, errBadChecksum) {
				return err
			}
			if err := w.port.Write(ctx, []byte{ACK}); err != nil {
				return err
			}
		}
	}
	return errNoAnswer
}

func (w *WireClassic) Disconnect() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closePort()
	return w.setResult(resultOK)
}

func (w *WireClassic) closePort() {
	if w.port == nil {
		return
	}
	if err := w.port.Close(); err != nil {
		w.logger.Debug("Close failed", zap.Error(err))
	}
	w.port = nil
}

func (w *WireClassic) SetPassword(password int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setPassword(password)
}

func (w *WireClassic) setPassword(password int) {
	binary.LittleEndian.PutUint32(w.password[:], uint32(password))
}

func (w *WireClassic) SetFontType(fontType int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fontType = fontType
}

func (w *WireClassic) GetFontMetrics() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, code := w.send(cmdFontMetrics, w.withPassword(byte(w.fontType)))
	if code != resultOK {
		return code
	}
	if len(data) < 3 {
		return w.failWith(resultBadParam, "short font metrics answer")
	}
	w.printWidth = int(binary.LittleEndian.Uint16(data[0:2]))
	w.charWidth = int(data[2])
	return code
}

func (w *WireClassic) CharWidth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.charWidth
}

func (w *WireClassic) PrintWidth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.printWidth
}

func (w *WireClassic) SetStringForPrinting(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.text = s
}

func (w *WireClassic) PrintString() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	params := make([]byte, 4+1+printStringLength)
	copy(params, w.password[:])
	params[4] = receiptTape
	copy(params[5:], w.encode(w.text))
	_, code := w.send(cmdPrintString, params)
	return code
}

func (w *WireClassic) CheckType() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.checkType
}

func (w *WireClassic) SetCheckType(checkType int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.checkType = checkType
}

func (w *WireClassic) SetTax1(tax int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tax = tax
}

func (w *WireClassic) SetQuantity(quantity float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.quantity = quantity
}

func (w *WireClassic) SetPrice(price int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.price = price
}

func (w *WireClassic) SetPaymentTypeSign(sign int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.typeSign = sign
}

func (w *WireClassic) SetPaymentItemSign(sign int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.itemSign = sign
}

// FNOperation registers a position: operation type, quantity with six
// decimals, price, sum computed by the device, tax rate, department,
// payment method, item kind and name.
func (w *WireClassic) FNOperation() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	params := make([]byte, 30, 30+128)
	copy(params, w.password[:])
	params[4] = byte(w.checkType)
	putUintLE(params[5:], uint64(math.Round(w.quantity*1e6)), 6)
	putUintLE(params[11:], uint64(w.price), 5)
	putUintLE(params[16:], 0xFFFFFFFFFF, 5)
	putUintLE(params[21:], 0xFFFFFFFFFF, 5)
	params[26] = byte(w.tax)
	params[27] = 0
	params[28] = byte(w.typeSign)
	params[29] = byte(w.itemSign)
	name := w.encode(w.text)
	if len(name) > 128 {
		name = name[:128]
	}
	params = append(params, name...)

	_, code := w.send(cmdFNOperation, params)
	return code
}

func (w *WireClassic) SetSumm(n int, sum int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n < 1 || n > maxPaymentTypes {
		return
	}
	w.sums[n-1] = sum
}

func (w *WireClassic) OpenSession() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, code := w.send(cmdOpenSession, w.withPassword())
	return code
}

func (w *WireClassic) OpenCheck() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, code := w.send(cmdOpenCheck, w.withPassword(byte(w.checkType)))
	if code == resultOK {
		w.sums = [maxPaymentTypes]int64{}
	}
	return code
}

// CloseCheck sends the extended close with all sixteen payment sums.
func (w *WireClassic) CloseCheck() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	params := make([]byte, 4+maxPaymentTypes*5+1+6*5+1)
	copy(params, w.password[:])
	for i, sum := range w.sums {
		putUintLE(params[4+i*5:], uint64(sum), 5)
	}
	_, code := w.send(cmdCloseCheckExt, params)
	if code == resultOK {
		w.sums = [maxPaymentTypes]int64{}
	}
	return code
}

func (w *WireClassic) CancelCheck() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, code := w.send(cmdCancelCheck, w.withPassword())
	return code
}

// ECRMode returns the low nibble of the mode byte from the short status.
// A failed request reports -1.
func (w *WireClassic) ECRMode() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, code := w.send(cmdShortStatus, w.withPassword())
	if code != resultOK || len(data) < 4 {
		return -1
	}
	return int(data[3] & 0x0F)
}

func (w *WireClassic) SetEmailAddress(address string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.email = address
}

func (w *WireClassic) SetCustomerEmail(email string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.customer = email
}

// FNSendCustomerEmail sends the customer contact as TLV tag 1008.
func (w *WireClassic) FNSendCustomerEmail() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	value := w.encode(w.customer)
	params := make([]byte, 8, 8+len(value))
	copy(params, w.password[:])
	binary.LittleEndian.PutUint16(params[4:], tagCustomerContact)
	binary.LittleEndian.PutUint16(params[6:], uint16(len(value)))
	params = append(params, value...)
	_, code := w.send(cmdSendTLV, params)
	return code
}

func (w *WireClassic) CashIncome() int {
	return w.cash(cmdCashIncome)
}

func (w *WireClassic) CashOutcome() int {
	return w.cash(cmdCashOutcome)
}

func (w *WireClassic) cash(cmd uint16) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	params := make([]byte, 4+5)
	copy(params, w.password[:])
	putUintLE(params[4:], uint64(w.sums[0]), 5)
	_, code := w.send(cmd, params)
	return code
}

func (w *WireClassic) PrintReportWithCleaning() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, code := w.send(cmdReportZ, w.withPassword())
	return code
}

func (w *WireClassic) PrintReportWithoutCleaning() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, code := w.send(cmdReportX, w.withPassword())
	return code
}

func (w *WireClassic) SetCutType(partial bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.partial = partial
}

func (w *WireClassic) CutCheck() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	var cutType byte
	if w.partial {
		cutType = 1
	}
	_, code := w.send(cmdCut, w.withPassword(cutType))
	return code
}

func (w *WireClassic) FinishDocument() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, code := w.send(cmdEndDocument, w.withPassword(0))
	return code
}

func (w *WireClassic) ResultCode() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resultCode
}

func (w *WireClassic) ResultCodeDescription() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.description != "" {
		return w.description
	}
	return DescribeResult(w.resultCode)
}

func (w *WireClassic) withPassword(extra ...byte) []byte {
	out := make([]byte, 0, 4+len(extra))
	out = append(out, w.password[:]...)
	return append(out, extra...)
}

func (w *WireClassic) encode(s string) []byte {
	out, err := w.encoder.Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

func (w *WireClassic) setResult(code int) int {
	w.resultCode = code
	w.description = ""
	return code
}

func (w *WireClassic) failWith(code int, description string) int {
	w.resultCode = code
	w.description = description
	return code
}

func (w *WireClassic) linkError(err error) int {
	return w.failWith(resultNoConnection, driver.Describe(err))
}

// send frames cmd with params, retries on NAK and returns the answer data
// following the error byte together with the device result code.
func (w *WireClassic) send(cmd uint16, params []byte) ([]byte, int) {
	if w.port == nil || !w.port.IsOpen() {
		return nil, w.setResult(resultNoConnection)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	frame := buildFrame(cmd, params)
	for range maxAttempts {
		if err := w.port.Write(ctx, frame); err != nil {
			return nil, w.linkError(err)
		}
		b, err := w.readByte(ctx)
		if err != nil {
			return nil, w.linkError(err)
		}
		if b != ACK {
			continue
		}

		answer, err := w.readAnswer(ctx)
		if err != nil {
			return nil, w.linkError(err)
		}
		return w.parseAnswer(cmd, answer)
	}
	return nil, w.linkError(errNoAnswer)
}

// readAnswer reads an STX frame, asking for a resend on checksum errors.
func (w *WireClassic) readAnswer(ctx context.Context) ([]byte, error) {
	for range maxAttempts {
		b, err := w.readByte(ctx)
		if err != nil {
			return nil, err
		}
		if b != STX {
			continue
		}
		answer, err := w.readFrame(ctx)
		if errors.Is(err, errBadChecksum) {
			if err := w.port.Write(ctx, []byte{NAK}); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := w.port.Write(ctx, []byte{ACK}); err != nil {
			return nil, err
		}
		return answer, nil
	}
	return nil, errNoAnswer
}

// readFrame reads length, body and checksum after STX.
func (w *WireClassic) readFrame(ctx context.Context) ([]byte, error) {
	length, err := w.readByte(ctx)
	if err != nil {
		return nil, err
	}
	body, err := w.readFull(ctx, int(length))
	if err != nil {
		return nil, err
	}
	crc, err := w.readByte(ctx)
	if err != nil {
		return nil, err
	}
	if LRC(append([]byte{length}, body...)) != crc {
		return nil, errBadChecksum
	}
	return body, nil
}

func (w *WireClassic) readByte(ctx context.Context) (byte, error) {
	b, err := w.readFull(ctx, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (w *WireClassic) readFull(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		chunk, err := w.port.Read(ctx, n-len(out))
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			time.Sleep(time.Millisecond)
			continue
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// parseAnswer skips the echoed command and splits off the error byte.
func (w *WireClassic) parseAnswer(cmd uint16, answer []byte) ([]byte, int) {
	skip := 1
	if cmd > 0xFF {
		skip = 2
	}
	if len(answer) <= skip {
		return nil, w.linkError(errNoAnswer)
	}
	code := int(answer[skip])
	return answer[skip+1:], w.setResult(code)
}

// buildFrame returns STX, length, command, params and the checksum.
func buildFrame(cmd uint16, params []byte) []byte {
	var command []byte
	if cmd > 0xFF {
		command = []byte{byte(cmd >> 8), byte(cmd)}
	} else {
		command = []byte{byte(cmd)}
	}
	body := make([]byte, 0, 1+len(command)+len(params))
	body = append(body, byte(len(command)+len(params)))
	body = append(body, command...)
	body = append(body, params...)

	frame := make([]byte, 0, len(body)+2)
	frame = append(frame, STX)
	frame = append(frame, body...)
	return append(frame, LRC(body))
}

// LRC is the XOR of buf.
func LRC(buf []byte) byte {
	var result byte
	for _, c := range buf {
		result ^= c
	}
	return result
}

// putUintLE writes v little endian into the first n bytes of dst.
func putUintLE(dst []byte, v uint64, n int) {
	for i := range n {
		dst[i] = byte(v >> (8 * i))
	}
}
