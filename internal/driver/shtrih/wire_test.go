package shtrih

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/protocol"
)

// fakeRegister answers framed commands on a Loopback.
type fakeRegister struct {
	answers  map[uint16][]byte
	commands []uint16
	frames   [][]byte
	corrupt  int
	pending  []byte
}

func newFakeRegister() *fakeRegister {
	return &fakeRegister{answers: make(map[uint16][]byte)}
}

func (f *fakeRegister) respond(frame []byte) []byte {
	switch {
	case len(frame) == 1 && frame[0] == ENQ:
		return []byte{NAK}
	case len(frame) == 1 && frame[0] == NAK:
		return f.pending
	case len(frame) == 1:
		return nil
	case frame[0] != STX:
		return nil
	}

	f.frames = append(f.frames, append([]byte(nil), frame...))
	body := frame[2 : len(frame)-1]
	var cmd uint16
	var echo []byte
	if body[0] == 0xFF {
		cmd = uint16(body[0])<<8 | uint16(body[1])
		echo = body[:2]
	} else {
		cmd = uint16(body[0])
		echo = body[:1]
	}
	f.commands = append(f.commands, cmd)

	answer := append(append([]byte(nil), echo...), f.answers[cmd]...)
	if len(f.answers[cmd]) == 0 {
		answer = append(answer, 0x00)
	}
	good := answerFrame(answer)
	f.pending = good
	if f.corrupt > 0 {
		f.corrupt--
		bad := append([]byte(nil), good...)
		bad[len(bad)-1] ^= 0xFF
		return append([]byte{ACK}, bad...)
	}
	return append([]byte{ACK}, good...)
}

func answerFrame(body []byte) []byte {
	payload := append([]byte{byte(len(body))}, body...)
	return append(append([]byte{STX}, payload...), LRC(payload))
}

func newTestWire(t *testing.T, reg *fakeRegister) (*WireClassic, *protocol.Loopback, *protocol.Config) {
	t.Helper()
	port := &protocol.Loopback{Respond: reg.respond}
	var used protocol.Config
	w := NewWireClassic(func(cfg protocol.Config, _ *zap.Logger) (protocol.DeviceProtocol, error) {
		used = cfg
		return port, nil
	}, zap.NewNop())
	w.SetConnectionURI("tcp://10.0.0.7:7778?timeout=2000&protocol=v1")
	return w, port, &used
}

func TestBuildFrame(t *testing.T) {
	frame := buildFrame(cmdShortStatus, []byte{30, 0, 0, 0})
	assert.Equal(t, []byte{STX, 0x05, 0x10, 30, 0, 0, 0, 0x0B}, frame)

	long := buildFrame(cmdFNOperation, nil)
	assert.Equal(t, []byte{STX, 0x02, 0xFF, 0x46, 0x02 ^ 0xFF ^ 0x46}, long)
}

func TestParseConnectionURI(t *testing.T) {
	cfg, timeout, err := ParseConnectionURI(DefaultSettings().ConnectionURI())
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionTypeTCP, cfg.Type)
	assert.Equal(t, "192.168.", cfg.TCP.Host)
	assert.Equal(t, 7778, cfg.TCP.Port)
	assert.Equal(t, 5*time.Second, timeout)

	cfg, _, err = ParseConnectionURI("serial:///dev/ttyS0?baudrate=9600")
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionTypeSerial, cfg.Type)
	assert.Equal(t, "/dev/ttyS0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)

	_, _, err = ParseConnectionURI("ftp://host")
	assert.Error(t, err)
}

func TestWireConnectAndStatus(t *testing.T) {
	reg := newFakeRegister()
	reg.answers[cmdShortStatus] = []byte{0x00, 30, 0x00, 0x00, 0x13, 0x00}
	w, port, cfg := newTestWire(t, reg)

	require.Equal(t, resultOK, w.Connect())
	assert.Equal(t, "10.0.0.7", cfg.TCP.Host)
	assert.Equal(t, 2*time.Second, cfg.TCP.ConnectTimeout)
	assert.True(t, port.IsOpen())

	assert.Equal(t, ModeShiftExpired, w.ECRMode())
	assert.Equal(t, []uint16{cmdShortStatus}, reg.commands)
	assert.Equal(t, byte(30), reg.frames[0][3])

	assert.Equal(t, resultOK, w.Disconnect())
	assert.False(t, port.IsOpen())
}

func TestWireFontMetrics(t *testing.T) {
	reg := newFakeRegister()
	reg.answers[cmdFontMetrics] = []byte{0x00, 0x40, 0x02, 12, 24, 7}
	w, _, _ := newTestWire(t, reg)
	require.Equal(t, resultOK, w.Connect())

	w.SetFontType(1)
	require.Equal(t, resultOK, w.GetFontMetrics())
	assert.Equal(t, 576, w.PrintWidth())
	assert.Equal(t, 12, w.CharWidth())
	assert.Equal(t, byte(1), reg.frames[0][7])
}

func TestWireDeviceError(t *testing.T) {
	reg := newFakeRegister()
	reg.answers[cmdPrintString] = []byte{errNoPaper}
	w, _, _ := newTestWire(t, reg)
	require.Equal(t, resultOK, w.Connect())

	w.SetStringForPrinting("Привет")
	assert.Equal(t, errNoPaper, w.PrintString())
	assert.Equal(t, errNoPaper, w.ResultCode())
	assert.Equal(t, "No receipt paper", w.ResultCodeDescription())

	frame := reg.frames[0]
	assert.Equal(t, byte(4+1+printStringLength+1), frame[1])
	assert.Equal(t, byte(receiptTape), frame[7])
	assert.Equal(t, []byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}, frame[8:14])
}

func TestWireTwoByteCommand(t *testing.T) {
	reg := newFakeRegister()
	w, _, _ := newTestWire(t, reg)
	require.Equal(t, resultOK, w.Connect())

	w.SetCheckType(CheckTypeAdd)
	w.SetQuantity(2)
	w.SetPrice(1050)
	w.SetTax1(4)
	w.SetStringForPrinting("Milk")
	require.Equal(t, resultOK, w.FNOperation())

	require.Equal(t, []uint16{cmdFNOperation}, reg.commands)
	params := reg.frames[0][4 : len(reg.frames[0])-1]
	assert.Equal(t, byte(CheckTypeAdd), params[4])
	assert.Equal(t, []byte{0x80, 0x84, 0x1E, 0x00, 0x00, 0x00}, params[5:11])
	assert.Equal(t, []byte{0x1A, 0x04, 0x00, 0x00, 0x00}, params[11:16])
	assert.Equal(t, byte(4), params[26])
	assert.Equal(t, "Milk", string(params[30:]))
}

func TestWireResendsOnChecksumError(t *testing.T) {
	reg := newFakeRegister()
	reg.corrupt = 1
	w, _, _ := newTestWire(t, reg)
	require.Equal(t, resultOK, w.Connect())

	assert.Equal(t, resultOK, w.OpenSession())
	assert.Equal(t, []uint16{cmdOpenSession}, reg.commands)
}

func TestWireCloseCheckSendsPaymentSums(t *testing.T) {
	reg := newFakeRegister()
	w, _, _ := newTestWire(t, reg)
	require.Equal(t, resultOK, w.Connect())

	w.SetSumm(1, 500)
	w.SetSumm(3, 0x0102)
	require.Equal(t, resultOK, w.CloseCheck())

	params := reg.frames[0][4 : len(reg.frames[0])-1]
	assert.Equal(t, []byte{0xF4, 0x01, 0, 0, 0}, params[4:9])
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0}, params[14:19])
}

func TestWireConnectFailure(t *testing.T) {
	w := NewWireClassic(func(protocol.Config, *zap.Logger) (protocol.DeviceProtocol, error) {
		return &protocol.Loopback{OpenErr: protocol.ErrConnectFailed}, nil
	}, zap.NewNop())
	w.SetConnectionURI(DefaultSettings().ConnectionURI())

	assert.Equal(t, resultNoConnection, w.Connect())
	assert.Equal(t, "host connection failure", w.ResultCodeDescription())
}

func TestWireWithoutConnection(t *testing.T) {
	w := NewWireClassic(nil, zap.NewNop())
	assert.Equal(t, resultNoConnection, w.CutCheck())
	assert.Equal(t, "No connection", w.ResultCodeDescription())
}

func TestWireBackendPrintsString(t *testing.T) {
	reg := newFakeRegister()
	reg.answers[cmdFontMetrics] = []byte{0x00, 0x40, 0x02, 12, 24, 7}
	w, _, _ := newTestWire(t, reg)

	s := New(DefaultSettings(), w, zap.NewNop())
	s.settings.Host = "10.0.0.7"
	require.NoError(t, s.Open(t.Context()))
	require.NoError(t, s.RunTask(t.Context(), model.NewTask(model.TaskString, "hello")))

	assert.Equal(t, []uint16{cmdFontMetrics, cmdPrintString}, reg.commands)
}
