package protocol

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
)

func TestTCPConnectionRoundTrip(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 16)
		n, _ := conn.Read(buf)
		received <- buf[:n]
		conn.Write([]byte{0x06})
	}()

	addr := listener.Addr().(*net.TCPAddr)
	conn := NewTCPConnection(&TCPConfig{
		Host:           "127.0.0.1",
		Port:           addr.Port,
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
	}, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, conn.Open(ctx))
	assert.True(t, conn.IsOpen())

	require.NoError(t, conn.Write(ctx, []byte{0x1B, 0x40}))
	assert.Equal(t, []byte{0x1B, 0x40}, <-received)

	answer, err := conn.Read(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06}, answer)

	stats := conn.Stats()
	assert.Equal(t, int64(2), stats.BytesWritten)
	assert.Equal(t, int64(1), stats.BytesRead)

	require.NoError(t, conn.Close())
	assert.False(t, conn.IsOpen())
	assert.ErrorIs(t, conn.Write(ctx, []byte{0}), ErrNotOpen)
}

func TestTCPConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	conn := NewTCPConnection(&TCPConfig{Host: "127.0.0.1", Port: port, ConnectTimeout: time.Second}, zap.NewNop())
	err = conn.Open(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectFailed)
	assert.Contains(t, err.Error(), net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"tcp ok", Config{Type: model.ConnectionTypeTCP, TCP: &TCPConfig{Host: "10.0.0.1", Port: 9100}}, false},
		{"tcp no host", Config{Type: model.ConnectionTypeTCP, TCP: &TCPConfig{Port: 9100}}, true},
		{"tcp bad port", Config{Type: model.ConnectionTypeTCP, TCP: &TCPConfig{Host: "h", Port: 70000}}, true},
		{"serial ok", Config{Type: model.ConnectionTypeSerial, Serial: DefaultSerialConfig("/dev/ttyACM0")}, false},
		{"serial bad baud", Config{Type: model.ConnectionTypeSerial, Serial: &SerialConfig{Port: "COM3", BaudRate: 1000}}, true},
		{"usb ok", Config{Type: model.ConnectionTypeUSB, USB: &USBConfig{VendorID: 0x0D3A}}, false},
		{"usb missing", Config{Type: model.ConnectionTypeUSB}, true},
		{"unknown", Config{Type: "BLUETOOTH"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateProtocolPicksTransport(t *testing.T) {
	p, err := CreateProtocol(Config{Type: model.ConnectionTypeSerial, Serial: DefaultSerialConfig("COM7")}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionTypeSerial, p.GetProtocolType())

	p, err = CreateProtocol(Config{Type: model.ConnectionTypeTCP, TCP: &TCPConfig{Host: "h", Port: 1}}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionTypeTCP, p.GetProtocolType())
}

func TestLoopbackResponds(t *testing.T) {
	l := &Loopback{Respond: func(frame []byte) []byte { return []byte{0x06} }}
	ctx := context.Background()

	assert.ErrorIs(t, l.Write(ctx, []byte{1}), ErrNotOpen)
	require.NoError(t, l.Open(ctx))
	require.NoError(t, l.Write(ctx, []byte{1, 2}))

	got, err := l.Read(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06}, got)
	assert.Equal(t, []byte{1, 2}, l.Written())
}
