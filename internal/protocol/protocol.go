// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"time"

	"github.com/Softbalance/equipment/internal/model"
)

// ErrNotOpen is returned by Write and Read on a closed transport.
var ErrNotOpen = errors.New("connection not open")

// DeviceProtocol is a byte pipe to one device. Implementations serialize
// calls internally; Read returns whatever arrived within the transport's
// read timeout, possibly nothing.
type DeviceProtocol interface {
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context, maxBytes int) ([]byte, error)

	GetProtocolType() model.ConnectionType
	Stats() ProtocolStats
}

// ProtocolStats counts traffic on one transport. The zero value is ready.
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

func (s *ProtocolStats) connected(up bool) {
	s.IsConnected = up
	if up {
		s.LastActivity = time.Now()
	}
}

func (s *ProtocolStats) failed() { s.ErrorCount++ }

// wrote records a completed write that started at began. Latency is an
// exponential average with weight 1/2.
func (s *ProtocolStats) wrote(n int, began time.Time) {
	s.BytesWritten += int64(n)
	s.OperationCount++
	s.LastActivity = time.Now()
	latency := s.LastActivity.Sub(began)
	if s.AverageLatency != 0 {
		latency = (s.AverageLatency + latency) / 2
	}
	s.AverageLatency = latency
}

func (s *ProtocolStats) read(n int) {
	s.BytesRead += int64(n)
	s.OperationCount++
	s.LastActivity = time.Now()
}
