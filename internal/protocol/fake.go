// internal/protocol/fake.go
package protocol

import (
	"context"
	"sync"
	"time"

	"github.com/Softbalance/equipment/internal/model"
)

// Loopback is an in-memory DeviceProtocol. Written bytes are kept for
// inspection and Respond, when set, produces the bytes later returned by Read.
type Loopback struct {
	mu      sync.Mutex
	open    bool
	written []byte
	pending []byte
	stats   ProtocolStats

	OpenErr  error
	WriteErr error
	Respond  func(frame []byte) []byte
}

func (l *Loopback) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.OpenErr != nil {
		return l.OpenErr
	}
	l.open = true
	l.stats.connected(true)
	return nil
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = false
	l.stats.connected(false)
	return nil
}

func (l *Loopback) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

func (l *Loopback) Write(ctx context.Context, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return ErrNotOpen
	}
	if l.WriteErr != nil {
		l.stats.failed()
		return l.WriteErr
	}
	l.written = append(l.written, data...)
	l.stats.wrote(len(data), time.Now())
	if l.Respond != nil {
		l.pending = append(l.pending, l.Respond(data)...)
	}
	return nil
}

func (l *Loopback) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := min(maxBytes, len(l.pending))
	out := append([]byte(nil), l.pending[:n]...)
	l.pending = l.pending[n:]
	l.stats.read(n)
	return out, nil
}

func (l *Loopback) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeTCP
}

func (l *Loopback) Stats() ProtocolStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Written returns a copy of everything written so far.
func (l *Loopback) Written() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.written...)
}

// Reset forgets the written bytes.
func (l *Loopback) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.written = nil
}
