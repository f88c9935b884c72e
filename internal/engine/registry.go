package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionConflict = errors.New("session exists with another driver")
)

// Session is a named engine kept alive between batches.
type Session struct {
	Name      string
	Kind      model.DriverKind
	CreatedAt time.Time
	*Engine
}

// SessionInfo describes a session for listings.
type SessionInfo struct {
	Name      string             `json:"name"`
	Driver    model.DriverKind   `json:"driver"`
	Status    model.DriverStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

func (s *Session) Info() SessionInfo {
	return SessionInfo{
		Name:      s.Name,
		Driver:    s.Kind,
		Status:    s.Backend().Status(),
		CreatedAt: s.CreatedAt,
	}
}

// Registry owns the named sessions so that one logical device never gets
// two backend instances.
type Registry struct {
	drivers  *driver.Registry
	sessions map[string]*Session
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewRegistry(drivers *driver.Registry, logger *zap.Logger) *Registry {
	return &Registry{
		drivers:  drivers,
		sessions: make(map[string]*Session),
		logger:   logger.With(zap.String("component", "session-registry")),
	}
}

// Create returns the live session name, creating it when absent or
// finished. The second result reports whether a new session was built.
func (r *Registry) Create(name string, kind model.DriverKind, settings string) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[name]; ok && s.Backend().Status() != model.StatusFinished {
		if s.Kind != kind {
			return nil, false, fmt.Errorf("%w: %s is %s", ErrSessionConflict, name, s.Kind)
		}
		return s, false, nil
	}

	backend, err := r.drivers.Create(kind, settings)
	if err != nil {
		return nil, false, err
	}
	s := &Session{
		Name:      name,
		Kind:      kind,
		CreatedAt: time.Now(),
		Engine:    New(backend, r.logger.With(zap.String("session", name))),
	}
	r.sessions[name] = s
	r.logger.Info("Session created", zap.String("session", name), zap.String("driver", string(kind)))
	return s, true, nil
}

func (r *Registry) Lookup(name string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}
	return s, nil
}

// Dispose finishes the backend and forgets the session.
func (r *Registry) Dispose(ctx context.Context, name string) error {
	r.mu.Lock()
	s, ok := r.sessions[name]
	delete(r.sessions, name)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}
	s.Finish(ctx)
	r.logger.Info("Session disposed", zap.String("session", name))
	return nil
}

// DisposeAll finishes every session.
func (r *Registry) DisposeAll(ctx context.Context) {
	for _, info := range r.List() {
		_ = r.Dispose(ctx, info.Name)
	}
}

// List returns the sessions ordered by name.
func (r *Registry) List() []SessionInfo {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
