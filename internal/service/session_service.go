// internal/service/session_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/catalog"
	"github.com/Softbalance/equipment/internal/engine"
	"github.com/Softbalance/equipment/internal/metrics"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/utils"
)

// CreateSessionRequest names a backend to keep open between batches.
// Either Driver with Settings or a compressed SettingsZip is required.
type CreateSessionRequest struct {
	Name        string           `json:"name" binding:"required,max=64"`
	Driver      model.DriverKind `json:"driver"`
	Settings    string           `json:"settings"`
	SettingsZip string           `json:"settingsZip"`
}

// SessionExecuteRequest is a batch for a named session.
type SessionExecuteRequest struct {
	Tasks  []model.Task `json:"taskTable"`
	Finish bool         `json:"finishAfterExecute"`
}

// SessionService manages named sessions
type SessionService struct {
	sessions   *engine.Registry
	catalog    *catalog.Catalog
	executions *ExecutionService
	bus        *EventBus
	metrics    *metrics.Metrics
	audit      *utils.AuditLogger
	logger     *utils.ServiceLogger
}

// NewSessionService creates a new session service instance
func NewSessionService(
	sessions *engine.Registry,
	catalog *catalog.Catalog,
	executions *ExecutionService,
	bus *EventBus,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions:   sessions,
		catalog:    catalog,
		executions: executions,
		bus:        bus,
		metrics:    metrics,
		audit:      utils.NewAuditLogger(logger),
		logger:     utils.NewServiceLogger(logger, "session-service"),
	}
}

// Create opens or reuses the session req.Name. The flag reports whether a
// new session was built.
func (s *SessionService) Create(req *CreateSessionRequest, clientIP string) (engine.SessionInfo, bool, error) {
	kind, settings := req.Driver, req.Settings
	if req.SettingsZip != "" {
		var err error
		kind, settings, err = s.catalog.Resolve(req.SettingsZip)
		if err != nil {
			return engine.SessionInfo{}, false, err
		}
	}
	if kind == "" {
		return engine.SessionInfo{}, false, fmt.Errorf("driver or settingsZip is required")
	}

	session, created, err := s.sessions.Create(req.Name, kind, settings)
	if err != nil {
		return engine.SessionInfo{}, false, err
	}
	if created {
		s.audit.LogSessionCreated(req.Name, kind, clientIP)
		s.publish(model.EventSessionCreated, req.Name, kind)
		s.metrics.SetActiveSessions(len(s.sessions.List()))
	}
	return session.Info(), created, nil
}

// Dispose finishes and forgets the session.
func (s *SessionService) Dispose(ctx context.Context, name, clientIP string) error {
	session, err := s.sessions.Lookup(name)
	if err != nil {
		return err
	}
	if err := s.sessions.Dispose(ctx, name); err != nil {
		return err
	}
	s.audit.LogSessionDisposed(name, clientIP)
	s.publish(model.EventSessionDisposed, name, session.Kind)
	s.metrics.SetActiveSessions(len(s.sessions.List()))
	return nil
}

// DisposeAll finishes every session on shutdown.
func (s *SessionService) DisposeAll(ctx context.Context) {
	s.sessions.DisposeAll(ctx)
	s.metrics.SetActiveSessions(0)
}

func (s *SessionService) List() []engine.SessionInfo {
	return s.sessions.List()
}

func (s *SessionService) Get(name string) (engine.SessionInfo, error) {
	session, err := s.sessions.Lookup(name)
	if err != nil {
		return engine.SessionInfo{}, err
	}
	return session.Info(), nil
}

// Execute runs req on the session.
func (s *SessionService) Execute(ctx context.Context, name string, req *SessionExecuteRequest, correlationID string) (model.EquipmentResponse, error) {
	session, err := s.sessions.Lookup(name)
	if err != nil {
		return model.EquipmentResponse{}, err
	}
	return s.executions.ExecuteSession(ctx, session, req.Tasks, req.Finish, correlationID), nil
}

func (s *SessionService) GetSerial(ctx context.Context, name string, finish bool) (model.SerialResponse, error) {
	session, err := s.sessions.Lookup(name)
	if err != nil {
		return model.SerialResponse{}, err
	}
	return session.GetSerial(ctx, finish)
}

func (s *SessionService) GetSessionState(ctx context.Context, name string, finish bool) (model.SessionStateResponse, error) {
	session, err := s.sessions.Lookup(name)
	if err != nil {
		return model.SessionStateResponse{}, err
	}
	return session.GetSessionState(ctx, finish)
}

func (s *SessionService) OpenShift(ctx context.Context, name string, finish bool) (model.OpenShiftResponse, error) {
	session, err := s.sessions.Lookup(name)
	if err != nil {
		return model.OpenShiftResponse{}, err
	}
	return session.OpenShift(ctx, finish)
}

func (s *SessionService) GetOfdStatus(ctx context.Context, name string, finish bool) (model.OfdStatusResponse, error) {
	session, err := s.sessions.Lookup(name)
	if err != nil {
		return model.OfdStatusResponse{}, err
	}
	return session.GetOfdStatus(ctx, finish)
}

func (s *SessionService) GetTaxes(ctx context.Context, name string, finish bool) (model.TaxesResponse, error) {
	session, err := s.sessions.Lookup(name)
	if err != nil {
		return model.TaxesResponse{}, err
	}
	return session.GetTaxes(ctx, finish)
}

func (s *SessionService) publish(t model.EventType, name string, kind model.DriverKind) {
	event := model.NewEvent(t, "session-service", model.JSONObject{"session": name})
	event.Session = name
	event.Driver = kind
	s.bus.Publish(event)
}
