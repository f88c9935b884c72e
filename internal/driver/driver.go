// Package driver defines the contract every device backend implements and
// the registry that builds backends from their serialized settings.
package driver

import (
	"context"
	"sync"

	"github.com/Softbalance/equipment/internal/model"
)

// Backend is one device session. Implementations are not safe for
// concurrent batches; the engine serializes access.
type Backend interface {
	Kind() model.DriverKind
	Status() model.DriverStatus

	// Open connects and enables the device. It is called before every batch
	// and must tolerate an already open session.
	Open(ctx context.Context) error
	// RunTask executes one task. Unsupported task types are logged and
	// succeed.
	RunTask(ctx context.Context, task model.Task) error
	// Finish releases the device. The backend becomes FINISHED if it was
	// initialized.
	Finish(ctx context.Context)

	// Auxiliary operations. The returned error is non-nil only for
	// ErrMethodNotSupported; device failures are reported in the response.
	GetSerial(ctx context.Context) (model.SerialResponse, error)
	GetSessionState(ctx context.Context) (model.SessionStateResponse, error)
	OpenShift(ctx context.Context) (model.OpenShiftResponse, error)
	GetOfdStatus(ctx context.Context) (model.OfdStatusResponse, error)
	GetTaxes(ctx context.Context) (model.TaxesResponse, error)
}

// BatchHooks is implemented by backends that frame a batch with a preamble
// and a postamble.
type BatchHooks interface {
	BeginBatch(ctx context.Context) error
	EndBatch(ctx context.Context) error
}

// AuxOp names an auxiliary operation.
type AuxOp string

const (
	AuxSerial       AuxOp = "serial"
	AuxSessionState AuxOp = "session_state"
	AuxOpenShift    AuxOp = "open_shift"
	AuxOfdStatus    AuxOp = "ofd_status"
	AuxTaxes        AuxOp = "taxes"
)

// OfflineAnswerer is implemented by backends that answer some auxiliary
// operations without device I/O. The engine does not open the backend for
// those.
type OfflineAnswerer interface {
	AnswersOffline(op AuxOp) bool
}

// BatchRunner is implemented by backends that execute the whole batch
// remotely instead of task by task.
type BatchRunner interface {
	RunBatch(ctx context.Context, tasks []model.Task) model.EquipmentResponse
}

// InfoReporter is implemented by backends that attach a diagnostic to a
// successful batch.
type InfoReporter interface {
	LastInfo() string
}

// Lifecycle tracks NOT_INITIALIZED → INITIALIZED → FINISHED.
type Lifecycle struct {
	mu     sync.RWMutex
	status model.DriverStatus
}

func (l *Lifecycle) Status() model.DriverStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

func (l *Lifecycle) IsInitialized() bool {
	return l.Status() == model.StatusInitialized
}

func (l *Lifecycle) IsFinished() bool {
	return l.Status() == model.StatusFinished
}

// SetStatus moves to s. Leaving FINISHED is not allowed.
func (l *Lifecycle) SetStatus(s model.DriverStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status == model.StatusFinished {
		return
	}
	l.status = s
}
