// Package shtrih drives classic fiscal registers through the Classic
// property interface.
package shtrih

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/layout"
	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/utils"
)

const (
	defaultLineLength = 31
	traitTemplate     = "============================="
	dashTemplate      = "------------------------------"
)

var errSessionExpired = errors.New("session expired")

// ClassicProvider creates the driver handle for a backend.
type ClassicProvider func(settings Settings, logger *zap.Logger) Classic

// Shtrih implements driver.Backend on top of a Classic.
type Shtrih struct {
	driver.Lifecycle

	settings Settings
	classic  Classic
	logger   *utils.DeviceLogger
	mu       sync.Mutex
}

var _ driver.Backend = (*Shtrih)(nil)

// Factory returns a driver.Factory building adapters over provider.
func Factory(provider ClassicProvider) driver.Factory {
	return func(settings string, logger *zap.Logger) (driver.Backend, error) {
		s := ExtractSettings(settings)
		return New(s, provider(s, logger), logger), nil
	}
}

func New(settings Settings, classic Classic, logger *zap.Logger) *Shtrih {
	return &Shtrih{
		settings: settings,
		classic:  classic,
		logger:   utils.NewDeviceLogger(logger, model.DriverShtrih, ""),
	}
}

func (s *Shtrih) Kind() model.DriverKind {
	return model.DriverShtrih
}

// Open connects with the administrator password.
func (s *Shtrih) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.classic.SetConnectionURI(s.settings.ConnectionURI())
	if err := s.check(s.classic.Connect()); err != nil {
		s.logger.LogConnection("connect", false, err)
		return err
	}
	s.classic.SetPassword(defaultAdminPassword)
	s.SetStatus(model.StatusInitialized)
	return nil
}

// Finish disconnects an opened register and retires the backend, opened
// or not.
func (s *Shtrih) Finish(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.IsInitialized() {
		s.classic.Disconnect()
		s.logger.LogConnection("disconnect", true, nil)
	}
	s.SetStatus(model.StatusFinished)
}

// RunTask executes one task. Failures carry the task type.
func (s *Shtrih) RunTask(ctx context.Context, task model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.runTask(task)
	s.logger.LogTask(task.Type, time.Since(start), err)
	if err != nil {
		return &driver.TaskError{Task: task.Type, Err: err, Style: driver.PrefixStyle}
	}
	return nil
}

func (s *Shtrih) runTask(task model.Task) error {
	lineLength := s.lineLength()

	switch task.Type {
	case model.TaskString:
		return s.printString(task, lineLength)
	case model.TaskRegistration:
		return s.registration(task)
	case model.TaskCloseCheck:
		return s.check(s.classic.CloseCheck())
	case model.TaskCancelCheck:
		s.classic.CancelCheck()
		return nil
	case model.TaskOpenCheckSell:
		return s.openCheck(task, CheckTypeSell)
	case model.TaskOpenCheckReturn:
		return s.openCheck(task, CheckTypeReturn)
	case model.TaskPayment, model.TaskReturn:
		s.setSum(task)
		return nil
	case model.TaskCashIncome:
		return s.cashOperation(task, s.classic.CashIncome)
	case model.TaskCashOutcome:
		return s.cashOperation(task, s.classic.CashOutcome)
	case model.TaskClientContact:
		s.setClientContact(task)
		return nil
	case model.TaskReport:
		return s.report(task)
	case model.TaskCut:
		s.classic.SetCutType(false)
		s.classic.CutCheck()
		return nil
	case model.TaskPrintHeader, model.TaskPrintFooter:
		s.classic.FinishDocument()
		return nil
	default:
		s.logger.LogUnsupported(task.Type)
		return nil
	}
}

func (s *Shtrih) lineLength() int {
	s.classic.SetFontType(1)
	s.classic.GetFontMetrics()
	if charWidth := s.classic.CharWidth(); charWidth > 0 {
		return s.classic.PrintWidth() / charWidth
	}
	return defaultLineLength
}

func (s *Shtrih) printString(task model.Task, lineLength int) error {
	data := strings.ToLower(strings.TrimSpace(task.Data))
	switch {
	case strings.Contains(data, "trait"):
		task.Data = traitTemplate
		task = task.WithAlignment(model.AlignCenter)
	case strings.Contains(data, "dash"):
		task.Data = dashTemplate
		task = task.WithAlignment(model.AlignCenter)
	}

	defer s.classic.SetStringForPrinting("")
	for _, line := range layout.Lines(task.Data, lineLength, model.BoolValue(task.Param.Wrap)) {
		s.classic.SetStringForPrinting(layout.Align(line, task.Param.Align(), lineLength))
		if err := s.check(s.classic.PrintString()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shtrih) registration(task model.Task) error {
	if ct := s.classic.CheckType(); ct == CheckTypeSell || ct == CheckTypeAdd {
		s.classic.SetCheckType(CheckTypeAdd)
	} else {
		s.classic.SetCheckType(CheckTypeReturn)
	}

	p := task.Param
	s.classic.SetTax1(intValue(p.Tax))
	s.classic.SetQuantity(moneyFloat(p.Quantity))
	s.classic.SetPrice(cents(p.Price))
	s.classic.SetStringForPrinting(task.Data)
	if p.PaymentMode != nil {
		s.classic.SetPaymentTypeSign(*p.PaymentMode)
	}
	if p.ItemType != nil {
		s.classic.SetPaymentItemSign(*p.ItemType)
	}

	defer s.classic.SetStringForPrinting("")
	return s.check(s.classic.FNOperation())
}

// setSum stages the sum in the payment slot chosen by typeClose.
func (s *Shtrih) setSum(task model.Task) {
	n := intValue(task.Param.TypeClose)
	if n < 2 || n > 10 {
		n = 1
	}
	s.classic.SetSumm(n, cents(task.Param.Sum))
}

func (s *Shtrih) openCheck(task model.Task, checkType int) error {
	if err := s.checkSession(); err != nil {
		return err
	}
	s.classic.OpenSession()
	s.classic.SetCheckType(checkType)
	if err := s.check(s.classic.OpenCheck()); err != nil {
		return err
	}
	s.setClientContact(task)
	return nil
}

func (s *Shtrih) setClientContact(task model.Task) {
	if task.Param.ClientContact == nil {
		return
	}
	contact := *task.Param.ClientContact
	s.classic.SetEmailAddress(contact)
	s.classic.SetCustomerEmail(contact)
	s.classic.FNSendCustomerEmail()
}

func (s *Shtrih) cashOperation(task model.Task, operation func() int) error {
	s.classic.CancelCheck()
	if err := s.checkSession(); err != nil {
		return err
	}
	s.classic.SetSumm(1, cents(task.Param.Sum))
	return s.check(operation())
}

func (s *Shtrih) report(task model.Task) error {
	if task.Param.ReportType != nil && *task.Param.ReportType == model.ReportZ {
		return s.check(s.classic.PrintReportWithCleaning())
	}
	return s.check(s.classic.PrintReportWithoutCleaning())
}

func (s *Shtrih) checkSession() error {
	if s.classic.ECRMode() == ModeShiftExpired {
		return errSessionExpired
	}
	return nil
}

// check turns a non-zero result into "<code>: <description>".
func (s *Shtrih) check(code int) error {
	if code == resultOK {
		return nil
	}
	return fmt.Errorf("%d: %s", s.classic.ResultCode(), s.classic.ResultCodeDescription())
}

func (s *Shtrih) GetSerial(ctx context.Context) (model.SerialResponse, error) {
	return model.NewSerialResponse(), nil
}

func (s *Shtrih) GetSessionState(ctx context.Context) (model.SessionStateResponse, error) {
	return model.SessionStateResponse{}, driver.ErrMethodNotSupported
}

func (s *Shtrih) OpenShift(ctx context.Context) (model.OpenShiftResponse, error) {
	return model.OpenShiftResponse{}, driver.ErrMethodNotSupported
}

func (s *Shtrih) GetOfdStatus(ctx context.Context) (model.OfdStatusResponse, error) {
	return model.OfdStatusResponse{}, driver.ErrMethodNotSupported
}

func (s *Shtrih) GetTaxes(ctx context.Context) (model.TaxesResponse, error) {
	return model.TaxesResponse{}, driver.ErrMethodNotSupported
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func cents(m *model.Money) int64 {
	if m == nil {
		return 0
	}
	return m.Cents()
}

func moneyFloat(m *model.Money) float64 {
	if m == nil {
		return 0
	}
	return m.InexactFloat64()
}
