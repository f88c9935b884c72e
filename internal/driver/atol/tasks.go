package atol

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
)

const (
	printStringTrait = "trait"
	printStringDash  = "dash"
)

var (
	traitTemplate = strings.Repeat("=", 50)
	dashTemplate  = strings.Repeat("-", 50)
)

// RunTask dispatches one task to its handler.
func (a *Atol) RunTask(ctx context.Context, task model.Task) error {
	start := time.Now()
	err := a.runTask(task)
	a.logger.LogTask(task.Type, time.Since(start), err)
	return err
}

func (a *Atol) runTask(task model.Task) error {
	switch task.Type {
	case model.TaskString:
		return a.printString(task)
	case model.TaskRegistration:
		return a.registration(task, MethodRegistration)
	case model.TaskReturn:
		return a.registration(task, MethodReturn)
	case model.TaskCloseCheck:
		return a.closeCheck()
	case model.TaskCancelCheck:
		return a.cancelCheck()
	case model.TaskOpenCheckSell:
		return a.openCheckSell(task)
	case model.TaskOpenCheckReturn:
		return a.openCheckReturn()
	case model.TaskPayment:
		return a.payment(task)
	case model.TaskCashIncome:
		return a.cashOperation(MethodCashIncome, task)
	case model.TaskCashOutcome:
		return a.cashOperation(MethodCashOutcome, task)
	case model.TaskClientContact:
		return a.writeFiscalString(tagClientContact, task.Data)
	case model.TaskReport:
		return a.report(task)
	case model.TaskSyncTime:
		return a.syncTime()
	case model.TaskPrintHeader, model.TaskPrintFooter:
		return a.check(a.device.Call(MethodPrintHeader))
	case model.TaskCut:
		return a.cut()
	case model.TaskPrintSlip:
		return a.printSlip(task)
	default:
		a.logger.LogUnsupported(task.Type)
		return nil
	}
}

func (a *Atol) printString(task model.Task) error {
	data := strings.ToLower(strings.TrimSpace(task.Data))

	switch {
	case strings.Contains(data, printStringTrait):
		return a.printSimpleString(model.NewTask(model.TaskString, traitTemplate).WithAlignment(model.AlignCenter))
	case strings.Contains(data, printStringDash):
		return a.printSimpleString(model.NewTask(model.TaskString, dashTemplate).WithAlignment(model.AlignCenter))
	}
	return a.printSimpleString(task)
}

func (a *Atol) printSimpleString(task model.Task) error {
	params := task.Param

	wrap := WrapNone
	if model.BoolValue(params.Wrap) {
		wrap = WrapWord
	}
	a.device.SetProperty(PropTextWrap, wrap)

	caption := task.Data
	lineLength := a.device.IntProperty(PropCharLineLength)
	if wrap == WrapNone && lineLength > 0 && utf8.RuneCountInString(caption) > lineLength {
		caption = string([]rune(caption)[:lineLength])
	}
	a.device.SetProperty(PropCaption, caption)

	a.device.SetProperty(PropAlignment, convertAlign(params.Align()))
	a.device.SetProperty(PropFontBold, model.BoolValue(params.Bold))
	a.device.SetProperty(PropFontItalic, model.BoolValue(params.Italic))

	return a.check(a.device.Call(MethodPrintString))
}

func convertAlign(alignment model.Alignment) int {
	switch alignment {
	case model.AlignCenter:
		return AlignmentCenter
	case model.AlignRight:
		return AlignmentRight
	default:
		return AlignmentLeft
	}
}

func (a *Atol) registration(task model.Task, commit Method) error {
	if err := a.prepareItemRegistration(task); err != nil {
		return err
	}
	return a.check(a.device.Call(commit))
}

func (a *Atol) prepareItemRegistration(task model.Task) error {
	params := task.Param

	if task.Data == "" {
		return a.fail("incorrect product name")
	}
	a.device.SetProperty(PropName, task.Data)
	a.device.SetProperty(PropTextWrap, WrapWord)

	if !model.IsPositive(params.Price) {
		return a.fail("incorrect product price")
	}
	a.device.SetProperty(PropPrice, params.Price.InexactFloat64())

	if !model.IsPositive(params.Quantity) {
		return a.fail("incorrect product quantity")
	}
	a.device.SetProperty(PropQuantity, params.Quantity.InexactFloat64())

	sum := params.Price.Mul(params.Quantity.Decimal)
	if params.Sum != nil {
		sum = params.Sum.Decimal
	}
	a.device.SetProperty(PropPositionSum, sum.InexactFloat64())

	if params.Tax != nil {
		a.device.SetProperty(PropTaxNumber, *params.Tax)
	}
	if params.Department != nil {
		a.device.SetProperty(PropDepartment, int(*params.Department))
	}

	if a.ffdVersion() == ffdVersion105 {
		if params.ItemType != nil {
			a.device.SetProperty(PropPositionType, *params.ItemType)
		}
		if params.PaymentMode != nil {
			a.device.SetProperty(PropPositionPaymentType, *params.PaymentMode)
		}
		a.device.SetProperty(PropTaxMode, 0)
	}
	return nil
}

func (a *Atol) payment(task model.Task) error {
	if !model.IsPositive(task.Param.Sum) {
		return a.fail("payment incorrect")
	}
	a.device.SetProperty(PropSumm, task.Param.Sum.InexactFloat64())

	if task.Param.TypeClose == nil {
		return a.fail("type close incorrect")
	}
	a.device.SetProperty(PropTypeClose, *task.Param.TypeClose)

	return a.check(a.device.Call(MethodPayment))
}

func (a *Atol) closeCheck() error {
	if a.device.IntProperty(PropCheckState) == CheckStateClosed {
		return nil
	}
	return a.check(a.device.Call(MethodCloseCheck))
}

// cancelCheck switches to registration mode and cancels whatever check is
// open. The cancel result is not checked.
func (a *Atol) cancelCheck() error {
	if err := a.setMode(ModeRegistration); err != nil {
		return err
	}
	a.device.Call(MethodCancelCheck)
	return nil
}

func (a *Atol) writeFiscalString(tag int, value string) error {
	a.device.SetProperty(PropFiscalPropertyNum, tag)
	a.device.SetProperty(PropFiscalPropertyType, FiscalPropertyTypeString)
	a.device.SetProperty(PropFiscalPropertyValue, value)
	return a.check(a.device.Call(MethodWriteFiscalProperty))
}

func (a *Atol) cashOperation(method Method, task model.Task) error {
	if err := a.prepareRegistration(); err != nil {
		return err
	}
	if !model.IsPositive(task.Param.Sum) {
		return errors.New(a.getInfo())
	}
	a.device.SetProperty(PropSumm, task.Param.Sum.InexactFloat64())
	return a.check(a.device.Call(method))
}

func (a *Atol) openCheckSell(task model.Task) error {
	err := a.prepareRegistration()
	if err == nil {
		err = a.openCheck(CheckTypeSell)
	}
	if err == nil {
		err = a.initCheckParams(task)
	}
	if err != nil {
		a.closeCheck()
	}
	return err
}

func (a *Atol) initCheckParams(task model.Task) error {
	params := task.Param

	if params.ClientContact != nil {
		if a.writeFiscalString(tagClientContact, *params.ClientContact) != nil {
			return a.fail("incorrect client contact")
		}
	}
	if params.CashierINN != nil {
		if a.writeFiscalString(tagCashierINN, *params.CashierINN) != nil {
			return a.fail("incorrect cashier inn")
		}
	}

	cashier := trimmed(params.CashierName) + " " + trimmed(params.CashierPosition)
	if strings.TrimSpace(cashier) != "" {
		if a.writeFiscalString(tagCashierName, cashier) != nil {
			return a.fail("incorrect cashier name")
		}
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func (a *Atol) openCheckReturn() error {
	if err := a.prepareRegistration(); err != nil {
		return err
	}
	return a.openCheck(CheckTypeReturn)
}

func (a *Atol) openCheck(checkType int) error {
	a.device.SetProperty(PropCheckType, checkType)
	return a.check(a.device.Call(MethodOpenCheck))
}

// prepareRegistration cancels any open check, enters registration mode and
// opens the shift. The shift open result is ignored because the SDK reports
// stale session state.
func (a *Atol) prepareRegistration() error {
	a.cancelCheck()
	if err := a.setMode(ModeRegistration); err != nil {
		return err
	}
	a.device.Call(MethodOpenSession)
	return nil
}

func (a *Atol) setMode(mode int) error {
	a.device.SetProperty(PropUserPassword, a.device.StringProperty(PropUserPassword))
	a.device.SetProperty(PropMode, mode)
	return a.check(a.device.Call(MethodSetMode))
}

func (a *Atol) report(task model.Task) error {
	a.cancelCheck()

	var reportType model.ReportType
	if task.Param.ReportType != nil {
		reportType = *task.Param.ReportType
	}

	mode := ModeReportNoClear
	if reportType == model.ReportZ {
		mode = ModeReportClear
	}
	if err := a.setMode(mode); err != nil {
		return err
	}

	var sdkReport int
	switch reportType {
	case model.ReportZ:
		sdkReport = SDKReportZ
	case model.ReportX:
		sdkReport = SDKReportX
	case model.ReportDepartment:
		sdkReport = SDKReportDepartments
	case model.ReportCashiers:
		sdkReport = SDKReportCashiers
	case model.ReportHours:
		sdkReport = SDKReportHours
	default:
		a.logger.Error("Report type is not supported", zap.Int("report_type", int(reportType)))
		return a.fail("report type " + reportType.String() + " is not supported")
	}

	a.device.SetProperty(PropReportType, sdkReport)
	return a.check(a.device.Call(MethodReport))
}

// cut tries a partial cut and falls back to a full cut. It never fails.
func (a *Atol) cut() error {
	if a.device.Call(MethodPartialCut) != resultOK {
		a.device.Call(MethodFullCut)
	}
	return nil
}

func (a *Atol) syncTime() error {
	a.cancelCheck()

	now := a.now()
	for _, step := range []func() int{
		func() int { return a.device.SetProperty(PropDate, now) },
		func() int { return a.device.SetProperty(PropTime, now) },
		func() int { return a.device.Call(MethodSetDate) },
		func() int { return a.device.Call(MethodSetTime) },
	} {
		if err := a.check(step()); err != nil {
			return err
		}
	}
	return nil
}

func (a *Atol) printSlip(task model.Task) error {
	for _, step := range []func() int{
		func() int { return a.device.SetProperty(PropCaption, task.Data) },
		func() int { return a.device.SetProperty(PropTextWrap, WrapLine) },
		func() int { return a.device.SetProperty(PropAlignment, AlignmentLeft) },
		func() int { return a.device.Call(MethodPrintString) },
		func() int { return a.device.SetProperty(PropMode, ModeReportNoClear) },
		func() int { return a.device.Call(MethodSetMode) },
		func() int { return a.device.Call(MethodPrintFooter) },
	} {
		if err := a.check(step()); err != nil {
			return err
		}
	}
	return nil
}
