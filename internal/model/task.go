// internal/model/task.go
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// TaskType is the closed set of abstract operations a backend can receive.
type TaskType string

const (
	TaskString          TaskType = "String"
	TaskBarCode         TaskType = "BarCode"
	TaskImage           TaskType = "Image"
	TaskRegistration    TaskType = "Registration"
	TaskCloseCheck      TaskType = "CloseCheck"
	TaskCancelCheck     TaskType = "CancelCheck"
	TaskOpenCheckSell   TaskType = "OpenCheckSell"
	TaskPayment         TaskType = "Payment"
	TaskOpenCheckReturn TaskType = "OpenCheckReturn"
	TaskReturn          TaskType = "Return"
	TaskCashIncome      TaskType = "CashIncome"
	TaskCashOutcome     TaskType = "CashOutcome"
	TaskClientContact   TaskType = "ClientContact"
	TaskReport          TaskType = "Report"
	TaskSyncTime        TaskType = "SyncTime"
	TaskPrintHeader     TaskType = "PrintHeader"
	TaskPrintFooter     TaskType = "PrintFooter"
	TaskCut             TaskType = "Cut"
	TaskPrintSlip       TaskType = "PrintSlip"
	TaskUnknown         TaskType = "Unknown"
)

var taskTypes = []TaskType{
	TaskString, TaskBarCode, TaskImage, TaskRegistration, TaskCloseCheck,
	TaskCancelCheck, TaskOpenCheckSell, TaskPayment, TaskOpenCheckReturn,
	TaskReturn, TaskCashIncome, TaskCashOutcome, TaskClientContact, TaskReport,
	TaskSyncTime, TaskPrintHeader, TaskPrintFooter, TaskCut, TaskPrintSlip,
	TaskUnknown,
}

// ParseTaskType matches s case-insensitively against the canonical names.
// Anything unrecognised becomes TaskUnknown.
func ParseTaskType(s string) TaskType {
	s = strings.TrimSpace(s)
	for _, t := range taskTypes {
		if strings.EqualFold(string(t), s) {
			return t
		}
	}
	return TaskUnknown
}

// TaskTypes returns every known task type in declaration order.
func TaskTypes() []TaskType {
	out := make([]TaskType, len(taskTypes))
	copy(out, taskTypes)
	return out
}

func (t *TaskType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = TaskUnknown
		return nil
	}
	*t = ParseTaskType(s)
	return nil
}

// Alignment of a printed line.
type Alignment string

const (
	AlignLeft   Alignment = "Left"
	AlignCenter Alignment = "Center"
	AlignRight  Alignment = "Right"
)

func (a *Alignment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid alignment %s: %w", string(data), err)
	}
	switch {
	case strings.EqualFold(s, string(AlignCenter)):
		*a = AlignCenter
	case strings.EqualFold(s, string(AlignRight)):
		*a = AlignRight
	case strings.EqualFold(s, string(AlignLeft)):
		*a = AlignLeft
	default:
		*a = Alignment(s)
	}
	return nil
}

// ReportType values are the device report codes used on the wire.
type ReportType int

const (
	ReportZ          ReportType = 1
	ReportX          ReportType = 2
	ReportDepartment ReportType = 7
	ReportCashiers   ReportType = 8
	ReportHours      ReportType = 10
)

func (r ReportType) String() string {
	switch r {
	case ReportZ:
		return "ReportZ"
	case ReportX:
		return "ReportX"
	case ReportDepartment:
		return "ReportDepartment"
	case ReportCashiers:
		return "ReportCashiers"
	case ReportHours:
		return "ReportHours"
	default:
		return "Report(" + strconv.Itoa(int(r)) + ")"
	}
}

// Bool is a boolean transmitted as 0/1. Both numbers and JSON booleans are
// accepted on input; only 1 and true read as true.
type Bool bool

// NewBool returns a pointer suitable for an optional parameter.
func NewBool(v bool) *Bool {
	b := Bool(v)
	return &b
}

func (b Bool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (b *Bool) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch s {
	case "1", "true":
		*b = true
		return nil
	case "0", "false", "null":
		*b = false
		return nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		*b = false
		return nil
	}
	return fmt.Errorf("invalid boolean value %s", s)
}

// BoolValue dereferences an optional flag, absent meaning false.
func BoolValue(b *Bool) bool {
	return b != nil && bool(*b)
}

// Money is an exact decimal amount written as a bare JSON number.
type Money struct {
	decimal.Decimal
}

// NewMoney parses s and panics on malformed input. Intended for literals.
func NewMoney(s string) *Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("model: invalid money literal %q: %v", s, err))
	}
	return &Money{Decimal: d}
}

// MoneyFromDecimal wraps d.
func MoneyFromDecimal(d decimal.Decimal) *Money {
	return &Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

// Cents returns the amount in minimal currency units, truncating any
// fraction below one cent.
func (m Money) Cents() int64 {
	return m.Decimal.Shift(2).IntPart()
}

// IsPositive reports whether m is present and greater than zero.
func IsPositive(m *Money) bool {
	return m != nil && m.Decimal.IsPositive()
}

// Department is a department number that clients send either as a JSON
// string or as a number. It is written back as a string.
type Department int

// NewDepartment returns a pointer suitable for an optional parameter.
func NewDepartment(n int) *Department {
	d := Department(n)
	return &d
}

func (d Department) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(d)))
}

func (d *Department) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid department %s", data)
	}
	*d = Department(n)
	return nil
}

// Parameters holds the optional attributes of a task. A nil field means
// "leave the device default".
type Parameters struct {
	Font             *int        `json:"font,omitempty"`
	Bold             *Bool       `json:"bold,omitempty"`
	Italic           *Bool       `json:"italic,omitempty"`
	DoubleHeight     *Bool       `json:"dblheight,omitempty"`
	Underline        *Bool       `json:"underline,omitempty"`
	Overline         *Bool       `json:"overline,omitempty"`
	Negative         *Bool       `json:"negative,omitempty"`
	UpsideDown       *Bool       `json:"upsideDown,omitempty"`
	ZeroSlashed      *Bool       `json:"zeroSlashed,omitempty"`
	CharRotation     *int        `json:"charRotation,omitempty"`
	StandardColor    *Bool       `json:"standardColor,omitempty"`
	Wrap             *Bool       `json:"wrap,omitempty"`
	Alignment        *Alignment  `json:"alignment,omitempty"`
	NewLine          *Bool       `json:"newLine,omitempty"`
	LineSpacingMax   *Bool       `json:"lineSpacingMax,omitempty"`
	BarCodeHeight    *int        `json:"barCodeHeight,omitempty"`
	BarCodeType      *string     `json:"barCodeType,omitempty"`
	BarCodeHasCC     *Bool       `json:"BarCodeHasCC,omitempty"`
	BarCodePrintText *Bool       `json:"barCodePrintText,omitempty"`
	Price            *Money      `json:"price,omitempty"`
	Quantity         *Money      `json:"quantity,omitempty"`
	Department       *Department `json:"department,omitempty"`
	Sum              *Money      `json:"Summ,omitempty"`
	TypeClose        *int        `json:"typeClose,omitempty"`
	EnableCheckSum   *Bool       `json:"EnableCheckSumm,omitempty"`
	Tax              *int        `json:"tax,omitempty"`
	PrintDoc         *Bool       `json:"printDoc,omitempty"`
	ReportType       *ReportType `json:"reportType,omitempty"`
	ClientContact    *string     `json:"clientContact,omitempty"`
	CashierINN       *string     `json:"cashierINN,omitempty"`
	CashierName      *string     `json:"cashierName,omitempty"`
	CashierPosition  *string     `json:"cashierPosition,omitempty"`
	ItemType         *int        `json:"itemType,omitempty"`
	PaymentMode      *int        `json:"paymentMode,omitempty"`
}

// Align returns the requested alignment, Left when absent.
func (p Parameters) Align() Alignment {
	if p.Alignment == nil {
		return AlignLeft
	}
	return *p.Alignment
}

// Task is one abstract operation. Param is read case-insensitively, so both
// "Param" and "param" decode.
type Task struct {
	Data  string     `json:"data,omitempty"`
	Type  TaskType   `json:"type"`
	Param Parameters `json:"Param"`
}

// NewTask builds a task of the given type with empty parameters.
func NewTask(taskType TaskType, data string) Task {
	return Task{Type: taskType, Data: data}
}

// WithAlignment returns a copy of t aligned to a.
func (t Task) WithAlignment(a Alignment) Task {
	t.Param.Alignment = &a
	return t
}
