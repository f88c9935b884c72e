package atol

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultEmulatorSettings is the settings document reported by a fresh
// emulator.
const DefaultEmulatorSettings = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<settings><value name="Model">63</value><value name="Port">USB</value>` +
	`<value name="Protocol">2</value><value name="UserPassword">30</value></settings>`

// Result codes produced by the emulator.
const (
	codeNoConnection   = -1
	codeUnsupported    = -12
	codeWrongMode      = -3800
	codeCheckOpen      = -3801
	codeCheckNotOpen   = -3816
	codeShiftExpired   = -3822
	codeShiftOpened    = -3837
	codeEmptyParameter = -3805
)

var resultDescriptions = map[int]string{
	resultOK:           "no errors",
	resultBadParam:     "invalid parameter value",
	codeNoConnection:   "no connection",
	codeUnsupported:    "not supported",
	codeWrongMode:      "unsupported in this mode",
	codeCheckOpen:      "check is already open",
	codeCheckNotOpen:   "check is not open",
	codeShiftExpired:   "shift exceeded 24 hours",
	codeShiftOpened:    "shift is already open",
	codeEmptyParameter: "empty parameter",
}

// Failure is a scripted result for a method.
type Failure struct {
	Code        int
	Description string
}

// Emulator is an in-memory FiscalDevice. It keeps enough register state to
// drive checks, shifts and reports, and records every call.
type Emulator struct {
	mu sync.Mutex

	props    map[Property]any
	created  bool
	enabled  bool
	settings string

	mode        int
	sessionOpen bool
	session     int
	checkState  int
	paper       bool
	ffdVersion  int
	serial      string
	taxes       [taxLast]string
	clock       time.Time

	unsent       int
	firstUnsent  time.Time
	networkError int
	networkText  string

	resultCode  int
	description string
	badParam    string

	failures map[Method]Failure
	calls    []Method
	printed  []string
	fiscal   map[int]string
	total    float64
}

// NewEmulator returns a device with a closed shift, paper loaded and FFD 1.0.5.
func NewEmulator() *Emulator {
	return &Emulator{
		props: map[Property]any{
			PropUserPassword:   "30",
			PropCharLineLength: 48,
			PropTextWrap:       WrapNone,
		},
		settings:   DefaultEmulatorSettings,
		paper:      true,
		ffdVersion: ffdVersion105,
		serial:     "00106107654321",
		taxes:      [taxLast]string{"VAT 20%", "VAT 10%", "VAT 0%", "No VAT", "VAT 20/120", "VAT 10/110"},
		failures:   make(map[Method]Failure),
		fiscal:     make(map[int]string),
	}
}

func (e *Emulator) Create() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.created = true
	return nil
}

func (e *Emulator) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.created {
		return fmt.Errorf("device not created")
	}
	e.created = false
	e.enabled = false
	return nil
}

func (e *Emulator) SetProperty(p Property, value any) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch p {
	case PropDeviceSettings:
		s := fmt.Sprint(value)
		if !strings.Contains(s, "<settings") {
			e.badParam = string(PropDeviceSettings)
			return e.result(resultBadParam)
		}
		e.settings = s
	case PropDeviceEnabled:
		enable, _ := value.(bool)
		if enable {
			if f, ok := e.failures[Method(PropDeviceEnabled)]; ok {
				return e.fail(f)
			}
			if !e.created {
				return e.result(codeNoConnection)
			}
		}
		e.enabled = enable
	case PropDate, PropTime:
		if t, ok := value.(time.Time); ok {
			e.clock = t
		}
	}
	e.props[p] = value
	return e.result(resultOK)
}

func (e *Emulator) IntProperty(p Property) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch p {
	case PropCheckState:
		return e.checkState
	case PropSession:
		return e.session
	case PropMode:
		return e.mode
	}
	return toInt(e.props[p])
}

func (e *Emulator) StringProperty(p Property) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch p {
	case PropDeviceSettings:
		return e.settings
	case PropInfoLine:
		return fmt.Sprintf("mode %d session %d", e.mode, e.session)
	}
	v, ok := e.props[p]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (e *Emulator) BoolProperty(p Property) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch p {
	case PropSessionOpened:
		return e.sessionOpen
	case PropCheckPaperPresent:
		return e.paper
	case PropDeviceEnabled:
		return e.enabled
	}
	b, _ := e.props[p].(bool)
	return b
}

func (e *Emulator) ResultCode() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resultCode
}

func (e *Emulator) ResultDescription() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.description != "" {
		return e.description
	}
	return resultDescriptions[e.resultCode]
}

func (e *Emulator) BadParamDescription() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.badParam
}

func (e *Emulator) Call(m Method) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, m)

	if f, ok := e.failures[m]; ok {
		return e.fail(f)
	}
	if !e.enabled {
		return e.result(codeNoConnection)
	}

	switch m {
	case MethodSetMode:
		e.mode = toInt(e.props[PropMode])
	case MethodOpenSession:
		if e.mode != ModeRegistration {
			return e.result(codeWrongMode)
		}
		if e.sessionOpen {
			return e.result(codeShiftOpened)
		}
		e.sessionOpen = true
		e.session++
	case MethodOpenCheck:
		if e.mode != ModeRegistration {
			return e.result(codeWrongMode)
		}
		if e.checkState != CheckStateClosed {
			return e.result(codeCheckOpen)
		}
		if !e.sessionOpen {
			e.sessionOpen = true
			e.session++
		}
		e.checkState = toInt(e.props[PropCheckType])
		e.total = 0
		e.fiscal = make(map[int]string)
	case MethodRegistration, MethodReturn, MethodPayment:
		if e.checkState == CheckStateClosed {
			return e.result(codeCheckNotOpen)
		}
		if m != MethodPayment {
			e.total += toFloat(e.props[PropPositionSum])
		}
	case MethodCloseCheck:
		if e.checkState == CheckStateClosed {
			return e.result(codeCheckNotOpen)
		}
		e.checkState = CheckStateClosed
		e.unsent++
		if e.firstUnsent.IsZero() {
			e.firstUnsent = e.now()
		}
	case MethodCancelCheck:
		if e.checkState == CheckStateClosed {
			return e.result(codeCheckNotOpen)
		}
		e.checkState = CheckStateClosed
	case MethodCashIncome, MethodCashOutcome:
		if e.mode != ModeRegistration {
			return e.result(codeWrongMode)
		}
		if e.checkState != CheckStateClosed {
			return e.result(codeCheckOpen)
		}
	case MethodWriteFiscalProperty:
		value := fmt.Sprint(e.props[PropFiscalPropertyValue])
		if strings.TrimSpace(value) == "" {
			e.badParam = string(PropFiscalPropertyValue)
			return e.result(resultBadParam)
		}
		e.fiscal[toInt(e.props[PropFiscalPropertyNum])] = value
	case MethodReport:
		if e.mode != ModeReportClear && e.mode != ModeReportNoClear {
			return e.result(codeWrongMode)
		}
		if toInt(e.props[PropReportType]) == SDKReportZ {
			if e.mode != ModeReportClear {
				return e.result(codeWrongMode)
			}
			e.sessionOpen = false
		}
	case MethodPrintString:
		e.printed = append(e.printed, fmt.Sprint(e.props[PropCaption]))
	case MethodGetRegister:
		e.readRegister(toInt(e.props[PropRegisterNumber]))
	case MethodGetCaption:
		slot := toInt(e.props[PropCaptionPurpose]) - taxCaptionIndex
		if slot < taxFirst || slot > taxLast {
			e.badParam = string(PropCaptionPurpose)
			return e.result(resultBadParam)
		}
		e.props[PropCaption] = e.taxes[slot-1]
	case MethodPrintHeader, MethodPrintFooter, MethodPartialCut, MethodFullCut,
		MethodSetDate, MethodSetTime:
	default:
		return e.result(codeUnsupported)
	}
	return e.result(resultOK)
}

func (e *Emulator) readRegister(number int) {
	switch number {
	case registerSerial:
		e.props[PropSerialNumber] = e.serial
	case registerFfdVersion:
		e.props[PropDeviceFfdVersion] = e.ffdVersion
	case registerOfdStatus:
		e.props[PropUnsentDocsCount] = e.unsent
		e.props[PropFirstUnsentDate] = ""
		if !e.firstUnsent.IsZero() {
			e.props[PropFirstUnsentDate] = e.firstUnsent.Format(time.RFC3339)
		}
		e.props[PropNetworkError] = e.networkError
		e.props[PropNetworkErrorText] = e.networkText
	}
}

func (e *Emulator) result(code int) int {
	e.resultCode = code
	e.description = ""
	if code != resultBadParam {
		e.badParam = ""
	}
	return code
}

func (e *Emulator) fail(f Failure) int {
	e.result(f.Code)
	e.description = f.Description
	return f.Code
}

func (e *Emulator) now() time.Time {
	if e.clock.IsZero() {
		return time.Now()
	}
	return e.clock
}

// FailOn scripts m to fail with code and description until Clear is called.
func (e *Emulator) FailOn(m Method, code int, description string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[m] = Failure{Code: code, Description: description}
}

// FailEnable makes enabling the device fail.
func (e *Emulator) FailEnable(code int, description string) {
	e.FailOn(Method(PropDeviceEnabled), code, description)
}

// Clear removes scripted failures.
func (e *Emulator) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = make(map[Method]Failure)
}

func (e *Emulator) SetFfdVersion(v int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ffdVersion = v
}

func (e *Emulator) SetSerial(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.serial = s
}

func (e *Emulator) SetSessionOpen(open bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionOpen = open
	if open && e.session == 0 {
		e.session = 1
	}
}

func (e *Emulator) SetNetworkError(code int, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.networkError = code
	e.networkText = text
}

// Calls returns the methods called so far.
func (e *Emulator) Calls() []Method {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Method(nil), e.calls...)
}

// CallCount returns how many times m was called.
func (e *Emulator) CallCount(m Method) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c == m {
			n++
		}
	}
	return n
}

// Printed returns the captions passed to PrintString.
func (e *Emulator) Printed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.printed...)
}

// Property returns the last value staged for p.
func (e *Emulator) Property(p Property) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.props[p]
}

// FiscalTag returns the value written for a fiscal tag in the current check.
func (e *Emulator) FiscalTag(tag int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fiscal[tag]
}

func (e *Emulator) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *Emulator) IsCreated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.created
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case bool:
		if n {
			return 1
		}
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
