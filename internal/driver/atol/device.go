package atol

// FiscalDevice is the property-style surface of the native fiscal SDK.
// Inputs are staged with SetProperty, a Call executes a method and returns
// its result code (0 OK, negative on failure) and outputs are read back as
// properties.
type FiscalDevice interface {
	Create() error
	Destroy() error

	SetProperty(p Property, value any) int
	IntProperty(p Property) int
	StringProperty(p Property) string
	BoolProperty(p Property) bool
	Call(m Method) int

	ResultCode() int
	ResultDescription() string
	BadParamDescription() string
}

type Property string

const (
	PropDeviceSettings      Property = "DeviceSettings"
	PropDeviceEnabled       Property = "DeviceEnabled"
	PropUserPassword        Property = "UserPassword"
	PropMode                Property = "Mode"
	PropName                Property = "Name"
	PropPrice               Property = "Price"
	PropQuantity            Property = "Quantity"
	PropPositionSum         Property = "PositionSum"
	PropTaxNumber           Property = "TaxNumber"
	PropDepartment          Property = "Department"
	PropPositionType        Property = "PositionType"
	PropPositionPaymentType Property = "PositionPaymentType"
	PropTaxMode             Property = "TaxMode"
	PropSumm                Property = "Summ"
	PropTypeClose           Property = "TypeClose"
	PropCheckType           Property = "CheckType"
	PropCheckState          Property = "CheckState"
	PropFiscalPropertyNum   Property = "FiscalPropertyNumber"
	PropFiscalPropertyType  Property = "FiscalPropertyType"
	PropFiscalPropertyValue Property = "FiscalPropertyValue"
	PropCaption             Property = "Caption"
	PropCaptionPurpose      Property = "CaptionPurpose"
	PropTextWrap            Property = "TextWrap"
	PropCharLineLength      Property = "CharLineLength"
	PropAlignment           Property = "Alignment"
	PropFontBold            Property = "FontBold"
	PropFontItalic          Property = "FontItalic"
	PropReportType          Property = "ReportType"
	PropDate                Property = "Date"
	PropTime                Property = "Time"
	PropRegisterNumber      Property = "RegisterNumber"
	PropDeviceFfdVersion    Property = "DeviceFfdVersion"
	PropSerialNumber        Property = "SerialNumber"
	PropInfoLine            Property = "InfoLine"
	PropSessionOpened       Property = "SessionOpened"
	PropSession             Property = "Session"
	PropCheckPaperPresent   Property = "CheckPaperPresent"
	PropUnsentDocsCount     Property = "UnsentDocsCount"
	PropFirstUnsentDate     Property = "FirstUnsentDate"
	PropNetworkError        Property = "NetworkError"
	PropNetworkErrorText    Property = "NetworkErrorText"
)

type Method string

const (
	MethodRegistration        Method = "Registration"
	MethodReturn              Method = "Return"
	MethodCloseCheck          Method = "CloseCheck"
	MethodCancelCheck         Method = "CancelCheck"
	MethodOpenCheck           Method = "OpenCheck"
	MethodPayment             Method = "Payment"
	MethodCashIncome          Method = "CashIncome"
	MethodCashOutcome         Method = "CashOutcome"
	MethodWriteFiscalProperty Method = "WriteFiscalProperty"
	MethodOpenSession         Method = "OpenSession"
	MethodSetMode             Method = "SetMode"
	MethodReport              Method = "Report"
	MethodPrintString         Method = "PrintString"
	MethodPrintHeader         Method = "PrintHeader"
	MethodPrintFooter         Method = "PrintFooter"
	MethodPartialCut          Method = "PartialCut"
	MethodFullCut             Method = "FullCut"
	MethodSetDate             Method = "SetDate"
	MethodSetTime             Method = "SetTime"
	MethodGetRegister         Method = "GetRegister"
	MethodGetCaption          Method = "GetCaption"
)

// SDK enumerations.
const (
	resultOK          = 0
	resultUnavailable = -1
	resultBadParam    = -6

	WrapNone = 0
	WrapWord = 1
	WrapLine = 2

	AlignmentLeft   = 0
	AlignmentCenter = 1
	AlignmentRight  = 2

	ModeSelect        = 0
	ModeRegistration  = 1
	ModeReportNoClear = 2
	ModeReportClear   = 3
	ModeProgramming   = 4

	CheckStateClosed = 0
	CheckTypeSell    = 1
	CheckTypeReturn  = 2

	FiscalPropertyTypeString = 5

	SDKReportZ           = 1
	SDKReportX           = 2
	SDKReportDepartments = 7
	SDKReportCashiers    = 8
	SDKReportHours       = 10
)

// Registers and fiscal tags used by the adapter.
const (
	registerSerial     = 22
	registerOfdStatus  = 44
	registerFfdVersion = 54

	taxCaptionIndex = 201
	taxFirst        = 1
	taxLast         = 6

	ffdVersion105 = 105

	tagClientContact = 1008
	tagCashierName   = 1021
	tagCashierINN    = 1203
)
