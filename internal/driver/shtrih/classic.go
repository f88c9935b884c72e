package shtrih

// Classic is the property-style interface of the classic fiscal driver.
// Setters stage values that the next command consumes; commands return the
// device result code, zero meaning success.
type Classic interface {
	SetConnectionURI(uri string)
	Connect() int
	Disconnect() int
	SetPassword(password int)

	SetFontType(fontType int)
	GetFontMetrics() int
	CharWidth() int
	PrintWidth() int

	SetStringForPrinting(s string)
	PrintString() int

	CheckType() int
	SetCheckType(checkType int)
	SetTax1(tax int)
	SetQuantity(quantity float64)
	SetPrice(price int64)
	SetPaymentTypeSign(sign int)
	SetPaymentItemSign(sign int)
	FNOperation() int

	// SetSumm stages payment sum n (1..16) in cents.
	SetSumm(n int, sum int64)
	OpenSession() int
	OpenCheck() int
	CloseCheck() int
	CancelCheck() int
	ECRMode() int

	SetEmailAddress(address string)
	SetCustomerEmail(email string)
	FNSendCustomerEmail() int

	CashIncome() int
	CashOutcome() int
	PrintReportWithCleaning() int
	PrintReportWithoutCleaning() int

	// SetCutType selects a partial cut when true.
	SetCutType(partial bool)
	CutCheck() int
	FinishDocument() int

	ResultCode() int
	ResultCodeDescription() string
}

// Check types staged before OpenCheck and FNOperation.
const (
	CheckTypeSell   = 0
	CheckTypeAdd    = 1
	CheckTypeReturn = 2
)

// ECR modes reported by the short status request.
const (
	ModeShiftOpen    = 2
	ModeShiftExpired = 3
	ModeShiftClosed  = 4
	ModeDocumentOpen = 8
)

// Driver-side result codes; device codes are positive.
const (
	resultOK           = 0
	resultNoConnection = -1
	resultBadParam     = -2
)

// Device result codes.
const (
	errShiftOver24h      = 0x16
	errNotSupported      = 0x37
	errShiftNotOpen      = 0x3D
	errPaymentTooSmall   = 0x45
	errNotEnoughCash     = 0x46
	errCheckOpen         = 0x4A
	errShiftExpired      = 0x4E
	errBadPassword       = 0x4F
	errCheckClosed       = 0x55
	errNoPaper           = 0x6B
	errCutter            = 0x71
	errWrongMode         = 0x73
	maxPaymentTypes      = 16
	defaultAdminPassword = 30
)

var resultDescriptions = map[int]string{
	resultOK:           "No errors",
	resultNoConnection: "No connection",
	resultBadParam:     "Invalid parameter",
	0x01:               "Unknown command or invalid format",
	0x02:               "Invalid fiscal storage state",
	0x03:               "Fiscal storage error",
	errShiftOver24h:    "Shift duration exceeded 24 hours",
	errNotSupported:    "Command is not supported",
	errShiftNotOpen:    "Shift is not open",
	errPaymentTooSmall: "Sum of payments is less than the receipt total",
	errNotEnoughCash:   "Not enough cash in the drawer",
	errCheckOpen:       "Receipt is open, operation impossible",
	errShiftExpired:    "Shift exceeded 24 hours",
	errBadPassword:     "Invalid password",
	0x50:               "Previous command is still printing",
	errCheckClosed:     "Receipt is closed, operation impossible",
	0x58:               "Waiting for the continue printing command",
	errNoPaper:         "No receipt paper",
	errCutter:          "Cutter error",
	0x72:               "Command is not supported in this submode",
	errWrongMode:       "Command is not supported in this mode",
}

// DescribeResult returns the text for a result code.
func DescribeResult(code int) string {
	if d, ok := resultDescriptions[code]; ok {
		return d
	}
	return "Unknown error"
}
