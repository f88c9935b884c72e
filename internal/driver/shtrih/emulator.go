package shtrih

import (
	"sync"
)

// Operation is a position registered by FNOperation.
type Operation struct {
	CheckType       int
	Tax             int
	Quantity        float64
	Price           int64
	Name            string
	PaymentTypeSign int
	PaymentItemSign int
}

// Receipt is a closed check.
type Receipt struct {
	CheckType  int
	Operations []Operation
	Sums       [maxPaymentTypes]int64
	Email      string
}

// Emulator is an in-memory Classic. It tracks the shift and the open
// document, records every command and can be scripted to fail.
type Emulator struct {
	mu sync.Mutex

	uri       string
	connected bool
	password  int

	fontType   int
	printWidth int
	charWidth  int

	text      string
	checkType int
	tax       int
	quantity  float64
	price     int64
	typeSign  int
	itemSign  int
	sums      [maxPaymentTypes]int64
	email     string
	customer  string
	partial   bool

	mode     int
	open     *Receipt
	receipts []Receipt
	cash     int64

	resultCode int
	failures   map[string]int
	calls      []string
	printed    []string
	reports    []bool
	cuts       []bool
}

// NewEmulator returns a connected-ready emulator with a closed shift and a
// 576 dot line of 12 dot characters.
func NewEmulator() *Emulator {
	return &Emulator{
		printWidth: 576,
		charWidth:  12,
		mode:       ModeShiftClosed,
		failures:   make(map[string]int),
	}
}

var _ Classic = (*Emulator)(nil)

func (e *Emulator) SetConnectionURI(uri string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.uri = uri
}

func (e *Emulator) Connect() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.scripted("Connect"); ok {
		return code
	}
	e.connected = true
	return e.result(resultOK)
}

func (e *Emulator) Disconnect() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "Disconnect")
	e.connected = false
	return e.result(resultOK)
}

func (e *Emulator) SetPassword(password int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.password = password
}

func (e *Emulator) SetFontType(fontType int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fontType = fontType
}

func (e *Emulator) GetFontMetrics() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("GetFontMetrics"); ok {
		return code
	}
	return e.result(resultOK)
}

func (e *Emulator) CharWidth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.charWidth
}

func (e *Emulator) PrintWidth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.printWidth
}

func (e *Emulator) SetStringForPrinting(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = s
}

func (e *Emulator) PrintString() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("PrintString"); ok {
		return code
	}
	e.printed = append(e.printed, e.text)
	return e.result(resultOK)
}

func (e *Emulator) CheckType() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkType
}

func (e *Emulator) SetCheckType(checkType int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checkType = checkType
}

func (e *Emulator) SetTax1(tax int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tax = tax
}

func (e *Emulator) SetQuantity(quantity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quantity = quantity
}

func (e *Emulator) SetPrice(price int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.price = price
}

func (e *Emulator) SetPaymentTypeSign(sign int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.typeSign = sign
}

func (e *Emulator) SetPaymentItemSign(sign int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.itemSign = sign
}

func (e *Emulator) FNOperation() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("FNOperation"); ok {
		return code
	}
	if e.open == nil {
		return e.result(errCheckClosed)
	}
	e.open.Operations = append(e.open.Operations, Operation{
		CheckType:       e.checkType,
		Tax:             e.tax,
		Quantity:        e.quantity,
		Price:           e.price,
		Name:            e.text,
		PaymentTypeSign: e.typeSign,
		PaymentItemSign: e.itemSign,
	})
	return e.result(resultOK)
}

func (e *Emulator) SetSumm(n int, sum int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 1 || n > maxPaymentTypes {
		return
	}
	e.sums[n-1] = sum
}

func (e *Emulator) OpenSession() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("OpenSession"); ok {
		return code
	}
	if e.mode != ModeShiftClosed {
		return e.result(errWrongMode)
	}
	e.mode = ModeShiftOpen
	return e.result(resultOK)
}

func (e *Emulator) OpenCheck() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("OpenCheck"); ok {
		return code
	}
	switch {
	case e.open != nil:
		return e.result(errCheckOpen)
	case e.mode == ModeShiftExpired:
		return e.result(errShiftExpired)
	case e.mode != ModeShiftOpen:
		return e.result(errShiftNotOpen)
	}
	e.open = &Receipt{CheckType: e.checkType}
	e.sums = [maxPaymentTypes]int64{}
	e.mode = ModeDocumentOpen
	return e.result(resultOK)
}

func (e *Emulator) CloseCheck() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("CloseCheck"); ok {
		return code
	}
	if e.open == nil {
		return e.result(errCheckClosed)
	}

	var total, paid int64
	for _, op := range e.open.Operations {
		total += int64(float64(op.Price) * op.Quantity)
	}
	for _, s := range e.sums {
		paid += s
	}
	if paid < total {
		return e.result(errPaymentTooSmall)
	}

	e.open.Sums = e.sums
	e.open.Email = e.customer
	e.receipts = append(e.receipts, *e.open)
	e.cash += e.sums[0]
	e.closeDocument()
	return e.result(resultOK)
}

func (e *Emulator) CancelCheck() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("CancelCheck"); ok {
		return code
	}
	if e.open == nil {
		return e.result(errCheckClosed)
	}
	e.closeDocument()
	return e.result(resultOK)
}

func (e *Emulator) closeDocument() {
	e.open = nil
	e.customer = ""
	e.sums = [maxPaymentTypes]int64{}
	e.mode = ModeShiftOpen
}

func (e *Emulator) ECRMode() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "ECRMode")
	return e.mode
}

func (e *Emulator) SetEmailAddress(address string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.email = address
}

func (e *Emulator) SetCustomerEmail(email string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.customer = email
}

func (e *Emulator) FNSendCustomerEmail() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("FNSendCustomerEmail"); ok {
		return code
	}
	if e.open == nil {
		return e.result(errCheckClosed)
	}
	e.open.Email = e.customer
	return e.result(resultOK)
}

func (e *Emulator) CashIncome() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("CashIncome"); ok {
		return code
	}
	if e.open != nil {
		return e.result(errCheckOpen)
	}
	if e.mode == ModeShiftClosed {
		e.mode = ModeShiftOpen
	}
	e.cash += e.sums[0]
	return e.result(resultOK)
}

func (e *Emulator) CashOutcome() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("CashOutcome"); ok {
		return code
	}
	if e.open != nil {
		return e.result(errCheckOpen)
	}
	if e.sums[0] > e.cash {
		return e.result(errNotEnoughCash)
	}
	if e.mode == ModeShiftClosed {
		e.mode = ModeShiftOpen
	}
	e.cash -= e.sums[0]
	return e.result(resultOK)
}

func (e *Emulator) PrintReportWithCleaning() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("PrintReportWithCleaning"); ok {
		return code
	}
	if e.open != nil {
		return e.result(errCheckOpen)
	}
	e.reports = append(e.reports, true)
	e.mode = ModeShiftClosed
	return e.result(resultOK)
}

func (e *Emulator) PrintReportWithoutCleaning() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("PrintReportWithoutCleaning"); ok {
		return code
	}
	if e.open != nil {
		return e.result(errCheckOpen)
	}
	e.reports = append(e.reports, false)
	return e.result(resultOK)
}

func (e *Emulator) SetCutType(partial bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.partial = partial
}

func (e *Emulator) CutCheck() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("CutCheck"); ok {
		return code
	}
	e.cuts = append(e.cuts, e.partial)
	return e.result(resultOK)
}

func (e *Emulator) FinishDocument() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if code, ok := e.command("FinishDocument"); ok {
		return code
	}
	return e.result(resultOK)
}

func (e *Emulator) ResultCode() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resultCode
}

func (e *Emulator) ResultCodeDescription() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return DescribeResult(e.resultCode)
}

// command records name and applies connection and scripted failures.
func (e *Emulator) command(name string) (int, bool) {
	if code, ok := e.scripted(name); ok {
		return code, true
	}
	if !e.connected {
		return e.result(resultNoConnection), true
	}
	return 0, false
}

func (e *Emulator) scripted(name string) (int, bool) {
	e.calls = append(e.calls, name)
	if code, ok := e.failures[name]; ok {
		return e.result(code), true
	}
	return 0, false
}

func (e *Emulator) result(code int) int {
	e.resultCode = code
	return code
}

// FailOn makes every call of the named command return code.
func (e *Emulator) FailOn(name string, code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[name] = code
}

// Clear removes scripted failures.
func (e *Emulator) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = make(map[string]int)
}

// SetMode forces the ECR mode.
func (e *Emulator) SetMode(mode int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = mode
}

// SetMetrics sets the font metrics reported by GetFontMetrics.
func (e *Emulator) SetMetrics(printWidth, charWidth int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.printWidth = printWidth
	e.charWidth = charWidth
}

func (e *Emulator) URI() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uri
}

func (e *Emulator) Password() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.password
}

func (e *Emulator) IsConnected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

func (e *Emulator) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// CallCount returns how many times the named command ran.
func (e *Emulator) CallCount(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (e *Emulator) Printed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.printed...)
}

// StringForPrinting returns the staged print string.
func (e *Emulator) StringForPrinting() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

func (e *Emulator) Receipts() []Receipt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Receipt(nil), e.receipts...)
}

// HasOpenCheck reports whether a document is open.
func (e *Emulator) HasOpenCheck() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open != nil
}

func (e *Emulator) Cash() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cash
}

// Reports lists printed reports, true for Z.
func (e *Emulator) Reports() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bool(nil), e.reports...)
}

// Cuts lists performed cuts, true for partial.
func (e *Emulator) Cuts() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bool(nil), e.cuts...)
}
