package shtrih

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
)

func newTestShtrih(t *testing.T) (*Shtrih, *Emulator) {
	t.Helper()
	emu := NewEmulator()
	s := New(Settings{Host: "10.0.0.9", Port: 7778}, emu, zap.NewNop())
	require.NoError(t, s.Open(context.Background()))
	return s, emu
}

func run(t *testing.T, s *Shtrih, tasks ...model.Task) error {
	t.Helper()
	for _, task := range tasks {
		if err := s.RunTask(context.Background(), task); err != nil {
			return err
		}
	}
	return nil
}

func TestOpenSetsURIAndPassword(t *testing.T) {
	s, emu := newTestShtrih(t)
	assert.Equal(t, "tcp://10.0.0.9:7778?timeout=5000&protocol=v1", emu.URI())
	assert.Equal(t, 30, emu.Password())
	assert.Equal(t, model.StatusInitialized, s.Status())
}

func TestOpenFailure(t *testing.T) {
	emu := NewEmulator()
	emu.FailOn("Connect", resultNoConnection)
	s := New(DefaultSettings(), emu, zap.NewNop())

	err := s.Open(context.Background())
	require.Error(t, err)
	assert.Equal(t, "-1: No connection", err.Error())
	assert.Equal(t, model.StatusNotInitialized, s.Status())

	s.Finish(context.Background())
	assert.Equal(t, model.StatusFinished, s.Status())
}

func TestPrintStringAlignsToLineLength(t *testing.T) {
	s, emu := newTestShtrih(t)

	require.NoError(t, run(t, s, model.NewTask(model.TaskString, "abc").WithAlignment(model.AlignRight)))
	printed := emu.Printed()
	require.Len(t, printed, 1)
	assert.Len(t, printed[0], 48)
	assert.True(t, strings.HasSuffix(printed[0], "abc"))
	assert.Empty(t, emu.StringForPrinting())
}

func TestPrintStringDefaultLineLength(t *testing.T) {
	s, emu := newTestShtrih(t)
	emu.SetMetrics(576, 0)

	require.NoError(t, run(t, s, model.NewTask(model.TaskString, "x").WithAlignment(model.AlignRight)))
	assert.Len(t, emu.Printed()[0], defaultLineLength)
}

func TestPrintStringTraitAndDash(t *testing.T) {
	s, emu := newTestShtrih(t)
	emu.SetMetrics(310, 10)

	require.NoError(t, run(t, s,
		model.NewTask(model.TaskString, " TRAIT "),
		model.NewTask(model.TaskString, "--dash--"),
	))
	printed := emu.Printed()
	require.Len(t, printed, 2)
	assert.Equal(t, " "+traitTemplate, printed[0])
	assert.Equal(t, dashTemplate, printed[1])
}

func TestPrintStringWraps(t *testing.T) {
	s, emu := newTestShtrih(t)
	emu.SetMetrics(100, 10)

	task := model.NewTask(model.TaskString, "one two three four")
	task.Param.Wrap = model.NewBool(true)
	require.NoError(t, run(t, s, task))
	assert.Equal(t, []string{"one two", "three four"}, emu.Printed())
}

func TestPrintStringFailure(t *testing.T) {
	s, emu := newTestShtrih(t)
	emu.FailOn("PrintString", errNoPaper)

	err := run(t, s, model.NewTask(model.TaskString, "abc"))
	require.Error(t, err)
	assert.Equal(t, "Failed to execute task String. 107: No receipt paper", driver.Describe(err))
	assert.Empty(t, emu.StringForPrinting())
}

func TestSellCheck(t *testing.T) {
	s, emu := newTestShtrih(t)

	contact := "buyer@example.com"
	open := model.NewTask(model.TaskOpenCheckSell, "")
	open.Param.ClientContact = &contact

	item := model.NewTask(model.TaskRegistration, "Milk")
	item.Param.Price = model.NewMoney("10.50")
	item.Param.Quantity = model.NewMoney("2")
	tax := 4
	item.Param.Tax = &tax
	mode := 4
	item.Param.PaymentMode = &mode

	pay := model.NewTask(model.TaskPayment, "")
	pay.Param.Sum = model.NewMoney("21.00")
	card := model.NewTask(model.TaskPayment, "")
	card.Param.Sum = model.NewMoney("1.99")
	typeClose := 2
	card.Param.TypeClose = &typeClose

	require.NoError(t, run(t, s, open, item, pay, card, model.NewTask(model.TaskCloseCheck, "")))

	receipts := emu.Receipts()
	require.Len(t, receipts, 1)
	r := receipts[0]
	assert.Equal(t, CheckTypeSell, r.CheckType)
	assert.Equal(t, contact, r.Email)
	assert.Equal(t, int64(2100), r.Sums[0])
	assert.Equal(t, int64(199), r.Sums[1])
	require.Len(t, r.Operations, 1)
	assert.Equal(t, Operation{
		CheckType:       CheckTypeAdd,
		Tax:             4,
		Quantity:        2,
		Price:           1050,
		Name:            "Milk",
		PaymentTypeSign: 4,
	}, r.Operations[0])
	assert.Empty(t, emu.StringForPrinting())
}

func TestReturnCheckRegistersReturn(t *testing.T) {
	s, emu := newTestShtrih(t)

	item := model.NewTask(model.TaskRegistration, "Milk")
	item.Param.Price = model.NewMoney("5")
	item.Param.Quantity = model.NewMoney("1")
	ret := model.NewTask(model.TaskReturn, "")
	ret.Param.Sum = model.NewMoney("5")

	require.NoError(t, run(t, s, model.NewTask(model.TaskOpenCheckReturn, ""), item, ret, model.NewTask(model.TaskCloseCheck, "")))
	r := emu.Receipts()[0]
	assert.Equal(t, CheckTypeReturn, r.CheckType)
	assert.Equal(t, CheckTypeReturn, r.Operations[0].CheckType)
}

func TestCloseCheckUnderpaid(t *testing.T) {
	s, _ := newTestShtrih(t)

	item := model.NewTask(model.TaskRegistration, "Milk")
	item.Param.Price = model.NewMoney("5")
	item.Param.Quantity = model.NewMoney("1")

	err := run(t, s, model.NewTask(model.TaskOpenCheckSell, ""), item, model.NewTask(model.TaskCloseCheck, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to execute task CloseCheck. 69: ")
}

func TestExpiredSessionBlocksCheck(t *testing.T) {
	s, emu := newTestShtrih(t)
	emu.SetMode(ModeShiftExpired)

	err := run(t, s, model.NewTask(model.TaskOpenCheckSell, ""))
	require.Error(t, err)
	assert.Equal(t, "Failed to execute task OpenCheckSell. session expired", err.Error())
	assert.Zero(t, emu.CallCount("OpenCheck"))
}

func TestCashOperations(t *testing.T) {
	s, emu := newTestShtrih(t)

	in := model.NewTask(model.TaskCashIncome, "")
	in.Param.Sum = model.NewMoney("100")
	out := model.NewTask(model.TaskCashOutcome, "")
	out.Param.Sum = model.NewMoney("30.5")

	require.NoError(t, run(t, s, in, out))
	assert.Equal(t, int64(6950), emu.Cash())
	assert.Equal(t, 2, emu.CallCount("CancelCheck"))

	tooMuch := model.NewTask(model.TaskCashOutcome, "")
	tooMuch.Param.Sum = model.NewMoney("1000")
	err := run(t, s, tooMuch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "70: Not enough cash in the drawer")
}

func TestReports(t *testing.T) {
	s, emu := newTestShtrih(t)

	z := model.NewTask(model.TaskReport, "")
	reportZ := model.ReportZ
	z.Param.ReportType = &reportZ
	require.NoError(t, run(t, s, model.NewTask(model.TaskReport, ""), z))
	assert.Equal(t, []bool{false, true}, emu.Reports())
}

func TestFireAndForgetTasks(t *testing.T) {
	s, emu := newTestShtrih(t)
	emu.FailOn("CutCheck", errCutter)
	emu.FailOn("FinishDocument", errCutter)

	require.NoError(t, run(t, s,
		model.NewTask(model.TaskCancelCheck, ""),
		model.NewTask(model.TaskCut, ""),
		model.NewTask(model.TaskPrintHeader, ""),
		model.NewTask(model.TaskPrintFooter, ""),
		model.NewTask(model.TaskSyncTime, ""),
	))
	assert.Equal(t, 2, emu.CallCount("FinishDocument"))
}

func TestCutIsFull(t *testing.T) {
	s, emu := newTestShtrih(t)
	require.NoError(t, run(t, s, model.NewTask(model.TaskCut, "")))
	assert.Equal(t, []bool{false}, emu.Cuts())
}

func TestFinishDisconnects(t *testing.T) {
	s, emu := newTestShtrih(t)
	s.Finish(context.Background())
	assert.False(t, emu.IsConnected())
	assert.Equal(t, model.StatusFinished, s.Status())
}

func TestAuxiliaryOperations(t *testing.T) {
	s, _ := newTestShtrih(t)
	ctx := context.Background()

	serial, err := s.GetSerial(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CodeHandlingError, serial.ResultCode)

	_, err = s.GetSessionState(ctx)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)
	_, err = s.OpenShift(ctx)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)
	_, err = s.GetOfdStatus(ctx)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)
	_, err = s.GetTaxes(ctx)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)
}

func TestSettings(t *testing.T) {
	s := ExtractSettings(`{"host":"10.1.1.1","port":1234}`)
	assert.Equal(t, Settings{Host: "10.1.1.1", Port: 1234}, s)
	assert.Equal(t, DefaultSettings(), ExtractSettings("{"))
	assert.Equal(t, s, ExtractSettings(PackSettings(s)))

	serial := Settings{DeviceName: "/dev/ttyUSB0"}
	assert.Equal(t, "serial:///dev/ttyUSB0?baudrate=115200&timeout=5000", serial.ConnectionURI())
	serial = Settings{DeviceName: "COM3", BaudRate: 9600}
	assert.Equal(t, "serial://COM3?baudrate=9600&timeout=5000", serial.ConnectionURI())
}
