package catalog

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/driver/printserver"
	"github.com/Softbalance/equipment/internal/driver/shtrih"
	"github.com/Softbalance/equipment/internal/model"
)

const atolDefaults = `<settings><value name="Port">USB</value></settings>`

func TestPackUnpack(t *testing.T) {
	values := model.SettingsValues{
		TypeID:       TypeReceiptPrinter,
		ModelID:      "posiflex-pp",
		DriverID:     "posiflex",
		StringValues: []model.TypedValue[string]{{ID: "host", Value: "10.0.0.5"}},
		ListValues:   []model.TypedValue[int]{{ID: "connectionType", Value: 1}},
	}
	blob, err := Pack(values)
	require.NoError(t, err)

	_, err = base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	got, err := Unpack(blob)
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestUnpackRejectsGarbage(t *testing.T) {
	for _, blob := range []string{"%%%", base64.StdEncoding.EncodeToString([]byte("plain"))} {
		_, err := Unpack(blob)
		assert.ErrorIs(t, err, ErrBadBlob, blob)
	}
}

func TestModels(t *testing.T) {
	c := New(atolDefaults)
	assert.Len(t, c.DeviceTypes(), 2)

	models, drivers, err := c.Models(TypeFiscalRegister)
	require.NoError(t, err)
	assert.Len(t, models, 2)
	assert.Equal(t, []model.DeviceDriver{{ID: "atol", Name: "Atol"}, {ID: "shtrih", Name: "Shtrih-M"}}, drivers)

	_, drivers, err = c.Models(TypeReceiptPrinter)
	require.NoError(t, err)
	assert.Equal(t, []model.DeviceDriver{{ID: "posiflex", Name: "Posiflex ESC"}}, drivers)

	_, _, err = c.Models(99)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestFormVisibility(t *testing.T) {
	c := New(atolDefaults)
	form, err := c.Form("posiflex")
	require.NoError(t, err)
	assert.True(t, form.IsSuccess())
	assert.Equal(t, "posiflex", form.DriverID)

	values := printserver.CurrentValues(form)
	visible := map[string]bool{}
	for _, s := range form.StringSettings {
		visible[s.ID] = printserver.Visible(s, values)
	}
	assert.True(t, visible["host"])
	assert.False(t, visible["productId"])

	_, err = c.Form("epson")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestFillAndResolvePosiflex(t *testing.T) {
	c := New(atolDefaults)
	values := model.SettingsValues{
		DriverID:     "posiflex",
		ModelID:      "atol-rp",
		ListValues:   []model.TypedValue[int]{{ID: "connectionType", Value: 2}, {ID: "codePage", Value: escpos.CodePageAtol}},
		StringValues: []model.TypedValue[string]{{ID: "productId", Value: "3"}, {ID: "offsetHeaderBottom", Value: "2"}},
	}

	form, err := c.Fill(values)
	require.NoError(t, err)
	assert.Equal(t, "atol-rp", form.ModelID)
	assert.Equal(t, 2, *form.ListSettings[0].Value)

	blob, err := Pack(values)
	require.NoError(t, err)
	kind, settings, err := c.Resolve(blob)
	require.NoError(t, err)
	assert.Equal(t, model.DriverPosiflex, kind)

	s := escpos.ExtractSettings(settings)
	assert.Equal(t, escpos.ConnectionUSB, s.ConnectionType)
	assert.Equal(t, 3, s.ProductID)
	assert.Equal(t, escpos.CodePageAtol, s.CodePage)
	assert.Equal(t, 2, s.OffsetHeaderBottom)
	assert.Equal(t, 9100, s.Port)
}

func TestAssembleOtherDrivers(t *testing.T) {
	c := New(atolDefaults)

	kind, settings, err := c.Assemble(model.SettingsValues{DriverID: "atol"})
	require.NoError(t, err)
	assert.Equal(t, model.DriverAtol, kind)
	assert.Equal(t, atolDefaults, settings)

	_, settings, err = c.Assemble(model.SettingsValues{
		DriverID:     "shtrih",
		StringValues: []model.TypedValue[string]{{ID: "host", Value: "10.0.0.2"}, {ID: "port", Value: "7777"}, {ID: "baudRate", Value: "9600"}},
	})
	require.NoError(t, err)
	assert.Equal(t, shtrih.Settings{Host: "10.0.0.2", Port: 7777}, shtrih.ExtractSettings(settings))

	_, _, err = c.Assemble(model.SettingsValues{DriverID: "printserver"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
