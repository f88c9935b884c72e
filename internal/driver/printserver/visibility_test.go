package printserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Softbalance/equipment/internal/model"
)

func TestVisible(t *testing.T) {
	usbHidden := model.StringSetting{
		ID: "host",
		Dependencies: []model.Dependency[string]{
			{SettingsIDs: []string{"connection"}, Values: []string{"network"}, Visible: true},
		},
	}
	network := model.SettingsValues{StringValues: []model.TypedValue[string]{{ID: "connection", Value: "network"}}}
	usb := model.SettingsValues{StringValues: []model.TypedValue[string]{{ID: "connection", Value: "usb"}}}

	assert.True(t, Visible(usbHidden, network))
	assert.False(t, Visible(usbHidden, usb))
	assert.False(t, Visible(&usbHidden, model.SettingsValues{}))

	hideWhenMatched := model.BoolSetting{
		ID: "cut",
		Dependencies: []model.Dependency[model.Bool]{
			{SettingsIDs: []string{"a", "b"}, Values: []model.Bool{true}, Visible: false},
		},
	}
	both := model.SettingsValues{BoolValues: []model.TypedValue[model.Bool]{{ID: "a", Value: true}, {ID: "b", Value: true}}}
	one := model.SettingsValues{BoolValues: []model.TypedValue[model.Bool]{{ID: "a", Value: true}, {ID: "b", Value: false}}}
	assert.False(t, Visible(hideWhenMatched, both))
	assert.True(t, Visible(hideWhenMatched, one))

	assert.True(t, Visible(model.ListSetting{ID: "free"}, usb))

	product := model.StringSetting{
		ID: "productId",
		Dependencies: []model.Dependency[string]{
			{SettingsIDs: []string{"connectionType"}, Values: []string{"2"}, Visible: true},
		},
	}
	listUSB := model.SettingsValues{ListValues: []model.TypedValue[int]{{ID: "connectionType", Value: 2}}}
	listNetwork := model.SettingsValues{ListValues: []model.TypedValue[int]{{ID: "connectionType", Value: 1}}}
	assert.True(t, Visible(&product, listUSB))
	assert.False(t, Visible(&product, listNetwork))
}

func TestCurrentValues(t *testing.T) {
	on := model.Bool(true)
	host := "10.0.0.1"
	speed := 3
	resp := model.SettingsResponse{
		DriverID:       "posiflex",
		BoolSettings:   []model.BoolSetting{{ID: "cut", Value: &on}, {ID: "unset"}},
		StringSettings: []model.StringSetting{{ID: "host", Value: &host}},
		ListSettings:   []model.ListSetting{{ID: "speed", Value: &speed}},
	}

	values := CurrentValues(resp)
	assert.Equal(t, "posiflex", values.DriverID)
	assert.True(t, values.Bool("cut", false))
	assert.Len(t, values.BoolValues, 1)
	assert.Equal(t, "10.0.0.1", values.String("host", ""))
	assert.Equal(t, 3, values.List("speed", 0))
}
