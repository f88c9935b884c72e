package catalog

import (
	"strconv"

	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/driver/shtrih"
	"github.com/Softbalance/equipment/internal/model"
)

// Setting ids shared by the forms.
const (
	settingConnection = "connectionType"
	settingHost       = "host"
	settingPort       = "port"
	settingProduct    = "productId"
	settingDevice     = "deviceName"
	settingBaudRate   = "baudRate"
	settingCodePage   = "codePage"
	settingOffset     = "offsetHeaderBottom"
	settingAtol       = "settings"
)

const (
	connectionNetwork = 1
	connectionUSB     = 2
)

func atolSpec(defaults string) DriverSpec {
	return DriverSpec{
		Kind: model.DriverAtol,
		Name: "Atol",
		Form: func() model.SettingsResponse {
			return model.SettingsResponse{
				BaseResponse: model.NewBaseResponse(),
				StringSettings: []model.StringSetting{
					{ID: settingAtol, Title: "Driver settings", Sort: 1, Value: ptr(defaults)},
				},
			}
		},
		Assemble: func(values model.SettingsValues) string {
			return values.String(settingAtol, defaults)
		},
	}
}

func posiflexSpec() DriverSpec {
	d := escpos.DefaultSettings()
	onNetwork := []model.Dependency[string]{{SettingsIDs: []string{settingConnection}, Values: []string{strconv.Itoa(connectionNetwork)}, Visible: true}}
	onUSB := []model.Dependency[string]{{SettingsIDs: []string{settingConnection}, Values: []string{strconv.Itoa(connectionUSB)}, Visible: true}}
	return DriverSpec{
		Kind: model.DriverPosiflex,
		Name: "Posiflex ESC",
		Form: func() model.SettingsResponse {
			return model.SettingsResponse{
				BaseResponse: model.NewBaseResponse(),
				ListSettings: []model.ListSetting{
					{
						ID: settingConnection, Title: "Connection", Sort: 1, Value: ptr(connectionNetwork),
						Values: []model.ListValue{{Title: "Network", ValueID: connectionNetwork}, {Title: "USB", ValueID: connectionUSB}},
					},
					{
						ID: settingCodePage, Title: "Code page", Sort: 6, Value: ptr(d.CodePage),
						Values: []model.ListValue{
							{Title: "Windows-1251 (Atol)", ValueID: escpos.CodePageAtol},
							{Title: "Windows-1251 (Posiflex)", ValueID: escpos.CodePagePosiflex},
						},
					},
				},
				StringSettings: []model.StringSetting{
					{ID: settingHost, Title: "Host", Sort: 2, Value: ptr(d.Host), MaxLength: 255, Dependencies: onNetwork},
					{ID: settingPort, Title: "Port", Sort: 3, Value: ptr(strconv.Itoa(d.Port)), IsNumber: true, MaxLength: 5, Dependencies: onNetwork},
					{ID: settingProduct, Title: "USB product id", Sort: 4, Value: ptr("0"), IsNumber: true, MaxLength: 5, Dependencies: onUSB},
					{ID: settingDevice, Title: "Serial device", Sort: 5, Value: ptr(""), MaxLength: 255, Dependencies: onNetwork},
					{ID: settingOffset, Title: "Blank lines after header", Sort: 7, Value: ptr("0"), IsNumber: true, MaxLength: 2},
				},
			}
		},
		Assemble: func(values model.SettingsValues) string {
			s := escpos.DefaultSettings()
			if values.List(settingConnection, connectionNetwork) == connectionUSB {
				s.ConnectionType = escpos.ConnectionUSB
			}
			s.Host = values.String(settingHost, s.Host)
			s.Port = atoi(values.String(settingPort, ""), s.Port)
			s.ProductID = atoi(values.String(settingProduct, ""), 0)
			s.DeviceName = values.String(settingDevice, "")
			s.CodePage = values.List(settingCodePage, s.CodePage)
			s.OffsetHeaderBottom = atoi(values.String(settingOffset, ""), 0)
			return escpos.PackSettings(s)
		},
	}
}

func shtrihSpec() DriverSpec {
	d := shtrih.DefaultSettings()
	return DriverSpec{
		Kind: model.DriverShtrih,
		Name: "Shtrih-M",
		Form: func() model.SettingsResponse {
			return model.SettingsResponse{
				BaseResponse: model.NewBaseResponse(),
				StringSettings: []model.StringSetting{
					{ID: settingHost, Title: "Host", Sort: 1, Value: ptr(d.Host), MaxLength: 255},
					{ID: settingPort, Title: "Port", Sort: 2, Value: ptr(strconv.Itoa(d.Port)), IsNumber: true, MaxLength: 5},
					{ID: settingDevice, Title: "Serial device", Sort: 3, Value: ptr(""), MaxLength: 255},
					{ID: settingBaudRate, Title: "Baud rate", Sort: 4, Value: ptr("115200"), IsNumber: true, MaxLength: 6},
				},
			}
		},
		Assemble: func(values model.SettingsValues) string {
			s := shtrih.DefaultSettings()
			s.Host = values.String(settingHost, s.Host)
			s.Port = atoi(values.String(settingPort, ""), s.Port)
			s.DeviceName = values.String(settingDevice, "")
			if s.DeviceName != "" {
				s.BaudRate = atoi(values.String(settingBaudRate, ""), 0)
			}
			return shtrih.PackSettings(s)
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
