// internal/model/relay.go
package model

// Wire types of the print server (relay) HTTP surface.

// TasksRequest is the body of POST /execute.
type TasksRequest struct {
	Tasks    []Task `json:"taskTable"`
	Settings string `json:"settings"`
}

// SettingsRequest carries an opaque compressed settings blob.
type SettingsRequest struct {
	Settings string `json:"settings"`
}

type MessageResponse struct {
	BaseResponse
	Value string `json:"value"`
}

type VersionResponse struct {
	BaseResponse
	Version string `json:"version"`
}

// DeviceType is a device class supported by the print server.
type DeviceType struct {
	ID   int    `json:"typeId"`
	Name string `json:"typeName"`
}

type DevicesResponse struct {
	BaseResponse
	DeviceTypes []DeviceType `json:"supportDeviceType"`
}

// DeviceModel is a concrete model and the driver codes able to serve it.
type DeviceModel struct {
	ID                 string   `json:"modelId"`
	Name               string   `json:"modelName"`
	SupportDriverCodes []string `json:"supportDriverCodes"`
}

// DeviceDriver names a driver that can be configured through /deviceSetting.
type DeviceDriver struct {
	ID   string `json:"driverId"`
	Name string `json:"driverName"`
}

type ModelsResponse struct {
	BaseResponse
	Models  []DeviceModel  `json:"models"`
	Drivers []DeviceDriver `json:"drivers"`
}

// Dependency drives the conditional visibility of a setting: when every
// setting listed in SettingsIDs currently holds one of Values, the owning
// setting is shown iff Visible; otherwise iff !Visible.
type Dependency[T any] struct {
	SettingsIDs []string `json:"depend"`
	Values      []T      `json:"value"`
	Visible     Bool     `json:"visible"`
}

type BoolSetting struct {
	ID           string             `json:"id"`
	Value        *Bool              `json:"value,omitempty"`
	Title        string             `json:"title"`
	Sort         int                `json:"sort"`
	Dependencies []Dependency[Bool] `json:"depend"`
}

type StringSetting struct {
	ID           string               `json:"id"`
	Value        *string              `json:"value,omitempty"`
	Title        string               `json:"title"`
	Sort         int                  `json:"sort"`
	IsNumber     Bool                 `json:"isNumber"`
	MaxLength    int                  `json:"maxLength"`
	Dependencies []Dependency[string] `json:"depend"`
}

// ListValue is one selectable option of a list setting.
type ListValue struct {
	Title   string `json:"title"`
	ValueID int    `json:"valueId"`
}

type ListSetting struct {
	ID           string            `json:"id"`
	Value        *int              `json:"value,omitempty"`
	Title        string            `json:"title"`
	Sort         int               `json:"sort"`
	Values       []ListValue       `json:"list"`
	Dependencies []Dependency[int] `json:"depend"`
}

type SettingsResponse struct {
	BaseResponse
	DriverID       string          `json:"driverId"`
	ModelID        string          `json:"modelId"`
	BoolSettings   []BoolSetting   `json:"typeBool"`
	StringSettings []StringSetting `json:"typeString"`
	ListSettings   []ListSetting   `json:"typeList"`
}

// TypedValue is a filled-in setting value sent back to the server.
type TypedValue[T any] struct {
	ID    string `json:"id"`
	Value T      `json:"value"`
}

// SettingsValues is the body of POST /deviceSettingZip and the content of
// the compressed settings blob.
type SettingsValues struct {
	TypeID       int                  `json:"typeId"`
	ModelID      string               `json:"modelId"`
	DriverID     string               `json:"driverId"`
	BoolValues   []TypedValue[Bool]   `json:"settingBool"`
	StringValues []TypedValue[string] `json:"settingString"`
	ListValues   []TypedValue[int]    `json:"settingList"`
}

// Bool returns the boolean setting id, or def when absent.
func (v SettingsValues) Bool(id string, def bool) bool {
	for _, b := range v.BoolValues {
		if b.ID == id {
			return bool(b.Value)
		}
	}
	return def
}

// String returns the string setting id, or def when absent.
func (v SettingsValues) String(id, def string) string {
	for _, s := range v.StringValues {
		if s.ID == id {
			return s.Value
		}
	}
	return def
}

// List returns the list setting id, or def when absent.
func (v SettingsValues) List(id string, def int) int {
	for _, l := range v.ListValues {
		if l.ID == id {
			return l.Value
		}
	}
	return def
}

type CompressedSettingsResponse struct {
	BaseResponse
	Value string `json:"value"`
}
